// Package brainstorming models research ideas before they become projects.
package brainstorming

import (
	"time"

	"github.com/xeenaps/pkm/internal/domain/pagination"
)

// Item is one incubated research idea.
type Item struct {
	ID               string    `json:"id"`
	Label            string    `json:"label"`
	RoughIdea        string    `json:"roughIdea"`
	ProposedTitle    string    `json:"proposedTitle"`
	ProblemStatement string    `json:"problemStatement"`
	ResearchGap      string    `json:"researchGap"`
	ResearchQuestion string    `json:"researchQuestion"`
	Methodology      string    `json:"methodology"`
	Population       string    `json:"population"`
	Keywords         []string  `json:"keywords"`
	Pillars          []string  `json:"pillars"`
	ProposedAbstract string    `json:"proposedAbstract"`
	ExternalRefs     []string  `json:"externalRefs"`
	InternalRefs     []string  `json:"internalRefs"`
	IsFavorite       bool      `json:"isFavorite"`
	IsUsed           bool      `json:"isUsed"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

func (it *Item) Normalize() {
	if it.Keywords == nil {
		it.Keywords = []string{}
	}
	if it.Pillars == nil {
		it.Pillars = []string{}
	}
	if it.ExternalRefs == nil {
		it.ExternalRefs = []string{}
	}
	if it.InternalRefs == nil {
		it.InternalRefs = []string{}
	}
}

// TextFields lists the JSON keys accepted by Field and SetField.
var TextFields = []string{
	"label", "roughIdea", "proposedTitle", "problemStatement", "researchGap",
	"researchQuestion", "methodology", "population", "proposedAbstract",
}

// Field returns the value of a text field by its JSON key.
func (it *Item) Field(key string) (string, bool) {
	switch key {
	case "label":
		return it.Label, true
	case "roughIdea":
		return it.RoughIdea, true
	case "proposedTitle":
		return it.ProposedTitle, true
	case "problemStatement":
		return it.ProblemStatement, true
	case "researchGap":
		return it.ResearchGap, true
	case "researchQuestion":
		return it.ResearchQuestion, true
	case "methodology":
		return it.Methodology, true
	case "population":
		return it.Population, true
	case "proposedAbstract":
		return it.ProposedAbstract, true
	}
	return "", false
}

// SetField assigns a text field by its JSON key.
func (it *Item) SetField(key, value string) bool {
	switch key {
	case "label":
		it.Label = value
	case "roughIdea":
		it.RoughIdea = value
	case "proposedTitle":
		it.ProposedTitle = value
	case "problemStatement":
		it.ProblemStatement = value
	case "researchGap":
		it.ResearchGap = value
	case "researchQuestion":
		it.ResearchQuestion = value
	case "methodology":
		it.Methodology = value
	case "population":
		it.Population = value
	case "proposedAbstract":
		it.ProposedAbstract = value
	default:
		return false
	}
	return true
}

// PrimaryKeyword returns the first non-empty keyword.
func (it *Item) PrimaryKeyword() string {
	for _, k := range it.Keywords {
		if k != "" {
			return k
		}
	}
	return ""
}

// SynthesisResult is the structured outcome of expanding a rough idea.
type SynthesisResult struct {
	ProposedTitle    string   `json:"proposedTitle"`
	ProblemStatement string   `json:"problemStatement"`
	ResearchGap      string   `json:"researchGap"`
	ResearchQuestion string   `json:"researchQuestion"`
	Methodology      string   `json:"methodology"`
	Population       string   `json:"population"`
	Keywords         []string `json:"keywords"`
	Pillars          []string `json:"pillars"`
}

// Apply merges a synthesis into the item, keeping existing values for
// fields the model left empty.
func (it *Item) Apply(r SynthesisResult) {
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&it.ProposedTitle, r.ProposedTitle)
	set(&it.ProblemStatement, r.ProblemStatement)
	set(&it.ResearchGap, r.ResearchGap)
	set(&it.ResearchQuestion, r.ResearchQuestion)
	set(&it.Methodology, r.Methodology)
	set(&it.Population, r.Population)
	if len(r.Keywords) > 0 {
		it.Keywords = r.Keywords
	}
	if len(r.Pillars) > 0 {
		it.Pillars = r.Pillars
	}
}

// tracerFields maps tracer project keys to brainstorming keys.
var tracerFields = map[string]string{
	"title":            "proposedTitle",
	"problemStatement": "problemStatement",
	"researchGap":      "researchGap",
	"researchQuestion": "researchQuestion",
	"methodology":      "methodology",
	"population":       "population",
}

// BrainstormingFieldFor returns the brainstorming key feeding a tracer key.
func BrainstormingFieldFor(tracerKey string) (string, bool) {
	k, ok := tracerFields[tracerKey]
	return k, ok
}

// TracerFieldFor returns the tracer key a brainstorming key exports to.
func TracerFieldFor(brainstormingKey string) (string, bool) {
	for t, b := range tracerFields {
		if b == brainstormingKey {
			return t, true
		}
	}
	return "", false
}

type ListQuery struct {
	pagination.Query
	Search   string
	SortKey  string
	SortDesc bool
}
