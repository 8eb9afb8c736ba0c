// Package tracer models research projects and their journals, todos,
// references and finances.
package tracer

import (
	"slices"
	"time"

	"github.com/xeenaps/pkm/internal/domain/pagination"
	"github.com/xeenaps/pkm/internal/domain/research"
)

// Status is the publication stage of a project.
type Status string

const (
	StatusIdea       Status = "Idea"
	StatusDraft      Status = "Draft"
	StatusInProgress Status = "In Progress"
	StatusSubmitted  Status = "Submitted"
	StatusRevision   Status = "Revision"
	StatusAccepted   Status = "Accepted"
	StatusPublished  Status = "Published"
	StatusRejected   Status = "Rejected"
)

var statuses = []Status{
	StatusIdea, StatusDraft, StatusInProgress, StatusSubmitted,
	StatusRevision, StatusAccepted, StatusPublished, StatusRejected,
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	return slices.Contains(statuses, s)
}

// Project is a tracked research project.
type Project struct {
	ID               string    `json:"id"`
	Label            string    `json:"label"`
	Title            string    `json:"title"`
	Topic            string    `json:"topic"`
	ProblemStatement string    `json:"problemStatement"`
	ResearchGap      string    `json:"researchGap"`
	ResearchQuestion string    `json:"researchQuestion"`
	Methodology      string    `json:"methodology"`
	Population       string    `json:"population"`
	Keywords         []string  `json:"keywords"`
	Authors          []string  `json:"authors"`
	Status           Status    `json:"status"`
	Progress         int       `json:"progress"`
	StartDate        string    `json:"startDate"`
	EstEndDate       string    `json:"estEndDate"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// Normalize defaults the status and clamps progress to 0..100.
func (p *Project) Normalize() {
	if p.Status == "" {
		p.Status = StatusIdea
	}
	p.Progress = max(0, min(100, p.Progress))
	if p.Keywords == nil {
		p.Keywords = []string{}
	}
	if p.Authors == nil {
		p.Authors = []string{}
	}
}

// Hydrate fills list fields that older rows may lack: keywords default to
// empty and authors default to the profile owner.
func Hydrate(p *Project, profileName string) {
	if p.Keywords == nil {
		p.Keywords = []string{}
	}
	if p.Authors == nil {
		if profileName != "" {
			p.Authors = []string{profileName}
		} else {
			p.Authors = []string{}
		}
	}
}

// Field returns a text field by its JSON key.
func (p *Project) Field(key string) (string, bool) {
	switch key {
	case "label":
		return p.Label, true
	case "title":
		return p.Title, true
	case "topic":
		return p.Topic, true
	case "problemStatement":
		return p.ProblemStatement, true
	case "researchGap":
		return p.ResearchGap, true
	case "researchQuestion":
		return p.ResearchQuestion, true
	case "methodology":
		return p.Methodology, true
	case "population":
		return p.Population, true
	}
	return "", false
}

// SetField assigns a text field by its JSON key.
func (p *Project) SetField(key, value string) bool {
	switch key {
	case "label":
		p.Label = value
	case "title":
		p.Title = value
	case "topic":
		p.Topic = value
	case "problemStatement":
		p.ProblemStatement = value
	case "researchGap":
		p.ResearchGap = value
	case "researchQuestion":
		p.ResearchQuestion = value
	case "methodology":
		p.Methodology = value
	case "population":
		p.Population = value
	default:
		return false
	}
	return true
}

type ListQuery struct {
	pagination.Query
	Search   string
	Status   string
	SortKey  string
	SortDesc bool
}

// Log is a journal entry. Its body is stored separately as LogContent.
type Log struct {
	ID             string    `json:"id"`
	ProjectID      string    `json:"projectId"`
	Title          string    `json:"title"`
	LogJSONID      string    `json:"logJsonId"`
	StorageNodeURL string    `json:"storageNodeUrl"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// LogView is a log with its display timestamp.
type LogView struct {
	Log
	DisplayTime string `json:"displayTime"`
}

// Attachment is a file or link referenced from a log or finance entry.
type Attachment struct {
	Type    string `json:"type"`
	Label   string `json:"label"`
	URL     string `json:"url,omitempty"`
	FileID  string `json:"fileId,omitempty"`
	NodeURL string `json:"nodeUrl,omitempty"`
}

// LogContent is the body of a journal entry.
type LogContent struct {
	Description string       `json:"description"`
	Attachments []Attachment `json:"attachments"`
}

// SortLogsNewestFirst orders logs by creation time, newest first.
func SortLogsNewestFirst(logs []Log) {
	slices.SortStableFunc(logs, func(a, b Log) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
}

const logTimeLayout = "02 Jan 2006 15:04"

var logTimeInputs = []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"}

// FormatLogTime renders an ISO timestamp as "DD Mon YYYY HH:MM" in loc
// (UTC when nil). Unparseable input yields "-".
func FormatLogTime(ts string, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	for _, layout := range logTimeInputs {
		if t, err := time.Parse(layout, ts); err == nil {
			return t.In(loc).Format(logTimeLayout)
		}
	}
	return "-"
}

// Reference links a library item to a project.
type Reference struct {
	ID             string    `json:"id"`
	ProjectID      string    `json:"projectId"`
	CollectionID   string    `json:"collectionId"`
	ContentJSONID  string    `json:"contentJsonId"`
	StorageNodeURL string    `json:"storageNodeUrl"`
	CreatedAt      time.Time `json:"createdAt"`
}

// Todo is a project task.
type Todo struct {
	ID          string    `json:"id"`
	ProjectID   string    `json:"projectId"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	StartDate   string    `json:"startDate"`
	Deadline    string    `json:"deadline"`
	IsDone      bool      `json:"isDone"`
	CompletedAt string    `json:"completedAt"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// FinanceType is the direction of a finance entry.
type FinanceType string

const (
	FinanceIncome  FinanceType = "income"
	FinanceExpense FinanceType = "expense"
)

// Finance is a ledger entry of a project.
type Finance struct {
	ID                string      `json:"id"`
	ProjectID         string      `json:"projectId"`
	Date              string      `json:"date"`
	Type              FinanceType `json:"type"`
	Amount            float64     `json:"amount"`
	Balance           float64     `json:"balance"`
	Description       string      `json:"description"`
	AttachmentsJSONID string      `json:"attachmentsJsonId"`
	StorageNodeURL    string      `json:"storageNodeUrl"`
	CreatedAt         time.Time   `json:"createdAt"`
	UpdatedAt         time.Time   `json:"updatedAt"`
}

// RecomputeBalances sorts entries by date (then creation time) and sets
// each running balance.
func RecomputeBalances(entries []Finance) {
	slices.SortStableFunc(entries, func(a, b Finance) int {
		if a.Date != b.Date {
			if a.Date < b.Date {
				return -1
			}
			return 1
		}
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	var balance float64
	for i := range entries {
		switch entries[i].Type {
		case FinanceIncome:
			balance += entries[i].Amount
		case FinanceExpense:
			balance -= entries[i].Amount
		}
		entries[i].Balance = balance
	}
}

// Detail is the aggregate shown on a project page.
type Detail struct {
	Project    Project           `json:"project"`
	Logs       []LogView         `json:"logs"`
	Todos      []Todo            `json:"todos"`
	References []Reference       `json:"references"`
	Sources    []research.Source `json:"sources"`
}
