// Package copilot builds the prompts behind the AI-assisted editing tools and
// decodes their structured replies.
package copilot

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/xeenaps/pkm/internal/domain"
	"github.com/xeenaps/pkm/internal/domain/brainstorming"
	"github.com/xeenaps/pkm/internal/domain/tracer"
)

// Mode selects how a field is refined.
type Mode string

const (
	ModeRewrite Mode = "REWRITE"
	ModeExpand  Mode = "EXPAND"
)

// Valid reports whether m is a known mode.
func (m Mode) Valid() bool {
	return m == ModeRewrite || m == ModeExpand
}

// Language is a translation target offered to users.
type Language struct {
	Code  string `json:"code"`
	Label string `json:"label"`
}

// Languages lists the supported translation targets in display order.
var Languages = []Language{
	{"en", "English"},
	{"id", "Indonesian"},
	{"pt", "Portuguese"},
	{"es", "Spanish"},
	{"de", "German"},
	{"fr", "French"},
	{"nl", "Dutch"},
	{"zh", "Mandarin"},
	{"ja", "Japanese"},
	{"vi", "Vietnamese"},
	{"th", "Thai"},
	{"hi", "Hindi"},
	{"tr", "Turkish"},
	{"ru", "Russian"},
	{"ar", "Arabic"},
}

// LookupLanguage resolves a language by code or label, case-insensitively.
func LookupLanguage(s string) (Language, error) {
	for _, l := range Languages {
		if strings.EqualFold(l.Code, s) || strings.EqualFold(l.Label, s) {
			return l, nil
		}
	}
	return Language{}, fmt.Errorf("%w: unsupported language %q", domain.ErrValidation, s)
}

// TranslatePrompt asks for a faithful academic translation of text.
func TranslatePrompt(text string, lang Language) string {
	return fmt.Sprintf(`TRANSLATE THE FOLLOWING TEXT TO %s (%s).
REQUIREMENTS:
1. Maintain academic tone and nuance.
2. Preserve any HTML tags if present (e.g. <b>, <i>).
3. RETURN ONLY THE TRANSLATED TEXT. NO CONVERSATIONAL FILLER.

TEXT:
"%s"`, lang.Label, lang.Code, text)
}

type refineContext struct {
	Title       string `json:"title"`
	Topic       string `json:"topic,omitempty"`
	Problem     string `json:"problem"`
	Gap         string `json:"gap"`
	Question    string `json:"question"`
	Methodology string `json:"methodology"`
	Population  string `json:"population"`
}

func refineInstruction(field string, mode Mode) string {
	if mode == ModeExpand {
		return fmt.Sprintf("Please EXPAND the '%s' field. Add detail, depth, and rigorous academic nuance. "+
			"CRITICAL: Ensure it is consistent with the Research Question and Problem Statement.", field)
	}
	return fmt.Sprintf("Please REWRITE the '%s' field. Make it more academic, concise, "+
		"and scientifically aligned with the Research Question.", field)
}

func refinePrompt(field, current string, ctx refineContext, mode Mode) string {
	ctxJSON, _ := json.Marshal(ctx)
	return fmt.Sprintf(`ACT AS A SENIOR RESEARCH CO-PILOT.
Based on the full project context below, perform the following action on the specific field.

CONTEXT JSON:
%s

TARGET FIELD: "%s"
CURRENT VALUE: "%s"
ACTION: %s

INSTRUCTION: %s

--- RULES ---
1. RETURN ONLY THE NEW TEXT STRING for the field. NO CONVERSATION. NO JSON.
2. STRICTLY DO NOT USE Markdown symbols like **, #, or -. Use standard text or HTML <b> if strictly necessary for emphasis.
3. LANGUAGE: English (Academic).`, ctxJSON, field, current, mode, refineInstruction(field, mode))
}

// RefineBrainstormingPrompt rewrites or expands one field of an idea using
// the rest of the idea as context.
func RefineBrainstormingPrompt(field, current string, item *brainstorming.Item, mode Mode) string {
	return refinePrompt(field, current, refineContext{
		Title:       item.ProposedTitle,
		Problem:     item.ProblemStatement,
		Gap:         item.ResearchGap,
		Question:    item.ResearchQuestion,
		Methodology: item.Methodology,
		Population:  item.Population,
	}, mode)
}

// RefineTracerPrompt rewrites or expands one field of a project.
func RefineTracerPrompt(field, current string, p *tracer.Project, mode Mode) string {
	return refinePrompt(field, current, refineContext{
		Title:       p.Title,
		Topic:       p.Topic,
		Problem:     p.ProblemStatement,
		Gap:         p.ResearchGap,
		Question:    p.ResearchQuestion,
		Methodology: p.Methodology,
		Population:  p.Population,
	}, mode)
}

// SynthesisPrompt turns a rough idea into a structured framework returned as
// JSON matching brainstorming.SynthesisResult.
func SynthesisPrompt(roughIdea string) string {
	return fmt.Sprintf(`ACT AS A SENIOR RESEARCH STRATEGIST.
TRANSFORM THE FOLLOWING ROUGH IDEA INTO A STRUCTURED RESEARCH FRAMEWORK.

ROUGH IDEA:
"%s"

--- REQUIREMENTS ---
1. RESPONSE MUST BE RAW JSON ONLY.
2. LANGUAGE: ENGLISH BY DEFAULT.
3. STRICT RULE: DO NOT USE the long dash character. Use standard hyphens '-' instead.
4. FIELDS TO FILL:
   - proposedTitle: High-impact academic title.
   - problemStatement: Concise justification of the study.
   - researchGap: What previous studies missed.
   - researchQuestion: Primary investigation question.
   - methodology: Proposed technical approach.
   - population: Targeted subjects or data sources.
   - keywords: Array of 5 core academic keywords.
   - pillars: Array of EXACTLY 10 main discussion pillars for the paper.

EXPECTED JSON STRUCTURE:
{
  "proposedTitle": "...",
  "problemStatement": "...",
  "researchGap": "...",
  "researchQuestion": "...",
  "methodology": "...",
  "population": "...",
  "keywords": ["...", "...", "...", "...", "..."],
  "pillars": ["...", "...", "...", "...", "...", "...", "...", "...", "...", "..."]
}`, roughIdea)
}

// AbstractPrompt composes a formal abstract of at most 250 words.
func AbstractPrompt(item *brainstorming.Item) string {
	return fmt.Sprintf(`ACT AS A SENIOR ACADEMIC WRITER.
COMPOSE A FORMAL ACADEMIC ABSTRACT BASED ON THESE RESEARCH ELEMENTS:

TITLE: %s
PROBLEM: %s
GAP: %s
QUESTION: %s
METHODOLOGY: %s
PILLARS: %s

--- RULES ---
- NO CONVERSATION. ONLY TEXT.
- USE ACADEMIC TONE.
- MAX 250 WORDS.
- STRICT RULE: DO NOT USE the long dash character. Use standard hyphens '-' instead.
- RETURN PLAIN STRING.`,
		item.ProposedTitle, item.ProblemStatement, item.ResearchGap,
		item.ResearchQuestion, item.Methodology, strings.Join(item.Pillars, ", "))
}

// GapAnalysisPrompt asks for the findings, methodology and limitations of one
// source relative to a project, as JSON matching research.GapAnalysis.
func GapAnalysisPrompt(p *tracer.Project, sourceTitle, snippet string) string {
	return fmt.Sprintf(`ACT AS A SENIOR RESEARCH REVIEWER.
ANALYSE THE SOURCE BELOW AGAINST THE RESEARCH PROJECT AND EXTRACT ITS CONTRIBUTION.

PROJECT TITLE: %s
RESEARCH QUESTION: %s
RESEARCH GAP: %s

SOURCE TITLE: %s
SOURCE TEXT:
%s

--- REQUIREMENTS ---
1. RESPONSE MUST BE RAW JSON ONLY.
2. LANGUAGE: English (Academic).
3. EACH FIELD IS ONE CONCISE PARAGRAPH. NO MARKDOWN.

EXPECTED JSON STRUCTURE:
{
  "findings": "...",
  "methodology": "...",
  "limitations": "..."
}`, p.Title, p.ResearchQuestion, p.ResearchGap, sourceTitle, snippet)
}

// ErrNoJSON is returned when a model reply contains no JSON object.
var ErrNoJSON = errors.New("no json object in model reply")

// ExtractJSON returns the substring from the first '{' to the last '}'.
func ExtractJSON(reply string) (string, error) {
	start := strings.Index(reply, "{")
	end := strings.LastIndex(reply, "}")
	if start < 0 || end <= start {
		return "", ErrNoJSON
	}
	return reply[start : end+1], nil
}

// DecodeJSON extracts and unmarshals the JSON object embedded in reply.
func DecodeJSON[T any](reply string) (T, error) {
	var v T
	raw, err := ExtractJSON(reply)
	if err != nil {
		return v, err
	}
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return v, fmt.Errorf("decode model reply: %w", err)
	}
	return v, nil
}
