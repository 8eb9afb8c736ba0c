// Package research models rows of a project's literature audit matrix.
package research

import "time"

// Source is the gap analysis of one library item for a project.
type Source struct {
	ID          string    `json:"id"`
	ProjectID   string    `json:"projectId"`
	SourceID    string    `json:"sourceId"`
	Title       string    `json:"title"`
	Findings    string    `json:"findings"`
	Methodology string    `json:"methodology"`
	Limitations string    `json:"limitations"`
	IsFavorite  bool      `json:"isFavorite"`
	IsUsed      bool      `json:"isUsed"`
	IsAnalyzing bool      `json:"isAnalyzing"`
	CreatedAt   time.Time `json:"createdAt"`
}

// GapAnalysis is the structured result of the single-source prompt.
type GapAnalysis struct {
	Findings    string `json:"findings"`
	Methodology string `json:"methodology"`
	Limitations string `json:"limitations"`
}

// Apply copies the analysis onto the source and clears the analyzing flag.
func (s *Source) Apply(g GapAnalysis) {
	s.Findings = g.Findings
	s.Methodology = g.Methodology
	s.Limitations = g.Limitations
	s.IsAnalyzing = false
}
