// Package teaching models teaching sessions and their vault.
package teaching

import (
	"time"

	"github.com/xeenaps/pkm/internal/domain/pagination"
	"github.com/xeenaps/pkm/internal/domain/vault"
)

// Teaching is one recorded teaching session.
type Teaching struct {
	ID           string       `json:"id"`
	Label        string       `json:"label"`
	CourseTitle  string       `json:"courseTitle"`
	Institution  string       `json:"institution"`
	AcademicYear string       `json:"academicYear"`
	Semester     string       `json:"semester"`
	Role         string       `json:"role"`
	TeachingDate string       `json:"teachingDate"`
	StartTime    string       `json:"startTime"`
	EndTime      string       `json:"endTime"`
	Location     string       `json:"location"`
	Method       string       `json:"method"`
	TotalHours   float64      `json:"totalHours"`
	VaultItems   []vault.Item `json:"vault_items"`
	CreatedAt    time.Time    `json:"createdAt"`
	UpdatedAt    time.Time    `json:"updatedAt"`
}

func (t *Teaching) Normalize() {
	if t.VaultItems == nil {
		t.VaultItems = []vault.Item{}
	}
}

// RemoteFiles returns the stored vault files of the session.
func (t *Teaching) RemoteFiles() []vault.Ref {
	return vault.RemoteFiles(t.VaultItems)
}

// ListQuery filters the teaching list. Dates bound TeachingDate.
type ListQuery struct {
	pagination.Query
	Search    string
	StartDate string
	EndDate   string
	SortKey   string
	SortDesc  bool
}
