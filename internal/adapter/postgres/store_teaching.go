package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/xeenaps/pkm/internal/domain/pagination"
	"github.com/xeenaps/pkm/internal/domain/teaching"
)

var teachingCols = []string{
	"id", "label", "course_title", "institution", "academic_year", "semester", "role",
	"teaching_date", "start_time", "end_time", "location", "method", "total_hours", "vault_items",
}

var teachingSelect = joinCols(teachingCols) + ", created_at, updated_at"

var teachingSort = sortSpec{
	columns: map[string]string{
		"teachingDate": "teaching_date",
		"courseTitle":  "course_title",
		"institution":  "institution",
		"academicYear": "academic_year",
		"totalHours":   "total_hours",
		"createdAt":    "created_at",
	},
	defaultKey: "teachingDate",
}

func (s *Store) ListTeaching(ctx context.Context, q teaching.ListQuery) (pagination.Page[teaching.Teaching], error) {
	lq := newListQuery("teaching").search(q.Search)
	if q.StartDate != "" {
		lq.gte("teaching_date", q.StartDate)
	}
	if q.EndDate != "" {
		lq.lte("teaching_date", q.EndDate)
	}
	lq.sort(teachingSort, q.SortKey, q.SortDesc)
	return fetchPage(ctx, s.pool, lq, teachingSelect, q.Query, scanTeaching)
}

func (s *Store) GetTeaching(ctx context.Context, id string) (*teaching.Teaching, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+teachingSelect+` FROM teaching WHERE id = $1`, id)
	t, err := scanTeaching(row)
	if err != nil {
		return nil, notFoundWrap(err, "get teaching %s", id)
	}
	return &t, nil
}

func (s *Store) UpsertTeaching(ctx context.Context, t *teaching.Teaching) error {
	vaultJSON, err := jsonArray(t.VaultItems)
	if err != nil {
		return fmt.Errorf("marshal vault items: %w", err)
	}
	err = s.pool.QueryRow(ctx, upsertSQL("teaching", teachingCols),
		t.ID, t.Label, t.CourseTitle, t.Institution, t.AcademicYear, t.Semester, t.Role,
		nullIfEmpty(t.TeachingDate), nullIfEmpty(t.StartTime), nullIfEmpty(t.EndTime),
		t.Location, t.Method, t.TotalHours, vaultJSON, nullTime(t.CreatedAt),
	).Scan(&t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return writeErr(err, "upsert teaching %s", t.ID)
	}
	return nil
}

func (s *Store) DeleteTeaching(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM teaching WHERE id = $1`, id)
	return execExpectOne(tag, err, "delete teaching %s", id)
}

func scanTeaching(row scannable) (teaching.Teaching, error) {
	var (
		t                teaching.Teaching
		date, start, end *string
		vaultJSON        []byte
	)
	err := row.Scan(&t.ID, &t.Label, &t.CourseTitle, &t.Institution, &t.AcademicYear, &t.Semester, &t.Role,
		&date, &start, &end, &t.Location, &t.Method, &t.TotalHours, &vaultJSON, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return t, err
	}
	t.TeachingDate, t.StartTime, t.EndTime = fromNull(date), fromNull(start), fromNull(end)
	if len(vaultJSON) > 0 {
		if err := json.Unmarshal(vaultJSON, &t.VaultItems); err != nil {
			return t, fmt.Errorf("unmarshal vault items: %w", err)
		}
	}
	t.Normalize()
	return t, nil
}
