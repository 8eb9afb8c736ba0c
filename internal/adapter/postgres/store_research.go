package postgres

import (
	"context"
	"fmt"

	"github.com/xeenaps/pkm/internal/domain/research"
)

var researchCols = []string{
	"id", "project_id", "source_id", "title", "findings", "methodology", "limitations",
	"is_favorite", "is_used", "is_analyzing",
}

const researchSelect = "id, project_id, source_id, title, findings, methodology, limitations, is_favorite, is_used, is_analyzing, created_at"

func (s *Store) ListResearchSources(ctx context.Context, projectID string) ([]research.Source, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+researchSelect+` FROM research_sources WHERE project_id = $1 ORDER BY created_at DESC, id`, projectID)
	if err != nil {
		return nil, fmt.Errorf("list research sources: %w", err)
	}
	return collect(rows, scanResearchSource)
}

func (s *Store) UpsertResearchSource(ctx context.Context, src *research.Source) error {
	var updated any
	err := s.pool.QueryRow(ctx, upsertSQL("research_sources", researchCols),
		src.ID, src.ProjectID, src.SourceID, src.Title, src.Findings, src.Methodology, src.Limitations,
		src.IsFavorite, src.IsUsed, src.IsAnalyzing, nullTime(src.CreatedAt),
	).Scan(&src.CreatedAt, &updated)
	if err != nil {
		return writeErr(err, "upsert research source %s", src.ID)
	}
	return nil
}

func (s *Store) DeleteResearchSource(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM research_sources WHERE id = $1`, id)
	return execExpectOne(tag, err, "delete research source %s", id)
}

func scanResearchSource(row scannable) (research.Source, error) {
	var src research.Source
	err := row.Scan(&src.ID, &src.ProjectID, &src.SourceID, &src.Title, &src.Findings, &src.Methodology,
		&src.Limitations, &src.IsFavorite, &src.IsUsed, &src.IsAnalyzing, &src.CreatedAt)
	return src, err
}
