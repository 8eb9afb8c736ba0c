package postgres

import (
	"context"

	"github.com/xeenaps/pkm/internal/domain/brainstorming"
	"github.com/xeenaps/pkm/internal/domain/pagination"
)

var brainstormingCols = []string{
	"id", "label", "rough_idea", "proposed_title", "problem_statement", "research_gap",
	"research_question", "methodology", "population", "keywords", "pillars",
	"proposed_abstract", "external_refs", "internal_refs", "is_favorite", "is_used",
}

var brainstormingSelect = joinCols(brainstormingCols) + ", created_at, updated_at"

var brainstormingSort = sortSpec{
	columns: map[string]string{
		"createdAt":     "created_at",
		"updatedAt":     "updated_at",
		"label":         "label",
		"proposedTitle": "proposed_title",
	},
	defaultKey: "createdAt",
	favorite:   true,
}

func (s *Store) ListBrainstorming(ctx context.Context, q brainstorming.ListQuery) (pagination.Page[brainstorming.Item], error) {
	lq := newListQuery("brainstorming").search(q.Search).sort(brainstormingSort, q.SortKey, q.SortDesc)
	return fetchPage(ctx, s.pool, lq, brainstormingSelect, q.Query, scanBrainstorming)
}

func (s *Store) GetBrainstorming(ctx context.Context, id string) (*brainstorming.Item, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+brainstormingSelect+` FROM brainstorming WHERE id = $1`, id)
	it, err := scanBrainstorming(row)
	if err != nil {
		return nil, notFoundWrap(err, "get brainstorming %s", id)
	}
	return &it, nil
}

func (s *Store) UpsertBrainstorming(ctx context.Context, it *brainstorming.Item) error {
	err := s.pool.QueryRow(ctx, upsertSQL("brainstorming", brainstormingCols),
		it.ID, it.Label, it.RoughIdea, it.ProposedTitle, it.ProblemStatement, it.ResearchGap,
		it.ResearchQuestion, it.Methodology, it.Population, pgTextArray(it.Keywords), pgTextArray(it.Pillars),
		it.ProposedAbstract, pgTextArray(it.ExternalRefs), pgTextArray(it.InternalRefs), it.IsFavorite, it.IsUsed,
		nullTime(it.CreatedAt),
	).Scan(&it.CreatedAt, &it.UpdatedAt)
	if err != nil {
		return writeErr(err, "upsert brainstorming %s", it.ID)
	}
	return nil
}

func (s *Store) DeleteBrainstorming(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM brainstorming WHERE id = $1`, id)
	return execExpectOne(tag, err, "delete brainstorming %s", id)
}

func scanBrainstorming(row scannable) (brainstorming.Item, error) {
	var it brainstorming.Item
	err := row.Scan(&it.ID, &it.Label, &it.RoughIdea, &it.ProposedTitle, &it.ProblemStatement, &it.ResearchGap,
		&it.ResearchQuestion, &it.Methodology, &it.Population, &it.Keywords, &it.Pillars,
		&it.ProposedAbstract, &it.ExternalRefs, &it.InternalRefs, &it.IsFavorite, &it.IsUsed,
		&it.CreatedAt, &it.UpdatedAt)
	if err != nil {
		return it, err
	}
	it.Normalize()
	return it, nil
}
