package postgres

import (
	"context"
	"fmt"

	"github.com/xeenaps/pkm/internal/domain/library"
	"github.com/xeenaps/pkm/internal/domain/pagination"
)

const librarySelect = "id, title, type, category, authors, abstract, extracted_json_id, storage_node_url"

var librarySort = sortSpec{
	columns:    map[string]string{"createdAt": "created_at", "title": "title"},
	defaultKey: "createdAt",
}

func (s *Store) ListLibrary(ctx context.Context, q library.ListQuery) (pagination.Page[library.Item], error) {
	lq := newListQuery("library_items").search(q.Search)
	if q.Type != "" {
		lq.eq("type", q.Type)
	}
	lq.sort(librarySort, "", true)
	return fetchPage(ctx, s.pool, lq, librarySelect, q.Query, scanLibraryItem)
}

// GetLibraryItems returns the items with the given ids. Unknown ids are
// skipped; order follows ids.
func (s *Store) GetLibraryItems(ctx context.Context, ids []string) ([]library.Item, error) {
	if len(ids) == 0 {
		return []library.Item{}, nil
	}
	rows, err := s.pool.Query(ctx, `SELECT `+librarySelect+` FROM library_items WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("get library items: %w", err)
	}
	items, err := collect(rows, scanLibraryItem)
	if err != nil {
		return nil, fmt.Errorf("scan library items: %w", err)
	}

	byID := make(map[string]library.Item, len(items))
	for _, it := range items {
		byID[it.ID] = it
	}
	ordered := make([]library.Item, 0, len(items))
	for _, id := range ids {
		if it, ok := byID[id]; ok {
			ordered = append(ordered, it)
		}
	}
	return ordered, nil
}

func scanLibraryItem(row scannable) (library.Item, error) {
	var (
		it           library.Item
		jsonID, node *string
	)
	if err := row.Scan(&it.ID, &it.Title, &it.Type, &it.Category, &it.Authors, &it.Abstract, &jsonID, &node); err != nil {
		return it, err
	}
	it.ExtractedJSONID, it.StorageNodeURL = fromNull(jsonID), fromNull(node)
	it.Authors = orEmpty(it.Authors)
	return it, nil
}
