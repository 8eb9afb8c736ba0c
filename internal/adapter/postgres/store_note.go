package postgres

import (
	"context"

	"github.com/xeenaps/pkm/internal/domain/note"
	"github.com/xeenaps/pkm/internal/domain/pagination"
)

var noteCols = []string{"id", "collection_id", "label", "note_json_id", "storage_node_url", "is_favorite", "is_used"}

var noteSelect = joinCols(noteCols) + ", created_at, updated_at"

var noteSort = sortSpec{
	columns: map[string]string{
		"createdAt": "created_at",
		"updatedAt": "updated_at",
		"label":     "label",
	},
	defaultKey: "createdAt",
	favorite:   true,
}

func (s *Store) ListNotes(ctx context.Context, q note.ListQuery) (pagination.Page[note.Note], error) {
	lq := newListQuery("notes").search(q.Search)
	switch q.CollectionID {
	case "":
	case note.Independent:
		lq.raw("(collection_id IS NULL OR collection_id = '')")
	default:
		lq.eq("collection_id", q.CollectionID)
	}
	lq.sort(noteSort, q.SortKey, q.SortDesc)
	return fetchPage(ctx, s.pool, lq, noteSelect, q.Query, scanNote)
}

func (s *Store) GetNote(ctx context.Context, id string) (*note.Note, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+noteSelect+` FROM notes WHERE id = $1`, id)
	n, err := scanNote(row)
	if err != nil {
		return nil, notFoundWrap(err, "get note %s", id)
	}
	return &n, nil
}

func (s *Store) UpsertNote(ctx context.Context, n *note.Note) error {
	err := s.pool.QueryRow(ctx, upsertSQL("notes", noteCols),
		n.ID, nullIfEmpty(n.CollectionID), n.Label, nullIfEmpty(n.NoteJSONID), nullIfEmpty(n.StorageNodeURL),
		n.IsFavorite, n.IsUsed, nullTime(n.CreatedAt),
	).Scan(&n.CreatedAt, &n.UpdatedAt)
	if err != nil {
		return writeErr(err, "upsert note %s", n.ID)
	}
	return nil
}

func (s *Store) DeleteNote(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM notes WHERE id = $1`, id)
	return execExpectOne(tag, err, "delete note %s", id)
}

func scanNote(row scannable) (note.Note, error) {
	var (
		n                  note.Note
		coll, jsonID, node *string
	)
	err := row.Scan(&n.ID, &coll, &n.Label, &jsonID, &node, &n.IsFavorite, &n.IsUsed, &n.CreatedAt, &n.UpdatedAt)
	if err != nil {
		return n, err
	}
	n.CollectionID, n.NoteJSONID, n.StorageNodeURL = fromNull(coll), fromNull(jsonID), fromNull(node)
	return n, nil
}
