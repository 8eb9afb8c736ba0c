package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/xeenaps/pkm/internal/domain/event"
	"github.com/xeenaps/pkm/internal/domain/note"
	"github.com/xeenaps/pkm/internal/domain/pagination"
	"github.com/xeenaps/pkm/internal/port/database"
)

// NoteService manages notebook entries.
type NoteService struct {
	store  database.NoteStore
	events *EventService
}

func NewNoteService(store database.NoteStore, events *EventService) *NoteService {
	return &NoteService{store: store, events: events}
}

// List filters by collection; note.Independent selects notes outside any
// collection.
func (s *NoteService) List(ctx context.Context, q note.ListQuery) (pagination.Page[note.Note], error) {
	q.Query = q.Query.Normalize()
	return s.store.ListNotes(ctx, q)
}

func (s *NoteService) Get(ctx context.Context, id string) (*note.Note, error) {
	return s.store.GetNote(ctx, id)
}

func (s *NoteService) Save(ctx context.Context, n *note.Note) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.CollectionID == note.Independent {
		n.CollectionID = ""
	}
	s.events.Emit(ctx, event.NoteUpdated, n)
	if err := s.store.UpsertNote(ctx, n); err != nil {
		return fmt.Errorf("save note %s: %w", n.ID, err)
	}
	return nil
}

func (s *NoteService) Delete(ctx context.Context, id string) error {
	s.events.Emit(ctx, event.NoteDeleted, event.Deleted{ID: id})
	return s.store.DeleteNote(ctx, id)
}
