package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/xeenaps/pkm/internal/domain"
	"github.com/xeenaps/pkm/internal/domain/event"
	"github.com/xeenaps/pkm/internal/domain/pagination"
	"github.com/xeenaps/pkm/internal/domain/teaching"
	"github.com/xeenaps/pkm/internal/domain/vault"
	"github.com/xeenaps/pkm/internal/port/database"
	"github.com/xeenaps/pkm/internal/port/filestore"
)

// TeachingService manages teaching sessions.
type TeachingService struct {
	store   database.TeachingStore
	files   filestore.Store
	janitor *FileJanitor
	events  *EventService
}

// NewTeachingService creates a TeachingService.
func NewTeachingService(store database.TeachingStore, files filestore.Store, janitor *FileJanitor, events *EventService) *TeachingService {
	return &TeachingService{store: store, files: files, janitor: janitor, events: events}
}

func (s *TeachingService) List(ctx context.Context, q teaching.ListQuery) (pagination.Page[teaching.Teaching], error) {
	q.Query = q.Query.Normalize()
	return s.store.ListTeaching(ctx, q)
}

func (s *TeachingService) Get(ctx context.Context, id string) (*teaching.Teaching, error) {
	return s.store.GetTeaching(ctx, id)
}

func (s *TeachingService) Save(ctx context.Context, t *teaching.Teaching) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.TotalHours < 0 {
		return fmt.Errorf("%w: totalHours must not be negative", domain.ErrValidation)
	}
	t.Normalize()
	s.events.Emit(ctx, event.TeachingUpdated, t)
	if err := s.store.UpsertTeaching(ctx, t); err != nil {
		return fmt.Errorf("save teaching %s: %w", t.ID, err)
	}
	return nil
}

// Delete removes the session and schedules cleanup of its uploaded files.
func (s *TeachingService) Delete(ctx context.Context, id string) error {
	s.events.Emit(ctx, event.TeachingDeleted, event.Deleted{ID: id})

	t, err := s.store.GetTeaching(ctx, id)
	switch {
	case err == nil:
		s.janitor.Remove(ctx, t.RemoteFiles()...)
	case !errors.Is(err, domain.ErrNotFound):
		slog.WarnContext(ctx, "teaching lookup before delete failed", "id", id, "error", err)
	}
	return s.store.DeleteTeaching(ctx, id)
}

func (s *TeachingService) UploadVaultFile(ctx context.Context, f filestore.Upload) (vault.Ref, error) {
	return uploadVaultFile(ctx, s.files, f)
}
