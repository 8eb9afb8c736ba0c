package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/xeenaps/pkm/internal/domain"
	"github.com/xeenaps/pkm/internal/domain/activity"
	"github.com/xeenaps/pkm/internal/domain/event"
	"github.com/xeenaps/pkm/internal/domain/pagination"
	"github.com/xeenaps/pkm/internal/domain/vault"
	"github.com/xeenaps/pkm/internal/port/database"
	"github.com/xeenaps/pkm/internal/port/filestore"
)

// ActivityService manages portfolio activities and their vault files.
type ActivityService struct {
	store   database.ActivityStore
	files   filestore.Store
	janitor *FileJanitor
	events  *EventService
}

// NewActivityService creates an ActivityService.
func NewActivityService(store database.ActivityStore, files filestore.Store, janitor *FileJanitor, events *EventService) *ActivityService {
	return &ActivityService{store: store, files: files, janitor: janitor, events: events}
}

// List returns a page of activities.
func (s *ActivityService) List(ctx context.Context, q activity.ListQuery) (pagination.Page[activity.Activity], error) {
	q.Query = q.Query.Normalize()
	return s.store.ListActivities(ctx, q)
}

// Get returns an activity by id.
func (s *ActivityService) Get(ctx context.Context, id string) (*activity.Activity, error) {
	return s.store.GetActivity(ctx, id)
}

// Save broadcasts the change optimistically, then upserts.
func (s *ActivityService) Save(ctx context.Context, a *activity.Activity) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	a.Normalize()
	s.events.Emit(ctx, event.ActivityUpdated, a)
	if err := s.store.UpsertActivity(ctx, a); err != nil {
		return fmt.Errorf("save activity %s: %w", a.ID, err)
	}
	return nil
}

// Delete broadcasts the removal, schedules cleanup of the certificate and
// every uploaded vault file, then deletes the row.
func (s *ActivityService) Delete(ctx context.Context, id string) error {
	s.events.Emit(ctx, event.ActivityDeleted, event.Deleted{ID: id})

	a, err := s.store.GetActivity(ctx, id)
	switch {
	case err == nil:
		s.janitor.Remove(ctx, a.RemoteFiles()...)
	case !errors.Is(err, domain.ErrNotFound):
		slog.WarnContext(ctx, "activity lookup before delete failed", "id", id, "error", err)
	}
	return s.store.DeleteActivity(ctx, id)
}

// UploadVaultFile stores a file and returns where it landed.
func (s *ActivityService) UploadVaultFile(ctx context.Context, f filestore.Upload) (vault.Ref, error) {
	return uploadVaultFile(ctx, s.files, f)
}

// DeleteRemoteFile deletes one file immediately and reports success.
func (s *ActivityService) DeleteRemoteFile(ctx context.Context, ref vault.Ref) (bool, error) {
	return s.janitor.DeleteNow(ctx, ref)
}

func uploadVaultFile(ctx context.Context, files filestore.Store, f filestore.Upload) (vault.Ref, error) {
	if f.Name == "" {
		return vault.Ref{}, fmt.Errorf("%w: file name is required", domain.ErrValidation)
	}
	if len(f.Data) == 0 {
		return vault.Ref{}, fmt.Errorf("%w: file is empty", domain.ErrValidation)
	}
	if f.MimeType == "" {
		f.MimeType = "application/octet-stream"
	}
	f.Document = false
	return files.Upload(ctx, f)
}
