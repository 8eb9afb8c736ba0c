package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	xotel "github.com/xeenaps/pkm/internal/adapter/otel"
	"github.com/xeenaps/pkm/internal/domain"
	"github.com/xeenaps/pkm/internal/domain/vault"
	"github.com/xeenaps/pkm/internal/port/filestore"
)

// FileJanitor deletes remote files in the background. Deletions outlive the
// request that scheduled them, run at most `concurrency` at a time and are
// only logged when they fail.
type FileJanitor struct {
	files   filestore.Store
	sem     *semaphore.Weighted
	timeout time.Duration
	metrics *xotel.Metrics
	wg      sync.WaitGroup
}

// NewFileJanitor creates a janitor deleting through files.
func NewFileJanitor(files filestore.Store, concurrency int, timeout time.Duration) *FileJanitor {
	return &FileJanitor{
		files:   files,
		sem:     semaphore.NewWeighted(int64(max(concurrency, 1))),
		timeout: timeout,
	}
}

// SetMetrics enables cleanup counters.
func (j *FileJanitor) SetMetrics(m *xotel.Metrics) { j.metrics = m }

// Remove schedules deletion of refs. Incomplete refs and client-side
// placeholders are skipped.
func (j *FileJanitor) Remove(ctx context.Context, refs ...vault.Ref) {
	if j == nil {
		return
	}
	detached := context.WithoutCancel(ctx)
	for _, ref := range refs {
		if !ref.Valid() || vault.IsOptimistic(ref.FileID) {
			continue
		}
		j.wg.Add(1)
		go func() {
			defer j.wg.Done()
			ctx, cancel := context.WithTimeout(detached, j.timeout)
			defer cancel()

			if err := j.sem.Acquire(ctx, 1); err != nil {
				slog.WarnContext(ctx, "file cleanup skipped", "file_id", ref.FileID, "error", err)
				j.metrics.RecordFileCleanup(ctx, err)
				return
			}
			defer j.sem.Release(1)

			err := j.files.Delete(ctx, ref)
			j.metrics.RecordFileCleanup(ctx, err)
			if err != nil {
				slog.WarnContext(ctx, "file cleanup failed", "file_id", ref.FileID, "node", ref.NodeURL, "error", err)
				return
			}
			slog.DebugContext(ctx, "file cleaned up", "file_id", ref.FileID)
		}()
	}
}

// DeleteNow deletes a single file synchronously and reports whether it was
// removed.
func (j *FileJanitor) DeleteNow(ctx context.Context, ref vault.Ref) (bool, error) {
	if !ref.Valid() {
		return false, fmt.Errorf("%w: fileId and nodeUrl are required", domain.ErrValidation)
	}
	if vault.IsOptimistic(ref.FileID) {
		return false, nil
	}
	err := j.files.Delete(ctx, ref)
	j.metrics.RecordFileCleanup(ctx, err)
	if err != nil {
		return false, err
	}
	return true, nil
}

// Wait blocks until every scheduled deletion has finished.
func (j *FileJanitor) Wait() {
	if j != nil {
		j.wg.Wait()
	}
}
