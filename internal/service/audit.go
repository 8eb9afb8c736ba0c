package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	xotel "github.com/xeenaps/pkm/internal/adapter/otel"
	"github.com/xeenaps/pkm/internal/domain"
	"github.com/xeenaps/pkm/internal/domain/copilot"
	"github.com/xeenaps/pkm/internal/domain/event"
	"github.com/xeenaps/pkm/internal/domain/library"
	"github.com/xeenaps/pkm/internal/domain/research"
	"github.com/xeenaps/pkm/internal/domain/tracer"
	"github.com/xeenaps/pkm/internal/domain/vault"
	"github.com/xeenaps/pkm/internal/port/database"
	"github.com/xeenaps/pkm/internal/port/filestore"
)

const (
	// maxSnippetRunes bounds the source text sent with each gap prompt.
	maxSnippetRunes = 7500
	maxAuditSources = 50
)

var errEmptySnippet = errors.New("source has no extractable text")

// AuditService builds a project's literature audit matrix: one gap
// analysis per selected library item.
type AuditService struct {
	store   database.Store
	files   filestore.Store
	copilot *Copilot
	events  *EventService
	metrics *xotel.Metrics
	timeout time.Duration
	wg      sync.WaitGroup

	stop    context.Context
	stopAll context.CancelFunc
}

// NewAuditService creates an AuditService. timeout bounds a whole audit run.
func NewAuditService(store database.Store, files filestore.Store, cp *Copilot, events *EventService, timeout time.Duration) *AuditService {
	stop, stopAll := context.WithCancel(context.Background())
	return &AuditService{
		store:   store,
		files:   files,
		copilot: cp,
		events:  events,
		timeout: timeout,
		stop:    stop,
		stopAll: stopAll,
	}
}

// SetMetrics enables audit counters.
func (s *AuditService) SetMetrics(m *xotel.Metrics) { s.metrics = m }

// StartAudit creates a pending source per library item and analyses them one
// by one in the background. The pending sources are returned immediately;
// each is broadcast again once analysed or failed.
func (s *AuditService) StartAudit(ctx context.Context, projectID string, libraryIDs []string) ([]research.Source, error) {
	if projectID == "" {
		return nil, fmt.Errorf("%w: projectId is required", domain.ErrValidation)
	}
	if len(libraryIDs) == 0 {
		return nil, fmt.Errorf("%w: at least one library item is required", domain.ErrValidation)
	}
	if len(libraryIDs) > maxAuditSources {
		return nil, fmt.Errorf("%w: at most %d library items per audit", domain.ErrValidation, maxAuditSources)
	}

	project, err := s.store.GetTracerProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	items, err := s.store.GetLibraryItems(ctx, libraryIDs)
	if err != nil {
		return nil, fmt.Errorf("load library items: %w", err)
	}
	byID := make(map[string]library.Item, len(items))
	for _, it := range items {
		byID[it.ID] = it
	}

	now := time.Now().UTC()
	pending := make([]research.Source, 0, len(libraryIDs))
	work := make([]library.Item, 0, len(libraryIDs))
	for _, id := range libraryIDs {
		it, ok := byID[id]
		if !ok {
			continue
		}
		src := research.Source{
			ID:          uuid.NewString(),
			ProjectID:   projectID,
			SourceID:    it.ID,
			Title:       it.Title,
			IsAnalyzing: true,
			CreatedAt:   now,
		}
		pending = append(pending, src)
		work = append(work, it)
		s.events.Emit(ctx, event.SourceUpdated, src)
	}
	if len(pending) == 0 {
		return nil, fmt.Errorf("%w: no library items found", domain.ErrNotFound)
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		runCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
		defer cancel()
		unlink := context.AfterFunc(s.stop, cancel)
		defer unlink()
		s.run(runCtx, project, pending, work)
	}()

	out := make([]research.Source, len(pending))
	copy(out, pending)
	return out, nil
}

func (s *AuditService) run(ctx context.Context, p *tracer.Project, sources []research.Source, items []library.Item) {
	ctx, span := xotel.StartAuditSpan(ctx, p.ID, len(sources))
	var failed int
	for i := range sources {
		src := sources[i]
		// Once cancelled, the remaining sources are closed out as failed.
		err := ctx.Err()
		if err == nil {
			err = s.analyse(ctx, p, &src, items[i])
		}
		s.metrics.RecordAuditSource(ctx, err)
		if err != nil {
			failed++
			slog.WarnContext(ctx, "audit source failed", "project_id", p.ID, "source_id", src.SourceID, "error", err)
			src.IsAnalyzing = false
		}
		s.events.Emit(context.WithoutCancel(ctx), event.SourceUpdated, src)
	}
	var err error
	if failed > 0 {
		err = fmt.Errorf("%d of %d sources failed", failed, len(sources))
	}
	xotel.EndSpan(span, err)
	slog.InfoContext(ctx, "audit finished", "project_id", p.ID, "sources", len(sources), "failed", failed)
}

func (s *AuditService) analyse(ctx context.Context, p *tracer.Project, src *research.Source, it library.Item) error {
	snippet, err := s.snippet(ctx, it)
	if err != nil {
		return err
	}
	gap, err := decode[research.GapAnalysis](ctx, s.copilot, copilot.GapAnalysisPrompt(p, it.Title, snippet))
	if err != nil {
		return err
	}
	src.Apply(gap)
	return s.store.UpsertResearchSource(ctx, src)
}

// snippet returns the extracted full text of the item when stored, falling
// back to its abstract.
func (s *AuditService) snippet(ctx context.Context, it library.Item) (string, error) {
	text := ""
	ref := vault.Ref{FileID: it.ExtractedJSONID, NodeURL: it.StorageNodeURL}
	if ref.Valid() {
		data, err := s.files.Fetch(ctx, ref)
		if err != nil {
			slog.WarnContext(ctx, "extracted text unavailable, using abstract", "source_id", it.ID, "error", err)
		} else {
			text = extractedText(data)
		}
	}
	if strings.TrimSpace(text) == "" {
		text = it.Abstract
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", errEmptySnippet
	}
	return truncateRunes(text, maxSnippetRunes), nil
}

// extractedText reads the text of an extraction file, which is either a
// JSON object with a text field or plain text.
func extractedText(data []byte) string {
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return string(data)
	}
	for _, key := range []string{"fullText", "text", "content", "abstract"} {
		if v, ok := doc[key].(string); ok && strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// Wait blocks until running audits finish.
func (s *AuditService) Wait() { s.wg.Wait() }

// Shutdown waits for running audits until ctx is done. It then cancels
// them, waits for their sources to be closed out and returns ctx's error.
func (s *AuditService) Shutdown(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		s.stopAll()
		<-done
		return ctx.Err()
	}
}
