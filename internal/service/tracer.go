package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/xeenaps/pkm/internal/domain"
	"github.com/xeenaps/pkm/internal/domain/brainstorming"
	"github.com/xeenaps/pkm/internal/domain/copilot"
	"github.com/xeenaps/pkm/internal/domain/event"
	"github.com/xeenaps/pkm/internal/domain/pagination"
	"github.com/xeenaps/pkm/internal/domain/research"
	"github.com/xeenaps/pkm/internal/domain/tracer"
	"github.com/xeenaps/pkm/internal/domain/vault"
	"github.com/xeenaps/pkm/internal/port/cache"
	"github.com/xeenaps/pkm/internal/port/database"
	"github.com/xeenaps/pkm/internal/port/filestore"
)

// TracerOptions configures TracerService.
type TracerOptions struct {
	ProfileName   string
	Location      *time.Location
	LogContentTTL time.Duration
}

// TracerService manages research projects, their journals, todos,
// references and finance ledgers.
type TracerService struct {
	store   database.Store
	files   filestore.Store
	cache   cache.Cache
	janitor *FileJanitor
	events  *EventService
	copilot *Copilot
	opts    TracerOptions
}

// NewTracerService creates a TracerService.
func NewTracerService(store database.Store, files filestore.Store, c cache.Cache, janitor *FileJanitor, events *EventService, cp *Copilot, opts TracerOptions) *TracerService {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	return &TracerService{store: store, files: files, cache: c, janitor: janitor, events: events, copilot: cp, opts: opts}
}

// --- Projects ---

func (s *TracerService) List(ctx context.Context, q tracer.ListQuery) (pagination.Page[tracer.Project], error) {
	q.Query = q.Query.Normalize()
	if q.Status != "" && !tracer.Status(q.Status).Valid() {
		return pagination.Page[tracer.Project]{}, fmt.Errorf("%w: unknown status %q", domain.ErrValidation, q.Status)
	}
	page, err := s.store.ListTracerProjects(ctx, q)
	if err != nil {
		return page, err
	}
	for i := range page.Items {
		tracer.Hydrate(&page.Items[i], s.opts.ProfileName)
	}
	return page, nil
}

func (s *TracerService) Get(ctx context.Context, id string) (*tracer.Project, error) {
	p, err := s.store.GetTracerProject(ctx, id)
	if err != nil {
		return nil, err
	}
	tracer.Hydrate(p, s.opts.ProfileName)
	return p, nil
}

func (s *TracerService) Save(ctx context.Context, p *tracer.Project) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.Status != "" && !p.Status.Valid() {
		return fmt.Errorf("%w: unknown status %q", domain.ErrValidation, p.Status)
	}
	p.Normalize()
	s.events.Emit(ctx, event.TracerUpdated, p)
	if err := s.store.UpsertTracerProject(ctx, p); err != nil {
		return fmt.Errorf("save tracer project %s: %w", p.ID, err)
	}
	return nil
}

// Delete removes the project. Sub-records go with it; journal bodies and
// finance attachments are deleted from the file store in the background.
func (s *TracerService) Delete(ctx context.Context, id string) error {
	s.events.Emit(ctx, event.TracerDeleted, event.Deleted{ID: id})

	var refs []vault.Ref
	logs, err := s.store.ListTracerLogs(ctx, id)
	if err != nil {
		slog.WarnContext(ctx, "tracer logs lookup before delete failed", "id", id, "error", err)
	}
	for _, l := range logs {
		s.evictLog(ctx, l.ID)
		refs = append(refs, vault.Ref{FileID: l.LogJSONID, NodeURL: l.StorageNodeURL})
	}
	finance, err := s.store.ListTracerFinance(ctx, id)
	if err != nil {
		slog.WarnContext(ctx, "tracer finance lookup before delete failed", "id", id, "error", err)
	}
	for _, f := range finance {
		refs = append(refs, vault.Ref{FileID: f.AttachmentsJSONID, NodeURL: f.StorageNodeURL})
	}

	if err := s.store.DeleteTracerProject(ctx, id); err != nil {
		return err
	}
	s.janitor.Remove(ctx, refs...)
	return nil
}

// Detail loads the project and everything shown on its page concurrently.
func (s *TracerService) Detail(ctx context.Context, id string) (*tracer.Detail, error) {
	var (
		d       tracer.Detail
		project *tracer.Project
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		p, err := s.store.GetTracerProject(gctx, id)
		project = p
		return err
	})
	g.Go(func() error {
		logs, err := s.ListLogs(gctx, id)
		d.Logs = logs
		return err
	})
	g.Go(func() error {
		todos, err := s.store.ListTracerTodos(gctx, id)
		d.Todos = todos
		return err
	})
	g.Go(func() error {
		refs, err := s.store.ListTracerReferences(gctx, id)
		d.References = refs
		return err
	})
	g.Go(func() error {
		src, err := s.store.ListResearchSources(gctx, id)
		d.Sources = src
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("tracer detail %s: %w", id, err)
	}

	tracer.Hydrate(project, s.opts.ProfileName)
	d.Project = *project
	if d.Logs == nil {
		d.Logs = []tracer.LogView{}
	}
	if d.Todos == nil {
		d.Todos = []tracer.Todo{}
	}
	if d.References == nil {
		d.References = []tracer.Reference{}
	}
	if d.Sources == nil {
		d.Sources = []research.Source{}
	}
	return &d, nil
}

// RefineField rewrites or expands one project field.
func (s *TracerService) RefineField(ctx context.Context, field, current string, p *tracer.Project, mode string) (string, error) {
	m, err := parseMode(mode)
	if err != nil {
		return "", err
	}
	if _, ok := p.Field(field); !ok {
		return "", fmt.Errorf("%w: unknown field %q", domain.ErrValidation, field)
	}
	return s.copilot.Generate(ctx, copilot.RefineTracerPrompt(field, current, p, m))
}

func (s *TracerService) TranslateField(ctx context.Context, text, lang string) (string, error) {
	return s.copilot.Translate(ctx, text, lang)
}

// ImportFromBrainstorming copies the brainstorming field feeding field from
// the idea into the project and saves it.
func (s *TracerService) ImportFromBrainstorming(ctx context.Context, projectID, field, itemID string) (*tracer.Project, error) {
	key, ok := brainstorming.BrainstormingFieldFor(field)
	if !ok {
		return nil, fmt.Errorf("%w: field %q cannot be imported", domain.ErrValidation, field)
	}
	it, err := s.store.GetBrainstorming(ctx, itemID)
	if err != nil {
		return nil, err
	}
	p, err := s.store.GetTracerProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	v, _ := it.Field(key)
	p.SetField(field, v)
	if err := s.Save(ctx, p); err != nil {
		return nil, err
	}
	tracer.Hydrate(p, s.opts.ProfileName)
	return p, nil
}

// --- Logs ---

// ListLogs returns the project journal newest first with display times in
// the profile time zone.
func (s *TracerService) ListLogs(ctx context.Context, projectID string) ([]tracer.LogView, error) {
	logs, err := s.store.ListTracerLogs(ctx, projectID)
	if err != nil {
		return nil, err
	}
	tracer.SortLogsNewestFirst(logs)
	out := make([]tracer.LogView, len(logs))
	for i, l := range logs {
		out[i] = tracer.LogView{
			Log:         l,
			DisplayTime: tracer.FormatLogTime(l.CreatedAt.UTC().Format(time.RFC3339), s.opts.Location),
		}
	}
	return out, nil
}

// SaveLog writes content to the file store, then upserts the log pointing at
// it. The previous body is deleted once the row references the new one.
func (s *TracerService) SaveLog(ctx context.Context, l *tracer.Log, content tracer.LogContent) error {
	if l.ProjectID == "" {
		return fmt.Errorf("%w: projectId is required", domain.ErrValidation)
	}
	// The body to replace is whatever the stored row points at; the
	// client's logJsonId and storageNodeUrl are not trusted.
	var old vault.Ref
	if l.ID == "" {
		l.ID = uuid.NewString()
	} else {
		prev, err := s.store.GetTracerLog(ctx, l.ID)
		switch {
		case err == nil:
			old = vault.Ref{FileID: prev.LogJSONID, NodeURL: prev.StorageNodeURL}
		case errors.Is(err, domain.ErrNotFound):
		default:
			return fmt.Errorf("load log %s: %w", l.ID, err)
		}
	}
	if content.Attachments == nil {
		content.Attachments = []tracer.Attachment{}
	}
	data, err := json.Marshal(content)
	if err != nil {
		return fmt.Errorf("encode log %s: %w", l.ID, err)
	}
	ref, err := s.files.Upload(ctx, filestore.Upload{Name: "log_" + l.ID + ".json", MimeType: "application/json", Data: data, Document: true})
	if err != nil {
		return fmt.Errorf("store log %s: %w", l.ID, err)
	}

	l.LogJSONID, l.StorageNodeURL = ref.FileID, ref.NodeURL
	if err := s.store.UpsertTracerLog(ctx, l); err != nil {
		l.LogJSONID, l.StorageNodeURL = old.FileID, old.NodeURL
		s.janitor.Remove(ctx, ref)
		return fmt.Errorf("save log %s: %w", l.ID, err)
	}
	if old.Valid() && old != ref {
		s.janitor.Remove(ctx, old)
	}
	if err := cache.SetJSON(ctx, s.cache, cache.PrefixLogContent+l.ID, content, s.opts.LogContentTTL); err != nil {
		slog.WarnContext(ctx, "log content cache write failed", "id", l.ID, "error", err)
	}
	return nil
}

// OpenLog returns the body of a journal entry, from cache when possible.
func (s *TracerService) OpenLog(ctx context.Context, id string) (*tracer.LogContent, error) {
	key := cache.PrefixLogContent + id
	if c, ok, err := cache.GetJSON[tracer.LogContent](ctx, s.cache, key); err == nil && ok {
		return &c, nil
	} else if err != nil {
		slog.WarnContext(ctx, "log content cache read failed", "id", id, "error", err)
	}

	l, err := s.store.GetTracerLog(ctx, id)
	if err != nil {
		return nil, err
	}
	content := tracer.LogContent{Attachments: []tracer.Attachment{}}
	ref := vault.Ref{FileID: l.LogJSONID, NodeURL: l.StorageNodeURL}
	if !ref.Valid() {
		return &content, nil
	}
	data, err := s.files.Fetch(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("fetch log %s: %w", id, err)
	}
	if err := json.Unmarshal(data, &content); err != nil {
		return nil, fmt.Errorf("decode log %s: %w", id, err)
	}
	if content.Attachments == nil {
		content.Attachments = []tracer.Attachment{}
	}
	if err := cache.SetJSON(ctx, s.cache, key, content, s.opts.LogContentTTL); err != nil {
		slog.WarnContext(ctx, "log content cache write failed", "id", id, "error", err)
	}
	return &content, nil
}

func (s *TracerService) DeleteLog(ctx context.Context, id string) error {
	l, err := s.store.GetTracerLog(ctx, id)
	if err != nil {
		return err
	}
	s.evictLog(ctx, id)
	if err := s.store.DeleteTracerLog(ctx, id); err != nil {
		return err
	}
	s.janitor.Remove(ctx, vault.Ref{FileID: l.LogJSONID, NodeURL: l.StorageNodeURL})
	return nil
}

func (s *TracerService) evictLog(ctx context.Context, id string) {
	if err := s.cache.Delete(ctx, cache.PrefixLogContent+id); err != nil {
		slog.WarnContext(ctx, "log content cache evict failed", "id", id, "error", err)
	}
}

// --- Todos ---

func (s *TracerService) ListTodos(ctx context.Context, projectID string) ([]tracer.Todo, error) {
	return s.store.ListTracerTodos(ctx, projectID)
}

// SaveTodo stamps CompletedAt when a todo is first marked done and clears
// it when the todo is reopened.
func (s *TracerService) SaveTodo(ctx context.Context, t *tracer.Todo) error {
	if t.ProjectID == "" {
		return fmt.Errorf("%w: projectId is required", domain.ErrValidation)
	}
	if strings.TrimSpace(t.Title) == "" {
		return fmt.Errorf("%w: title is required", domain.ErrValidation)
	}
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	switch {
	case t.IsDone && t.CompletedAt == "":
		t.CompletedAt = time.Now().UTC().Format(time.RFC3339)
	case !t.IsDone:
		t.CompletedAt = ""
	}
	return s.store.UpsertTracerTodo(ctx, t)
}

func (s *TracerService) DeleteTodo(ctx context.Context, id string) error {
	return s.store.DeleteTracerTodo(ctx, id)
}

// --- References ---

func (s *TracerService) ListReferences(ctx context.Context, projectID string) ([]tracer.Reference, error) {
	return s.store.ListTracerReferences(ctx, projectID)
}

func (s *TracerService) SaveReference(ctx context.Context, r *tracer.Reference) error {
	if r.ProjectID == "" || r.CollectionID == "" {
		return fmt.Errorf("%w: projectId and collectionId are required", domain.ErrValidation)
	}
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return s.store.UpsertTracerReference(ctx, r)
}

func (s *TracerService) DeleteReference(ctx context.Context, id string) error {
	return s.store.DeleteTracerReference(ctx, id)
}

// --- Finance ---

// ListFinance returns the ledger in date order with running balances.
func (s *TracerService) ListFinance(ctx context.Context, projectID string) ([]tracer.Finance, error) {
	entries, err := s.store.ListTracerFinance(ctx, projectID)
	if err != nil {
		return nil, err
	}
	tracer.RecomputeBalances(entries)
	return entries, nil
}

func (s *TracerService) SaveFinance(ctx context.Context, f *tracer.Finance) error {
	if f.ProjectID == "" {
		return fmt.Errorf("%w: projectId is required", domain.ErrValidation)
	}
	if f.Type != tracer.FinanceIncome && f.Type != tracer.FinanceExpense {
		return fmt.Errorf("%w: type must be income or expense", domain.ErrValidation)
	}
	if f.Amount < 0 {
		return fmt.Errorf("%w: amount must not be negative", domain.ErrValidation)
	}
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	return s.store.UpsertTracerFinance(ctx, f)
}

// DeleteFinance removes the entry and its attachment list.
func (s *TracerService) DeleteFinance(ctx context.Context, id string) error {
	f, err := s.store.GetTracerFinance(ctx, id)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		slog.WarnContext(ctx, "finance lookup before delete failed", "id", id, "error", err)
	}
	if err := s.store.DeleteTracerFinance(ctx, id); err != nil {
		return err
	}
	if f != nil {
		s.janitor.Remove(ctx, vault.Ref{FileID: f.AttachmentsJSONID, NodeURL: f.StorageNodeURL})
	}
	return nil
}
