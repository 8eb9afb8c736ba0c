// Package databasetest provides an in-memory database.Store for tests.
package databasetest

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/xeenaps/pkm/internal/domain"
	"github.com/xeenaps/pkm/internal/domain/activity"
	"github.com/xeenaps/pkm/internal/domain/brainstorming"
	"github.com/xeenaps/pkm/internal/domain/library"
	"github.com/xeenaps/pkm/internal/domain/note"
	"github.com/xeenaps/pkm/internal/domain/pagination"
	"github.com/xeenaps/pkm/internal/domain/research"
	"github.com/xeenaps/pkm/internal/domain/teaching"
	"github.com/xeenaps/pkm/internal/domain/tracer"
	"github.com/xeenaps/pkm/internal/port/database"
)

var _ database.Store = (*Store)(nil)

// Store is an in-memory database.Store safe for concurrent use. Tests may
// read the maps directly once background work has finished.
type Store struct {
	mu sync.Mutex

	Activities    map[string]activity.Activity
	Teaching      map[string]teaching.Teaching
	Notes         map[string]note.Note
	Brainstorming map[string]brainstorming.Item
	Projects      map[string]tracer.Project
	Logs          map[string]tracer.Log
	Todos         map[string]tracer.Todo
	References    map[string]tracer.Reference
	Finance       map[string]tracer.Finance
	Sources       map[string]research.Source
	Library       []library.Item

	// Error hooks
	UpsertErr  error
	GetErr     error
	ListLibErr error

	// LastLibrary is the most recent ListLibrary query.
	LastLibrary library.ListQuery
}

func New() *Store {
	return &Store{
		Activities:    map[string]activity.Activity{},
		Teaching:      map[string]teaching.Teaching{},
		Notes:         map[string]note.Note{},
		Brainstorming: map[string]brainstorming.Item{},
		Projects:      map[string]tracer.Project{},
		Logs:          map[string]tracer.Log{},
		Todos:         map[string]tracer.Todo{},
		References:    map[string]tracer.Reference{},
		Finance:       map[string]tracer.Finance{},
		Sources:       map[string]research.Source{},
	}
}

func get[T any](m *Store, rows map[string]T, id string) (*T, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	v, ok := rows[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &v, nil
}

func put[T any](m *Store, rows map[string]T, id string, v T) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.UpsertErr != nil {
		return m.UpsertErr
	}
	rows[id] = v
	return nil
}

func del[T any](m *Store, rows map[string]T, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := rows[id]; !ok {
		return domain.ErrNotFound
	}
	delete(rows, id)
	return nil
}

func values[T any](m *Store, rows map[string]T, keep func(T) bool) []T {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []T{}
	for _, v := range rows {
		if keep == nil || keep(v) {
			out = append(out, v)
		}
	}
	return out
}

func page[T any](items []T, q pagination.Query) pagination.Page[T] {
	from, to := q.Normalize().Range()
	total := len(items)
	from, to = min(from, total), min(to+1, total)
	return pagination.NewPage(items[from:to], total)
}

func (m *Store) ListActivities(_ context.Context, q activity.ListQuery) (pagination.Page[activity.Activity], error) {
	items := values(m, m.Activities, func(a activity.Activity) bool {
		return q.Type == "" || q.Type == activity.TypeAll || a.Type == q.Type
	})
	return page(items, q.Query), nil
}
func (m *Store) GetActivity(_ context.Context, id string) (*activity.Activity, error) {
	return get(m, m.Activities, id)
}
func (m *Store) UpsertActivity(_ context.Context, a *activity.Activity) error {
	return put(m, m.Activities, a.ID, *a)
}
func (m *Store) DeleteActivity(_ context.Context, id string) error {
	return del(m, m.Activities, id)
}

func (m *Store) ListTeaching(_ context.Context, q teaching.ListQuery) (pagination.Page[teaching.Teaching], error) {
	return page(values(m, m.Teaching, nil), q.Query), nil
}
func (m *Store) GetTeaching(_ context.Context, id string) (*teaching.Teaching, error) {
	return get(m, m.Teaching, id)
}
func (m *Store) UpsertTeaching(_ context.Context, t *teaching.Teaching) error {
	return put(m, m.Teaching, t.ID, *t)
}
func (m *Store) DeleteTeaching(_ context.Context, id string) error {
	return del(m, m.Teaching, id)
}

func (m *Store) ListNotes(_ context.Context, q note.ListQuery) (pagination.Page[note.Note], error) {
	items := values(m, m.Notes, func(n note.Note) bool {
		switch q.CollectionID {
		case "":
			return true
		case note.Independent:
			return n.CollectionID == ""
		}
		return n.CollectionID == q.CollectionID
	})
	return page(items, q.Query), nil
}
func (m *Store) GetNote(_ context.Context, id string) (*note.Note, error) {
	return get(m, m.Notes, id)
}
func (m *Store) UpsertNote(_ context.Context, n *note.Note) error {
	return put(m, m.Notes, n.ID, *n)
}
func (m *Store) DeleteNote(_ context.Context, id string) error {
	return del(m, m.Notes, id)
}

func (m *Store) ListBrainstorming(_ context.Context, q brainstorming.ListQuery) (pagination.Page[brainstorming.Item], error) {
	return page(values(m, m.Brainstorming, nil), q.Query), nil
}
func (m *Store) GetBrainstorming(_ context.Context, id string) (*brainstorming.Item, error) {
	return get(m, m.Brainstorming, id)
}
func (m *Store) UpsertBrainstorming(_ context.Context, it *brainstorming.Item) error {
	return put(m, m.Brainstorming, it.ID, *it)
}
func (m *Store) DeleteBrainstorming(_ context.Context, id string) error {
	return del(m, m.Brainstorming, id)
}

func (m *Store) ListTracerProjects(_ context.Context, q tracer.ListQuery) (pagination.Page[tracer.Project], error) {
	items := values(m, m.Projects, func(p tracer.Project) bool {
		return q.Status == "" || string(p.Status) == q.Status
	})
	return page(items, q.Query), nil
}
func (m *Store) GetTracerProject(_ context.Context, id string) (*tracer.Project, error) {
	return get(m, m.Projects, id)
}
func (m *Store) UpsertTracerProject(_ context.Context, p *tracer.Project) error {
	return put(m, m.Projects, p.ID, *p)
}

// DeleteTracerProject cascades like the foreign keys do.
func (m *Store) DeleteTracerProject(_ context.Context, id string) error {
	if err := del(m, m.Projects, id); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, v := range m.Logs {
		if v.ProjectID == id {
			delete(m.Logs, k)
		}
	}
	for k, v := range m.Finance {
		if v.ProjectID == id {
			delete(m.Finance, k)
		}
	}
	return nil
}

func (m *Store) ListTracerLogs(_ context.Context, projectID string) ([]tracer.Log, error) {
	return values(m, m.Logs, func(l tracer.Log) bool { return l.ProjectID == projectID }), nil
}
func (m *Store) GetTracerLog(_ context.Context, id string) (*tracer.Log, error) {
	return get(m, m.Logs, id)
}
func (m *Store) UpsertTracerLog(_ context.Context, l *tracer.Log) error {
	return put(m, m.Logs, l.ID, *l)
}
func (m *Store) DeleteTracerLog(_ context.Context, id string) error {
	return del(m, m.Logs, id)
}

func (m *Store) ListTracerTodos(_ context.Context, projectID string) ([]tracer.Todo, error) {
	return values(m, m.Todos, func(t tracer.Todo) bool { return t.ProjectID == projectID }), nil
}
func (m *Store) UpsertTracerTodo(_ context.Context, t *tracer.Todo) error {
	return put(m, m.Todos, t.ID, *t)
}
func (m *Store) DeleteTracerTodo(_ context.Context, id string) error {
	return del(m, m.Todos, id)
}

func (m *Store) ListTracerReferences(_ context.Context, projectID string) ([]tracer.Reference, error) {
	return values(m, m.References, func(r tracer.Reference) bool { return r.ProjectID == projectID }), nil
}
func (m *Store) UpsertTracerReference(_ context.Context, r *tracer.Reference) error {
	return put(m, m.References, r.ID, *r)
}
func (m *Store) DeleteTracerReference(_ context.Context, id string) error {
	return del(m, m.References, id)
}

func (m *Store) ListTracerFinance(_ context.Context, projectID string) ([]tracer.Finance, error) {
	return values(m, m.Finance, func(f tracer.Finance) bool { return f.ProjectID == projectID }), nil
}
func (m *Store) GetTracerFinance(_ context.Context, id string) (*tracer.Finance, error) {
	return get(m, m.Finance, id)
}
func (m *Store) UpsertTracerFinance(_ context.Context, f *tracer.Finance) error {
	return put(m, m.Finance, f.ID, *f)
}
func (m *Store) DeleteTracerFinance(_ context.Context, id string) error {
	return del(m, m.Finance, id)
}

func (m *Store) ListResearchSources(_ context.Context, projectID string) ([]research.Source, error) {
	return values(m, m.Sources, func(s research.Source) bool { return s.ProjectID == projectID }), nil
}
func (m *Store) UpsertResearchSource(_ context.Context, s *research.Source) error {
	return put(m, m.Sources, s.ID, *s)
}
func (m *Store) DeleteResearchSource(_ context.Context, id string) error {
	return del(m, m.Sources, id)
}

func (m *Store) ListLibrary(_ context.Context, q library.ListQuery) (pagination.Page[library.Item], error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LastLibrary = q
	if m.ListLibErr != nil {
		return pagination.Page[library.Item]{}, m.ListLibErr
	}
	var out []library.Item
	for _, it := range m.Library {
		if q.Type != "" && it.Type != q.Type {
			continue
		}
		if q.Search != "" && !strings.Contains(strings.ToLower(it.Title+" "+it.Abstract), strings.ToLower(q.Search)) {
			continue
		}
		out = append(out, it)
	}
	return page(out, q.Query), nil
}

func (m *Store) GetLibraryItems(_ context.Context, ids []string) ([]library.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []library.Item
	for _, it := range m.Library {
		if slices.Contains(ids, it.ID) {
			out = append(out, it)
		}
	}
	return out, nil
}

