// Package database defines the database store port (interface).
package database

import (
	"context"

	"github.com/xeenaps/pkm/internal/domain/activity"
	"github.com/xeenaps/pkm/internal/domain/brainstorming"
	"github.com/xeenaps/pkm/internal/domain/library"
	"github.com/xeenaps/pkm/internal/domain/note"
	"github.com/xeenaps/pkm/internal/domain/pagination"
	"github.com/xeenaps/pkm/internal/domain/research"
	"github.com/xeenaps/pkm/internal/domain/teaching"
	"github.com/xeenaps/pkm/internal/domain/tracer"
)

// ActivityStore persists portfolio activities.
type ActivityStore interface {
	ListActivities(ctx context.Context, q activity.ListQuery) (pagination.Page[activity.Activity], error)
	GetActivity(ctx context.Context, id string) (*activity.Activity, error)
	UpsertActivity(ctx context.Context, a *activity.Activity) error
	DeleteActivity(ctx context.Context, id string) error
}

// TeachingStore persists teaching sessions.
type TeachingStore interface {
	ListTeaching(ctx context.Context, q teaching.ListQuery) (pagination.Page[teaching.Teaching], error)
	GetTeaching(ctx context.Context, id string) (*teaching.Teaching, error)
	UpsertTeaching(ctx context.Context, t *teaching.Teaching) error
	DeleteTeaching(ctx context.Context, id string) error
}

// NoteStore persists notebook entries.
type NoteStore interface {
	ListNotes(ctx context.Context, q note.ListQuery) (pagination.Page[note.Note], error)
	GetNote(ctx context.Context, id string) (*note.Note, error)
	UpsertNote(ctx context.Context, n *note.Note) error
	DeleteNote(ctx context.Context, id string) error
}

// BrainstormingStore persists research ideas.
type BrainstormingStore interface {
	ListBrainstorming(ctx context.Context, q brainstorming.ListQuery) (pagination.Page[brainstorming.Item], error)
	GetBrainstorming(ctx context.Context, id string) (*brainstorming.Item, error)
	UpsertBrainstorming(ctx context.Context, it *brainstorming.Item) error
	DeleteBrainstorming(ctx context.Context, id string) error
}

// TracerStore persists research projects and their sub-records.
type TracerStore interface {
	ListTracerProjects(ctx context.Context, q tracer.ListQuery) (pagination.Page[tracer.Project], error)
	GetTracerProject(ctx context.Context, id string) (*tracer.Project, error)
	UpsertTracerProject(ctx context.Context, p *tracer.Project) error
	DeleteTracerProject(ctx context.Context, id string) error

	ListTracerLogs(ctx context.Context, projectID string) ([]tracer.Log, error)
	GetTracerLog(ctx context.Context, id string) (*tracer.Log, error)
	UpsertTracerLog(ctx context.Context, l *tracer.Log) error
	DeleteTracerLog(ctx context.Context, id string) error

	ListTracerTodos(ctx context.Context, projectID string) ([]tracer.Todo, error)
	UpsertTracerTodo(ctx context.Context, t *tracer.Todo) error
	DeleteTracerTodo(ctx context.Context, id string) error

	ListTracerReferences(ctx context.Context, projectID string) ([]tracer.Reference, error)
	UpsertTracerReference(ctx context.Context, r *tracer.Reference) error
	DeleteTracerReference(ctx context.Context, id string) error

	ListTracerFinance(ctx context.Context, projectID string) ([]tracer.Finance, error)
	GetTracerFinance(ctx context.Context, id string) (*tracer.Finance, error)
	UpsertTracerFinance(ctx context.Context, f *tracer.Finance) error
	DeleteTracerFinance(ctx context.Context, id string) error
}

// ResearchStore persists audit-matrix rows.
type ResearchStore interface {
	ListResearchSources(ctx context.Context, projectID string) ([]research.Source, error)
	UpsertResearchSource(ctx context.Context, s *research.Source) error
	DeleteResearchSource(ctx context.Context, id string) error
}

// LibraryStore reads the literature collection.
type LibraryStore interface {
	ListLibrary(ctx context.Context, q library.ListQuery) (pagination.Page[library.Item], error)
	GetLibraryItems(ctx context.Context, ids []string) ([]library.Item, error)
}

// Store is the full persistence port.
type Store interface {
	ActivityStore
	TeachingStore
	NoteStore
	BrainstormingStore
	TracerStore
	ResearchStore
	LibraryStore
}
