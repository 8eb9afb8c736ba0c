package http

import (
	"net/http"

	"github.com/xeenaps/pkm/internal/adapter/litellm"
	"github.com/xeenaps/pkm/internal/domain/activity"
	"github.com/xeenaps/pkm/internal/domain/note"
	"github.com/xeenaps/pkm/internal/domain/teaching"
	"github.com/xeenaps/pkm/internal/port/database"
	"github.com/xeenaps/pkm/internal/service"
)

// Limits caps request sizes.
type Limits struct {
	BodyLimit   int64 // JSON bodies
	UploadLimit int64 // multipart vault uploads
}

// Handlers holds the HTTP handler dependencies.
type Handlers struct {
	Activities    *service.ActivityService
	Teaching      *service.TeachingService
	Notes         *service.NoteService
	Brainstorming *service.BrainstormingService
	Tracer        *service.TracerService
	Audit         *service.AuditService
	Ads           *service.AdService
	Copilot       *service.Copilot
	Library       database.LibraryStore
	LiteLLM       *litellm.Client // nil unless the litellm provider is configured
	Limits        Limits
}

// ---------------------------------------------------------------------------
// Activities
// ---------------------------------------------------------------------------

func parseActivityQuery(r *http.Request) activity.ListQuery {
	p := parseList(r)
	q := r.URL.Query()
	return activity.ListQuery{
		Query:     p.Query,
		Search:    p.Search,
		StartDate: q.Get("startDate"),
		EndDate:   q.Get("endDate"),
		Type:      q.Get("type"),
		SortKey:   p.SortKey,
		SortDesc:  p.SortDesc,
	}
}

func (h *Handlers) ListActivities(w http.ResponseWriter, r *http.Request) {
	handlePage(parseActivityQuery, h.Activities.List)(w, r)
}

func (h *Handlers) GetActivity(w http.ResponseWriter, r *http.Request) {
	handleGet(h.Activities.Get, "activity not found")(w, r)
}

// SaveActivity handles POST /api/v1/activities and PUT /api/v1/activities/{id}
func (h *Handlers) SaveActivity(w http.ResponseWriter, r *http.Request) {
	handleSave(h.Limits.BodyLimit, h.Activities.Save, func(a *activity.Activity, id string) { a.ID = id })(w, r)
}

func (h *Handlers) DeleteActivity(w http.ResponseWriter, r *http.Request) {
	handleDelete(h.Activities.Delete, "activity not found")(w, r)
}

// ---------------------------------------------------------------------------
// Teaching
// ---------------------------------------------------------------------------

func parseTeachingQuery(r *http.Request) teaching.ListQuery {
	p := parseList(r)
	q := r.URL.Query()
	return teaching.ListQuery{
		Query:     p.Query,
		Search:    p.Search,
		StartDate: q.Get("startDate"),
		EndDate:   q.Get("endDate"),
		SortKey:   p.SortKey,
		SortDesc:  p.SortDesc,
	}
}

func (h *Handlers) ListTeaching(w http.ResponseWriter, r *http.Request) {
	handlePage(parseTeachingQuery, h.Teaching.List)(w, r)
}

func (h *Handlers) GetTeaching(w http.ResponseWriter, r *http.Request) {
	handleGet(h.Teaching.Get, "teaching log not found")(w, r)
}

func (h *Handlers) SaveTeaching(w http.ResponseWriter, r *http.Request) {
	handleSave(h.Limits.BodyLimit, h.Teaching.Save, func(t *teaching.Teaching, id string) { t.ID = id })(w, r)
}

func (h *Handlers) DeleteTeaching(w http.ResponseWriter, r *http.Request) {
	handleDelete(h.Teaching.Delete, "teaching log not found")(w, r)
}

// ---------------------------------------------------------------------------
// Notes
// ---------------------------------------------------------------------------

func parseNoteQuery(r *http.Request) note.ListQuery {
	p := parseList(r)
	return note.ListQuery{
		Query:        p.Query,
		Search:       p.Search,
		CollectionID: r.URL.Query().Get("collectionId"),
		SortKey:      p.SortKey,
		SortDesc:     p.SortDesc,
	}
}

func (h *Handlers) ListNotes(w http.ResponseWriter, r *http.Request) {
	handlePage(parseNoteQuery, h.Notes.List)(w, r)
}

func (h *Handlers) GetNote(w http.ResponseWriter, r *http.Request) {
	handleGet(h.Notes.Get, "note not found")(w, r)
}

func (h *Handlers) SaveNote(w http.ResponseWriter, r *http.Request) {
	handleSave(h.Limits.BodyLimit, h.Notes.Save, func(n *note.Note, id string) { n.ID = id })(w, r)
}

func (h *Handlers) DeleteNote(w http.ResponseWriter, r *http.Request) {
	handleDelete(h.Notes.Delete, "note not found")(w, r)
}
