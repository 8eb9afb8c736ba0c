package http

import (
	"context"
	"net/http"

	"github.com/xeenaps/pkm/internal/domain/research"
	"github.com/xeenaps/pkm/internal/domain/tracer"
)

func parseTracerQuery(r *http.Request) tracer.ListQuery {
	p := parseList(r)
	return tracer.ListQuery{
		Query:    p.Query,
		Search:   p.Search,
		Status:   r.URL.Query().Get("status"),
		SortKey:  p.SortKey,
		SortDesc: p.SortDesc,
	}
}

// handleProjectChildSave decodes a project child entity, binds it to the
// project in the URL and saves it.
func handleProjectChildSave[T any](bodyLimit int64, saveFn func(ctx context.Context, v *T) error, setProject func(v *T, projectID string)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		v, ok := readJSON[T](w, r, bodyLimit)
		if !ok {
			return
		}
		setProject(&v, urlParam(r, "id"))
		if err := saveFn(r.Context(), &v); err != nil {
			writeDomainError(w, err, "tracer project not found")
			return
		}
		writeJSON(w, http.StatusOK, &v)
	}
}

// ---------------------------------------------------------------------------
// Projects
// ---------------------------------------------------------------------------

func (h *Handlers) ListTracerProjects(w http.ResponseWriter, r *http.Request) {
	handlePage(parseTracerQuery, h.Tracer.List)(w, r)
}

func (h *Handlers) GetTracerProject(w http.ResponseWriter, r *http.Request) {
	handleGet(h.Tracer.Get, "tracer project not found")(w, r)
}

func (h *Handlers) SaveTracerProject(w http.ResponseWriter, r *http.Request) {
	handleSave(h.Limits.BodyLimit, h.Tracer.Save, func(p *tracer.Project, id string) { p.ID = id })(w, r)
}

func (h *Handlers) DeleteTracerProject(w http.ResponseWriter, r *http.Request) {
	handleDelete(h.Tracer.Delete, "tracer project not found")(w, r)
}

// GetTracerDetail handles GET /api/v1/tracer/projects/{id}/detail
func (h *Handlers) GetTracerDetail(w http.ResponseWriter, r *http.Request) {
	handleGet(h.Tracer.Detail, "tracer project not found")(w, r)
}

// RefineTracerField handles POST /api/v1/tracer/projects/{id}/refine.
// The body may carry unsaved project edits; without them the stored
// project is used as context.
func (h *Handlers) RefineTracerField(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[struct {
		Field   string          `json:"field"`
		Value   string          `json:"value"`
		Mode    string          `json:"mode"`
		Project *tracer.Project `json:"project"`
	}](w, r, h.Limits.BodyLimit)
	if !ok {
		return
	}
	if !requireField(w, req.Field, "field") {
		return
	}
	p := req.Project
	if p == nil {
		var err error
		if p, err = h.Tracer.Get(r.Context(), urlParam(r, "id")); err != nil {
			writeDomainError(w, err, "tracer project not found")
			return
		}
	}
	out, err := h.Tracer.RefineField(r.Context(), req.Field, req.Value, p, req.Mode)
	if err != nil {
		writeDomainError(w, err, "refinement failed")
		return
	}
	writeJSON(w, http.StatusOK, textResponse{Text: out})
}

// TranslateTracerField handles POST /api/v1/tracer/projects/translate
func (h *Handlers) TranslateTracerField(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[translateRequest](w, r, h.Limits.BodyLimit)
	if !ok {
		return
	}
	out, err := h.Tracer.TranslateField(r.Context(), req.Text, req.Lang)
	if err != nil {
		writeDomainError(w, err, "translation failed")
		return
	}
	writeJSON(w, http.StatusOK, textResponse{Text: out})
}

// ImportFromBrainstorming handles POST /api/v1/tracer/projects/{id}/import
func (h *Handlers) ImportFromBrainstorming(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[struct {
		Field  string `json:"field"`
		ItemID string `json:"itemId"`
	}](w, r, h.Limits.BodyLimit)
	if !ok {
		return
	}
	if !requireField(w, req.Field, "field") || !requireField(w, req.ItemID, "itemId") {
		return
	}
	p, err := h.Tracer.ImportFromBrainstorming(r.Context(), urlParam(r, "id"), req.Field, req.ItemID)
	if err != nil {
		writeDomainError(w, err, "tracer project or brainstorming item not found")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// StartAudit handles POST /api/v1/tracer/projects/{id}/audit. The analysis
// runs in the background; the pending sources are returned immediately.
func (h *Handlers) StartAudit(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[struct {
		LibraryIDs []string `json:"libraryIds"`
	}](w, r, h.Limits.BodyLimit)
	if !ok {
		return
	}
	sources, err := h.Audit.StartAudit(r.Context(), urlParam(r, "id"), req.LibraryIDs)
	if err != nil {
		writeDomainError(w, err, "tracer project or library items not found")
		return
	}
	if sources == nil {
		sources = []research.Source{}
	}
	writeJSON(w, http.StatusAccepted, sources)
}

// ---------------------------------------------------------------------------
// Logs
// ---------------------------------------------------------------------------

func (h *Handlers) ListTracerLogs(w http.ResponseWriter, r *http.Request) {
	handleListByParam("id", h.Tracer.ListLogs, "tracer project not found")(w, r)
}

// SaveTracerLog handles POST /api/v1/tracer/projects/{id}/logs
func (h *Handlers) SaveTracerLog(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[struct {
		Log     tracer.Log        `json:"log"`
		Content tracer.LogContent `json:"content"`
	}](w, r, h.Limits.BodyLimit)
	if !ok {
		return
	}
	req.Log.ProjectID = urlParam(r, "id")
	if err := h.Tracer.SaveLog(r.Context(), &req.Log, req.Content); err != nil {
		writeDomainError(w, err, "tracer log not found")
		return
	}
	writeJSON(w, http.StatusOK, &req.Log)
}

// OpenTracerLog handles GET /api/v1/tracer/logs/{id} and returns the log body.
func (h *Handlers) OpenTracerLog(w http.ResponseWriter, r *http.Request) {
	handleGet(h.Tracer.OpenLog, "tracer log not found")(w, r)
}

func (h *Handlers) DeleteTracerLog(w http.ResponseWriter, r *http.Request) {
	handleDelete(h.Tracer.DeleteLog, "tracer log not found")(w, r)
}

// ---------------------------------------------------------------------------
// Todos, references, finance
// ---------------------------------------------------------------------------

func (h *Handlers) ListTracerTodos(w http.ResponseWriter, r *http.Request) {
	handleListByParam("id", h.Tracer.ListTodos, "tracer project not found")(w, r)
}

func (h *Handlers) SaveTracerTodo(w http.ResponseWriter, r *http.Request) {
	handleProjectChildSave(h.Limits.BodyLimit, h.Tracer.SaveTodo, func(t *tracer.Todo, pid string) { t.ProjectID = pid })(w, r)
}

func (h *Handlers) DeleteTracerTodo(w http.ResponseWriter, r *http.Request) {
	handleDelete(h.Tracer.DeleteTodo, "todo not found")(w, r)
}

func (h *Handlers) ListTracerReferences(w http.ResponseWriter, r *http.Request) {
	handleListByParam("id", h.Tracer.ListReferences, "tracer project not found")(w, r)
}

func (h *Handlers) SaveTracerReference(w http.ResponseWriter, r *http.Request) {
	handleProjectChildSave(h.Limits.BodyLimit, h.Tracer.SaveReference, func(ref *tracer.Reference, pid string) { ref.ProjectID = pid })(w, r)
}

func (h *Handlers) DeleteTracerReference(w http.ResponseWriter, r *http.Request) {
	handleDelete(h.Tracer.DeleteReference, "reference not found")(w, r)
}

func (h *Handlers) ListTracerFinance(w http.ResponseWriter, r *http.Request) {
	handleListByParam("id", h.Tracer.ListFinance, "tracer project not found")(w, r)
}

func (h *Handlers) SaveTracerFinance(w http.ResponseWriter, r *http.Request) {
	handleProjectChildSave(h.Limits.BodyLimit, h.Tracer.SaveFinance, func(f *tracer.Finance, pid string) { f.ProjectID = pid })(w, r)
}

func (h *Handlers) DeleteTracerFinance(w http.ResponseWriter, r *http.Request) {
	handleDelete(h.Tracer.DeleteFinance, "finance entry not found")(w, r)
}
