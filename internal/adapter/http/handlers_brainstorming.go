package http

import (
	"net/http"

	"github.com/xeenaps/pkm/internal/domain/brainstorming"
	"github.com/xeenaps/pkm/internal/domain/library"
)

type translateRequest struct {
	Text string `json:"text"`
	Lang string `json:"lang"`
}

type textResponse struct {
	Text string `json:"text"`
}

func parseBrainstormingQuery(r *http.Request) brainstorming.ListQuery {
	p := parseList(r)
	return brainstorming.ListQuery{Query: p.Query, Search: p.Search, SortKey: p.SortKey, SortDesc: p.SortDesc}
}

func (h *Handlers) ListBrainstorming(w http.ResponseWriter, r *http.Request) {
	handlePage(parseBrainstormingQuery, h.Brainstorming.List)(w, r)
}

func (h *Handlers) GetBrainstorming(w http.ResponseWriter, r *http.Request) {
	handleGet(h.Brainstorming.Get, "brainstorming item not found")(w, r)
}

func (h *Handlers) SaveBrainstorming(w http.ResponseWriter, r *http.Request) {
	handleSave(h.Limits.BodyLimit, h.Brainstorming.Save, func(it *brainstorming.Item, id string) { it.ID = id })(w, r)
}

func (h *Handlers) DeleteBrainstorming(w http.ResponseWriter, r *http.Request) {
	handleDelete(h.Brainstorming.Delete, "brainstorming item not found")(w, r)
}

// TranslateBrainstormingField handles POST /api/v1/brainstorming/translate
func (h *Handlers) TranslateBrainstormingField(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[translateRequest](w, r, h.Limits.BodyLimit)
	if !ok {
		return
	}
	out, err := h.Brainstorming.TranslateField(r.Context(), req.Text, req.Lang)
	if err != nil {
		writeDomainError(w, err, "translation failed")
		return
	}
	writeJSON(w, http.StatusOK, textResponse{Text: out})
}

// RefineBrainstormingField handles POST /api/v1/brainstorming/refine
func (h *Handlers) RefineBrainstormingField(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[struct {
		Field string             `json:"field"`
		Value string             `json:"value"`
		Mode  string             `json:"mode"`
		Item  brainstorming.Item `json:"item"`
	}](w, r, h.Limits.BodyLimit)
	if !ok {
		return
	}
	if !requireField(w, req.Field, "field") {
		return
	}
	out, err := h.Brainstorming.RefineField(r.Context(), req.Field, req.Value, &req.Item, req.Mode)
	if err != nil {
		writeDomainError(w, err, "refinement failed")
		return
	}
	writeJSON(w, http.StatusOK, textResponse{Text: out})
}

// SynthesizeIdea handles POST /api/v1/brainstorming/synthesize
func (h *Handlers) SynthesizeIdea(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[struct {
		RoughIdea string `json:"roughIdea"`
	}](w, r, h.Limits.BodyLimit)
	if !ok {
		return
	}
	res, err := h.Brainstorming.Synthesize(r.Context(), req.RoughIdea)
	if err != nil {
		writeDomainError(w, err, "synthesis failed")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// GenerateAbstract handles POST /api/v1/brainstorming/abstract
func (h *Handlers) GenerateAbstract(w http.ResponseWriter, r *http.Request) {
	it, ok := readJSON[brainstorming.Item](w, r, h.Limits.BodyLimit)
	if !ok {
		return
	}
	out, err := h.Brainstorming.GenerateAbstract(r.Context(), &it)
	if err != nil {
		writeDomainError(w, err, "abstract generation failed")
		return
	}
	writeJSON(w, http.StatusOK, textResponse{Text: out})
}

// ExternalRecommendations handles POST /api/v1/brainstorming/recommendations/external
func (h *Handlers) ExternalRecommendations(w http.ResponseWriter, r *http.Request) {
	it, ok := readJSON[brainstorming.Item](w, r, h.Limits.BodyLimit)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"items": h.Brainstorming.ExternalRecommendations(r.Context(), &it)})
}

// InternalRecommendations handles POST /api/v1/brainstorming/recommendations/internal
func (h *Handlers) InternalRecommendations(w http.ResponseWriter, r *http.Request) {
	it, ok := readJSON[brainstorming.Item](w, r, h.Limits.BodyLimit)
	if !ok {
		return
	}
	items, err := h.Brainstorming.InternalRecommendations(r.Context(), &it)
	if err != nil {
		writeDomainError(w, err, "library not found")
		return
	}
	if items == nil {
		items = []library.Item{}
	}
	writeJSON(w, http.StatusOK, items)
}

// TranslateBrainstorming handles POST /api/v1/brainstorming/translate-all
func (h *Handlers) TranslateBrainstorming(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[struct {
		Lang string             `json:"lang"`
		Item brainstorming.Item `json:"item"`
	}](w, r, h.Limits.BodyLimit)
	if !ok {
		return
	}
	out, err := h.Brainstorming.TranslateAll(r.Context(), &req.Item, req.Lang)
	if err != nil {
		writeDomainError(w, err, "translation failed")
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// ExportToTracer handles POST /api/v1/brainstorming/export
func (h *Handlers) ExportToTracer(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[struct {
		ProjectID string `json:"projectId"`
		Field     string `json:"field"`
		Value     string `json:"value"`
	}](w, r, h.Limits.BodyLimit)
	if !ok {
		return
	}
	if !requireField(w, req.ProjectID, "projectId") || !requireField(w, req.Field, "field") {
		return
	}
	p, err := h.Brainstorming.ExportFieldToTracer(r.Context(), req.ProjectID, req.Field, req.Value)
	if err != nil {
		writeDomainError(w, err, "tracer project not found")
		return
	}
	writeJSON(w, http.StatusOK, p)
}
