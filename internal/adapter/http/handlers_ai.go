package http

import (
	"log/slog"
	"net/http"

	"github.com/xeenaps/pkm/internal/adapter/litellm"
	"github.com/xeenaps/pkm/internal/domain/copilot"
	"github.com/xeenaps/pkm/internal/domain/library"
)

// Translate handles POST /api/v1/ai/translate
func (h *Handlers) Translate(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[translateRequest](w, r, h.Limits.BodyLimit)
	if !ok {
		return
	}
	out, err := h.Copilot.Translate(r.Context(), req.Text, req.Lang)
	if err != nil {
		writeDomainError(w, err, "translation failed")
		return
	}
	writeJSON(w, http.StatusOK, textResponse{Text: out})
}

// ListLanguages handles GET /api/v1/ai/languages
func (h *Handlers) ListLanguages(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, copilot.Languages)
}

// GetVipAd handles GET /api/v1/ads/vip. No active ad is 204.
func (h *Handlers) GetVipAd(w http.ResponseWriter, r *http.Request) {
	ad := h.Ads.FetchVipAd(r.Context())
	if ad == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, ad)
}

func parseLibraryQuery(r *http.Request) library.ListQuery {
	p := parseList(r)
	return library.ListQuery{Query: p.Query, Search: p.Search, Type: r.URL.Query().Get("type")}
}

// ListLibrary handles GET /api/v1/library, the source picker for audits.
func (h *Handlers) ListLibrary(w http.ResponseWriter, r *http.Request) {
	handlePage(parseLibraryQuery, h.Library.ListLibrary)(w, r)
}

// ListLLMModels handles GET /api/v1/llm/models
func (h *Handlers) ListLLMModels(w http.ResponseWriter, r *http.Request) {
	if h.LiteLLM == nil {
		writeError(w, http.StatusServiceUnavailable, "LiteLLM is not configured")
		return
	}
	models, err := h.LiteLLM.ListModels(r.Context())
	if err != nil {
		slog.Error("litellm unavailable", "error", err)
		writeError(w, http.StatusBadGateway, "LLM service unavailable")
		return
	}
	if models == nil {
		models = []litellm.Model{}
	}
	writeJSON(w, http.StatusOK, models)
}

// LLMHealth handles GET /api/v1/llm/health
func (h *Handlers) LLMHealth(w http.ResponseWriter, r *http.Request) {
	status := "healthy"
	switch {
	case h.LiteLLM == nil:
		status = "disabled"
	case h.LiteLLM.Health(r.Context()) != nil:
		status = "unhealthy"
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": status})
}
