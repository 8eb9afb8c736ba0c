package http

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/xeenaps/pkm/internal/domain/pagination"
)

// ---------------------------------------------------------------------------
// Generic CRUD handler factories
// ---------------------------------------------------------------------------

// handlePage creates a handler that parses a list query and returns one page.
func handlePage[Q any, T any](parse func(r *http.Request) Q, listFn func(ctx context.Context, q Q) (pagination.Page[T], error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, err := listFn(r.Context(), parse(r))
		if err != nil {
			writeDomainError(w, err, "not found")
			return
		}
		if page.Items == nil {
			page.Items = []T{}
		}
		writeJSON(w, http.StatusOK, page)
	}
}

// handleListByParam creates a handler that lists resources scoped by a URL parameter.
func handleListByParam[T any](param string, listFn func(ctx context.Context, paramVal string) ([]T, error), notFoundMsg string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := listFn(r.Context(), chi.URLParam(r, param))
		if err != nil {
			writeDomainError(w, err, notFoundMsg)
			return
		}
		if items == nil {
			items = []T{}
		}
		writeJSON(w, http.StatusOK, items)
	}
}

// handleGet creates a handler that retrieves a single resource by URL param "id".
func handleGet[T any](getFn func(ctx context.Context, id string) (*T, error), notFoundMsg string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		item, err := getFn(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeDomainError(w, err, notFoundMsg)
			return
		}
		writeJSON(w, http.StatusOK, item)
	}
}

// handleSave creates a handler that decodes a JSON entity and upserts it.
// On PUT routes setID copies URL param "id" into the entity before saving.
// The saved entity, with any generated id, is echoed back.
func handleSave[T any](bodyLimit int64, saveFn func(ctx context.Context, v *T) error, setID func(v *T, id string)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		v, ok := readJSON[T](w, r, bodyLimit)
		if !ok {
			return
		}
		status := http.StatusCreated
		if id := chi.URLParam(r, "id"); id != "" && setID != nil {
			setID(&v, id)
			status = http.StatusOK
		}
		if err := saveFn(r.Context(), &v); err != nil {
			writeDomainError(w, err, "not found")
			return
		}
		writeJSON(w, status, &v)
	}
}

// handleDelete creates a handler that deletes a resource by URL param "id".
func handleDelete(deleteFn func(ctx context.Context, id string) error, notFoundMsg string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := deleteFn(r.Context(), chi.URLParam(r, "id")); err != nil {
			writeDomainError(w, err, notFoundMsg)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
