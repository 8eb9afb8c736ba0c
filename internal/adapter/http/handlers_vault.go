package http

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/xeenaps/pkm/internal/domain/vault"
	"github.com/xeenaps/pkm/internal/port/filestore"
)

const uploadFormField = "file"

// UploadVaultFile handles POST /api/v1/vault/upload (multipart, field "file").
func (h *Handlers) UploadVaultFile(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.Limits.UploadLimit)
	file, header, err := r.FormFile(uploadFormField)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "file too large")
			return
		}
		writeError(w, http.StatusBadRequest, "multipart field \"file\" is required")
		return
	}
	defer func() { _ = file.Close() }()

	if err := sanitizeName(header.Filename); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	data, err := io.ReadAll(file)
	if err != nil {
		writeInternalError(w, err)
		return
	}

	ref, err := h.Activities.UploadVaultFile(r.Context(), filestore.Upload{
		Name:     header.Filename,
		MimeType: header.Header.Get("Content-Type"),
		Data:     data,
	})
	if err != nil {
		writeDomainError(w, err, "upload failed")
		return
	}
	slog.Info("vault file uploaded", "file_id", ref.FileID, "size", len(data))
	writeJSON(w, http.StatusCreated, ref)
}

// DeleteVaultFile handles DELETE /api/v1/vault/files. The outcome is
// reported as a boolean; a failed remote delete is not an HTTP error.
func (h *Handlers) DeleteVaultFile(w http.ResponseWriter, r *http.Request) {
	ref, ok := readJSON[vault.Ref](w, r, h.Limits.BodyLimit)
	if !ok {
		return
	}
	if !requireField(w, ref.FileID, "fileId") || !requireField(w, ref.NodeURL, "nodeUrl") {
		return
	}
	deleted, err := h.Activities.DeleteRemoteFile(r.Context(), ref)
	if err != nil {
		slog.Warn("remote file delete failed", "file_id", ref.FileID, "error", err)
	}
	writeJSON(w, http.StatusOK, map[string]bool{"deleted": deleted})
}
