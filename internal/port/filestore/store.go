// Package filestore defines the port for the remote file storage nodes that
// hold vault files and JSON documents.
package filestore

import (
	"context"

	"github.com/xeenaps/pkm/internal/domain/vault"
)

// Upload is a file to be stored.
type Upload struct {
	Name     string
	MimeType string
	Data     []byte
	// Document marks a JSON document written by the server itself, such as
	// a log body. User uploads never set it, whatever their content type.
	Document bool
}

// Store uploads, fetches and deletes files on storage nodes. Every stored
// file is addressed by the node that holds it.
type Store interface {
	Upload(ctx context.Context, f Upload) (vault.Ref, error)
	Fetch(ctx context.Context, ref vault.Ref) ([]byte, error)
	Delete(ctx context.Context, ref vault.Ref) error
}
