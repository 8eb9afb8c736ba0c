package gas

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/xeenaps/pkm/internal/domain"
	"github.com/xeenaps/pkm/internal/domain/vault"
	"github.com/xeenaps/pkm/internal/port/filestore"
)

var _ filestore.Store = (*Client)(nil)

type storedReply struct {
	FileID  string `json:"fileId"`
	NodeURL string `json:"nodeUrl"`
}

// Upload stores f on whichever node the endpoint picks. Server documents go
// through saveJsonFile so the node keeps them readable; everything else,
// including user files that happen to be JSON, is sent base64 encoded
// through vaultFileUpload.
func (c *Client) Upload(ctx context.Context, f filestore.Upload) (vault.Ref, error) {
	var body map[string]any
	if f.Document {
		body = map[string]any{
			"action":   "saveJsonFile",
			"fileName": f.Name,
			"content":  string(f.Data),
		}
	} else {
		body = map[string]any{
			"action":   "vaultFileUpload",
			"fileData": base64.StdEncoding.EncodeToString(f.Data),
			"fileName": f.Name,
			"mimeType": f.MimeType,
		}
	}

	var r storedReply
	if err := c.post(ctx, "", body, &r); err != nil {
		return vault.Ref{}, fmt.Errorf("upload %s: %w", f.Name, err)
	}
	ref := vault.Ref{FileID: r.FileID, NodeURL: r.NodeURL}
	if !ref.Valid() {
		return vault.Ref{}, fmt.Errorf("upload %s: incomplete reply", f.Name)
	}
	return ref, nil
}

// Fetch reads a stored file's content from the node that holds it.
func (c *Client) Fetch(ctx context.Context, ref vault.Ref) ([]byte, error) {
	if !ref.Valid() {
		return nil, fmt.Errorf("%w: file reference is incomplete", domain.ErrValidation)
	}
	var r struct {
		Content string `json:"content"`
	}
	body := map[string]any{"action": "getFileContent", "fileId": ref.FileID}
	if err := c.post(ctx, ref.NodeURL, body, &r); err != nil {
		return nil, fmt.Errorf("fetch %s: %w", ref.FileID, err)
	}
	return []byte(r.Content), nil
}

// Delete removes a file from the node that holds it.
func (c *Client) Delete(ctx context.Context, ref vault.Ref) error {
	if !ref.Valid() {
		return fmt.Errorf("%w: file reference is incomplete", domain.ErrValidation)
	}
	body := map[string]any{"action": "deleteRemoteFiles", "fileIds": []string{ref.FileID}}
	if err := c.post(ctx, ref.NodeURL, body, nil); err != nil {
		return fmt.Errorf("delete %s: %w", ref.FileID, err)
	}
	return nil
}
