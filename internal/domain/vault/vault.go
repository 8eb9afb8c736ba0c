// Package vault describes files and links attached to portfolio records.
package vault

import "strings"

// ItemType distinguishes stored files from plain links.
type ItemType string

const (
	TypeFile ItemType = "FILE"
	TypeLink ItemType = "LINK"
)

// OptimisticPrefix marks client-side placeholder file ids that were never
// uploaded.
const OptimisticPrefix = "optimistic_"

// Item is one entry in a record's vault.
type Item struct {
	Type     ItemType `json:"type"`
	FileID   string   `json:"fileId,omitempty"`
	NodeURL  string   `json:"nodeUrl,omitempty"`
	URL      string   `json:"url,omitempty"`
	Label    string   `json:"label"`
	MimeType string   `json:"mimeType,omitempty"`
}

// Ref addresses a file on a storage node.
type Ref struct {
	FileID  string `json:"fileId"`
	NodeURL string `json:"nodeUrl"`
}

// Valid reports whether both parts of the reference are set.
func (r Ref) Valid() bool {
	return r.FileID != "" && r.NodeURL != ""
}

// IsOptimistic reports whether the id is a client placeholder.
func IsOptimistic(fileID string) bool {
	return strings.HasPrefix(fileID, OptimisticPrefix)
}

// RemoteFiles returns the refs of items that live on a storage node and may be
// deleted remotely. Links, incomplete refs and placeholders are skipped.
func RemoteFiles(items []Item) []Ref {
	var refs []Ref
	for _, it := range items {
		if it.Type != TypeFile || IsOptimistic(it.FileID) {
			continue
		}
		ref := Ref{FileID: it.FileID, NodeURL: it.NodeURL}
		if ref.Valid() {
			refs = append(refs, ref)
		}
	}
	return refs
}
