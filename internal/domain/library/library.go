// Package library exposes the read-only view of the literature collection.
package library

import "github.com/xeenaps/pkm/internal/domain/pagination"

// TypeLiterature is the collection type used for research recommendations.
const TypeLiterature = "Literature"

type Item struct {
	ID              string   `json:"id"`
	Title           string   `json:"title"`
	Type            string   `json:"type"`
	Category        string   `json:"category"`
	Authors         []string `json:"authors"`
	Abstract        string   `json:"abstract"`
	ExtractedJSONID string   `json:"extractedJsonId"`
	StorageNodeURL  string   `json:"storageNodeUrl"`
}

type ListQuery struct {
	pagination.Query
	Search string
	Type   string
}
