// Package note models notebook entries whose body lives in the file store.
package note

import (
	"time"

	"github.com/xeenaps/pkm/internal/domain/pagination"
)

// Independent selects notes that belong to no collection.
const Independent = "__INDEPENDENT__"

type Note struct {
	ID             string    `json:"id"`
	CollectionID   string    `json:"collectionId"`
	Label          string    `json:"label"`
	NoteJSONID     string    `json:"noteJsonId"`
	StorageNodeURL string    `json:"storageNodeUrl"`
	IsFavorite     bool      `json:"isFavorite"`
	IsUsed         bool      `json:"isUsed"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// ListQuery filters notes. CollectionID may be Independent.
type ListQuery struct {
	pagination.Query
	Search       string
	CollectionID string
	SortKey      string
	SortDesc     bool
}
