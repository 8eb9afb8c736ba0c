// Package activity models portfolio activities (seminars, awards,
// committee work) and their attached vault.
package activity

import (
	"time"

	"github.com/xeenaps/pkm/internal/domain/pagination"
	"github.com/xeenaps/pkm/internal/domain/vault"
)

// TypeAll disables the type filter.
const TypeAll = "All"

// Activity is one portfolio entry.
type Activity struct {
	ID                 string       `json:"id"`
	Type               string       `json:"type"`
	Name               string       `json:"name"`
	Description        string       `json:"description"`
	Organizer          string       `json:"organizer"`
	Location           string       `json:"location"`
	Level              string       `json:"level"`
	Role               string       `json:"role"`
	StartDate          string       `json:"startDate"`
	EndDate            string       `json:"endDate"`
	CertificateNumber  string       `json:"certificateNumber"`
	CertificateFileID  string       `json:"certificateFileId"`
	CertificateNodeURL string       `json:"certificateNodeUrl"`
	VaultJSONID        string       `json:"vaultJsonId"`
	StorageNodeURL     string       `json:"storageNodeUrl"`
	IsFavorite         bool         `json:"isFavorite"`
	VaultItems         []vault.Item `json:"vault_items"`
	CreatedAt          time.Time    `json:"createdAt"`
	UpdatedAt          time.Time    `json:"updatedAt"`
}

// Normalize replaces nil collections with empty ones.
func (a *Activity) Normalize() {
	if a.VaultItems == nil {
		a.VaultItems = []vault.Item{}
	}
}

// RemoteFiles returns every stored file owned by the activity: the
// certificate and the uploaded vault files.
func (a *Activity) RemoteFiles() []vault.Ref {
	var refs []vault.Ref
	cert := vault.Ref{FileID: a.CertificateFileID, NodeURL: a.CertificateNodeURL}
	if cert.Valid() {
		refs = append(refs, cert)
	}
	return append(refs, vault.RemoteFiles(a.VaultItems)...)
}

// ListQuery filters the activity list.
type ListQuery struct {
	pagination.Query
	Search    string
	StartDate string
	EndDate   string
	Type      string
	SortKey   string
	SortDesc  bool
}
