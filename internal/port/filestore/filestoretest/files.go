// Package filestoretest provides an in-memory filestore.Store for tests.
package filestoretest

import (
	"context"
	"slices"
	"strconv"
	"sync"

	"github.com/xeenaps/pkm/internal/domain"
	"github.com/xeenaps/pkm/internal/domain/vault"
	"github.com/xeenaps/pkm/internal/port/filestore"
)

var _ filestore.Store = (*Files)(nil)

// Files is an in-memory filestore.Store that records deletions.
type Files struct {
	mu        sync.Mutex
	files     map[string][]byte
	deleted   []string
	uploads   []filestore.Upload
	seq       int
	UploadErr error
	DeleteErr error
}

func New() *Files {
	return &Files{files: map[string][]byte{}}
}

// Node is the node url of every stored file.
const Node = "https://node.example/exec"

func (f *Files) Upload(_ context.Context, u filestore.Upload) (vault.Ref, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.UploadErr != nil {
		return vault.Ref{}, f.UploadErr
	}
	f.uploads = append(f.uploads, u)
	f.seq++
	id := "file-" + strconv.Itoa(f.seq)
	f.files[id] = slices.Clone(u.Data)
	return vault.Ref{FileID: id, NodeURL: Node}, nil
}

func (f *Files) Fetch(_ context.Context, ref vault.Ref) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.files[ref.FileID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return data, nil
}

func (f *Files) Delete(_ context.Context, ref vault.Ref) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.DeleteErr != nil {
		return f.DeleteErr
	}
	f.deleted = append(f.deleted, ref.FileID)
	delete(f.files, ref.FileID)
	return nil
}

// Uploads returns every upload accepted so far, in order.
func (f *Files) Uploads() []filestore.Upload {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.uploads)
}

// Deleted returns the deleted file ids, sorted.
func (f *Files) Deleted() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := slices.Clone(f.deleted)
	slices.Sort(out)
	return out
}

