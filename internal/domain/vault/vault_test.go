package vault

import "testing"

func TestRemoteFiles(t *testing.T) {
	items := []Item{
		{Type: TypeFile, FileID: "f1", NodeURL: "https://node/a"},
		{Type: TypeFile, FileID: "optimistic_123", NodeURL: "https://node/a"},
		{Type: TypeLink, URL: "https://example.com", FileID: "f2", NodeURL: "https://node/a"},
		{Type: TypeFile, FileID: "f3"},
		{Type: TypeFile, FileID: "f4", NodeURL: "https://node/b"},
	}

	refs := RemoteFiles(items)
	if len(refs) != 2 {
		t.Fatalf("expected 2 refs, got %d: %+v", len(refs), refs)
	}
	if refs[0].FileID != "f1" || refs[1].FileID != "f4" {
		t.Errorf("unexpected refs: %+v", refs)
	}
}

func TestRemoteFilesEmpty(t *testing.T) {
	if refs := RemoteFiles(nil); len(refs) != 0 {
		t.Errorf("expected no refs, got %+v", refs)
	}
}
