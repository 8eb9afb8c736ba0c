package gas

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/xeenaps/pkm/internal/domain"
	"github.com/xeenaps/pkm/internal/domain/brainstorming"
	"github.com/xeenaps/pkm/internal/domain/vault"
	"github.com/xeenaps/pkm/internal/port/filestore"
)

// fakeEndpoint decodes each request body and answers with reply(body).
func fakeEndpoint(t *testing.T, reply func(body map[string]any) any) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("unexpected method %s", r.Method)
		}
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode body: %v", err)
		}
		_ = json.NewEncoder(w).Encode(reply(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestUploadBinary(t *testing.T) {
	srv := fakeEndpoint(t, func(body map[string]any) any {
		if body["action"] != "vaultFileUpload" || body["fileName"] != "cert.pdf" || body["mimeType"] != "application/pdf" {
			t.Errorf("unexpected body %v", body)
		}
		data, _ := base64.StdEncoding.DecodeString(body["fileData"].(string))
		if string(data) != "%PDF" {
			t.Errorf("fileData = %q", data)
		}
		return map[string]string{"status": "success", "fileId": "f1", "nodeUrl": "https://node-2.example"}
	})

	c := NewClient(srv.URL, time.Second)
	ref, err := c.Upload(context.Background(), filestore.Upload{Name: "cert.pdf", MimeType: "application/pdf", Data: []byte("%PDF")})
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if ref != (vault.Ref{FileID: "f1", NodeURL: "https://node-2.example"}) {
		t.Errorf("ref = %+v", ref)
	}
}

func TestUploadJSON(t *testing.T) {
	srv := fakeEndpoint(t, func(body map[string]any) any {
		if body["action"] != "saveJsonFile" || body["content"] != `{"description":"x"}` {
			t.Errorf("unexpected body %v", body)
		}
		return map[string]string{"status": "success", "fileId": "j1", "nodeUrl": "https://node-1.example"}
	})

	c := NewClient(srv.URL, time.Second)
	ref, err := c.Upload(context.Background(), filestore.Upload{Name: "log.json", MimeType: "application/json", Data: []byte(`{"description":"x"}`), Document: true})
	if err != nil || ref.FileID != "j1" {
		t.Fatalf("Upload = %+v, %v", ref, err)
	}
}

func TestUploadUserJSONIsAVaultFile(t *testing.T) {
	srv := fakeEndpoint(t, func(body map[string]any) any {
		if body["action"] != "vaultFileUpload" || body["mimeType"] != "application/json" {
			t.Errorf("unexpected body %v", body)
		}
		if _, ok := body["content"]; ok {
			t.Errorf("user file sent as a server document: %v", body)
		}
		return map[string]string{"status": "success", "fileId": "v1", "nodeUrl": "https://node-1.example"}
	})

	c := NewClient(srv.URL, time.Second)
	ref, err := c.Upload(context.Background(), filestore.Upload{Name: "export.json", MimeType: "application/json", Data: []byte(`{"k":1}`)})
	if err != nil || ref.FileID != "v1" {
		t.Fatalf("Upload = %+v, %v", ref, err)
	}
}

func TestUploadRejected(t *testing.T) {
	srv := fakeEndpoint(t, func(map[string]any) any {
		return map[string]string{"status": "error", "message": "quota"}
	})
	_, err := NewClient(srv.URL, time.Second).Upload(context.Background(), filestore.Upload{Name: "a"})
	if !errors.Is(err, ErrRejected) {
		t.Fatalf("expected ErrRejected, got %v", err)
	}
}

func TestFetchAndDeleteUseNodeURL(t *testing.T) {
	var actions []string
	node := fakeEndpoint(t, func(body map[string]any) any {
		actions = append(actions, body["action"].(string))
		switch body["action"] {
		case "getFileContent":
			return map[string]string{"status": "success", "content": `{"a":1}`}
		case "deleteRemoteFiles":
			ids := body["fileIds"].([]any)
			if len(ids) != 1 || ids[0] != "f1" {
				t.Errorf("fileIds = %v", ids)
			}
			return map[string]string{"status": "success"}
		}
		return map[string]string{"status": "error"}
	})

	// The main endpoint must never be hit for node-addressed calls.
	c := NewClient("https://main.invalid", time.Second)
	u, _ := url.Parse(node.URL)
	c.AllowNodeHosts(u.Hostname())
	ref := vault.Ref{FileID: "f1", NodeURL: node.URL}

	data, err := c.Fetch(context.Background(), ref)
	if err != nil || string(data) != `{"a":1}` {
		t.Fatalf("Fetch = %q, %v", data, err)
	}
	if err := c.Delete(context.Background(), ref); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if len(actions) != 2 {
		t.Errorf("actions = %v", actions)
	}
}

func TestRefValidation(t *testing.T) {
	c := NewClient("https://main.example", time.Second)
	c.AllowNodeHosts(" Node-2.Example ")
	tests := []struct {
		name string
		ref  vault.Ref
	}{
		{"empty", vault.Ref{}},
		{"no node", vault.Ref{FileID: "f"}},
		{"bad scheme", vault.Ref{FileID: "f", NodeURL: "file:///etc/passwd"}},
		{"unlisted host", vault.Ref{FileID: "f", NodeURL: "http://169.254.169.254/latest/meta-data"}},
		{"lookalike host", vault.Ref{FileID: "f", NodeURL: "https://node-2.example.attacker.test/exec"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := c.Delete(context.Background(), tt.ref); !errors.Is(err, domain.ErrValidation) {
				t.Errorf("expected ErrValidation, got %v", err)
			}
		})
	}
}

func TestAllowedNodeHosts(t *testing.T) {
	var hits int
	node := fakeEndpoint(t, func(map[string]any) any {
		hits++
		return map[string]string{"status": "success"}
	})
	u, _ := url.Parse(node.URL)

	// The main endpoint's host is always a valid node host.
	c := NewClient(node.URL+"/exec", time.Second)
	if err := c.Delete(context.Background(), vault.Ref{FileID: "f1", NodeURL: "http://" + u.Host + "/node-b"}); err != nil {
		t.Fatalf("Delete on main host: %v", err)
	}

	other := NewClient("https://main.example", time.Second)
	if err := other.Delete(context.Background(), vault.Ref{FileID: "f1", NodeURL: node.URL}); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation before allowing, got %v", err)
	}
	other.AllowNodeHosts(strings.ToUpper(u.Hostname()))
	if err := other.Delete(context.Background(), vault.Ref{FileID: "f1", NodeURL: node.URL}); err != nil {
		t.Fatalf("Delete after allowing: %v", err)
	}
	if hits != 2 {
		t.Errorf("node saw %d calls, want 2", hits)
	}
}

func TestUnconfiguredEndpoint(t *testing.T) {
	_, err := NewClient("", time.Second).Upload(context.Background(), filestore.Upload{Name: "a"})
	if !errors.Is(err, domain.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestHTTPFailureIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()
	_, err := NewClient(srv.URL, time.Second).Recommendations(context.Background(), nil, "t")
	if !errors.Is(err, domain.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestRecommendations(t *testing.T) {
	srv := fakeEndpoint(t, func(body map[string]any) any {
		if body["title"] != "Soil carbon" {
			t.Errorf("title = %v", body["title"])
		}
		if kw, ok := body["keywords"].([]any); !ok || len(kw) != 0 {
			t.Errorf("keywords should be an empty array, got %v", body["keywords"])
		}
		return map[string]any{"status": "success", "external": []string{"Paper A", "Paper B"}}
	})
	got, err := NewClient(srv.URL, time.Second).Recommendations(context.Background(), nil, "Soil carbon")
	if err != nil || len(got) != 2 {
		t.Fatalf("Recommendations = %v, %v", got, err)
	}
}

func TestTranslateBrainstorming(t *testing.T) {
	srv := fakeEndpoint(t, func(body map[string]any) any {
		if body["targetLang"] != "id" {
			t.Errorf("targetLang = %v", body["targetLang"])
		}
		return map[string]any{"status": "success", "data": map[string]string{"proposedTitle": "Judul"}}
	})
	item := &brainstorming.Item{ID: "b1", ProposedTitle: "Title"}
	got, err := NewClient(srv.URL, time.Second).TranslateBrainstorming(context.Background(), item, "id")
	if err != nil {
		t.Fatal(err)
	}
	if got.ProposedTitle != "Judul" {
		t.Errorf("ProposedTitle = %q", got.ProposedTitle)
	}
}

func TestAIProxyGenerator(t *testing.T) {
	srv := fakeEndpoint(t, func(body map[string]any) any {
		if body["action"] != "aiProxy" || body["provider"] != "gemini" || body["prompt"] != "hi" {
			t.Errorf("unexpected body %v", body)
		}
		return map[string]string{"status": "success", "data": " hello \n"}
	})
	got, err := NewClient(srv.URL, time.Second).Generator("gemini").Generate(context.Background(), "hi")
	if err != nil || got != "hello" {
		t.Fatalf("Generate = %q, %v", got, err)
	}
}
