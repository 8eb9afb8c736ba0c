package litellm_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/xeenaps/pkm/internal/adapter/litellm"
	"github.com/xeenaps/pkm/internal/domain"
	"github.com/xeenaps/pkm/internal/resilience"
)

func TestGenerate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" || r.Method != http.MethodPost {
			t.Fatalf("unexpected %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Fatalf("unexpected auth %q", got)
		}
		var req struct {
			Model    string `json:"model"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatal(err)
		}
		if req.Model != "gpt-4o-mini" || len(req.Messages) != 1 || req.Messages[0].Content != "hello" {
			t.Fatalf("unexpected request %+v", req)
		}
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"  hi there \n"}}]}`))
	}))
	defer srv.Close()

	c := litellm.NewClient(srv.URL+"/", "test-key", "gpt-4o-mini", time.Second)
	got, err := c.Generate(context.Background(), "hello")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if got != "hi there" {
		t.Errorf("got %q", got)
	}
}

func TestGenerateEmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	if _, err := litellm.NewClient(srv.URL, "", "m", time.Second).Generate(context.Background(), "x"); err == nil {
		t.Fatal("expected error for empty choices")
	}
}

func TestGenerateServerErrorIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := litellm.NewClient(srv.URL, "", "m", time.Second).Generate(context.Background(), "x")
	if !errors.Is(err, domain.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestGenerateClientErrorNotUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "bad model", http.StatusBadRequest)
	}))
	defer srv.Close()

	_, err := litellm.NewClient(srv.URL, "", "m", time.Second).Generate(context.Background(), "x")
	if err == nil || errors.Is(err, domain.ErrUnavailable) {
		t.Fatalf("expected plain error, got %v", err)
	}
}

func TestBreakerOpensAfterFailures(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := litellm.NewClient(srv.URL, "", "m", time.Second)
	c.SetBreaker(resilience.NewBreaker(2, time.Minute))
	for range 3 {
		_, _ = c.Generate(context.Background(), "x")
	}
	if calls != 2 {
		t.Errorf("expected breaker to stop calls after 2 failures, got %d", calls)
	}
	_, err := c.Generate(context.Background(), "x")
	if !errors.Is(err, resilience.ErrCircuitOpen) {
		t.Errorf("expected ErrCircuitOpen, got %v", err)
	}
}

func TestListModelsAndHealth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/model/info":
			_, _ = w.Write([]byte(`{"data":[{"model_name":"gpt-4o"},{"model_name":"gemini-2.5-flash"}]}`))
		case "/health/liveliness":
			_, _ = w.Write([]byte(`"I'm alive!"`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := litellm.NewClient(srv.URL, "", "m", time.Second)
	models, err := c.ListModels(context.Background())
	if err != nil || len(models) != 2 || models[0].ModelName != "gpt-4o" {
		t.Fatalf("ListModels = %+v, %v", models, err)
	}
	if err := c.Health(context.Background()); err != nil {
		t.Errorf("Health: %v", err)
	}
}
