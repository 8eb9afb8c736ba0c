package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/xeenaps/pkm/internal/domain"
)

func TestCopilotGenerateTrimsReply(t *testing.T) {
	gen := &fakeGenerator{replies: []string{"\n  draft abstract \n"}}
	c := NewCopilot(gen, "gemini", "test-model")

	got, err := c.Generate(context.Background(), "write")
	if err != nil {
		t.Fatal(err)
	}
	if got != "draft abstract" {
		t.Errorf("Generate = %q", got)
	}
}

func TestCopilotWithoutGenerator(t *testing.T) {
	var nilCopilot *Copilot
	for name, c := range map[string]*Copilot{
		"nil copilot":   nilCopilot,
		"nil generator": NewCopilot(nil, "", ""),
	} {
		t.Run(name, func(t *testing.T) {
			if _, err := c.Generate(context.Background(), "x"); !errors.Is(err, domain.ErrUnavailable) {
				t.Errorf("err = %v, want ErrUnavailable", err)
			}
		})
	}
}

func TestCopilotTranslate(t *testing.T) {
	tests := []struct {
		name       string
		text, lang string
		want       string
		wantErr    error
		wantPrompt string
	}{
		{name: "by code", text: "Halo dunia", lang: "en", want: "Hello world", wantPrompt: "English"},
		{name: "by label", text: "Hello", lang: "indonesian", want: "Hello world", wantPrompt: "Indonesian"},
		{name: "blank text", text: "  ", lang: "en", want: "  "},
		{name: "unknown language", text: "Hello", lang: "klingon", wantErr: domain.ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := &fakeGenerator{replies: []string{"Hello world"}}
			c := NewCopilot(gen, "gemini", "m")

			got, err := c.Translate(context.Background(), tt.text, tt.lang)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("Translate = %q, want %q", got, tt.want)
			}
			if tt.wantPrompt == "" {
				if len(gen.prompts) != 0 {
					t.Errorf("blank text reached the generator")
				}
				return
			}
			if len(gen.prompts) != 1 || !strings.Contains(gen.prompts[0], tt.wantPrompt) || !strings.Contains(gen.prompts[0], tt.text) {
				t.Errorf("prompt = %q", gen.prompts)
			}
		})
	}
}

func TestDecodeReportsUnusableReply(t *testing.T) {
	type idea struct {
		Title string `json:"title"`
	}
	c := NewCopilot(&fakeGenerator{replies: []string{"sorry, no JSON today", "```json\n{\"title\":\"Soil carbon\"}\n```"}}, "gemini", "m")

	if _, err := decode[idea](context.Background(), c, "p"); !errors.Is(err, domain.ErrUnavailable) {
		t.Fatalf("err = %v, want ErrUnavailable", err)
	}
	got, err := decode[idea](context.Background(), c, "p")
	if err != nil || got.Title != "Soil carbon" {
		t.Fatalf("decode = %+v, %v", got, err)
	}
}

func TestParseMode(t *testing.T) {
	if m, err := parseMode("EXPAND"); err != nil || m != "EXPAND" {
		t.Errorf("parseMode(EXPAND) = %q, %v", m, err)
	}
	if _, err := parseMode("summarize"); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("err = %v", err)
	}
}
