package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/xeenaps/pkm/internal/domain"
	"github.com/xeenaps/pkm/internal/domain/brainstorming"
	"github.com/xeenaps/pkm/internal/domain/copilot"
	"github.com/xeenaps/pkm/internal/domain/event"
	"github.com/xeenaps/pkm/internal/domain/library"
	"github.com/xeenaps/pkm/internal/domain/pagination"
	"github.com/xeenaps/pkm/internal/domain/tracer"
	"github.com/xeenaps/pkm/internal/port/assistant"
	"github.com/xeenaps/pkm/internal/port/database"
)

// internalRecommendationLimit caps library matches per idea.
const internalRecommendationLimit = 10

// BrainstormingService manages research ideas and the AI tools around them.
type BrainstormingService struct {
	store     database.Store
	copilot   *Copilot
	assistant assistant.Assistant
	events    *EventService
}

// NewBrainstormingService creates a BrainstormingService. assistant may be
// nil, in which case external recommendations are always empty.
func NewBrainstormingService(store database.Store, cp *Copilot, asst assistant.Assistant, events *EventService) *BrainstormingService {
	return &BrainstormingService{store: store, copilot: cp, assistant: asst, events: events}
}

func (s *BrainstormingService) List(ctx context.Context, q brainstorming.ListQuery) (pagination.Page[brainstorming.Item], error) {
	q.Query = q.Query.Normalize()
	return s.store.ListBrainstorming(ctx, q)
}

func (s *BrainstormingService) Get(ctx context.Context, id string) (*brainstorming.Item, error) {
	return s.store.GetBrainstorming(ctx, id)
}

func (s *BrainstormingService) Save(ctx context.Context, it *brainstorming.Item) error {
	if it.ID == "" {
		it.ID = uuid.NewString()
	}
	it.Normalize()
	s.events.Emit(ctx, event.BrainstormingUpdated, it)
	if err := s.store.UpsertBrainstorming(ctx, it); err != nil {
		return fmt.Errorf("save brainstorming %s: %w", it.ID, err)
	}
	return nil
}

func (s *BrainstormingService) Delete(ctx context.Context, id string) error {
	s.events.Emit(ctx, event.BrainstormingDeleted, event.Deleted{ID: id})
	return s.store.DeleteBrainstorming(ctx, id)
}

// TranslateField translates a single field value.
func (s *BrainstormingService) TranslateField(ctx context.Context, text, lang string) (string, error) {
	return s.copilot.Translate(ctx, text, lang)
}

// RefineField rewrites or expands one field using the rest of the idea as
// context.
func (s *BrainstormingService) RefineField(ctx context.Context, field, current string, it *brainstorming.Item, mode string) (string, error) {
	m, err := parseMode(mode)
	if err != nil {
		return "", err
	}
	if _, ok := it.Field(field); !ok {
		return "", fmt.Errorf("%w: unknown field %q", domain.ErrValidation, field)
	}
	return s.copilot.Generate(ctx, copilot.RefineBrainstormingPrompt(field, current, it, m))
}

// Synthesize expands a rough idea into a structured proposal.
func (s *BrainstormingService) Synthesize(ctx context.Context, roughIdea string) (*brainstorming.SynthesisResult, error) {
	if strings.TrimSpace(roughIdea) == "" {
		return nil, fmt.Errorf("%w: roughIdea is required", domain.ErrValidation)
	}
	r, err := decode[brainstorming.SynthesisResult](ctx, s.copilot, copilot.SynthesisPrompt(roughIdea))
	if err != nil {
		return nil, err
	}
	if r.Keywords == nil {
		r.Keywords = []string{}
	}
	if r.Pillars == nil {
		r.Pillars = []string{}
	}
	return &r, nil
}

// GenerateAbstract drafts an abstract from the structured fields.
func (s *BrainstormingService) GenerateAbstract(ctx context.Context, it *brainstorming.Item) (string, error) {
	if it.ProposedTitle == "" && it.ProblemStatement == "" {
		return "", fmt.Errorf("%w: proposedTitle or problemStatement is required", domain.ErrValidation)
	}
	return s.copilot.Generate(ctx, copilot.AbstractPrompt(it))
}

// ExternalRecommendations asks the assistant for outside literature. Any
// failure yields an empty list.
func (s *BrainstormingService) ExternalRecommendations(ctx context.Context, it *brainstorming.Item) []string {
	if s.assistant == nil {
		return []string{}
	}
	refs, err := s.assistant.Recommendations(ctx, it.Keywords, it.ProposedTitle)
	if err != nil {
		slog.WarnContext(ctx, "external recommendations failed", "id", it.ID, "error", err)
		return []string{}
	}
	if refs == nil {
		refs = []string{}
	}
	return refs
}

// InternalRecommendations searches the literature collection for the
// primary keyword, or the proposed title when there are no keywords. A failed
// search yields an empty list.
func (s *BrainstormingService) InternalRecommendations(ctx context.Context, it *brainstorming.Item) ([]library.Item, error) {
	term := it.PrimaryKeyword()
	if term == "" {
		term = it.ProposedTitle
	}
	if strings.TrimSpace(term) == "" {
		return []library.Item{}, nil
	}
	page, err := s.store.ListLibrary(ctx, library.ListQuery{
		Query:  pagination.Query{Page: 1, Limit: internalRecommendationLimit},
		Search: term,
		Type:   library.TypeLiterature,
	})
	if err != nil {
		slog.WarnContext(ctx, "internal recommendations failed", "item_id", it.ID, "error", err)
		return []library.Item{}, nil
	}
	out := make([]library.Item, 0, len(page.Items))
	for _, li := range page.Items {
		title := strings.TrimSpace(li.Title)
		if title == "" || strings.EqualFold(title, "untitled") || li.ID == it.ID {
			continue
		}
		out = append(out, li)
	}
	return out, nil
}

// TranslateAll translates every text field of the idea and returns the
// merged result. Identity, flags and references are kept from it.
func (s *BrainstormingService) TranslateAll(ctx context.Context, it *brainstorming.Item, lang string) (*brainstorming.Item, error) {
	l, err := copilot.LookupLanguage(lang)
	if err != nil {
		return nil, err
	}
	if s.assistant == nil {
		return nil, fmt.Errorf("%w: translation assistant not configured", domain.ErrUnavailable)
	}
	tr, err := s.assistant.TranslateBrainstorming(ctx, it, l.Code)
	if err != nil {
		return nil, fmt.Errorf("translate brainstorming %s: %w", it.ID, err)
	}

	merged := *it
	for _, key := range brainstorming.TextFields {
		if v, _ := tr.Field(key); v != "" {
			merged.SetField(key, v)
		}
	}
	if len(tr.Keywords) > 0 {
		merged.Keywords = tr.Keywords
	}
	if len(tr.Pillars) > 0 {
		merged.Pillars = tr.Pillars
	}
	merged.Normalize()
	return &merged, nil
}

// ExportFieldToTracer copies a brainstorming field into the matching field
// of a tracer project.
func (s *BrainstormingService) ExportFieldToTracer(ctx context.Context, projectID, field, value string) (*tracer.Project, error) {
	key, ok := brainstorming.TracerFieldFor(field)
	if !ok {
		return nil, fmt.Errorf("%w: field %q has no tracer counterpart", domain.ErrValidation, field)
	}
	p, err := s.store.GetTracerProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	p.SetField(key, value)
	s.events.Emit(ctx, event.TracerUpdated, p)
	if err := s.store.UpsertTracerProject(ctx, p); err != nil {
		return nil, fmt.Errorf("export %s to tracer %s: %w", field, projectID, err)
	}
	return p, nil
}
