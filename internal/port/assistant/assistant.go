// Package assistant defines the port for the research helpers hosted next to
// the legacy storage endpoint.
package assistant

import (
	"context"

	"github.com/xeenaps/pkm/internal/domain/brainstorming"
)

// Assistant finds external literature and translates whole ideas.
type Assistant interface {
	Recommendations(ctx context.Context, keywords []string, title string) ([]string, error)
	TranslateBrainstorming(ctx context.Context, item *brainstorming.Item, targetLang string) (*brainstorming.Item, error)
}
