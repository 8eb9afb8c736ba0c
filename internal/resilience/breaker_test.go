package resilience

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/xeenaps/pkm/internal/domain"
)

var errNode = errors.New("storage node unreachable")

// step is one call through the breaker: advance the clock, run a call that
// fails or succeeds, and check what came back.
type step struct {
	advance  time.Duration
	fail     bool
	wantOpen bool // call rejected with ErrCircuitOpen
	state    string
}

func TestBreakerSequences(t *testing.T) {
	tests := []struct {
		name  string
		max   int
		steps []step
	}{
		{"closed passes calls", 3, []step{
			{state: "closed"},
			{fail: true, state: "closed"},
		}},
		{"opens after max failures", 3, []step{
			{fail: true, state: "closed"},
			{fail: true, state: "closed"},
			{fail: true, state: "open"},
			{wantOpen: true, state: "open"},
		}},
		{"half-open trial success closes", 2, []step{
			{fail: true},
			{fail: true, state: "open"},
			{advance: 500 * time.Millisecond, wantOpen: true, state: "open"},
			{advance: time.Second, state: "closed"},
			{fail: true, state: "closed"},
		}},
		{"half-open trial failure reopens", 2, []step{
			{fail: true},
			{fail: true},
			{advance: 2 * time.Second, fail: true, state: "open"},
			{wantOpen: true, state: "open"},
		}},
		{"success resets the count", 3, []step{
			{fail: true},
			{fail: true},
			{},
			{fail: true},
			{fail: true, state: "closed"},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			now := time.Unix(0, 0)
			b := NewBreaker(tt.max, time.Second)
			b.now = func() time.Time { return now }

			for i, s := range tt.steps {
				now = now.Add(s.advance)
				called := false
				err := b.Execute(func() error {
					called = true
					if s.fail {
						return errNode
					}
					return nil
				})

				if s.wantOpen {
					if !errors.Is(err, ErrCircuitOpen) || called {
						t.Fatalf("step %d: err %v, called %v; want rejection", i, err, called)
					}
				} else if !called {
					t.Fatalf("step %d: call was rejected: %v", i, err)
				}
				if s.state != "" && b.State() != s.state {
					t.Fatalf("step %d: state %q, want %q", i, b.State(), s.state)
				}
			}
		})
	}
}

func TestCircuitOpenIsUnavailable(t *testing.T) {
	if !errors.Is(ErrCircuitOpen, domain.ErrUnavailable) {
		t.Fatal("ErrCircuitOpen should match domain.ErrUnavailable")
	}
}

func TestStateReporting(t *testing.T) {
	b := Named("gas", 1, time.Minute)
	if b.Name() != "gas" || b.State() != "closed" {
		t.Fatalf("got name %q state %q", b.Name(), b.State())
	}
	_ = b.Execute(func() error { return errNode })
	if b.State() != "open" {
		t.Errorf("expected open, got %q", b.State())
	}
}

func TestExecuteContextIgnoresCallerErrors(t *testing.T) {
	b := NewBreaker(1, time.Minute)

	err := b.ExecuteContext(context.Background(), func(context.Context) error {
		return fmt.Errorf("bad field: %w", domain.ErrValidation)
	})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if b.State() != "closed" {
		t.Errorf("validation error tripped the breaker")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_ = b.ExecuteContext(ctx, func(ctx context.Context) error { return ctx.Err() })
	if b.State() != "closed" {
		t.Errorf("cancellation tripped the breaker")
	}

	_ = b.ExecuteContext(context.Background(), func(context.Context) error { return errNode })
	if b.State() != "open" {
		t.Errorf("remote failure should trip the breaker, state %q", b.State())
	}
}
