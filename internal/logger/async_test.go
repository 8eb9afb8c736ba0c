package logger

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"
)

type sink struct {
	mu    sync.Mutex
	msgs  []string
	attrs []slog.Attr
	pause chan struct{}
}

func (s *sink) Enabled(context.Context, slog.Level) bool { return true }

func (s *sink) Handle(_ context.Context, rec slog.Record) error { //nolint:gocritic // slog.Handler interface requires value receiver
	if s.pause != nil {
		<-s.pause
	}
	s.mu.Lock()
	s.msgs = append(s.msgs, rec.Message)
	s.mu.Unlock()
	return nil
}

func (s *sink) WithAttrs(attrs []slog.Attr) slog.Handler {
	s.mu.Lock()
	s.attrs = append(s.attrs, attrs...)
	s.mu.Unlock()
	return s
}

func (s *sink) WithGroup(string) slog.Handler { return s }

func (s *sink) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.msgs)
}

func record(msg string) slog.Record {
	return slog.NewRecord(time.Now(), slog.LevelInfo, msg, 0)
}

func TestAsyncHandlerDeliversAfterClose(t *testing.T) {
	tests := []struct {
		name    string
		buffer  int
		workers int
		writers int
		each    int
	}{
		{"single record", 4, 1, 1, 1},
		{"queued backlog", 500, 2, 1, 300},
		{"parallel writers", 5000, 4, 25, 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &sink{}
			h := NewAsyncHandler(s, tt.buffer, tt.workers)

			var wg sync.WaitGroup
			for range tt.writers {
				wg.Add(1)
				go func() {
					defer wg.Done()
					for range tt.each {
						_ = h.Handle(context.Background(), record("note saved"))
					}
				}()
			}
			wg.Wait()
			h.Close()

			if got, want := s.len(), tt.writers*tt.each; got != want {
				t.Errorf("delivered %d records, want %d", got, want)
			}
			if h.DroppedCount() != 0 {
				t.Errorf("dropped %d", h.DroppedCount())
			}
		})
	}
}

func TestAsyncHandlerDropsWhenFull(t *testing.T) {
	s := &sink{pause: make(chan struct{})}
	h := NewAsyncHandler(s, 2, 1)

	for range 20 {
		_ = h.Handle(context.Background(), record("audit progress"))
	}
	close(s.pause)
	h.Close()

	// At most one record held by the worker plus the buffer survives.
	dropped, delivered := h.DroppedCount(), s.len()
	if dropped < 17 {
		t.Errorf("dropped = %d, want at least 17", dropped)
	}
	if int(dropped)+delivered != 20 {
		t.Errorf("dropped %d + delivered %d != 20", dropped, delivered)
	}
}

func TestAsyncHandlerDerivedSharesQueue(t *testing.T) {
	s := &sink{}
	h := NewAsyncHandler(s, 10, 1)
	child := h.WithAttrs([]slog.Attr{slog.String("module", "tracer")}).WithGroup("g")

	_ = child.Handle(context.Background(), record("child"))
	h.Close()
	h.Close()

	if s.len() != 1 {
		t.Errorf("delivered = %d", s.len())
	}
	if len(s.attrs) != 1 || s.attrs[0].Key != "module" {
		t.Errorf("attrs = %v", s.attrs)
	}
}
