package nats

import (
	"context"
	"encoding/json"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/xeenaps/pkm/internal/adapter/natskv"
	"github.com/xeenaps/pkm/internal/logger"
	"github.com/xeenaps/pkm/internal/port/cache/cachetest"
	"github.com/xeenaps/pkm/internal/port/messagequeue"
)

func testConnect(t *testing.T) *Queue {
	t.Helper()

	url := os.Getenv("NATS_URL")
	if url == "" {
		t.Skip("requires NATS_URL")
	}

	q, err := Connect(context.Background(), url, Options{Stream: "XEENAPS_TEST", MaxAge: time.Hour})
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	t.Cleanup(func() { _ = q.Close() })
	return q
}

// testEvent returns a unique event name and its subject so parallel runs
// do not see each other's messages.
func testEvent(t *testing.T) (name, subject string) {
	t.Helper()
	name = "xeenaps-test-" + strings.ToLower(strings.ReplaceAll(t.Name(), "/", "-"))
	return name, "xeenaps.events." + name
}

func envelope(t *testing.T, name string, payload any) []byte {
	t.Helper()
	raw, err := json.Marshal(payload)
	if err != nil {
		t.Fatal(err)
	}
	data, err := json.Marshal(messagequeue.EventEnvelope{Name: name, Payload: raw, EmittedAt: time.Now()})
	if err != nil {
		t.Fatal(err)
	}
	return data
}

func TestQueue_PublishSubscribe(t *testing.T) {
	q := testConnect(t)
	name, subject := testEvent(t)

	var (
		mu   sync.Mutex
		got  messagequeue.EventEnvelope
		done = make(chan struct{})
		once sync.Once
	)
	stop, err := q.Subscribe(context.Background(), subject, func(_ context.Context, _ string, d []byte) error {
		mu.Lock()
		defer mu.Unlock()
		if err := json.Unmarshal(d, &got); err != nil {
			return err
		}
		once.Do(func() { close(done) })
		return nil
	})
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	defer stop()

	if err := q.Publish(context.Background(), subject, envelope(t, name, map[string]string{"id": "n1"})); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for message")
	}
	mu.Lock()
	defer mu.Unlock()
	if got.Name != name || !strings.Contains(string(got.Payload), `"n1"`) {
		t.Errorf("unexpected envelope %+v", got)
	}
}

func TestQueue_RequestIDPropagation(t *testing.T) {
	q := testConnect(t)
	name, subject := testEvent(t)

	ids := make(chan string, 1)
	stop, err := q.Subscribe(context.Background(), subject, func(ctx context.Context, _ string, _ []byte) error {
		select {
		case ids <- logger.RequestID(ctx):
		default:
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	defer stop()

	ctx := logger.WithRequestID(context.Background(), "req-abc-123")
	if err := q.Publish(ctx, subject, envelope(t, name, struct{}{})); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	select {
	case id := <-ids:
		if id != "req-abc-123" {
			t.Errorf("request id = %q", id)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for message")
	}
}

func TestQueue_InvalidMessageNotDelivered(t *testing.T) {
	q := testConnect(t)
	name, subject := testEvent(t)

	calls := make(chan string, 4)
	stop, err := q.Subscribe(context.Background(), subject, func(_ context.Context, _ string, d []byte) error {
		calls <- string(d)
		return nil
	})
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	defer stop()

	ctx := context.Background()
	if err := q.Publish(ctx, subject, []byte("not-json")); err != nil {
		t.Fatal(err)
	}
	if err := q.Publish(ctx, subject, envelope(t, name, "ok")); err != nil {
		t.Fatal(err)
	}

	select {
	case d := <-calls:
		if d == "not-json" {
			t.Fatal("invalid payload reached the handler")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for valid message")
	}
}

func TestQueue_KeyValueCache(t *testing.T) {
	q := testConnect(t)
	c, err := natskv.Open(context.Background(), q.JetStream(), "xeenaps-test-cache", time.Minute)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	cachetest.Run(t, c)
}

func TestQueue_IsConnected(t *testing.T) {
	q := testConnect(t)
	if !q.IsConnected() {
		t.Error("IsConnected() = false after Connect")
	}
}
