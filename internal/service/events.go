package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	xotel "github.com/xeenaps/pkm/internal/adapter/otel"
	"github.com/xeenaps/pkm/internal/domain/event"
	"github.com/xeenaps/pkm/internal/logger"
	"github.com/xeenaps/pkm/internal/port/broadcast"
	"github.com/xeenaps/pkm/internal/port/messagequeue"
)

// EventService emits change notifications. With a connected queue events
// go through NATS and reach websocket clients via the relay, so every
// instance's clients see them; otherwise they go straight to the local hub.
type EventService struct {
	hub     broadcast.Broadcaster
	queue   messagequeue.Queue
	metrics *xotel.Metrics
}

// NewEventService creates an emitter broadcasting to hub.
func NewEventService(hub broadcast.Broadcaster) *EventService {
	return &EventService{hub: hub}
}

// SetQueue routes events through q.
func (s *EventService) SetQueue(q messagequeue.Queue) { s.queue = q }

// SetMetrics enables event counters.
func (s *EventService) SetMetrics(m *xotel.Metrics) { s.metrics = m }

// Emit publishes a typed event. Emission never fails the caller.
func (s *EventService) Emit(ctx context.Context, name event.Name, payload any) {
	if s == nil {
		return
	}
	s.metrics.RecordEvent(ctx, string(name))

	if s.queue != nil && s.queue.IsConnected() {
		err := s.publish(ctx, name, payload)
		if err == nil {
			return
		}
		slog.WarnContext(ctx, "event publish failed, broadcasting locally", "event", name, "error", err)
	}
	if s.hub != nil {
		s.hub.BroadcastEvent(ctx, string(name), payload)
	}
}

func (s *EventService) publish(ctx context.Context, name event.Name, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", name, err)
	}
	data, err := json.Marshal(messagequeue.EventEnvelope{
		Name:      string(name),
		Payload:   raw,
		RequestID: logger.RequestID(ctx),
		EmittedAt: time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("marshal %s envelope: %w", name, err)
	}
	return s.queue.Publish(ctx, name.Subject(), data)
}

// StartRelay forwards every queued event to the local hub. The returned
// function stops the relay.
func (s *EventService) StartRelay(ctx context.Context) (func(), error) {
	if s.queue == nil {
		return func() {}, nil
	}
	return s.queue.Subscribe(ctx, messagequeue.SubjectEvents, s.relay)
}

func (s *EventService) relay(ctx context.Context, subject string, data []byte) error {
	name, ok := event.FromSubject(subject)
	if !ok {
		return fmt.Errorf("unexpected subject %s", subject)
	}
	var env messagequeue.EventEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return fmt.Errorf("decode %s envelope: %w", name, err)
	}
	s.hub.BroadcastEvent(ctx, string(name), env.Payload)
	return nil
}
