package messagequeue

import (
	"strings"
	"testing"
)

func TestValidateEventEnvelope(t *testing.T) {
	data := []byte(`{"name":"xeenaps-note-updated","payload":{"id":"n1"},"emitted_at":"2024-01-01T00:00:00Z"}`)
	if err := Validate("xeenaps.events.xeenaps-note-updated", data); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateInvalidJSON(t *testing.T) {
	err := Validate("xeenaps.events.xeenaps-note-updated", []byte(`{broken`))
	if err == nil || !strings.Contains(err.Error(), "invalid JSON") {
		t.Fatalf("expected invalid JSON error, got %v", err)
	}
}

func TestValidateMissingName(t *testing.T) {
	err := Validate("xeenaps.events.xeenaps-note-updated", []byte(`{"payload":{}}`))
	if err == nil || !strings.Contains(err.Error(), "missing event name") {
		t.Fatalf("expected missing name error, got %v", err)
	}
}

func TestValidateNameMismatch(t *testing.T) {
	err := Validate("xeenaps.events.xeenaps-note-updated", []byte(`{"name":"xeenaps-note-deleted"}`))
	if err == nil || !strings.Contains(err.Error(), "does not match") {
		t.Fatalf("expected mismatch error, got %v", err)
	}
}

func TestValidateUnknownSubject(t *testing.T) {
	if err := Validate("other.subject", []byte(`{"anything":true}`)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
