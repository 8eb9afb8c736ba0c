package messagequeue

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Validate checks whether data is valid JSON conforming to the schema
// associated with the given subject. Unknown subjects only need valid JSON.
func Validate(subject string, data []byte) error {
	if !json.Valid(data) {
		return fmt.Errorf("invalid JSON on subject %s", subject)
	}
	if !strings.HasPrefix(subject, "xeenaps.events.") {
		return nil
	}

	var env EventEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return fmt.Errorf("schema validation failed for %s: %w", subject, err)
	}
	if env.Name == "" {
		return fmt.Errorf("schema validation failed for %s: missing event name", subject)
	}
	if want := strings.TrimPrefix(subject, "xeenaps.events."); env.Name != want {
		return fmt.Errorf("schema validation failed for %s: event name %q does not match subject", subject, env.Name)
	}
	return nil
}
