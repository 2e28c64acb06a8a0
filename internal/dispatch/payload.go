package dispatch

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"loadgate/internal/services"
)

// Payload is the repository_dispatch request body.
type Payload struct {
	EventType     string        `json:"event_type"`
	ClientPayload ClientPayload `json:"client_payload"`
}

// ClientPayload is the free-form object delivered to the receiving workflow.
type ClientPayload struct {
	Version string `json:"version"`
}

// ValidateVersion rejects versions that are empty or carry surrounding
// whitespace. The version is embedded in the body as given.
func ValidateVersion(version string) error {
	switch {
	case strings.TrimSpace(version) == "":
		return services.Wrap(services.ErrValidation, "dispatch", "send", "version is empty", nil)
	case strings.TrimSpace(version) != version:
		return services.Wrap(services.ErrValidation, "dispatch", "send", fmt.Sprintf("version %q has surrounding whitespace", version), nil)
	}
	return nil
}

// NewPayload builds the dispatch body for version.
func NewPayload(eventType, version string) Payload {
	return Payload{EventType: eventType, ClientPayload: ClientPayload{Version: version}}
}

// Encode renders the payload as compact JSON without HTML escaping or a
// trailing newline, so the bytes match a hand-written curl body.
func (p Payload) Encode() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(p); err != nil {
		return nil, fmt.Errorf("encode dispatch payload: %w", err)
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}
