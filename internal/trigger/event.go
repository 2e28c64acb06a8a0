package trigger

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"loadgate/internal/services"
)

// EventPathEnv names the environment variable GitHub Actions uses for the
// webhook payload file.
const EventPathEnv = "GITHUB_EVENT_PATH"

// Label is a pull request label as it appears in webhook payloads.
type Label struct {
	Name string `json:"name"`
}

// PullRequest carries the pull request fields the evaluator reads.
type PullRequest struct {
	Number int     `json:"number"`
	Labels []Label `json:"labels"`
}

// Event is the subset of a pull_request webhook payload used for gating.
// Label is only present on labeled and unlabeled actions.
type Event struct {
	Action      string      `json:"action"`
	Label       *Label      `json:"label,omitempty"`
	PullRequest PullRequest `json:"pull_request"`
}

// LabelNames returns the names of all labels currently on the pull request.
func (e Event) LabelNames() []string {
	names := make([]string, 0, len(e.PullRequest.Labels))
	for _, label := range e.PullRequest.Labels {
		names = append(names, label.Name)
	}
	return names
}

// AppliedLabel returns the label attached by a labeled action, if any.
func (e Event) AppliedLabel() (string, bool) {
	if e.Label == nil {
		return "", false
	}
	return e.Label.Name, true
}

// DecodeEvent parses a webhook payload. Unknown fields are ignored.
func DecodeEvent(r io.Reader) (Event, error) {
	var event Event
	if err := json.NewDecoder(r).Decode(&event); err != nil {
		return Event{}, services.Wrap(services.ErrValidation, "trigger", "decode event", "malformed event payload", err)
	}
	if strings.TrimSpace(event.Action) == "" {
		return Event{}, services.Wrap(services.ErrValidation, "trigger", "decode event", "event payload has no action", nil)
	}
	return event, nil
}

// LoadEvent reads the payload at path, falling back to $GITHUB_EVENT_PATH when
// path is empty.
func LoadEvent(path string) (Event, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		path = strings.TrimSpace(os.Getenv(EventPathEnv))
	}
	if path == "" {
		return Event{}, services.Wrap(services.ErrConfiguration, "trigger", "load event", "no event path given and "+EventPathEnv+" is unset", nil)
	}
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Event{}, services.Wrap(services.ErrConfiguration, "trigger", "load event", fmt.Sprintf("event file %s not found", path), err)
		}
		return Event{}, fmt.Errorf("open event file: %w", err)
	}
	defer file.Close()
	return DecodeEvent(file)
}
