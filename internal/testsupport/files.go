package testsupport

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

// WriteEvent writes a pull_request webhook payload into dir and returns its
// path. applied is the label carried by a labeled action and may be empty.
func WriteEvent(t testing.TB, dir, action, applied string, labels ...string) string {
	t.Helper()

	labelObjs := make([]map[string]any, 0, len(labels))
	for i, name := range labels {
		labelObjs = append(labelObjs, map[string]any{"id": i + 1, "name": name})
	}
	payload := map[string]any{
		"action": action,
		"number": 7,
		"pull_request": map[string]any{
			"number": 7,
			"labels": labelObjs,
		},
	}
	if applied != "" {
		payload["label"] = map[string]any{"name": applied}
	}

	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal event: %v", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir for event: %v", err)
	}
	path := filepath.Join(dir, "event.json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write event: %v", err)
	}
	return path
}
