package trigger_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"loadgate/internal/config"
	"loadgate/internal/services"
	"loadgate/internal/trigger"
)

func labels(names ...string) []trigger.Label {
	out := make([]trigger.Label, 0, len(names))
	for _, name := range names {
		out = append(out, trigger.Label{Name: name})
	}
	return out
}

func TestEvaluate(t *testing.T) {
	rule := trigger.DefaultRule()
	tests := []struct {
		name  string
		event trigger.Event
		want  bool
	}{
		{
			name:  "labeled with target",
			event: trigger.Event{Action: "labeled", Label: &trigger.Label{Name: "load test"}},
			want:  true,
		},
		{
			name:  "labeled with other label",
			event: trigger.Event{Action: "labeled", Label: &trigger.Label{Name: "bug"}},
			want:  false,
		},
		{
			name: "labeled with other label while target present",
			event: trigger.Event{
				Action:      "labeled",
				Label:       &trigger.Label{Name: "bug"},
				PullRequest: trigger.PullRequest{Labels: labels("load test", "bug")},
			},
			want: false,
		},
		{
			name:  "labeled without label field",
			event: trigger.Event{Action: "labeled"},
			want:  false,
		},
		{
			name:  "label comparison is case sensitive",
			event: trigger.Event{Action: "labeled", Label: &trigger.Label{Name: "Load Test"}},
			want:  false,
		},
		{
			name:  "label comparison does not trim",
			event: trigger.Event{Action: "labeled", Label: &trigger.Label{Name: "load test "}},
			want:  false,
		},
		{
			name:  "reopened with target present",
			event: trigger.Event{Action: "reopened", PullRequest: trigger.PullRequest{Labels: labels("load test")}},
			want:  true,
		},
		{
			name:  "synchronize with target present",
			event: trigger.Event{Action: "synchronize", PullRequest: trigger.PullRequest{Labels: labels("ci", "load test")}},
			want:  true,
		},
		{
			name:  "synchronize without target",
			event: trigger.Event{Action: "synchronize", PullRequest: trigger.PullRequest{Labels: labels("ci")}},
			want:  false,
		},
		{
			name:  "reopened with no labels",
			event: trigger.Event{Action: "reopened"},
			want:  false,
		},
		{
			name:  "opened with target present",
			event: trigger.Event{Action: "opened", PullRequest: trigger.PullRequest{Labels: labels("load test")}},
			want:  false,
		},
		{
			name:  "unlabeled target",
			event: trigger.Event{Action: "unlabeled", Label: &trigger.Label{Name: "load test"}},
			want:  false,
		},
		{
			name:  "closed with target present",
			event: trigger.Event{Action: "closed", PullRequest: trigger.PullRequest{Labels: labels("load test")}},
			want:  false,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			decision := trigger.Evaluate(rule, tc.event)
			if decision.Triggered != tc.want {
				t.Fatalf("Evaluate() = %v (%s), want %v", decision.Triggered, decision.Reason, tc.want)
			}
			if decision.Reason == "" {
				t.Fatal("expected a reason")
			}
			if decision.Action != tc.event.Action {
				t.Fatalf("expected action %q echoed, got %q", tc.event.Action, decision.Action)
			}
		})
	}
}

func TestEvaluateIsPure(t *testing.T) {
	event := trigger.Event{Action: "synchronize", PullRequest: trigger.PullRequest{Labels: labels("load test")}}
	rule := trigger.DefaultRule()
	first := trigger.Evaluate(rule, event)
	second := trigger.Evaluate(rule, event)
	if first != second {
		t.Fatalf("expected identical decisions, got %+v and %+v", first, second)
	}
	if len(event.PullRequest.Labels) != 1 || event.PullRequest.Labels[0].Name != "load test" {
		t.Fatalf("event mutated: %+v", event)
	}
}

func TestRuleFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Trigger.Label = "perf"
	cfg.Trigger.Actions = []string{"ready_for_review"}
	rule := trigger.RuleFromConfig(cfg.Trigger)

	ready := trigger.Event{Action: "ready_for_review", PullRequest: trigger.PullRequest{Labels: labels("perf")}}
	if !trigger.Evaluate(rule, ready).Triggered {
		t.Fatal("expected configured action to trigger")
	}
	sync := trigger.Event{Action: "synchronize", PullRequest: trigger.PullRequest{Labels: labels("perf")}}
	if trigger.Evaluate(rule, sync).Triggered {
		t.Fatal("expected synchronize to be dropped from configured rule")
	}

	cfg.Trigger.Actions[0] = "mutated"
	if rule.RecheckActions[0] != "ready_for_review" {
		t.Fatal("expected rule to own its action slice")
	}
}

func TestLoadEventFromFixtures(t *testing.T) {
	labeled, err := trigger.LoadEvent(filepath.Join("testdata", "labeled.json"))
	if err != nil {
		t.Fatalf("LoadEvent labeled: %v", err)
	}
	if labeled.PullRequest.Number != 4821 {
		t.Fatalf("unexpected PR number %d", labeled.PullRequest.Number)
	}
	if name, ok := labeled.AppliedLabel(); !ok || name != "load test" {
		t.Fatalf("unexpected applied label %q ok=%v", name, ok)
	}
	if !trigger.Evaluate(trigger.DefaultRule(), labeled).Triggered {
		t.Fatal("expected labeled fixture to trigger")
	}

	t.Setenv(trigger.EventPathEnv, filepath.Join("testdata", "synchronize.json"))
	sync, err := trigger.LoadEvent("")
	if err != nil {
		t.Fatalf("LoadEvent from env: %v", err)
	}
	if sync.Label != nil {
		t.Fatalf("expected no label on synchronize, got %+v", sync.Label)
	}
	if !trigger.Evaluate(trigger.DefaultRule(), sync).Triggered {
		t.Fatal("expected synchronize fixture to trigger")
	}
}

func TestLoadEventErrors(t *testing.T) {
	t.Setenv(trigger.EventPathEnv, "")
	if _, err := trigger.LoadEvent(""); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error without path, got %v", err)
	}

	missing := filepath.Join(t.TempDir(), "missing.json")
	if _, err := trigger.LoadEvent(missing); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error for missing file, got %v", err)
	}

	bad := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(bad, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write bad payload: %v", err)
	}
	if _, err := trigger.LoadEvent(bad); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error for malformed payload, got %v", err)
	}
}

func TestDecodeEventRequiresAction(t *testing.T) {
	_, err := trigger.DecodeEvent(strings.NewReader(`{"pull_request":{"number":1}}`))
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
