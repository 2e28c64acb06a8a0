package trigger

import (
	"fmt"
	"slices"

	"loadgate/internal/config"
)

// ActionLabeled is the pull_request action emitted when a label is applied.
const ActionLabeled = "labeled"

// Rule describes when a pull request event should trigger the deployment.
type Rule struct {
	// Label is compared verbatim against label names.
	Label string
	// RecheckActions are actions that trigger when Label is already present.
	RecheckActions []string
}

// DefaultRule matches the "load test" label on labeled, reopened, and
// synchronize actions.
func DefaultRule() Rule {
	return Rule{
		Label:          "load test",
		RecheckActions: []string{"reopened", "synchronize"},
	}
}

// RuleFromConfig builds a Rule from the [trigger] config section.
func RuleFromConfig(cfg config.Trigger) Rule {
	return Rule{
		Label:          cfg.Label,
		RecheckActions: slices.Clone(cfg.Actions),
	}
}

// Decision is the outcome of evaluating a Rule against an Event.
type Decision struct {
	Triggered bool   `json:"triggered"`
	Action    string `json:"action"`
	Label     string `json:"label"`
	Reason    string `json:"reason"`
}

// Evaluate reports whether event satisfies rule. It has no side effects.
func Evaluate(rule Rule, event Event) Decision {
	decision := Decision{Action: event.Action, Label: rule.Label}

	switch {
	case event.Action == ActionLabeled:
		applied, ok := event.AppliedLabel()
		if !ok {
			decision.Reason = "labeled event carries no label"
			return decision
		}
		if applied != rule.Label {
			decision.Reason = fmt.Sprintf("applied label %q is not %q", applied, rule.Label)
			return decision
		}
		decision.Triggered = true
		decision.Reason = fmt.Sprintf("label %q applied", rule.Label)
		return decision

	case slices.Contains(rule.RecheckActions, event.Action):
		if !slices.Contains(event.LabelNames(), rule.Label) {
			decision.Reason = fmt.Sprintf("pull request does not carry %q", rule.Label)
			return decision
		}
		decision.Triggered = true
		decision.Reason = fmt.Sprintf("%s with %q present", event.Action, rule.Label)
		return decision

	default:
		decision.Reason = fmt.Sprintf("action %q does not trigger", event.Action)
		return decision
	}
}
