package services_test

import (
	"errors"
	"strings"
	"testing"

	"loadgate/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrExternalTool, "publish", "run", "command failed", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"publish", "run", "command failed"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapDefaultsMarkerAndDetail(t *testing.T) {
	err := services.Wrap(nil, "", "", "", nil)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient marker by default, got %v", err)
	}
	if !strings.Contains(err.Error(), "service failure") {
		t.Fatalf("expected fallback detail, got %q", err.Error())
	}
}

func TestExitCodeMapping(t *testing.T) {
	if code := services.ExitCode(nil); code != 0 {
		t.Fatalf("expected 0 for nil error, got %d", code)
	}
	remote := services.Wrap(services.ErrRemote, "dispatch", "send", "status 422", nil)
	if code := services.ExitCode(remote); code != 1 {
		t.Fatalf("expected 1 for remote error, got %d", code)
	}
}

func TestHintFollowsMarker(t *testing.T) {
	cfgErr := services.Wrap(services.ErrConfiguration, "dispatch", "validate", "token missing", nil)
	if hint := services.Hint(cfgErr); !strings.Contains(hint, "config") {
		t.Fatalf("unexpected configuration hint %q", hint)
	}
	remote := services.Wrap(services.ErrRemote, "dispatch", "send", "status 404", nil)
	if hint := services.Hint(remote); !strings.Contains(hint, "token") {
		t.Fatalf("unexpected remote hint %q", hint)
	}
	if hint := services.Hint(nil); hint != "" {
		t.Fatalf("expected empty hint for nil, got %q", hint)
	}
}
