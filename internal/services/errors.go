package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrExternalTool  = errors.New("external tool error")
	ErrValidation    = errors.New("validation error")
	ErrConfiguration = errors.New("configuration error")
	ErrRemote        = errors.New("remote rejected request")
	ErrTimeout       = errors.New("timeout")
	ErrTransient     = errors.New("transient failure")
)

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later classification. The marker should be one of the
// exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// ExitCode maps a pipeline error to the process exit status. Any failure is
// fatal to the CI step, so every non-nil error maps to 1.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	return 1
}

// Hint returns a short operator-facing hint for the error's marker.
func Hint(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrConfiguration):
		return "check loadgate config and environment secrets"
	case errors.Is(err, ErrValidation):
		return "check the event payload passed to loadgate"
	case errors.Is(err, ErrExternalTool):
		return "inspect publish command output above"
	case errors.Is(err, ErrTimeout):
		return "raise publish.timeout_seconds or dispatch.request_timeout"
	case errors.Is(err, ErrRemote):
		return "verify the dispatch token has repo scope on the target repository"
	default:
		return "check network access to the dispatch endpoint"
	}
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
