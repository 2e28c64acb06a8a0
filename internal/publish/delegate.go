package publish

import (
	"context"
	"fmt"
	"strings"

	"loadgate/internal/services"
)

// PrefixEnv is the environment variable carrying the naming prefix to the
// publish command.
const PrefixEnv = "LOADGATE_PREFIX"

// Credential is one secret handed to the publish procedure under Env.
type Credential struct {
	Env   string
	Value string
}

// Request is the input to a publish procedure.
type Request struct {
	Prefix      string
	Credentials []Credential
}

// Result is the output of a successful publish.
type Result struct {
	Version string `json:"version"`
}

// Delegate runs the container publish procedure. Failures are fatal to the
// pipeline; implementations never retry.
type Delegate interface {
	Publish(ctx context.Context, req Request) (Result, error)
}

// StaticDelegate reports a version produced elsewhere, such as by a publish
// job that ran earlier in the same CI workflow.
type StaticDelegate struct {
	Version string
}

// Publish returns the preconfigured version.
func (s StaticDelegate) Publish(_ context.Context, _ Request) (Result, error) {
	if strings.TrimSpace(s.Version) == "" {
		return Result{}, services.Wrap(services.ErrConfiguration, "publish", "static", "version is empty", nil)
	}
	if strings.TrimSpace(s.Version) != s.Version {
		return Result{}, services.Wrap(services.ErrConfiguration, "publish", "static", fmt.Sprintf("version %q has surrounding whitespace", s.Version), nil)
	}
	return Result{Version: s.Version}, nil
}
