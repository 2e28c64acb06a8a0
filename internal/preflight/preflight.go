package preflight

import (
	"context"
	"net/http"

	"loadgate/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail"`
}

// Options controls which checks RunAll performs.
type Options struct {
	// Online adds a request against the dispatch repository to verify the
	// token. Offline checks never touch the network.
	Online bool
	// HTTPClient overrides the client used by online checks.
	HTTPClient *http.Client
}

// RunAll executes the preflight checks for a full run against cfg.
func RunAll(ctx context.Context, cfg *config.Config, opts Options) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result

	results = append(results, CheckPublishCommand(cfg.Publish.Command))
	if cfg.Publish.WorkDir != "" {
		results = append(results, CheckDirectoryAccess("Publish work dir", cfg.Publish.WorkDir))
	}
	results = append(results, CheckCredentials(cfg.Publish.Credentials)...)
	results = append(results, CheckDispatchToken(cfg.Dispatch))

	if opts.Online && cfg.Dispatch.Token != "" {
		results = append(results, CheckDispatchAccess(ctx, cfg.Dispatch, opts.HTTPClient))
	}

	return results
}

// Failed reports whether any result did not pass.
func Failed(results []Result) bool {
	for _, r := range results {
		if !r.Passed {
			return true
		}
	}
	return false
}
