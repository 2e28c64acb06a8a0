package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
)

const githubOutputEnv = "GITHUB_OUTPUT"

type outputValue struct {
	key   string
	value string
}

// writeGitHubOutputs appends step outputs to $GITHUB_OUTPUT. It is a no-op
// outside GitHub Actions. Multi-line values use the heredoc delimiter form.
func writeGitHubOutputs(values ...outputValue) error {
	path := strings.TrimSpace(os.Getenv(githubOutputEnv))
	if path == "" || len(values) == 0 {
		return nil
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open %s: %w", githubOutputEnv, err)
	}
	defer f.Close()

	var b strings.Builder
	for _, v := range values {
		if strings.ContainsAny(v.value, "\r\n") {
			delimiter := "ghadelimiter_" + uuid.NewString()
			fmt.Fprintf(&b, "%s<<%s\n%s\n%s\n", v.key, delimiter, v.value, delimiter)
			continue
		}
		fmt.Fprintf(&b, "%s=%s\n", v.key, v.value)
	}
	if _, err := f.WriteString(b.String()); err != nil {
		return fmt.Errorf("write %s: %w", githubOutputEnv, err)
	}
	return nil
}
