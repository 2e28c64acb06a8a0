package publish

import (
	"log/slog"
	"time"

	"loadgate/internal/config"
)

// RequestFromConfig resolves the prefix and credential values from the
// [publish] section. Credential values fall back to their environment
// variables at call time.
func RequestFromConfig(cfg config.Publish) Request {
	creds := make([]Credential, 0, len(cfg.Credentials))
	for _, cred := range cfg.Credentials {
		creds = append(creds, Credential{Env: cred.Env, Value: cred.Resolve()})
	}
	return Request{Prefix: cfg.Prefix, Credentials: creds}
}

// NewFromConfig builds a CommandDelegate from the [publish] section.
func NewFromConfig(cfg config.Publish, logger *slog.Logger) (*CommandDelegate, error) {
	return NewCommandDelegate(cfg.Command,
		WithLogger(logger),
		WithTimeout(time.Duration(cfg.TimeoutSeconds)*time.Second),
		WithWorkDir(cfg.WorkDir),
	)
}
