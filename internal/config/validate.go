package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Validate ensures the configuration is usable. Secrets are not required here
// so that commands which never touch the network can run without them.
func (c *Config) Validate() error {
	if err := c.validateTrigger(); err != nil {
		return err
	}
	if err := c.validatePublish(); err != nil {
		return err
	}
	if err := c.validateDispatch(); err != nil {
		return err
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateTrigger() error {
	if strings.TrimSpace(c.Trigger.Label) == "" {
		return errors.New("trigger.label must be set")
	}
	for _, action := range c.Trigger.Actions {
		if action == "labeled" {
			return errors.New("trigger.actions must not include labeled; labeled events always match on the applied label")
		}
	}
	return nil
}

func (c *Config) validatePublish() error {
	if c.Publish.TimeoutSeconds < 0 {
		return errors.New("publish.timeout_seconds must be >= 0")
	}
	if len(c.Publish.Credentials) != 2 {
		return fmt.Errorf("publish.credentials must list exactly two entries, got %d", len(c.Publish.Credentials))
	}
	for i, cred := range c.Publish.Credentials {
		if cred.Env == "" {
			return fmt.Errorf("publish.credentials[%d].env must be set", i)
		}
		if strings.ContainsAny(cred.Env, "= ") {
			return fmt.Errorf("publish.credentials[%d].env %q is not a valid environment variable name", i, cred.Env)
		}
	}
	if c.Publish.Credentials[0].Env == c.Publish.Credentials[1].Env {
		return errors.New("publish.credentials must use distinct env names")
	}
	return nil
}

func (c *Config) validateDispatch() error {
	parsed, err := url.Parse(c.Dispatch.APIBaseURL)
	if err != nil {
		return fmt.Errorf("dispatch.api_base_url: %w", err)
	}
	if parsed.Scheme != "https" && parsed.Scheme != "http" {
		return fmt.Errorf("dispatch.api_base_url must use http or https, got %q", c.Dispatch.APIBaseURL)
	}
	if parsed.Host == "" {
		return fmt.Errorf("dispatch.api_base_url must include a host, got %q", c.Dispatch.APIBaseURL)
	}
	if _, _, err := c.Dispatch.RepositoryParts(); err != nil {
		return err
	}
	if c.Dispatch.RequestTimeout < 0 {
		return errors.New("dispatch.request_timeout must be >= 0")
	}
	return nil
}

func (c *Config) validateNotifications() error {
	if c.Notifications.RequestTimeout < 0 {
		return errors.New("notifications.request_timeout must be >= 0")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	return nil
}
