package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	c.normalizeTrigger()
	if err := c.normalizePublish(); err != nil {
		return err
	}
	c.normalizeDispatch()
	c.normalizeNotifications()
	c.normalizeLogging()
	c.Telemetry.ServiceName = strings.TrimSpace(c.Telemetry.ServiceName)
	if c.Telemetry.ServiceName == "" {
		c.Telemetry.ServiceName = defaultServiceName
	}
	return nil
}

// The label itself is not trimmed: GitHub label names are compared verbatim.
func (c *Config) normalizeTrigger() {
	if c.Trigger.Label == "" {
		c.Trigger.Label = defaultTriggerLabel
	}
	if len(c.Trigger.Actions) == 0 {
		c.Trigger.Actions = defaultTriggerActions()
		return
	}
	actions := make([]string, 0, len(c.Trigger.Actions))
	seen := make(map[string]struct{}, len(c.Trigger.Actions))
	for _, action := range c.Trigger.Actions {
		normalized := strings.ToLower(strings.TrimSpace(action))
		if normalized == "" {
			continue
		}
		if _, exists := seen[normalized]; exists {
			continue
		}
		seen[normalized] = struct{}{}
		actions = append(actions, normalized)
	}
	if len(actions) == 0 {
		actions = defaultTriggerActions()
	}
	c.Trigger.Actions = actions
}

func (c *Config) normalizePublish() error {
	c.Publish.Prefix = strings.TrimSpace(c.Publish.Prefix)
	command := make([]string, 0, len(c.Publish.Command))
	for _, arg := range c.Publish.Command {
		if arg = strings.TrimSpace(arg); arg != "" {
			command = append(command, arg)
		}
	}
	c.Publish.Command = command
	if strings.TrimSpace(c.Publish.WorkDir) != "" {
		var err error
		if c.Publish.WorkDir, err = expandPath(strings.TrimSpace(c.Publish.WorkDir)); err != nil {
			return fmt.Errorf("publish.work_dir: %w", err)
		}
	}
	if len(c.Publish.Credentials) == 0 {
		c.Publish.Credentials = defaultCredentials()
	}
	for i := range c.Publish.Credentials {
		c.Publish.Credentials[i].Env = strings.TrimSpace(c.Publish.Credentials[i].Env)
		c.Publish.Credentials[i].Value = strings.TrimSpace(c.Publish.Credentials[i].Value)
	}
	return nil
}

// Environment tokens win over the file.
func (c *Config) normalizeDispatch() {
	for _, key := range []string{"LOADGATE_DISPATCH_TOKEN", "GITHUB_TOKEN"} {
		if value, ok := os.LookupEnv(key); ok && strings.TrimSpace(value) != "" {
			c.Dispatch.Token = value
			break
		}
	}
	c.Dispatch.Token = strings.TrimSpace(c.Dispatch.Token)
	c.Dispatch.APIBaseURL = strings.TrimRight(strings.TrimSpace(c.Dispatch.APIBaseURL), "/")
	if c.Dispatch.APIBaseURL == "" {
		c.Dispatch.APIBaseURL = defaultDispatchBaseURL
	}
	c.Dispatch.Repository = strings.Trim(strings.TrimSpace(c.Dispatch.Repository), "/")
	if c.Dispatch.Repository == "" {
		c.Dispatch.Repository = defaultDispatchRepository
	}
	c.Dispatch.EventType = strings.TrimSpace(c.Dispatch.EventType)
	if c.Dispatch.EventType == "" {
		c.Dispatch.EventType = defaultDispatchEventType
	}
	if c.Dispatch.RequestTimeout == 0 {
		c.Dispatch.RequestTimeout = defaultDispatchTimeout
	}
}

func (c *Config) normalizeNotifications() {
	if value, ok := os.LookupEnv("NTFY_TOPIC"); ok && strings.TrimSpace(value) != "" {
		c.Notifications.NtfyTopic = value
	}
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.RequestTimeout == 0 {
		c.Notifications.RequestTimeout = defaultNotifyTimeout
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
