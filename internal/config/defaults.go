package config

const (
	defaultConfigPath         = "~/.config/loadgate/config.toml"
	projectConfigName         = "loadgate.toml"
	defaultTriggerLabel       = "load test"
	defaultPublishPrefix      = "load-test-"
	defaultDispatchBaseURL    = "https://api.github.com"
	defaultDispatchRepository = "saleor/saleor-multitenant"
	defaultDispatchEventType  = "deploy-load-test"
	defaultDispatchTimeout    = 30
	defaultNotifyTimeout      = 10
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
	defaultServiceName        = "loadgate"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Trigger: Trigger{
			Label:   defaultTriggerLabel,
			Actions: defaultTriggerActions(),
		},
		Publish: Publish{
			Prefix:      defaultPublishPrefix,
			Credentials: defaultCredentials(),
		},
		Dispatch: Dispatch{
			APIBaseURL:     defaultDispatchBaseURL,
			Repository:     defaultDispatchRepository,
			EventType:      defaultDispatchEventType,
			RequestTimeout: defaultDispatchTimeout,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyTimeout,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
		Telemetry: Telemetry{
			ServiceName: defaultServiceName,
		},
	}
}

func defaultTriggerActions() []string {
	return []string{"reopened", "synchronize"}
}

func defaultCredentials() []Credential {
	return []Credential{
		{Env: "REGISTRY_USERNAME"},
		{Env: "REGISTRY_PASSWORD"},
	}
}
