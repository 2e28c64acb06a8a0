package main

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"loadgate/internal/config"
	"loadgate/internal/dispatch"
	"loadgate/internal/logging"
	"loadgate/internal/notifications"
	"loadgate/internal/pipeline"
	"loadgate/internal/publish"
	"loadgate/internal/telemetry"
	"loadgate/internal/trigger"
)

type commandContext struct {
	configFlag    *string
	logLevelFlag  *string
	logFormatFlag *string

	configOnce   sync.Once
	config       *config.Config
	configPath   string
	configExists bool
	configErr    error

	log            *slog.Logger
	shutdownTracer telemetry.ShutdownFunc
}

func newCommandContext(configFlag, logLevelFlag, logFormatFlag *string) *commandContext {
	return &commandContext{
		configFlag:    configFlag,
		logLevelFlag:  logLevelFlag,
		logFormatFlag: logFormatFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg, path, exists, err := config.Load(flagValue(c.configFlag))
		if err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.configPath = path
		c.configExists = exists
	})
	return c.config, c.configErr
}

// initObservability builds the logger and tracer for this invocation. Both
// write to the command's stderr so stdout carries only results.
func (c *commandContext) initObservability(cmd *cobra.Command, cfg *config.Config) error {
	opts := logging.Options{Level: "info", Format: "console", Writer: cmd.ErrOrStderr()}
	telemetryCfg := config.Telemetry{}
	if cfg != nil {
		opts.Level = cfg.Logging.Level
		opts.Format = cfg.Logging.Format
		telemetryCfg = cfg.Telemetry
	}
	if level := flagValue(c.logLevelFlag); level != "" {
		opts.Level = level
	}
	if format := flagValue(c.logFormatFlag); format != "" {
		opts.Format = format
	}

	logger, err := logging.New(opts)
	if err != nil {
		return err
	}
	c.log = logger

	shutdown, err := telemetry.InitTracer(telemetryCfg, cmd.ErrOrStderr(), logger)
	if err != nil {
		return err
	}
	c.shutdownTracer = shutdown
	return nil
}

func (c *commandContext) logger() *slog.Logger {
	if c.log == nil {
		return logging.NewNop()
	}
	return c.log
}

func (c *commandContext) shutdown(ctx context.Context) error {
	if c.shutdownTracer == nil {
		return nil
	}
	shutdown := c.shutdownTracer
	c.shutdownTracer = nil
	return shutdown(ctx)
}

func (c *commandContext) newDispatchClient(cfg *config.Config) (*dispatch.Client, error) {
	return dispatch.NewClient(cfg.Dispatch,
		dispatch.WithLogger(logging.NewComponentLogger(c.logger(), "dispatch-client")),
	)
}

func (c *commandContext) newPublishDelegate(cfg *config.Config, staticVersion string) (publish.Delegate, error) {
	if staticVersion != "" {
		return publish.StaticDelegate{Version: staticVersion}, nil
	}
	return publish.NewFromConfig(cfg.Publish, logging.NewComponentLogger(c.logger(), "publish-command"))
}

// newRunner wires the pipeline from config. Collaborators are built lazily so
// commands that skip never need a token or publish command.
func (c *commandContext) newRunner(cfg *config.Config, prefix, staticVersion string) *pipeline.Runner {
	req := publish.RequestFromConfig(cfg.Publish)
	if prefix = strings.TrimSpace(prefix); prefix != "" {
		req.Prefix = prefix
	}
	return pipeline.NewRunner(trigger.RuleFromConfig(cfg.Trigger),
		pipeline.WithLogger(c.logger()),
		pipeline.WithNotifier(notifications.NewService(cfg)),
		pipeline.WithRepository(cfg.Dispatch.Repository),
		pipeline.WithPublisherFunc(func() (publish.Delegate, error) {
			return c.newPublishDelegate(cfg, staticVersion)
		}, req),
		pipeline.WithDispatcherFunc(func() (pipeline.Dispatcher, error) {
			client, err := c.newDispatchClient(cfg)
			if err != nil {
				return nil, err
			}
			return client, nil
		}),
	)
}

func flagValue(flag *string) string {
	if flag == nil {
		return ""
	}
	return strings.TrimSpace(*flag)
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
