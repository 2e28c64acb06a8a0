package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"loadgate/internal/config"
)

func newConfigCommand(ctx *commandContext) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration utilities",
	}

	configCmd.AddCommand(newConfigValidateCommand(ctx))
	configCmd.AddCommand(newConfigInitCommand())
	configCmd.AddCommand(newConfigShowCommand(ctx))

	return configCmd
}

func newConfigInitCommand() *cobra.Command {
	var targetPath string
	var overwrite bool

	cmd := &cobra.Command{
		Use:         "init",
		Short:       "Create a sample configuration file",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			target := strings.TrimSpace(targetPath)
			if target == "" {
				defaultPath, err := config.DefaultConfigPath()
				if err != nil {
					return fmt.Errorf("determine default config path: %w", err)
				}
				target = defaultPath
			} else {
				expanded, err := config.ExpandPath(target)
				if err != nil {
					return fmt.Errorf("resolve config path: %w", err)
				}
				target = expanded
			}

			dir := filepath.Dir(target)
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("create config directory %q: %w", dir, err)
			}

			if !overwrite {
				if _, err := os.Stat(target); err == nil {
					return fmt.Errorf("config file already exists at %s (use --overwrite to replace it)", target)
				} else if !os.IsNotExist(err) {
					return fmt.Errorf("check config path: %w", err)
				}
			}

			if err := config.CreateSample(target); err != nil {
				return fmt.Errorf("create sample config: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Wrote sample configuration to %s\n", target)
			fmt.Fprintln(out, "Export LOADGATE_DISPATCH_TOKEN and the publish credentials before running loadgate.")
			return nil
		},
	}

	cmd.Flags().StringVarP(&targetPath, "path", "p", "", "Destination for the configuration file")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Overwrite existing configuration if present")
	return cmd
}

func newConfigValidateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Config path: %s\n", ctx.configPath)
			if !ctx.configExists {
				fmt.Fprintln(out, "Config file did not exist; defaults were used")
			}
			if cfg.Dispatch.Token == "" {
				fmt.Fprintln(out, "Warning: dispatch token is not set; dispatch and run will fail")
			}
			for _, cred := range cfg.Publish.Credentials {
				if cred.Resolve() == "" {
					fmt.Fprintf(out, "Warning: credential %s is not set; publish will fail\n", cred.Env)
				}
			}
			fmt.Fprintln(out, "Configuration valid")
			return nil
		},
	}
}

func newConfigShowCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration with secrets masked",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			rows := configRows(cfg)
			if jsonOutput {
				view := make(map[string]string, len(rows))
				for _, row := range rows {
					view[row[0]] = row[1]
				}
				return writeJSON(cmd, view)
			}
			title := ctx.configPath
			if !ctx.configExists {
				title += " (defaults)"
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(title, []string{"Key", "Value"}, rows, []columnAlignment{alignLeft, alignLeft}))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func configRows(cfg *config.Config) [][]string {
	rows := [][]string{
		{"trigger.label", strconv.Quote(cfg.Trigger.Label)},
		{"trigger.actions", strings.Join(cfg.Trigger.Actions, ", ")},
		{"publish.prefix", cfg.Publish.Prefix},
		{"publish.command", strings.Join(cfg.Publish.Command, " ")},
		{"publish.work_dir", cfg.Publish.WorkDir},
		{"publish.timeout_seconds", strconv.Itoa(cfg.Publish.TimeoutSeconds)},
	}
	for i, cred := range cfg.Publish.Credentials {
		rows = append(rows, []string{fmt.Sprintf("publish.credentials[%d]", i), cred.Env + " = " + maskSecret(cred.Resolve())})
	}
	rows = append(rows,
		[]string{"dispatch.api_base_url", cfg.Dispatch.APIBaseURL},
		[]string{"dispatch.repository", cfg.Dispatch.Repository},
		[]string{"dispatch.event_type", cfg.Dispatch.EventType},
		[]string{"dispatch.token", maskSecret(cfg.Dispatch.Token)},
		[]string{"dispatch.request_timeout", strconv.Itoa(cfg.Dispatch.RequestTimeout)},
		[]string{"notifications.ntfy_topic", cfg.Notifications.NtfyTopic},
		[]string{"logging.format", cfg.Logging.Format},
		[]string{"logging.level", cfg.Logging.Level},
		[]string{"telemetry.traces", yesNo(cfg.Telemetry.Traces)},
		[]string{"telemetry.service_name", cfg.Telemetry.ServiceName},
	)
	return rows
}

func maskSecret(value string) string {
	if value == "" {
		return "(unset)"
	}
	return "********"
}
