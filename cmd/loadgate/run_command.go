package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"loadgate/internal/trigger"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var eventPath string
	var version string
	var prefix string
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Evaluate the event, publish, and dispatch",
		Long: `Run performs the whole gate. When the event does not trigger, nothing is
published or dispatched and the command exits 0. Pass --version when the
containers were published by an earlier job.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			event, err := trigger.LoadEvent(eventPath)
			if err != nil {
				return err
			}

			runner := ctx.newRunner(cfg, prefix, version)
			outcome, runErr := runner.Run(cmd.Context(), event)

			outputs := []outputValue{{key: "triggered", value: strconv.FormatBool(outcome.Triggered)}}
			if outcome.Version != "" {
				outputs = append(outputs, outputValue{key: "version", value: outcome.Version})
			}
			if err := writeGitHubOutputs(outputs...); err != nil && runErr == nil {
				runErr = err
			}
			if runErr != nil {
				return runErr
			}

			if jsonOutput {
				return writeJSON(cmd, outcome)
			}
			out := cmd.OutOrStdout()
			if !outcome.Triggered {
				fmt.Fprintf(out, "Skipped: %s\n", outcome.Decision.Reason)
				return nil
			}
			fmt.Fprintf(out, "Dispatched %s (version %s) to %s\n", cfg.Dispatch.EventType, outcome.Version, cfg.Dispatch.Repository)
			return nil
		},
	}

	cmd.Flags().StringVar(&eventPath, "event", "", "Path to the pull_request event JSON (default $GITHUB_EVENT_PATH)")
	cmd.Flags().StringVar(&version, "version", "", "Skip the publish command and dispatch this version")
	cmd.Flags().StringVar(&prefix, "prefix", "", "Override publish.prefix for this run")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output the outcome as JSON")
	return cmd
}
