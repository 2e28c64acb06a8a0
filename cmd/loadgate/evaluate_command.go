package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"loadgate/internal/pipeline"
	"loadgate/internal/services"
	"loadgate/internal/trigger"
)

func newEvaluateCommand(ctx *commandContext) *cobra.Command {
	var eventPath string
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Decide whether a pull request event triggers the load test",
		Long: `Evaluate reads the pull_request webhook payload (default $GITHUB_EVENT_PATH)
and reports whether the configured label gates a deployment. It exits 0 either
way and writes triggered=true|false to $GITHUB_OUTPUT when available.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			event, err := trigger.LoadEvent(eventPath)
			if err != nil {
				return err
			}

			runner := pipeline.NewRunner(trigger.RuleFromConfig(cfg.Trigger), pipeline.WithLogger(ctx.logger()))
			runCtx := services.WithPullRequest(cmd.Context(), event.PullRequest.Number)
			decision := runner.Evaluate(runCtx, event)

			if err := writeGitHubOutputs(outputValue{key: "triggered", value: strconv.FormatBool(decision.Triggered)}); err != nil {
				return err
			}
			if jsonOutput {
				return writeJSON(cmd, decision)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Triggered: %s\n", yesNo(decision.Triggered))
			fmt.Fprintf(out, "Reason: %s\n", decision.Reason)
			return nil
		},
	}

	cmd.Flags().StringVar(&eventPath, "event", "", "Path to the pull_request event JSON (default $GITHUB_EVENT_PATH)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output the decision as JSON")
	return cmd
}
