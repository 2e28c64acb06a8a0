package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newPublishCommand(ctx *commandContext) *cobra.Command {
	var prefix string

	cmd := &cobra.Command{
		Use:   "publish",
		Short: "Run the container publish command and print its version",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			runner := ctx.newRunner(cfg, prefix, "")
			version, err := runner.Publish(cmd.Context())
			if err != nil {
				return err
			}
			if err := writeGitHubOutputs(outputValue{key: "version", value: version}); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), version)
			return nil
		},
	}

	cmd.Flags().StringVar(&prefix, "prefix", "", "Override publish.prefix for this run")
	return cmd
}
