package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newDispatchCommand(ctx *commandContext) *cobra.Command {
	var version string

	cmd := &cobra.Command{
		Use:   "dispatch",
		Short: "Send the repository_dispatch event for a published version",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			runner := ctx.newRunner(cfg, "", "")
			if err := runner.Dispatch(cmd.Context(), version); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Dispatched %s (version %s) to %s\n", cfg.Dispatch.EventType, version, cfg.Dispatch.Repository)
			return nil
		},
	}

	cmd.Flags().StringVar(&version, "version", "", "Version to send in client_payload")
	_ = cmd.MarkFlagRequired("version")
	return cmd
}
