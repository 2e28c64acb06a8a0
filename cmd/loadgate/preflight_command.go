package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"loadgate/internal/preflight"
	"loadgate/internal/services"
)

func newPreflightCommand(ctx *commandContext) *cobra.Command {
	var online bool
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "preflight",
		Short: "Check that publish and dispatch are ready to run",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			results := preflight.RunAll(cmd.Context(), cfg, preflight.Options{Online: online})

			if jsonOutput {
				if err := writeJSON(cmd, results); err != nil {
					return err
				}
			} else {
				rows := make([][]string, 0, len(results))
				for _, r := range results {
					status := "ok"
					if !r.Passed {
						status = "FAIL"
					}
					rows = append(rows, []string{r.Name, status, r.Detail})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable("", []string{"Check", "Status", "Detail"}, rows, nil))
			}

			if preflight.Failed(results) {
				return services.Wrap(services.ErrConfiguration, "preflight", "check", "one or more checks failed", nil)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&online, "online", false, "Also verify the dispatch token against the GitHub API")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output results as JSON")
	return cmd
}
