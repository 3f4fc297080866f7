package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/joshweier/nlisten/internal/preflight"
	"github.com/joshweier/nlisten/internal/services"
)

func newCheckCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Verify the input file, ffmpeg and the VOICEVOX engine",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			results := preflight.RunAll(cmd.Context(), cfg)
			failures := preflight.Failures(results)

			if jsonOutput {
				if err := writeJSON(cmd, checkViews(results)); err != nil {
					return err
				}
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"Check", "Status", "Detail"},
					checkRows(results),
					[]columnAlignment{alignLeft, alignLeft, alignLeft},
				))
			}

			if len(failures) > 0 {
				names := make([]string, 0, len(failures))
				for _, f := range failures {
					names = append(names, f.Name)
				}
				return services.Wrap(services.ErrExternalTool, "preflight", "check",
					"failed: "+strings.Join(names, ", "), nil)
			}
			if !jsonOutput {
				fmt.Fprintln(cmd.OutOrStdout(), "All checks passed")
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output results as JSON")
	return cmd
}

type checkView struct {
	Name     string `json:"name"`
	Passed   bool   `json:"passed"`
	Optional bool   `json:"optional,omitempty"`
	Detail   string `json:"detail"`
}

func checkViews(results []preflight.Result) []checkView {
	views := make([]checkView, 0, len(results))
	for _, r := range results {
		views = append(views, checkView{Name: r.Name, Passed: r.Passed, Optional: r.Optional, Detail: r.Detail})
	}
	return views
}

func checkRows(results []preflight.Result) [][]string {
	rows := make([][]string, 0, len(results))
	for _, r := range results {
		status := "ok"
		switch {
		case !r.Passed && r.Optional:
			status = "warn"
		case !r.Passed:
			status = "FAIL"
		}
		rows = append(rows, []string{r.Name, status, r.Detail})
	}
	return rows
}
