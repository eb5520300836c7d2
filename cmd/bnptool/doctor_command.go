package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"bnptool/internal/preflight"
)

func newDoctorCommand(ctx *commandContext) *cobra.Command {
	var skipEngine bool

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check the engine, scratch space and configured directories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)

			var rows [][]string
			failed := false
			engineFound := false
			for _, status := range preflight.CheckSystemDeps(cfg) {
				kind, detail := statusOK, status.Path
				if !status.Available {
					kind, detail = statusError, status.Detail
					failed = failed || !status.Optional
				} else {
					engineFound = true
				}
				rows = append(rows, []string{status.Name, renderStatus(kind, colorize), detail})
			}

			var versioner preflight.Versioner
			if engineFound && !skipEngine {
				client, err := ctx.engineClient()
				if err != nil {
					return err
				}
				versioner = client
			}
			results := preflight.RunAll(cmd.Context(), cfg, versioner)
			for _, r := range results {
				kind := statusOK
				if !r.Passed {
					kind = statusError
				}
				rows = append(rows, []string{r.Name, renderStatus(kind, colorize), r.Detail})
			}
			failed = failed || preflight.Failed(results)

			fmt.Fprintf(out, "Config: %s\n", ctx.configPath)
			fmt.Fprintln(out, renderTable(tableSpec{
				headers:  []string{"Check", "Status", "Detail"},
				colorize: colorize,
			}, rows))

			if failed {
				return &ExitError{Code: 1, Err: errors.New("doctor found problems")}
			}
			fmt.Fprintln(out, styleFor(out, SuccessStyle).Render("All checks passed"))
			return nil
		},
	}

	cmd.Flags().BoolVar(&skipEngine, "skip-engine", false, "Do not run the engine version check")
	return cmd
}
