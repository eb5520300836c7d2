package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"bnptool/internal/scratch"
)

func newCleanCommand(ctx *commandContext) *cobra.Command {
	var (
		maxAge time.Duration
		dryRun bool
		list   bool
	)

	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Remove temporary stores left behind by interrupted conversions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			root := cfg.Paths.ScratchDir

			if list {
				stores, err := scratch.List(root)
				if err != nil {
					return fmt.Errorf("list scratch directory: %w", err)
				}
				if len(stores) == 0 {
					fmt.Fprintln(out, "No temporary stores")
					return nil
				}
				rows := make([][]string, 0, len(stores))
				for _, s := range stores {
					rows = append(rows, []string{
						s.Name,
						time.Since(s.ModTime).Round(time.Second).String(),
						strconv.FormatInt(s.Size, 10),
						yesNo(s.InUse),
					})
				}
				fmt.Fprintln(out, renderTable(tableSpec{
					title:    root,
					headers:  []string{"Store", "Age", "Bytes", "In use"},
					aligns:   []columnAlignment{alignLeft, alignRight, alignRight, alignLeft},
					colorize: shouldColorize(out),
				}, rows))
				return nil
			}

			age := maxAge
			if !cmd.Flags().Changed("max-age") {
				age = cfg.CleanMaxAge()
			}
			result := scratch.CleanStale(cmd.Context(), root, scratch.Options{
				MaxAge: age,
				DryRun: dryRun,
				Logger: ctx.loggerValue(),
			})

			verb := "Removed"
			if dryRun {
				verb = "Would remove"
			}
			for _, path := range result.Removed {
				fmt.Fprintf(out, "%s %s\n", verb, path)
			}
			for _, path := range result.Skipped {
				fmt.Fprintln(out, styleFor(out, WarningStyle).Render("In use, skipped "+path))
			}
			for _, failure := range result.Errors {
				fmt.Fprintln(out, styleFor(out, ErrorStyle).Render(fmt.Sprintf("Failed %s: %v", failure.Path, failure.Error)))
			}
			if len(result.Removed) == 0 && len(result.Errors) == 0 {
				fmt.Fprintln(out, "Nothing to clean")
			}
			if len(result.Errors) > 0 {
				return &ExitError{Code: 1, Err: fmt.Errorf("%d temporary stores could not be removed", len(result.Errors))}
			}
			return nil
		},
	}

	cmd.Flags().DurationVar(&maxAge, "max-age", 24*time.Hour, "Remove stores older than this (default from clean.max_age_hours)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Report stores that would be removed without deleting them")
	cmd.Flags().BoolVar(&list, "list", false, "List temporary stores instead of cleaning")
	return cmd
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
