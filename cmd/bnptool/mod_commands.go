package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"bnptool/internal/merger"
	"bnptool/internal/modmeta"
	"bnptool/internal/workflow"
)

func newCreateCommand(ctx *commandContext) *cobra.Command {
	var (
		output   string
		metaFile string
		meta     modmeta.Input
	)

	cmd := &cobra.Command{
		Use:     "create <mod-path>",
		Aliases: []string{"c"},
		Short:   "Create a BNP archive from a mod folder or archive",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			runner, err := ctx.runner()
			if err != nil {
				return err
			}
			res, err := runner.Create(cmd.Context(), workflow.CreateRequest{
				Source:    args[0],
				Output:    output,
				Meta:      meta,
				MetaFile:  metaFile,
				Selection: selectionFromFlags(cmd),
			})
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, styleFor(out, SuccessStyle).Render(fmt.Sprintf("Created %s %s", res.Meta.Name, res.Meta.Version)))
			fmt.Fprintln(out, res.Output)
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&output, "output", "o", "", "Path for the new BNP (default <cwd>/<name>.bnp)")
	flags.StringVarP(&meta.Name, "name", "n", "", "Mod name (default \"Unnamed\")")
	flags.StringVar(&meta.Version, "version", "", "Mod version (default \"1.0.0\")")
	flags.StringVarP(&meta.Description, "description", "d", "", "Mod description")
	flags.StringVarP(&meta.ImageURL, "image", "i", "", "Preview image URL")
	flags.StringVarP(&meta.SourceURL, "url", "u", "", "Mod homepage URL")
	flags.StringVar(&metaFile, "meta-file", "", "YAML manifest with name, version, description, image and url")
	for _, sw := range merger.DisableSwitches {
		flags.Bool(sw.Flag, false, sw.Usage)
	}
	for _, tn := range merger.TuningSwitches {
		flags.Bool(tn.Flag, false, tn.Usage)
	}
	return cmd
}

func selectionFromFlags(cmd *cobra.Command) merger.Selection {
	sel := merger.Selection{}
	mark := func(name string) {
		if on, err := cmd.Flags().GetBool(name); err == nil && on {
			sel[name] = true
		}
	}
	for _, sw := range merger.DisableSwitches {
		mark(sw.Flag)
	}
	for _, tn := range merger.TuningSwitches {
		mark(tn.Flag)
	}
	return sel
}

func newConvertCommand(ctx *commandContext) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:     "convert <bnp-path>",
		Aliases: []string{"cv"},
		Short:   "Convert a BNP into a standalone merged archive",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			runner, err := ctx.runner()
			if err != nil {
				return err
			}
			res, err := runner.Convert(cmd.Context(), workflow.ConvertRequest{
				Source: args[0],
				Output: output,
			})
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, styleFor(out, SuccessStyle).Render("Wrote standalone archive"))
			fmt.Fprintln(out, res.Output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Path for the standalone archive (default <cwd>/"+workflow.DefaultConvertName+")")
	return cmd
}

func newInstallCommand(ctx *commandContext) *cobra.Command {
	var remerge bool

	cmd := &cobra.Command{
		Use:     "install <bnp-path>",
		Aliases: []string{"i"},
		Short:   "Install a BNP into the engine's mod store",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			runner, err := ctx.runner()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Installing %s . . .\n", strings.TrimSpace(args[0]))
			if err := runner.Install(cmd.Context(), workflow.InstallRequest{
				Archive: args[0],
				Remerge: remerge,
			}); err != nil {
				return err
			}
			msg := "Installed; remerge deferred"
			if remerge {
				msg = "Installed and remerged"
			}
			fmt.Fprintln(out, styleFor(out, SuccessStyle).Render(msg))
			return nil
		},
	}

	cmd.Flags().BoolVarP(&remerge, "remerge", "r", false, "Remerge installed mods immediately")
	return cmd
}
