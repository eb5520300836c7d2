package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"bnptool/internal/modhash"
	"bnptool/internal/services"
	"bnptool/internal/workflow"
)

type hashOutput struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	ID      string `json:"id"`
}

func newHashCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:         "hash <name> <version>",
		Aliases:     []string{"h"},
		Short:       "Print the dependency hash ID for a mod",
		Args:        cobra.ExactArgs(2),
		Annotations: skipConfig(),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := workflow.Hash(args[0], args[1])
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd, hashOutput{Name: args[0], Version: args[1], ID: id})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "The mod hash ID is: %s\n", id)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func newDecodeCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:         "decode <hash-id>",
		Aliases:     []string{"d"},
		Short:       "Recover the name and version behind a dependency hash ID",
		Args:        cobra.ExactArgs(1),
		Annotations: skipConfig(),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, version, err := modhash.Decode(args[0])
			if err != nil {
				return services.Wrap(services.ErrValidation, "modhash", "decode", "", err)
			}
			if asJSON {
				return writeJSON(cmd, hashOutput{Name: name, Version: version, ID: args[0]})
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Name: %s\n", name)
			fmt.Fprintf(out, "Version: %s\n", version)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}
