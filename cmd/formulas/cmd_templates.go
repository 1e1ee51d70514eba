package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zephyrtronium/formulas"
	"github.com/zephyrtronium/formulas/cmd/formulas/ui"
)

var templatesRemote bool

var templatesCmd = &cobra.Command{
	Use:   "templates",
	Short: "List the example formulas",
	Args:  cobra.NoArgs,
	RunE:  runTemplates,
}

func runTemplates(cmd *cobra.Command, args []string) error {
	ts := formulas.Templates()
	if templatesRemote {
		var err error
		ts, err = newClient().Templates(cmd.Context())
		if err != nil {
			return err
		}
	}
	out := cmd.OutOrStdout()
	for i, t := range ts {
		if i > 0 {
			fmt.Fprintln(out)
		}
		fmt.Fprintln(out, t.Name)
		fmt.Fprintf(out, "  %s\n", t.Formula)
		fmt.Fprintf(out, "  %v\n", t.Vars)
	}
	return nil
}

var tipsCmd = &cobra.Command{
	Use:   "tips",
	Short: "Show help for writing formulas",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := ui.RenderTips(80)
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), s)
		return nil
	},
}
