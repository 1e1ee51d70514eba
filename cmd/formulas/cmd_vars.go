package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zephyrtronium/formulas"
)

var varsCmd = &cobra.Command{
	Use:   "vars FORMULA",
	Short: "List the variables a formula uses",
	Long: `Prints the variables of a formula in order of first use, one per line.
Numbers, reserved words, and repeated names are left out.

Example:
  formulas vars "gross - (gross * tax_rate) - pension"`,
	Args: cobra.ExactArgs(1),
	RunE: runVars,
}

func runVars(cmd *cobra.Command, args []string) error {
	for _, name := range formulas.Extract(args[0]) {
		fmt.Fprintln(cmd.OutOrStdout(), name)
	}
	return nil
}
