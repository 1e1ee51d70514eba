package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zephyrtronium/formulas"
)

var (
	calcGiven    []string
	calcTemplate string
)

var calcCmd = &cobra.Command{
	Use:   "calc [FORMULA]",
	Short: "Calculate a formula on the calculation service",
	Long: `Sends a formula and its variables to the calculation service and prints
the result. With --template, the formula and values of a built-in example are
used; a formula argument replaces the template's formula and keeps the values
of the variables it still uses. --given sets or overrides values.

Example:
  formulas calc --template "Light Bill" --given vat=0.1
  formulas calc "gross - pension" --given gross=200000 --given pension=12000`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCalc,
}

func runCalc(cmd *cobra.Command, args []string) error {
	req, err := calcRequest(args)
	if err != nil {
		return err
	}
	r, err := newClient().Calculate(cmd.Context(), req)
	if err != nil {
		return err
	}
	if _, ok := r.Number(); !ok {
		return errors.New(r.Message())
	}
	fmt.Fprintln(cmd.OutOrStdout(), r)
	return nil
}

// calcRequest builds the request from the template, the formula argument, and
// the given values, in that order.
func calcRequest(args []string) (formulas.Request, error) {
	s := formulas.NewSession()
	if calcTemplate != "" {
		t, ok := formulas.LookupTemplate(calcTemplate)
		if !ok {
			return formulas.Request{}, fmt.Errorf("no template named %q", calcTemplate)
		}
		s.Load(t)
	}
	switch {
	case len(args) == 1:
		s.SetFormula(args[0])
	case calcTemplate == "":
		return formulas.Request{}, errors.New("need a formula or --template")
	}
	given, err := parseGiven(calcGiven)
	if err != nil {
		return formulas.Request{}, err
	}
	for _, d := range given {
		f, err := evalNumber(d[1], cfg.Eval.Precision)
		if err != nil {
			return formulas.Request{}, fmt.Errorf("setting %s: %w", d[0], err)
		}
		if err := s.SetValue(d[0], formulas.Num(f)); err != nil {
			return formulas.Request{}, fmt.Errorf("setting %s: %w", d[0], err)
		}
	}
	return s.Request(), nil
}
