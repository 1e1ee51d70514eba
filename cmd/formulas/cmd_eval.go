package main

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"math/big"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/zephyrtronium/formulas"
)

var (
	evalGiven []string
	evalPrec  uint
	evalFmt   string
	evalIn    string
	evalEcho  bool
)

var evalCmd = &cobra.Command{
	Use:   "eval [FORMULA]...",
	Short: "Evaluate formulas locally",
	Long: `Evaluates each formula argument, and each line of --in, with arbitrary
precision. Values given with --given are themselves formulas and may use
earlier definitions.

Example:
  formulas eval --given radius=5 "3.1416 * radius * radius"
  formulas eval -p 256 --fmt %.50f "sqrt(2)"`,
	RunE: runEval,
}

func runEval(cmd *cobra.Command, args []string) error {
	prec := evalPrec
	if prec == 0 {
		prec = cfg.Eval.Precision
	}
	given, err := parseGiven(evalGiven)
	if err != nil {
		return err
	}

	ctx := formulas.NewContext(formulas.Prec(prec))
	var names []string
	for _, d := range given {
		e, err := formulas.ParseString(d[1], formulas.DisableFuncs(names...))
		if err != nil {
			return fmt.Errorf("setting %s: %w", d[0], err)
		}
		r, err := ctx.Eval(e)
		if err != nil {
			return fmt.Errorf("setting %s: %w", d[0], err)
		}
		ctx.Set(d[0], r)
		names = append(names, d[0])
	}

	srcs := args
	in, err := infile(evalIn, cmd.InOrStdin(), len(args) == 0)
	if err != nil {
		return err
	}
	if in != nil {
		lines, err := readLines(in)
		if err != nil {
			return err
		}
		srcs = append(lines, srcs...)
	}

	out := cmd.OutOrStdout()
	verb := evalFmt + "\n"
	failed := 0
	for _, src := range srcs {
		e, err := formulas.ParseString(src, formulas.DisableFuncs(names...))
		if err != nil {
			fmt.Fprintln(out, err)
			failed++
			continue
		}
		if evalEcho {
			fmt.Fprintf(out, "%v : ", e)
		}
		r, err := ctx.Eval(e)
		if err != nil {
			fmt.Fprintln(out, err)
			failed++
			continue
		}
		fmt.Fprintf(out, verb, r)
	}
	logger.Debug("evaluated formulas",
		zap.Int("count", len(srcs)),
		zap.Int("failed", failed),
		zap.Uint("prec", prec))
	if failed > 0 {
		return fmt.Errorf("%d of %d formulas failed", failed, len(srcs))
	}
	return nil
}

// parseGiven splits name=value definitions.
func parseGiven(defs []string) ([][2]string, error) {
	r := make([][2]string, 0, len(defs))
	for _, s := range defs {
		name, value, ok := strings.Cut(s, "=")
		name = strings.TrimSpace(name)
		if !ok || !formulas.ValidName(name) {
			return nil, fmt.Errorf(`variable definitions must be "name=value", not %q`, s)
		}
		r = append(r, [2]string{name, strings.TrimSpace(value)})
	}
	return r, nil
}

// infile opens the input named by inname. "-" means stdin, as does an empty
// name when std is true. The result is nil if there is no input.
func infile(inname string, stdin io.Reader, std bool) (io.Reader, error) {
	switch {
	case inname != "" && inname != "-":
		f, err := os.Open(inname)
		if err != nil {
			return nil, fmt.Errorf("failed to open input: %w", err)
		}
		return f, nil
	case inname == "-", std:
		return stdin, nil
	}
	return nil, nil
}

// readLines reads the non-blank lines of r, closing it if it is a file.
func readLines(r io.Reader) ([]string, error) {
	if f, ok := r.(*os.File); ok && f != os.Stdin {
		defer f.Close()
	}
	var lines []string
	scan := bufio.NewScanner(r)
	for scan.Scan() {
		if line := strings.TrimSpace(scan.Text()); line != "" {
			lines = append(lines, line)
		}
	}
	if err := scan.Err(); err != nil {
		return nil, fmt.Errorf("failed to read input: %w", err)
	}
	return lines, nil
}

// evalNumber evaluates a --given value for calc, which sends plain numbers.
func evalNumber(src string, prec uint) (float64, error) {
	r, err := formulas.EvalString(src, formulas.Prec(prec))
	if err != nil {
		return 0, err
	}
	f, acc := r.Float64()
	if math.IsInf(f, 0) {
		return 0, fmt.Errorf("value is not finite: %.10g", r)
	}
	if acc != big.Exact {
		logger.Debug("value rounded", zap.String("value", src), zap.Stringer("accuracy", acc))
	}
	return f, nil
}
