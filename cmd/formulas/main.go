// Command formulas extracts, binds, and evaluates formulas with named
// variables, locally or through the calculation service.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/zephyrtronium/formulas/internal/client"
	"github.com/zephyrtronium/formulas/internal/config"
	"github.com/zephyrtronium/formulas/internal/logging"
)

var (
	cfgPath string
	verbose bool
	apiURL  string

	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "formulas",
	Short: "Formula calculator with named variables",
	Long: `formulas evaluates arithmetic formulas with named variables.

Variables are found in the formula text, e.g. "gross - (gross * tax_rate)"
uses gross and tax_rate. Values are supplied with --given or in the
interactive form, and calculations run locally or on the calculation service.

Run without arguments to start the interactive form.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cfgPath)
		if err != nil {
			return err
		}
		if apiURL != "" {
			cfg.Client.BaseURL = apiURL
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}
		lc := cfg.Logging
		if verbose {
			lc = logging.Verbose(lc)
		}
		logger, err = logging.New(lc)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: runTUI,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "formulas.yaml", "Config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "", "Calculation service URL (or set FORMULAS_API_URL)")

	evalCmd.Flags().StringArrayVar(&evalGiven, "given", nil, "name=value variable definition (any number of times)")
	evalCmd.Flags().UintVarP(&evalPrec, "prec", "p", 0, "Precision of calculations in bits (default from config)")
	evalCmd.Flags().StringVar(&evalFmt, "fmt", "%g", "Result formatting verb")
	evalCmd.Flags().StringVar(&evalIn, "in", "", `Input file with one formula per line ("-" for stdin)`)
	evalCmd.Flags().BoolVar(&evalEcho, "echo", false, "Print parse trees")

	calcCmd.Flags().StringArrayVar(&calcGiven, "given", nil, "name=value variable definition (any number of times)")
	calcCmd.Flags().StringVar(&calcTemplate, "template", "", "Start from a built-in example")

	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default from config)")

	templatesCmd.Flags().BoolVar(&templatesRemote, "remote", false, "List the service's templates")

	rootCmd.AddCommand(varsCmd)
	rootCmd.AddCommand(evalCmd)
	rootCmd.AddCommand(calcCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(templatesCmd)
	rootCmd.AddCommand(tipsCmd)
	rootCmd.AddCommand(tuiCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newClient creates a client for the configured service.
func newClient() *client.Client {
	return client.New(cfg.Client.BaseURL,
		client.WithLogger(logger),
		client.WithTimeout(cfg.GetClientTimeout()),
	)
}
