package main

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/zephyrtronium/formulas/cmd/formulas/ui"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Start the interactive form",
	Long: `Opens a form with a formula input and one input per variable. Enter
calculates on the calculation service; ctrl+t steps through the examples and
ctrl+r clears.`,
	Args: cobra.NoArgs,
	RunE: runTUI,
}

func runTUI(cmd *cobra.Command, args []string) error {
	logger.Debug("starting interactive form", zap.String("api", cfg.Client.BaseURL))
	p := tea.NewProgram(ui.New(newClient(), nil), tea.WithAltScreen(), tea.WithContext(cmd.Context()))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("interactive form failed: %w", err)
	}
	return nil
}
