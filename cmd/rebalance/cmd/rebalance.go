package cmd

import (
	"fmt"
	"io"

	"github.com/rustyeddy/rebalance/planner"
	"github.com/spf13/cobra"
)

var rebalanceCmd = &cobra.Command{
	Use:   "plan",
	Short: "Recommend trades for the current household",
	Long: `Validate the portfolio against policy, detect drift and plan trades.

Modes:
  strict        correct every drift past the bands; may sell
  conservative  buys only, plus the sells a policy violation requires

Examples:
  rebalance plan
  rebalance plan --mode conservative --explain
  rebalance plan -o json --journal plans.db`,
	Aliases: []string{"rebalance"},
	Args:    cobra.NoArgs,
	RunE:    runRebalance,
}

var (
	rebalanceMode    string
	rebalanceExplain bool
)

func init() {
	rootCmd.AddCommand(rebalanceCmd)

	rebalanceCmd.Flags().StringVarP(&rebalanceMode, "mode", "m", string(planner.Strict), "planning mode: strict|conservative")
	rebalanceCmd.Flags().BoolVarP(&rebalanceExplain, "explain", "x", false, "include the reason for each trade")
}

func runRebalance(cmd *cobra.Command, _ []string) error {
	mode, err := planner.ParseMode(rebalanceMode)
	if err != nil {
		return err
	}
	b, err := loadBundle()
	if err != nil {
		return err
	}
	p, err := b.Portfolio()
	if err != nil {
		return fmt.Errorf("portfolio: %w", err)
	}
	e, closeJournal, err := newEngine(b, true)
	if err != nil {
		return err
	}
	defer closeJournal()

	rec, err := e.Plan(cmd.Context(), p, b.Targets(), mode)
	if err != nil {
		return err
	}
	return render(cmd.OutOrStdout(), rec, func(w io.Writer) error {
		return rec.WriteText(w, rebalanceExplain)
	})
}
