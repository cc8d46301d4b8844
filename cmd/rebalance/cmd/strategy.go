package cmd

import (
	"fmt"
	"io"

	"github.com/rustyeddy/rebalance/config"
	"github.com/rustyeddy/rebalance/strategy"
	"github.com/rustyeddy/rebalance/universe"
	"github.com/spf13/cobra"
)

var strategyCmd = &cobra.Command{
	Use:   "strategy",
	Short: "Edit the growth sleeve",
	Long: `Show and edit growth-sleeve targets. Edits are checked against the
growth rules of the policy and saved to targets.generated.yaml, which
overrides the base targets in asset_universe.yaml.

Examples:
  rebalance strategy show
  rebalance strategy add --ticker MSFT --weight 0.02
  rebalance strategy remove --ticker NVDA
  rebalance strategy rotate --from QQQ --to SPYG --weight 0.20`,
}

var strategyShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the current growth sleeve",
	Args:  cobra.NoArgs,
	RunE:  runStrategyShow,
}

var strategyAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add or resize a growth position",
	Args:  cobra.NoArgs,
	RunE:  runStrategyAdd,
}

var strategyRemoveCmd = &cobra.Command{
	Use:   "remove",
	Short: "Remove a growth position",
	Args:  cobra.NoArgs,
	RunE:  runStrategyRemove,
}

var strategyRotateCmd = &cobra.Command{
	Use:   "rotate",
	Short: "Move weight from one growth position to another",
	Args:  cobra.NoArgs,
	RunE:  runStrategyRotate,
}

var (
	strategyTicker    string
	strategyWeight    float64
	strategyAssetType string
	strategyFrom      string
	strategyTo        string
)

func init() {
	rootCmd.AddCommand(strategyCmd)
	strategyCmd.AddCommand(strategyShowCmd, strategyAddCmd, strategyRemoveCmd, strategyRotateCmd)

	strategyAddCmd.Flags().StringVar(&strategyTicker, "ticker", "", "ticker to add (required)")
	strategyAddCmd.Flags().Float64Var(&strategyWeight, "weight", 0, "target weight, e.g. 0.02 (required)")
	strategyAddCmd.Flags().StringVar(&strategyAssetType, "asset-type", string(universe.Stock), "asset type for a new ticker: stock|etf")
	_ = strategyAddCmd.MarkFlagRequired("ticker")
	_ = strategyAddCmd.MarkFlagRequired("weight")

	strategyRemoveCmd.Flags().StringVar(&strategyTicker, "ticker", "", "ticker to remove (required)")
	_ = strategyRemoveCmd.MarkFlagRequired("ticker")

	strategyRotateCmd.Flags().StringVar(&strategyFrom, "from", "", "source ticker (required)")
	strategyRotateCmd.Flags().StringVar(&strategyTo, "to", "", "destination ticker (required)")
	strategyRotateCmd.Flags().Float64Var(&strategyWeight, "weight", 0, "weight to move (required)")
	_ = strategyRotateCmd.MarkFlagRequired("from")
	_ = strategyRotateCmd.MarkFlagRequired("to")
	_ = strategyRotateCmd.MarkFlagRequired("weight")
}

func loadEditor() (*config.Bundle, strategy.Editor, error) {
	b, err := loadBundle()
	if err != nil {
		return nil, strategy.Editor{}, err
	}
	e, _, err := newEngine(b, false)
	if err != nil {
		return nil, strategy.Editor{}, err
	}
	return b, e.Editor(b.Targets(), b.Universe), nil
}

func runStrategyShow(cmd *cobra.Command, _ []string) error {
	_, ed, err := loadEditor()
	if err != nil {
		return err
	}
	c := ed.Growth()
	return render(cmd.OutOrStdout(), c, func(w io.Writer) error {
		fmt.Fprintln(w, "Growth Sleeve Composition:")
		fmt.Fprintln(w, "========================================")
		for _, p := range c.Positions {
			fmt.Fprintf(w, "  %-8s %6.2f%%  (%s)\n", p.Ticker, 100*p.Weight, p.AssetType)
		}
		fmt.Fprintln(w, "----------------------------------------")
		fmt.Fprintf(w, "  %-8s %6.2f%%\n", "Total", 100*c.Total)
		fmt.Fprintf(w, "\n  Growth cap: %.0f%%\n", 100*c.Cap)
		_, err := fmt.Fprintf(w, "  Remaining:  %.2f%%\n", 100*c.Remaining())
		return err
	})
}

func runStrategyAdd(cmd *cobra.Command, _ []string) error {
	b, ed, err := loadEditor()
	if err != nil {
		return err
	}
	r, err := ed.Add(strategyTicker, strategyWeight, universe.AssetType(strategyAssetType))
	if err != nil {
		return err
	}
	return saveEdit(cmd, b, r)
}

func runStrategyRemove(cmd *cobra.Command, _ []string) error {
	b, ed, err := loadEditor()
	if err != nil {
		return err
	}
	r, err := ed.Remove(strategyTicker)
	if err != nil {
		return err
	}
	return saveEdit(cmd, b, r)
}

func runStrategyRotate(cmd *cobra.Command, _ []string) error {
	b, ed, err := loadEditor()
	if err != nil {
		return err
	}
	r, err := ed.Rotate(strategyFrom, strategyTo, strategyWeight)
	if err != nil {
		return err
	}
	return saveEdit(cmd, b, r)
}

// saveEdit writes the override layer and, when the edit introduced a ticker,
// the extended asset universe.
func saveEdit(cmd *cobra.Command, b *config.Bundle, r strategy.Result) error {
	ps := paths()
	if r.Universe.Len() != b.Universe.Len() {
		if err := config.SaveUniverse(ps.Universe, r.Universe, b.BaseTargets); err != nil {
			return fmt.Errorf("save universe: %w", err)
		}
	}
	if err := config.SaveOverrides(ps.Overrides, b.BaseTargets, r.Targets); err != nil {
		return fmt.Errorf("save overrides: %w", err)
	}
	log.Info().Str("file", ps.Overrides).Float64("sum", r.Sum()).Msg("targets updated")

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, r.Message)
	if s := r.Sum(); s > 1+1e-6 {
		fmt.Fprintf(out, "Note: targets now sum to %.2f%%; reduce another position before planning.\n", 100*s)
	}
	_, err := fmt.Fprintf(out, "\nUpdated targets saved to %s\n", ps.Overrides)
	return err
}
