package cmd

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/rustyeddy/rebalance/drift"
	"github.com/spf13/cobra"
)

var driftCmd = &cobra.Command{
	Use:   "drift",
	Short: "Show current and target weights per ticker",
	Args:  cobra.NoArgs,
	RunE:  runDrift,
}

var driftAll bool

func init() {
	rootCmd.AddCommand(driftCmd)
	driftCmd.Flags().BoolVarP(&driftAll, "all", "a", false, "include tickers within the drift bands")
}

func runDrift(cmd *cobra.Command, _ []string) error {
	b, err := loadBundle()
	if err != nil {
		return err
	}
	p, err := b.Portfolio()
	if err != nil {
		return fmt.Errorf("portfolio: %w", err)
	}
	e, _, err := newEngine(b, false)
	if err != nil {
		return err
	}
	flags, err := e.DetectDrift(p, b.Targets())
	if err != nil {
		return err
	}
	if !driftAll {
		flags = drift.Exceeding(flags)
	}
	if flags == nil {
		flags = []drift.Flag{}
	}

	return render(cmd.OutOrStdout(), flags, func(w io.Writer) error {
		if len(flags) == 0 {
			_, err := fmt.Fprintln(w, "All tickers within drift bands.")
			return err
		}
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
		fmt.Fprintln(tw, "TICKER\tCURRENT\tTARGET\tABS\tREL\tFLAG\t")
		for _, f := range flags {
			mark := ""
			if f.ExceedsThreshold {
				mark = "*"
			}
			fmt.Fprintf(tw, "%s\t%.2f%%\t%.2f%%\t%+.2f%%\t%+.1f%%\t%s\t\n",
				f.Ticker, 100*f.CurrentWeight, 100*f.TargetWeight,
				100*f.AbsoluteDrift, 100*f.RelativeDrift, mark)
		}
		return tw.Flush()
	})
}
