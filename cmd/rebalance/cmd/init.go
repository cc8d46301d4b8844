package cmd

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/rustyeddy/rebalance/planner"
	"github.com/rustyeddy/rebalance/trade"
	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Plan the initial investment of a new household",
	Long: `Invest fresh cash into the resolved targets, placing each asset in its
preferred account kind and overflowing where cash runs out. Existing holdings
in accounts.yaml are ignored.

Without --account-cash the total is split between account kinds from the
targets' stabilizer and low tax-efficiency share.

Examples:
  rebalance init --total 1000000
  rebalance init --account-cash 401k=400000 --account-cash taxable=600000`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

var (
	initTotal       float64
	initAccountCash []string
	initExplain     bool
)

func init() {
	rootCmd.AddCommand(initCmd)

	initCmd.Flags().Float64VarP(&initTotal, "total", "t", 0, "total cash to invest")
	initCmd.Flags().StringArrayVar(&initAccountCash, "account-cash", nil, "cash for one account as id=amount (repeatable)")
	initCmd.Flags().BoolVarP(&initExplain, "explain", "x", false, "include the reason for each trade")
}

func parseAccountCash(items []string) (map[string]float64, error) {
	out := map[string]float64{}
	for _, item := range items {
		id, amt, ok := strings.Cut(item, "=")
		if !ok || strings.TrimSpace(id) == "" {
			return nil, fmt.Errorf("invalid --account-cash %q: expected account_id=amount", item)
		}
		v, err := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(amt), ",", ""), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid --account-cash %q: %w", item, err)
		}
		out[strings.TrimSpace(id)] = v
	}
	return out, nil
}

func runInit(cmd *cobra.Command, _ []string) error {
	b, err := loadBundle()
	if err != nil {
		return err
	}
	e, _, err := newEngine(b, false)
	if err != nil {
		return err
	}

	targets := b.Targets()
	cash, err := parseAccountCash(initAccountCash)
	if err != nil {
		return err
	}
	switch {
	case len(cash) > 0:
		var sum float64
		for _, v := range cash {
			sum += v
		}
		if initTotal > 0 && math.Abs(sum-initTotal) > 0.005 {
			return fmt.Errorf("account cash total ($%s) != --total ($%s)", trade.Dollars(sum), trade.Dollars(initTotal))
		}
	case initTotal > 0:
		cash = planner.SplitCash(initTotal, b.Accounts, targets, b.Universe, b.Policy)
	default:
		return fmt.Errorf("give --total or at least one --account-cash")
	}

	alloc, err := e.Init(cmd.Context(), b.Accounts, cash, targets, b.Universe)
	if err != nil {
		return err
	}
	return render(cmd.OutOrStdout(), alloc, func(w io.Writer) error {
		return writeAllocation(w, alloc, initExplain)
	})
}

func writeAllocation(w io.Writer, alloc *planner.Allocation, explain bool) error {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Initial Portfolio Allocation: $%s\n", trade.Dollars(alloc.Total))
	sb.WriteString(strings.Repeat("=", 50) + "\n")

	sb.WriteString("\nAccount Cash Distribution:\n")
	for _, id := range sortedKeys(alloc.Cash) {
		fmt.Fprintf(&sb, "  %s: $%s\n", id, trade.Dollars(alloc.Cash[id]))
	}

	sb.WriteString("\nSummary:\n  by_account:\n")
	for _, id := range sortedKeys(alloc.ByAccount) {
		fmt.Fprintf(&sb, "    %s: $%s\n", id, trade.Dollars(alloc.ByAccount[id]))
	}
	sb.WriteString("  by_ticker:\n")
	for _, t := range sortedKeys(alloc.ByTicker) {
		fmt.Fprintf(&sb, "    %s: $%s\n", t, trade.Dollars(alloc.ByTicker[t]))
	}

	if len(alloc.Warnings) > 0 {
		sb.WriteString("\nWarnings:\n")
		for _, warn := range alloc.Warnings {
			fmt.Fprintf(&sb, "  - %s\n", warn)
		}
	}

	if len(alloc.Trades) == 0 {
		sb.WriteString("\nNo trades generated.\n")
	} else {
		sb.WriteString("\nTrades:\n")
		for _, t := range alloc.Trades {
			line := t.String()
			if explain {
				line = t.Explained()
			}
			fmt.Fprintf(&sb, "  %s\n", line)
		}
	}
	_, err := io.WriteString(w, sb.String())
	return err
}

func sortedKeys(m map[string]float64) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
