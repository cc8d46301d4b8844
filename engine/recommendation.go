package engine

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rustyeddy/rebalance/config"
	"github.com/rustyeddy/rebalance/drift"
	"github.com/rustyeddy/rebalance/planner"
	"github.com/rustyeddy/rebalance/policy"
	"github.com/rustyeddy/rebalance/portfolio"
	"github.com/rustyeddy/rebalance/trade"
	"github.com/rustyeddy/rebalance/universe"
	"github.com/shopspring/decimal"
)

// Recommendation is the outcome of one planning pass.
type Recommendation struct {
	RunID          string             `json:"run_id" yaml:"run_id"`
	Mode           planner.Mode       `json:"mode" yaml:"mode"`
	Created        time.Time          `json:"created" yaml:"created"`
	TotalValue     float64            `json:"total_value" yaml:"total_value"`
	Cash           float64            `json:"cash" yaml:"cash"`
	Trades         []trade.Trade      `json:"trades" yaml:"trades"`
	Violations     []policy.Violation `json:"violations,omitempty" yaml:"violations,omitempty"`
	Flags          []drift.Flag       `json:"flags,omitempty" yaml:"flags,omitempty"`
	TargetWarnings []policy.Violation `json:"target_warnings,omitempty" yaml:"target_warnings,omitempty"`
	Summary        Summary            `json:"summary" yaml:"summary"`
}

type Summary struct {
	TotalValue       float64      `json:"total_value" yaml:"total_value"`
	StabilizerWeight float64      `json:"stabilizer_weight" yaml:"stabilizer_weight"`
	CoreWeight       float64      `json:"core_weight" yaml:"core_weight"`
	GrowthWeight     float64      `json:"growth_weight" yaml:"growth_weight"`
	DriftedTickers   []string     `json:"drifted_tickers" yaml:"drifted_tickers"`
	TradeCount       int          `json:"num_trades" yaml:"num_trades"`
	Buys             float64      `json:"buys" yaml:"buys"`
	Sells            float64      `json:"sells" yaml:"sells"`
	Mode             planner.Mode `json:"mode" yaml:"mode"`
}

func summarize(p *portfolio.Portfolio, rec *Recommendation, cfg config.Policy) (Summary, error) {
	stab, err := policy.StabilizerWeight(p, cfg)
	if err != nil {
		return Summary{}, err
	}
	core, err := p.SleeveWeight(universe.Core)
	if err != nil {
		return Summary{}, err
	}
	growth, err := p.SleeveWeight(universe.Growth)
	if err != nil {
		return Summary{}, err
	}

	drifted := []string{}
	for _, f := range drift.Exceeding(rec.Flags) {
		drifted = append(drifted, f.Ticker)
	}
	buys, sells := trade.Totals(rec.Trades)
	return Summary{
		TotalValue:       rec.TotalValue,
		StabilizerWeight: stab,
		CoreWeight:       core,
		GrowthWeight:     growth,
		DriftedTickers:   drifted,
		TradeCount:       len(rec.Trades),
		Buys:             buys,
		Sells:            sells,
		Mode:             rec.Mode,
	}, nil
}

// Warnings is every violation and advisory target finding as display text.
func (r *Recommendation) Warnings() []string {
	out := make([]string, 0, len(r.Violations)+len(r.TargetWarnings))
	for _, v := range r.Violations {
		out = append(out, v.String())
	}
	for _, v := range r.TargetWarnings {
		out = append(out, "Target: "+v.String())
	}
	return out
}

// WriteText writes the human-readable report. With explain set each trade
// carries its reason.
func (r *Recommendation) WriteText(w io.Writer, explain bool) error {
	var b strings.Builder
	fmt.Fprintf(&b, "Rebalance Recommendation (mode: %s)\n", r.Mode)
	b.WriteString(strings.Repeat("=", 50) + "\n")
	fmt.Fprintf(&b, "Run: %s\n", r.RunID)

	s := r.Summary
	b.WriteString("\nSummary:\n")
	fmt.Fprintf(&b, "  total_value: $%s\n", trade.Dollars(s.TotalValue))
	fmt.Fprintf(&b, "  cash: $%s\n", trade.Dollars(r.Cash))
	fmt.Fprintf(&b, "  stabilizer_weight: %.2f%%\n", 100*s.StabilizerWeight)
	fmt.Fprintf(&b, "  core_weight: %.2f%%\n", 100*s.CoreWeight)
	fmt.Fprintf(&b, "  growth_weight: %.2f%%\n", 100*s.GrowthWeight)
	fmt.Fprintf(&b, "  drifted_assets: [%s]\n", strings.Join(s.DriftedTickers, ", "))
	fmt.Fprintf(&b, "  num_trades: %d\n", s.TradeCount)

	if ws := r.Warnings(); len(ws) > 0 {
		b.WriteString("\nWarnings:\n")
		for _, w := range ws {
			fmt.Fprintf(&b, "  - %s\n", w)
		}
	}

	if len(r.Trades) == 0 {
		b.WriteString("\nNo trades recommended (within drift bands).\n")
	} else {
		b.WriteString("\nTrades:\n")
		for _, t := range r.Trades {
			line := t.String()
			if explain {
				line = t.Explained()
			}
			fmt.Fprintf(&b, "  %s\n", line)
		}
		fmt.Fprintf(&b, "\n  buys $%s, sells $%s\n", trade.Dollars(s.Buys), trade.Dollars(s.Sells))
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func money(x float64) decimal.Decimal {
	return decimal.NewFromFloat(x).Round(2)
}
