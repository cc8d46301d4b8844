// Package planner turns violations and drift flags into account-level trades.
//
// A plan is built in two phases against a working copy of the household:
// first the trades that clear policy violations, most severe first, then the
// trades that close drift, in flag order. Drift sells are applied before drift
// buys so their proceeds fund them. Buys follow asset location and sells
// follow the taxable-sell-last rule. Every trade leaves with its reason
// attached.
package planner

import (
	"fmt"
	"strings"

	"github.com/rustyeddy/rebalance/config"
	"github.com/rustyeddy/rebalance/drift"
	"github.com/rustyeddy/rebalance/errs"
	"github.com/rustyeddy/rebalance/explain"
	"github.com/rustyeddy/rebalance/policy"
	"github.com/rustyeddy/rebalance/portfolio"
	"github.com/rustyeddy/rebalance/trade"
)

type Mode string

const (
	Strict       Mode = "strict"
	Conservative Mode = "conservative"
)

// ParseMode accepts a mode name in any case.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case Strict, Conservative:
		return m, nil
	}
	return "", errs.Configuration("unknown planning mode %q (want strict or conservative)", s)
}

// Input is everything a plan is computed from. None of it is modified.
type Input struct {
	Portfolio  *portfolio.Portfolio
	Targets    portfolio.TargetWeights
	Violations []policy.Violation
	Flags      []drift.Flag
	Policy     config.Policy
}

// Strategy decides which corrections a planning mode makes.
type Strategy interface {
	Mode() Mode
	Plan(in Input) ([]trade.Trade, error)
}

// StrictStrategy closes every flagged drift in both directions.
type StrictStrategy struct{}

func (StrictStrategy) Mode() Mode { return Strict }

func (StrictStrategy) Plan(in Input) ([]trade.Trade, error) {
	return run(in, true)
}

// ConservativeStrategy clears violations and buys toward target. Its only
// sells are the ones clearing a violation; drift alone never sells.
type ConservativeStrategy struct{}

func (ConservativeStrategy) Mode() Mode { return Conservative }

func (ConservativeStrategy) Plan(in Input) ([]trade.Trade, error) {
	return run(in, false)
}

// For returns the strategy implementing mode.
func For(mode Mode) (Strategy, error) {
	switch mode {
	case Strict:
		return StrictStrategy{}, nil
	case Conservative:
		return ConservativeStrategy{}, nil
	}
	return nil, errs.Configuration("unknown planning mode %q", mode)
}

// Plan computes the trades for one planning pass.
func Plan(
	p *portfolio.Portfolio,
	targets portfolio.TargetWeights,
	violations []policy.Violation,
	flags []drift.Flag,
	cfg config.Policy,
	mode Mode,
) ([]trade.Trade, error) {
	s, err := For(mode)
	if err != nil {
		return nil, err
	}
	return s.Plan(Input{
		Portfolio:  p,
		Targets:    targets,
		Violations: violations,
		Flags:      flags,
		Policy:     cfg,
	})
}

func run(in Input, driftSells bool) ([]trade.Trade, error) {
	if in.Portfolio == nil {
		return nil, errs.State("no portfolio")
	}
	b, err := newBook(in.Portfolio, in.Policy)
	if err != nil {
		return nil, err
	}
	if err := in.Targets.Validate(); err != nil {
		return nil, err
	}

	vs := append([]policy.Violation(nil), in.Violations...)
	policy.Sort(vs)
	for _, v := range vs {
		if err := b.resolve(v, in.Targets); err != nil {
			return nil, fmt.Errorf("resolving %s: %w", v.Kind, err)
		}
	}

	if err := b.closeDrift(in.Flags, driftSells); err != nil {
		return nil, err
	}
	return b.trades, nil
}

// want is the remaining dollar drift of a flagged ticker. The flag fixes the
// starting point; trades already made for the ticker in this pass count
// toward it.
func (b *book) want(f drift.Flag) float64 {
	return (f.TargetWeight-f.CurrentWeight)*b.total - b.moved[f.Ticker]
}

// closeDrift trades every flagged ticker toward target. Sells run first so
// their proceeds count as capacity for the buys, then the drift trades are
// put back in flag order.
func (b *book) closeDrift(flags []drift.Flag, sells bool) error {
	start := len(b.trades)
	made := map[string][]trade.Trade{}

	var buys []drift.Flag
	for _, f := range flags {
		if !f.ExceedsThreshold {
			continue
		}
		w := b.want(f)
		if w > 0 {
			buys = append(buys, f)
			continue
		}
		if !sells || -w < b.minTrade() {
			continue
		}
		n := len(b.trades)
		if err := b.sell(f.Ticker, -w, b.policy.Taxable.BuyFirstSellLast, explain.Cause{}); err != nil {
			return fmt.Errorf("correcting drift in %s: %w", f.Ticker, err)
		}
		made[f.Ticker] = append(made[f.Ticker], b.trades[n:]...)
	}

	for _, f := range buys {
		w := b.room(f.Ticker, b.want(f))
		if w < b.minTrade() {
			continue
		}
		n := len(b.trades)
		b.buy(f.Ticker, w, explain.Cause{})
		made[f.Ticker] = append(made[f.Ticker], b.trades[n:]...)
	}

	out := append([]trade.Trade(nil), b.trades[:start]...)
	for _, f := range flags {
		out = append(out, made[f.Ticker]...)
		delete(made, f.Ticker)
	}
	b.trades = out
	return nil
}
