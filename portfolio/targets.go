package portfolio

import (
	"math"
	"sort"

	"github.com/rustyeddy/rebalance/errs"
)

// SumTolerance is how far the sum of a target set may stray from 1.0.
const SumTolerance = 1e-6

// TargetWeights maps ticker to its target share of the portfolio.
type TargetWeights map[string]float64

// Get returns the target for ticker, zero when it has none.
func (t TargetWeights) Get(ticker string) float64 {
	return t[ticker]
}

func (t TargetWeights) Sum() float64 {
	return sumSorted(t)
}

// Tickers returns the targeted tickers, sorted.
func (t TargetWeights) Tickers() []string {
	return sortedKeys(t)
}

func (t TargetWeights) Clone() TargetWeights {
	out := make(TargetWeights, len(t))
	for k, v := range t {
		out[k] = v
	}
	return out
}

// Validate checks that every weight lies in [0,1] and that the set sums to
// 1.0 within SumTolerance.
func (t TargetWeights) Validate() error {
	if len(t) == 0 {
		return errs.Configuration("no target weights")
	}
	for _, k := range t.Tickers() {
		w := t[k]
		if math.IsNaN(w) || w < 0 || w > 1 {
			return errs.Configuration("target weight for %s is %v, want [0,1]", k, w)
		}
	}
	if s := t.Sum(); math.Abs(s-1.0) > SumTolerance {
		return errs.Configuration("target weights sum to %.6f, want 1.0", s)
	}
	return nil
}

// ResolveTargets merges an override layer onto base. Overrides replace the
// base weight for the tickers they name and may introduce new tickers. Neither
// input is modified.
func ResolveTargets(base, overrides TargetWeights) TargetWeights {
	out := base.Clone()
	for k, v := range overrides {
		out[k] = v
	}
	return out
}

// DiffTargets returns the override layer that turns base into resolved: every
// ticker whose weight differs by more than SumTolerance.
func DiffTargets(base, resolved TargetWeights) TargetWeights {
	out := TargetWeights{}
	keys := make(map[string]bool, len(base)+len(resolved))
	for k := range base {
		keys[k] = true
	}
	for k := range resolved {
		keys[k] = true
	}
	names := make([]string, 0, len(keys))
	for k := range keys {
		names = append(names, k)
	}
	sort.Strings(names)
	for _, k := range names {
		if math.Abs(resolved[k]-base[k]) > SumTolerance {
			out[k] = resolved[k]
		}
	}
	return out
}
