// Package drift compares current weights with target weights.
package drift

import (
	"math"
	"sort"

	"github.com/rustyeddy/rebalance/config"
	"github.com/rustyeddy/rebalance/portfolio"
)

// Flag is the drift of one ticker. RelativeDrift is zero when the target is
// zero; such tickers are judged by the absolute band alone.
type Flag struct {
	Ticker           string  `json:"ticker" yaml:"ticker"`
	CurrentWeight    float64 `json:"current_weight" yaml:"current_weight"`
	TargetWeight     float64 `json:"target_weight" yaml:"target_weight"`
	AbsoluteDrift    float64 `json:"absolute_drift" yaml:"absolute_drift"`
	RelativeDrift    float64 `json:"relative_drift" yaml:"relative_drift"`
	ExceedsThreshold bool    `json:"exceeds_threshold" yaml:"exceeds_threshold"`
}

// Overweight reports whether the ticker is held above its target.
func (f Flag) Overweight() bool { return f.AbsoluteDrift > 0 }

// Measure computes the drift of a single ticker against the policy's bands.
func Measure(ticker string, current, target float64, bands config.RebalanceConfig) Flag {
	f := Flag{
		Ticker:        ticker,
		CurrentWeight: current,
		TargetWeight:  target,
		AbsoluteDrift: current - target,
	}
	if target > 0 {
		f.RelativeDrift = f.AbsoluteDrift / target
	}
	// tolerate representation error at the band edge so 0.15-0.10 counts as 0.05
	const eps = 1e-9
	f.ExceedsThreshold = math.Abs(f.AbsoluteDrift) >= bands.DriftAbsolute-eps ||
		(target > 0 && math.Abs(f.RelativeDrift) >= bands.DriftRelative-eps)
	return f
}

// Detect measures every ticker that is held or targeted. Flags are ordered by
// descending |absolute drift|, ties broken alphabetically. Both flagged and
// unflagged tickers are returned; use Exceeding to keep the flagged ones.
func Detect(p *portfolio.Portfolio, targets portfolio.TargetWeights, cfg config.Policy) ([]Flag, error) {
	weights, err := p.Weights()
	if err != nil {
		return nil, err
	}

	seen := map[string]bool{}
	for t := range weights {
		seen[t] = true
	}
	for t := range targets {
		seen[t] = true
	}

	out := make([]Flag, 0, len(seen))
	for t := range seen {
		out = append(out, Measure(t, weights[t], targets[t], cfg.Rebalance))
	}
	Sort(out)
	return out, nil
}

// Sort orders flags by descending |absolute drift|, then ticker. Magnitudes
// are compared at 1e-12 so representation noise does not defeat the tie-break.
func Sort(flags []Flag) {
	sort.Slice(flags, func(i, j int) bool {
		ai, aj := magnitude(flags[i]), magnitude(flags[j])
		if ai != aj {
			return ai > aj
		}
		return flags[i].Ticker < flags[j].Ticker
	})
}

// Exceeding returns the flags past a drift band, preserving order.
func Exceeding(flags []Flag) []Flag {
	var out []Flag
	for _, f := range flags {
		if f.ExceedsThreshold {
			out = append(out, f)
		}
	}
	return out
}

func magnitude(f Flag) float64 {
	return math.Round(math.Abs(f.AbsoluteDrift)*1e12) / 1e12
}
