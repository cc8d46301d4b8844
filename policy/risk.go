package policy

import (
	"sort"

	"github.com/rustyeddy/rebalance/config"
	"github.com/rustyeddy/rebalance/portfolio"
	"github.com/rustyeddy/rebalance/universe"
)

// IsStabilizer reports whether a ticker counts toward the stabilizer floor:
// it must be flagged in the universe and, when the policy lists stabilizer
// tickers, also appear in that list.
func IsStabilizer(m universe.AssetMeta, cfg config.Policy) bool {
	if !m.Stabilizer {
		return false
	}
	if len(cfg.Stabilizer.Tickers) == 0 {
		return true
	}
	return cfg.IsStabilizerTicker(m.Ticker)
}

// StabilizerWeight is the combined weight of the stabilizer holdings.
func StabilizerWeight(p *portfolio.Portfolio, cfg config.Policy) (float64, error) {
	return p.WeightWhere(func(m universe.AssetMeta) bool { return IsStabilizer(m, cfg) })
}

// StabilizerTickers lists every ticker, described or held, that counts toward
// the floor.
func StabilizerTickers(p *portfolio.Portfolio, cfg config.Policy) []string {
	u := p.Universe()
	set := map[string]bool{}
	for _, t := range u.Tickers() {
		if IsStabilizer(u.Meta(t), cfg) {
			set[t] = true
		}
	}
	for _, t := range p.Tickers() {
		if IsStabilizer(u.Meta(t), cfg) {
			set[t] = true
		}
	}
	out := make([]string, 0, len(set))
	for t := range set {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Risk checks the stabilizer floor.
func Risk(p *portfolio.Portfolio, cfg config.Policy) ([]Violation, error) {
	w, err := StabilizerWeight(p, cfg)
	if err != nil {
		return nil, err
	}
	if w >= cfg.Stabilizer.MinPctTotal {
		return nil, nil
	}
	return []Violation{{
		Kind:    StabilizerBelowMin,
		Tickers: StabilizerTickers(p, cfg),
		Current: w,
		Limit:   cfg.Stabilizer.MinPctTotal,
	}}, nil
}
