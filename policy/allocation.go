package policy

import (
	"github.com/rustyeddy/rebalance/config"
	"github.com/rustyeddy/rebalance/portfolio"
	"github.com/rustyeddy/rebalance/universe"
)

// Allocation checks the core floor and the growth cap.
func Allocation(p *portfolio.Portfolio, cfg config.Policy) ([]Violation, error) {
	core, err := p.SleeveWeight(universe.Core)
	if err != nil {
		return nil, err
	}
	growth, err := p.SleeveWeight(universe.Growth)
	if err != nil {
		return nil, err
	}

	var out []Violation
	if core < cfg.Sleeves.CoreMin {
		out = append(out, Violation{
			Kind:    CoreBelowMin,
			Tickers: heldWhere(p, func(m universe.AssetMeta) bool { return m.Sleeve == universe.Core }),
			Current: core,
			Limit:   cfg.Sleeves.CoreMin,
		})
	}
	if growth > cfg.Sleeves.GrowthMax {
		out = append(out, Violation{
			Kind:    GrowthAboveMax,
			Tickers: heldWhere(p, func(m universe.AssetMeta) bool { return m.Sleeve == universe.Growth }),
			Current: growth,
			Limit:   cfg.Sleeves.GrowthMax,
		})
	}
	return out, nil
}

// heldWhere lists the held tickers whose metadata matches, sorted.
func heldWhere(p *portfolio.Portfolio, match func(universe.AssetMeta) bool) []string {
	u := p.Universe()
	var out []string
	for _, t := range p.Tickers() {
		if p.Value(t) > 0 && match(u.Meta(t)) {
			out = append(out, t)
		}
	}
	return out
}
