package policy

import (
	"github.com/rustyeddy/rebalance/config"
	"github.com/rustyeddy/rebalance/portfolio"
	"github.com/rustyeddy/rebalance/universe"
)

// IsConcentrationLimited reports whether the single-stock limit applies to a
// ticker: individual stocks in the growth sleeve.
func IsConcentrationLimited(m universe.AssetMeta) bool {
	return m.Sleeve == universe.Growth && m.AssetType == universe.Stock
}

// Growth checks single-stock concentration, the leveraged prohibition and the
// exclusive pair.
func Growth(p *portfolio.Portfolio, cfg config.Policy) ([]Violation, error) {
	weights, err := p.Weights()
	if err != nil {
		return nil, err
	}
	u := p.Universe()

	var out []Violation
	for _, t := range p.Tickers() {
		w := weights[t]
		if w <= 0 {
			continue
		}
		m := u.Meta(t)
		if cfg.Growth.ProhibitLeveraged && m.Leveraged {
			out = append(out, Violation{Kind: LeveragedAssetHeld, Tickers: []string{t}, Current: w})
		}
		if IsConcentrationLimited(m) && w > cfg.Growth.MaxSingleStockWeight {
			out = append(out, Violation{
				Kind:    SingleStockOverweight,
				Tickers: []string{t},
				Current: w,
				Limit:   cfg.Growth.MaxSingleStockWeight,
			})
		}
	}

	if cfg.Growth.QQQOrSPYGExclusive {
		pair := cfg.Pair()
		a, b := weights[pair[0]], weights[pair[1]]
		if a > 0 && b > 0 {
			out = append(out, Violation{
				Kind:    ExclusivityBreach,
				Tickers: []string{pair[0], pair[1]},
				Current: a + b,
			})
		}
	}
	return out, nil
}

// Validate runs the allocation, risk and growth checks and returns every
// violation ordered by severity.
func Validate(p *portfolio.Portfolio, cfg config.Policy) ([]Violation, error) {
	var out []Violation
	for _, check := range []func(*portfolio.Portfolio, config.Policy) ([]Violation, error){
		Growth, Allocation, Risk,
	} {
		vs, err := check(p, cfg)
		if err != nil {
			return nil, err
		}
		out = append(out, vs...)
	}
	Sort(out)
	return out, nil
}
