package policy

import (
	"github.com/rustyeddy/rebalance/config"
	"github.com/rustyeddy/rebalance/errs"
	"github.com/rustyeddy/rebalance/portfolio"
	"github.com/rustyeddy/rebalance/universe"
)

// ValidateTargets checks a target set before it is planned against. A set
// that does not sum to one, caps growth above growth_max or floors core below
// core_min is a ConfigurationError. Targets that would themselves break a
// position rule are returned as advisory violations.
func ValidateTargets(targets portfolio.TargetWeights, u universe.Universe, cfg config.Policy) ([]Violation, error) {
	if err := targets.Validate(); err != nil {
		return nil, err
	}

	var core, growth, stab float64
	var out []Violation
	for _, t := range targets.Tickers() {
		w := targets[t]
		m := u.Meta(t)
		switch m.Sleeve {
		case universe.Core:
			core += w
		case universe.Growth:
			growth += w
		}
		if IsStabilizer(m, cfg) {
			stab += w
		}
		if w <= 0 {
			continue
		}
		if cfg.Growth.ProhibitLeveraged && m.Leveraged {
			out = append(out, Violation{Kind: LeveragedAssetHeld, Tickers: []string{t}, Current: w})
		}
		if IsConcentrationLimited(m) && w > cfg.Growth.MaxSingleStockWeight+portfolio.SumTolerance {
			out = append(out, Violation{Kind: SingleStockOverweight, Tickers: []string{t}, Current: w, Limit: cfg.Growth.MaxSingleStockWeight})
		}
	}

	if growth > cfg.Sleeves.GrowthMax+portfolio.SumTolerance {
		return nil, errs.Configuration("target growth sleeve %.4f exceeds growth_max %.4f", growth, cfg.Sleeves.GrowthMax)
	}
	if core < cfg.Sleeves.CoreMin-portfolio.SumTolerance {
		return nil, errs.Configuration("target core sleeve %.4f below core_min %.4f", core, cfg.Sleeves.CoreMin)
	}

	if stab < cfg.Stabilizer.MinPctTotal-portfolio.SumTolerance {
		out = append(out, Violation{Kind: StabilizerBelowMin, Current: stab, Limit: cfg.Stabilizer.MinPctTotal})
	}
	if cfg.Growth.QQQOrSPYGExclusive {
		pair := cfg.Pair()
		if a, b := targets[pair[0]], targets[pair[1]]; a > 0 && b > 0 {
			out = append(out, Violation{Kind: ExclusivityBreach, Tickers: []string{pair[0], pair[1]}, Current: a + b})
		}
	}
	Sort(out)
	return out, nil
}
