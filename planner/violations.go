package planner

import (
	"sort"

	"github.com/rustyeddy/rebalance/explain"
	"github.com/rustyeddy/rebalance/policy"
	"github.com/rustyeddy/rebalance/portfolio"
	"github.com/rustyeddy/rebalance/universe"
)

// resolve emits the trades that clear one violation, sized against the
// working copy so earlier trades are not repeated.
func (b *book) resolve(v policy.Violation, targets portfolio.TargetWeights) error {
	cause := explain.Cause{Violation: v.Kind}
	cfg := b.policy

	switch v.Kind {
	case policy.LeveragedAssetHeld:
		for _, t := range v.Tickers {
			if err := b.sell(t, b.held(t), false, cause); err != nil {
				return err
			}
			b.capTo(t, 0)
		}

	case policy.ExclusivityBreach:
		if len(v.Tickers) != 2 {
			return nil
		}
		loser, keep := b.exclusiveLoser(v.Tickers[0], v.Tickers[1], targets)
		if b.held(keep) <= 0 {
			return nil
		}
		cause.Counterpart = keep
		b.capTo(loser, 0)
		return b.sell(loser, b.held(loser), false, cause)

	case policy.SingleStockOverweight:
		t := v.Ticker()
		limit := cfg.Growth.MaxSingleStockWeight * b.total
		b.capTo(t, limit)
		return b.sell(t, b.held(t)-limit, false, cause)

	case policy.GrowthAboveMax:
		isGrowth := func(m universe.AssetMeta) bool { return m.Sleeve == universe.Growth }
		excess := b.heldWhere(isGrowth) - cfg.Sleeves.GrowthMax*b.total
		if excess <= halfCent {
			return nil
		}
		sell := func(t string, amt float64) error {
			if err := b.sell(t, amt, cfg.Taxable.BuyFirstSellLast, cause); err != nil {
				return err
			}
			excess -= amt
			b.capTo(t, b.held(t))
			return nil
		}
		// Positions past trim_multiple_of_target times their target go first.
		if m := cfg.Growth.TrimMultipleOfTarget; m > 0 {
			for _, t := range b.largestFirst(v.Tickers) {
				over := b.held(t) - m*targets.Get(t)*b.total
				if excess <= halfCent || over <= halfCent {
					continue
				}
				if err := sell(t, minf(excess, over)); err != nil {
					return err
				}
			}
		}
		for _, t := range b.largestFirst(v.Tickers) {
			if excess <= halfCent {
				break
			}
			if err := sell(t, minf(excess, b.held(t))); err != nil {
				return err
			}
		}

	case policy.CoreBelowMin:
		isCore := func(m universe.AssetMeta) bool { return m.Sleeve == universe.Core }
		shortfall := cfg.Sleeves.CoreMin*b.total - b.heldWhere(isCore)
		b.fill(shortfall, b.underweight(targets, isCore), targets, cause)

	case policy.StabilizerBelowMin:
		isStab := func(m universe.AssetMeta) bool { return policy.IsStabilizer(m, cfg) }
		shortfall := cfg.Stabilizer.MinPctTotal*b.total - b.heldWhere(isStab)
		b.fill(shortfall, b.underweight(targets, isStab), targets, cause)
	}
	return nil
}

// exclusiveLoser picks the pair member to sell: the lower target weight, then
// the smaller position, then the alphabetically later ticker.
func (b *book) exclusiveLoser(x, y string, targets portfolio.TargetWeights) (loser, keep string) {
	tx, ty := targets.Get(x), targets.Get(y)
	switch {
	case tx < ty:
		return x, y
	case ty < tx:
		return y, x
	}
	hx, hy := b.held(x), b.held(y)
	switch {
	case hx < hy:
		return x, y
	case hy < hx:
		return y, x
	}
	if x > y {
		return x, y
	}
	return y, x
}

// largestFirst orders tickers by descending working value, then name.
func (b *book) largestFirst(tickers []string) []string {
	out := append([]string(nil), tickers...)
	sort.SliceStable(out, func(i, j int) bool {
		hi, hj := b.held(out[i]), b.held(out[j])
		if hi != hj {
			return hi > hj
		}
		return out[i] < out[j]
	})
	return out
}

// underweight returns the targeted tickers matching class that sit below
// their target value, largest gap first.
func (b *book) underweight(targets portfolio.TargetWeights, class func(universe.AssetMeta) bool) []string {
	var out []string
	for _, t := range targets.Tickers() {
		if class(b.universe.Meta(t)) && b.gap(t, targets) > halfCent {
			out = append(out, t)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		gi, gj := b.gap(out[i], targets), b.gap(out[j], targets)
		if gi != gj {
			return gi > gj
		}
		return out[i] < out[j]
	})
	return out
}

func (b *book) gap(ticker string, targets portfolio.TargetWeights) float64 {
	return targets.Get(ticker)*b.total - b.held(ticker)
}

// fill buys toward target across tickers until shortfall is covered.
func (b *book) fill(shortfall float64, tickers []string, targets portfolio.TargetWeights, cause explain.Cause) {
	for _, t := range tickers {
		if shortfall <= halfCent {
			return
		}
		amt := b.room(t, minf(shortfall, b.gap(t, targets)))
		if amt <= halfCent {
			continue
		}
		b.buy(t, amt, cause)
		shortfall -= amt
	}
}
