package planner

import (
	"testing"

	"github.com/rustyeddy/rebalance/config"
	"github.com/rustyeddy/rebalance/drift"
	"github.com/rustyeddy/rebalance/errs"
	"github.com/rustyeddy/rebalance/explain"
	"github.com/rustyeddy/rebalance/policy"
	"github.com/rustyeddy/rebalance/portfolio"
	"github.com/rustyeddy/rebalance/trade"
	"github.com/rustyeddy/rebalance/universe"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testUniverse() universe.Universe {
	return universe.MustNew(
		universe.AssetMeta{Ticker: "VTI", Sleeve: universe.Core, TaxEfficiency: universe.High},
		universe.AssetMeta{Ticker: "VXUS", Sleeve: universe.Core, TaxEfficiency: universe.High},
		universe.AssetMeta{Ticker: "BND", Sleeve: universe.Core, TaxEfficiency: universe.Low, Stabilizer: true},
		universe.AssetMeta{Ticker: "QQQ", Sleeve: universe.Growth, TaxEfficiency: universe.High},
		universe.AssetMeta{Ticker: "SPYG", Sleeve: universe.Growth, TaxEfficiency: universe.High},
		universe.AssetMeta{Ticker: "NVDA", Sleeve: universe.Growth, AssetType: universe.Stock, TaxEfficiency: universe.High},
		universe.AssetMeta{Ticker: "TQQQ", Sleeve: universe.Growth, TaxEfficiency: universe.High},
	)
}

func household(t *testing.T, taxAdv, taxable portfolio.Account) *portfolio.Portfolio {
	t.Helper()
	taxAdv.ID, taxAdv.Kind = "401k", portfolio.TaxAdvantaged
	taxable.ID, taxable.Kind = "taxable", portfolio.Taxable
	p, err := portfolio.New([]portfolio.Account{taxAdv, taxable}, testUniverse())
	require.NoError(t, err)
	return p
}

// planFor runs validation, drift detection and planning the way a caller
// would.
func planFor(t *testing.T, p *portfolio.Portfolio, targets portfolio.TargetWeights, cfg config.Policy, mode Mode) ([]trade.Trade, []policy.Violation) {
	t.Helper()
	vs, err := policy.Validate(p, cfg)
	require.NoError(t, err)
	flags, err := drift.Detect(p, targets, cfg)
	require.NoError(t, err)
	trades, err := Plan(p, targets, vs, flags, cfg, mode)
	require.NoError(t, err)
	return trades, vs
}

// applyTrades returns a copy of p with trades executed.
func applyTrades(t *testing.T, p *portfolio.Portfolio, trades []trade.Trade) *portfolio.Portfolio {
	t.Helper()
	accounts := p.Accounts()
	for _, tr := range trades {
		for i := range accounts {
			a := &accounts[i]
			if a.ID != tr.AccountID {
				continue
			}
			a.Holdings[tr.Ticker] += tr.Signed()
			a.Cash -= tr.Signed()
			if a.Cash < 0 {
				a.Cash = 0
			}
		}
	}
	out, err := portfolio.New(accounts, p.Universe())
	require.NoError(t, err)
	return out
}

var standardTargets = portfolio.TargetWeights{"BND": 0.15, "VTI": 0.60, "QQQ": 0.25}

func TestPlanAtTargetIsEmpty(t *testing.T) {
	t.Parallel()

	p := household(t,
		portfolio.Account{Holdings: map[string]float64{"BND": 150, "VTI": 250}},
		portfolio.Account{Cash: 1000, Holdings: map[string]float64{"VTI": 350, "QQQ": 250}},
	)
	for _, mode := range []Mode{Strict, Conservative} {
		trades, vs := planFor(t, p, standardTargets, *config.Default(), mode)
		assert.Empty(t, vs)
		assert.Empty(t, trades, "mode %s", mode)
	}
}

func TestPlanRejectsBadTargetSum(t *testing.T) {
	t.Parallel()

	p := household(t,
		portfolio.Account{Holdings: map[string]float64{"BND": 150, "VTI": 250}},
		portfolio.Account{Holdings: map[string]float64{"VTI": 350, "QQQ": 250}},
	)
	targets := portfolio.TargetWeights{"BND": 0.15, "VTI": 0.55, "QQQ": 0.25}
	for _, mode := range []Mode{Strict, Conservative} {
		_, err := Plan(p, targets, nil, nil, *config.Default(), mode)
		assert.True(t, errs.IsConfiguration(err), "mode %s", mode)
	}
}

func TestPlanZeroTotalIsStateError(t *testing.T) {
	t.Parallel()

	p := household(t, portfolio.Account{Cash: 100}, portfolio.Account{})
	_, err := Plan(p, standardTargets, nil, nil, *config.Default(), Strict)
	assert.True(t, errs.IsState(err))
}

func TestPlanUnknownMode(t *testing.T) {
	t.Parallel()

	_, err := ParseMode("aggressive")
	assert.True(t, errs.IsConfiguration(err))

	m, err := ParseMode(" Conservative ")
	require.NoError(t, err)
	assert.Equal(t, Conservative, m)

	s, err := For(Strict)
	require.NoError(t, err)
	assert.Equal(t, Strict, s.Mode())
}

// e2eHousehold is worth $3,840,000 with BND at 10% against a 15% target. The
// 401k holds $36,000 of cash; the taxable account holds more.
func e2eHousehold(t *testing.T) (*portfolio.Portfolio, portfolio.TargetWeights) {
	t.Helper()
	p := household(t,
		portfolio.Account{Cash: 36_000, Holdings: map[string]float64{"BND": 384_000, "VTI": 1_000_000}},
		portfolio.Account{Cash: 500_000, Holdings: map[string]float64{"VTI": 804_800, "VXUS": 614_400, "QQQ": 1_036_800}},
	)
	require.Equal(t, 3_840_000.0, p.TotalValue())
	return p, portfolio.TargetWeights{"BND": 0.15, "VTI": 0.45, "VXUS": 0.15, "QQQ": 0.25}
}

func TestPlanEndToEndStabilizerBuy(t *testing.T) {
	t.Parallel()

	p, targets := e2eHousehold(t)
	trades, vs := planFor(t, p, targets, *config.Default(), Strict)

	require.Len(t, vs, 1)
	assert.Equal(t, policy.StabilizerBelowMin, vs[0].Kind)

	require.Len(t, trades, 2)
	first := trades[0]
	assert.Equal(t, "401k", first.AccountID)
	assert.Equal(t, "BND", first.Ticker)
	assert.Equal(t, trade.Buy, first.Direction)
	assert.InDelta(t, 36_000, first.Amount, 0.01)
	assert.Contains(t, first.Reason, "asset-location aware")

	assert.Equal(t, "taxable", trades[1].AccountID)
	assert.Equal(t, trade.Buy, trades[1].Direction)
	assert.InDelta(t, 156_000, trades[1].Amount, 0.01)
	assert.Equal(t, string(explain.OverflowBuy), explainRule(trades[1]))
}

func TestPlanEndToEndDriftOnly(t *testing.T) {
	t.Parallel()

	p, targets := e2eHousehold(t)
	cfg := *config.Default()
	flags, err := drift.Detect(p, targets, cfg)
	require.NoError(t, err)

	trades, err := Plan(p, targets, nil, flags, cfg, Strict)
	require.NoError(t, err)
	require.NotEmpty(t, trades)
	assert.Equal(t, "401k", trades[0].AccountID)
	assert.Equal(t, "BND", trades[0].Ticker)
	assert.InDelta(t, 36_000, trades[0].Amount, 0.01)
	assert.Equal(t, string(explain.LocationBuy), trades[0].Cause)
	assert.Contains(t, trades[0].Reason, "asset-location aware")
}

// explainRule recovers the placement rule from the reason text of a
// violation-driven buy.
func explainRule(t trade.Trade) string {
	if t.Cause != string(policy.StabilizerBelowMin) && t.Cause != string(policy.CoreBelowMin) {
		return t.Cause
	}
	for _, r := range []explain.Rule{explain.OverflowBuy, explain.UnfundedBuy, explain.LocationBuy} {
		if explain.Reason(t, explain.Cause{Rule: r, Violation: policy.Kind(t.Cause), Account: portfolio.Taxable, Meta: testUniverse().Meta(t.Ticker)}) == t.Reason {
			return string(r)
		}
	}
	return ""
}

// overweightVTI has BND 5 points under and VTI 5 points over target, with no
// policy violation.
func overweightVTI(t *testing.T) *portfolio.Portfolio {
	return household(t,
		portfolio.Account{Holdings: map[string]float64{"BND": 150, "VTI": 300}},
		portfolio.Account{Holdings: map[string]float64{"VTI": 300, "QQQ": 250}},
	)
}

var overweightTargets = portfolio.TargetWeights{"BND": 0.20, "VTI": 0.55, "QQQ": 0.25}

func TestStrictSellsDrift(t *testing.T) {
	t.Parallel()

	trades, vs := planFor(t, overweightVTI(t), overweightTargets, *config.Default(), Strict)
	require.Empty(t, vs)
	require.Len(t, trades, 2)

	assert.Equal(t, trade.Trade{
		AccountID: "401k", Ticker: "BND", Direction: trade.Buy, Amount: 50,
		Reason: trades[0].Reason, Cause: string(explain.LocationBuy),
	}, trades[0], "funded by the VTI sale in the same account")
	assert.Contains(t, trades[0].Reason, explain.LocationTag)
	assert.Equal(t, "VTI", trades[1].Ticker)
	assert.Equal(t, "401k", trades[1].AccountID)
	assert.Equal(t, trade.Sell, trades[1].Direction)
	assert.Equal(t, 50.0, trades[1].Amount)
	assert.Equal(t, string(explain.TaxAdvantagedSell), trades[1].Cause)
}

func TestConservativeNeverSellsForDriftAlone(t *testing.T) {
	t.Parallel()

	trades, vs := planFor(t, overweightVTI(t), overweightTargets, *config.Default(), Conservative)
	require.Empty(t, vs)
	require.Len(t, trades, 1)
	assert.Equal(t, trade.Buy, trades[0].Direction)
	assert.Equal(t, "BND", trades[0].Ticker)
}

func TestConservativeSellsOnlyReferencedTickers(t *testing.T) {
	t.Parallel()

	p := household(t,
		portfolio.Account{Holdings: map[string]float64{"BND": 150, "VTI": 300, "TQQQ": 20}},
		portfolio.Account{Holdings: map[string]float64{"VTI": 300, "QQQ": 230}},
	)
	trades, vs := planFor(t, p, overweightTargets, *config.Default(), Conservative)
	require.NotEmpty(t, vs)

	var sold []string
	for _, tr := range trades {
		if tr.IsSell() {
			sold = append(sold, tr.Ticker)
			assert.NotEmpty(t, policy.Referencing(vs, tr.Ticker), "sold %s without a violation", tr.Ticker)
		}
	}
	assert.Equal(t, []string{"TQQQ"}, sold)
}

func TestTaxableSellLast(t *testing.T) {
	t.Parallel()

	p := household(t,
		portfolio.Account{Holdings: map[string]float64{"BND": 150, "VTI": 30}},
		portfolio.Account{Holdings: map[string]float64{"VTI": 570, "QQQ": 250}},
	)
	cfg := *config.Default()

	trades, _ := planFor(t, p, overweightTargets, cfg, Strict)
	var sells []trade.Trade
	for _, tr := range trades {
		if tr.IsSell() {
			sells = append(sells, tr)
		}
	}
	require.Len(t, sells, 2)
	assert.Equal(t, "401k", sells[0].AccountID)
	assert.Equal(t, 30.0, sells[0].Amount, "the tax-advantaged position is exhausted first")
	assert.Equal(t, "taxable", sells[1].AccountID)
	assert.Equal(t, 20.0, sells[1].Amount)
	assert.Contains(t, sells[1].Reason, "last resort")

	cfg.Taxable.BuyFirstSellLast = false
	trades, _ = planFor(t, p, overweightTargets, cfg, Strict)
	sells = sells[:0]
	for _, tr := range trades {
		if tr.IsSell() {
			sells = append(sells, tr)
		}
	}
	require.Len(t, sells, 1)
	assert.Equal(t, "taxable", sells[0].AccountID, "largest position sells first")
	assert.Equal(t, 50.0, sells[0].Amount)
	assert.Equal(t, string(explain.DriftSell), sells[0].Cause)
}

func TestSingleStockSellsTowardMax(t *testing.T) {
	t.Parallel()

	p := household(t,
		portfolio.Account{Holdings: map[string]float64{"BND": 150, "VTI": 550}},
		portfolio.Account{Holdings: map[string]float64{"NVDA": 150, "QQQ": 150}},
	)
	targets := portfolio.TargetWeights{"BND": 0.15, "VTI": 0.55, "NVDA": 0.05, "QQQ": 0.25}

	trades, vs := planFor(t, p, targets, *config.Default(), Strict)
	require.Len(t, vs, 1)
	assert.Equal(t, policy.SingleStockOverweight, vs[0].Kind)

	require.Len(t, trades, 3)
	assert.Equal(t, "NVDA", trades[0].Ticker)
	assert.Equal(t, trade.Sell, trades[0].Direction)
	assert.Equal(t, 50.0, trades[0].Amount, "sold down to the 10% cap")
	assert.Equal(t, string(policy.SingleStockOverweight), trades[0].Cause)

	assert.Equal(t, "NVDA", trades[1].Ticker)
	assert.Equal(t, 50.0, trades[1].Amount, "drift takes the rest down to target")

	assert.Equal(t, "QQQ", trades[2].Ticker)
	assert.Equal(t, trade.Buy, trades[2].Direction)
	assert.Equal(t, 100.0, trades[2].Amount)
	assert.Equal(t, "taxable", trades[2].AccountID, "funded by the sale proceeds")
	assert.Equal(t, string(explain.LocationBuy), trades[2].Cause)
}

func TestTaxableSellLastExhaustsDust(t *testing.T) {
	t.Parallel()

	p := household(t,
		portfolio.Account{Holdings: map[string]float64{"BND": 150, "VTI": 0.50}},
		portfolio.Account{Holdings: map[string]float64{"VTI": 599.50, "QQQ": 250}},
	)
	flags := []drift.Flag{{Ticker: "VTI", CurrentWeight: 0.60, TargetWeight: 0.55, AbsoluteDrift: 0.05, ExceedsThreshold: true}}

	trades, err := Plan(p, overweightTargets, nil, flags, *config.Default(), Strict)
	require.NoError(t, err)
	require.Len(t, trades, 2)

	assert.Equal(t, "401k", trades[0].AccountID)
	assert.InDelta(t, 0.50, trades[0].Amount, halfCent, "closing a position ignores the minimum trade")
	assert.Equal(t, string(explain.TaxAdvantagedSell), trades[0].Cause)

	assert.Equal(t, "taxable", trades[1].AccountID)
	assert.InDelta(t, 49.50, trades[1].Amount, halfCent)
	assert.Equal(t, string(explain.TaxableSell), trades[1].Cause)
}

func TestBuySkipsDustCash(t *testing.T) {
	t.Parallel()

	p := household(t,
		portfolio.Account{Cash: 0.50, Holdings: map[string]float64{"BND": 150, "VTI": 300}},
		portfolio.Account{Cash: 100, Holdings: map[string]float64{"VTI": 300, "QQQ": 250}},
	)
	flags := []drift.Flag{{Ticker: "BND", CurrentWeight: 0.15, TargetWeight: 0.20, AbsoluteDrift: -0.05, ExceedsThreshold: true}}

	trades, err := Plan(p, overweightTargets, nil, flags, *config.Default(), Strict)
	require.NoError(t, err)
	require.Len(t, trades, 1)
	assert.Equal(t, "taxable", trades[0].AccountID)
	assert.Equal(t, 50.0, trades[0].Amount, "the full gap is bought")
	assert.Equal(t, string(explain.OverflowBuy), trades[0].Cause)
}

func TestSingleStockConservative(t *testing.T) {
	t.Parallel()

	p := household(t,
		portfolio.Account{Holdings: map[string]float64{"BND": 150, "VTI": 550}},
		portfolio.Account{Holdings: map[string]float64{"NVDA": 150, "QQQ": 150}},
	)
	targets := portfolio.TargetWeights{"BND": 0.15, "VTI": 0.55, "NVDA": 0.05, "QQQ": 0.25}

	trades, vs := planFor(t, p, targets, *config.Default(), Conservative)
	require.Len(t, vs, 1)
	assert.Equal(t, policy.SingleStockOverweight, vs[0].Kind)

	var sells []trade.Trade
	for _, tr := range trades {
		if tr.IsSell() {
			sells = append(sells, tr)
		}
	}
	require.Len(t, sells, 1, "drift alone never sells")
	assert.Equal(t, "NVDA", sells[0].Ticker)
	assert.Equal(t, 50.0, sells[0].Amount, "sold down to the 10% cap")
	assert.Equal(t, string(policy.SingleStockOverweight), sells[0].Cause)

	require.Len(t, trades, 2)
	assert.Equal(t, "QQQ", trades[1].Ticker)
	assert.Equal(t, trade.Buy, trades[1].Direction)
	assert.Equal(t, 100.0, trades[1].Amount)
}

func TestViolationSellsAreNotBoughtBack(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		taxAdv  map[string]float64
		taxable map[string]float64
		targets portfolio.TargetWeights
		sold    string
	}{
		{
			name:    "exclusive pair",
			taxAdv:  map[string]float64{"BND": 150, "VTI": 550},
			taxable: map[string]float64{"QQQ": 100, "SPYG": 200},
			targets: portfolio.TargetWeights{"BND": 0.15, "VTI": 0.55, "QQQ": 0.20, "SPYG": 0.10},
			sold:    "SPYG",
		},
		{
			name:    "leveraged",
			taxAdv:  map[string]float64{"BND": 150, "VTI": 550, "TQQQ": 50},
			taxable: map[string]float64{"QQQ": 250},
			targets: portfolio.TargetWeights{"BND": 0.15, "VTI": 0.55, "QQQ": 0.20, "TQQQ": 0.10},
			sold:    "TQQQ",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			p := household(t, portfolio.Account{Holdings: tt.taxAdv}, portfolio.Account{Holdings: tt.taxable})
			trades, vs := planFor(t, p, tt.targets, *config.Default(), Strict)
			require.NotEmpty(t, vs)
			require.NotEmpty(t, trades)

			assert.Equal(t, tt.sold, trades[0].Ticker)
			assert.Equal(t, trade.Sell, trades[0].Direction)
			for _, tr := range trades {
				if tr.Ticker == tt.sold {
					assert.True(t, tr.IsSell(), "%s bought back: %+v", tt.sold, tr)
				}
			}
		})
	}
}

func TestExclusiveLoserProceedsFundKeeper(t *testing.T) {
	t.Parallel()

	p := household(t,
		portfolio.Account{Holdings: map[string]float64{"BND": 150, "VTI": 550}},
		portfolio.Account{Holdings: map[string]float64{"QQQ": 100, "SPYG": 200}},
	)
	targets := portfolio.TargetWeights{"BND": 0.15, "VTI": 0.55, "QQQ": 0.20, "SPYG": 0.10}

	trades, _ := planFor(t, p, targets, *config.Default(), Strict)
	require.Len(t, trades, 2)
	assert.Equal(t, "SPYG", trades[0].Ticker)
	assert.Equal(t, 200.0, trades[0].Amount)
	assert.Equal(t, trade.Trade{
		AccountID: "taxable", Ticker: "QQQ", Direction: trade.Buy, Amount: 100,
		Reason: trades[1].Reason, Cause: string(explain.LocationBuy),
	}, trades[1])
}

func TestGrowthTrimPastMultipleFirst(t *testing.T) {
	t.Parallel()

	p := household(t,
		portfolio.Account{Holdings: map[string]float64{"BND": 150, "VTI": 500}},
		portfolio.Account{Holdings: map[string]float64{"QQQ": 260, "NVDA": 90}},
	)
	targets := portfolio.TargetWeights{"BND": 0.15, "VTI": 0.55, "QQQ": 0.28, "NVDA": 0.02}
	vs := []policy.Violation{{Kind: policy.GrowthAboveMax, Tickers: []string{"NVDA", "QQQ"}, Current: 0.35, Limit: 0.30}}

	tests := []struct {
		name     string
		multiple float64
		ticker   string
	}{
		{"past twice its target", 2, "NVDA"},
		{"largest first without a multiple", 0, "QQQ"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := *config.Default()
			cfg.Growth.TrimMultipleOfTarget = tt.multiple
			trades, err := Plan(p, targets, vs, nil, cfg, Strict)
			require.NoError(t, err)
			require.Len(t, trades, 1)
			assert.Equal(t, tt.ticker, trades[0].Ticker)
			assert.Equal(t, trade.Sell, trades[0].Direction)
			assert.Equal(t, 50.0, trades[0].Amount)
			assert.Equal(t, string(policy.GrowthAboveMax), trades[0].Cause)
		})
	}
}

func TestLeveragedSoldEverywhere(t *testing.T) {
	t.Parallel()

	p := household(t,
		portfolio.Account{Holdings: map[string]float64{"BND": 150, "VTI": 600, "TQQQ": 10}},
		portfolio.Account{Holdings: map[string]float64{"QQQ": 215, "TQQQ": 25}},
	)
	cfg := *config.Default()
	vs, err := policy.Growth(p, cfg)
	require.NoError(t, err)

	trades, err := Plan(p, standardTargets, vs, nil, cfg, Conservative)
	require.NoError(t, err)
	require.Len(t, trades, 2)
	assert.Equal(t, "taxable", trades[0].AccountID, "largest position first")
	assert.Equal(t, 25.0, trades[0].Amount)
	assert.Equal(t, "401k", trades[1].AccountID)
	assert.Equal(t, 10.0, trades[1].Amount)
	for _, tr := range trades {
		assert.Equal(t, "TQQQ", tr.Ticker)
		assert.Equal(t, string(policy.LeveragedAssetHeld), tr.Cause)
	}
}

func TestExclusivitySellsLowerTarget(t *testing.T) {
	t.Parallel()

	p := household(t,
		portfolio.Account{Holdings: map[string]float64{"BND": 150, "VTI": 600}},
		portfolio.Account{Holdings: map[string]float64{"QQQ": 200, "SPYG": 50}},
	)
	cfg := *config.Default()
	vs, err := policy.Growth(p, cfg)
	require.NoError(t, err)
	require.Len(t, vs, 1)

	trades, err := Plan(p, standardTargets, vs, nil, cfg, Strict)
	require.NoError(t, err)
	require.Len(t, trades, 1)
	assert.Equal(t, "SPYG", trades[0].Ticker)
	assert.Equal(t, 50.0, trades[0].Amount)
	assert.Equal(t, "Policy violation: hold QQQ or SPYG, not both", trades[0].Reason)
}

func TestExclusiveLoserTieBreaks(t *testing.T) {
	t.Parallel()

	p := household(t,
		portfolio.Account{Holdings: map[string]float64{"QQQ": 100}},
		portfolio.Account{Holdings: map[string]float64{"SPYG": 100}},
	)
	b, err := newBook(p, *config.Default())
	require.NoError(t, err)

	loser, keep := b.exclusiveLoser("QQQ", "SPYG", portfolio.TargetWeights{"QQQ": 0.1, "SPYG": 0.2})
	assert.Equal(t, []string{"QQQ", "SPYG"}, []string{loser, keep})

	loser, _ = b.exclusiveLoser("QQQ", "SPYG", portfolio.TargetWeights{})
	assert.Equal(t, "SPYG", loser, "equal targets and values: alphabetically later goes")

	b.accounts[0].holdings["QQQ"] = 40
	loser, _ = b.exclusiveLoser("QQQ", "SPYG", portfolio.TargetWeights{})
	assert.Equal(t, "QQQ", loser, "smaller position goes")
}

func TestGrowthTrimAndCoreFloor(t *testing.T) {
	t.Parallel()

	p := household(t,
		portfolio.Account{Holdings: map[string]float64{"BND": 150, "VTI": 450, "QQQ": 100}},
		portfolio.Account{Holdings: map[string]float64{"QQQ": 300}},
	)
	trades, vs := planFor(t, p, standardTargets, *config.Default(), Strict)
	require.Len(t, vs, 2)
	assert.Equal(t, policy.GrowthAboveMax, vs[0].Kind)
	assert.Equal(t, policy.CoreBelowMin, vs[1].Kind)

	require.GreaterOrEqual(t, len(trades), 2)
	assert.Equal(t, trade.Trade{
		AccountID: "401k", Ticker: "QQQ", Direction: trade.Sell, Amount: 100,
		Reason: trades[0].Reason, Cause: string(policy.GrowthAboveMax),
	}, trades[0])
	assert.Equal(t, "401k", trades[1].AccountID)
	assert.Equal(t, "VTI", trades[1].Ticker)
	assert.Equal(t, trade.Buy, trades[1].Direction)
	assert.Equal(t, 50.0, trades[1].Amount)
	assert.Equal(t, string(policy.CoreBelowMin), trades[1].Cause)
	assert.Contains(t, trades[1].Reason, "asset-location aware")
}

func TestPlanIsIdempotent(t *testing.T) {
	t.Parallel()

	cfg := *config.Default()
	p := overweightVTI(t)
	trades, _ := planFor(t, p, overweightTargets, cfg, Strict)
	require.NotEmpty(t, trades)

	again, _ := planFor(t, applyTrades(t, p, trades), overweightTargets, cfg, Strict)
	assert.Empty(t, again)
}

func TestPlanIsDeterministic(t *testing.T) {
	t.Parallel()

	p, targets := e2eHousehold(t)
	first, _ := planFor(t, p, targets, *config.Default(), Strict)
	for i := 0; i < 5; i++ {
		again, _ := planFor(t, p, targets, *config.Default(), Strict)
		assert.Equal(t, first, again)
	}
}

func TestPlanInvariants(t *testing.T) {
	t.Parallel()

	p := household(t,
		portfolio.Account{Cash: 20, Holdings: map[string]float64{"BND": 90, "VTI": 300, "TQQQ": 15}},
		portfolio.Account{Cash: 40, Holdings: map[string]float64{"VTI": 200, "QQQ": 250, "SPYG": 60, "NVDA": 85}},
	)
	trades, _ := planFor(t, p, portfolio.TargetWeights{"BND": 0.15, "VTI": 0.55, "QQQ": 0.25, "NVDA": 0.05}, *config.Default(), Strict)
	require.NotEmpty(t, trades)

	held := map[string]map[string]float64{}
	for _, a := range p.Accounts() {
		held[a.ID] = a.Holdings
	}
	for _, tr := range trades {
		assert.Greater(t, tr.Amount, 0.0)
		assert.NotEmpty(t, tr.Reason)
		if tr.IsSell() {
			assert.LessOrEqual(t, tr.Amount, held[tr.AccountID][tr.Ticker]+halfCent)
		}
		held[tr.AccountID][tr.Ticker] += tr.Signed()
	}
}

func TestSellBeyondHoldingsIsStateError(t *testing.T) {
	t.Parallel()

	p := overweightVTI(t)
	stale := []drift.Flag{{Ticker: "QQQ", CurrentWeight: 0.90, TargetWeight: 0.25, AbsoluteDrift: 0.65, ExceedsThreshold: true}}
	_, err := Plan(p, overweightTargets, nil, stale, *config.Default(), Strict)
	assert.True(t, errs.IsState(err))
}
