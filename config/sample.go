package config

import (
	"github.com/rustyeddy/rebalance/portfolio"
	"github.com/rustyeddy/rebalance/universe"
)

// SampleAssets is the starter asset universe written by `config init`.
func SampleAssets() []universe.AssetMeta {
	return []universe.AssetMeta{
		{Ticker: "VTI", Sleeve: universe.Core, AssetType: universe.ETF, TaxEfficiency: universe.High},
		{Ticker: "VXUS", Sleeve: universe.Core, AssetType: universe.ETF, TaxEfficiency: universe.High},
		{Ticker: "BND", Sleeve: universe.Core, AssetType: universe.ETF, TaxEfficiency: universe.Low, Stabilizer: true},
		{Ticker: "BNDX", Sleeve: universe.Core, AssetType: universe.ETF, TaxEfficiency: universe.Low, Stabilizer: true},
		{Ticker: "QQQ", Sleeve: universe.Growth, AssetType: universe.ETF, TaxEfficiency: universe.High},
		{Ticker: "NVDA", Sleeve: universe.Growth, AssetType: universe.Stock, TaxEfficiency: universe.High},
		{Ticker: "MSFT", Sleeve: universe.Growth, AssetType: universe.Stock, TaxEfficiency: universe.High},
	}
}

// SampleTargets matches SampleAssets: 75% core with a 15% stabilizer share,
// 25% growth.
func SampleTargets() portfolio.TargetWeights {
	return portfolio.TargetWeights{
		"VTI":  0.40,
		"VXUS": 0.20,
		"BND":  0.12,
		"BNDX": 0.03,
		"QQQ":  0.15,
		"NVDA": 0.05,
		"MSFT": 0.05,
	}
}

// SampleAccounts is a two-account household holding only cash.
func SampleAccounts() []portfolio.Account {
	return []portfolio.Account{
		{ID: "401k", Kind: portfolio.TaxAdvantaged, Cash: 1_000_000, Holdings: map[string]float64{}},
		{ID: "taxable", Kind: portfolio.Taxable, Cash: 2_840_000, Holdings: map[string]float64{}},
	}
}

// WriteSample writes a complete starter household into paths.
func WriteSample(paths Paths) error {
	if err := Default().SaveToFile(paths.Policy); err != nil {
		return err
	}
	if err := SaveAccounts(paths.Accounts, SampleAccounts()); err != nil {
		return err
	}
	return SaveUniverse(paths.Universe, universe.MustNew(SampleAssets()...), SampleTargets())
}
