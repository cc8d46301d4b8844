// Package policy checks a portfolio against the household investment policy.
//
// The three validators (allocation, risk, growth) never fail because a rule
// is broken; a broken rule is a Violation and is returned as data. They only
// return an error when the portfolio has no value to take weights of.
package policy

import (
	"fmt"
	"sort"
	"strings"
)

type Kind string

const (
	LeveragedAssetHeld    Kind = "leveraged_asset_held"
	ExclusivityBreach     Kind = "exclusivity_breach"
	SingleStockOverweight Kind = "single_stock_overweight"
	GrowthAboveMax        Kind = "growth_above_max"
	CoreBelowMin          Kind = "core_below_min"
	StabilizerBelowMin    Kind = "stabilizer_below_min"
)

// severity ranks kinds for trade ordering; lower is more urgent.
var severity = map[Kind]int{
	LeveragedAssetHeld:    0,
	ExclusivityBreach:     1,
	SingleStockOverweight: 2,
	GrowthAboveMax:        3,
	CoreBelowMin:          4,
	StabilizerBelowMin:    5,
}

// Violation is one broken policy rule. Tickers names the positions the rule
// is about: the offending ticker, the exclusive pair, or for sleeve-level
// rules the held tickers of the sleeve. Current and Limit are weights.
type Violation struct {
	Kind    Kind     `json:"kind" yaml:"kind"`
	Tickers []string `json:"tickers,omitempty" yaml:"tickers,omitempty"`
	Current float64  `json:"current" yaml:"current"`
	Limit   float64  `json:"limit" yaml:"limit"`
}

// Severity orders violations: leverage, exclusivity, single stock, then the
// sleeve-level rules.
func (v Violation) Severity() int {
	if s, ok := severity[v.Kind]; ok {
		return s
	}
	return len(severity)
}

// SleeveLevel reports whether the violation is about an aggregate weight
// rather than a specific position.
func (v Violation) SleeveLevel() bool {
	switch v.Kind {
	case GrowthAboveMax, CoreBelowMin, StabilizerBelowMin:
		return true
	}
	return false
}

// MandatesSell reports whether resolving the violation requires selling the
// positions it names.
func (v Violation) MandatesSell() bool {
	switch v.Kind {
	case LeveragedAssetHeld, ExclusivityBreach, SingleStockOverweight, GrowthAboveMax:
		return true
	}
	return false
}

// References reports whether ticker is one of the positions the violation
// names.
func (v Violation) References(ticker string) bool {
	for _, t := range v.Tickers {
		if t == ticker {
			return true
		}
	}
	return false
}

// Ticker returns the first named ticker, or "".
func (v Violation) Ticker() string {
	if len(v.Tickers) == 0 {
		return ""
	}
	return v.Tickers[0]
}

func (v Violation) String() string {
	switch v.Kind {
	case LeveragedAssetHeld:
		return fmt.Sprintf("Leveraged asset held long-term: %s", v.Ticker())
	case ExclusivityBreach:
		return fmt.Sprintf("Exclusive tickers held together: %s", strings.Join(v.Tickers, " and "))
	case SingleStockOverweight:
		return fmt.Sprintf("Single stock overweight: %s %.2f%% > %.2f%%", v.Ticker(), 100*v.Current, 100*v.Limit)
	case GrowthAboveMax:
		return fmt.Sprintf("Growth sleeve above maximum: %.2f%% > %.2f%%", 100*v.Current, 100*v.Limit)
	case CoreBelowMin:
		return fmt.Sprintf("Core sleeve below minimum: %.2f%% < %.2f%%", 100*v.Current, 100*v.Limit)
	case StabilizerBelowMin:
		return fmt.Sprintf("Stabilizer below minimum: %.2f%% < %.2f%%", 100*v.Current, 100*v.Limit)
	}
	return string(v.Kind)
}

// Sort orders violations by severity, then by first ticker.
func Sort(vs []Violation) {
	sort.SliceStable(vs, func(i, j int) bool {
		if vs[i].Severity() != vs[j].Severity() {
			return vs[i].Severity() < vs[j].Severity()
		}
		return vs[i].Ticker() < vs[j].Ticker()
	})
}

// Referencing returns the violations that name ticker.
func Referencing(vs []Violation, ticker string) []Violation {
	var out []Violation
	for _, v := range vs {
		if v.References(ticker) {
			out = append(out, v)
		}
	}
	return out
}
