// Package explain attaches a human-readable reason to each planned trade.
// The mapping from cause to text is fixed; the same cause always produces the
// same reason.
package explain

import (
	"fmt"

	"github.com/rustyeddy/rebalance/policy"
	"github.com/rustyeddy/rebalance/portfolio"
	"github.com/rustyeddy/rebalance/trade"
	"github.com/rustyeddy/rebalance/universe"
)

// Rule names the planning rule that chose the trade's account and size.
type Rule string

const (
	LocationBuy       Rule = "location_buy"
	OverflowBuy       Rule = "overflow_buy"
	UnfundedBuy       Rule = "unfunded_buy"
	DriftSell         Rule = "drift_sell"
	TaxAdvantagedSell Rule = "tax_advantaged_sell"
	TaxableSell       Rule = "taxable_sell"
	InitialPlacement  Rule = "initial_placement"
	InitialOverflow   Rule = "initial_overflow"
)

// LocationTag marks every buy whose account was picked by asset location.
const LocationTag = "asset-location aware"

// Cause describes why a trade exists. Violation is set when the trade
// resolves a policy violation rather than plain drift. Counterpart is the
// other ticker of an exclusive pair.
type Cause struct {
	Rule        Rule
	Violation   policy.Kind
	Meta        universe.AssetMeta
	Account     portfolio.Kind
	Counterpart string
}

// Code is the short form stored on the trade.
func (c Cause) Code() string {
	if c.Violation != "" {
		return string(c.Violation)
	}
	return string(c.Rule)
}

// Annotate returns t with Reason and Cause set from c.
func Annotate(t trade.Trade, c Cause) trade.Trade {
	t.Reason = Reason(t, c)
	t.Cause = c.Code()
	return t
}

// Reason renders the text for a trade and its cause.
func Reason(t trade.Trade, c Cause) string {
	if c.Violation == "" {
		return ruleText(t, c)
	}
	s := violationText(t, c)
	switch c.Rule {
	case LocationBuy, OverflowBuy, UnfundedBuy, InitialPlacement, InitialOverflow:
		s += "; " + placement(c)
	case TaxableSell:
		s += "; taxable sell (last resort)"
	}
	return s
}

func ruleText(t trade.Trade, c Cause) string {
	switch c.Rule {
	case LocationBuy, OverflowBuy, UnfundedBuy:
		return "Rebalance buy: " + placement(c)
	case DriftSell:
		return fmt.Sprintf("Rebalance sell: %s overweight vs target", t.Ticker)
	case TaxAdvantagedSell:
		return fmt.Sprintf("Rebalance sell: %s overweight vs target, sold in tax-advantaged account first", t.Ticker)
	case TaxableSell:
		return fmt.Sprintf("Rebalance sell: %s overweight vs target, taxable sell (last resort)", t.Ticker)
	case InitialPlacement:
		return fmt.Sprintf("Initial allocation (%s): %s in %s account", LocationTag, class(c.Meta), kindName(c.Account))
	case InitialOverflow:
		return fmt.Sprintf("Initial allocation (%s): overflow to %s account, preferred accounts lack cash", LocationTag, kindName(c.Account))
	}
	return "Rebalance"
}

func violationText(t trade.Trade, c Cause) string {
	switch c.Violation {
	case policy.LeveragedAssetHeld:
		return fmt.Sprintf("Policy violation: leveraged ETF %s is not held long-term", t.Ticker)
	case policy.ExclusivityBreach:
		return fmt.Sprintf("Policy violation: hold %s or %s, not both", c.Counterpart, t.Ticker)
	case policy.SingleStockOverweight:
		return fmt.Sprintf("Policy violation: %s above single-stock max", t.Ticker)
	case policy.GrowthAboveMax:
		return fmt.Sprintf("Policy violation: growth sleeve above max, trimming %s", t.Ticker)
	case policy.CoreBelowMin:
		return "Policy violation: core sleeve below min"
	case policy.StabilizerBelowMin:
		return "Policy violation: stabilizer below min"
	}
	return "Policy violation: " + string(c.Violation)
}

func placement(c Cause) string {
	switch c.Rule {
	case OverflowBuy, InitialOverflow:
		return fmt.Sprintf("%s, overflow to %s account, preferred accounts lack cash", LocationTag, kindName(c.Account))
	case UnfundedBuy:
		return fmt.Sprintf("%s, no account has cash, needs new funds in %s account", LocationTag, kindName(c.Account))
	}
	return fmt.Sprintf("%s, %s in %s account", LocationTag, class(c.Meta), kindName(c.Account))
}

func class(m universe.AssetMeta) string {
	switch {
	case m.Stabilizer:
		return "stabilizer"
	case m.TaxEfficiency == universe.Low:
		return "low tax-efficiency asset"
	case m.TaxEfficiency == universe.Medium:
		return "medium tax-efficiency asset"
	case m.Sleeve == universe.Growth:
		return "growth asset"
	}
	return "tax-efficient core asset"
}

func kindName(k portfolio.Kind) string {
	if k == portfolio.TaxAdvantaged {
		return "tax-advantaged"
	}
	return "taxable"
}
