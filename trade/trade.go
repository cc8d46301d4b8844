// Package trade holds the terminal record of a planning pass.
package trade

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

type Direction string

const (
	Buy  Direction = "buy"
	Sell Direction = "sell"
)

func (d Direction) String() string { return strings.ToUpper(string(d)) }

// Trade is one recommended action. It is created by the planner, given its
// Reason by the explanation step, and not changed afterwards.
type Trade struct {
	AccountID string    `json:"account_id" yaml:"account_id"`
	Ticker    string    `json:"ticker" yaml:"ticker"`
	Direction Direction `json:"direction" yaml:"direction"`
	Amount    float64   `json:"amount" yaml:"amount"`
	Reason    string    `json:"reason" yaml:"reason"`
	// Cause is a short machine-readable code for what produced the trade.
	Cause string `json:"cause" yaml:"cause"`
}

func (t Trade) IsBuy() bool  { return t.Direction == Buy }
func (t Trade) IsSell() bool { return t.Direction == Sell }

// Signed returns the amount as a holding delta: positive for buys.
func (t Trade) Signed() float64 {
	if t.Direction == Sell {
		return -t.Amount
	}
	return t.Amount
}

func (t Trade) String() string {
	return fmt.Sprintf("%s: %s $%s %s", t.AccountID, t.Direction, Dollars(t.Amount), t.Ticker)
}

// Explained renders the trade with its reason.
func (t Trade) Explained() string {
	return t.String() + "  |  " + t.Reason
}

// RoundCents rounds a dollar amount half away from zero to whole cents.
func RoundCents(x float64) float64 {
	f, _ := decimal.NewFromFloat(x).Round(2).Float64()
	return f
}

// Dollars formats an amount as whole dollars with thousands separators.
func Dollars(x float64) string {
	d := decimal.NewFromFloat(x).Round(0)
	s := d.Abs().String()
	var out []byte
	for i := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			out = append(out, ',')
		}
		out = append(out, s[i])
	}
	if d.IsNegative() {
		return "-" + string(out)
	}
	return string(out)
}

// Totals sums trade amounts per direction.
func Totals(trades []Trade) (buys, sells float64) {
	b, s := decimal.Zero, decimal.Zero
	for _, t := range trades {
		if t.Direction == Buy {
			b = b.Add(decimal.NewFromFloat(t.Amount))
		} else {
			s = s.Add(decimal.NewFromFloat(t.Amount))
		}
	}
	buys, _ = b.Float64()
	sells, _ = s.Float64()
	return buys, sells
}
