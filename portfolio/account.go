package portfolio

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/floats"
)

type Kind string

const (
	Taxable       Kind = "taxable"
	TaxAdvantaged Kind = "tax_advantaged"
)

func (k Kind) Valid() bool {
	return k == Taxable || k == TaxAdvantaged
}

// Account is one brokerage or retirement account of the household. Holdings
// are dollar values per ticker; Cash is the uninvested balance available for
// buys and is not part of the portfolio's invested value.
type Account struct {
	ID       string             `json:"id" yaml:"id"`
	Kind     Kind               `json:"type" yaml:"type"`
	Cash     float64            `json:"cash" yaml:"cash"`
	Holdings map[string]float64 `json:"holdings" yaml:"holdings"`
}

// Holding returns the dollar value of ticker held in the account.
func (a Account) Holding(ticker string) float64 {
	return a.Holdings[ticker]
}

// Value is the invested value of the account, excluding cash.
func (a Account) Value() float64 {
	return sumSorted(a.Holdings)
}

// Tickers returns the tickers held with a positive value, sorted.
func (a Account) Tickers() []string {
	out := make([]string, 0, len(a.Holdings))
	for t, v := range a.Holdings {
		if v > 0 {
			out = append(out, t)
		}
	}
	sort.Strings(out)
	return out
}

func (a Account) validate() error {
	if a.ID == "" {
		return fmt.Errorf("account with empty id")
	}
	if !a.Kind.Valid() {
		return fmt.Errorf("account %s: unknown type %q", a.ID, a.Kind)
	}
	if a.Cash < 0 {
		return fmt.Errorf("account %s: negative cash %.2f", a.ID, a.Cash)
	}
	for t, v := range a.Holdings {
		if v < 0 {
			return fmt.Errorf("account %s: negative holding %s %.2f", a.ID, t, v)
		}
	}
	return nil
}

func (a Account) clone() Account {
	h := make(map[string]float64, len(a.Holdings))
	for t, v := range a.Holdings {
		h[t] = v
	}
	a.Holdings = h
	return a
}

// sumSorted adds map values in key order so repeated calls give bit-identical
// results.
func sumSorted(m map[string]float64) float64 {
	if len(m) == 0 {
		return 0
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	vals := make([]float64, len(keys))
	for i, k := range keys {
		vals[i] = m[k]
	}
	return floats.Sum(vals)
}
