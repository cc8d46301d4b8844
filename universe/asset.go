// universe/asset.go
package universe

import (
	"fmt"
	"sort"
	"strings"
)

type Sleeve string

const (
	Core   Sleeve = "core"
	Growth Sleeve = "growth"
)

type AssetType string

const (
	ETF   AssetType = "etf"
	Stock AssetType = "stock"
)

type TaxEfficiency string

const (
	High   TaxEfficiency = "high"
	Medium TaxEfficiency = "medium"
	Low    TaxEfficiency = "low"
)

// AssetMeta is the static description of one ticker.
type AssetMeta struct {
	Ticker        string        `json:"ticker,omitempty" yaml:"ticker,omitempty"`
	Sleeve        Sleeve        `json:"sleeve" yaml:"sleeve"`
	AssetType     AssetType     `json:"asset_type" yaml:"asset_type"`
	TaxEfficiency TaxEfficiency `json:"tax_efficiency" yaml:"tax_efficiency"`
	Stabilizer    bool          `json:"stabilizer" yaml:"stabilizer"`
	Leveraged     bool          `json:"leveraged" yaml:"leveraged"`
}

// PrefersTaxAdvantaged reports whether asset location puts this ticker in a
// tax-advantaged account: bond-like stabilizers and anything that is not
// highly tax efficient. Stocks and growth holdings always belong in taxable
// accounts, whatever their efficiency.
func (m AssetMeta) PrefersTaxAdvantaged() bool {
	if m.AssetType == Stock || m.Sleeve == Growth {
		return false
	}
	return m.Stabilizer || m.TaxEfficiency == Low || m.TaxEfficiency == Medium
}

func (m AssetMeta) Validate() error {
	switch m.Sleeve {
	case Core, Growth:
	default:
		return fmt.Errorf("%s: unknown sleeve %q", m.Ticker, m.Sleeve)
	}
	switch m.AssetType {
	case ETF, Stock:
	default:
		return fmt.Errorf("%s: unknown asset_type %q", m.Ticker, m.AssetType)
	}
	switch m.TaxEfficiency {
	case High, Medium, Low:
	default:
		return fmt.Errorf("%s: unknown tax_efficiency %q", m.Ticker, m.TaxEfficiency)
	}
	return nil
}

// KnownLeveraged lists common leveraged and inverse ETFs. A ticker in this
// list is treated as leveraged even when the universe does not describe it.
var KnownLeveraged = map[string]bool{
	"TQQQ": true, "SQQQ": true, "UPRO": true, "SPXU": true, "QLD": true, "QID": true,
	"SSO": true, "SDS": true, "UDOW": true, "SDOW": true, "TNA": true, "TZA": true,
	"LABU": true, "LABD": true, "SOXL": true, "SOXS": true, "FNGU": true, "FNGD": true,
}

// Universe is an immutable ticker -> AssetMeta table.
type Universe struct {
	assets map[string]AssetMeta
}

// New copies metas into a Universe, keyed by ticker. Missing fields take the
// defaults used for unknown tickers.
func New(metas ...AssetMeta) (Universe, error) {
	u := Universe{assets: make(map[string]AssetMeta, len(metas))}
	for _, m := range metas {
		if m.Ticker == "" {
			return Universe{}, fmt.Errorf("asset with empty ticker")
		}
		if _, dup := u.assets[m.Ticker]; dup {
			return Universe{}, fmt.Errorf("duplicate ticker %s", m.Ticker)
		}
		m = withDefaults(m)
		if err := m.Validate(); err != nil {
			return Universe{}, err
		}
		u.assets[m.Ticker] = m
	}
	return u, nil
}

// MustNew is New for fixed tables; it panics on error.
func MustNew(metas ...AssetMeta) Universe {
	u, err := New(metas...)
	if err != nil {
		panic(err)
	}
	return u
}

func withDefaults(m AssetMeta) AssetMeta {
	if m.Sleeve == "" {
		m.Sleeve = Core
	}
	if m.AssetType == "" {
		m.AssetType = ETF
	}
	if m.TaxEfficiency == "" {
		m.TaxEfficiency = High
	}
	if KnownLeveraged[strings.ToUpper(m.Ticker)] {
		m.Leveraged = true
	}
	return m
}

// Lookup returns the metadata for ticker and whether the universe describes it.
func (u Universe) Lookup(ticker string) (AssetMeta, bool) {
	m, ok := u.assets[ticker]
	return m, ok
}

// Meta returns the metadata for ticker, falling back to a core, highly tax
// efficient ETF for tickers the universe does not describe.
func (u Universe) Meta(ticker string) AssetMeta {
	if m, ok := u.assets[ticker]; ok {
		return m
	}
	return withDefaults(AssetMeta{Ticker: ticker})
}

// With returns a copy of u that also describes m. An existing entry for the
// same ticker is replaced.
func (u Universe) With(m AssetMeta) (Universe, error) {
	m = withDefaults(m)
	if err := m.Validate(); err != nil {
		return Universe{}, err
	}
	out := Universe{assets: make(map[string]AssetMeta, len(u.assets)+1)}
	for k, v := range u.assets {
		out.assets[k] = v
	}
	out.assets[m.Ticker] = m
	return out, nil
}

// Tickers returns the described tickers in alphabetical order.
func (u Universe) Tickers() []string {
	out := make([]string, 0, len(u.assets))
	for t := range u.assets {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

func (u Universe) Len() int { return len(u.assets) }
