// Package portfolio is the in-memory model of a household: its accounts, what
// each account holds, and the weights derived from them.
package portfolio

import (
	"sort"

	"github.com/rustyeddy/rebalance/errs"
	"github.com/rustyeddy/rebalance/universe"
	"gonum.org/v1/gonum/floats"
)

// Portfolio is a read-only snapshot of the household's accounts. All derived
// quantities are computed on demand; nothing is cached.
type Portfolio struct {
	accounts []Account
	universe universe.Universe
}

// New validates and copies accounts into a Portfolio. The caller's maps are
// not retained.
func New(accounts []Account, u universe.Universe) (*Portfolio, error) {
	seen := make(map[string]bool, len(accounts))
	p := &Portfolio{universe: u, accounts: make([]Account, 0, len(accounts))}
	for _, a := range accounts {
		if err := a.validate(); err != nil {
			return nil, &errs.ConfigurationError{Msg: "portfolio", Err: err}
		}
		if seen[a.ID] {
			return nil, errs.Configuration("duplicate account id %s", a.ID)
		}
		seen[a.ID] = true
		p.accounts = append(p.accounts, a.clone())
	}
	return p, nil
}

// Accounts returns copies of the accounts in their configured order.
func (p *Portfolio) Accounts() []Account {
	out := make([]Account, len(p.accounts))
	for i, a := range p.accounts {
		out[i] = a.clone()
	}
	return out
}

// Account returns a copy of the account with the given id.
func (p *Portfolio) Account(id string) (Account, bool) {
	for _, a := range p.accounts {
		if a.ID == id {
			return a.clone(), true
		}
	}
	return Account{}, false
}

func (p *Portfolio) Universe() universe.Universe { return p.universe }

// TotalValue is the sum of every holding across all accounts.
func (p *Portfolio) TotalValue() float64 {
	vals := make([]float64, len(p.accounts))
	for i, a := range p.accounts {
		vals[i] = a.Value()
	}
	return floats.Sum(vals)
}

// Cash is the uninvested balance across all accounts.
func (p *Portfolio) Cash() float64 {
	vals := make([]float64, len(p.accounts))
	for i, a := range p.accounts {
		vals[i] = a.Cash
	}
	return floats.Sum(vals)
}

// Value is the dollar value of ticker summed across accounts.
func (p *Portfolio) Value(ticker string) float64 {
	v := 0.0
	for _, a := range p.accounts {
		v += a.Holdings[ticker]
	}
	return v
}

// Values returns the dollar value per held ticker.
func (p *Portfolio) Values() map[string]float64 {
	out := make(map[string]float64)
	for _, a := range p.accounts {
		for _, t := range sortedKeys(a.Holdings) {
			out[t] += a.Holdings[t]
		}
	}
	return out
}

// Tickers returns every ticker that appears in any account, sorted.
func (p *Portfolio) Tickers() []string {
	set := make(map[string]bool)
	for _, a := range p.accounts {
		for t := range a.Holdings {
			set[t] = true
		}
	}
	out := make([]string, 0, len(set))
	for t := range set {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

func (p *Portfolio) total() (float64, error) {
	total := p.TotalValue()
	if total <= 0 {
		return 0, errs.State("portfolio total value is %.2f; weights are undefined", total)
	}
	return total, nil
}

// Weight is ticker's share of the total value.
func (p *Portfolio) Weight(ticker string) (float64, error) {
	total, err := p.total()
	if err != nil {
		return 0, err
	}
	return p.Value(ticker) / total, nil
}

// Weights returns the weight of every held ticker.
func (p *Portfolio) Weights() (map[string]float64, error) {
	total, err := p.total()
	if err != nil {
		return nil, err
	}
	vals := p.Values()
	out := make(map[string]float64, len(vals))
	for t, v := range vals {
		out[t] = v / total
	}
	return out, nil
}

// SleeveWeight is the combined weight of the tickers the universe assigns to
// sleeve.
func (p *Portfolio) SleeveWeight(sleeve universe.Sleeve) (float64, error) {
	return p.WeightWhere(func(m universe.AssetMeta) bool { return m.Sleeve == sleeve })
}

// WeightWhere is the combined weight of held tickers whose metadata matches.
func (p *Portfolio) WeightWhere(match func(universe.AssetMeta) bool) (float64, error) {
	total, err := p.total()
	if err != nil {
		return 0, err
	}
	vals := p.Values()
	sum := 0.0
	for _, t := range sortedKeys(vals) {
		if match(p.universe.Meta(t)) {
			sum += vals[t]
		}
	}
	return sum / total, nil
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
