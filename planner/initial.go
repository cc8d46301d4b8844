package planner

import (
	"fmt"
	"math"
	"sort"

	"github.com/rustyeddy/rebalance/config"
	"github.com/rustyeddy/rebalance/errs"
	"github.com/rustyeddy/rebalance/explain"
	"github.com/rustyeddy/rebalance/policy"
	"github.com/rustyeddy/rebalance/portfolio"
	"github.com/rustyeddy/rebalance/trade"
	"github.com/rustyeddy/rebalance/universe"
	"gonum.org/v1/gonum/floats"
)

// Allocation is the result of investing a new household's cash.
type Allocation struct {
	Total     float64            `json:"total" yaml:"total"`
	Cash      map[string]float64 `json:"cash" yaml:"cash"`
	Trades    []trade.Trade      `json:"trades" yaml:"trades"`
	Warnings  []string           `json:"warnings,omitempty" yaml:"warnings,omitempty"`
	ByAccount map[string]float64 `json:"by_account" yaml:"by_account"`
	ByTicker  map[string]float64 `json:"by_ticker" yaml:"by_ticker"`
}

// SplitCash proposes how much of total each account receives when the caller
// does not say: tax-advantaged accounts get the stabilizer and low
// tax-efficiency share plus ten points, clamped to [30%, 70%], split evenly;
// taxable accounts share the rest.
func SplitCash(total float64, accounts []portfolio.Account, targets portfolio.TargetWeights, u universe.Universe, cfg config.Policy) map[string]float64 {
	var taxAdv, taxable []string
	for _, a := range accounts {
		if a.Kind == portfolio.TaxAdvantaged {
			taxAdv = append(taxAdv, a.ID)
		} else {
			taxable = append(taxable, a.ID)
		}
	}

	var share []float64
	for _, t := range targets.Tickers() {
		m := u.Meta(t)
		if policy.IsStabilizer(m, cfg) || m.TaxEfficiency == universe.Low {
			share = append(share, targets[t])
		}
	}
	pct := math.Min(0.7, math.Max(0.3, floats.Sum(share)+0.1))

	out := map[string]float64{}
	switch {
	case len(taxable) == 0:
		pct = 1
	case len(taxAdv) == 0:
		pct = 0
	}
	for _, id := range taxAdv {
		out[id] = trade.RoundCents(total * pct / float64(len(taxAdv)))
	}
	if len(taxable) > 0 {
		var assigned float64
		for _, v := range out {
			assigned += v
		}
		for _, id := range taxable {
			out[id] = trade.RoundCents((total - assigned) / float64(len(taxable)))
		}
	}
	return out
}

// Initial invests cash, keyed by account id, into targets. Tickers are placed
// in priority order: stabilizers, then by tax efficiency from low to high,
// then core before growth. Each ticker first goes to the first account with
// cash in its preferred kind; what does not fit overflows into any account
// with cash left. Shortfalls and advisory target findings come back as
// warnings.
func Initial(
	accounts []portfolio.Account,
	cash map[string]float64,
	targets portfolio.TargetWeights,
	u universe.Universe,
	cfg config.Policy,
) (*Allocation, error) {
	if len(accounts) == 0 {
		return nil, errs.Configuration("no accounts to invest into")
	}
	remaining := map[string]float64{}
	var total float64
	for _, a := range accounts {
		c := cash[a.ID]
		if c < 0 {
			return nil, errs.Configuration("account %s: negative cash %.2f", a.ID, c)
		}
		remaining[a.ID] = c
		total += c
	}
	for id := range cash {
		if _, ok := remaining[id]; !ok {
			return nil, errs.Configuration("cash given for unknown account %s", id)
		}
	}
	if total <= 0 {
		return nil, errs.State("no cash to invest")
	}

	advisory, err := policy.ValidateTargets(targets, u, cfg)
	if err != nil {
		return nil, err
	}

	alloc := &Allocation{
		Total:     trade.RoundCents(total),
		Cash:      map[string]float64{},
		ByAccount: map[string]float64{},
		ByTicker:  map[string]float64{},
	}
	for id, c := range remaining {
		alloc.Cash[id] = c
	}
	for _, v := range advisory {
		alloc.Warnings = append(alloc.Warnings, "Target: "+v.String())
	}

	minTrade := cfg.Rebalance.MinTrade
	if minTrade <= 0 {
		minTrade = 0.01
	}
	place := func(a portfolio.Account, ticker string, amount float64, rule explain.Rule) float64 {
		amount = trade.RoundCents(math.Min(amount, remaining[a.ID]))
		if amount < minTrade {
			return 0
		}
		t := explain.Annotate(trade.Trade{
			AccountID: a.ID,
			Ticker:    ticker,
			Direction: trade.Buy,
			Amount:    amount,
		}, explain.Cause{Rule: rule, Meta: u.Meta(ticker), Account: a.Kind})
		alloc.Trades = append(alloc.Trades, t)
		remaining[a.ID] -= amount
		alloc.ByAccount[a.ID] += amount
		alloc.ByTicker[ticker] += amount
		return amount
	}

	order := initialOrder(targets, u)
	pending := map[string]float64{}
	for _, t := range order {
		want := trade.RoundCents(targets[t] * total)
		preferred := portfolio.Taxable
		if u.Meta(t).PrefersTaxAdvantaged() {
			preferred = portfolio.TaxAdvantaged
		}
		for _, a := range byKindFirst(accounts, preferred) {
			if remaining[a.ID] <= 0 {
				continue
			}
			rule := explain.InitialPlacement
			if a.Kind != preferred {
				rule = explain.InitialOverflow
			}
			want -= place(a, t, want, rule)
			break
		}
		pending[t] = want
	}

	for _, t := range order {
		for _, a := range accounts {
			if pending[t] <= halfCent {
				break
			}
			if remaining[a.ID] <= 0 {
				continue
			}
			pending[t] -= place(a, t, pending[t], explain.InitialOverflow)
		}
	}

	for _, t := range order {
		want := targets[t] * total
		if got := alloc.ByTicker[t]; math.Abs(got-want) > 1 {
			alloc.Warnings = append(alloc.Warnings, fmt.Sprintf(
				"Could not fully allocate %s: target $%s, actual $%s", t, trade.Dollars(want), trade.Dollars(got)))
		}
	}
	return alloc, nil
}

func initialOrder(targets portfolio.TargetWeights, u universe.Universe) []string {
	var out []string
	for _, t := range targets.Tickers() {
		if targets[t] > 0 {
			out = append(out, t)
		}
	}
	rank := func(t string) [3]int {
		m := u.Meta(t)
		var r [3]int
		if !m.Stabilizer {
			r[0] = 1
		}
		switch m.TaxEfficiency {
		case universe.Medium:
			r[1] = 1
		case universe.High:
			r[1] = 2
		}
		if m.Sleeve == universe.Growth {
			r[2] = 1
		}
		return r
	}
	sort.SliceStable(out, func(i, j int) bool {
		ri, rj := rank(out[i]), rank(out[j])
		for k := range ri {
			if ri[k] != rj[k] {
				return ri[k] < rj[k]
			}
		}
		return out[i] < out[j]
	})
	return out
}

// byKindFirst returns accounts of kind first, each group in configured order.
func byKindFirst(accounts []portfolio.Account, kind portfolio.Kind) []portfolio.Account {
	out := make([]portfolio.Account, 0, len(accounts))
	for _, a := range accounts {
		if a.Kind == kind {
			out = append(out, a)
		}
	}
	for _, a := range accounts {
		if a.Kind != kind {
			out = append(out, a)
		}
	}
	return out
}
