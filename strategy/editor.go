// Package strategy edits the growth sleeve of a target set: adding, removing
// and rotating positions while keeping the growth rules of the policy.
package strategy

import (
	"fmt"
	"strings"

	"github.com/rustyeddy/rebalance/config"
	"github.com/rustyeddy/rebalance/errs"
	"github.com/rustyeddy/rebalance/policy"
	"github.com/rustyeddy/rebalance/portfolio"
	"github.com/rustyeddy/rebalance/universe"
	"gonum.org/v1/gonum/floats"
)

const tolerance = portfolio.SumTolerance

// Editor applies growth-sleeve edits to a target set. It never modifies its
// own fields; every edit returns a new Result.
type Editor struct {
	Targets  portfolio.TargetWeights
	Universe universe.Universe
	Policy   config.Policy
}

// Result is an edited target set. Universe includes any ticker the edit
// introduced.
type Result struct {
	Targets  portfolio.TargetWeights
	Universe universe.Universe
	Message  string
}

// Sum is the total target weight after the edit. An Add that does not take
// weight from elsewhere leaves it above one.
func (r Result) Sum() float64 { return r.Targets.Sum() }

// Add sets ticker's growth target to weight. A ticker the universe does not
// describe is added as a growth asset of the given type.
func (e Editor) Add(ticker string, weight float64, assetType universe.AssetType) (Result, error) {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	if ticker == "" {
		return Result{}, errs.Configuration("empty ticker")
	}
	if weight <= 0 {
		return Result{}, errs.Configuration("weight must be positive, got %v", weight)
	}

	u, meta, err := e.describe(ticker, assetType)
	if err != nil {
		return Result{}, err
	}
	if meta.Sleeve != universe.Growth {
		return Result{}, errs.Configuration("cannot add %s: not in growth sleeve", ticker)
	}

	next := e.Targets.Clone()
	next[ticker] = weight
	if err := e.check(ticker, meta, next); err != nil {
		return Result{}, fmt.Errorf("cannot add %s: %w", ticker, err)
	}

	current := e.Targets.Get(ticker)
	if growth, delta := growthWeight(next, u), weight-current; growth > e.Policy.Sleeves.GrowthMax+tolerance {
		return Result{}, errs.Configuration("cannot add %.2f%% to growth sleeve: would reach %.2f%% > cap %.2f%%",
			100*delta, 100*growth, 100*e.Policy.Sleeves.GrowthMax)
	}

	msg := fmt.Sprintf("Added %s to growth sleeve at %.2f%%", ticker, 100*weight)
	if current > 0 {
		msg = fmt.Sprintf("Updated %s from %.2f%% to %.2f%%", ticker, 100*current, 100*weight)
	}
	return Result{Targets: next, Universe: u, Message: msg}, nil
}

// Remove zeroes ticker's target. The entry is kept at zero so the override
// layer records the removal.
func (e Editor) Remove(ticker string) (Result, error) {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	old, ok := e.Targets[ticker]
	if !ok {
		return Result{}, errs.Configuration("ticker %s not found in targets", ticker)
	}
	if e.Universe.Meta(ticker).Sleeve != universe.Growth {
		return Result{}, errs.Configuration("cannot remove %s: not in growth sleeve", ticker)
	}
	next := e.Targets.Clone()
	next[ticker] = 0
	return Result{
		Targets:  next,
		Universe: e.Universe,
		Message:  fmt.Sprintf("Removed %s from growth sleeve (was %.2f%%)", ticker, 100*old),
	}, nil
}

// Rotate moves weight from one growth position to another. The growth total
// is unchanged, so the cap is not rechecked.
func (e Editor) Rotate(from, to string, weight float64) (Result, error) {
	from = strings.ToUpper(strings.TrimSpace(from))
	to = strings.ToUpper(strings.TrimSpace(to))
	if weight <= 0 {
		return Result{}, errs.Configuration("weight must be positive, got %v", weight)
	}
	if from == to {
		return Result{}, errs.Configuration("cannot rotate %s into itself", from)
	}
	cur, ok := e.Targets[from]
	if !ok {
		return Result{}, errs.Configuration("source ticker %s not found in targets", from)
	}
	if e.Universe.Meta(from).Sleeve != universe.Growth {
		return Result{}, errs.Configuration("cannot rotate from %s: not in growth sleeve", from)
	}
	if weight > cur+tolerance {
		return Result{}, errs.Configuration("cannot rotate %.2f%% from %s: only has %.2f%%", 100*weight, from, 100*cur)
	}

	u, meta, err := e.describe(to, universe.Stock)
	if err != nil {
		return Result{}, err
	}
	if meta.Sleeve != universe.Growth {
		return Result{}, errs.Configuration("cannot rotate into %s: not in growth sleeve", to)
	}

	next := e.Targets.Clone()
	next[from] = clamp(cur - weight)
	next[to] = e.Targets.Get(to) + weight
	if err := e.check(to, meta, next); err != nil {
		return Result{}, fmt.Errorf("cannot rotate into %s: %w", to, err)
	}

	msg := fmt.Sprintf("Rotated %.2f%% from %s to %s (%s: %.2f%% -> %.2f%%, %s: %.2f%% -> %.2f%%)",
		100*weight, from, to,
		from, 100*cur, 100*next[from],
		to, 100*e.Targets.Get(to), 100*next[to])
	return Result{Targets: next, Universe: u, Message: msg}, nil
}

// describe returns the universe, extended with a default growth entry when
// ticker is new, and ticker's metadata.
func (e Editor) describe(ticker string, assetType universe.AssetType) (universe.Universe, universe.AssetMeta, error) {
	if m, ok := e.Universe.Lookup(ticker); ok {
		return e.Universe, m, nil
	}
	if assetType == "" {
		assetType = universe.Stock
	}
	u, err := e.Universe.With(universe.AssetMeta{
		Ticker:        ticker,
		Sleeve:        universe.Growth,
		AssetType:     assetType,
		TaxEfficiency: universe.High,
	})
	if err != nil {
		return universe.Universe{}, universe.AssetMeta{}, errs.Configuration("%s: %v", ticker, err)
	}
	m, _ := u.Lookup(ticker)
	return u, m, nil
}

// check applies the position rules to ticker within the proposed targets.
func (e Editor) check(ticker string, meta universe.AssetMeta, next portfolio.TargetWeights) error {
	g := e.Policy.Growth
	if g.ProhibitLeveraged && meta.Leveraged {
		return errs.Configuration("leveraged ETFs are prohibited for long-term holding")
	}
	if g.QQQOrSPYGExclusive {
		pair := e.Policy.Pair()
		for i, t := range pair {
			other := pair[1-i]
			if strings.EqualFold(t, ticker) && next.Get(other) > 0 {
				return errs.Configuration("conflicts with %s (choose %s or %s, not both)", other, pair[0], pair[1])
			}
		}
	}
	if policy.IsConcentrationLimited(meta) && next[ticker] > g.MaxSingleStockWeight+tolerance {
		return errs.Configuration("%.2f%% exceeds single-stock max %.2f%%", 100*next[ticker], 100*g.MaxSingleStockWeight)
	}
	return nil
}

func growthWeight(targets portfolio.TargetWeights, u universe.Universe) float64 {
	var ws []float64
	for _, t := range targets.Tickers() {
		if u.Meta(t).Sleeve == universe.Growth {
			ws = append(ws, targets[t])
		}
	}
	return floats.Sum(ws)
}

func clamp(w float64) float64 {
	if w < tolerance {
		return 0
	}
	return w
}

// Position is one growth target.
type Position struct {
	Ticker    string             `json:"ticker" yaml:"ticker"`
	Weight    float64            `json:"weight" yaml:"weight"`
	AssetType universe.AssetType `json:"asset_type" yaml:"asset_type"`
}

// Composition is the growth sleeve of a target set.
type Composition struct {
	Positions []Position `json:"positions" yaml:"positions"`
	Total     float64    `json:"total" yaml:"total"`
	Cap       float64    `json:"cap" yaml:"cap"`
}

// Remaining is the weight that can still be added before the cap.
func (c Composition) Remaining() float64 { return c.Cap - c.Total }

// Growth lists the positive growth targets by ticker.
func (e Editor) Growth() Composition {
	c := Composition{Cap: e.Policy.Sleeves.GrowthMax}
	for _, t := range e.Targets.Tickers() {
		m := e.Universe.Meta(t)
		if m.Sleeve != universe.Growth || e.Targets[t] <= 0 {
			continue
		}
		c.Positions = append(c.Positions, Position{Ticker: t, Weight: e.Targets[t], AssetType: m.AssetType})
	}
	c.Total = growthWeight(e.Targets, e.Universe)
	return c
}
