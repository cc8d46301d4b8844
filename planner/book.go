package planner

import (
	"sort"

	"github.com/rustyeddy/rebalance/config"
	"github.com/rustyeddy/rebalance/errs"
	"github.com/rustyeddy/rebalance/explain"
	"github.com/rustyeddy/rebalance/portfolio"
	"github.com/rustyeddy/rebalance/trade"
	"github.com/rustyeddy/rebalance/universe"
)

// halfCent absorbs the difference between a requested amount and its
// cent-rounded trade.
const halfCent = 0.005

type account struct {
	id       string
	kind     portfolio.Kind
	cash     float64
	holdings map[string]float64
}

// book is the planner's working copy of the household. Every emitted trade is
// applied to it, so later steps see the effect of earlier ones.
type book struct {
	accounts []*account
	universe universe.Universe
	policy   config.Policy
	total    float64
	trades   []trade.Trade
	// moved is the net signed amount traded per ticker in this pass.
	moved map[string]float64
	// ceiling caps the working value of a ticker that was sold to clear a
	// violation, so later buys do not reopen it.
	ceiling map[string]float64
}

func newBook(p *portfolio.Portfolio, cfg config.Policy) (*book, error) {
	total := p.TotalValue()
	if total <= 0 {
		return nil, errs.State("portfolio total value is %.2f", total)
	}
	b := &book{
		universe: p.Universe(),
		policy:   cfg,
		total:    total,
		moved:    map[string]float64{},
		ceiling:  map[string]float64{},
	}
	for _, a := range p.Accounts() {
		b.accounts = append(b.accounts, &account{
			id:       a.ID,
			kind:     a.Kind,
			cash:     a.Cash,
			holdings: a.Holdings,
		})
	}
	return b, nil
}

// held is the working dollar value of ticker across all accounts.
func (b *book) held(ticker string) float64 {
	var v float64
	for _, a := range b.accounts {
		v += a.holdings[ticker]
	}
	return v
}

// heldWhere sums working holdings of the tickers whose metadata matches.
func (b *book) heldWhere(match func(universe.AssetMeta) bool) float64 {
	var v float64
	for _, t := range b.tickers() {
		if match(b.universe.Meta(t)) {
			v += b.held(t)
		}
	}
	return v
}

func (b *book) tickers() []string {
	set := map[string]bool{}
	for _, a := range b.accounts {
		for t, v := range a.holdings {
			if v > 0 {
				set[t] = true
			}
		}
	}
	out := make([]string, 0, len(set))
	for t := range set {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

func (b *book) minTrade() float64 {
	if b.policy.Rebalance.MinTrade > 0 {
		return b.policy.Rebalance.MinTrade
	}
	return 0.01
}

// capTo limits ticker's working value to v for the rest of the pass.
func (b *book) capTo(ticker string, v float64) {
	if v < 0 {
		v = 0
	}
	if c, ok := b.ceiling[ticker]; !ok || v < c {
		b.ceiling[ticker] = v
	}
}

// room trims a buy of ticker to what its ceiling still allows.
func (b *book) room(ticker string, amount float64) float64 {
	if c, ok := b.ceiling[ticker]; ok {
		return minf(amount, c-b.held(ticker))
	}
	return amount
}

// emit records an annotated trade and applies it to the working copy. Amounts
// under the minimum trade size are dropped and -1 is returned.
func (b *book) emit(a *account, ticker string, dir trade.Direction, amount float64, c explain.Cause) int {
	if amount < b.minTrade() {
		return -1
	}
	return b.record(a, ticker, dir, amount, c)
}

func (b *book) record(a *account, ticker string, dir trade.Direction, amount float64, c explain.Cause) int {
	c.Account = a.kind
	if c.Meta.Ticker == "" {
		c.Meta = b.universe.Meta(ticker)
	}
	t := explain.Annotate(trade.Trade{
		AccountID: a.id,
		Ticker:    ticker,
		Direction: dir,
		Amount:    amount,
	}, c)
	b.apply(a, t)
	b.trades = append(b.trades, t)
	return len(b.trades) - 1
}

// extend grows an already emitted buy by amount.
func (b *book) extend(i int, a *account, amount float64) {
	extra := trade.Trade{Ticker: b.trades[i].Ticker, Direction: trade.Buy, Amount: amount}
	b.apply(a, extra)
	b.trades[i].Amount = trade.RoundCents(b.trades[i].Amount + amount)
}

func (b *book) apply(a *account, t trade.Trade) {
	switch t.Direction {
	case trade.Buy:
		a.holdings[t.Ticker] += t.Amount
		a.cash -= t.Amount
		if a.cash < 0 {
			a.cash = 0
		}
	case trade.Sell:
		a.holdings[t.Ticker] -= t.Amount
		if a.holdings[t.Ticker] < halfCent {
			delete(a.holdings, t.Ticker)
		}
		a.cash += t.Amount
	}
	b.moved[t.Ticker] += t.Signed()
}

// sell removes amount of ticker. With taxableLast every tax-advantaged
// position is exhausted before a taxable account sells; otherwise the largest
// positions sell first regardless of account kind.
func (b *book) sell(ticker string, amount float64, taxableLast bool, c explain.Cause) error {
	if amount <= 0 {
		return nil
	}
	if have := b.held(ticker); amount > have+halfCent {
		return errs.State("sell %s %.2f exceeds holdings %.2f", ticker, amount, have)
	}

	remaining := amount
	for _, a := range b.sellOrder(ticker, taxableLast) {
		if remaining <= halfCent {
			break
		}
		h := a.holdings[ticker]
		chunk := h
		if remaining < h-halfCent {
			chunk = trade.RoundCents(remaining)
		}
		cc := c
		switch {
		case !taxableLast:
			cc.Rule = explain.DriftSell
		case a.kind == portfolio.Taxable:
			cc.Rule = explain.TaxableSell
		default:
			cc.Rule = explain.TaxAdvantagedSell
		}
		// Closing out a position is never too small to trade; otherwise the
		// remainder would fall through to the next account.
		var i int
		if chunk >= h-halfCent {
			i = b.record(a, ticker, trade.Sell, chunk, cc)
		} else {
			i = b.emit(a, ticker, trade.Sell, chunk, cc)
		}
		if i < 0 {
			break
		}
		remaining -= chunk
	}
	return nil
}

func (b *book) sellOrder(ticker string, taxableLast bool) []*account {
	var out []*account
	for _, a := range b.accounts {
		if a.holdings[ticker] > halfCent {
			out = append(out, a)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if taxableLast && out[i].kind != out[j].kind {
			return out[i].kind == portfolio.TaxAdvantaged
		}
		return out[i].holdings[ticker] > out[j].holdings[ticker]
	})
	return out
}

// buy places amount of ticker. Accounts of the kind asset location prefers
// are filled first, largest cash first, then accounts of the other kind. What
// no account's cash covers is assigned to the first taxable account, or the
// first account when there is no taxable one.
func (b *book) buy(ticker string, amount float64, c explain.Cause) {
	if amount <= 0 || len(b.accounts) == 0 {
		return
	}
	meta := b.universe.Meta(ticker)
	c.Meta = meta
	preferred := portfolio.Taxable
	if meta.PrefersTaxAdvantaged() {
		preferred = portfolio.TaxAdvantaged
	}

	placed := map[string]int{}
	remaining := amount
	for _, a := range b.buyOrder(preferred) {
		if remaining <= halfCent {
			break
		}
		chunk := trade.RoundCents(minf(remaining, a.cash))
		cc := c
		cc.Rule = explain.LocationBuy
		if a.kind != preferred {
			cc.Rule = explain.OverflowBuy
		}
		if i := b.emit(a, ticker, trade.Buy, chunk, cc); i >= 0 {
			placed[a.id] = i
			remaining -= chunk
		}
	}

	if remaining <= halfCent {
		return
	}
	a := b.fallback()
	chunk := trade.RoundCents(remaining)
	if i, ok := placed[a.id]; ok {
		b.extend(i, a, chunk)
		return
	}
	cc := c
	cc.Rule = explain.UnfundedBuy
	b.emit(a, ticker, trade.Buy, chunk, cc)
}

func (b *book) buyOrder(preferred portfolio.Kind) []*account {
	var out []*account
	for _, a := range b.accounts {
		if a.cash > halfCent {
			out = append(out, a)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].kind != out[j].kind {
			return out[i].kind == preferred
		}
		return out[i].cash > out[j].cash
	})
	return out
}

func (b *book) fallback() *account {
	for _, a := range b.accounts {
		if a.kind == portfolio.Taxable {
			return a
		}
	}
	return b.accounts[0]
}

func minf(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
