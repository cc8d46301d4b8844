// Package engine runs a planning pass end to end: policy validation, drift
// detection, trade planning and journaling. It is the surface the CLI talks
// to; the packages underneath stay pure and do not log.
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/rustyeddy/rebalance/config"
	"github.com/rustyeddy/rebalance/drift"
	"github.com/rustyeddy/rebalance/journal"
	"github.com/rustyeddy/rebalance/pkg/id"
	"github.com/rustyeddy/rebalance/planner"
	"github.com/rustyeddy/rebalance/policy"
	"github.com/rustyeddy/rebalance/portfolio"
	"github.com/rustyeddy/rebalance/strategy"
	"github.com/rustyeddy/rebalance/trade"
	"github.com/rustyeddy/rebalance/universe"
)

type Engine struct {
	policy  config.Policy
	log     zerolog.Logger
	journal journal.Journal
	now     func() time.Time
}

type Option func(*Engine)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l zerolog.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// WithJournal records every Plan call to j.
func WithJournal(j journal.Journal) Option {
	return func(e *Engine) { e.journal = j }
}

// WithClock replaces time.Now for run stamps.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// New validates cfg and returns an engine bound to it.
func New(cfg config.Policy, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("policy: %w", err)
	}
	e := &Engine{
		policy: cfg,
		log:    zerolog.Nop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.log = e.log.With().Str("component", "engine").Logger()
	return e, nil
}

func (e *Engine) Policy() config.Policy { return e.policy }

// ValidatePolicies runs the allocation, risk and growth checks.
func (e *Engine) ValidatePolicies(p *portfolio.Portfolio) ([]policy.Violation, error) {
	vs, err := policy.Validate(p, e.policy)
	if err != nil {
		return nil, err
	}
	for _, v := range vs {
		e.log.Debug().Str("kind", string(v.Kind)).Strs("tickers", v.Tickers).
			Float64("current", v.Current).Float64("limit", v.Limit).Msg("policy violation")
	}
	return vs, nil
}

// DetectDrift measures every held or targeted ticker against targets.
func (e *Engine) DetectDrift(p *portfolio.Portfolio, targets portfolio.TargetWeights) ([]drift.Flag, error) {
	return drift.Detect(p, targets, e.policy)
}

// Plan validates targets and the portfolio, detects drift and plans trades in
// mode. When a journal is configured the run is recorded before returning.
func (e *Engine) Plan(ctx context.Context, p *portfolio.Portfolio, targets portfolio.TargetWeights, mode planner.Mode) (*Recommendation, error) {
	strat, err := planner.For(mode)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, fmt.Errorf("plan: nil portfolio")
	}

	warnings, err := policy.ValidateTargets(targets, p.Universe(), e.policy)
	if err != nil {
		return nil, fmt.Errorf("targets: %w", err)
	}
	violations, err := e.ValidatePolicies(p)
	if err != nil {
		return nil, err
	}
	flags, err := e.DetectDrift(p, targets)
	if err != nil {
		return nil, err
	}

	trades, err := strat.Plan(planner.Input{
		Portfolio:  p,
		Targets:    targets,
		Violations: violations,
		Flags:      flags,
		Policy:     e.policy,
	})
	if err != nil {
		return nil, fmt.Errorf("plan %s: %w", mode, err)
	}
	if trades == nil {
		trades = []trade.Trade{}
	}

	created := e.now().UTC()
	rec := &Recommendation{
		RunID:          id.At(created),
		Mode:           strat.Mode(),
		Created:        created,
		TotalValue:     p.TotalValue(),
		Cash:           p.Cash(),
		Trades:         trades,
		Violations:     violations,
		Flags:          flags,
		TargetWarnings: warnings,
	}
	rec.Summary, err = summarize(p, rec, e.policy)
	if err != nil {
		return nil, err
	}

	e.log.Info().
		Str("run_id", rec.RunID).
		Str("mode", string(rec.Mode)).
		Float64("total_value", rec.TotalValue).
		Int("violations", len(violations)).
		Int("drifted", len(rec.Summary.DriftedTickers)).
		Int("trades", len(trades)).
		Msg("plan complete")

	if e.journal != nil {
		if err := e.record(ctx, rec); err != nil {
			return nil, fmt.Errorf("journal run %s: %w", rec.RunID, err)
		}
	}
	return rec, nil
}

func (e *Engine) record(ctx context.Context, rec *Recommendation) error {
	recs := journal.Records(rec.RunID, rec.Trades)
	buys, sells := journal.Totals(recs)
	run := journal.Run{
		RunID:      rec.RunID,
		Created:    rec.Created,
		Mode:       string(rec.Mode),
		TotalValue: money(rec.TotalValue),
		Cash:       money(rec.Cash),
		Buys:       buys,
		Sells:      sells,
		Trades:     len(rec.Trades),
		Violations: len(rec.Violations),
		Flagged:    len(rec.Summary.DriftedTickers),
	}
	if err := e.journal.RecordRun(ctx, run, recs); err != nil {
		return err
	}
	e.log.Debug().Str("run_id", rec.RunID).Int("trades", len(recs)).Msg("run recorded")
	return nil
}

// Init invests a new household's cash. cash is keyed by account id.
func (e *Engine) Init(
	_ context.Context,
	accounts []portfolio.Account,
	cash map[string]float64,
	targets portfolio.TargetWeights,
	u universe.Universe,
) (*planner.Allocation, error) {
	alloc, err := planner.Initial(accounts, cash, targets, u, e.policy)
	if err != nil {
		return nil, err
	}
	e.log.Info().
		Float64("total", alloc.Total).
		Int("trades", len(alloc.Trades)).
		Int("warnings", len(alloc.Warnings)).
		Msg("initial allocation")
	for _, w := range alloc.Warnings {
		e.log.Warn().Msg(w)
	}
	return alloc, nil
}

// Editor returns a growth-sleeve editor over targets.
func (e *Engine) Editor(targets portfolio.TargetWeights, u universe.Universe) strategy.Editor {
	return strategy.Editor{Targets: targets, Universe: u, Policy: e.policy}
}
