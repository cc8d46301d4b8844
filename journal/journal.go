// Package journal persists planning runs so past recommendations can be
// listed, compared and exported.
package journal

import (
	"context"
	"time"

	"github.com/rustyeddy/rebalance/trade"
	"github.com/shopspring/decimal"
)

// Run is the header of one planning pass.
type Run struct {
	RunID      string          `json:"run_id" yaml:"run_id"`
	Created    time.Time       `json:"created" yaml:"created"`
	Mode       string          `json:"mode" yaml:"mode"`
	TotalValue decimal.Decimal `json:"total_value" yaml:"total_value"`
	Cash       decimal.Decimal `json:"cash" yaml:"cash"`
	Buys       decimal.Decimal `json:"buys" yaml:"buys"`
	Sells      decimal.Decimal `json:"sells" yaml:"sells"`
	Trades     int             `json:"trades" yaml:"trades"`
	Violations int             `json:"violations" yaml:"violations"`
	Flagged    int             `json:"flagged" yaml:"flagged"`
	Notes      string          `json:"notes" yaml:"notes"`
}

// TradeRecord is one trade of a run. Seq keeps the planner's order.
type TradeRecord struct {
	RunID     string          `json:"run_id" yaml:"run_id"`
	Seq       int             `json:"seq" yaml:"seq"`
	AccountID string          `json:"account_id" yaml:"account_id"`
	Ticker    string          `json:"ticker" yaml:"ticker"`
	Direction string          `json:"direction" yaml:"direction"`
	Amount    decimal.Decimal `json:"amount" yaml:"amount"`
	Cause     string          `json:"cause" yaml:"cause"`
	Reason    string          `json:"reason" yaml:"reason"`
}

type Journal interface {
	RecordRun(ctx context.Context, run Run, trades []TradeRecord) error
	Close() error
}

// Records converts planned trades into journal rows for runID.
func Records(runID string, trades []trade.Trade) []TradeRecord {
	out := make([]TradeRecord, len(trades))
	for i, t := range trades {
		out[i] = TradeRecord{
			RunID:     runID,
			Seq:       i + 1,
			AccountID: t.AccountID,
			Ticker:    t.Ticker,
			Direction: string(t.Direction),
			Amount:    decimal.NewFromFloat(t.Amount).Round(2),
			Cause:     t.Cause,
			Reason:    t.Reason,
		}
	}
	return out
}

// Totals sums a run's trade amounts per direction.
func Totals(trades []TradeRecord) (buys, sells decimal.Decimal) {
	for _, t := range trades {
		if t.Direction == string(trade.Sell) {
			sells = sells.Add(t.Amount)
		} else {
			buys = buys.Add(t.Amount)
		}
	}
	return buys, sells
}
