package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const runColumns = `run_id, created, mode, total_value, cash, buys, sells, trades, violations, flagged, notes`

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (Run, error) {
	var r Run
	err := s.Scan(
		&r.RunID, &r.Created, &r.Mode,
		&r.TotalValue, &r.Cash, &r.Buys, &r.Sells,
		&r.Trades, &r.Violations, &r.Flagged, &r.Notes,
	)
	return r, err
}

// GetRun returns a single run header by id.
func (j *SQLite) GetRun(ctx context.Context, runID string) (Run, error) {
	row := j.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE run_id = ?`, runID)
	r, err := scanRun(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Run{}, fmt.Errorf("run %q not found", runID)
		}
		return Run{}, err
	}
	return r, nil
}

// ListRuns returns the most recent runs first. A limit of zero or less
// returns every run.
func (j *SQLite) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := j.db.QueryContext(ctx,
		`SELECT `+runColumns+` FROM runs ORDER BY created DESC, run_id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	return collectRuns(rows)
}

// ListRunsBetween returns runs created within [start, end), oldest first.
func (j *SQLite) ListRunsBetween(ctx context.Context, start, end time.Time) ([]Run, error) {
	rows, err := j.db.QueryContext(ctx,
		`SELECT `+runColumns+` FROM runs WHERE created >= ? AND created < ? ORDER BY created ASC, run_id ASC`,
		start.UTC(), end.UTC())
	if err != nil {
		return nil, err
	}
	return collectRuns(rows)
}

func collectRuns(rows *sql.Rows) ([]Run, error) {
	defer rows.Close()
	var out []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ListTradesByRunID returns a run's trades in planning order.
func (j *SQLite) ListTradesByRunID(ctx context.Context, runID string) ([]TradeRecord, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT run_id, seq, account_id, ticker, direction, amount, cause, reason
		FROM trades
		WHERE run_id = ?
		ORDER BY seq ASC`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TradeRecord
	for rows.Next() {
		var t TradeRecord
		if err := rows.Scan(
			&t.RunID, &t.Seq, &t.AccountID, &t.Ticker, &t.Direction, &t.Amount, &t.Cause, &t.Reason,
		); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ExportRunOrg loads a run and its trades and renders the Org report.
func (j *SQLite) ExportRunOrg(ctx context.Context, runID string) (string, error) {
	run, err := j.GetRun(ctx, runID)
	if err != nil {
		return "", err
	}
	trades, err := j.ListTradesByRunID(ctx, runID)
	if err != nil {
		return "", err
	}
	return FormatRunOrg(run, trades)
}
