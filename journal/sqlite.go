package journal

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

type SQLite struct {
	db *sql.DB
}

// NewSQLite opens (creating if needed) the journal database at path.
func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on")
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(Schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("journal schema: %w", err)
	}
	return &SQLite{db: db}, nil
}

// RecordRun stores a run and its trades in one transaction.
func (j *SQLite) RecordRun(ctx context.Context, run Run, trades []TradeRecord) error {
	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs
		(run_id, created, mode, total_value, cash, buys, sells, trades, violations, flagged, notes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.RunID, run.Created.UTC(), run.Mode,
		run.TotalValue.String(), run.Cash.String(), run.Buys.String(), run.Sells.String(),
		run.Trades, run.Violations, run.Flagged, run.Notes,
	)
	if err != nil {
		return fmt.Errorf("insert run %s: %w", run.RunID, err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO trades
		(run_id, seq, account_id, ticker, direction, amount, cause, reason)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, t := range trades {
		if _, err := stmt.ExecContext(ctx,
			run.RunID, t.Seq, t.AccountID, t.Ticker, t.Direction, t.Amount.String(), t.Cause, t.Reason,
		); err != nil {
			return fmt.Errorf("insert trade %s/%d: %w", run.RunID, t.Seq, err)
		}
	}
	return tx.Commit()
}

// DeleteRun removes a run and its trades.
func (j *SQLite) DeleteRun(ctx context.Context, runID string) error {
	res, err := j.db.ExecContext(ctx, `DELETE FROM runs WHERE run_id = ?`, runID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("run %q not found", runID)
	}
	return nil
}

func (j *SQLite) Close() error {
	return j.db.Close()
}
