package journal

import (
	"context"
	"encoding/csv"
	"errors"
	"io"
	"os"
	"strconv"
	"time"
)

var (
	runHeader   = []string{"run_id", "created", "mode", "total_value", "cash", "buys", "sells", "trades", "violations", "flagged", "notes"}
	tradeHeader = []string{"run_id", "seq", "account_id", "ticker", "direction", "amount", "cause", "reason"}
)

// CSV appends runs and trades to two CSV files, writing a header row when a
// file is new.
type CSV struct {
	runs   *csv.Writer
	trades *csv.Writer
	rf, tf *os.File
}

func NewCSV(runsPath, tradesPath string) (*CSV, error) {
	rf, rw, err := openAppend(runsPath, runHeader)
	if err != nil {
		return nil, err
	}
	tf, tw, err := openAppend(tradesPath, tradeHeader)
	if err != nil {
		_ = rf.Close()
		return nil, err
	}
	return &CSV{runs: rw, trades: tw, rf: rf, tf: tf}, nil
}

func openAppend(path string, header []string) (*os.File, *csv.Writer, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, err
	}
	w := csv.NewWriter(f)
	st, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, nil, err
	}
	if st.Size() == 0 {
		if err := w.Write(header); err != nil {
			_ = f.Close()
			return nil, nil, err
		}
		w.Flush()
		if err := w.Error(); err != nil {
			_ = f.Close()
			return nil, nil, err
		}
	}
	return f, w, nil
}

func (j *CSV) RecordRun(_ context.Context, run Run, trades []TradeRecord) error {
	if err := j.runs.Write([]string{
		run.RunID,
		run.Created.UTC().Format(time.RFC3339),
		run.Mode,
		run.TotalValue.StringFixed(2),
		run.Cash.StringFixed(2),
		run.Buys.StringFixed(2),
		run.Sells.StringFixed(2),
		strconv.Itoa(run.Trades),
		strconv.Itoa(run.Violations),
		strconv.Itoa(run.Flagged),
		run.Notes,
	}); err != nil {
		return err
	}
	j.runs.Flush()
	if err := j.runs.Error(); err != nil {
		return err
	}

	for _, t := range trades {
		if err := j.trades.Write([]string{
			run.RunID,
			strconv.Itoa(t.Seq),
			t.AccountID,
			t.Ticker,
			t.Direction,
			t.Amount.StringFixed(2),
			t.Cause,
			t.Reason,
		}); err != nil {
			return err
		}
	}
	j.trades.Flush()
	return j.trades.Error()
}

func (j *CSV) Close() error {
	j.runs.Flush()
	j.trades.Flush()
	return errors.Join(j.runs.Error(), j.trades.Error(), j.rf.Close(), j.tf.Close())
}

// WriteTradesCSV writes trades with a header row to w.
func WriteTradesCSV(w io.Writer, trades []TradeRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(tradeHeader); err != nil {
		return err
	}
	for _, t := range trades {
		if err := cw.Write([]string{
			t.RunID, strconv.Itoa(t.Seq), t.AccountID, t.Ticker, t.Direction,
			t.Amount.StringFixed(2), t.Cause, t.Reason,
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
