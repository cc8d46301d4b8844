package journal

// Amounts are stored as decimal text so cents survive the round trip.
const Schema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id TEXT PRIMARY KEY,
	created DATETIME NOT NULL,
	mode TEXT NOT NULL,
	total_value TEXT NOT NULL,
	cash TEXT NOT NULL,
	buys TEXT NOT NULL,
	sells TEXT NOT NULL,
	trades INTEGER NOT NULL,
	violations INTEGER NOT NULL,
	flagged INTEGER NOT NULL,
	notes TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS trades (
	run_id TEXT NOT NULL REFERENCES runs(run_id) ON DELETE CASCADE,
	seq INTEGER NOT NULL,
	account_id TEXT NOT NULL,
	ticker TEXT NOT NULL,
	direction TEXT NOT NULL,
	amount TEXT NOT NULL,
	cause TEXT NOT NULL,
	reason TEXT NOT NULL,
	PRIMARY KEY (run_id, seq)
);

CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created);
CREATE INDEX IF NOT EXISTS idx_trades_ticker ON trades(ticker);
`
