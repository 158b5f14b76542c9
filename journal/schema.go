// journal/schema.go
package journal

const Schema = `
CREATE TABLE IF NOT EXISTS trades (
	trade_id TEXT PRIMARY KEY,
	pair TEXT NOT NULL,
	side TEXT NOT NULL,
	entry_price REAL NOT NULL,
	exit_price REAL NOT NULL,
	open_time DATETIME NOT NULL,
	close_time DATETIME NOT NULL,
	profit REAL NOT NULL,
	reason TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_trades_close_time ON trades(close_time);

CREATE TABLE IF NOT EXISTS equity (
	time DATETIME NOT NULL,
	balance REAL NOT NULL,
	total_profit REAL NOT NULL,
	open_positions INTEGER NOT NULL,
	win_rate INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_equity_time ON equity(time);
`
