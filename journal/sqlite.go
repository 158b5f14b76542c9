package journal

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

type SQLite struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}

	if _, err := db.Exec(Schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &SQLite{db: db}, nil
}

func (j *SQLite) RecordTrade(t TradeRecord) error {
	_, err := j.db.Exec(`
		INSERT INTO trades
		(trade_id, pair, side, entry_price, exit_price, open_time, close_time, profit, reason)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.TradeID, string(t.Pair), string(t.Side), t.EntryPrice,
		t.ExitPrice, t.OpenTime.UTC(), t.CloseTime.UTC(), t.Profit, t.Reason,
	)
	return err
}

func (j *SQLite) RecordEquity(e EquitySnapshot) error {
	_, err := j.db.Exec(`
		INSERT INTO equity
		(time, balance, total_profit, open_positions, win_rate)
		VALUES (?, ?, ?, ?, ?)`,
		e.Time.UTC(), e.Balance, e.TotalProfit, e.OpenPositions, e.WinRate,
	)
	return err
}

func (j *SQLite) Close() error {
	return j.db.Close()
}
