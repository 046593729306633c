package journal

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/vqhuy/bracketd/internal/types"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// SQLiteJournal implements Journal using SQLite.
type SQLiteJournal struct {
	db *sql.DB
}

var _ Journal = (*SQLiteJournal)(nil)

// NewSQLiteJournal opens (or creates) the journal database at path.
func NewSQLiteJournal(path string) (*SQLiteJournal, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	j := &SQLiteJournal{db: db}

	if err := j.migrate(context.Background()); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return j, nil
}

func (j *SQLiteJournal) migrate(ctx context.Context) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS executions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			signal_id TEXT NOT NULL,
			received_at DATETIME NOT NULL,
			action TEXT NOT NULL,
			symbol TEXT NOT NULL,
			status TEXT NOT NULL,
			detail TEXT NOT NULL DEFAULT '',
			order_id INTEGER NOT NULL DEFAULT 0,
			side TEXT NOT NULL DEFAULT '',
			quantity TEXT NOT NULL DEFAULT '0',
			avg_price TEXT NOT NULL DEFAULT '0',
			price_source TEXT NOT NULL DEFAULT '',
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_executions_signal_id ON executions(signal_id)`,
		`CREATE INDEX IF NOT EXISTS idx_executions_symbol ON executions(symbol)`,

		`CREATE TABLE IF NOT EXISTS bracket_legs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			signal_id TEXT NOT NULL,
			kind TEXT NOT NULL,
			order_id INTEGER NOT NULL DEFAULT 0,
			trigger_price TEXT NOT NULL DEFAULT '0',
			placed INTEGER NOT NULL DEFAULT 0,
			error TEXT NOT NULL DEFAULT '',
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_bracket_legs_signal_id ON bracket_legs(signal_id)`,
	}

	for _, migration := range migrations {
		if _, err := j.db.ExecContext(ctx, migration); err != nil {
			return fmt.Errorf("execute migration: %w", err)
		}
	}

	return nil
}

// RecordExecution appends one execution outcome.
func (j *SQLiteJournal) RecordExecution(ctx context.Context, rec ExecutionRecord) error {
	query := `INSERT INTO executions
		(signal_id, received_at, action, symbol, status, detail, order_id, side, quantity, avg_price, price_source)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := j.db.ExecContext(ctx, query,
		rec.SignalID,
		rec.ReceivedAt,
		rec.Action.String(),
		rec.Symbol,
		rec.Status,
		rec.Detail,
		rec.OrderID,
		rec.Side,
		rec.Quantity.String(),
		rec.AvgPrice.String(),
		rec.PriceSource,
	)
	if err != nil {
		return fmt.Errorf("insert execution: %w", err)
	}

	return nil
}

// RecordLegs appends the protective order attempts of a bracket.
func (j *SQLiteJournal) RecordLegs(ctx context.Context, signalID string, status *types.BracketStatus) error {
	if status == nil {
		return nil
	}

	query := `INSERT INTO bracket_legs (signal_id, kind, order_id, trigger_price, placed, error)
		VALUES (?, ?, ?, ?, ?, ?)`

	for _, leg := range []types.BracketLeg{status.StopLoss, status.TakeProfit} {
		errText := ""
		if leg.Err != nil {
			errText = leg.Err.Error()
		}

		_, err := j.db.ExecContext(ctx, query,
			signalID,
			string(leg.Kind),
			leg.OrderID,
			leg.TriggerPrice.String(),
			leg.Placed(),
			errText,
		)
		if err != nil {
			return fmt.Errorf("insert bracket leg: %w", err)
		}
	}

	return nil
}

// RecentExecutions returns the most recent executions, newest first.
func (j *SQLiteJournal) RecentExecutions(ctx context.Context, limit int) ([]ExecutionRecord, error) {
	query := `SELECT id, signal_id, received_at, action, symbol, status, detail, order_id, side, quantity, avg_price, price_source
		FROM executions ORDER BY id DESC LIMIT ?`

	rows, err := j.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query executions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []ExecutionRecord
	for rows.Next() {
		var rec ExecutionRecord
		var action, quantity, avgPrice string

		if err := rows.Scan(&rec.ID, &rec.SignalID, &rec.ReceivedAt, &action, &rec.Symbol,
			&rec.Status, &rec.Detail, &rec.OrderID, &rec.Side, &quantity, &avgPrice, &rec.PriceSource); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}

		rec.Action = parseAction(action)
		rec.Quantity, _ = decimal.NewFromString(quantity)
		rec.AvgPrice, _ = decimal.NewFromString(avgPrice)

		records = append(records, rec)
	}

	return records, rows.Err()
}

func parseAction(s string) types.Action {
	switch s {
	case "enter":
		return types.ActionEnter
	case "close":
		return types.ActionClose
	default:
		return types.ActionNotify
	}
}

// Close closes the database connection.
func (j *SQLiteJournal) Close() error {
	return j.db.Close()
}
