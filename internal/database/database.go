package database

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// DB wraps the database connection and provides methods for data access.
// Write transactions are opened as BEGIN IMMEDIATE (via _txlock) so that two
// concurrent units of work on the same database serialize instead of failing
// mid-transaction; _busy_timeout makes the loser wait rather than error.
type DB struct {
	conn *sql.DB
}

// NewDB creates a new database connection and initializes the schema.
func NewDB(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=1&_busy_timeout=5000&_txlock=immediate")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db := &DB{conn: conn}

	if err := db.initSchema(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// initSchema creates the necessary tables if they don't exist.
func (db *DB) initSchema() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS leads (
			id TEXT PRIMARY KEY,
			vertical TEXT NOT NULL,
			contact_name TEXT NOT NULL DEFAULT '',
			contact_email TEXT NOT NULL DEFAULT '',
			contact_phone TEXT NOT NULL DEFAULT '',
			contact_state TEXT NOT NULL DEFAULT '',
			attributes TEXT NOT NULL DEFAULT '{}',
			validation_ok INTEGER NOT NULL DEFAULT 0,
			traffic_source TEXT NOT NULL DEFAULT '',
			score INTEGER NOT NULL,
			created_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS auction_results (
			id TEXT PRIMARY KEY,
			lead_id TEXT NOT NULL,
			buyer_id TEXT NOT NULL,
			buyer_name TEXT NOT NULL,
			winning_bid REAL NOT NULL,
			composite_score REAL NOT NULL,
			total_bidders INTEGER NOT NULL,
			price_floor REAL NOT NULL,
			buyer_reputation INTEGER NOT NULL,
			created_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_auction_lead_id ON auction_results(lead_id)`,
		`CREATE TABLE IF NOT EXISTS buyer_reputation (
			buyer_id TEXT PRIMARY KEY,
			score INTEGER NOT NULL DEFAULT 80,
			total_leads INTEGER NOT NULL DEFAULT 0,
			returns INTEGER NOT NULL DEFAULT 0,
			updated_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS resources (
			id TEXT PRIMARY KEY,
			tenant_id TEXT NOT NULL,
			name TEXT NOT NULL,
			timezone TEXT NOT NULL,
			buffer_minutes INTEGER NOT NULL DEFAULT 15,
			active INTEGER NOT NULL DEFAULT 1,
			created_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS slots (
			id TEXT PRIMARY KEY,
			resource_id TEXT NOT NULL REFERENCES resources(id),
			start_ts TEXT NOT NULL,
			end_ts TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'available'
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_slots_resource_start ON slots(resource_id, start_ts)`,
		`CREATE INDEX IF NOT EXISTS idx_slots_status ON slots(resource_id, status, start_ts)`,
		`CREATE TABLE IF NOT EXISTS appointments (
			id TEXT PRIMARY KEY,
			resource_id TEXT NOT NULL REFERENCES resources(id),
			lead_id TEXT NOT NULL DEFAULT '',
			contact_name TEXT NOT NULL DEFAULT '',
			contact_email TEXT NOT NULL DEFAULT '',
			contact_phone TEXT NOT NULL DEFAULT '',
			start_ts TEXT NOT NULL,
			end_ts TEXT NOT NULL,
			notes TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL DEFAULT 'confirmed',
			created_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_appointments_resource ON appointments(resource_id, start_ts)`,
		`CREATE INDEX IF NOT EXISTS idx_appointments_status ON appointments(resource_id, status)`,
	}

	for _, query := range queries {
		if _, err := db.conn.Exec(query); err != nil {
			return fmt.Errorf("failed to execute schema query: %w", err)
		}
	}

	return nil
}

// querier is satisfied by both *sql.DB and *sql.Tx so repository methods work
// inside or outside a unit of work.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

func (db *DB) querier(ctx context.Context) querier {
	if tx := txFromContext(ctx); tx != nil {
		return tx
	}
	return db.conn
}
