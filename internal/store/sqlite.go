// Package store persists simulation output to a SQLite database.
package store

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/cleared-dev/dropsim/internal/model"
)

const timeFormat = "2006-01-02 15:04:05"

// SQLite records transactions and the account table. Rerunning with the same
// seed replaces rows instead of duplicating them.
type SQLite struct {
	db     *sql.DB
	logger *zap.Logger
}

// Open opens (or creates) the database at path and runs migrations.
func Open(path string, logger *zap.Logger) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	s := &SQLite{db: db, logger: logger}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	logger.Debug("sqlite store opened", zap.String("path", path))
	return s, nil
}

func (s *SQLite) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS transactions (
			transaction_id TEXT PRIMARY KEY,
			role           TEXT NOT NULL,
			client_id      INTEGER NOT NULL,
			timestamp      TEXT NOT NULL,
			unix_time      INTEGER NOT NULL,
			amount         TEXT NOT NULL,
			type           TEXT NOT NULL,
			channel        TEXT NOT NULL,
			category       TEXT,
			online         INTEGER NOT NULL,
			merchant_id    TEXT,
			trans_city     TEXT,
			trans_lat      REAL,
			trans_lon      REAL,
			trans_ip       TEXT,
			device_id      TEXT,
			account        INTEGER,
			is_fraud       INTEGER NOT NULL,
			is_suspicious  INTEGER NOT NULL,
			status         TEXT NOT NULL,
			rule           TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_txn_client ON transactions(client_id, unix_time)`,

		`CREATE TABLE IF NOT EXISTS accounts (
			account_id INTEGER PRIMARY KEY,
			client_id  INTEGER NOT NULL,
			is_drop    INTEGER NOT NULL
		)`,
	}

	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("exec %q: %w", stmt[:40], err)
		}
	}
	return nil
}

// RecordTransactions inserts txns in one database transaction.
func (s *SQLite) RecordTransactions(ctx context.Context, role model.Role, txns []model.Transaction) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT OR REPLACE INTO transactions
		(transaction_id, role, client_id, timestamp, unix_time, amount, type, channel,
		 category, online, merchant_id, trans_city, trans_lat, trans_lon, trans_ip,
		 device_id, account, is_fraud, is_suspicious, status, rule)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, t := range txns {
		var lat, lon sql.NullFloat64
		if t.HasGeo {
			lat = sql.NullFloat64{Float64: t.Lat, Valid: true}
			lon = sql.NullFloat64{Float64: t.Lon, Valid: true}
		}
		account := sql.NullInt64{Int64: t.Account, Valid: t.Account != 0}
		_, err := stmt.ExecContext(ctx,
			t.ID, string(role), t.ClientID, t.Time.UTC().Format(timeFormat), t.Unix,
			t.Amount.StringFixed(2), string(t.Type), string(t.Channel),
			t.Category, t.Online, nullString(t.MerchantID), t.City, lat, lon, t.IP,
			nullString(t.DeviceID), account, t.IsFraud, t.IsSuspicious, string(t.Status), t.Rule,
		)
		if err != nil {
			return fmt.Errorf("insert transaction %s: %w", t.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	s.logger.Debug("transactions stored", zap.String("role", string(role)), zap.Int("count", len(txns)))
	return nil
}

// RecordAccounts upserts the account table.
func (s *SQLite) RecordAccounts(ctx context.Context, accts []model.Account) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO accounts (account_id, client_id, is_drop)
		VALUES (?, ?, ?)
		ON CONFLICT(account_id) DO UPDATE SET client_id = excluded.client_id, is_drop = excluded.is_drop`)
	if err != nil {
		return fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close()

	for _, a := range accts {
		if _, err := stmt.ExecContext(ctx, a.ID, a.ClientID, a.IsDrop); err != nil {
			return fmt.Errorf("upsert account %d: %w", a.ID, err)
		}
	}
	return tx.Commit()
}

// Counts returns the number of stored transactions per status for a role.
func (s *SQLite) Counts(ctx context.Context, role model.Role) (map[model.Status]int, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT status, COUNT(*) FROM transactions WHERE role = ? GROUP BY status`, string(role))
	if err != nil {
		return nil, fmt.Errorf("query counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[model.Status]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("scan counts: %w", err)
		}
		counts[model.Status(status)] = n
	}
	return counts, rows.Err()
}

// DropAccounts returns the ids of accounts labelled as drops.
func (s *SQLite) DropAccounts(ctx context.Context) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT account_id FROM accounts WHERE is_drop = 1 ORDER BY account_id`)
	if err != nil {
		return nil, fmt.Errorf("query drop accounts: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Close closes the database.
func (s *SQLite) Close() error {
	return s.db.Close()
}

func nullString(v string) sql.NullString {
	return sql.NullString{String: v, Valid: v != ""}
}
