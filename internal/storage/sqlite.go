package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/techroy23/Socksy-Dashboard/internal/stats"
)

// SQLiteStore keeps one row per proxy address. Writes are guarded by the
// version column: an UPDATE that matches no row, or an INSERT that hits the
// primary key, means another writer got there first.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Serialize writers at the driver level; conflict detection stays at
	// the row level via the version column.
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}

	schema := `
	CREATE TABLE IF NOT EXISTS proxies (
		address TEXT PRIMARY KEY,
		passed  INTEGER NOT NULL DEFAULT 0,
		total   INTEGER NOT NULL DEFAULT 0,
		percent REAL NOT NULL DEFAULT 0,
		last_ip TEXT,
		rtt_ms  REAL,
		updated TIMESTAMP NOT NULL,
		version INTEGER NOT NULL DEFAULT 1
	);
	`
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("create table: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Get(ctx context.Context, addr string) (*stats.ProxyStats, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT address, passed, total, percent, last_ip, rtt_ms, updated, version
		 FROM proxies WHERE address = ?`, addr)

	rec, err := scanProxy(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("query proxy: %w", err)
	}
	return rec, nil
}

func (s *SQLiteStore) Put(ctx context.Context, rec *stats.ProxyStats) error {
	var lastIP sql.NullString
	if rec.LastIP != nil {
		lastIP = sql.NullString{String: *rec.LastIP, Valid: true}
	}
	var rtt sql.NullFloat64
	if rec.RTTMs != nil {
		rtt = sql.NullFloat64{Float64: *rec.RTTMs, Valid: true}
	}

	if rec.Version == 0 {
		_, err := s.db.ExecContext(ctx,
			`INSERT INTO proxies (address, passed, total, percent, last_ip, rtt_ms, updated, version)
			 VALUES (?, ?, ?, ?, ?, ?, ?, 1)`,
			rec.Address, rec.Passed, rec.Total, rec.Percent, lastIP, rtt, rec.Updated)
		if err != nil {
			var sqliteErr sqlite3.Error
			if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint {
				return ErrConflict
			}
			return fmt.Errorf("insert proxy: %w", err)
		}
		rec.Version = 1
		return nil
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE proxies
		 SET passed = ?, total = ?, percent = ?, last_ip = ?, rtt_ms = ?, updated = ?, version = version + 1
		 WHERE address = ? AND version = ?`,
		rec.Passed, rec.Total, rec.Percent, lastIP, rtt, rec.Updated, rec.Address, rec.Version)
	if err != nil {
		return fmt.Errorf("update proxy: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return ErrConflict
	}
	rec.Version++
	return nil
}

func (s *SQLiteStore) All(ctx context.Context) ([]stats.ProxyStats, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT address, passed, total, percent, last_ip, rtt_ms, updated, version FROM proxies`)
	if err != nil {
		return nil, fmt.Errorf("query proxies: %w", err)
	}
	defer rows.Close()

	var out []stats.ProxyStats
	for rows.Next() {
		rec, err := scanProxy(rows)
		if err != nil {
			return nil, fmt.Errorf("scan proxy: %w", err)
		}
		out = append(out, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate proxies: %w", err)
	}
	return out, nil
}

func (s *SQLiteStore) Flush(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM proxies"); err != nil {
		return fmt.Errorf("flush proxies: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProxy(row rowScanner) (*stats.ProxyStats, error) {
	var (
		rec     stats.ProxyStats
		lastIP  sql.NullString
		rtt     sql.NullFloat64
		updated time.Time
	)
	err := row.Scan(&rec.Address, &rec.Passed, &rec.Total, &rec.Percent,
		&lastIP, &rtt, &updated, &rec.Version)
	if err != nil {
		return nil, err
	}
	if lastIP.Valid {
		rec.LastIP = &lastIP.String
	}
	if rtt.Valid {
		rec.RTTMs = &rtt.Float64
	}
	rec.Updated = updated
	return &rec, nil
}
