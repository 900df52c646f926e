// Copyright 2026 The msgpush Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver
	_ "github.com/mattn/go-sqlite3"    // SQLite driver
	log "github.com/sirupsen/logrus"
)

// Dialect selects placeholder syntax for a SQL backend.
type Dialect int

const (
	// DialectSQLite uses "?" placeholders.
	DialectSQLite Dialect = iota
	// DialectPostgres uses "$1" placeholders.
	DialectPostgres
)

func (d Dialect) String() string {
	if d == DialectPostgres {
		return "postgres"
	}
	return "sqlite"
}

func (d Dialect) placeholder() string {
	if d == DialectPostgres {
		return "$1"
	}
	return "?"
}

var tableNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// SQLStore reads options from a key/value table:
//
//	CREATE TABLE options ("key" TEXT PRIMARY KEY, "value" TEXT);
type SQLStore struct {
	db      *sql.DB
	dialect Dialect
	query   string
}

// NewSQLStore wraps an open database handle. The table name may be schema-qualified.
func NewSQLStore(db *sql.DB, table string, dialect Dialect) (*SQLStore, error) {
	if db == nil {
		return nil, errors.New("store: nil database handle")
	}
	table = strings.TrimSpace(table)
	if !tableNamePattern.MatchString(table) {
		return nil, fmt.Errorf("store: invalid table name %q", table)
	}
	return &SQLStore{
		db:      db,
		dialect: dialect,
		query:   fmt.Sprintf(`SELECT "value" FROM %s WHERE "key" = %s`, quoteTable(table), dialect.placeholder()),
	}, nil
}

// OpenSQLite opens the SQLite database at dsn in read-only mode.
func OpenSQLite(ctx context.Context, dsn, table string) (*SQLStore, error) {
	if dsn == "" {
		return nil, errors.New("store: sqlite dsn cannot be empty")
	}
	if !strings.HasPrefix(dsn, "file:") {
		dsn = "file:" + dsn
	}
	if !strings.Contains(dsn, "mode=") {
		if strings.Contains(dsn, "?") {
			dsn += "&mode=ro"
		} else {
			dsn += "?mode=ro"
		}
	}
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("store: failed to open sqlite database: %w", err)
	}
	db.SetMaxOpenConns(1) // SQLite works best with single connection
	db.SetMaxIdleConns(1)
	return finishOpen(ctx, db, table, DialectSQLite)
}

// OpenPostgres opens a PostgreSQL connection pool through the pgx stdlib driver.
func OpenPostgres(ctx context.Context, dsn, table string) (*SQLStore, error) {
	if dsn == "" {
		return nil, errors.New("store: postgres dsn cannot be empty")
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("store: failed to open postgres database: %w", err)
	}
	db.SetMaxOpenConns(4)
	db.SetConnMaxIdleTime(5 * time.Minute)
	return finishOpen(ctx, db, table, DialectPostgres)
}

func finishOpen(ctx context.Context, db *sql.DB, table string, dialect Dialect) (*SQLStore, error) {
	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: %s ping failed: %w", dialect, err)
	}
	s, err := NewSQLStore(db, table, dialect)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	log.Infof("option store ready (driver: %s)", dialect)
	return s, nil
}

// Get implements OptionReader. A NULL value counts as absent.
func (s *SQLStore) Get(ctx context.Context, key string) (string, bool, error) {
	var value sql.NullString
	err := s.db.QueryRowContext(ctx, s.query, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("store: query option %q: %w", key, err)
	}
	if !value.Valid {
		return "", false, nil
	}
	return value.String, true, nil
}

// Close releases the database handle.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

func quoteTable(table string) string {
	parts := strings.Split(table, ".")
	for i, p := range parts {
		parts[i] = `"` + p + `"`
	}
	return strings.Join(parts, ".")
}
