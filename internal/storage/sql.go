/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	// PostgreSQL driver registered as "pgx"
	_ "github.com/jackc/pgx/v5/stdlib"
	// Pure-Go SQLite driver (CGO-free)
	_ "modernc.org/sqlite"

	applog "inmyroom/internal/log"
	"inmyroom/internal/version"
)

// schemaVersion tracks the SQL schema. Bump it and add a migration step when
// the schema changes.
const schemaVersion = 2

// Dialect selects placeholder style and DDL differences.
type Dialect int

const (
	SQLite Dialect = iota
	Postgres
)

func (d Dialect) String() string {
	if d == Postgres {
		return "postgres"
	}
	return "sqlite"
}

// rebind rewrites ? placeholders to $n for PostgreSQL.
func (d Dialect) rebind(q string) string {
	if d != Postgres {
		return q
	}
	var b strings.Builder
	n := 0
	for _, r := range q {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// language=SQL
const selectStateSQL = `SELECT data FROM room_state WHERE key = ?`

// language=SQL
const upsertStateSQL = `INSERT INTO room_state(key, data, saved_at) VALUES (?, ?, ?)
ON CONFLICT(key) DO UPDATE SET data = excluded.data, saved_at = excluded.saved_at`

// language=SQL
const insertBackupSQL = `INSERT INTO room_backups(key, data, saved_at) SELECT key, data, saved_at FROM room_state WHERE key = ?`

// language=SQL
const pruneBackupsSQL = `DELETE FROM room_backups WHERE key = ? AND id NOT IN (
	SELECT id FROM room_backups WHERE key = ? ORDER BY id DESC LIMIT ?
)`

// language=SQL
const listBackupsSQL = `SELECT data, saved_at FROM room_backups WHERE key = ? ORDER BY id DESC`

// SQLStore keeps the record in the room_state table and earlier saves in
// room_backups, pruned to the newest keep rows.
type SQLStore struct {
	db      *sql.DB
	dialect Dialect
	key     string
	keep    int
	now     func() time.Time
}

// NewSQLStore wraps an open database whose schema is already in place.
func NewSQLStore(db *sql.DB, d Dialect, key string, keep int) *SQLStore {
	if key == "" {
		key = DefaultKey
	}
	return &SQLStore{db: db, dialect: d, key: key, keep: keep, now: time.Now}
}

// OpenSQLite opens (creating if needed) the database at path, enables WAL
// and brings the schema up to date.
func OpenSQLite(ctx context.Context, path, key string, keep int) (*SQLStore, error) {
	l := applog.WithOperation(applog.WithComponent("storage"), "sqlite_open").With(slog.String("path", path))
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("sqlite path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create sqlite dir: %w", err)
	}
	dsn := fmt.Sprintf("file:%s?cache=shared&_pragma=busy_timeout(5000)", filepath.ToSlash(path))
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		l.Error("sqlite open failed", slog.Any("err", err))
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL;"); err != nil {
		_ = db.Close()
		l.Error("enable WAL failed", slog.Any("err", err))
		return nil, fmt.Errorf("enable WAL: %w", err)
	}
	if err := Migrate(ctx, db, SQLite); err != nil {
		_ = db.Close()
		l.Error("migrate failed", slog.Any("err", err))
		return nil, err
	}
	l.Info("sqlite store ready")
	return NewSQLStore(db, SQLite, key, keep), nil
}

// OpenPostgres connects through pgx and brings the schema up to date.
func OpenPostgres(ctx context.Context, dsn, key string, keep int) (*SQLStore, error) {
	l := applog.WithOperation(applog.WithComponent("storage"), "postgres_open")
	if strings.TrimSpace(dsn) == "" {
		return nil, errors.New("postgres dsn is required")
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if err := Migrate(ctx, db, Postgres); err != nil {
		_ = db.Close()
		l.Error("migrate failed", slog.Any("err", err))
		return nil, err
	}
	l.Info("postgres store ready")
	return NewSQLStore(db, Postgres, key, keep), nil
}

// DB exposes the underlying handle.
func (s *SQLStore) DB() *sql.DB { return s.db }

func (s *SQLStore) Load(ctx context.Context) ([]byte, error) {
	var data string
	err := s.db.QueryRowContext(ctx, s.dialect.rebind(selectStateSQL), s.key).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoSavedState
	}
	if err != nil {
		return nil, fmt.Errorf("select room_state: %w", err)
	}
	return []byte(data), nil
}

// Save copies the current row into room_backups, replaces it and prunes old
// backups, all in one transaction.
func (s *SQLStore) Save(ctx context.Context, data []byte) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save: %w", err)
	}
	if s.keep > 0 {
		if _, err := tx.ExecContext(ctx, s.dialect.rebind(insertBackupSQL), s.key); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("backup room_state: %w", err)
		}
	}
	ts := s.now().UTC().Format(time.RFC3339Nano)
	if _, err := tx.ExecContext(ctx, s.dialect.rebind(upsertStateSQL), s.key, string(data), ts); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("upsert room_state: %w", err)
	}
	if s.keep > 0 {
		if _, err := tx.ExecContext(ctx, s.dialect.rebind(pruneBackupsSQL), s.key, s.key, s.keep); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("prune room_backups: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save: %w", err)
	}
	return nil
}

func (s *SQLStore) Backups(ctx context.Context) ([]Backup, error) {
	rows, err := s.db.QueryContext(ctx, s.dialect.rebind(listBackupsSQL), s.key)
	if err != nil {
		return nil, fmt.Errorf("list room_backups: %w", err)
	}
	defer func() { _ = rows.Close() }()
	var out []Backup
	for rows.Next() {
		var data, tsStr string
		if err := rows.Scan(&data, &tsStr); err != nil {
			return nil, err
		}
		ts, _ := time.Parse(time.RFC3339Nano, tsStr)
		out = append(out, Backup{SavedAt: ts, Data: []byte(data)})
	}
	return out, rows.Err()
}

func (s *SQLStore) Close() error { return s.db.Close() }

// Migrate creates the meta/version tables and the room tables, then applies
// incremental migrations up to schemaVersion.
func Migrate(ctx context.Context, db *sql.DB, d Dialect) error {
	if err := ensureMetaAndVersion(ctx, db, d); err != nil {
		return err
	}
	serial := "INTEGER PRIMARY KEY"
	if d == Postgres {
		serial = "BIGSERIAL PRIMARY KEY"
	}
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS room_state (
			key      TEXT PRIMARY KEY,
			data     TEXT NOT NULL,
			saved_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS room_backups (
			id       ` + serial + `,
			key      TEXT NOT NULL,
			data     TEXT NOT NULL,
			saved_at TEXT NOT NULL
		)`,
	}
	for _, q := range ddl {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("ensure room schema: %w", err)
		}
	}
	return runMigrations(ctx, db, d)
}

func ensureMetaAndVersion(ctx context.Context, db *sql.DB, d Dialect) error {
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS version (
			id          INTEGER PRIMARY KEY CHECK(id=1),
			schema      INTEGER NOT NULL,
			app         TEXT,
			created_at  TEXT NOT NULL,
			updated_at  TEXT NOT NULL
		)`,
	}
	for _, q := range ddl {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
	}
	now := time.Now().UTC().Format(time.RFC3339)
	appv := version.String()
	var cur int
	err := db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&cur)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		// fresh database starts at v1 so the migration steps run once
		q := d.rebind(`INSERT INTO version (id, schema, app, created_at, updated_at) VALUES(1, ?, ?, ?, ?)`)
		if _, err := db.ExecContext(ctx, q, 1, appv, now, now); err != nil {
			return fmt.Errorf("insert version: %w", err)
		}
	case err != nil:
		return fmt.Errorf("read version: %w", err)
	default:
		q := d.rebind(`UPDATE version SET app=?, updated_at=? WHERE id=1`)
		if _, err := db.ExecContext(ctx, q, appv, now); err != nil {
			return fmt.Errorf("update version: %w", err)
		}
	}
	return nil
}

// runMigrations applies incremental schema migrations up to schemaVersion.
func runMigrations(ctx context.Context, db *sql.DB, d Dialect) error {
	var cur int
	if err := db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&cur); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	for cur < schemaVersion {
		next := cur + 1
		var stmts []string
		switch next {
		case 2:
			stmts = []string{
				`CREATE INDEX IF NOT EXISTS idx_room_backups_key ON room_backups(key, id)`,
			}
		}
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", next, err)
		}
		for _, q := range stmts {
			if _, err := tx.ExecContext(ctx, q); err != nil {
				_ = tx.Rollback()
				return fmt.Errorf("migration %d stmt failed: %w", next, err)
			}
		}
		q := d.rebind(`UPDATE version SET schema=?, updated_at=? WHERE id=1`)
		if _, err := tx.ExecContext(ctx, q, next, time.Now().UTC().Format(time.RFC3339)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d update version: %w", next, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("migration %d commit: %w", next, err)
		}
		cur = next
	}
	return nil
}
