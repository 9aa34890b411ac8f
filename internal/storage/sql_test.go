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
	"os"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	_ "modernc.org/sqlite"
)

func TestSQLiteStoreInitCreatesWALAndSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "room.sqlite")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s, err := OpenSQLite(ctx, path, "", 3)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	defer s.Close()

	var mode string
	if err := s.DB().QueryRowContext(ctx, "PRAGMA journal_mode;").Scan(&mode); err != nil {
		t.Fatalf("read journal_mode: %v", err)
	}
	if mode != "wal" && mode != "WAL" {
		t.Fatalf("expected WAL mode, got %s", mode)
	}
	var cnt int
	if err := s.DB().QueryRowContext(ctx, "SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name IN ('meta','version','room_state','room_backups')").Scan(&cnt); err != nil {
		t.Fatalf("query sqlite_master: %v", err)
	}
	if cnt != 4 {
		t.Fatalf("expected 4 tables, got %d", cnt)
	}
	var schema int
	if err := s.DB().QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&schema); err != nil {
		t.Fatalf("read schema: %v", err)
	}
	if schema != schemaVersion {
		t.Fatalf("schema = %d, want %d", schema, schemaVersion)
	}
}

func TestSQLiteStoreSaveLoadAndPrune(t *testing.T) {
	path := filepath.Join(t.TempDir(), "room.sqlite")
	ctx := context.Background()
	s, err := OpenSQLite(ctx, path, "test_room", 2)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	defer s.Close()

	if _, err := s.Load(ctx); !errors.Is(err, ErrNoSavedState) {
		t.Fatalf("expected ErrNoSavedState on empty db, got %v", err)
	}
	var last []byte
	for i := 0; i < 5; i++ {
		last = []byte(fmt.Sprintf(`{"furniture":[],"version":"2.0","timestamp":"%d"}`, i))
		if err := s.Save(ctx, last); err != nil {
			t.Fatalf("Save %d: %v", i, err)
		}
	}
	got, err := s.Load(ctx)
	if err != nil || string(got) != string(last) {
		t.Fatalf("Load = %s, %v", got, err)
	}
	bs, err := s.Backups(ctx)
	if err != nil {
		t.Fatalf("Backups: %v", err)
	}
	if len(bs) != 2 {
		t.Fatalf("expected 2 backups after pruning, got %d", len(bs))
	}
	if string(bs[0].Data) != `{"furniture":[],"version":"2.0","timestamp":"3"}` {
		t.Fatalf("newest backup should be the previous save, got %s", bs[0].Data)
	}
}

// An older database at schema 1 is migrated and gains the backups index.
func TestMigrations_UpgradeV1ToV2(t *testing.T) {
	path := filepath.Join(t.TempDir(), "room.sqlite")
	dsn := fmt.Sprintf("file:%s?cache=shared&_pragma=busy_timeout(2000)", filepath.ToSlash(path))
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	stmts := []string{
		`CREATE TABLE meta (key TEXT PRIMARY KEY, value TEXT NOT NULL);`,
		`CREATE TABLE version (id INTEGER PRIMARY KEY CHECK(id=1), schema INTEGER NOT NULL, app TEXT, created_at TEXT NOT NULL, updated_at TEXT NOT NULL);`,
		`INSERT INTO version(id, schema, app, created_at, updated_at) VALUES(1, 1, 'test', '2020-01-01T00:00:00Z', '2020-01-01T00:00:00Z');`,
		`CREATE TABLE room_state (key TEXT PRIMARY KEY, data TEXT NOT NULL, saved_at TEXT NOT NULL);`,
		`CREATE TABLE room_backups (id INTEGER PRIMARY KEY, key TEXT NOT NULL, data TEXT NOT NULL, saved_at TEXT NOT NULL);`,
	}
	for _, q := range stmts {
		if _, err := db.ExecContext(ctx, q); err != nil {
			t.Fatalf("seed v1 schema: %v (q=%s)", err, q)
		}
	}
	_ = db.Close()

	s, err := OpenSQLite(ctx, path, "", 1)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	defer s.Close()
	var cnt int
	if err := s.DB().QueryRowContext(ctx, `SELECT COUNT(*) FROM sqlite_master WHERE type='index' AND name='idx_room_backups_key'`).Scan(&cnt); err != nil {
		t.Fatalf("query indexes: %v", err)
	}
	if cnt != 1 {
		t.Fatalf("expected backups index after migration, got %d", cnt)
	}
}

func TestRebind(t *testing.T) {
	got := Postgres.rebind(`DELETE FROM room_backups WHERE key = ? AND id NOT IN (SELECT id FROM room_backups WHERE key = ? LIMIT ?)`)
	want := `DELETE FROM room_backups WHERE key = $1 AND id NOT IN (SELECT id FROM room_backups WHERE key = $2 LIMIT $3)`
	if got != want {
		t.Fatalf("rebind = %q", got)
	}
	if SQLite.rebind("a = ?") != "a = ?" {
		t.Fatalf("sqlite placeholders must be kept")
	}
}

func TestPostgresDialectSave(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()
	s := NewSQLStore(db, Postgres, "room", 3)
	s.now = func() time.Time { return time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC) }

	data := []byte(`{"furniture":[]}`)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO room_backups(key, data, saved_at) SELECT key, data, saved_at FROM room_state WHERE key = $1`)).
		WithArgs("room").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO room_state(key, data, saved_at) VALUES ($1, $2, $3)`)).
		WithArgs("room", string(data), "2025-01-02T03:04:05Z").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM room_backups WHERE key = $1`)).
		WithArgs("room", "room", 3).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	if err := s.Save(context.Background(), data); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestPostgresDialectSaveRollsBack(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()
	s := NewSQLStore(db, Postgres, "room", 0)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO room_state`)).WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	if err := s.Save(context.Background(), []byte(`{}`)); err == nil {
		t.Fatalf("expected error")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestPostgresDialectLoad(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()
	s := NewSQLStore(db, Postgres, "room", 3)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT data FROM room_state WHERE key = $1`)).
		WithArgs("room").WillReturnRows(sqlmock.NewRows([]string{"data"}))
	if _, err := s.Load(context.Background()); !errors.Is(err, ErrNoSavedState) {
		t.Fatalf("expected ErrNoSavedState, got %v", err)
	}

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT data FROM room_state WHERE key = $1`)).
		WithArgs("room").WillReturnRows(sqlmock.NewRows([]string{"data"}).AddRow(`{"furniture":[]}`))
	got, err := s.Load(context.Background())
	if err != nil || string(got) != `{"furniture":[]}` {
		t.Fatalf("Load = %s, %v", got, err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

// Runs against a real server only when IMR_PG_DSN is set.
func TestPostgresStoreIntegration(t *testing.T) {
	dsn := os.Getenv("IMR_PG_DSN")
	if dsn == "" {
		t.Skip("IMR_PG_DSN not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s, err := OpenPostgres(ctx, dsn, fmt.Sprintf("it_%d", time.Now().UnixNano()), 2)
	if err != nil {
		t.Skipf("postgres not available: %v", err)
	}
	defer s.Close()
	data, _ := Serialize(sampleSnapshot(t), time.Now())
	if err := s.Save(ctx, data); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := s.Load(ctx)
	if err != nil || string(got) != string(data) {
		t.Fatalf("Load mismatch: %v", err)
	}
}
