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
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"

	"inmyroom/internal/config"
)

// Store holds one room record under a key.
type Store interface {
	// Load returns the current record or ErrNoSavedState when none exists.
	Load(ctx context.Context) ([]byte, error)
	// Save replaces the current record and keeps the previous ones as backups.
	Save(ctx context.Context, data []byte) error
	// Backups lists retained earlier saves, newest first.
	Backups(ctx context.Context) ([]Backup, error)
	Close() error
}

// Backup is an earlier save kept by a store.
type Backup struct {
	SavedAt time.Time
	Data    []byte
}

// Driver names accepted by Open.
const (
	DriverFile     = "file"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverRedis    = "redis"
	DriverMemory   = "memory"
)

var ErrUnknownDriver = errors.New("unknown storage driver")

// Open builds the store selected by cfg. secret is the password for postgres
// or redis and is ignored by the other drivers.
func Open(ctx context.Context, cfg config.StorageConfig, secret string) (Store, error) {
	key := cfg.Key
	if key == "" {
		key = DefaultKey
	}
	switch strings.ToLower(cfg.Driver) {
	case DriverFile, "":
		return NewFileStore(cfg.Path, cfg.KeepSaves)
	case DriverSQLite:
		return OpenSQLite(ctx, cfg.Path, key, cfg.KeepSaves)
	case DriverPostgres, "pgx":
		return OpenPostgres(ctx, withPassword(cfg.DSN, secret), key, cfg.KeepSaves)
	case DriverRedis:
		c := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: secret, DB: cfg.RedisDB})
		if err := c.Ping(ctx).Err(); err != nil {
			_ = c.Close()
			return nil, fmt.Errorf("ping redis %s: %w", cfg.RedisAddr, err)
		}
		return NewRedisStore(c, key, cfg.KeepSaves), nil
	case DriverMemory:
		return NewMemoryStore(cfg.KeepSaves), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.Driver)
}

// withPassword injects secret into a URL-style DSN that has a user but no
// password.
func withPassword(dsn, secret string) string {
	if secret == "" {
		return dsn
	}
	u, err := url.Parse(dsn)
	if err != nil || u.User == nil {
		return dsn
	}
	if _, has := u.User.Password(); has {
		return dsn
	}
	u.User = url.UserPassword(u.User.Username(), secret)
	return u.String()
}

// MemoryStore keeps the record in process memory.
type MemoryStore struct {
	mu      sync.Mutex
	current []byte
	backups []Backup
	keep    int
}

func NewMemoryStore(keep int) *MemoryStore { return &MemoryStore{keep: keep} }

func (m *MemoryStore) Load(_ context.Context) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return nil, ErrNoSavedState
	}
	return append([]byte(nil), m.current...), nil
}

func (m *MemoryStore) Save(_ context.Context, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current != nil && m.keep > 0 {
		m.backups = append([]Backup{{SavedAt: savedAt(m.current), Data: m.current}}, m.backups...)
		if len(m.backups) > m.keep {
			m.backups = m.backups[:m.keep]
		}
	}
	m.current = append([]byte(nil), data...)
	return nil
}

func (m *MemoryStore) Backups(_ context.Context) ([]Backup, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Backup(nil), m.backups...), nil
}

func (m *MemoryStore) Close() error { return nil }
