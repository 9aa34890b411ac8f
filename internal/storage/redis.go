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

	"github.com/go-redis/redis/v8"
)

// RedisStore keeps the record under key and earlier saves in the list
// key+":backups", trimmed to keep entries.
type RedisStore struct {
	c    *redis.Client
	key  string
	keep int
}

func NewRedisStore(c *redis.Client, key string, keep int) *RedisStore {
	if key == "" {
		key = DefaultKey
	}
	return &RedisStore{c: c, key: key, keep: keep}
}

func (r *RedisStore) backupsKey() string { return r.key + ":backups" }

func (r *RedisStore) Load(ctx context.Context) ([]byte, error) {
	b, err := r.c.Get(ctx, r.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNoSavedState
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", r.key, err)
	}
	return b, nil
}

// Save swaps in the new record and pushes the previous one onto the backup
// list inside a MULTI/EXEC block.
func (r *RedisStore) Save(ctx context.Context, data []byte) error {
	prev, err := r.c.Get(ctx, r.key).Bytes()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("redis get %s: %w", r.key, err)
	}
	_, err = r.c.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Set(ctx, r.key, data, 0)
		if r.keep > 0 && len(prev) > 0 {
			p.LPush(ctx, r.backupsKey(), prev)
			p.LTrim(ctx, r.backupsKey(), 0, int64(r.keep-1))
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis save %s: %w", r.key, err)
	}
	return nil
}

func (r *RedisStore) Backups(ctx context.Context) ([]Backup, error) {
	vals, err := r.c.LRange(ctx, r.backupsKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("redis lrange: %w", err)
	}
	out := make([]Backup, 0, len(vals))
	for _, v := range vals {
		out = append(out, Backup{SavedAt: savedAt([]byte(v)), Data: []byte(v)})
	}
	return out, nil
}

func (r *RedisStore) Close() error { return r.c.Close() }
