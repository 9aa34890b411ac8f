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
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	applog "inmyroom/internal/log"
)

// BackupsDirName is created next to the record file.
const BackupsDirName = "backups"

// FileStore keeps the record in a JSON file. Saves are transactional (temp
// file then rename) and the previous file is copied to a timestamped backup.
type FileStore struct {
	Path string
	keep int
}

// NewFileStore prepares a store at path, creating the parent directory.
// keep bounds the number of backups retained; 0 keeps none.
func NewFileStore(path string, keep int) (*FileStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("storage path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	return &FileStore{Path: path, keep: keep}, nil
}

func (s *FileStore) backupDir() string { return filepath.Join(filepath.Dir(s.Path), BackupsDirName) }

// Load reads the record. A file that is unreadable or not valid JSON falls
// back to the newest backup; a missing file with no backups is ErrNoSavedState.
func (s *FileStore) Load(ctx context.Context) ([]byte, error) {
	l := applog.WithOperation(applog.WithComponent("storage"), "file_load").With(slog.String("path", s.Path))
	b, err := os.ReadFile(s.Path)
	if err == nil && json.Valid(b) {
		return b, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		if latest, berr := s.latestBackup(); berr == nil {
			l.WarnContext(ctx, "record missing; using latest backup")
			return latest, nil
		}
		return nil, ErrNoSavedState
	}
	latest, berr := s.latestBackup()
	if berr != nil {
		if err == nil {
			return nil, ErrNoSavedState
		}
		l.WarnContext(ctx, "record unreadable and no backup", slog.Any("err", err))
		return nil, fmt.Errorf("read record: %w (%v)", ErrNoSavedState, err)
	}
	l.WarnContext(ctx, "record unreadable; using latest backup", slog.Any("err", err))
	return latest, nil
}

// Save writes data transactionally after backing up the current file. A
// current file that is not valid JSON is not backed up.
func (s *FileStore) Save(ctx context.Context, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.keep > 0 {
		if cur, rerr := os.ReadFile(s.Path); rerr == nil && json.Valid(cur) {
			if err := os.MkdirAll(s.backupDir(), 0o755); err != nil {
				return fmt.Errorf("ensure backups dir: %w", err)
			}
			stamp := time.Now().Format("20060102-150405.000")
			bpath := filepath.Join(s.backupDir(), fmt.Sprintf("%s.%s.bak", filepath.Base(s.Path), stamp))
			if werr := writeFileSync(bpath, cur); werr != nil {
				return fmt.Errorf("backup current record: %w", werr)
			}
			s.pruneBackups()
		}
	}

	dir := filepath.Dir(s.Path)
	temp := filepath.Join(dir, fmt.Sprintf(".%s.tmp-%d-%d", filepath.Base(s.Path), os.Getpid(), rand.Int()))
	if werr := writeFileSync(temp, data); werr != nil {
		return fmt.Errorf("write temp record: %w", werr)
	}
	// Windows cannot rename over an existing file.
	if _, err := os.Stat(s.Path); err == nil {
		_ = os.Remove(s.Path)
	}
	if rerr := os.Rename(temp, s.Path); rerr != nil {
		_ = os.Remove(temp)
		return fmt.Errorf("replace record: %w", rerr)
	}
	return nil
}

// Backups returns retained backups, newest first.
func (s *FileStore) Backups(_ context.Context) ([]Backup, error) {
	names, err := s.backupNames()
	if err != nil {
		return nil, nil
	}
	out := make([]Backup, 0, len(names))
	for i := len(names) - 1; i >= 0; i-- {
		b, err := os.ReadFile(names[i])
		if err != nil {
			continue
		}
		out = append(out, Backup{SavedAt: savedAt(b), Data: b})
	}
	return out, nil
}

func (s *FileStore) Close() error { return nil }

// backupNames lists backup paths oldest first; the timestamp in the name
// gives lexicographic order.
func (s *FileStore) backupNames() ([]string, error) {
	ents, err := os.ReadDir(s.backupDir())
	if err != nil {
		return nil, fmt.Errorf("read backups dir: %w", err)
	}
	prefix := filepath.Base(s.Path) + "."
	var out []string
	for _, e := range ents {
		name := e.Name()
		if strings.HasPrefix(name, prefix) && strings.HasSuffix(name, ".bak") {
			out = append(out, filepath.Join(s.backupDir(), name))
		}
	}
	sort.Strings(out)
	return out, nil
}

func (s *FileStore) latestBackup() ([]byte, error) {
	names, err := s.backupNames()
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		return nil, errors.New("no backups found")
	}
	return os.ReadFile(names[len(names)-1])
}

func (s *FileStore) pruneBackups() {
	names, err := s.backupNames()
	if err != nil {
		return
	}
	for len(names) > s.keep {
		_ = os.Remove(names[0])
		names = names[1:]
	}
}

// writeFileSync writes data to a file and flushes it to disk.
func writeFileSync(path string, data []byte) (err error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	if _, err := f.Write(data); err != nil {
		return err
	}
	return f.Sync()
}
