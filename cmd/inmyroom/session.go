/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package main

import (
	"context"
	"log/slog"

	"inmyroom/internal/config"
	"inmyroom/internal/crash"
	"inmyroom/internal/editor"
	applog "inmyroom/internal/log"
)

// session is one editor over the configured store. Every room command runs
// in a session that loads the saved room first and saves it on the way out.
type session struct {
	cfg    config.AppConfig
	secret string
	ed     *editor.Editor
	// readOnly skips the save on exit.
	readOnly bool
}

func withSession(ctx context.Context, fn func(*session) error) (err error) {
	cfg, secret, cerr := config.Load()
	l := applog.WithComponent("cli")
	if cerr != nil {
		l.Warn("config unavailable; using defaults", slog.Any("err", cerr))
	}
	applog.Init(applog.Options{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		AddSource: cfg.Logging.Source,
		File:      cfg.Logging.File,
	})
	dataDir, _ := config.ConfigDir()
	ctx = applog.WithRoom(ctx, cfg.Storage.Key)
	ed, err := editor.Open(ctx, cfg, secret, dataDir)
	if err != nil {
		return err
	}
	defer crash.Recover(ed)

	s := &session{cfg: cfg, secret: secret, ed: ed}
	defer func() {
		if s.readOnly {
			if cerr := ed.Store().Close(); cerr != nil {
				l.Warn("close store", slog.Any("err", cerr))
			}
			return
		}
		if cerr := ed.Close(context.WithoutCancel(ctx)); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return fn(s)
}
