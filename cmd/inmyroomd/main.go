/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Command inmyroomd serves one room over the HTTP API until interrupted.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"inmyroom/internal/config"
	"inmyroom/internal/crash"
	"inmyroom/internal/editor"
	applog "inmyroom/internal/log"
	"inmyroom/internal/server"
	"inmyroom/internal/version"
)

func main() {
	addr := flag.String("addr", "", "listen address (default from config)")
	autosave := flag.Duration("autosave", 0, "save the room at this interval; 0 saves only on shutdown")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()
	if *showVersion {
		fmt.Println(version.String())
		return
	}

	cfg, secret, err := config.Load()
	applog.Init(applog.Options{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		AddSource: cfg.Logging.Source,
		File:      cfg.Logging.File,
	})
	l := applog.WithComponent("daemon")
	if err != nil {
		l.Warn("config unavailable; using defaults", slog.Any("err", err))
	}
	if *addr == "" {
		*addr = cfg.Server.Addr
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = applog.WithRoom(ctx, cfg.Storage.Key)

	if err := run(ctx, cfg, secret, *addr, *autosave, l); err != nil {
		l.Error("daemon failed", slog.Any("err", err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.AppConfig, secret, addr string, every time.Duration, l *slog.Logger) (err error) {
	dataDir, _ := config.ConfigDir()
	ed, err := editor.Open(ctx, cfg, secret, dataDir)
	if err != nil {
		return err
	}
	defer crash.Recover(ed)
	defer func() {
		cerr := ed.Close(context.WithoutCancel(ctx))
		if cerr == nil {
			l.Info("room saved on shutdown")
		} else if err == nil {
			err = cerr
		}
	}()

	srv := server.New(ed, server.OptionsFromConfig(cfg.Server, os.Getenv(server.EnvToken)))
	if every > 0 {
		go autosaveLoop(ctx, srv, every, l)
	}
	l.Info("starting", slog.String("version", version.String()), slog.String("addr", addr), slog.String("storage", cfg.Storage.Driver))
	return srv.Serve(ctx, addr)
}

func autosaveLoop(ctx context.Context, srv *server.Server, every time.Duration, l *slog.Logger) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if err := srv.Save(ctx); err != nil {
				l.Warn("autosave failed", slog.Any("err", err))
			}
		}
	}
}
