/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package server exposes one editor session over a local HTTP API.
//
// The editor is not safe for concurrent use; every handler holds the server
// mutex for the duration of its editor calls, so requests are applied one
// at a time in arrival order.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/recover"

	"inmyroom/internal/config"
	"inmyroom/internal/domain"
	"inmyroom/internal/editor"
	"inmyroom/internal/history"
	applog "inmyroom/internal/log"
	"inmyroom/internal/manip"
	"inmyroom/internal/scene"
	"inmyroom/internal/storage"
	"inmyroom/internal/upload"
	"inmyroom/internal/version"
)

// EnvToken names the environment variable holding the API bearer token.
const EnvToken = "IMR_API_TOKEN"

// Options configures a Server.
type Options struct {
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	CORSOrigins  []string
	// Token, when set, is required as a bearer token on /api routes.
	Token string
}

// OptionsFromConfig maps the server section of the user config.
func OptionsFromConfig(c config.ServerConfig, token string) Options {
	return Options{
		ReadTimeout:  c.ReadTimeout(),
		WriteTimeout: c.WriteTimeout(),
		CORSOrigins:  c.CORSOrigins,
		Token:        token,
	}
}

type Server struct {
	mu   sync.Mutex
	ed   *editor.Editor
	app  *fiber.App
	opts Options
	log  *slog.Logger
}

// New builds the API around ed. The server does not own ed; closing it is
// up to the caller.
func New(ed *editor.Editor, opts Options) *Server {
	s := &Server{ed: ed, opts: opts, log: applog.WithComponent("server")}
	s.app = fiber.New(fiber.Config{
		AppName:      "InMyRoom " + version.String(),
		ReadTimeout:  opts.ReadTimeout,
		WriteTimeout: opts.WriteTimeout,
		BodyLimit:    int(upload.DefaultLimit) * 2,
		ErrorHandler: s.handleError,
	})
	s.app.Use(recover.New())
	s.app.Use(requestLogger(s.log))
	if len(opts.CORSOrigins) > 0 {
		s.app.Use(cors.New(cors.Config{
			AllowOrigins: opts.CORSOrigins,
			AllowHeaders: []string{"Content-Type", "Authorization"},
		}))
	}
	s.routes()
	return s
}

// App exposes the fiber app, mainly for tests.
func (s *Server) App() *fiber.App { return s.app }

// Listen serves until Shutdown is called or the listener fails.
func (s *Server) Listen(addr string) error {
	s.log.Info("listening", slog.String("addr", addr))
	return s.app.Listen(addr, fiber.ListenConfig{DisableStartupMessage: true})
}

// Shutdown stops accepting requests and waits for running ones.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

// locked runs fn with exclusive access to the editor.
func (s *Server) locked(fn func(ed *editor.Editor) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.ed)
}

func requestLogger(l *slog.Logger) fiber.Handler {
	return func(c fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		status := c.Response().StatusCode()
		var fe *fiber.Error
		if errors.As(err, &fe) {
			status = fe.Code
		}
		attrs := []any{
			slog.String("method", c.Method()),
			slog.String("path", c.Path()),
			slog.Int("status", status),
			slog.Duration("latency", time.Since(start)),
		}
		if status >= http.StatusInternalServerError {
			l.Error("request", attrs...)
		} else {
			l.Debug("request", attrs...)
		}
		return err
	}
}

func (s *Server) requireToken(c fiber.Ctx) error {
	if s.opts.Token == "" {
		return c.Next()
	}
	if c.Get(fiber.HeaderAuthorization) != "Bearer "+s.opts.Token {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}
	return c.Next()
}

// statusOf maps domain errors to HTTP status codes.
func statusOf(err error) int {
	var fe *fiber.Error
	switch {
	case errors.As(err, &fe):
		return fe.Code
	case errors.Is(err, scene.ErrNoItem),
		errors.Is(err, storage.ErrNoSavedState):
		return fiber.StatusNotFound
	case errors.Is(err, editor.ErrNoSelection),
		errors.Is(err, editor.ErrDragActive):
		return fiber.StatusConflict
	case errors.Is(err, upload.ErrUnreadableFile):
		return fiber.StatusUnsupportedMediaType
	case errors.Is(err, domain.ErrBadColor),
		errors.Is(err, domain.ErrUnknownFloor),
		errors.Is(err, domain.ErrBadImageData),
		errors.Is(err, manip.ErrUnknownEdge),
		errors.Is(err, history.ErrOutOfRange),
		errors.Is(err, editor.ErrOutOfRange),
		errors.Is(err, errBadRequest):
		return fiber.StatusBadRequest
	default:
		return fiber.StatusInternalServerError
	}
}

var errBadRequest = errors.New("bad request")

func (s *Server) handleError(c fiber.Ctx, err error) error {
	code := statusOf(err)
	msg := err.Error()
	if code >= http.StatusInternalServerError {
		s.log.Error("request failed", slog.String("path", c.Path()), slog.Any("err", err))
		msg = http.StatusText(code)
	}
	return c.Status(code).JSON(ErrorView{Error: msg})
}

// Serve listens on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, addr string) error {
	errc := make(chan error, 1)
	go func() { errc <- s.Listen(addr) }()
	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		s.log.Info("shutting down")
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.Shutdown(sctx)
	}
}

// Save writes the room while holding the editor lock; the daemon's
// autosave uses it.
func (s *Server) Save(ctx context.Context) error {
	return s.locked(func(ed *editor.Editor) error { return ed.Save(ctx) })
}
