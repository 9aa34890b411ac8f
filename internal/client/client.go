/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package client talks to a running inmyroomd over its HTTP API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"inmyroom/internal/server"
)

// Client is a small HTTP client for the room API.
type Client struct {
	BaseURL string
	Token   string // bearer token
	client  *http.Client
}

// NewClient creates a new client. baseURL may include a trailing slash; it will be normalized.
func NewClient(baseURL string, token string) *Client {
	b := strings.TrimRight(baseURL, "/")
	return &Client{
		BaseURL: b,
		Token:   token,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// APIError is a non-2xx answer from the server.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server: %d %s", e.Status, e.Message)
}

// IsStatus reports whether err is an APIError with the given status.
func IsStatus(err error, status int) bool {
	var ae *APIError
	return errors.As(err, &ae) && ae.Status == status
}

func (c *Client) do(ctx context.Context, method, path string, body any) (*http.Response, error) {
	u, err := url.Parse(c.BaseURL + path)
	if err != nil {
		return nil, err
	}
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		r = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), r)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		var ev server.ErrorView
		_ = json.NewDecoder(resp.Body).Decode(&ev)
		if ev.Error == "" {
			ev.Error = resp.Status
		}
		return nil, &APIError{Status: resp.StatusCode, Message: ev.Error}
	}
	return resp, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, body, dest any) error {
	resp, err := c.do(ctx, method, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if dest == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(dest)
}

func (c *Client) room(ctx context.Context, method, path string, body any) (server.RoomView, error) {
	var v server.RoomView
	err := c.doJSON(ctx, method, path, body, &v)
	return v, err
}

// Room returns the current room.
func (c *Client) Room(ctx context.Context) (server.RoomView, error) {
	return c.room(ctx, http.MethodGet, "/api/room", nil)
}

// Catalog lists the known furniture kinds.
func (c *Client) Catalog(ctx context.Context) ([]server.KindView, error) {
	var v []server.KindView
	err := c.doJSON(ctx, http.MethodGet, "/api/catalog", nil, &v)
	return v, err
}

// Place drops a new item centred on (x, y).
func (c *Client) Place(ctx context.Context, kind string, x, y float64) (server.ItemView, error) {
	var v server.ItemView
	body := map[string]any{"kind": kind, "x": x, "y": y}
	err := c.doJSON(ctx, http.MethodPost, "/api/items", body, &v)
	return v, err
}

// Move sets an item's top-left corner.
func (c *Client) Move(ctx context.Context, id string, x, y float64) (server.ItemView, error) {
	var v server.ItemView
	err := c.doJSON(ctx, http.MethodPut, "/api/items/"+url.PathEscape(id)+"/position", map[string]float64{"x": x, "y": y}, &v)
	return v, err
}

// Select selects id; an empty id deselects.
func (c *Client) Select(ctx context.Context, id string) (server.RoomView, error) {
	if id == "" {
		return c.room(ctx, http.MethodDelete, "/api/selection", nil)
	}
	return c.room(ctx, http.MethodPost, "/api/selection", map[string]string{"id": id})
}

// Action runs a selection action: forward, backward, rotate-left,
// rotate-right, bigger, smaller or delete.
func (c *Client) Action(ctx context.Context, action string) (server.RoomView, error) {
	return c.room(ctx, http.MethodPost, "/api/selection/"+url.PathEscape(action), nil)
}

// Align moves the selected item to an edge.
func (c *Client) Align(ctx context.Context, edge string) (server.RoomView, error) {
	return c.room(ctx, http.MethodPost, "/api/selection/align/"+url.PathEscape(edge), nil)
}

// Nudge moves the selection by one step and records it.
func (c *Client) Nudge(ctx context.Context, dx, dy int, fast bool) (server.RoomView, error) {
	body := map[string]any{"dx": dx, "dy": dy, "fast": fast, "release": true}
	return c.room(ctx, http.MethodPost, "/api/selection/nudge", body)
}

// History returns the undo timeline.
func (c *Client) History(ctx context.Context) (server.HistoryView, error) {
	var v server.HistoryView
	err := c.doJSON(ctx, http.MethodGet, "/api/history", nil, &v)
	return v, err
}

func (c *Client) Undo(ctx context.Context) (server.RoomView, error) {
	return c.room(ctx, http.MethodPost, "/api/history/undo", nil)
}

func (c *Client) Redo(ctx context.Context) (server.RoomView, error) {
	return c.room(ctx, http.MethodPost, "/api/history/redo", nil)
}

// RestoreHistory jumps to history entry i.
func (c *Client) RestoreHistory(ctx context.Context, i int) (server.RoomView, error) {
	return c.room(ctx, http.MethodPost, fmt.Sprintf("/api/history/%d/restore", i), nil)
}

func (c *Client) SetFloor(ctx context.Context, preset string) (server.RoomView, error) {
	return c.room(ctx, http.MethodPut, "/api/floor", map[string]string{"preset": preset})
}

// SetBackground sets a #rrggbb color; empty restores the default gradient.
func (c *Client) SetBackground(ctx context.Context, color string) (server.RoomView, error) {
	return c.room(ctx, http.MethodPut, "/api/background", map[string]string{"color": color})
}

func (c *Client) Save(ctx context.Context) error {
	return c.doJSON(ctx, http.MethodPost, "/api/save", nil, nil)
}

func (c *Client) Reset(ctx context.Context) (server.RoomView, error) {
	return c.room(ctx, http.MethodPost, "/api/reset", nil)
}

// ExportPNG streams the rendered room into w.
func (c *Client) ExportPNG(ctx context.Context, w io.Writer, labels bool) error {
	path := "/api/export/png"
	if labels {
		path += "?labels=1"
	}
	return c.download(ctx, path, w)
}

// ExportPDF streams the room sheet into w.
func (c *Client) ExportPDF(ctx context.Context, w io.Writer, title string) error {
	return c.download(ctx, "/api/export/pdf?title="+url.QueryEscape(title), w)
}

func (c *Client) download(ctx context.Context, path string, w io.Writer) error {
	resp, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, err = io.Copy(w, resp.Body)
	return err
}
