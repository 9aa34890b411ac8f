/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/gofiber/fiber/v3"

	"inmyroom/internal/domain"
	"inmyroom/internal/editor"
	"inmyroom/internal/manip"
	"inmyroom/internal/vector"
	"inmyroom/internal/version"
)

func (s *Server) routes() {
	s.app.Get("/healthz", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	s.app.Get("/version", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{"version": version.String()})
	})

	api := s.app.Group("/api", s.requireToken)
	api.Get("/catalog", func(c fiber.Ctx) error { return c.JSON(catalogView()) })

	api.Get("/room", s.getRoom)
	api.Get("/room/record", s.getRecord)
	api.Get("/notices", s.getNotices)

	api.Get("/items", s.getItems)
	api.Get("/items/:id", s.getItem)
	api.Post("/items", s.placeItem)
	api.Put("/items/:id/position", s.moveItem)

	api.Post("/selection", s.selectItem)
	api.Delete("/selection", s.deselect)
	api.Post("/selection/align/:edge", s.align)
	api.Post("/selection/nudge", s.nudge)
	api.Post("/selection/nudge/end", s.endNudge)
	api.Post("/selection/:action", s.selectionAction)

	api.Get("/drag", s.getRoom)
	api.Post("/drag/place", s.dragPlace)
	api.Post("/drag/start", s.dragStart)
	api.Post("/drag/move", s.dragMove)
	api.Post("/drag/end", s.dragEnd)

	api.Get("/history", s.getHistory)
	api.Post("/history/undo", s.undo)
	api.Post("/history/redo", s.redo)
	api.Post("/history/:index/restore", s.restoreHistory)

	api.Put("/floor", s.setFloor)
	api.Post("/floor/image", s.uploadFloor)
	api.Put("/background", s.setBackground)
	api.Post("/background/image", s.uploadBackground)

	api.Post("/save", s.save)
	api.Post("/revert", s.revert)
	api.Post("/reset", s.reset)
	api.Get("/backups", s.getBackups)
	api.Post("/backups/:index/restore", s.restoreBackup)

	api.Get("/export/png", s.exportPNG)
	api.Get("/export/pdf", s.exportPDF)
}

func decode(c fiber.Ctx, v any) error {
	if len(c.Body()) == 0 {
		return fmt.Errorf("%w: body required", errBadRequest)
	}
	if err := json.Unmarshal(c.Body(), v); err != nil {
		return fmt.Errorf("%w: invalid JSON payload", errBadRequest)
	}
	return nil
}

func indexParam(c fiber.Ctx) (int, error) {
	i, err := strconv.Atoi(c.Params("index"))
	if err != nil {
		return 0, fmt.Errorf("%w: index must be a number", errBadRequest)
	}
	return i, nil
}

// room answers with the full room after a successful mutation.
func (s *Server) room(c fiber.Ctx, ed *editor.Editor) error {
	return c.JSON(roomView(ed))
}

func (s *Server) getRoom(c fiber.Ctx) error {
	return s.locked(func(ed *editor.Editor) error { return s.room(c, ed) })
}

func (s *Server) getRecord(c fiber.Ctx) error {
	return s.locked(func(ed *editor.Editor) error {
		data, err := ed.Record()
		if err != nil {
			return err
		}
		c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		return c.Send(data)
	})
}

func (s *Server) getNotices(c fiber.Ctx) error {
	return s.locked(func(ed *editor.Editor) error { return c.JSON(ed.Notices()) })
}

func (s *Server) getItems(c fiber.Ctx) error {
	return s.locked(func(ed *editor.Editor) error { return c.JSON(roomView(ed).Items) })
}

func (s *Server) getItem(c fiber.Ctx) error {
	return s.locked(func(ed *editor.Editor) error {
		it, ok := ed.Item(c.Params("id"))
		if !ok {
			return fiber.NewError(fiber.StatusNotFound, "no such item")
		}
		var sel string
		if cur, ok := ed.Selected(); ok {
			sel = cur.ID
		}
		return c.JSON(itemView(it, sel))
	})
}

type placeRequest struct {
	Kind   string  `json:"kind"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width,omitempty"`
	Height float64 `json:"height,omitempty"`
}

type pointRequest struct {
	ID string  `json:"id,omitempty"`
	X  float64 `json:"x"`
	Y  float64 `json:"y"`
}

func (s *Server) placeItem(c fiber.Ctx) error {
	var req placeRequest
	if err := decode(c, &req); err != nil {
		return err
	}
	if req.Kind == "" {
		return fmt.Errorf("%w: kind required", errBadRequest)
	}
	return s.locked(func(ed *editor.Editor) error {
		it, err := ed.Place(domain.Kind(req.Kind), req.Width, req.Height, vector.Pt{X: req.X, Y: req.Y})
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(itemView(it, it.ID))
	})
}

func (s *Server) moveItem(c fiber.Ctx) error {
	var req pointRequest
	if err := decode(c, &req); err != nil {
		return err
	}
	return s.locked(func(ed *editor.Editor) error {
		it, err := ed.MoveItem(c.Params("id"), req.X, req.Y)
		if err != nil {
			return err
		}
		return c.JSON(itemView(it, it.ID))
	})
}

func (s *Server) selectItem(c fiber.Ctx) error {
	var req struct {
		ID string `json:"id"`
	}
	if err := decode(c, &req); err != nil {
		return err
	}
	return s.locked(func(ed *editor.Editor) error {
		if err := ed.Select(req.ID); err != nil {
			return err
		}
		return s.room(c, ed)
	})
}

func (s *Server) deselect(c fiber.Ctx) error {
	return s.locked(func(ed *editor.Editor) error {
		ed.Deselect()
		return s.room(c, ed)
	})
}

func (s *Server) selectionAction(c fiber.Ctx) error {
	return s.locked(func(ed *editor.Editor) error {
		var err error
		switch c.Params("action") {
		case "forward":
			_, err = ed.BringForward()
		case "backward":
			_, err = ed.SendBackward()
		case "rotate-left":
			_, err = ed.RotateLeft()
		case "rotate-right":
			_, err = ed.RotateRight()
		case "bigger":
			_, err = ed.ResizeBigger()
		case "smaller":
			_, err = ed.ResizeSmaller()
		case "delete":
			_, err = ed.DeleteSelected()
		default:
			return fiber.NewError(fiber.StatusNotFound, "unknown action "+c.Params("action"))
		}
		if err != nil {
			return err
		}
		return s.room(c, ed)
	})
}

func (s *Server) align(c fiber.Ctx) error {
	edge, err := manip.ParseEdge(c.Params("edge"))
	if err != nil {
		return err
	}
	return s.locked(func(ed *editor.Editor) error {
		if _, err := ed.Align(edge); err != nil {
			return err
		}
		return s.room(c, ed)
	})
}

type nudgeRequest struct {
	DX   int  `json:"dx"`
	DY   int  `json:"dy"`
	Fast bool `json:"fast,omitempty"`
	// Release closes the nudge run, like a key-up.
	Release bool `json:"release,omitempty"`
}

func (s *Server) nudge(c fiber.Ctx) error {
	var req nudgeRequest
	if err := decode(c, &req); err != nil {
		return err
	}
	return s.locked(func(ed *editor.Editor) error {
		if _, err := ed.Nudge(req.DX, req.DY, req.Fast); err != nil {
			return err
		}
		if req.Release {
			ed.EndNudge()
		}
		return s.room(c, ed)
	})
}

func (s *Server) endNudge(c fiber.Ctx) error {
	return s.locked(func(ed *editor.Editor) error {
		return c.JSON(fiber.Map{"recorded": ed.EndNudge()})
	})
}

func (s *Server) dragPlace(c fiber.Ctx) error {
	var req placeRequest
	if err := decode(c, &req); err != nil {
		return err
	}
	return s.locked(func(ed *editor.Editor) error {
		if _, err := ed.BeginPlace(domain.Kind(req.Kind), req.Width, req.Height, vector.Pt{X: req.X, Y: req.Y}); err != nil {
			return err
		}
		return s.room(c, ed)
	})
}

func (s *Server) dragStart(c fiber.Ctx) error {
	var req pointRequest
	if err := decode(c, &req); err != nil {
		return err
	}
	return s.locked(func(ed *editor.Editor) error {
		if err := ed.BeginMove(req.ID, vector.Pt{X: req.X, Y: req.Y}); err != nil {
			return err
		}
		return s.room(c, ed)
	})
}

func (s *Server) dragMove(c fiber.Ctx) error {
	var req pointRequest
	if err := decode(c, &req); err != nil {
		return err
	}
	return s.locked(func(ed *editor.Editor) error {
		ed.DragTo(vector.Pt{X: req.X, Y: req.Y})
		return s.room(c, ed)
	})
}

func (s *Server) dragEnd(c fiber.Ctx) error {
	return s.locked(func(ed *editor.Editor) error {
		cm, ok := ed.EndDrag()
		if !ok {
			return fiber.NewError(fiber.StatusConflict, "no drag in progress")
		}
		return c.JSON(fiber.Map{"itemId": cm.ItemID, "label": cm.Label()})
	})
}

func (s *Server) getHistory(c fiber.Ctx) error {
	return s.locked(func(ed *editor.Editor) error {
		return c.JSON(historyView(ed.History()))
	})
}

func (s *Server) undo(c fiber.Ctx) error {
	return s.locked(func(ed *editor.Editor) error {
		if _, err := ed.Undo(); err != nil {
			return err
		}
		return s.room(c, ed)
	})
}

func (s *Server) redo(c fiber.Ctx) error {
	return s.locked(func(ed *editor.Editor) error {
		if _, err := ed.Redo(); err != nil {
			return err
		}
		return s.room(c, ed)
	})
}

func (s *Server) restoreHistory(c fiber.Ctx) error {
	i, err := indexParam(c)
	if err != nil {
		return err
	}
	return s.locked(func(ed *editor.Editor) error {
		if err := ed.RestoreHistory(i); err != nil {
			return err
		}
		return s.room(c, ed)
	})
}

type styleRequest struct {
	Preset string `json:"preset,omitempty"`
	Color  string `json:"color,omitempty"`
}

func (s *Server) setFloor(c fiber.Ctx) error {
	var req styleRequest
	if err := decode(c, &req); err != nil {
		return err
	}
	return s.locked(func(ed *editor.Editor) error {
		if err := ed.SetFloorPreset(req.Preset); err != nil {
			return err
		}
		return s.room(c, ed)
	})
}

func (s *Server) setBackground(c fiber.Ctx) error {
	var req styleRequest
	if err := decode(c, &req); err != nil {
		return err
	}
	return s.locked(func(ed *editor.Editor) error {
		if err := ed.SetBackgroundColor(req.Color); err != nil {
			return err
		}
		return s.room(c, ed)
	})
}

// uploadBody returns the "file" form part, or the raw body for non-multipart
// requests.
func uploadBody(c fiber.Ctx) (io.ReadCloser, error) {
	fh, err := c.FormFile("file")
	if err == nil {
		return fh.Open()
	}
	if len(c.Body()) == 0 {
		return nil, fmt.Errorf("%w: file required", errBadRequest)
	}
	return io.NopCloser(bytes.NewReader(c.Body())), nil
}

func (s *Server) uploadFloor(c fiber.Ctx) error {
	return s.upload(c, (*editor.Editor).UploadFloor)
}

func (s *Server) uploadBackground(c fiber.Ctx) error {
	return s.upload(c, (*editor.Editor).UploadBackground)
}

func (s *Server) upload(c fiber.Ctx, apply func(*editor.Editor, context.Context, io.Reader) error) error {
	r, err := uploadBody(c)
	if err != nil {
		return err
	}
	defer r.Close()
	return s.locked(func(ed *editor.Editor) error {
		if err := apply(ed, c.Context(), r); err != nil {
			return err
		}
		return s.room(c, ed)
	})
}

func (s *Server) save(c fiber.Ctx) error {
	return s.locked(func(ed *editor.Editor) error {
		if err := ed.Save(c.Context()); err != nil {
			return err
		}
		return c.JSON(fiber.Map{"saved": true})
	})
}

func (s *Server) revert(c fiber.Ctx) error {
	return s.locked(func(ed *editor.Editor) error {
		if err := ed.Revert(c.Context()); err != nil {
			return err
		}
		return s.room(c, ed)
	})
}

func (s *Server) reset(c fiber.Ctx) error {
	return s.locked(func(ed *editor.Editor) error {
		if err := ed.Reset(); err != nil {
			return err
		}
		return s.room(c, ed)
	})
}

func (s *Server) getBackups(c fiber.Ctx) error {
	return s.locked(func(ed *editor.Editor) error {
		bs, err := ed.Backups(c.Context())
		if err != nil {
			return err
		}
		return c.JSON(backupViews(bs))
	})
}

func (s *Server) restoreBackup(c fiber.Ctx) error {
	i, err := indexParam(c)
	if err != nil {
		return err
	}
	return s.locked(func(ed *editor.Editor) error {
		if err := ed.RestoreBackup(c.Context(), i); err != nil {
			return err
		}
		return s.room(c, ed)
	})
}

func (s *Server) exportPNG(c fiber.Ctx) error {
	labels := c.Query("labels") == "1" || c.Query("labels") == "true"
	return s.locked(func(ed *editor.Editor) error {
		data, err := ed.RenderPNG(c.Context(), labels)
		if err != nil {
			return err
		}
		c.Set(fiber.HeaderContentType, "image/png")
		return c.Send(data)
	})
}

func (s *Server) exportPDF(c fiber.Ctx) error {
	title := c.Query("title", "My room")
	return s.locked(func(ed *editor.Editor) error {
		var buf bytes.Buffer
		if err := ed.WritePDF(&buf, title); err != nil {
			return err
		}
		c.Set(fiber.HeaderContentType, "application/pdf")
		return c.Send(buf.Bytes())
	})
}
