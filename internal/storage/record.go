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
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	gojsonschema "github.com/xeipuuv/gojsonschema"

	"inmyroom/internal/domain"
	"inmyroom/internal/scene"
)

// RecordVersion is written into every saved record.
const RecordVersion = "2.0"

// DefaultKey is the record key used when none is configured.
const DefaultKey = "inmyroom_state"

// styleUpload marks a background or floor backed by uploaded image data.
const styleUpload = "upload"

// ErrNoSavedState reports an absent or unusable record. Callers treat it as
// an empty room, never as a fatal error.
var ErrNoSavedState = errors.New("no saved state")

//go:embed room.schema.json
var schemaJSON []byte

var (
	schemaOnce sync.Once
	schema     *gojsonschema.Schema
	schemaErr  error
)

func recordSchema() (*gojsonschema.Schema, error) {
	schemaOnce.Do(func() {
		schema, schemaErr = gojsonschema.NewSchema(gojsonschema.NewBytesLoader(schemaJSON))
	})
	return schema, schemaErr
}

// Record is the persisted room.
type Record struct {
	Furniture  []FurnitureRecord `json:"furniture"`
	Background *StyleRecord      `json:"background"`
	Floor      *StyleRecord      `json:"floor"`
	Timestamp  string            `json:"timestamp"`
	Version    string            `json:"version"`
}

type FurnitureRecord struct {
	Type      string  `json:"type"`
	Width     float64 `json:"width"`
	Height    float64 `json:"height"`
	Left      float64 `json:"left"`
	Top       float64 `json:"top"`
	ZIndex    int     `json:"zIndex"`
	Transform string  `json:"transform"`
}

// StyleRecord encodes a background or floor. Type is "" (default
// background), a #hex color, a floor preset name, or "upload".
type StyleRecord struct {
	Type      string `json:"type"`
	ImageData string `json:"imageData,omitempty"`
}

// Patch is a decoded record ready to be applied to a scene.
type Patch struct {
	Snapshot scene.Snapshot
	SavedAt  time.Time
	Version  string
}

// Serialize encodes snap as a versioned record stamped with now.
func Serialize(snap scene.Snapshot, now time.Time) ([]byte, error) {
	rec := Record{
		Furniture:  make([]FurnitureRecord, 0, len(snap.Items)),
		Background: encodeBackground(snap.Background),
		Floor:      encodeFloor(snap.Floor),
		Timestamp:  now.UTC().Format(time.RFC3339Nano),
		Version:    RecordVersion,
	}
	for _, it := range snap.Items {
		rec.Furniture = append(rec.Furniture, FurnitureRecord{
			Type:      string(it.Kind),
			Width:     it.Width,
			Height:    it.Height,
			Left:      it.X,
			Top:       it.Y,
			ZIndex:    it.Z,
			Transform: it.Transform(),
		})
	}
	b, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("marshal record: %w", err)
	}
	return b, nil
}

// Deserialize validates and decodes a record. Any problem with the data is
// reported as ErrNoSavedState (wrapped with the cause).
func Deserialize(data []byte) (Patch, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return Patch{}, ErrNoSavedState
	}
	sch, err := recordSchema()
	if err != nil {
		return Patch{}, fmt.Errorf("load record schema: %w", err)
	}
	res, err := sch.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return Patch{}, fmt.Errorf("%w: %v", ErrNoSavedState, err)
	}
	if !res.Valid() {
		return Patch{}, fmt.Errorf("%w: %s", ErrNoSavedState, res.Errors()[0])
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return Patch{}, fmt.Errorf("%w: %v", ErrNoSavedState, err)
	}

	p := Patch{
		Version: rec.Version,
		Snapshot: scene.Snapshot{
			Background: decodeBackground(rec.Background),
			Floor:      decodeFloor(rec.Floor),
			Items:      make([]domain.Item, 0, len(rec.Furniture)),
		},
	}
	if ts, err := time.Parse(time.RFC3339Nano, rec.Timestamp); err == nil {
		p.SavedAt = ts
	}
	for _, f := range rec.Furniture {
		p.Snapshot.Items = append(p.Snapshot.Items, domain.Item{
			Kind:     domain.Kind(f.Type),
			X:        f.Left,
			Y:        f.Top,
			Width:    f.Width,
			Height:   f.Height,
			Rotation: ParseTransform(f.Transform),
			Z:        f.ZIndex,
		})
	}
	return p, nil
}

var rotateRe = regexp.MustCompile(`rotate\(\s*(-?[0-9]*\.?[0-9]+(?:e[-+]?[0-9]+)?)deg\s*\)`)

// ParseTransform extracts degrees from "rotate(Ndeg)"; anything else is 0.
func ParseTransform(s string) float64 {
	m := rotateRe.FindStringSubmatch(s)
	if m == nil {
		return 0
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0
	}
	return domain.NormalizeDegrees(v)
}

func encodeBackground(bg domain.Background) *StyleRecord {
	switch bg.Kind() {
	case domain.BackgroundColor:
		c, _ := bg.Color()
		return &StyleRecord{Type: c.Hex()}
	case domain.BackgroundImage:
		img, _ := bg.Image()
		return &StyleRecord{Type: styleUpload, ImageData: img}
	default:
		return &StyleRecord{}
	}
}

func decodeBackground(s *StyleRecord) domain.Background {
	if s == nil {
		return domain.NoBackground()
	}
	switch {
	case s.Type == styleUpload:
		if bg, err := domain.ImageBackground(s.ImageData); err == nil {
			return bg
		}
	case strings.HasPrefix(s.Type, "#"):
		if bg, err := domain.ColorBackground(s.Type); err == nil {
			return bg
		}
	}
	return domain.NoBackground()
}

func encodeFloor(f domain.Floor) *StyleRecord {
	if img, ok := f.Image(); ok {
		return &StyleRecord{Type: styleUpload, ImageData: img}
	}
	name, _ := f.Preset()
	return &StyleRecord{Type: name}
}

func decodeFloor(s *StyleRecord) domain.Floor {
	if s == nil {
		return domain.DefaultFloor()
	}
	if s.Type == styleUpload {
		if f, err := domain.ImageFloor(s.ImageData); err == nil {
			return f
		}
		return domain.DefaultFloor()
	}
	if f, err := domain.PresetFloor(s.Type); err == nil {
		return f
	}
	return domain.DefaultFloor()
}

// savedAt peeks at a record's timestamp without full validation.
func savedAt(data []byte) time.Time {
	var rec struct {
		Timestamp string `json:"timestamp"`
	}
	if json.Unmarshal(data, &rec) != nil {
		return time.Time{}
	}
	ts, _ := time.Parse(time.RFC3339Nano, rec.Timestamp)
	return ts
}
