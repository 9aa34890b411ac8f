/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * Licensed under the Apache License, Version 2.0
 */

package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// PresetName represents a named export preset.
type PresetName string

const (
	PresetWeb   PresetName = "web"
	PresetPrint PresetName = "print"
)

// BatchOptions controls exporting one room into several formats at once.
//
// Path semantics:
//   - OutDir defaults to the working directory; files go to <OutDir>/<preset>/.
//   - Files are named inmyroom-<timestamp>.(png|pdf), as for single exports.
//
// Scale, when > 0, overrides the preset's raster scale.
type BatchOptions struct {
	Preset  PresetName
	Formats []string // allowed: png, pdf; empty means preset defaults
	Scale   float64
	Labels  *bool // when set, overrides the preset's label default
	OutDir  string
	Title   string
	Now     time.Time
}

// BatchExport writes f in every requested format and returns the paths.
func BatchExport(ctx context.Context, f Frame, opt BatchOptions) ([]string, error) {
	formats := opt.Formats
	if len(formats) == 0 {
		formats = presetDefaultFormats(opt.Preset)
	}
	now := opt.Now
	if now.IsZero() {
		now = time.Now()
	}
	baseOut := opt.OutDir
	if baseOut == "" {
		baseOut = "."
	}
	if opt.Preset != "" {
		baseOut = filepath.Join(baseOut, string(opt.Preset))
	}
	if err := os.MkdirAll(baseOut, 0o755); err != nil {
		return nil, fmt.Errorf("ensure out dir: %w", err)
	}

	labels := presetLabels(opt.Preset)
	if opt.Labels != nil {
		labels = *opt.Labels
	}
	scale := presetScale(opt.Preset)
	if opt.Scale > 0 {
		scale = opt.Scale
	}

	var out []string
	for _, fm := range formats {
		switch strings.ToLower(strings.TrimSpace(fm)) {
		case "png":
			data, err := EncodePNG(ctx, f, PNGOptions{Scale: scale, Labels: labels})
			if err != nil {
				return out, fmt.Errorf("png: %w", err)
			}
			path, err := SaveDownload(baseOut, data, now, ".png")
			if err != nil {
				return out, err
			}
			out = append(out, path)
		case "pdf":
			data, err := EncodePDF(f, PDFOptions{Title: opt.Title, Time: now})
			if err != nil {
				return out, fmt.Errorf("pdf: %w", err)
			}
			path, err := SaveDownload(baseOut, data, now, ".pdf")
			if err != nil {
				return out, err
			}
			out = append(out, path)
		default:
			return out, fmt.Errorf("unknown format: %s", fm)
		}
	}
	return out, nil
}

// ParsePreset accepts "", "web" and "print".
func ParsePreset(s string) (PresetName, error) {
	switch p := PresetName(strings.ToLower(strings.TrimSpace(s))); p {
	case "", PresetWeb, PresetPrint:
		return p, nil
	default:
		return "", fmt.Errorf("unknown preset: %s", s)
	}
}

func presetDefaultFormats(p PresetName) []string {
	switch p {
	case PresetPrint:
		return []string{"pdf", "png"}
	default:
		return []string{"png"}
	}
}

func presetScale(p PresetName) float64 {
	if p == PresetPrint {
		return 4
	}
	return DefaultScale
}

func presetLabels(p PresetName) bool {
	return p == PresetPrint
}
