/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package upload turns user-chosen image files into data URLs for floor and
// background styles, and decodes them again for rendering.
package upload

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/h2non/filetype"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"

	applog "inmyroom/internal/log"
)

// DefaultLimit caps uploads at 10 MiB.
const DefaultLimit int64 = 10 << 20

// ErrUnreadableFile is returned for empty, oversized, unreadable or
// non-image input.
var ErrUnreadableFile = errors.New("unreadable file")

const chunk = 32 << 10

// ReadDataURL reads r fully (up to limit bytes, DefaultLimit when <= 0),
// sniffs the content type and returns a base64 data URL. Only images are
// accepted.
func ReadDataURL(ctx context.Context, r io.Reader, limit int64) (string, error) {
	l := applog.WithOperation(applog.WithComponent("upload"), "read")
	if limit <= 0 {
		limit = DefaultLimit
	}
	var buf bytes.Buffer
	lr := io.LimitReader(r, limit+1)
	p := make([]byte, chunk)
	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		n, err := lr.Read(p)
		buf.Write(p[:n])
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			l.Warn("read failed", slog.Any("err", err))
			return "", fmt.Errorf("%w: %v", ErrUnreadableFile, err)
		}
	}
	if int64(buf.Len()) > limit {
		return "", fmt.Errorf("%w: larger than %d bytes", ErrUnreadableFile, limit)
	}
	return Encode(buf.Bytes())
}

// ReadFile opens path and passes it to ReadDataURL.
func ReadFile(ctx context.Context, path string, limit int64) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnreadableFile, err)
	}
	defer func() { _ = f.Close() }()
	return ReadDataURL(ctx, f, limit)
}

// Encode sniffs b and wraps it in a data URL.
func Encode(b []byte) (string, error) {
	if len(b) == 0 {
		return "", fmt.Errorf("%w: empty", ErrUnreadableFile)
	}
	if !filetype.IsImage(b) {
		return "", fmt.Errorf("%w: not an image", ErrUnreadableFile)
	}
	kind, err := filetype.Match(b)
	if err != nil || kind == filetype.Unknown {
		return "", fmt.Errorf("%w: unknown type", ErrUnreadableFile)
	}
	return "data:" + kind.MIME.Value + ";base64," + base64.StdEncoding.EncodeToString(b), nil
}

// Split returns the MIME type and raw bytes of a base64 data URL.
func Split(dataURL string) (string, []byte, error) {
	rest, ok := strings.CutPrefix(dataURL, "data:")
	if !ok {
		return "", nil, fmt.Errorf("%w: not a data URL", ErrUnreadableFile)
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok || !strings.HasSuffix(meta, ";base64") {
		return "", nil, fmt.Errorf("%w: not base64", ErrUnreadableFile)
	}
	b, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrUnreadableFile, err)
	}
	return strings.TrimSuffix(meta, ";base64"), b, nil
}

// Decode turns a data URL back into an image. gif, jpeg, png, bmp and webp
// are supported.
func Decode(dataURL string) (image.Image, error) {
	_, b, err := Split(dataURL)
	if err != nil {
		return nil, err
	}
	img, _, err := image.Decode(bytes.NewReader(b))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadableFile, err)
	}
	return img, nil
}
