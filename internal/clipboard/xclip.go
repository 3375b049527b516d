/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package clipboard

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"net/http"
	"os/exec"
	"time"

	applog "gocollage/internal/log"
)

// Runner executes a command with optional stdin and returns stdout.
type Runner func(ctx context.Context, stdin []byte, name string, args ...string) ([]byte, error)

func execRunner(ctx context.Context, stdin []byte, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	if stdin != nil {
		cmd.Stdin = bytes.NewReader(stdin)
	}
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		var ee *exec.Error
		if errors.As(err, &ee) {
			return nil, ErrNoXClip
		}
		return out, fmt.Errorf("%s: %w (%s)", name, err, bytes.TrimSpace(stderr.Bytes()))
	}
	return out, nil
}

// XClip talks to the X11 clipboard through the xclip binary.
type XClip struct {
	Selection string        // defaults to "clipboard"
	Client    *http.Client  // used for remote <img> sources
	Timeout   time.Duration // bounds the remote fetch
	Run       Runner        // defaults to os/exec
	log       *slog.Logger
}

// NewXClip returns an XClip with default settings.
func NewXClip() *XClip {
	return &XClip{Selection: "clipboard", Timeout: 15 * time.Second}
}

func (x *XClip) runner() Runner {
	if x.Run != nil {
		return x.Run
	}
	return execRunner
}

func (x *XClip) logger() *slog.Logger {
	if x.log == nil {
		x.log = applog.WithComponent("clipboard")
	}
	return x.log
}

func (x *XClip) sel() string {
	if x.Selection == "" {
		return "clipboard"
	}
	return x.Selection
}

// Available reports whether xclip can be run.
func (x *XClip) Available(ctx context.Context) error {
	if _, err := x.runner()(ctx, nil, "xclip", "-version"); err != nil {
		if errors.Is(err, ErrNoXClip) {
			return ErrNoXClip
		}
		return fmt.Errorf("%w: %v", ErrNoXClip, err)
	}
	return nil
}

func (x *XClip) read(ctx context.Context, target string) ([]byte, error) {
	return x.runner()(ctx, nil, "xclip", "-selection", x.sel(), "-t", target, "-o")
}

// ReadImage tries image/png, then the HTML fallbacks.
func (x *XClip) ReadImage(ctx context.Context) (image.Image, string, error) {
	if err := x.Available(ctx); err != nil {
		return nil, "", err
	}
	l := x.logger()
	if raw, err := x.read(ctx, "image/png"); err == nil && len(raw) > 0 {
		img, err := DecodeBytes(raw)
		if err == nil {
			return img, OriginPNG, nil
		}
		l.Debug("clipboard png not decodable", slog.Any("err", err))
	}
	html, err := x.read(ctx, "text/html")
	if err != nil || len(html) == 0 {
		return nil, "", ErrNoImage
	}
	img, origin, err := FromHTML(ctx, x.Client, x.Timeout, string(html))
	if err != nil {
		if !errors.Is(err, ErrNoImage) {
			l.Warn("clipboard html image failed", slog.Any("err", err))
		}
		return nil, "", ErrNoImage
	}
	return img, origin, nil
}

// WriteImage places PNG bytes on the clipboard.
func (x *XClip) WriteImage(ctx context.Context, png []byte) error {
	if err := x.Available(ctx); err != nil {
		return err
	}
	if _, err := x.runner()(ctx, png, "xclip", "-selection", x.sel(), "-t", "image/png", "-i"); err != nil {
		return fmt.Errorf("copy to clipboard: %w", err)
	}
	return nil
}
