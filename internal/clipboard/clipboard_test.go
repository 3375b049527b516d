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
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"golang.org/x/image/bmp"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode: %v", err)
	}
	return buf.Bytes()
}

func TestDecode_Formats(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 7, 3))
	var b bytes.Buffer
	if err := bmp.Encode(&b, img); err != nil {
		t.Fatalf("bmp encode: %v", err)
	}
	got, format, err := Decode(&b)
	if err != nil || format != "bmp" || got.Bounds().Dx() != 7 {
		t.Fatalf("bmp decode: %v %q", err, format)
	}
	if _, err := DecodeBytes(nil); !errors.Is(err, ErrNoImage) {
		t.Fatalf("empty input: %v", err)
	}
	if _, err := DecodeBytes([]byte("not an image")); err == nil {
		t.Fatalf("expected error for garbage")
	}
}

func TestHTML_Extraction(t *testing.T) {
	raw := pngBytes(t, 4, 2)
	html := `<p>x</p><img alt="a" src="data:image/png;base64,` + base64.StdEncoding.EncodeToString(raw) + `">`
	b, ok := DataURIImage(html)
	if !ok || !bytes.Equal(b, raw) {
		t.Fatalf("data uri not extracted")
	}
	if u, ok := ImageURL(`<img class="c" src="https://example.org/a.png">`); !ok || u != "https://example.org/a.png" {
		t.Fatalf("url: %q %v", u, ok)
	}
	if _, ok := ImageURL(`<img src="ftp://x/a.png">`); ok {
		t.Fatalf("non-http source accepted")
	}
	img, origin, err := FromHTML(context.Background(), nil, 0, html)
	if err != nil || origin != OriginDataURI || img.Bounds().Dx() != 4 {
		t.Fatalf("from html: %v %q", err, origin)
	}
	if _, _, err := FromHTML(context.Background(), nil, 0, "<b>nothing</b>"); !errors.Is(err, ErrNoImage) {
		t.Fatalf("expected ErrNoImage, got %v", err)
	}
}

func TestHTML_BrowserMarkup(t *testing.T) {
	cases := []struct {
		name, doc, want string
	}{
		{"escaped ampersand", `<img src="https://cdn.example.com/a.png?w=10&amp;h=20">`, "https://cdn.example.com/a.png?w=10&h=20"},
		{"single quotes", `<img src='https://cdn.example.com/b.png'>`, "https://cdn.example.com/b.png"},
		{"unquoted", `<IMG SRC=https://cdn.example.com/c.png alt=x>`, "https://cdn.example.com/c.png"},
		{"self closing", `<meta charset="utf-8"><img width="3" src="http://h/d.png"/>`, "http://h/d.png"},
		{"skips non http", `<img src="blob:x"><img src="https://h/e.png">`, "https://h/e.png"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := ImageURL(tc.doc)
			if !ok || got != tc.want {
				t.Fatalf("ImageURL = %q %v, want %q", got, ok, tc.want)
			}
		})
	}
	if _, ok := ImageURL(`<a href="https://h/f.png">link</a>`); ok {
		t.Fatalf("non-img href accepted")
	}

	raw := pngBytes(t, 3, 3)
	doc := `<img src='https://h/g.png'><img src='data:image/png;base64,` + base64.StdEncoding.EncodeToString(raw) + `'>`
	b, ok := DataURIImage(doc)
	if !ok || !bytes.Equal(b, raw) {
		t.Fatalf("single-quoted data uri not extracted")
	}
	img, origin, err := FromHTML(context.Background(), nil, 0, doc)
	if err != nil || origin != OriginDataURI || img.Bounds().Dx() != 3 {
		t.Fatalf("data uri should win over url: %v %q", err, origin)
	}
}

func TestHTML_RemoteURL(t *testing.T) {
	raw := pngBytes(t, 5, 5)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing.png" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(raw)
	}))
	defer srv.Close()

	img, origin, err := FromHTML(context.Background(), srv.Client(), time.Second, `<img src="`+srv.URL+`/a.png">`)
	if err != nil || origin != OriginURL || img.Bounds().Dy() != 5 {
		t.Fatalf("remote: %v %q", err, origin)
	}
	if _, _, err := FromHTML(context.Background(), srv.Client(), time.Second, `<img src="`+srv.URL+`/missing.png">`); err == nil || !strings.Contains(err.Error(), "404") {
		t.Fatalf("expected 404 error, got %v", err)
	}
}

type fakeClip struct {
	targets map[string][]byte
	missing bool
	written []byte
	calls   []string
}

func (f *fakeClip) run(_ context.Context, stdin []byte, name string, args ...string) ([]byte, error) {
	f.calls = append(f.calls, name+" "+strings.Join(args, " "))
	if f.missing {
		return nil, ErrNoXClip
	}
	if len(args) == 1 && args[0] == "-version" {
		return []byte("xclip version 0.13"), nil
	}
	target := args[3]
	if args[len(args)-1] == "-i" {
		f.written = stdin
		return nil, nil
	}
	b, ok := f.targets[target]
	if !ok {
		return nil, errors.New("target not available")
	}
	return b, nil
}

func TestXClip_ReadPNG(t *testing.T) {
	f := &fakeClip{targets: map[string][]byte{"image/png": pngBytes(t, 3, 3)}}
	x := NewXClip()
	x.Run = f.run
	img, origin, err := x.ReadImage(context.Background())
	if err != nil || origin != OriginPNG || img.Bounds().Dx() != 3 {
		t.Fatalf("read: %v %q", err, origin)
	}
	if f.calls[1] != "xclip -selection clipboard -t image/png -o" {
		t.Fatalf("unexpected call %q", f.calls[1])
	}
}

func TestXClip_HTMLFallbackAndMisses(t *testing.T) {
	html := `<img src="data:image/png;base64,` + base64.StdEncoding.EncodeToString(pngBytes(t, 2, 6)) + `">`
	f := &fakeClip{targets: map[string][]byte{"text/html": []byte(html)}}
	x := NewXClip()
	x.Run = f.run
	img, origin, err := x.ReadImage(context.Background())
	if err != nil || origin != OriginDataURI || img.Bounds().Dy() != 6 {
		t.Fatalf("html fallback: %v %q", err, origin)
	}

	empty := &fakeClip{targets: map[string][]byte{}}
	x.Run = empty.run
	if _, _, err := x.ReadImage(context.Background()); !errors.Is(err, ErrNoImage) {
		t.Fatalf("expected ErrNoImage, got %v", err)
	}

	x.Run = (&fakeClip{missing: true}).run
	if _, _, err := x.ReadImage(context.Background()); !errors.Is(err, ErrNoXClip) {
		t.Fatalf("expected ErrNoXClip, got %v", err)
	}
}

func TestXClip_Write(t *testing.T) {
	f := &fakeClip{}
	x := &XClip{Run: f.run}
	payload := pngBytes(t, 1, 1)
	if err := x.WriteImage(context.Background(), payload); err != nil {
		t.Fatalf("write: %v", err)
	}
	if !bytes.Equal(f.written, payload) {
		t.Fatalf("payload not piped to xclip")
	}
	if f.calls[1] != "xclip -selection clipboard -t image/png -i" {
		t.Fatalf("unexpected call %q", f.calls[1])
	}
}
