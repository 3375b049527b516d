/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package clipboard

import (
	"context"
	"encoding/base64"
	"fmt"
	"image"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/net/html"
)

// maxFetch bounds a remote image download.
const maxFetch = 64 << 20

// imageSources returns the src attribute of every <img> in document order.
// Attribute values come back entity-decoded whatever their quoting.
func imageSources(doc string) []string {
	var out []string
	z := html.NewTokenizer(strings.NewReader(doc))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return out
		case html.StartTagToken, html.SelfClosingTagToken:
			name, hasAttr := z.TagName()
			if string(name) != "img" {
				continue
			}
			for hasAttr {
				var key, val []byte
				key, val, hasAttr = z.TagAttr()
				if string(key) == "src" {
					out = append(out, strings.TrimSpace(string(val)))
					break
				}
			}
		}
	}
}

// DataURIImage returns the decoded payload of the first base64 <img> data URI in doc.
func DataURIImage(doc string) ([]byte, bool) {
	for _, src := range imageSources(doc) {
		if !strings.HasPrefix(strings.ToLower(src), "data:image/") {
			continue
		}
		meta, payload, ok := strings.Cut(src, ",")
		if !ok || !strings.HasSuffix(strings.ToLower(meta), ";base64") {
			continue
		}
		b, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return nil, false
		}
		return b, true
	}
	return nil, false
}

// ImageURL returns the first http(s) <img> source in doc.
func ImageURL(doc string) (string, bool) {
	for _, src := range imageSources(doc) {
		l := strings.ToLower(src)
		if strings.HasPrefix(l, "http://") || strings.HasPrefix(l, "https://") {
			return src, true
		}
	}
	return "", false
}

// Fetch downloads and decodes a remote image.
func Fetch(ctx context.Context, client *http.Client, url string) (image.Image, error) {
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: status %s", url, resp.Status)
	}
	img, _, err := Decode(io.LimitReader(resp.Body, maxFetch))
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	return img, nil
}

// FromHTML tries the data URI first and then a remote URL.
func FromHTML(ctx context.Context, client *http.Client, timeout time.Duration, doc string) (image.Image, string, error) {
	if b, ok := DataURIImage(doc); ok {
		if img, err := DecodeBytes(b); err == nil {
			return img, OriginDataURI, nil
		}
	}
	url, ok := ImageURL(doc)
	if !ok {
		return nil, "", ErrNoImage
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	img, err := Fetch(ctx, client, url)
	if err != nil {
		return nil, "", err
	}
	return img, OriginURL, nil
}
