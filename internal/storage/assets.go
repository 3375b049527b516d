/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"gocollage/internal/domain"
)

// NewItemID returns a fresh identifier for a pasted image.
func NewItemID() string { return uuid.NewString() }

// Asset describes an image stored under assets/.
type Asset struct {
	ID     string
	Path   string // relative to the collage root, slash separated
	Hash   string // sha256 of the PNG bytes
	Width  int
	Height int
	Source string
}

// WriteAsset stores img as assets/<id>.png inside the collage.
func WriteAsset(ph *CollageHandle, id string, img image.Image, source string) (Asset, error) {
	if img == nil {
		return Asset{}, fmt.Errorf("write asset %s: nil image", id)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return Asset{}, fmt.Errorf("encode asset %s: %w", id, err)
	}
	rel := domain.AssetPath(id)
	abs := ph.Abs(rel)
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return Asset{}, fmt.Errorf("ensure assets dir: %w", err)
	}
	if err := replaceFile(abs, buf.Bytes()); err != nil {
		return Asset{}, err
	}
	sum := sha256.Sum256(buf.Bytes())
	b := img.Bounds()
	return Asset{ID: id, Path: rel, Hash: hex.EncodeToString(sum[:]), Width: b.Dx(), Height: b.Dy(), Source: source}, nil
}

// ReadAsset decodes the image of an item.
func ReadAsset(ph *CollageHandle, it domain.Item) (image.Image, error) {
	rel := it.Asset
	if rel == "" {
		rel = domain.AssetPath(it.ID)
	}
	f, err := os.Open(ph.Abs(rel))
	if err != nil {
		return nil, fmt.Errorf("open asset %s: %w", rel, err)
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode asset %s: %w", rel, err)
	}
	return img, nil
}

// hashFile returns the sha256 of a file, used when rebuilding the catalog.
func hashFile(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:]), nil
}
