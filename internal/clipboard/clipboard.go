/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package clipboard reads pasted images from the system clipboard and writes
// composites back to it.
package clipboard

import (
	"context"
	"errors"
	"image"
)

var (
	// ErrNoImage is returned when the clipboard holds nothing decodable.
	ErrNoImage = errors.New("clipboard: no image")
	// ErrNoXClip is returned when the xclip binary is not installed.
	ErrNoXClip = errors.New("clipboard: xclip is required for image paste on Linux (apt install xclip)")
)

// Origin names where a pasted image came from; it is stored as the item source.
const (
	OriginPNG     = "image/png"
	OriginDataURI = "text/html;data"
	OriginURL     = "url"
	OriginFile    = "file"
)

// Source is a clipboard backend.
type Source interface {
	// ReadImage returns the clipboard image and its origin, or ErrNoImage.
	ReadImage(ctx context.Context) (image.Image, string, error)
	// WriteImage places PNG bytes on the clipboard.
	WriteImage(ctx context.Context, png []byte) error
}
