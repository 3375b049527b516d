/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

// The collage manifest is the human-readable JSON written to collage.json.
// Items are listed in resolution priority order; the first item is the
// anchor everything else yields to.

import (
	"fmt"
	"time"

	"gocollage/internal/layout"
)

// FormatVersion is the manifest version written by this build.
const FormatVersion = 1

// Collage is the persisted state of one board.
type Collage struct {
	Version   int       `json:"version"`
	ID        string    `json:"id,omitempty"` // stable identity, assigned on first save
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	Settings  Settings  `json:"settings"`
	View      View      `json:"view"`
	Items     []Item    `json:"items"`
}

// Settings are per-collage overrides of the layout configuration.
type Settings struct {
	Boundary    bool `json:"boundary"`
	MaxAttempts int  `json:"maxAttempts,omitempty"`
}

// View is the last viewport: display = logical*Scale - Pan.
type View struct {
	Scale float64 `json:"scale"`
	PanX  float64 `json:"panX"`
	PanY  float64 `json:"panY"`
}

// Item is one pasted image. X/Y is the logical centre; Width/Height are pixels.
type Item struct {
	ID     string  `json:"id"`
	Asset  string  `json:"asset"` // path relative to the collage root
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Source string  `json:"source,omitempty"` // image/png, text/html, file, url
}

// New returns an empty collage with the given name and defaults.
func New(name string, boundary bool, scale float64) Collage {
	now := time.Now().UTC()
	return Collage{
		Version:   FormatVersion,
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
		Settings:  Settings{Boundary: boundary},
		View:      View{Scale: scale},
	}
}

// Find returns the index of the item with the given id.
func (c *Collage) Find(id string) (int, bool) {
	for i := range c.Items {
		if c.Items[i].ID == id {
			return i, true
		}
	}
	return -1, false
}

// EngineOptions applies the collage settings on top of base.
func (c *Collage) EngineOptions(base layout.Options) layout.Options {
	base.Boundary = c.Settings.Boundary
	if c.Settings.MaxAttempts > 0 {
		base.MaxAttempts = c.Settings.MaxAttempts
	}
	return base
}

// Engine loads the items into a fresh engine. Handles equal manifest indices
// and the order is the manifest order. No pass runs.
func (c *Collage) Engine(opts layout.Options) (*layout.Engine, error) {
	e := layout.New(c.EngineOptions(opts))
	for i, it := range c.Items {
		if it.Width < 0 || it.Height < 0 {
			return nil, fmt.Errorf("item %d (%s): negative size %vx%v", i, it.ID, it.Width, it.Height)
		}
		e.Add(layout.Item{ID: it.ID, Size: layout.Size{W: it.Width, H: it.Height}, Pos: layout.Pt{X: it.X, Y: it.Y}})
	}
	return e, nil
}

// SyncFrom copies positions and order back from an engine. Items are matched
// by ID; engine items without a manifest entry get a default asset path.
func (c *Collage) SyncFrom(e *layout.Engine) {
	byID := make(map[string]Item, len(c.Items))
	for _, it := range c.Items {
		byID[it.ID] = it
	}
	out := make([]Item, 0, e.Len())
	for _, li := range e.Items() {
		it, ok := byID[li.ID]
		if !ok {
			it = Item{ID: li.ID, Asset: AssetPath(li.ID)}
		}
		it.Width, it.Height = li.Size.W, li.Size.H
		it.X, it.Y = li.Pos.X, li.Pos.Y
		out = append(out, it)
	}
	c.Items = out
	c.UpdatedAt = time.Now().UTC()
}

// AssetPath is the conventional location of an item's image inside the collage root.
func AssetPath(id string) string { return "assets/" + id + ".png" }
