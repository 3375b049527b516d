/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package board

import (
	"fmt"
	"image"
	"log/slog"

	"gocollage/internal/domain"
	"gocollage/internal/layout"
)

// Load builds a board from a manifest. Items keep their stored positions and
// order; images are attached by the loader callback when it is non-nil.
// A saved view overrides the initial scale.
func Load(c domain.Collage, opts Options, loader func(domain.Item) (image.Image, error)) (*Board, error) {
	e, err := c.Engine(opts.Layout)
	if err != nil {
		return nil, fmt.Errorf("load collage %q: %w", c.Name, err)
	}
	b := FromEngine(e, opts)
	if c.View.Scale > 0 {
		b.SetScale(c.View.Scale)
	}
	b.SetPan(layout.Pt{X: c.View.PanX, Y: c.View.PanY})
	if loader == nil {
		return b, nil
	}
	for i, it := range c.Items {
		img, err := loader(it)
		if err != nil {
			b.log.Warn("asset not loaded", slog.String("id", it.ID), slog.String("asset", it.Asset), slog.Any("err", err))
			continue
		}
		b.images[layout.Handle(i)] = img
	}
	return b, nil
}

// SaveTo writes the current layout and view into c.
func (b *Board) SaveTo(c *domain.Collage) {
	c.SyncFrom(b.eng)
	o := b.eng.Options()
	c.Settings.Boundary = o.Boundary
	c.Settings.MaxAttempts = o.MaxAttempts
	c.View = domain.View{Scale: b.scale, PanX: b.pan.X, PanY: b.pan.Y}
}
