/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

import (
	"encoding/json"
	"testing"

	"gocollage/internal/layout"
)

func TestCollage_EngineAndSyncKeepPriorityOrder(t *testing.T) {
	c := New("Board", false, 0.25)
	c.Items = []Item{
		{ID: "a", Asset: AssetPath("a"), Width: 100, Height: 100, X: 50, Y: 50, Source: "image/png"},
		{ID: "b", Asset: AssetPath("b"), Width: 100, Height: 100, X: 60, Y: 60},
	}
	e, err := c.Engine(layout.Options{})
	if err != nil {
		t.Fatalf("engine: %v", err)
	}
	if e.Options().Boundary {
		t.Fatalf("collage settings must override boundary")
	}
	if err := e.SetOrder([]layout.Handle{1, 0}); err != nil {
		t.Fatal(err)
	}
	e.Resolve()
	c.SyncFrom(e)

	if c.Items[0].ID != "b" || c.Items[1].ID != "a" {
		t.Fatalf("manifest must follow engine order: %+v", c.Items)
	}
	if c.Items[1].X != 50 || c.Items[1].Y != -40 {
		t.Fatalf("a should have moved up to (50,-40): %+v", c.Items[1])
	}
	if c.Items[1].Source != "" || c.Items[0].Asset != "assets/b.png" {
		t.Fatalf("metadata lost on sync: %+v", c.Items)
	}
}

func TestCollage_EngineRejectsNegativeSize(t *testing.T) {
	c := New("Bad", true, 1)
	c.Items = []Item{{ID: "x", Width: -1, Height: 5}}
	if _, err := c.Engine(layout.Options{}); err == nil {
		t.Fatalf("expected error for negative size")
	}
}

func TestCollage_JSONShape(t *testing.T) {
	c := New("Shape", true, 0.25)
	c.Items = []Item{{ID: "a", Asset: "assets/a.png", Width: 10, Height: 20, X: 5, Y: 10}}
	b, err := json.Marshal(c)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if m["version"].(float64) != FormatVersion {
		t.Fatalf("version missing: %v", m["version"])
	}
	items := m["items"].([]any)
	first := items[0].(map[string]any)
	if first["asset"] != "assets/a.png" || first["width"].(float64) != 10 {
		t.Fatalf("unexpected item encoding: %v", first)
	}
	if _, ok := first["source"]; ok {
		t.Fatalf("empty source must be omitted")
	}
	if i, ok := c.Find("a"); !ok || i != 0 {
		t.Fatalf("Find(a) = %d,%v", i, ok)
	}
}
