/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package undo

import (
	"testing"
	"time"

	"gocollage/internal/layout"
)

func stateAt(x float64) layout.State {
	return layout.State{
		Items: []layout.Item{{ID: "a", Size: layout.Size{W: 10, H: 10}, Pos: layout.Pt{X: x, Y: 5}}},
		Order: []layout.Handle{0},
	}
}

// clock returns a manager whose time only moves when the test advances it.
func clock(cfg Config) (*Manager, func(time.Duration)) {
	m := NewManager(cfg)
	t0 := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return t0 }
	return m, func(d time.Duration) { t0 = t0.Add(d) }
}

func TestUndoRedoBasic(t *testing.T) {
	m, tick := clock(Config{MinInterval: 10 * time.Millisecond})
	m.Record("paste", stateAt(1))
	tick(time.Second)
	m.Record("drag", stateAt(2))
	if u, r := m.Stats(); u != 2 || r != 0 {
		t.Fatalf("stats = %d,%d", u, r)
	}
	e, ok := m.Undo(stateAt(3))
	if !ok || e.Label != "drag" || e.State.Items[0].Pos.X != 2 {
		t.Fatalf("undo returned %+v ok=%v", e, ok)
	}
	e, ok = m.Redo(stateAt(2))
	if !ok || e.State.Items[0].Pos.X != 3 {
		t.Fatalf("redo must return the state before undo, got %+v", e)
	}
	if !m.CanUndo() || m.CanRedo() {
		t.Fatalf("after redo: CanUndo=%v CanRedo=%v", m.CanUndo(), m.CanRedo())
	}
}

func TestRecordClearsRedo(t *testing.T) {
	m, tick := clock(Config{})
	m.Record("paste", stateAt(1))
	m.Undo(stateAt(2))
	tick(time.Second)
	m.Record("drag", stateAt(1))
	if m.CanRedo() {
		t.Fatalf("new change must clear redo")
	}
}

func TestCoalesceKeepsOldestState(t *testing.T) {
	m, tick := clock(Config{MinInterval: 50 * time.Millisecond})
	m.Record("zoom", stateAt(1))
	tick(10 * time.Millisecond)
	m.Record("zoom", stateAt(2))
	tick(10 * time.Millisecond)
	m.Record("zoom", stateAt(3))
	if u, _ := m.Stats(); u != 1 {
		t.Fatalf("expected one coalesced entry, got %d", u)
	}
	e, _ := m.Undo(stateAt(4))
	if e.State.Items[0].Pos.X != 1 {
		t.Fatalf("coalesced entry must keep the first state, got %v", e.State.Items[0].Pos.X)
	}

	tick(time.Second)
	m.Record("zoom", stateAt(5))
	tick(10 * time.Millisecond)
	m.Record("drag", stateAt(6))
	if u, _ := m.Stats(); u != 2 {
		t.Fatalf("different labels must not coalesce, got %d", u)
	}
}

func TestMaxDepth(t *testing.T) {
	m, tick := clock(Config{MaxDepth: 2})
	for i := 0; i < 10; i++ {
		tick(time.Second)
		m.Record("paste", stateAt(float64(i)))
	}
	if u, _ := m.Stats(); u != 2 {
		t.Fatalf("expected depth 2, got %d", u)
	}
	e, _ := m.Undo(stateAt(99))
	if e.State.Items[0].Pos.X != 9 {
		t.Fatalf("newest entry must survive, got %v", e.State.Items[0].Pos.X)
	}
	m.Clear()
	if m.CanUndo() || m.CanRedo() {
		t.Fatalf("Clear must empty both stacks")
	}
}
