/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package undo

import (
	"sync"
	"time"

	"gocollage/internal/layout"
)

// Entry is the layout as it was before a labelled change.
type Entry struct {
	Label string
	State layout.State
	TS    time.Time
}

// Config controls depth and coalescing.
type Config struct {
	// MaxDepth caps the undo stack; the oldest entries are dropped first.
	MaxDepth int
	// MinInterval merges changes with the same label recorded within the
	// interval, so a burst of zoom ticks undoes as one step.
	MinInterval time.Duration
}

// Manager is an undo/redo stack of layout states. It is safe for concurrent use.
type Manager struct {
	cfg  Config
	mu   sync.Mutex
	undo []Entry
	redo []Entry
	now  func() time.Time
}

func NewManager(cfg Config) *Manager {
	if cfg.MaxDepth <= 0 {
		cfg.MaxDepth = 100
	}
	if cfg.MinInterval < 0 {
		cfg.MinInterval = 0
	}
	return &Manager{cfg: cfg, now: time.Now}
}

// Record pushes the state captured before a change and clears redo.
func (m *Manager) Record(label string, before layout.State) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ts := m.now()
	m.redo = nil
	if n := len(m.undo); n > 0 {
		last := &m.undo[n-1]
		if last.Label == label && ts.Sub(last.TS) < m.cfg.MinInterval {
			// keep the older state, extend the window
			last.TS = ts
			return
		}
	}
	m.undo = append(m.undo, Entry{Label: label, State: before, TS: ts})
	if over := len(m.undo) - m.cfg.MaxDepth; over > 0 {
		m.undo = append([]Entry(nil), m.undo[over:]...)
	}
}

// Undo returns the state to restore and remembers current for Redo.
func (m *Manager) Undo(current layout.State) (Entry, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := len(m.undo)
	if n == 0 {
		return Entry{}, false
	}
	e := m.undo[n-1]
	m.undo = m.undo[:n-1]
	m.redo = append(m.redo, Entry{Label: e.Label, State: current, TS: m.now()})
	return e, true
}

// Redo reapplies the last undone change and remembers current for Undo.
func (m *Manager) Redo(current layout.State) (Entry, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := len(m.redo)
	if n == 0 {
		return Entry{}, false
	}
	e := m.redo[n-1]
	m.redo = m.redo[:n-1]
	// a redo must never coalesce with the entry it restores
	m.undo = append(m.undo, Entry{Label: e.Label, State: current, TS: time.Time{}})
	return e, true
}

func (m *Manager) CanUndo() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.undo) > 0
}

func (m *Manager) CanRedo() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.redo) > 0
}

// Clear drops both stacks.
func (m *Manager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.undo, m.redo = nil, nil
}

// Stats returns the stack depths for diagnostics.
func (m *Manager) Stats() (undo, redo int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.undo), len(m.redo)
}
