/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package ui

import (
	"fmt"

	"gocollage/internal/clipboard"
	"gocollage/internal/layout"
	"gocollage/internal/session"
)

// Options configures the desktop shell.
type Options struct {
	Dir       string // collage directory to open at start, optional
	Session   session.Options
	Markers   bool             // draw order markers over the items
	Clipboard clipboard.Source // nil selects xclip
}

// statusFor renders a layout report for the status bar.
func statusFor(op string, rep layout.Report) string {
	switch {
	case !rep.OK():
		return fmt.Sprintf("%s: %d item(s) still overlap after %d attempts", op, len(rep.Unresolved), rep.Attempts)
	case len(rep.Moved) == 0:
		return op + ": no overlaps"
	case len(rep.Moved) == 1:
		return op + ": moved 1 item"
	default:
		return fmt.Sprintf("%s: moved %d items", op, len(rep.Moved))
	}
}
