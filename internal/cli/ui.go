/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package cli

import (
	"github.com/spf13/cobra"

	"gocollage/internal/ui"
)

func (c *CLI) uiCommand() *cobra.Command {
	var markers bool
	cmd := &cobra.Command{
		Use:   "ui [dir]",
		Short: "Launch the desktop board (build with -tags fyne)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := ui.Options{
				Session:   c.sessionOptions(),
				Markers:   markers || c.Config.Export.Markers,
				Clipboard: c.Clipboard,
			}
			if len(args) == 1 {
				opts.Dir = args[0]
			}
			return ui.Run(opts)
		},
	}
	cmd.Flags().BoolVar(&markers, "markers", false, "show order markers")
	return cmd
}
