/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"gocollage/internal/export"
)

func (c *CLI) exportCommand() *cobra.Command {
	var (
		formats string
		preset  string
		out     string
		scale   float64
		markers bool
	)
	cmd := &cobra.Command{
		Use:   "export <dir>",
		Short: "Export a collage as png, pdf, svg or a zip bundle",
		Long: `Export writes the collage cropped to the bounding box of its items.
Relative output paths land under <dir>/exports. A preset (web or print) picks
formats and scale and writes to exports/<preset>/<format>/.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := c.open(cmd.Context(), args[0], false, "")
			if err != nil {
				return err
			}
			ph := s.Handle
			markers = markers || c.Config.Export.Markers
			if !cmd.Flags().Changed("scale") {
				scale = c.Config.Export.Scale
			}

			fmts := splitList(formats)
			if len(fmts) == 0 && preset == "" {
				fmts = c.Config.Export.Formats
			}
			if preset != "" {
				files, err := export.BatchExport(ph, export.BatchOptions{
					Preset:  export.PresetName(strings.ToLower(preset)),
					Formats: fmts,
					Scale:   scale,
					Markers: markers,
				})
				if err != nil {
					return err
				}
				for _, f := range files {
					fmt.Fprintln(cmd.OutOrStdout(), "Exported", f)
				}
				return nil
			}
			if out != "" && len(fmts) > 1 {
				return fmt.Errorf("--output needs a single --format, got %d", len(fmts))
			}
			for _, f := range fmts {
				var path string
				switch f {
				case "png":
					path, err = export.ExportPNG(ph, out, export.PNGOptions{Scale: scale, Markers: markers})
				case "pdf":
					path, err = export.ExportPDF(ph, out, export.PDFOptions{Markers: markers, Title: ph.Collage.Name})
				case "svg":
					path, err = export.ExportSVG(ph, out, export.SVGOptions{Markers: markers})
				case "zip", "bundle":
					path, err = export.ExportBundle(ph, out)
				default:
					return fmt.Errorf("unknown format %q (want png, pdf, svg or zip)", f)
				}
				if err != nil {
					return fmt.Errorf("export %s: %w", f, err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Exported", path)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&formats, "format", "f", "", "comma separated formats: png, pdf, svg, zip (default from config)")
	cmd.Flags().StringVar(&preset, "preset", "", "export preset: web or print")
	cmd.Flags().StringVarP(&out, "output", "o", "", "output file for a single format")
	cmd.Flags().Float64Var(&scale, "scale", 1, "PNG pixels per logical unit")
	cmd.Flags().BoolVar(&markers, "markers", false, "draw the order index of each item")
	return cmd
}

func (c *CLI) copyCommand() *cobra.Command {
	var markers bool
	cmd := &cobra.Command{
		Use:   "copy <dir>",
		Short: "Copy the composited collage to the clipboard as PNG",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := c.open(cmd.Context(), args[0], false, "")
			if err != nil {
				return err
			}
			pieces, err := export.Pieces(s.Handle)
			if err != nil {
				return err
			}
			opt := export.PNGOptions{Scale: c.Config.Export.Scale, Markers: markers || c.Config.Export.Markers}
			if err := export.CopyToClipboard(cmd.Context(), c.clipboard(), pieces, opt); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Copied %d item(s) to the clipboard\n", len(pieces))
			return nil
		},
	}
	cmd.Flags().BoolVar(&markers, "markers", false, "draw the order index of each item")
	return cmd
}

func splitList(s string) []string {
	var out []string
	for _, f := range strings.Split(s, ",") {
		if f = strings.ToLower(strings.TrimSpace(f)); f != "" {
			out = append(out, f)
		}
	}
	return out
}
