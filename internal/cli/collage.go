/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package cli

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"gocollage/internal/layout"
	"gocollage/internal/session"
	"gocollage/internal/storage"
)

// ErrNoCollage is returned for directories without a manifest.
var ErrNoCollage = errors.New("no collage manifest found")

func requireCollage(dir string) error {
	if _, err := os.Stat(filepath.Join(dir, storage.ManifestFileName)); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%s: %w (run gocollage init first)", dir, ErrNoCollage)
		}
		return err
	}
	return nil
}

func (c *CLI) initCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "init <dir> [name]",
		Short: "Create a new collage folder",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := ""
			if len(args) > 1 {
				name = args[1]
			}
			if err := requireCollage(args[0]); err == nil {
				return fmt.Errorf("%s already holds a collage", args[0])
			}
			s, err := c.open(cmd.Context(), args[0], true, name)
			if err != nil {
				return err
			}
			if err := s.Save(cmd.Context(), "init"); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created collage %q at %s\n", s.Handle.Collage.Name, s.Handle.Root)
			return nil
		},
	}
}

// parsePoint reads "x,y".
func parsePoint(s string) (layout.Pt, error) {
	xs, ys, ok := strings.Cut(s, ",")
	if !ok {
		return layout.Pt{}, fmt.Errorf("point %q: want x,y", s)
	}
	x, err := strconv.ParseFloat(strings.TrimSpace(xs), 64)
	if err != nil {
		return layout.Pt{}, fmt.Errorf("point %q: %w", s, err)
	}
	y, err := strconv.ParseFloat(strings.TrimSpace(ys), 64)
	if err != nil {
		return layout.Pt{}, fmt.Errorf("point %q: %w", s, err)
	}
	return layout.Pt{X: x, Y: y}, nil
}

// displayAt converts an optional logical --at flag into the display point a paste expects.
func displayAt(s *session.Session, at string) (*layout.Pt, error) {
	if at == "" {
		return nil, nil
	}
	p, err := parsePoint(at)
	if err != nil {
		return nil, err
	}
	d := s.Board.ToDisplay(p)
	return &d, nil
}

func (c *CLI) addCommand() *cobra.Command {
	var at string
	cmd := &cobra.Command{
		Use:   "add <dir> <image>...",
		Short: "Paste image files into a collage",
		Long:  "Adds each image like a paste: centred on --at (logical x,y) or the saved view, then nudged clear of the items before it.",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := c.open(ctx, args[0], false, "")
			if err != nil {
				return err
			}
			pos, err := displayAt(s, at)
			if err != nil {
				return err
			}
			for _, path := range args[1:] {
				h, rep, err := s.AddFile(ctx, path, pos)
				if err != nil {
					return fmt.Errorf("add %s: %w", path, err)
				}
				it, _ := s.Board.Engine().Item(h)
				fmt.Fprintf(cmd.OutOrStdout(), "Added %s at (%g,%g)%s\n", filepath.Base(path), it.Pos.X, it.Pos.Y, reportSuffix(rep))
			}
			return s.Save(ctx, "add")
		},
	}
	cmd.Flags().StringVar(&at, "at", "", "logical centre x,y for the new images")
	return cmd
}

func (c *CLI) pasteCommand() *cobra.Command {
	var at string
	cmd := &cobra.Command{
		Use:   "paste <dir>",
		Short: "Paste the clipboard image into a collage",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := c.open(ctx, args[0], false, "")
			if err != nil {
				return err
			}
			pos, err := displayAt(s, at)
			if err != nil {
				return err
			}
			img, origin, err := c.clipboard().ReadImage(ctx)
			if err != nil {
				return fmt.Errorf("read clipboard: %w", err)
			}
			h, rep, err := s.AddImage(ctx, img, origin, pos)
			if err != nil {
				return err
			}
			it, _ := s.Board.Engine().Item(h)
			fmt.Fprintf(cmd.OutOrStdout(), "Pasted %s image at (%g,%g)%s\n", origin, it.Pos.X, it.Pos.Y, reportSuffix(rep))
			return s.Save(ctx, "paste")
		},
	}
	cmd.Flags().StringVar(&at, "at", "", "logical centre x,y for the image")
	return cmd
}

func (c *CLI) moveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "move <dir> <index> <x,y>",
		Short: "Move an item's centre and resolve it against the others",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := c.open(ctx, args[0], false, "")
			if err != nil {
				return err
			}
			idx, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("index %q: %w", args[1], err)
			}
			p, err := parsePoint(args[2])
			if err != nil {
				return err
			}
			eng := s.Board.Engine()
			order := eng.Order()
			if idx < 0 || idx >= len(order) {
				return fmt.Errorf("index %d out of range (collage has %d items)", idx, len(order))
			}
			h := order[idx]
			if err := eng.SetPosition(h, p); err != nil {
				return err
			}
			rep, err := eng.ResolveFocus(h)
			if err != nil {
				return err
			}
			it, _ := eng.Item(h)
			fmt.Fprintf(cmd.OutOrStdout(), "Item %d now at (%g,%g)%s\n", idx, it.Pos.X, it.Pos.Y, reportSuffix(rep))
			return s.Save(ctx, "move")
		},
	}
}

func (c *CLI) resolveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <dir>",
		Short: "Run one resolution pass over every item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := c.open(ctx, args[0], false, "")
			if err != nil {
				return err
			}
			rep := s.Board.Resolve()
			fmt.Fprintf(cmd.OutOrStdout(), "Moved %d item(s)%s\n", len(rep.Moved), reportSuffix(rep))
			if len(rep.Moved) == 0 {
				return nil
			}
			return s.Save(ctx, "resolve")
		},
	}
}

func (c *CLI) boundaryCommand() *cobra.Command {
	return &cobra.Command{
		Use:       "boundary <dir> on|off",
		Short:     "Keep items inside the first quadrant, or let them roam",
		Args:      cobra.ExactArgs(2),
		ValidArgs: []string{"on", "off"},
		RunE: func(cmd *cobra.Command, args []string) error {
			var on bool
			switch strings.ToLower(args[1]) {
			case "on", "true", "1":
				on = true
			case "off", "false", "0":
			default:
				return fmt.Errorf("boundary: want on or off, got %q", args[1])
			}
			ctx := cmd.Context()
			s, err := c.open(ctx, args[0], false, "")
			if err != nil {
				return err
			}
			rep := s.SetBoundary(on)
			fmt.Fprintf(cmd.OutOrStdout(), "Boundary %s, moved %d item(s)%s\n", onOff(on), len(rep.Moved), reportSuffix(rep))
			return s.Save(ctx, "boundary")
		},
	}
}

func (c *CLI) showCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <dir>",
		Short: "Print the items of a collage in resolution order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := c.open(cmd.Context(), args[0], false, "")
			if err != nil {
				return err
			}
			printCollage(cmd.OutOrStdout(), s)
			return nil
		},
	}
}

func printCollage(w io.Writer, s *session.Session) {
	eng := s.Board.Engine()
	col := s.Handle.Collage
	fmt.Fprintf(w, "Collage: %s (%d items, boundary %s)\n", col.Name, eng.Len(), onOff(eng.Options().Boundary))
	for _, p := range s.Board.Placements() {
		it, _ := eng.Item(p.Handle)
		fmt.Fprintf(w, "  #%-3d %s  centre (%g,%g)  size %gx%g\n", p.Index, p.ID, it.Pos.X, it.Pos.Y, it.Size.W, it.Size.H)
	}
	if bb, ok := eng.Bounds(); ok {
		fmt.Fprintf(w, "Bounds: (%g,%g)-(%g,%g)\n", bb.MinX, bb.MinY, bb.MaxX, bb.MaxY)
	}
	if pairs := eng.Overlapping(); len(pairs) > 0 {
		fmt.Fprintf(w, "Overlapping pairs: %d\n", len(pairs))
	}
}

func (c *CLI) historyCommand() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history <dir>",
		Short: "List saved layouts, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := c.open(cmd.Context(), args[0], false, "")
			if err != nil {
				return err
			}
			entries, err := storage.ListHistory(cmd.Context(), s.Handle, limit)
			if err != nil {
				return err
			}
			for _, e := range entries {
				fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\t%s\t%d items\n", e.ID, e.TS.Local().Format("2006-01-02 15:04:05"), e.Reason, e.Items)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum entries to list")
	return cmd
}

func (c *CLI) revertCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "revert <dir> <history-id>",
		Short: "Restore a saved layout from the history",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil {
				return fmt.Errorf("history id %q: %w", args[1], err)
			}
			s, err := c.open(ctx, args[0], false, "")
			if err != nil {
				return err
			}
			if err := s.Revert(ctx, id); err != nil {
				return err
			}
			if err := s.Save(ctx, "revert"); err != nil {
				return err
			}
			c.log.Info("reverted", slog.Int64("history", id))
			fmt.Fprintf(cmd.OutOrStdout(), "Reverted to layout %d (%d items)\n", id, s.Board.Engine().Len())
			return nil
		},
	}
}

func reportSuffix(rep layout.Report) string {
	if rep.OK() {
		return ""
	}
	return fmt.Sprintf(" (%d item(s) still overlap)", len(rep.Unresolved))
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}
