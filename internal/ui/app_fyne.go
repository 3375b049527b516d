//go:build fyne && cgo

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package ui

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"gocollage/internal/clipboard"
	"gocollage/internal/crash"
	"gocollage/internal/export"
	"gocollage/internal/layout"
	applog "gocollage/internal/log"
	"gocollage/internal/session"
	"gocollage/internal/storage"
	"gocollage/internal/version"
)

const clipboardTimeout = 10 * time.Second

// shell holds the window state shared by menu actions and shortcuts.
// All fields are touched on the Fyne thread only.
type shell struct {
	w      fyne.Window
	prefs  fyne.Preferences
	cc     *CollageCanvas
	status *widget.Label
	bound  *widget.Check
	clip   clipboard.Source
	opts   Options
	sess   *session.Session
	log    *slog.Logger
}

// Run starts the Fyne desktop shell and blocks until the window closes.
func Run(opts Options) error {
	l := applog.WithComponent("ui")
	l.Info("starting UI", slog.String("version", version.String()))

	s := &shell{opts: opts, log: l, clip: opts.Clipboard}
	defer crash.RecoverWith(func() *storage.CollageHandle {
		if s.sess == nil {
			return nil
		}
		return s.sess.Sync()
	})
	if s.clip == nil {
		s.clip = clipboard.NewXClip()
	}

	fyneApp := app.NewWithID("gocollage")
	s.w = fyneApp.NewWindow("GoCollage")
	s.prefs = fyneApp.Preferences()
	winW := max(s.prefs.IntWithFallback("window.width", 1200), 800)
	winH := max(s.prefs.IntWithFallback("window.height", 800), 600)
	s.w.Resize(fyne.NewSize(float32(winW), float32(winH)))

	s.status = widget.NewLabel("Open a collage folder to start (Ctrl+O).")
	s.cc = NewCollageCanvas()
	s.cc.SetMarkers(opts.Markers || s.prefs.BoolWithFallback("overlay.markers", false))
	s.cc.OnChange = func(op string, rep layout.Report) {
		if s.sess != nil {
			s.sess.MarkDirty()
		}
		s.report(op, rep)
	}
	s.bound = widget.NewCheck("Boundary", func(on bool) {
		if s.sess == nil || s.sess.Board.Engine().Options().Boundary == on {
			return
		}
		s.report("boundary", s.sess.SetBoundary(on))
		s.cc.Refresh()
	})

	toolbar := widget.NewToolbar(
		widget.NewToolbarAction(theme.FolderOpenIcon(), s.openDialog),
		widget.NewToolbarAction(theme.DocumentSaveIcon(), s.save),
		widget.NewToolbarSeparator(),
		widget.NewToolbarAction(theme.ContentPasteIcon(), s.paste),
		widget.NewToolbarAction(theme.ContentCopyIcon(), s.copyComposite),
		widget.NewToolbarSeparator(),
		widget.NewToolbarAction(theme.ContentUndoIcon(), s.undo),
		widget.NewToolbarAction(theme.ContentRedoIcon(), s.redo),
		widget.NewToolbarSeparator(),
		widget.NewToolbarAction(theme.ZoomInIcon(), func() { s.zoom(1) }),
		widget.NewToolbarAction(theme.ZoomOutIcon(), func() { s.zoom(-1) }),
		widget.NewToolbarAction(theme.ViewRefreshIcon(), s.resolve),
	)
	top := container.NewBorder(nil, nil, nil, s.bound, toolbar)
	s.w.SetContent(container.NewBorder(top, s.status, nil, nil, s.cc))
	s.w.SetMainMenu(s.menu())
	s.shortcuts()

	s.w.SetCloseIntercept(func() {
		sz := s.w.Canvas().Size()
		s.prefs.SetInt("window.width", int(sz.Width))
		s.prefs.SetInt("window.height", int(sz.Height))
		s.prefs.SetBool("overlay.markers", s.cc.markers)
		if s.sess == nil || !s.sess.Dirty() {
			s.w.Close()
			return
		}
		dialog.ShowConfirm("Unsaved changes", "Save the collage before closing?", func(ok bool) {
			if ok {
				s.save()
			}
			s.w.Close()
		}, s.w)
	})

	if opts.Dir != "" {
		if err := s.open(opts.Dir); err != nil {
			l.Error("auto-open collage failed", slog.Any("err", err))
			s.status.SetText(fmt.Sprintf("Open failed: %v", err))
		}
	}

	s.w.ShowAndRun()
	return nil
}

func (s *shell) menu() *fyne.MainMenu {
	openItem := fyne.NewMenuItem("Open Collage…", s.openDialog)
	openItem.Shortcut = &desktop.CustomShortcut{KeyName: fyne.KeyO, Modifier: fyne.KeyModifierControl}
	saveItem := fyne.NewMenuItem("Save", s.save)
	saveItem.Shortcut = &desktop.CustomShortcut{KeyName: fyne.KeyS, Modifier: fyne.KeyModifierControl}
	historyItem := fyne.NewMenuItem("Revert to Saved Layout…", s.historyDialog)
	fileMenu := fyne.NewMenu("File", openItem, saveItem, fyne.NewMenuItemSeparator(), historyItem)

	editMenu := fyne.NewMenu("Edit",
		fyne.NewMenuItem("Paste Image", s.paste),
		fyne.NewMenuItem("Copy Collage", s.copyComposite),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Undo", s.undo),
		fyne.NewMenuItem("Redo", s.redo),
	)

	markersItem := fyne.NewMenuItem("Order Markers", nil)
	markersItem.Checked = s.cc.markers
	markersItem.Action = func() {
		s.cc.SetMarkers(!s.cc.markers)
		markersItem.Checked = s.cc.markers
	}
	viewMenu := fyne.NewMenu("View",
		fyne.NewMenuItem("Zoom In", func() { s.zoom(1) }),
		fyne.NewMenuItem("Zoom Out", func() { s.zoom(-1) }),
		fyne.NewMenuItem("Resolve Overlaps", s.resolve),
		fyne.NewMenuItem("Toggle Boundary", s.toggleBoundary),
		markersItem,
	)

	exportMenu := fyne.NewMenu("Export",
		fyne.NewMenuItem("PNG", func() { s.export("png") }),
		fyne.NewMenuItem("PDF", func() { s.export("pdf") }),
		fyne.NewMenuItem("SVG", func() { s.export("svg") }),
		fyne.NewMenuItem("Bundle (zip)", func() { s.export("zip") }),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Web Preset", func() { s.batch(export.PresetWeb) }),
		fyne.NewMenuItem("Print Preset", func() { s.batch(export.PresetPrint) }),
	)

	aboutItem := fyne.NewMenuItem("About", func() {
		dialog.ShowInformation("About", "GoCollage "+version.String(), s.w)
	})
	recent := loadRecentCollages(s.prefs)
	var recentItems []*fyne.MenuItem
	for _, dir := range recent {
		dir := dir
		recentItems = append(recentItems, fyne.NewMenuItem(dir, func() { s.openOrReport(dir) }))
	}
	if len(recentItems) > 0 {
		fileMenu.Items = append(fileMenu.Items, fyne.NewMenuItemSeparator())
		fileMenu.Items = append(fileMenu.Items, recentItems...)
	}
	return fyne.NewMainMenu(fileMenu, editMenu, viewMenu, exportMenu, fyne.NewMenu("Help", aboutItem))
}

func (s *shell) shortcuts() {
	c := s.w.Canvas()
	c.AddShortcut(&fyne.ShortcutPaste{}, func(fyne.Shortcut) { s.paste() })
	c.AddShortcut(&fyne.ShortcutCopy{}, func(fyne.Shortcut) { s.copyComposite() })
	c.AddShortcut(&fyne.ShortcutUndo{}, func(fyne.Shortcut) { s.undo() })
	c.AddShortcut(&fyne.ShortcutRedo{}, func(fyne.Shortcut) { s.redo() })
	c.AddShortcut(&desktop.CustomShortcut{KeyName: fyne.KeyZ, Modifier: fyne.KeyModifierControl | fyne.KeyModifierShift}, func(fyne.Shortcut) { s.redo() })
	c.AddShortcut(&desktop.CustomShortcut{KeyName: fyne.KeyS, Modifier: fyne.KeyModifierControl}, func(fyne.Shortcut) { s.save() })
	c.AddShortcut(&desktop.CustomShortcut{KeyName: fyne.KeyO, Modifier: fyne.KeyModifierControl}, func(fyne.Shortcut) { s.openDialog() })
	c.SetOnTypedKey(func(ev *fyne.KeyEvent) {
		switch ev.Name {
		case fyne.KeySpace:
			s.copyComposite()
		case fyne.KeyB:
			s.toggleBoundary()
		case fyne.KeyR:
			s.resolve()
		case fyne.KeyEscape:
			s.cc.CancelDrag()
		}
	})
}

func (s *shell) openDialog() {
	fd := dialog.NewFolderOpen(func(uri fyne.ListableURI, err error) {
		if err != nil {
			dialog.ShowError(err, s.w)
			return
		}
		if uri == nil {
			return
		}
		s.openOrReport(uri.Path())
	}, s.w)
	fd.Show()
}

func (s *shell) openOrReport(dir string) {
	if err := s.open(dir); err != nil {
		s.log.Error("open collage failed", slog.Any("err", err))
		dialog.ShowError(err, s.w)
	}
}

func (s *shell) open(dir string) error {
	abs, _ := filepath.Abs(dir)
	s.log.Info("open collage", slog.String("root", abs))
	sess, err := session.Open(context.Background(), abs, "", s.opts.Session)
	if err != nil {
		return err
	}
	s.sess = sess
	s.cc.SetBoard(sess.Board)
	s.bound.SetChecked(sess.Board.Engine().Options().Boundary)
	s.w.SetTitle(fmt.Sprintf("GoCollage - %s", sess.Handle.Collage.Name))
	s.status.SetText(fmt.Sprintf("Opened %s (%d items)", abs, sess.Board.Engine().Len()))
	addRecentCollage(s.prefs, abs)
	return nil
}

func (s *shell) requireSession() bool {
	if s.sess == nil {
		s.status.SetText("No collage open.")
		return false
	}
	return true
}

func (s *shell) save() {
	if !s.requireSession() {
		return
	}
	if err := s.sess.Save(context.Background(), "save"); err != nil {
		s.log.Error("save failed", slog.Any("err", err))
		dialog.ShowError(err, s.w)
		return
	}
	s.status.SetText("Saved.")
}

// paste reads the clipboard off the UI thread and places the image at the
// pointer, or the viewport centre when the pointer is outside the canvas.
func (s *shell) paste() {
	if !s.requireSession() {
		return
	}
	at := s.cc.Pointer()
	s.status.SetText("Reading clipboard…")
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), clipboardTimeout)
		defer cancel()
		img, origin, err := s.clip.ReadImage(ctx)
		fyne.Do(func() {
			if err != nil {
				s.log.Warn("paste failed", slog.Any("err", err))
				s.status.SetText(fmt.Sprintf("Paste failed: %v", err))
				return
			}
			if s.sess == nil {
				return
			}
			_, rep, aerr := s.sess.AddImage(context.Background(), img, origin, at)
			if aerr != nil {
				dialog.ShowError(aerr, s.w)
				return
			}
			s.report("paste", rep)
			s.cc.Refresh()
		})
	}()
}

func (s *shell) copyComposite() {
	if !s.requireSession() {
		return
	}
	pieces := export.PiecesFromBoard(s.sess.Board)
	opt := export.PNGOptions{Markers: s.cc.markers}
	s.status.SetText("Copying collage…")
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), clipboardTimeout)
		defer cancel()
		err := export.CopyToClipboard(ctx, s.clip, pieces, opt)
		fyne.Do(func() {
			if err != nil {
				s.log.Warn("copy failed", slog.Any("err", err))
				s.status.SetText(fmt.Sprintf("Copy failed: %v", err))
				return
			}
			s.status.SetText(fmt.Sprintf("Copied %d item(s) to the clipboard.", len(pieces)))
		})
	}()
}

func (s *shell) undo() {
	if s.requireSession() && s.sess.Board.Undo() {
		s.sess.MarkDirty()
		s.status.SetText("Undone.")
		s.cc.Refresh()
	}
}

func (s *shell) redo() {
	if s.requireSession() && s.sess.Board.Redo() {
		s.sess.MarkDirty()
		s.status.SetText("Redone.")
		s.cc.Refresh()
	}
}

func (s *shell) zoom(ticks float64) {
	if !s.requireSession() {
		return
	}
	rep := s.sess.Board.Zoom(ticks)
	s.sess.MarkDirty()
	s.report("zoom", rep)
	s.cc.Refresh()
}

func (s *shell) resolve() {
	if !s.requireSession() {
		return
	}
	rep := s.sess.Board.Resolve()
	s.sess.MarkDirty()
	s.report("resolve", rep)
	s.cc.Refresh()
}

func (s *shell) toggleBoundary() {
	if !s.requireSession() {
		return
	}
	s.bound.SetChecked(!s.bound.Checked)
}

func (s *shell) export(format string) {
	if !s.requireSession() {
		return
	}
	ph := s.sess.Sync()
	var out string
	var err error
	switch format {
	case "png":
		out, err = export.ExportPNG(ph, "", export.PNGOptions{Markers: s.cc.markers})
	case "pdf":
		out, err = export.ExportPDF(ph, "", export.PDFOptions{Markers: s.cc.markers, Title: ph.Collage.Name})
	case "svg":
		out, err = export.ExportSVG(ph, "", export.SVGOptions{Markers: s.cc.markers})
	case "zip":
		out, err = export.ExportBundle(ph, "")
	}
	if err != nil {
		s.log.Error("export failed", slog.String("format", format), slog.Any("err", err))
		dialog.ShowError(err, s.w)
		return
	}
	s.status.SetText("Exported " + out)
}

func (s *shell) batch(p export.PresetName) {
	if !s.requireSession() {
		return
	}
	files, err := export.BatchExport(s.sess.Sync(), export.BatchOptions{Preset: p, Markers: s.cc.markers})
	if err != nil {
		s.log.Error("preset export failed", slog.String("preset", string(p)), slog.Any("err", err))
		dialog.ShowError(err, s.w)
		return
	}
	s.status.SetText(fmt.Sprintf("Exported %d file(s) with preset %s.", len(files), p))
}

func (s *shell) historyDialog() {
	if !s.requireSession() {
		return
	}
	entries, err := storage.ListHistory(context.Background(), s.sess.Handle, 50)
	if err != nil {
		dialog.ShowError(err, s.w)
		return
	}
	if len(entries) == 0 {
		dialog.ShowInformation("History", "No saved layouts yet.", s.w)
		return
	}
	list := widget.NewList(
		func() int { return len(entries) },
		func() fyne.CanvasObject { return widget.NewLabel("") },
		func(i widget.ListItemID, o fyne.CanvasObject) {
			e := entries[i]
			o.(*widget.Label).SetText(fmt.Sprintf("%s  %s  (%d items)", e.TS.Local().Format("2006-01-02 15:04:05"), e.Reason, e.Items))
		},
	)
	var d dialog.Dialog
	list.OnSelected = func(i widget.ListItemID) {
		if err := s.sess.Revert(context.Background(), entries[i].ID); err != nil {
			dialog.ShowError(err, s.w)
			return
		}
		s.cc.SetBoard(s.sess.Board)
		s.bound.SetChecked(s.sess.Board.Engine().Options().Boundary)
		s.status.SetText("Reverted to layout from " + entries[i].TS.Local().Format(time.Kitchen))
		d.Hide()
	}
	d = dialog.NewCustom("Revert to Saved Layout", "Cancel", container.NewGridWrap(fyne.NewSize(480, 320), list), s.w)
	d.Show()
}

func (s *shell) report(op string, rep layout.Report) {
	s.status.SetText(statusFor(op, rep))
}

// Recent collage persistence
const recentPrefsKey = "recent.collages"
const recentMax = 10

func loadRecentCollages(p fyne.Preferences) []string {
	raw := p.StringWithFallback(recentPrefsKey, "")
	var items []string
	if strings.TrimSpace(raw) != "" {
		_ = json.Unmarshal([]byte(raw), &items)
	}
	out := make([]string, 0, len(items))
	for _, dir := range items {
		if _, err := os.Stat(filepath.Join(dir, storage.ManifestFileName)); err == nil {
			out = append(out, dir)
		}
	}
	return out
}

func addRecentCollage(p fyne.Preferences, dir string) {
	out := []string{dir}
	for _, d := range loadRecentCollages(p) {
		if !strings.EqualFold(d, dir) {
			out = append(out, d)
		}
	}
	if len(out) > recentMax {
		out = out[:recentMax]
	}
	b, _ := json.Marshal(out)
	p.SetString(recentPrefsKey, string(b))
}
