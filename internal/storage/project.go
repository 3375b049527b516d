/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"gocollage/internal/domain"
	applog "gocollage/internal/log"
)

const (
	ManifestFileName = "collage.json"
	AssetsDirName    = "assets"
	ExportsDirName   = "exports"
	BackupsDirName   = "backups"

	backupStamp = "20060102-150405.000"
)

var standardSubDirs = []string{AssetsDirName, ExportsDirName, BackupsDirName}

// CollageHandle ties an in-memory collage to its directory.
type CollageHandle struct {
	Root         string
	ManifestPath string
	Collage      domain.Collage
}

// Abs resolves a manifest-relative path (such as an item asset) against Root.
func (ph *CollageHandle) Abs(rel string) string {
	return filepath.Join(ph.Root, filepath.FromSlash(rel))
}

// InitCollage creates root with the standard subfolders and writes the manifest.
func InitCollage(root string, c domain.Collage) (*CollageHandle, error) {
	if strings.TrimSpace(root) == "" {
		return nil, errors.New("root path is required")
	}
	if err := scaffold(root); err != nil {
		return nil, err
	}
	ph := &CollageHandle{Root: root, ManifestPath: filepath.Join(root, ManifestFileName), Collage: c}
	if err := Save(ph); err != nil {
		return nil, err
	}
	return ph, nil
}

func scaffold(root string) error {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return fmt.Errorf("create collage root: %w", err)
	}
	for _, d := range standardSubDirs {
		if err := os.MkdirAll(filepath.Join(root, d), 0o755); err != nil {
			return fmt.Errorf("create subdir %s: %w", d, err)
		}
	}
	return nil
}

// Open loads the collage at root. An unreadable, unparsable or invalid manifest
// is replaced in memory by the newest backup; the file on disk is left alone.
func Open(root string) (*CollageHandle, error) {
	l := applog.WithOperation(applog.WithComponent("storage"), "open").With(slog.String("root", root))
	mpath := filepath.Join(root, ManifestFileName)
	c, err := readManifest(mpath)
	if err != nil {
		bc, berr := openFromLatestBackup(root)
		if berr != nil {
			return nil, fmt.Errorf("open manifest: %w; backup attempt: %v", err, berr)
		}
		l.Warn("manifest unusable, loaded latest backup", slog.Any("err", err))
		c = bc
	}
	return &CollageHandle{Root: root, ManifestPath: mpath, Collage: *c}, nil
}

func readManifest(path string) (*domain.Collage, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := Validate(b); err != nil {
		return nil, err
	}
	var c domain.Collage
	if err := json.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	return &c, nil
}

// Save writes the manifest transactionally after copying the previous one to backups/.
func Save(ph *CollageHandle) error {
	if ph == nil {
		return errors.New("nil CollageHandle")
	}
	if ph.Root == "" || ph.ManifestPath == "" {
		return errors.New("invalid CollageHandle: missing paths")
	}
	if ph.Collage.Items == nil {
		ph.Collage.Items = []domain.Item{}
	}
	if ph.Collage.Version == 0 {
		ph.Collage.Version = domain.FormatVersion
	}
	if ph.Collage.ID == "" {
		ph.Collage.ID = uuid.NewString()
	}
	data, err := json.MarshalIndent(ph.Collage, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}
	data = append(data, '\n')
	if err := Validate(data); err != nil {
		return err
	}

	bdir := filepath.Join(ph.Root, BackupsDirName)
	if err := os.MkdirAll(bdir, 0o755); err != nil {
		return fmt.Errorf("ensure backups dir: %w", err)
	}
	if _, statErr := os.Stat(ph.ManifestPath); statErr == nil {
		bpath := filepath.Join(bdir, fmt.Sprintf("%s.%s.bak", ManifestFileName, time.Now().Format(backupStamp)))
		if cerr := copyFile(ph.ManifestPath, bpath); cerr != nil {
			return fmt.Errorf("backup current manifest: %w", cerr)
		}
	}
	return replaceFile(ph.ManifestPath, data)
}

// SaveAs scaffolds newRoot, copies the assets over and saves the manifest there.
func SaveAs(ph *CollageHandle, newRoot string) error {
	if ph == nil {
		return errors.New("nil CollageHandle")
	}
	if newRoot == "" {
		return errors.New("new root is empty")
	}
	if err := scaffold(newRoot); err != nil {
		return err
	}
	for _, it := range ph.Collage.Items {
		if it.Asset == "" {
			continue
		}
		src := ph.Abs(it.Asset)
		if _, err := os.Stat(src); err != nil {
			continue
		}
		if err := copyFile(src, filepath.Join(newRoot, filepath.FromSlash(it.Asset))); err != nil {
			return fmt.Errorf("copy asset %s: %w", it.Asset, err)
		}
	}
	ph.Root = newRoot
	ph.ManifestPath = filepath.Join(newRoot, ManifestFileName)
	return Save(ph)
}

// PruneBackups keeps the newest keep manifest backups and removes the rest.
func PruneBackups(root string, keep int) (int, error) {
	names, err := backupNames(root)
	if err != nil || len(names) <= keep {
		return 0, err
	}
	removed := 0
	for _, n := range names[:len(names)-keep] {
		if err := os.Remove(n); err != nil {
			return removed, err
		}
		removed++
	}
	return removed, nil
}

// AutosaveCrashSnapshot writes the in-memory manifest next to the backups
// without touching collage.json. It returns the written path.
func AutosaveCrashSnapshot(ph *CollageHandle) (string, error) {
	if ph == nil || ph.Root == "" {
		return "", errors.New("invalid CollageHandle")
	}
	data, err := json.MarshalIndent(ph.Collage, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal crash snapshot: %w", err)
	}
	bdir := filepath.Join(ph.Root, BackupsDirName)
	if err := os.MkdirAll(bdir, 0o755); err != nil {
		return "", fmt.Errorf("ensure backups dir: %w", err)
	}
	path := filepath.Join(bdir, fmt.Sprintf("%s.%s.crash", ManifestFileName, time.Now().Format(backupStamp)))
	if err := writeFileSync(path, append(data, '\n')); err != nil {
		return "", err
	}
	return path, nil
}

// replaceFile writes data next to dst and renames it over dst.
func replaceFile(dst string, data []byte) error {
	temp := filepath.Join(filepath.Dir(dst), fmt.Sprintf(".%s.tmp-%d-%d", filepath.Base(dst), os.Getpid(), rand.Int()))
	if err := writeFileSync(temp, data); err != nil {
		return fmt.Errorf("write temp %s: %w", filepath.Base(dst), err)
	}
	// Windows refuses to rename over an existing file
	if _, err := os.Stat(dst); err == nil {
		_ = os.Remove(dst)
	}
	if err := os.Rename(temp, dst); err != nil {
		_ = os.Remove(temp)
		return fmt.Errorf("replace %s: %w", filepath.Base(dst), err)
	}
	return nil
}

func writeFileSync(path string, data []byte) (err error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	if _, err := f.Write(data); err != nil {
		return err
	}
	return f.Sync()
}

func copyFile(src, dst string) (err error) {
	sf, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := sf.Close(); err == nil {
			err = cerr
		}
	}()
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	df, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := df.Close(); err == nil {
			err = cerr
		}
	}()
	if _, err := io.Copy(df, sf); err != nil {
		return err
	}
	return df.Sync()
}

// backupNames lists manifest backups oldest first; the stamp sorts lexicographically.
func backupNames(root string) ([]string, error) {
	bdir := filepath.Join(root, BackupsDirName)
	ents, err := os.ReadDir(bdir)
	if err != nil {
		return nil, fmt.Errorf("read backups dir: %w", err)
	}
	var out []string
	for _, e := range ents {
		name := e.Name()
		if strings.HasPrefix(name, ManifestFileName+".") && strings.HasSuffix(name, ".bak") {
			out = append(out, filepath.Join(bdir, name))
		}
	}
	sort.Strings(out)
	return out, nil
}

// openFromLatestBackup walks the backups newest first and returns the first valid one.
func openFromLatestBackup(root string) (*domain.Collage, error) {
	names, err := backupNames(root)
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		return nil, errors.New("no backups found")
	}
	var lastErr error
	for i := len(names) - 1; i >= 0; i-- {
		c, err := readManifest(names[i])
		if err == nil {
			return c, nil
		}
		lastErr = err
	}
	return nil, fmt.Errorf("no usable backup: %w", lastErr)
}
