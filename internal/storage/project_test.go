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
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gocollage/internal/domain"
)

func sampleCollage(name string) domain.Collage {
	c := domain.New(name, true, 0.25)
	c.Items = []domain.Item{
		{ID: "a", Asset: domain.AssetPath("a"), Width: 100, Height: 100, X: 50, Y: 50, Source: "image/png"},
		{ID: "b", Asset: domain.AssetPath("b"), Width: 100, Height: 100, X: 60, Y: 150},
	}
	return c
}

func TestInitCollageCreatesStructureAndManifest(t *testing.T) {
	root := t.TempDir()
	ph, err := InitCollage(root, sampleCollage("Test Collage"))
	if err != nil {
		t.Fatalf("InitCollage error: %v", err)
	}
	b, err := os.ReadFile(ph.ManifestPath)
	if err != nil {
		t.Fatalf("read manifest: %v", err)
	}
	var got domain.Collage
	if err := json.Unmarshal(b, &got); err != nil {
		t.Fatalf("unmarshal manifest: %v", err)
	}
	if got.Name != "Test Collage" || len(got.Items) != 2 || got.Items[1].Y != 150 {
		t.Fatalf("manifest mismatch: %+v", got)
	}
	for _, d := range []string{AssetsDirName, ExportsDirName, BackupsDirName} {
		if fi, err := os.Stat(filepath.Join(root, d)); err != nil || !fi.IsDir() {
			t.Fatalf("expected directory %s to exist", d)
		}
	}
}

func TestInitCollage_EmptyItemsStillValid(t *testing.T) {
	root := t.TempDir()
	ph, err := InitCollage(root, domain.New("Empty", true, 0.25))
	if err != nil {
		t.Fatalf("InitCollage error: %v", err)
	}
	b, _ := os.ReadFile(ph.ManifestPath)
	if !strings.Contains(string(b), `"items": []`) {
		t.Fatalf("nil items must be written as an empty array: %s", b)
	}
	if _, err := Open(root); err != nil {
		t.Fatalf("Open: %v", err)
	}
}

func TestSaveCreatesTimestampedBackup(t *testing.T) {
	root := t.TempDir()
	ph, err := InitCollage(root, sampleCollage("Backup"))
	if err != nil {
		t.Fatalf("InitCollage error: %v", err)
	}
	ph.Collage.Items[0].X = 75
	if err := Save(ph); err != nil {
		t.Fatalf("Save error: %v", err)
	}
	names, err := backupNames(root)
	if err != nil {
		t.Fatalf("backupNames: %v", err)
	}
	if len(names) == 0 {
		t.Fatalf("expected at least one backup file")
	}
}

func TestOpenFallsBackToLatestBackupOnCorruption(t *testing.T) {
	root := t.TempDir()
	ph, err := InitCollage(root, sampleCollage("Fallback"))
	if err != nil {
		t.Fatalf("InitCollage error: %v", err)
	}
	if err := Save(ph); err != nil {
		t.Fatalf("Save error: %v", err)
	}
	if err := os.WriteFile(ph.ManifestPath, []byte("{ this is not json"), 0o644); err != nil {
		t.Fatalf("corrupt manifest: %v", err)
	}
	got, err := Open(root)
	if err != nil {
		t.Fatalf("Open should fall back to backup: %v", err)
	}
	if got.Collage.Name != "Fallback" || len(got.Collage.Items) != 2 {
		t.Fatalf("unexpected collage from backup: %+v", got.Collage)
	}
}

func TestOpenRejectsSchemaViolationWithoutBackup(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, ManifestFileName), []byte(`{"version":1,"name":"x","items":[{"id":""}]}`), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := Open(root)
	if err == nil {
		t.Fatalf("expected error")
	}
	if !errors.Is(err, ErrSchema) {
		t.Fatalf("want ErrSchema in chain, got %v", err)
	}
}

func TestSaveAsCopiesAssets(t *testing.T) {
	root := t.TempDir()
	ph, err := InitCollage(root, sampleCollage("Move"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := WriteAsset(ph, "a", solid(4, 3), "image/png"); err != nil {
		t.Fatal(err)
	}
	dst := filepath.Join(t.TempDir(), "copy")
	if err := SaveAs(ph, dst); err != nil {
		t.Fatalf("SaveAs: %v", err)
	}
	if ph.Root != dst {
		t.Fatalf("handle root not updated")
	}
	if _, err := os.Stat(filepath.Join(dst, "assets", "a.png")); err != nil {
		t.Fatalf("asset not copied: %v", err)
	}
	if _, err := Open(dst); err != nil {
		t.Fatalf("Open copy: %v", err)
	}
}

func TestPruneBackupsAndCrashSnapshot(t *testing.T) {
	root := t.TempDir()
	ph, err := InitCollage(root, sampleCollage("Prune"))
	if err != nil {
		t.Fatal(err)
	}
	bdir := filepath.Join(root, BackupsDirName)
	for _, stamp := range []string{"20240101-000000.000", "20240102-000000.000", "20240103-000000.000"} {
		if err := copyFile(ph.ManifestPath, filepath.Join(bdir, ManifestFileName+"."+stamp+".bak")); err != nil {
			t.Fatal(err)
		}
	}
	removed, err := PruneBackups(root, 1)
	if err != nil || removed != 2 {
		t.Fatalf("PruneBackups = %d, %v", removed, err)
	}
	names, _ := backupNames(root)
	if len(names) != 1 || !strings.Contains(names[0], "20240103") {
		t.Fatalf("newest backup must survive: %v", names)
	}

	path, err := AutosaveCrashSnapshot(ph)
	if err != nil {
		t.Fatalf("AutosaveCrashSnapshot: %v", err)
	}
	if !strings.HasSuffix(path, ".crash") {
		t.Fatalf("unexpected crash snapshot name %q", path)
	}
	if names, _ := backupNames(root); len(names) != 1 {
		t.Fatalf("crash snapshot must not count as a backup: %v", names)
	}
}
