/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"archive/zip"
	"encoding/json"
	"fmt"
	"os"
	"path"

	"gocollage/internal/storage"
)

// ExportBundle packs the manifest and every referenced asset into a ZIP that
// unpacks into an openable collage directory.
func ExportBundle(ph *storage.CollageHandle, outPath string) (string, error) {
	if ph == nil {
		return "", fmt.Errorf("collage handle is nil")
	}
	outPath, err := resolveOut(ph, outPath, ".zip")
	if err != nil {
		return "", err
	}
	zw, f, err := createZip(outPath)
	if err != nil {
		return "", err
	}
	defer func() { _ = f.Close() }()

	manifest, err := json.MarshalIndent(ph.Collage, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal manifest: %w", err)
	}
	if err := addZipFile(zw, storage.ManifestFileName, manifest); err != nil {
		return "", fmt.Errorf("zip add manifest: %w", err)
	}
	seen := make(map[string]bool, len(ph.Collage.Items))
	for _, it := range ph.Collage.Items {
		rel := path.Clean(it.Asset)
		if it.Asset == "" || seen[rel] {
			continue
		}
		seen[rel] = true
		data, err := os.ReadFile(ph.Abs(rel))
		if err != nil {
			return "", fmt.Errorf("read asset %s: %w", rel, err)
		}
		if err := addZipFile(zw, rel, data); err != nil {
			return "", fmt.Errorf("zip add asset: %w", err)
		}
	}
	if err := zw.Close(); err != nil {
		return "", fmt.Errorf("close zip: %w", err)
	}
	return outPath, nil
}

func createZip(outPath string) (*zip.Writer, *os.File, error) {
	f, err := os.Create(outPath)
	if err != nil {
		return nil, nil, fmt.Errorf("create zip: %w", err)
	}
	return zip.NewWriter(f), f, nil
}

func addZipFile(zw *zip.Writer, name string, data []byte) error {
	w, err := zw.Create(name)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}
