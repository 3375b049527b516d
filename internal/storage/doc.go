/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package storage persists collages on disk.
//
// A collage is a directory holding the canonical JSON manifest (collage.json),
// the pasted images under assets/, rendered files under exports/ and
// timestamped manifest backups under backups/. Saves are transactional
// (temp file + rename) and Open falls back to the newest backup when the
// manifest is unreadable or fails schema validation.
//
// The per-collage SQLite database at .gcl/index.sqlite catalogs assets and
// keeps a layout history. It is derived from the manifest and can be rebuilt.
package storage
