/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package storage implements board persistence and indexing.
// The whole board lives in one keyed JSON document (AppData) kept in a Backend:
// a directory of atomically replaced files, an embedded SQLite key/value table, or memory.
// Store layers the normalized canvas/note operations on top, including orphan cleanup,
// timestamped backups of corrupted payloads and quota recovery.
// A derived SQLite FTS index at <dataDir>/.index/index.sqlite serves note search; it is
// rebuildable and disposable.
package storage
