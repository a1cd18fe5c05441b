/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package storage

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Backend kinds understood by OpenBackend.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// SQLiteFileName is the database file of the sqlite backend inside the data dir.
const SQLiteFileName = "board.sqlite"

// OpenBackend builds the configured backend rooted at dataDir. The returned close
// function is never nil.
func OpenBackend(kind, dataDir string, quota int64) (Backend, func() error, error) {
	nop := func() error { return nil }
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case BackendMemory:
		return NewMemoryBackend(quota), nop, nil
	case BackendSQLite:
		b, err := OpenSQLiteBackend(filepath.Join(dataDir, SQLiteFileName), quota)
		if err != nil {
			return nil, nop, err
		}
		return b, b.Close, nil
	case BackendFile, "":
		b, err := NewFileBackend(dataDir, quota)
		if err != nil {
			return nil, nop, err
		}
		return b, nop, nil
	}
	return nil, nop, fmt.Errorf("unknown storage backend %q", kind)
}
