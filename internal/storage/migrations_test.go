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
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	_ "modernc.org/sqlite"
)

// TestSQLiteBackend_UpgradeV1ToV2 opens a v1 key/value database and checks that
// the updated_at column is added and existing rows survive.
func TestSQLiteBackend_UpgradeV1ToV2(t *testing.T) {
	path := filepath.Join(t.TempDir(), "board.sqlite")
	dsn := fmt.Sprintf("file:%s?cache=shared&_pragma=busy_timeout(2000)", filepath.ToSlash(path))
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	stmts := []string{
		`CREATE TABLE version (id INTEGER PRIMARY KEY CHECK(id=1), schema INTEGER NOT NULL, app TEXT, created_at TEXT NOT NULL, updated_at TEXT NOT NULL);`,
		`INSERT INTO version(id, schema, app, created_at, updated_at) VALUES(1, 1, 'test', '2020-01-01T00:00:00Z', '2020-01-01T00:00:00Z');`,
		`CREATE TABLE kv (key TEXT PRIMARY KEY, value BLOB NOT NULL);`,
		`INSERT INTO kv(key, value) VALUES('sticky-notes-app', '{"canvases":{},"notes":{}}');`,
	}
	for _, q := range stmts {
		if _, err := db.ExecContext(ctx, q); err != nil {
			t.Fatalf("seed v1 schema: %v (q=%s)", err, q)
		}
	}
	db.Close()

	b, err := OpenSQLiteBackend(path, 0)
	if err != nil {
		t.Fatalf("OpenSQLiteBackend: %v", err)
	}
	defer b.Close()

	var schema int
	if err := b.db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&schema); err != nil {
		t.Fatalf("read schema: %v", err)
	}
	if schema != kvSchemaVersion {
		t.Fatalf("schema = %d, want %d", schema, kvSchemaVersion)
	}
	if err := b.Set("k", []byte("v")); err != nil {
		t.Fatalf("Set after upgrade: %v", err)
	}
	var stamp string
	if err := b.db.QueryRowContext(ctx, `SELECT updated_at FROM kv WHERE key='k'`).Scan(&stamp); err != nil || stamp == "" {
		t.Fatalf("updated_at not written: %q %v", stamp, err)
	}
	v, ok, err := b.Get("sticky-notes-app")
	if err != nil || !ok || string(v) != `{"canvases":{},"notes":{}}` {
		t.Fatalf("pre-existing row lost: %q %v %v", v, ok, err)
	}
}

func TestInitOrOpenIndex_RequiresRoot(t *testing.T) {
	if _, err := InitOrOpenIndex("  "); err == nil {
		t.Fatalf("expected error for blank data dir")
	}
}
