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
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"stickyboard/internal/version"

	// Pure-Go SQLite driver (CGO-free)
	_ "modernc.org/sqlite"
)

// migrateStep upgrades a database from schema next-1 to next inside tx.
type migrateStep func(ctx context.Context, tx *sql.Tx) error

// dbLayout describes one embedded database: its current schema number, the DDL
// for a fresh file and the steps that upgrade older files.
type dbLayout struct {
	name   string
	schema int
	create func(ctx context.Context, db *sql.DB) error
	steps  map[int]migrateStep
}

const sqliteDSN = "file:%s?cache=shared&_pragma=busy_timeout(5000)"

// openLayout opens path (creating parent dirs), enables WAL and brings the file
// to l.schema. The version row is seeded only on a fresh file.
func openLayout(ctx context.Context, path string, l dbLayout) (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("%s: create dir: %w", l.name, err)
	}
	db, err := sql.Open("sqlite", fmt.Sprintf(sqliteDSN, filepath.ToSlash(path)))
	if err != nil {
		return nil, fmt.Errorf("%s: open: %w", l.name, err)
	}
	// one connection: no SQLITE_BUSY between our own goroutines
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	fail := func(step string, err error) (*sql.DB, error) {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %s: %w", l.name, step, err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL;"); err != nil {
		return fail("enable WAL", err)
	}
	cur, err := stampVersion(ctx, db, l.schema)
	if err != nil {
		return fail("version", err)
	}
	if l.create != nil {
		if err := l.create(ctx, db); err != nil {
			return fail("create schema", err)
		}
	}
	if err := upgrade(ctx, db, cur, l.schema, l.steps); err != nil {
		return fail("upgrade", err)
	}
	return db, nil
}

// stampVersion makes sure the single version row exists and returns the schema
// it records. A fresh database is stamped with fresh.
func stampVersion(ctx context.Context, db *sql.DB, fresh int) (int, error) {
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS version (
			id          INTEGER PRIMARY KEY CHECK(id=1),
			schema      INTEGER NOT NULL,
			app         TEXT,
			created_at  TEXT NOT NULL,
			updated_at  TEXT NOT NULL
		);`); err != nil {
		return 0, err
	}
	now := sqliteStamp()
	var cur int
	err := db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&cur)
	if errors.Is(err, sql.ErrNoRows) {
		_, err = db.ExecContext(ctx, `INSERT INTO version (id, schema, app, created_at, updated_at) VALUES(1, ?, ?, ?, ?)`,
			fresh, version.String(), now, now)
		return fresh, err
	}
	if err != nil {
		return 0, err
	}
	_, err = db.ExecContext(ctx, `UPDATE version SET app=?, updated_at=? WHERE id=1`, version.String(), now)
	return cur, err
}

// upgrade runs one transaction per schema step from cur to target. A database
// newer than target is left as is.
func upgrade(ctx context.Context, db *sql.DB, cur, target int, steps map[int]migrateStep) error {
	for next := cur + 1; next <= target; next++ {
		if err := applyStep(ctx, db, next, steps[next]); err != nil {
			return fmt.Errorf("step %d: %w", next, err)
		}
	}
	return nil
}

func applyStep(ctx context.Context, db *sql.DB, next int, step migrateStep) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	if step != nil {
		if err := step(ctx, tx); err != nil {
			return err
		}
	}
	if _, err := tx.ExecContext(ctx, `UPDATE version SET schema=?, updated_at=? WHERE id=1`, next, sqliteStamp()); err != nil {
		return err
	}
	return tx.Commit()
}

func sqliteStamp() string { return time.Now().UTC().Format(time.RFC3339) }
