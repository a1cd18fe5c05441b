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
	"log/slog"
	"sort"
	"time"

	applog "stickyboard/internal/log"
)

// kvSchemaVersion tracks the key/value database layout.
// 1: kv(key, value); 2: adds kv.updated_at.
const kvSchemaVersion = 2

var kvLayout = dbLayout{
	name:   "kv store",
	schema: kvSchemaVersion,
	// a fresh file gets the current layout; IF NOT EXISTS keeps v1 files for step 2
	create: func(ctx context.Context, db *sql.DB) error {
		_, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS kv (
			key        TEXT PRIMARY KEY,
			value      BLOB NOT NULL,
			updated_at TEXT NOT NULL DEFAULT ''
		);`)
		return err
	},
	steps: map[int]migrateStep{
		2: func(ctx context.Context, tx *sql.Tx) error {
			_, err := tx.ExecContext(ctx, `ALTER TABLE kv ADD COLUMN updated_at TEXT NOT NULL DEFAULT ''`)
			return err
		},
	},
}

// SQLiteBackend keeps keys in a single table of an embedded SQLite database.
type SQLiteBackend struct {
	db      *sql.DB
	path    string
	Quota   int64
	timeout time.Duration
}

// OpenSQLiteBackend opens or creates the database at path and brings its schema up to date.
func OpenSQLiteBackend(path string, quota int64) (*SQLiteBackend, error) {
	l := applog.WithOperation(applog.WithComponent("storage"), "sqlite_open").With(slog.String("path", path))
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	db, err := openLayout(ctx, path, kvLayout)
	if err != nil {
		l.Error("open failed", slog.Any("err", err))
		return nil, err
	}
	l.Debug("sqlite backend ready")
	return &SQLiteBackend{db: db, path: path, Quota: quota, timeout: 5 * time.Second}, nil
}

func (s *SQLiteBackend) Close() error { return s.db.Close() }

func (s *SQLiteBackend) ctx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), s.timeout)
}

func (s *SQLiteBackend) Get(key string) ([]byte, bool, error) {
	ctx, cancel := s.ctx()
	defer cancel()
	var v []byte
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key=?`, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get %s: %w", key, err)
	}
	return v, true, nil
}

func (s *SQLiteBackend) Set(key string, value []byte) error {
	ctx, cancel := s.ctx()
	defer cancel()
	if s.Quota > 0 {
		var used sql.NullInt64
		if err := s.db.QueryRowContext(ctx, `SELECT SUM(length(value)) FROM kv WHERE key<>?`, key).Scan(&used); err != nil {
			return fmt.Errorf("measure usage: %w", err)
		}
		if used.Int64+int64(len(value)) > s.Quota {
			return fmt.Errorf("set %s (%d bytes, %d used of %d): %w", key, len(value), used.Int64, s.Quota, ErrQuotaExceeded)
		}
	}
	now := sqliteStamp()
	if _, err := s.db.ExecContext(ctx, `INSERT INTO kv(key, value, updated_at) VALUES(?,?,?)
		ON CONFLICT(key) DO UPDATE SET value=excluded.value, updated_at=excluded.updated_at`, key, value, now); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

func (s *SQLiteBackend) Remove(key string) error {
	ctx, cancel := s.ctx()
	defer cancel()
	if _, err := s.db.ExecContext(ctx, `DELETE FROM kv WHERE key=?`, key); err != nil {
		return fmt.Errorf("remove %s: %w", key, err)
	}
	return nil
}

func (s *SQLiteBackend) Keys() ([]string, error) {
	ctx, cancel := s.ctx()
	defer cancel()
	rows, err := s.db.QueryContext(ctx, `SELECT key FROM kv`)
	if err != nil {
		return nil, fmt.Errorf("list keys: %w", err)
	}
	defer rows.Close()
	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("scan key: %w", err)
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, rows.Err()
}
