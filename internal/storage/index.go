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
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"stickyboard/internal/domain"
	applog "stickyboard/internal/log"
)

const (
	// IndexDirName holds derived, disposable data under the data dir.
	IndexDirName  = ".index"
	IndexFileName = "index.sqlite"

	// indexSchemaVersion tracks the search index layout.
	// 2 adds the canvas lookup index on note_canvases.
	indexSchemaVersion = 2
)

var indexLayout = dbLayout{
	name:   "search index",
	schema: indexSchemaVersion,
	create: ensureIndexSchema,
	steps: map[int]migrateStep{
		2: func(ctx context.Context, tx *sql.Tx) error {
			_, err := tx.ExecContext(ctx, `CREATE INDEX IF NOT EXISTS idx_note_canvases_canvas ON note_canvases(canvas_id);`)
			return err
		},
	},
}

// IndexPath returns the full path to the search index of a data dir.
func IndexPath(dataDir string) string {
	return filepath.Join(dataDir, IndexDirName, IndexFileName)
}

// InitOrOpenIndex ensures the search index exists, opens it and brings its schema up to date.
func InitOrOpenIndex(dataDir string) (*sql.DB, error) {
	l := applog.WithOperation(applog.WithComponent("storage"), "index_init").With(slog.String("root", dataDir))
	if strings.TrimSpace(dataDir) == "" {
		return nil, errors.New("data dir is required")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	path := IndexPath(dataDir)
	db, err := openLayout(ctx, path, indexLayout)
	if err != nil {
		l.Error("open failed", slog.Any("err", err))
		return nil, err
	}
	l.Debug("index ready", slog.String("path", path))
	return db, nil
}

// ensureIndexSchema creates the note documents table, its contentless FTS5 mirror and the canvas links.
func ensureIndexSchema(ctx context.Context, db *sql.DB) error {
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS notes (
			doc_id   INTEGER PRIMARY KEY,
			note_id  TEXT    NOT NULL UNIQUE,
			color    TEXT,
			text     TEXT
		);`,
		`CREATE VIRTUAL TABLE IF NOT EXISTS fts_notes USING fts5(
			text,
			content='',
			tokenize = 'unicode61'
		);`,
		`CREATE TABLE IF NOT EXISTS note_canvases (
			note_id     TEXT NOT NULL,
			canvas_id   TEXT NOT NULL,
			canvas_name TEXT NOT NULL,
			PRIMARY KEY(note_id, canvas_id)
		);`,
	}
	for _, q := range ddl {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("ensure index schema: %w", err)
		}
	}
	triggers := []string{
		`CREATE TRIGGER IF NOT EXISTS notes_ai AFTER INSERT ON notes BEGIN
			INSERT INTO fts_notes(rowid, text) VALUES (new.doc_id, new.text);
		END;`,
		`CREATE TRIGGER IF NOT EXISTS notes_ad AFTER DELETE ON notes BEGIN
			INSERT INTO fts_notes(fts_notes, rowid, text) VALUES ('delete', old.doc_id, old.text);
		END;`,
		`CREATE TRIGGER IF NOT EXISTS notes_au AFTER UPDATE OF text ON notes BEGIN
			INSERT INTO fts_notes(fts_notes, rowid, text) VALUES ('delete', old.doc_id, old.text);
			INSERT INTO fts_notes(rowid, text) VALUES (new.doc_id, new.text);
		END;`,
	}
	for _, q := range triggers {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("ensure fts triggers: %w", err)
		}
	}
	return nil
}

// RebuildIndex replaces the indexed notes with the content of data.
func RebuildIndex(ctx context.Context, dataDir string, data *domain.AppData) error {
	db, err := InitOrOpenIndex(dataDir)
	if err != nil {
		return err
	}
	defer db.Close()
	return rebuildNotes(ctx, db, data)
}

func rebuildNotes(ctx context.Context, db *sql.DB, data *domain.AppData) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	for _, q := range []string{"DELETE FROM notes;", "DELETE FROM note_canvases;"} {
		if _, err := tx.ExecContext(ctx, q); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("clear index: %w", err)
		}
	}
	if data != nil {
		ids := make([]string, 0, len(data.Notes))
		for id := range data.Notes {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		insNote, err := tx.PrepareContext(ctx, "INSERT INTO notes(note_id, color, text) VALUES(?,?,?);")
		if err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("prepare insert: %w", err)
		}
		defer insNote.Close()
		for _, id := range ids {
			n := data.Notes[id]
			if _, err := insNote.ExecContext(ctx, n.ID, n.Color, n.Content); err != nil {
				_ = tx.Rollback()
				return fmt.Errorf("insert note: %w", err)
			}
		}
		insLink, err := tx.PrepareContext(ctx, "INSERT OR IGNORE INTO note_canvases(note_id, canvas_id, canvas_name) VALUES(?,?,?);")
		if err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("prepare link: %w", err)
		}
		defer insLink.Close()
		for cid, c := range data.Canvases {
			for _, p := range c.NotePositions {
				if _, ok := data.Notes[p.NoteID]; !ok {
					continue
				}
				if _, err := insLink.ExecContext(ctx, p.NoteID, cid, c.Name); err != nil {
					_ = tx.Rollback()
					return fmt.Errorf("insert link: %w", err)
				}
			}
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// DetectAndRebuildIndex rebuilds the index from data when it cannot be opened or fails
// an integrity check. A damaged file is copied to .index/backups first.
// It returns true when a rebuild was performed.
func DetectAndRebuildIndex(ctx context.Context, dataDir string, data *domain.AppData) (bool, error) {
	path := IndexPath(dataDir)
	db, err := InitOrOpenIndex(dataDir)
	if err != nil {
		backupIndexFile(path)
		removeIndexFiles(path)
		if rbErr := RebuildIndex(ctx, dataDir, data); rbErr != nil {
			return false, fmt.Errorf("rebuild after open failure: %w (open err: %v)", rbErr, err)
		}
		return true, nil
	}
	needs := false
	var chk string
	if err := db.QueryRowContext(ctx, `PRAGMA quick_check;`).Scan(&chk); err != nil || !strings.Contains(strings.ToLower(chk), "ok") {
		needs = true
	}
	if !needs {
		if _, err := db.ExecContext(ctx, `SELECT 1 FROM notes LIMIT 1;`); err != nil {
			needs = true
		}
	}
	_ = db.Close()
	if !needs {
		return false, nil
	}
	backupIndexFile(path)
	removeIndexFiles(path)
	if err := RebuildIndex(ctx, dataDir, data); err != nil {
		return false, err
	}
	return true, nil
}

func removeIndexFiles(path string) {
	for _, p := range []string{path, path + "-wal", path + "-shm"} {
		_ = os.Remove(p)
	}
}

// backupIndexFile copies the current index file into a timestamped backup in .index/backups.
func backupIndexFile(indexPath string) {
	bdir := filepath.Join(filepath.Dir(indexPath), "backups")
	_ = os.MkdirAll(bdir, 0o755)
	stamp := time.Now().Format("20060102-150405")
	bak := filepath.Join(bdir, fmt.Sprintf("%s.%s.bak", filepath.Base(indexPath), stamp))
	if data, err := os.ReadFile(indexPath); err == nil {
		_ = os.WriteFile(bak, data, 0o644)
	}
}

// SearchQuery describes a note search.
// Text uses SQLite FTS5 syntax (terms, "phrases", AND/OR/NOT); empty Text lists every note.
// CanvasID and Color narrow the result. Limit defaults to 100.
type SearchQuery struct {
	Text     string
	CanvasID string
	Color    string
	Limit    int
	Offset   int
}

// SearchResult is one matching note. Snippet marks hits with [ ] when Text was given.
type SearchResult struct {
	NoteID   string
	Color    string
	Canvases []string // canvas names the note is placed on
	Snippet  string
}

// Search runs q against the index of dataDir.
func Search(ctx context.Context, dataDir string, q SearchQuery) ([]SearchResult, error) {
	db, err := InitOrOpenIndex(dataDir)
	if err != nil {
		return nil, err
	}
	defer db.Close()
	return searchDB(ctx, db, q)
}

func searchDB(ctx context.Context, db *sql.DB, q SearchQuery) ([]SearchResult, error) {
	var args []any
	var sb strings.Builder
	if strings.TrimSpace(q.Text) != "" {
		sb.WriteString("SELECT n.note_id, COALESCE(n.color,''), snippet(fts_notes, 0, '[', ']', '…', 10)\n")
		sb.WriteString("FROM fts_notes JOIN notes n ON fts_notes.rowid = n.doc_id\n")
		sb.WriteString("WHERE fts_notes MATCH ?\n")
		args = append(args, q.Text)
	} else {
		sb.WriteString("SELECT n.note_id, COALESCE(n.color,''), ''\nFROM notes n\nWHERE 1=1\n")
	}
	if s := strings.TrimSpace(q.CanvasID); s != "" {
		sb.WriteString(" AND EXISTS (SELECT 1 FROM note_canvases nc WHERE nc.note_id = n.note_id AND nc.canvas_id = ?)\n")
		args = append(args, s)
	}
	if s := strings.TrimSpace(q.Color); s != "" {
		sb.WriteString(" AND lower(n.color) = ?\n")
		args = append(args, strings.ToLower(s))
	}
	limit := q.Limit
	if limit <= 0 {
		limit = 100
	}
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}
	sb.WriteString("ORDER BY n.doc_id\nLIMIT ? OFFSET ?")
	args = append(args, limit, offset)

	rows, err := db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("search query: %w", err)
	}
	var out []SearchResult
	for rows.Next() {
		var r SearchResult
		var sn sql.NullString
		if err := rows.Scan(&r.NoteID, &r.Color, &sn); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan row: %w", err)
		}
		r.Snippet = sn.String
		out = append(out, r)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	// single connection: the result cursor must be closed before the canvas lookups
	for i := range out {
		names, err := canvasNames(ctx, db, out[i].NoteID)
		if err != nil {
			return nil, err
		}
		out[i].Canvases = names
	}
	return out, nil
}

func canvasNames(ctx context.Context, db *sql.DB, noteID string) ([]string, error) {
	rows, err := db.QueryContext(ctx, `SELECT canvas_name FROM note_canvases WHERE note_id = ? ORDER BY canvas_name`, noteID)
	if err != nil {
		return nil, fmt.Errorf("canvas lookup: %w", err)
	}
	defer rows.Close()
	var names []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, fmt.Errorf("scan canvas: %w", err)
		}
		names = append(names, n)
	}
	return names, rows.Err()
}
