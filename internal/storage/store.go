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
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"stickyboard/internal/domain"
	"stickyboard/internal/events"
	applog "stickyboard/internal/log"

	"github.com/google/uuid"
)

const (
	// DefaultKey is the backend key holding the AppData document.
	DefaultKey = "sticky-notes-app"

	backupInfix   = "_backup_"
	backupStamp   = "20060102T150405.000000000Z"
	untitledName  = "Untitled Canvas"
	defaultBackup = 5
)

// Migration upgrades a document tagged with an older schema version in place.
type Migration func(data *domain.AppData, from string) error

// Options configures a Store. Zero values pick defaults.
type Options struct {
	Key        string
	Events     events.Publisher
	Clock      func() time.Time
	MaxBackups int
	Migrate    Migration
	Logger     *slog.Logger
}

// Store is the normalized persistence layer over a Backend.
// Read-modify-write operations are serialized; every method reports failure
// through its return value and never panics, even if the backend does.
type Store struct {
	mu         sync.Mutex
	backend    Backend
	key        string
	events     events.Publisher
	now        func() time.Time
	maxBackups int
	migrate    Migration
	log        *slog.Logger
}

// NewStore wraps backend.
func NewStore(backend Backend, opts Options) *Store {
	s := &Store{
		backend:    backend,
		key:        opts.Key,
		events:     opts.Events,
		now:        opts.Clock,
		maxBackups: opts.MaxBackups,
		migrate:    opts.Migrate,
		log:        opts.Logger,
	}
	if s.key == "" {
		s.key = DefaultKey
	}
	if s.events == nil {
		s.events = events.Nop{}
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.maxBackups <= 0 {
		s.maxBackups = defaultBackup
	}
	if s.log == nil {
		s.log = applog.WithComponent("storage")
	}
	return s
}

// Key returns the backend key of the AppData document.
func (s *Store) Key() string { return s.key }

// GenerateID returns a new random UUID string.
func (s *Store) GenerateID() string { return uuid.NewString() }

func (s *Store) stamp() time.Time { return s.now().UTC() }

// loadState distinguishes why no document came back.
type loadState int

const (
	loadOK loadState = iota
	loadAbsent
	loadCorrupt
	loadReadError
)

// Load returns the persisted document, or nil when it is absent or unusable.
// An unparseable or structurally invalid payload is copied to a backup key first.
func (s *Store) Load() *domain.AppData {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, _ := s.loadLocked()
	return data
}

func (s *Store) loadLocked() (*domain.AppData, loadState) {
	l := applog.WithOperation(s.log, "load")
	var raw []byte
	var ok bool
	err := safeCall(func() error {
		var gerr error
		raw, ok, gerr = s.backend.Get(s.key)
		return gerr
	})
	if err != nil {
		l.Error("read failed", slog.Any("err", err))
		return nil, loadReadError
	}
	if !ok || len(raw) == 0 {
		return nil, loadAbsent
	}
	if !json.Valid(raw) {
		l.Error("stored data is not valid JSON")
		s.backupCorrupt(raw)
		return nil, loadCorrupt
	}
	if err := ValidateAppData(raw); err != nil {
		l.Error("invalid storage structure", slog.Any("err", err))
		s.backupCorrupt(raw)
		return nil, loadCorrupt
	}
	var data domain.AppData
	if err := json.Unmarshal(raw, &data); err != nil {
		l.Error("decode failed", slog.Any("err", err))
		s.backupCorrupt(raw)
		return nil, loadCorrupt
	}
	if data.Version != domain.SchemaVersion {
		l.Warn("schema version mismatch", slog.String("stored", data.Version), slog.String("want", domain.SchemaVersion))
		if s.migrate != nil {
			from := data.Version
			if err := s.migrate(&data, from); err != nil {
				l.Warn("migration failed, using data as stored", slog.String("from", from), slog.Any("err", err))
			} else {
				data.Version = domain.SchemaVersion
			}
		}
	}
	normalize(&data)
	return &data, loadOK
}

// normalize fills nil collections and repairs fields the rest of the core relies on.
func normalize(d *domain.AppData) {
	if d.Canvases == nil {
		d.Canvases = map[string]domain.Canvas{}
	}
	if d.Notes == nil {
		d.Notes = map[string]domain.Note{}
	}
	for id, c := range d.Canvases {
		c.ID = id
		if c.NotePositions == nil {
			c.NotePositions = []domain.NotePosition{}
		}
		if strings.TrimSpace(c.Name) == "" {
			c.Name = untitledName
		}
		if c.ViewState.Zoom <= 0 {
			c.ViewState.Zoom = 1
		}
		d.Canvases[id] = c
	}
	for id, n := range d.Notes {
		n.ID = id
		d.Notes[id] = n
	}
}

// backupCorrupt keeps a forensic copy of a payload that could not be used.
// The same payload read again is not copied twice.
func (s *Store) backupCorrupt(raw []byte) {
	if keys := s.backupKeys(); len(keys) > 0 {
		newest := keys[len(keys)-1]
		var prev []byte
		var ok bool
		err := safeCall(func() error {
			var gerr error
			prev, ok, gerr = s.backend.Get(newest)
			return gerr
		})
		if err == nil && ok && bytes.Equal(prev, raw) {
			s.log.Debug("corrupted data already backed up", slog.String("key", newest))
			return
		}
	}
	key := s.key + backupInfix + s.stamp().Format(backupStamp)
	err := safeCall(func() error { return s.backend.Set(key, raw) })
	if err != nil {
		s.log.Error("backup of corrupted data failed", slog.String("key", key), slog.Any("err", err))
		return
	}
	s.log.Info("backed up corrupted data", slog.String("key", key))
	s.pruneBackups(s.maxBackups)
}

// Backups lists backup keys, oldest first.
func (s *Store) Backups() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.backupKeys()
}

func (s *Store) backupKeys() []string {
	var keys []string
	err := safeCall(func() error {
		var kerr error
		keys, kerr = s.backend.Keys()
		return kerr
	})
	if err != nil {
		s.log.Warn("list keys failed", slog.Any("err", err))
		return nil
	}
	prefix := s.key + backupInfix
	out := keys[:0]
	for _, k := range keys {
		if strings.HasPrefix(k, prefix) {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

// pruneBackups removes the oldest backups so that at most keep remain.
func (s *Store) pruneBackups(keep int) int {
	keys := s.backupKeys()
	if len(keys) <= keep {
		return 0
	}
	removed := 0
	for _, k := range keys[:len(keys)-keep] {
		if err := safeCall(func() error { return s.backend.Remove(k) }); err != nil {
			s.log.Warn("remove backup failed", slog.String("key", k), slog.Any("err", err))
			continue
		}
		removed++
	}
	return removed
}

// Save writes data. On a quota error it prunes backups down to one and retries once.
// A failure is logged and published as events.StorageFailed; data is never modified.
func (s *Store) Save(data *domain.AppData) bool {
	s.mu.Lock()
	err := s.saveLocked(data)
	s.mu.Unlock()
	return s.report("save", err)
}

func (s *Store) saveLocked(data *domain.AppData) error {
	if data == nil {
		return errors.New("nil data")
	}
	out := *data
	out.Version = domain.SchemaVersion
	raw, err := marshalAppData(&out)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	err = safeCall(func() error { return s.backend.Set(s.key, raw) })
	if err == nil || !errors.Is(err, ErrQuotaExceeded) {
		return err
	}
	s.log.Warn("storage quota exceeded, attempting cleanup", slog.Int("bytes", len(raw)))
	if len(s.backupKeys()) == 0 {
		return err
	}
	s.pruneBackups(1)
	if err := safeCall(func() error { return s.backend.Set(s.key, raw) }); err != nil {
		return fmt.Errorf("retry after cleanup: %w", err)
	}
	s.log.Info("storage saved after cleanup")
	return nil
}

func marshalAppData(d *domain.AppData) ([]byte, error) {
	cp := *d
	cp.Canvases = make(map[string]domain.Canvas, len(d.Canvases))
	for id, c := range d.Canvases {
		if c.NotePositions == nil {
			c.NotePositions = []domain.NotePosition{}
		}
		cp.Canvases[id] = c
	}
	if cp.Notes == nil {
		cp.Notes = map[string]domain.Note{}
	}
	return json.Marshal(&cp)
}

// report logs and publishes a write failure. It must be called without s.mu held.
func (s *Store) report(op string, err error) bool {
	if err == nil {
		return true
	}
	s.log.Error("failed to save storage", slog.String("op", op), slog.Any("err", err))
	s.events.Publish(events.StorageFailed{Op: op, Err: err})
	return false
}

// CreateCanvas builds a canvas with no notes and the identity view. It does not persist.
func (s *Store) CreateCanvas(name string) domain.Canvas {
	if strings.TrimSpace(name) == "" {
		name = untitledName
	}
	now := s.stamp()
	return domain.Canvas{
		ID:            s.GenerateID(),
		Name:          strings.TrimSpace(name),
		NotePositions: []domain.NotePosition{},
		ViewState:     domain.DefaultViewState(),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// SaveCanvas replaces the canvas's placements with the given notes, upserts their
// content records, marks the canvas as last active and writes the document.
// Notes that dropped off this canvas and are placed nowhere else are purged.
func (s *Store) SaveCanvas(canvasID string, notes []domain.StickyNote, view domain.ViewState, name string) bool {
	s.mu.Lock()
	err := s.saveCanvasLocked(canvasID, notes, view, name)
	s.mu.Unlock()
	return s.report("save_canvas", err)
}

func (s *Store) saveCanvasLocked(canvasID string, notes []domain.StickyNote, view domain.ViewState, name string) error {
	if canvasID == "" {
		return errors.New("canvas id is required")
	}
	data, st := s.loadLocked()
	if st == loadReadError {
		// never overwrite what we could not read
		return errors.New("read before write failed")
	}
	if data == nil {
		data = domain.NewAppData()
	}
	now := s.stamp()
	existing, had := data.Canvases[canvasID]

	cname := strings.TrimSpace(name)
	if cname == "" {
		cname = existing.Name
	}
	if cname == "" {
		cname = untitledName
	}
	created := now
	if had && !existing.CreatedAt.IsZero() {
		created = existing.CreatedAt
	}
	if view.Zoom <= 0 {
		view.Zoom = 1
	}

	positions := make([]domain.NotePosition, 0, len(notes))
	kept := make(map[string]bool, len(notes))
	for _, n := range notes {
		positions = append(positions, domain.NotePosition{NoteID: n.ID, X: n.X, Y: n.Y, ZIndex: n.ZIndex})
		kept[n.ID] = true

		prev, seen := data.Notes[n.ID]
		rec := domain.Note{
			ID:        n.ID,
			Content:   n.Content,
			Color:     n.Color,
			Width:     n.Width,
			Height:    n.Height,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if seen {
			if !prev.CreatedAt.IsZero() {
				rec.CreatedAt = prev.CreatedAt
			}
			if sameContent(prev, rec) && !prev.UpdatedAt.IsZero() {
				rec.UpdatedAt = prev.UpdatedAt
			}
		}
		data.Notes[n.ID] = rec
	}

	data.Canvases[canvasID] = domain.Canvas{
		ID:            canvasID,
		Name:          cname,
		NotePositions: positions,
		ViewState:     view,
		CreatedAt:     created,
		UpdatedAt:     now,
	}

	var dropped []string
	for _, p := range existing.NotePositions {
		if !kept[p.NoteID] {
			dropped = append(dropped, p.NoteID)
		}
	}
	purgeOrphans(data, dropped)

	data.LastActiveCanvasID = canvasID
	return s.saveLocked(data)
}

func sameContent(a, b domain.Note) bool {
	return a.Content == b.Content && a.Color == b.Color && a.Width == b.Width && a.Height == b.Height
}

// referenced returns every note id placed on a canvas other than skip.
func referenced(data *domain.AppData, skip string) map[string]bool {
	inUse := map[string]bool{}
	for id, c := range data.Canvases {
		if id == skip {
			continue
		}
		for _, p := range c.NotePositions {
			inUse[p.NoteID] = true
		}
	}
	return inUse
}

// purgeOrphans deletes the candidates that no canvas references any more.
func purgeOrphans(data *domain.AppData, candidates []string) int {
	if len(candidates) == 0 {
		return 0
	}
	inUse := referenced(data, "")
	n := 0
	for _, id := range candidates {
		if inUse[id] {
			continue
		}
		if _, ok := data.Notes[id]; ok {
			delete(data.Notes, id)
			n++
		}
	}
	return n
}

// LoadCanvas joins the canvas's placements with their notes, in stored order.
// Placements whose note is missing are dropped. ok is false when the canvas does not exist.
func (s *Store) LoadCanvas(canvasID string) (canvas domain.Canvas, notes []domain.StickyNote, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, _ := s.loadLocked()
	if data == nil {
		return domain.Canvas{}, nil, false
	}
	c, found := data.Canvases[canvasID]
	if !found {
		return domain.Canvas{}, nil, false
	}
	notes = make([]domain.StickyNote, 0, len(c.NotePositions))
	for _, p := range c.NotePositions {
		n, ok := data.Notes[p.NoteID]
		if !ok {
			s.log.Debug("dropping placement of missing note", slog.String("canvas", canvasID), slog.String("note", p.NoteID))
			continue
		}
		notes = append(notes, domain.StickyNote{
			ID:      n.ID,
			Content: n.Content,
			Color:   n.Color,
			Width:   n.Width,
			Height:  n.Height,
			X:       p.X,
			Y:       p.Y,
			ZIndex:  p.ZIndex,
		})
	}
	return c, notes, true
}

// GetAllCanvases returns every canvas, most recently updated first.
// Ties fall back to newest creation, then id, so the order is stable.
func (s *Store) GetAllCanvases() []domain.Canvas {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, _ := s.loadLocked()
	if data == nil {
		return nil
	}
	return sortedCanvases(data)
}

func sortedCanvases(data *domain.AppData) []domain.Canvas {
	out := make([]domain.Canvas, 0, len(data.Canvases))
	for _, c := range data.Canvases {
		out = append(out, c)
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if !a.UpdatedAt.Equal(b.UpdatedAt) {
			return a.UpdatedAt.After(b.UpdatedAt)
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID < b.ID
	})
	return out
}

// RenameCanvas sets a new non-blank name. Unknown ids and blank names return false.
func (s *Store) RenameCanvas(canvasID, name string) bool {
	name = strings.TrimSpace(name)
	if name == "" {
		return false
	}
	s.mu.Lock()
	data, _ := s.loadLocked()
	if data == nil {
		s.mu.Unlock()
		return false
	}
	c, ok := data.Canvases[canvasID]
	if !ok {
		s.mu.Unlock()
		return false
	}
	c.Name = name
	c.UpdatedAt = s.stamp()
	data.Canvases[canvasID] = c
	err := s.saveLocked(data)
	s.mu.Unlock()
	return s.report("rename_canvas", err)
}

// DeleteCanvas removes the canvas and every note no other canvas still places.
// It does not refuse to delete the last canvas; callers enforce that.
func (s *Store) DeleteCanvas(canvasID string) bool {
	s.mu.Lock()
	data, _ := s.loadLocked()
	if data == nil {
		s.mu.Unlock()
		return false
	}
	c, ok := data.Canvases[canvasID]
	if !ok {
		s.mu.Unlock()
		return false
	}
	inUse := referenced(data, canvasID)
	for _, p := range c.NotePositions {
		if !inUse[p.NoteID] {
			delete(data.Notes, p.NoteID)
		}
	}
	delete(data.Canvases, canvasID)
	if data.LastActiveCanvasID == canvasID {
		data.LastActiveCanvasID = ""
		if rest := sortedCanvases(data); len(rest) > 0 {
			data.LastActiveCanvasID = rest[0].ID
		}
	}
	err := s.saveLocked(data)
	s.mu.Unlock()
	return s.report("delete_canvas", err)
}

// SetLastActive records the canvas to reopen on the next start. Unknown ids are rejected.
func (s *Store) SetLastActive(canvasID string) bool {
	s.mu.Lock()
	data, _ := s.loadLocked()
	if data == nil {
		s.mu.Unlock()
		return false
	}
	if _, ok := data.Canvases[canvasID]; !ok {
		s.mu.Unlock()
		return false
	}
	if data.LastActiveCanvasID == canvasID {
		s.mu.Unlock()
		return true
	}
	data.LastActiveCanvasID = canvasID
	err := s.saveLocked(data)
	s.mu.Unlock()
	return s.report("set_last_active", err)
}

// GetNoteCount returns how many notes the canvas shows (placements with a live note).
func (s *Store) GetNoteCount(canvasID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, _ := s.loadLocked()
	if data == nil {
		return 0
	}
	c, ok := data.Canvases[canvasID]
	if !ok {
		return 0
	}
	n := 0
	for _, p := range c.NotePositions {
		if _, ok := data.Notes[p.NoteID]; ok {
			n++
		}
	}
	return n
}

// CollectGarbage purges every note no canvas references and returns how many went.
func (s *Store) CollectGarbage() (int, bool) {
	s.mu.Lock()
	data, _ := s.loadLocked()
	if data == nil {
		s.mu.Unlock()
		return 0, true
	}
	candidates := make([]string, 0, len(data.Notes))
	for id := range data.Notes {
		candidates = append(candidates, id)
	}
	removed := purgeOrphans(data, candidates)
	if removed == 0 {
		s.mu.Unlock()
		return 0, true
	}
	err := s.saveLocked(data)
	s.mu.Unlock()
	if !s.report("collect_garbage", err) {
		return 0, false
	}
	s.log.Info("collected orphan notes", slog.Int("removed", removed))
	return removed, true
}

// safeCall runs a backend call and turns a panic into an error.
func safeCall(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("storage backend panic: %v", r)
		}
	}()
	return fn()
}
