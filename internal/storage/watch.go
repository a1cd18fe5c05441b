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
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	applog "stickyboard/internal/log"

	"github.com/fsnotify/fsnotify"
)

// WatchEvent reports that the watched data file changed on disk.
type WatchEvent struct {
	Path    string
	Removed bool
	At      time.Time
}

// watchSettle coalesces the Create/Write/Rename burst an atomic replace produces.
const watchSettle = 50 * time.Millisecond

// Watch blocks until ctx is done, calling fn after the file at path was written,
// replaced or removed by anyone, this process included. The parent directory is
// watched because atomic replaces swap the inode.
func Watch(ctx context.Context, path string, fn func(WatchEvent)) error {
	l := applog.WithOperation(applog.WithComponent("storage"), "watch").With(slog.String("path", path))
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer w.Close()
	dir := filepath.Dir(path)
	if err := w.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	target := filepath.Clean(path)

	var (
		mu      sync.Mutex
		timer   *time.Timer
		removed bool
	)
	fire := func() {
		mu.Lock()
		ev := WatchEvent{Path: target, Removed: removed, At: time.Now()}
		removed = false
		mu.Unlock()
		fn(ev)
	}
	defer func() {
		mu.Lock()
		if timer != nil {
			timer.Stop()
		}
		mu.Unlock()
	}()

	l.Debug("watching")
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Remove) && !ev.Has(fsnotify.Rename) {
				continue
			}
			mu.Lock()
			removed = ev.Has(fsnotify.Remove)
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(watchSettle, fire)
			mu.Unlock()
		case werr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			l.Error("fsnotify error", slog.Any("err", werr))
		}
	}
}
