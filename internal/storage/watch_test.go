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
	"os"
	"testing"
	"time"
)

func TestWatch_ReportsAtomicReplace(t *testing.T) {
	b, err := NewFileBackend(t.TempDir(), 0)
	if err != nil {
		t.Fatal(err)
	}
	path := b.PathFor(DefaultKey)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan WatchEvent, 4)
	done := make(chan error, 1)
	go func() { done <- Watch(ctx, path, func(ev WatchEvent) { got <- ev }) }()

	// give the watcher time to register
	time.Sleep(100 * time.Millisecond)
	if err := b.Set(DefaultKey, []byte(`{"canvases":{},"notes":{}}`)); err != nil {
		t.Fatal(err)
	}
	// unrelated files are ignored
	_ = os.WriteFile(b.PathFor("other"), []byte("x"), 0o644)

	select {
	case ev := <-got:
		if ev.Path != path || ev.Removed {
			t.Fatalf("unexpected event %+v", ev)
		}
	case <-time.After(3 * time.Second):
		t.Fatalf("no watch event")
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Watch returned %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("Watch did not stop on cancel")
	}
}
