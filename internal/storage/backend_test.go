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
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// exerciseBackend runs the same contract checks against any Backend.
func exerciseBackend(t *testing.T, b Backend) {
	t.Helper()
	if _, ok, err := b.Get("missing"); err != nil || ok {
		t.Fatalf("Get(missing) = ok %v, err %v", ok, err)
	}
	if err := b.Set("a", []byte(`{"x":1}`)); err != nil {
		t.Fatalf("Set a: %v", err)
	}
	if err := b.Set("a_backup_1", []byte("old")); err != nil {
		t.Fatalf("Set backup: %v", err)
	}
	if err := b.Set("a", []byte(`{"x":2}`)); err != nil {
		t.Fatalf("overwrite a: %v", err)
	}
	v, ok, err := b.Get("a")
	if err != nil || !ok || string(v) != `{"x":2}` {
		t.Fatalf("Get a = %q ok=%v err=%v", v, ok, err)
	}
	keys, err := b.Keys()
	if err != nil {
		t.Fatalf("Keys: %v", err)
	}
	if strings.Join(keys, ",") != "a,a_backup_1" {
		t.Fatalf("Keys = %v", keys)
	}
	if err := b.Remove("a_backup_1"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if err := b.Remove("never-there"); err != nil {
		t.Fatalf("Remove missing should be a no-op: %v", err)
	}
	keys, _ = b.Keys()
	if len(keys) != 1 || keys[0] != "a" {
		t.Fatalf("Keys after remove = %v", keys)
	}
}

func TestMemoryBackend_Contract(t *testing.T) {
	exerciseBackend(t, NewMemoryBackend(0))
}

func TestFileBackend_Contract(t *testing.T) {
	b, err := NewFileBackend(t.TempDir(), 0)
	if err != nil {
		t.Fatalf("NewFileBackend: %v", err)
	}
	exerciseBackend(t, b)
}

func TestSQLiteBackend_Contract(t *testing.T) {
	b, err := OpenSQLiteBackend(filepath.Join(t.TempDir(), "board.sqlite"), 0)
	if err != nil {
		t.Fatalf("OpenSQLiteBackend: %v", err)
	}
	defer b.Close()
	exerciseBackend(t, b)
}

func TestBackends_Quota(t *testing.T) {
	dir := t.TempDir()
	fb, err := NewFileBackend(filepath.Join(dir, "files"), 10)
	if err != nil {
		t.Fatal(err)
	}
	sb, err := OpenSQLiteBackend(filepath.Join(dir, "kv.sqlite"), 10)
	if err != nil {
		t.Fatal(err)
	}
	defer sb.Close()
	for name, b := range map[string]Backend{"memory": NewMemoryBackend(10), "file": fb, "sqlite": sb} {
		if err := b.Set("k", []byte("123456")); err != nil {
			t.Fatalf("%s: first set: %v", name, err)
		}
		// replacing the same key only counts the new value
		if err := b.Set("k", []byte("1234567890")); err != nil {
			t.Fatalf("%s: replace within quota: %v", name, err)
		}
		err := b.Set("other", []byte("x"))
		if !errors.Is(err, ErrQuotaExceeded) {
			t.Fatalf("%s: expected ErrQuotaExceeded, got %v", name, err)
		}
	}
}

func TestFileBackend_IgnoresTempFilesAndEscapesKeys(t *testing.T) {
	dir := t.TempDir()
	b, err := NewFileBackend(dir, 0)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, ".k.json.tmp-1-2"), []byte("junk"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := b.Set("a/b", []byte("v")); err != nil {
		t.Fatalf("Set with slash: %v", err)
	}
	keys, _ := b.Keys()
	if len(keys) != 1 || keys[0] != "a/b" {
		t.Fatalf("Keys = %v", keys)
	}
	if _, err := os.Stat(b.PathFor("a/b")); err != nil {
		t.Fatalf("escaped file missing: %v", err)
	}
}
