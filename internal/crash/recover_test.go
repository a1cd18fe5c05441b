/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package crash

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type fakeSaver struct {
	calls int
	boom  bool
}

func (f *fakeSaver) Flush() bool {
	f.calls++
	if f.boom {
		panic("flush exploded")
	}
	return true
}

func silenceStderr(t *testing.T) {
	t.Helper()
	oldStderr := os.Stderr
	r, w, _ := os.Pipe()
	os.Stderr = w
	t.Cleanup(func() {
		_ = w.Close()
		os.Stderr = oldStderr
		_, _ = io.Copy(io.Discard, r)
	})
}

func interceptExit(t *testing.T) *int {
	t.Helper()
	called := 0
	oldExit := exitFn
	exitFn = func(code int) { called = code }
	t.Cleanup(func() { exitFn = oldExit })
	return &called
}

// TestRecover_WritesReportFlushesAndExits checks the full crash path without
// terminating the test process.
func TestRecover_WritesReportFlushesAndExits(t *testing.T) {
	silenceStderr(t)
	code := interceptExit(t)
	root := t.TempDir()
	saver := &fakeSaver{}

	func() {
		defer Recover(root, saver)
		panic("boom")
	}()

	var found string
	dir := filepath.Join(root, ReportsDirName)
	files, _ := os.ReadDir(dir)
	for _, f := range files {
		if strings.HasPrefix(f.Name(), "crash-") && strings.HasSuffix(f.Name(), ".log") {
			found = filepath.Join(dir, f.Name())
			break
		}
	}
	if found == "" {
		t.Fatalf("expected crash report file under %s", dir)
	}
	b, err := os.ReadFile(found)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	if !bytes.Contains(b, []byte("Panic: boom")) {
		t.Fatalf("report does not contain panic: %s", string(b))
	}
	if saver.calls != 1 {
		t.Fatalf("expected one emergency flush, got %d", saver.calls)
	}
	if *code != 2 {
		t.Fatalf("expected exit code 2, got %d", *code)
	}
}

func TestRecover_PanickingFlushStillExits(t *testing.T) {
	silenceStderr(t)
	code := interceptExit(t)
	func() {
		defer Recover(t.TempDir(), &fakeSaver{boom: true})
		panic("first")
	}()
	if *code != 2 {
		t.Fatalf("expected exit code 2, got %d", *code)
	}
}

func TestRecover_NoPanicIsQuiet(t *testing.T) {
	code := interceptExit(t)
	func() {
		defer Recover("", nil)
	}()
	if *code != 0 {
		t.Fatalf("exit should not be called, got %d", *code)
	}
}
