/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package log

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func lastJSONLine(t *testing.T, b []byte) map[string]any {
	t.Helper()
	scanner := bufio.NewScanner(bytes.NewReader(b))
	var last string
	for scanner.Scan() {
		if s := strings.TrimSpace(scanner.Text()); s != "" {
			last = s
		}
	}
	if last == "" {
		t.Fatalf("no log lines found")
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(last), &m); err != nil {
		t.Fatalf("unmarshal json log: %v", err)
	}
	return m
}

// TestInitAndStructuredLoggingToFile verifies that the rotating file sink gets
// JSON records carrying the static and contextual attributes.
func TestInitAndStructuredLoggingToFile(t *testing.T) {
	// system temp dir so Windows does not trip over the still-open handle
	fpath := filepath.Join(os.TempDir(), fmt.Sprintf("sb_log_%d.json", time.Now().UnixNano()))

	InitWriter(Options{Level: "debug", Format: "json", File: fpath}, &bytes.Buffer{})

	l := WithComponent("testcomp")
	l = WithOperation(l, "op1")
	l = WithCanvas(l, "canvas-1")
	l.Info("hello world", slog.String("k", "v"))

	time.Sleep(50 * time.Millisecond)

	b, err := os.ReadFile(fpath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	m := lastJSONLine(t, b)

	if m["app"] != "stickyboard" {
		t.Fatalf("missing app attr: %v", m["app"])
	}
	if _, ok := m["ver"].(string); !ok {
		t.Fatalf("missing ver attr")
	}
	if m["component"] != "testcomp" {
		t.Fatalf("component attr mismatch: %v", m["component"])
	}
	if m["op"] != "op1" {
		t.Fatalf("op attr mismatch: %v", m["op"])
	}
	if m["canvas"] != "canvas-1" {
		t.Fatalf("canvas attr mismatch: %v", m["canvas"])
	}
	if m["msg"] != "hello world" {
		t.Fatalf("msg mismatch: %v", m["msg"])
	}
}

func TestInitWriter_ConsoleLevelFilter(t *testing.T) {
	var buf bytes.Buffer
	InitWriter(Options{Level: "warn"}, &buf)

	L().Info("quiet")
	L().Warn("loud", slog.Int("notes", 3))

	out := buf.String()
	if strings.Contains(out, "quiet") {
		t.Fatalf("info record passed warn filter: %q", out)
	}
	if !strings.Contains(out, "WRN loud") || !strings.Contains(out, "notes=3") {
		t.Fatalf("warn record missing: %q", out)
	}
	if strings.Contains(out, "app=stickyboard") {
		t.Fatalf("static attrs should stay off the console: %q", out)
	}
}

func TestConsoleComponentTag(t *testing.T) {
	var buf bytes.Buffer
	InitWriter(Options{Level: "info"}, &buf)

	WithComponent("storage").Info("saved", slog.String("canvas", "c1"))
	if !strings.Contains(buf.String(), "INF [storage] saved canvas=c1") {
		t.Fatalf("component tag missing: %q", buf.String())
	}
}

func TestDiscard(t *testing.T) {
	l := Discard()
	if l == nil {
		t.Fatalf("nil logger")
	}
	l.Error("dropped")
}
