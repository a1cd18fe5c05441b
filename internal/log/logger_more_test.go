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
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"strings"
	"testing"
	"time"
)

func TestFromEnvAndGetenv(t *testing.T) {
	t.Setenv(EnvLevel, "warn")
	t.Setenv(EnvFormat, "json")
	t.Setenv(EnvSource, "true")
	t.Setenv(EnvFile, "")

	opts := FromEnv()
	if opts.Level != "warn" || opts.Format != "json" || !opts.AddSource || opts.File != "" {
		t.Fatalf("FromEnv mismatch: %+v", opts)
	}

	if err := os.Unsetenv("SB_SOME_UNSET_VAR"); err != nil {
		t.Fatalf("Unsetenv error: %v", err)
	}
	if v := getenv("SB_SOME_UNSET_VAR", "fallback"); v != "fallback" {
		t.Fatalf("getenv fallback failed: %q", v)
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" WARN ":  slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range cases {
		if got := parseLevel(in).Level(); got != want {
			t.Errorf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestConsoleHandler_Behavior(t *testing.T) {
	var buf bytes.Buffer
	h := newConsoleHandler(&buf, slog.LevelWarn, true)
	h.now = func() time.Time { return time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC) }
	ctx := context.Background()

	if h.Enabled(ctx, slog.LevelInfo) {
		t.Fatalf("info should not be enabled at warn level")
	}
	if !h.Enabled(ctx, slog.LevelError) {
		t.Fatalf("error should be enabled at warn level")
	}

	h2 := h.WithAttrs([]slog.Attr{slog.String("k", "v"), slog.String("component", "session")})
	h2 = h2.WithGroup("grp")

	r := slog.NewRecord(time.Now(), slog.LevelError, "boom", 0)
	r.AddAttrs(slog.Int("n", 42), slog.Float64("zoom", 1.25), slog.Bool("ok", true),
		slog.String("name", "Canvas 1"), slog.Duration("wait", 500*time.Millisecond))
	if err := h2.Handle(ctx, r); err != nil {
		t.Fatalf("handle error: %v", err)
	}

	out := buf.String()
	if !strings.HasPrefix(out, "09:30:00.000 ERR [session] boom k=v") {
		t.Fatalf("unexpected line head: %q", out)
	}
	for _, want := range []string{"grp.n=42", "grp.zoom=1.25", "grp.ok=true", `grp.name="Canvas 1"`, "grp.wait=500ms"} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in %q", want, out)
		}
	}
}

func TestConsoleHandler_ErrorValueQuoted(t *testing.T) {
	var buf bytes.Buffer
	l := slog.New(newConsoleHandler(&buf, slog.LevelInfo, false))
	l.Info("save failed", slog.Any("err", errors.New("quota exceeded")))
	if !strings.Contains(buf.String(), `err="quota exceeded"`) {
		t.Fatalf("error value not quoted: %q", buf.String())
	}
}

func TestFanout(t *testing.T) {
	var a, b bytes.Buffer
	m := fanout{
		newConsoleHandler(&a, slog.LevelInfo, false),
		newConsoleHandler(&b, slog.LevelError, false),
	}
	l := slog.New(m)
	l.Info("saved")
	if !strings.Contains(a.String(), "saved") {
		t.Fatalf("info handler missed record: %q", a.String())
	}
	if b.Len() != 0 {
		t.Fatalf("error handler should have filtered info: %q", b.String())
	}
	l.Error("quota")
	if !strings.Contains(b.String(), "quota") {
		t.Fatalf("error handler missed record: %q", b.String())
	}
}
