/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// run executes the root command against an isolated data dir and config file.
func run(t *testing.T, dataDir string, args ...string) (string, error) {
	t.Helper()
	t.Setenv("SB_CONFIG", filepath.Join(t.TempDir(), "config.yaml"))
	t.Setenv("SB_LOG_LEVEL", "error")

	verbose, dataDirFlag, backendFlag = false, "", ""
	canvasesJSON = false
	noteCanvas, noteX, noteY, noteColor = "", 0, 0, ""
	exportCanvas, exportFormat, exportScale, exportMargin = "", "", 1, 24
	searchCanvas, searchColor, searchLimit = "", "", 50

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs(append([]string{"--data-dir", dataDir}, args...))
	err := rootCmd.Execute()
	return out.String(), err
}

func listCanvases(t *testing.T, dataDir string) []canvasRow {
	t.Helper()
	out, err := run(t, dataDir, "canvases", "--json")
	require.NoError(t, err)
	var rows []canvasRow
	require.NoError(t, json.Unmarshal([]byte(out), &rows))
	return rows
}

func TestVersion(t *testing.T) {
	out, err := run(t, t.TempDir(), "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "stickyboard "))
}

func TestFirstRunBootstrapsCanvas(t *testing.T) {
	dir := t.TempDir()
	rows := listCanvases(t, dir)
	require.Len(t, rows, 1)
	assert.Equal(t, "Canvas 1", rows[0].Name)
	assert.True(t, rows[0].Active)
	assert.Equal(t, 0, rows[0].Notes)
}

func TestCanvasLifecycle(t *testing.T) {
	dir := t.TempDir()
	out, err := run(t, dir, "canvas", "create", "Ideas")
	require.NoError(t, err)
	assert.Contains(t, out, `"Ideas"`)

	rows := listCanvases(t, dir)
	require.Len(t, rows, 2)

	_, err = run(t, dir, "canvas", "rename", "Ideas", "Plans")
	require.NoError(t, err)
	_, err = run(t, dir, "canvas", "select", "Canvas 1")
	require.NoError(t, err)

	rows = listCanvases(t, dir)
	names := map[string]bool{}
	for _, r := range rows {
		names[r.Name] = r.Active
	}
	assert.Equal(t, map[string]bool{"Canvas 1": true, "Plans": false}, names)

	_, err = run(t, dir, "canvas", "delete", "Plans")
	require.NoError(t, err)
	_, err = run(t, dir, "canvas", "delete", "Canvas 1")
	assert.Error(t, err, "the last canvas cannot be deleted")
	assert.Len(t, listCanvases(t, dir), 1)
}

func TestUnknownCanvas(t *testing.T) {
	_, err := run(t, t.TempDir(), "canvas", "select", "nope")
	assert.Error(t, err)
}

func TestNoteAddAndSearch(t *testing.T) {
	dir := t.TempDir()
	_, err := run(t, dir, "note", "add", "--x", "40", "--y", "60", "buy", "oat", "milk")
	require.NoError(t, err)
	_, err = run(t, dir, "note", "add", "--color", "#c8e6c9", "call the plumber")
	require.NoError(t, err)

	rows := listCanvases(t, dir)
	require.Len(t, rows, 1)
	assert.Equal(t, 2, rows[0].Notes)

	out, err := run(t, dir, "search", "milk")
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(out, "\n"), out)

	out, err = run(t, dir, "search", "--color", "#C8E6C9")
	require.NoError(t, err)
	assert.Contains(t, out, "#C8E6C9")
	assert.Equal(t, 1, strings.Count(out, "\n"), out)
}

func TestNoteAddRejectsUnknownColor(t *testing.T) {
	_, err := run(t, t.TempDir(), "note", "add", "--color", "#123456", "x")
	assert.Error(t, err)
}

func TestExportFormats(t *testing.T) {
	dir := t.TempDir()
	_, err := run(t, dir, "note", "add", "hello")
	require.NoError(t, err)

	outDir := t.TempDir()
	for _, name := range []string{"board.pdf", "board.png", "board.svg"} {
		p := filepath.Join(outDir, name)
		_, err := run(t, dir, "export", p)
		require.NoError(t, err, name)
		st, err := os.Stat(p)
		require.NoError(t, err)
		assert.Positive(t, st.Size(), name)
	}

	_, err = run(t, dir, "export", filepath.Join(outDir, "board.gif"))
	assert.Error(t, err)
}

func TestGC(t *testing.T) {
	out, err := run(t, t.TempDir(), "gc")
	require.NoError(t, err)
	assert.Contains(t, out, "Removed 0 orphan")
}
