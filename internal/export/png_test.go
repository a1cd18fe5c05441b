/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package export

import (
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

func TestCanvasPNG(t *testing.T) {
	l := NewLayout("Board", sampleNotes(), 10)
	out := filepath.Join(t.TempDir(), "pngtest", "board.png")
	if err := CanvasPNG(l, out, PNGOptions{Scale: 2}); err != nil {
		t.Fatalf("export png: %v", err)
	}
	f, err := os.Open(out)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 840 || b.Dy() != 500 {
		t.Fatalf("size = %dx%d, want 840x500", b.Dx(), b.Dy())
	}
}

func TestRenderImageFillsNotes(t *testing.T) {
	l := NewLayout("", sampleNotes(), 10)
	img := RenderImage(l, PNGOptions{})
	// below the text of the bottom note, left of the top note
	got := img.RGBAAt(30, 140)
	if want := ParseHex("#FFF9C4"); got != want {
		t.Fatalf("pixel = %v, want note fill %v", got, want)
	}
	if got := img.RGBAAt(2, 2); got.R != 255 || got.G != 255 || got.B != 255 {
		t.Fatalf("margin pixel = %v, want white", got)
	}
}
