/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package vector

import "testing"

func TestRectContainsAndInset(t *testing.T) {
	r := R(10, 20, 100, 50)
	if !r.Contains(Pt{10, 20}) || !r.Contains(Pt{110, 70}) {
		t.Fatalf("expected edge points to be contained")
	}
	if r.Contains(Pt{110.5, 70}) {
		t.Fatalf("point right of rect should not be contained")
	}
	in := r.Inset(5, 5)
	if in.X != 15 || in.Y != 25 || in.W != 90 || in.H != 40 {
		t.Fatalf("unexpected inset: %+v", in)
	}
}

func TestRectUnion(t *testing.T) {
	u := R(0, 0, 10, 10).Union(R(-5, 5, 10, 20))
	if u.X != -5 || u.Y != 0 || u.W != 15 || u.H != 25 {
		t.Fatalf("unexpected union: %+v", u)
	}
	if got := (Rect{}).Union(R(1, 2, 3, 4)); got != R(1, 2, 3, 4) {
		t.Fatalf("union with empty should return other, got %+v", got)
	}
}

func TestPointOps(t *testing.T) {
	p := Pt{3, 4}
	if d := p.Dist(Pt{}); d != 5 {
		t.Fatalf("Dist = %v, want 5", d)
	}
	if got := p.Sub(Pt{1, 1}).Scale(2).Add(Pt{1, 0}); got != (Pt{5, 6}) {
		t.Fatalf("unexpected point arithmetic: %+v", got)
	}
	if Clamp(7, 0, 5) != 5 || Clamp(-1, 0, 5) != 0 || Clamp(3, 0, 5) != 3 {
		t.Fatalf("Clamp misbehaves")
	}
	if FloatRound(1.23456, 2) != 1.23 {
		t.Fatalf("FloatRound misbehaves")
	}
}
