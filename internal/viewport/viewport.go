/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package viewport owns the pan/zoom transform of the active canvas and maps
// points between screen space and canvas space.
package viewport

import (
	"math"
	"sync"

	"stickyboard/internal/domain"
	"stickyboard/internal/vector"
)

const (
	DefaultZoomMin = 0.1
	DefaultZoomMax = 5.0
	// WheelFactor converts a wheel delta (pixels) into a zoom delta.
	WheelFactor = 0.001
	// BaseGridSize is the grid spacing in screen pixels at zoom 1.
	BaseGridSize = 20.0
)

// Engine holds {x, y, zoom}. The offset is in screen pixels; zoom stays inside [min, max].
// OnChange, if set, is called after every state change outside the lock.
type Engine struct {
	mu       sync.Mutex
	state    domain.ViewState
	min, max float64
	panning  bool
	panLast  vector.Pt
	onChange func(domain.ViewState)
}

// New returns an engine at the identity transform. Invalid limits fall back to the defaults.
func New(zoomMin, zoomMax float64) *Engine {
	if zoomMin <= 0 || zoomMax <= zoomMin {
		zoomMin, zoomMax = DefaultZoomMin, DefaultZoomMax
	}
	return &Engine{state: domain.DefaultViewState(), min: zoomMin, max: zoomMax}
}

// OnChange registers the change callback, replacing any previous one.
func (e *Engine) OnChange(fn func(domain.ViewState)) {
	e.mu.Lock()
	e.onChange = fn
	e.mu.Unlock()
}

func (e *Engine) State() domain.ViewState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Limits returns the zoom range.
func (e *Engine) Limits() (float64, float64) { return e.min, e.max }

// update applies fn under the lock and notifies if the state changed.
func (e *Engine) update(fn func(s *domain.ViewState)) {
	e.mu.Lock()
	before := e.state
	fn(&e.state)
	after := e.state
	cb := e.onChange
	e.mu.Unlock()
	if cb != nil && after != before {
		cb(after)
	}
}

func (e *Engine) clampZoom(z float64) float64 {
	if math.IsNaN(z) || math.IsInf(z, 0) {
		return 1
	}
	return vector.Clamp(z, e.min, e.max)
}

// SetState replaces the transform, clamping zoom. Used when a canvas is loaded.
// It does not notify, so loading a canvas does not count as a change.
func (e *Engine) SetState(v domain.ViewState) {
	e.mu.Lock()
	v.Zoom = e.clampZoom(v.Zoom)
	e.state = v
	e.panning = false
	e.mu.Unlock()
}

// Reset returns to {0, 0, 1}.
func (e *Engine) Reset() {
	e.update(func(s *domain.ViewState) {
		*s = domain.DefaultViewState()
		s.Zoom = e.clampZoom(1)
	})
}

// Pan shifts the offset by (dx, dy) screen pixels.
func (e *Engine) Pan(dx, dy float64) {
	e.update(func(s *domain.ViewState) {
		s.X += dx
		s.Y += dy
	})
}

// BeginPan starts a pointer pan gesture at screen point p.
func (e *Engine) BeginPan(p vector.Pt) {
	e.mu.Lock()
	e.panning = true
	e.panLast = p
	e.mu.Unlock()
}

// PanTo moves the offset by the pointer delta since the last call. Ignored when no pan is active.
func (e *Engine) PanTo(p vector.Pt) {
	e.mu.Lock()
	if !e.panning {
		e.mu.Unlock()
		return
	}
	d := p.Sub(e.panLast)
	e.panLast = p
	e.mu.Unlock()
	e.Pan(d.X, d.Y)
}

func (e *Engine) EndPan() {
	e.mu.Lock()
	e.panning = false
	e.mu.Unlock()
}

func (e *Engine) Panning() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.panning
}

// ZoomAt changes zoom by delta while keeping the canvas point under screen point p fixed:
// offset' = offset - (p - offset) * (newZoom/zoom - 1).
func (e *Engine) ZoomAt(p vector.Pt, delta float64) {
	e.update(func(s *domain.ViewState) {
		old := e.clampZoom(s.Zoom)
		nz := e.clampZoom(old + delta)
		if nz == old {
			s.Zoom = old
			return
		}
		k := nz/old - 1
		s.X -= (p.X - s.X) * k
		s.Y -= (p.Y - s.Y) * k
		s.Zoom = nz
	})
}

// WheelZoom applies a mouse wheel step at p. Scrolling up (negative deltaY) zooms in.
func (e *Engine) WheelZoom(p vector.Pt, deltaY float64) {
	e.ZoomAt(p, -deltaY*WheelFactor)
}

// ScreenToCanvas maps a screen point into canvas space: (p - offset) / zoom.
func (e *Engine) ScreenToCanvas(p vector.Pt) vector.Pt {
	s := e.State()
	return ScreenToCanvas(s, p)
}

// CanvasToScreen is the inverse of ScreenToCanvas.
func (e *Engine) CanvasToScreen(p vector.Pt) vector.Pt {
	s := e.State()
	return CanvasToScreen(s, p)
}

// ScreenToCanvas maps p through an arbitrary view state.
func ScreenToCanvas(s domain.ViewState, p vector.Pt) vector.Pt {
	z := s.Zoom
	if z <= 0 {
		z = 1
	}
	return vector.Pt{X: (p.X - s.X) / z, Y: (p.Y - s.Y) / z}
}

func CanvasToScreen(s domain.ViewState, p vector.Pt) vector.Pt {
	z := s.Zoom
	if z <= 0 {
		z = 1
	}
	return vector.Pt{X: p.X*z + s.X, Y: p.Y*z + s.Y}
}

// GridSize is the canvas-space grid spacing: BaseGridSize halved for every doubling of zoom,
// so the on-screen spacing stays between 20 and 40 pixels.
func (e *Engine) GridSize() float64 {
	z := e.State().Zoom
	return BaseGridSize / math.Pow(2, math.Floor(math.Log2(z)))
}

// GridOpacity fades the grid out when zoomed out.
func (e *Engine) GridOpacity() float64 {
	return vector.Clamp(0.1*e.State().Zoom, 0.05, 0.15)
}
