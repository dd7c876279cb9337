// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package pointer turns raw pointer events into bounded element moves.
//
// The Controller is a two-state machine. In Idle, a Down that hits an
// element selects it and starts a drag; in Dragging, every Move writes a
// clamped position to the store and Up always ends the drag. While a drag
// is active the controller holds pointer capture: front ends must route
// every move and release to it, wherever the pointer is on screen.
package pointer

import (
	"github.com/gogpu/adstudio"
	"github.com/gogpu/adstudio/canvas"
)

// State is the controller state.
type State int

// Controller states.
const (
	Idle State = iota
	Dragging
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Dragging:
		return "dragging"
	default:
		return "unknown"
	}
}

// Scene is the part of the Scene Store the controller needs.
type Scene interface {
	HitTest(p canvas.Point) (canvas.Element, bool)
	Get(id string) (canvas.Element, bool)
	Update(id string, p canvas.Patch)
}

// Controller translates pointer events into moves against a Scene.
//
// Pointer positions are given in screen space; origin is where the
// canvas root sits in that space. Controller is not safe for concurrent
// use: it expects events from a single event loop.
type Controller struct {
	scene  Scene
	size   canvas.Size
	origin canvas.Point

	state    State
	activeID string
	grab     canvas.Point

	selected    string
	hasSelected bool
}

// NewController creates an idle controller for a canvas of the given size.
func NewController(scene Scene, size canvas.Size) *Controller {
	return &Controller{scene: scene, size: size}
}

// SetOrigin sets the canvas root position in screen space.
func (c *Controller) SetOrigin(p canvas.Point) {
	c.origin = p
}

// State returns the current state.
func (c *Controller) State() State {
	return c.state
}

// Captured reports whether the controller holds pointer capture.
func (c *Controller) Captured() bool {
	return c.state == Dragging
}

// Dragging returns the id of the element being dragged.
func (c *Controller) Dragging() (string, bool) {
	return c.activeID, c.state == Dragging
}

// Selected returns the currently selected element id. Selection survives
// the end of a drag and only changes on the next hit.
func (c *Controller) Selected() (string, bool) {
	return c.selected, c.hasSelected
}

// Down handles a pointer press at p. It returns true when a drag started.
// A press that hits nothing leaves both selection and state unchanged.
func (c *Controller) Down(p canvas.Point) bool {
	local := p.Sub(c.origin)
	el, ok := c.scene.HitTest(local)
	if !ok {
		return false
	}

	c.selected, c.hasSelected = el.ID, true
	c.state = Dragging
	c.activeID = el.ID
	c.grab = local.Sub(canvas.Pt(el.X, el.Y))

	adstudio.Logger().Debug("pointer: drag start",
		"id", el.ID, "grab_x", c.grab.X, "grab_y", c.grab.Y)
	return true
}

// Move handles pointer motion to p. Outside a drag it does nothing.
// The returned position is the clamped value written to the scene.
func (c *Controller) Move(p canvas.Point) (canvas.Point, bool) {
	if c.state != Dragging {
		return canvas.Point{}, false
	}

	el, ok := c.scene.Get(c.activeID)
	if !ok {
		// The element was replaced away mid-drag; the drag keeps running
		// until Up but has nothing left to move.
		return canvas.Point{}, false
	}

	cand := p.Sub(c.origin).Sub(c.grab)
	pos := Clamp(cand, el.W, el.H, c.size)
	c.scene.Update(c.activeID, canvas.Move(pos.X, pos.Y))
	return pos, true
}

// Up ends any drag, regardless of where the pointer is released.
func (c *Controller) Up(canvas.Point) {
	if c.state == Dragging {
		adstudio.Logger().Debug("pointer: drag end", "id", c.activeID)
	}
	c.state = Idle
	c.activeID = ""
	c.grab = canvas.Point{}
}

// Clamp bounds the top-left corner p of a w×h element so the element
// stays inside size: X in [0, size.W-w], Y in [0, size.H-h]. When an
// element is larger than the canvas the upper bound collapses to 0.
func Clamp(p canvas.Point, w, h float64, size canvas.Size) canvas.Point {
	return canvas.Point{
		X: clampAxis(p.X, size.W-w),
		Y: clampAxis(p.Y, size.H-h),
	}
}

func clampAxis(v, upper float64) float64 {
	return max(0, min(upper, v))
}
