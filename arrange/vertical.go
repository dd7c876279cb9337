// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package arrange computes layout suggestions for a scene.
package arrange

import (
	"github.com/gogpu/adstudio/canvas"
	"github.com/gogpu/adstudio/suggest"
)

// Layout parameters of the vertical arrangement.
const (
	Spacing       = 20
	DefaultHeight = 200

	VerticalLabel = "Simple Vertical Layout"
)

// Vertical stacks elements top to bottom at x = Spacing, each one
// Spacing below the previous. Elements without a height count as
// DefaultHeight. Every other field, including ID and Z, is kept.
//
// The canvas size is accepted for future layouts; the vertical stack
// does not fit elements to it.
func Vertical(elems []canvas.Element, _ canvas.Size) suggest.Variant {
	out := make([]canvas.Element, len(elems))
	y := float64(Spacing)
	for i, e := range elems {
		e.X = Spacing
		e.Y = y
		out[i] = e

		h := e.H
		if h == 0 {
			h = DefaultHeight
		}
		y += h + Spacing
	}
	return suggest.Variant{Label: VerticalLabel, Elements: out}
}

// Suggest returns the suggestion batch for elems.
func Suggest(elems []canvas.Element, size canvas.Size) []suggest.Variant {
	return []suggest.Variant{Vertical(elems, size)}
}
