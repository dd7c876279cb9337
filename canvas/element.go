// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package canvas

// Kind identifies what an element draws.
type Kind string

// Element kinds.
const (
	KindText  Kind = "text"
	KindImage Kind = "image"
	KindLogo  Kind = "logo"
)

// IsImage reports whether elements of this kind carry an image reference.
func (k Kind) IsImage() bool {
	return k == KindImage || k == KindLogo
}

// Default element geometry and text styling.
const (
	DefaultX = 60
	DefaultY = 60

	DefaultTextWidth    = 400
	DefaultTextHeight   = 80
	DefaultTextContent  = "Your headline"
	DefaultTextFontSize = 36

	DefaultImageWidth  = 320
	DefaultImageHeight = 320
)

// Size is the logical size of the canvas. All element coordinates live
// in this space, independent of any export resolution.
type Size struct {
	W float64 `json:"w" yaml:"width"`
	H float64 `json:"h" yaml:"height"`
}

// DefaultSize is the 1200×628 canvas used by the studio.
var DefaultSize = Size{W: 1200, H: 628}

// IsEmpty reports whether either dimension is not positive.
func (s Size) IsEmpty() bool {
	return s.W <= 0 || s.H <= 0
}

// Point is a position in canvas or screen space.
type Point struct {
	X, Y float64
}

// Pt is shorthand for Point{x, y}.
func Pt(x, y float64) Point {
	return Point{X: x, Y: y}
}

// Sub returns p - q.
func (p Point) Sub(q Point) Point {
	return Point{X: p.X - q.X, Y: p.Y - q.Y}
}

// Element is one positioned visual unit of the scene.
//
// ID is assigned by the Store on Add and never changes afterwards.
// Text elements use Content, FontSize and Color; image and logo elements
// use Src. Zero FontSize and empty Color mean "use the renderer default".
type Element struct {
	ID   string  `json:"id"`
	Kind Kind    `json:"type"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	W    float64 `json:"w"`
	H    float64 `json:"h"`
	Z    int     `json:"z"`

	Content  string  `json:"content,omitempty"`
	FontSize float64 `json:"fontSize,omitempty"`
	Color    string  `json:"color,omitempty"`

	Src string `json:"src,omitempty"`
}

// Contains reports whether p lies inside the element's rectangle.
// Both edges are inclusive so zero-sized elements can still be hit.
func (e Element) Contains(p Point) bool {
	return p.X >= e.X && p.X <= e.X+e.W && p.Y >= e.Y && p.Y <= e.Y+e.H
}

// NewText returns a partial text element with the studio defaults.
func NewText() Element {
	return Element{
		Kind:     KindText,
		X:        DefaultX,
		Y:        DefaultY,
		W:        DefaultTextWidth,
		H:        DefaultTextHeight,
		Content:  DefaultTextContent,
		FontSize: DefaultTextFontSize,
	}
}

// NewImage returns a partial image or logo element referencing src.
func NewImage(kind Kind, src string) Element {
	if !kind.IsImage() {
		kind = KindImage
	}
	return Element{
		Kind: kind,
		X:    DefaultX,
		Y:    DefaultY,
		W:    DefaultImageWidth,
		H:    DefaultImageHeight,
		Src:  src,
	}
}

// Patch is a partial update. Nil fields are left untouched.
type Patch struct {
	X, Y     *float64
	W, H     *float64
	Content  *string
	FontSize *float64
	Color    *string
	Src      *string
}

// Move returns a patch that sets the position only.
func Move(x, y float64) Patch {
	return Patch{X: &x, Y: &y}
}

// SetContent returns a patch that replaces the text content only.
func SetContent(s string) Patch {
	return Patch{Content: &s}
}

func (p Patch) apply(e *Element) {
	if p.X != nil {
		e.X = *p.X
	}
	if p.Y != nil {
		e.Y = *p.Y
	}
	if p.W != nil {
		e.W = *p.W
	}
	if p.H != nil {
		e.H = *p.H
	}
	if p.Content != nil {
		e.Content = *p.Content
	}
	if p.FontSize != nil {
		e.FontSize = *p.FontSize
	}
	if p.Color != nil {
		e.Color = *p.Color
	}
	if p.Src != nil {
		e.Src = *p.Src
	}
}
