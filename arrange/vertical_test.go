// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package arrange

import (
	"testing"

	"github.com/gogpu/adstudio/canvas"
)

func TestVertical(t *testing.T) {
	elems := []canvas.Element{
		{ID: "t", Kind: canvas.KindText, X: 500, Y: 300, W: 400, H: 80, Z: 1, Content: "hi"},
		{ID: "noheight", Kind: canvas.KindImage, X: 1, Y: 1, W: 50, Z: 2},
		{ID: "logo", Kind: canvas.KindLogo, X: 9, Y: 9, W: 100, H: 100, Z: 3},
	}

	v := Vertical(elems, canvas.DefaultSize)
	if v.Label != VerticalLabel {
		t.Errorf("Label = %q", v.Label)
	}

	wantY := []float64{20, 120, 340}
	for i, e := range v.Elements {
		if e.X != Spacing || e.Y != wantY[i] {
			t.Errorf("element %d at (%v,%v), want (20,%v)", i, e.X, e.Y, wantY[i])
		}
		if e.ID != elems[i].ID || e.Z != elems[i].Z || e.W != elems[i].W {
			t.Errorf("element %d lost fields: %+v", i, e)
		}
	}
	if elems[0].X != 500 {
		t.Error("Vertical mutated its input")
	}
}

func TestSuggestSingleVariant(t *testing.T) {
	got := Suggest(nil, canvas.DefaultSize)
	if len(got) != 1 || len(got[0].Elements) != 0 {
		t.Errorf("Suggest(nil) = %+v", got)
	}
}
