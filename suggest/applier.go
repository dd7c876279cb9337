// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package suggest applies layout suggestions to the scene.
//
// A suggestion batch is an ordered list of variants, each a complete
// alternative element list. Applying a variant replaces the scene
// wholesale; nothing is merged with the previous elements and incoming
// IDs and Z values are kept as they arrive.
package suggest

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/gogpu/adstudio"
	"github.com/gogpu/adstudio/canvas"
)

// ErrNoVariant is returned by Apply for an index outside the batch.
var ErrNoVariant = errors.New("suggest: no such variant")

// Variant is one candidate layout.
type Variant struct {
	Label    string           `json:"type"`
	Elements []canvas.Element `json:"elements"`
}

// Replacer is the part of the Scene Store the applier needs.
type Replacer interface {
	ReplaceAll(elems []canvas.Element)
}

// Applier holds the latest suggestion batch and applies its variants.
//
// Applier is safe for concurrent use.
type Applier struct {
	scene Replacer

	mu      sync.Mutex
	batch   []Variant
	applied int
}

// NewApplier creates an applier that writes into scene.
func NewApplier(scene Replacer) *Applier {
	return &Applier{scene: scene, applied: -1}
}

// Receive installs a new batch and applies its first variant right away.
// The whole batch is kept for later manual selection. An empty batch, or
// a first variant without an element list, leaves the scene untouched.
func (a *Applier) Receive(batch []Variant) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.batch = cloneBatch(batch)
	a.applied = -1
	if len(a.batch) == 0 || a.batch[0].Elements == nil {
		adstudio.Logger().Debug("suggest: batch received, nothing to auto-apply", "variants", len(a.batch))
		return
	}
	a.applyLocked(0)
}

// Apply replaces the scene with variant i of the current batch.
// Re-applying the auto-applied first variant yields the same scene.
func (a *Applier) Apply(i int) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if i < 0 || i >= len(a.batch) {
		return fmt.Errorf("%w: %d of %d", ErrNoVariant, i, len(a.batch))
	}
	a.applyLocked(i)
	return nil
}

func (a *Applier) applyLocked(i int) {
	v := a.batch[i]
	a.scene.ReplaceAll(v.Elements)
	a.applied = i
	adstudio.Logger().Debug("suggest: variant applied", "index", i, "label", v.Label, "elements", len(v.Elements))
}

// Variants returns a copy of the current batch.
func (a *Applier) Variants() []Variant {
	a.mu.Lock()
	defer a.mu.Unlock()
	return cloneBatch(a.batch)
}

// Applied returns the index of the last applied variant of the current
// batch, or -1 when none has been applied.
func (a *Applier) Applied() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.applied
}

func cloneBatch(batch []Variant) []Variant {
	if batch == nil {
		return nil
	}
	out := make([]Variant, len(batch))
	for i, v := range batch {
		out[i] = Variant{Label: v.Label, Elements: slices.Clone(v.Elements)}
	}
	return out
}
