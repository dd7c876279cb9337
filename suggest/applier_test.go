// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package suggest

import (
	"errors"
	"testing"

	"github.com/gogpu/adstudio/canvas"
)

func twoVariants() []Variant {
	return []Variant{
		{Label: "Simple Vertical Layout", Elements: []canvas.Element{
			{ID: "a1", Kind: canvas.KindText, X: 20, Y: 20, W: 400, H: 80, Z: 4, Content: "one"},
			{ID: "a2", Kind: canvas.KindImage, X: 20, Y: 120, W: 320, H: 320, Z: 9, Src: "blob:a"},
		}},
		{Label: "Hero", Elements: []canvas.Element{
			{ID: "b1", Kind: canvas.KindLogo, X: 500, Y: 10, W: 100, H: 100, Z: 1, Src: "blob:b"},
		}},
	}
}

func ids(elems []canvas.Element) []string {
	out := make([]string, len(elems))
	for i, e := range elems {
		out[i] = e.ID
	}
	return out
}

func TestReceiveAutoAppliesFirst(t *testing.T) {
	store := canvas.NewStore()
	store.Add(canvas.NewText())
	a := NewApplier(store)

	a.Receive(twoVariants())

	snap := store.Snapshot()
	if got := ids(snap); len(got) != 2 || got[0] != "a1" || got[1] != "a2" {
		t.Fatalf("scene after Receive = %v, want [a1 a2]", got)
	}
	if snap[0].Z != 4 || snap[1].Z != 9 {
		t.Errorf("Z values rewritten: %d, %d", snap[0].Z, snap[1].Z)
	}
	if a.Applied() != 0 {
		t.Errorf("Applied = %d, want 0", a.Applied())
	}
	if n := len(a.Variants()); n != 2 {
		t.Errorf("batch kept %d variants, want 2", n)
	}
}

// Applying variant 2 discards variant 1 entirely.
func TestApplyReplacesWithoutMerge(t *testing.T) {
	store := canvas.NewStore()
	a := NewApplier(store)
	a.Receive(twoVariants())

	if err := a.Apply(1); err != nil {
		t.Fatalf("Apply(1): %v", err)
	}
	snap := store.Snapshot()
	if got := ids(snap); len(got) != 1 || got[0] != "b1" {
		t.Fatalf("scene = %v, want [b1]", got)
	}
	if _, ok := store.Get("a1"); ok {
		t.Error("variant 1 element survived")
	}
}

func TestReapplyFirstIsIdempotent(t *testing.T) {
	store := canvas.NewStore()
	a := NewApplier(store)
	a.Receive(twoVariants())
	before := store.Snapshot()

	if err := a.Apply(0); err != nil {
		t.Fatalf("Apply(0): %v", err)
	}
	after := store.Snapshot()
	if len(before) != len(after) {
		t.Fatalf("len %d -> %d", len(before), len(after))
	}
	for i := range before {
		if before[i] != after[i] {
			t.Errorf("element %d: %+v -> %+v", i, before[i], after[i])
		}
	}
}

func TestApplyIsolatedFromSceneEdits(t *testing.T) {
	store := canvas.NewStore()
	a := NewApplier(store)
	a.Receive(twoVariants())

	store.Update("a1", canvas.Move(300, 300))
	if err := a.Apply(0); err != nil {
		t.Fatal(err)
	}
	got, _ := store.Get("a1")
	if got.X != 20 || got.Y != 20 {
		t.Errorf("re-applied variant carries scene edit: (%v,%v)", got.X, got.Y)
	}
}

func TestReceiveEmptyLeavesScene(t *testing.T) {
	store := canvas.NewStore()
	kept := store.Add(canvas.NewText())
	a := NewApplier(store)

	a.Receive(nil)
	a.Receive([]Variant{})
	a.Receive([]Variant{{Label: "no elements"}})

	if _, ok := store.Get(kept.ID); !ok || store.Len() != 1 {
		t.Errorf("scene changed by an empty batch: %v", ids(store.Snapshot()))
	}
	if a.Applied() != -1 {
		t.Errorf("Applied = %d, want -1", a.Applied())
	}
}

func TestApplyOutOfRange(t *testing.T) {
	a := NewApplier(canvas.NewStore())
	a.Receive(twoVariants())

	for _, i := range []int{-1, 2, 100} {
		if err := a.Apply(i); !errors.Is(err, ErrNoVariant) {
			t.Errorf("Apply(%d) err = %v, want ErrNoVariant", i, err)
		}
	}
}

func TestReceiveCopiesBatch(t *testing.T) {
	store := canvas.NewStore()
	a := NewApplier(store)
	batch := twoVariants()
	a.Receive(batch)

	batch[1].Elements[0].ID = "mutated"
	if err := a.Apply(1); err != nil {
		t.Fatal(err)
	}
	if got := ids(store.Snapshot()); got[0] != "b1" {
		t.Errorf("applier aliased caller batch: %v", got)
	}
}
