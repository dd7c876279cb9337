// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package canvas holds the scene model: elements positioned in canvas
// space and the Store that owns them.
//
// The Store keeps elements in insertion order, which is also paint order.
// Z values produced by Add follow that order; ReplaceAll installs
// whatever order and Z values it is given.
//
//	store := canvas.NewStore()
//	headline := store.Add(canvas.NewText())
//	store.Update(headline.ID, canvas.SetContent("Summer sale"))
//	snap := store.Snapshot()
package canvas
