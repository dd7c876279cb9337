// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package export rasterizes scene snapshots to PNG files with gg.
//
// Rendering is a pure function of the snapshot, the canvas size and the
// output size: the output is filled white, every element is mapped
// through sx = outW/canvasW and sy = outH/canvasH, images are stretched
// into their mapped rectangle and text is drawn with a font size scaled
// by sy. Elements are painted in snapshot order.
//
//	x := export.New(export.WithLoader(loader))
//	err := x.Export(ctx, store.Snapshot(), canvas.DefaultSize,
//		export.Preset1080x1080, export.DirSink{Dir: "out"})
//
// A broken image reference never fails an export; the element is left
// out and a warning is logged through adstudio.Logger.
package export
