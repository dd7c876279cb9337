// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package adstudio composes ad creatives on a fixed-size canvas and
// rasterizes them with gg.
//
// # Overview
//
// A creative is a small scene of positioned elements (headline text,
// product photo, logo) living in canvas space, a logical coordinate
// system independent of any output resolution. The scene is edited with
// pointer drags and exported to PNG at arbitrary sizes.
//
// # Architecture
//
// The module is organized into:
//   - canvas: the Scene Store (elements, snapshots, hit testing)
//   - pointer: the drag state machine with clamping
//   - export: rasterization through gg.Context and PNG sinks
//   - assets: image reference resolution (remote URLs, local blobs)
//   - suggest: application of layout suggestion batches
//   - collab: HTTP clients for the background removal, layout and
//     compliance services
//   - studio: the session object tying it all together
//   - server, arrange, compliance: a reference implementation of the
//     collaborator services
//
// # Coordinate System
//
// Canvas space follows gg:
//   - Origin (0,0) at top-left
//   - X increases right
//   - Y increases down
//
// An export at W×H pixels maps canvas space through sx = W/canvasWidth
// and sy = H/canvasHeight independently, so aspect ratio is not preserved.
//
// # Logging
//
// adstudio is silent by default. Call [SetLogger] to enable logging.
package adstudio

// Version is the current version of adstudio.
const Version = "0.1.0"
