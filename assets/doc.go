// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package assets resolves the image references carried by image and
// logo elements.
//
// A reference is either remote (an http or https URL, typically handed
// back by the background removal service), a data URI, a file inside a
// caller-provided fs.FS, or a "blob:" reference into a session-local
// Blobs registry. Blob references are how an upload stays usable when the
// background removal service is unreachable.
//
// Loaders that render scenes on behalf of other parties should limit
// remote fetches with WithRemoteHosts and serve their own public URLs
// from disk with WithMount.
package assets
