// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package assets

import (
	"errors"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// BlobScheme prefixes references to session-local binary data.
const BlobScheme = "blob:"

// ErrBlobNotFound is returned for blob references that were never stored
// or have been revoked.
var ErrBlobNotFound = errors.New("assets: blob not found")

// Blob is locally held binary image data.
type Blob struct {
	Data        []byte
	ContentType string
}

// Blobs holds uploaded bytes behind "blob:" references, so an element can
// point at an upload that never reached a remote service.
//
// Blobs is safe for concurrent use.
type Blobs struct {
	mu    sync.RWMutex
	blobs map[string]Blob
}

// NewBlobs creates an empty blob registry.
func NewBlobs() *Blobs {
	return &Blobs{blobs: make(map[string]Blob)}
}

// Put stores a copy of data and returns a reference resolvable by Get
// and by a Loader configured with this registry.
func (b *Blobs) Put(data []byte, contentType string) string {
	ref := BlobScheme + uuid.NewString()

	b.mu.Lock()
	b.blobs[ref] = Blob{Data: slices.Clone(data), ContentType: contentType}
	b.mu.Unlock()
	return ref
}

// Get returns the blob behind ref.
func (b *Blobs) Get(ref string) (Blob, bool) {
	if !IsBlob(ref) {
		return Blob{}, false
	}
	b.mu.RLock()
	blob, ok := b.blobs[ref]
	b.mu.RUnlock()
	return blob, ok
}

// Revoke forgets ref. Unknown references are ignored.
func (b *Blobs) Revoke(ref string) {
	b.mu.Lock()
	delete(b.blobs, ref)
	b.mu.Unlock()
}

// Len returns the number of stored blobs.
func (b *Blobs) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.blobs)
}

// IsBlob reports whether ref is a blob reference.
func IsBlob(ref string) bool {
	return strings.HasPrefix(ref, BlobScheme)
}
