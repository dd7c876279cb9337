// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package collab talks to the external services the studio depends on:
// background removal, layout suggestion and compliance checking.
//
// Every service is an interface so sessions can run against the HTTP
// Client, the in-process Local implementations, or test doubles. Callers
// are expected to degrade on error; nothing here is fatal to a session.
package collab

import (
	"context"
	"errors"
	"fmt"

	"github.com/gogpu/adstudio/canvas"
	"github.com/gogpu/adstudio/suggest"
)

// ErrMalformed is returned when a service answers with a body that does
// not have the expected shape.
var ErrMalformed = errors.New("collab: malformed response")

// StatusError reports a non-2xx response.
type StatusError struct {
	Endpoint string
	Code     int
	Body     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("collab: %s: unexpected status %d: %s", e.Endpoint, e.Code, e.Body)
}

// Temporary reports whether retrying may help.
func (e *StatusError) Temporary() bool {
	return e.Code >= 500 || e.Code == 429
}

// Upload is one user-supplied image file.
type Upload struct {
	Name        string
	ContentType string
	Data        []byte
}

// BackgroundRemover cuts the background out of an uploaded image and
// returns a resolvable reference to the result.
type BackgroundRemover interface {
	RemoveBackground(ctx context.Context, up Upload) (string, error)
}

// LayoutSuggester proposes alternative layouts for a scene.
type LayoutSuggester interface {
	Suggest(ctx context.Context, elems []canvas.Element, size canvas.Size) ([]suggest.Variant, error)
}

// ComplianceChecker lists policy issues found in ad copy.
type ComplianceChecker interface {
	Check(ctx context.Context, text string) ([]string, error)
}
