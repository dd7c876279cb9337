// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package collab

import (
	"context"
	"errors"

	"github.com/gogpu/adstudio/arrange"
	"github.com/gogpu/adstudio/canvas"
	"github.com/gogpu/adstudio/compliance"
	"github.com/gogpu/adstudio/suggest"
)

// ErrUnavailable is returned by services that are not configured.
var ErrUnavailable = errors.New("collab: service unavailable")

// LocalCompliance runs the compliance rules in process.
type LocalCompliance struct {
	Checker *compliance.Checker
}

// Check implements ComplianceChecker.
func (l LocalCompliance) Check(_ context.Context, text string) ([]string, error) {
	c := l.Checker
	if c == nil {
		c = compliance.NewChecker()
	}
	return c.Check(text), nil
}

// LocalLayout computes layout suggestions in process.
type LocalLayout struct{}

// Suggest implements LayoutSuggester.
func (LocalLayout) Suggest(_ context.Context, elems []canvas.Element, size canvas.Size) ([]suggest.Variant, error) {
	return arrange.Suggest(elems, size), nil
}

// NoBackgroundRemoval always fails, so sessions keep the original upload.
type NoBackgroundRemoval struct{}

// RemoveBackground implements BackgroundRemover.
func (NoBackgroundRemoval) RemoveBackground(context.Context, Upload) (string, error) {
	return "", ErrUnavailable
}
