// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package export

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidSize is returned for non-positive output or canvas sizes.
var ErrInvalidSize = errors.New("export: invalid output size")

// Target describes one output file: its pixel size and base name.
type Target struct {
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
	Name   string `yaml:"name"`
}

// Preset targets offered by the studio.
var (
	Preset1200x628  = Target{Width: 1200, Height: 628, Name: "export_1200x628"}
	Preset1080x1080 = Target{Width: 1080, Height: 1080, Name: "export_1080x1080"}
)

// Presets lists the built-in targets in display order.
func Presets() []Target {
	return []Target{Preset1200x628, Preset1080x1080}
}

// FileName returns the name of the produced file.
func (t Target) FileName() string {
	return t.Name + ".png"
}

// Validate checks the target dimensions and name.
func (t Target) Validate() error {
	if t.Width <= 0 || t.Height <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidSize, t.Width, t.Height)
	}
	if t.Name == "" || strings.ContainsAny(t.Name, `/\`) {
		return fmt.Errorf("export: invalid file name %q", t.Name)
	}
	return nil
}

// String returns "WxH".
func (t Target) String() string {
	return fmt.Sprintf("%dx%d", t.Width, t.Height)
}

// ParseTarget parses "WxH" into a target named "export_WxH".
func ParseTarget(s string) (Target, error) {
	ws, hs, ok := strings.Cut(strings.ToLower(strings.TrimSpace(s)), "x")
	if !ok {
		return Target{}, fmt.Errorf("export: size %q: want WxH", s)
	}
	w, err := strconv.Atoi(ws)
	if err != nil {
		return Target{}, fmt.Errorf("export: size %q: %w", s, err)
	}
	h, err := strconv.Atoi(hs)
	if err != nil {
		return Target{}, fmt.Errorf("export: size %q: %w", s, err)
	}
	t := Target{Width: w, Height: h, Name: fmt.Sprintf("export_%dx%d", w, h)}
	if err := t.Validate(); err != nil {
		return Target{}, err
	}
	return t, nil
}
