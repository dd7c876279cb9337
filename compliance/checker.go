// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package compliance flags ad copy that contains banned phrases.
package compliance

import (
	"strings"

	"golang.org/x/text/cases"
)

// DefaultBanned lists the phrases rejected by the default checker.
var DefaultBanned = []string{"scam", "free money", "guaranteed results"}

// Checker matches text against a list of banned phrases.
// Matching is case-insensitive using Unicode case folding.
//
// A Checker is immutable and safe for concurrent use.
type Checker struct {
	banned []string
	folded []string
}

// NewChecker creates a checker for the given phrases. With no phrases,
// DefaultBanned is used.
func NewChecker(banned ...string) *Checker {
	if len(banned) == 0 {
		banned = DefaultBanned
	}
	c := &Checker{banned: append([]string(nil), banned...)}
	for _, p := range c.banned {
		c.folded = append(c.folded, fold(p))
	}
	return c
}

// Check returns one issue per banned phrase found in text, in the order
// the phrases were configured. A clean text yields an empty, non-nil slice.
func (c *Checker) Check(text string) []string {
	issues := []string{}
	t := fold(text)
	for i, p := range c.folded {
		if p != "" && strings.Contains(t, p) {
			issues = append(issues, "Contains banned phrase: "+c.banned[i])
		}
	}
	return issues
}

// fold creates a new Caser per call: cases.Caser is stateful and not
// safe for concurrent use.
func fold(s string) string {
	return cases.Fold().String(s)
}
