// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package export

import (
	"strings"

	"github.com/gogpu/gg"
	"golang.org/x/image/colornames"
)

// DefaultTextColor is used for text elements without a color.
const DefaultTextColor = "#111"

// ParseColor converts an element color to gg.RGBA. Hex forms (#rgb,
// #rgba, #rrggbb, #rrggbbaa) and SVG color names are accepted; anything
// else falls back to DefaultTextColor.
func ParseColor(s string) gg.RGBA {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return gg.Hex(DefaultTextColor)
	}
	if strings.HasPrefix(s, "#") {
		if isHex(s[1:]) {
			return gg.Hex(s)
		}
		return gg.Hex(DefaultTextColor)
	}
	if c, ok := colornames.Map[s]; ok {
		return gg.FromColor(c)
	}
	return gg.Hex(DefaultTextColor)
}

func isHex(s string) bool {
	switch len(s) {
	case 3, 4, 6, 8:
	default:
		return false
	}
	for _, r := range s {
		if !('0' <= r && r <= '9' || 'a' <= r && r <= 'f') {
			return false
		}
	}
	return true
}
