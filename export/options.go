// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package export

import (
	"github.com/gogpu/gg"
	"github.com/gogpu/gg/text"

	"github.com/gogpu/adstudio"
)

// Option configures an Exporter.
//
// Example:
//
//	loader := assets.NewLoader(assets.WithBlobs(blobs))
//	x := export.New(export.WithLoader(loader), export.WithInterpolation(gg.InterpBicubic))
type Option func(*options)

type options struct {
	loader      ImageLoader
	font        *text.FontSource
	interp      gg.InterpolationMode
	concurrency int
}

// defaultOptions uses the embedded Go Regular font and bilinear sampling.
func defaultOptions() options {
	o := options{
		interp:      gg.InterpBilinear,
		concurrency: DefaultConcurrency,
	}
	font, err := defaultFont()
	if err != nil {
		adstudio.Logger().Warn("export: default font unavailable, text disabled", "err", err)
	} else {
		o.font = font
	}
	return o
}

// WithLoader sets the resolver for image and logo references.
func WithLoader(l ImageLoader) Option {
	return func(o *options) {
		o.loader = l
	}
}

// WithFontSource replaces the default font. The source is shared, not
// closed, by the exporter.
func WithFontSource(src *text.FontSource) Option {
	return func(o *options) {
		if src != nil {
			o.font = src
		}
	}
}

// WithInterpolation sets the sampling mode used to stretch images.
func WithInterpolation(mode gg.InterpolationMode) Option {
	return func(o *options) {
		o.interp = mode
	}
}

// WithConcurrency bounds simultaneous image loads. Values below 1 are ignored.
func WithConcurrency(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.concurrency = n
		}
	}
}

// ParseInterpolation maps "nearest", "bilinear" and "bicubic" to gg modes.
// Unknown names select bilinear.
func ParseInterpolation(name string) gg.InterpolationMode {
	switch name {
	case "nearest":
		return gg.InterpNearest
	case "bicubic":
		return gg.InterpBicubic
	default:
		return gg.InterpBilinear
	}
}
