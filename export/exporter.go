// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package export

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"sync"

	"github.com/gogpu/gg"
	"github.com/gogpu/gg/text"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/sync/errgroup"

	"github.com/gogpu/adstudio"
	"github.com/gogpu/adstudio/canvas"
)

// DefaultFontSize is used for text elements without a font size.
const DefaultFontSize = 28

// DefaultConcurrency bounds simultaneous image loads per export.
const DefaultConcurrency = 4

// ImageLoader resolves an element's image reference.
// *assets.Loader implements it.
type ImageLoader interface {
	Load(ctx context.Context, ref string) (image.Image, error)
}

// Rect is an axis-aligned rectangle in device pixels.
type Rect struct {
	X, Y, W, H float64
}

// Scale holds the canvas-to-device scale factors of one export.
type Scale struct {
	SX, SY float64
}

// ScaleFor returns sx = width/size.W and sy = height/size.H.
func ScaleFor(size canvas.Size, width, height int) Scale {
	return Scale{SX: float64(width) / size.W, SY: float64(height) / size.H}
}

// MapRect maps an element's footprint to device pixels.
func (s Scale) MapRect(e canvas.Element) Rect {
	return Rect{X: e.X * s.SX, Y: e.Y * s.SY, W: e.W * s.SX, H: e.H * s.SY}
}

var defaultFont = sync.OnceValues(func() (*text.FontSource, error) {
	return text.NewFontSource(goregular.TTF)
})

// Exporter rasterizes scene snapshots with gg.
//
// An Exporter holds no per-export state and is safe for concurrent use.
type Exporter struct {
	loader      ImageLoader
	font        *text.FontSource
	interp      gg.InterpolationMode
	concurrency int
}

// New creates an exporter. Without WithLoader, every image element is
// skipped as unresolvable.
func New(opts ...Option) *Exporter {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Exporter{
		loader:      o.loader,
		font:        o.font,
		interp:      o.interp,
		concurrency: o.concurrency,
	}
}

// Render draws elems onto a fresh width×height context.
//
// The background is opaque white. Elements are drawn in the order given;
// the exporter never re-sorts by Z. Image references are resolved
// concurrently before drawing, and an image that fails to load is skipped
// without failing the render. ctx bounds the image loads only.
//
// The caller owns the returned context and must Close it.
func (x *Exporter) Render(ctx context.Context, elems []canvas.Element, size canvas.Size, width, height int) (*gg.Context, error) {
	if width <= 0 || height <= 0 || size.IsEmpty() {
		return nil, fmt.Errorf("%w: %dx%d from canvas %vx%v", ErrInvalidSize, width, height, size.W, size.H)
	}

	images := x.resolve(ctx, elems)

	dc := gg.NewContext(width, height)
	dc.ClearWithColor(gg.White)

	scale := ScaleFor(size, width, height)
	for i, e := range elems {
		r := scale.MapRect(e)
		switch {
		case e.Kind.IsImage():
			if images[i] == nil {
				continue
			}
			drawImage(dc, images[i], r, x.interp)
		case e.Kind == canvas.KindText:
			x.drawText(dc, e, r, scale)
		default:
			adstudio.Logger().Debug("export: unknown element kind", "id", e.ID, "kind", e.Kind)
		}
	}
	return dc, nil
}

// Export renders elems at target size and hands "{Name}.png" to sink.
// An encoding that yields no bytes is silently dropped.
func (x *Exporter) Export(ctx context.Context, elems []canvas.Element, size canvas.Size, target Target, sink Sink) error {
	if err := target.Validate(); err != nil {
		return err
	}

	dc, err := x.Render(ctx, elems, size, target.Width, target.Height)
	if err != nil {
		return err
	}
	defer func() {
		_ = dc.Close()
	}()

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return fmt.Errorf("export: encode %s: %w", target.FileName(), err)
	}
	if buf.Len() == 0 {
		adstudio.Logger().Warn("export: empty encoding, nothing saved", "name", target.FileName())
		return nil
	}
	if err := sink.Save(target.FileName(), buf.Bytes()); err != nil {
		return fmt.Errorf("export: save %s: %w", target.FileName(), err)
	}

	adstudio.Logger().Info("export: written",
		"name", target.FileName(), "size", target.String(), "elements", len(elems), "bytes", buf.Len())
	return nil
}

// resolve loads every image reference in elems. The result is indexed
// like elems; entries are nil for text elements and failed loads.
func (x *Exporter) resolve(ctx context.Context, elems []canvas.Element) []*gg.ImageBuf {
	out := make([]*gg.ImageBuf, len(elems))
	if x.loader == nil {
		return out
	}

	var g errgroup.Group
	g.SetLimit(x.concurrency)
	for i, e := range elems {
		if !e.Kind.IsImage() {
			continue
		}
		g.Go(func() error {
			img, err := x.loader.Load(ctx, e.Src)
			if err != nil {
				adstudio.Logger().Warn("export: image skipped", "id", e.ID, "src", e.Src, "err", err)
				return nil
			}
			out[i] = gg.ImageBufFromImage(img)
			return nil
		})
	}
	_ = g.Wait()
	return out
}

// drawImage stretches img into r without preserving its aspect ratio.
func drawImage(dc *gg.Context, img *gg.ImageBuf, r Rect, interp gg.InterpolationMode) {
	if r.W <= 0 || r.H <= 0 {
		return
	}
	dc.DrawImageEx(img, gg.DrawImageOptions{
		X:             r.X,
		Y:             r.Y,
		DstWidth:      r.W,
		DstHeight:     r.H,
		Interpolation: interp,
		Opacity:       1.0,
		BlendMode:     gg.BlendNormal,
	})
}

// drawText draws e.Content left-anchored at the mapped top-left corner.
// The baseline sits one scaled font size below the top, so the glyph box
// approximates the declared element height.
func (x *Exporter) drawText(dc *gg.Context, e canvas.Element, r Rect, scale Scale) {
	if e.Content == "" || x.font == nil {
		return
	}
	size := e.FontSize
	if size <= 0 {
		size = DefaultFontSize
	}
	px := size * scale.SY
	if px <= 0 {
		return
	}

	c := ParseColor(e.Color)
	dc.SetFont(x.font.Face(px))
	dc.SetRGBA(c.R, c.G, c.B, c.A)
	dc.DrawString(e.Content, r.X, r.Y+px)
}
