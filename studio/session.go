// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package studio holds the per-user editing session: the scene, the
// pointer controller, the suggestion batch and the collaborator state
// (background-removal progress and compliance feedback).
//
// A Session is what a front end talks to. Collaborator failures never
// surface as errors from Session methods; the session degrades instead
// and logs the failure at Warn.
package studio

import (
	"context"
	"net/http"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/gogpu/adstudio"
	"github.com/gogpu/adstudio/assets"
	"github.com/gogpu/adstudio/canvas"
	"github.com/gogpu/adstudio/collab"
	"github.com/gogpu/adstudio/export"
	"github.com/gogpu/adstudio/pointer"
	"github.com/gogpu/adstudio/suggest"
)

// Session is one editing session.
//
// Session methods are safe for concurrent use. Collaborator calls block
// the calling goroutine, so front ends usually run them on their own.
type Session struct {
	size     canvas.Size
	store    *canvas.Store
	ptr      *pointer.Controller
	applier  *suggest.Applier
	blobs    *assets.Blobs
	exporter *export.Exporter

	remover    collab.BackgroundRemover
	layout     collab.LayoutSuggester
	compliance collab.ComplianceChecker

	loading atomic.Int32
	seq     atomic.Uint64

	mu          sync.Mutex
	feedback    []string
	feedbackSeq uint64
	// blob references created by AddImage
	uploads map[string]struct{}
}

// Option configures a Session.
type Option func(*config)

type config struct {
	size       canvas.Size
	storeOpts  []canvas.StoreOption
	loaderOpts []assets.Option
	exportOpts []export.Option
	remover    collab.BackgroundRemover
	layout     collab.LayoutSuggester
	compliance collab.ComplianceChecker
	blobs      *assets.Blobs
}

// WithCanvasSize sets the logical canvas size. Empty sizes are ignored.
func WithCanvasSize(s canvas.Size) Option {
	return func(c *config) {
		if !s.IsEmpty() {
			c.size = s
		}
	}
}

// WithStoreOptions passes options to the scene store.
func WithStoreOptions(opts ...canvas.StoreOption) Option {
	return func(c *config) { c.storeOpts = append(c.storeOpts, opts...) }
}

// WithLoaderOptions passes options to the image loader used on export.
// The session's blob registry is always attached.
func WithLoaderOptions(opts ...assets.Option) Option {
	return func(c *config) { c.loaderOpts = append(c.loaderOpts, opts...) }
}

// WithExportOptions passes options to the exporter.
func WithExportOptions(opts ...export.Option) Option {
	return func(c *config) { c.exportOpts = append(c.exportOpts, opts...) }
}

// WithBlobs shares a blob registry with the session.
func WithBlobs(b *assets.Blobs) Option {
	return func(c *config) {
		if b != nil {
			c.blobs = b
		}
	}
}

// WithBackgroundRemover sets the background-removal service.
func WithBackgroundRemover(r collab.BackgroundRemover) Option {
	return func(c *config) {
		if r != nil {
			c.remover = r
		}
	}
}

// WithLayoutSuggester sets the layout-suggestion service.
func WithLayoutSuggester(l collab.LayoutSuggester) Option {
	return func(c *config) {
		if l != nil {
			c.layout = l
		}
	}
}

// WithComplianceChecker sets the compliance service.
func WithComplianceChecker(cc collab.ComplianceChecker) Option {
	return func(c *config) {
		if cc != nil {
			c.compliance = cc
		}
	}
}

// WithClient routes all three services through one HTTP client.
func WithClient(cl *collab.Client) Option {
	return func(c *config) {
		if cl == nil {
			return
		}
		c.remover = cl
		c.layout = cl
		c.compliance = cl
	}
}

// NewSession creates an empty session. Without collaborator options the
// session computes layouts and compliance in process and keeps uploads
// as local blobs.
func NewSession(opts ...Option) *Session {
	cfg := config{
		size:       canvas.DefaultSize,
		remover:    collab.NoBackgroundRemoval{},
		layout:     collab.LocalLayout{},
		compliance: collab.LocalCompliance{},
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.blobs == nil {
		cfg.blobs = assets.NewBlobs()
	}

	loader := assets.NewLoader(append([]assets.Option{assets.WithBlobs(cfg.blobs)}, cfg.loaderOpts...)...)
	exportOpts := append([]export.Option{export.WithLoader(loader)}, cfg.exportOpts...)

	store := canvas.NewStore(cfg.storeOpts...)
	return &Session{
		size:       cfg.size,
		store:      store,
		ptr:        pointer.NewController(store, cfg.size),
		applier:    suggest.NewApplier(store),
		blobs:      cfg.blobs,
		exporter:   export.New(exportOpts...),
		remover:    cfg.remover,
		layout:     cfg.layout,
		compliance: cfg.compliance,
		uploads:    make(map[string]struct{}),
	}
}

// Size returns the logical canvas size.
func (s *Session) Size() canvas.Size { return s.size }

// Store returns the scene store.
func (s *Session) Store() *canvas.Store { return s.store }

// Pointer returns the drag controller bound to the scene.
func (s *Session) Pointer() *pointer.Controller { return s.ptr }

// Blobs returns the registry holding local uploads.
func (s *Session) Blobs() *assets.Blobs { return s.blobs }

// Selected returns the selected element, if it still exists.
func (s *Session) Selected() (canvas.Element, bool) {
	id, ok := s.ptr.Selected()
	if !ok {
		return canvas.Element{}, false
	}
	return s.store.Get(id)
}

// AddText appends a headline with the default text settings.
func (s *Session) AddText() canvas.Element {
	e := s.store.Add(canvas.NewText())
	adstudio.Logger().Debug("studio: text added", "id", e.ID)
	return e
}

// AddImage appends an image or logo built from up. The upload is sent
// for background removal first; when that fails the original bytes are
// registered as a local blob and used instead. The loading flag is set
// for the duration of the call.
func (s *Session) AddImage(ctx context.Context, up collab.Upload, kind canvas.Kind) canvas.Element {
	s.loading.Add(1)
	defer s.loading.Add(-1)

	src, err := s.remover.RemoveBackground(ctx, up)
	if err != nil || src == "" {
		ct := up.ContentType
		if ct == "" {
			ct = http.DetectContentType(up.Data)
		}
		src = s.blobs.Put(up.Data, ct)
		adstudio.Logger().WarnContext(ctx, "studio: background removal unavailable, using original upload",
			"file", up.Name, "err", err)
	}

	// added under mu so releaseBlobs never sees the blob without its element
	s.mu.Lock()
	e := s.store.Add(canvas.NewImage(kind, src))
	if assets.IsBlob(src) {
		s.uploads[src] = struct{}{}
	}
	s.mu.Unlock()
	adstudio.Logger().Debug("studio: image added", "id", e.ID, "kind", e.Kind, "src", e.Src)
	return e
}

// LoadingBackground reports whether a background removal is in flight.
func (s *Session) LoadingBackground() bool {
	return s.loading.Load() > 0
}

// EditText replaces the content of text element id and checks the new
// text for compliance. Other kinds and unknown ids are left alone. Feedback from a check is installed only if no newer
// check has been applied meanwhile; a failed check counts as clean.
// The returned slice is the feedback after this call.
func (s *Session) EditText(ctx context.Context, id, content string) []string {
	if e, ok := s.store.Get(id); !ok || e.Kind != canvas.KindText {
		return s.Feedback()
	}
	s.store.Update(id, canvas.SetContent(content))

	seq := s.seq.Add(1)
	issues, err := s.compliance.Check(ctx, content)
	if err != nil {
		adstudio.Logger().WarnContext(ctx, "studio: compliance check failed", "id", id, "err", err)
		issues = nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if seq < s.feedbackSeq {
		adstudio.Logger().Debug("studio: stale compliance result dropped", "seq", seq, "current", s.feedbackSeq)
		return slices.Clone(s.feedback)
	}
	s.feedbackSeq = seq
	s.feedback = slices.Clone(issues)
	return slices.Clone(s.feedback)
}

// Feedback returns the current compliance issues.
func (s *Session) Feedback() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.feedback)
}

// Arrange asks for layout suggestions and hands them to the applier,
// which applies the first variant. Failures leave the scene untouched.
// It reports whether a batch was received.
func (s *Session) Arrange(ctx context.Context) bool {
	variants, err := s.layout.Suggest(ctx, s.store.Snapshot(), s.size)
	if err != nil {
		adstudio.Logger().WarnContext(ctx, "studio: layout suggestion failed", "err", err)
		return false
	}
	s.applier.Receive(variants)
	s.releaseBlobs()
	return true
}

// Suggestions returns the current suggestion batch.
func (s *Session) Suggestions() []suggest.Variant {
	return s.applier.Variants()
}

// AppliedSuggestion returns the index of the applied variant, or -1.
func (s *Session) AppliedSuggestion() int {
	return s.applier.Applied()
}

// ApplySuggestion replaces the scene with variant i of the current batch.
func (s *Session) ApplySuggestion(i int) error {
	if err := s.applier.Apply(i); err != nil {
		return err
	}
	s.releaseBlobs()
	return nil
}

// releaseBlobs revokes uploads that neither the scene nor the current
// suggestion batch references any more.
func (s *Session) releaseBlobs() {
	s.mu.Lock()
	defer s.mu.Unlock()

	live := make(map[string]bool)
	for _, e := range s.store.Snapshot() {
		live[e.Src] = true
	}
	for _, v := range s.applier.Variants() {
		for _, e := range v.Elements {
			live[e.Src] = true
		}
	}
	for ref := range s.uploads {
		if live[ref] {
			continue
		}
		s.blobs.Revoke(ref)
		delete(s.uploads, ref)
		adstudio.Logger().Debug("studio: upload released", "ref", ref)
	}
}

// Export renders a snapshot of the scene to target and saves it to sink.
func (s *Session) Export(ctx context.Context, target export.Target, sink export.Sink) error {
	return s.exporter.Export(ctx, s.store.Snapshot(), s.size, target, sink)
}
