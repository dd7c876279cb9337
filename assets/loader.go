// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package assets

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"io"
	"io/fs"
	"net/http"
	"net/url"
	"path"
	"strings"

	// Decoders for every format a user may upload.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// DefaultMaxBytes caps the size of a single fetched image.
const DefaultMaxBytes = 32 << 20

// Sentinel errors returned by Loader.
var (
	// ErrUnsupportedRef is returned for references no source can serve.
	ErrUnsupportedRef = errors.New("assets: unsupported image reference")

	// ErrTooLarge is returned when a fetched image exceeds the size cap.
	ErrTooLarge = errors.New("assets: image too large")

	// ErrEmptyRef is returned for an empty reference.
	ErrEmptyRef = errors.New("assets: empty image reference")

	// ErrRemoteDenied is returned for URLs on hosts the loader may not
	// contact.
	ErrRemoteDenied = errors.New("assets: remote host not allowed")
)

// Loader resolves image references to decoded images.
//
// Supported references:
//   - blob:<id> from the configured Blobs
//   - data:<mime>;base64,<payload>
//   - URLs under a mounted prefix, read from the mounted fs.FS
//   - http:// and https:// URLs, optionally limited to some hosts
//   - file:<path> and bare relative paths, read from the configured fs.FS
//
// Loader is safe for concurrent use.
type Loader struct {
	blobs    *Blobs
	client   *http.Client
	files    fs.FS
	mounts   []mount
	maxBytes int64

	// nil allows every host
	hosts map[string]bool
}

type mount struct {
	prefix string
	files  fs.FS
}

// Option configures a Loader.
type Option func(*Loader)

// WithBlobs lets the loader resolve blob references.
func WithBlobs(b *Blobs) Option {
	return func(l *Loader) { l.blobs = b }
}

// WithHTTPClient sets the client used for remote references.
func WithHTTPClient(c *http.Client) Option {
	return func(l *Loader) {
		if c != nil {
			l.client = c
		}
	}
}

// WithFS enables file references, resolved inside fsys.
// Without it, file references are rejected.
func WithFS(fsys fs.FS) Option {
	return func(l *Loader) { l.files = fsys }
}

// WithMount serves references starting with prefix from fsys. The rest
// of the reference, path-unescaped, names the file. Mounts are checked
// before remote fetches, so a service's own public URLs never leave the
// process.
func WithMount(prefix string, fsys fs.FS) Option {
	return func(l *Loader) {
		if prefix != "" && fsys != nil {
			l.mounts = append(l.mounts, mount{prefix: prefix, files: fsys})
		}
	}
}

// WithRemoteHosts limits remote fetches to the given hosts (host or
// host:port, as in the URL). With no hosts every remote reference is
// refused with ErrRemoteDenied.
func WithRemoteHosts(hosts ...string) Option {
	return func(l *Loader) {
		l.hosts = make(map[string]bool, len(hosts))
		for _, h := range hosts {
			l.hosts[strings.ToLower(h)] = true
		}
	}
}

// WithMaxBytes sets the per-image size cap.
func WithMaxBytes(n int64) Option {
	return func(l *Loader) {
		if n > 0 {
			l.maxBytes = n
		}
	}
}

// NewLoader creates a loader. Remote references use http.DefaultClient
// unless WithHTTPClient is given.
func NewLoader(opts ...Option) *Loader {
	l := &Loader{
		client:   http.DefaultClient,
		maxBytes: DefaultMaxBytes,
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.hosts != nil {
		// redirects must stay on the allowed hosts too
		c := *l.client
		c.CheckRedirect = func(req *http.Request, via []*http.Request) error {
			if !l.hosts[strings.ToLower(req.URL.Host)] {
				return fmt.Errorf("%w: redirect to %s", ErrRemoteDenied, req.URL.Host)
			}
			if len(via) >= 10 {
				return errors.New("assets: stopped after 10 redirects")
			}
			return nil
		}
		l.client = &c
	}
	return l
}

// Load fetches and decodes the image behind ref.
func (l *Loader) Load(ctx context.Context, ref string) (image.Image, error) {
	data, err := l.Fetch(ctx, ref)
	if err != nil {
		return nil, err
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("assets: decode %s: %w", describe(ref), err)
	}
	return img, nil
}

// Fetch returns the raw bytes behind ref without decoding them.
func (l *Loader) Fetch(ctx context.Context, ref string) ([]byte, error) {
	switch {
	case ref == "":
		return nil, ErrEmptyRef
	case IsBlob(ref):
		if l.blobs == nil {
			return nil, fmt.Errorf("%w: %s", ErrBlobNotFound, ref)
		}
		blob, ok := l.blobs.Get(ref)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrBlobNotFound, ref)
		}
		return blob.Data, nil
	case strings.HasPrefix(ref, "data:"):
		return decodeDataURI(ref)
	}
	for _, m := range l.mounts {
		if rest, ok := strings.CutPrefix(ref, m.prefix); ok {
			return l.readMounted(m.files, rest)
		}
	}
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return l.fetchRemote(ctx, ref)
	}
	return l.readFile(ref)
}

func (l *Loader) fetchRemote(ctx context.Context, ref string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ref, nil)
	if err != nil {
		return nil, fmt.Errorf("assets: request %s: %w", ref, err)
	}
	if l.hosts != nil && !l.hosts[strings.ToLower(req.URL.Host)] {
		return nil, fmt.Errorf("%w: %s", ErrRemoteDenied, req.URL.Host)
	}
	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("assets: fetch %s: %w", ref, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("assets: fetch %s: unexpected status %d", ref, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, l.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("assets: read %s: %w", ref, err)
	}
	if int64(len(data)) > l.maxBytes {
		return nil, fmt.Errorf("%w: %s", ErrTooLarge, ref)
	}
	return data, nil
}

func (l *Loader) readFile(ref string) ([]byte, error) {
	if l.files == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedRef, describe(ref))
	}

	name := ref
	if u, err := url.Parse(ref); err == nil && u.Scheme != "" {
		if u.Scheme != "file" {
			return nil, fmt.Errorf("%w: %s", ErrUnsupportedRef, describe(ref))
		}
		name = u.Opaque
		if name == "" {
			name = u.Path
		}
	}
	return l.readFS(l.files, name)
}

func (l *Loader) readMounted(fsys fs.FS, rest string) ([]byte, error) {
	if i := strings.IndexAny(rest, "?#"); i >= 0 {
		rest = rest[:i]
	}
	name, err := url.PathUnescape(rest)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedRef, rest)
	}
	return l.readFS(fsys, name)
}

func (l *Loader) readFS(fsys fs.FS, name string) ([]byte, error) {
	name = strings.TrimPrefix(path.Clean("/"+name), "/")
	if !fs.ValidPath(name) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedRef, name)
	}

	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, fmt.Errorf("assets: read %s: %w", name, err)
	}
	if int64(len(data)) > l.maxBytes {
		return nil, fmt.Errorf("%w: %s", ErrTooLarge, name)
	}
	return data, nil
}

// decodeDataURI handles base64 and percent-encoded data URIs.
func decodeDataURI(ref string) ([]byte, error) {
	meta, payload, ok := strings.Cut(strings.TrimPrefix(ref, "data:"), ",")
	if !ok {
		return nil, fmt.Errorf("assets: malformed data URI")
	}
	if strings.HasSuffix(meta, ";base64") {
		data, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return nil, fmt.Errorf("assets: data URI: %w", err)
		}
		return data, nil
	}
	s, err := url.PathUnescape(payload)
	if err != nil {
		return nil, fmt.Errorf("assets: data URI: %w", err)
	}
	return []byte(s), nil
}

// describe shortens data URIs for error messages.
func describe(ref string) string {
	if strings.HasPrefix(ref, "data:") && len(ref) > 32 {
		return ref[:32] + "..."
	}
	return ref
}
