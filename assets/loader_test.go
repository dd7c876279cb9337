// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package assets

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"testing/fstest"
)

func encodeSolidPNG(t *testing.T, w, h int, c color.Color) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png.Encode: %v", err)
	}
	return buf.Bytes()
}

func assertSize(t *testing.T, img image.Image, w, h int) {
	t.Helper()
	if b := img.Bounds(); b.Dx() != w || b.Dy() != h {
		t.Errorf("decoded size = %dx%d, want %dx%d", b.Dx(), b.Dy(), w, h)
	}
}

func TestBlobsRoundTrip(t *testing.T) {
	blobs := NewBlobs()
	data := []byte("original upload")
	ref := blobs.Put(data, "image/png")
	data[0] = 'X'

	if !IsBlob(ref) {
		t.Fatalf("ref %q is not a blob reference", ref)
	}
	got, ok := blobs.Get(ref)
	if !ok {
		t.Fatal("Get: not found")
	}
	if string(got.Data) != "original upload" {
		t.Errorf("Data = %q, Put must copy its input", got.Data)
	}
	if got.ContentType != "image/png" {
		t.Errorf("ContentType = %q", got.ContentType)
	}

	blobs.Revoke(ref)
	if _, ok := blobs.Get(ref); ok {
		t.Error("Get after Revoke: still present")
	}
	if blobs.Len() != 0 {
		t.Errorf("Len = %d, want 0", blobs.Len())
	}
}

func TestLoaderBlob(t *testing.T) {
	blobs := NewBlobs()
	ref := blobs.Put(encodeSolidPNG(t, 4, 3, color.RGBA{R: 255, A: 255}), "image/png")
	l := NewLoader(WithBlobs(blobs))

	img, err := l.Load(context.Background(), ref)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	assertSize(t, img, 4, 3)

	if _, err := l.Load(context.Background(), BlobScheme+"missing"); !errors.Is(err, ErrBlobNotFound) {
		t.Errorf("missing blob: err = %v, want ErrBlobNotFound", err)
	}
}

func TestLoaderDataURI(t *testing.T) {
	data := encodeSolidPNG(t, 2, 2, color.White)
	ref := "data:image/png;base64," + base64.StdEncoding.EncodeToString(data)

	img, err := NewLoader().Load(context.Background(), ref)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	assertSize(t, img, 2, 2)
}

func TestLoaderRemote(t *testing.T) {
	data := encodeSolidPNG(t, 5, 5, color.Black)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok.png":
			w.Header().Set("Content-Type", "image/png")
			_, _ = w.Write(data)
		case "/garbage.png":
			_, _ = w.Write([]byte("not an image"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	l := NewLoader(WithHTTPClient(srv.Client()))

	img, err := l.Load(context.Background(), srv.URL+"/ok.png")
	if err != nil {
		t.Fatalf("Load ok: %v", err)
	}
	assertSize(t, img, 5, 5)

	if _, err := l.Load(context.Background(), srv.URL+"/missing.png"); err == nil {
		t.Error("Load 404: want error")
	}
	if _, err := l.Load(context.Background(), srv.URL+"/garbage.png"); err == nil {
		t.Error("Load garbage: want decode error")
	}
}

func TestLoaderRemoteTooLarge(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(make([]byte, 64))
	}))
	defer srv.Close()

	l := NewLoader(WithHTTPClient(srv.Client()), WithMaxBytes(16))
	if _, err := l.Fetch(context.Background(), srv.URL); !errors.Is(err, ErrTooLarge) {
		t.Errorf("err = %v, want ErrTooLarge", err)
	}
}

func TestLoaderRemoteHosts(t *testing.T) {
	var internalHits atomic.Int32
	internal := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		internalHits.Add(1)
		_, _ = w.Write([]byte("secret"))
	}))
	defer internal.Close()

	data := encodeSolidPNG(t, 2, 2, color.Black)
	cdn := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/hop" {
			http.Redirect(w, r, internal.URL+"/latest/meta-data", http.StatusFound)
			return
		}
		_, _ = w.Write(data)
	}))
	defer cdn.Close()
	cdnURL, _ := url.Parse(cdn.URL)

	l := NewLoader(WithHTTPClient(cdn.Client()), WithRemoteHosts(cdnURL.Host))
	if _, err := l.Load(context.Background(), cdn.URL+"/ok.png"); err != nil {
		t.Fatalf("Load from allowed host: %v", err)
	}
	if _, err := l.Fetch(context.Background(), internal.URL+"/latest/meta-data"); !errors.Is(err, ErrRemoteDenied) {
		t.Errorf("foreign host err = %v, want ErrRemoteDenied", err)
	}
	if _, err := l.Fetch(context.Background(), cdn.URL+"/hop"); !errors.Is(err, ErrRemoteDenied) {
		t.Errorf("redirect err = %v, want ErrRemoteDenied", err)
	}

	none := NewLoader(WithRemoteHosts())
	if _, err := none.Fetch(context.Background(), cdn.URL+"/ok.png"); !errors.Is(err, ErrRemoteDenied) {
		t.Errorf("no hosts err = %v, want ErrRemoteDenied", err)
	}
	if n := internalHits.Load(); n != 0 {
		t.Errorf("internal host contacted %d times", n)
	}
}

func TestLoaderMount(t *testing.T) {
	fsys := fstest.MapFS{
		"processed_my shoe.png": {Data: encodeSolidPNG(t, 4, 2, color.White)},
	}
	l := NewLoader(WithMount("http://localhost:8000/static/", fsys), WithRemoteHosts())

	for _, ref := range []string{
		"http://localhost:8000/static/processed_my%20shoe.png",
		"http://localhost:8000/static/processed_my%20shoe.png?v=2",
	} {
		img, err := l.Load(context.Background(), ref)
		if err != nil {
			t.Errorf("Load(%q): %v", ref, err)
			continue
		}
		assertSize(t, img, 4, 2)
	}
	if _, err := l.Fetch(context.Background(), "http://localhost:8000/static/../../etc/passwd"); err == nil {
		t.Error("escape from the mount: want error")
	}
	if _, err := l.Fetch(context.Background(), "http://localhost:8000/admin"); !errors.Is(err, ErrRemoteDenied) {
		t.Errorf("outside the mount err = %v, want ErrRemoteDenied", err)
	}
}

func TestLoaderFiles(t *testing.T) {
	fsys := fstest.MapFS{
		"img/logo.png": {Data: encodeSolidPNG(t, 3, 7, color.White)},
	}
	l := NewLoader(WithFS(fsys))

	for _, ref := range []string{"img/logo.png", "file:img/logo.png", "file:///img/logo.png", "../img/logo.png"} {
		img, err := l.Load(context.Background(), ref)
		if err != nil {
			t.Errorf("Load(%q): %v", ref, err)
			continue
		}
		assertSize(t, img, 3, 7)
	}
}

func TestLoaderRejects(t *testing.T) {
	l := NewLoader()
	tests := []struct {
		ref  string
		want error
	}{
		{"", ErrEmptyRef},
		{"img/logo.png", ErrUnsupportedRef},
		{"ftp://example.com/logo.png", ErrUnsupportedRef},
	}
	for _, tt := range tests {
		if _, err := l.Fetch(context.Background(), tt.ref); !errors.Is(err, tt.want) {
			t.Errorf("Fetch(%q) err = %v, want %v", tt.ref, err, tt.want)
		}
	}
}
