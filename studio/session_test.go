// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package studio

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/gogpu/adstudio/canvas"
	"github.com/gogpu/adstudio/collab"
	"github.com/gogpu/adstudio/export"
	"github.com/gogpu/adstudio/suggest"
)

type removerFunc func(context.Context, collab.Upload) (string, error)

func (f removerFunc) RemoveBackground(ctx context.Context, up collab.Upload) (string, error) {
	return f(ctx, up)
}

type layoutFunc func(context.Context, []canvas.Element, canvas.Size) ([]suggest.Variant, error)

func (f layoutFunc) Suggest(ctx context.Context, elems []canvas.Element, size canvas.Size) ([]suggest.Variant, error) {
	return f(ctx, elems, size)
}

type checkerFunc func(context.Context, string) ([]string, error)

func (f checkerFunc) Check(ctx context.Context, text string) ([]string, error) {
	return f(ctx, text)
}

func TestDragClampsToCanvas(t *testing.T) {
	s := NewSession()
	e := s.AddText()

	ptr := s.Pointer()
	if !ptr.Down(canvas.Pt(100, 100)) {
		t.Fatal("Down on the headline missed")
	}
	// grab offset is (40, 40), so raw x = -10 - 40 = -50
	ptr.Move(canvas.Pt(-10, 100))
	ptr.Up(canvas.Pt(-10, 100))

	got, _ := s.Store().Get(e.ID)
	if got.X != 0 || got.Y != 60 {
		t.Errorf("position = (%v, %v), want (0, 60)", got.X, got.Y)
	}
	if sel, ok := s.Selected(); !ok || sel.ID != e.ID {
		t.Errorf("Selected = %v, %v", sel.ID, ok)
	}
}

func TestAddImageFallsBackToBlob(t *testing.T) {
	data := []byte("\x89PNG\r\n\x1a\nnot really")
	s := NewSession(WithBackgroundRemover(removerFunc(func(context.Context, collab.Upload) (string, error) {
		return "", errors.New("service down")
	})))

	e := s.AddImage(context.Background(), collab.Upload{Name: "shoe.png", Data: data}, canvas.KindImage)

	if n := s.Store().Len(); n != 1 {
		t.Fatalf("Len = %d, want 1", n)
	}
	blob, ok := s.Blobs().Get(e.Src)
	if !ok {
		t.Fatalf("src %q does not resolve", e.Src)
	}
	if !bytes.Equal(blob.Data, data) {
		t.Error("blob bytes differ from upload")
	}
	if blob.ContentType != "image/png" {
		t.Errorf("content type = %q", blob.ContentType)
	}
	if e.Kind != canvas.KindImage || e.W != canvas.DefaultImageWidth || e.Z != 1 {
		t.Errorf("element = %+v", e)
	}
}

func TestAddImageUsesServiceURL(t *testing.T) {
	s := NewSession(WithBackgroundRemover(removerFunc(func(_ context.Context, up collab.Upload) (string, error) {
		return "http://svc/static/processed_" + up.Name, nil
	})))

	e := s.AddImage(context.Background(), collab.Upload{Name: "logo.png", Data: []byte("x")}, canvas.KindLogo)
	if e.Src != "http://svc/static/processed_logo.png" {
		t.Errorf("src = %q", e.Src)
	}
	if e.Kind != canvas.KindLogo {
		t.Errorf("kind = %q", e.Kind)
	}
	if s.Blobs().Len() != 0 {
		t.Error("no blob should be registered when the service succeeds")
	}
}

func TestLoadingFlag(t *testing.T) {
	release := make(chan struct{})
	entered := make(chan struct{})
	s := NewSession(WithBackgroundRemover(removerFunc(func(context.Context, collab.Upload) (string, error) {
		close(entered)
		<-release
		return "", errors.New("down")
	})))

	if s.LoadingBackground() {
		t.Fatal("loading before any upload")
	}
	done := make(chan struct{})
	go func() {
		s.AddImage(context.Background(), collab.Upload{Data: []byte("x")}, canvas.KindImage)
		close(done)
	}()

	<-entered
	if !s.LoadingBackground() {
		t.Error("loading flag not set during removal")
	}
	close(release)
	<-done
	if s.LoadingBackground() {
		t.Error("loading flag still set after removal")
	}
}

func TestArrangeAppliesFirstVariant(t *testing.T) {
	v1 := []canvas.Element{{ID: "a", Kind: canvas.KindText, X: 1, Z: 1}}
	v2 := []canvas.Element{{ID: "b", Kind: canvas.KindImage, X: 2, Z: 5}, {ID: "c", Kind: canvas.KindLogo, Z: 6}}
	s := NewSession(WithLayoutSuggester(layoutFunc(func(context.Context, []canvas.Element, canvas.Size) ([]suggest.Variant, error) {
		return []suggest.Variant{{Label: "one", Elements: v1}, {Label: "two", Elements: v2}}, nil
	})))
	s.AddText()

	if !s.Arrange(context.Background()) {
		t.Fatal("Arrange reported no batch")
	}
	if got := s.Store().Snapshot(); !slices.Equal(got, v1) {
		t.Fatalf("after arrange = %+v, want variant 1", got)
	}
	if s.AppliedSuggestion() != 0 || len(s.Suggestions()) != 2 {
		t.Errorf("applied = %d, batch = %d", s.AppliedSuggestion(), len(s.Suggestions()))
	}

	if err := s.ApplySuggestion(1); err != nil {
		t.Fatalf("ApplySuggestion: %v", err)
	}
	if got := s.Store().Snapshot(); !slices.Equal(got, v2) {
		t.Errorf("after apply = %+v, want variant 2", got)
	}
	if err := s.ApplySuggestion(2); !errors.Is(err, suggest.ErrNoVariant) {
		t.Errorf("ApplySuggestion(2) = %v", err)
	}
}

func TestUnreferencedUploadsReleased(t *testing.T) {
	// each call to the layout service returns the next batch
	var batches [][]suggest.Variant
	s := NewSession(WithLayoutSuggester(layoutFunc(func(context.Context, []canvas.Element, canvas.Size) ([]suggest.Variant, error) {
		b := batches[0]
		batches = batches[1:]
		return b, nil
	})))
	img := s.AddImage(context.Background(), collab.Upload{Name: "shoe.png", Data: []byte("x")}, canvas.KindImage)
	text := canvas.Element{ID: "t", Kind: canvas.KindText, Z: 1}
	batches = [][]suggest.Variant{
		{{Label: "text only", Elements: []canvas.Element{text}}, {Label: "both", Elements: []canvas.Element{text, img}}},
		{{Label: "text only", Elements: []canvas.Element{text}}},
	}

	s.Arrange(context.Background())
	if _, ok := s.Blobs().Get(img.Src); !ok {
		t.Fatal("upload released while a suggestion still uses it")
	}
	if err := s.ApplySuggestion(1); err != nil {
		t.Fatalf("ApplySuggestion: %v", err)
	}
	if _, ok := s.Blobs().Get(img.Src); !ok {
		t.Fatal("upload released while on the canvas")
	}

	s.Arrange(context.Background())
	if _, ok := s.Blobs().Get(img.Src); ok {
		t.Error("upload kept after nothing references it")
	}
}

func TestArrangeFailureLeavesScene(t *testing.T) {
	s := NewSession(WithLayoutSuggester(layoutFunc(func(context.Context, []canvas.Element, canvas.Size) ([]suggest.Variant, error) {
		return nil, collab.ErrMalformed
	})))
	e := s.AddText()

	if s.Arrange(context.Background()) {
		t.Error("Arrange reported a batch on failure")
	}
	if got := s.Store().Snapshot(); len(got) != 1 || got[0].ID != e.ID {
		t.Errorf("scene changed: %+v", got)
	}
}

func TestArrangeDefaultIsVertical(t *testing.T) {
	s := NewSession()
	s.AddText()
	s.AddText()
	s.Arrange(context.Background())

	got := s.Store().Snapshot()
	if got[0].X != 20 || got[0].Y != 20 || got[1].Y != 20+80+20 {
		t.Errorf("vertical layout = %+v", got)
	}
}

func TestEditTextFeedback(t *testing.T) {
	s := NewSession()
	e := s.AddText()

	issues := s.EditText(context.Background(), e.ID, "Guaranteed Results, no scam")
	want := []string{"Contains banned phrase: scam", "Contains banned phrase: guaranteed results"}
	if !slices.Equal(issues, want) {
		t.Errorf("issues = %q, want %q", issues, want)
	}
	if got, _ := s.Store().Get(e.ID); got.Content != "Guaranteed Results, no scam" {
		t.Errorf("content = %q", got.Content)
	}

	if issues := s.EditText(context.Background(), e.ID, "Fresh shoes"); len(issues) != 0 {
		t.Errorf("clean text issues = %q", issues)
	}
}

func TestEditTextFailOpen(t *testing.T) {
	s := NewSession(WithComplianceChecker(checkerFunc(func(context.Context, string) ([]string, error) {
		return nil, errors.New("down")
	})))
	e := s.AddText()
	if issues := s.EditText(context.Background(), e.ID, "scam"); len(issues) != 0 {
		t.Errorf("issues = %q, want none", issues)
	}
}

func TestEditTextUnknownID(t *testing.T) {
	var calls int
	s := NewSession(WithComplianceChecker(checkerFunc(func(context.Context, string) ([]string, error) {
		calls++
		return nil, nil
	})))
	s.EditText(context.Background(), "missing", "x")
	if calls != 0 || s.Store().Len() != 0 {
		t.Errorf("calls = %d, len = %d", calls, s.Store().Len())
	}
}

func TestEditTextIgnoresImages(t *testing.T) {
	var calls int
	s := NewSession(WithComplianceChecker(checkerFunc(func(context.Context, string) ([]string, error) {
		calls++
		return nil, nil
	})))
	img := s.AddImage(context.Background(), collab.Upload{Name: "shoe.png", Data: []byte("x")}, canvas.KindImage)

	s.EditText(context.Background(), img.ID, "free money")

	got, _ := s.Store().Get(img.ID)
	if got.Content != "" || calls != 0 {
		t.Errorf("content = %q, compliance calls = %d", got.Content, calls)
	}
}

func TestStaleComplianceDiscarded(t *testing.T) {
	slowEntered := make(chan struct{})
	releaseSlow := make(chan struct{})
	s := NewSession(WithComplianceChecker(checkerFunc(func(_ context.Context, text string) ([]string, error) {
		if text == "old" {
			close(slowEntered)
			<-releaseSlow
			return []string{"stale"}, nil
		}
		return []string{"fresh"}, nil
	})))
	e := s.AddText()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.EditText(context.Background(), e.ID, "old")
	}()
	<-slowEntered

	if got := s.EditText(context.Background(), e.ID, "new"); !slices.Equal(got, []string{"fresh"}) {
		t.Fatalf("new feedback = %q", got)
	}
	close(releaseSlow)
	wg.Wait()

	if got := s.Feedback(); !slices.Equal(got, []string{"fresh"}) {
		t.Errorf("feedback = %q, stale result overwrote it", got)
	}
}

func TestExportEmptySceneIsWhite(t *testing.T) {
	s := NewSession()

	var name string
	var data []byte
	sink := export.SinkFunc(func(n string, d []byte) error {
		name, data = n, d
		return nil
	})
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.Export(ctx, export.Target{Width: 500, Height: 500, Name: "blank"}, sink); err != nil {
		t.Fatalf("Export: %v", err)
	}
	if name != "blank.png" {
		t.Errorf("name = %q", name)
	}

	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 500 || b.Dy() != 500 {
		t.Fatalf("bounds = %v", b)
	}
	for y := 0; y < 500; y += 7 {
		for x := 0; x < 500; x += 7 {
			r, g, b, a := img.At(x, y).RGBA()
			if r != 0xffff || g != 0xffff || b != 0xffff || a != 0xffff {
				t.Fatalf("pixel (%d,%d) = %v, %v, %v, %v", x, y, r, g, b, a)
			}
		}
	}
}

func TestExportResolvesUploadedBlob(t *testing.T) {
	s := NewSession()
	e := s.AddImage(context.Background(), collab.Upload{Name: "red.png", Data: redPNG(t)}, canvas.KindImage)
	s.Store().Update(e.ID, canvas.Move(0, 0))

	var data []byte
	sink := export.SinkFunc(func(_ string, d []byte) error {
		data = d
		return nil
	})
	if err := s.Export(context.Background(), export.Preset1200x628, sink); err != nil {
		t.Fatalf("Export: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	r, g, b, _ := img.At(160, 160).RGBA()
	if r>>8 < 200 || g>>8 > 60 || b>>8 > 60 {
		t.Errorf("center pixel = %d,%d,%d, want red", r>>8, g>>8, b>>8)
	}
}

func redPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			img.Set(x, y, color.RGBA{R: 255, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}
