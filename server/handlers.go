// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gogpu/adstudio"
	"github.com/gogpu/adstudio/arrange"
	"github.com/gogpu/adstudio/canvas"
	"github.com/gogpu/adstudio/export"
	"github.com/gogpu/adstudio/suggest"
)

// Error codes reported in the "error" field of /background/remove.
const (
	ErrCodeNoAPIKey = "NO_API_KEY"
)

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": StatusMessage})
}

type removeResponse struct {
	Success bool   `json:"success"`
	URL     string `json:"url"`
	Error   string `json:"error,omitempty"`
}

// handleRemoveBackground stores the upload and, when an API key is
// configured, replaces it with the remove.bg cut-out. Any upstream
// failure is reported with the URL of the stored original.
func (s *Server) handleRemoveBackground(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	f, hdr, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("missing upload: %w", err))
		return
	}
	defer func() {
		_ = f.Close()
	}()

	name, err := uploadName(hdr.Filename)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	data, err := io.ReadAll(f)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("read upload: %w", err))
		return
	}
	if err := s.store(name, data); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	original := s.publicURL(name)

	if s.cfg.RemoveBgAPIKey == "" {
		writeJSON(w, http.StatusOK, removeResponse{URL: original, Error: ErrCodeNoAPIKey})
		return
	}

	cut, err := s.removeBg(r.Context(), name, data)
	if err != nil {
		adstudio.Logger().WarnContext(r.Context(), "server: remove.bg failed", "file", name, "err", err)
		writeJSON(w, http.StatusOK, removeResponse{URL: original, Error: err.Error()})
		return
	}
	processed := "processed_" + name
	if err := s.store(processed, cut); err != nil {
		writeJSON(w, http.StatusOK, removeResponse{URL: original, Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, removeResponse{Success: true, URL: s.publicURL(processed)})
}

type complianceRequest struct {
	Text string `json:"text"`
}

type complianceResponse struct {
	OK     bool     `json:"ok"`
	Issues []string `json:"issues"`
}

func (s *Server) handleCompliance(w http.ResponseWriter, r *http.Request) {
	var req complianceRequest
	if !s.decode(w, r, &req) {
		return
	}
	issues := s.checker.Check(req.Text)
	writeJSON(w, http.StatusOK, complianceResponse{OK: len(issues) == 0, Issues: issues})
}

type sceneRequest struct {
	Elements []canvas.Element `json:"elements"`
	Canvas   *canvas.Size     `json:"canvas"`
}

func (s *Server) sceneSize(req sceneRequest) canvas.Size {
	if req.Canvas == nil || req.Canvas.IsEmpty() {
		return s.cfg.Canvas
	}
	return *req.Canvas
}

type arrangeResponse struct {
	Suggestions []suggest.Variant `json:"suggestions"`
}

func (s *Server) handleArrange(w http.ResponseWriter, r *http.Request) {
	var req sceneRequest
	if !s.decode(w, r, &req) {
		return
	}
	if req.Elements == nil {
		req.Elements = []canvas.Element{}
	}
	writeJSON(w, http.StatusOK, arrangeResponse{Suggestions: arrange.Suggest(req.Elements, s.sceneSize(req))})
}

// handleExport renders the posted scene and answers with the PNG as a
// download. Query parameters w, h and name select the target; the
// default is the 1200x628 preset.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	target, err := exportTarget(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	var req sceneRequest
	if !s.decode(w, r, &req) {
		return
	}

	var sent bool
	sink := export.SinkFunc(func(name string, data []byte) error {
		sent = true
		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
		w.Header().Set("Content-Length", strconv.Itoa(len(data)))
		w.WriteHeader(http.StatusOK)
		_, err := w.Write(data)
		return err
	})
	if err := s.exporter.Export(r.Context(), req.Elements, s.sceneSize(req), target, sink); err != nil {
		if sent {
			adstudio.Logger().WarnContext(r.Context(), "server: export response interrupted", "err", err)
			return
		}
		if errors.Is(err, export.ErrInvalidSize) {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		adstudio.Logger().ErrorContext(r.Context(), "server: export failed", "target", target.String(), "err", err)
		writeError(w, http.StatusInternalServerError, err)
	}
}

func exportTarget(q url.Values) (export.Target, error) {
	t := export.Preset1200x628
	if v := q.Get("w"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return t, fmt.Errorf("bad width %q", v)
		}
		t.Width = n
	}
	if v := q.Get("h"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return t, fmt.Errorf("bad height %q", v)
		}
		t.Height = n
	}
	if v := q.Get("name"); v != "" {
		t.Name = v
	} else if t != export.Preset1200x628 {
		t.Name = fmt.Sprintf("export_%dx%d", t.Width, t.Height)
	}
	return t, t.Validate()
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("decode body: %w", err))
		return false
	}
	return true
}

func (s *Server) store(name string, data []byte) error {
	if err := os.WriteFile(filepath.Join(s.cfg.StaticDir, name), data, 0o644); err != nil {
		return fmt.Errorf("server: store %s: %w", name, err)
	}
	return nil
}

func (s *Server) publicURL(name string) string {
	return s.cfg.PublicURL + "/static/" + url.PathEscape(name)
}

// uploadName reduces a client file name to a plain base name.
func uploadName(name string) (string, error) {
	base := path.Base(path.Clean("/" + strings.ReplaceAll(name, `\`, "/")))
	if base == "/" || base == "." {
		return "", errors.New("upload has no file name")
	}
	return base, nil
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, map[string]string{"error": err.Error()})
}
