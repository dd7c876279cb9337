// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package server

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
)

// removeBg sends data to remove.bg and returns the cut-out image.
func (s *Server) removeBg(ctx context.Context, name string, data []byte) ([]byte, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("image_file", name)
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(data); err != nil {
		return nil, err
	}
	if err := mw.WriteField("size", "auto"); err != nil {
		return nil, err
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, DefaultRemoveBgTimeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.RemoveBgURL, &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("X-Api-Key", s.cfg.RemoveBgAPIKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	out, err := io.ReadAll(io.LimitReader(resp.Body, s.cfg.MaxUploadBytes*4))
	if err != nil {
		return nil, fmt.Errorf("read remove.bg response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("remove.bg: status %d: %s", resp.StatusCode, bytes.TrimSpace(out))
	}
	return out, nil
}
