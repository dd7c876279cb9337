// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package export

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Sink receives finished files. It plays the role of the browser download:
// the exporter hands it a file name and the encoded bytes.
type Sink interface {
	Save(name string, data []byte) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(name string, data []byte) error

// Save calls f.
func (f SinkFunc) Save(name string, data []byte) error {
	return f(name, data)
}

// DirSink writes files into a directory, creating it when needed.
type DirSink struct {
	Dir string
}

// Save writes data to Dir/name.
func (s DirSink) Save(name string, data []byte) error {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return fmt.Errorf("export: create %s: %w", s.Dir, err)
	}
	path := filepath.Join(s.Dir, filepath.Base(name))
	if err := os.WriteFile(path, data, 0o644); err != nil { //nolint:gosec // output directory is user-provided intentionally
		return fmt.Errorf("export: write %s: %w", path, err)
	}
	return nil
}

// WriterSink writes the bytes of every file to W, ignoring names.
type WriterSink struct {
	W io.Writer
}

// Save writes data to W.
func (s WriterSink) Save(_ string, data []byte) error {
	_, err := s.W.Write(data)
	return err
}
