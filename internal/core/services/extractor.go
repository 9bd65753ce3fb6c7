// Copyright 2024 Google, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package services contains the business logic of the viewing-history pipeline.
// This file, `extractor.go`, unpacks the account export archive.
//
// Logic Flow:
//  1. Sniff the first bytes of the archive; anything but a zip is rejected.
//  2. Walk the archive entries and refuse any entry that would land outside
//     the destination folder.
//  3. Copy every file entry to disk, creating parent folders as needed.
package services

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/h2non/filetype"
	"github.com/h2non/filetype/matchers"
	"github.com/jaycherian/viewing-insights/internal/core/model"
)

// ErrNotZip is returned when the export file is not a zip archive.
var ErrNotZip = errors.New("export is not a zip archive")

// sniffLength is the number of header bytes filetype needs to match any type.
const sniffLength = 261

// SniffFile returns the detected type of the file at path.
func SniffFile(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", &model.IOError{Op: "open", Path: path, Err: err}
	}
	defer file.Close()

	head := make([]byte, sniffLength)
	n, err := io.ReadFull(file, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", &model.IOError{Op: "read", Path: path, Err: err}
	}
	kind, err := filetype.Match(head[:n])
	if err != nil {
		return "", err
	}
	return kind.MIME.Value, nil
}

// ExtractExport unpacks archivePath into dest.
//
// Inputs:
//   - archivePath: The export zip file.
//   - dest: The folder receiving the extracted files.
//
// Outputs:
//   - []string: Paths of the extracted files, in archive order.
//   - error: ErrNotZip, a *model.IOError, or an unsafe-entry error.
func ExtractExport(archivePath string, dest string) ([]string, error) {
	start := time.Now()
	mime, err := SniffFile(archivePath)
	if err != nil {
		return nil, err
	}
	if mime != matchers.TypeZip.MIME.Value {
		return nil, fmt.Errorf("%s (detected %q): %w", archivePath, mime, ErrNotZip)
	}

	reader, err := zip.OpenReader(archivePath)
	if err != nil {
		return nil, &model.IOError{Op: "open", Path: archivePath, Err: err}
	}
	defer reader.Close()

	root, err := filepath.Abs(dest)
	if err != nil {
		return nil, &model.IOError{Op: "resolve", Path: dest, Err: err}
	}

	out := make([]string, 0, len(reader.File))
	for _, entry := range reader.File {
		target := filepath.Join(root, entry.Name)
		if target != root && !strings.HasPrefix(target, root+string(os.PathSeparator)) {
			return out, fmt.Errorf("archive entry %q escapes %s", entry.Name, dest)
		}
		if entry.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return out, &model.IOError{Op: "mkdir", Path: target, Err: err}
			}
			continue
		}
		if err := extractEntry(entry, target); err != nil {
			return out, err
		}
		out = append(out, target)
	}
	slog.Info("extracted export", "archive", archivePath, "files", len(out), "elapsed", time.Since(start).String())
	return out, nil
}

func extractEntry(entry *zip.File, target string) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return &model.IOError{Op: "mkdir", Path: filepath.Dir(target), Err: err}
	}
	src, err := entry.Open()
	if err != nil {
		return &model.IOError{Op: "open", Path: entry.Name, Err: err}
	}
	defer src.Close()

	dst, err := os.Create(target)
	if err != nil {
		return &model.IOError{Op: "create", Path: target, Err: err}
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return &model.IOError{Op: "write", Path: target, Err: err}
	}
	if err := dst.Close(); err != nil {
		return &model.IOError{Op: "close", Path: target, Err: err}
	}
	return nil
}
