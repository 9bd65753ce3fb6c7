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

// Package cloud contains data structures and utilities for interacting with Google Cloud services.
// This file defines the internal representation of a Google Cloud Storage (GCS)
// object and the rules used to name and type the objects a run publishes.
//
// Structs:
//   - GCSObject: A simplified internal model for GCS objects used in processing workflows.
//
// Functions:
//   - ObjectName: Builds the object name of a local file published by a run.
//   - ContentType: Detects the MIME type sent with an upload.
package cloud

import (
	"path"
	"path/filepath"
	"strings"

	"github.com/h2non/filetype"
)

// Content types that filetype cannot sniff, keyed by extension.
var textContentTypes = map[string]string{
	".csv":  "text/csv",
	".json": "application/json",
	".txt":  "text/plain",
	".log":  "text/plain",
}

const defaultContentType = "application/octet-stream"

// GCSObject is a simplified, internal representation of a Google Cloud Storage (GCS)
// object.
type GCSObject struct {
	Bucket   string // The name of the GCS bucket.
	Name     string // The name of the object.
	MIMEType string // The MIME type of the object (e.g., "application/pdf").
}

// ObjectName returns `<prefix>/<runId>/<rel>` where rel is the path of file
// relative to root, with forward slashes. Files outside root keep only their
// base name.
func ObjectName(prefix string, runId string, root string, file string) string {
	rel, err := filepath.Rel(root, file)
	if err != nil || strings.HasPrefix(rel, "..") {
		rel = filepath.Base(file)
	}
	return path.Join(strings.Trim(prefix, "/"), runId, filepath.ToSlash(rel))
}

// ContentType sniffs the MIME type of the file at fileName. Text formats,
// which carry no magic number, fall back to their extension.
func ContentType(fileName string) string {
	kind, err := filetype.MatchFile(fileName)
	if err == nil && kind != filetype.Unknown {
		return kind.MIME.Value
	}
	if ct, ok := textContentTypes[strings.ToLower(filepath.Ext(fileName))]; ok {
		return ct
	}
	return defaultContentType
}
