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

// Package model defines the core data structures for the application.
// This file, `errors.go`, holds the error taxonomy of the pipeline. Parse,
// schema and I/O errors abort a run; a DegenerateGroupWarning is reported
// alongside a result and never stops it.
package model

import "fmt"

// ParseError reports a malformed value in the viewing-activity export.
type ParseError struct {
	Line   int    // 1-based line in the CSV file, header included.
	Column string // Normalized column name.
	Value  string // The offending raw value.
	Err    error  // Underlying parse failure, if any.
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("line %d: cannot parse %s %q: %v", e.Line, e.Column, e.Value, e.Err)
	}
	return fmt.Sprintf("line %d: cannot parse %s %q", e.Line, e.Column, e.Value)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// SchemaError reports that the export does not carry a required column.
type SchemaError struct {
	Version string // Schema version the header was checked against.
	Column  string // Missing canonical column name.
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("schema %s: required column %q not found", e.Version, e.Column)
}

// IOError reports a filesystem failure together with the path involved.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// DegenerateGroupWarning flags a series group whose rate or waiting-time
// metrics are undefined and were set to NaN.
type DegenerateGroupWarning struct {
	Scope     string
	BaseTitle string
	Events    int
	Reason    string
}

func (w DegenerateGroupWarning) Error() string {
	return fmt.Sprintf("degenerate series group %q in scope %s (%d events): %s", w.BaseTitle, w.Scope, w.Events, w.Reason)
}
