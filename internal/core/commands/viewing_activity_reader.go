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

// Package commands provides the concrete implementations of the Chain of
// Responsibility (COR) pattern's Command interface. This file defines the
// command reading the viewing activity CSV into an untyped table.
//
// Inputs:
//   - CtxIn (string): Path of the viewing activity CSV.
//
// Outputs:
//   - CtxOut (model.RawTable): Header and records, as read.
package commands

import (
	"fmt"
	"log/slog"

	"github.com/jaycherian/viewing-insights/internal/core/cor"
	"github.com/jaycherian/viewing-insights/internal/core/services"
)

// ViewingActivityReader reads the raw viewing activity table.
type ViewingActivityReader struct {
	cor.BaseCommand
}

// NewViewingActivityReader is the constructor for ViewingActivityReader.
func NewViewingActivityReader(name string) *ViewingActivityReader {
	return &ViewingActivityReader{BaseCommand: *cor.NewBaseCommand(name)}
}

// IsExecutable requires the file path as a string input.
func (c *ViewingActivityReader) IsExecutable(context cor.Context) bool {
	_, ok := cor.Get[string](context, c.GetInputParam())
	return ok && context.GetContext() != nil
}

func (c *ViewingActivityReader) Execute(context cor.Context) {
	path := context.Get(c.GetInputParam()).(string)
	table, err := services.ReadRawTable(path)
	if err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), fmt.Errorf("failed to read viewing activity: %w", err))
		return
	}
	c.GetSuccessCounter().Add(context.GetContext(), 1)
	slog.DebugContext(context.GetContext(), "viewing activity read", "path", path, "records", len(table.Records))
	context.Add(c.GetOutputParam(), table)
}
