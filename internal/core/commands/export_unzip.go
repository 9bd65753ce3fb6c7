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
// command that unpacks the account export archive.
//
// Logic Flow:
//  1. Read the archive path from the input parameter.
//  2. Extract the archive into the export folder.
//  3. Check the viewing activity file is part of the export.
//  4. Emit the path of the viewing activity file.
//
// Inputs:
//   - CtxIn (string): Path of the export zip file.
//
// Outputs:
//   - CtxOut (string): Path of the extracted viewing activity CSV.
package commands

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/jaycherian/viewing-insights/internal/core/cor"
	"github.com/jaycherian/viewing-insights/internal/core/services"
)

// ExportUnzip extracts the export archive.
type ExportUnzip struct {
	cor.BaseCommand
	exportDir    string // Folder receiving the extracted files.
	activityFile string // Expected location of the viewing activity file.
}

// NewExportUnzip is the constructor for ExportUnzip.
//
// Inputs:
//   - name: A string name for this command instance.
//   - exportDir: The folder receiving the extracted export.
//   - activityFile: Where the viewing activity CSV lands once extracted.
func NewExportUnzip(name string, exportDir string, activityFile string) *ExportUnzip {
	return &ExportUnzip{BaseCommand: *cor.NewBaseCommand(name), exportDir: exportDir, activityFile: activityFile}
}

// IsExecutable requires the archive path as a string input.
func (c *ExportUnzip) IsExecutable(context cor.Context) bool {
	_, ok := cor.Get[string](context, c.GetInputParam())
	return ok && context.GetContext() != nil
}

func (c *ExportUnzip) Execute(context cor.Context) {
	archive := context.Get(c.GetInputParam()).(string)

	files, err := services.ExtractExport(archive, c.exportDir)
	if err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), fmt.Errorf("failed to extract %s: %w", archive, err))
		return
	}
	if _, err := os.Stat(c.activityFile); err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), fmt.Errorf("viewing activity not found in export %s: %w", archive, err))
		return
	}

	c.GetSuccessCounter().Add(context.GetContext(), 1)
	slog.InfoContext(context.GetContext(), "export extracted", "archive", archive, "files", len(files), "activity", c.activityFile)
	context.Add(c.GetOutputParam(), c.activityFile)
}
