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
// command listing the files the publish stage uploads.
//
// Logic Flow:
//  1. List the tables (*.csv) of the interim folder.
//  2. List the figures (*.pdf) and the animations (*.gif).
//  3. Add the merged report, when it exists.
//
// The listing replaces any artifacts recorded by earlier stages, since the
// folders are the source of truth when the stage runs on its own.
//
// Outputs:
//   - CtxOut (model.Artifacts): Every file found, in the order above.
package commands

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"

	"github.com/jaycherian/viewing-insights/internal/cloud"
	"github.com/jaycherian/viewing-insights/internal/core/cor"
	"github.com/jaycherian/viewing-insights/internal/core/model"
)

// ArtifactCollector lists the produced files.
type ArtifactCollector struct {
	cor.BaseCommand
	paths cloud.Paths
}

// NewArtifactCollector is the constructor for ArtifactCollector.
func NewArtifactCollector(name string, paths cloud.Paths) *ArtifactCollector {
	return &ArtifactCollector{BaseCommand: *cor.NewBaseCommand(name), paths: paths}
}

// IsExecutable only needs a Go context, the input is ignored.
func (c *ArtifactCollector) IsExecutable(context cor.Context) bool {
	return context != nil && context.GetContext() != nil
}

func (c *ArtifactCollector) Execute(context cor.Context) {
	var artifacts model.Artifacts
	scans := []struct {
		kind    model.ArtifactKind
		pattern string
	}{
		{model.ArtifactTable, filepath.Join(c.paths.InterimDir, "*.csv")},
		{model.ArtifactFigure, filepath.Join(c.paths.FiguresDir, "*.pdf")},
		{model.ArtifactAnimation, filepath.Join(c.paths.AnimationDir(), "*.gif")},
	}
	for _, scan := range scans {
		files, err := filepath.Glob(scan.pattern)
		if err != nil {
			c.GetErrorCounter().Add(context.GetContext(), 1)
			context.AddError(c.GetName(), fmt.Errorf("failed to list %s: %w", scan.pattern, err))
			return
		}
		slices.Sort(files)
		for _, file := range files {
			artifacts = append(artifacts, model.Artifact{Kind: scan.kind, Path: file})
		}
	}
	if _, err := os.Stat(c.paths.ReportFile()); err == nil {
		artifacts = append(artifacts, model.Artifact{Kind: model.ArtifactReport, Path: c.paths.ReportFile()})
	}

	c.GetSuccessCounter().Add(context.GetContext(), 1)
	slog.InfoContext(context.GetContext(), "collected artifacts", "count", len(artifacts))
	context.Add(GetArtifactsParameterName(), artifacts)
	context.Add(c.GetOutputParam(), artifacts)
}
