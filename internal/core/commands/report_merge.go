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
// command merging every figure into the final PDF report.
//
// Inputs:
//   - CtxIn (model.ChartData): Passed through to CtxOut.
//
// Outputs:
//   - report.pdf: Every figure PDF, sorted by file name.
package commands

import (
	"fmt"
	"log/slog"

	"github.com/jaycherian/viewing-insights/internal/core/charts"
	"github.com/jaycherian/viewing-insights/internal/core/cor"
	"github.com/jaycherian/viewing-insights/internal/core/model"
)

// ReportMerge merges the figures.
type ReportMerge struct {
	cor.BaseCommand
	figuresDir string
	reportFile string
}

// NewReportMerge is the constructor for ReportMerge.
func NewReportMerge(name string, figuresDir string, reportFile string) *ReportMerge {
	return &ReportMerge{BaseCommand: *cor.NewBaseCommand(name), figuresDir: figuresDir, reportFile: reportFile}
}

// IsExecutable requires a model.ChartData input.
func (c *ReportMerge) IsExecutable(context cor.Context) bool {
	return isChartData(context, c.GetInputParam())
}

func (c *ReportMerge) Execute(context cor.Context) {
	data := context.Get(c.GetInputParam()).(model.ChartData)
	figures, err := charts.MergeReport(c.figuresDir, c.reportFile)
	if err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), fmt.Errorf("failed to merge report: %w", err))
		return
	}
	c.GetSuccessCounter().Add(context.GetContext(), 1)
	slog.InfoContext(context.GetContext(), "report merged", "path", c.reportFile, "figures", len(figures))
	AddArtifacts(context, model.ArtifactReport, c.reportFile)
	context.Add(c.GetOutputParam(), data)
}
