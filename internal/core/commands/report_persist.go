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
// commands that write the report tables and read them back.
//
// ReportPersist:
//   - CtxIn (model.Report): Passed through to CtxOut.
//   - Writes <scope>_movie.csv, <scope>_series.csv, <scope>_movie_info.csv and
//     <scope>_series_info.csv for every scope, recorded as table artifacts.
//
// ReportLoader:
//   - Loads the report tables into GetReportParameterName() when the context
//     does not hold a report yet. The primary input is passed through.
package commands

import (
	"fmt"
	"log/slog"

	"github.com/jaycherian/viewing-insights/internal/core/cor"
	"github.com/jaycherian/viewing-insights/internal/core/model"
	"github.com/jaycherian/viewing-insights/internal/core/services"
)

// ReportPersist writes the report tables.
type ReportPersist struct {
	cor.BaseCommand
	store *services.TableStore
}

// NewReportPersist is the constructor for ReportPersist.
func NewReportPersist(name string, store *services.TableStore) *ReportPersist {
	return &ReportPersist{BaseCommand: *cor.NewBaseCommand(name), store: store}
}

// IsExecutable requires a model.Report input.
func (c *ReportPersist) IsExecutable(context cor.Context) bool {
	_, ok := cor.Get[model.Report](context, c.GetInputParam())
	return ok && context.GetContext() != nil
}

func (c *ReportPersist) Execute(context cor.Context) {
	report := context.Get(c.GetInputParam()).(model.Report)
	paths, err := c.store.SaveReport(report)
	AddArtifacts(context, model.ArtifactTable, paths...)
	if err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), fmt.Errorf("failed to persist report: %w", err))
		return
	}
	c.GetSuccessCounter().Add(context.GetContext(), 1)
	slog.InfoContext(context.GetContext(), "report persisted", "tables", len(paths))
	context.Add(c.GetOutputParam(), report)
}

// ReportLoader reads the report tables back.
type ReportLoader struct {
	cor.BaseCommand
	store *services.TableStore
}

// NewReportLoader is the constructor for ReportLoader.
func NewReportLoader(name string, store *services.TableStore) *ReportLoader {
	return &ReportLoader{BaseCommand: *cor.NewBaseCommand(name), store: store}
}

// IsExecutable is true while the context holds no report.
func (c *ReportLoader) IsExecutable(context cor.Context) bool {
	return context != nil && context.GetContext() != nil && context.Get(GetReportParameterName()) == nil
}

func (c *ReportLoader) Execute(context cor.Context) {
	in := context.Get(c.GetInputParam())
	report, err := c.store.LoadReport()
	if err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), fmt.Errorf("failed to load report: %w", err))
		return
	}
	c.GetSuccessCounter().Add(context.GetContext(), 1)
	context.Add(GetReportParameterName(), report)
	if in != nil {
		context.Add(c.GetOutputParam(), in)
	}
}
