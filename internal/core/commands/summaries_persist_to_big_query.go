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
// command streaming the summaries of a report into BigQuery.
//
// Logic Flow:
//  1. Retrieve the report and the run from the context.
//  2. Create the movie and series tables when they are missing.
//  3. Convert every summary of every scope into a row keyed by run id and
//     scope, and stream the rows with the table inserter. The client maps
//     struct fields to columns through their `bigquery` tags.
package commands

import (
	"fmt"
	"log/slog"

	"github.com/jaycherian/viewing-insights/internal/core/cor"
	"github.com/jaycherian/viewing-insights/internal/core/model"
	"github.com/jaycherian/viewing-insights/internal/core/services"
)

// SummariesPersistToBigQuery is a command that saves the summaries of a
// report to BigQuery tables.
type SummariesPersistToBigQuery struct {
	cor.BaseCommand
	service *services.ReportService
}

// NewSummariesPersistToBigQuery is the constructor for the SummariesPersistToBigQuery command.
func NewSummariesPersistToBigQuery(name string, service *services.ReportService) *SummariesPersistToBigQuery {
	return &SummariesPersistToBigQuery{BaseCommand: *cor.NewBaseCommand(name), service: service}
}

// IsExecutable requires the report and the run in the context.
func (s *SummariesPersistToBigQuery) IsExecutable(context cor.Context) bool {
	_, hasReport := cor.Get[model.Report](context, GetReportParameterName())
	_, hasRun := cor.Get[*model.Run](context, GetRunParameterName())
	return hasReport && hasRun && context.GetContext() != nil
}

func (s *SummariesPersistToBigQuery) Execute(context cor.Context) {
	report := context.Get(GetReportParameterName()).(model.Report)
	run := context.Get(GetRunParameterName()).(*model.Run)

	if err := s.service.EnsureTables(context.GetContext()); err != nil {
		s.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(s.GetName(), err)
		return
	}

	var movies []*model.MovieSummaryRow
	var series []*model.SeriesSummaryRow
	for _, scope := range report.Scopes {
		result := report.Results[scope]
		for _, summary := range result.MovieSummaries {
			movies = append(movies, model.NewMovieSummaryRow(run.Id, scope, summary))
		}
		for _, summary := range result.SeriesSummaries {
			series = append(series, model.NewSeriesSummaryRow(run.Id, scope, summary))
		}
	}

	dataset := s.service.BigqueryClient.Dataset(s.service.DatasetName)
	if len(movies) > 0 {
		if err := dataset.Table(s.service.MovieTable).Inserter().Put(context.GetContext(), movies); err != nil {
			s.GetErrorCounter().Add(context.GetContext(), 1)
			context.AddError(s.GetName(), fmt.Errorf("bigquery insert into %s failed: %w", s.service.GetFQN(s.service.MovieTable), err))
			return
		}
	}
	if len(series) > 0 {
		if err := dataset.Table(s.service.SeriesTable).Inserter().Put(context.GetContext(), series); err != nil {
			s.GetErrorCounter().Add(context.GetContext(), 1)
			context.AddError(s.GetName(), fmt.Errorf("bigquery insert into %s failed: %w", s.service.GetFQN(s.service.SeriesTable), err))
			return
		}
	}

	s.GetSuccessCounter().Add(context.GetContext(), 1)
	slog.InfoContext(context.GetContext(), "persisted summaries to bigquery", "run", run.Id, "movies", len(movies), "series", len(series))
	context.Add(cor.CtxOut, context.Get(s.GetInputParam()))
}
