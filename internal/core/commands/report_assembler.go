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
// command that aggregates the events into the scoped report.
//
// Logic Flow:
//  1. Aggregate every event into the "general" scope.
//  2. Aggregate the events of each profile into its own scope, in ProfileMap
//     order. Without a ProfileMap in the context it is restored from the events.
//  3. Record every degenerate series group as a context warning.
//
// Inputs:
//   - CtxIn ([]model.ViewingEvent): Classified events.
//   - GetProfilesParameterName() (model.ProfileMap): Optional.
//
// Outputs:
//   - CtxOut (model.Report): The report, also stored under GetReportParameterName().
package commands

import (
	"log/slog"

	"github.com/jaycherian/viewing-insights/internal/core/cor"
	"github.com/jaycherian/viewing-insights/internal/core/model"
	"github.com/jaycherian/viewing-insights/internal/core/services"
)

// ReportAssembler builds the model.Report.
type ReportAssembler struct {
	cor.BaseCommand
}

// NewReportAssembler is the constructor for ReportAssembler.
func NewReportAssembler(name string) *ReportAssembler {
	return &ReportAssembler{BaseCommand: *cor.NewBaseCommand(name)}
}

// IsExecutable requires a []model.ViewingEvent input.
func (c *ReportAssembler) IsExecutable(context cor.Context) bool {
	_, ok := cor.Get[[]model.ViewingEvent](context, c.GetInputParam())
	return ok && context.GetContext() != nil
}

func (c *ReportAssembler) Execute(context cor.Context) {
	events := context.Get(c.GetInputParam()).([]model.ViewingEvent)
	profiles, ok := cor.Get[model.ProfileMap](context, GetProfilesParameterName())
	if !ok {
		profiles = services.ProfilesOf(events)
	}

	report := services.BuildReport(events, profiles)
	for _, warning := range report.Warnings() {
		slog.WarnContext(context.GetContext(), "degenerate series group", "scope", warning.Scope,
			"base_title", warning.BaseTitle, "events", warning.Events, "reason", warning.Reason)
		context.AddWarning(c.GetName(), warning)
	}

	c.GetSuccessCounter().Add(context.GetContext(), 1)
	slog.InfoContext(context.GetContext(), "report assembled", "scopes", len(report.Scopes), "warnings", len(report.Warnings()))
	context.Add(GetReportParameterName(), report)
	context.Add(c.GetOutputParam(), report)
}
