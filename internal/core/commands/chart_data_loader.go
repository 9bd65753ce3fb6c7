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
// command loading the inputs of the presentation stage from the interim
// tables.
//
// Logic Flow:
//  1. Read netflix_data.csv and restore the profile order from it.
//  2. Read the series_info table of the configured scope, when it exists.
//  3. Keep the longest series, by total duration, up to the configured count.
//
// Inputs:
//   - CtxIn (string): The interim folder.
//
// Outputs:
//   - CtxOut (model.ChartData): Events, profiles and series of the scope.
package commands

import (
	"cmp"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"slices"

	"github.com/jaycherian/viewing-insights/internal/core/cor"
	"github.com/jaycherian/viewing-insights/internal/core/model"
	"github.com/jaycherian/viewing-insights/internal/core/services"
)

// ChartDataLoader loads model.ChartData.
type ChartDataLoader struct {
	cor.BaseCommand
	store     *services.TableStore
	scope     string
	topSeries int
}

// NewChartDataLoader is the constructor for ChartDataLoader.
//
// Inputs:
//   - name: A string name for this command instance.
//   - store: The interim table store.
//   - scope: The scope whose series are charted.
//   - topSeries: The number of series kept, 0 keeps them all.
func NewChartDataLoader(name string, store *services.TableStore, scope string, topSeries int) *ChartDataLoader {
	return &ChartDataLoader{BaseCommand: *cor.NewBaseCommand(name), store: store, scope: scope, topSeries: topSeries}
}

// IsExecutable requires the interim folder as a string input.
func (c *ChartDataLoader) IsExecutable(context cor.Context) bool {
	_, ok := cor.Get[string](context, c.GetInputParam())
	return ok && context.GetContext() != nil
}

func (c *ChartDataLoader) Execute(context cor.Context) {
	events, err := c.store.ReadEvents(model.EventsFileName)
	if err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), fmt.Errorf("failed to load events: %w", err))
		return
	}
	data := model.ChartData{Events: events, Profiles: services.ProfilesOf(events).IDs(), Scope: c.scope}

	name := model.TableFileName(c.scope, model.TableSeriesInfo)
	series, err := c.store.ReadSeriesSummaries(name)
	switch {
	case errors.Is(err, os.ErrNotExist):
		slog.WarnContext(context.GetContext(), "no series table for scope, skipping timelines", "scope", c.scope)
	case err != nil:
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), fmt.Errorf("failed to load %s: %w", name, err))
		return
	default:
		slices.SortStableFunc(series, func(a, b model.SeriesSummary) int {
			return cmp.Compare(b.TotalDurationHours, a.TotalDurationHours)
		})
		if c.topSeries > 0 && len(series) > c.topSeries {
			series = series[:c.topSeries]
		}
		data.Series = series
	}

	c.GetSuccessCounter().Add(context.GetContext(), 1)
	context.Add(c.GetOutputParam(), data)
}

func isChartData(context cor.Context, param string) bool {
	_, ok := cor.Get[model.ChartData](context, param)
	return ok && context.GetContext() != nil
}
