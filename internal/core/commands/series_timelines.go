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
// command drawing one timeline per series of the charted scope.
//
// Inputs:
//   - CtxIn (model.ChartData): Passed through to CtxOut.
//
// Outputs:
//   - img2_series__<slug>.pdf for every series, where slug is derived from
//     the base title. Colliding slugs get a numeric suffix.
package commands

import (
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/jaycherian/viewing-insights/internal/core/charts"
	"github.com/jaycherian/viewing-insights/internal/core/cor"
	"github.com/jaycherian/viewing-insights/internal/core/model"
)

// SeriesTimelineFigure returns the file name of the timeline of a series.
func SeriesTimelineFigure(slug string) string {
	return "img2_series__" + slug + ".pdf"
}

// SeriesTimelines draws the series timelines.
type SeriesTimelines struct {
	cor.BaseCommand
	renderer   *charts.Renderer
	figuresDir string
	gapDays    float64
}

// NewSeriesTimelines is the constructor for SeriesTimelines. Viewing streaks
// are split where consecutive days are more than gapDays apart.
func NewSeriesTimelines(name string, renderer *charts.Renderer, figuresDir string, gapDays float64) *SeriesTimelines {
	return &SeriesTimelines{BaseCommand: *cor.NewBaseCommand(name), renderer: renderer, figuresDir: figuresDir, gapDays: gapDays}
}

// IsExecutable requires a model.ChartData input.
func (c *SeriesTimelines) IsExecutable(context cor.Context) bool {
	return isChartData(context, c.GetInputParam())
}

func (c *SeriesTimelines) Execute(context cor.Context) {
	data := context.Get(c.GetInputParam()).(model.ChartData)
	used := make(map[string]int)
	var paths []string
	for _, series := range data.Series {
		slug := charts.Slug(series.BaseTitle)
		if slug == "" {
			slug = "untitled"
		}
		used[slug]++
		if n := used[slug]; n > 1 {
			slug += "_" + strconv.Itoa(n)
		}
		path := filepath.Join(c.figuresDir, SeriesTimelineFigure(slug))
		if err := c.renderer.SaveSeriesTimeline(series, c.gapDays, path); err != nil {
			c.GetErrorCounter().Add(context.GetContext(), 1)
			context.AddError(c.GetName(), fmt.Errorf("failed to draw timeline of %q: %w", series.BaseTitle, err))
			return
		}
		paths = append(paths, path)
	}

	c.GetSuccessCounter().Add(context.GetContext(), 1)
	AddArtifacts(context, model.ArtifactFigure, paths...)
	context.Add(c.GetOutputParam(), data)
}
