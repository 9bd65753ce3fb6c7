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

// Package workflow defines the high-level business logic orchestrations,
// combining various commands into coherent pipelines. This file implements the
// presentation stage, which only depends on the interim tables.
package workflow

import (
	"fmt"

	"github.com/jaycherian/viewing-insights/internal/cloud"
	"github.com/jaycherian/viewing-insights/internal/core/charts"
	"github.com/jaycherian/viewing-insights/internal/core/commands"
	"github.com/jaycherian/viewing-insights/internal/core/cor"
	"github.com/jaycherian/viewing-insights/internal/core/services"
)

// VisualizationWorkflow draws every figure and animation from the interim
// tables and merges the figures into the report.
type VisualizationWorkflow struct {
	cor.BaseCommand
	config   *cloud.Config
	store    *services.TableStore
	renderer *charts.Renderer
	animator *charts.Animator // Nil when animations are skipped.
	chain    cor.Chain
}

// IsExecutable is false when the stage is disabled.
func (w *VisualizationWorkflow) IsExecutable(context cor.Context) bool {
	return w.config.Visualization.Enabled && w.chain.IsExecutable(context)
}

// Execute always starts from the interim folder, whatever the previous
// stage left in the context.
func (w *VisualizationWorkflow) Execute(context cor.Context) {
	context.Add(cor.CtxIn, w.config.Paths.InterimDir)
	w.chain.Execute(context)
}

func (w *VisualizationWorkflow) initializeChain() {
	v := w.config.Visualization
	paths := w.config.Paths
	out := cor.NewBaseChain(w.GetName())

	// Step 1: Load events and the longest series of the charted scope.
	out.AddCommand(commands.NewChartDataLoader("chart-data-loader", w.store, v.SeriesScope, v.TopSeries))

	// Step 2: img0 and img1, hours and share per profile.
	out.AddCommand(commands.NewProfileCharts("profile-charts", w.renderer, paths.FiguresDir, v.BinMonths))

	// Step 3: Running total of hours per profile.
	if w.animator != nil {
		out.AddCommand(commands.NewCumulativeAnimation("cumulative-animation", w.animator, paths.AnimationDir(),
			v.AnimationStepDays, v.MaxAnimationFrame, float64(v.FrameDelayMillis)))
	}

	// Step 4: One timeline per series.
	out.AddCommand(commands.NewSeriesTimelines("series-timelines", w.renderer, paths.FiguresDir, v.ClusterGapDays))

	// Step 5: Month by year heatmaps, and their fill animations.
	out.AddCommand(commands.NewCalendarHeatmaps("calendar-heatmaps", w.renderer, w.animator, paths.FiguresDir, paths.AnimationDir()))

	// Step 6: Merge every figure into report.pdf.
	out.AddCommand(commands.NewReportMerge("report-merge", paths.FiguresDir, paths.ReportFile()))

	w.chain = out
}

// NewVisualizationWorkflow is the constructor for the VisualizationWorkflow.
//
// Inputs:
//   - config: The application's overall configuration.
//
// Returns:
//   - A pointer to the workflow, or an error when the color map is invalid.
func NewVisualizationWorkflow(config *cloud.Config) (*VisualizationWorkflow, error) {
	colormap, err := charts.NewColormap(config.Visualization.Colors)
	if err != nil {
		return nil, fmt.Errorf("invalid visualization colors: %w", err)
	}
	renderer := charts.NewRenderer(colormap, config.Visualization.FigureWidthCm, config.Visualization.FigureHeightCm)
	workflow := &VisualizationWorkflow{
		BaseCommand: *cor.NewBaseCommand("visualization-workflow"),
		config:      config,
		store:       services.NewTableStore(config.Paths.InterimDir),
		renderer:    renderer,
	}
	if !config.Visualization.SkipAnimations {
		workflow.animator = charts.NewAnimator(renderer, config.Visualization.FramePixels)
	}
	workflow.initializeChain()
	return workflow, nil
}
