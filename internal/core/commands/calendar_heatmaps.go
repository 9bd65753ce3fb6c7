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
// command drawing the calendar heatmaps, for the whole account and for each
// profile, and their fill animations.
//
// Inputs:
//   - CtxIn (model.ChartData): Passed through to CtxOut.
//
// Outputs:
//   - img3_hours_month_year.pdf and img3_hours_month_year__<profile>.pdf
//   - animations/heatmap.gif and animations/heatmap__<profile>.gif, unless
//     animations are disabled.
package commands

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/jaycherian/viewing-insights/internal/core/charts"
	"github.com/jaycherian/viewing-insights/internal/core/cor"
	"github.com/jaycherian/viewing-insights/internal/core/model"
)

const calendarTitle = "Total hours watched per month"

// CalendarFigure returns the heatmap file name of profile, or of the whole
// account when profile is empty.
func CalendarFigure(profile string) string {
	if profile == "" {
		return "img3_hours_month_year.pdf"
	}
	return "img3_hours_month_year__" + profile + ".pdf"
}

// CalendarAnimation returns the fill animation file name of profile, or of
// the whole account when profile is empty.
func CalendarAnimation(profile string) string {
	if profile == "" {
		return "heatmap.gif"
	}
	return "heatmap__" + profile + ".gif"
}

// CalendarHeatmaps draws the calendar heatmaps.
type CalendarHeatmaps struct {
	cor.BaseCommand
	renderer     *charts.Renderer
	animator     *charts.Animator // Nil disables the animations.
	figuresDir   string
	animationDir string
}

// NewCalendarHeatmaps is the constructor for CalendarHeatmaps.
func NewCalendarHeatmaps(name string, renderer *charts.Renderer, animator *charts.Animator, figuresDir string, animationDir string) *CalendarHeatmaps {
	return &CalendarHeatmaps{
		BaseCommand:  *cor.NewBaseCommand(name),
		renderer:     renderer,
		animator:     animator,
		figuresDir:   figuresDir,
		animationDir: animationDir,
	}
}

// IsExecutable requires a model.ChartData input.
func (c *CalendarHeatmaps) IsExecutable(context cor.Context) bool {
	return isChartData(context, c.GetInputParam())
}

func (c *CalendarHeatmaps) Execute(context cor.Context) {
	data := context.Get(c.GetInputParam()).(model.ChartData)
	if c.animator != nil {
		if err := os.MkdirAll(c.animationDir, 0o755); err != nil {
			c.GetErrorCounter().Add(context.GetContext(), 1)
			context.AddError(c.GetName(), &model.IOError{Op: "mkdir", Path: c.animationDir, Err: err})
			return
		}
	}

	for _, profile := range append([]string{""}, data.Profiles...) {
		calendar := charts.BuildCalendar(data.Events, profile)
		if len(calendar.Years) == 0 {
			slog.DebugContext(context.GetContext(), "no events, skipping calendar", "profile", profile)
			continue
		}
		title := calendarTitle
		if profile != "" {
			title += " for " + profile
		}

		figure := filepath.Join(c.figuresDir, CalendarFigure(profile))
		if err := c.renderer.SaveCalendarHeatmap(calendar, title, figure); err != nil {
			c.GetErrorCounter().Add(context.GetContext(), 1)
			context.AddError(c.GetName(), fmt.Errorf("failed to draw calendar %s: %w", figure, err))
			return
		}
		AddArtifacts(context, model.ArtifactFigure, figure)

		if c.animator == nil {
			continue
		}
		animation := filepath.Join(c.animationDir, CalendarAnimation(profile))
		if err := c.animator.CalendarFill(calendar, title, animation); err != nil {
			c.GetErrorCounter().Add(context.GetContext(), 1)
			context.AddError(c.GetName(), fmt.Errorf("failed to animate calendar %s: %w", animation, err))
			return
		}
		AddArtifacts(context, model.ArtifactAnimation, animation)
	}

	c.GetSuccessCounter().Add(context.GetContext(), 1)
	context.Add(c.GetOutputParam(), data)
}
