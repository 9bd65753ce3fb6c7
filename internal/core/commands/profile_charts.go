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
// command drawing the stacked profile charts.
//
// Inputs:
//   - CtxIn (model.ChartData): Passed through to CtxOut.
//
// Outputs:
//   - img0_profile_duration.pdf: Hours per profile and bin.
//   - img1_profile_proportion.pdf: Share of each profile per bin.
package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jaycherian/viewing-insights/internal/core/charts"
	"github.com/jaycherian/viewing-insights/internal/core/cor"
	"github.com/jaycherian/viewing-insights/internal/core/model"
)

const (
	ProfileDurationFigure   = "img0_profile_duration.pdf"
	ProfileProportionFigure = "img1_profile_proportion.pdf"
)

// ProfileCharts draws the profile area charts.
type ProfileCharts struct {
	cor.BaseCommand
	renderer   *charts.Renderer
	figuresDir string
	binMonths  int
}

// NewProfileCharts is the constructor for ProfileCharts.
func NewProfileCharts(name string, renderer *charts.Renderer, figuresDir string, binMonths int) *ProfileCharts {
	return &ProfileCharts{BaseCommand: *cor.NewBaseCommand(name), renderer: renderer, figuresDir: figuresDir, binMonths: binMonths}
}

// IsExecutable requires a model.ChartData input.
func (c *ProfileCharts) IsExecutable(context cor.Context) bool {
	return isChartData(context, c.GetInputParam())
}

func (c *ProfileCharts) Execute(context cor.Context) {
	data := context.Get(c.GetInputParam()).(model.ChartData)
	if err := os.MkdirAll(c.figuresDir, 0o755); err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), &model.IOError{Op: "mkdir", Path: c.figuresDir, Err: err})
		return
	}

	bins := charts.BinProfiles(data.Events, data.Profiles, c.binMonths)
	duration := filepath.Join(c.figuresDir, ProfileDurationFigure)
	proportion := filepath.Join(c.figuresDir, ProfileProportionFigure)
	if err := c.renderer.ProfileDuration(bins, duration); err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), fmt.Errorf("failed to draw profile duration: %w", err))
		return
	}
	if err := c.renderer.ProfileProportion(bins, proportion); err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), fmt.Errorf("failed to draw profile proportion: %w", err))
		return
	}

	c.GetSuccessCounter().Add(context.GetContext(), 1)
	AddArtifacts(context, model.ArtifactFigure, duration, proportion)
	context.Add(c.GetOutputParam(), data)
}
