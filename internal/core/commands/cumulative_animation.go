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
// command animating the cumulative hours watched by each profile.
//
// Logic Flow:
//  1. Build the running total of hours of every profile.
//  2. Plan one frame every few days between the first start and the last end.
//  3. Render and encode the frames with a constant delay.
//
// Inputs:
//   - CtxIn (model.ChartData): Passed through to CtxOut.
//
// Outputs:
//   - animations/cumulative_time.gif
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

const CumulativeTimeAnimation = "cumulative_time.gif"

// CumulativeAnimation renders the cumulative time GIF.
type CumulativeAnimation struct {
	cor.BaseCommand
	animator     *charts.Animator
	animationDir string
	stepDays     int
	maxFrames    int
	delayMs      float64
}

// NewCumulativeAnimation is the constructor for CumulativeAnimation.
//
// Inputs:
//   - name: A string name for this command instance.
//   - animator: Renders the frames.
//   - animationDir: Destination folder.
//   - stepDays: Days between frames.
//   - maxFrames: Upper bound on frames, 0 for none.
//   - delayMs: Delay of every frame.
func NewCumulativeAnimation(name string, animator *charts.Animator, animationDir string, stepDays int, maxFrames int, delayMs float64) *CumulativeAnimation {
	return &CumulativeAnimation{
		BaseCommand:  *cor.NewBaseCommand(name),
		animator:     animator,
		animationDir: animationDir,
		stepDays:     stepDays,
		maxFrames:    maxFrames,
		delayMs:      delayMs,
	}
}

// IsExecutable requires a model.ChartData input.
func (c *CumulativeAnimation) IsExecutable(context cor.Context) bool {
	return isChartData(context, c.GetInputParam())
}

func (c *CumulativeAnimation) Execute(context cor.Context) {
	data := context.Get(c.GetInputParam()).(model.ChartData)
	if len(data.Events) == 0 {
		slog.WarnContext(context.GetContext(), "no events, skipping cumulative animation")
		context.Add(c.GetOutputParam(), data)
		return
	}
	if err := os.MkdirAll(c.animationDir, 0o755); err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), &model.IOError{Op: "mkdir", Path: c.animationDir, Err: err})
		return
	}

	first, last := charts.Span(data.Events)
	days := charts.FrameDays(first, last, c.stepDays, c.maxFrames)
	series := charts.Cumulative(data.Events, data.Profiles)
	path := filepath.Join(c.animationDir, CumulativeTimeAnimation)
	if err := c.animator.CumulativeTime(series, first, last, days, c.delayMs, path); err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), fmt.Errorf("failed to animate cumulative time: %w", err))
		return
	}

	c.GetSuccessCounter().Add(context.GetContext(), 1)
	slog.InfoContext(context.GetContext(), "cumulative animation rendered", "path", path, "frames", len(days))
	AddArtifacts(context, model.ArtifactAnimation, path)
	context.Add(c.GetOutputParam(), data)
}
