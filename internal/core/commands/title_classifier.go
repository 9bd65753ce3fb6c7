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
// command flagging which events belong to a series.
//
// Inputs:
//   - CtxIn ([]model.ViewingEvent): Normalized events.
//
// Outputs:
//   - CtxOut ([]model.ViewingEvent): The same events with IsSeries set.
package commands

import (
	"log/slog"

	"github.com/jaycherian/viewing-insights/internal/core/cor"
	"github.com/jaycherian/viewing-insights/internal/core/model"
	"github.com/jaycherian/viewing-insights/internal/core/services"
)

// TitleClassifier classifies events as movie or series.
type TitleClassifier struct {
	cor.BaseCommand
}

// NewTitleClassifier is the constructor for TitleClassifier.
func NewTitleClassifier(name string) *TitleClassifier {
	return &TitleClassifier{BaseCommand: *cor.NewBaseCommand(name)}
}

// IsExecutable requires a []model.ViewingEvent input.
func (c *TitleClassifier) IsExecutable(context cor.Context) bool {
	_, ok := cor.Get[[]model.ViewingEvent](context, c.GetInputParam())
	return ok && context.GetContext() != nil
}

func (c *TitleClassifier) Execute(context cor.Context) {
	events := services.Classify(context.Get(c.GetInputParam()).([]model.ViewingEvent))
	series := 0
	for _, event := range events {
		if event.IsSeries {
			series++
		}
	}
	c.GetSuccessCounter().Add(context.GetContext(), 1)
	slog.InfoContext(context.GetContext(), "events classified", "events", len(events), "series", series, "movies", len(events)-series)
	context.Add(c.GetOutputParam(), events)
}
