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
// command turning the raw viewing activity into typed, anonymized events.
//
// Logic Flow:
//  1. Map the header to the known columns; a missing required column fails.
//  2. Anonymize every profile name in first-seen order.
//  3. Drop supplemental rows (trailers, teasers, recaps).
//  4. Parse start times in the configured timezone, and durations.
//
// Inputs:
//   - CtxIn (model.RawTable): The raw viewing activity.
//
// Outputs:
//   - CtxOut ([]model.ViewingEvent): The normalized events, in file order.
//   - GetProfilesParameterName() (model.ProfileMap): The anonymization table.
package commands

import (
	"fmt"
	"time"

	"github.com/jaycherian/viewing-insights/internal/core/cor"
	"github.com/jaycherian/viewing-insights/internal/core/model"
	"github.com/jaycherian/viewing-insights/internal/core/services"
)

// EventNormalizer normalizes the raw table.
type EventNormalizer struct {
	cor.BaseCommand
	normalizer *services.Normalizer
}

// NewEventNormalizer is the constructor for EventNormalizer. Hours of day are
// computed in loc.
func NewEventNormalizer(name string, loc *time.Location) *EventNormalizer {
	return &EventNormalizer{BaseCommand: *cor.NewBaseCommand(name), normalizer: services.NewNormalizer(loc)}
}

// IsExecutable requires a model.RawTable input.
func (c *EventNormalizer) IsExecutable(context cor.Context) bool {
	_, ok := cor.Get[model.RawTable](context, c.GetInputParam())
	return ok && context.GetContext() != nil
}

func (c *EventNormalizer) Execute(context cor.Context) {
	table := context.Get(c.GetInputParam()).(model.RawTable)
	events, profiles, err := c.normalizer.Normalize(table)
	if err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), fmt.Errorf("failed to normalize viewing activity: %w", err))
		return
	}
	c.GetSuccessCounter().Add(context.GetContext(), 1)
	context.Add(GetProfilesParameterName(), profiles)
	context.Add(c.GetOutputParam(), events)
}
