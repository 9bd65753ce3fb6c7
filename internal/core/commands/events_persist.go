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
// commands that write the classified events to the interim folder and read
// them back.
//
// EventsPersist:
//   - CtxIn ([]model.ViewingEvent): Classified events, passed through to CtxOut.
//   - Writes netflix_data.csv and records it as a table artifact.
//
// EventsLoader:
//   - CtxIn (string): The interim folder.
//   - CtxOut ([]model.ViewingEvent): The events of netflix_data.csv.
//   - GetProfilesParameterName() (model.ProfileMap): Restored from the events.
package commands

import (
	"fmt"
	"log/slog"

	"github.com/jaycherian/viewing-insights/internal/core/cor"
	"github.com/jaycherian/viewing-insights/internal/core/model"
	"github.com/jaycherian/viewing-insights/internal/core/services"
)

// EventsPersist writes the events table.
type EventsPersist struct {
	cor.BaseCommand
	store *services.TableStore
}

// NewEventsPersist is the constructor for EventsPersist.
func NewEventsPersist(name string, store *services.TableStore) *EventsPersist {
	return &EventsPersist{BaseCommand: *cor.NewBaseCommand(name), store: store}
}

// IsExecutable requires a []model.ViewingEvent input.
func (c *EventsPersist) IsExecutable(context cor.Context) bool {
	_, ok := cor.Get[[]model.ViewingEvent](context, c.GetInputParam())
	return ok && context.GetContext() != nil
}

func (c *EventsPersist) Execute(context cor.Context) {
	events := context.Get(c.GetInputParam()).([]model.ViewingEvent)
	path, err := c.store.WriteEvents(model.EventsFileName, events)
	if err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), fmt.Errorf("failed to persist events: %w", err))
		return
	}
	c.GetSuccessCounter().Add(context.GetContext(), 1)
	slog.InfoContext(context.GetContext(), "events persisted", "path", path, "events", len(events))
	AddArtifacts(context, model.ArtifactTable, path)
	context.Add(c.GetOutputParam(), events)
}

// EventsLoader reads the events table back.
type EventsLoader struct {
	cor.BaseCommand
	store *services.TableStore
}

// NewEventsLoader is the constructor for EventsLoader.
func NewEventsLoader(name string, store *services.TableStore) *EventsLoader {
	return &EventsLoader{BaseCommand: *cor.NewBaseCommand(name), store: store}
}

// IsExecutable requires the interim folder as a string input, so the loader
// is skipped when events are already flowing through the chain.
func (c *EventsLoader) IsExecutable(context cor.Context) bool {
	_, ok := cor.Get[string](context, c.GetInputParam())
	return ok && context.GetContext() != nil
}

func (c *EventsLoader) Execute(context cor.Context) {
	events, err := c.store.ReadEvents(model.EventsFileName)
	if err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), fmt.Errorf("failed to load events: %w", err))
		return
	}
	c.GetSuccessCounter().Add(context.GetContext(), 1)
	context.Add(GetProfilesParameterName(), services.ProfilesOf(events))
	context.Add(c.GetOutputParam(), events)
}
