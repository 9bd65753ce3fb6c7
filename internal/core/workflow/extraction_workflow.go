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
// extraction stage: from the export archive to the normalized events table.
package workflow

import (
	"time"

	"github.com/jaycherian/viewing-insights/internal/cloud"
	"github.com/jaycherian/viewing-insights/internal/core/commands"
	"github.com/jaycherian/viewing-insights/internal/core/cor"
	"github.com/jaycherian/viewing-insights/internal/core/services"
)

// ExtractionWorkflow unpacks the export, normalizes and classifies its
// viewing activity and persists the events to the interim folder.
//
// When the chain context has no input the archive configured under
// application.export_name is used; a string input overrides it.
type ExtractionWorkflow struct {
	cor.BaseCommand
	config   *cloud.Config
	location *time.Location
	store    *services.TableStore
	chain    cor.Chain // The underlying chain of commands to be executed.
}

// IsExecutable only requires a Go context.
func (w *ExtractionWorkflow) IsExecutable(context cor.Context) bool {
	return w.chain.IsExecutable(context)
}

// Execute seeds the archive path and runs the chain. The events are left
// under cor.CtxOut.
func (w *ExtractionWorkflow) Execute(context cor.Context) {
	if _, ok := cor.Get[string](context, cor.CtxIn); !ok {
		context.Add(cor.CtxIn, w.config.ArchivePath())
	}
	w.chain.Execute(context)
}

func (w *ExtractionWorkflow) initializeChain() {
	out := cor.NewBaseChain(w.GetName())

	// Step 1: Unpack the archive and locate ViewingActivity.csv.
	out.AddCommand(commands.NewExportUnzip("export-unzip", w.config.Paths.ExportDir(), w.config.Paths.ViewingActivityFile()))

	// Step 2: Read the raw table.
	out.AddCommand(commands.NewViewingActivityReader("viewing-activity-reader"))

	// Step 3: Drop supplemental and autoplayed rows, anonymize profiles and
	// parse times in the configured zone.
	out.AddCommand(commands.NewEventNormalizer("event-normalizer", w.location))

	// Step 4: Tag every event as a movie or a series episode.
	out.AddCommand(commands.NewTitleClassifier("title-classifier"))

	// Step 5: Write netflix_data.csv.
	out.AddCommand(commands.NewEventsPersist("events-persist", w.store))

	w.chain = out
}

// NewExtractionWorkflow is the constructor for the ExtractionWorkflow.
//
// Inputs:
//   - config: The application's overall configuration.
//
// Returns:
//   - A pointer to the workflow, or an error when the timezone is unknown.
func NewExtractionWorkflow(config *cloud.Config) (*ExtractionWorkflow, error) {
	location, err := config.Location()
	if err != nil {
		return nil, err
	}
	workflow := &ExtractionWorkflow{
		BaseCommand: *cor.NewBaseCommand("extraction-workflow"),
		config:      config,
		location:    location,
		store:       services.NewTableStore(config.Paths.InterimDir),
	}
	workflow.initializeChain()
	return workflow, nil
}
