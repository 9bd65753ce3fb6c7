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
// aggregation stage: from events to the per scope summary tables.
package workflow

import (
	"github.com/jaycherian/viewing-insights/internal/cloud"
	"github.com/jaycherian/viewing-insights/internal/core/commands"
	"github.com/jaycherian/viewing-insights/internal/core/cor"
	"github.com/jaycherian/viewing-insights/internal/core/model"
	"github.com/jaycherian/viewing-insights/internal/core/services"
)

// AggregationWorkflow builds the report of every scope and writes its
// tables. Events flowing from the extraction stage are used directly;
// otherwise they are read back from netflix_data.csv.
type AggregationWorkflow struct {
	cor.BaseCommand
	config *cloud.Config
	store  *services.TableStore
	chain  cor.Chain
}

// IsExecutable only requires a Go context.
func (w *AggregationWorkflow) IsExecutable(context cor.Context) bool {
	return w.chain.IsExecutable(context)
}

// Execute runs the chain, leaving the model.Report under cor.CtxOut.
func (w *AggregationWorkflow) Execute(context cor.Context) {
	if _, ok := cor.Get[[]model.ViewingEvent](context, cor.CtxIn); !ok {
		context.Add(cor.CtxIn, w.config.Paths.InterimDir)
	}
	w.chain.Execute(context)
}

func (w *AggregationWorkflow) initializeChain() {
	out := cor.NewBaseChain(w.GetName())
	// Skipped when events are already in the chain.
	out.AddCommand(commands.NewEventsLoader("events-loader", w.store))
	out.AddCommand(commands.NewReportAssembler("report-assembler"))
	out.AddCommand(commands.NewReportPersist("report-persist", w.store))
	w.chain = out
}

// NewAggregationWorkflow is the constructor for the AggregationWorkflow.
func NewAggregationWorkflow(config *cloud.Config) *AggregationWorkflow {
	workflow := &AggregationWorkflow{
		BaseCommand: *cor.NewBaseCommand("aggregation-workflow"),
		config:      config,
		store:       services.NewTableStore(config.Paths.InterimDir),
	}
	workflow.initializeChain()
	return workflow
}
