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
// combining various commands into coherent pipelines. This file nests the
// stage workflows into the end to end pipeline.
package workflow

import (
	"github.com/jaycherian/viewing-insights/internal/cloud"
	"github.com/jaycherian/viewing-insights/internal/core/cor"
)

// Pipeline runs extraction, aggregation, visualization and publishing in
// order. Disabled stages are skipped and the first failing stage stops it.
type Pipeline struct {
	cor.BaseCommand
	chain cor.Chain
}

// IsExecutable only requires a Go context.
func (p *Pipeline) IsExecutable(context cor.Context) bool {
	return p.chain.IsExecutable(context)
}

func (p *Pipeline) Execute(context cor.Context) {
	p.chain.Execute(context)
}

// NewPipeline builds every stage from config and serviceClients.
func NewPipeline(config *cloud.Config, serviceClients *cloud.ServiceClients) (*Pipeline, error) {
	extraction, err := NewExtractionWorkflow(config)
	if err != nil {
		return nil, err
	}
	visualization, err := NewVisualizationWorkflow(config)
	if err != nil {
		return nil, err
	}

	chain := cor.NewBaseChain("viewing-insights-pipeline")
	chain.AddCommand(extraction)
	chain.AddCommand(NewAggregationWorkflow(config))
	chain.AddCommand(visualization)
	chain.AddCommand(NewPublishWorkflow(config, serviceClients))

	return &Pipeline{BaseCommand: *cor.NewBaseCommand("viewing-insights-pipeline"), chain: chain}, nil
}
