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

package main

import (
	"bytes"
	"context"
	"testing"

	"github.com/jaycherian/viewing-insights/internal/cloud"
	"github.com/jaycherian/viewing-insights/internal/core/workflow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommandStages(t *testing.T) {
	var names []string
	for _, cmd := range NewRootCmd().Commands() {
		names = append(names, cmd.Name())
	}
	for _, stage := range []string{"run", "extract", "aggregate", "visualize", "publish"} {
		assert.Contains(t, names, stage)
	}
}

func TestRunReportsDisabledStage(t *testing.T) {
	var out bytes.Buffer
	publish := workflow.NewPublishWorkflow(cloud.NewConfig(), &cloud.ServiceClients{})

	err := Run(context.Background(), publish, &out)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "publish-workflow is disabled")
}

func TestRunReturnsStageErrors(t *testing.T) {
	var out bytes.Buffer
	config := cloud.NewConfig()
	config.Paths.RawDir = t.TempDir()
	config.Paths.ExportFolder = "export"
	config.Paths.ViewingActivity = "ViewingActivity.csv"
	config.Paths.InterimDir = t.TempDir()
	extraction, err := workflow.NewExtractionWorkflow(config)
	require.NoError(t, err)

	err = Run(context.Background(), extraction, &out)
	require.Error(t, err)
	assert.Contains(t, out.String(), "error: export-unzip")
}
