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

package workflow_test

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/jaycherian/viewing-insights/internal/cloud"
	"github.com/jaycherian/viewing-insights/internal/core/commands"
	"github.com/jaycherian/viewing-insights/internal/core/cor"
	"github.com/jaycherian/viewing-insights/internal/core/model"
	"github.com/jaycherian/viewing-insights/internal/core/workflow"
	test "github.com/jaycherian/viewing-insights/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newRunConfig returns the test configuration rooted at a temporary folder
// holding the sample export.
func newRunConfig(t *testing.T) *cloud.Config {
	t.Helper()
	runConfig := test.GetConfigIn(t.TempDir())
	require.NoError(t, os.MkdirAll(runConfig.Paths.RawDir, 0o755))
	test.WriteExportZip(t, runConfig.Paths.RawDir, test.ViewingActivityCSV)
	return runConfig
}

func newChainContext(t *testing.T) cor.Context {
	t.Helper()
	traceCtx, span := tracer.Start(ctx, t.Name())
	t.Cleanup(func() { span.End() })
	chainCtx := cor.NewBaseContext()
	chainCtx.SetContext(traceCtx)
	t.Cleanup(chainCtx.Close)
	return chainCtx
}

func execute(t *testing.T, command cor.Command, chainCtx cor.Context) {
	t.Helper()
	require.True(t, command.IsExecutable(chainCtx), "%s is not executable", command.GetName())
	command.Execute(chainCtx)
	require.False(t, chainCtx.HasErrors(), "%s failed: %v", command.GetName(), chainCtx.Err())
}

func extract(t *testing.T, runConfig *cloud.Config) {
	t.Helper()
	extraction, err := workflow.NewExtractionWorkflow(runConfig)
	require.NoError(t, err)
	execute(t, extraction, newChainContext(t))
}

func TestExtractionWorkflow(t *testing.T) {
	runConfig := newRunConfig(t)
	extraction, err := workflow.NewExtractionWorkflow(runConfig)
	require.NoError(t, err)

	chainCtx := newChainContext(t)
	execute(t, extraction, chainCtx)

	events, ok := cor.Get[[]model.ViewingEvent](chainCtx, cor.CtxOut)
	require.True(t, ok)
	assert.Len(t, events, 6)
	assert.FileExists(t, filepath.Join(runConfig.Paths.InterimDir, model.EventsFileName))
	assert.FileExists(t, runConfig.Paths.ViewingActivityFile())
}

func TestExtractionWorkflowMissingArchive(t *testing.T) {
	runConfig := test.GetConfigIn(t.TempDir())
	extraction, err := workflow.NewExtractionWorkflow(runConfig)
	require.NoError(t, err)

	chainCtx := newChainContext(t)
	extraction.Execute(chainCtx)
	require.True(t, chainCtx.HasErrors())
	assert.NoFileExists(t, filepath.Join(runConfig.Paths.InterimDir, model.EventsFileName))
}

func TestAggregationWorkflowReadsInterimTables(t *testing.T) {
	runConfig := newRunConfig(t)
	extract(t, runConfig)

	chainCtx := newChainContext(t)
	execute(t, workflow.NewAggregationWorkflow(runConfig), chainCtx)

	report, ok := cor.Get[model.Report](chainCtx, cor.CtxOut)
	require.True(t, ok)
	assert.Equal(t, []string{model.GeneralScope, "profile_0", "profile_1"}, report.Scopes)
	for _, scope := range report.Scopes {
		for _, table := range model.ReportTables {
			assert.FileExists(t, filepath.Join(runConfig.Paths.InterimDir, model.TableFileName(scope, table)))
		}
	}
}

func TestVisualizationWorkflowDisabled(t *testing.T) {
	runConfig := newRunConfig(t)
	runConfig.Visualization.Enabled = false
	visualization, err := workflow.NewVisualizationWorkflow(runConfig)
	require.NoError(t, err)
	assert.False(t, visualization.IsExecutable(newChainContext(t)))
}

func TestVisualizationWorkflowRejectsColors(t *testing.T) {
	runConfig := newRunConfig(t)
	runConfig.Visualization.Colors = []string{"#ff0000", "black"}
	_, err := workflow.NewVisualizationWorkflow(runConfig)
	assert.Error(t, err)
}

func TestPipeline(t *testing.T) {
	runConfig := newRunConfig(t)
	pipeline, err := workflow.NewPipeline(runConfig, cloudClients)
	require.NoError(t, err)

	chainCtx := newChainContext(t)
	execute(t, pipeline, chainCtx)

	// Profiles without events keep their scope when the report is built in
	// the same run as the extraction.
	report, ok := cor.Get[model.Report](chainCtx, commands.GetReportParameterName())
	require.True(t, ok)
	assert.Equal(t, []string{model.GeneralScope, "profile_0", "profile_1", "profile_2"}, report.Scopes)

	paths := runConfig.Paths
	for _, figure := range []string{
		commands.ProfileDurationFigure,
		commands.ProfileProportionFigure,
		commands.SeriesTimelineFigure("dark"),
		commands.CalendarFigure(""),
		commands.CalendarFigure("profile_0"),
		commands.CalendarFigure("profile_1"),
	} {
		assert.FileExists(t, filepath.Join(paths.FiguresDir, figure))
	}
	assert.NoFileExists(t, filepath.Join(paths.FiguresDir, commands.CalendarFigure("profile_2")))
	assert.FileExists(t, filepath.Join(paths.AnimationDir(), commands.CumulativeTimeAnimation))
	assert.FileExists(t, filepath.Join(paths.AnimationDir(), commands.CalendarAnimation("")))
	assert.FileExists(t, paths.ReportFile())

	artifacts := commands.GetArtifacts(chainCtx)
	assert.Equal(t, []string{paths.ReportFile()}, artifacts.Paths(model.ArtifactReport))
	assert.Len(t, artifacts.Paths(model.ArtifactFigure), 6)

	// Publishing is disabled in the test runtime.
	assert.Nil(t, chainCtx.Get(commands.GetPublishedParameterName()))
}

func TestPipelineSkipsAnimations(t *testing.T) {
	runConfig := newRunConfig(t)
	runConfig.Visualization.SkipAnimations = true
	pipeline, err := workflow.NewPipeline(runConfig, cloudClients)
	require.NoError(t, err)

	chainCtx := newChainContext(t)
	execute(t, pipeline, chainCtx)

	assert.Empty(t, commands.GetArtifacts(chainCtx).Paths(model.ArtifactAnimation))
	assert.NoDirExists(t, runConfig.Paths.AnimationDir())
	assert.FileExists(t, runConfig.Paths.ReportFile())
}

type memoryBucket struct {
	mu      sync.Mutex
	objects map[string]string // Content type by object name.
}

type memoryWriter struct {
	bytes.Buffer
	bucket *memoryBucket
	object cloud.GCSObject
}

func (w *memoryWriter) Close() error {
	w.bucket.mu.Lock()
	defer w.bucket.mu.Unlock()
	w.bucket.objects[w.object.Name] = w.object.MIMEType
	return nil
}

func (b *memoryBucket) writer(_ context.Context, object cloud.GCSObject) io.WriteCloser {
	return &memoryWriter{bucket: b, object: object}
}

func TestPublishWorkflowDisabled(t *testing.T) {
	publish := workflow.NewPublishWorkflow(test.GetConfigIn(t.TempDir()), cloudClients)
	assert.False(t, publish.IsExecutable(newChainContext(t)))
}

func TestPublishWorkflow(t *testing.T) {
	runConfig := newRunConfig(t)
	extract(t, runConfig)
	execute(t, workflow.NewAggregationWorkflow(runConfig), newChainContext(t))

	runConfig.Storage.Enabled = true
	runConfig.Storage.ReportBucket = "viewing-insights-test"
	runConfig.Storage.ObjectPrefix = "runs"
	runConfig.Storage.MaxUploadsPerSecond = 1000
	runConfig.Storage.UploadBurst = 100

	bucket := &memoryBucket{objects: map[string]string{}}
	publish := workflow.NewPublishWorkflowWithWriter(runConfig, cloudClients, bucket.writer)

	chainCtx := newChainContext(t)
	execute(t, publish, chainCtx)

	published, ok := cor.Get[[]model.PublishedObject](chainCtx, commands.GetPublishedParameterName())
	require.True(t, ok)
	// The events table plus four tables for each of the three scopes.
	assert.Len(t, published, 13)
	assert.Len(t, bucket.objects, 13)

	run := model.NewRun(runConfig.Application.ExportName)
	assert.Equal(t, "text/csv", bucket.objects["runs/"+run.Id+"/table/"+model.EventsFileName])
	assert.Contains(t, bucket.objects, "runs/"+run.Id+"/table/"+model.TableFileName("profile_1", model.TableMovieInfo))
}
