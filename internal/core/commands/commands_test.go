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

// Package commands_test exercises the commands one chain at a time, on small
// exports written to temporary folders.
package commands_test

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jaycherian/viewing-insights/internal/cloud"
	"github.com/jaycherian/viewing-insights/internal/core/charts"
	"github.com/jaycherian/viewing-insights/internal/core/commands"
	"github.com/jaycherian/viewing-insights/internal/core/cor"
	"github.com/jaycherian/viewing-insights/internal/core/model"
	"github.com/jaycherian/viewing-insights/internal/core/services"
	test "github.com/jaycherian/viewing-insights/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newContext(in interface{}) cor.Context {
	chainCtx := cor.NewBaseContext()
	chainCtx.SetContext(context.Background())
	if in != nil {
		chainCtx.Add(cor.CtxIn, in)
	}
	return chainCtx
}

func requireNoErrors(t *testing.T, chainCtx cor.Context) {
	t.Helper()
	require.False(t, chainCtx.HasErrors(), "unexpected errors: %v", chainCtx.Err())
}

func newRenderer(t *testing.T) *charts.Renderer {
	t.Helper()
	colormap, err := charts.NewColormap([]string{"#ff0000", "#000000"})
	require.NoError(t, err)
	return charts.NewRenderer(colormap, 12, 8)
}

// extract runs the extraction commands on the sample export and returns the
// interim store.
func extract(t *testing.T, dir string) (cor.Context, *services.TableStore) {
	t.Helper()
	archive := test.WriteExportZip(t, dir, test.ViewingActivityCSV)
	exportDir := filepath.Join(dir, "export")
	store := services.NewTableStore(filepath.Join(dir, "interim"))

	chain := cor.NewBaseChain("extract")
	chain.AddCommand(commands.NewExportUnzip("export-unzip", exportDir, filepath.Join(exportDir, filepath.FromSlash(test.ViewingActivityPath))))
	chain.AddCommand(commands.NewViewingActivityReader("viewing-activity-reader"))
	chain.AddCommand(commands.NewEventNormalizer("event-normalizer", time.UTC))
	chain.AddCommand(commands.NewTitleClassifier("title-classifier"))
	chain.AddCommand(commands.NewEventsPersist("events-persist", store))

	chainCtx := newContext(archive)
	chain.Execute(chainCtx)
	requireNoErrors(t, chainCtx)
	return chainCtx, store
}

func TestExtractionCommands(t *testing.T) {
	chainCtx, store := extract(t, t.TempDir())

	events, ok := cor.Get[[]model.ViewingEvent](chainCtx, cor.CtxOut)
	require.True(t, ok)
	assert.Len(t, events, 6)
	series := 0
	for _, event := range events {
		if event.IsSeries {
			series++
		}
	}
	assert.Equal(t, 3, series)

	profiles, ok := cor.Get[model.ProfileMap](chainCtx, commands.GetProfilesParameterName())
	require.True(t, ok)
	assert.Equal(t, 3, profiles.Len())

	assert.Equal(t, []string{store.Path(model.EventsFileName)}, commands.GetArtifacts(chainCtx).Paths(model.ArtifactTable))
}

func TestExportUnzipMissingActivity(t *testing.T) {
	dir := t.TempDir()
	archive := test.WriteExportZip(t, dir, test.ViewingActivityCSV)

	chainCtx := newContext(archive)
	command := commands.NewExportUnzip("export-unzip", filepath.Join(dir, "export"), filepath.Join(dir, "export", "missing.csv"))
	require.True(t, command.IsExecutable(chainCtx))
	command.Execute(chainCtx)

	require.True(t, chainCtx.HasErrors())
	assert.ErrorContains(t, chainCtx.Err(), "viewing activity not found")
}

// TestAggregationFromDisk reloads the events, so the profile without events
// gets no scope.
func TestAggregationFromDisk(t *testing.T) {
	dir := t.TempDir()
	_, store := extract(t, dir)

	chain := cor.NewBaseChain("aggregate")
	chain.AddCommand(commands.NewEventsLoader("events-loader", store))
	chain.AddCommand(commands.NewReportAssembler("report-assembler"))
	chain.AddCommand(commands.NewReportPersist("report-persist", store))

	chainCtx := newContext(filepath.Join(dir, "interim"))
	chain.Execute(chainCtx)
	requireNoErrors(t, chainCtx)

	report, ok := cor.Get[model.Report](chainCtx, commands.GetReportParameterName())
	require.True(t, ok)
	assert.Equal(t, []string{"general", "profile_0", "profile_1"}, report.Scopes)
	assert.Len(t, commands.GetArtifacts(chainCtx).Paths(model.ArtifactTable), 3*len(model.ReportTables))
	assert.FileExists(t, store.Path("profile_0_series_info.csv"))

	general, _ := report.Get(model.GeneralScope)
	require.Len(t, general.SeriesSummaries, 1)
	assert.Equal(t, "Dark", general.SeriesSummaries[0].BaseTitle)
	assert.Equal(t, 2, general.SeriesSummaries[0].DistinctEpisodeCount)
	require.Len(t, general.MovieSummaries, 2)
	assert.Equal(t, "Inception", general.MovieSummaries[0].Title)
	assert.Equal(t, 2, general.MovieSummaries[0].PlayCount)
	assert.InDelta(t, 90, general.MovieSummaries[0].TotalDurationMinutes, 1e-9)
}

func TestReportAssemblerRecordsWarnings(t *testing.T) {
	start := time.Date(2023, 1, 10, 20, 0, 0, 0, time.UTC)
	events := []model.ViewingEvent{
		test.NewEvent("profile_0", "Show B: Season 1: Pilot", start, time.Hour, true),
	}

	chainCtx := newContext(events)
	command := commands.NewReportAssembler("report-assembler")
	require.True(t, command.IsExecutable(chainCtx))
	command.Execute(chainCtx)

	requireNoErrors(t, chainCtx)
	// One for the general scope and one for profile_0.
	require.Len(t, chainCtx.GetWarnings(), 2)
	assert.ErrorContains(t, chainCtx.GetWarnings()[0], "Show B")
}

func TestReportLoaderKeepsInput(t *testing.T) {
	dir := t.TempDir()
	store := services.NewTableStore(dir)
	start := time.Date(2023, 1, 10, 20, 0, 0, 0, time.UTC)
	report := services.BuildReport([]model.ViewingEvent{
		test.NewEvent("profile_0", "Coco", start, time.Hour, false),
	}, model.NewProfileMap([]string{"Ana"}))
	_, err := store.SaveReport(report)
	require.NoError(t, err)

	chainCtx := newContext("previous output")
	loader := commands.NewReportLoader("report-loader", store)
	require.True(t, loader.IsExecutable(chainCtx))
	loader.Execute(chainCtx)
	requireNoErrors(t, chainCtx)

	assert.Equal(t, "previous output", chainCtx.Get(cor.CtxOut))
	loaded, ok := cor.Get[model.Report](chainCtx, commands.GetReportParameterName())
	require.True(t, ok)
	assert.Equal(t, report.Scopes, loaded.Scopes)
	assert.False(t, loader.IsExecutable(chainCtx))
}

func TestChartDataLoader(t *testing.T) {
	dir := t.TempDir()
	store := services.NewTableStore(dir)
	start := time.Date(2023, 1, 10, 20, 0, 0, 0, time.UTC)
	_, err := store.WriteEvents(model.EventsFileName, []model.ViewingEvent{
		test.NewEvent("profile_1", "Coco", start, time.Hour, false),
		test.NewEvent("profile_0", "Coco", start, time.Hour, false),
	})
	require.NoError(t, err)
	_, err = store.WriteSeriesSummaries(model.TableFileName("profile_0", model.TableSeriesInfo), []model.SeriesSummary{
		{BaseTitle: "Short", TotalDurationHours: 1},
		{BaseTitle: "Long", TotalDurationHours: 9},
		{BaseTitle: "Middle", TotalDurationHours: 4},
	})
	require.NoError(t, err)

	chainCtx := newContext(dir)
	commands.NewChartDataLoader("chart-data-loader", store, "profile_0", 2).Execute(chainCtx)
	requireNoErrors(t, chainCtx)

	data, ok := cor.Get[model.ChartData](chainCtx, cor.CtxOut)
	require.True(t, ok)
	assert.Equal(t, []string{"profile_0", "profile_1"}, data.Profiles)
	require.Len(t, data.Series, 2)
	assert.Equal(t, "Long", data.Series[0].BaseTitle)
	assert.Equal(t, "Middle", data.Series[1].BaseTitle)

	// A scope without a series table charts no timelines.
	chainCtx = newContext(dir)
	commands.NewChartDataLoader("chart-data-loader", store, "profile_7", 2).Execute(chainCtx)
	requireNoErrors(t, chainCtx)
	data, _ = cor.Get[model.ChartData](chainCtx, cor.CtxOut)
	assert.Empty(t, data.Series)
	assert.Len(t, data.Events, 2)
}

func TestSeriesTimelinesSlugs(t *testing.T) {
	figures := t.TempDir()
	start := time.Date(2023, 1, 10, 20, 0, 0, 0, time.UTC)
	newSeries := func(title string) model.SeriesSummary {
		return model.SeriesSummary{
			BaseTitle:      title,
			StartTimes:     []time.Time{start, start.Add(24 * time.Hour), start.Add(90 * 24 * time.Hour)},
			EndTimes:       []time.Time{start.Add(time.Hour), start.Add(25 * time.Hour), start.Add(90*24*time.Hour + time.Hour)},
			StartTimeHours: []float64{20, 20, 20},
		}
	}
	data := model.ChartData{Series: []model.SeriesSummary{newSeries("Élite"), newSeries("Elite"), newSeries("¿?")}}

	chainCtx := newContext(data)
	commands.NewSeriesTimelines("series-timelines", newRenderer(t), figures, 48).Execute(chainCtx)
	requireNoErrors(t, chainCtx)

	assert.FileExists(t, filepath.Join(figures, commands.SeriesTimelineFigure("elite")))
	assert.FileExists(t, filepath.Join(figures, commands.SeriesTimelineFigure("elite_2")))
	assert.FileExists(t, filepath.Join(figures, commands.SeriesTimelineFigure("untitled")))
	assert.Len(t, commands.GetArtifacts(chainCtx).Paths(model.ArtifactFigure), 3)
	assert.Equal(t, data, chainCtx.Get(cor.CtxOut))
}

// memoryBucket stores uploaded objects by name.
type memoryBucket struct {
	mu      sync.Mutex
	objects map[string]string
}

type memoryWriter struct {
	bytes.Buffer
	bucket *memoryBucket
	name   string
}

func (w *memoryWriter) Close() error {
	w.bucket.mu.Lock()
	defer w.bucket.mu.Unlock()
	w.bucket.objects[w.name] = w.String()
	return nil
}

func (b *memoryBucket) writer(_ context.Context, object cloud.GCSObject) io.WriteCloser {
	return &memoryWriter{bucket: b, name: object.Name}
}

func TestPublishCommands(t *testing.T) {
	dir := t.TempDir()
	paths := cloud.Paths{
		InterimDir:    filepath.Join(dir, "interim"),
		ReportDir:     filepath.Join(dir, "reports"),
		FiguresDir:    filepath.Join(dir, "reports", "figures"),
		AnimationsDir: "animations",
	}
	files := []string{
		filepath.Join(paths.InterimDir, model.EventsFileName),
		filepath.Join(paths.FiguresDir, "img0_profile_duration.pdf"),
		filepath.Join(paths.AnimationDir(), "heatmap.gif"),
		paths.ReportFile(),
	}
	for _, file := range files {
		require.NoError(t, os.MkdirAll(filepath.Dir(file), 0o755))
		require.NoError(t, os.WriteFile(file, []byte(filepath.Base(file)), 0o644))
	}

	bucket := &memoryBucket{objects: map[string]string{}}
	run := model.NewRun("netflix-report.zip")
	chain := cor.NewBaseChain("publish")
	chain.AddCommand(commands.NewArtifactCollector("artifact-collector", paths))
	chain.AddCommand(commands.NewGCSFileUpload("gcs-file-upload", cloud.NewQuotaAwareUploader(bucket.writer, 100, 4), "bucket", "vi", paths))

	chainCtx := newContext(nil)
	chainCtx.Add(commands.GetRunParameterName(), run)
	chain.Execute(chainCtx)
	requireNoErrors(t, chainCtx)

	published, ok := cor.Get[[]model.PublishedObject](chainCtx, commands.GetPublishedParameterName())
	require.True(t, ok)
	require.Len(t, published, 4)

	prefix := "vi/" + run.Id + "/"
	assert.Equal(t, model.EventsFileName, bucket.objects[prefix+"table/"+model.EventsFileName])
	assert.Equal(t, "img0_profile_duration.pdf", bucket.objects[prefix+"figure/img0_profile_duration.pdf"])
	assert.Equal(t, "heatmap.gif", bucket.objects[prefix+"animation/heatmap.gif"])
	assert.Equal(t, "report.pdf", bucket.objects[prefix+"report/report.pdf"])
	for _, object := range published {
		assert.Equal(t, "bucket", object.Bucket)
		assert.True(t, strings.HasPrefix(object.Object, prefix))
	}
}

func TestGCSFileUploadNeedsRun(t *testing.T) {
	command := commands.NewGCSFileUpload("gcs-file-upload", nil, "bucket", "", cloud.Paths{})
	assert.False(t, command.IsExecutable(newContext(model.Artifacts{})))
}
