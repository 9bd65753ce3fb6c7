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

package services_test

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jaycherian/viewing-insights/internal/core/model"
	"github.com/jaycherian/viewing-insights/internal/core/services"
	test "github.com/jaycherian/viewing-insights/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assertFloat(t *testing.T, want float64, got float64, column string) {
	t.Helper()
	if math.IsNaN(want) {
		assert.True(t, math.IsNaN(got), column)
		return
	}
	assert.InDelta(t, want, got, 1e-9, column)
}

func assertTimes(t *testing.T, want []time.Time, got []time.Time) {
	t.Helper()
	require.Len(t, got, len(want))
	for i := range want {
		assert.True(t, want[i].Equal(got[i]), "time %d: want %v, got %v", i, want[i], got[i])
	}
}

// TestReportRoundTrip writes a report, including a degenerate group, and
// reads it back.
func TestReportRoundTrip(t *testing.T) {
	events := append(showA(),
		test.NewEvent("profile_1", "Inception", t0, 95*time.Minute, false),
		test.NewEvent("profile_1", "Show B: Season 1: Pilot", t0.Add(time.Hour), 47*time.Minute, true),
	)
	report := services.BuildReport(events, model.NewProfileMap([]string{"Ana", "Luis"}))
	store := services.NewTableStore(t.TempDir())

	paths, err := store.SaveReport(report)
	require.NoError(t, err)
	assert.Len(t, paths, 3*len(model.ReportTables))
	assert.FileExists(t, store.Path("general_series_info.csv"))

	loaded, err := store.LoadReport()
	require.NoError(t, err)
	assert.Equal(t, report.Scopes, loaded.Scopes)

	for _, scope := range report.Scopes {
		want, got := report.Results[scope], loaded.Results[scope]
		require.Len(t, got.Movies, len(want.Movies), scope)
		require.Len(t, got.Series, len(want.Series), scope)
		require.Len(t, got.MovieSummaries, len(want.MovieSummaries), scope)
		require.Len(t, got.SeriesSummaries, len(want.SeriesSummaries), scope)

		for i, m := range want.MovieSummaries {
			assert.Equal(t, m.Title, got.MovieSummaries[i].Title)
			assert.Equal(t, m.PlayCount, got.MovieSummaries[i].PlayCount)
			assertFloat(t, m.TotalDurationMinutes, got.MovieSummaries[i].TotalDurationMinutes, "total_duration_minutes")
			assertTimes(t, m.StartTimes, got.MovieSummaries[i].StartTimes)
			assertTimes(t, m.EndTimes, got.MovieSummaries[i].EndTimes)
			assert.Equal(t, m.Bookmarks, got.MovieSummaries[i].Bookmarks)
		}
		for i, s := range want.SeriesSummaries {
			g := got.SeriesSummaries[i]
			assert.Equal(t, s.BaseTitle, g.BaseTitle)
			assert.True(t, s.MinStartTime.Equal(g.MinStartTime))
			assert.True(t, s.MaxEndTime.Equal(g.MaxEndTime))
			assert.Equal(t, s.ChapterTitles, g.ChapterTitles)
			assertTimes(t, s.StartTimes, g.StartTimes)
			assert.InDeltaSlice(t, s.StartTimeHours, g.StartTimeHours, 1e-9)
			assertFloat(t, s.TotalDurationHours, g.TotalDurationHours, "total_duration_hours")
			assertFloat(t, s.TotalLapsedHours, g.TotalLapsedHours, "total_lapsed_hours")
			assertFloat(t, s.EffectiveSpeed, g.EffectiveSpeed, "effective_speed")
			assertFloat(t, s.EpisodeSpeed, g.EpisodeSpeed, "episode_speed")
			assertFloat(t, s.WaitingTimeMean, g.WaitingTimeMean, "waiting_time_mean")
			assertFloat(t, s.WaitingTimeStd, g.WaitingTimeStd, "waiting_time_std")
			assertFloat(t, s.WaitingTimeMin, g.WaitingTimeMin, "waiting_time_min")
			assert.Equal(t, s.DistinctEpisodeCount, g.DistinctEpisodeCount)
			assert.Equal(t, s.Degenerate, g.Degenerate)
		}
		for i, e := range want.Series {
			assert.Equal(t, e.Title, got.Series[i].Title)
			assert.Equal(t, e.Duration, got.Series[i].Duration)
			assert.True(t, e.StartTime.Equal(got.Series[i].StartTime))
			assert.True(t, got.Series[i].IsSeries)
		}
	}
}

func TestEventsRoundTripKeepsOffset(t *testing.T) {
	zone := time.FixedZone("CET", 60*60)
	event := test.NewEvent("profile_0", "Inception", time.Date(2023, 1, 10, 21, 15, 0, 0, zone), 90*time.Second, false)
	store := services.NewTableStore(t.TempDir())

	_, err := store.WriteEvents(model.EventsFileName, []model.ViewingEvent{event})
	require.NoError(t, err)
	loaded, err := store.ReadEvents(model.EventsFileName)
	require.NoError(t, err)

	require.Len(t, loaded, 1)
	assert.InDelta(t, 21.25, loaded[0].StartHour(), 1e-12)
	assert.Equal(t, 90*time.Second, loaded[0].Duration)
	assert.Equal(t, "Inception", loaded[0].BaseTitle)
}

func TestScopes(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"profile_10_series_info.csv", "general_series_info.csv", "profile_2_series_info.csv", "profile_2_movie.csv"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x\n"), 0o644))
	}

	scopes, err := services.NewTableStore(dir).Scopes()
	require.NoError(t, err)
	assert.Equal(t, []string{"general", "profile_2", "profile_10"}, scopes)
}

func TestLoadReportWithoutTables(t *testing.T) {
	_, err := services.NewTableStore(t.TempDir()).LoadReport()
	var ioErr *model.IOError
	assert.True(t, errors.As(err, &ioErr))
}

func TestReadTableMissingColumn(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, model.EventsFileName), []byte("profile_name,title\nprofile_0,Coco\n"), 0o644))

	_, err := services.NewTableStore(dir).ReadEvents(model.EventsFileName)
	var schemaErr *model.SchemaError
	require.True(t, errors.As(err, &schemaErr))
	assert.Equal(t, "start_time", schemaErr.Column)
}
