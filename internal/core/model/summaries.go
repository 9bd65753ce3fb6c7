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

package model

import (
	"fmt"
	"time"
)

const (
	GeneralScope  = "general"  // The scope aggregating every profile.
	ProfilePrefix = "profile_" // Prefix of anonymized profile ids, which double as scope names.

	TableMovie      = "movie"       // Raw movie events of a scope.
	TableSeries     = "series"      // Raw series events of a scope.
	TableMovieInfo  = "movie_info"  // One MovieSummary per title.
	TableSeriesInfo = "series_info" // One SeriesSummary per base title.

	EventsFileName = "netflix_data.csv" // Every normalized and classified event.
)

// ReportTables lists the tables persisted for each scope, in write order.
var ReportTables = []string{TableMovie, TableSeries, TableMovieInfo, TableSeriesInfo}

// TableFileName returns the file name of one table of one scope.
func TableFileName(scope string, table string) string {
	return fmt.Sprintf("%s_%s.csv", scope, table)
}

// MovieSummary folds every play of one movie title in a scope.
type MovieSummary struct {
	Title                string
	StartTimes           []time.Time // Aligned with EndTimes and Bookmarks, original row order.
	EndTimes             []time.Time
	Bookmarks            []string
	TotalDurationMinutes float64
	PlayCount            int
}

// SeriesSummary folds every event of one series (grouped by base title) in a
// scope. Metrics that cannot be computed for a degenerate group hold NaN.
type SeriesSummary struct {
	BaseTitle                   string
	MinStartTime                time.Time
	MaxEndTime                  time.Time
	ChapterTitles               []string    // Titles in original row order.
	StartTimes                  []time.Time // Original row order.
	EndTimes                    []time.Time // Original row order.
	StartTimeHours              []float64   // hour + minute/60, original row order.
	TotalDurationHours          float64
	TotalLapsedHours            float64
	EffectiveSpeed              float64
	DistinctEpisodeCount        int
	EffectiveSpeedTimesEpisodes float64
	EpisodeSpeed                float64
	WaitingTimeMean             float64
	WaitingTimeMedian           float64
	WaitingTimeStd              float64
	WaitingTimeMax              float64
	WaitingTimeMin              float64
	Degenerate                  bool
}

// AggregateResult is the output of one aggregation pass over one scope.
type AggregateResult struct {
	Movies          []ViewingEvent
	Series          []ViewingEvent
	MovieSummaries  []MovieSummary
	SeriesSummaries []SeriesSummary
	Warnings        []DegenerateGroupWarning
}

// Report maps each scope to its aggregation result. Scopes lists the keys in
// output order: "general" first, then profiles in first-seen order.
type Report struct {
	Scopes  []string
	Results map[string]AggregateResult
}

// Get returns the result of one scope.
func (r Report) Get(scope string) (AggregateResult, bool) {
	out, ok := r.Results[scope]
	return out, ok
}

// Warnings collects the degenerate-group warnings of every scope in scope order.
func (r Report) Warnings() []DegenerateGroupWarning {
	var out []DegenerateGroupWarning
	for _, scope := range r.Scopes {
		out = append(out, r.Results[scope].Warnings...)
	}
	return out
}
