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

// Package model defines the core data structures for the application.
// This file, `persistent.go`, contains the rows published to BigQuery. They
// mirror the summary tables with two extra keys, the run id and the scope, so
// several exports can share one dataset.
package model

import (
	"math"
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/google/uuid"
)

// Run identifies one pipeline execution over one export file.
type Run struct {
	Id         string    // UUIDv5 of the export file name.
	Source     string    // The export file name.
	CreateDate time.Time // When the run started.
}

// NewRun creates a Run whose id is stable for a given export file name, so
// republishing the same export overwrites the same prefix.
func NewRun(source string) *Run {
	return &Run{
		Id:         uuid.NewSHA1(uuid.NameSpaceURL, []byte(source)).String(),
		Source:     source,
		CreateDate: time.Now(),
	}
}

// MovieSummaryRow is a MovieSummary as streamed into BigQuery.
type MovieSummaryRow struct {
	RunId                string      `bigquery:"run_id"`
	Scope                string      `bigquery:"scope"`
	Title                string      `bigquery:"title"`
	PlayCount            int         `bigquery:"play_count"`
	TotalDurationMinutes float64     `bigquery:"total_duration_minutes"`
	StartTimes           []time.Time `bigquery:"start_time_list"`
	EndTimes             []time.Time `bigquery:"end_time_list"`
	Bookmarks            []string    `bigquery:"bookmark_list"`
}

// SeriesSummaryRow is a SeriesSummary as streamed into BigQuery. NaN metrics
// become NULL since the streaming API rejects non-finite floats.
type SeriesSummaryRow struct {
	RunId                       string               `bigquery:"run_id"`
	Scope                       string               `bigquery:"scope"`
	BaseTitle                   string               `bigquery:"base_title"`
	MinStartTime                time.Time            `bigquery:"min_start_time"`
	MaxEndTime                  time.Time            `bigquery:"max_end_time"`
	ChapterTitles               []string             `bigquery:"chapters_titles"`
	StartTimeHours              []float64            `bigquery:"all_start_time_hours"`
	TotalDurationHours          float64              `bigquery:"total_duration_hours"`
	TotalLapsedHours            float64              `bigquery:"total_lapsed_hours"`
	EffectiveSpeed              bigquery.NullFloat64 `bigquery:"effective_speed"`
	DistinctEpisodeCount        int                  `bigquery:"distinct_episode_count"`
	EffectiveSpeedTimesEpisodes bigquery.NullFloat64 `bigquery:"effective_speed_times_episodes"`
	EpisodeSpeed                bigquery.NullFloat64 `bigquery:"episode_speed"`
	WaitingTimeMean             bigquery.NullFloat64 `bigquery:"waiting_time_mean"`
	WaitingTimeMedian           bigquery.NullFloat64 `bigquery:"waiting_time_median"`
	WaitingTimeStd              bigquery.NullFloat64 `bigquery:"waiting_time_std"`
	WaitingTimeMax              bigquery.NullFloat64 `bigquery:"waiting_time_max"`
	WaitingTimeMin              bigquery.NullFloat64 `bigquery:"waiting_time_min"`
	Degenerate                  bool                 `bigquery:"degenerate"`
}

// NewMovieSummaryRow converts a summary of the given scope into a row.
func NewMovieSummaryRow(runId string, scope string, in MovieSummary) *MovieSummaryRow {
	return &MovieSummaryRow{
		RunId:                runId,
		Scope:                scope,
		Title:                in.Title,
		PlayCount:            in.PlayCount,
		TotalDurationMinutes: in.TotalDurationMinutes,
		StartTimes:           in.StartTimes,
		EndTimes:             in.EndTimes,
		Bookmarks:            in.Bookmarks,
	}
}

// NewSeriesSummaryRow converts a summary of the given scope into a row.
func NewSeriesSummaryRow(runId string, scope string, in SeriesSummary) *SeriesSummaryRow {
	return &SeriesSummaryRow{
		RunId:                       runId,
		Scope:                       scope,
		BaseTitle:                   in.BaseTitle,
		MinStartTime:                in.MinStartTime,
		MaxEndTime:                  in.MaxEndTime,
		ChapterTitles:               in.ChapterTitles,
		StartTimeHours:              in.StartTimeHours,
		TotalDurationHours:          in.TotalDurationHours,
		TotalLapsedHours:            in.TotalLapsedHours,
		EffectiveSpeed:              nullable(in.EffectiveSpeed),
		DistinctEpisodeCount:        in.DistinctEpisodeCount,
		EffectiveSpeedTimesEpisodes: nullable(in.EffectiveSpeedTimesEpisodes),
		EpisodeSpeed:                nullable(in.EpisodeSpeed),
		WaitingTimeMean:             nullable(in.WaitingTimeMean),
		WaitingTimeMedian:           nullable(in.WaitingTimeMedian),
		WaitingTimeStd:              nullable(in.WaitingTimeStd),
		WaitingTimeMax:              nullable(in.WaitingTimeMax),
		WaitingTimeMin:              nullable(in.WaitingTimeMin),
		Degenerate:                  in.Degenerate,
	}
}

func nullable(v float64) bigquery.NullFloat64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return bigquery.NullFloat64{}
	}
	return bigquery.NullFloat64{Float64: v, Valid: true}
}
