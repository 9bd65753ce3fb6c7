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

// Package services contains the business logic of the viewing-history pipeline.
// This file, `aggregator.go`, reconstructs viewing sessions and folds them into
// movie and series summaries for one scope.
//
// Logic Flow:
//  1. Keep the events of the requested profile (all of them for the general scope).
//  2. Partition by the IsSeries flag.
//  3. Movies are grouped by exact title; each group yields one MovieSummary with
//     its plays listed in original row order.
//  4. Series are grouped by base title. Each group yields a SeriesSummary with
//     duration, lapsed time, speed metrics and waiting-time statistics. The
//     waiting time between two consecutive sessions (by start time) is
//     start[i] - end[i+1] in hours.
//  5. Groups whose metrics are undefined are flagged degenerate: the undefined
//     values are NaN and a DegenerateGroupWarning is returned with the result.
//
// Aggregate is pure: it never modifies its input and the same input always
// yields the same tables.
package services

import (
	"math"
	"slices"
	"sort"
	"time"

	"github.com/jaycherian/viewing-insights/internal/core/model"
)

// Reasons attached to degenerate-group warnings.
const (
	ReasonSingleEvent = "single event: waiting-time statistics are undefined"
	ReasonZeroLapse   = "zero lapsed time: speed metrics are undefined"
)

// Aggregate builds the four tables of one scope.
//
// Inputs:
//   - events: Classified events of every profile.
//   - profile: The profile id to aggregate, or "" for the general scope.
//
// Outputs:
//   - model.AggregateResult: Raw partitions, summaries and warnings.
func Aggregate(events []model.ViewingEvent, profile string) model.AggregateResult {
	scope := profile
	if scope == "" {
		scope = model.GeneralScope
	}

	movies := make([]model.ViewingEvent, 0)
	series := make([]model.ViewingEvent, 0)
	for _, event := range events {
		if profile != "" && event.Profile != profile {
			continue
		}
		if event.IsSeries {
			series = append(series, event)
		} else {
			movies = append(movies, event)
		}
	}

	result := model.AggregateResult{
		Movies:         movies,
		Series:         series,
		MovieSummaries: SummarizeMovies(movies),
	}
	result.SeriesSummaries, result.Warnings = SummarizeSeries(series, scope)
	return result
}

// groupBy splits events by key, keeping row order inside each group. The
// keys are returned sorted.
func groupBy(events []model.ViewingEvent, key func(model.ViewingEvent) string) ([]string, map[string][]model.ViewingEvent) {
	groups := make(map[string][]model.ViewingEvent)
	for _, event := range events {
		k := key(event)
		groups[k] = append(groups[k], event)
	}
	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, groups
}

// SummarizeMovies folds movie events into one summary per exact title,
// sorted by title.
func SummarizeMovies(movies []model.ViewingEvent) []model.MovieSummary {
	titles, groups := groupBy(movies, func(e model.ViewingEvent) string { return e.Title })
	out := make([]model.MovieSummary, 0, len(titles))
	for _, title := range titles {
		out = append(out, summarizeMovie(title, groups[title]))
	}
	return out
}

func summarizeMovie(title string, group []model.ViewingEvent) model.MovieSummary {
	out := model.MovieSummary{
		Title:      title,
		StartTimes: make([]time.Time, 0, len(group)),
		EndTimes:   make([]time.Time, 0, len(group)),
		Bookmarks:  make([]string, 0, len(group)),
		PlayCount:  len(group),
	}
	var total time.Duration
	for _, event := range group {
		out.StartTimes = append(out.StartTimes, event.StartTime)
		out.EndTimes = append(out.EndTimes, event.EndTime)
		out.Bookmarks = append(out.Bookmarks, event.Bookmark)
		total += event.Duration
	}
	out.TotalDurationMinutes = total.Minutes()
	return out
}

// SummarizeSeries folds series events into one summary per base title,
// sorted by base title, together with the warnings of degenerate groups.
func SummarizeSeries(series []model.ViewingEvent, scope string) ([]model.SeriesSummary, []model.DegenerateGroupWarning) {
	baseTitles, groups := groupBy(series, func(e model.ViewingEvent) string { return e.BaseTitle })
	out := make([]model.SeriesSummary, 0, len(baseTitles))
	var warnings []model.DegenerateGroupWarning
	for _, baseTitle := range baseTitles {
		summary, warning := summarizeSeries(baseTitle, groups[baseTitle], scope)
		out = append(out, summary)
		if warning != nil {
			warnings = append(warnings, *warning)
		}
	}
	return out, warnings
}

func summarizeSeries(baseTitle string, group []model.ViewingEvent, scope string) (model.SeriesSummary, *model.DegenerateGroupWarning) {
	out := model.SeriesSummary{
		BaseTitle:      baseTitle,
		ChapterTitles:  make([]string, 0, len(group)),
		StartTimes:     make([]time.Time, 0, len(group)),
		EndTimes:       make([]time.Time, 0, len(group)),
		StartTimeHours: make([]float64, 0, len(group)),
	}

	var total time.Duration
	distinct := make(map[string]struct{})
	for i, event := range group {
		if i == 0 || event.StartTime.Before(out.MinStartTime) {
			out.MinStartTime = event.StartTime
		}
		if i == 0 || event.EndTime.After(out.MaxEndTime) {
			out.MaxEndTime = event.EndTime
		}
		out.ChapterTitles = append(out.ChapterTitles, event.Title)
		out.StartTimes = append(out.StartTimes, event.StartTime)
		out.EndTimes = append(out.EndTimes, event.EndTime)
		out.StartTimeHours = append(out.StartTimeHours, event.StartHour())
		distinct[event.Title] = struct{}{}
		total += event.Duration
	}

	out.TotalDurationHours = total.Hours()
	out.TotalLapsedHours = out.MaxEndTime.Sub(out.MinStartTime).Hours()
	out.DistinctEpisodeCount = len(distinct)

	out.EffectiveSpeed = math.NaN()
	out.EpisodeSpeed = math.NaN()
	if out.TotalLapsedHours > 0 {
		out.EffectiveSpeed = out.TotalDurationHours / out.TotalLapsedHours
		out.EpisodeSpeed = float64(out.DistinctEpisodeCount) / out.TotalLapsedHours
	}
	out.EffectiveSpeedTimesEpisodes = float64(out.DistinctEpisodeCount) * out.EffectiveSpeed

	waiting := Describe(WaitingTimes(group))
	out.WaitingTimeMean = waiting.Mean
	out.WaitingTimeMedian = waiting.Median
	out.WaitingTimeStd = waiting.Std
	out.WaitingTimeMax = waiting.Max
	out.WaitingTimeMin = waiting.Min

	var reason string
	switch {
	case out.TotalLapsedHours == 0:
		reason = ReasonZeroLapse
	case len(group) == 1:
		reason = ReasonSingleEvent
	default:
		return out, nil
	}
	out.Degenerate = true
	return out, &model.DegenerateGroupWarning{Scope: scope, BaseTitle: baseTitle, Events: len(group), Reason: reason}
}

// WaitingTimes returns, for the group sorted by start time (stable), the gap
// start[i] - end[i+1] in hours for every adjacent pair.
func WaitingTimes(group []model.ViewingEvent) []float64 {
	if len(group) < 2 {
		return nil
	}
	ordered := slices.Clone(group)
	slices.SortStableFunc(ordered, func(a, b model.ViewingEvent) int {
		return a.StartTime.Compare(b.StartTime)
	})
	out := make([]float64, 0, len(ordered)-1)
	for i := 0; i < len(ordered)-1; i++ {
		out = append(out, ordered[i].StartTime.Sub(ordered[i+1].EndTime).Hours())
	}
	return out
}
