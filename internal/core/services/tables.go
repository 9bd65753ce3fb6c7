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
// This file, `tables.go`, defines the `TableStore`, which persists events and
// summaries as flat CSV tables and reads them back.
//
// Format:
//   - Header row, comma delimiter, no index column.
//   - Timestamps use TimeLayout and keep their UTC offset.
//   - Floats are written in their shortest round-trip form; NaN is "NaN".
//   - List-valued cells are JSON arrays.
package services

import (
	"cmp"
	"encoding/csv"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/jaycherian/viewing-insights/internal/core/model"
)

// TimeLayout is the timestamp format of every persisted table.
const TimeLayout = "2006-01-02 15:04:05-07:00"

var eventColumns = []string{
	"profile_name", "start_time", "duration", "title", "device_type", "bookmark",
	"latest_bookmark", "country", "end_time", "base_title", "is_series",
}

var movieInfoColumns = []string{
	"title", "play_count", "total_duration_minutes", "start_time_list", "end_time_list", "bookmark_list",
}

var seriesInfoColumns = []string{
	"base_title", "min_start_time", "max_end_time", "chapters_titles", "all_start_times", "all_end_times",
	"all_start_time_hours", "total_duration_hours", "total_lapsed_hours", "effective_speed",
	"distinct_episode_count", "effective_speed_times_episodes", "episode_speed",
	"waiting_time_mean", "waiting_time_median", "waiting_time_std", "waiting_time_max", "waiting_time_min",
	"degenerate",
}

// TableStore reads and writes the flat tables of one directory.
type TableStore struct {
	dir string
}

// NewTableStore returns a store rooted at dir. The directory is created on
// first write.
func NewTableStore(dir string) *TableStore {
	return &TableStore{dir: dir}
}

// Path returns the location of a table file inside the store.
func (s *TableStore) Path(name string) string {
	return filepath.Join(s.dir, name)
}

// ReadRawTable reads a CSV file without interpreting its columns.
func ReadRawTable(path string) (model.RawTable, error) {
	file, err := os.Open(path)
	if err != nil {
		return model.RawTable{}, &model.IOError{Op: "open", Path: path, Err: err}
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return model.RawTable{}, &model.IOError{Op: "read", Path: path, Err: err}
	}
	if len(records) == 0 {
		return model.RawTable{}, &model.IOError{Op: "read", Path: path, Err: errors.New("empty file, header expected")}
	}
	return model.RawTable{Header: records[0], Records: records[1:]}, nil
}

func (s *TableStore) write(name string, header []string, rows [][]string) (string, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", &model.IOError{Op: "mkdir", Path: s.dir, Err: err}
	}
	path := s.Path(name)
	file, err := os.Create(path)
	if err != nil {
		return "", &model.IOError{Op: "create", Path: path, Err: err}
	}
	writer := csv.NewWriter(file)
	if err := writer.Write(header); err != nil {
		file.Close()
		return "", &model.IOError{Op: "write", Path: path, Err: err}
	}
	if err := writer.WriteAll(rows); err != nil {
		file.Close()
		return "", &model.IOError{Op: "write", Path: path, Err: err}
	}
	if err := file.Close(); err != nil {
		return "", &model.IOError{Op: "close", Path: path, Err: err}
	}
	return path, nil
}

func (s *TableStore) read(name string, columns []string) (*rowDecoder, [][]string, error) {
	path := s.Path(name)
	table, err := ReadRawTable(path)
	if err != nil {
		return nil, nil, err
	}
	index := make(map[string]int, len(table.Header))
	for i, column := range table.Header {
		index[NormalizeColumnName(column)] = i
	}
	for _, column := range columns {
		if _, ok := index[column]; !ok {
			return nil, nil, &model.SchemaError{Version: SchemaV1, Column: column}
		}
	}
	return &rowDecoder{index: index}, table.Records, nil
}

// WriteEvents persists events under name and returns the written path.
func (s *TableStore) WriteEvents(name string, events []model.ViewingEvent) (string, error) {
	rows := make([][]string, 0, len(events))
	for _, e := range events {
		rows = append(rows, []string{
			e.Profile,
			formatTime(e.StartTime),
			formatFloat(e.Duration.Seconds()),
			e.Title,
			e.DeviceType,
			e.Bookmark,
			e.LatestBookmark,
			e.Country,
			formatTime(e.EndTime),
			e.BaseTitle,
			strconv.FormatBool(e.IsSeries),
		})
	}
	return s.write(name, eventColumns, rows)
}

// ReadEvents reads an events table written by WriteEvents.
func (s *TableStore) ReadEvents(name string) ([]model.ViewingEvent, error) {
	d, records, err := s.read(name, eventColumns)
	if err != nil {
		return nil, err
	}
	out := make([]model.ViewingEvent, 0, len(records))
	for i, r := range records {
		d.line = i + 2
		seconds := d.float(r, "duration")
		out = append(out, model.ViewingEvent{
			Profile:        d.str(r, "profile_name"),
			Title:          d.str(r, "title"),
			BaseTitle:      d.str(r, "base_title"),
			StartTime:      d.timestamp(r, "start_time"),
			EndTime:        d.timestamp(r, "end_time"),
			Duration:       time.Duration(math.Round(seconds * float64(time.Second))),
			Bookmark:       d.str(r, "bookmark"),
			LatestBookmark: d.str(r, "latest_bookmark"),
			DeviceType:     d.str(r, "device_type"),
			Country:        d.str(r, "country"),
			IsSeries:       d.boolean(r, "is_series"),
		})
		if d.err != nil {
			return nil, d.err
		}
	}
	return out, nil
}

// WriteMovieSummaries persists movie summaries under name.
func (s *TableStore) WriteMovieSummaries(name string, summaries []model.MovieSummary) (string, error) {
	rows := make([][]string, 0, len(summaries))
	for _, m := range summaries {
		starts, err := formatTimes(m.StartTimes)
		if err != nil {
			return "", err
		}
		ends, err := formatTimes(m.EndTimes)
		if err != nil {
			return "", err
		}
		bookmarks, err := formatList(m.Bookmarks)
		if err != nil {
			return "", err
		}
		rows = append(rows, []string{
			m.Title,
			strconv.Itoa(m.PlayCount),
			formatFloat(m.TotalDurationMinutes),
			starts,
			ends,
			bookmarks,
		})
	}
	return s.write(name, movieInfoColumns, rows)
}

// ReadMovieSummaries reads a table written by WriteMovieSummaries.
func (s *TableStore) ReadMovieSummaries(name string) ([]model.MovieSummary, error) {
	d, records, err := s.read(name, movieInfoColumns)
	if err != nil {
		return nil, err
	}
	out := make([]model.MovieSummary, 0, len(records))
	for i, r := range records {
		d.line = i + 2
		out = append(out, model.MovieSummary{
			Title:                d.str(r, "title"),
			PlayCount:            d.integer(r, "play_count"),
			TotalDurationMinutes: d.float(r, "total_duration_minutes"),
			StartTimes:           d.timeList(r, "start_time_list"),
			EndTimes:             d.timeList(r, "end_time_list"),
			Bookmarks:            d.stringList(r, "bookmark_list"),
		})
		if d.err != nil {
			return nil, d.err
		}
	}
	return out, nil
}

// WriteSeriesSummaries persists series summaries under name.
func (s *TableStore) WriteSeriesSummaries(name string, summaries []model.SeriesSummary) (string, error) {
	rows := make([][]string, 0, len(summaries))
	for _, m := range summaries {
		titles, err := formatList(m.ChapterTitles)
		if err != nil {
			return "", err
		}
		starts, err := formatTimes(m.StartTimes)
		if err != nil {
			return "", err
		}
		ends, err := formatTimes(m.EndTimes)
		if err != nil {
			return "", err
		}
		hours, err := formatList(m.StartTimeHours)
		if err != nil {
			return "", err
		}
		rows = append(rows, []string{
			m.BaseTitle,
			formatTime(m.MinStartTime),
			formatTime(m.MaxEndTime),
			titles,
			starts,
			ends,
			hours,
			formatFloat(m.TotalDurationHours),
			formatFloat(m.TotalLapsedHours),
			formatFloat(m.EffectiveSpeed),
			strconv.Itoa(m.DistinctEpisodeCount),
			formatFloat(m.EffectiveSpeedTimesEpisodes),
			formatFloat(m.EpisodeSpeed),
			formatFloat(m.WaitingTimeMean),
			formatFloat(m.WaitingTimeMedian),
			formatFloat(m.WaitingTimeStd),
			formatFloat(m.WaitingTimeMax),
			formatFloat(m.WaitingTimeMin),
			strconv.FormatBool(m.Degenerate),
		})
	}
	return s.write(name, seriesInfoColumns, rows)
}

// ReadSeriesSummaries reads a table written by WriteSeriesSummaries.
func (s *TableStore) ReadSeriesSummaries(name string) ([]model.SeriesSummary, error) {
	d, records, err := s.read(name, seriesInfoColumns)
	if err != nil {
		return nil, err
	}
	out := make([]model.SeriesSummary, 0, len(records))
	for i, r := range records {
		d.line = i + 2
		out = append(out, model.SeriesSummary{
			BaseTitle:                   d.str(r, "base_title"),
			MinStartTime:                d.timestamp(r, "min_start_time"),
			MaxEndTime:                  d.timestamp(r, "max_end_time"),
			ChapterTitles:               d.stringList(r, "chapters_titles"),
			StartTimes:                  d.timeList(r, "all_start_times"),
			EndTimes:                    d.timeList(r, "all_end_times"),
			StartTimeHours:              d.floatList(r, "all_start_time_hours"),
			TotalDurationHours:          d.float(r, "total_duration_hours"),
			TotalLapsedHours:            d.float(r, "total_lapsed_hours"),
			EffectiveSpeed:              d.float(r, "effective_speed"),
			DistinctEpisodeCount:        d.integer(r, "distinct_episode_count"),
			EffectiveSpeedTimesEpisodes: d.float(r, "effective_speed_times_episodes"),
			EpisodeSpeed:                d.float(r, "episode_speed"),
			WaitingTimeMean:             d.float(r, "waiting_time_mean"),
			WaitingTimeMedian:           d.float(r, "waiting_time_median"),
			WaitingTimeStd:              d.float(r, "waiting_time_std"),
			WaitingTimeMax:              d.float(r, "waiting_time_max"),
			WaitingTimeMin:              d.float(r, "waiting_time_min"),
			Degenerate:                  d.boolean(r, "degenerate"),
		})
		if d.err != nil {
			return nil, d.err
		}
	}
	return out, nil
}

// SaveReport writes the four tables of every scope, in scope order, and
// returns the written paths.
func (s *TableStore) SaveReport(report model.Report) ([]string, error) {
	paths := make([]string, 0, len(report.Scopes)*len(model.ReportTables))
	for _, scope := range report.Scopes {
		result := report.Results[scope]
		for _, table := range model.ReportTables {
			name := model.TableFileName(scope, table)
			var path string
			var err error
			switch table {
			case model.TableMovie:
				path, err = s.WriteEvents(name, result.Movies)
			case model.TableSeries:
				path, err = s.WriteEvents(name, result.Series)
			case model.TableMovieInfo:
				path, err = s.WriteMovieSummaries(name, result.MovieSummaries)
			case model.TableSeriesInfo:
				path, err = s.WriteSeriesSummaries(name, result.SeriesSummaries)
			}
			if err != nil {
				return paths, fmt.Errorf("failed to save %s: %w", name, err)
			}
			paths = append(paths, path)
		}
	}
	return paths, nil
}

// Scopes lists the scopes with a series_info table in the store: "general"
// first, then profiles by their numeric suffix.
func (s *TableStore) Scopes() ([]string, error) {
	suffix := "_" + model.TableSeriesInfo + ".csv"
	matches, err := filepath.Glob(filepath.Join(s.dir, "*"+suffix))
	if err != nil {
		return nil, err
	}
	var profiles []string
	general := false
	for _, match := range matches {
		scope := strings.TrimSuffix(filepath.Base(match), suffix)
		switch {
		case scope == model.GeneralScope:
			general = true
		case strings.HasPrefix(scope, model.ProfilePrefix):
			profiles = append(profiles, scope)
		}
	}
	slices.SortStableFunc(profiles, func(a, b string) int {
		return cmp.Compare(profileIndex(a), profileIndex(b))
	})
	if general {
		profiles = append([]string{model.GeneralScope}, profiles...)
	}
	return profiles, nil
}

// LoadReport reads back every scope written by SaveReport. Degenerate-group
// warnings are not persisted and come back empty.
func (s *TableStore) LoadReport() (model.Report, error) {
	scopes, err := s.Scopes()
	if err != nil {
		return model.Report{}, err
	}
	if len(scopes) == 0 {
		return model.Report{}, &model.IOError{Op: "load", Path: s.dir, Err: errors.New("no report tables found")}
	}
	report := model.Report{Scopes: scopes, Results: make(map[string]model.AggregateResult, len(scopes))}
	for _, scope := range scopes {
		var result model.AggregateResult
		if result.Movies, err = s.ReadEvents(model.TableFileName(scope, model.TableMovie)); err != nil {
			return report, err
		}
		if result.Series, err = s.ReadEvents(model.TableFileName(scope, model.TableSeries)); err != nil {
			return report, err
		}
		if result.MovieSummaries, err = s.ReadMovieSummaries(model.TableFileName(scope, model.TableMovieInfo)); err != nil {
			return report, err
		}
		if result.SeriesSummaries, err = s.ReadSeriesSummaries(model.TableFileName(scope, model.TableSeriesInfo)); err != nil {
			return report, err
		}
		report.Results[scope] = result
	}
	return report, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func formatTime(t time.Time) string {
	return t.Format(TimeLayout)
}

func formatTimes(in []time.Time) (string, error) {
	out := make([]string, len(in))
	for i, t := range in {
		out[i] = formatTime(t)
	}
	return formatList(out)
}

func formatList[T any](in []T) (string, error) {
	if in == nil {
		in = []T{}
	}
	b, err := json.Marshal(in)
	if err != nil {
		return "", fmt.Errorf("failed to encode list cell: %w", err)
	}
	return string(b), nil
}

// rowDecoder reads typed cells of a persisted table. The first failure is
// kept in err and turns every later call into a no-op.
type rowDecoder struct {
	index map[string]int
	line  int
	err   error
}

func (d *rowDecoder) fail(column string, value string, err error) {
	if d.err == nil {
		d.err = &model.ParseError{Line: d.line, Column: column, Value: value, Err: err}
	}
}

func (d *rowDecoder) str(record []string, column string) string {
	i := d.index[column]
	if i >= len(record) {
		return ""
	}
	return record[i]
}

func (d *rowDecoder) float(record []string, column string) float64 {
	value := d.str(record, column)
	if d.err != nil {
		return 0
	}
	out, err := strconv.ParseFloat(value, 64)
	if err != nil {
		d.fail(column, value, err)
	}
	return out
}

func (d *rowDecoder) integer(record []string, column string) int {
	value := d.str(record, column)
	if d.err != nil {
		return 0
	}
	out, err := strconv.Atoi(value)
	if err != nil {
		d.fail(column, value, err)
	}
	return out
}

func (d *rowDecoder) boolean(record []string, column string) bool {
	value := d.str(record, column)
	if d.err != nil {
		return false
	}
	out, err := strconv.ParseBool(value)
	if err != nil {
		d.fail(column, value, err)
	}
	return out
}

func (d *rowDecoder) timestamp(record []string, column string) time.Time {
	value := d.str(record, column)
	if d.err != nil {
		return time.Time{}
	}
	out, err := time.Parse(TimeLayout, value)
	if err != nil {
		d.fail(column, value, err)
	}
	return out
}

func (d *rowDecoder) stringList(record []string, column string) []string {
	var out []string
	d.list(record, column, &out)
	return out
}

func (d *rowDecoder) floatList(record []string, column string) []float64 {
	var out []float64
	d.list(record, column, &out)
	return out
}

func (d *rowDecoder) timeList(record []string, column string) []time.Time {
	raw := d.stringList(record, column)
	if d.err != nil {
		return nil
	}
	out := make([]time.Time, len(raw))
	for i, value := range raw {
		t, err := time.Parse(TimeLayout, value)
		if err != nil {
			d.fail(column, value, err)
			return nil
		}
		out[i] = t
	}
	return out
}

func (d *rowDecoder) list(record []string, column string, out any) {
	value := d.str(record, column)
	if d.err != nil {
		return
	}
	if err := json.Unmarshal([]byte(value), out); err != nil {
		d.fail(column, value, err)
	}
}
