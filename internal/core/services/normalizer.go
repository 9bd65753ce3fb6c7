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
// This file, `normalizer.go`, turns the raw viewing-activity export into
// typed, anonymized `ViewingEvent` values.
//
// Logic Flow:
//  1. Normalize every header (trim, lowercase, spaces to underscores) and map it
//     onto the versioned schema. A missing required column is a SchemaError.
//  2. Build the ProfileMap over all rows, before any filtering.
//  3. Parse each row. Duration must be "HH:MM:SS" and the start time one of the
//     accepted layouts; anything else is a ParseError and aborts the run.
//  4. Drop rows that carry a non-empty `attributes` or
//     `supplemental_video_type` value (autoplay, trailers, hooks).
package services

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jaycherian/viewing-insights/internal/core/model"
)

// SchemaV1 is the only export layout understood today.
const SchemaV1 = "v1"

// Canonical column names of the viewing-activity export.
const (
	ColTitle                 = "title"
	ColProfileName           = "profile_name"
	ColStartTime             = "start_time"
	ColDuration              = "duration"
	ColBookmark              = "bookmark"
	ColAttributes            = "attributes"
	ColSupplementalVideoType = "supplemental_video_type"
	ColDeviceType            = "device_type"
	ColLatestBookmark        = "latest_bookmark"
	ColCountry               = "country"
)

type columnSpec struct {
	name     string
	required bool
}

var viewingActivitySchemaV1 = []columnSpec{
	{ColTitle, true},
	{ColProfileName, true},
	{ColStartTime, true},
	{ColDuration, true},
	{ColBookmark, true},
	{ColAttributes, false},
	{ColSupplementalVideoType, false},
	{ColDeviceType, false},
	{ColLatestBookmark, false},
	{ColCountry, false},
}

// DurationLayout is the export format of the duration column.
const DurationLayout = "15:04:05"

var startTimeLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05Z07:00",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// Columns maps canonical column names to their index in a raw record.
type Columns map[string]int

func (c Columns) value(record []string, name string) string {
	i, ok := c[name]
	if !ok || i >= len(record) {
		return ""
	}
	return record[i]
}

// Normalizer converts raw export records into viewing events.
type Normalizer struct {
	location *time.Location
}

// NewNormalizer returns a Normalizer that reports times in loc. A nil loc
// means UTC.
func NewNormalizer(loc *time.Location) *Normalizer {
	if loc == nil {
		loc = time.UTC
	}
	return &Normalizer{location: loc}
}

// NormalizeColumnName applies the header convention: trim, lowercase and
// replace spaces with underscores. A UTF-8 byte order mark is dropped.
func NormalizeColumnName(name string) string {
	name = strings.TrimPrefix(name, "\ufeff")
	name = strings.ToLower(strings.TrimSpace(name))
	return strings.ReplaceAll(name, " ", "_")
}

// MapColumns checks a header against SchemaV1.
//
// Inputs:
//   - header: The raw header row.
//
// Outputs:
//   - Columns: Index of each known column found in the header.
//   - error: A *model.SchemaError naming the first missing required column.
func MapColumns(header []string) (Columns, error) {
	found := make(map[string]int, len(header))
	for i, raw := range header {
		found[NormalizeColumnName(raw)] = i
	}
	out := make(Columns, len(viewingActivitySchemaV1))
	for _, column := range viewingActivitySchemaV1 {
		i, ok := found[column.name]
		if !ok {
			if column.required {
				return nil, &model.SchemaError{Version: SchemaV1, Column: column.name}
			}
			continue
		}
		out[column.name] = i
		delete(found, column.name)
	}
	for name := range found {
		slog.Debug("ignoring column outside schema", "column", name, "schema", SchemaV1)
	}
	return out, nil
}

// BuildProfileMap anonymizes the profile names of every record in file order.
func BuildProfileMap(records [][]string, columns Columns) model.ProfileMap {
	names := make([]string, 0, len(records))
	for _, record := range records {
		names = append(names, columns.value(record, ColProfileName))
	}
	return model.NewProfileMap(names)
}

// ParseDuration parses an "HH:MM:SS" duration.
func ParseDuration(in string) (time.Duration, error) {
	t, err := time.Parse(DurationLayout, strings.TrimSpace(in))
	if err != nil {
		return 0, err
	}
	return time.Duration(t.Hour())*time.Hour +
		time.Duration(t.Minute())*time.Minute +
		time.Duration(t.Second())*time.Second, nil
}

// ParseStartTime parses an export timestamp, read as UTC, and converts it to
// the normalizer location.
func (n *Normalizer) ParseStartTime(in string) (time.Time, error) {
	in = strings.TrimSpace(in)
	var errs error
	for _, layout := range startTimeLayouts {
		t, err := time.ParseInLocation(layout, in, time.UTC)
		if err == nil {
			return t.In(n.location), nil
		}
		errs = errors.Join(errs, err)
	}
	return time.Time{}, fmt.Errorf("no accepted layout matched: %w", errs)
}

// Normalize converts a raw table into viewing events.
//
// Inputs:
//   - table: The raw export content.
//
// Outputs:
//   - []model.ViewingEvent: The kept events, in file order, unclassified.
//   - model.ProfileMap: The anonymization built over every record.
//   - error: A *model.SchemaError or *model.ParseError.
func (n *Normalizer) Normalize(table model.RawTable) ([]model.ViewingEvent, model.ProfileMap, error) {
	columns, err := MapColumns(table.Header)
	if err != nil {
		return nil, model.ProfileMap{}, err
	}
	profiles := BuildProfileMap(table.Records, columns)

	events := make([]model.ViewingEvent, 0, len(table.Records))
	dropped := 0
	for i, record := range table.Records {
		line := i + 2 // header is line 1
		event, err := n.normalizeRecord(record, columns, profiles, line)
		if err != nil {
			return nil, model.ProfileMap{}, err
		}
		// Supplemental rows must parse too before they are dropped.
		if isSupplemental(record, columns) {
			dropped++
			continue
		}
		events = append(events, event)
	}
	slog.Info("normalized viewing activity",
		"records", len(table.Records), "events", len(events), "dropped", dropped, "profiles", profiles.Len())
	return events, profiles, nil
}

func (n *Normalizer) normalizeRecord(record []string, columns Columns, profiles model.ProfileMap, line int) (model.ViewingEvent, error) {
	rawDuration := columns.value(record, ColDuration)
	duration, err := ParseDuration(rawDuration)
	if err != nil {
		return model.ViewingEvent{}, &model.ParseError{Line: line, Column: ColDuration, Value: rawDuration, Err: err}
	}
	rawStart := columns.value(record, ColStartTime)
	start, err := n.ParseStartTime(rawStart)
	if err != nil {
		return model.ViewingEvent{}, &model.ParseError{Line: line, Column: ColStartTime, Value: rawStart, Err: err}
	}
	profile, _ := profiles.ID(columns.value(record, ColProfileName))

	event := model.NewViewingEvent(profile, columns.value(record, ColTitle), start, duration, columns.value(record, ColBookmark))
	event.LatestBookmark = columns.value(record, ColLatestBookmark)
	event.DeviceType = columns.value(record, ColDeviceType)
	event.Country = columns.value(record, ColCountry)
	return event, nil
}

func isSupplemental(record []string, columns Columns) bool {
	return strings.TrimSpace(columns.value(record, ColAttributes)) != "" ||
		strings.TrimSpace(columns.value(record, ColSupplementalVideoType)) != ""
}

// GetNormalizedEvents reads a viewing-activity CSV file and normalizes it.
//
// Inputs:
//   - rawPath: Path of ViewingActivity.csv.
//   - loc: Location used for hour-of-day metrics; nil means UTC.
//
// Outputs:
//   - []model.ViewingEvent: The kept events, unclassified.
//   - model.ProfileMap: The anonymization table.
//   - error: A *model.IOError, *model.SchemaError or *model.ParseError.
func GetNormalizedEvents(rawPath string, loc *time.Location) ([]model.ViewingEvent, model.ProfileMap, error) {
	table, err := ReadRawTable(rawPath)
	if err != nil {
		return nil, model.ProfileMap{}, err
	}
	return NewNormalizer(loc).Normalize(table)
}
