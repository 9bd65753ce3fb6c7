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

// Package services_test contains the test suite for the services package.
// This file tests the normalization of the viewing-activity export.
package services_test

import (
	"errors"
	"testing"
	"time"

	"github.com/jaycherian/viewing-insights/internal/core/model"
	"github.com/jaycherian/viewing-insights/internal/core/services"
	test "github.com/jaycherian/viewing-insights/internal/testutil"
	"github.com/zeebo/assert"
)

// TestGetNormalizedEvents reads the sample export: the autoplayed row and the
// trailer are dropped, but their profiles are still anonymized.
func TestGetNormalizedEvents(t *testing.T) {
	path := test.WriteViewingActivity(t, t.TempDir(), test.ViewingActivityCSV)

	events, profiles, err := services.GetNormalizedEvents(path, time.UTC)
	assert.NoError(t, err)

	assert.Equal(t, 6, len(events))
	assert.Equal(t, 3, profiles.Len())
	assert.DeepEqual(t, []string{"profile_0", "profile_1", "profile_2"}, profiles.IDs())

	first := events[0]
	assert.Equal(t, "profile_0", first.Profile)
	assert.Equal(t, "Dark: Season 1: Secrets (Episode 1)", first.Title)
	assert.Equal(t, "Dark", first.BaseTitle)
	assert.Equal(t, 45*time.Minute, first.Duration)
	assert.True(t, first.EndTime.Equal(first.StartTime.Add(45*time.Minute)))
	assert.Equal(t, "Smart TV", first.DeviceType)
	assert.Equal(t, "ES (Spain)", first.Country)
	assert.False(t, first.IsSeries)

	for _, event := range events {
		assert.That(t, event.Profile != "profile_2")
	}
}

func TestNormalizeTimezone(t *testing.T) {
	path := test.WriteViewingActivity(t, t.TempDir(), test.ViewingActivityCSV)

	events, _, err := services.GetNormalizedEvents(path, time.FixedZone("UTC+2", 2*60*60))
	assert.NoError(t, err)
	// 20:00 UTC
	assert.Equal(t, 22.0, events[0].StartHour())
}

func TestNormalizeMissingColumn(t *testing.T) {
	table := model.RawTable{
		Header:  []string{"Profile Name", "Start Time", "Title", "Bookmark"},
		Records: [][]string{{"Ana", "2023-01-10 20:00:00", "Inception", "00:10:00"}},
	}

	_, _, err := services.NewNormalizer(nil).Normalize(table)
	var schemaErr *model.SchemaError
	assert.That(t, errors.As(err, &schemaErr))
	assert.Equal(t, services.ColDuration, schemaErr.Column)
	assert.Equal(t, services.SchemaV1, schemaErr.Version)
}

func TestNormalizeBadValues(t *testing.T) {
	header := []string{"\ufeffProfile Name", "Start Time", "Duration", "Title", "Bookmark"}

	_, _, err := services.NewNormalizer(nil).Normalize(model.RawTable{
		Header:  header,
		Records: [][]string{{"Ana", "2023-01-10 20:00:00", "forty minutes", "Inception", ""}},
	})
	var parseErr *model.ParseError
	assert.That(t, errors.As(err, &parseErr))
	assert.Equal(t, 2, parseErr.Line)
	assert.Equal(t, services.ColDuration, parseErr.Column)

	_, _, err = services.NewNormalizer(nil).Normalize(model.RawTable{
		Header: header,
		Records: [][]string{
			{"Ana", "2023-01-10 20:00:00", "00:40:00", "Inception", ""},
			{"Ana", "yesterday", "00:40:00", "Inception", ""},
		},
	})
	assert.That(t, errors.As(err, &parseErr))
	assert.Equal(t, 3, parseErr.Line)
	assert.Equal(t, services.ColStartTime, parseErr.Column)
}

// TestNormalizeBadSupplementalRow checks that rows are parsed before the
// trailer and autoplay filter drops them.
func TestNormalizeBadSupplementalRow(t *testing.T) {
	header := []string{"Profile Name", "Start Time", "Duration", "Title", "Bookmark", "Supplemental Video Type"}

	events, _, err := services.NewNormalizer(nil).Normalize(model.RawTable{
		Header: header,
		Records: [][]string{
			{"Ana", "2023-01-10 20:00:00", "00:40:00", "Inception", "", ""},
			{"Ana", "2023-01-10 21:00:00", "not-a-duration", "Inception", "", "TRAILER"},
		},
	})
	assert.Equal(t, 0, len(events))
	var parseErr *model.ParseError
	assert.That(t, errors.As(err, &parseErr))
	assert.Equal(t, 3, parseErr.Line)
	assert.Equal(t, services.ColDuration, parseErr.Column)

	_, _, err = services.NewNormalizer(nil).Normalize(model.RawTable{
		Header:  header,
		Records: [][]string{{"Ana", "garbage", "00:00:30", "Inception", "", "TRAILER"}},
	})
	assert.That(t, errors.As(err, &parseErr))
	assert.Equal(t, 2, parseErr.Line)
	assert.Equal(t, services.ColStartTime, parseErr.Column)
}

func TestNormalizeColumnName(t *testing.T) {
	assert.Equal(t, "profile_name", services.NormalizeColumnName("\ufeffProfile Name "))
	assert.Equal(t, "supplemental_video_type", services.NormalizeColumnName("Supplemental Video Type"))
}

func TestParseDuration(t *testing.T) {
	d, err := services.ParseDuration("01:02:03")
	assert.NoError(t, err)
	assert.Equal(t, time.Hour+2*time.Minute+3*time.Second, d)

	_, err = services.ParseDuration("62 minutes")
	assert.Error(t, err)
}

func TestParseStartTimeLayouts(t *testing.T) {
	n := services.NewNormalizer(time.UTC)
	want := time.Date(2023, 1, 10, 20, 0, 0, 0, time.UTC)
	for _, in := range []string{"2023-01-10 20:00:00", "2023-01-10T20:00:00Z", "2023-01-10T20:00:00"} {
		got, err := n.ParseStartTime(in)
		assert.NoError(t, err)
		assert.That(t, got.Equal(want))
	}
}
