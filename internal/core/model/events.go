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
// This file, `events.go`, contains the per-row view of the viewing history:
// the raw table read from the export, the normalized `ViewingEvent` and the
// immutable `ProfileMap` that anonymizes profile names.
//
// Every value in this file is constructed once and never mutated afterwards.
// Operations that "change" an event (such as classification) return a copy.
package model

import (
	"strconv"
	"strings"
	"time"
)

// RawTable is the untyped content of a viewing-activity CSV file: its header
// row and every data record as read from disk.
type RawTable struct {
	Header  []string   // Column names exactly as they appear in the file.
	Records [][]string // Data rows, in file order.
}

// ViewingEvent is one playback segment of a title by a profile.
type ViewingEvent struct {
	Profile        string        // Anonymized profile id (e.g. "profile_0").
	Title          string        // Full title as exported.
	BaseTitle      string        // Title before the first ':'; the whole title when there is none.
	StartTime      time.Time     // When playback started.
	EndTime        time.Time     // StartTime + Duration.
	Duration       time.Duration // Length of the segment, never negative.
	Bookmark       string        // Opaque position marker from the export.
	LatestBookmark string        // Optional.
	DeviceType     string        // Optional.
	Country        string        // Optional.
	IsSeries       bool          // Set by the title classifier.
}

// NewViewingEvent builds an event and derives its end time and base title.
//
// Inputs:
//   - profile: The anonymized profile id.
//   - title: The full exported title.
//   - start: The start of playback.
//   - duration: The playback length.
//   - bookmark: The exported bookmark string.
//
// Outputs:
//   - ViewingEvent: The new event with `IsSeries` unset.
func NewViewingEvent(profile string, title string, start time.Time, duration time.Duration, bookmark string) ViewingEvent {
	return ViewingEvent{
		Profile:   profile,
		Title:     title,
		BaseTitle: BaseTitleOf(title),
		StartTime: start,
		EndTime:   start.Add(duration),
		Duration:  duration,
		Bookmark:  bookmark,
	}
}

// WithSeries returns a copy of the event carrying the given classification.
func (e ViewingEvent) WithSeries(isSeries bool) ViewingEvent {
	e.IsSeries = isSeries
	return e
}

// StartHour is the fractional hour of day at which playback started
// (hour + minute/60), in the location of StartTime.
func (e ViewingEvent) StartHour() float64 {
	return float64(e.StartTime.Hour()) + float64(e.StartTime.Minute())/60.0
}

// BaseTitleOf returns the substring of title before its first ':'.
func BaseTitleOf(title string) string {
	base, _, _ := strings.Cut(title, ":")
	return base
}

// ProfileMap is the immutable anonymization table from raw profile names to
// "profile_N" ids, numbered in first-seen order.
type ProfileMap struct {
	ids   map[string]string
	names []string
	order []string // Ids, aligned with names.
}

// NewProfileMap builds a ProfileMap from profile names listed in file order.
// Repeated names keep the id of their first occurrence.
func NewProfileMap(names []string) ProfileMap {
	out := ProfileMap{ids: make(map[string]string)}
	for _, name := range names {
		if _, ok := out.ids[name]; ok {
			continue
		}
		id := ProfileID(len(out.names))
		out.ids[name] = id
		out.names = append(out.names, name)
		out.order = append(out.order, id)
	}
	return out
}

// RestoreProfileMap rebuilds a ProfileMap from ids that are already
// anonymized, such as the profiles of persisted events. Ids keep the given
// order and map to themselves.
func RestoreProfileMap(ids []string) ProfileMap {
	out := ProfileMap{ids: make(map[string]string)}
	for _, id := range ids {
		if _, ok := out.ids[id]; ok {
			continue
		}
		out.ids[id] = id
		out.names = append(out.names, id)
		out.order = append(out.order, id)
	}
	return out
}

// ProfileID formats the anonymized id for the n-th profile.
func ProfileID(n int) string {
	return ProfilePrefix + strconv.Itoa(n)
}

// ID returns the anonymized id of a raw profile name.
func (p ProfileMap) ID(name string) (string, bool) {
	id, ok := p.ids[name]
	return id, ok
}

// IDs returns every anonymized id in first-seen order.
func (p ProfileMap) IDs() []string {
	out := make([]string, len(p.order))
	copy(out, p.order)
	return out
}

// Len is the number of distinct profiles.
func (p ProfileMap) Len() int {
	return len(p.names)
}
