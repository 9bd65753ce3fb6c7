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

package services

import (
	"strings"

	"github.com/jaycherian/viewing-insights/internal/core/model"
)

// SeriesMarkers are the literal, case-sensitive title fragments (English and
// Spanish exports) that identify an episode of a series.
var SeriesMarkers = []string{
	": Season",
	": Book",
	"(Episode ",
	" : Episode ",
	" : Part ",
	"(Chapter ",
	" : Chapter ",
	": Temporada",
	": Libro",
	"(Capítulo ",
	" : Capítulo ",
	" : Parte ",
	" : Episodio ",
	"(Episodio ",
}

// IsSeriesTitle reports whether title contains any series marker.
func IsSeriesTitle(title string) bool {
	for _, marker := range SeriesMarkers {
		if strings.Contains(title, marker) {
			return true
		}
	}
	return false
}

// Classify returns a copy of events with IsSeries set from the title.
func Classify(events []model.ViewingEvent) []model.ViewingEvent {
	out := make([]model.ViewingEvent, len(events))
	for i, event := range events {
		out[i] = event.WithSeries(IsSeriesTitle(event.Title))
	}
	return out
}
