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
	"testing"
	"time"

	"github.com/jaycherian/viewing-insights/internal/core/model"
	"github.com/jaycherian/viewing-insights/internal/core/services"
	"github.com/zeebo/assert"
)

func TestIsSeriesTitle(t *testing.T) {
	cases := map[string]bool{
		"Dark: Season 1: Secrets (Episode 1)":   true,
		"The Witcher: Book 2: Bloodline":        true,
		"Arcane (Chapter 3)":                    true,
		"Élite: Temporada 3: Samuel":            true,
		"Cuéntame : Capítulo 12":                true,
		"Narcos (Episodio 4)":                   true,
		"Inception":                             false,
		"La casa de papel: temporada 1":         false, // markers are case sensitive
		"La casa de papel: Parte 1: Episodio 1": false,
		"Seasons of Love":                       false,
	}
	for title, want := range cases {
		assert.Equal(t, want, services.IsSeriesTitle(title))
	}
}

func TestClassifyReturnsCopy(t *testing.T) {
	start := time.Date(2023, 1, 10, 20, 0, 0, 0, time.UTC)
	events := []model.ViewingEvent{
		model.NewViewingEvent("profile_0", "Dark: Season 1: Lies (Episode 2)", start, time.Hour, ""),
		model.NewViewingEvent("profile_0", "Inception", start, time.Hour, ""),
	}

	classified := services.Classify(events)
	assert.True(t, classified[0].IsSeries)
	assert.False(t, classified[1].IsSeries)
	assert.False(t, events[0].IsSeries)

	// Deterministic
	assert.DeepEqual(t, classified, services.Classify(events))
}
