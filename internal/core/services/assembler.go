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
	"cmp"
	"slices"
	"strconv"
	"strings"

	"github.com/jaycherian/viewing-insights/internal/core/model"
)

// AggregateProfiles runs Aggregate once per profile of the map.
func AggregateProfiles(events []model.ViewingEvent, profiles model.ProfileMap) map[string]model.AggregateResult {
	out := make(map[string]model.AggregateResult, profiles.Len())
	for _, id := range profiles.IDs() {
		out[id] = Aggregate(events, id)
	}
	return out
}

// AssembleReport keys the general result as "general" and each profile result
// by its anonymized id, in ProfileMap order. Profiles without a result get
// empty tables.
func AssembleReport(global model.AggregateResult, perProfile map[string]model.AggregateResult, profiles model.ProfileMap) model.Report {
	report := model.Report{
		Scopes:  []string{model.GeneralScope},
		Results: map[string]model.AggregateResult{model.GeneralScope: global},
	}
	for _, id := range profiles.IDs() {
		result, ok := perProfile[id]
		if !ok {
			result = Aggregate(nil, id)
		}
		report.Scopes = append(report.Scopes, id)
		report.Results[id] = result
	}
	return report
}

// BuildReport aggregates the general scope and every profile scope.
func BuildReport(events []model.ViewingEvent, profiles model.ProfileMap) model.Report {
	return AssembleReport(Aggregate(events, ""), AggregateProfiles(events, profiles), profiles)
}

// ProfilesOf restores the ProfileMap of persisted events. Ids are ordered by
// their numeric suffix, which is the first-seen order of the export.
func ProfilesOf(events []model.ViewingEvent) model.ProfileMap {
	seen := make(map[string]bool)
	var ids []string
	for _, event := range events {
		if !seen[event.Profile] {
			seen[event.Profile] = true
			ids = append(ids, event.Profile)
		}
	}
	slices.SortStableFunc(ids, func(a, b string) int {
		return cmp.Compare(profileIndex(a), profileIndex(b))
	})
	return model.RestoreProfileMap(ids)
}

func profileIndex(id string) int {
	n, err := strconv.Atoi(strings.TrimPrefix(id, model.ProfilePrefix))
	if err != nil {
		return -1
	}
	return n
}
