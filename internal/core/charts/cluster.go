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

package charts

import (
	"math"
	"slices"
	"time"
)

// ClusterByGap labels one dimensional values so that two values share a
// label when they are linked by a chain of neighbours at most eps apart.
// Labels are numbered in order of first appearance in values.
func ClusterByGap(values []float64, eps float64) []int {
	order := make([]int, len(values))
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(a, b int) int {
		switch {
		case values[a] < values[b]:
			return -1
		case values[a] > values[b]:
			return 1
		}
		return 0
	})

	group := make([]int, len(values))
	current := 0
	for k, idx := range order {
		if k > 0 && values[idx]-values[order[k-1]] > eps {
			current++
		}
		group[idx] = current
	}

	labels := make([]int, len(values))
	renumber := make(map[int]int)
	for i, g := range group {
		label, ok := renumber[g]
		if !ok {
			label = len(renumber)
			renumber[g] = label
		}
		labels[i] = label
	}
	return labels
}

// DayOffsets returns the whole number of days between the epoch and each time.
func DayOffsets(times []time.Time) []float64 {
	out := make([]float64, len(times))
	for i, t := range times {
		out[i] = math.Floor(float64(t.Unix()) / 86400)
	}
	return out
}
