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
	"math"
	"slices"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Summary holds the descriptive statistics of a sample. Undefined values
// are NaN: every field for an empty sample, Std for a single value.
type Summary struct {
	Mean   float64
	Median float64
	Std    float64 // Sample standard deviation (n-1 denominator).
	Max    float64
	Min    float64
}

// Describe computes the statistics of values without modifying it.
func Describe(values []float64) Summary {
	nan := math.NaN()
	if len(values) == 0 {
		return Summary{Mean: nan, Median: nan, Std: nan, Max: nan, Min: nan}
	}
	out := Summary{
		Mean:   stat.Mean(values, nil),
		Median: median(values),
		Std:    nan,
		Max:    floats.Max(values),
		Min:    floats.Min(values),
	}
	if len(values) > 1 {
		out.Std = stat.StdDev(values, nil)
	}
	return out
}

// median averages the two middle values of an even-sized sample.
func median(values []float64) float64 {
	sorted := slices.Clone(values)
	slices.Sort(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}
