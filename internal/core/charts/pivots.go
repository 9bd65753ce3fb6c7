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

	"github.com/jaycherian/viewing-insights/internal/core/model"
)

// ProfileBins holds the hours watched by each profile in consecutive bins of
// a fixed number of calendar months.
type ProfileBins struct {
	Starts   []time.Time // First instant of each bin.
	Profiles []string
	Hours    [][]float64 // Indexed [profile][bin].
}

func monthIndex(t time.Time) int {
	return t.Year()*12 + int(t.Month()) - 1
}

// BinProfiles sums event durations, in hours, per profile and per bin of
// binMonths months. The first bin starts on the first day of the month of the
// earliest event. Profiles absent from profiles are ignored.
func BinProfiles(events []model.ViewingEvent, profiles []string, binMonths int) ProfileBins {
	out := ProfileBins{Profiles: profiles, Hours: make([][]float64, len(profiles))}
	if len(events) == 0 || binMonths < 1 {
		return out
	}
	first, last := events[0].StartTime, events[0].StartTime
	for _, event := range events {
		if event.StartTime.Before(first) {
			first = event.StartTime
		}
		if event.StartTime.After(last) {
			last = event.StartTime
		}
	}
	base := monthIndex(first)
	bins := (monthIndex(last)-base)/binMonths + 1
	for i := 0; i < bins; i++ {
		out.Starts = append(out.Starts, time.Date(first.Year(), first.Month()+time.Month(i*binMonths), 1, 0, 0, 0, 0, first.Location()))
	}
	index := make(map[string]int, len(profiles))
	for i, profile := range profiles {
		index[profile] = i
		out.Hours[i] = make([]float64, bins)
	}
	for _, event := range events {
		p, ok := index[event.Profile]
		if !ok {
			continue
		}
		out.Hours[p][(monthIndex(event.StartTime)-base)/binMonths] += event.Duration.Hours()
	}
	return out
}

// Proportions divides each profile value by the bin total. Empty bins are
// left at zero.
func (b ProfileBins) Proportions() [][]float64 {
	out := make([][]float64, len(b.Hours))
	for p := range b.Hours {
		out[p] = make([]float64, len(b.Starts))
	}
	for i := range b.Starts {
		total := 0.0
		for p := range b.Hours {
			total += b.Hours[p][i]
		}
		if total == 0 {
			continue
		}
		for p := range b.Hours {
			out[p][i] = b.Hours[p][i] / total
		}
	}
	return out
}

// Calendar holds hours watched per (year, month). Months outside the range
// of observed months are NaN; months inside it without events are zero.
type Calendar struct {
	Years []int
	Hours [][12]float64 // Indexed [year][month-1].
}

// CalendarCell is one filled cell of a Calendar.
type CalendarCell struct {
	Row   int
	Month int // 1 to 12.
	Value float64
}

// BuildCalendar sums the hours of events watched by profile, or of every
// event when profile is empty.
func BuildCalendar(events []model.ViewingEvent, profile string) Calendar {
	var selected []model.ViewingEvent
	for _, event := range events {
		if profile == "" || event.Profile == profile {
			selected = append(selected, event)
		}
	}
	if len(selected) == 0 {
		return Calendar{}
	}
	first, last := monthIndex(selected[0].StartTime), monthIndex(selected[0].StartTime)
	for _, event := range selected {
		first = min(first, monthIndex(event.StartTime))
		last = max(last, monthIndex(event.StartTime))
	}

	out := Calendar{}
	for year := first / 12; year <= last/12; year++ {
		out.Years = append(out.Years, year)
		var row [12]float64
		for m := range row {
			idx := year*12 + m
			if idx < first || idx > last {
				row[m] = math.NaN()
			}
		}
		out.Hours = append(out.Hours, row)
	}
	for _, event := range selected {
		row := event.StartTime.Year() - out.Years[0]
		out.Hours[row][int(event.StartTime.Month())-1] += event.Duration.Hours()
	}
	return out
}

// Range returns the smallest and largest filled value.
func (c Calendar) Range() (lo float64, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, row := range c.Hours {
		for _, v := range row {
			if math.IsNaN(v) {
				continue
			}
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
	}
	return lo, hi
}

// Cells lists the filled cells in chronological order.
func (c Calendar) Cells() []CalendarCell {
	var out []CalendarCell
	for r, row := range c.Hours {
		for m, v := range row {
			if !math.IsNaN(v) {
				out = append(out, CalendarCell{Row: r, Month: m + 1, Value: v})
			}
		}
	}
	return out
}

// Masked returns a copy where only the first n cells of Cells are filled.
func (c Calendar) Masked(n int) Calendar {
	out := Calendar{Years: c.Years, Hours: make([][12]float64, len(c.Hours))}
	for r := range out.Hours {
		for m := range out.Hours[r] {
			out.Hours[r][m] = math.NaN()
		}
	}
	for i, cell := range c.Cells() {
		if i >= n {
			break
		}
		out.Hours[cell.Row][cell.Month-1] = cell.Value
	}
	return out
}

// CumulativeSeries is the running total of hours watched by one profile.
type CumulativeSeries struct {
	Profile string
	Times   []time.Time // Event start times, ascending.
	Hours   []float64   // Running total at each time.
}

// Cumulative builds one CumulativeSeries per profile.
func Cumulative(events []model.ViewingEvent, profiles []string) []CumulativeSeries {
	sorted := slices.Clone(events)
	slices.SortStableFunc(sorted, func(a, b model.ViewingEvent) int {
		return a.StartTime.Compare(b.StartTime)
	})
	out := make([]CumulativeSeries, len(profiles))
	index := make(map[string]int, len(profiles))
	for i, profile := range profiles {
		out[i].Profile = profile
		index[profile] = i
	}
	for _, event := range sorted {
		i, ok := index[event.Profile]
		if !ok {
			continue
		}
		total := event.Duration.Hours()
		if n := len(out[i].Hours); n > 0 {
			total += out[i].Hours[n-1]
		}
		out[i].Times = append(out[i].Times, event.StartTime)
		out[i].Hours = append(out[i].Hours, total)
	}
	return out
}

// Until returns the points up to t, closed by a point at t carrying the last
// total. A profile that has not started yet has no points.
func (s CumulativeSeries) Until(t time.Time) (times []time.Time, hours []float64) {
	for i, at := range s.Times {
		if at.After(t) {
			break
		}
		times = append(times, at)
		hours = append(hours, s.Hours[i])
	}
	if len(hours) > 0 {
		times = append(times, t)
		hours = append(hours, hours[len(hours)-1])
	}
	return times, hours
}

// Span returns the earliest start and the latest end of events.
func Span(events []model.ViewingEvent) (first time.Time, last time.Time) {
	for i, event := range events {
		if i == 0 || event.StartTime.Before(first) {
			first = event.StartTime
		}
		if i == 0 || event.EndTime.After(last) {
			last = event.EndTime
		}
	}
	return first, last
}

// FrameDays lists the day offsets of the cumulative animation frames: from 0
// up to, but excluding, the whole number of days between first and last, in
// steps of step days. At least one frame is returned. When maxFrames is
// positive the step grows until the frame count fits.
func FrameDays(first time.Time, last time.Time, step int, maxFrames int) []int {
	total := int(last.Sub(first).Hours() / 24)
	if step < 1 {
		step = 1
	}
	if maxFrames > 0 {
		for (total+step-1)/step > maxFrames {
			step++
		}
	}
	out := []int{}
	for day := 0; day < total; day += step {
		out = append(out, day)
	}
	if len(out) == 0 {
		out = append(out, 0)
	}
	return out
}
