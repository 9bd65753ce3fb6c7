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

// Package charts renders the figures, animations and merged report of the
// presentation stage.
//
// This file draws the static figures:
//   - Stacked area charts of the hours, and proportion of hours, per profile.
//   - Series timelines: start date against hour of day, coloured by streak.
//   - Calendar heatmaps of the hours watched per year and month.
package charts

import (
	"fmt"
	"image/color"
	"math"
	"strconv"
	"time"

	"github.com/jaycherian/viewing-insights/internal/core/model"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/text"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

var (
	gridColor       = color.Gray{Y: 200}
	timelineBgColor = color.RGBA{R: 0xdc, G: 0xdc, B: 0xdc, A: 0xff}
	hourTicks       = []float64{0, 4, 8, 12, 16, 20, 24}
)

// Renderer draws figures with a fixed size and colormap.
type Renderer struct {
	Colormap Colormap
	Width    vg.Length
	Height   vg.Length
}

// NewRenderer returns a Renderer for figures of the given size.
func NewRenderer(colormap Colormap, widthCm float64, heightCm float64) *Renderer {
	return &Renderer{
		Colormap: colormap,
		Width:    vg.Length(widthCm) * vg.Centimeter,
		Height:   vg.Length(heightCm) * vg.Centimeter,
	}
}

func unix(t time.Time) float64 {
	return float64(t.Unix())
}

func dashedGrid() *plotter.Grid {
	grid := plotter.NewGrid()
	grid.Vertical.Color = gridColor
	grid.Vertical.Dashes = []vg.Length{vg.Points(3), vg.Points(3)}
	grid.Horizontal.Color = gridColor
	grid.Horizontal.Dashes = []vg.Length{vg.Points(3), vg.Points(3)}
	return grid
}

// ProfileColors assigns one colormap color to each of n profiles.
func (r *Renderer) ProfileColors(n int) []color.Color {
	return r.Colormap.Sample(n)
}

// StackedArea builds a stacked area chart with one layer per profile.
// values is indexed [profile][bin].
func (r *Renderer) StackedArea(bins ProfileBins, values [][]float64, title string, yLabel string) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Date"
	p.Y.Label.Text = yLabel
	p.X.Tick.Marker = plot.TimeTicks{Format: "2006-01"}
	p.Legend.Left = false
	p.Legend.Top = true
	p.Add(dashedGrid())

	colors := r.ProfileColors(len(bins.Profiles))
	lower := make([]float64, len(bins.Starts))
	for i, profile := range bins.Profiles {
		upper := make([]float64, len(bins.Starts))
		xys := make(plotter.XYs, 0, 2*len(bins.Starts))
		for b, start := range bins.Starts {
			upper[b] = lower[b] + values[i][b]
			xys = append(xys, plotter.XY{X: unix(start), Y: upper[b]})
		}
		for b := len(bins.Starts) - 1; b >= 0; b-- {
			xys = append(xys, plotter.XY{X: unix(bins.Starts[b]), Y: lower[b]})
		}
		poly, err := plotter.NewPolygon(xys)
		if err != nil {
			return nil, fmt.Errorf("failed to build layer %s: %w", profile, err)
		}
		poly.Color = colors[i]
		poly.LineStyle.Width = vg.Points(0.1)
		p.Add(poly)
		p.Legend.Add(profile, poly)
		lower = upper
	}
	p.Y.Min = 0
	return p, nil
}

// ProfileDuration draws the hours watched per profile and bin.
func (r *Renderer) ProfileDuration(bins ProfileBins, path string) error {
	p, err := r.StackedArea(bins, bins.Hours, "Hours watched per profile", "Duration (hours)")
	if err != nil {
		return err
	}
	return r.save(p, path)
}

// ProfileProportion draws the share of each profile in every bin.
func (r *Renderer) ProfileProportion(bins ProfileBins, path string) error {
	p, err := r.StackedArea(bins, bins.Proportions(), "Share of time watched per profile", "Proportion")
	if err != nil {
		return err
	}
	p.Y.Max = 1
	return r.save(p, path)
}

// SeriesTimeline draws the start date against the start hour of every
// episode of a series. Points are coloured by viewing streak; a streak ends
// when two consecutive days are more than gapDays apart.
func (r *Renderer) SeriesTimeline(series model.SeriesSummary, gapDays float64) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = series.BaseTitle
	p.X.Label.Text = "Date"
	p.Y.Label.Text = "Hour of day"
	p.X.Tick.Marker = plot.TimeTicks{Format: "2006-01-02"}
	p.BackgroundColor = timelineBgColor
	p.Y.Min, p.Y.Max = -0.5, 24.5
	ticks := make([]plot.Tick, 0, len(hourTicks))
	for _, v := range hourTicks {
		ticks = append(ticks, plot.Tick{Value: v, Label: strconv.Itoa(int(v))})
	}
	p.Y.Tick.Marker = plot.ConstantTicks(ticks)
	p.Add(dashedGrid())

	n := min(len(series.StartTimes), len(series.StartTimeHours))
	xys := make(plotter.XYs, n)
	for i := 0; i < n; i++ {
		xys[i] = plotter.XY{X: unix(series.StartTimes[i]), Y: series.StartTimeHours[i]}
	}
	if n == 0 {
		return p, nil
	}

	labels := ClusterByGap(DayOffsets(series.StartTimes[:n]), gapDays)
	streaks := 0
	for _, label := range labels {
		streaks = max(streaks, label+1)
	}
	colors := r.Colormap.Sample(streaks)

	line, err := plotter.NewLine(xys)
	if err != nil {
		return nil, err
	}
	line.LineStyle.Color = color.RGBA{A: 0x80}
	line.LineStyle.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}
	p.Add(line)

	scatter, err := plotter.NewScatter(xys)
	if err != nil {
		return nil, err
	}
	scatter.GlyphStyleFunc = func(i int) draw.GlyphStyle {
		return draw.GlyphStyle{Color: colors[labels[i]], Radius: vg.Points(3), Shape: draw.CircleGlyph{}}
	}
	p.Add(scatter)
	return p, nil
}

// SaveSeriesTimeline draws SeriesTimeline into path.
func (r *Renderer) SaveSeriesTimeline(series model.SeriesSummary, gapDays float64, path string) error {
	p, err := r.SeriesTimeline(series, gapDays)
	if err != nil {
		return err
	}
	return r.save(p, path)
}

// calendarGrid adapts a Calendar to plotter.GridXYZ: columns are months and
// rows are years.
type calendarGrid struct {
	calendar Calendar
}

func (g calendarGrid) Dims() (c, r int)   { return 12, len(g.calendar.Years) }
func (g calendarGrid) Z(c, r int) float64 { return g.calendar.Hours[r][c] }
func (g calendarGrid) X(c int) float64    { return float64(c + 1) }
func (g calendarGrid) Y(r int) float64    { return float64(g.calendar.Years[r]) }

// CalendarHeatmap draws calendar with a color scale fixed to [lo, hi], so
// every frame of an animation shares the same scale. Filled cells are
// annotated with their value.
func (r *Renderer) CalendarHeatmap(calendar Calendar, lo float64, hi float64, title string) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Month"
	p.Y.Label.Text = "Year"
	if len(calendar.Years) == 0 {
		return p, nil
	}

	monthTicks := make([]plot.Tick, 12)
	for m := range monthTicks {
		monthTicks[m] = plot.Tick{Value: float64(m + 1), Label: strconv.Itoa(m + 1)}
	}
	p.X.Tick.Marker = plot.ConstantTicks(monthTicks)
	yearTicks := make([]plot.Tick, len(calendar.Years))
	for i, year := range calendar.Years {
		yearTicks[i] = plot.Tick{Value: float64(year), Label: strconv.Itoa(year)}
	}
	p.Y.Tick.Marker = plot.ConstantTicks(yearTicks)

	heat := plotter.NewHeatMap(calendarGrid{calendar: calendar}, r.Colormap)
	if math.IsInf(lo, 0) || math.IsInf(hi, 0) {
		lo, hi = 0, 1
	}
	if hi <= lo {
		hi = lo + 1
	}
	heat.Min, heat.Max = lo, hi
	heat.NaN = color.Transparent
	p.Add(heat)

	var xys plotter.XYs
	var values []string
	for _, cell := range calendar.Cells() {
		xys = append(xys, plotter.XY{X: float64(cell.Month), Y: float64(calendar.Years[cell.Row])})
		values = append(values, strconv.FormatFloat(cell.Value, 'f', 1, 64))
	}
	if len(xys) > 0 {
		labels, err := plotter.NewLabels(plotter.XYLabels{XYs: xys, Labels: values})
		if err != nil {
			return nil, err
		}
		for i := range labels.TextStyle {
			labels.TextStyle[i].Color = color.White
			labels.TextStyle[i].XAlign = text.XCenter
			labels.TextStyle[i].YAlign = text.YCenter
		}
		p.Add(labels)
	}
	return p, nil
}

// SaveCalendarHeatmap draws CalendarHeatmap, scaled to its own range, into path.
func (r *Renderer) SaveCalendarHeatmap(calendar Calendar, title string, path string) error {
	lo, hi := calendar.Range()
	p, err := r.CalendarHeatmap(calendar, lo, hi, title)
	if err != nil {
		return err
	}
	return r.save(p, path)
}

func (r *Renderer) save(p *plot.Plot, path string) error {
	if err := p.Save(r.Width, r.Height, path); err != nil {
		return &model.IOError{Op: "save", Path: path, Err: err}
	}
	return nil
}
