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
// This file rasterizes plots into frames and encodes them as looping GIF
// animations.
//
// Logic Flow:
//  1. Every frame is a plot drawn on a vgimg canvas of the configured width.
//  2. Frames are mapped to the Plan 9 palette without dithering.
//  3. Frames are encoded with per-frame delays, looping forever.
package charts

import (
	"fmt"
	"image"
	"image/color"
	"image/color/palette"
	imgdraw "image/draw"
	"image/gif"
	"math"
	"os"
	"time"

	"github.com/jaycherian/viewing-insights/internal/core/model"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

const (
	// Screen resolution assumed by vgimg.
	frameDPI = 96
	// Delay bounds, in milliseconds, of the calendar fill animation.
	easedMaxDelay  = 100
	easedMinDelay  = 20
	easedLastDelay = 1000
)

// Animator renders GIF animations.
type Animator struct {
	Renderer *Renderer
	WidthPx  int
	HeightPx int
}

// NewAnimator returns an Animator whose frames are widthPx wide and keep the
// aspect ratio of the renderer figures.
func NewAnimator(renderer *Renderer, widthPx int) *Animator {
	height := int(math.Round(float64(widthPx) * float64(renderer.Height/renderer.Width)))
	return &Animator{Renderer: renderer, WidthPx: widthPx, HeightPx: height}
}

// RenderFrame rasterizes p.
func (a *Animator) RenderFrame(p *plot.Plot) image.Image {
	px := func(n int) vg.Length { return vg.Length(n) * vg.Inch / frameDPI }
	canvas := vgimg.NewWith(vgimg.UseWH(px(a.WidthPx), px(a.HeightPx)), vgimg.UseDPI(frameDPI))
	dc := draw.New(canvas)
	dc.SetColor(color.White)
	dc.Fill(dc.Rectangle.Path())
	p.Draw(dc)
	return canvas.Image()
}

// EasedDelays returns n frame delays, in milliseconds, that shrink
// quadratically from about 120 to 20 and end with a one second pause.
func EasedDelays(n int) []float64 {
	out := make([]float64, n)
	if n == 0 {
		return out
	}
	alpha := easedMaxDelay / float64(n*n)
	for i := range out {
		x := -float64(n)
		if n > 1 {
			x += float64(i) * float64(n) / float64(n-1)
		}
		out[i] = alpha*x*x + easedMinDelay
	}
	out[n-1] = easedLastDelay
	return out
}

// EncodeGIF writes frames as a looping GIF. delaysMs holds one delay per frame.
func EncodeGIF(path string, frames []image.Image, delaysMs []float64) error {
	if len(frames) == 0 {
		return fmt.Errorf("no frames to encode into %s", path)
	}
	if len(delaysMs) != len(frames) {
		return fmt.Errorf("got %d delays for %d frames", len(delaysMs), len(frames))
	}
	anim := &gif.GIF{LoopCount: 0}
	for i, frame := range frames {
		bounds := frame.Bounds()
		paletted := image.NewPaletted(bounds, palette.Plan9)
		imgdraw.Draw(paletted, bounds, frame, bounds.Min, imgdraw.Src)
		anim.Image = append(anim.Image, paletted)
		// GIF delays are in hundredths of a second.
		anim.Delay = append(anim.Delay, max(1, int(math.Round(delaysMs[i]/10))))
	}

	file, err := os.Create(path)
	if err != nil {
		return &model.IOError{Op: "create", Path: path, Err: err}
	}
	if err := gif.EncodeAll(file, anim); err != nil {
		file.Close()
		return &model.IOError{Op: "encode", Path: path, Err: err}
	}
	if err := file.Close(); err != nil {
		return &model.IOError{Op: "close", Path: path, Err: err}
	}
	return nil
}

// CumulativeFrame plots the running totals up to first + day days. Axes are
// fixed to the whole animation so frames line up.
func (a *Animator) CumulativeFrame(series []CumulativeSeries, first time.Time, last time.Time, day int) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = "Total time watched"
	p.X.Label.Text = "Date"
	p.Y.Label.Text = "Time (hours)"
	p.X.Tick.Marker = plot.TimeTicks{Format: "2006-01"}
	p.Legend.Top = true
	p.Legend.Left = true
	p.X.Min, p.X.Max = unix(first), unix(last)
	p.Y.Min = 0
	for _, s := range series {
		if n := len(s.Hours); n > 0 {
			p.Y.Max = math.Max(p.Y.Max, s.Hours[n-1]*1.05)
		}
	}

	cutoff := first.AddDate(0, 0, day)
	colors := a.Renderer.ProfileColors(len(series))
	for i, s := range series {
		times, hours := s.Until(cutoff)
		if len(times) == 0 {
			continue
		}
		xys := make(plotter.XYs, len(times))
		for k := range times {
			xys[k] = plotter.XY{X: unix(times[k]), Y: hours[k]}
		}
		line, err := plotter.NewLine(xys)
		if err != nil {
			return nil, err
		}
		line.LineStyle.Color = colors[i]
		line.LineStyle.Width = vg.Points(1.5)
		head, err := plotter.NewScatter(xys[len(xys)-1:])
		if err != nil {
			return nil, err
		}
		head.GlyphStyle.Color = colors[i]
		head.GlyphStyle.Shape = draw.CircleGlyph{}
		head.GlyphStyle.Radius = vg.Points(3)
		p.Add(line, head)
		p.Legend.Add(s.Profile, line)
	}
	return p, nil
}

// CumulativeTime renders one frame per day offset into a GIF at path.
func (a *Animator) CumulativeTime(series []CumulativeSeries, first time.Time, last time.Time, days []int, delayMs float64, path string) error {
	frames := make([]image.Image, 0, len(days))
	delays := make([]float64, 0, len(days))
	for _, day := range days {
		p, err := a.CumulativeFrame(series, first, last, day)
		if err != nil {
			return err
		}
		frames = append(frames, a.RenderFrame(p))
		delays = append(delays, delayMs)
	}
	return EncodeGIF(path, frames, delays)
}

// CalendarFill renders a GIF revealing the cells of calendar one at a time in
// chronological order, with the color scale of the complete calendar.
func (a *Animator) CalendarFill(calendar Calendar, title string, path string) error {
	cells := calendar.Cells()
	if len(cells) == 0 {
		return fmt.Errorf("calendar for %s has no cells", path)
	}
	lo, hi := calendar.Range()
	frames := make([]image.Image, 0, len(cells))
	for n := 1; n <= len(cells); n++ {
		p, err := a.Renderer.CalendarHeatmap(calendar.Masked(n), lo, hi, title)
		if err != nil {
			return err
		}
		frames = append(frames, a.RenderFrame(p))
	}
	return EncodeGIF(path, frames, EasedDelays(len(frames)))
}
