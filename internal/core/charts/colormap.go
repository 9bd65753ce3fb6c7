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
// presentation stage. Figures are drawn with gonum/plot and saved as PDF;
// animations are rasterized frames encoded as GIF.
package charts

import (
	"fmt"
	"image/color"
	"math"
	"strconv"
	"strings"
)

// ColormapTones is the number of tones a Colormap palette is resampled to.
const ColormapTones = 100

// Colormap interpolates linearly between color stops.
type Colormap struct {
	stops []color.RGBA
}

// ParseHexColor parses "#rrggbb" or "#rgb".
func ParseHexColor(in string) (color.RGBA, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(in), "#")
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) != 6 {
		return color.RGBA{}, fmt.Errorf("invalid color %q", in)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid color %q: %w", in, err)
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}, nil
}

// NewColormap builds a Colormap from at least two hex colors.
func NewColormap(hexColors []string) (Colormap, error) {
	if len(hexColors) < 2 {
		return Colormap{}, fmt.Errorf("a colormap needs at least two colors, got %d", len(hexColors))
	}
	out := Colormap{stops: make([]color.RGBA, 0, len(hexColors))}
	for _, hex := range hexColors {
		c, err := ParseHexColor(hex)
		if err != nil {
			return Colormap{}, err
		}
		out.stops = append(out.stops, c)
	}
	return out, nil
}

// At returns the color at t, clamped to [0, 1].
func (m Colormap) At(t float64) color.RGBA {
	if math.IsNaN(t) || t <= 0 {
		return m.stops[0]
	}
	if t >= 1 {
		return m.stops[len(m.stops)-1]
	}
	pos := t * float64(len(m.stops)-1)
	i := int(pos)
	frac := pos - float64(i)
	a, b := m.stops[i], m.stops[i+1]
	lerp := func(x, y uint8) uint8 {
		return uint8(math.Round(float64(x) + (float64(y)-float64(x))*frac))
	}
	return color.RGBA{R: lerp(a.R, b.R), G: lerp(a.G, b.G), B: lerp(a.B, b.B), A: 0xff}
}

// Sample returns n evenly spaced colors, first stop to last stop.
func (m Colormap) Sample(n int) []color.Color {
	out := make([]color.Color, n)
	for i := range out {
		t := 0.0
		if n > 1 {
			t = float64(i) / float64(n-1)
		}
		out[i] = m.At(t)
	}
	return out
}

// Colors implements palette.Palette with ColormapTones tones.
func (m Colormap) Colors() []color.Color {
	return m.Sample(ColormapTones)
}
