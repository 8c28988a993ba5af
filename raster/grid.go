// Copyright 2018, RadiantBlue Technologies, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//   http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package raster

import (
	"errors"
	"math"
)

// ErrNoOverlap is returned when a requested area lies outside the raster
var ErrNoOverlap = errors.New("window does not overlap the raster")

// GeoTransform is a GDAL-style affine transform:
// x = gt[0] + col*gt[1] + row*gt[2], y = gt[3] + col*gt[4] + row*gt[5]
type GeoTransform [6]float64

// Grid places a raster of Width x Height pixels in its CRS
type Grid struct {
	GeoTransform GeoTransform
	Width        int
	Height       int
}

// Envelope is an axis-aligned rectangle in CRS units
type Envelope struct {
	MinX, MinY, MaxX, MaxY float64
}

// Buffer returns the envelope of radius around (x, y)
func Buffer(x, y, radius float64) Envelope {
	return Envelope{MinX: x - radius, MinY: y - radius, MaxX: x + radius, MaxY: y + radius}
}

// Extend grows e to include (x, y)
func (e Envelope) Extend(x, y float64) Envelope {
	return Envelope{
		MinX: math.Min(e.MinX, x), MinY: math.Min(e.MinY, y),
		MaxX: math.Max(e.MaxX, x), MaxY: math.Max(e.MaxY, y),
	}
}

// Window is a pixel rectangle
type Window struct {
	Col    int
	Row    int
	Width  int
	Height int
}

// Size is the number of pixels in the window
func (w Window) Size() int {
	return w.Width * w.Height
}

// PixelToWorld maps pixel coordinates to CRS coordinates
func (g Grid) PixelToWorld(col, row float64) (float64, float64) {
	gt := g.GeoTransform
	return gt[0] + col*gt[1] + row*gt[2], gt[3] + col*gt[4] + row*gt[5]
}

// WorldToPixel maps CRS coordinates to fractional pixel coordinates
func (g Grid) WorldToPixel(x, y float64) (float64, float64, error) {
	gt := g.GeoTransform
	det := gt[1]*gt[5] - gt[2]*gt[4]
	if det == 0 {
		return 0, 0, errors.New("geotransform is not invertible")
	}
	dx, dy := x-gt[0], y-gt[3]
	col := (dx*gt[5] - dy*gt[2]) / det
	row := (dy*gt[1] - dx*gt[4]) / det
	return col, row, nil
}

// WindowFor returns the pixels covering env, clipped to the raster. Offsets
// round down and stops round up so the window never undercovers.
func (g Grid) WindowFor(env Envelope) (Window, error) {
	corners := [4][2]float64{
		{env.MinX, env.MinY}, {env.MinX, env.MaxY}, {env.MaxX, env.MinY}, {env.MaxX, env.MaxY},
	}
	minCol, minRow := math.Inf(1), math.Inf(1)
	maxCol, maxRow := math.Inf(-1), math.Inf(-1)
	for _, corner := range corners {
		col, row, err := g.WorldToPixel(corner[0], corner[1])
		if err != nil {
			return Window{}, err
		}
		minCol, maxCol = math.Min(minCol, col), math.Max(maxCol, col)
		minRow, maxRow = math.Min(minRow, row), math.Max(maxRow, row)
	}

	colOff := clamp(int(math.Floor(minCol)), 0, g.Width)
	rowOff := clamp(int(math.Floor(minRow)), 0, g.Height)
	colStop := clamp(int(math.Ceil(maxCol)), 0, g.Width)
	rowStop := clamp(int(math.Ceil(maxRow)), 0, g.Height)
	if colStop <= colOff || rowStop <= rowOff {
		return Window{}, ErrNoOverlap
	}
	return Window{Col: colOff, Row: rowOff, Width: colStop - colOff, Height: rowStop - rowOff}, nil
}

// Sub returns the grid of a window of g
func (g Grid) Sub(w Window) Grid {
	x, y := g.PixelToWorld(float64(w.Col), float64(w.Row))
	gt := g.GeoTransform
	gt[0], gt[3] = x, y
	return Grid{GeoTransform: gt, Width: w.Width, Height: w.Height}
}

func clamp(v, low, high int) int {
	if v < low {
		return low
	}
	if v > high {
		return high
	}
	return v
}
