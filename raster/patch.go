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
	"fmt"
	"math"

	"github.com/paulmach/orb"
)

// ErrEmptyPatch is returned when every pixel of a patch is nodata
var ErrEmptyPatch = errors.New("patch contains only nodata")

// Patch is a channels x height x width stack of band windows
type Patch struct {
	Channels int
	Height   int
	Width    int
	Data     []float64
}

// NewPatch allocates a zeroed patch
func NewPatch(channels, height, width int) *Patch {
	return &Patch{Channels: channels, Height: height, Width: width, Data: make([]float64, channels*height*width)}
}

// At returns the value of channel c at row y, column x
func (p *Patch) At(c, y, x int) float64 {
	return p.Data[(c*p.Height+y)*p.Width+x]
}

// Set writes the value of channel c at row y, column x
func (p *Patch) Set(c, y, x int, v float64) {
	p.Data[(c*p.Height+y)*p.Width+x] = v
}

// Band is a dataset with the scaling for its values
type Band struct {
	Dataset Dataset
	Scaling Scaling
}

// nodata returns the nodata value from the scaling, else from the dataset
func (b Band) nodata() (float64, bool) {
	if b.Scaling.NoData != nil {
		return *b.Scaling.NoData, true
	}
	return b.Dataset.NoData()
}

// BandWindow is a scaled read of one band with its validity mask
type BandWindow struct {
	Grid   Grid
	Values []float64
	Valid  []bool
}

// ReadPatch reads a square of bufferMeters around lon/lat from every band,
// crops the windows to a common size, scales them and zeroes nodata.
func ReadPatch(bands []Band, lon, lat, bufferMeters float64) (*Patch, error) {
	if len(bands) == 0 {
		return nil, errors.New("raster: no bands to read")
	}

	windows := make([]*BandWindow, len(bands))
	height, width := math.MaxInt32, math.MaxInt32
	for i, band := range bands {
		x, y, err := band.Dataset.Project(lon, lat)
		if err != nil {
			return nil, fmt.Errorf("raster: project %v,%v: %w", lon, lat, err)
		}
		window, err := ReadWindow(band, Buffer(x, y, bufferMeters))
		if err != nil {
			return nil, err
		}
		windows[i] = window
		if window.Grid.Height < height {
			height = window.Grid.Height
		}
		if window.Grid.Width < width {
			width = window.Grid.Width
		}
	}

	patch := NewPatch(len(bands), height, width)
	valid := 0
	for c, window := range windows {
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				i := y*window.Grid.Width + x
				if window.Valid[i] {
					patch.Set(c, y, x, window.Values[i])
					valid++
				}
			}
		}
	}
	if valid == 0 {
		return nil, ErrEmptyPatch
	}
	return patch, nil
}

// ReadWindow reads the pixels of band covering env, scaled, with nodata and
// NaN pixels flagged invalid and set to 0
func ReadWindow(band Band, env Envelope) (*BandWindow, error) {
	grid := band.Dataset.Grid()
	window, err := grid.WindowFor(env)
	if err != nil {
		return nil, err
	}
	raw, err := band.Dataset.Read(window)
	if err != nil {
		return nil, fmt.Errorf("raster: read %+v: %w", window, err)
	}

	noData, hasNoData := band.nodata()
	out := &BandWindow{Grid: grid.Sub(window), Values: make([]float64, len(raw)), Valid: make([]bool, len(raw))}
	for i, v := range raw {
		if math.IsNaN(v) || (hasNoData && v == noData) {
			continue
		}
		out.Values[i] = band.Scaling.Apply(v)
		out.Valid[i] = true
	}
	return out, nil
}

// ProjectBound converts a lon/lat bound into an envelope in the dataset CRS
// covering all four reprojected corners
func ProjectBound(ds Dataset, bound orb.Bound) (Envelope, error) {
	corners := []orb.Point{bound.Min, {bound.Min[0], bound.Max[1]}, {bound.Max[0], bound.Min[1]}, bound.Max}
	var env Envelope
	for i, corner := range corners {
		x, y, err := ds.Project(corner[0], corner[1])
		if err != nil {
			return Envelope{}, fmt.Errorf("raster: project %v: %w", corner, err)
		}
		if i == 0 {
			env = Envelope{MinX: x, MinY: y, MaxX: x, MaxY: y}
		} else {
			env = env.Extend(x, y)
		}
	}
	return env, nil
}
