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

// Package raster reads small georeferenced windows out of single-band
// rasters and stacks them into patches.
package raster

import (
	"context"
	"fmt"
)

// Source opens rasters by href
type Source interface {
	Open(ctx context.Context, href string) (Dataset, error)
}

// Dataset is one open single-band raster
type Dataset interface {
	Grid() Grid
	// Project converts WGS84 lon/lat into the dataset CRS
	Project(lon, lat float64) (float64, float64, error)
	// Read returns the window's pixels in row-major order
	Read(w Window) ([]float64, error)
	NoData() (float64, bool)
	// Projection is the dataset CRS as WKT
	Projection() string
	Close() error
}

// Scaling converts stored digital numbers to physical values
type Scaling struct {
	Scale  float64
	Offset float64
	NoData *float64
}

// Identity leaves values unchanged and declares no nodata
var Identity = Scaling{Scale: 1}

// Apply scales a single raw value
func (s Scaling) Apply(raw float64) float64 {
	return raw*s.Scale + s.Offset
}

// IsNoData reports whether raw is the declared nodata value
func (s Scaling) IsNoData(raw float64) bool {
	return s.NoData != nil && raw == *s.NoData
}

// MemoryDataset is a Dataset over an in-memory buffer. Project defaults to
// the identity, i.e. the grid is in lon/lat.
type MemoryDataset struct {
	GridValue   Grid
	Data        []float64
	NoDataValue *float64
	WKT         string
	ProjectFunc func(lon, lat float64) (float64, float64, error)
	closed      bool
}

// NewMemoryDataset checks that data fills grid
func NewMemoryDataset(grid Grid, data []float64) (*MemoryDataset, error) {
	if len(data) != grid.Width*grid.Height {
		return nil, fmt.Errorf("raster: %d values do not fill a %dx%d grid", len(data), grid.Width, grid.Height)
	}
	return &MemoryDataset{GridValue: grid, Data: data}, nil
}

// Grid returns the dataset grid
func (md *MemoryDataset) Grid() Grid {
	return md.GridValue
}

// Project converts lon/lat to the dataset CRS
func (md *MemoryDataset) Project(lon, lat float64) (float64, float64, error) {
	if md.ProjectFunc == nil {
		return lon, lat, nil
	}
	return md.ProjectFunc(lon, lat)
}

// Read copies a window out of the buffer
func (md *MemoryDataset) Read(w Window) ([]float64, error) {
	if md.closed {
		return nil, fmt.Errorf("raster: read from closed dataset")
	}
	g := md.GridValue
	if w.Col < 0 || w.Row < 0 || w.Width <= 0 || w.Height <= 0 || w.Col+w.Width > g.Width || w.Row+w.Height > g.Height {
		return nil, fmt.Errorf("raster: window %+v outside %dx%d grid", w, g.Width, g.Height)
	}
	out := make([]float64, 0, w.Size())
	for row := w.Row; row < w.Row+w.Height; row++ {
		start := row*g.Width + w.Col
		out = append(out, md.Data[start:start+w.Width]...)
	}
	return out, nil
}

// NoData returns the declared nodata value
func (md *MemoryDataset) NoData() (float64, bool) {
	if md.NoDataValue == nil {
		return 0, false
	}
	return *md.NoDataValue, true
}

// Projection returns the CRS WKT
func (md *MemoryDataset) Projection() string {
	return md.WKT
}

// Close marks the dataset closed
func (md *MemoryDataset) Close() error {
	md.closed = true
	return nil
}

// MemorySource serves MemoryDatasets by href
type MemorySource map[string]*MemoryDataset

// Open returns the dataset registered under href
func (ms MemorySource) Open(ctx context.Context, href string) (Dataset, error) {
	md, ok := ms[href]
	if !ok {
		return nil, fmt.Errorf("raster: no dataset at %s", href)
	}
	copied := *md
	return &copied, nil
}
