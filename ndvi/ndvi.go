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

package ndvi

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/paulmach/orb"
	"github.com/venicegeo/bf-mosaiks/model"
	"github.com/venicegeo/bf-mosaiks/raster"
	"github.com/venicegeo/bf-mosaiks/stac"
)

// Compute returns (nir - red) / (nir + red) per pixel. Pixels that are masked
// out or have a zero denominator are NaN. A nil valid slice masks nothing.
func Compute(red, nir []float64, valid []bool) ([]float64, error) {
	if len(red) != len(nir) {
		return nil, fmt.Errorf("ndvi: red has %d pixels, nir has %d", len(red), len(nir))
	}
	if valid != nil && len(valid) != len(red) {
		return nil, fmt.Errorf("ndvi: mask has %d pixels, bands have %d", len(valid), len(red))
	}
	out := make([]float64, len(red))
	for i := range red {
		denominator := nir[i] + red[i]
		if (valid != nil && !valid[i]) || denominator == 0 {
			out[i] = math.NaN()
			continue
		}
		out[i] = (nir[i] - red[i]) / denominator
	}
	return out, nil
}

// Summarize computes statistics over the non-NaN values
func Summarize(values []float64) model.NDVIStats {
	stats := model.NDVIStats{TotalPixels: len(values), Min: math.NaN(), Max: math.NaN(), Mean: math.NaN()}
	sum := 0.0
	for _, v := range values {
		if math.IsNaN(v) {
			continue
		}
		if stats.ValidPixels == 0 || v < stats.Min {
			stats.Min = v
		}
		if stats.ValidPixels == 0 || v > stats.Max {
			stats.Max = v
		}
		sum += v
		stats.ValidPixels++
	}
	if stats.ValidPixels > 0 {
		stats.Mean = sum / float64(stats.ValidPixels)
	}
	return stats
}

// Result is an NDVI raster over the requested area
type Result struct {
	Grid       raster.Grid
	Projection string
	Values     []float64
	Stats      model.NDVIStats
}

// SceneNDVI reads the red and nir windows of item covering a lon/lat bound
// and computes NDVI over their common extent
func SceneNDVI(ctx context.Context, source raster.Source, item *stac.Item, bound orb.Bound) (*Result, error) {
	redAsset, redOK := item.BandAsset("red")
	nirAsset, nirOK := item.BandAsset("nir08")
	if !redOK || !nirOK {
		return nil, errors.New("Item " + item.ID + " lacks a red or nir08 asset")
	}

	redDS, err := source.Open(ctx, redAsset.Href)
	if err != nil {
		return nil, err
	}
	defer redDS.Close()
	nirDS, err := source.Open(ctx, nirAsset.Href)
	if err != nil {
		return nil, err
	}
	defer nirDS.Close()

	env, err := raster.ProjectBound(redDS, bound)
	if err != nil {
		return nil, err
	}
	red, err := raster.ReadWindow(raster.Band{Dataset: redDS, Scaling: item.BandScaling("red")}, env)
	if err != nil {
		return nil, err
	}
	nir, err := raster.ReadWindow(raster.Band{Dataset: nirDS, Scaling: item.BandScaling("nir08")}, env)
	if err != nil {
		return nil, err
	}

	height := minInt(red.Grid.Height, nir.Grid.Height)
	width := minInt(red.Grid.Width, nir.Grid.Width)
	redValues, redValid := crop(red, height, width)
	nirValues, nirValid := crop(nir, height, width)
	valid := make([]bool, len(redValid))
	for i := range valid {
		valid[i] = redValid[i] && nirValid[i]
	}
	values, err := Compute(redValues, nirValues, valid)
	if err != nil {
		return nil, err
	}

	grid := red.Grid
	grid.Width, grid.Height = width, height
	return &Result{Grid: grid, Projection: redDS.Projection(), Values: values, Stats: Summarize(values)}, nil
}

func crop(window *raster.BandWindow, height, width int) ([]float64, []bool) {
	values := make([]float64, 0, height*width)
	valid := make([]bool, 0, height*width)
	for y := 0; y < height; y++ {
		start := y * window.Grid.Width
		values = append(values, window.Values[start:start+width]...)
		valid = append(valid, window.Valid[start:start+width]...)
	}
	return values, valid
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
