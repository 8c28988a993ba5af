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

package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/venicegeo/bf-mosaiks/catalog"
	"github.com/venicegeo/bf-mosaiks/model"
	"github.com/venicegeo/bf-mosaiks/partition"
	"github.com/venicegeo/bf-mosaiks/raster"
	"github.com/venicegeo/bf-mosaiks/rcf"
	"github.com/venicegeo/bf-mosaiks/stac"
)

type fakeSearcher struct {
	items []stac.Item
	err   error
}

func (fs fakeSearcher) SearchScenes(ctx context.Context, query catalog.Query) ([]stac.Item, error) {
	if fs.err != nil {
		return nil, fs.err
	}
	var out []stac.Item
	for _, item := range fs.items {
		geometry, _ := item.OrbGeometry()
		if geometry.Bound().Intersects(query.BBox) {
			out = append(out, item)
		}
	}
	return out, nil
}

// sceneItem covers [minLon, minLon+size] x [minLat, minLat+size] and has one
// asset per band name, named <id>_<band>
func sceneItem(id string, minLon, minLat, size float64, bands ...string) stac.Item {
	polygon := orb.Bound{Min: orb.Point{minLon, minLat}, Max: orb.Point{minLon + size, minLat + size}}.ToPolygon()
	raw, _ := json.Marshal(map[string]interface{}{"type": "Polygon", "coordinates": polygon})
	cloud := 1.0
	one, zero := 1.0, 0.0
	item := stac.Item{
		ID:         id,
		Collection: "landsat-c2-l2",
		Geometry:   raw,
		Properties: stac.Properties{Datetime: "2020-06-01T00:00:00Z", CloudCover: &cloud},
		Assets:     map[string]stac.Asset{},
	}
	for _, band := range bands {
		item.Assets[band] = stac.Asset{Href: id + "_" + band, RasterBands: []stac.RasterBand{{Scale: &one, Offset: &zero}}}
	}
	return item
}

// lonLatRaster covers a 10 degree square from (minLon, minLat) at 0.1 degrees
func lonLatRaster(t *testing.T, minLon, minLat float64, seed int) *raster.MemoryDataset {
	grid := raster.Grid{GeoTransform: raster.GeoTransform{minLon, 0.1, 0, minLat + 10, 0, -0.1}, Width: 100, Height: 100}
	data := make([]float64, grid.Width*grid.Height)
	for i := range data {
		data[i] = float64(1 + (i*seed)%13)
	}
	md, err := raster.NewMemoryDataset(grid, data)
	require.Nil(t, err)
	return md
}

var testBands = []string{"red", "green", "blue", "nir08"}

func testSource(t *testing.T) raster.MemorySource {
	source := raster.MemorySource{}
	for i, band := range testBands {
		source["A_"+band] = lonLatRaster(t, 0, 0, i+1)
		source["B_"+band] = lonLatRaster(t, 30, 30, i+5)
	}
	return source
}

func testExtractor(t *testing.T, searcher catalog.Searcher, source raster.Source) *Extractor {
	bank, err := rcf.New(rcf.Config{NumFeatures: 8, KernelSize: 3, NumChannels: 4, Bias: -1, Seed: 7})
	require.Nil(t, err)
	return &Extractor{
		Matcher:      &catalog.Matcher{Searcher: searcher, Concurrency: 2},
		Source:       source,
		Model:        bank,
		Bands:        testBands,
		BufferMeters: 0.3,
		Partitions:   partition.Options{MaxPoints: 2, Pad: 0.01},
		Concurrency:  2,
	}
}

func TestRun(t *testing.T) {
	// Mock
	searcher := fakeSearcher{items: []stac.Item{
		sceneItem("A", 0, 0, 20, testBands...),
		sceneItem("B", 30, 30, 10, testBands...),
	}}
	source := testSource(t)
	extractor := testExtractor(t, searcher, source)
	var progress []int
	extractor.Progress = func(done, total int) {
		assert.Equal(t, 4, total)
		progress = append(progress, done)
	}
	points := []model.Point{
		{ID: "covered", Lon: 5, Lat: 5, Year: 2020},
		{ID: "unmatched", Lon: 50, Lat: 50, Year: 2020},
		{ID: "off-raster", Lon: 15, Lat: 5, Year: 2020},
		{ID: "other-scene", Lon: 35, Lat: 35, Year: 2020},
	}

	// Tested code
	results, stats, err := extractor.Run(context.Background(), points)

	// Asserts
	require.Nil(t, err)
	require.Len(t, results, 4)
	for i, result := range results {
		assert.Equal(t, points[i], result.Point)
	}
	assert.Equal(t, "A", results[0].SceneID)
	assert.Len(t, results[0].Features, 8)
	assert.Equal(t, "", results[1].SceneID)
	assert.Nil(t, results[1].Features)
	assert.Equal(t, "A", results[2].SceneID)
	assert.Nil(t, results[2].Features)
	assert.Equal(t, "B", results[3].SceneID)
	assert.Len(t, results[3].Features, 8)
	assert.Equal(t, Stats{Points: 4, Unmatched: 1, Skipped: 1, Extracted: 2, Scenes: 2}, stats)
	assert.Equal(t, []int{1, 2, 3, 4}, progress)

	var bands []raster.Band
	for _, band := range testBands {
		bands = append(bands, raster.Band{Dataset: source["A_"+band], Scaling: raster.Scaling{Scale: 1}})
	}
	patch, err := raster.ReadPatch(bands, 5, 5, 0.3)
	require.Nil(t, err)
	expected, err := extractor.Model.Forward(patch)
	require.Nil(t, err)
	assert.InDeltaSlice(t, expected, results[0].Features, 1e-9)
}

func TestRun_MissingAssetSkipsScene(t *testing.T) {
	// Mock
	searcher := fakeSearcher{items: []stac.Item{sceneItem("A", 0, 0, 10, "red")}}
	extractor := testExtractor(t, searcher, testSource(t))

	// Tested code
	results, stats, err := extractor.Run(context.Background(), []model.Point{{ID: "p", Lon: 5, Lat: 5, Year: 2020}})

	// Asserts
	require.Nil(t, err)
	assert.Equal(t, "A", results[0].SceneID)
	assert.Nil(t, results[0].Features)
	assert.Equal(t, 1, stats.Skipped)
}

func TestRun_Errors(t *testing.T) {
	// Mock
	points := []model.Point{{ID: "p", Lon: 5, Lat: 5, Year: 2020}}
	failingSearch := testExtractor(t, fakeSearcher{err: errors.New("catalog down")}, testSource(t))
	missingRaster := testExtractor(t, fakeSearcher{items: []stac.Item{sceneItem("C", 0, 0, 10, testBands...)}}, testSource(t))
	wrongBands := testExtractor(t, fakeSearcher{}, testSource(t))
	wrongBands.Bands = []string{"red"}

	// Tested code
	_, _, searchErr := failingSearch.Run(context.Background(), points)
	_, _, openErr := missingRaster.Run(context.Background(), points)
	_, _, bandsErr := wrongBands.Run(context.Background(), points)
	_, _, invalidErr := missingRaster.Run(context.Background(), []model.Point{{ID: ""}})

	// Asserts
	assert.NotNil(t, searchErr)
	assert.NotNil(t, openErr)
	assert.NotNil(t, bandsErr)
	assert.NotNil(t, invalidErr)
}

func TestIsSkip(t *testing.T) {
	assert.True(t, IsSkip(catalog.ErrNoScene))
	assert.True(t, IsSkip(catalog.Assignment{Point: model.Point{ID: "p"}}.Err()))
	assert.True(t, IsSkip(raster.ErrNoOverlap))
	assert.True(t, IsSkip(raster.ErrEmptyPatch))
	assert.True(t, IsSkip(rcf.ErrPatchTooSmall))
	assert.False(t, IsSkip(errors.New("network")))
}
