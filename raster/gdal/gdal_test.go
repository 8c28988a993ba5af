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

package gdal

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/airbusgeo/godal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/venicegeo/bf-mosaiks/raster"
)

func utm32WKT(t *testing.T) string {
	Register()
	sr, err := godal.NewSpatialRefFromEPSG(32632)
	require.Nil(t, err)
	defer sr.Close()
	wkt, err := sr.WKT()
	require.Nil(t, err)
	return wkt
}

func TestWriteGeoTIFF_RoundTrip(t *testing.T) {
	// Mock
	path := filepath.Join(t.TempDir(), "ndvi.tif")
	grid := raster.Grid{GeoTransform: raster.GeoTransform{499940, 30, 0, 60, 0, -30}, Width: 4, Height: 4}
	data := make([]float64, 16)
	for i := range data {
		data[i] = float64(i)
	}
	data[0] = -1

	// Tested code
	writeErr := WriteGeoTIFF(path, grid, utm32WKT(t), data, -1)
	ds, openErr := NewSource().Open(context.Background(), path)

	// Asserts
	require.Nil(t, writeErr)
	require.Nil(t, openErr)
	defer ds.Close()
	assert.Equal(t, grid, ds.Grid())
	nodata, ok := ds.NoData()
	assert.True(t, ok)
	assert.Equal(t, -1.0, nodata)
	assert.Contains(t, ds.Projection(), "UTM")

	x, y, err := ds.Project(9, 0)
	require.Nil(t, err)
	assert.InDelta(t, 500000, x, 1e-3)
	assert.InDelta(t, 0, y, 1e-3)

	window, err := ds.Grid().WindowFor(raster.Buffer(x, y, 15))
	require.Nil(t, err)
	assert.Equal(t, raster.Window{Col: 1, Row: 1, Width: 2, Height: 2}, window)
	values, err := ds.Read(window)
	require.Nil(t, err)
	assert.Equal(t, []float64{5, 6, 9, 10}, values)
}

func TestWriteGeoTIFF_SizeMismatch(t *testing.T) {
	// Mock
	path := filepath.Join(t.TempDir(), "bad.tif")
	grid := raster.Grid{GeoTransform: raster.GeoTransform{0, 1, 0, 0, 0, -1}, Width: 2, Height: 2}

	// Tested code
	err := WriteGeoTIFF(path, grid, "", []float64{1}, 0)

	// Asserts
	assert.NotNil(t, err)
}

func TestOpen_Missing(t *testing.T) {
	// Tested code
	_, err := NewSource().Open(context.Background(), filepath.Join(t.TempDir(), "missing.tif"))

	// Asserts
	assert.NotNil(t, err)
}

func TestVSIPath(t *testing.T) {
	assert.Equal(t, "/vsicurl/https://example.localdomain/a.tif", VSIPath("https://example.localdomain/a.tif"))
	assert.Equal(t, "/vsis3/bucket/a.tif", VSIPath("s3://bucket/a.tif"))
	assert.Equal(t, "/vsigs/bucket/a.tif", VSIPath("gs://bucket/a.tif"))
	assert.Equal(t, "/tmp/a.tif", VSIPath("/tmp/a.tif"))
}
