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

// Package gdal reads and writes rasters through GDAL. Remote hrefs are read
// through /vsicurl/ so only the requested windows are fetched.
package gdal

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/airbusgeo/godal"
	"github.com/venicegeo/bf-mosaiks/raster"
	"github.com/venicegeo/bf-mosaiks/util"
)

// lonLatProj4 keeps lon/lat axis order regardless of the GDAL version
const lonLatProj4 = "+proj=longlat +datum=WGS84 +no_defs"

var registerOnce sync.Once

// Register makes all GDAL drivers available. It is safe to call repeatedly.
func Register() {
	registerOnce.Do(godal.RegisterAll)
}

func quietLogger() godal.OpenOption {
	return godal.ErrLogger(func(ec godal.ErrorCategory, code int, msg string) error {
		if ec == godal.CE_Warning {
			return nil
		}
		return errors.New(msg)
	})
}

// Source opens rasters with GDAL
type Source struct {
	util.BasicLogContext
}

// NewSource registers the drivers and returns a source
func NewSource() *Source {
	Register()
	return &Source{}
}

// VSIPath maps an href to the path GDAL should open
func VSIPath(href string) string {
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return "/vsicurl/" + href
	}
	if strings.HasPrefix(href, "s3://") {
		return "/vsis3/" + strings.TrimPrefix(href, "s3://")
	}
	if strings.HasPrefix(href, "gs://") {
		return "/vsigs/" + strings.TrimPrefix(href, "gs://")
	}
	return href
}

// Open opens the first band of the raster at href
func (s *Source) Open(ctx context.Context, href string) (raster.Dataset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path := VSIPath(href)
	util.LogAudit(s, util.LogAuditInput{Actor: "gdal/Open", Action: "open", Actee: path, Message: "Opening raster", Severity: util.DEBUG})

	ds, err := godal.Open(path, quietLogger())
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", href, err)
	}
	dataset, err := newDataset(ds)
	if err != nil {
		ds.Close()
		return nil, fmt.Errorf("%s: %w", href, err)
	}
	return dataset, nil
}

// Dataset is a single band of a GDAL dataset
type Dataset struct {
	mutex     sync.Mutex
	ds        *godal.Dataset
	band      godal.Band
	grid      raster.Grid
	toDataset *godal.Transform
	lonLat    *godal.SpatialRef
	srs       *godal.SpatialRef
}

func newDataset(ds *godal.Dataset) (*Dataset, error) {
	bands := ds.Bands()
	if len(bands) == 0 {
		return nil, errors.New("raster has no bands")
	}
	gt, err := ds.GeoTransform()
	if err != nil {
		return nil, fmt.Errorf("failed to get GeoTransform: %w", err)
	}
	structure := ds.Structure()
	dataset := &Dataset{
		ds:   ds,
		band: bands[0],
		grid: raster.Grid{GeoTransform: raster.GeoTransform(gt), Width: structure.SizeX, Height: structure.SizeY},
	}

	dataset.srs = ds.SpatialRef()
	if dataset.srs == nil {
		return nil, errors.New("raster has no spatial reference")
	}
	if dataset.lonLat, err = godal.NewSpatialRefFromProj4(lonLatProj4); err != nil {
		dataset.srs.Close()
		return nil, err
	}
	if dataset.toDataset, err = godal.NewTransform(dataset.lonLat, dataset.srs); err != nil {
		dataset.srs.Close()
		dataset.lonLat.Close()
		return nil, fmt.Errorf("failed to build lon/lat transform: %w", err)
	}
	return dataset, nil
}

// Grid returns the raster grid
func (d *Dataset) Grid() raster.Grid {
	return d.grid
}

// Project converts WGS84 lon/lat into the raster CRS
func (d *Dataset) Project(lon, lat float64) (float64, float64, error) {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	xs, ys := []float64{lon}, []float64{lat}
	if err := d.toDataset.TransformEx(xs, ys, nil, nil); err != nil {
		return 0, 0, fmt.Errorf("transform error: %w", err)
	}
	return xs[0], ys[0], nil
}

// Read reads a window of the band as float64
func (d *Dataset) Read(w raster.Window) ([]float64, error) {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	data := make([]float64, w.Size())
	if err := d.band.Read(w.Col, w.Row, data, w.Width, w.Height); err != nil {
		return nil, fmt.Errorf("failed to read window %+v: %w", w, err)
	}
	return data, nil
}

// NoData returns the band nodata value
func (d *Dataset) NoData() (float64, bool) {
	return d.band.NoData()
}

// Projection returns the raster CRS as WKT
func (d *Dataset) Projection() string {
	return d.ds.Projection()
}

// Close releases the transform, spatial references and dataset
func (d *Dataset) Close() error {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	d.toDataset.Close()
	d.lonLat.Close()
	d.srs.Close()
	return d.ds.Close()
}

// WriteGeoTIFF writes a single-band float32 GeoTIFF of data laid out on grid
func WriteGeoTIFF(path string, grid raster.Grid, projection string, data []float64, nodata float64) error {
	if len(data) != grid.Width*grid.Height {
		return fmt.Errorf("%d values do not fill a %dx%d grid", len(data), grid.Width, grid.Height)
	}
	Register()
	ds, err := godal.Create(godal.GTiff, path, 1, godal.Float32, grid.Width, grid.Height,
		godal.CreationOption("TILED=YES", "COMPRESS=DEFLATE"))
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err = writeBand(ds, grid, projection, data, nodata); err != nil {
		ds.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return ds.Close()
}

func writeBand(ds *godal.Dataset, grid raster.Grid, projection string, data []float64, nodata float64) error {
	if err := ds.SetGeoTransform([6]float64(grid.GeoTransform)); err != nil {
		return err
	}
	if projection != "" {
		if err := ds.SetProjection(projection); err != nil {
			return err
		}
	}
	band := ds.Bands()[0]
	if err := band.SetNoData(nodata); err != nil {
		return err
	}
	buffer := make([]float32, len(data))
	for i, v := range data {
		buffer[i] = float32(v)
	}
	return band.Write(0, 0, buffer, grid.Width, grid.Height)
}
