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

package stac

import (
	"errors"
	"fmt"
	"time"

	"github.com/paulmach/orb"
	orbjson "github.com/paulmach/orb/geojson"
	"github.com/venicegeo/bf-mosaiks/landsat"
	"github.com/venicegeo/bf-mosaiks/model"
	"github.com/venicegeo/bf-mosaiks/raster"
)

const defaultGSD = 30

// OrbGeometry decodes the item footprint, falling back to its bbox
func (item Item) OrbGeometry() (orb.Geometry, error) {
	if len(item.Geometry) > 0 && string(item.Geometry) != "null" {
		geometry, err := orbjson.UnmarshalGeometry(item.Geometry)
		if err != nil {
			return nil, fmt.Errorf("Failed to parse geometry of item %s: %w", item.ID, err)
		}
		if geometry.Coordinates != nil {
			return geometry.Coordinates, nil
		}
	}
	if len(item.BBox) >= 4 {
		b := item.BBox
		if len(b) == 6 {
			b = []float64{b[0], b[1], b[3], b[4]}
		}
		return orb.Bound{Min: orb.Point{b[0], b[1]}, Max: orb.Point{b[2], b[3]}}.ToPolygon(), nil
	}
	return nil, errors.New("Item " + item.ID + " has neither geometry nor bbox")
}

// CloudCover returns the eo:cloud_cover percentage, or -1 when absent
func (item Item) CloudCover() float64 {
	if item.Properties.CloudCover == nil {
		return -1
	}
	return *item.Properties.CloudCover
}

// AcquiredDate parses the item datetime
func (item Item) AcquiredDate() (time.Time, error) {
	return model.ParseSTACTime(item.Properties.Datetime)
}

// BandAsset finds the asset for a band common name. Known Landsat asset keys
// are tried first, then any asset whose eo:bands declares the common name.
func (item Item) BandAsset(commonName string) (Asset, bool) {
	if band, ok := landsat.LookupBand(commonName); ok {
		for _, key := range band.AssetKeys {
			if asset, ok := item.Assets[key]; ok && asset.Href != "" {
				return asset, true
			}
		}
	}
	if asset, ok := item.Assets[commonName]; ok && asset.Href != "" {
		return asset, true
	}
	for _, asset := range item.Assets {
		for _, eo := range asset.EOBands {
			if eo.CommonName == commonName && asset.Href != "" {
				return asset, true
			}
		}
	}
	return Asset{}, false
}

// BandScaling returns scale, offset and nodata for a band. Values declared in
// raster:bands win over the Landsat defaults.
func (item Item) BandScaling(commonName string) raster.Scaling {
	scaling := raster.Scaling{Scale: 1}
	if band, ok := landsat.LookupBand(commonName); ok {
		noData := band.NoData
		scaling = raster.Scaling{Scale: band.Scale, Offset: band.Offset, NoData: &noData}
	}
	asset, ok := item.BandAsset(commonName)
	if !ok || len(asset.RasterBands) == 0 {
		return scaling
	}
	rb := asset.RasterBands[0]
	if rb.Scale != nil {
		scaling.Scale = *rb.Scale
	}
	if rb.Offset != nil {
		scaling.Offset = *rb.Offset
	}
	if rb.Nodata != nil {
		noData := *rb.Nodata
		scaling.NoData = &noData
	}
	return scaling
}

// BandHrefs maps every resolvable Landsat band common name to its href
func (item Item) BandHrefs() map[string]string {
	hrefs := map[string]string{}
	for _, name := range landsat.CommonNames() {
		if asset, ok := item.BandAsset(name); ok {
			hrefs[name] = asset.Href
		}
	}
	return hrefs
}

// SceneResult converts the item into the scene description served as GeoJSON
func (item Item) SceneResult() (*model.LandsatSceneResult, error) {
	geometry, err := item.OrbGeometry()
	if err != nil {
		return nil, err
	}
	acquiredDate, err := item.AcquiredDate()
	if err != nil {
		return nil, fmt.Errorf("Failed to parse datetime of item %s: %w", item.ID, err)
	}
	bands, err := model.NewLandsatBands(item.BandHrefs())
	if err != nil {
		return nil, fmt.Errorf("Item %s: %w", item.ID, err)
	}
	gsd := item.Properties.GSD
	if gsd == 0 {
		gsd = defaultGSD
	}
	platform := item.Properties.Platform
	if platform == "" {
		if id, err := landsat.ParseSceneID(item.ID); err == nil {
			platform = fmt.Sprintf("landsat-%d", id.Satellite)
		}
	}
	return &model.LandsatSceneResult{
		BasicSceneResult: model.BasicSceneResult{
			ID:           item.ID,
			Collection:   item.Collection,
			Geometry:     geometry,
			CloudCover:   item.CloudCover(),
			AcquiredDate: acquiredDate,
			Platform:     platform,
			Resolution:   gsd,
			FileFormat:   model.COG,
		},
		LandsatBands: *bands,
	}, nil
}
