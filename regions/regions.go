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

// Package regions looks up the administrative region containing a point.
package regions

import (
	"fmt"
	"strings"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/encoding/shp"
	"github.com/ctessum/geom/index/rtree"
	"github.com/venicegeo/bf-mosaiks/model"
)

// Region is one coded polygon
type Region struct {
	geom.Polygonal
	Code string
}

// Index finds regions by location
type Index struct {
	tree  *rtree.Rtree
	count int
}

// NewIndex builds an index over regions
func NewIndex(regions []Region) *Index {
	tree := rtree.NewTree(25, 50)
	for i := range regions {
		tree.Insert(&regions[i])
	}
	return &Index{tree: tree, count: len(regions)}
}

// Load reads polygons from a shapefile, coding each by codeField
func Load(path, codeField string) (*Index, error) {
	decoder, err := shp.NewDecoder(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open shapefile %s: %w", path, err)
	}
	defer decoder.Close()

	var regions []Region
	for {
		g, fields, more := decoder.DecodeRowFields(codeField)
		if !more {
			break
		}
		polygonal, ok := g.(geom.Polygonal)
		if !ok {
			continue
		}
		code := strings.TrimSpace(strings.Replace(fields[codeField], "\x00", "", -1))
		regions = append(regions, Region{Polygonal: polygonal, Code: code})
	}
	if err = decoder.Error(); err != nil {
		return nil, fmt.Errorf("failed to read shapefile %s: %w", path, err)
	}
	return NewIndex(regions), nil
}

// Len is the number of indexed regions
func (idx *Index) Len() int {
	return idx.count
}

// Locate returns the code of the region containing lon/lat. When regions
// overlap the lowest code wins.
func (idx *Index) Locate(lon, lat float64) (string, bool) {
	point := geom.Point{X: lon, Y: lat}
	found := false
	code := ""
	for _, candidate := range idx.tree.SearchIntersect(point.Bounds()) {
		region := candidate.(*Region)
		if point.Within(region.Polygonal) == geom.Outside {
			continue
		}
		if !found || region.Code < code {
			code = region.Code
			found = true
		}
	}
	return code, found
}

// Assign fills in the region of points that have none and returns how many
// were assigned
func (idx *Index) Assign(points []model.Point) int {
	assigned := 0
	for i := range points {
		if points[i].Region != "" {
			continue
		}
		if code, ok := idx.Locate(points[i].Lon, points[i].Lat); ok {
			points[i].Region = code
			assigned++
		}
	}
	return assigned
}
