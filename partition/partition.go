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

// Package partition groups sample points into spatially compact chunks so
// that each chunk can be served by a single catalog search.
package partition

import (
	"errors"
	"sort"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/maptile"
	"github.com/venicegeo/bf-mosaiks/model"
)

// curveZoom is the tile level whose quadkeys order points along a Z-curve
const curveZoom maptile.Zoom = 16

const maxMercatorLat = 85.05112878

// DefaultMaxPoints bounds partition size when no option is given
const DefaultMaxPoints = 500

// Options controls how points are cut. Count wins over MaxPoints when set.
type Options struct {
	MaxPoints int
	Count     int
	// Pad grows each partition bound, in degrees
	Pad float64
}

// Partition is a run of same-year points that are close on the Z-curve
type Partition struct {
	Year    int
	Points  []model.Point
	Indexes []int
	Bound   orb.Bound
}

type keyedPoint struct {
	index int
	key   uint64
	point model.Point
}

// Split partitions points by year and Z-order. Indexes refer back to the
// position of each point in the input.
func Split(points []model.Point, options Options) ([]Partition, error) {
	if options.MaxPoints < 0 || options.Count < 0 || options.Pad < 0 {
		return nil, errors.New("partition options must not be negative")
	}

	byYear := map[int][]keyedPoint{}
	for i, p := range points {
		if err := p.Validate(); err != nil {
			return nil, err
		}
		tile := maptile.At(curvePoint(p), curveZoom)
		byYear[p.Year] = append(byYear[p.Year], keyedPoint{index: i, key: tile.Quadkey(), point: p})
	}

	years := make([]int, 0, len(byYear))
	for year := range byYear {
		years = append(years, year)
	}
	sort.Ints(years)

	var partitions []Partition
	for _, year := range years {
		group := byYear[year]
		sort.Slice(group, func(i, j int) bool {
			if group[i].key != group[j].key {
				return group[i].key < group[j].key
			}
			return group[i].point.ID < group[j].point.ID
		})

		size := chunkSize(len(group), options)
		for start := 0; start < len(group); start += size {
			end := start + size
			if end > len(group) {
				end = len(group)
			}
			partitions = append(partitions, newPartition(year, group[start:end], options.Pad))
		}
	}
	return partitions, nil
}

// curvePoint clamps latitude to the web mercator range covered by tiles
func curvePoint(p model.Point) orb.Point {
	lat := p.Lat
	if lat > maxMercatorLat {
		lat = maxMercatorLat
	} else if lat < -maxMercatorLat {
		lat = -maxMercatorLat
	}
	return orb.Point{p.Lon, lat}
}

func chunkSize(n int, options Options) int {
	if options.Count > 0 {
		size := (n + options.Count - 1) / options.Count
		if size < 1 {
			size = 1
		}
		return size
	}
	if options.MaxPoints > 0 {
		return options.MaxPoints
	}
	return DefaultMaxPoints
}

func newPartition(year int, chunk []keyedPoint, pad float64) Partition {
	partition := Partition{
		Year:    year,
		Points:  make([]model.Point, len(chunk)),
		Indexes: make([]int, len(chunk)),
	}
	for i, kp := range chunk {
		partition.Points[i] = kp.point
		partition.Indexes[i] = kp.index
		if i == 0 {
			partition.Bound = kp.point.Orb().Bound()
		} else {
			partition.Bound = partition.Bound.Extend(kp.point.Orb())
		}
	}
	if pad > 0 {
		partition.Bound = partition.Bound.Pad(pad)
	}
	return partition
}
