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

package catalog

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"github.com/venicegeo/bf-mosaiks/landsat"
	"github.com/venicegeo/bf-mosaiks/model"
	"github.com/venicegeo/bf-mosaiks/partition"
	"github.com/venicegeo/bf-mosaiks/stac"
	"github.com/venicegeo/bf-mosaiks/util"
	"golang.org/x/sync/errgroup"
)

// unknownCloudCover ranks items without eo:cloud_cover behind all others
const unknownCloudCover = 101

// Assignment pairs a point with the scene chosen for it. Item is nil when no
// scene covers the point.
type Assignment struct {
	Point model.Point
	Item  *stac.Item
}

// Err returns ErrNoScene when no scene covers the point
func (a Assignment) Err() error {
	if a.Item == nil {
		return fmt.Errorf("point %s: %w", a.Point.ID, ErrNoScene)
	}
	return nil
}

// MatchResult holds assignments in input point order and the unique items
// returned by all partition searches, sorted by ID
type MatchResult struct {
	Assignments []Assignment
	Items       []*stac.Item
	Unmatched   int
}

// Matcher searches once per partition and picks a scene for every point
type Matcher struct {
	util.BasicLogContext
	Searcher      Searcher
	Collections   []string
	MaxCloudCover float64
	Limit         int
	Concurrency   int
}

type candidate struct {
	item     *stac.Item
	geometry orb.Geometry
	acquired time.Time
	cloud    float64
}

// Match runs the searches with bounded parallelism and assigns scenes
func (m *Matcher) Match(ctx context.Context, partitions []partition.Partition) (*MatchResult, error) {
	total := 0
	for _, p := range partitions {
		total += len(p.Points)
	}

	perPartition := make([][]string, len(partitions))
	unique := map[string]*candidate{}
	var mutex sync.Mutex

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(m.concurrency())
	for i := range partitions {
		i := i
		group.Go(func() error {
			query := QueryForPartition(partitions[i], m.Collections, m.MaxCloudCover, m.Limit)
			items, err := m.Searcher.SearchScenes(groupCtx, query)
			if err != nil {
				return fmt.Errorf("search for partition %d (%d, %d points): %w", i, partitions[i].Year, len(partitions[i].Points), err)
			}
			ids := make([]string, 0, len(items))
			mutex.Lock()
			defer mutex.Unlock()
			for j := range items {
				item := items[j]
				ids = append(ids, item.ID)
				if _, ok := unique[item.ID]; ok {
					continue
				}
				c, err := newCandidate(&item)
				if err != nil {
					util.LogAlert(m, "Skipping scene: "+err.Error())
					continue
				}
				unique[item.ID] = c
			}
			perPartition[i] = ids
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, util.LogSimpleErr(m, "Catalog search failed.", err)
	}

	result := &MatchResult{Assignments: make([]Assignment, total)}
	for i, p := range partitions {
		candidates := make([]*candidate, 0, len(perPartition[i]))
		for _, id := range perPartition[i] {
			if c, ok := unique[id]; ok {
				candidates = append(candidates, c)
			}
		}
		for j, point := range p.Points {
			index := p.Indexes[j]
			if index < 0 || index >= total {
				return nil, fmt.Errorf("partition %d refers to point %d of %d", i, index, total)
			}
			assignment := Assignment{Point: point}
			if best := bestCandidate(candidates, point.Orb()); best != nil {
				assignment.Item = best.item
			} else {
				result.Unmatched++
			}
			result.Assignments[index] = assignment
		}
	}

	for _, c := range unique {
		result.Items = append(result.Items, c.item)
	}
	sort.Slice(result.Items, func(i, j int) bool { return result.Items[i].ID < result.Items[j].ID })

	util.LogInfo(m, fmt.Sprintf("Matched %d of %d points to %d unique scenes", total-result.Unmatched, total, len(result.Items)))
	return result, nil
}

func (m *Matcher) concurrency() int {
	if m.Concurrency < 1 {
		return 1
	}
	return m.Concurrency
}

func newCandidate(item *stac.Item) (*candidate, error) {
	// Level-1 products carry no surface reflectance
	if id, err := landsat.ParseSceneID(item.ID); err == nil && id.ProcessingLevel != "" && !landsat.IsLevel2(id.ProcessingLevel) {
		return nil, fmt.Errorf("item %s is a %s product, not Level-2", item.ID, id.ProcessingLevel)
	}
	geometry, err := item.OrbGeometry()
	if err != nil {
		return nil, err
	}
	acquired, err := item.AcquiredDate()
	if err != nil {
		return nil, fmt.Errorf("item %s: %w", item.ID, err)
	}
	cloud := item.CloudCover()
	if cloud < 0 {
		cloud = unknownCloudCover
	}
	return &candidate{item: item, geometry: geometry, acquired: acquired, cloud: cloud}, nil
}

// better orders candidates by cloud cover, then recency, then ID
func better(a, b *candidate) bool {
	if a.cloud != b.cloud {
		return a.cloud < b.cloud
	}
	if !a.acquired.Equal(b.acquired) {
		return a.acquired.After(b.acquired)
	}
	return a.item.ID < b.item.ID
}

func bestCandidate(candidates []*candidate, point orb.Point) *candidate {
	var best *candidate
	for _, c := range candidates {
		if !Contains(c.geometry, point) {
			continue
		}
		if best == nil || better(c, best) {
			best = c
		}
	}
	return best
}

// Contains reports whether a scene footprint covers point
func Contains(geometry orb.Geometry, point orb.Point) bool {
	switch g := geometry.(type) {
	case orb.Polygon:
		return planar.PolygonContains(g, point)
	case orb.MultiPolygon:
		return planar.MultiPolygonContains(g, point)
	case orb.Ring:
		return planar.RingContains(g, point)
	case orb.Bound:
		return g.Contains(point)
	case orb.Collection:
		for _, child := range g {
			if Contains(child, point) {
				return true
			}
		}
	}
	return false
}
