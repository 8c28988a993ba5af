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

// Package pipeline ties partitioning, scene matching, windowed reads and
// random convolutional features together into one extraction run.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/venicegeo/bf-mosaiks/catalog"
	"github.com/venicegeo/bf-mosaiks/landsat"
	"github.com/venicegeo/bf-mosaiks/model"
	"github.com/venicegeo/bf-mosaiks/partition"
	"github.com/venicegeo/bf-mosaiks/raster"
	"github.com/venicegeo/bf-mosaiks/rcf"
	"github.com/venicegeo/bf-mosaiks/stac"
	"github.com/venicegeo/bf-mosaiks/util"
	"golang.org/x/sync/errgroup"
)

// DefaultBufferMeters is the half width of the square read around each point
const DefaultBufferMeters = 500

// PointFeatures is the feature vector of one point. Features is nil when the
// point could not be featurized; SceneID is empty when no scene covered it.
type PointFeatures struct {
	Point    model.Point
	SceneID  string
	Features []float64
}

// Stats counts what happened to the points of a run
type Stats struct {
	Points    int
	Unmatched int
	Skipped   int
	Extracted int
	Scenes    int
}

// ProgressFunc is called once per finished point
type ProgressFunc func(done, total int)

// Extractor runs the feature pipeline
type Extractor struct {
	util.BasicLogContext
	Matcher      *catalog.Matcher
	Source       raster.Source
	Model        *rcf.Model
	Bands        []string
	BufferMeters float64
	Partitions   partition.Options
	Concurrency  int
	Progress     ProgressFunc

	mutex sync.Mutex
	done  int
}

// IsSkip reports errors that leave a single point without features
func IsSkip(err error) bool {
	return errors.Is(err, catalog.ErrNoScene) || errors.Is(err, raster.ErrNoOverlap) || errors.Is(err, raster.ErrEmptyPatch) || errors.Is(err, rcf.ErrPatchTooSmall)
}

// Run extracts features for points, returned in input order
func (e *Extractor) Run(ctx context.Context, points []model.Point) ([]PointFeatures, Stats, error) {
	stats := Stats{Points: len(points)}
	bands := e.Bands
	if len(bands) == 0 {
		bands = landsat.DefaultFeatureBands
	}
	if e.Model.Config().NumChannels != len(bands) {
		return nil, stats, fmt.Errorf("model expects %d channels but %d bands are configured", e.Model.Config().NumChannels, len(bands))
	}
	buffer := e.BufferMeters
	if buffer <= 0 {
		buffer = DefaultBufferMeters
	}
	e.done = 0

	partitions, err := partition.Split(points, e.Partitions)
	if err != nil {
		return nil, stats, err
	}
	matched, err := e.Matcher.Match(ctx, partitions)
	if err != nil {
		return nil, stats, err
	}
	stats.Unmatched = matched.Unmatched

	results := make([]PointFeatures, len(points))
	byScene := map[string][]int{}
	scenes := map[string]*stac.Item{}
	for i, assignment := range matched.Assignments {
		results[i].Point = assignment.Point
		if err := assignment.Err(); IsSkip(err) {
			e.finishPoint(len(points))
			continue
		}
		results[i].SceneID = assignment.Item.ID
		byScene[assignment.Item.ID] = append(byScene[assignment.Item.ID], i)
		scenes[assignment.Item.ID] = assignment.Item
	}
	sceneIDs := make([]string, 0, len(byScene))
	for id := range byScene {
		sceneIDs = append(sceneIDs, id)
	}
	sort.Strings(sceneIDs)
	stats.Scenes = len(sceneIDs)

	var skipped, extracted int
	var countMutex sync.Mutex
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(e.concurrency())
	for _, id := range sceneIDs {
		item, indexes := scenes[id], byScene[id]
		group.Go(func() error {
			s, x, err := e.scene(groupCtx, item, bands, buffer, indexes, results)
			countMutex.Lock()
			skipped += s
			extracted += x
			countMutex.Unlock()
			return err
		})
	}
	if err = group.Wait(); err != nil {
		return nil, stats, util.LogSimpleErr(e, "Feature extraction failed.", err)
	}

	stats.Skipped, stats.Extracted = skipped, extracted
	util.LogInfo(e, fmt.Sprintf("Extracted features for %d of %d points from %d scenes (%d unmatched, %d skipped)",
		stats.Extracted, stats.Points, stats.Scenes, stats.Unmatched, stats.Skipped))
	return results, stats, nil
}

// scene opens the bands of one item once and featurizes its points
func (e *Extractor) scene(ctx context.Context, item *stac.Item, bandNames []string, buffer float64, indexes []int, results []PointFeatures) (int, int, error) {
	total := len(results)
	bands := make([]raster.Band, 0, len(bandNames))
	defer func() {
		for _, band := range bands {
			band.Dataset.Close()
		}
	}()
	for _, name := range bandNames {
		asset, ok := item.BandAsset(name)
		if !ok {
			util.LogAlert(e, fmt.Sprintf("Scene %s has no %s asset, skipping %d points", item.ID, name, len(indexes)))
			for range indexes {
				e.finishPoint(total)
			}
			return len(indexes), 0, nil
		}
		ds, err := e.Source.Open(ctx, asset.Href)
		if err != nil {
			return 0, 0, fmt.Errorf("scene %s band %s: %w", item.ID, name, err)
		}
		bands = append(bands, raster.Band{Dataset: ds, Scaling: item.BandScaling(name)})
	}

	skipped, extracted := 0, 0
	for _, i := range indexes {
		if err := ctx.Err(); err != nil {
			return skipped, extracted, err
		}
		point := results[i].Point
		features, err := e.featurize(bands, point, buffer)
		switch {
		case err == nil:
			results[i].Features = features
			extracted++
		case IsSkip(err):
			skipped++
		default:
			return skipped, extracted, fmt.Errorf("point %s in scene %s: %w", point.ID, item.ID, err)
		}
		e.finishPoint(total)
	}
	return skipped, extracted, nil
}

func (e *Extractor) featurize(bands []raster.Band, point model.Point, buffer float64) ([]float64, error) {
	patch, err := raster.ReadPatch(bands, point.Lon, point.Lat, buffer)
	if err != nil {
		return nil, err
	}
	return e.Model.Forward(patch)
}

func (e *Extractor) finishPoint(total int) {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	e.done++
	if e.Progress != nil {
		e.Progress(e.done, total)
	}
}

func (e *Extractor) concurrency() int {
	if e.Concurrency < 1 {
		return 1
	}
	return e.Concurrency
}
