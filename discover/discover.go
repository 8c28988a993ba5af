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
package discover

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/venicegeo/bf-mosaiks/model"
	"github.com/venicegeo/bf-mosaiks/ndvi"
	"github.com/venicegeo/bf-mosaiks/stac"
	"github.com/venicegeo/bf-mosaiks/util"
	"golang.org/x/sync/errgroup"
)

const (
	defaultLimit       = 100
	maxLimit           = 1000
	defaultConcurrency = 4
)

// searchParams are the parsed query parameters of a discover request
type searchParams struct {
	BBox            orb.Bound
	MaxCloudCover   float64
	MinAcquiredDate time.Time
	MaxAcquiredDate time.Time
	NDVI            bool
	Limit           int
}

// errBadParam marks a request parameter problem, answered with a 400
type errBadParam struct {
	name  string
	value string
}

func (e errBadParam) Error() string {
	return fmt.Sprintf("The %s value of %v is invalid", e.name, e.value)
}

// ParseBBox reads "minx,miny,maxx,maxy" in lon/lat
func ParseBBox(raw string) (orb.Bound, error) {
	parts := strings.Split(raw, ",")
	if len(parts) != 4 {
		return orb.Bound{}, errBadParam{"bbox", raw}
	}
	var values [4]float64
	for i, part := range parts {
		value, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return orb.Bound{}, errBadParam{"bbox", raw}
		}
		values[i] = value
	}
	if values[0] > values[2] || values[1] > values[3] ||
		values[0] < -180 || values[2] > 180 || values[1] < -90 || values[3] > 90 {
		return orb.Bound{}, errBadParam{"bbox", raw}
	}
	return orb.Bound{Min: orb.Point{values[0], values[1]}, Max: orb.Point{values[2], values[3]}}, nil
}

// formValue is the part of *http.Request the parser needs
type formValue interface {
	FormValue(key string) string
}

func parseSearchParams(r formValue) (searchParams, error) {
	var params searchParams
	var err error
	if params.BBox, err = ParseBBox(r.FormValue("bbox")); err != nil {
		return params, err
	}
	if raw := r.FormValue("cloudCover"); raw != "" {
		if params.MaxCloudCover, err = strconv.ParseFloat(raw, 64); err != nil ||
			params.MaxCloudCover < 0 || params.MaxCloudCover > 100 {
			return params, errBadParam{"cloudCover", raw}
		}
	}
	if raw := r.FormValue("acquiredDate"); raw != "" {
		if params.MinAcquiredDate, err = time.Parse(time.RFC3339, raw); err != nil {
			return params, errBadParam{"acquiredDate", raw}
		}
	}
	if raw := r.FormValue("maxAcquiredDate"); raw != "" {
		if params.MaxAcquiredDate, err = time.Parse(time.RFC3339, raw); err != nil {
			return params, errBadParam{"maxAcquiredDate", raw}
		}
	}
	if !params.MinAcquiredDate.IsZero() && !params.MaxAcquiredDate.IsZero() &&
		params.MaxAcquiredDate.Before(params.MinAcquiredDate) {
		return params, errBadParam{"maxAcquiredDate", r.FormValue("maxAcquiredDate")}
	}
	if raw := r.FormValue("ndvi"); raw != "" {
		if params.NDVI, err = strconv.ParseBool(raw); err != nil {
			return params, errBadParam{"ndvi", raw}
		}
	}
	params.Limit = defaultLimit
	if raw := r.FormValue("limit"); raw != "" {
		if params.Limit, err = strconv.Atoi(raw); err != nil || params.Limit < 1 || params.Limit > maxLimit {
			return params, errBadParam{"limit", raw}
		}
	}
	return params, nil
}

// discoverScenes searches a collection and converts the results to features,
// least cloudy first
func discoverScenes(ctx context.Context, hc *Context, collection string, params searchParams) (*geojson.FeatureCollection, error) {
	bbox := params.BBox
	items, err := hc.Items.Search(ctx, stac.SearchOptions{
		Collections:      []string{collection},
		BBox:             &bbox,
		Start:            params.MinAcquiredDate,
		End:              params.MaxAcquiredDate,
		MaxCloudCover:    params.MaxCloudCover,
		MaxItems:         params.Limit,
		SortByCloudCover: true,
	})
	if err != nil {
		return nil, err
	}

	results := make([]*model.LandsatSceneResult, len(items))
	for i := range items {
		if results[i], err = items[i].SceneResult(); err != nil {
			return nil, err
		}
	}
	if params.NDVI {
		if err = addNDVI(ctx, hc, items, results, bbox); err != nil {
			return nil, err
		}
	}

	multiResult := model.MultiSceneResult{FeatureCreators: make([]model.GeoJSONFeatureCreator, len(results))}
	for i, result := range results {
		multiResult.FeatureCreators[i] = result
	}
	return multiResult.GeoJSONFeatureCollection()
}

// addNDVI attaches NDVI statistics over bbox to each result. A scene whose
// rasters cannot be read keeps no statistics.
func addNDVI(ctx context.Context, hc *Context, items []stac.Item, results []*model.LandsatSceneResult, bbox orb.Bound) error {
	if hc.Rasters == nil {
		return errors.New("NDVI statistics are not available on this server")
	}
	concurrency := hc.Concurrency
	if concurrency < 1 {
		concurrency = defaultConcurrency
	}
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(concurrency)
	for i := range items {
		i := i
		group.Go(func() error {
			result, err := ndvi.SceneNDVI(groupCtx, hc.Rasters, &items[i], bbox)
			if err != nil {
				util.LogAlert(hc, fmt.Sprintf("No NDVI for scene %s: %v", items[i].ID, err))
				return nil
			}
			stats := result.Stats
			results[i].NDVIStats = &stats
			return nil
		})
	}
	return group.Wait()
}

// sceneFeature fetches one scene as a feature, with NDVI over its own
// footprint when asked
func sceneFeature(ctx context.Context, hc *Context, collection, id string, withNDVI bool) (*geojson.Feature, error) {
	item, err := hc.Items.GetItem(ctx, collection, id)
	if err != nil {
		return nil, err
	}
	result, err := item.SceneResult()
	if err != nil {
		return nil, err
	}
	if withNDVI {
		if err = addNDVI(ctx, hc, []stac.Item{*item}, []*model.LandsatSceneResult{result}, result.Geometry.Bound()); err != nil {
			return nil, err
		}
	}
	return result.GeoJSONFeature()
}
