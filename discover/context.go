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
// Package discover serves scene search results as GeoJSON over HTTP.
package discover

import (
	"context"
	"errors"

	"github.com/paulmach/orb"
	"github.com/venicegeo/bf-mosaiks/catalog"
	"github.com/venicegeo/bf-mosaiks/raster"
	"github.com/venicegeo/bf-mosaiks/stac"
	"github.com/venicegeo/bf-mosaiks/store"
	"github.com/venicegeo/bf-mosaiks/util"
)

// ErrNotFound is returned by an ItemSource for an unknown scene
var ErrNotFound = errors.New("scene not found")

// ItemSource finds STAC items. *stac.Client satisfies it.
type ItemSource interface {
	Search(ctx context.Context, options stac.SearchOptions) ([]stac.Item, error)
	GetItem(ctx context.Context, collection, id string) (*stac.Item, error)
}

// Context holds what the handlers share
type Context struct {
	util.BasicLogContext
	Items ItemSource
	// Rasters is used for NDVI statistics. Requests asking for NDVI fail
	// when it is nil.
	Rasters     raster.Source
	Concurrency int
}

// IndexSource answers searches from the local scene index. Stored hrefs are
// unsigned, so items are signed as they are read.
type IndexSource struct {
	Index  *store.SceneIndex
	Signer stac.Signer
}

// Search implements ItemSource
func (is IndexSource) Search(ctx context.Context, options stac.SearchOptions) ([]stac.Item, error) {
	query := catalog.Query{
		Collections:   options.Collections,
		Start:         options.Start,
		End:           options.End,
		MaxCloudCover: options.MaxCloudCover,
		Limit:         options.MaxItems,
	}
	switch {
	case options.BBox != nil:
		query.BBox = *options.BBox
	case options.Intersects != nil:
		query.BBox = options.Intersects.Bound()
	default:
		query.BBox = orb.Bound{Min: orb.Point{-180, -90}, Max: orb.Point{180, 90}}
	}
	items, err := is.Index.SearchScenes(ctx, query)
	if err != nil {
		return nil, err
	}
	for i := range items {
		if err = is.sign(ctx, &items[i]); err != nil {
			return nil, err
		}
	}
	return items, nil
}

// GetItem implements ItemSource
func (is IndexSource) GetItem(ctx context.Context, collection, id string) (*stac.Item, error) {
	item, err := is.Index.GetItem(ctx, collection, id)
	if err == store.ErrNotFound {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err = is.sign(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

func (is IndexSource) sign(ctx context.Context, item *stac.Item) error {
	if is.Signer == nil {
		return nil
	}
	return is.Signer.SignItem(ctx, item)
}
