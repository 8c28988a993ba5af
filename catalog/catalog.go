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
	"errors"
	"time"

	"github.com/paulmach/orb"
	"github.com/venicegeo/bf-mosaiks/model"
	"github.com/venicegeo/bf-mosaiks/partition"
	"github.com/venicegeo/bf-mosaiks/stac"
)

// ErrNoScene is reported for points no scene covers
var ErrNoScene = errors.New("no scene covers the point")

// Query describes a scene search over a bounding box and time range
type Query struct {
	Collections   []string
	BBox          orb.Bound
	Start         time.Time
	End           time.Time
	MaxCloudCover float64
	Limit         int
}

// Searcher finds scenes matching a query
type Searcher interface {
	SearchScenes(ctx context.Context, query Query) ([]stac.Item, error)
}

// QueryForPartition builds the search covering a partition's bound and year
func QueryForPartition(p partition.Partition, collections []string, maxCloudCover float64, limit int) Query {
	start, end := model.YearInterval(p.Year)
	return Query{
		Collections:   collections,
		BBox:          p.Bound,
		Start:         start,
		End:           end,
		MaxCloudCover: maxCloudCover,
		Limit:         limit,
	}
}

// ItemSearcher runs STAC item searches. *stac.Client satisfies it.
type ItemSearcher interface {
	Search(ctx context.Context, options stac.SearchOptions) ([]stac.Item, error)
}

// RemoteSearcher answers queries from a STAC API
type RemoteSearcher struct {
	Client ItemSearcher
}

// SearchScenes runs the query as a STAC item search
func (rs RemoteSearcher) SearchScenes(ctx context.Context, query Query) ([]stac.Item, error) {
	bound := query.BBox
	return rs.Client.Search(ctx, stac.SearchOptions{
		Collections:      query.Collections,
		BBox:             &bound,
		Start:            query.Start,
		End:              query.End,
		MaxCloudCover:    query.MaxCloudCover,
		MaxItems:         query.Limit,
		SortByCloudCover: true,
	})
}
