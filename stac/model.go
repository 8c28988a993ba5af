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
	"encoding/json"
	"time"

	"github.com/paulmach/orb"
)

// Link is a STAC link object. Paging links may carry a method and body.
type Link struct {
	Rel    string                 `json:"rel"`
	Href   string                 `json:"href"`
	Type   string                 `json:"type,omitempty"`
	Method string                 `json:"method,omitempty"`
	Body   map[string]interface{} `json:"body,omitempty"`
	Merge  bool                   `json:"merge,omitempty"`
}

// RasterBand holds the raster extension fields needed to scale pixel values
type RasterBand struct {
	Scale  *float64 `json:"scale,omitempty"`
	Offset *float64 `json:"offset,omitempty"`
	Nodata *float64 `json:"nodata,omitempty"`
}

// EOBand holds the electro-optical extension band name fields
type EOBand struct {
	Name       string `json:"name,omitempty"`
	CommonName string `json:"common_name,omitempty"`
}

// Asset is a single downloadable file of an item
type Asset struct {
	Href        string       `json:"href"`
	Type        string       `json:"type,omitempty"`
	Title       string       `json:"title,omitempty"`
	Roles       []string     `json:"roles,omitempty"`
	RasterBands []RasterBand `json:"raster:bands,omitempty"`
	EOBands     []EOBand     `json:"eo:bands,omitempty"`
}

// Properties are the item properties the tool reads
type Properties struct {
	Datetime   string   `json:"datetime"`
	CloudCover *float64 `json:"eo:cloud_cover,omitempty"`
	Platform   string   `json:"platform,omitempty"`
	GSD        float64  `json:"gsd,omitempty"`
	EPSG       int      `json:"proj:epsg,omitempty"`
}

// Item is a STAC item (a GeoJSON feature describing one scene)
type Item struct {
	Type        string           `json:"type"`
	StacVersion string           `json:"stac_version,omitempty"`
	ID          string           `json:"id"`
	Collection  string           `json:"collection,omitempty"`
	Geometry    json.RawMessage  `json:"geometry"`
	BBox        []float64        `json:"bbox,omitempty"`
	Properties  Properties       `json:"properties"`
	Assets      map[string]Asset `json:"assets"`
	Links       []Link           `json:"links,omitempty"`
}

// ItemCollection is one page of search results
type ItemCollection struct {
	Type          string `json:"type"`
	Features      []Item `json:"features"`
	Links         []Link `json:"links,omitempty"`
	NumberMatched int    `json:"numberMatched,omitempty"`
}

// SearchOptions are the parameters of an item search
type SearchOptions struct {
	Collections   []string
	BBox          *orb.Bound
	Intersects    orb.Geometry
	Start         time.Time
	End           time.Time
	MaxCloudCover float64
	IDs           []string
	Limit         int
	MaxItems      int

	// SortByCloudCover asks the server for the least cloudy items first
	SortByCloudCover bool
}

type searchRequest struct {
	Collections []string                          `json:"collections,omitempty"`
	BBox        []float64                         `json:"bbox,omitempty"`
	Intersects  interface{}                       `json:"intersects,omitempty"`
	Datetime    string                            `json:"datetime,omitempty"`
	IDs         []string                          `json:"ids,omitempty"`
	Query       map[string]map[string]interface{} `json:"query,omitempty"`
	SortBy      []sortField                       `json:"sortby,omitempty"`
	Limit       int                               `json:"limit,omitempty"`
}

type sortField struct {
	Field     string `json:"field"`
	Direction string `json:"direction"`
}
