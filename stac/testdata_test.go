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
	"fmt"
)

const testItemTemplate = `{
	"type": "Feature",
	"stac_version": "1.0.0",
	"id": "%s",
	"collection": "landsat-c2-l2",
	"geometry": {"type": "Polygon", "coordinates": [[[10, 10], [11, 10], [11, 11], [10, 11], [10, 10]]]},
	"bbox": [10, 10, 11, 11],
	"properties": {
		"datetime": "2021-06-01T10:00:00.123456Z",
		"eo:cloud_cover": %v,
		"platform": "landsat-8",
		"gsd": 30,
		"proj:epsg": 32632
	},
	"assets": {
		"red": {"href": "https://example.localdomain/%[1]s_SR_B4.TIF", "raster:bands": [{"scale": 0.0000275, "offset": -0.2, "nodata": 0}]},
		"nir08": {"href": "https://example.localdomain/%[1]s_SR_B5.TIF"},
		"thumbnail": {"href": "https://example.localdomain/%[1]s_thumb.png", "eo:bands": [{"name": "SR_B2", "common_name": "blue"}]}
	}
}`

func testItemJSON(id string, cloudCover float64) string {
	return fmt.Sprintf(testItemTemplate, id, cloudCover)
}

func testItem(id string, cloudCover float64) Item {
	var item Item
	if err := json.Unmarshal([]byte(testItemJSON(id, cloudCover)), &item); err != nil {
		panic(err)
	}
	return item
}
