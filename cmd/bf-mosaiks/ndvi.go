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
package main

import (
	"context"
	"fmt"
	"math"

	"github.com/venicegeo/bf-mosaiks/catalog"
	"github.com/venicegeo/bf-mosaiks/model"
	"github.com/venicegeo/bf-mosaiks/ndvi"
	"github.com/venicegeo/bf-mosaiks/util"
	cli "gopkg.in/urfave/cli.v1"
)

var ndviFlags = append([]cli.Flag{
	cli.StringFlag{Name: "output, o", Usage: "Write the NDVI window as a float32 GeoTIFF to this path"},
}, searchFlags...)

//ndviAction computes NDVI over the bbox from the least cloudy scene found
func ndviAction(c *cli.Context) error {
	ctx := context.Background()
	logContext := &util.BasicLogContext{}
	options, err := searchOptions(c)
	if err != nil {
		return err
	}

	items, closeItems, err := newItemSourceFunc(c)
	if err != nil {
		return err
	}
	defer closeItems()

	found, err := items.Search(ctx, options)
	if err != nil {
		return err
	}
	if len(found) == 0 {
		return catalog.ErrNoScene
	}
	leastCloudy(found)
	item := found[0]
	util.LogInfo(logContext, fmt.Sprintf("Using scene %s with %v%% cloud cover", item.ID, item.CloudCover()))

	result, err := ndvi.SceneNDVI(ctx, openRasterSourceFunc(), &item, *options.BBox)
	if err != nil {
		return err
	}

	if path := c.String("output"); path != "" {
		if err = writeGeoTIFFFunc(path, result.Grid, result.Projection, result.Values, math.NaN()); err != nil {
			return err
		}
		util.LogInfo(logContext, "Wrote NDVI to "+path)
	}

	sceneResult, err := item.SceneResult()
	if err != nil {
		return err
	}
	stats := result.Stats
	sceneResult.NDVIStats = &stats
	return printFeatures(c, model.MultiSceneResult{FeatureCreators: []model.GeoJSONFeatureCreator{sceneResult}})
}
