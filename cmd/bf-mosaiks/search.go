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

	"github.com/venicegeo/bf-mosaiks/model"
	cli "gopkg.in/urfave/cli.v1"
)

//searchAction prints the scenes over the bbox as a GeoJSON feature collection
func searchAction(c *cli.Context) error {
	options, err := searchOptions(c)
	if err != nil {
		return err
	}
	items, closeItems, err := newItemSourceFunc(c)
	if err != nil {
		return err
	}
	defer closeItems()

	found, err := items.Search(context.Background(), options)
	if err != nil {
		return err
	}
	leastCloudy(found)

	multiResult := model.MultiSceneResult{FeatureCreators: make([]model.GeoJSONFeatureCreator, len(found))}
	for i := range found {
		result, err := found[i].SceneResult()
		if err != nil {
			return err
		}
		multiResult.FeatureCreators[i] = result
	}
	return printFeatures(c, multiResult)
}

func printFeatures(c *cli.Context, creator model.GeoJSONFeatureCollectionCreator) error {
	fc, err := creator.GeoJSONFeatureCollection()
	if err != nil {
		return err
	}
	body, err := fc.MarshalJSON()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(c.App.Writer, string(body))
	return err
}
