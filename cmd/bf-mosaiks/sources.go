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
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/venicegeo/bf-mosaiks/discover"
	"github.com/venicegeo/bf-mosaiks/raster"
	"github.com/venicegeo/bf-mosaiks/raster/gdal"
	"github.com/venicegeo/bf-mosaiks/sas"
	"github.com/venicegeo/bf-mosaiks/stac"
	"github.com/venicegeo/bf-mosaiks/store"
	"github.com/venicegeo/bf-mosaiks/util"
	cli "gopkg.in/urfave/cli.v1"
)

var localIndexFlag = cli.BoolFlag{
	Name:  "local-index",
	Usage: "Search the scene index in DATABASE_URL instead of the STAC API",
}

var collectionFlag = cli.StringFlag{
	Name:   "collection",
	Value:  "landsat-c2-l2",
	EnvVar: util.STAC_COLLECTION,
	Usage:  "STAC collection holding Landsat 8 scenes",
}

var searchFlags = []cli.Flag{
	cli.StringFlag{Name: "bbox", Usage: "Area of interest as minLon,minLat,maxLon,maxLat"},
	cli.StringFlag{Name: "start", Usage: "Earliest acquisition, RFC 3339 or YYYY-MM-DD"},
	cli.StringFlag{Name: "end", Usage: "Latest acquisition, RFC 3339 or YYYY-MM-DD"},
	cli.Float64Flag{Name: "max-cloud-cover", Value: 20, Usage: "Maximum cloud cover percentage"},
	cli.IntFlag{Name: "limit", Value: 100, Usage: "Maximum number of scenes searched"},
	collectionFlag,
	localIndexFlag,
}

func newSigner() stac.Signer {
	if tokenURL := util.GetSASTokenURL(); tokenURL != "" {
		return sas.NewSigner(tokenURL)
	}
	return sas.NoopSigner{}
}

//newItemSource returns the STAC API client, or the local index when asked.
//The returned func releases what was opened.
func newItemSource(c *cli.Context) (discover.ItemSource, func(), error) {
	signer := newSigner()
	if c.Bool("local-index") {
		database, err := getDbConnectionFunc(&util.BasicLogContext{})
		if err != nil {
			return nil, nil, err
		}
		return discover.IndexSource{Index: store.NewSceneIndex(database), Signer: signer}, func() { database.Close() }, nil
	}
	return stac.NewClient(util.GetSTACURL(), signer), func() {}, nil
}

var newItemSourceFunc = newItemSource

func openRasterSource() raster.Source {
	return gdal.NewSource()
}

var openRasterSourceFunc = openRasterSource

var writeGeoTIFFFunc = gdal.WriteGeoTIFF

//parseDate accepts RFC 3339 timestamps or plain dates. An empty string is the
//zero time.
func parseDate(raw string, endOfDay bool) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q", raw)
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return t, nil
}

//searchOptions builds a search from the shared search flags
func searchOptions(c *cli.Context) (stac.SearchOptions, error) {
	bound, err := discover.ParseBBox(c.String("bbox"))
	if err != nil {
		return stac.SearchOptions{}, err
	}
	start, err := parseDate(c.String("start"), false)
	if err != nil {
		return stac.SearchOptions{}, err
	}
	end, err := parseDate(c.String("end"), true)
	if err != nil {
		return stac.SearchOptions{}, err
	}
	return stac.SearchOptions{
		Collections:      []string{c.String("collection")},
		BBox:             &bound,
		Start:            start,
		End:              end,
		MaxCloudCover:    c.Float64("max-cloud-cover"),
		MaxItems:         c.Int("limit"),
		SortByCloudCover: true,
	}, nil
}

//leastCloudy orders items by cloud cover, unknown last, then newest first
func leastCloudy(items []stac.Item) {
	rank := func(item stac.Item) float64 {
		if cloud := item.CloudCover(); cloud >= 0 {
			return cloud
		}
		return 101
	}
	sort.SliceStable(items, func(i, j int) bool {
		ri, rj := rank(items[i]), rank(items[j])
		if ri != rj {
			return ri < rj
		}
		ti, _ := items[i].AcquiredDate()
		tj, _ := items[j].AcquiredDate()
		return ti.After(tj)
	})
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
