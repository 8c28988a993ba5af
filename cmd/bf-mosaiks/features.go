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
	"errors"
	"fmt"
	"io"

	"github.com/schollz/progressbar/v3"
	"github.com/venicegeo/bf-mosaiks/catalog"
	"github.com/venicegeo/bf-mosaiks/dataset"
	"github.com/venicegeo/bf-mosaiks/model"
	"github.com/venicegeo/bf-mosaiks/panel"
	"github.com/venicegeo/bf-mosaiks/partition"
	"github.com/venicegeo/bf-mosaiks/pipeline"
	"github.com/venicegeo/bf-mosaiks/rcf"
	"github.com/venicegeo/bf-mosaiks/regions"
	"github.com/venicegeo/bf-mosaiks/store"
	"github.com/venicegeo/bf-mosaiks/util"
	cli "gopkg.in/urfave/cli.v1"
)

var featuresFlags = []cli.Flag{
	cli.StringFlag{Name: "points, p", Usage: "Points CSV with id,lon,lat,region,year (path or gs:// URI)"},
	cli.StringFlag{Name: "output, o", Value: "features.csv", Usage: "Feature matrix CSV (path or gs:// URI)"},
	cli.StringFlag{Name: "panels", Usage: "Also write region/year mean features to this CSV"},
	cli.StringFlag{Name: "regions", Usage: "Shapefile whose polygons assign regions to points without one"},
	cli.StringFlag{Name: "region-field", Value: "code", Usage: "Shapefile attribute holding the region code"},
	cli.StringFlag{Name: "bands", Value: "red,green,blue,nir08", Usage: "Band common names stacked into patches"},
	cli.IntFlag{Name: "num-features", Value: rcf.DefaultNumFeatures, Usage: "Feature vector width (even)"},
	cli.IntFlag{Name: "kernel-size", Value: rcf.DefaultKernelSize, Usage: "Filter side length in pixels"},
	cli.Float64Flag{Name: "bias", Value: rcf.DefaultBias, Usage: "Bias added to every convolution"},
	cli.Int64Flag{Name: "seed", Usage: "Filter bank seed"},
	cli.Float64Flag{Name: "buffer", Value: pipeline.DefaultBufferMeters, Usage: "Half width of the patch around each point, in meters"},
	cli.Float64Flag{Name: "max-cloud-cover", Value: 20, Usage: "Maximum scene cloud cover percentage"},
	cli.IntFlag{Name: "partition-size", Value: partition.DefaultMaxPoints, Usage: "Maximum points per catalog search"},
	cli.IntFlag{Name: "search-limit", Value: 500, Usage: "Maximum scenes returned per catalog search"},
	cli.IntFlag{Name: "concurrency", Value: util.GetMaxConcurrency(), Usage: "Searches or scenes processed at once"},
	cli.StringFlag{Name: "run", Usage: "Also save the features and panels under this run name in DATABASE_URL"},
	cli.BoolFlag{Name: "quiet, q", Usage: "Do not draw a progress bar"},
	collectionFlag,
	localIndexFlag,
}

//featuresAction extracts features for every point and writes them out
func featuresAction(c *cli.Context) error {
	ctx := context.Background()
	logContext := &util.BasicLogContext{}
	if c.String("points") == "" {
		return errors.New("--points is required")
	}

	sink := &dataset.Sink{}
	defer sink.Close()
	points, err := readPoints(ctx, sink, c.String("points"))
	if err != nil {
		return err
	}
	if shapefile := c.String("regions"); shapefile != "" {
		index, err := regions.Load(shapefile, c.String("region-field"))
		if err != nil {
			return err
		}
		assigned := index.Assign(points)
		util.LogInfo(logContext, fmt.Sprintf("Assigned regions to %d of %d points from %d polygons", assigned, len(points), index.Len()))
	}

	bands := splitList(c.String("bands"))
	config := rcf.Config{
		NumFeatures: c.Int("num-features"),
		KernelSize:  c.Int("kernel-size"),
		NumChannels: len(bands),
		Bias:        c.Float64("bias"),
		Seed:        c.Int64("seed"),
	}
	bank, err := rcf.New(config)
	if err != nil {
		return err
	}

	items, closeItems, err := newItemSourceFunc(c)
	if err != nil {
		return err
	}
	defer closeItems()

	extractor := &pipeline.Extractor{
		Matcher: &catalog.Matcher{
			Searcher:      catalog.RemoteSearcher{Client: items},
			Collections:   []string{c.String("collection")},
			MaxCloudCover: c.Float64("max-cloud-cover"),
			Limit:         c.Int("search-limit"),
			Concurrency:   c.Int("concurrency"),
		},
		Source:       openRasterSourceFunc(),
		Model:        bank,
		Bands:        bands,
		BufferMeters: c.Float64("buffer"),
		Partitions:   partition.Options{MaxPoints: c.Int("partition-size")},
		Concurrency:  c.Int("concurrency"),
	}
	if !c.Bool("quiet") {
		bar := progressbar.Default(int64(len(points)), "Extracting features")
		defer bar.Finish()
		extractor.Progress = func(done, total int) {
			bar.Set(done)
		}
	}

	rows, stats, err := extractor.Run(ctx, points)
	if err != nil {
		return err
	}
	util.LogInfo(logContext, fmt.Sprintf("Extracted %d of %d points from %d scenes (%d unmatched, %d skipped)",
		stats.Extracted, stats.Points, stats.Scenes, stats.Unmatched, stats.Skipped))

	if err = sink.WriteTo(ctx, c.String("output"), func(w io.Writer) error {
		return dataset.WriteFeatures(w, rows)
	}); err != nil {
		return err
	}

	var panels []panel.Panel
	if c.String("panels") != "" || c.String("run") != "" {
		if panels, err = panel.Aggregate(rows); err != nil {
			return err
		}
	}
	if uri := c.String("panels"); uri != "" {
		if err = sink.WriteTo(ctx, uri, func(w io.Writer) error {
			return dataset.WritePanels(w, panels)
		}); err != nil {
			return err
		}
	}
	if run := c.String("run"); run != "" {
		return saveRun(ctx, run, rows, panels)
	}
	return nil
}

func readPoints(ctx context.Context, sink *dataset.Sink, uri string) ([]model.Point, error) {
	reader, err := sink.OpenReader(ctx, uri)
	if err != nil {
		return nil, err
	}
	defer reader.Close()
	return dataset.ReadPoints(reader)
}

func saveRun(ctx context.Context, run string, rows []pipeline.PointFeatures, panels []panel.Panel) error {
	database, err := getDbConnectionFunc(&util.BasicLogContext{})
	if err != nil {
		return err
	}
	defer database.Close()
	features := store.NewFeatureStore(database)
	if err = features.SaveFeatures(ctx, run, rows); err != nil {
		return err
	}
	return features.SavePanels(ctx, run, panels)
}
