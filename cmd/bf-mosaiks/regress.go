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
	"strconv"

	"github.com/venicegeo/bf-mosaiks/dataset"
	"github.com/venicegeo/bf-mosaiks/regress"
	"github.com/venicegeo/bf-mosaiks/util"
	cli "gopkg.in/urfave/cli.v1"
)

var regressFlags = []cli.Flag{
	cli.StringFlag{Name: "panels", Usage: "Panel CSV written by the features command"},
	cli.StringFlag{Name: "labels", Usage: "Labels CSV"},
	cli.StringFlag{Name: "region-column", Value: "region", Usage: "Labels column holding the region code"},
	cli.StringFlag{Name: "year-column", Value: "year", Usage: "Labels column holding the year; empty matches every year"},
	cli.StringFlag{Name: "value-column", Value: "value", Usage: "Labels column holding the outcome"},
	cli.StringFlag{Name: "lambdas", Usage: "Comma separated ridge penalties to search"},
	cli.IntFlag{Name: "folds", Value: 5, Usage: "Cross-validation folds"},
	cli.Int64Flag{Name: "seed", Usage: "Fold shuffle seed"},
}

//regressAction fits a cross-validated ridge regression of labels on panels
func regressAction(c *cli.Context) error {
	ctx := context.Background()
	logContext := &util.BasicLogContext{}
	if c.String("panels") == "" || c.String("labels") == "" {
		return errors.New("--panels and --labels are required")
	}
	lambdas, err := parseLambdas(c.String("lambdas"))
	if err != nil {
		return err
	}

	sink := &dataset.Sink{}
	defer sink.Close()
	panelReader, err := sink.OpenReader(ctx, c.String("panels"))
	if err != nil {
		return err
	}
	defer panelReader.Close()
	panels, err := dataset.ReadPanels(panelReader)
	if err != nil {
		return err
	}
	labelReader, err := sink.OpenReader(ctx, c.String("labels"))
	if err != nil {
		return err
	}
	defer labelReader.Close()
	labels, err := dataset.ReadLabels(labelReader, dataset.LabelColumns{
		Region: c.String("region-column"),
		Year:   c.String("year-column"),
		Value:  c.String("value-column"),
	})
	if err != nil {
		return err
	}

	x, y, matched, err := dataset.Design(panels, labels)
	if err != nil {
		return err
	}
	util.LogInfo(logContext, fmt.Sprintf("Matched %d of %d panels to labels", len(matched), len(panels)))

	result, err := regress.CrossValidate(x, y, lambdas, c.Int("folds"), c.Int64("seed"))
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "observations: %d\n", len(y))
	fmt.Fprintf(c.App.Writer, "lambda: %g\n", result.Lambda)
	fmt.Fprintf(c.App.Writer, "cv_r2: %.4f\n", result.MeanR2)
	return nil
}

func parseLambdas(raw string) ([]float64, error) {
	var lambdas []float64
	for _, part := range splitList(raw) {
		lambda, err := strconv.ParseFloat(part, 64)
		if err != nil || lambda < 0 {
			return nil, fmt.Errorf("invalid lambda %q", part)
		}
		lambdas = append(lambdas, lambda)
	}
	return lambdas, nil
}
