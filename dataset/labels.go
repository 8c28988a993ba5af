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

package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/venicegeo/bf-mosaiks/panel"
	"gonum.org/v1/gonum/mat"
)

// Label is an outcome observed for a region, optionally in one year
type Label struct {
	Region string
	Year   int
	Value  float64
}

// LabelColumns names the label CSV columns. Year may be empty, in which case
// a label applies to every year of its region.
type LabelColumns struct {
	Region string
	Year   string
	Value  string
}

// ReadLabels reads labels from user-chosen columns. Rows with an empty value
// are skipped.
func ReadLabels(r io.Reader, columns LabelColumns) ([]Label, error) {
	if columns.Region == "" || columns.Value == "" {
		return nil, errors.New("label region and value columns are required")
	}
	reader := csv.NewReader(r)
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read label header: %w", err)
	}
	columnMap, err := NewColumnMap([]string{columns.Region, columns.Year, columns.Value}, header)
	if err != nil {
		return nil, err
	}

	values := columnMap.CreateValueMap()
	var labels []Label
	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if err = columnMap.UpdateMap(record, values); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if values[columns.Value] == "" {
			continue
		}
		label := Label{Region: values[columns.Region]}
		if label.Value, err = strconv.ParseFloat(values[columns.Value], 64); err != nil {
			return nil, fmt.Errorf("line %d: bad value: %w", line, err)
		}
		if columns.Year != "" {
			if label.Year, err = strconv.Atoi(values[columns.Year]); err != nil {
				return nil, fmt.Errorf("line %d: bad year: %w", line, err)
			}
		}
		labels = append(labels, label)
	}
	return labels, nil
}

// Design joins panels to labels on region and year. It returns the feature
// matrix, the label vector and the panels that were matched, row for row.
func Design(panels []panel.Panel, labels []Label) (*mat.Dense, []float64, []panel.Panel, error) {
	type key struct {
		region string
		year   int
	}
	byKey := make(map[key]float64, len(labels))
	for _, l := range labels {
		byKey[key{l.Region, l.Year}] = l.Value
	}

	var matched []panel.Panel
	var y []float64
	for _, p := range panels {
		value, ok := byKey[key{p.Region, p.Year}]
		if !ok {
			value, ok = byKey[key{p.Region, 0}]
		}
		if !ok {
			continue
		}
		matched = append(matched, p)
		y = append(y, value)
	}
	if len(matched) == 0 {
		return nil, nil, nil, errors.New("no panel has a label")
	}

	width := len(matched[0].Features)
	if width == 0 {
		return nil, nil, nil, errors.New("panels have no features")
	}
	x := mat.NewDense(len(matched), width, nil)
	for i, p := range matched {
		if len(p.Features) != width {
			return nil, nil, nil, fmt.Errorf("panel %s/%d has %d features, expected %d", p.Region, p.Year, len(p.Features), width)
		}
		x.SetRow(i, p.Features)
	}
	return x, y, matched, nil
}
