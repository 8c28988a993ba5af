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
	"fmt"
	"io"
	"strconv"

	"github.com/venicegeo/bf-mosaiks/panel"
	"github.com/venicegeo/bf-mosaiks/pipeline"
)

var (
	pointColumns = []string{"id", "lon", "lat", "region", "year", "scene_id"}
	panelColumns = []string{"region", "year", "count"}
)

func featureColumns(prefix []string, width int) []string {
	header := append([]string(nil), prefix...)
	for i := 0; i < width; i++ {
		header = append(header, "f"+strconv.Itoa(i))
	}
	return header
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// FeatureWidth is the width of the first non-empty feature vector
func FeatureWidth(rows []pipeline.PointFeatures) int {
	for _, row := range rows {
		if row.Features != nil {
			return len(row.Features)
		}
	}
	return 0
}

// WriteFeatures writes one row per point. Points without features have
// empty feature cells.
func WriteFeatures(w io.Writer, rows []pipeline.PointFeatures) error {
	width := FeatureWidth(rows)
	writer := csv.NewWriter(w)
	if err := writer.Write(featureColumns(pointColumns, width)); err != nil {
		return err
	}
	for _, row := range rows {
		if row.Features != nil && len(row.Features) != width {
			return fmt.Errorf("point %s has %d features, expected %d", row.Point.ID, len(row.Features), width)
		}
		p := row.Point
		record := make([]string, 0, len(pointColumns)+width)
		record = append(record, p.ID, formatFloat(p.Lon), formatFloat(p.Lat), p.Region, strconv.Itoa(p.Year), row.SceneID)
		for i := 0; i < width; i++ {
			if row.Features == nil {
				record = append(record, "")
			} else {
				record = append(record, formatFloat(row.Features[i]))
			}
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// WritePanels writes region,year,count,f0..fN rows
func WritePanels(w io.Writer, panels []panel.Panel) error {
	width := 0
	if len(panels) > 0 {
		width = len(panels[0].Features)
	}
	writer := csv.NewWriter(w)
	if err := writer.Write(featureColumns(panelColumns, width)); err != nil {
		return err
	}
	for _, p := range panels {
		if len(p.Features) != width {
			return fmt.Errorf("panel %s/%d has %d features, expected %d", p.Region, p.Year, len(p.Features), width)
		}
		record := []string{p.Region, strconv.Itoa(p.Year), strconv.Itoa(p.Count)}
		for _, v := range p.Features {
			record = append(record, formatFloat(v))
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// ReadPanels reads what WritePanels writes. Feature columns are f0, f1, ...
// in order.
func ReadPanels(r io.Reader) ([]panel.Panel, error) {
	reader := csv.NewReader(r)
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read panel header: %w", err)
	}
	columns, err := NewColumnMap(panelColumns, header)
	if err != nil {
		return nil, err
	}
	var featureIndexes []int
	for i := 0; ; i++ {
		name := "f" + strconv.Itoa(i)
		idx := -1
		for j, h := range header {
			if h == name {
				idx = j
				break
			}
		}
		if idx < 0 {
			break
		}
		featureIndexes = append(featureIndexes, idx)
	}

	values := columns.CreateValueMap()
	var panels []panel.Panel
	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if err = columns.UpdateMap(record, values); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		p := panel.Panel{Region: values["region"], Features: make([]float64, len(featureIndexes))}
		if p.Year, err = strconv.Atoi(values["year"]); err != nil {
			return nil, fmt.Errorf("line %d: bad year: %w", line, err)
		}
		if p.Count, err = strconv.Atoi(values["count"]); err != nil {
			return nil, fmt.Errorf("line %d: bad count: %w", line, err)
		}
		for i, idx := range featureIndexes {
			if p.Features[i], err = strconv.ParseFloat(record[idx], 64); err != nil {
				return nil, fmt.Errorf("line %d: bad feature f%d: %w", line, i, err)
			}
		}
		panels = append(panels, p)
	}
	return panels, nil
}
