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
	"fmt"
	"io"

	"github.com/gocarina/gocsv"
	"github.com/venicegeo/bf-mosaiks/model"
)

// ReadPoints decodes an id,lon,lat,region,year CSV and validates every row
func ReadPoints(r io.Reader) ([]model.Point, error) {
	var points []model.Point
	if err := gocsv.Unmarshal(r, &points); err != nil {
		return nil, fmt.Errorf("failed to read points: %w", err)
	}
	seen := make(map[string]bool, len(points))
	for i, p := range points {
		if err := p.Validate(); err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		if seen[p.ID] {
			return nil, fmt.Errorf("row %d: duplicate point id %s", i+2, p.ID)
		}
		seen[p.ID] = true
	}
	return points, nil
}

// WritePoints encodes points with the same columns ReadPoints expects
func WritePoints(w io.Writer, points []model.Point) error {
	return gocsv.Marshal(points, w)
}
