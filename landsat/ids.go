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

package landsat

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Collection 2 product IDs, with or without the processing date:
//   LC08_L2SP_149039_20170411_20200904_02_T1
//   LC08_L2SP_149039_20170411_02_T1
var collectionIDPattern = regexp.MustCompile(`^L([COT])(0[89])_(L1TP|L1GT|L1GS|L2SP|L2SR)_([0-9]{3})([0-9]{3})_([0-9]{8})(?:_([0-9]{8}))?_([0-9]{2})_(RT|T1|T2)$`)

// Pre-collection scene IDs: LC81490392017101LGN00
var preCollectionIDPattern = regexp.MustCompile(`^L([COT])(8)([0-9]{3})([0-9]{3})([0-9]{4})([0-9]{3})([A-Z]{3})([0-9]{2})$`)

// SceneID is a parsed Landsat 8 scene or product identifier
type SceneID struct {
	ID              string
	Sensor          string
	Satellite       int
	ProcessingLevel string
	Path            int
	Row             int
	AcquisitionDate time.Time
	Collection      int
	Category        string
}

// IsValidLandSatID returns true if sceneID is a Landsat 8 collection or pre-collection identifier
func IsValidLandSatID(sceneID string) bool {
	return collectionIDPattern.MatchString(sceneID) || preCollectionIDPattern.MatchString(sceneID)
}

// ParseSceneID splits a Landsat 8 identifier into its components
func ParseSceneID(sceneID string) (*SceneID, error) {
	if m := collectionIDPattern.FindStringSubmatch(sceneID); m != nil {
		acquired, err := time.Parse("20060102", m[6])
		if err != nil {
			return nil, fmt.Errorf("Invalid acquisition date in scene ID %s: %v", sceneID, err)
		}
		collection, _ := strconv.Atoi(m[8])
		return &SceneID{
			ID:              sceneID,
			Sensor:          m[1],
			Satellite:       atoi(m[2]),
			ProcessingLevel: m[3],
			Path:            atoi(m[4]),
			Row:             atoi(m[5]),
			AcquisitionDate: acquired,
			Collection:      collection,
			Category:        m[9],
		}, nil
	}

	if m := preCollectionIDPattern.FindStringSubmatch(sceneID); m != nil {
		year := atoi(m[5])
		dayOfYear := atoi(m[6])
		if dayOfYear < 1 || dayOfYear > 366 {
			return nil, fmt.Errorf("Invalid day of year in scene ID %s", sceneID)
		}
		return &SceneID{
			ID:              sceneID,
			Sensor:          m[1],
			Satellite:       atoi(m[2]),
			Path:            atoi(m[3]),
			Row:             atoi(m[4]),
			AcquisitionDate: time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, dayOfYear-1),
		}, nil
	}

	return nil, fmt.Errorf("Invalid scene ID: %s", sceneID)
}

// WRS returns the path/row pair formatted the way USGS folders are
func (id SceneID) WRS() string {
	return fmt.Sprintf("%03d%03d", id.Path, id.Row)
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

var level1ProcessingLevels = []string{"L1TP", "L1GT", "L1GS"}

// IsLevel1 returns true for Level-1 processing levels
func IsLevel1(processingLevel string) bool {
	return containsFold(level1ProcessingLevels, processingLevel)
}

var level2ProcessingLevels = []string{"L2SP", "L2SR"}

// IsLevel2 returns true for Level-2 (surface reflectance) processing levels
func IsLevel2(processingLevel string) bool {
	return containsFold(level2ProcessingLevels, processingLevel)
}

func containsFold(values []string, check string) bool {
	check = strings.ToUpper(check)
	for _, v := range values {
		if v == check {
			return true
		}
	}
	return false
}
