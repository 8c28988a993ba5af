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

// Band describes how a Landsat 8 band is found among a STAC item's assets
// and how its digital numbers map to physical values
type Band struct {
	CommonName string
	AssetKeys  []string
	Scale      float64
	Offset     float64
	NoData     float64
}

// Surface reflectance and surface temperature scaling for Collection 2 Level-2 products
const (
	ReflectanceScale   = 0.0000275
	ReflectanceOffset  = -0.2
	TemperatureScale   = 0.00341802
	TemperatureOffset  = 149.0
	defaultNoDataValue = 0
)

var bands = []Band{
	{"coastal", []string{"coastal", "SR_B1", "B1"}, ReflectanceScale, ReflectanceOffset, defaultNoDataValue},
	{"blue", []string{"blue", "SR_B2", "B2"}, ReflectanceScale, ReflectanceOffset, defaultNoDataValue},
	{"green", []string{"green", "SR_B3", "B3"}, ReflectanceScale, ReflectanceOffset, defaultNoDataValue},
	{"red", []string{"red", "SR_B4", "B4"}, ReflectanceScale, ReflectanceOffset, defaultNoDataValue},
	{"nir08", []string{"nir08", "SR_B5", "B5"}, ReflectanceScale, ReflectanceOffset, defaultNoDataValue},
	{"swir16", []string{"swir16", "SR_B6", "B6"}, ReflectanceScale, ReflectanceOffset, defaultNoDataValue},
	{"swir22", []string{"swir22", "SR_B7", "B7"}, ReflectanceScale, ReflectanceOffset, defaultNoDataValue},
	{"lwir11", []string{"lwir11", "ST_B10", "B10"}, TemperatureScale, TemperatureOffset, defaultNoDataValue},
	{"qa_pixel", []string{"qa_pixel", "QA_PIXEL", "BQA"}, 1, 0, 1},
}

// DefaultFeatureBands are the bands stacked into MOSAIKS patches
var DefaultFeatureBands = []string{"red", "green", "blue", "nir08"}

// LookupBand returns the band table entry for a common name
func LookupBand(commonName string) (Band, bool) {
	for _, b := range bands {
		if b.CommonName == commonName {
			return b, true
		}
	}
	return Band{}, false
}

// CommonNames lists all known band common names in band order
func CommonNames() []string {
	names := make([]string, len(bands))
	for i, b := range bands {
		names[i] = b.CommonName
	}
	return names
}
