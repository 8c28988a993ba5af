package model

import (
	"errors"
	"math"
	"net/url"

	"github.com/paulmach/orb/geojson"
)

// NDVIStats is a mixin containing NDVI summary statistics over a scene window
type NDVIStats struct {
	Mean        float64
	Min         float64
	Max         float64
	ValidPixels int
	TotalPixels int
}

// Apply implements the GeoJSONFeatureMixin interface
func (ns NDVIStats) Apply(feature *geojson.Feature) error {
	feature.Properties["ndviMean"] = finiteOrNil(ns.Mean)
	feature.Properties["ndviMin"] = finiteOrNil(ns.Min)
	feature.Properties["ndviMax"] = finiteOrNil(ns.Max)
	feature.Properties["ndviValidPixels"] = ns.ValidPixels
	feature.Properties["ndviTotalPixels"] = ns.TotalPixels
	return nil
}

// finiteOrNil keeps NaN out of JSON output, where it cannot be encoded
func finiteOrNil(v float64) interface{} {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return v
}

// LandsatBands is a mixin containing the asset URLs of a Landsat 8 Collection 2 Level-2 result
type LandsatBands struct {
	Coastal url.URL
	Blue    url.URL
	Green   url.URL
	Red     url.URL
	NIR08   url.URL
	SWIR16  url.URL
	SWIR22  url.URL
	LWIR11  url.URL
	QAPixel url.URL
}

type landsatBandDestination struct {
	CommonName  string
	Destination *url.URL
}

func (lb *LandsatBands) destinations() []landsatBandDestination {
	return []landsatBandDestination{
		{"coastal", &lb.Coastal},
		{"blue", &lb.Blue},
		{"green", &lb.Green},
		{"red", &lb.Red},
		{"nir08", &lb.NIR08},
		{"swir16", &lb.SWIR16},
		{"swir22", &lb.SWIR22},
		{"lwir11", &lb.LWIR11},
		{"qa_pixel", &lb.QAPixel},
	}
}

// NewLandsatBands creates a new LandsatBands from asset hrefs keyed by band common name
func NewLandsatBands(hrefs map[string]string) (*LandsatBands, error) {
	bands := LandsatBands{}
	found := 0
	for _, dest := range bands.destinations() {
		href, ok := hrefs[dest.CommonName]
		if !ok || href == "" {
			continue
		}
		parsed, err := url.Parse(href)
		if err != nil {
			return nil, err
		}
		*dest.Destination = *parsed
		found++
	}
	if found == 0 {
		return nil, errors.New("No Landsat band assets could be parsed")
	}
	return &bands, nil
}

// Apply implements the GeoJSONFeatureMixin interface
func (lb LandsatBands) Apply(feature *geojson.Feature) error {
	bands := map[string]string{}
	for _, dest := range lb.destinations() {
		if dest.Destination.String() != "" {
			bands[dest.CommonName] = dest.Destination.String()
		}
	}
	feature.Properties["bands"] = bands
	return nil
}
