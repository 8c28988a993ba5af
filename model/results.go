package model

import (
	"errors"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// BasicSceneResult holds the fields common to all single scene results
type BasicSceneResult struct {
	ID           string
	Collection   string
	Geometry     orb.Geometry
	CloudCover   float64
	AcquiredDate time.Time
	Platform     string
	Resolution   float64
	FileFormat   SceneFileFormat
}

// GeoJSONFeature implements the GeoJSONFeatureCreator interface
func (br BasicSceneResult) GeoJSONFeature() (*geojson.Feature, error) {
	if br.Geometry == nil {
		return nil, errors.New("Scene " + br.ID + " has no geometry")
	}
	f := geojson.NewFeature(br.Geometry)
	f.ID = br.ID
	f.Properties["collection"] = br.Collection
	f.Properties["cloudCover"] = br.CloudCover
	f.Properties["resolution"] = br.Resolution
	f.Properties["acquiredDate"] = br.AcquiredDate.Format(STACTimeFormat)
	f.Properties["platform"] = br.Platform
	f.Properties["fileFormat"] = string(br.FileFormat)
	f.BBox = geojson.NewBBox(br.Geometry.Bound())
	return f, nil
}

// SceneSearchResult is a barebones search result -- basic data, plus
// optional NDVI statistics
type SceneSearchResult struct {
	BasicSceneResult
	*NDVIStats
}

// GeoJSONFeature implements the GeoJSONFeatureCreator interface
func (result SceneSearchResult) GeoJSONFeature() (*geojson.Feature, error) {
	feature, err := result.BasicSceneResult.GeoJSONFeature()
	if err != nil {
		return nil, err
	}

	if result.NDVIStats != nil {
		if err = result.NDVIStats.Apply(feature); err != nil {
			return nil, err
		}
	}

	return feature, nil
}

// LandsatSceneResult represents a Landsat 8 result with its band assets
type LandsatSceneResult struct {
	BasicSceneResult
	LandsatBands
	*NDVIStats
}

// GeoJSONFeature implements the GeoJSONFeatureCreator interface
func (result LandsatSceneResult) GeoJSONFeature() (*geojson.Feature, error) {
	feature, err := result.BasicSceneResult.GeoJSONFeature()
	if err != nil {
		return nil, err
	}

	if err = result.LandsatBands.Apply(feature); err != nil {
		return nil, err
	}

	if result.NDVIStats != nil {
		if err = result.NDVIStats.Apply(feature); err != nil {
			return nil, err
		}
	}

	return feature, nil
}

// MultiSceneResult is a container type for bundling multiple results together,
// e.g. as results from a search endpoint
type MultiSceneResult struct {
	FeatureCreators []GeoJSONFeatureCreator
}

// GeoJSONFeatureCollection implements the GeoJSONFeatureCollectionCreator interface
func (result MultiSceneResult) GeoJSONFeatureCollection() (*geojson.FeatureCollection, error) {
	fc := geojson.NewFeatureCollection()
	for _, creator := range result.FeatureCreators {
		feature, err := creator.GeoJSONFeature()
		if err != nil {
			return nil, err
		}
		fc.Append(feature)
	}

	return fc, nil
}
