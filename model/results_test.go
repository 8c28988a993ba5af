package model

import (
	"testing"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"
)

// General test mocks and utils

var mockPolygon = orb.Polygon{orb.Ring{
	{30, 10}, {40, 40}, {20, 40}, {10, 20}, {30, 10},
}}

var mockBasicSceneResult = BasicSceneResult{
	ID:           "LC08_L2SP_149039_20170411_20200904_02_T1",
	Collection:   "landsat-c2-l2",
	Geometry:     mockPolygon,
	CloudCover:   12.5,
	AcquiredDate: time.Date(2017, 4, 11, 5, 36, 29, 0, time.UTC),
	Platform:     "landsat-8",
	Resolution:   30,
	FileFormat:   COG,
}

var mockNDVIStats = NDVIStats{Mean: 0.5, Min: 0.1, Max: 0.8, ValidPixels: 10, TotalPixels: 12}

func assertFeatureContainsBasicSceneResult(t *testing.T, feature *geojson.Feature, result BasicSceneResult) {
	assert.Equal(t, result.ID, feature.ID)
	assert.Equal(t, result.Collection, feature.Properties.MustString("collection"))
	assert.Equal(t, result.Platform, feature.Properties.MustString("platform"))
	assert.Equal(t, result.AcquiredDate.Format(STACTimeFormat), feature.Properties.MustString("acquiredDate"))
	assert.Equal(t, result.CloudCover, feature.Properties.MustFloat64("cloudCover"))
	assert.Equal(t, result.Resolution, feature.Properties.MustFloat64("resolution"))
	assert.Equal(t, geojson.NewBBox(result.Geometry.Bound()), feature.BBox)
}

// Actual tests

func TestBasicSceneResult_GeoJSONFeature(t *testing.T) {
	// Tested code
	feature, err := mockBasicSceneResult.GeoJSONFeature()

	// Asserts
	assert.Nil(t, err)
	assert.NotNil(t, feature)
	assertFeatureContainsBasicSceneResult(t, feature, mockBasicSceneResult)
	assert.Equal(t, []float64{10, 10, 40, 40}, []float64(feature.BBox))
}

func TestBasicSceneResult_GeoJSONFeature_NoGeometry(t *testing.T) {
	result := mockBasicSceneResult
	result.Geometry = nil

	_, err := result.GeoJSONFeature()

	assert.NotNil(t, err)
}

func TestSceneSearchResult_GeoJSONFeature_NoNDVI(t *testing.T) {
	result := SceneSearchResult{BasicSceneResult: mockBasicSceneResult}

	feature, err := result.GeoJSONFeature()

	assert.Nil(t, err)
	assertFeatureContainsBasicSceneResult(t, feature, mockBasicSceneResult)
	assert.NotContains(t, feature.Properties, "ndviMean")
}

func TestSceneSearchResult_GeoJSONFeature_WithNDVI(t *testing.T) {
	result := SceneSearchResult{BasicSceneResult: mockBasicSceneResult, NDVIStats: &mockNDVIStats}

	feature, err := result.GeoJSONFeature()

	assert.Nil(t, err)
	assertFeatureContainsBasicSceneResult(t, feature, mockBasicSceneResult)
	assert.Equal(t, 0.5, feature.Properties.MustFloat64("ndviMean"))
}

func TestLandsatSceneResult_GeoJSONFeature(t *testing.T) {
	// Mock
	bands, _ := NewLandsatBands(map[string]string{"red": "https://example.localhost/B4.TIF"})
	result := LandsatSceneResult{
		BasicSceneResult: mockBasicSceneResult,
		LandsatBands:     *bands,
		NDVIStats:        &mockNDVIStats,
	}

	// Tested code
	feature, err := result.GeoJSONFeature()

	// Asserts
	assert.Nil(t, err)
	assertFeatureContainsBasicSceneResult(t, feature, mockBasicSceneResult)
	assert.Equal(t, "https://example.localhost/B4.TIF", feature.Properties["bands"].(map[string]string)["red"])
	assert.Equal(t, 12, feature.Properties.MustInt("ndviTotalPixels"))
}

func TestMultiSceneResult_GeoJSONFeatureCollection(t *testing.T) {
	// Mock
	result := MultiSceneResult{
		FeatureCreators: []GeoJSONFeatureCreator{mockBasicSceneResult, mockBasicSceneResult, mockBasicSceneResult},
	}

	// Tested code
	fc, err := result.GeoJSONFeatureCollection()

	// Asserts
	assert.Nil(t, err)
	assert.NotNil(t, fc)
	assert.Len(t, fc.Features, 3)
	for _, feature := range fc.Features {
		assertFeatureContainsBasicSceneResult(t, feature, mockBasicSceneResult)
	}
}
