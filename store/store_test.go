package store

import (
	"context"
	"database/sql"
	"math"
	"os"
	"testing"
	"time"

	"github.com/paulmach/orb"
	"github.com/pressly/goose"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/venicegeo/bf-mosaiks/catalog"
	"github.com/venicegeo/bf-mosaiks/model"
	"github.com/venicegeo/bf-mosaiks/panel"
	"github.com/venicegeo/bf-mosaiks/pipeline"
	"github.com/venicegeo/bf-mosaiks/stac"
	"github.com/venicegeo/bf-mosaiks/util"

	// registers the schema
	_ "github.com/venicegeo/bf-mosaiks/migrations"
)

func TestEncodeVector(t *testing.T) {
	vector := []float64{0, 1.5, -2.25, math.Inf(1), 1e-300}

	// Tested code
	decoded, err := DecodeVector(EncodeVector(vector))

	// Asserts
	require.Nil(t, err)
	assert.Equal(t, vector, decoded)
}

func TestEncodeVector_NilAndEmpty(t *testing.T) {
	assert.Nil(t, EncodeVector(nil))
	decoded, err := DecodeVector(nil)
	assert.Nil(t, err)
	assert.Nil(t, decoded)

	decoded, err = DecodeVector(EncodeVector([]float64{}))
	assert.Nil(t, err)
	assert.NotNil(t, decoded)
	assert.Len(t, decoded, 0)
}

func TestDecodeVector_Malformed(t *testing.T) {
	_, err := DecodeVector([]byte("definitely not snappy"))
	assert.ErrorIs(t, err, ErrBadVector)
}

func TestBuildSearch_AllConditions(t *testing.T) {
	query := catalog.Query{
		Collections:   []string{"landsat-c2-l2"},
		BBox:          orb.Bound{Min: orb.Point{1, 2}, Max: orb.Point{3, 4}},
		Start:         time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
		End:           time.Date(2020, 12, 31, 0, 0, 0, 0, time.UTC),
		MaxCloudCover: 20,
		Limit:         50,
	}

	// Tested code
	sqlText, args := buildSearch(query)

	// Asserts
	assert.Contains(t, sqlText, "geom && ST_MakeEnvelope($1, $2, $3, $4, 4326)")
	assert.Contains(t, sqlText, "collection = ANY($5)")
	assert.Contains(t, sqlText, "acquired >= $6")
	assert.Contains(t, sqlText, "acquired <= $7")
	assert.Contains(t, sqlText, "cloud_cover < $8")
	assert.Contains(t, sqlText, "ORDER BY cloud_cover ASC NULLS LAST, acquired DESC, id ASC LIMIT $9")
	require.Len(t, args, 9)
	assert.Equal(t, 1.0, args[0])
	assert.Equal(t, 4.0, args[3])
	assert.Equal(t, 20.0, args[7])
	assert.Equal(t, 50, args[8])
}

func TestBuildSearch_BoundOnly(t *testing.T) {
	sqlText, args := buildSearch(catalog.Query{BBox: orb.Bound{Max: orb.Point{1, 1}}})

	assert.Len(t, args, 4)
	assert.NotContains(t, sqlText, "LIMIT")
	assert.NotContains(t, sqlText, "cloud_cover <")
	assert.NotContains(t, sqlText, "acquired >=")
}

func TestOpen_NoURL(t *testing.T) {
	_, err := Open(&util.BasicLogContext{}, "")
	assert.NotNil(t, err)
}

func TestSceneValues(t *testing.T) {
	cloud := 12.5
	item := stac.Item{
		ID:         "LC08_X",
		Collection: "landsat-c2-l2",
		BBox:       []float64{1, 2, 3, 4},
		Properties: stac.Properties{Datetime: "2021-06-01T10:00:00Z", CloudCover: &cloud},
	}

	// Tested code
	values, err := sceneValues(item)

	// Asserts
	require.Nil(t, err)
	require.Len(t, values, 6)
	assert.Equal(t, "LC08_X", values[0])
	assert.Equal(t, "landsat-c2-l2", values[1])
	assert.Equal(t, 12.5, values[3])
	assert.Contains(t, values[4], `"Polygon"`)
}

func TestSceneValues_BadDate(t *testing.T) {
	item := stac.Item{ID: "x", BBox: []float64{1, 2, 3, 4}, Properties: stac.Properties{Datetime: "yesterday"}}
	_, err := sceneValues(item)
	assert.NotNil(t, err)
}

// testDB connects to TEST_DATABASE_URL and migrates it. Tests needing postgres
// with PostGIS are skipped when it is unset.
func testDB(t *testing.T) *sql.DB {
	connStr := os.Getenv("TEST_DATABASE_URL")
	if connStr == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	db, err := Open(&util.BasicLogContext{}, connStr)
	require.Nil(t, err)
	require.Nil(t, goose.SetDialect("postgres"))
	require.Nil(t, goose.Run("up", db, "."))
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSceneIndex_Postgres(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	index := NewSceneIndex(db)
	_, err := db.Exec(`DELETE FROM public.scenes WHERE id LIKE 'store_test_%'`)
	require.Nil(t, err)

	cloudy, clear := 40.0, 5.0
	items := []stac.Item{
		{ID: "store_test_cloudy", Collection: "landsat-c2-l2", BBox: []float64{10, 10, 11, 11},
			Properties: stac.Properties{Datetime: "2021-06-01T10:00:00Z", CloudCover: &cloudy}},
		{ID: "store_test_clear", Collection: "landsat-c2-l2", BBox: []float64{10, 10, 11, 11},
			Properties: stac.Properties{Datetime: "2021-07-01T10:00:00Z", CloudCover: &clear}},
	}

	// Tested code
	written, err := index.UpsertItems(ctx, items)
	require.Nil(t, err)
	assert.Equal(t, 2, written)

	written, err = index.UpsertItems(ctx, items)
	require.Nil(t, err)
	assert.Equal(t, 0, written)

	found, err := index.SearchScenes(ctx, catalog.Query{
		Collections: []string{"landsat-c2-l2"},
		BBox:        orb.Bound{Min: orb.Point{10.2, 10.2}, Max: orb.Point{10.4, 10.4}},
		Start:       time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC),
		End:         time.Date(2021, 12, 31, 0, 0, 0, 0, time.UTC),
	})
	require.Nil(t, err)
	require.True(t, len(found) >= 2)
	assert.Equal(t, "store_test_clear", found[0].ID)

	item, err := index.GetItem(ctx, "landsat-c2-l2", "store_test_cloudy")
	require.Nil(t, err)
	assert.Equal(t, 40.0, item.CloudCover())

	_, err = index.GetItem(ctx, "landsat-c2-l2", "store_test_missing")
	assert.Equal(t, ErrNotFound, err)
	assert.Nil(t, index.Maintain(ctx))
}

func TestFeatureStore_Postgres(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	fs := NewFeatureStore(db)

	rows := []pipeline.PointFeatures{
		{Point: model.Point{ID: "b", Lon: 1, Lat: 2, Region: "r1", Year: 2020}, SceneID: "s", Features: []float64{1, 2}},
		{Point: model.Point{ID: "a", Lon: 3, Lat: 4, Region: "r1", Year: 2020}},
	}
	panels := []panel.Panel{{Region: "r1", Year: 2020, Count: 1, Features: []float64{1, 2}}}

	// Tested code
	require.Nil(t, fs.SaveFeatures(ctx, "store_test", rows))
	require.Nil(t, fs.SavePanels(ctx, "store_test", panels))
	loaded, err := fs.LoadFeatures(ctx, "store_test")
	require.Nil(t, err)
	loadedPanels, err := fs.LoadPanels(ctx, "store_test")
	require.Nil(t, err)

	// Asserts
	require.Len(t, loaded, 2)
	assert.Equal(t, "a", loaded[0].Point.ID)
	assert.Nil(t, loaded[0].Features)
	assert.Equal(t, []float64{1, 2}, loaded[1].Features)
	assert.Equal(t, panels, loadedPanels)
}
