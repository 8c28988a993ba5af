package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"
	orbjson "github.com/paulmach/orb/geojson"
	"github.com/venicegeo/bf-mosaiks/catalog"
	"github.com/venicegeo/bf-mosaiks/stac"
	"github.com/venicegeo/bf-mosaiks/util"
)

//ErrNotFound is returned when a scene is not in the index
var ErrNotFound = errors.New("scene not found")

const upsertSceneStatement = `
	INSERT INTO public.scenes (id, collection, acquired, cloud_cover, geom, item, updated_at)
	VALUES ($1, $2, $3, $4, ST_SetSRID(ST_GeomFromGeoJSON($5), 4326), $6, now())
	ON CONFLICT (id) DO UPDATE SET
		collection = EXCLUDED.collection,
		acquired = EXCLUDED.acquired,
		cloud_cover = EXCLUDED.cloud_cover,
		geom = EXCLUDED.geom,
		item = EXCLUDED.item,
		updated_at = now()
	WHERE scenes.item IS DISTINCT FROM EXCLUDED.item`

//SceneIndex is a postgres/PostGIS copy of STAC search results
type SceneIndex struct {
	util.BasicLogContext
	DB *sql.DB
}

//NewSceneIndex wraps an open database
func NewSceneIndex(db *sql.DB) *SceneIndex {
	return &SceneIndex{DB: db}
}

//UpsertItems inserts new items and updates changed ones in one transaction.
//It returns how many rows were written.
func (si *SceneIndex) UpsertItems(ctx context.Context, items []stac.Item) (int, error) {
	tx, err := si.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, upsertSceneStatement)
	if err != nil {
		return 0, util.LogSimpleErr(si, "Prepare statement failed.", err)
	}
	defer stmt.Close()

	written := 0
	for _, item := range items {
		values, err := sceneValues(item)
		if err != nil {
			return written, err
		}
		result, err := stmt.ExecContext(ctx, values...)
		if err != nil {
			return written, fmt.Errorf("Error inserting scene %s into db: %w", item.ID, err)
		}
		if n, err := result.RowsAffected(); err == nil {
			written += int(n)
		}
	}
	if err = tx.Commit(); err != nil {
		return 0, err
	}
	return written, nil
}

//sceneValues converts an item to the upsert parameters
func sceneValues(item stac.Item) ([]interface{}, error) {
	geometry, err := item.OrbGeometry()
	if err != nil {
		return nil, err
	}
	geometryJSON, err := json.Marshal(orbjson.NewGeometry(geometry))
	if err != nil {
		return nil, err
	}
	acquired, err := item.AcquiredDate()
	if err != nil {
		return nil, fmt.Errorf("item %s: %w", item.ID, err)
	}
	itemJSON, err := json.Marshal(item)
	if err != nil {
		return nil, err
	}
	var cloudCover interface{}
	if item.Properties.CloudCover != nil {
		cloudCover = *item.Properties.CloudCover
	}
	return []interface{}{item.ID, item.Collection, acquired, cloudCover, string(geometryJSON), itemJSON}, nil
}

//buildSearch renders the scene query. Zero values of optional fields add no
//condition.
func buildSearch(query catalog.Query) (string, []interface{}) {
	var conditions []string
	var args []interface{}
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	b := query.BBox
	conditions = append(conditions, fmt.Sprintf("geom && ST_MakeEnvelope(%s, %s, %s, %s, 4326)",
		arg(b.Min[0]), arg(b.Min[1]), arg(b.Max[0]), arg(b.Max[1])))
	if len(query.Collections) > 0 {
		conditions = append(conditions, "collection = ANY("+arg(pq.Array(query.Collections))+")")
	}
	if !query.Start.IsZero() {
		conditions = append(conditions, "acquired >= "+arg(query.Start))
	}
	if !query.End.IsZero() {
		conditions = append(conditions, "acquired <= "+arg(query.End))
	}
	if query.MaxCloudCover > 0 {
		conditions = append(conditions, "cloud_cover < "+arg(query.MaxCloudCover))
	}

	sqlText := "SELECT item FROM public.scenes WHERE " + strings.Join(conditions, " AND ") +
		" ORDER BY cloud_cover ASC NULLS LAST, acquired DESC, id ASC"
	if query.Limit > 0 {
		sqlText += " LIMIT " + arg(query.Limit)
	}
	return sqlText, args
}

//SearchScenes answers a catalog query from the index, least cloudy first
func (si *SceneIndex) SearchScenes(ctx context.Context, query catalog.Query) ([]stac.Item, error) {
	sqlText, args := buildSearch(query)
	rows, err := si.DB.QueryContext(ctx, sqlText, args...)
	if err != nil {
		return nil, util.LogSimpleErr(si, "Scene index query failed.", err)
	}
	defer rows.Close()

	var items []stac.Item
	for rows.Next() {
		var raw []byte
		if err = rows.Scan(&raw); err != nil {
			return nil, err
		}
		var item stac.Item
		if err = json.Unmarshal(raw, &item); err != nil {
			return nil, fmt.Errorf("stored item is not valid JSON: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

//GetItem returns one stored item
func (si *SceneIndex) GetItem(ctx context.Context, collection, id string) (*stac.Item, error) {
	var raw []byte
	err := si.DB.QueryRowContext(ctx,
		`SELECT item FROM public.scenes WHERE id=$1 AND collection=$2 LIMIT 1`, id, collection).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var item stac.Item
	if err = json.Unmarshal(raw, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

//Maintain refreshes planner statistics after a bulk import
func (si *SceneIndex) Maintain(ctx context.Context) error {
	_, err := si.DB.ExecContext(ctx, `ANALYZE public.scenes`)
	return err
}
