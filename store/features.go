package store

import (
	"context"
	"database/sql"
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/golang/snappy"
	"github.com/venicegeo/bf-mosaiks/model"
	"github.com/venicegeo/bf-mosaiks/panel"
	"github.com/venicegeo/bf-mosaiks/pipeline"
	"github.com/venicegeo/bf-mosaiks/util"
)

//ErrBadVector is returned when a stored feature blob cannot be decoded
var ErrBadVector = errors.New("malformed feature vector")

//EncodeVector packs a vector as little endian float64s, snappy compressed.
//A nil vector encodes to nil.
func EncodeVector(vector []float64) []byte {
	if vector == nil {
		return nil
	}
	raw := make([]byte, 8*len(vector))
	for i, v := range vector {
		binary.LittleEndian.PutUint64(raw[8*i:], math.Float64bits(v))
	}
	return snappy.Encode(nil, raw)
}

//DecodeVector reverses EncodeVector
func DecodeVector(blob []byte) ([]float64, error) {
	if blob == nil {
		return nil, nil
	}
	raw, err := snappy.Decode(nil, blob)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadVector, err)
	}
	if len(raw)%8 != 0 {
		return nil, ErrBadVector
	}
	vector := make([]float64, len(raw)/8)
	for i := range vector {
		vector[i] = math.Float64frombits(binary.LittleEndian.Uint64(raw[8*i:]))
	}
	return vector, nil
}

//FeatureStore keeps the output of extraction runs keyed by run name
type FeatureStore struct {
	util.BasicLogContext
	DB *sql.DB
}

//NewFeatureStore wraps an open database
func NewFeatureStore(db *sql.DB) *FeatureStore {
	return &FeatureStore{DB: db}
}

//SaveFeatures replaces the point features of a run
func (fs *FeatureStore) SaveFeatures(ctx context.Context, run string, rows []pipeline.PointFeatures) error {
	tx, err := fs.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err = tx.ExecContext(ctx, `DELETE FROM public.point_features WHERE run=$1`, run); err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO public.point_features (run, point_id, lon, lat, region, year, scene_id, features)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`)
	if err != nil {
		return util.LogSimpleErr(fs, "Prepare statement failed.", err)
	}
	defer stmt.Close()

	for _, row := range rows {
		p := row.Point
		if _, err = stmt.ExecContext(ctx, run, p.ID, p.Lon, p.Lat, p.Region, p.Year,
			row.SceneID, EncodeVector(row.Features)); err != nil {
			return fmt.Errorf("Error inserting features of point %s: %w", p.ID, err)
		}
	}
	if err = tx.Commit(); err != nil {
		return err
	}
	util.LogInfo(fs, fmt.Sprintf("Saved %d point feature rows for run %s", len(rows), run))
	return nil
}

//LoadFeatures returns the point features of a run ordered by point ID
func (fs *FeatureStore) LoadFeatures(ctx context.Context, run string) ([]pipeline.PointFeatures, error) {
	rows, err := fs.DB.QueryContext(ctx, `
		SELECT point_id, lon, lat, region, year, scene_id, features
		FROM public.point_features WHERE run=$1 ORDER BY point_id`, run)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []pipeline.PointFeatures
	for rows.Next() {
		var row pipeline.PointFeatures
		var p model.Point
		var blob []byte
		if err = rows.Scan(&p.ID, &p.Lon, &p.Lat, &p.Region, &p.Year, &row.SceneID, &blob); err != nil {
			return nil, err
		}
		if row.Features, err = DecodeVector(blob); err != nil {
			return nil, fmt.Errorf("point %s: %w", p.ID, err)
		}
		row.Point = p
		result = append(result, row)
	}
	return result, rows.Err()
}

//SavePanels replaces the region/year panels of a run
func (fs *FeatureStore) SavePanels(ctx context.Context, run string, panels []panel.Panel) error {
	tx, err := fs.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err = tx.ExecContext(ctx, `DELETE FROM public.panels WHERE run=$1`, run); err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO public.panels (run, region, year, point_count, features)
		VALUES ($1, $2, $3, $4, $5)`)
	if err != nil {
		return util.LogSimpleErr(fs, "Prepare statement failed.", err)
	}
	defer stmt.Close()

	for _, p := range panels {
		if _, err = stmt.ExecContext(ctx, run, p.Region, p.Year, p.Count, EncodeVector(p.Features)); err != nil {
			return fmt.Errorf("Error inserting panel %s/%d: %w", p.Region, p.Year, err)
		}
	}
	return tx.Commit()
}

//LoadPanels returns the panels of a run ordered by region then year
func (fs *FeatureStore) LoadPanels(ctx context.Context, run string) ([]panel.Panel, error) {
	rows, err := fs.DB.QueryContext(ctx, `
		SELECT region, year, point_count, features
		FROM public.panels WHERE run=$1 ORDER BY region, year`, run)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []panel.Panel
	for rows.Next() {
		var p panel.Panel
		var blob []byte
		if err = rows.Scan(&p.Region, &p.Year, &p.Count, &blob); err != nil {
			return nil, err
		}
		if p.Features, err = DecodeVector(blob); err != nil {
			return nil, fmt.Errorf("panel %s/%d: %w", p.Region, p.Year, err)
		}
		result = append(result, p)
	}
	return result, rows.Err()
}
