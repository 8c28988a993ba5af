package migration

import (
	"database/sql"

	"github.com/pressly/goose"
)

func init() {
	goose.AddMigration(Up00002, Down00002)
}

// Up00002 adds storage for extracted point features. Vectors are kept as
// compressed blobs since their width depends on the run.
func Up00002(tx *sql.Tx) error {
	_, err := tx.Exec(`
	CREATE TABLE public.point_features
	(
		run text NOT NULL,
		point_id text NOT NULL,
		lon double precision NOT NULL,
		lat double precision NOT NULL,
		region text NOT NULL DEFAULT '',
		year integer NOT NULL DEFAULT 0,
		scene_id text NOT NULL DEFAULT '',
		features bytea,
		CONSTRAINT point_features_pk PRIMARY KEY (run, point_id)
	);`)
	return err
}

// Down00002 undoes the effects of Up00002
func Down00002(tx *sql.Tx) error {
	_, err := tx.Exec(`DROP TABLE IF EXISTS public.point_features;`)
	return err
}
