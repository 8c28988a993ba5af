package migration

import (
	"database/sql"

	"github.com/pressly/goose"
)

func init() {
	goose.AddMigration(Up00001, Down00001)
}

//Up00001 creates the scene index table
func Up00001(tx *sql.Tx) error {
	err := addTables(tx)

	if err == nil {
		err = addIndexes(tx)
	}

	return err
}

//Down00001 undoes the db changes.
func Down00001(tx *sql.Tx) error {
	_, err := tx.Exec(`DROP TABLE IF EXISTS public.scenes;`)
	return err
}

func addTables(tx *sql.Tx) error {
	_, err := tx.Exec(`
	CREATE EXTENSION IF NOT EXISTS postgis;

	CREATE TABLE public.scenes
	(
		id text COLLATE pg_catalog."default" NOT NULL,
		collection text COLLATE pg_catalog."default" NOT NULL,
		acquired timestamp with time zone NOT NULL,
		cloud_cover real,
		geom geometry(Geometry, 4326) NOT NULL,
		item jsonb NOT NULL,
		updated_at timestamp with time zone NOT NULL DEFAULT now(),
		CONSTRAINT scenes_pk_id PRIMARY KEY (id)
	);
	`)
	return err
}

func addIndexes(tx *sql.Tx) error {
	_, err := tx.Exec(`
		CREATE INDEX idx_scenes_geom
		ON public.scenes USING gist
		(geom);

		CREATE INDEX idx_scenes_collection_acquired
		ON public.scenes (collection, acquired);
		`)
	return err
}
