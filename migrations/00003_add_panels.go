package migration

import (
	"database/sql"

	"github.com/pressly/goose"
)

func init() {
	goose.AddMigration(Up00003, Down00003)
}

// Up00003 adds the region/year panel table
func Up00003(tx *sql.Tx) error {
	_, err := tx.Exec(`
	CREATE TABLE public.panels
	(
		run text NOT NULL,
		region text NOT NULL,
		year integer NOT NULL,
		point_count integer NOT NULL,
		features bytea NOT NULL,
		CONSTRAINT panels_pk PRIMARY KEY (run, region, year)
	);`)
	return err
}

// Down00003 undoes the effects of Up00003
func Down00003(tx *sql.Tx) error {
	_, err := tx.Exec(`DROP TABLE IF EXISTS public.panels;`)
	return err
}
