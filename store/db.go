package store

import (
	"database/sql"
	"errors"
	"fmt"
	"net/url"

	// registers the postgres driver
	_ "github.com/lib/pq"
	"github.com/venicegeo/bf-mosaiks/util"
)

//ConnectionProvider is a function that can provide a database connection.
type ConnectionProvider func(util.LogContext) (*sql.DB, error)

//Open opens and pings a postgres connection. sslmode defaults to disable
//because pq expects SSL unless told otherwise.
func Open(ctx util.LogContext, connStr string) (*sql.DB, error) {
	if connStr == "" {
		return nil, errors.New("Could not get DB connection: no DATABASE_URL given")
	}
	dbURI, err := url.Parse(connStr)
	if err != nil {
		return nil, fmt.Errorf("Could not parse DB connection string: %w", err)
	}
	params := dbURI.Query()
	if params.Get("sslmode") == "" {
		params.Set("sslmode", "disable")
	}
	dbURI.RawQuery = params.Encode()

	redacted := *dbURI
	if redacted.User != nil {
		redacted.User = url.User(redacted.User.Username())
	}
	util.LogInfo(ctx, fmt.Sprintf("Creating database connection at: `%s`", redacted.String()))
	db, err := sql.Open("postgres", dbURI.String())
	if err != nil {
		return nil, err
	}
	if err = db.Ping(); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

//EnvConnectionProvider opens the database named by DATABASE_URL
func EnvConnectionProvider(ctx util.LogContext) (*sql.DB, error) {
	return Open(ctx, util.GetDatabaseURL())
}
