package main

import (
	"database/sql"

	"github.com/venicegeo/bf-mosaiks/store"
	"github.com/venicegeo/bf-mosaiks/util"
)

//getDbConnection opens a new database connection from DATABASE_URL.
func getDbConnection(ctx util.LogContext) (*sql.DB, error) {
	return store.Open(ctx, util.GetDatabaseURL())
}

var getDbConnectionFunc store.ConnectionProvider = getDbConnection
