package main

import (
	"fmt"

	"github.com/pressly/goose"
	cli "gopkg.in/urfave/cli.v1"

	_ "github.com/venicegeo/bf-mosaiks/migrations"
	"github.com/venicegeo/bf-mosaiks/util"
)

func migrateDatabaseAction(c *cli.Context) error {
	logContext := &util.BasicLogContext{}
	database, err := getDbConnectionFunc(logContext)
	if err != nil {
		return util.LogSimpleErr(logContext, "Could not open database connection.", err)
	}
	defer database.Close()

	if err = goose.SetDialect("postgres"); err != nil {
		return err
	}
	command := "up"
	if c.Bool("down") {
		command = "down"
	}
	if err = goose.Run(command, database, "."); err != nil {
		return fmt.Errorf("migrate %s: %w", command, err)
	}
	return nil
}
