// Copyright 2018, RadiantBlue Technologies, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//   http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package main

import (
	"fmt"

	cli "gopkg.in/urfave/cli.v1"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

var commands = cli.Commands{
	cli.Command{
		Name:    "features",
		Aliases: []string{"f"},
		Usage:   "Extract random convolutional features around points",
		Flags:   featuresFlags,
		Action:  featuresAction,
	},
	cli.Command{
		Name:    "ndvi",
		Aliases: []string{"n"},
		Usage:   "Compute NDVI over a bounding box from the least cloudy scene",
		Flags:   ndviFlags,
		Action:  ndviAction,
	},
	cli.Command{
		Name:   "search",
		Usage:  "Print the scenes over a bounding box as GeoJSON",
		Flags:  searchFlags,
		Action: searchAction,
	},
	cli.Command{
		Name:    "regress",
		Aliases: []string{"r"},
		Usage:   "Cross-validate a ridge regression of labels on region/year panels",
		Flags:   regressFlags,
		Action:  regressAction,
	},
	cli.Command{
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "Launch the scene discovery webserver",
		Flags:   []cli.Flag{localIndexFlag},
		Action:  serveAction,
	},
	cli.Command{
		Name:    "index",
		Aliases: []string{"i"},
		Usage:   "Keep the database scene index up to date with the STAC API",
		Flags:   indexFlags,
		Action:  indexAction,
	},
	cli.Command{
		Name:    "migrate",
		Aliases: []string{"m"},
		Usage:   "Update database schema",
		Flags:   []cli.Flag{cli.BoolFlag{Name: "down", Usage: "Roll back the latest migration"}},
		Action:  migrateDatabaseAction,
	},
	cli.Command{
		Name:    "version",
		Aliases: []string{"v"},
		Usage:   "Print the version number of the CLI",
		Action:  versionAction,
	},
}

func versionAction(c *cli.Context) {
	fmt.Fprintln(c.App.Writer, version)
}

func createCliApp() (app *cli.App) {
	app = cli.NewApp()
	app.Name = "bf-mosaiks"
	app.Usage = "Landsat 8 scene discovery, NDVI and MOSAIKS features"
	app.Version = version
	app.Commands = commands
	return
}
