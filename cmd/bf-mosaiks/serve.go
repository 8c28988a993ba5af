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
	"log"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/venicegeo/bf-mosaiks/discover"
	"github.com/venicegeo/bf-mosaiks/util"
	cli "gopkg.in/urfave/cli.v1"
)

func createRouter(c *cli.Context) (*mux.Router, func(), error) {
	items, closeItems, err := newItemSourceFunc(c)
	if err != nil {
		return nil, nil, err
	}
	hc := &discover.Context{
		Items:       items,
		Rasters:     openRasterSourceFunc(),
		Concurrency: util.GetMaxConcurrency(),
	}
	return discover.NewRouter(hc), closeItems, nil
}

func serveAction(c *cli.Context) error {
	logContext := &(util.BasicLogContext{})

	portStr := util.GetPortStr()

	router, closeItems, err := createRouter(c)
	if err != nil {
		return util.LogSimpleErr(logContext, "Failed to create router: ", err)
	}
	defer closeItems()
	util.LogInfo(logContext, "Listening on port "+portStr)
	launchServerFunc(portStr, router)
	return nil
}

var launchServerFunc = launchServer

func launchServer(portStr string, router *mux.Router) {
	server := http.Server{
		Addr:    portStr,
		Handler: router,
	}

	log.Fatal(server.ListenAndServe())
}
