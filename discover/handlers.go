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
package discover

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/venicegeo/bf-mosaiks/util"
)

// DiscoverHandler is a handler for /discover/{collection}
// @Title discoverHandler
// @Description discovers scenes in a STAC collection
// @Accept  plain
// @Param   bbox            query   string  true         "The bounding box, as a GeoJSON Bounding box (x1,y1,x2,y2)"
// @Param   cloudCover      query   string  false        "The maximum cloud cover, as a percentage (0-100)"
// @Param   acquiredDate    query   string  false        "The minimum (earliest) acquired date, as RFC 3339"
// @Param   maxAcquiredDate query   string  false        "The maximum acquired date, as RFC 3339"
// @Param   ndvi            query   bool    false        "True: add NDVI statistics over the bounding box"
// @Param   limit           query   int     false        "The maximum number of scenes returned"
// @Success 200 {object}  geojson.FeatureCollection
// @Failure 400 {object}  string
// @Router /discover/{collection} [get]
type DiscoverHandler struct {
	Context *Context
}

// NewDiscoverHandler creates a new handler over the shared context
func NewDiscoverHandler(hc *Context) *DiscoverHandler {
	return &DiscoverHandler{Context: hc}
}

// ServeHTTP implements the http.Handler interface for the DiscoverHandler type
func (h DiscoverHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	collection := mux.Vars(r)["collection"]
	params, err := parseSearchParams(r)
	if err != nil {
		util.LogAlert(h.Context, err.Error())
		util.HTTPError(r, w, h.Context, err.Error(), http.StatusBadRequest)
		return
	}

	fc, err := discoverScenes(r.Context(), h.Context, collection, params)
	if err != nil {
		message := fmt.Sprintf("Error searching for scenes: %v", err)
		util.LogSimpleErr(h.Context, message, err)
		util.HTTPError(r, w, h.Context, message, statusFor(err))
		return
	}
	writeJSON(w, h.Context, fc)
}

// SceneHandler is a handler for /scene/{collection}/{id}
// @Title sceneHandler
// @Description returns the metadata of one scene
// @Accept  plain
// @Param   id              path    string  true         "The ID of the requested scene"
// @Param   ndvi            query   bool    false        "True: add NDVI statistics over the scene footprint"
// @Success 200 {object}  geojson.Feature
// @Failure 404 {object}  string
// @Router /scene/{collection}/{id} [get]
type SceneHandler struct {
	Context *Context
}

// NewSceneHandler creates a new handler over the shared context
func NewSceneHandler(hc *Context) *SceneHandler {
	return &SceneHandler{Context: hc}
}

func (h SceneHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	sceneID, ok := vars["id"]
	if !ok || sceneID == "" {
		message := "No scene ID found in URL"
		util.LogAlert(h.Context, message)
		util.HTTPError(r, w, h.Context, message, http.StatusNotFound)
		return
	}
	withNDVI := false
	if raw := r.FormValue("ndvi"); raw != "" {
		var err error
		if withNDVI, err = strconv.ParseBool(raw); err != nil {
			message := errBadParam{"ndvi", raw}.Error()
			util.HTTPError(r, w, h.Context, message, http.StatusBadRequest)
			return
		}
	}

	feature, err := sceneFeature(r.Context(), h.Context, vars["collection"], sceneID, withNDVI)
	if err != nil {
		status := statusFor(err)
		message := fmt.Sprintf("Server error getting scene: %v", err)
		if status == http.StatusNotFound {
			message = fmt.Sprintf("Scene not found: %s", sceneID)
			util.LogInfo(h.Context, message)
		} else {
			util.LogSimpleErr(h.Context, message, err)
		}
		util.HTTPError(r, w, h.Context, message, status)
		return
	}
	writeJSON(w, h.Context, feature)
}

// NewRouter mounts the discover handlers and a health check
func NewRouter(hc *Context) *mux.Router {
	router := mux.NewRouter()
	router.HandleFunc("/", func(writer http.ResponseWriter, request *http.Request) {
		writer.Write([]byte("OK"))
	})
	router.Handle("/discover/{collection}", NewDiscoverHandler(hc)).Methods("GET")
	router.Handle("/scene/{collection}/{id}", NewSceneHandler(hc)).Methods("GET")
	return router
}

// statusFor maps a failure to a response status. Failures of the upstream
// catalog are reported as bad gateway.
func statusFor(err error) int {
	var httpErr util.HTTPErr
	var upstreamErr util.Error
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.As(err, &httpErr):
		if httpErr.Status == http.StatusNotFound {
			return http.StatusNotFound
		}
		return http.StatusBadGateway
	case errors.As(err, &upstreamErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

type jsonMarshaler interface {
	MarshalJSON() ([]byte, error)
}

func writeJSON(w http.ResponseWriter, ctx util.LogContext, value jsonMarshaler) {
	body, err := value.MarshalJSON()
	if err != nil {
		util.LogSimpleErr(ctx, "Error converting to geojson", err)
		http.Error(w, "Error converting to geojson", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/geo+json")
	w.Write(body)
}
