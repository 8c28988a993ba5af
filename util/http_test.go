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

package util

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

type echoRequest struct {
	Name string `json:"name"`
}

func TestReqByObjJSON_Success(t *testing.T) {
	// Mock
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		w.Write([]byte(`{"name":"echoed"}`))
	}))
	defer server.Close()
	var out echoRequest

	// Tested code
	_, err := ReqByObjJSON(context.Background(), "POST", server.URL, echoRequest{Name: "in"}, &out)

	// Asserts
	assert.Nil(t, err)
	assert.Equal(t, "echoed", out.Name)
}

func TestReqByObjJSON_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte("nope"))
	}))
	defer server.Close()

	_, err := ReqByObjJSON(context.Background(), "GET", server.URL, nil, nil)

	assert.IsType(t, HTTPErr{}, err)
	assert.Equal(t, http.StatusForbidden, err.(HTTPErr).Status)
}

func TestReqByObjJSON_BadBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer server.Close()
	var out echoRequest

	_, err := ReqByObjJSON(context.Background(), "GET", server.URL, nil, &out)

	assert.IsType(t, Error{}, err)
	assert.Equal(t, server.URL, err.(Error).URL)
}
