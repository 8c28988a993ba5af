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
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// HTTPErr is returned when an upstream service answers with a failure status
type HTTPErr struct {
	Status  int
	Message string
}

func (err HTTPErr) Error() string {
	return fmt.Sprintf("%d: %s", err.Status, err.Message)
}

// Error describes an upstream response that could not be understood
type Error struct {
	LogMsg     string
	SimpleMsg  string
	Response   string
	URL        string
	HTTPStatus int
}

func (err Error) Error() string {
	if err.SimpleMsg != "" {
		return err.SimpleMsg
	}
	return err.LogMsg
}

// Log writes the full error detail to the log and returns the short form
func (err Error) Log(ctx LogContext, prepend string) error {
	message := err.LogMsg
	if message == "" {
		message = err.SimpleMsg
	}
	if prepend != "" {
		message = prepend + ": " + message
	}
	if err.URL != "" {
		message = fmt.Sprintf("%s\nURL: %s", message, err.URL)
	}
	if err.HTTPStatus != 0 {
		message = fmt.Sprintf("%s\nStatus: %d", message, err.HTTPStatus)
	}
	if err.Response != "" {
		message = fmt.Sprintf("%s\nResponse: %s", message, err.Response)
	}
	LogAlert(ctx, message)
	return err
}

var httpClient = &http.Client{Timeout: 2 * time.Minute}

// HTTPClient returns the shared client used for upstream requests
func HTTPClient() *http.Client {
	return httpClient
}

// HTTPError writes an error response and logs it
func HTTPError(request *http.Request, writer http.ResponseWriter, ctx LogContext, message string, status int) {
	LogAudit(ctx, LogAuditInput{
		Actor: request.URL.String(), Action: request.Method + " response", Actee: request.RemoteAddr,
		Message: message, Severity: WARNING,
	})
	http.Error(writer, message, status)
}

// ReqByObjJSON marshals input as JSON, sends it and decodes the JSON response
// into output. Non-2xx responses are returned as HTTPErr.
func ReqByObjJSON(ctx context.Context, method, url string, input interface{}, output interface{}) (*http.Response, error) {
	var body io.Reader
	if input != nil {
		payload, err := json.Marshal(input)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(payload)
	}
	request, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, err
	}
	if input != nil {
		request.Header.Set("Content-Type", "application/json")
	}
	request.Header.Set("Accept", "application/json")

	response, err := HTTPClient().Do(request)
	if err != nil {
		return nil, err
	}
	defer response.Body.Close()

	responseBody, err := io.ReadAll(response.Body)
	if err != nil {
		return response, err
	}
	if response.StatusCode < 200 || response.StatusCode > 299 {
		return response, HTTPErr{Status: response.StatusCode, Message: string(responseBody)}
	}
	if output != nil {
		if err = json.Unmarshal(responseBody, output); err != nil {
			return response, Error{
				LogMsg:     "Failed to unmarshal response: " + err.Error(),
				SimpleMsg:  "Upstream service returned an unexpected response.",
				Response:   string(responseBody),
				URL:        url,
				HTTPStatus: response.StatusCode,
			}
		}
	}
	return response, nil
}
