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

package stac

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	orbjson "github.com/paulmach/orb/geojson"
	"github.com/venicegeo/bf-mosaiks/model"
	"github.com/venicegeo/bf-mosaiks/util"
)

const defaultPageSize = 100

// Signer rewrites asset hrefs so they can be read, e.g. by appending a SAS token
type Signer interface {
	SignItem(ctx context.Context, item *Item) error
}

// Client is a thin STAC API client
type Client struct {
	util.BasicLogContext
	BaseURL    string
	Signer     Signer
	HTTPClient *http.Client
}

// NewClient creates a client rooted at baseURL
func NewClient(baseURL string, signer Signer) *Client {
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	return &Client{BaseURL: baseURL, Signer: signer, HTTPClient: util.HTTPClient()}
}

type stacRequestInput struct {
	method   string
	inputURL string
	body     []byte
}

// Search runs an item search and follows next links until the results are
// exhausted or options.MaxItems items have been collected
func (c *Client) Search(ctx context.Context, options SearchOptions) ([]Item, error) {
	body, err := json.Marshal(newSearchRequest(options))
	if err != nil {
		return nil, util.LogSimpleErr(c, fmt.Sprintf("Failed to marshal search request %#v.", options), err)
	}

	var items []Item
	input := stacRequestInput{method: "POST", inputURL: "search", body: body}
	for {
		page, err := c.searchPage(ctx, input)
		if err != nil {
			return nil, err
		}
		for _, item := range page.Features {
			if options.MaxItems > 0 && len(items) >= options.MaxItems {
				break
			}
			if err = c.sign(ctx, &item); err != nil {
				return nil, err
			}
			items = append(items, item)
		}
		if options.MaxItems > 0 && len(items) >= options.MaxItems {
			break
		}

		next := nextLink(page.Links)
		if next == nil || len(page.Features) == 0 {
			break
		}
		if input, err = nextRequestInput(*next, input); err != nil {
			return nil, util.LogSimpleErr(c, "Failed to follow next link.", err)
		}
	}

	util.LogInfo(c, fmt.Sprintf("STAC search returned %d items", len(items)))
	return items, nil
}

// GetItem fetches a single item from a collection
func (c *Client) GetItem(ctx context.Context, collection, id string) (*Item, error) {
	inputURL := "collections/" + url.PathEscape(collection) + "/items/" + url.PathEscape(id)
	response, err := c.stacRequest(ctx, stacRequestInput{method: "GET", inputURL: inputURL})
	if err != nil {
		return nil, err
	}
	defer response.Body.Close()

	if err = c.checkStatus(response, fmt.Sprintf("Failed to get item %s", id)); err != nil {
		return nil, err
	}

	responseBody, _ := io.ReadAll(response.Body)
	var item Item
	if err = json.Unmarshal(responseBody, &item); err != nil {
		stacErr := util.Error{LogMsg: "Failed to Unmarshal item from STAC API: " + err.Error(),
			SimpleMsg:  "The STAC API returned an unexpected response for this item.",
			Response:   string(responseBody),
			URL:        inputURL,
			HTTPStatus: response.StatusCode}
		return nil, stacErr.Log(c, "")
	}
	if err = c.sign(ctx, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

func (c *Client) searchPage(ctx context.Context, input stacRequestInput) (*ItemCollection, error) {
	response, err := c.stacRequest(ctx, input)
	if err != nil {
		return nil, err
	}
	defer response.Body.Close()

	if err = c.checkStatus(response, "Failed to search scenes"); err != nil {
		return nil, err
	}

	responseBody, _ := io.ReadAll(response.Body)
	var page ItemCollection
	if err = json.Unmarshal(responseBody, &page); err != nil {
		stacErr := util.Error{LogMsg: "Failed to Unmarshal search results from STAC API: " + err.Error(),
			SimpleMsg:  "The STAC API returned an unexpected response for this search.",
			Response:   string(responseBody),
			URL:        input.inputURL,
			HTTPStatus: response.StatusCode}
		return nil, stacErr.Log(c, "")
	}
	if page.Type != "" && page.Type != "FeatureCollection" {
		stacErr := util.Error{SimpleMsg: fmt.Sprintf("Expected a FeatureCollection and got %s", page.Type),
			Response: string(responseBody)}
		return nil, stacErr.Log(c, "")
	}
	return &page, nil
}

func (c *Client) checkStatus(response *http.Response, message string) error {
	switch {
	case (response.StatusCode >= 400) && (response.StatusCode < 500):
		message = fmt.Sprintf("%s: %v. ", message, response.Status)
		util.LogAlert(c, message)
		return util.HTTPErr{Status: response.StatusCode, Message: message}
	case response.StatusCode >= 500:
		return util.LogSimpleErr(c, message+".", errors.New(response.Status))
	default:
		return nil
	}
}

func (c *Client) sign(ctx context.Context, item *Item) error {
	if c.Signer == nil {
		return nil
	}
	if err := c.Signer.SignItem(ctx, item); err != nil {
		return util.LogSimpleErr(c, fmt.Sprintf("Failed to sign assets of item %s.", item.ID), err)
	}
	return nil
}

func (c *Client) stacRequest(ctx context.Context, input stacRequestInput) (*http.Response, error) {
	inputURL := input.inputURL
	if !strings.HasPrefix(inputURL, "http://") && !strings.HasPrefix(inputURL, "https://") {
		baseURL, err := url.Parse(c.BaseURL)
		if err != nil {
			return nil, util.LogSimpleErr(c, fmt.Sprintf("Failed to parse %v into a URL.", c.BaseURL), err)
		}
		relativeURL, err := url.Parse(input.inputURL)
		if err != nil {
			return nil, util.LogSimpleErr(c, fmt.Sprintf("Failed to parse %v into a URL.", input.inputURL), err)
		}
		inputURL = baseURL.ResolveReference(relativeURL).String()
	}

	var body io.Reader
	if input.body != nil {
		body = bytes.NewReader(input.body)
	}
	request, err := http.NewRequestWithContext(ctx, input.method, inputURL, body)
	if err != nil {
		return nil, util.LogSimpleErr(c, fmt.Sprintf("Failed to make a new HTTP request for %v.", inputURL), err)
	}
	if input.body != nil {
		request.Header.Set("Content-Type", "application/json")
	}
	request.Header.Set("Accept", "application/geo+json")

	message := "Requesting data from STAC API"
	if len(input.body) > 0 {
		message += ": " + string(input.body)
	}
	util.LogAudit(c, util.LogAuditInput{Actor: "stac/doRequest", Action: input.method, Actee: inputURL, Message: message, Severity: util.DEBUG})

	client := c.HTTPClient
	if client == nil {
		client = util.HTTPClient()
	}
	return client.Do(request)
}

func newSearchRequest(options SearchOptions) searchRequest {
	req := searchRequest{
		Collections: options.Collections,
		IDs:         options.IDs,
		Limit:       options.Limit,
	}
	if req.Limit <= 0 {
		req.Limit = defaultPageSize
	}
	if options.MaxItems > 0 && options.MaxItems < req.Limit {
		req.Limit = options.MaxItems
	}
	if options.Intersects != nil {
		req.Intersects = orbjson.NewGeometry(options.Intersects)
	} else if options.BBox != nil {
		b := *options.BBox
		req.BBox = []float64{b.Min[0], b.Min[1], b.Max[0], b.Max[1]}
	}
	if !options.Start.IsZero() || !options.End.IsZero() {
		req.Datetime = model.FormatSTACInterval(options.Start, options.End)
	}
	if options.MaxCloudCover > 0 {
		req.Query = map[string]map[string]interface{}{
			"eo:cloud_cover": {"lt": options.MaxCloudCover},
		}
	}
	if options.SortByCloudCover {
		req.SortBy = []sortField{{Field: "properties.eo:cloud_cover", Direction: "asc"}}
	}
	return req
}

func nextLink(links []Link) *Link {
	for i := range links {
		if links[i].Rel == "next" {
			return &links[i]
		}
	}
	return nil
}

// nextRequestInput turns a next link into a request. POST links carry the
// body to send; with merge set it is layered over the previous body.
func nextRequestInput(link Link, previous stacRequestInput) (stacRequestInput, error) {
	method := strings.ToUpper(link.Method)
	if method == "" {
		method = "GET"
	}
	if method == "GET" {
		return stacRequestInput{method: "GET", inputURL: link.Href}, nil
	}

	body := map[string]interface{}{}
	if link.Merge && previous.body != nil {
		if err := json.Unmarshal(previous.body, &body); err != nil {
			return stacRequestInput{}, err
		}
	}
	for k, v := range link.Body {
		body[k] = v
	}
	encoded, err := json.Marshal(body)
	if err != nil {
		return stacRequestInput{}, err
	}
	return stacRequestInput{method: method, inputURL: link.Href, body: encoded}, nil
}
