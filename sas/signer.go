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

package sas

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/venicegeo/bf-mosaiks/model"
	"github.com/venicegeo/bf-mosaiks/stac"
	"github.com/venicegeo/bf-mosaiks/util"
)

// blobHostSuffix marks asset hosts that need a token
const blobHostSuffix = ".blob.core.windows.net"

// renewBefore is how long before expiry a cached token is replaced
const renewBefore = 5 * time.Minute

// Token is a shared access signature for one collection's storage container
type Token struct {
	Token  string `json:"token"`
	Expiry string `json:"msft:expiry"`
}

type cachedToken struct {
	token   string
	expires time.Time
}

// Signer appends SAS tokens to blob storage hrefs
type Signer struct {
	util.BasicLogContext
	TokenURL string

	mutex sync.Mutex
	cache map[string]cachedToken
	now   func() time.Time
}

// NewSigner creates a signer fetching tokens from tokenURL/{collection}
func NewSigner(tokenURL string) *Signer {
	return &Signer{
		TokenURL: strings.TrimSuffix(tokenURL, "/"),
		cache:    map[string]cachedToken{},
		now:      time.Now,
	}
}

// SignItem signs every blob storage asset of item in place
func (s *Signer) SignItem(ctx context.Context, item *stac.Item) error {
	if item.Collection == "" {
		return errors.New("Item " + item.ID + " has no collection to sign for")
	}
	for key, asset := range item.Assets {
		if !needsSigning(asset.Href) {
			continue
		}
		signed, err := s.SignHref(ctx, item.Collection, asset.Href)
		if err != nil {
			return err
		}
		asset.Href = signed
		item.Assets[key] = asset
	}
	return nil
}

// SignHref appends the collection token to href
func (s *Signer) SignHref(ctx context.Context, collection, href string) (string, error) {
	token, err := s.token(ctx, collection)
	if err != nil {
		return "", err
	}
	separator := "?"
	if strings.Contains(href, "?") {
		separator = "&"
	}
	return href + separator + token, nil
}

func (s *Signer) token(ctx context.Context, collection string) (string, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if cached, ok := s.cache[collection]; ok && s.now().Add(renewBefore).Before(cached.expires) {
		return cached.token, nil
	}

	tokenURL := s.TokenURL + "/" + url.PathEscape(collection)
	util.LogAudit(s, util.LogAuditInput{Actor: "sas/token", Action: "GET", Actee: tokenURL, Message: "Requesting SAS token", Severity: util.DEBUG})
	var response Token
	if _, err := util.ReqByObjJSON(ctx, "GET", tokenURL, nil, &response); err != nil {
		return "", util.LogSimpleErr(s, fmt.Sprintf("Failed to get SAS token for collection %s.", collection), err)
	}
	if response.Token == "" {
		return "", util.LogSimpleErr(s, fmt.Sprintf("Token endpoint returned no token for collection %s.", collection), nil)
	}
	expires, err := model.ParseSTACTime(response.Expiry)
	if err != nil {
		return "", util.LogSimpleErr(s, "Failed to parse SAS token expiry.", err)
	}

	s.cache[collection] = cachedToken{token: strings.TrimPrefix(response.Token, "?"), expires: expires}
	return s.cache[collection].token, nil
}

func needsSigning(href string) bool {
	parsed, err := url.Parse(href)
	if err != nil {
		return false
	}
	if !strings.HasSuffix(parsed.Hostname(), blobHostSuffix) {
		return false
	}
	return parsed.Query().Get("sig") == ""
}

// NoopSigner leaves hrefs unchanged
type NoopSigner struct{}

// SignItem does nothing
func (NoopSigner) SignItem(ctx context.Context, item *stac.Item) error {
	return nil
}
