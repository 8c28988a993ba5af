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
	"os"
	"strconv"
	"time"
)

// Environment variables
const (
	STAC_API_URL    = "STAC_API_URL"
	STAC_COLLECTION = "STAC_COLLECTION"
	SAS_TOKEN_URL   = "SAS_TOKEN_URL"
	DATABASE_URL    = "DATABASE_URL"
	PORT            = "PORT"
	LOG_LEVEL       = "LOG_LEVEL"
	INDEX_FREQUENCY = "INDEX_FREQUENCY"
	MAX_CONCURRENCY = "MAX_CONCURRENCY"
)

const (
	defaultSTACURL        = "https://planetarycomputer.microsoft.com/api/stac/v1/"
	defaultCollection     = "landsat-c2-l2"
	defaultIndexFrequency = 24 * time.Hour
	minimumIndexFrequency = time.Minute
	defaultMaxConcurrency = 8
	defaultPort           = "8080"
)

// GetSTACURL returns the STAC API root from the STAC_API_URL environment
// variable, falling back to the Planetary Computer API
func GetSTACURL() string {
	stacURL, ok := os.LookupEnv(STAC_API_URL)
	if !ok || stacURL == "" {
		LogInfo(&BasicLogContext{}, "Did not get STAC API URL from the environment. Using default: "+defaultSTACURL)
		return defaultSTACURL
	}
	return stacURL
}

// GetCollection returns the default STAC collection searched for Landsat 8 scenes
func GetCollection() string {
	if collection, ok := os.LookupEnv(STAC_COLLECTION); ok && collection != "" {
		return collection
	}
	return defaultCollection
}

// GetSASTokenURL returns the SAS token endpoint; an empty string means asset
// hrefs are used unsigned
func GetSASTokenURL() string {
	tokenURL, ok := os.LookupEnv(SAS_TOKEN_URL)
	if !ok {
		LogInfo(&BasicLogContext{}, "Did not get SAS token URL from the environment. Asset URLs will not be signed.")
	}
	return tokenURL
}

// GetDatabaseURL returns the postgres connection string
func GetDatabaseURL() string {
	return os.Getenv(DATABASE_URL)
}

// GetPortStr returns the listen address for HTTP commands
func GetPortStr() string {
	if port, ok := os.LookupEnv(PORT); ok && port != "" {
		return ":" + port
	}
	return ":" + defaultPort
}

// GetIndexFrequency returns the interval between scheduled index jobs. Values
// under a minute fall back to the default.
func GetIndexFrequency() time.Duration {
	duration, _ := time.ParseDuration(os.Getenv(INDEX_FREQUENCY))
	if duration < minimumIndexFrequency {
		if duration != 0 {
			LogAlert(&BasicLogContext{}, "Specified index frequency of "+duration.String()+" is too small. Setting to default.")
		}
		return defaultIndexFrequency
	}
	return duration
}

// GetMaxConcurrency returns the number of partitions or scenes processed at once
func GetMaxConcurrency() int {
	n, err := strconv.Atoi(os.Getenv(MAX_CONCURRENCY))
	if err != nil || n < 1 {
		return defaultMaxConcurrency
	}
	return n
}
