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

package dataset

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"cloud.google.com/go/storage"
	"github.com/venicegeo/bf-mosaiks/util"
)

const gcsScheme = "gs://"

// Sink opens local files or Cloud Storage objects by URI. The storage client
// is created on first use of a gs:// URI.
type Sink struct {
	util.BasicLogContext
	mutex  sync.Mutex
	client *storage.Client
}

// SplitGCSURI splits gs://bucket/object into bucket and object
func SplitGCSURI(uri string) (string, string, error) {
	rest := strings.TrimPrefix(uri, gcsScheme)
	parts := strings.SplitN(rest, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("%s is not a gs://bucket/object URI", uri)
	}
	return parts[0], parts[1], nil
}

func (s *Sink) storageClient(ctx context.Context) (*storage.Client, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.client == nil {
		client, err := storage.NewClient(ctx)
		if err != nil {
			return nil, fmt.Errorf("Failed to create client: %w", err)
		}
		s.client = client
	}
	return s.client, nil
}

// OpenWriter creates the file or object at uri. Closing the writer commits it.
func (s *Sink) OpenWriter(ctx context.Context, uri string) (io.WriteCloser, error) {
	if !strings.HasPrefix(uri, gcsScheme) {
		if dir := filepath.Dir(uri); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, err
			}
		}
		return os.Create(uri)
	}

	bucket, object, err := SplitGCSURI(uri)
	if err != nil {
		return nil, err
	}
	client, err := s.storageClient(ctx)
	if err != nil {
		return nil, err
	}
	util.LogAudit(s, util.LogAuditInput{Actor: "dataset/OpenWriter", Action: "write", Actee: uri, Message: "Writing object to bucket", Severity: util.INFO})
	w := client.Bucket(bucket).Object(object).NewWriter(ctx)
	w.ContentType = "text/csv"
	return w, nil
}

// OpenReader opens the file or object at uri
func (s *Sink) OpenReader(ctx context.Context, uri string) (io.ReadCloser, error) {
	if !strings.HasPrefix(uri, gcsScheme) {
		return os.Open(uri)
	}
	bucket, object, err := SplitGCSURI(uri)
	if err != nil {
		return nil, err
	}
	client, err := s.storageClient(ctx)
	if err != nil {
		return nil, err
	}
	util.LogAudit(s, util.LogAuditInput{Actor: "dataset/OpenReader", Action: "read", Actee: uri, Message: "Reading object from bucket", Severity: util.DEBUG})
	r, err := client.Bucket(bucket).Object(object).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("Failed to read %s: %w", uri, err)
	}
	return r, nil
}

// WriteTo opens uri, hands the writer to write and commits on success
func (s *Sink) WriteTo(ctx context.Context, uri string, write func(io.Writer) error) error {
	w, err := s.OpenWriter(ctx, uri)
	if err != nil {
		return err
	}
	if err = write(w); err != nil {
		w.Close()
		return err
	}
	if err = w.Close(); err != nil {
		return fmt.Errorf("Failed to close writer for %s: %w", uri, err)
	}
	return nil
}

// Close releases the storage client if one was created
func (s *Sink) Close() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.client == nil {
		return nil
	}
	err := s.client.Close()
	s.client = nil
	return err
}
