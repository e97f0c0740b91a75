/*
Copyright 2026 The docrun Authors

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package gcs provides the Cloud Storage access used by the result walker.
package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
)

// ObjectInfo describes one stored object, enough for the walker to decide
// whether to download it.
type ObjectInfo struct {
	Name        string
	ContentType string
	Size        int64
}

// ObjectStore lists and reads objects. The real implementation is backed by
// Cloud Storage; tests substitute an in-memory fake.
type ObjectStore interface {
	// List returns all objects in bucket whose name starts with prefix.
	// No ordering is guaranteed.
	List(ctx context.Context, bucket, prefix string) ([]ObjectInfo, error)
	// Read downloads the full content of one object.
	Read(ctx context.Context, bucket, name string) ([]byte, error)
	Close() error
}

// Client implements ObjectStore against Cloud Storage.
type Client struct {
	client *storage.Client
}

var _ ObjectStore = (*Client)(nil)

// NewClient creates a Cloud Storage backed ObjectStore using ambient
// credentials.
func NewClient(ctx context.Context) (*Client, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	return &Client{client: client}, nil
}

// List walks the bucket listing for prefix until the iterator is exhausted.
func (c *Client) List(ctx context.Context, bucket, prefix string) ([]ObjectInfo, error) {
	it := c.client.Bucket(bucket).Objects(ctx, &storage.Query{Prefix: prefix})

	var objects []ObjectInfo
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list objects in gs://%s/%s: %w", bucket, prefix, err)
		}
		objects = append(objects, ObjectInfo{
			Name:        attrs.Name,
			ContentType: attrs.ContentType,
			Size:        attrs.Size,
		})
	}
	return objects, nil
}

// Read downloads one object in full.
func (c *Client) Read(ctx context.Context, bucket, name string) ([]byte, error) {
	r, err := c.client.Bucket(bucket).Object(name).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", JoinURI(bucket, name), err)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", JoinURI(bucket, name), err)
	}
	return data, nil
}

func (c *Client) Close() error {
	return c.client.Close()
}
