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

// Package docai wraps the Document AI batch processing client.
package docai

import (
	"context"
	"fmt"

	documentai "cloud.google.com/go/documentai/apiv1"
	"cloud.google.com/go/documentai/apiv1/documentaipb"
	"github.com/googleapis/gax-go/v2"
	"google.golang.org/api/option"
)

// Operation is the subset of the long-running batch operation the pipeline
// needs. The SDK's *documentai.BatchProcessDocumentsOperation satisfies it;
// tests substitute a fake.
type Operation interface {
	Name() string
	Wait(ctx context.Context, opts ...gax.CallOption) (*documentaipb.BatchProcessResponse, error)
	Metadata() (*documentaipb.BatchProcessMetadata, error)
}

// BatchClient is the subset of the DocumentProcessorClient used here.
// This interface exists so the pipeline can be tested without the service.
type BatchClient interface {
	BatchProcessDocuments(ctx context.Context, req *documentaipb.BatchProcessRequest, opts ...gax.CallOption) (Operation, error)
	Close() error
}

// Client implements BatchClient against the real service.
type Client struct {
	client *documentai.DocumentProcessorClient
}

var _ BatchClient = (*Client)(nil)

// NewClient creates a client pinned to the processor's regional endpoint.
// Locations other than "us" are only reachable through their own endpoint.
func NewClient(ctx context.Context, location string) (*Client, error) {
	endpoint := fmt.Sprintf("%s-documentai.googleapis.com:443", location)
	client, err := documentai.NewDocumentProcessorClient(ctx, option.WithEndpoint(endpoint))
	if err != nil {
		return nil, fmt.Errorf("failed to create document processor client: %w", err)
	}
	return &Client{client: client}, nil
}

func (c *Client) BatchProcessDocuments(ctx context.Context, req *documentaipb.BatchProcessRequest, opts ...gax.CallOption) (Operation, error) {
	op, err := c.client.BatchProcessDocuments(ctx, req, opts...)
	if err != nil {
		return nil, err
	}
	return op, nil
}

func (c *Client) Close() error {
	return c.client.Close()
}
