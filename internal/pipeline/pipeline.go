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

// Package pipeline runs one batch processing pass: submit, wait, walk.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/documentai/apiv1/documentaipb"
	"k8s.io/klog/v2"

	"github.com/docrun/form-parser/internal/docai"
	"github.com/docrun/form-parser/internal/document"
	"github.com/docrun/form-parser/internal/gcs"
	"github.com/docrun/form-parser/internal/metrics"
)

const jsonContentType = "application/json"

type Clients struct {
	Processor docai.BatchClient
	Store     gcs.ObjectStore
}

type Pipeline struct {
	clients     Clients
	request     docai.BatchRequest
	waitTimeout time.Duration
	sink        Sink
}

func New(clients Clients, request docai.BatchRequest, waitTimeout time.Duration, sink Sink) *Pipeline {
	return &Pipeline{
		clients:     clients,
		request:     request,
		waitTimeout: waitTimeout,
		sink:        sink,
	}
}

// pre-flight check
func (p *Pipeline) prepare() error {
	if p.clients.Processor == nil || p.clients.Store == nil || p.sink == nil {
		return fmt.Errorf("critical clients are missing in Pipeline")
	}
	return nil
}

// Run executes one full pass and returns the number of documents emitted.
// Only job-level failure aborts the run; every per-item anomaly during the
// walk is logged, counted, and skipped.
func (p *Pipeline) Run(ctx context.Context) (int, error) {
	if err := p.prepare(); err != nil {
		return 0, fmt.Errorf("failed to prepare pipeline: %w", err)
	}
	logger := klog.FromContext(ctx)

	logger.Info("Submitting batch process request",
		"processor", p.request.ProcessorPath(),
		"inputPrefix", p.request.InputPrefix,
		"outputURI", p.request.OutputURI)
	op, err := docai.Submit(ctx, p.clients.Processor, p.request)
	if err != nil {
		return 0, err
	}

	metadata, err := docai.WaitAndCheck(ctx, op, p.waitTimeout)
	if err != nil {
		return 0, err
	}

	return p.walk(ctx, metadata)
}

// walk visits every per-document output destination the job reported.
func (p *Pipeline) walk(ctx context.Context, metadata *documentaipb.BatchProcessMetadata) (int, error) {
	logger := klog.FromContext(ctx)
	emitted := 0

	logger.Info("Walking output destinations", "destinations", len(metadata.GetIndividualProcessStatuses()))
	for _, processStatus := range metadata.GetIndividualProcessStatuses() {
		destination := processStatus.GetOutputGcsDestination()

		bucket, prefix, ok := gcs.ParseURI(destination)
		if !ok {
			logger.Error(nil, "Could not parse output destination, skipping",
				"destination", destination, "source", processStatus.GetInputGcsSource())
			metrics.RecordObjectSkipped(metrics.ReasonBadDestination)
			continue
		}

		objects, err := p.clients.Store.List(ctx, bucket, prefix)
		if err != nil {
			logger.Error(err, "Failed to list output objects, skipping destination",
				"destination", destination)
			metrics.RecordObjectSkipped(metrics.ReasonReadError)
			continue
		}

		for _, obj := range objects {
			location := gcs.JoinURI(bucket, obj.Name)

			// The service may place non-JSON sidecar artifacts under
			// the same prefix.
			if obj.ContentType != jsonContentType {
				logger.Info("Skipping non-supported file",
					"object", obj.Name, "contentType", obj.ContentType)
				metrics.RecordObjectSkipped(metrics.ReasonNonJSON)
				continue
			}

			logger.Info("Fetching output object", "object", obj.Name, "size", obj.Size)
			data, err := p.clients.Store.Read(ctx, bucket, obj.Name)
			if err != nil {
				logger.Error(err, "Failed to download output object, skipping", "object", obj.Name)
				metrics.RecordObjectSkipped(metrics.ReasonReadError)
				continue
			}

			parsed, err := document.Decode(data)
			if err != nil {
				logger.Error(err, "Failed to decode output object, skipping", "object", obj.Name)
				metrics.RecordObjectSkipped(metrics.ReasonDecodeError)
				continue
			}

			if err := p.sink.Emit(location, parsed.Text()); err != nil {
				logger.Error(err, "Failed to emit document text, skipping", "object", obj.Name)
				metrics.RecordObjectSkipped(metrics.ReasonSinkError)
				continue
			}

			logger.V(4).Info("Emitted document",
				"object", obj.Name,
				"pages", parsed.PageCount(),
				"entities", parsed.EntityCount())
			metrics.RecordDocumentEmitted()
			emitted++
		}
	}

	logger.Info("Output walk complete", "documentsEmitted", emitted)
	return emitted, nil
}
