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

package docai

import (
	"context"
	"fmt"
	"strings"

	"cloud.google.com/go/documentai/apiv1/documentaipb"
	"google.golang.org/protobuf/types/known/fieldmaskpb"
)

// BatchRequest identifies one batch processing job: which processor runs it,
// what it reads, and where it writes. Immutable once submitted.
type BatchRequest struct {
	ProjectID   string
	Location    string
	ProcessorID string

	// InputPrefix covers every object under it; one job processes them all.
	InputPrefix string
	// OutputURI must denote a directory (trailing slash).
	OutputURI string
	// FieldMask optionally restricts which document fields the service
	// writes, comma-separated ("text,entities,pages.pageNumber").
	FieldMask string
}

// ProcessorPath builds the fully-qualified processor resource name.
func (r BatchRequest) ProcessorPath() string {
	return fmt.Sprintf("projects/%s/locations/%s/processors/%s",
		r.ProjectID, r.Location, r.ProcessorID)
}

// Proto builds the wire request for the batch call.
func (r BatchRequest) Proto() *documentaipb.BatchProcessRequest {
	outputConfig := &documentaipb.DocumentOutputConfig_GcsOutputConfig{
		GcsUri: r.OutputURI,
	}
	if r.FieldMask != "" {
		outputConfig.FieldMask = &fieldmaskpb.FieldMask{
			Paths: strings.Split(r.FieldMask, ","),
		}
	}

	return &documentaipb.BatchProcessRequest{
		Name: r.ProcessorPath(),
		InputDocuments: &documentaipb.BatchDocumentsInputConfig{
			Source: &documentaipb.BatchDocumentsInputConfig_GcsPrefix{
				GcsPrefix: &documentaipb.GcsPrefix{
					GcsUriPrefix: r.InputPrefix,
				},
			},
		},
		DocumentOutputConfig: &documentaipb.DocumentOutputConfig{
			Destination: &documentaipb.DocumentOutputConfig_GcsOutputConfig_{
				GcsOutputConfig: outputConfig,
			},
		},
	}
}

// Submit sends the batch request and returns the operation handle without
// blocking on the job. Submission failures are fatal to the run.
func Submit(ctx context.Context, client BatchClient, req BatchRequest) (Operation, error) {
	op, err := client.BatchProcessDocuments(ctx, req.Proto())
	if err != nil {
		return nil, fmt.Errorf("failed to submit batch process request to %s: %w", req.ProcessorPath(), err)
	}
	return op, nil
}
