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
	"time"

	"cloud.google.com/go/documentai/apiv1/documentaipb"
	"k8s.io/klog/v2"

	"github.com/docrun/form-parser/internal/metrics"
)

// WaitAndCheck blocks until the operation resolves or timeout elapses, then
// verifies the job's terminal state from the operation metadata.
//
// A local wait timeout or a transient service error is deliberately not a
// job failure: the job may still be progressing server-side, so the
// condition is logged and the metadata check runs anyway. Only the reported
// terminal state decides whether the run aborts.
func WaitAndCheck(ctx context.Context, op Operation, timeout time.Duration) (*documentaipb.BatchProcessMetadata, error) {
	logger := klog.FromContext(ctx)
	logger.Info("Waiting for operation to complete", "operation", op.Name(), "timeout", timeout.String())

	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	if _, err := op.Wait(waitCtx); err != nil {
		if Classify(err) != CategoryTransient {
			return nil, fmt.Errorf("failed to wait for operation %s: %w", op.Name(), err)
		}
		logger.Error(err, "Wait on operation did not resolve locally, checking job state anyway",
			"operation", op.Name())
		metrics.RecordWaitTimeout()
	}
	metrics.RecordJobDuration(time.Since(start))

	metadata, err := op.Metadata()
	if err != nil {
		return nil, fmt.Errorf("failed to fetch metadata for operation %s: %w", op.Name(), err)
	}

	if metadata.GetState() != documentaipb.BatchProcessMetadata_SUCCEEDED {
		return metadata, &JobFailedError{
			State:        metadata.GetState(),
			StateMessage: metadata.GetStateMessage(),
		}
	}

	logger.Info("Operation completed",
		"operation", op.Name(),
		"state", metadata.GetState().String(),
		"documents", len(metadata.GetIndividualProcessStatuses()))
	return metadata, nil
}
