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
	"errors"
	"fmt"

	"cloud.google.com/go/documentai/apiv1/documentaipb"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type ErrorCategory string

const (
	CategoryTransient ErrorCategory = "TRANSIENT" // wait may be retried or outwaited
	CategoryFatal     ErrorCategory = "FATAL"     // not retryable
)

// Classify sorts a wait error into the transient/fatal taxonomy. A local
// deadline expiry or a retryable service status means the job may still be
// running server-side; everything else is fatal.
func Classify(err error) ErrorCategory {
	if errors.Is(err, context.DeadlineExceeded) {
		return CategoryTransient
	}
	if s, ok := status.FromError(err); ok {
		switch s.Code() {
		case codes.DeadlineExceeded, codes.Unavailable, codes.Internal, codes.ResourceExhausted, codes.Aborted:
			return CategoryTransient
		}
	}
	return CategoryFatal
}

// JobFailedError reports a batch job whose terminal state is not SUCCEEDED.
// The service's state message is carried verbatim.
type JobFailedError struct {
	State        documentaipb.BatchProcessMetadata_State
	StateMessage string
}

func (e *JobFailedError) Error() string {
	return fmt.Sprintf("batch process failed (state %s): %s", e.State, e.StateMessage)
}
