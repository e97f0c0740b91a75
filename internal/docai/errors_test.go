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
	"testing"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorCategory
	}{
		{"context deadline", context.DeadlineExceeded, CategoryTransient},
		{"wrapped context deadline", fmt.Errorf("wait: %w", context.DeadlineExceeded), CategoryTransient},
		{"grpc deadline", status.Error(codes.DeadlineExceeded, "deadline"), CategoryTransient},
		{"grpc unavailable", status.Error(codes.Unavailable, "down"), CategoryTransient},
		{"grpc internal", status.Error(codes.Internal, "500"), CategoryTransient},
		{"grpc resource exhausted", status.Error(codes.ResourceExhausted, "throttled"), CategoryTransient},
		{"grpc aborted", status.Error(codes.Aborted, "aborted"), CategoryTransient},
		{"grpc permission denied", status.Error(codes.PermissionDenied, "forbidden"), CategoryFatal},
		{"grpc not found", status.Error(codes.NotFound, "no processor"), CategoryFatal},
		{"plain error", errors.New("boom"), CategoryFatal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.err); got != tt.want {
				t.Errorf("Classify(%v) = %s, want %s", tt.err, got, tt.want)
			}
		})
	}
}
