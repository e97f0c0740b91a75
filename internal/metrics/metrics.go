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

package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// skip reason labels
const (
	ReasonBadDestination = "bad_destination" // output URI did not parse
	ReasonNonJSON        = "non_json"        // sidecar artifact, wrong content type
	ReasonReadError      = "read_error"      // download failed
	ReasonDecodeError    = "decode_error"    // payload did not decode
	ReasonSinkError      = "sink_error"      // emission rejected downstream
)

var (
	// number of result documents emitted so far
	documentsEmitted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "documents_emitted_total",
			Help: "Total number of result documents decoded and emitted",
		},
	)

	// objects skipped during the output walk, by reason
	objectsSkipped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "objects_skipped_total",
			Help: "Total number of output objects skipped during the walk",
		}, []string{"reason"},
	)

	// local waits that elapsed before the operation resolved
	waitTimeouts = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "batch_wait_timeouts_total",
			Help: "Total number of local waits that timed out before the operation resolved",
		},
	)

	// time spent blocked on the batch operation
	jobDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name: "batch_job_wait_duration_seconds",
			Help: "Time spent waiting on the batch operation in seconds",
			// Bucket 1: ~ 1s ... Bucket 10: ~ 512s, past the default
			// 400s wait ceiling.
			Buckets: prometheus.ExponentialBuckets(1, 2, 10),
		},
	)
)

func init() {
	prometheus.MustRegister(documentsEmitted)
	prometheus.MustRegister(objectsSkipped)
	prometheus.MustRegister(waitTimeouts)
	prometheus.MustRegister(jobDuration)
}

// Recorder funcs

// RecordDocumentEmitted increments the emitted documents count.
func RecordDocumentEmitted() {
	documentsEmitted.Inc()
}

// RecordObjectSkipped increments the skip count for a reason.
func RecordObjectSkipped(reason string) {
	objectsSkipped.WithLabelValues(reason).Inc()
}

// RecordWaitTimeout increments the local wait timeout count.
func RecordWaitTimeout() {
	waitTimeouts.Inc()
}

// RecordJobDuration observes the time spent blocked on the operation.
func RecordJobDuration(duration time.Duration) {
	jobDuration.Observe(duration.Seconds())
}

// NewMetricsHandler serves the default registry.
func NewMetricsHandler() http.Handler {
	return promhttp.Handler()
}
