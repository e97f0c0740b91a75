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

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"cloud.google.com/go/documentai/apiv1/documentaipb"
	"github.com/googleapis/gax-go/v2"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/docrun/form-parser/internal/docai"
	"github.com/docrun/form-parser/internal/gcs"
)

func TestPipeline(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Pipeline Suite")
}

// fakes

type fakeOperation struct {
	name     string
	waitErr  error
	metadata *documentaipb.BatchProcessMetadata
}

func (f *fakeOperation) Name() string { return f.name }

func (f *fakeOperation) Wait(_ context.Context, _ ...gax.CallOption) (*documentaipb.BatchProcessResponse, error) {
	if f.waitErr != nil {
		return nil, f.waitErr
	}
	return &documentaipb.BatchProcessResponse{}, nil
}

func (f *fakeOperation) Metadata() (*documentaipb.BatchProcessMetadata, error) {
	return f.metadata, nil
}

type fakeProcessor struct {
	op        docai.Operation
	submitErr error
}

func (f *fakeProcessor) BatchProcessDocuments(_ context.Context, _ *documentaipb.BatchProcessRequest, _ ...gax.CallOption) (docai.Operation, error) {
	if f.submitErr != nil {
		return nil, f.submitErr
	}
	return f.op, nil
}

func (f *fakeProcessor) Close() error { return nil }

type fakeObject struct {
	contentType string
	data        []byte
}

type fakeStore struct {
	objects map[string]map[string]fakeObject // bucket -> name -> object
	listErr error
	readErr error
	reads   []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{objects: make(map[string]map[string]fakeObject)}
}

func (f *fakeStore) put(bucket, name, contentType string, data []byte) {
	if f.objects[bucket] == nil {
		f.objects[bucket] = make(map[string]fakeObject)
	}
	f.objects[bucket][name] = fakeObject{contentType: contentType, data: data}
}

func (f *fakeStore) List(_ context.Context, bucket, prefix string) ([]gcs.ObjectInfo, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	var infos []gcs.ObjectInfo
	for name, obj := range f.objects[bucket] {
		if len(name) >= len(prefix) && name[:len(prefix)] == prefix {
			infos = append(infos, gcs.ObjectInfo{
				Name:        name,
				ContentType: obj.contentType,
				Size:        int64(len(obj.data)),
			})
		}
	}
	return infos, nil
}

func (f *fakeStore) Read(_ context.Context, bucket, name string) ([]byte, error) {
	if f.readErr != nil {
		return nil, f.readErr
	}
	f.reads = append(f.reads, gcs.JoinURI(bucket, name))
	obj, ok := f.objects[bucket][name]
	if !ok {
		return nil, fmt.Errorf("object not found: %s", gcs.JoinURI(bucket, name))
	}
	return obj.data, nil
}

func (f *fakeStore) Close() error { return nil }

type captureSink struct {
	emissions map[string]string
	emitErr   error
}

func newCaptureSink() *captureSink {
	return &captureSink{emissions: make(map[string]string)}
}

func (s *captureSink) Emit(location, text string) error {
	if s.emitErr != nil {
		return s.emitErr
	}
	s.emissions[location] = text
	return nil
}

// specs

var _ = Describe("Pipeline", func() {
	var (
		store   *fakeStore
		sink    *captureSink
		request docai.BatchRequest
	)

	BeforeEach(func() {
		store = newFakeStore()
		sink = newCaptureSink()
		request = docai.BatchRequest{
			ProjectID:   "test-project",
			Location:    "us",
			ProcessorID: "ac27785bf4bee278",
			InputPrefix: "gs://in-bucket/forms/",
			OutputURI:   "gs://out-bucket/run/",
		}
	})

	newPipeline := func(op docai.Operation) *Pipeline {
		return New(
			Clients{Processor: &fakeProcessor{op: op}, Store: store},
			request, time.Second, sink,
		)
	}

	metadataWithDestinations := func(destinations ...string) *documentaipb.BatchProcessMetadata {
		md := &documentaipb.BatchProcessMetadata{
			State: documentaipb.BatchProcessMetadata_SUCCEEDED,
		}
		for _, d := range destinations {
			md.IndividualProcessStatuses = append(md.IndividualProcessStatuses,
				&documentaipb.BatchProcessMetadata_IndividualProcessStatus{
					OutputGcsDestination: d,
				})
		}
		return md
	}

	Context("end to end", func() {
		It("emits only the JSON result and skips the sidecar artifact", func(ctx context.Context) {
			store.put("out-bucket", "run/0/0.json", "application/json",
				[]byte(`{"text": "Form W-9\nName: Jane Doe"}`))
			store.put("out-bucket", "run/0/0.pdf.txt", "text/plain",
				[]byte("Form W-9"))

			op := &fakeOperation{
				name:     "operations/1",
				metadata: metadataWithDestinations("gs://out-bucket/run/0/"),
			}

			emitted, err := newPipeline(op).Run(ctx)
			Expect(err).ToNot(HaveOccurred())
			Expect(emitted).To(Equal(1))
			Expect(sink.emissions).To(HaveLen(1))
			Expect(sink.emissions).To(HaveKeyWithValue(
				"gs://out-bucket/run/0/0.json", "Form W-9\nName: Jane Doe"))
			// The sidecar must never be downloaded.
			Expect(store.reads).To(ConsistOf("gs://out-bucket/run/0/0.json"))
		})

		It("walks every destination of a fan-out job", func(ctx context.Context) {
			store.put("out-bucket", "run/0/0.json", "application/json", []byte(`{"text": "doc zero"}`))
			store.put("out-bucket", "run/1/0.json", "application/json", []byte(`{"text": "doc one"}`))

			op := &fakeOperation{
				name: "operations/1",
				metadata: metadataWithDestinations(
					"gs://out-bucket/run/0/", "gs://out-bucket/run/1/"),
			}

			emitted, err := newPipeline(op).Run(ctx)
			Expect(err).ToNot(HaveOccurred())
			Expect(emitted).To(Equal(2))
		})

		It("still succeeds after a local wait timeout when the job succeeded", func(ctx context.Context) {
			store.put("out-bucket", "run/0/0.json", "application/json", []byte(`{"text": "late doc"}`))

			op := &fakeOperation{
				name:     "operations/1",
				waitErr:  context.DeadlineExceeded,
				metadata: metadataWithDestinations("gs://out-bucket/run/0/"),
			}

			emitted, err := newPipeline(op).Run(ctx)
			Expect(err).ToNot(HaveOccurred())
			Expect(emitted).To(Equal(1))
		})
	})

	Context("job failure", func() {
		It("aborts with the service-reported message", func(ctx context.Context) {
			op := &fakeOperation{
				name: "operations/1",
				metadata: &documentaipb.BatchProcessMetadata{
					State:        documentaipb.BatchProcessMetadata_FAILED,
					StateMessage: "quota exceeded",
				},
			}

			_, err := newPipeline(op).Run(ctx)
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("quota exceeded"))
			Expect(sink.emissions).To(BeEmpty())
		})

		It("aborts when submission fails", func(ctx context.Context) {
			p := New(
				Clients{
					Processor: &fakeProcessor{submitErr: errors.New("endpoint unreachable")},
					Store:     store,
				},
				request, time.Second, sink,
			)

			_, err := p.Run(ctx)
			Expect(err).To(HaveOccurred())
		})
	})

	Context("item-level anomalies", func() {
		It("skips a malformed destination and keeps walking", func(ctx context.Context) {
			store.put("out-bucket", "run/1/0.json", "application/json", []byte(`{"text": "good doc"}`))

			op := &fakeOperation{
				name: "operations/1",
				metadata: metadataWithDestinations(
					"not-a-destination", "gs://out-bucket/run/1/"),
			}

			emitted, err := newPipeline(op).Run(ctx)
			Expect(err).ToNot(HaveOccurred())
			Expect(emitted).To(Equal(1))
		})

		It("skips objects that fail to decode", func(ctx context.Context) {
			store.put("out-bucket", "run/0/broken.json", "application/json", []byte(`{"text":`))
			store.put("out-bucket", "run/0/good.json", "application/json", []byte(`{"text": "ok"}`))

			op := &fakeOperation{
				name:     "operations/1",
				metadata: metadataWithDestinations("gs://out-bucket/run/0/"),
			}

			emitted, err := newPipeline(op).Run(ctx)
			Expect(err).ToNot(HaveOccurred())
			Expect(emitted).To(Equal(1))
			Expect(sink.emissions).To(HaveKey("gs://out-bucket/run/0/good.json"))
		})

		It("treats sink errors as per-item skips", func(ctx context.Context) {
			store.put("out-bucket", "run/0/0.json", "application/json", []byte(`{"text": "doc"}`))
			sink.emitErr = errors.New("downstream closed")

			op := &fakeOperation{
				name:     "operations/1",
				metadata: metadataWithDestinations("gs://out-bucket/run/0/"),
			}

			emitted, err := newPipeline(op).Run(ctx)
			Expect(err).ToNot(HaveOccurred())
			Expect(emitted).To(Equal(0))
		})

		It("skips a destination whose listing fails", func(ctx context.Context) {
			store.listErr = errors.New("bucket listing denied")

			op := &fakeOperation{
				name:     "operations/1",
				metadata: metadataWithDestinations("gs://out-bucket/run/0/"),
			}

			emitted, err := newPipeline(op).Run(ctx)
			Expect(err).ToNot(HaveOccurred())
			Expect(emitted).To(Equal(0))
		})
	})

	Context("misconfiguration", func() {
		It("rejects a pipeline with missing clients", func(ctx context.Context) {
			p := New(Clients{}, request, time.Second, nil)

			_, err := p.Run(ctx)
			Expect(err).To(HaveOccurred())
		})
	})
})
