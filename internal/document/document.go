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

// Package document decodes Document AI result objects.
package document

import (
	"fmt"

	"cloud.google.com/go/documentai/apiv1/documentaipb"
	"google.golang.org/protobuf/encoding/protojson"
)

// Parsed is one decoded result object.
type Parsed struct {
	doc *documentaipb.Document
}

// Decode unmarshals a stored JSON result into a Document. Unknown fields are
// discarded: the service's output schema moves ahead of the client library
// and newer fields must not break the decode.
func Decode(data []byte) (*Parsed, error) {
	doc := &documentaipb.Document{}
	opts := protojson.UnmarshalOptions{DiscardUnknown: true}
	if err := opts.Unmarshal(data, doc); err != nil {
		return nil, fmt.Errorf("failed to decode document: %w", err)
	}
	return &Parsed{doc: doc}, nil
}

// Text returns the full extracted text of the document.
func (p *Parsed) Text() string {
	return p.doc.GetText()
}

// PageCount reports how many pages the processor recognized.
func (p *Parsed) PageCount() int {
	return len(p.doc.GetPages())
}

// EntityCount reports how many entities the processor extracted.
func (p *Parsed) EntityCount() int {
	return len(p.doc.GetEntities())
}

// Proto exposes the underlying message for callers that need the structured
// fields beyond the text.
func (p *Parsed) Proto() *documentaipb.Document {
	return p.doc
}
