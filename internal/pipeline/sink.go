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
	"fmt"
	"io"
)

// Sink receives the extracted text of each decoded result document.
// location is the gs:// URI of the object the text came from.
type Sink interface {
	Emit(location, text string) error
}

// WriterSink writes each document's text to w, one block per document.
type WriterSink struct {
	W io.Writer
}

var _ Sink = (*WriterSink)(nil)

func (s *WriterSink) Emit(location, text string) error {
	if _, err := fmt.Fprintf(s.W, "The document contains the following text:\n%s\n", text); err != nil {
		return fmt.Errorf("failed to write text from %s: %w", location, err)
	}
	return nil
}
