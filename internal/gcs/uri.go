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

package gcs

import "regexp"

// Destination URIs reported by the service look like
// gs://BUCKET/PREFIX/OPERATION_NUMBER/INPUT_FILE_NUMBER/ and the storage API
// wants bucket and prefix separately.
var uriPattern = regexp.MustCompile(`^gs://([^/]+)/(.*)$`)

// ParseURI splits a gs:// object URI into bucket and prefix at the first
// slash after the scheme. The prefix may be empty. ok is false for anything
// that does not match; callers are expected to skip such entries.
func ParseURI(uri string) (bucket, prefix string, ok bool) {
	matches := uriPattern.FindStringSubmatch(uri)
	if matches == nil {
		return "", "", false
	}
	return matches[1], matches[2], true
}

// JoinURI is the inverse of ParseURI, used for log lines and emitted
// source locations.
func JoinURI(bucket, name string) string {
	return "gs://" + bucket + "/" + name
}
