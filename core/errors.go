// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package core

import "errors"

// Pipeline failure taxonomy. Every error returned from loading, normalizing
// or embedding wraps exactly one of these, so callers can branch with
// errors.Is regardless of how much context was attached on the way up.
var (
	// ErrUnsupportedFileType indicates the input path has an extension no
	// record source handles.
	ErrUnsupportedFileType = errors.New("unsupported file type")

	// ErrMissingField indicates an expected field (the content column or the
	// document's data array) is absent.
	ErrMissingField = errors.New("missing field")

	// ErrMalformedInput indicates the input could not be parsed in the expected shape.
	ErrMalformedInput = errors.New("malformed input")

	// ErrMissingCredential indicates the embedding service credential was not configured.
	ErrMissingCredential = errors.New("missing credential")

	// ErrEmbeddingRequest indicates a transport or service failure while embedding text.
	ErrEmbeddingRequest = errors.New("embedding request failed")

	// ErrNormalization indicates a numeric field could not be rescaled,
	// typically because its type is inconsistent across records.
	ErrNormalization = errors.New("normalization failed")
)
