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

// Package ai provides the embedding service abstraction used by the ingestion
// pipeline.
//
// The pipeline depends on the Embedder interface rather than on a concrete
// client, so it can be exercised against test doubles and pointed at any
// OpenAI-compatible service.
//
// # Implementation Packages
//
//   - ai/openai: Production implementation using OpenAI-compatible APIs
//   - ai/mock: Test doubles for unit testing without external dependencies
//
// # Credentials
//
// The API key is carried by Config and handed to the client constructor.
// Nothing in this package reads process environment; the CLI loads the key
// once at startup and Validate reports a missing key as
// core.ErrMissingCredential before any record is processed.
//
// # Usage Example
//
//	cfg := ai.NewConfig(ai.WithAPIKey(key))
//	embedder, err := openai.NewEmbedder(cfg)
//	if err != nil {
//	    return err
//	}
//
//	vector, err := embedder.EmbedText(ctx, "Hello world")
//
//	// Testing usage with mocks
//	mockEmbed := mock.NewMockEmbedder()
//	vector, err = mockEmbed.EmbedText(ctx, "test text")
package ai
