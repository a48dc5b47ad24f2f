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

// Package openai provides the embedding client for OpenAI-compatible APIs.
//
// This package implements the ai.Embedder interface using the langchaingo
// library to communicate with OpenAI or OpenAI-compatible services (such as
// Ollama, LocalAI, or vLLM).
//
// Every call sends POST {host}/embeddings with a JSON body carrying the text
// and model, an "Authorization: Bearer <key>" header and a JSON content
// type. The first embedding in the response is returned. Non-2xx statuses,
// timeouts and malformed or empty bodies all fail with
// core.ErrEmbeddingRequest wrapping the cause. There is no retry here;
// retry policy belongs to the caller.
//
// # Usage
//
//	config := ai.NewConfig(
//	    ai.WithEmbeddingHost("http://localhost:11434"),  // /v1 added automatically
//	    ai.WithEmbeddingModel("embeddinggemma"),
//	    ai.WithAPIKey(key),
//	)
//
//	embedder, err := openai.NewEmbedder(config)
//	if err != nil {
//	    return err
//	}
//
//	vector, err := embedder.EmbedText(ctx, "sample text")
package openai
