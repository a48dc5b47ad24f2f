// Package config loads application settings for the recembed CLI.
//
// Settings come from an optional YAML file with defaults applied to every
// zero field. The embedding credential never lives in the file: it is read
// from the environment variable named by embedder.api_key_env (default
// OPENAI_API_KEY), optionally populated from a .env file by LoadEnv.
//
// Example recembed.yaml:
//
//	embedder:
//	  base_url: http://localhost:11434
//	  model: embeddinggemma
//	  timeout_secs: 60
//	pipeline:
//	  max_attempts: 3
//	  retry_delay: 2s
//	sinks:
//	  store: ./embeddings.db
package config
