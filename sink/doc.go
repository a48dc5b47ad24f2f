// Package sink provides ingestion.Sink implementations that surface
// embeddings to the caller: a console printer, a JSON Lines writer and a
// fan-out over several sinks.
package sink
