// Package ingestion provides the pipeline that turns an input file into a
// stream of embeddings.
//
// A Pipeline run selects a record source by file extension, loads every
// record, rescales numeric fields once over the full set, then walks the
// records in load order: it cleans the content text, requests its vector
// from an ai.Embedder and hands the result to a Sink. Requests are issued
// one at a time, each only after the previous one has completed.
//
// By default any failure ends the run in StateFailed. WithMaxAttempts adds
// bounded retry with exponential backoff and WithSkipFailed turns a failed
// record into a logged skip. A progress counter advances once per embedded
// or skipped record and is rendered by ProgressTracker when WithProgress is
// set.
package ingestion
