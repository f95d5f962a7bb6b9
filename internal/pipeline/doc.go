// Package pipeline runs page analysis as a sequence of steps.
//
// A Job carries one URL through the steps:
//
//	fetch -> extract (JSON and endpoints, concurrently) -> resources
//
// Analyzer wires the default steps and exposes the single-URL operation.
// BatchProcessor fans a list of URLs out to a bounded number of workers
// using errgroup. Failures are returned per URL as model.Outcome values
// so a batch always finishes with a complete, ordered result list.
//
// Politeness is not handled here. Workers share the analyzer's fetcher,
// whose pacing gate spaces all requests apart.
package pipeline
