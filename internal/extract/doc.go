// Package extract pulls structured signal out of fetched page text.
//
// Two extractors share one parsed Page:
//
//   - JSONExtractor finds brace-delimited JSON objects in the whole text
//     and object literals assigned to script variables.
//   - EndpointExtractor applies a table of lexical rules to inline script
//     bodies and resolves every match to an absolute URL.
//
// Both are heuristics built on regular expressions, not parsers. The
// shortest-span brace match means an object containing a nested object
// is cut at the first closing brace and then fails to parse. Such
// candidates are dropped, never reported as errors.
//
// # Usage
//
//	page := extract.Parse(body)
//	findings := extract.NewJSONExtractor().ExtractPage(page)
//	endpoints := extract.NewEndpointExtractor(site).ExtractPage(page)
//
// Extractors hold no mutable state, so both may run concurrently over the
// same Page.
package extract
