// Package model defines the core data structures used throughout jsprobe.
//
// This package contains the following main types:
//   - SiteContext: Immutable per-site settings (base URL, request delay)
//   - FetchedPage: The raw response of a single fetch
//   - JSONFinding: A JSON value discovered in page content
//   - EndpointSet: The set of absolute endpoint URLs found in scripts
//   - PageResult: Everything extracted from one page
//   - Outcome: Either a PageResult or the error that prevented it
//
// Models live in their own package so that the fetcher, extractors, pipeline
// and report writers can share them without import cycles.
//
// All result types serialize to JSON for report output.
package model
