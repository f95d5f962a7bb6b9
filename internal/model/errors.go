package model

import "errors"

var (
	// ErrInvalidBaseURL is returned when a SiteContext base URL is not an
	// absolute http or https URL.
	ErrInvalidBaseURL = errors.New("invalid base URL: must be an absolute http(s) URL")

	// ErrNegativeDelay is returned when a SiteContext request delay is negative.
	// Use 0 to disable pacing.
	ErrNegativeDelay = errors.New("invalid request delay: must be non-negative")
)
