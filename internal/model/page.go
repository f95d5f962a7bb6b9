package model

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// FetchedPage is the raw result of one successful fetch.
// It is owned by the analysis job that produced it and discarded once
// extraction has finished.
type FetchedPage struct {
	// URL is the URL that was requested.
	URL string `json:"url"`

	// FinalURL is the URL that served the body, after redirects.
	FinalURL string `json:"final_url,omitempty"`

	// StatusCode is the HTTP response status code.
	StatusCode int `json:"status_code"`

	// ContentType is the value of the Content-Type response header.
	ContentType string `json:"content_type"`

	// Headers contains all HTTP response headers in canonical form.
	Headers map[string][]string `json:"headers,omitempty"`

	// Body is the response body decoded to UTF-8.
	Body string `json:"-"`

	// Truncated reports whether the body hit the size limit.
	Truncated bool `json:"truncated,omitempty"`

	// Hash is the SHA-256 hash of Body.
	Hash string `json:"hash"`
}

// BaseURL returns the URL that relative references in Body resolve
// against: FinalURL when known, URL otherwise.
func (p *FetchedPage) BaseURL() string {
	if p.FinalURL != "" {
		return p.FinalURL
	}
	return p.URL
}

// ComputeHash calculates and sets the SHA-256 hash of the page body.
func (p *FetchedPage) ComputeHash() {
	if p.Body == "" {
		p.Hash = ""
		return
	}

	hash := sha256.Sum256([]byte(p.Body))
	p.Hash = hex.EncodeToString(hash[:])
}

// GetHeader returns the first value of the specified header.
// Returns empty string if the header is not present.
func (p *FetchedPage) GetHeader(name string) string {
	if values, ok := p.Headers[name]; ok && len(values) > 0 {
		return values[0]
	}
	return ""
}

// IsHTML reports whether the content type indicates HTML.
// An empty content type is treated as HTML, since servers that omit the
// header almost always serve markup.
func (p *FetchedPage) IsHTML() bool {
	ct := strings.ToLower(p.ContentType)
	return ct == "" ||
		strings.HasPrefix(ct, "text/html") ||
		strings.HasPrefix(ct, "application/xhtml+xml")
}

// IsEmpty reports whether the page has no body text at all.
func (p *FetchedPage) IsEmpty() bool {
	return strings.TrimSpace(p.Body) == ""
}
