package model

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// SiteContext holds the settings shared by every operation against one
// target site: the base URL used to resolve relative references and the
// minimum spacing between fetches.
//
// A SiteContext is created once and never mutated. Its fields are unexported
// so that a value handed to several goroutines cannot drift.
type SiteContext struct {
	baseURL      *url.URL
	requestDelay time.Duration
}

// NewSiteContext validates baseURL and delay and returns a SiteContext.
// The base URL must be absolute with an http or https scheme.
func NewSiteContext(baseURL string, delay time.Duration) (SiteContext, error) {
	u, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil {
		return SiteContext{}, fmt.Errorf("%w: %v", ErrInvalidBaseURL, err)
	}
	if !u.IsAbs() || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return SiteContext{}, fmt.Errorf("%w: %q", ErrInvalidBaseURL, baseURL)
	}
	if delay < 0 {
		return SiteContext{}, ErrNegativeDelay
	}

	return SiteContext{
		baseURL:      u,
		requestDelay: delay,
	}, nil
}

// BaseURL returns a copy of the base URL.
func (s SiteContext) BaseURL() *url.URL {
	if s.baseURL == nil {
		return nil
	}
	u := *s.baseURL
	return &u
}

// RequestDelay returns the minimum spacing between fetch starts.
func (s SiteContext) RequestDelay() time.Duration {
	return s.requestDelay
}

// String returns the base URL as a string.
func (s SiteContext) String() string {
	if s.baseURL == nil {
		return ""
	}
	return s.baseURL.String()
}

// Resolve turns a reference found in page content into an absolute URL.
//
// References that already carry a scheme are returned unchanged, so
// resolving a resolved value is a no-op. Everything else (root-relative
// "/api/x", protocol-relative "//cdn/x.js", or bare "x.json") is joined
// against the base URL. Stray '%' signs and control characters, as found
// in format strings like "/api/%s", are percent-encoded first.
//
// The second result is false when ref cannot be made absolute; the
// returned string is then empty.
func (s SiteContext) Resolve(ref string) (string, bool) {
	u, err := url.Parse(ref)
	if err != nil {
		ref = escapeInvalid(ref)
		if u, err = url.Parse(ref); err != nil {
			return "", false
		}
	}
	if u.IsAbs() {
		return ref, true
	}
	if s.baseURL == nil {
		return "", false
	}

	resolved := s.baseURL.ResolveReference(u)
	if !resolved.IsAbs() || resolved.Host == "" {
		return "", false
	}
	return resolved.String(), true
}

// escapeInvalid percent-encodes every '%' that does not start a valid
// escape sequence, and every ASCII control character.
func escapeInvalid(ref string) string {
	var sb strings.Builder
	sb.Grow(len(ref))

	for i := 0; i < len(ref); i++ {
		c := ref[i]
		switch {
		case c == '%' && (i+2 >= len(ref) || !isHex(ref[i+1]) || !isHex(ref[i+2])):
			sb.WriteString("%25")
		case c < 0x20 || c == 0x7f:
			fmt.Fprintf(&sb, "%%%02X", c)
		default:
			sb.WriteByte(c)
		}
	}
	return sb.String()
}

func isHex(c byte) bool {
	return ('0' <= c && c <= '9') || ('a' <= c && c <= 'f') || ('A' <= c && c <= 'F')
}
