package extract

import (
	"log/slog"
	"regexp"
	"strings"

	"github.com/nao1215/jsprobe/internal/model"
)

// Capture selects which part of a rule match becomes the endpoint value.
type Capture int

const (
	// CaptureLiteral uses the whole match with surrounding quote characters
	// stripped. Used for quoted string rules.
	CaptureLiteral Capture = iota

	// CaptureGroup uses capture group 1. Used for call-shaped rules such as
	// fetch("...") where the endpoint is the argument.
	CaptureGroup
)

// EndpointRule is one row of the endpoint rule table.
type EndpointRule struct {
	// Name identifies the rule in logs and tests.
	Name string

	// Pattern is matched against each inline script body.
	Pattern *regexp.Regexp

	// Capture selects the endpoint value from a match.
	Capture Capture
}

// Match returns every raw value the rule captures in script, in match
// order. Values are not resolved.
func (r EndpointRule) Match(script string) []string {
	values := make([]string, 0)

	for _, m := range r.Pattern.FindAllStringSubmatch(script, -1) {
		var value string
		switch r.Capture {
		case CaptureGroup:
			if len(m) < 2 {
				continue
			}
			value = m[1]
		default:
			value = strings.Trim(m[0], `"'`)
		}

		if value == "" {
			continue
		}
		values = append(values, value)
	}

	return values
}

// DefaultEndpointRules returns the built-in rule table in application
// order. Each call returns a fresh slice, so callers may append to it.
func DefaultEndpointRules() []EndpointRule {
	return []EndpointRule{
		{
			Name:    "api_path",
			Pattern: regexp.MustCompile(`["']/api/[^"'\s]+["']`),
			Capture: CaptureLiteral,
		},
		{
			Name:    "absolute_url",
			Pattern: regexp.MustCompile(`["']https?://[^"'\s]+["']`),
			Capture: CaptureLiteral,
		},
		{
			Name:    "script_file",
			Pattern: regexp.MustCompile(`["']/[^\s"']+\.js["']`),
			Capture: CaptureLiteral,
		},
		{
			Name:    "fetch_call",
			Pattern: regexp.MustCompile(`fetch\(["']([^"']+)["']\)`),
			Capture: CaptureGroup,
		},
		{
			Name:    "client_call",
			Pattern: regexp.MustCompile(`(?:axios|\$http|\$|ky|superagent)\.[a-z]+\(["']([^"']+)["']\)`),
			Capture: CaptureGroup,
		},
	}
}

// EndpointExtractor finds network endpoints referenced by inline script
// code. Markup outside script elements is never scanned.
//
// Every captured value is resolved against the site base URL, so the
// returned set only holds absolute URLs. An EndpointExtractor holds no
// mutable state and is safe for concurrent use.
type EndpointExtractor struct {
	site   model.SiteContext
	rules  []EndpointRule
	logger *slog.Logger
}

// EndpointOption configures an EndpointExtractor.
type EndpointOption func(*EndpointExtractor)

// WithEndpointRules appends rules after the built-in table.
func WithEndpointRules(rules ...EndpointRule) EndpointOption {
	return func(e *EndpointExtractor) {
		e.rules = append(e.rules, rules...)
	}
}

// WithRuleTable replaces the built-in table entirely.
func WithRuleTable(rules []EndpointRule) EndpointOption {
	return func(e *EndpointExtractor) {
		e.rules = append([]EndpointRule(nil), rules...)
	}
}

// WithEndpointLogger sets the logger used for debug output.
func WithEndpointLogger(logger *slog.Logger) EndpointOption {
	return func(e *EndpointExtractor) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// NewEndpointExtractor creates an extractor resolving against site.
func NewEndpointExtractor(site model.SiteContext, opts ...EndpointOption) *EndpointExtractor {
	e := &EndpointExtractor{
		site:   site,
		rules:  DefaultEndpointRules(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Rules returns a copy of the rule table in application order.
func (e *EndpointExtractor) Rules() []EndpointRule {
	return append([]EndpointRule(nil), e.rules...)
}

// Extract scans the inline scripts of raw page text.
func (e *EndpointExtractor) Extract(raw string) *model.EndpointSet {
	return e.ExtractPage(Parse(raw))
}

// ExtractPage scans the inline scripts of an already parsed page.
func (e *EndpointExtractor) ExtractPage(p *Page) *model.EndpointSet {
	return e.ExtractScripts(p.Scripts)
}

// ExtractScripts applies every rule, in table order, to every script body.
func (e *EndpointExtractor) ExtractScripts(scripts []string) *model.EndpointSet {
	endpoints := model.NewEndpointSet()

	for _, script := range scripts {
		for _, rule := range e.rules {
			for _, value := range rule.Match(script) {
				resolved, ok := e.site.Resolve(value)
				if !ok {
					e.logger.Debug("endpoint dropped", "rule", rule.Name, "value", value)
					continue
				}
				if endpoints.Add(resolved) {
					e.logger.Debug("endpoint found", "rule", rule.Name, "value", value)
				}
			}
		}
	}

	return endpoints
}
