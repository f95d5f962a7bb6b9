package extract

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"regexp"

	"github.com/titanous/json5"

	"github.com/nao1215/jsprobe/internal/model"
)

var (
	// objectPattern matches the shortest span from an opening brace to the
	// next closing brace. Objects with nested braces are cut short and then
	// fail to parse; that loss is accepted.
	objectPattern = regexp.MustCompile(`\{[\s\S]*?\}`)

	// assignmentPattern matches `var|let|const NAME = {...};` with the same
	// shortest-span brace matching. Group 1 is the identifier, group 2 the
	// object text.
	assignmentPattern = regexp.MustCompile(`(?:var|let|const)\s+(\w+)\s*=\s*(\{[\s\S]*?\});`)
)

// JSONExtractor finds JSON objects embedded in page text.
//
// It runs two passes and concatenates their findings in this order:
//
//  1. Free text: every brace-delimited span of the whole text is parsed
//     as strict JSON and kept as an anonymous finding when it parses.
//  2. Script variables: inside each inline script body, every
//     `var|let|const NAME = {...};` is parsed and kept as a finding named
//     NAME when it parses.
//
// Candidates that do not parse are dropped silently. Findings are never
// deduplicated. A JSONExtractor holds no mutable state and is safe for
// concurrent use.
type JSONExtractor struct {
	// lenient allows JavaScript object literal syntax (unquoted keys,
	// single quotes, trailing commas) in the script-variable pass.
	lenient bool

	logger *slog.Logger
}

// JSONOption configures a JSONExtractor.
type JSONOption func(*JSONExtractor)

// WithLenient enables JSON5 parsing for script variable assignments.
// The free-text pass always stays strict.
func WithLenient(lenient bool) JSONOption {
	return func(e *JSONExtractor) {
		e.lenient = lenient
	}
}

// WithJSONLogger sets the logger used for debug output.
func WithJSONLogger(logger *slog.Logger) JSONOption {
	return func(e *JSONExtractor) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// NewJSONExtractor creates a JSONExtractor.
func NewJSONExtractor(opts ...JSONOption) *JSONExtractor {
	e := &JSONExtractor{
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract runs both passes over raw page text.
func (e *JSONExtractor) Extract(raw string) []model.JSONFinding {
	return e.ExtractPage(Parse(raw))
}

// ExtractPage runs both passes over an already parsed page.
func (e *JSONExtractor) ExtractPage(p *Page) []model.JSONFinding {
	findings := e.FreeText(p.Text)
	findings = append(findings, e.ScriptVariables(p.Scripts)...)
	return findings
}

// FreeText runs the free-text pass over text.
func (e *JSONExtractor) FreeText(text string) []model.JSONFinding {
	findings := make([]model.JSONFinding, 0)
	candidates := objectPattern.FindAllString(text, -1)

	for _, candidate := range candidates {
		value, err := decodeStrict([]byte(candidate))
		if err != nil {
			continue
		}
		findings = append(findings, model.NewAnonymousFinding(value, candidate))
	}

	e.logger.Debug("free-text pass finished",
		"candidates", len(candidates),
		"findings", len(findings),
	)
	return findings
}

// ScriptVariables runs the script-variable pass over script bodies.
func (e *JSONExtractor) ScriptVariables(scripts []string) []model.JSONFinding {
	findings := make([]model.JSONFinding, 0)

	for _, script := range scripts {
		for _, m := range assignmentPattern.FindAllStringSubmatch(script, -1) {
			name, candidate := m[1], m[2]

			value, err := e.decodeAssignment([]byte(candidate))
			if err != nil {
				continue
			}
			findings = append(findings, model.NewNamedFinding(name, value, candidate))
		}
	}

	return findings
}

// decodeAssignment parses the object of a variable assignment, falling
// back to JSON5 when lenient mode is on.
func (e *JSONExtractor) decodeAssignment(data []byte) (any, error) {
	value, err := decodeStrict(data)
	if err == nil || !e.lenient {
		return value, err
	}

	var lenientValue any
	if err := json5.Unmarshal(data, &lenientValue); err != nil {
		return nil, err
	}
	return lenientValue, nil
}

// errTrailingData is returned when a candidate holds more than one value.
var errTrailingData = errors.New("unexpected data after JSON value")

// decodeStrict parses data as exactly one JSON value. Numbers are kept as
// json.Number so that large integers survive a round trip unchanged.
func decodeStrict(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var value any
	if err := dec.Decode(&value); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errTrailingData
	}
	return value, nil
}
