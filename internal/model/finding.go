package model

import (
	"encoding/json"
	"fmt"
)

// FindingKind distinguishes anonymous JSON values from values that were
// assigned to a script variable.
type FindingKind int

const (
	// FindingAnonymous is a JSON value found as free text.
	FindingAnonymous FindingKind = iota

	// FindingNamed is a JSON value assigned to an identifier with
	// var, let or const inside an inline script.
	FindingNamed
)

// String returns the kind name used in reports.
func (k FindingKind) String() string {
	switch k {
	case FindingAnonymous:
		return "anonymous"
	case FindingNamed:
		return "named"
	default:
		return "unknown"
	}
}

// MarshalJSON encodes the kind as its name.
func (k FindingKind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

// UnmarshalJSON decodes a kind name written by MarshalJSON.
func (k *FindingKind) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	switch name {
	case "anonymous":
		*k = FindingAnonymous
	case "named":
		*k = FindingNamed
	default:
		return fmt.Errorf("unknown finding kind %q", name)
	}
	return nil
}

// FindingSource records which extraction pass produced a finding.
type FindingSource string

const (
	// SourceText marks findings from the free-text pass over the whole page.
	SourceText FindingSource = "text"

	// SourceScript marks findings from the script-variable pass.
	SourceScript FindingSource = "script"
)

// JSONFinding is a JSON value discovered in page content.
// Findings are kept in encounter order and are never deduplicated:
// two identical objects in the page yield two findings.
type JSONFinding struct {
	// Kind tells anonymous and named findings apart.
	Kind FindingKind `json:"kind"`

	// Name is the identifier the value was assigned to.
	// Empty for anonymous findings.
	Name string `json:"name,omitempty"`

	// Value is the decoded JSON value.
	Value any `json:"value"`

	// Raw is the candidate text the value was decoded from.
	Raw string `json:"-"`

	// Source is the pass that produced the finding.
	Source FindingSource `json:"source"`
}

// NewAnonymousFinding creates a finding for a free-standing JSON value.
func NewAnonymousFinding(value any, raw string) JSONFinding {
	return JSONFinding{
		Kind:   FindingAnonymous,
		Value:  value,
		Raw:    raw,
		Source: SourceText,
	}
}

// NewNamedFinding creates a finding for a JSON value assigned to name.
func NewNamedFinding(name string, value any, raw string) JSONFinding {
	return JSONFinding{
		Kind:   FindingNamed,
		Name:   name,
		Value:  value,
		Raw:    raw,
		Source: SourceScript,
	}
}

// IsNamed reports whether the finding is tagged with an identifier.
func (f JSONFinding) IsNamed() bool {
	return f.Kind == FindingNamed
}

// Display returns the value the way reports show it: named findings are
// wrapped as {name: value}, anonymous ones are the bare value.
func (f JSONFinding) Display() any {
	if f.IsNamed() {
		return map[string]any{f.Name: f.Value}
	}
	return f.Value
}
