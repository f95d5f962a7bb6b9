package model

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// TestEndpointSet tests set semantics.
func TestEndpointSet(t *testing.T) {
	t.Parallel()

	t.Run("duplicates collapse", func(t *testing.T) {
		t.Parallel()

		s := NewEndpointSet()
		if !s.Add("https://example.com/api/users") {
			t.Error("first Add should report a new endpoint")
		}
		if s.Add("https://example.com/api/users") {
			t.Error("second Add should report a duplicate")
		}
		if s.Len() != 1 {
			t.Errorf("expected 1 endpoint, got %d", s.Len())
		}
	})

	t.Run("zero value is usable", func(t *testing.T) {
		t.Parallel()

		var s EndpointSet
		s.Add("https://example.com/")
		if !s.Has("https://example.com/") {
			t.Error("expected endpoint to be present")
		}
	})

	t.Run("sorted output", func(t *testing.T) {
		t.Parallel()

		s := NewEndpointSet("https://b.test/", "https://a.test/", "https://c.test/")
		want := []string{"https://a.test/", "https://b.test/", "https://c.test/"}
		if diff := cmp.Diff(want, s.Sorted()); diff != "" {
			t.Errorf("Sorted() mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("merge", func(t *testing.T) {
		t.Parallel()

		s := NewEndpointSet("https://a.test/")
		s.Merge(NewEndpointSet("https://a.test/", "https://b.test/"))
		s.Merge(nil)
		if s.Len() != 2 {
			t.Errorf("expected 2 endpoints after merge, got %d", s.Len())
		}
	})

	t.Run("nil set has zero length", func(t *testing.T) {
		t.Parallel()

		var s *EndpointSet
		if s.Len() != 0 {
			t.Errorf("expected 0, got %d", s.Len())
		}
		if len(s.Sorted()) != 0 {
			t.Error("expected empty slice")
		}
	})

	t.Run("concurrent adds", func(t *testing.T) {
		t.Parallel()

		s := NewEndpointSet()
		var wg sync.WaitGroup
		for i := 0; i < 50; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				s.Add("https://example.com/same")
			}()
		}
		wg.Wait()

		if s.Len() != 1 {
			t.Errorf("expected 1 endpoint, got %d", s.Len())
		}
	})

	t.Run("json round trip", func(t *testing.T) {
		t.Parallel()

		s := NewEndpointSet("https://b.test/", "https://a.test/")
		data, err := json.Marshal(s)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		if string(data) != `["https://a.test/","https://b.test/"]` {
			t.Errorf("unexpected JSON: %s", data)
		}

		var decoded EndpointSet
		if err := json.Unmarshal(data, &decoded); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if decoded.Len() != 2 {
			t.Errorf("expected 2 endpoints, got %d", decoded.Len())
		}
	})
}

// TestJSONFinding tests finding helpers.
func TestJSONFinding(t *testing.T) {
	t.Parallel()

	t.Run("anonymous finding displays bare value", func(t *testing.T) {
		t.Parallel()

		f := NewAnonymousFinding(map[string]any{"a": float64(1)}, `{"a":1}`)
		if f.IsNamed() {
			t.Error("anonymous finding reported as named")
		}
		if f.Source != SourceText {
			t.Errorf("expected source text, got %q", f.Source)
		}
		if diff := cmp.Diff(map[string]any{"a": float64(1)}, f.Display()); diff != "" {
			t.Errorf("Display() mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("named finding wraps value with its name", func(t *testing.T) {
		t.Parallel()

		f := NewNamedFinding("config", map[string]any{"a": float64(1)}, `{"a":1}`)
		if !f.IsNamed() {
			t.Error("named finding not reported as named")
		}
		want := map[string]any{"config": map[string]any{"a": float64(1)}}
		if diff := cmp.Diff(want, f.Display()); diff != "" {
			t.Errorf("Display() mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("kind marshals as name", func(t *testing.T) {
		t.Parallel()

		data, err := json.Marshal(NewNamedFinding("x", true, "true"))
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		want := `{"kind":"named","name":"x","value":true,"source":"script"}`
		if string(data) != want {
			t.Errorf("got %s, want %s", data, want)
		}
	})

	t.Run("kind decodes from name", func(t *testing.T) {
		t.Parallel()

		var f JSONFinding
		if err := json.Unmarshal([]byte(`{"kind":"named","name":"x","value":1,"source":"script"}`), &f); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if f.Kind != FindingNamed {
			t.Errorf("expected named kind, got %v", f.Kind)
		}

		var k FindingKind
		if err := json.Unmarshal([]byte(`"bogus"`), &k); err == nil {
			t.Error("expected error for unknown kind")
		}
	})
}

// TestPageResult tests result helpers.
func TestPageResult(t *testing.T) {
	t.Parallel()

	t.Run("new result is empty", func(t *testing.T) {
		t.Parallel()

		r := NewPageResult("https://example.com/")
		if !r.IsEmpty() {
			t.Error("expected new result to be empty")
		}
	})

	t.Run("named findings filter", func(t *testing.T) {
		t.Parallel()

		r := NewPageResult("https://example.com/")
		r.Findings = append(r.Findings,
			NewAnonymousFinding(map[string]any{}, "{}"),
			NewNamedFinding("X", map[string]any{}, "{}"),
		)
		if r.IsEmpty() {
			t.Error("expected non-empty result")
		}
		named := r.NamedFindings()
		if len(named) != 1 || named[0].Name != "X" {
			t.Errorf("expected one named finding X, got %+v", named)
		}
	})
}

// TestOutcome tests the two-variant outcome.
func TestOutcome(t *testing.T) {
	t.Parallel()

	ok := Succeeded(NewPageResult("https://example.com/"))
	if !ok.OK() {
		t.Error("expected successful outcome")
	}
	if ok.URL != "https://example.com/" {
		t.Errorf("unexpected URL %q", ok.URL)
	}

	errBoom := errors.New("boom")
	failed := Failed("https://example.com/down", errBoom)
	if failed.OK() {
		t.Error("expected failed outcome")
	}
	if !errors.Is(failed.Err, errBoom) {
		t.Errorf("expected wrapped error, got %v", failed.Err)
	}
	if failed.ErrorMessage != "boom" {
		t.Errorf("expected error message, got %q", failed.ErrorMessage)
	}
}

// TestBatchResult tests batch counters.
func TestBatchResult(t *testing.T) {
	t.Parallel()

	b := &BatchResult{
		Outcomes: []Outcome{
			Failed("https://a.test/", errors.New("down")),
			Succeeded(NewPageResult("https://b.test/")),
			Succeeded(NewPageResult("https://c.test/")),
		},
	}

	if b.SucceededCount() != 2 {
		t.Errorf("expected 2 successes, got %d", b.SucceededCount())
	}
	if b.FailedCount() != 1 {
		t.Errorf("expected 1 failure, got %d", b.FailedCount())
	}

	results := b.Results()
	if len(results) != 2 || results[0].URL != "https://b.test/" {
		t.Errorf("unexpected results: %+v", results)
	}
}
