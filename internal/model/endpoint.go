package model

import (
	"encoding/json"
	"sort"
	"sync"
)

// EndpointSet is a set of absolute endpoint URLs.
// Adding the same URL twice keeps one entry. Iteration order is not
// defined; use Sorted for stable output.
//
// The zero value is ready to use. An EndpointSet is safe for concurrent use.
type EndpointSet struct {
	mu    sync.RWMutex
	items map[string]struct{}
}

// NewEndpointSet creates a set holding the given endpoints.
func NewEndpointSet(endpoints ...string) *EndpointSet {
	s := &EndpointSet{items: make(map[string]struct{}, len(endpoints))}
	for _, e := range endpoints {
		s.items[e] = struct{}{}
	}
	return s
}

// Add inserts an endpoint. It reports whether the endpoint was new.
func (s *EndpointSet) Add(endpoint string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.items == nil {
		s.items = make(map[string]struct{})
	}
	if _, ok := s.items[endpoint]; ok {
		return false
	}
	s.items[endpoint] = struct{}{}
	return true
}

// Has reports whether the endpoint is in the set.
func (s *EndpointSet) Has(endpoint string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.items[endpoint]
	return ok
}

// Len returns the number of endpoints.
func (s *EndpointSet) Len() int {
	if s == nil {
		return 0
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// Sorted returns the endpoints in lexical order.
func (s *EndpointSet) Sorted() []string {
	if s == nil {
		return []string{}
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]string, 0, len(s.items))
	for e := range s.items {
		out = append(out, e)
	}
	sort.Strings(out)
	return out
}

// Merge adds every endpoint of other to s.
func (s *EndpointSet) Merge(other *EndpointSet) {
	if other == nil {
		return
	}
	for _, e := range other.Sorted() {
		s.Add(e)
	}
}

// MarshalJSON encodes the set as a sorted array.
func (s *EndpointSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Sorted())
}

// UnmarshalJSON decodes an array of endpoints.
func (s *EndpointSet) UnmarshalJSON(data []byte) error {
	var endpoints []string
	if err := json.Unmarshal(data, &endpoints); err != nil {
		return err
	}
	for _, e := range endpoints {
		s.Add(e)
	}
	return nil
}
