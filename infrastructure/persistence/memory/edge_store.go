package memory

import (
	"context"
	"sort"
	"sync"

	"ponydocs/domain/core/valueobjects"
)

// EdgeStore keeps the link graph in two adjacency maps
type EdgeStore struct {
	mu   sync.RWMutex
	from map[string]map[string]struct{}
	to   map[string]map[string]struct{}
}

// NewEdgeStore creates an empty edge store
func NewEdgeStore() *EdgeStore {
	return &EdgeStore{
		from: make(map[string]map[string]struct{}),
		to:   make(map[string]map[string]struct{}),
	}
}

// ReplaceEdges deletes every edge leaving fromTitles and inserts edges
// under one lock
func (s *EdgeStore) ReplaceEdges(ctx context.Context, fromTitles []string, edges []valueobjects.LinkEdge) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, f := range fromTitles {
		for t := range s.from[f] {
			delete(s.to[t], f)
			if len(s.to[t]) == 0 {
				delete(s.to, t)
			}
		}
		delete(s.from, f)
	}

	for _, e := range edges {
		if s.from[e.FromTitle] == nil {
			s.from[e.FromTitle] = make(map[string]struct{})
		}
		if s.to[e.ToTitle] == nil {
			s.to[e.ToTitle] = make(map[string]struct{})
		}
		s.from[e.FromTitle][e.ToTitle] = struct{}{}
		s.to[e.ToTitle][e.FromTitle] = struct{}{}
	}
	return nil
}

// EdgesFrom returns the edges leaving from, sorted by target
func (s *EdgeStore) EdgesFrom(ctx context.Context, from string) ([]valueobjects.LinkEdge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	edges := make([]valueobjects.LinkEdge, 0, len(s.from[from]))
	for t := range s.from[from] {
		edges = append(edges, valueobjects.LinkEdge{FromTitle: from, ToTitle: t})
	}
	sort.Slice(edges, func(i, j int) bool { return edges[i].ToTitle < edges[j].ToTitle })
	return edges, nil
}

// EdgesTo returns the edges pointing at to, sorted by source
func (s *EdgeStore) EdgesTo(ctx context.Context, to string) ([]valueobjects.LinkEdge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	edges := make([]valueobjects.LinkEdge, 0, len(s.to[to]))
	for f := range s.to[to] {
		edges = append(edges, valueobjects.LinkEdge{FromTitle: f, ToTitle: to})
	}
	sort.Slice(edges, func(i, j int) bool { return edges[i].FromTitle < edges[j].FromTitle })
	return edges, nil
}

// Count returns the total number of edges
func (s *EdgeStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, targets := range s.from {
		n += len(targets)
	}
	return n
}
