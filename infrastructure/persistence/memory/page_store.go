// Package memory holds in-process adapters for the engine's ports. They
// back the development server, the CLI and service tests.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"ponydocs/domain/core/entities"
	pkgerrors "ponydocs/pkg/errors"
)

// PageStore keeps pages in a map keyed by title
type PageStore struct {
	mu    sync.RWMutex
	pages map[string]entities.Page
	now   func() time.Time
}

// NewPageStore creates an empty page store
func NewPageStore() *PageStore {
	return &PageStore{
		pages: make(map[string]entities.Page),
		now:   time.Now,
	}
}

// Get retrieves a page by title
func (s *PageStore) Get(ctx context.Context, title string) (*entities.Page, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.pages[title]
	if !ok {
		return nil, pkgerrors.NewPageNotFoundError(title)
	}
	return &p, nil
}

// Exists reports whether a page exists
func (s *PageStore) Exists(ctx context.Context, title string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.pages[title]
	return ok, nil
}

// Save creates or replaces a page
func (s *PageStore) Save(ctx context.Context, title, content, summary string, isNew bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.pages[title]
	if ok && isNew {
		return pkgerrors.NewConflictError("page already exists: " + title)
	}
	s.pages[title] = entities.Page{
		Title:       title,
		Content:     content,
		EditSummary: summary,
		Revision:    existing.Revision + 1,
		UpdatedAt:   s.now(),
	}
	return nil
}

// Delete removes a page
func (s *PageStore) Delete(ctx context.Context, title string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.pages[title]; !ok {
		return pkgerrors.NewPageNotFoundError(title)
	}
	delete(s.pages, title)
	return nil
}

// ListTitles returns every title starting with prefix, sorted
func (s *PageStore) ListTitles(ctx context.Context, prefix string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var titles []string
	for t := range s.pages {
		if strings.HasPrefix(t, prefix) {
			titles = append(titles, t)
		}
	}
	sort.Strings(titles)
	return titles, nil
}
