package ports

import (
	"context"
	"time"

	"ponydocs/domain/core/entities"
	"ponydocs/domain/core/valueobjects"
	"ponydocs/domain/events"
)

// PageStore defines the interface for wiki page persistence
// This is a port in hexagonal architecture - the engine doesn't know about the implementation
type PageStore interface {
	// Get retrieves a page by storage title; a missing page is ErrPageNotFound
	Get(ctx context.Context, title string) (*entities.Page, error)

	// Exists reports whether a page exists
	Exists(ctx context.Context, title string) (bool, error)

	// Save persists page content. isNew fails the save when the page already exists.
	Save(ctx context.Context, title, content, summary string, isNew bool) error

	// Delete removes a page
	Delete(ctx context.Context, title string) error

	// ListTitles returns every title starting with prefix
	ListTitles(ctx context.Context, prefix string) ([]string, error)
}

// TagIndex defines the interface for the version tag index
type TagIndex interface {
	// FindPagesByVersionTag returns titles tagged V:product:version whose sort
	// key starts with sortKeyPrefix. An empty prefix matches every page.
	FindPagesByVersionTag(ctx context.Context, product, version, sortKeyPrefix string) ([]string, error)

	// SetPageTags replaces every tag of a page
	SetPageTags(ctx context.Context, title, sortKey string, tags []valueobjects.VersionTag) error

	// TagsOf returns the current tags of a page
	TagsOf(ctx context.Context, title string) ([]valueobjects.VersionTag, error)

	// RemovePage drops a page from the index
	RemovePage(ctx context.Context, title string) error
}

// EdgeStore defines the interface for link graph persistence
type EdgeStore interface {
	// ReplaceEdges deletes every edge leaving fromTitles, then inserts edges,
	// as one logical transaction
	ReplaceEdges(ctx context.Context, fromTitles []string, edges []valueobjects.LinkEdge) error

	// EdgesFrom retrieves the edges leaving a title
	EdgesFrom(ctx context.Context, from string) ([]valueobjects.LinkEdge, error)

	// EdgesTo retrieves the edges pointing at a title
	EdgesTo(ctx context.Context, to string) ([]valueobjects.LinkEdge, error)
}

// Lock is a held mutual exclusion
type Lock interface {
	Release(ctx context.Context) error
}

// Locker provides per-key mutual exclusion
type Locker interface {
	// Acquire blocks until key is held or ctx is done. ttl bounds how long a
	// crashed holder can keep the key.
	Acquire(ctx context.Context, key string, ttl time.Duration) (Lock, error)
}

// EventPublisher defines the interface for publishing domain events
type EventPublisher interface {
	// Publish sends a single event
	Publish(ctx context.Context, event events.DomainEvent) error

	// PublishBatch sends multiple events
	PublishBatch(ctx context.Context, events []events.DomainEvent) error
}

// EventBus defines the interface for publishing domain events
type EventBus interface {
	EventPublisher

	// Subscribe registers a handler for an event type
	Subscribe(eventType string, handler EventHandler) error

	// Unsubscribe removes a handler
	Unsubscribe(eventType string, handler EventHandler) error
}

// EventHandler defines the interface for handling domain events
type EventHandler interface {
	// Handle processes an event
	Handle(ctx context.Context, event events.DomainEvent) error

	// CanHandle checks if this handler can process the event
	CanHandle(eventType string) bool
}

// Cache defines the interface for caching
type Cache interface {
	// Get retrieves a value from cache
	Get(ctx context.Context, key string) (interface{}, bool)

	// Set stores a value in cache for ttl
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error

	// Delete removes a value from cache
	Delete(ctx context.Context, key string) error

	// Clear removes all values from cache
	Clear(ctx context.Context) error
}

// MetricsRecorder receives engine counters
type MetricsRecorder interface {
	CacheHit(kind string)
	CacheMiss(kind string)
	CacheRebuild(kind string, d time.Duration, err error)
	LinksReplaced(count int)
	VersionConflict()
	Resolution(kind string)
}

// NopMetrics discards every counter
type NopMetrics struct{}

func (NopMetrics) CacheHit(string) {}
func (NopMetrics) CacheMiss(string) {}
func (NopMetrics) CacheRebuild(string, time.Duration, error) {}
func (NopMetrics) LinksReplaced(int) {}
func (NopMetrics) VersionConflict() {}
func (NopMetrics) Resolution(string) {}
