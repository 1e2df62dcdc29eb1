package events

import (
	"time"
)

// DomainEvent is the base interface for all domain events
// Events represent something that has happened in the past
type DomainEvent interface {
	GetAggregateID() string
	GetEventType() string
	GetTimestamp() time.Time
	GetVersion() int
}

// BaseEvent provides common event fields
type BaseEvent struct {
	AggregateID string    `json:"aggregate_id"`
	EventType   string    `json:"event_type"`
	Timestamp   time.Time `json:"timestamp"`
	Version     int       `json:"version"`
}

func (e BaseEvent) GetAggregateID() string  { return e.AggregateID }
func (e BaseEvent) GetEventType() string    { return e.EventType }
func (e BaseEvent) GetTimestamp() time.Time { return e.Timestamp }
func (e BaseEvent) GetVersion() int         { return e.Version }

// Event types
const (
	TypeTopicSaved       = "doc.topic_saved"
	TypeTopicDeleted     = "doc.topic_deleted"
	TypeTocSaved         = "doc.toc_saved"
	TypeVersionListSaved = "doc.version_list_saved"
	TypeManualListSaved  = "doc.manual_list_saved"
	TypeTagsRemoved      = "doc.tags_removed"
)

func newBase(title, eventType string, timestamp time.Time) BaseEvent {
	return BaseEvent{
		AggregateID: title,
		EventType:   eventType,
		Timestamp:   timestamp,
		Version:     1,
	}
}

// Topic Events

// TopicSaved is raised after a topic page and its tags were persisted.
// Versions holds the union of the new and previous membership.
type TopicSaved struct {
	BaseEvent
	Title    string   `json:"title"`
	Product  string   `json:"product"`
	Manual   string   `json:"manual"`
	Topic    string   `json:"topic"`
	Versions []string `json:"versions"`
}

// NewTopicSaved creates a TopicSaved event
func NewTopicSaved(title, product, manual, topic string, versions []string, timestamp time.Time) TopicSaved {
	return TopicSaved{
		BaseEvent: newBase(title, TypeTopicSaved, timestamp),
		Title:     title,
		Product:   product,
		Manual:    manual,
		Topic:     topic,
		Versions:  versions,
	}
}

// TopicDeleted is raised after a topic page was removed
type TopicDeleted struct {
	BaseEvent
	Title    string   `json:"title"`
	Product  string   `json:"product"`
	Manual   string   `json:"manual"`
	Versions []string `json:"versions"`
}

// NewTopicDeleted creates a TopicDeleted event
func NewTopicDeleted(title, product, manual string, versions []string, timestamp time.Time) TopicDeleted {
	return TopicDeleted{
		BaseEvent: newBase(title, TypeTopicDeleted, timestamp),
		Title:     title,
		Product:   product,
		Manual:    manual,
		Versions:  versions,
	}
}

// TOC Events

// TocSaved is raised after a manual's TOC page was saved
type TocSaved struct {
	BaseEvent
	Title    string   `json:"title"`
	Product  string   `json:"product"`
	Manual   string   `json:"manual"`
	Versions []string `json:"versions"`
}

// NewTocSaved creates a TocSaved event
func NewTocSaved(title, product, manual string, versions []string, timestamp time.Time) TocSaved {
	return TocSaved{
		BaseEvent: newBase(title, TypeTocSaved, timestamp),
		Title:     title,
		Product:   product,
		Manual:    manual,
		Versions:  versions,
	}
}

// Catalog Events

// VersionListSaved is raised after a product's version list page changed
type VersionListSaved struct {
	BaseEvent
	Product string `json:"product"`
}

// NewVersionListSaved creates a VersionListSaved event
func NewVersionListSaved(title, product string, timestamp time.Time) VersionListSaved {
	return VersionListSaved{
		BaseEvent: newBase(title, TypeVersionListSaved, timestamp),
		Product:   product,
	}
}

// ManualListSaved is raised after a product's manual list page changed
type ManualListSaved struct {
	BaseEvent
	Product string `json:"product"`
}

// NewManualListSaved creates a ManualListSaved event
func NewManualListSaved(title, product string, timestamp time.Time) ManualListSaved {
	return ManualListSaved{
		BaseEvent: newBase(title, TypeManualListSaved, timestamp),
		Product:   product,
	}
}

// VersionTagsRemoved is raised when tags were stripped from a page to
// resolve a version conflict
type VersionTagsRemoved struct {
	BaseEvent
	Title    string   `json:"title"`
	Product  string   `json:"product"`
	Versions []string `json:"versions"`
}

// NewVersionTagsRemoved creates a VersionTagsRemoved event
func NewVersionTagsRemoved(title, product string, versions []string, timestamp time.Time) VersionTagsRemoved {
	return VersionTagsRemoved{
		BaseEvent: newBase(title, TypeTagsRemoved, timestamp),
		Title:     title,
		Product:   product,
		Versions:  versions,
	}
}
