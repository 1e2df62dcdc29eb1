package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"ponydocs/domain/core/valueobjects"
)

type taggedPage struct {
	sortKey string
	tags    []valueobjects.VersionTag
}

// TagIndex is an in-memory version tag index
type TagIndex struct {
	mu    sync.RWMutex
	pages map[string]taggedPage
	byTag map[string]map[string]struct{}
}

// NewTagIndex creates an empty tag index
func NewTagIndex() *TagIndex {
	return &TagIndex{
		pages: make(map[string]taggedPage),
		byTag: make(map[string]map[string]struct{}),
	}
}

// FindPagesByVersionTag returns sorted titles carrying the tag whose sort key
// starts with sortKeyPrefix
func (x *TagIndex) FindPagesByVersionTag(ctx context.Context, product, version, sortKeyPrefix string) ([]string, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()

	tag := valueobjects.VersionTag{Product: product, Version: version}.String()
	prefix := strings.ToUpper(sortKeyPrefix)

	var titles []string
	for title := range x.byTag[tag] {
		if strings.HasPrefix(x.pages[title].sortKey, prefix) {
			titles = append(titles, title)
		}
	}
	sort.Strings(titles)
	return titles, nil
}

// SetPageTags replaces every tag of a page
func (x *TagIndex) SetPageTags(ctx context.Context, title, sortKey string, tags []valueobjects.VersionTag) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	x.removeLocked(title)
	if len(tags) == 0 {
		return nil
	}

	stored := make([]valueobjects.VersionTag, len(tags))
	copy(stored, tags)
	x.pages[title] = taggedPage{sortKey: strings.ToUpper(sortKey), tags: stored}
	for _, t := range stored {
		key := t.String()
		if x.byTag[key] == nil {
			x.byTag[key] = make(map[string]struct{})
		}
		x.byTag[key][title] = struct{}{}
	}
	return nil
}

// TagsOf returns the tags of a page
func (x *TagIndex) TagsOf(ctx context.Context, title string) ([]valueobjects.VersionTag, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()

	p := x.pages[title]
	out := make([]valueobjects.VersionTag, len(p.tags))
	copy(out, p.tags)
	return out, nil
}

// RemovePage drops a page from the index
func (x *TagIndex) RemovePage(ctx context.Context, title string) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	x.removeLocked(title)
	return nil
}

func (x *TagIndex) removeLocked(title string) {
	p, ok := x.pages[title]
	if !ok {
		return
	}
	for _, t := range p.tags {
		key := t.String()
		delete(x.byTag[key], title)
		if len(x.byTag[key]) == 0 {
			delete(x.byTag, key)
		}
	}
	delete(x.pages, title)
}
