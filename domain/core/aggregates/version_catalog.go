package aggregates

import (
	"sort"
	"time"

	"ponydocs/domain/core/valueobjects"
	pkgerrors "ponydocs/pkg/errors"
)

// VersionCatalog is the aggregate root for the versions of one product.
// It is immutable once built; a reload replaces the whole catalog.
type VersionCatalog struct {
	product  string
	versions []valueobjects.VersionRecord
	byName   map[string]int
	loadedAt time.Time
}

// NewVersionCatalog builds a catalog from records listed oldest first.
// Ranks are reassigned from list order; duplicate names keep the first entry.
func NewVersionCatalog(product string, records []valueobjects.VersionRecord) *VersionCatalog {
	c := &VersionCatalog{
		product:  product,
		versions: make([]valueobjects.VersionRecord, 0, len(records)),
		byName:   make(map[string]int, len(records)),
		loadedAt: time.Now(),
	}
	for _, r := range records {
		if r.ShortName == "" {
			continue
		}
		if _, dup := c.byName[r.ShortName]; dup {
			continue
		}
		r.Product = product
		r.OrdinalRank = len(c.versions)
		c.byName[r.ShortName] = len(c.versions)
		c.versions = append(c.versions, r)
	}
	return c
}

// Product returns the product short name
func (c *VersionCatalog) Product() string { return c.product }

// LoadedAt returns when the catalog was built
func (c *VersionCatalog) LoadedAt() time.Time { return c.loadedAt }

// Len returns the number of defined versions
func (c *VersionCatalog) Len() int { return len(c.versions) }

// All returns every version, oldest first
func (c *VersionCatalog) All() []valueobjects.VersionRecord {
	out := make([]valueobjects.VersionRecord, len(c.versions))
	copy(out, c.versions)
	return out
}

// Released returns released versions, oldest first
func (c *VersionCatalog) Released() []valueobjects.VersionRecord {
	var out []valueobjects.VersionRecord
	for _, v := range c.versions {
		if v.IsReleased() {
			out = append(out, v)
		}
	}
	return out
}

// Get looks up a version by exact, case-sensitive name
func (c *VersionCatalog) Get(name string) (valueobjects.VersionRecord, bool) {
	idx, ok := c.byName[name]
	if !ok {
		return valueobjects.VersionRecord{}, false
	}
	return c.versions[idx], true
}

// Exists reports whether the version is defined
func (c *VersionCatalog) Exists(name string) bool {
	_, ok := c.byName[name]
	return ok
}

// IsReleased reports whether the version is defined and released
func (c *VersionCatalog) IsReleased(name string) bool {
	v, ok := c.Get(name)
	return ok && v.IsReleased()
}

// LatestReleased returns the released version with the highest rank
func (c *VersionCatalog) LatestReleased() (valueobjects.VersionRecord, error) {
	for i := len(c.versions) - 1; i >= 0; i-- {
		if c.versions[i].IsReleased() {
			return c.versions[i], nil
		}
	}
	return valueobjects.VersionRecord{}, pkgerrors.NewUnknownVersionError(c.product, "latest")
}

// FindEarliest returns the lowest ranked version among candidates.
// Unknown names are ignored.
func (c *VersionCatalog) FindEarliest(candidates []string) (valueobjects.VersionRecord, error) {
	best := -1
	for _, name := range candidates {
		idx, ok := c.byName[name]
		if !ok {
			continue
		}
		if best < 0 || idx < best {
			best = idx
		}
	}
	if best < 0 {
		return valueobjects.VersionRecord{}, pkgerrors.NewUnknownVersionError(c.product, "")
	}
	return c.versions[best], nil
}

// SortByRank orders version names oldest first. Unknown names sort last,
// alphabetically.
func (c *VersionCatalog) SortByRank(names []string) []string {
	out := make([]string, len(names))
	copy(out, names)
	sort.SliceStable(out, func(i, j int) bool {
		ri, oki := c.byName[out[i]]
		rj, okj := c.byName[out[j]]
		switch {
		case oki && okj:
			return ri < rj
		case oki:
			return true
		case okj:
			return false
		default:
			return out[i] < out[j]
		}
	})
	return out
}
