package services

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"ponydocs/application/ports"
	"ponydocs/domain/core/entities"
	"ponydocs/domain/core/valueobjects"
)

// NavKey is the cache key of a product's navigation at one version
func NavKey(product, version string) string {
	return fmt.Sprintf("NAVDATA-%s-%s", product, version)
}

// NavigationService builds and caches the per (product, version) manual
// navigation. Entries live for the TTL; during the last quarter of their
// life the first reader rebuilds while everyone else is served the entry.
type NavigationService struct {
	catalog *CatalogService
	tocs    *TOCService
	cache   ports.Cache
	codec   *valueobjects.Codec
	metrics ports.MetricsRecorder
	logger  *zap.Logger
	now     func() time.Time

	ttl        atomic.Int64
	group      singleflight.Group
	gens       generations
	mu         sync.Mutex
	refreshing map[string]struct{}
}

// NavigationOption configures a NavigationService
type NavigationOption func(*NavigationService)

// WithNavigationClock replaces the wall clock
func WithNavigationClock(now func() time.Time) NavigationOption {
	return func(s *NavigationService) { s.now = now }
}

// NewNavigationService creates a new navigation service
func NewNavigationService(
	catalog *CatalogService,
	tocs *TOCService,
	cache ports.Cache,
	codec *valueobjects.Codec,
	ttl time.Duration,
	metrics ports.MetricsRecorder,
	logger *zap.Logger,
	opts ...NavigationOption,
) *NavigationService {
	if metrics == nil {
		metrics = ports.NopMetrics{}
	}
	s := &NavigationService{
		catalog:    catalog,
		tocs:       tocs,
		cache:      cache,
		codec:      codec,
		metrics:    metrics,
		logger:     logger,
		now:        time.Now,
		refreshing: make(map[string]struct{}),
	}
	s.ttl.Store(int64(ttl))
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetTTL changes the TTL of entries built from now on
func (s *NavigationService) SetTTL(ttl time.Duration) {
	s.ttl.Store(int64(ttl))
}

// TTL returns the current entry TTL
func (s *NavigationService) TTL() time.Duration {
	return time.Duration(s.ttl.Load())
}

// Get returns the navigation of product at version. version may be the
// symbolic latest. dc is never modified.
func (s *NavigationService) Get(ctx context.Context, product, version string, dc valueobjects.DocContext) (entities.NavCacheEntry, error) {
	rec, err := s.catalog.Resolve(ctx, product, version, dc)
	if err != nil {
		return entities.NavCacheEntry{}, err
	}
	version = rec.ShortName
	key := NavKey(product, version)

	if v, ok := s.cache.Get(ctx, key); ok {
		if entry, ok := v.(*entities.NavCacheEntry); ok {
			s.metrics.CacheHit("nav")
			if s.inRefreshWindow(entry) && s.claimRefresh(key) {
				defer s.releaseRefresh(key)
				fresh, err := s.rebuild(ctx, key, product, version, dc)
				if err != nil {
					s.logger.Warn("Early navigation refresh failed, serving cached entry",
						zap.String("key", key),
						zap.Error(err),
					)
					return *entry, nil
				}
				return fresh, nil
			}
			return *entry, nil
		}
	}
	s.metrics.CacheMiss("nav")
	return s.rebuild(ctx, key, product, version, dc)
}

func (s *NavigationService) inRefreshWindow(e *entities.NavCacheEntry) bool {
	return !s.now().Before(e.InsertedAt.Add(e.TTL - e.EarlyRefresh))
}

func (s *NavigationService) claimRefresh(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.refreshing[key]; busy {
		return false
	}
	s.refreshing[key] = struct{}{}
	return true
}

func (s *NavigationService) releaseRefresh(key string) {
	s.mu.Lock()
	delete(s.refreshing, key)
	s.mu.Unlock()
}

// rebuild computes and stores an entry; concurrent callers for one key
// share a single build. An entry whose key was invalidated while it was
// being built is returned to its callers but not cached.
func (s *NavigationService) rebuild(ctx context.Context, key, product, version string, dc valueobjects.DocContext) (entities.NavCacheEntry, error) {
	v, err, _ := s.group.Do(key, func() (interface{}, error) {
		gen := s.gens.current(key)
		start := time.Now()
		entry, err := s.build(ctx, product, version, dc.WithProduct(product).WithSelectedVersion(product, version))
		s.metrics.CacheRebuild("nav", time.Since(start), err)
		if err != nil {
			return nil, err
		}
		entry.Key = key
		stored, err := s.gens.store(key, gen, func() error {
			return s.cache.Set(ctx, key, entry, entry.TTL)
		})
		if err != nil {
			s.logger.Warn("Failed to cache navigation", zap.String("key", key), zap.Error(err))
		}
		if !stored {
			s.logger.Debug("Navigation invalidated during rebuild, not cached", zap.String("key", key))
		}
		return entry, nil
	})
	if err != nil {
		return entities.NavCacheEntry{}, err
	}
	return *v.(*entities.NavCacheEntry), nil
}

func (s *NavigationService) build(ctx context.Context, product, version string, dc valueobjects.DocContext) (*entities.NavCacheEntry, error) {
	manuals, err := s.catalog.Manuals(ctx, product)
	if err != nil {
		return nil, err
	}

	rows := make([]*entities.NavManual, len(manuals))
	g, gctx := errgroup.WithContext(ctx)
	for i, m := range manuals {
		i, m := i, m
		g.Go(func() error {
			row := &entities.NavManual{
				ShortName:   m.ShortName,
				LongName:    m.LongName,
				Categories:  m.CategoriesString(),
				Description: m.Description,
			}
			if m.Static {
				if m.IsStaticFor(version) {
					row.FirstTitle = m.LongName
					row.FirstURL = s.codec.ManualURL(product, version, m.ShortName)
					rows[i] = row
				}
				return nil
			}
			toc, err := s.tocs.Get(gctx, product, m.ShortName, dc.SelectedVersion(product))
			if err != nil {
				return err
			}
			if first, ok := toc.FirstLinked(); ok {
				row.FirstTitle = first.Text
				row.FirstURL = first.Link
				rows[i] = row
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	ttl := s.TTL()
	entry := &entities.NavCacheEntry{
		Product:      product,
		Version:      version,
		Manuals:      make([]entities.NavManual, 0, len(rows)),
		InsertedAt:   s.now(),
		TTL:          ttl,
		EarlyRefresh: ttl / 4,
	}
	for _, r := range rows {
		if r != nil {
			entry.Manuals = append(entry.Manuals, *r)
		}
	}
	return entry, nil
}

// Invalidate drops the cached navigation of product at version. Builds
// already running for the key can no longer store their result and later
// readers start a fresh build.
func (s *NavigationService) Invalidate(ctx context.Context, product, version string) error {
	key := NavKey(product, version)
	return s.gens.invalidate(key, func() error {
		s.group.Forget(key)
		return s.cache.Delete(ctx, key)
	})
}
