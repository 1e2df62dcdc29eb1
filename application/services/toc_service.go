package services

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"ponydocs/application/ports"
	"ponydocs/domain/core/entities"
	"ponydocs/domain/core/valueobjects"
	"ponydocs/domain/wikitext"
	pkgerrors "ponydocs/pkg/errors"
)

const tocLookupConcurrency = 8

// TOCKey is the cache key of a manual's TOC at one version
func TOCKey(product, manual, version string) string {
	return fmt.Sprintf("TOCDATA-%s-%s-%s", product, manual, version)
}

// TOCService computes and caches tables of contents
type TOCService struct {
	pages   ports.PageStore
	tags    ports.TagIndex
	cache   ports.Cache
	codec   *valueobjects.Codec
	ttl     atomic.Int64
	gens    generations
	metrics ports.MetricsRecorder
	logger  *zap.Logger
}

// NewTOCService creates a new TOC service
func NewTOCService(
	pages ports.PageStore,
	tags ports.TagIndex,
	cache ports.Cache,
	codec *valueobjects.Codec,
	ttl time.Duration,
	metrics ports.MetricsRecorder,
	logger *zap.Logger,
) *TOCService {
	if metrics == nil {
		metrics = ports.NopMetrics{}
	}
	s := &TOCService{
		pages:   pages,
		tags:    tags,
		cache:   cache,
		codec:   codec,
		metrics: metrics,
		logger:  logger,
	}
	s.ttl.Store(int64(ttl))
	return s
}

// SetTTL changes the TTL of entries stored from now on
func (s *TOCService) SetTTL(ttl time.Duration) {
	s.ttl.Store(int64(ttl))
}

// FindTOCPage returns the title of the manual's TOC page tagged for version
func (s *TOCService) FindTOCPage(ctx context.Context, product, manual, version string) (string, bool, error) {
	titles, err := s.tags.FindPagesByVersionTag(ctx, product, version, s.codec.TOCSortKeyPrefix(product, manual))
	if err != nil {
		return "", false, err
	}
	for _, t := range titles {
		info := s.codec.ClassifyTitle(t)
		if info.Kind == valueobjects.TitleTOC && info.Manual == manual {
			return t, true, nil
		}
	}
	return "", false, nil
}

// Get returns the TOC of a manual at version. A manual without a TOC page
// for the version yields an empty TOC.
func (s *TOCService) Get(ctx context.Context, product, manual, version string) (*entities.TOC, error) {
	key := TOCKey(product, manual, version)
	if v, ok := s.cache.Get(ctx, key); ok {
		if toc, ok := v.(*entities.TOC); ok {
			s.metrics.CacheHit("toc")
			return toc, nil
		}
	}
	s.metrics.CacheMiss("toc")

	gen := s.gens.current(key)
	start := time.Now()
	toc, err := s.build(ctx, product, manual, version)
	s.metrics.CacheRebuild("toc", time.Since(start), err)
	if err != nil {
		return nil, err
	}

	stored, err := s.gens.store(key, gen, func() error {
		return s.cache.Set(ctx, key, toc, time.Duration(s.ttl.Load()))
	})
	if err != nil {
		s.logger.Warn("Failed to cache TOC", zap.String("key", key), zap.Error(err))
	}
	if !stored {
		s.logger.Debug("TOC invalidated during rebuild, not cached", zap.String("key", key))
	}
	return toc, nil
}

func (s *TOCService) build(ctx context.Context, product, manual, version string) (*entities.TOC, error) {
	toc := &entities.TOC{Product: product, Manual: manual, Version: version}

	title, ok, err := s.FindTOCPage(ctx, product, manual, version)
	if err != nil || !ok {
		return toc, err
	}
	toc.PageTitle = title

	page, err := s.pages.Get(ctx, title)
	if err != nil {
		if errors.Is(err, pkgerrors.ErrPageNotFound) {
			return toc, nil
		}
		return nil, err
	}

	lines := wikitext.ParseTOC(page.Content)
	toc.Entries = make([]entities.TOCEntry, len(lines))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(tocLookupConcurrency)
	level := 0
	for i, line := range lines {
		if line.Section {
			level++
			toc.Entries[i] = entities.TOCEntry{Section: true, Text: line.Text, Level: 0}
			continue
		}
		entryLevel := 0
		if level > 0 {
			entryLevel = 1
		}
		i, line := i, line
		g.Go(func() error {
			entry := entities.TOCEntry{Text: line.Text, Topic: line.WikiTopic, Level: entryLevel}
			titles, err := s.tags.FindPagesByVersionTag(gctx, product, version,
				valueobjects.TopicSortKeyPrefix(product, manual, line.WikiTopic))
			if err != nil {
				return err
			}
			if len(titles) > 0 {
				entry.Title = titles[0]
				id := valueobjects.NewCanonicalIdentifier(s.codec.Namespace(), product, manual, line.WikiTopic, version)
				entry.Link = s.codec.ToPrettyURL(id)
			}
			toc.Entries[i] = entry
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return toc, nil
}

// Invalidate drops the cached TOC of a manual at version and keeps builds
// already running from storing what they read
func (s *TOCService) Invalidate(ctx context.Context, product, manual, version string) error {
	key := TOCKey(product, manual, version)
	return s.gens.invalidate(key, func() error {
		return s.cache.Delete(ctx, key)
	})
}
