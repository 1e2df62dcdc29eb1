package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"ponydocs/application/ports"
	"ponydocs/domain/core/valueobjects"
	"ponydocs/domain/wikitext"
	pkgerrors "ponydocs/pkg/errors"
)

// DuplicateDetector finds other pages already owning the versions a topic
// or TOC page is about to be tagged with. Pages competing for the same
// slots are serialized through LockSlot.
type DuplicateDetector struct {
	catalog *CatalogService
	tags    ports.TagIndex
	locker  ports.Locker
	codec   *valueobjects.Codec
	lockTTL time.Duration
	logger  *zap.Logger
}

// NewDuplicateDetector creates a new duplicate detector
func NewDuplicateDetector(
	catalog *CatalogService,
	tags ports.TagIndex,
	locker ports.Locker,
	codec *valueobjects.Codec,
	lockTTL time.Duration,
	logger *zap.Logger,
) *DuplicateDetector {
	return &DuplicateDetector{
		catalog: catalog,
		tags:    tags,
		locker:  locker,
		codec:   codec,
		lockTTL: lockTTL,
		logger:  logger,
	}
}

// slotPrefix is the sort key prefix shared by every page competing with
// title for version slots: all copies of a topic, or all TOCs of a manual
func (d *DuplicateDetector) slotPrefix(info valueobjects.TitleInfo) (string, bool) {
	switch info.Kind {
	case valueobjects.TitleTopic:
		return valueobjects.TopicSortKeyPrefix(info.Product, info.Manual, info.Topic), true
	case valueobjects.TitleTOC:
		return d.codec.TOCSortKeyPrefix(info.Product, info.Manual), true
	}
	return "", false
}

// LockSlot holds the version slots of title until release is called.
// A check and the tag write that follows it must run under this lock.
// Pages without slots get a no-op release.
func (d *DuplicateDetector) LockSlot(ctx context.Context, title string) (release func(), err error) {
	prefix, ok := d.slotPrefix(d.codec.ClassifyTitle(title))
	if !ok {
		return func() {}, nil
	}

	key := "slot:" + prefix
	lock, err := d.locker.Acquire(ctx, key, d.lockTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to lock version slots of %s: %w", title, err)
	}
	return func() {
		if err := lock.Release(context.WithoutCancel(ctx)); err != nil {
			d.logger.Warn("Failed to release slot lock", zap.String("key", key), zap.Error(err))
		}
	}, nil
}

// Check returns the first conflicting page and the versions it shares with
// title, or nil when there is none. Tags naming undefined versions fail
// with UnknownVersion.
func (d *DuplicateDetector) Check(ctx context.Context, title, content string) (*valueobjects.VersionConflict, error) {
	info := d.codec.ClassifyTitle(title)
	prefix, ok := d.slotPrefix(info)
	if !ok {
		return nil, nil
	}

	if err := d.ValidateTags(ctx, content); err != nil {
		return nil, err
	}

	ownKey := d.codec.SortKey(title)
	shared := make(map[string][]string)
	var order []string

	for _, tag := range wikitext.ExtractVersionTags(content) {
		if tag.Product != info.Product {
			continue
		}
		titles, err := d.tags.FindPagesByVersionTag(ctx, tag.Product, tag.Version, prefix)
		if err != nil {
			return nil, err
		}
		for _, other := range titles {
			if d.codec.SortKey(other) == ownKey {
				continue
			}
			if info.Kind == valueobjects.TitleTOC {
				// the TOC prefix also matches manuals sharing a name prefix
				if oi := d.codec.ClassifyTitle(other); oi.Kind != valueobjects.TitleTOC || oi.Manual != info.Manual {
					continue
				}
			}
			if _, ok := shared[other]; !ok {
				order = append(order, other)
			}
			shared[other] = append(shared[other], tag.Version)
		}
	}

	if len(order) == 0 {
		return nil, nil
	}
	sort.Strings(order)
	conflict := &valueobjects.VersionConflict{
		ConflictingTitle: order[0],
		Versions:         shared[order[0]],
	}
	d.logger.Info("Version conflict detected",
		zap.String("title", title),
		zap.String("conflictingTitle", conflict.ConflictingTitle),
		zap.Strings("versions", conflict.Versions),
	)
	return conflict, nil
}

// ValidateTags fails with UnknownVersion when a tag names a version that is
// not defined for its product
func (d *DuplicateDetector) ValidateTags(ctx context.Context, content string) error {
	for _, tag := range wikitext.ExtractVersionTags(content) {
		c, err := d.catalog.Catalog(ctx, tag.Product)
		if err != nil {
			if errors.Is(err, pkgerrors.ErrUnknownProduct) {
				return pkgerrors.NewUnknownVersionError(tag.Product, tag.Version).WithCause(err)
			}
			return err
		}
		if !c.Exists(tag.Version) {
			return pkgerrors.NewUnknownVersionError(tag.Product, tag.Version)
		}
	}
	return nil
}
