package services

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"ponydocs/application/ports"
	"ponydocs/domain/core/valueobjects"
	"ponydocs/domain/wikitext"
	pkgerrors "ponydocs/pkg/errors"
)

// PageWriter persists a generated page through the full save pipeline
type PageWriter func(ctx context.Context, title, content, summary string) error

const autoCreateSummary = "Auto-created topic"

// TopicAutoCreator creates topic pages that a saved TOC or link refers to
// but that do not exist yet
type TopicAutoCreator struct {
	catalog *CatalogService
	pages   ports.PageStore
	tags    ports.TagIndex
	codec   *valueobjects.Codec
	logger  *zap.Logger
}

// NewTopicAutoCreator creates a new topic auto-creator
func NewTopicAutoCreator(catalog *CatalogService, pages ports.PageStore, tags ports.TagIndex, codec *valueobjects.Codec, logger *zap.Logger) *TopicAutoCreator {
	return &TopicAutoCreator{
		catalog: catalog,
		pages:   pages,
		tags:    tags,
		codec:   codec,
		logger:  logger,
	}
}

// FromTOC creates every topic listed in a TOC page that has no page tagged
// for any of the TOC's versions. New topics are stored at the earliest of
// those versions and tagged with all of them.
func (a *TopicAutoCreator) FromTOC(ctx context.Context, tocTitle, content string, write PageWriter) ([]string, error) {
	info := a.codec.ClassifyTitle(tocTitle)
	if info.Kind != valueobjects.TitleTOC {
		return nil, nil
	}

	versions := wikitext.VersionsFor(wikitext.ExtractVersionTags(content), info.Product)
	if len(versions) == 0 {
		return nil, nil
	}
	catalog, err := a.catalog.Catalog(ctx, info.Product)
	if err != nil {
		return nil, err
	}
	earliest, err := catalog.FindEarliest(versions)
	if err != nil {
		return nil, err
	}
	versions = catalog.SortByRank(versions)

	var created []string
	for _, line := range wikitext.TOCTopics(content) {
		if line.WikiTopic == "" {
			continue
		}
		found, err := a.taggedAny(ctx, info.Product, info.Manual, line.WikiTopic, versions)
		if err != nil {
			return created, err
		}
		if found {
			continue
		}

		title := a.codec.TopicTitle(info.Product, info.Manual, line.WikiTopic, earliest.ShortName)
		exists, err := a.pages.Exists(ctx, title)
		if err != nil {
			return created, err
		}
		if exists {
			continue
		}
		if err := write(ctx, title, wikitext.NewTopicContent(line.Text, info.Product, versions), autoCreateSummary); err != nil {
			return created, err
		}
		created = append(created, title)
	}

	if len(created) > 0 {
		a.logger.Info("Created topics from TOC",
			zap.String("toc", tocTitle),
			zap.Strings("created", created),
		)
	}
	return created, nil
}

// FromLinks creates the targets of three and four segment documentation
// links that resolve to a missing topic. Cross product links use the
// target product's latest released version and are skipped without one.
func (a *TopicAutoCreator) FromLinks(ctx context.Context, title, content string, dc valueobjects.DocContext, write PageWriter) ([]string, error) {
	var created []string
	for _, link := range wikitext.ExtractLinks(content) {
		pieces := a.codec.ParsePartialLink(link.Target, a.codec.Namespace())
		if !pieces.Documentation || (pieces.Count() != 3 && pieces.Count() != 4) {
			continue
		}
		id, err := a.codec.ToCanonical(pieces, dc)
		if err != nil {
			continue
		}

		version := id.Version()
		if a.codec.IsLatest(version) {
			c, err := a.catalog.Catalog(ctx, id.Product())
			if err != nil {
				if errors.Is(err, pkgerrors.ErrUnknownProduct) {
					continue
				}
				return created, err
			}
			latest, err := c.LatestReleased()
			if err != nil {
				continue
			}
			version = latest.ShortName
		}

		found, err := a.taggedAny(ctx, id.Product(), id.Manual(), id.Topic(), []string{version})
		if err != nil {
			return created, err
		}
		if found {
			continue
		}

		target := a.codec.TopicTitle(id.Product(), id.Manual(), id.Topic(), version)
		if target == title {
			continue
		}
		exists, err := a.pages.Exists(ctx, target)
		if err != nil {
			return created, err
		}
		if exists {
			continue
		}

		heading := link.Text
		if heading == "" {
			heading = id.Topic()
		}
		if err := write(ctx, target, wikitext.NewTopicContent(heading, id.Product(), []string{version}), autoCreateSummary); err != nil {
			return created, err
		}
		created = append(created, target)
	}

	if len(created) > 0 {
		a.logger.Info("Created topics from links",
			zap.String("title", title),
			zap.Strings("created", created),
		)
	}
	return created, nil
}

func (a *TopicAutoCreator) taggedAny(ctx context.Context, product, manual, topic string, versions []string) (bool, error) {
	prefix := valueobjects.TopicSortKeyPrefix(product, manual, topic)
	for _, v := range versions {
		titles, err := a.tags.FindPagesByVersionTag(ctx, product, v, prefix)
		if err != nil {
			return false, err
		}
		if len(titles) > 0 {
			return true, nil
		}
	}
	return false, nil
}
