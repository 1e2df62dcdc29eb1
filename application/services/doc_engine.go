package services

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"ponydocs/application/ports"
	"ponydocs/domain/config"
	"ponydocs/domain/core/entities"
	"ponydocs/domain/core/valueobjects"
	"ponydocs/domain/events"
	"ponydocs/domain/wikitext"
	pkgerrors "ponydocs/pkg/errors"
)

// SaveRequest is one page edit
type SaveRequest struct {
	Title   string
	Content string
	Summary string
	// Context is the editor's ambient state, used to resolve short links
	Context valueobjects.DocContext
}

// SaveResult reports what a save changed
type SaveResult struct {
	Title       string   `json:"title"`
	Created     bool     `json:"created"`
	Membership  []string `json:"membership,omitempty"`
	Previous    []string `json:"previous,omitempty"`
	AutoCreated []string `json:"autoCreated,omitempty"`
}

// DocEngine is the host-facing facade of the documentation engine
type DocEngine struct {
	pages    ports.PageStore
	tags     ports.TagIndex
	bus      ports.EventBus
	catalog  *CatalogService
	links    *LinkGraphService
	tocs     *TOCService
	navs     *NavigationService
	detector *DuplicateDetector
	resolver *RequestResolver
	creator  *TopicAutoCreator
	codec    *valueobjects.Codec
	cfg      *config.DomainConfig
	metrics  ports.MetricsRecorder
	logger   *zap.Logger
	now      func() time.Time
}

// NewDocEngine creates the engine facade
func NewDocEngine(
	pages ports.PageStore,
	tags ports.TagIndex,
	bus ports.EventBus,
	catalog *CatalogService,
	links *LinkGraphService,
	tocs *TOCService,
	navs *NavigationService,
	detector *DuplicateDetector,
	resolver *RequestResolver,
	creator *TopicAutoCreator,
	codec *valueobjects.Codec,
	cfg *config.DomainConfig,
	metrics ports.MetricsRecorder,
	logger *zap.Logger,
) *DocEngine {
	if metrics == nil {
		metrics = ports.NopMetrics{}
	}
	return &DocEngine{
		pages:    pages,
		tags:     tags,
		bus:      bus,
		catalog:  catalog,
		links:    links,
		tocs:     tocs,
		navs:     navs,
		detector: detector,
		resolver: resolver,
		creator:  creator,
		codec:    codec,
		cfg:      cfg,
		metrics:  metrics,
		logger:   logger,
		now:      time.Now,
	}
}

// Codec returns the identifier codec
func (e *DocEngine) Codec() *valueobjects.Codec { return e.codec }

// Config returns the domain configuration
func (e *DocEngine) Config() *config.DomainConfig { return e.cfg }

// ResolveRequestToPage maps a request path onto what the host should serve
func (e *DocEngine) ResolveRequestToPage(ctx context.Context, path string, dc valueobjects.DocContext) Resolution {
	return e.resolver.Resolve(ctx, path, dc)
}

// GetNavigation returns the manual navigation of product at version
func (e *DocEngine) GetNavigation(ctx context.Context, product, version string, dc valueobjects.DocContext) (entities.NavCacheEntry, error) {
	return e.navs.Get(ctx, product, version, dc)
}

// GetTOC returns the table of contents of a manual at version
func (e *DocEngine) GetTOC(ctx context.Context, product, manual, version string, dc valueobjects.DocContext) (*entities.TOC, error) {
	rec, err := e.catalog.Resolve(ctx, product, version, dc)
	if err != nil {
		return nil, err
	}
	if _, err := e.catalog.Manual(ctx, product, manual); err != nil {
		return nil, err
	}
	return e.tocs.Get(ctx, product, manual, rec.ShortName)
}

// TranslateLinkToken turns a link token into a pretty URL
func (e *DocEngine) TranslateLinkToken(token string, dc valueobjects.DocContext) (string, error) {
	id, err := e.codec.Translate(token, dc)
	if err != nil {
		return "", err
	}
	return e.codec.ToPrettyURL(id), nil
}

// Products lists the documented products
func (e *DocEngine) Products(ctx context.Context) ([]entities.Product, error) {
	return e.catalog.Products(ctx)
}

// Versions lists the versions of a product, oldest first
func (e *DocEngine) Versions(ctx context.Context, product string) ([]valueobjects.VersionRecord, error) {
	c, err := e.catalog.Catalog(ctx, product)
	if err != nil {
		return nil, err
	}
	return c.All(), nil
}

// Backlinks returns the pages linking to a pretty URL or raw title
func (e *DocEngine) Backlinks(ctx context.Context, to string) ([]valueobjects.LinkEdge, error) {
	return e.links.Backlinks(ctx, to)
}

// OnPageSaved refreshes the link graph and raises the invalidation event
// matching the title's shape
func (e *DocEngine) OnPageSaved(ctx context.Context, title, content string, membership, previous []string) error {
	if err := e.links.OnSaved(ctx, title, content, membership, previous); err != nil {
		return err
	}

	info := e.codec.ClassifyTitle(title)
	now := e.now()
	var event events.DomainEvent
	switch info.Kind {
	case valueobjects.TitleTopic:
		event = events.NewTopicSaved(title, info.Product, info.Manual, info.Topic, union(membership, previous), now)
	case valueobjects.TitleTOC:
		event = events.NewTocSaved(title, info.Product, info.Manual, union(membership, previous), now)
	case valueobjects.TitleVersionList:
		event = events.NewVersionListSaved(title, info.Product, now)
	case valueobjects.TitleManualList:
		event = events.NewManualListSaved(title, info.Product, now)
	case valueobjects.TitleProductList:
		e.catalog.InvalidateProducts()
	}
	return e.publish(ctx, event)
}

// OnPageDeleted removes the page's edges and raises the invalidation event
func (e *DocEngine) OnPageDeleted(ctx context.Context, title string, membership []string) error {
	if err := e.links.OnDeleted(ctx, title, membership); err != nil {
		return err
	}

	info := e.codec.ClassifyTitle(title)
	now := e.now()
	var event events.DomainEvent
	switch info.Kind {
	case valueobjects.TitleTopic:
		event = events.NewTopicDeleted(title, info.Product, info.Manual, membership, now)
	case valueobjects.TitleTOC:
		event = events.NewTocSaved(title, info.Product, info.Manual, membership, now)
	case valueobjects.TitleVersionList:
		event = events.NewVersionListSaved(title, info.Product, now)
	case valueobjects.TitleManualList:
		event = events.NewManualListSaved(title, info.Product, now)
	case valueobjects.TitleProductList:
		e.catalog.InvalidateProducts()
	}
	return e.publish(ctx, event)
}

// SavePage runs the full save pipeline: conflict detection, auto-creation,
// the store write, tag indexing, then link graph and invalidation.
// A version conflict rejects the save before anything is written.
func (e *DocEngine) SavePage(ctx context.Context, req SaveRequest) (*SaveResult, error) {
	info := e.codec.ClassifyTitle(req.Title)

	release, err := e.detector.LockSlot(ctx, req.Title)
	if err != nil {
		return nil, err
	}
	defer release()

	conflict, err := e.detector.Check(ctx, req.Title, req.Content)
	if err != nil {
		return nil, err
	}
	if conflict != nil {
		e.metrics.VersionConflict()
		return nil, pkgerrors.NewVersionConflictError(conflict.ConflictingTitle, conflict.Versions)
	}

	result := &SaveResult{Title: req.Title}

	switch {
	case info.Kind == valueobjects.TitleTOC:
		created, err := e.creator.FromTOC(ctx, req.Title, req.Content, e.writeGenerated)
		if err != nil {
			return nil, err
		}
		result.AutoCreated = created
	case info.Kind == valueobjects.TitleTopic && e.cfg.AutoCreateOnEdit:
		created, err := e.creator.FromLinks(ctx, req.Title, req.Content, e.editContext(ctx, info, req), e.writeGenerated)
		if err != nil {
			return nil, err
		}
		result.AutoCreated = created
	}

	membership, previous, created, err := e.write(ctx, req.Title, req.Content, req.Summary, false)
	if err != nil {
		return nil, err
	}
	result.Created = created
	result.Membership = membership
	result.Previous = previous

	e.logger.Info("Page saved",
		zap.String("title", req.Title),
		zap.String("kind", info.Kind.String()),
		zap.Strings("membership", membership),
		zap.Int("autoCreated", len(result.AutoCreated)),
	)
	return result, nil
}

// DeletePage removes a page, its tags and its edges
func (e *DocEngine) DeletePage(ctx context.Context, title string) error {
	previous, err := e.membership(ctx, title)
	if err != nil {
		return err
	}
	if err := e.pages.Delete(ctx, title); err != nil {
		return err
	}
	if err := e.tags.RemovePage(ctx, title); err != nil {
		return err
	}
	if err := e.OnPageDeleted(ctx, title, previous); err != nil {
		return err
	}

	e.logger.Info("Page deleted",
		zap.String("title", title),
		zap.Strings("membership", previous),
	)
	return nil
}

// RemoveVersionTags strips product version tags from a page so another
// page can claim those versions. It returns the versions actually removed.
func (e *DocEngine) RemoveVersionTags(ctx context.Context, title, product string, versions []string) ([]string, error) {
	release, err := e.detector.LockSlot(ctx, title)
	if err != nil {
		return nil, err
	}
	defer release()

	page, err := e.pages.Get(ctx, title)
	if err != nil {
		return nil, err
	}

	present := make(map[string]struct{})
	for _, t := range wikitext.ExtractVersionTags(page.Content) {
		if t.Product == product {
			present[t.Version] = struct{}{}
		}
	}
	var removed []string
	for _, v := range dedupe(versions) {
		if _, ok := present[v]; ok {
			removed = append(removed, v)
		}
	}
	if len(removed) == 0 {
		return nil, nil
	}

	content, _ := wikitext.StripVersionTags(page.Content, product, removed)
	if _, _, _, err := e.write(ctx, title, content, "Removed version tags", false); err != nil {
		return nil, err
	}

	if err := e.publish(ctx, events.NewVersionTagsRemoved(title, product, removed, e.now())); err != nil {
		return nil, err
	}
	e.logger.Info("Version tags removed",
		zap.String("title", title),
		zap.String("product", product),
		zap.Strings("versions", removed),
	)
	return removed, nil
}

// write stores content, re-indexes its tags and runs OnPageSaved
func (e *DocEngine) write(ctx context.Context, title, content, summary string, isNew bool) (membership, previous []string, created bool, err error) {
	previous, err = e.membership(ctx, title)
	if err != nil {
		return nil, nil, false, err
	}
	exists, err := e.pages.Exists(ctx, title)
	if err != nil {
		return nil, nil, false, err
	}
	if exists && isNew {
		return nil, nil, false, pkgerrors.NewConflictError("page already exists: " + title)
	}

	if err := e.pages.Save(ctx, title, content, summary, !exists); err != nil {
		return nil, nil, false, err
	}

	tags := wikitext.ExtractVersionTags(content)
	if err := e.tags.SetPageTags(ctx, title, e.codec.SortKey(title), tags); err != nil {
		return nil, nil, false, err
	}

	membership = e.membershipOf(title, tags)
	if err := e.OnPageSaved(ctx, title, content, membership, previous); err != nil {
		return nil, nil, false, err
	}
	return membership, previous, !exists, nil
}

func (e *DocEngine) writeGenerated(ctx context.Context, title, content, summary string) error {
	_, _, _, err := e.write(ctx, title, content, summary, true)
	return err
}

// membership returns the currently indexed versions of the page's product
func (e *DocEngine) membership(ctx context.Context, title string) ([]string, error) {
	tags, err := e.tags.TagsOf(ctx, title)
	if err != nil && !errors.Is(err, pkgerrors.ErrPageNotFound) {
		return nil, err
	}
	return e.membershipOf(title, tags), nil
}

func (e *DocEngine) membershipOf(title string, tags []valueobjects.VersionTag) []string {
	info := e.codec.ClassifyTitle(title)
	if info.Kind != valueobjects.TitleTopic && info.Kind != valueobjects.TitleTOC {
		return nil
	}
	return wikitext.VersionsFor(tags, info.Product)
}

// editContext builds the ambient context of an edit: the page's product,
// manual and topic with its newest tagged version selected unless the
// caller already selected one
func (e *DocEngine) editContext(ctx context.Context, info valueobjects.TitleInfo, req SaveRequest) valueobjects.DocContext {
	dc := req.Context.WithProduct(info.Product).WithManual(info.Manual).WithTopic(info.Topic)
	if dc.SelectedVersion(info.Product) != "" {
		return dc
	}
	versions := wikitext.VersionsFor(wikitext.ExtractVersionTags(req.Content), info.Product)
	if len(versions) == 0 {
		return dc
	}
	if c, err := e.catalog.Catalog(ctx, info.Product); err == nil {
		versions = c.SortByRank(versions)
	}
	return dc.WithSelectedVersion(info.Product, versions[len(versions)-1])
}

func (e *DocEngine) publish(ctx context.Context, event events.DomainEvent) error {
	if event == nil || e.bus == nil {
		return nil
	}
	return e.bus.Publish(ctx, event)
}
