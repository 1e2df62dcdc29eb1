package services

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"ponydocs/application/ports"
	"ponydocs/domain/events"
	pkgerrors "ponydocs/pkg/errors"
)

// InvalidationHandler clears navigation and TOC entries in response to
// content events
type InvalidationHandler struct {
	catalog *CatalogService
	navs    *NavigationService
	tocs    *TOCService
	logger  *zap.Logger
}

// NewInvalidationHandler creates a new invalidation handler
func NewInvalidationHandler(catalog *CatalogService, navs *NavigationService, tocs *TOCService, logger *zap.Logger) *InvalidationHandler {
	return &InvalidationHandler{
		catalog: catalog,
		navs:    navs,
		tocs:    tocs,
		logger:  logger,
	}
}

var invalidationEvents = []string{
	events.TypeTopicSaved,
	events.TypeTopicDeleted,
	events.TypeTocSaved,
	events.TypeVersionListSaved,
	events.TypeManualListSaved,
}

// Register subscribes the handler to every event it handles
func (h *InvalidationHandler) Register(bus ports.EventBus) error {
	for _, t := range invalidationEvents {
		if err := bus.Subscribe(t, h); err != nil {
			return fmt.Errorf("failed to subscribe to %s: %w", t, err)
		}
	}
	return nil
}

// CanHandle checks if this handler can process the event
func (h *InvalidationHandler) CanHandle(eventType string) bool {
	for _, t := range invalidationEvents {
		if t == eventType {
			return true
		}
	}
	return false
}

// Handle processes an event
func (h *InvalidationHandler) Handle(ctx context.Context, event events.DomainEvent) error {
	switch e := event.(type) {
	case events.TopicSaved:
		return h.clearTopic(ctx, e.Product, e.Manual, e.Versions)
	case events.TopicDeleted:
		return h.clearTopic(ctx, e.Product, e.Manual, e.Versions)
	case events.TocSaved:
		return h.clearTopic(ctx, e.Product, e.Manual, e.Versions)
	case events.VersionListSaved:
		return h.reloadCatalog(ctx, e.Product)
	case events.ManualListSaved:
		return h.reloadCatalog(ctx, e.Product)
	}
	return nil
}

func (h *InvalidationHandler) clearTopic(ctx context.Context, product, manual string, versions []string) error {
	var errs []error
	for _, v := range versions {
		errs = append(errs,
			h.navs.Invalidate(ctx, product, v),
			h.tocs.Invalidate(ctx, product, manual, v),
		)
	}
	h.logger.Debug("Cleared navigation",
		zap.String("product", product),
		zap.String("manual", manual),
		zap.Strings("versions", versions),
	)
	return errors.Join(errs...)
}

// reloadCatalog re-reads the catalog and clears navigation for every
// version it now defines
func (h *InvalidationHandler) reloadCatalog(ctx context.Context, product string) error {
	c, err := h.catalog.Reload(ctx, product)
	if err != nil {
		if errors.Is(err, pkgerrors.ErrUnknownProduct) {
			return nil
		}
		return err
	}

	var errs []error
	for _, v := range c.All() {
		errs = append(errs, h.navs.Invalidate(ctx, product, v.ShortName))
	}
	h.logger.Info("Version catalog reloaded",
		zap.String("product", product),
		zap.Int("versions", c.Len()),
	)
	return errors.Join(errs...)
}
