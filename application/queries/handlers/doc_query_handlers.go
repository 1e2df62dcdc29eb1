package handlers

import (
	"context"

	"go.uber.org/zap"

	"ponydocs/application/queries"
	"ponydocs/application/services"
	"ponydocs/domain/core/entities"
	"ponydocs/domain/core/valueobjects"
)

// DocReader is the read side of the engine
type DocReader interface {
	ResolveRequestToPage(ctx context.Context, path string, dc valueobjects.DocContext) services.Resolution
	GetNavigation(ctx context.Context, product, version string, dc valueobjects.DocContext) (entities.NavCacheEntry, error)
	GetTOC(ctx context.Context, product, manual, version string, dc valueobjects.DocContext) (*entities.TOC, error)
	TranslateLinkToken(token string, dc valueobjects.DocContext) (string, error)
	Backlinks(ctx context.Context, to string) ([]valueobjects.LinkEdge, error)
	Products(ctx context.Context) ([]entities.Product, error)
	Versions(ctx context.Context, product string) ([]valueobjects.VersionRecord, error)
}

// DocQueryHandler answers the documentation queries
type DocQueryHandler struct {
	reader DocReader
	logger *zap.Logger
}

// NewDocQueryHandler creates a new query handler
func NewDocQueryHandler(reader DocReader, logger *zap.Logger) *DocQueryHandler {
	return &DocQueryHandler{
		reader: reader,
		logger: logger,
	}
}

// TranslateResult is the answer to a TranslateLinkQuery
type TranslateResult struct {
	Token string `json:"token"`
	URL   string `json:"url"`
}

// BacklinksResult is the answer to a BacklinksQuery
type BacklinksResult struct {
	Target string                  `json:"target"`
	Links  []valueobjects.LinkEdge `json:"links"`
}

// HandleResolve answers ResolveRequestQuery. Failures are part of the
// resolution, never an error.
func (h *DocQueryHandler) HandleResolve(ctx context.Context, q queries.ResolveRequestQuery) (services.Resolution, error) {
	return h.reader.ResolveRequestToPage(ctx, q.Path, ToDocContext(q.Ambient)), nil
}

// HandleNavigation answers GetNavigationQuery
func (h *DocQueryHandler) HandleNavigation(ctx context.Context, q queries.GetNavigationQuery) (entities.NavCacheEntry, error) {
	return h.reader.GetNavigation(ctx, q.Product, q.Version, ToDocContext(q.Ambient))
}

// HandleTOC answers GetTOCQuery
func (h *DocQueryHandler) HandleTOC(ctx context.Context, q queries.GetTOCQuery) (*entities.TOC, error) {
	return h.reader.GetTOC(ctx, q.Product, q.Manual, q.Version, ToDocContext(q.Ambient))
}

// HandleTranslate answers TranslateLinkQuery
func (h *DocQueryHandler) HandleTranslate(ctx context.Context, q queries.TranslateLinkQuery) (*TranslateResult, error) {
	url, err := h.reader.TranslateLinkToken(q.Token, ToDocContext(q.Ambient))
	if err != nil {
		return nil, err
	}
	return &TranslateResult{Token: q.Token, URL: url}, nil
}

// HandleBacklinks answers BacklinksQuery
func (h *DocQueryHandler) HandleBacklinks(ctx context.Context, q queries.BacklinksQuery) (*BacklinksResult, error) {
	links, err := h.reader.Backlinks(ctx, q.Target)
	if err != nil {
		return nil, err
	}
	if links == nil {
		links = []valueobjects.LinkEdge{}
	}
	return &BacklinksResult{Target: q.Target, Links: links}, nil
}

// HandleProducts answers ListProductsQuery
func (h *DocQueryHandler) HandleProducts(ctx context.Context, q queries.ListProductsQuery) ([]entities.Product, error) {
	return h.reader.Products(ctx)
}

// HandleVersions answers ListVersionsQuery
func (h *DocQueryHandler) HandleVersions(ctx context.Context, q queries.ListVersionsQuery) ([]valueobjects.VersionRecord, error) {
	return h.reader.Versions(ctx, q.Product)
}

// ToDocContext converts a query's ambient state into a DocContext
func ToDocContext(a queries.Ambient) valueobjects.DocContext {
	return valueobjects.NewDocContext(a.Product).
		WithManual(a.Manual).
		WithTopic(a.Topic).
		WithSelectedVersion(a.Product, a.Version)
}
