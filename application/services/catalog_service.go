package services

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"ponydocs/application/ports"
	"ponydocs/domain/core/aggregates"
	"ponydocs/domain/core/entities"
	"ponydocs/domain/core/valueobjects"
	"ponydocs/domain/wikitext"
	pkgerrors "ponydocs/pkg/errors"
)

// CatalogService owns the per-product version catalogs and manual lists.
// Both load lazily from their wiki pages and are replaced whole on reload.
type CatalogService struct {
	pages  ports.PageStore
	codec  *valueobjects.Codec
	logger *zap.Logger

	mu       sync.RWMutex
	catalogs map[string]*aggregates.VersionCatalog
	manuals  map[string][]entities.Manual
	products []entities.Product
	loads    singleflight.Group

	// bumped by Invalidate; a load only stores what it read when the
	// generation it started at is still current
	gens        map[string]uint64
	productsGen uint64
}

// NewCatalogService creates a new catalog service
func NewCatalogService(pages ports.PageStore, codec *valueobjects.Codec, logger *zap.Logger) *CatalogService {
	return &CatalogService{
		pages:    pages,
		codec:    codec,
		logger:   logger,
		catalogs: make(map[string]*aggregates.VersionCatalog),
		manuals:  make(map[string][]entities.Manual),
		gens:     make(map[string]uint64),
	}
}

func (s *CatalogService) generation(product string) uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.gens[product]
}

// Catalog returns the version catalog of a product. A product without a
// version list page is unknown.
func (s *CatalogService) Catalog(ctx context.Context, product string) (*aggregates.VersionCatalog, error) {
	s.mu.RLock()
	c, ok := s.catalogs[product]
	s.mu.RUnlock()
	if ok {
		return c, nil
	}

	v, err, _ := s.loads.Do("versions:"+product, func() (interface{}, error) {
		return s.loadCatalog(ctx, product)
	})
	if err != nil {
		return nil, err
	}
	return v.(*aggregates.VersionCatalog), nil
}

func (s *CatalogService) loadCatalog(ctx context.Context, product string) (*aggregates.VersionCatalog, error) {
	gen := s.generation(product)
	page, err := s.pages.Get(ctx, s.codec.VersionsTitle(product))
	if err != nil {
		if errors.Is(err, pkgerrors.ErrPageNotFound) {
			return nil, pkgerrors.NewUnknownProductError(product)
		}
		return nil, err
	}

	c := aggregates.NewVersionCatalog(product, wikitext.ParseVersionList(product, page.Content))

	s.mu.Lock()
	if s.gens[product] == gen {
		s.catalogs[product] = c
	}
	s.mu.Unlock()

	s.logger.Debug("Version catalog loaded",
		zap.String("product", product),
		zap.Int("versions", c.Len()),
	)
	return c, nil
}

// Manuals returns the manuals of a product in page order. A product
// without a manual list page has no manuals.
func (s *CatalogService) Manuals(ctx context.Context, product string) ([]entities.Manual, error) {
	s.mu.RLock()
	m, ok := s.manuals[product]
	s.mu.RUnlock()
	if ok {
		return m, nil
	}

	v, err, _ := s.loads.Do("manuals:"+product, func() (interface{}, error) {
		gen := s.generation(product)
		page, err := s.pages.Get(ctx, s.codec.ManualsTitle(product))
		if err != nil && !errors.Is(err, pkgerrors.ErrPageNotFound) {
			return nil, err
		}
		var manuals []entities.Manual
		if page != nil {
			manuals = wikitext.ParseManualList(product, page.Content)
		}
		s.mu.Lock()
		if s.gens[product] == gen {
			s.manuals[product] = manuals
		}
		s.mu.Unlock()
		return manuals, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]entities.Manual), nil
}

// Manual looks up one manual of a product
func (s *CatalogService) Manual(ctx context.Context, product, manual string) (entities.Manual, error) {
	manuals, err := s.Manuals(ctx, product)
	if err != nil {
		return entities.Manual{}, err
	}
	for _, m := range manuals {
		if m.ShortName == manual {
			return m, nil
		}
	}
	return entities.Manual{}, pkgerrors.NewUnknownManualError(product, manual)
}

// Products returns every product listed on the product list page
func (s *CatalogService) Products(ctx context.Context) ([]entities.Product, error) {
	s.mu.RLock()
	p := s.products
	gen := s.productsGen
	s.mu.RUnlock()
	if p != nil {
		return p, nil
	}

	page, err := s.pages.Get(ctx, s.codec.ProductsTitle())
	if err != nil && !errors.Is(err, pkgerrors.ErrPageNotFound) {
		return nil, err
	}
	products := []entities.Product{}
	if page != nil {
		products = wikitext.ParseProductList(page.Content)
	}

	s.mu.Lock()
	if s.productsGen == gen {
		s.products = products
	}
	s.mu.Unlock()
	return products, nil
}

// Resolve maps a version token to a defined version of product.
// "latest" is matched case-insensitively; an empty token falls back to the
// context's selected version; anything else must match exactly.
func (s *CatalogService) Resolve(ctx context.Context, product, token string, dc valueobjects.DocContext) (valueobjects.VersionRecord, error) {
	c, err := s.Catalog(ctx, product)
	if err != nil {
		if errors.Is(err, pkgerrors.ErrUnknownProduct) {
			return valueobjects.VersionRecord{}, pkgerrors.NewUnknownVersionError(product, token).WithCause(err)
		}
		return valueobjects.VersionRecord{}, err
	}

	if s.codec.IsLatest(token) {
		return c.LatestReleased()
	}

	if token == "" {
		token = dc.SelectedVersion(product)
		if token == "" {
			return valueobjects.VersionRecord{}, pkgerrors.NewUnknownVersionError(product, "")
		}
	}

	v, ok := c.Get(token)
	if !ok {
		return valueobjects.VersionRecord{}, pkgerrors.NewUnknownVersionError(product, token)
	}
	return v, nil
}

// Invalidate drops the cached catalog and manual list of a product
func (s *CatalogService) Invalidate(product string) {
	s.mu.Lock()
	s.gens[product]++
	delete(s.catalogs, product)
	delete(s.manuals, product)
	s.mu.Unlock()

	s.loads.Forget("versions:" + product)
	s.loads.Forget("manuals:" + product)
}

// InvalidateProducts drops the cached product list
func (s *CatalogService) InvalidateProducts() {
	s.mu.Lock()
	s.productsGen++
	s.products = nil
	s.mu.Unlock()
}

// Reload replaces the catalog of a product with a fresh read
func (s *CatalogService) Reload(ctx context.Context, product string) (*aggregates.VersionCatalog, error) {
	s.Invalidate(product)
	return s.Catalog(ctx, product)
}
