package services

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"ponydocs/application/ports"
	"ponydocs/domain/config"
	"ponydocs/domain/core/valueobjects"
	pkgerrors "ponydocs/pkg/errors"
)

// ResolutionKind is the outcome of resolving a request path
type ResolutionKind string

const (
	ResolutionPage        ResolutionKind = "page"
	ResolutionNotFound    ResolutionKind = "not_found"
	ResolutionRedirect    ResolutionKind = "redirect"
	ResolutionPassthrough ResolutionKind = "passthrough"
)

// Resolution tells the host what to serve for a request path
type Resolution struct {
	Kind    ResolutionKind `json:"kind"`
	Title   string         `json:"title,omitempty"`
	Target  string         `json:"target,omitempty"`
	Version string         `json:"version,omitempty"`
	Err     error          `json:"-"`
}

// RequestResolver maps pretty URL paths onto stored pages
type RequestResolver struct {
	catalog *CatalogService
	tocs    *TOCService
	tags    ports.TagIndex
	codec   *valueobjects.Codec
	cfg     *config.DomainConfig
	metrics ports.MetricsRecorder
	logger  *zap.Logger
}

// NewRequestResolver creates a new request resolver
func NewRequestResolver(
	catalog *CatalogService,
	tocs *TOCService,
	tags ports.TagIndex,
	codec *valueobjects.Codec,
	cfg *config.DomainConfig,
	metrics ports.MetricsRecorder,
	logger *zap.Logger,
) *RequestResolver {
	if metrics == nil {
		metrics = ports.NopMetrics{}
	}
	return &RequestResolver{
		catalog: catalog,
		tocs:    tocs,
		tags:    tags,
		codec:   codec,
		cfg:     cfg,
		metrics: metrics,
		logger:  logger,
	}
}

// Resolve maps path onto a page, a redirect, a not-found or a passthrough.
// Shapes below the namespace:
//
//	P/V/M/T  topic (namespace optional)
//	P/V/M    first topic of a manual
//	P/M      first topic of a manual at the selected or latest version
//	P        product landing
func (r *RequestResolver) Resolve(ctx context.Context, path string, dc valueobjects.DocContext) Resolution {
	res := r.resolve(ctx, path, dc)
	r.metrics.Resolution(string(res.Kind))
	if res.Err != nil && pkgerrors.GetDomainError(res.Err) == nil {
		r.logger.Error("Request resolution failed",
			zap.String("path", path),
			zap.Error(res.Err),
		)
	}
	return res
}

func (r *RequestResolver) resolve(ctx context.Context, path string, dc valueobjects.DocContext) Resolution {
	segments := valueobjects.SplitPath(path)
	namespaced := len(segments) > 0 && r.codec.IsNamespace(segments[0])
	if namespaced {
		segments = segments[1:]
	}

	switch {
	case len(segments) == 4:
		return r.resolveTopic(ctx, segments[0], segments[1], segments[2], segments[3])
	case namespaced && len(segments) == 3:
		return r.resolveManual(ctx, segments[0], segments[1], segments[2], dc)
	case namespaced && len(segments) == 2:
		if _, err := r.catalog.Manual(ctx, segments[0], segments[1]); err == nil {
			return r.resolveManual(ctx, segments[0], "", segments[1], dc)
		}
	case namespaced && len(segments) == 1:
		return r.resolveProduct(ctx, segments[0])
	}
	return Resolution{Kind: ResolutionPassthrough, Target: path}
}

func (r *RequestResolver) resolveTopic(ctx context.Context, product, version, manual, topic string) Resolution {
	catalog, err := r.catalog.Catalog(ctx, product)
	if err != nil {
		return Resolution{Kind: ResolutionNotFound, Err: err}
	}
	if _, err := r.catalog.Manual(ctx, product, manual); err != nil {
		return Resolution{Kind: ResolutionNotFound, Err: err}
	}

	prefix := valueobjects.TopicSortKeyPrefix(product, manual, topic)

	if r.codec.IsLatest(version) {
		latest, err := catalog.LatestReleased()
		if err != nil {
			return r.landing(err)
		}
		title, ok, err := r.firstTagged(ctx, product, latest.ShortName, prefix)
		if err != nil {
			return Resolution{Kind: ResolutionNotFound, Err: err}
		}
		if ok {
			return Resolution{Kind: ResolutionPage, Title: title, Version: latest.ShortName}
		}

		released := catalog.Released()
		for i := len(released) - 1; i >= 0; i-- {
			if released[i].ShortName == latest.ShortName {
				continue
			}
			_, ok, err := r.firstTagged(ctx, product, released[i].ShortName, prefix)
			if err != nil {
				return Resolution{Kind: ResolutionNotFound, Err: err}
			}
			if ok {
				id := valueobjects.NewCanonicalIdentifier(r.codec.Namespace(), product, manual, topic, r.codec.LatestToken())
				return Resolution{
					Kind:   ResolutionRedirect,
					Target: r.cfg.LatestDocURL + "?t=" + r.codec.ToPrettyURL(id),
				}
			}
		}
		return r.landing(pkgerrors.NewPageNotFoundError(r.codec.TopicTitle(product, manual, topic, latest.ShortName)))
	}

	if _, ok := catalog.Get(version); !ok {
		return r.landing(pkgerrors.NewUnknownVersionError(product, version))
	}
	title, ok, err := r.firstTagged(ctx, product, version, prefix)
	if err != nil {
		return Resolution{Kind: ResolutionNotFound, Err: err}
	}
	if !ok {
		return Resolution{
			Kind: ResolutionNotFound,
			Err:  pkgerrors.NewPageNotFoundError(r.codec.TopicTitle(product, manual, topic, version)),
		}
	}
	return Resolution{Kind: ResolutionPage, Title: title, Version: version}
}

// resolveManual redirects to the first linked topic of a manual's TOC
func (r *RequestResolver) resolveManual(ctx context.Context, product, version, manual string, dc valueobjects.DocContext) Resolution {
	if version == "" && dc.SelectedVersion(product) == "" {
		version = r.codec.LatestToken()
	}
	rec, err := r.catalog.Resolve(ctx, product, version, dc)
	if err != nil {
		return r.landing(err)
	}
	if _, err := r.catalog.Manual(ctx, product, manual); err != nil {
		return r.landing(err)
	}
	toc, err := r.tocs.Get(ctx, product, manual, rec.ShortName)
	if err != nil {
		return r.landing(err)
	}
	first, ok := toc.FirstLinked()
	if !ok {
		return r.landing(nil)
	}
	return Resolution{Kind: ResolutionRedirect, Target: first.Link, Version: rec.ShortName}
}

func (r *RequestResolver) resolveProduct(ctx context.Context, product string) Resolution {
	catalog, err := r.catalog.Catalog(ctx, product)
	if err != nil {
		return r.landing(err)
	}
	if _, err := catalog.LatestReleased(); err != nil {
		return r.landing(err)
	}
	return Resolution{Kind: ResolutionPassthrough, Target: r.codec.Namespace() + "/" + product}
}

func (r *RequestResolver) landing(cause error) Resolution {
	return Resolution{Kind: ResolutionRedirect, Target: r.cfg.LandingURL, Err: cause}
}

func (r *RequestResolver) firstTagged(ctx context.Context, product, version, prefix string) (string, bool, error) {
	titles, err := r.tags.FindPagesByVersionTag(ctx, product, version, prefix)
	if err != nil {
		return "", false, err
	}
	if len(titles) == 0 {
		return "", false, nil
	}
	return titles[0], true, nil
}

// IsDomainFailure reports whether a resolution failed for a reason the
// caller caused rather than an infrastructure fault
func (res Resolution) IsDomainFailure() bool {
	var de *pkgerrors.DomainError
	return res.Err != nil && errors.As(res.Err, &de)
}
