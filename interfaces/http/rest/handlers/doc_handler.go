package handlers

import (
	"net/http"
	"strings"

	"ponydocs/application/queries"
	querybus "ponydocs/application/queries/bus"
	"ponydocs/application/services"
	"ponydocs/domain/core/entities"
	"ponydocs/domain/core/valueobjects"
	"ponydocs/pkg/common"
	pkgerrors "ponydocs/pkg/errors"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// DocHandler serves the read side of the documentation engine
type DocHandler struct {
	queryBus  *querybus.QueryBus
	errors    *pkgerrors.ErrorHandler
	namespace string
	logger    *zap.Logger
}

// NewDocHandler creates a new documentation handler. namespace prefixes the
// paths served under /documentation.
func NewDocHandler(queryBus *querybus.QueryBus, errorHandler *pkgerrors.ErrorHandler, namespace string, logger *zap.Logger) *DocHandler {
	return &DocHandler{
		queryBus:  queryBus,
		errors:    errorHandler,
		namespace: namespace,
		logger:    logger,
	}
}

// ResolutionResponse is the JSON form of a resolution
type ResolutionResponse struct {
	Kind    services.ResolutionKind `json:"kind"`
	Title   string                  `json:"title,omitempty"`
	Target  string                  `json:"target,omitempty"`
	Version string                  `json:"version,omitempty"`
	Reason  string                  `json:"reason,omitempty"`
}

// Resolve handles GET /resolve?path=
func (h *DocHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	res, ok := h.resolve(w, r, r.URL.Query().Get("path"))
	if !ok {
		return
	}
	common.RespondJSON(w, http.StatusOK, toResolutionResponse(res))
}

// Documentation handles GET /documentation/*. The resolution becomes a
// redirect, a 404 or the resolved page reference.
func (h *DocHandler) Documentation(w http.ResponseWriter, r *http.Request) {
	path := h.namespace
	if rest := strings.Trim(chi.URLParam(r, "*"), "/"); rest != "" {
		path += "/" + rest
	}

	res, ok := h.resolve(w, r, path)
	if !ok {
		return
	}

	switch res.Kind {
	case services.ResolutionRedirect:
		http.Redirect(w, r, location(res.Target), http.StatusFound)
	case services.ResolutionNotFound:
		err := res.Err
		if err == nil {
			err = pkgerrors.NewPageNotFoundError(path)
		}
		h.errors.Handle(w, r, err)
	default:
		common.RespondJSON(w, http.StatusOK, toResolutionResponse(res))
	}
}

// Navigation handles GET /navigation/{product}/{version}
func (h *DocHandler) Navigation(w http.ResponseWriter, r *http.Request) {
	h.ask(w, r, queries.GetNavigationQuery{
		Product: chi.URLParam(r, "product"),
		Version: chi.URLParam(r, "version"),
		Ambient: ambient(r),
	}, func(result interface{}) interface{} {
		entry := result.(entities.NavCacheEntry)
		if entry.Manuals == nil {
			entry.Manuals = []entities.NavManual{}
		}
		return entry
	})
}

// TOC handles GET /toc/{product}/{manual}/{version}
func (h *DocHandler) TOC(w http.ResponseWriter, r *http.Request) {
	h.ask(w, r, queries.GetTOCQuery{
		Product: chi.URLParam(r, "product"),
		Manual:  chi.URLParam(r, "manual"),
		Version: chi.URLParam(r, "version"),
		Ambient: ambient(r),
	}, nil)
}

// Translate handles GET /links/translate?token=
func (h *DocHandler) Translate(w http.ResponseWriter, r *http.Request) {
	h.ask(w, r, queries.TranslateLinkQuery{
		Token:   r.URL.Query().Get("token"),
		Ambient: ambient(r),
	}, nil)
}

// Backlinks handles GET /links/backlinks?title=
func (h *DocHandler) Backlinks(w http.ResponseWriter, r *http.Request) {
	h.ask(w, r, queries.BacklinksQuery{Target: r.URL.Query().Get("title")}, nil)
}

// Products handles GET /products
func (h *DocHandler) Products(w http.ResponseWriter, r *http.Request) {
	h.ask(w, r, queries.ListProductsQuery{}, nil)
}

// Versions handles GET /products/{product}/versions
func (h *DocHandler) Versions(w http.ResponseWriter, r *http.Request) {
	h.ask(w, r, queries.ListVersionsQuery{Product: chi.URLParam(r, "product")}, nil)
}

func (h *DocHandler) ask(w http.ResponseWriter, r *http.Request, q querybus.Query, shape func(interface{}) interface{}) {
	result, err := h.queryBus.Ask(r.Context(), q)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	if shape != nil {
		result = shape(result)
	}
	common.RespondJSON(w, http.StatusOK, result)
}

func (h *DocHandler) resolve(w http.ResponseWriter, r *http.Request, path string) (services.Resolution, bool) {
	result, err := h.queryBus.Ask(r.Context(), queries.ResolveRequestQuery{
		Path:    path,
		Ambient: ambient(r),
	})
	if err != nil {
		h.errors.Handle(w, r, err)
		return services.Resolution{}, false
	}

	res := result.(services.Resolution)
	if res.Err != nil {
		h.logger.Debug("Resolution degraded",
			zap.String("path", path),
			zap.String("kind", string(res.Kind)),
			zap.Error(res.Err),
		)
	}
	return res, true
}

func toResolutionResponse(res services.Resolution) ResolutionResponse {
	out := ResolutionResponse{
		Kind:    res.Kind,
		Title:   res.Title,
		Target:  res.Target,
		Version: res.Version,
	}
	if de := pkgerrors.GetDomainError(res.Err); de != nil {
		out.Reason = de.Code
	}
	return out
}

// ambient reads the documentation state the DocContext middleware attached
func ambient(r *http.Request) queries.Ambient {
	return toAmbient(common.GetDocContext(r.Context()))
}

func toAmbient(dc valueobjects.DocContext) queries.Ambient {
	return queries.Ambient{
		Product: dc.Product(),
		Manual:  dc.Manual(),
		Topic:   dc.Topic(),
		Version: dc.CurrentVersion(),
	}
}

// location turns a wiki-relative target into a site-absolute URL
func location(target string) string {
	if strings.HasPrefix(target, "/") || strings.Contains(target, "://") {
		return target
	}
	return "/" + target
}
