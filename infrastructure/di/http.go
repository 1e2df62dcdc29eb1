package di

import (
	"context"
	"strings"

	"ponydocs/interfaces/http/rest"
	pkgerrors "ponydocs/pkg/errors"

	"github.com/go-chi/chi/v5"
	"github.com/sony/gobreaker"
)

// NewHTTPHandler builds the chi router for the container
func NewHTTPHandler(c *Container) *chi.Mux {
	opts := []rest.RouterOption{
		rest.WithNamespace(c.Config.DocNamespace),
		rest.WithTracer(c.Tracer),
		rest.WithReadinessCheck(c.Stores.Ready),
		rest.WithDebugErrors(c.Config.IsDevelopment()),
	}
	if c.Config.EnableMetrics {
		opts = append(opts, rest.WithMetrics(c.Metrics))
	}
	if c.Config.EnableCORS {
		opts = append(opts, rest.WithCORS(corsOrigins(c.Config.CORSOrigins)...))
	}

	return rest.NewRouter(c.CommandBus, c.QueryBus, c.Logger, opts...).Setup()
}

// Ready fails while the store breaker is open or a health read fails
func (s *Stores) Ready(ctx context.Context) error {
	if s.Guard.State() == gobreaker.StateOpen {
		return pkgerrors.NewUnavailableError("store-" + s.Backend)
	}
	_, err := s.Pages.Exists(ctx, "Main Page")
	return err
}

func corsOrigins(raw string) []string {
	var origins []string
	for _, o := range strings.Split(raw, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}
