package middleware

import (
	"net/http"

	"ponydocs/domain/core/valueobjects"
	"ponydocs/pkg/common"
)

// Ambient state headers set by the wiki host
const (
	HeaderProduct = "X-Doc-Product"
	HeaderManual  = "X-Doc-Manual"
	HeaderTopic   = "X-Doc-Topic"
	HeaderVersion = "X-Doc-Version"
)

// DocContext attaches the caller's documentation state to the request.
// Query parameters take precedence over headers.
func DocContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		product := pick(r, "product", HeaderProduct)
		dc := valueobjects.NewDocContext(product).
			WithManual(pick(r, "manual", HeaderManual)).
			WithTopic(pick(r, "topic", HeaderTopic))
		if product != "" {
			dc = dc.WithSelectedVersion(product, pick(r, "version", HeaderVersion))
		}

		next.ServeHTTP(w, r.WithContext(common.WithDocContext(r.Context(), dc)))
	})
}

func pick(r *http.Request, param, header string) string {
	if v := r.URL.Query().Get(param); v != "" {
		return v
	}
	return r.Header.Get(header)
}
