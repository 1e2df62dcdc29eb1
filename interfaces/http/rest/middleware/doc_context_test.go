package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"ponydocs/domain/core/valueobjects"
	"ponydocs/pkg/common"

	"github.com/stretchr/testify/assert"
)

func captureDocContext(t *testing.T, req *http.Request) valueobjects.DocContext {
	t.Helper()
	var got valueobjects.DocContext
	h := DocContext(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = common.GetDocContext(r.Context())
	}))
	h.ServeHTTP(httptest.NewRecorder(), req)
	return got
}

func TestDocContext_Headers(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/links/translate", nil)
	req.Header.Set(HeaderProduct, "Acme")
	req.Header.Set(HeaderManual, "Guide")
	req.Header.Set(HeaderTopic, "Intro")
	req.Header.Set(HeaderVersion, "2.0")

	dc := captureDocContext(t, req)

	assert.Equal(t, "Acme", dc.Product())
	assert.Equal(t, "Guide", dc.Manual())
	assert.Equal(t, "Intro", dc.Topic())
	assert.Equal(t, "2.0", dc.CurrentVersion())
}

func TestDocContext_QueryOverridesHeaders(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/links/translate?product=Beta&version=1.1", nil)
	req.Header.Set(HeaderProduct, "Acme")
	req.Header.Set(HeaderVersion, "2.0")

	dc := captureDocContext(t, req)

	assert.Equal(t, "Beta", dc.Product())
	assert.Equal(t, "1.1", dc.CurrentVersion())
	assert.Empty(t, dc.SelectedVersion("Acme"))
}

func TestDocContext_VersionNeedsProduct(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/links/translate?version=2.0", nil)

	dc := captureDocContext(t, req)

	assert.Empty(t, dc.Product())
	assert.Empty(t, dc.CurrentVersion())
}
