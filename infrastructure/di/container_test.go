package di

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"ponydocs/infrastructure/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	return &config.Config{
		Environment:    "development",
		AWSRegion:      "us-west-2",
		StorageBackend: config.StorageMemory,
		StoreTimeout:   3 * time.Second,
		LockTTL:        time.Second,
		DocNamespace:   "Documentation",
		NavCacheTTL:    time.Hour,
		TOCCacheTTL:    time.Hour,
		LatestDocURL:   "Special:SpecialLatestDoc",
		LandingURL:     "Documentation",
		LogLevel:       "error",
		EnableMetrics:  true,
	}
}

type apiEnvelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
}

type apiError struct {
	Error   bool   `json:"error"`
	Type    string `json:"type"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type server struct {
	t       *testing.T
	handler http.Handler
}

func newServer(t *testing.T) *server {
	t.Helper()
	c, cleanup, err := InitializeContainer(context.Background(), testConfig())
	require.NoError(t, err)
	t.Cleanup(cleanup)
	return &server{t: t, handler: NewHTTPHandler(c)}
}

func (s *server) do(method, target, body string, headers map[string]string) *httptest.ResponseRecorder {
	s.t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func (s *server) savePage(title, content string) {
	s.t.Helper()
	body, err := json.Marshal(map[string]string{"title": title, "content": content})
	require.NoError(s.t, err)
	rec := s.do(http.MethodPut, "/api/v1/pages", string(body), nil)
	require.Equal(s.t, http.StatusOK, rec.Code, rec.Body.String())
}

func (s *server) seed() {
	s.savePage("Documentation:Acme:Versions", "{{#version:1.0|released}}\n{{#version:2.0|released}}")
	s.savePage("Documentation:Acme:Manuals", "{{#manual:Guide|User Guide}}")
	s.savePage("Documentation:Acme:Guide:Intro:1.0", "Hello\n[[Category:V:Acme:1.0]]\n[[Category:V:Acme:2.0]]")
	s.savePage("Documentation:Acme:GuideTOC1.0", "{{#topic:Intro}}\n[[Category:V:Acme:1.0]]\n[[Category:V:Acme:2.0]]")
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	var env apiEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	require.True(t, env.Success)
	require.NoError(t, json.Unmarshal(env.Data, v))
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) apiError {
	t.Helper()
	var e apiError
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &e))
	return e
}

func TestInitializeContainer_Memory(t *testing.T) {
	c, cleanup, err := InitializeContainer(context.Background(), testConfig())
	require.NoError(t, err)
	defer cleanup()

	assert.Equal(t, config.StorageMemory, c.Stores.Backend)
	assert.NotNil(t, c.Engine)
	assert.Nil(t, c.CloudWatch, "no CloudWatch sink in development")
	assert.NoError(t, c.Stores.Ready(context.Background()))

	watcher, err := WatchConfig(c)
	assert.NoError(t, err)
	assert.Nil(t, watcher)
}

func TestHTTP_HealthAndMetrics(t *testing.T) {
	s := newServer(t)

	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/health", "", nil).Code)

	ready := s.do(http.MethodGet, "/ready", "", nil)
	assert.Equal(t, http.StatusOK, ready.Code)
	assert.JSONEq(t, `{"status":"ready"}`, ready.Body.String())

	metrics := s.do(http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, metrics.Code)
	assert.Contains(t, metrics.Body.String(), "ponydocs_")
}

func TestHTTP_Documentation(t *testing.T) {
	s := newServer(t)
	s.seed()

	t.Run("topic at latest", func(t *testing.T) {
		rec := s.do(http.MethodGet, "/api/v1/documentation/Acme/latest/Guide/Intro", "", nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var res struct {
			Kind    string `json:"kind"`
			Title   string `json:"title"`
			Version string `json:"version"`
		}
		decodeData(t, rec, &res)
		assert.Equal(t, "page", res.Kind)
		assert.Equal(t, "Documentation:Acme:Guide:Intro:1.0", res.Title)
		assert.Equal(t, "2.0", res.Version)
	})

	t.Run("manual redirects to first topic", func(t *testing.T) {
		rec := s.do(http.MethodGet, "/api/v1/documentation/Acme/1.0/Guide", "", nil)
		assert.Equal(t, http.StatusFound, rec.Code)
		assert.Equal(t, "/Documentation/Acme/1.0/Guide/Intro", rec.Header().Get("Location"))
	})

	t.Run("missing topic is a 404", func(t *testing.T) {
		rec := s.do(http.MethodGet, "/api/v1/documentation/Acme/1.0/Guide/Missing", "", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "PAGE_NOT_FOUND", decodeError(t, rec).Code)
	})

	t.Run("resolve reports the reason", func(t *testing.T) {
		rec := s.do(http.MethodGet, "/api/v1/resolve?path=Documentation/Acme/9.9/Guide/Intro", "", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var res struct {
			Kind   string `json:"kind"`
			Target string `json:"target"`
			Reason string `json:"reason"`
		}
		decodeData(t, rec, &res)
		assert.Equal(t, "redirect", res.Kind)
		assert.Equal(t, "Documentation", res.Target)
		assert.Equal(t, "UNKNOWN_VERSION", res.Reason)
	})
}

func TestHTTP_NavigationAndTOC(t *testing.T) {
	s := newServer(t)
	s.seed()

	rec := s.do(http.MethodGet, "/api/v1/navigation/Acme/latest", "", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var nav struct {
		Version string `json:"version"`
		Manuals []struct {
			ShortName string `json:"shortName"`
			FirstURL  string `json:"firstUrl"`
		} `json:"manuals"`
	}
	decodeData(t, rec, &nav)
	assert.Equal(t, "2.0", nav.Version)
	require.Len(t, nav.Manuals, 1)
	assert.Equal(t, "Documentation/Acme/2.0/Guide/Intro", nav.Manuals[0].FirstURL)

	rec = s.do(http.MethodGet, "/api/v1/toc/Acme/Guide/1.0", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var toc struct {
		PageTitle string `json:"pageTitle"`
		Entries   []struct {
			Link string `json:"link"`
		} `json:"entries"`
	}
	decodeData(t, rec, &toc)
	assert.Equal(t, "Documentation:Acme:GuideTOC1.0", toc.PageTitle)
	require.Len(t, toc.Entries, 1)

	rec = s.do(http.MethodGet, "/api/v1/navigation/Nope/latest", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "UNKNOWN_VERSION", decodeError(t, rec).Code)
}

func TestHTTP_TranslateUsesAmbientHeaders(t *testing.T) {
	s := newServer(t)

	headers := map[string]string{
		"X-Doc-Product": "Acme",
		"X-Doc-Manual":  "Guide",
		"X-Doc-Version": "1.0",
	}
	rec := s.do(http.MethodGet, "/api/v1/links/translate?token=Documentation:Setup", "", headers)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var res struct {
		URL string `json:"url"`
	}
	decodeData(t, rec, &res)
	assert.Equal(t, "Documentation/Acme/1.0/Guide/Setup", res.URL)

	// The query string wins over the headers
	rec = s.do(http.MethodGet, "/api/v1/links/translate?token=Documentation:Setup&version=2.0", "", headers)
	decodeData(t, rec, &res)
	assert.Equal(t, "Documentation/Acme/2.0/Guide/Setup", res.URL)

	rec = s.do(http.MethodGet, "/api/v1/links/translate?token=Documentation:Setup", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "AMBIGUOUS_LINK", decodeError(t, rec).Code)
}

func TestHTTP_PageWrites(t *testing.T) {
	s := newServer(t)
	s.seed()

	t.Run("conflict", func(t *testing.T) {
		rec := s.do(http.MethodPut, "/api/v1/pages",
			`{"title":"Documentation:Acme:Guide:Intro:2.0","content":"[[Category:V:Acme:2.0]]"}`, nil)
		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Equal(t, "VERSION_CONFLICT", decodeError(t, rec).Code)
	})

	t.Run("invalid body", func(t *testing.T) {
		rec := s.do(http.MethodPut, "/api/v1/pages", `{"content":"x"}`, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)

		rec = s.do(http.MethodPut, "/api/v1/pages", `{"title":"x","unknown":1}`, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("remove tags then claim", func(t *testing.T) {
		rec := s.do(http.MethodPost, "/api/v1/pages/remove-tags",
			`{"title":"Documentation:Acme:Guide:Intro:1.0","product":"Acme","versions":["2.0"]}`, nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		s.savePage("Documentation:Acme:Guide:Intro:2.0", "Second\n[[Category:V:Acme:2.0]]")

		rec = s.do(http.MethodGet, "/api/v1/links/backlinks?title=Documentation/Acme/2.0/Guide/Intro", "", nil)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("delete", func(t *testing.T) {
		rec := s.do(http.MethodDelete, "/api/v1/pages?title=Documentation:Acme:Guide:Intro:2.0", "", nil)
		assert.Equal(t, http.StatusNoContent, rec.Code)

		rec = s.do(http.MethodDelete, "/api/v1/pages?title=Documentation:Acme:Guide:Intro:2.0", "", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestHTTP_Catalog(t *testing.T) {
	s := newServer(t)
	s.seed()
	s.savePage("Documentation:Products", "{{#product:Acme|Acme Server}}")

	rec := s.do(http.MethodGet, "/api/v1/products", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var products []struct {
		ShortName string `json:"shortName"`
	}
	decodeData(t, rec, &products)
	require.Len(t, products, 1)
	assert.Equal(t, "Acme", products[0].ShortName)

	rec = s.do(http.MethodGet, "/api/v1/products/Acme/versions", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var versions []struct {
		ShortName string `json:"shortName"`
		Status    string `json:"status"`
	}
	decodeData(t, rec, &versions)
	require.Len(t, versions, 2)
	assert.Equal(t, "released", versions[1].Status)
}

func TestCORSOrigins(t *testing.T) {
	assert.Equal(t, []string{"*"}, corsOrigins(""))
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, corsOrigins(" https://a.example, ,https://b.example"))
}
