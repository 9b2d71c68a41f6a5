package web

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/gin-gonic/gin"
	"github.com/lk2023060901/xdooria-gdid/pkg/prometheus"
	"github.com/lk2023060901/xdooria-gdid/pkg/web/middleware"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, cfg *Config) *Server {
	t.Helper()
	if cfg == nil {
		cfg = &Config{}
	}
	cfg.Mode = gin.TestMode
	s, err := NewServer(cfg, nil)
	require.NoError(t, err)
	return s
}

func TestServer_Routes(t *testing.T) {
	s := newTestServer(t, nil)
	s.Router().GET("/ok", func(c *gin.Context) { Success(c, gin.H{"n": 1}) })
	s.Router().GET("/bad", func(c *gin.Context) { Error(c, http.StatusBadRequest, 400, "bad scope") })
	s.Router().GET("/panic", func(*gin.Context) { panic("boom") })

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ok", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var resp Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 0, resp.Code)
	assert.Equal(t, "ok", resp.Message)

	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/bad", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "bad scope")

	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/panic", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestServer_StartStop(t *testing.T) {
	s := newTestServer(t, &Config{Address: "127.0.0.1:0"})
	s.Router().GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })

	require.NoError(t, s.Start())
	assert.True(t, errors.Is(s.Start(), ErrServerAlreadyStarted))

	resp, err := http.Get("http://" + s.Addr() + "/ping")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	require.NoError(t, s.Stop(context.Background()))
	assert.True(t, errors.Is(s.Stop(context.Background()), ErrServerNotStarted))
}

func TestServer_CORS(t *testing.T) {
	s := newTestServer(t, &Config{EnableCORS: true})
	s.Router().GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Origin", "http://example.com")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))

	s = newTestServer(t, &Config{EnableCORS: true, CORSOrigins: []string{"http://ops.example.com"}})
	s.Router().GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Origin", "http://ops.example.com")
	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	assert.Equal(t, "http://ops.example.com", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Origin", "http://evil.example.com")
	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestConfigValidate(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())
	assert.True(t, errors.Is((&Config{Mode: gin.TestMode}).Validate(), ErrInvalidConfig))
	assert.True(t, errors.Is((&Config{Address: ":1", Mode: "loud"}).Validate(), ErrInvalidConfig))
}

func TestMetricsMiddleware(t *testing.T) {
	client, err := prometheus.New(&prometheus.Config{Namespace: "test"})
	require.NoError(t, err)
	m, err := middleware.NewHTTPMetrics(client)
	require.NoError(t, err)

	s := newTestServer(t, nil)
	s.Router().Use(middleware.Metrics(m))
	s.Router().GET("/seq/:scope", func(c *gin.Context) { c.Status(http.StatusOK) })

	for _, scope := range []string{"a", "b"} {
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/seq/"+scope, nil))
	}
	count, err := testutil.GatherAndCount(client.Registry(), "test_http_requests_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
