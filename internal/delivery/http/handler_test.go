package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/productrecommend/backend/config"
	"github.com/productrecommend/backend/internal/domain"
	"github.com/productrecommend/backend/internal/metrics"
	"github.com/productrecommend/backend/internal/usecase"
)

// TestMain sets up test environment before running tests
func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

type stubRetriever struct {
	docs []domain.Document
	err  error
}

func (s *stubRetriever) Retrieve(ctx context.Context, query string) ([]domain.Document, error) {
	return s.docs, s.err
}

const earphonePayload = "商品ID: 42\n商品名: ワイヤレスイヤホン\n価格: 3000円\n在庫状況: なし\nファイル名: earphone.jpg\n商品説明: 高音質。\n防水対応。"

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Port:           "8080",
			Environment:    "test",
			AllowedOrigins: []string{"http://localhost:8501"},
		},
		Retriever: config.RetrieverConfig{BaseURL: "http://retriever.test"},
		Cache:     config.CacheConfig{Type: "memory"},
	}
}

// setupTestRouter wires a real service around retriever; nil retriever means no service at all
func setupTestRouter(retriever domain.Retriever) (*gin.Engine, *prometheus.Registry) {
	reg := prometheus.NewRegistry()

	var service *usecase.RecommendationService
	if retriever != nil {
		service = usecase.NewRecommendationService(retriever, nil, metrics.New(reg), usecase.RecommendationServiceConfig{})
	}

	router := SetupRouter(testConfig(), NewHandler(service), promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	return router, reg
}

func doJSON(router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

type decodedView struct {
	Intro      string            `json:"intro"`
	Record     map[string]string `json:"record"`
	Directives []struct {
		Type string                 `json:"type"`
		Data map[string]interface{} `json:"data"`
	} `json:"directives"`
}

func decodeView(t *testing.T, w *httptest.ResponseRecorder) decodedView {
	t.Helper()
	var view decodedView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
	return view
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestHealthCheckEndpoint(t *testing.T) {
	router, _ := setupTestRouter(nil)

	w := doJSON(router, http.MethodGet, "/health", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "healthy", decodeError(t, w)["status"])
}

func TestRecommendEndpoint(t *testing.T) {
	t.Run("returns directives for a retrieved product", func(t *testing.T) {
		router, _ := setupTestRouter(&stubRetriever{docs: []domain.Document{{Content: earphonePayload}}})

		w := doJSON(router, http.MethodPost, "/api/v1/recommendations", `{"query":"高音質なワイヤレスイヤホン"}`)

		require.Equal(t, http.StatusOK, w.Code)
		view := decodeView(t, w)
		assert.Equal(t, usecase.IntroMessage, view.Intro)
		assert.Equal(t, "42", view.Record["id"])
		require.Len(t, view.Directives, 7)
		assert.Equal(t, "core_info", view.Directives[0].Type)
		assert.Equal(t, "ワイヤレスイヤホン", view.Directives[0].Data["name"])
		assert.Equal(t, "stock_banner", view.Directives[1].Type)
		assert.Equal(t, "out", view.Directives[1].Data["variant"])
		assert.Equal(t, "images/products/earphone.jpg", view.Directives[3].Data["path"])
		assert.Equal(t, "高音質。\n防水対応。", view.Directives[4].Data["text"])
	})

	t.Run("rejects a missing query", func(t *testing.T) {
		router, _ := setupTestRouter(&stubRetriever{})

		w := doJSON(router, http.MethodPost, "/api/v1/recommendations", `{}`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.NotEmpty(t, decodeError(t, w)["requestId"])
	})

	t.Run("rejects a blank query", func(t *testing.T) {
		router, _ := setupTestRouter(&stubRetriever{})

		w := doJSON(router, http.MethodPost, "/api/v1/recommendations", `{"query":"   "}`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("maps parse failures to a generic message", func(t *testing.T) {
		router, _ := setupTestRouter(&stubRetriever{docs: []domain.Document{{Content: "name: X\nprice: 100"}}})

		w := doJSON(router, http.MethodPost, "/api/v1/recommendations", `{"query":"lamp"}`)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		msg := decodeError(t, w)["error"]
		assert.True(t, strings.HasPrefix(msg, msgDisplayFailed))
		assert.NotContains(t, msg, "missing required field")
	})

	t.Run("maps retriever failures to bad gateway", func(t *testing.T) {
		router, _ := setupTestRouter(&stubRetriever{err: domain.ErrRetrieverFailure})

		w := doJSON(router, http.MethodPost, "/api/v1/recommendations", `{"query":"lamp"}`)

		assert.Equal(t, http.StatusBadGateway, w.Code)
		assert.True(t, strings.HasPrefix(decodeError(t, w)["error"], msgRetrievalFailed))
	})

	t.Run("returns not implemented without a service", func(t *testing.T) {
		router, _ := setupTestRouter(nil)

		w := doJSON(router, http.MethodPost, "/api/v1/recommendations", `{"query":"lamp"}`)

		assert.Equal(t, http.StatusNotImplemented, w.Code)
	})

	t.Run("accepts POST only", func(t *testing.T) {
		router, _ := setupTestRouter(&stubRetriever{})

		for _, method := range []string{http.MethodGet, http.MethodPut, http.MethodDelete} {
			w := doJSON(router, method, "/api/v1/recommendations", "")
			assert.Equal(t, http.StatusNotFound, w.Code, method)
		}
	})
}

func TestParseProductsEndpoint(t *testing.T) {
	router, _ := setupTestRouter(&stubRetriever{})

	tests := []struct {
		name       string
		body       string
		wantStatus int
	}{
		{
			name:       "valid candidate list",
			body:       `[{"page_content":"id: 1\nname: Desk Light\nprice: 1980"}]`,
			wantStatus: http.StatusOK,
		},
		{name: "empty list", body: `[]`, wantStatus: http.StatusUnprocessableEntity},
		{name: "null candidate", body: `[null]`, wantStatus: http.StatusUnprocessableEntity},
		{name: "wrong shape", body: `{"page_content":"id: 1"}`, wantStatus: http.StatusUnprocessableEntity},
		{name: "empty payload", body: `[{"page_content":""}]`, wantStatus: http.StatusUnprocessableEntity},
		{name: "missing price", body: `[{"page_content":"id: 1\nname: X"}]`, wantStatus: http.StatusUnprocessableEntity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(router, http.MethodPost, "/api/v1/products/parse", tt.body)
			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}
}

func TestRenderProductEndpoint(t *testing.T) {
	router, _ := setupTestRouter(&stubRetriever{})

	t.Run("derives directives with placeholders", func(t *testing.T) {
		w := doJSON(router, http.MethodPost, "/api/v1/products/render",
			`{"record":{"id":"1","name":"X","price":"100","stock_status":"残りわずか"}}`)

		require.Equal(t, http.StatusOK, w.Code)
		view := decodeView(t, w)
		assert.Equal(t, "low", view.Directives[1].Data["variant"])
		assert.Equal(t, "—", view.Directives[2].Data["category"])
		assert.Equal(t, false, view.Directives[3].Data["available"])
	})

	t.Run("drops an image path outside the image directory", func(t *testing.T) {
		w := doJSON(router, http.MethodPost, "/api/v1/products/render",
			`{"record":{"id":"1","name":"X","price":"100","file_name":"../../../etc/passwd"}}`)

		require.Equal(t, http.StatusOK, w.Code)
		view := decodeView(t, w)
		assert.Equal(t, false, view.Directives[3].Data["available"])
		assert.Equal(t, "", view.Directives[3].Data["path"])
	})

	t.Run("rejects a record without required fields", func(t *testing.T) {
		w := doJSON(router, http.MethodPost, "/api/v1/products/render", `{"record":{"name":"X"}}`)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})

	t.Run("rejects a body without record", func(t *testing.T) {
		w := doJSON(router, http.MethodPost, "/api/v1/products/render", `{}`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestMetricsEndpoint(t *testing.T) {
	router, _ := setupTestRouter(&stubRetriever{docs: []domain.Document{{Content: earphonePayload}}})

	doJSON(router, http.MethodPost, "/api/v1/recommendations", `{"query":"lamp"}`)
	w := doJSON(router, http.MethodGet, "/metrics", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `productrec_parse_outcomes_total{outcome="success"} 1`)
	assert.Contains(t, w.Body.String(), `productrec_stock_banners_total{variant="out"} 1`)
}
