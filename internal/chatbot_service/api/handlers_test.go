package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"EduConnect/internal/chatbot_service/service"
	"EduConnect/internal/config"
	"EduConnect/pkg/logger"
)

// staticLLM 返回固定文本，用于驱动路由服务的测试场景。
type staticLLM struct {
	response string
	classify string
}

func (s *staticLLM) Generate(_ context.Context, prompt string) (string, error) {
	if strings.Contains(prompt, "Return only **true**") {
		return s.classify, nil
	}
	return s.response, nil
}

type staticCache struct {
	exact map[string]string
}

func (s *staticCache) ExactMatch(q string) (string, bool) {
	a, ok := s.exact[q]
	return a, ok
}

func (s *staticCache) FindSimilar(context.Context, string) (string, float64, bool) {
	return "", 0, false
}

func (s *staticCache) Add(context.Context, string, string) error { return nil }

func newTestRouter(llm *staticLLM, cache service.Cache) *gin.Engine {
	gin.SetMode(gin.TestMode)
	logger.Init(logrus.ErrorLevel)
	log := logger.New("api-test", "")

	svc := service.New(llm, cache, nil, nil, nil, nil, log)
	return SetupRouter(NewHandler(svc), config.ServerConfig{})
}

func doAsk(t *testing.T, router *gin.Engine, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/ask", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestAskRejectsMissingFields(t *testing.T) {
	router := newTestRouter(&staticLLM{}, &staticCache{})

	for _, body := range []string{
		`{}`,
		`{"query": "hello"}`,
		`{"email": "s@example.com"}`,
		`{"query": "", "email": "s@example.com"}`,
		`not json`,
	} {
		w := doAsk(t, router, body)
		assert.Equal(t, http.StatusBadRequest, w.Code, "body: %s", body)

		var resp map[string]string
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "Query and email are required", resp["error"])
	}
}

func TestAskReturnsCachedAnswerWithSource(t *testing.T) {
	cache := &staticCache{exact: map[string]string{"What is gravity": "A force."}}
	router := newTestRouter(&staticLLM{}, cache)

	w := doAsk(t, router, `{"query": "What is gravity", "email": "s@example.com"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "A force.", resp["answer"])
	assert.Equal(t, "cache_exact_match", resp["source"])
	assert.NotContains(t, resp, "similarity", "similarity only appears on similar matches")
}

func TestAskReturnsFreshAnswer(t *testing.T) {
	router := newTestRouter(&staticLLM{response: "Fresh answer."}, &staticCache{})

	w := doAsk(t, router, `{"query": "Anything", "email": "s@example.com"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Fresh answer.", resp["answer"])
	assert.Equal(t, "fresh_query", resp["source"])
}

func TestAskPersonalFailureReturnsServerError(t *testing.T) {
	// 分类为个人查询但没有配置记录存储时返回 500。
	router := newTestRouter(&staticLLM{classify: "true"}, &staticCache{})

	w := doAsk(t, router, `{"query": "What are my marks", "email": "s@example.com"}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp["error"])
}

func TestHomeEndpoint(t *testing.T) {
	router := newTestRouter(&staticLLM{}, &staticCache{})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "EduConnect chatbot backend is running!", w.Body.String())
}

func TestRequestIDHeader(t *testing.T) {
	router := newTestRouter(&staticLLM{}, &staticCache{})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	// 客户端提供的请求 ID 原样透传。
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "req-123")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, "req-123", w.Header().Get("X-Request-ID"))
}

func TestRateLimiterRejectsWhenExhausted(t *testing.T) {
	gin.SetMode(gin.TestMode)
	logger.Init(logrus.ErrorLevel)
	log := logger.New("api-test", "")

	svc := service.New(&staticLLM{response: "ok"}, &staticCache{}, nil, nil, nil, nil, log)
	router := SetupRouter(NewHandler(svc), config.ServerConfig{
		RateLimiter: config.RateLimiterConfig{Enabled: true, Rate: 0.001, Capacity: 1},
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}

func TestCORSPreflightAllowsConfiguredOrigin(t *testing.T) {
	gin.SetMode(gin.TestMode)
	logger.Init(logrus.ErrorLevel)
	log := logger.New("api-test", "")

	svc := service.New(&staticLLM{}, &staticCache{}, nil, nil, nil, nil, log)
	router := SetupRouter(NewHandler(svc), config.ServerConfig{
		AllowOrigins: []string{"http://localhost:3000"},
	})

	req := httptest.NewRequest(http.MethodOptions, "/ask", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))

	// 未配置的来源不会得到 CORS 头。
	req = httptest.NewRequest(http.MethodOptions, "/ask", nil)
	req.Header.Set("Origin", "http://evil.example.com")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}
