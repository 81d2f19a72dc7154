package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/dumeirei/hotel-inventory-backend/internal/common/config"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func perform(r http.Handler, method, target string, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, GetRequestID(c)) })

	t.Run("生成新ID", func(t *testing.T) {
		w := perform(r, http.MethodGet, "/", nil)
		id := w.Header().Get(HeaderRequestID)
		assert.Len(t, id, 36)
		assert.Equal(t, id, w.Body.String())
	})

	t.Run("沿用请求头", func(t *testing.T) {
		w := perform(r, http.MethodGet, "/", map[string]string{HeaderRequestID: "req-1"})
		assert.Equal(t, "req-1", w.Header().Get(HeaderRequestID))
		assert.Equal(t, "req-1", w.Body.String())
	})
}

func TestRecovery(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	r := gin.New()
	r.Use(RequestID(), Recovery(zap.New(core)))
	r.GET("/panic", func(c *gin.Context) { panic("boom") })

	w := perform(r, http.MethodGet, "/panic", nil)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "服务器内部错误")
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "/panic", logs.All()[0].ContextMap()["path"])
}

func TestSecureHeaders(t *testing.T) {
	r := gin.New()
	r.Use(SecureHeaders())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := perform(r, http.MethodGet, "/", nil)
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
}

func TestRequestSizeLimiter(t *testing.T) {
	r := gin.New()
	r.Use(RequestSizeLimiter(16))
	r.POST("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"room_no":"101","guests":[]}`))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{}`))
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestLogging(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	r := gin.New()
	r.Use(RequestID(), Logging(DefaultLoggingConfig(zap.New(core))))
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/api/v1/rooms/:id", func(c *gin.Context) { c.Status(http.StatusNotFound) })
	r.GET("/boom", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })

	perform(r, http.MethodGet, "/health", nil)
	assert.Equal(t, 0, logs.Len(), "探活接口不记录")

	perform(r, http.MethodGet, "/api/v1/rooms/9?x=1", map[string]string{HeaderRequestID: "req-9"})
	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, zapcore.WarnLevel, entry.Level)
	fields := entry.ContextMap()
	assert.Equal(t, "req-9", fields["request_id"])
	assert.Equal(t, "x=1", fields["query"])
	assert.EqualValues(t, http.StatusNotFound, fields["status_code"])

	perform(r, http.MethodGet, "/boom", nil)
	require.Equal(t, 2, logs.Len())
	assert.Equal(t, zapcore.ErrorLevel, logs.All()[1].Level)
}

func TestCORS(t *testing.T) {
	t.Run("允许所有源", func(t *testing.T) {
		r := gin.New()
		r.Use(CORS(nil))
		r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

		w := perform(r, http.MethodGet, "/", map[string]string{"Origin": "http://front.example"})
		assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "86400", w.Header().Get("Access-Control-Max-Age"))
	})

	t.Run("白名单", func(t *testing.T) {
		r := gin.New()
		r.Use(CORS(&config.CORSConfig{
			AllowedOrigins:   []string{"http://front.example"},
			AllowCredentials: true,
			MaxAge:           600,
		}))
		r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

		w := perform(r, http.MethodGet, "/", map[string]string{"Origin": "http://front.example"})
		assert.Equal(t, "http://front.example", w.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
		assert.Equal(t, "600", w.Header().Get("Access-Control-Max-Age"))
		assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), http.MethodPatch)

		w = perform(r, http.MethodGet, "/", map[string]string{"Origin": "http://evil.example"})
		assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("预检请求", func(t *testing.T) {
		r := gin.New()
		r.Use(CORS(nil))
		r.OPTIONS("/", func(c *gin.Context) { c.Status(http.StatusOK) })

		w := perform(r, http.MethodOptions, "/", map[string]string{"Origin": "http://front.example"})
		assert.Equal(t, http.StatusNoContent, w.Code)
	})
}

func TestRateLimit(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	cfg := RateLimitFromConfig(client, &config.RateLimitConfig{Enabled: true, Limit: 2, Window: 60})
	assert.Equal(t, time.Minute, cfg.Window)

	r := gin.New()
	r.Use(RateLimit(cfg))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := perform(r, http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "1", w.Header().Get("X-RateLimit-Remaining"))

	w = perform(r, http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = perform(r, http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
	assert.NotEmpty(t, w.Header().Get("Retry-After"))

	t.Run("窗口过期后恢复", func(t *testing.T) {
		mr.FastForward(time.Minute + time.Second)
		w := perform(r, http.MethodGet, "/", nil)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("Redis 不可用时放行", func(t *testing.T) {
		mr.Close()
		w := perform(r, http.MethodGet, "/", nil)
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestRateLimitFromConfig_Defaults(t *testing.T) {
	cfg := RateLimitFromConfig(nil, &config.RateLimitConfig{})
	assert.Equal(t, 100, cfg.Limit)
	assert.Equal(t, time.Minute, cfg.Window)
}

func TestTracing(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(provider)
	t.Cleanup(func() {
		otel.SetTracerProvider(prev)
		_ = provider.Shutdown(context.Background())
	})

	var traceID string
	r := gin.New()
	r.Use(Tracing(&TracingConfig{ServiceName: "test", SkipPaths: []string{"/health"}}))
	r.GET("/api/v1/rooms/:id", func(c *gin.Context) {
		traceID = GetTraceID(c)
		c.Status(http.StatusOK)
	})
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })

	perform(r, http.MethodGet, "/health", nil)
	assert.Empty(t, rec.Ended())

	perform(r, http.MethodGet, "/api/v1/rooms/3", nil)
	spans := rec.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "GET /api/v1/rooms/:id", spans[0].Name())
	assert.Equal(t, spans[0].SpanContext().TraceID().String(), traceID)
}
