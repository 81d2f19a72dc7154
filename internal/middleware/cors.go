package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/dumeirei/hotel-inventory-backend/internal/common/config"
)

// DefaultCORSConfig 默认 CORS 配置
func DefaultCORSConfig() *config.CORSConfig {
	return &config.CORSConfig{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodPatch,
			http.MethodDelete,
			http.MethodOptions,
		},
		AllowedHeaders: []string{"Origin", "Content-Type", "Accept", HeaderRequestID},
		ExposedHeaders: []string{
			"Content-Length",
			HeaderRequestID,
			"X-RateLimit-Limit",
			"X-RateLimit-Remaining",
		},
		MaxAge: 86400,
	}
}

// CORS 跨域中间件，cfg 为 nil 时使用默认配置
func CORS(cfg *config.CORSConfig) gin.HandlerFunc {
	if cfg == nil || len(cfg.AllowedOrigins) == 0 {
		cfg = DefaultCORSConfig()
	}
	defaults := DefaultCORSConfig()
	methods := cfg.AllowedMethods
	if len(methods) == 0 {
		methods = defaults.AllowedMethods
	}
	headers := cfg.AllowedHeaders
	if len(headers) == 0 {
		headers = defaults.AllowedHeaders
	}

	allowAll := len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*"
	allowed := make(map[string]struct{}, len(cfg.AllowedOrigins))
	for _, origin := range cfg.AllowedOrigins {
		allowed[origin] = struct{}{}
	}

	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")

		var allowOrigin string
		switch {
		case allowAll && cfg.AllowCredentials:
			// 携带凭证时不能返回通配符
			allowOrigin = origin
		case allowAll:
			allowOrigin = "*"
		default:
			if _, ok := allowed[origin]; ok {
				allowOrigin = origin
			}
		}

		if allowOrigin != "" {
			c.Header("Access-Control-Allow-Origin", allowOrigin)
			c.Header("Access-Control-Allow-Methods", strings.Join(methods, ", "))
			c.Header("Access-Control-Allow-Headers", strings.Join(headers, ", "))
			if len(cfg.ExposedHeaders) > 0 {
				c.Header("Access-Control-Expose-Headers", strings.Join(cfg.ExposedHeaders, ", "))
			}
			if cfg.AllowCredentials {
				c.Header("Access-Control-Allow-Credentials", "true")
			}
			if cfg.MaxAge > 0 {
				c.Header("Access-Control-Max-Age", strconv.Itoa(cfg.MaxAge))
			}
			if !allowAll {
				c.Header("Vary", "Origin")
			}
		}

		// 预检请求
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
