package api

import (
	"github.com/gin-gonic/gin"

	"EduConnect/internal/config"
	"EduConnect/pkg/ratelimiter"
)

// SetupRouter 配置和返回一个 Gin 引擎实例。
func SetupRouter(h *Handler, cfg config.ServerConfig) *gin.Engine {
	// 使用默认中间件 (logger, recovery) 创建一个 Gin 引擎。
	r := gin.Default()

	r.Use(RequestIDMiddleware())
	r.Use(CORSMiddleware(cfg.AllowOrigins))

	if cfg.RateLimiter.Enabled {
		limiter := ratelimiter.NewTokenBucket(cfg.RateLimiter.Rate, cfg.RateLimiter.Capacity)
		r.Use(RateLimitMiddleware(limiter))
	}

	r.GET("/", h.Home)
	r.POST("/ask", h.Ask)

	return r
}
