package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	handlers "github.com/oksasatya/galactic-postbox/internal/interface/http"
	"github.com/oksasatya/galactic-postbox/internal/interface/middleware"
)

type AuthModule struct {
	Handler  *handlers.AuthHandler
	Verifier middleware.TokenVerifier
	Limiter  *middleware.RateLimiter
}

func NewAuthModule(h *handlers.AuthHandler, v middleware.TokenVerifier, l *middleware.RateLimiter) *AuthModule {
	return &AuthModule{Handler: h, Verifier: v, Limiter: l}
}

func (m *AuthModule) Register(rg *gin.RouterGroup) {
	// Public endpoints with IP-based rate limits
	registerLimiter := m.Limiter.Handler(middleware.Limit{Max: 10, Window: time.Hour, Key: middleware.KeyByIPAndPath()})
	loginLimiter := m.Limiter.Handler(middleware.Limit{Max: 10, Window: time.Minute, Key: middleware.KeyByIPAndPath()})

	rg.POST("/auth/register", registerLimiter, m.Handler.Register)
	rg.POST("/auth/login", loginLimiter, m.Handler.Login)

	auth := rg.Group("/auth")
	auth.Use(middleware.Auth(m.Verifier))
	{
		auth.GET("/me", m.Handler.Me)
		auth.POST("/logout", m.Handler.Logout)
	}
}
