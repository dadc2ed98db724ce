package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	handlers "github.com/oksasatya/galactic-postbox/internal/interface/http"
	"github.com/oksasatya/galactic-postbox/internal/interface/middleware"
)

type MailModule struct {
	Handler  *handlers.MailHandler
	Verifier middleware.TokenVerifier
	Limiter  *middleware.RateLimiter
}

func NewMailModule(h *handlers.MailHandler, v middleware.TokenVerifier, l *middleware.RateLimiter) *MailModule {
	return &MailModule{Handler: h, Verifier: v, Limiter: l}
}

func (m *MailModule) Register(rg *gin.RouterGroup) {
	mail := rg.Group("/mail")
	mail.Use(
		middleware.Auth(m.Verifier),
		m.Limiter.Handler(middleware.Limit{Max: 300, Window: time.Minute, Key: middleware.KeyByUserID()}),
	)
	sendLimiter := m.Limiter.Handler(middleware.Limit{Max: 30, Window: time.Minute, Key: middleware.KeyByIPAndPath()})
	{
		mail.GET("", m.Handler.List)
		mail.GET("/sent", m.Handler.Sent)
		mail.POST("/send", sendLimiter, m.Handler.Send)
		mail.GET("/:id", m.Handler.Get)
		mail.PATCH("/:id/read", m.Handler.MarkRead)
		mail.DELETE("/:id", m.Handler.Delete)
	}
}
