package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	handlers "github.com/oksasatya/galactic-postbox/internal/interface/http"
	"github.com/oksasatya/galactic-postbox/internal/interface/middleware"
)

type AttachmentModule struct {
	Handler  *handlers.AttachmentHandler
	Verifier middleware.TokenVerifier
	Limiter  *middleware.RateLimiter
}

func NewAttachmentModule(h *handlers.AttachmentHandler, v middleware.TokenVerifier, l *middleware.RateLimiter) *AttachmentModule {
	return &AttachmentModule{Handler: h, Verifier: v, Limiter: l}
}

func (m *AttachmentModule) Register(rg *gin.RouterGroup) {
	rg.POST("/attachments",
		middleware.Auth(m.Verifier),
		m.Limiter.Handler(middleware.Limit{Max: 20, Window: time.Minute, Key: middleware.KeyByUserID()}),
		m.Handler.Upload,
	)
}
