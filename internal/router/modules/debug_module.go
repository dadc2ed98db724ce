package modules

import (
	"expvar"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/galactic-postbox/internal/interface/middleware"
	"github.com/oksasatya/galactic-postbox/internal/metrics"
)

type DebugModule struct {
	Limiter *middleware.RateLimiter
}

func NewDebugModule(l *middleware.RateLimiter) *DebugModule { return &DebugModule{Limiter: l} }

func (m *DebugModule) Register(rg *gin.RouterGroup) {
	// Public metrics endpoints, rate-limited per IP; private networks bypass
	rl := m.Limiter.Handler(middleware.Limit{
		Max:    120,
		Window: time.Minute,
		Key:    middleware.KeyByIP(),
		Allow:  middleware.AllowPrivateIP(),
	})
	rg.GET("/metrics", rl, gin.WrapH(metrics.Handler()))
	rg.GET("/debug/vars", rl, gin.WrapH(expvar.Handler()))
}
