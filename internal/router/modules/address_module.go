package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	handlers "github.com/oksasatya/galactic-postbox/internal/interface/http"
	"github.com/oksasatya/galactic-postbox/internal/interface/middleware"
)

type AddressModule struct {
	Handler  *handlers.AddressHandler
	Verifier middleware.TokenVerifier
	Limiter  *middleware.RateLimiter
}

func NewAddressModule(h *handlers.AddressHandler, v middleware.TokenVerifier, l *middleware.RateLimiter) *AddressModule {
	return &AddressModule{Handler: h, Verifier: v, Limiter: l}
}

func (m *AddressModule) Register(rg *gin.RouterGroup) {
	// the registration form loads the catalog before there is a token
	rg.GET("/addresses", m.Limiter.Handler(middleware.Limit{Max: 120, Window: time.Minute, Key: middleware.KeyByIP()}), m.Handler.Catalog)

	auth := rg.Group("/addresses")
	auth.Use(
		middleware.Auth(m.Verifier),
		m.Limiter.Handler(middleware.Limit{Max: 120, Window: time.Minute, Key: middleware.KeyByUserID()}),
	)
	{
		auth.GET("/search", m.Handler.Search)
	}
}
