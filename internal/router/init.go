package router

import (
	"context"

	"github.com/oksasatya/galactic-postbox/internal/application"
	"github.com/oksasatya/galactic-postbox/internal/container"
	handlers "github.com/oksasatya/galactic-postbox/internal/interface/http"
	"github.com/oksasatya/galactic-postbox/internal/interface/middleware"
	"github.com/oksasatya/galactic-postbox/internal/router/modules"
	"github.com/oksasatya/galactic-postbox/pkg/helpers"
)

// Services are the application services built from the container.
type Services struct {
	Auth        *application.AuthService
	Mail        *application.MailService
	Addresses   *application.AddressService
	Attachments *application.AttachmentService
}

func buildServices() Services {
	cfg := container.GetConfig()
	logger := container.GetLogger()
	repos := container.GetRepositories()

	addresses := application.NewAddressService(repos.Addresses, container.GetES(), cfg.ESAddressesIndex, logger)

	var revoker application.TokenRevoker
	if rdb := container.GetRedis(); rdb != nil {
		revoker = helpers.NewTokenDenylist(rdb)
	}
	auth := application.NewAuthService(repos.Users, repos.Addresses, container.GetJWT(), revoker, addresses, logger)

	var notifier application.DeliveryNotifier
	if pub := container.GetRabbitPub(); pub != nil {
		notifier = application.NewQueueNotifier(pub, cfg.AppName, cfg.AppURL)
	}
	mail := application.NewMailService(repos.Users, repos.Mail, notifier, logger)

	var uploader application.ObjectUploader
	if gcs := container.GetGCS(); gcs != nil && cfg.GCSBucket != "" {
		uploader = helpers.NewGCSUploader(gcs, cfg.GCSBucket)
	}
	attachments := application.NewAttachmentService(uploader, cfg.AttachmentMaxBytes, logger)

	return Services{Auth: auth, Mail: mail, Addresses: addresses, Attachments: attachments}
}

func healthChecks() map[string]handlers.HealthCheck {
	checks := map[string]handlers.HealthCheck{}
	if pool := container.GetPGPool(); pool != nil && container.GetMemoryStore() == nil {
		checks["postgres"] = pool.Ping
	}
	if rdb := container.GetRedis(); rdb != nil {
		checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	}
	return checks
}

// InitModules builds the services and registers every feature module.
// Call once during startup, after the container is populated.
func InitModules(r *Registry) {
	svc := buildServices()
	logger := container.GetLogger()
	limiter := middleware.NewRateLimiter(nil)
	if container.GetConfig().RateLimitEnabled {
		limiter = middleware.NewRateLimiter(container.GetRedis())
	}

	r.Add(modules.NewHealthModule(handlers.NewHealthHandler(healthChecks())))
	r.Add(modules.NewAuthModule(handlers.NewAuthHandler(svc.Auth, logger), svc.Auth, limiter))
	r.Add(modules.NewMailModule(handlers.NewMailHandler(svc.Mail, logger), svc.Auth, limiter))
	r.Add(modules.NewAddressModule(handlers.NewAddressHandler(svc.Addresses, logger), svc.Auth, limiter))
	r.Add(modules.NewAttachmentModule(handlers.NewAttachmentHandler(svc.Attachments, logger), svc.Auth, limiter))
	if container.GetConfig().DebugMetricsEnabled {
		r.Add(modules.NewDebugModule(limiter))
	}
}
