package router

import (
	appuser "github.com/oksasatya/user-orders-service/internal/application"
	"github.com/oksasatya/user-orders-service/internal/container"
	"github.com/oksasatya/user-orders-service/internal/domain/repository"
	"github.com/oksasatya/user-orders-service/internal/infrastructure/memstore"
	handlers "github.com/oksasatya/user-orders-service/internal/interface/http"
	"github.com/oksasatya/user-orders-service/internal/router/modules"
)

type UserModuleDeps struct {
	Gateway repository.UserGateway
	Service *appuser.Service
	Handler *handlers.UserHandler
}

func buildUserDeps() UserModuleDeps {
	cfg := container.GetConfig()
	logger := container.GetLogger()

	gw := container.GetUserGateway()
	if gw == nil {
		logger.Warn("no user gateway configured, falling back to in-memory store")
		gw = memstore.NewUserGateway()
		container.SetUserGateway(gw)
	}

	service := appuser.NewService(gw, logger, cfg.BcryptCost)
	service.Company = appuser.Company{Name: cfg.CompanyName, AppName: cfg.AppName, SupportURL: cfg.SupportURL}
	// nil pointers must not become non-nil interfaces
	if idx := container.GetUserIndex(); idx != nil {
		service.Index = idx
	}
	if pub := container.GetRabbitPub(); pub != nil && cfg.MailSendEnabled {
		service.Jobs = pub
	}

	handler := handlers.NewUserHandler(service, logger)

	return UserModuleDeps{
		Gateway: gw,
		Service: service,
		Handler: handler,
	}
}

// InitModules initializes all application modules and registers them with the router registry
// This function should be called once during application startup to wire up all modules
func InitModules(r *Registry) {
	cfg := container.GetConfig()
	userDeps := buildUserDeps()

	rdb := container.GetRedis()
	if !cfg.RateLimitEnabled {
		rdb = nil
	}

	r.AddRoot(modules.NewHealthModule(handlers.NewHealthHandler(userDeps.Gateway)))
	r.Add(modules.NewUserModule(userDeps.Handler, rdb, container.GetLogger(), cfg.RateLimitReadPerMin, cfg.RateLimitWritePerMin))
	if cfg.DebugMetricsEnabled {
		r.Add(modules.NewDebugModule(rdb, container.GetHTTPMetrics()))
	}
}
