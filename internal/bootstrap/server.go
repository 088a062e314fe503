package bootstrap

import (
	"github.com/gin-gonic/gin"

	infragin "github.com/Activ8Auto/ProAutoFill/infrastructure/gin"
)

// Server builds the HTTP server: health checks, metrics and the API.
func (a *App) Server() *infragin.Server {
	builder := infragin.NewServerBuilder(a.cfg.Service.Name, a.cfg.Server.Port).
		WithLogger(a.log).
		WithDebug(a.cfg.Service.Debug).
		WithVersion(a.cfg.Service.Version).
		WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.IdleTimeout).
		WithCORSOrigins(a.cfg.Server.CORSOrigins).
		WithMiddleware(a.Metrics.Middleware()).
		WithRoutes(func(router *gin.Engine) {
			router.GET("/metrics", gin.WrapH(a.Metrics.Handler()))
			a.Handler.Register(router)
		})

	if a.stores.Redis != nil {
		builder = builder.WithRedisHealthCheck(a.stores.Ping)
	}
	return builder.Build()
}
