package router

import (
	"errors"

	handlers "github.com/NeuralTrust/BotGate/pkg/handlers/http"
	"github.com/NeuralTrust/BotGate/pkg/middleware"
	"github.com/gofiber/fiber/v2"
)

var (
	ErrInvalidHandlerTransport = errors.New("invalid handler transport")
)

type adminRouter struct {
	middlewareTransport *middleware.Transport
	handlerTransport    *handlers.HandlerTransport
}

// NewAdminRouter mounts the management API. Every /api/v1 route goes through
// the middlewares of the transport, which carry the admin authentication.
func NewAdminRouter(
	middlewareTransport *middleware.Transport,
	handlerTransport *handlers.HandlerTransport,
) ServerRouter {
	return &adminRouter{
		middlewareTransport: middlewareTransport,
		handlerTransport:    handlerTransport,
	}
}

func (r *adminRouter) BuildRoutes(router *fiber.App) error {
	if r.handlerTransport == nil {
		return ErrInvalidHandlerTransport
	}
	h := r.handlerTransport

	registerStatusRoutes(router)
	router.Get("/health", healthHandler)
	router.Get("/version", h.GetVersionHandler.Handle)

	v1 := router.Group("/api/v1")
	{
		if r.middlewareTransport != nil {
			if mws := r.middlewareTransport.GetMiddlewares(); len(mws) > 0 {
				v1.Use(mws...)
			}
		}

		policy := v1.Group("/policy")
		{
			policy.Get("", h.GetPolicyHandler.Handle)
			policy.Put("", h.UpdatePolicyHandler.Handle)
		}

		v1.Post("/classify", h.ClassifyHandler.Handle)

		v1.Get("/stats", h.GetStatsHandler.Handle)

		decisions := v1.Group("/decisions")
		{
			decisions.Get("", h.ListDecisionsHandler.Handle)
			decisions.Get("/recent", h.RecentDecisionsHandler.Handle)
		}

		v1.Post("/invalidate-cache", h.InvalidateCacheHandler.Handle)
	}
	return nil
}
