package router

import (
	handlers "github.com/NeuralTrust/BotGate/pkg/handlers/http"
	"github.com/NeuralTrust/BotGate/pkg/middleware"
	"github.com/gofiber/fiber/v2"
)

type proxyRouter struct {
	middlewareTransport *middleware.Transport
	handlerTransport    *handlers.HandlerTransport
}

func NewProxyRouter(
	middlewareTransport *middleware.Transport,
	handlerTransport *handlers.HandlerTransport,
) ServerRouter {
	return &proxyRouter{
		middlewareTransport: middlewareTransport,
		handlerTransport:    handlerTransport,
	}
}

func (r *proxyRouter) BuildRoutes(router *fiber.App) error {
	if r.handlerTransport == nil || r.handlerTransport.ForwardedHandler == nil {
		return ErrInvalidHandlerTransport
	}

	registerStatusRoutes(router)

	if r.middlewareTransport != nil {
		if mws := r.middlewareTransport.GetMiddlewares(); len(mws) > 0 {
			router.Use(mws...)
		}
	}

	router.Use(r.handlerTransport.ForwardedHandler.Handle)

	return nil
}
