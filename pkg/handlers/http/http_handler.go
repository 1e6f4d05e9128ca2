package http

import "github.com/gofiber/fiber/v2"

type Handler interface {
	Handle(ctx *fiber.Ctx) error
}

type HandlerTransport struct {
	// Proxy
	ForwardedHandler Handler

	// Policy
	GetPolicyHandler    Handler
	UpdatePolicyHandler Handler
	ClassifyHandler     Handler

	// Decisions
	GetStatsHandler        Handler
	ListDecisionsHandler   Handler
	RecentDecisionsHandler Handler

	// Operations
	InvalidateCacheHandler Handler
	GetVersionHandler      Handler
}
