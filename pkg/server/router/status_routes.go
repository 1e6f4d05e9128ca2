package router

import (
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
)

// Status routes live under a reserved prefix so they never shadow a path of
// the protected site.
const (
	HealthPath = "/__/health"
	PingPath   = "/__/ping"
)

func registerStatusRoutes(router *fiber.App) {
	router.Get(HealthPath, healthHandler)
	router.Get(PingPath, func(ctx *fiber.Ctx) error {
		return ctx.Status(http.StatusOK).JSON(fiber.Map{
			"message": "pong",
		})
	})
}

func healthHandler(ctx *fiber.Ctx) error {
	return ctx.Status(http.StatusOK).JSON(fiber.Map{
		"status": "ok",
		"time":   time.Now().Format(time.RFC3339),
	})
}
