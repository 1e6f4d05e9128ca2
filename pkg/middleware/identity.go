package middleware

import (
	"context"
	"time"

	"github.com/NeuralTrust/BotGate/pkg/common"
	"github.com/NeuralTrust/BotGate/pkg/infra/fingerprint"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type identityMiddleware struct {
	logger   *logrus.Logger
	resolver fingerprint.Resolver
}

// NewIdentityMiddleware stamps every request with its arrival time, a trace
// id and the resolved client identity.
func NewIdentityMiddleware(
	logger *logrus.Logger,
	resolver fingerprint.Resolver,
) Middleware {
	return &identityMiddleware{
		logger:   logger,
		resolver: resolver,
	}
}

func (m *identityMiddleware) Middleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		ctx.Locals(common.LatencyContextKey, time.Now())

		traceID := uuid.New().String()
		if incoming, err := uuid.Parse(ctx.Get(common.TraceIDHeader)); err == nil {
			traceID = incoming.String()
		}
		ctx.Locals(common.TraceIdKey, traceID)
		ctx.Set(common.TraceIDHeader, traceID)

		identity := m.resolver.MakeIdentity(ctx)
		ctx.Locals(common.IdentityContextKey, identity)

		c := context.WithValue(ctx.UserContext(), common.TraceIdKey, traceID)
		c = context.WithValue(c, common.IdentityContextKey, identity)
		ctx.SetUserContext(c)
		return ctx.Next()
	}
}
