package server

import (
	"errors"
	"fmt"
	"time"

	"github.com/NeuralTrust/BotGate/pkg/config"
	"github.com/NeuralTrust/BotGate/pkg/infra/prometheus"
	"github.com/NeuralTrust/BotGate/pkg/server/router"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/valyala/fasthttp/fasthttpadaptor"
)

const MetricsPath = "/metrics"

// Server interface defines the common behavior for all servers
type Server interface {
	Run() error
	Shutdown() error
}

type BaseServer struct {
	Config *config.Config
	Logger *logrus.Logger
	Router *fiber.App

	metrics *fiber.App
}

func NewBaseServer(cfg *config.Config, logger *logrus.Logger) *BaseServer {
	return &BaseServer{
		Config: cfg,
		Logger: logger,
		Router: newFiberApp(cfg.Server),
	}
}

// newFiberApp tunes fiber and the underlying fasthttp server for a gate that
// sits in front of every request of a site. Request bodies are streamed to the
// origin and only limited by body_limit.
func newFiberApp(cfg config.ServerConfig) *fiber.App {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ReduceMemoryUsage:     true,
		Network:               fiber.NetworkTCP,
		BodyLimit:             cfg.BodyLimit,
		ReadTimeout:           60 * time.Second,
		WriteTimeout:          60 * time.Second,
		IdleTimeout:           120 * time.Second,
		Concurrency:           16384,
		StreamRequestBody:     true,
	})

	srv := app.Server()
	srv.MaxConnsPerIP = 1024
	srv.ReadBufferSize = 8192
	srv.WriteBufferSize = 8192
	srv.NoDefaultServerHeader = true
	srv.NoDefaultDate = true
	srv.NoDefaultContentType = true
	return app
}

func (s *BaseServer) WithRouters(routers ...router.ServerRouter) *BaseServer {
	for _, r := range routers {
		if err := r.BuildRoutes(s.Router); err != nil {
			s.Logger.WithError(err).Error("failed to build routes")
		}
	}
	return s
}

// startMetricsServer exposes the private prometheus registry on its own port
// so scrapes never reach the classification chain.
func (s *BaseServer) startMetricsServer() {
	if !s.Config.Metrics.Enabled {
		s.Logger.Info("prometheus metrics are disabled by configuration")
		return
	}
	if s.metrics != nil {
		return
	}

	s.metrics = fiber.New(fiber.Config{DisableStartupMessage: true})
	s.metrics.Use(recover.New())

	handler := fasthttpadaptor.NewFastHTTPHandler(
		promhttp.HandlerFor(prometheus.Gatherer(), promhttp.HandlerOpts{}),
	)
	s.metrics.Get(MetricsPath, func(c *fiber.Ctx) error {
		handler(c.Context())
		return nil
	})

	addr := fmt.Sprintf(":%d", s.Config.Server.MetricsPort)
	go func(app *fiber.App) {
		if err := app.Listen(addr); err != nil {
			s.Logger.WithError(err).WithField("addr", addr).Error("metrics server stopped")
		}
	}(s.metrics)
}

// Shutdown stops accepting connections and waits for in-flight requests on
// the main app and the metrics app.
func (s *BaseServer) Shutdown() error {
	err := s.Router.Shutdown()
	if s.metrics != nil {
		err = errors.Join(err, s.metrics.Shutdown())
	}
	return err
}
