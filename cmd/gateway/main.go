package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/NeuralTrust/BotGate/pkg/config"
	"github.com/NeuralTrust/BotGate/pkg/dependency_container"
	"github.com/NeuralTrust/BotGate/pkg/infra/cache/channel"
	infraLogger "github.com/NeuralTrust/BotGate/pkg/infra/logger"
	"github.com/NeuralTrust/BotGate/pkg/infra/prometheus"
	"github.com/NeuralTrust/BotGate/pkg/server"
	"github.com/NeuralTrust/BotGate/pkg/server/router"
	"github.com/NeuralTrust/BotGate/pkg/version"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	serverType := getServerType()
	envFile := os.Getenv("ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil {
		log.Println("no .env file found, using system environment variables")
	}

	logger, closeLogs, err := infraLogger.NewLogger(infraLogger.OptionsFromEnv(serverType))
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer closeLogs()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config"
	}
	if err := config.Load(configPath); err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}
	cfg := config.GetConfig()

	if cfg.Metrics.Enabled {
		prometheus.Initialize(prometheus.MetricsConfig{EnableLatency: cfg.Metrics.EnableLatency})
	}

	container, err := dependency_container.NewContainer(dependency_container.ContainerDI{
		Cfg:           cfg,
		Logger:        logger,
		EventsChannel: channel.BotGateEventsChannel,
	})
	if err != nil {
		logger.Fatalf("Failed to initialize dependencies: %v", err)
	}

	if serverType == "proxy" && container.RedisListener != nil {
		go func() {
			logger.Info("starting listening redis events")
			container.RedisListener.Listen(ctx, channel.BotGateEventsChannel)
		}()
	}

	srv := initializeServer(serverType, cfg, logger, container)

	logger.WithField("version", version.Version).WithField("server", serverType).Info("starting BotGate")
	go func() {
		if err := srv.Run(); err != nil {
			logger.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	<-quit
	logger.Info("shutting down server")
	cancel()
	if err := srv.Shutdown(); err != nil {
		logger.WithError(err).Error("error shutting down server")
	}
	if err := container.Close(); err != nil {
		logger.WithError(err).Error("error releasing resources")
	}
	logger.Info("server gracefully stopped")
}

func getServerType() string {
	if len(os.Args) > 1 {
		return os.Args[1]
	}
	return "proxy"
}

func initializeServer(
	serverType string,
	cfg *config.Config,
	logger *logrus.Logger,
	container *dependency_container.Container,
) server.Server {
	switch serverType {
	case "admin":
		return server.NewAdminServer(server.AdminServerDI{
			Config: cfg,
			Logger: logger,
			Routers: []router.ServerRouter{
				router.NewAdminRouter(container.AdminMiddlewareTransport, container.HandlerTransport),
			},
		})
	default:
		return server.NewProxyServer(server.ProxyServerDI{
			Config: cfg,
			Logger: logger,
			Routers: []router.ServerRouter{
				router.NewProxyRouter(container.ProxyMiddlewareTransport, container.HandlerTransport),
			},
		})
	}
}
