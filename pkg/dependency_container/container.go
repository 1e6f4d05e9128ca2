package dependency_container

import (
	"fmt"

	"github.com/NeuralTrust/BotGate/pkg/config"
	"github.com/NeuralTrust/BotGate/pkg/detection"
	"github.com/NeuralTrust/BotGate/pkg/domain/audit"
	handlers "github.com/NeuralTrust/BotGate/pkg/handlers/http"
	"github.com/NeuralTrust/BotGate/pkg/infra/auditlogs"
	"github.com/NeuralTrust/BotGate/pkg/infra/breaker"
	"github.com/NeuralTrust/BotGate/pkg/infra/cache"
	"github.com/NeuralTrust/BotGate/pkg/infra/cache/channel"
	"github.com/NeuralTrust/BotGate/pkg/infra/cache/event"
	"github.com/NeuralTrust/BotGate/pkg/infra/cache/subscriber"
	"github.com/NeuralTrust/BotGate/pkg/infra/database"
	"github.com/NeuralTrust/BotGate/pkg/infra/fingerprint"
	"github.com/NeuralTrust/BotGate/pkg/infra/httpx"
	"github.com/NeuralTrust/BotGate/pkg/infra/jwt"
	"github.com/NeuralTrust/BotGate/pkg/infra/prometheus"
	"github.com/NeuralTrust/BotGate/pkg/infra/repository"
	"github.com/NeuralTrust/BotGate/pkg/middleware"
	"github.com/sirupsen/logrus"

	// registers the decision log migrations
	_ "github.com/NeuralTrust/BotGate/pkg/infra/migrations"
)

type Container struct {
	Cache            cache.Client
	DB               *database.DB
	Policies         *config.PolicyStore
	Behavior         *detection.BehaviorAnalyzer
	Classifier       *detection.Classifier
	Resolver         fingerprint.Resolver
	DecisionStats    *cache.DecisionStats
	DecisionRepo     audit.Repository
	RedisListener    cache.EventListener
	RedisPublisher   cache.EventPublisher
	AuditLogsService auditlogs.Service
	JWTManager       jwt.Manager
	Forwarder        httpx.Forwarder

	HandlerTransport         *handlers.HandlerTransport
	AdminMiddlewareTransport *middleware.Transport
	ProxyMiddlewareTransport *middleware.Transport

	janitorDone chan struct{}
}

type ContainerDI struct {
	Cfg           *config.Config
	Logger        *logrus.Logger
	EventsChannel channel.Channel
}

func NewContainer(di ContainerDI) (*Container, error) {
	c := &Container{janitorDone: make(chan struct{})}

	// policy
	policies, err := config.NewPolicyStore(di.Logger, di.Cfg.Policy)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize policy store: %w", err)
	}
	config.WatchPolicy(policies)
	c.Policies = policies

	// detection
	windows := cache.NewTTLMap[*detection.TimingWindow](di.Cfg.Detection.TimingWindowTTL, di.Cfg.Detection.MaxWindows)
	windows.StartJanitor(di.Cfg.Detection.SweepInterval, c.janitorDone, func(removed, size int) {
		prometheus.TimingWindows.Set(float64(size))
		if removed > 0 {
			di.Logger.WithFields(logrus.Fields{
				"removed": removed,
				"size":    size,
			}).Debug("expired timing windows swept")
		}
	})
	c.Behavior = detection.NewBehaviorAnalyzer(windows)
	c.Classifier = detection.NewClassifier(di.Logger, c.Behavior)
	c.Resolver = fingerprint.NewResolver(di.Cfg.Detection.TrustedIPHeaders...)

	// redis: decision stats and cross-process events
	if di.Cfg.Redis.Host != "" {
		cacheInstance, err := cache.NewClient(cache.Config{
			Host:     di.Cfg.Redis.Host,
			Port:     di.Cfg.Redis.Port,
			Password: di.Cfg.Redis.Password,
			DB:       di.Cfg.Redis.DB,
			TLS:      di.Cfg.Redis.TLS,
		}, di.Logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize cache: %v", err)
		}
		c.Cache = cacheInstance
		c.DecisionStats = cache.NewDecisionStats(cacheInstance)
		c.RedisPublisher = cache.NewRedisEventPublisher(cacheInstance, di.EventsChannel)
		c.RedisListener = cache.NewRedisEventListener(di.Logger, cacheInstance)

		cache.RegisterEventSubscriber[event.ResetBehaviorEvent](
			c.RedisListener,
			subscriber.NewResetBehaviorEventSubscriber(di.Logger, c.Behavior),
		)
		cache.RegisterEventSubscriber[event.UpdatePolicyEvent](
			c.RedisListener,
			subscriber.NewUpdatePolicyEventSubscriber(di.Logger, policies),
		)
	} else {
		di.Logger.Warn("redis is not configured: decision stats and cross-process events are disabled")
	}

	// postgres decision log
	if di.Cfg.Audit.Postgres.Enabled {
		db, err := database.NewDB(di.Logger, &database.Config{
			Host:     di.Cfg.Database.Host,
			Port:     di.Cfg.Database.Port,
			User:     di.Cfg.Database.User,
			Password: di.Cfg.Database.Password,
			DBName:   di.Cfg.Database.DBName,
			SSLMode:  di.Cfg.Database.SSLMode,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		c.DB = db
		c.DecisionRepo = repository.NewDecisionRepository(db.DB)
	}

	// audit sinks
	sinks, err := buildSinks(di, c)
	if err != nil {
		return nil, err
	}
	if di.Cfg.Audit.Enabled && len(sinks) > 0 {
		c.AuditLogsService = auditlogs.NewService(di.Logger, sinks, auditlogs.Options{
			QueueSize:    di.Cfg.Audit.QueueSize,
			Workers:      di.Cfg.Audit.Workers,
			WriteTimeout: di.Cfg.Audit.WriteTimeout,
			Breaker: breaker.Settings{
				MaxRequests:      di.Cfg.Audit.Breaker.MaxRequests,
				Interval:         di.Cfg.Audit.Breaker.Interval,
				Timeout:          di.Cfg.Audit.Breaker.Timeout,
				FailureThreshold: di.Cfg.Audit.Breaker.FailureThreshold,
			},
		})
	}

	c.JWTManager = jwt.NewJwtManager(di.Cfg.Server.SecretKey)

	// upstream
	if di.Cfg.Upstream.URL != "" {
		forwarder, err := httpx.NewForwarder(di.Cfg.Upstream.URL,
			httpx.WithTimeout(di.Cfg.Upstream.Timeout),
			httpx.WithMaxConnsPerHost(di.Cfg.Upstream.MaxConns),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize upstream forwarder: %w", err)
		}
		c.Forwarder = forwarder
	} else {
		di.Logger.Warn("upstream.url is not set: allowed proxy requests will answer 503")
	}

	c.ProxyMiddlewareTransport = middleware.NewTransport(
		middleware.NewPanicRecoverMiddleware(di.Logger),
		middleware.NewIdentityMiddleware(di.Logger, c.Resolver),
		middleware.NewMetricsMiddleware(di.Logger),
		middleware.NewBotGuardMiddleware(middleware.BotGuardDeps{
			Logger:     di.Logger,
			Classifier: c.Classifier,
			Policies:   policies,
			Resolver:   c.Resolver,
			Audit:      c.AuditLogsService,
		}),
	)
	c.AdminMiddlewareTransport = middleware.NewTransport(
		middleware.NewPanicRecoverMiddleware(di.Logger),
		middleware.NewAdminAuthMiddleware(di.Logger, c.JWTManager),
	)

	c.HandlerTransport = &handlers.HandlerTransport{
		ForwardedHandler: handlers.NewForwardedHandler(di.Logger, c.Forwarder),

		GetPolicyHandler:    handlers.NewGetPolicyHandler(di.Logger, policies),
		UpdatePolicyHandler: handlers.NewUpdatePolicyHandler(di.Logger, policies, c.RedisPublisher),
		ClassifyHandler:     handlers.NewClassifyHandler(di.Logger, c.Classifier, policies),

		GetStatsHandler:        handlers.NewGetStatsHandler(di.Logger, c.DecisionStats),
		ListDecisionsHandler:   handlers.NewListDecisionsHandler(di.Logger, c.DecisionRepo),
		RecentDecisionsHandler: handlers.NewRecentDecisionsHandler(di.Logger, c.DecisionStats),

		InvalidateCacheHandler: handlers.NewInvalidateCacheHandler(di.Logger, c.Behavior, c.DecisionStats, c.RedisPublisher),
		GetVersionHandler:      handlers.NewGetVersionHandler(di.Logger),
	}

	return c, nil
}

func buildSinks(di ContainerDI, c *Container) ([]audit.Sink, error) {
	var sinks []audit.Sink
	if di.Cfg.Audit.Log.Enabled {
		sinks = append(sinks, auditlogs.NewLogSink(di.Logger))
	}
	if di.Cfg.Audit.Redis.Enabled {
		if c.DecisionStats == nil {
			di.Logger.Warn("audit.redis is enabled but redis is not configured, skipping sink")
		} else {
			sinks = append(sinks, auditlogs.NewRedisSink(c.DecisionStats, di.Cfg.Audit.Redis.RecentLimit, di.Cfg.Audit.Redis.CounterTTL))
		}
	}
	if c.DecisionRepo != nil {
		sinks = append(sinks, auditlogs.NewPostgresSink(c.DecisionRepo))
	}
	if di.Cfg.Audit.Kafka.Enabled {
		kafkaSink, err := auditlogs.NewKafkaSink(auditlogs.KafkaConfig{
			Host:  di.Cfg.Audit.Kafka.Host,
			Port:  di.Cfg.Audit.Kafka.Port,
			Topic: di.Cfg.Audit.Kafka.Topic,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize kafka audit sink: %w", err)
		}
		sinks = append(sinks, kafkaSink)
	}
	return sinks, nil
}

// Close stops background work and flushes the audit pipeline before the
// connections it writes to are released.
func (c *Container) Close() error {
	close(c.janitorDone)
	var firstErr error
	if c.AuditLogsService != nil {
		if err := c.AuditLogsService.Close(); err != nil {
			firstErr = err
		}
	}
	if c.DB != nil {
		if err := c.DB.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if c.Cache != nil {
		if err := c.Cache.RedisClient().Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
