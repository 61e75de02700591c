package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/samber/do/v2"
	log "github.com/sirupsen/logrus"

	"royalwager/application"
	"royalwager/config"
	"royalwager/database"
	"royalwager/domain/interfaces"
	"royalwager/domain/services"
	"royalwager/events"
	"royalwager/infrastructure"
	"royalwager/infrastructure/cache"
	"royalwager/infrastructure/clashroyale"
	"royalwager/infrastructure/observability"
	"royalwager/repository"
	"royalwager/server"
)

const connectTimeout = 30 * time.Second

// Infrastructure holds the optional external connections. Nil members are disabled by config.
type Infrastructure struct {
	NATS         *infrastructure.NATSClient
	Redis        *cache.Client
	SummaryCache interfaces.PlayerSummaryCache
	RateLimiter  interfaces.RateLimiter
	Notifier     *infrastructure.DiscordNotifier
}

// Close releases every connection that was opened
func (inf *Infrastructure) Close() {
	if inf.NATS != nil {
		if err := inf.NATS.Close(); err != nil {
			log.WithError(err).Warn("Error closing NATS connection")
		}
	}
	if inf.Redis != nil {
		if err := inf.Redis.Close(); err != nil {
			log.WithError(err).Warn("Error closing Redis connection")
		}
	}
}

func newDatabase(i do.Injector) (*database.DB, error) {
	cfg := do.MustInvoke[*config.Config](i)

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	log.Info("Connecting to database...")
	db, err := database.NewConnectionWithOptions(ctx, cfg.GetDatabaseURL(), database.PoolOptions{
		MaxConns:         int32(cfg.DatabaseMaxConns),
		StatementTimeout: cfg.RepositoryTimeout(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

func newMetrics(i do.Injector) (*observability.MetricsProvider, error) {
	cfg := do.MustInvoke[*config.Config](i)

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	metrics := observability.NewMetricsProvider(cfg)
	if err := metrics.Initialize(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize metrics: %w", err)
	}
	return metrics, nil
}

func newEventBus(i do.Injector) (*events.Bus, error) {
	return events.NewBus(), nil
}

func newInfrastructure(i do.Injector) (*Infrastructure, error) {
	cfg := do.MustInvoke[*config.Config](i)
	inf := &Infrastructure{}

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	if cfg.NATSServers != "" {
		client := infrastructure.NewNATSClient(cfg.NATSServers)
		if err := client.Connect(ctx); err != nil {
			return nil, fmt.Errorf("failed to connect to NATS: %w", err)
		}
		inf.NATS = client
	} else {
		log.Info("NATS_SERVERS not set, events stay in-process")
	}

	if cfg.RedisAddr != "" {
		client, err := cache.New(ctx, cache.ClientConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			inf.Close()
			return nil, fmt.Errorf("failed to connect to Redis: %w", err)
		}
		inf.Redis = client
		inf.SummaryCache = cache.NewPlayerSummaryCache(client)
		inf.RateLimiter = cache.NewRateLimiter(client)
	} else {
		log.Info("REDIS_ADDR not set, player cache and verify rate limiting disabled")
	}

	if cfg.DiscordToken != "" && cfg.DiscordChannelID != "" {
		session, err := infrastructure.NewDiscordSession(cfg.DiscordToken)
		if err != nil {
			inf.Close()
			return nil, fmt.Errorf("failed to create Discord session: %w", err)
		}
		inf.Notifier = infrastructure.NewDiscordNotifier(session, cfg.DiscordChannelID)
	}

	return inf, nil
}

// newEventPublisher sends events to JetStream when NATS is configured, else straight to the local bus
func newEventPublisher(i do.Injector) (interfaces.EventPublisher, error) {
	bus := do.MustInvoke[*events.Bus](i)
	inf := do.MustInvoke[*Infrastructure](i)
	metrics := do.MustInvoke[*observability.MetricsProvider](i)

	if inf.NATS == nil {
		return bus, nil
	}

	publisher := infrastructure.NewNATSEventPublisher(inf.NATS, infrastructure.NewEventSubjectMapper(), bus, metrics)
	if err := publisher.EnsureWagerEventStream(inf.NATS); err != nil {
		return nil, fmt.Errorf("failed to ensure wager event stream: %w", err)
	}
	return publisher, nil
}

func newUnitOfWorkFactory(i do.Injector) (interfaces.UnitOfWorkFactory, error) {
	db := do.MustInvoke[*database.DB](i)
	publisher := do.MustInvoke[interfaces.EventPublisher](i)

	return repository.NewUnitOfWorkFactory(db, func() interfaces.TransactionalEventPublisher {
		return events.NewTransactionalBus(publisher)
	}), nil
}

func newOracle(i do.Injector) (*clashroyale.Client, error) {
	cfg := do.MustInvoke[*config.Config](i)
	metrics := do.MustInvoke[*observability.MetricsProvider](i)

	if cfg.ClashRoyaleAPIToken == "" {
		log.Warn("CLASH_ROYALE_API_TOKEN not set, oracle requests will be unauthenticated")
	}
	return clashroyale.NewClient(cfg.ClashRoyaleAPIURL, cfg.ClashRoyaleAPIToken, cfg.OracleTimeout(), clashroyale.WithMetrics(metrics)), nil
}

func newSettlementCalculator(i do.Injector) (*services.SettlementService, error) {
	cfg := do.MustInvoke[*config.Config](i)

	feeRate, err := cfg.FeeRateDecimal()
	if err != nil {
		return nil, err
	}
	return services.NewSettlementService(feeRate)
}

func newWagerService(i do.Injector) (*application.WagerService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	inf := do.MustInvoke[*Infrastructure](i)

	verifier := services.NewMatchVerificationService(services.VerificationPolicy{
		ActivationBuffer: cfg.ActivationBuffer(),
		Timeout:          cfg.BestOfThreeTimeout(),
	})

	return application.NewWagerService(
		do.MustInvoke[interfaces.UnitOfWorkFactory](i),
		do.MustInvoke[*clashroyale.Client](i),
		inf.RateLimiter,
		verifier,
		do.MustInvoke[*observability.MetricsProvider](i),
		application.WagerServiceOptions{
			RepositoryTimeout:        cfg.RepositoryTimeout(),
			VerifyRateLimitPerMinute: cfg.VerifyRateLimitPerMinute,
		},
	), nil
}

func newProfileService(i do.Injector) (*application.ProfileService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	inf := do.MustInvoke[*Infrastructure](i)

	return application.NewProfileService(
		do.MustInvoke[interfaces.UnitOfWorkFactory](i),
		do.MustInvoke[*clashroyale.Client](i),
		inf.SummaryCache,
		application.ProfileServiceOptions{
			RepositoryTimeout: cfg.RepositoryTimeout(),
			VerifyTag:         cfg.ProfileVerifyTag,
			SummaryTTL:        cfg.PlayerCacheTTL(),
		},
	), nil
}

func newWebhookIngestor(i do.Injector) (*application.WebhookIngestor, error) {
	cfg := do.MustInvoke[*config.Config](i)

	return application.NewWebhookIngestor(
		do.MustInvoke[interfaces.UnitOfWorkFactory](i),
		do.MustInvoke[*observability.MetricsProvider](i),
		cfg.RepositoryTimeout(),
	), nil
}

func newSettlementCoordinator(i do.Injector) (*application.SettlementCoordinator, error) {
	cfg := do.MustInvoke[*config.Config](i)

	return application.NewSettlementCoordinator(
		do.MustInvoke[interfaces.UnitOfWorkFactory](i),
		do.MustInvoke[*services.SettlementService](i),
		cfg.RepositoryTimeout(),
	), nil
}

func newHub(i do.Injector) (*server.Hub, error) {
	hub := server.NewHub()
	hub.Subscribe(do.MustInvoke[*events.Bus](i))
	return hub, nil
}

func newEchoService(i do.Injector) (*server.EchoService, error) {
	cfg := do.MustInvoke[*config.Config](i)

	api := server.NewAPI(
		do.MustInvoke[*application.WagerService](i),
		do.MustInvoke[*application.SettlementCoordinator](i),
		do.MustInvoke[*application.ProfileService](i),
		do.MustInvoke[*application.WebhookIngestor](i),
		do.MustInvoke[*database.DB](i),
		do.MustInvoke[*server.Hub](i),
		server.APIConfig{
			WebhookAuthToken: cfg.WebhookAuthToken,
			AdminToken:       cfg.AdminToken,
		},
	)
	if cfg.WebhookAuthToken == "" {
		log.Warn("WEBHOOK_AUTH_TOKEN not set, deposit webhook accepts unauthenticated deliveries")
	}
	if cfg.AdminToken == "" {
		log.Warn("ADMIN_TOKEN not set, operator routes are disabled")
	}

	echoService := server.NewEchoService(cfg.HTTPAddr)
	echoService.Register(api.Register)
	return echoService, nil
}
