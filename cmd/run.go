package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/samber/do/v2"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"royalwager/config"
	"royalwager/database"
	"royalwager/events"
	"royalwager/infrastructure"
	"royalwager/infrastructure/observability"
	"royalwager/server"
)

const shutdownTimeout = 10 * time.Second

func newInjector(cfg *config.Config) do.Injector {
	i := do.New()

	do.ProvideValue(i, cfg)

	do.Provide(i, newDatabase)
	do.Provide(i, newMetrics)
	do.Provide(i, newEventBus)
	do.Provide(i, newInfrastructure)
	do.Provide(i, newEventPublisher)
	do.Provide(i, newUnitOfWorkFactory)
	do.Provide(i, newOracle)
	do.Provide(i, newSettlementCalculator)

	do.Provide(i, newWagerService)
	do.Provide(i, newProfileService)
	do.Provide(i, newWebhookIngestor)
	do.Provide(i, newSettlementCoordinator)

	do.Provide(i, newHub)
	do.Provide(i, newEchoService)

	return i
}

// Run starts the API and blocks until ctx is cancelled or a component fails
func Run(ctx context.Context, cfg *config.Config) error {
	log.WithField("environment", cfg.Environment).Info("Starting royalwager...")

	i := newInjector(cfg)

	db, err := do.Invoke[*database.DB](i)
	if err != nil {
		return err
	}
	defer func() {
		log.Info("Closing database connection...")
		db.Close()
	}()

	metrics, err := do.Invoke[*observability.MetricsProvider](i)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := metrics.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Warn("Error shutting down metrics provider")
		}
	}()

	inf, err := do.Invoke[*Infrastructure](i)
	if err != nil {
		return err
	}
	defer inf.Close()

	bus := do.MustInvoke[*events.Bus](i)
	infrastructure.NewMetricsEventHandler(metrics).Subscribe(bus)
	if inf.Notifier != nil {
		inf.Notifier.Subscribe(bus)
		log.WithField("channelId", cfg.DiscordChannelID).Info("Discord result notifications enabled")
	}

	hub, err := do.Invoke[*server.Hub](i)
	if err != nil {
		return err
	}
	echoService, err := do.Invoke[*server.EchoService](i)
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return hub.Run(ctx)
	})

	g.Go(func() error {
		log.WithField("addr", cfg.HTTPAddr).Info("HTTP API listening")
		return echoService.Start()
	})

	g.Go(func() error {
		<-ctx.Done()
		log.Info("Shutting down HTTP API...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return echoService.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return fmt.Errorf("service stopped: %w", err)
	}

	log.Info("Shutdown completed")
	return nil
}
