package cmd

import (
	"context"
	"fmt"

	"stakearena/api"
	"stakearena/application"
	"stakearena/config"
	"stakearena/database"
	"stakearena/domain/interfaces"
	"stakearena/infrastructure"

	log "github.com/sirupsen/logrus"
)

// Run initializes and starts the application
func Run(ctx context.Context) error {
	cfg := config.Get()

	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = log.InfoLevel
	}
	log.SetLevel(level)
	log.WithField("environment", cfg.Environment).Info("Starting stakearena")

	db, err := database.NewConnection(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()
	log.Info("Database connection established")

	eventPublisher, closeNATS, err := buildEventPublisher(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeNATS()

	uowFactory := infrastructure.NewUnitOfWorkFactory(db, eventPublisher)

	worker := application.NewResolutionWorker(uowFactory)
	stopWorker := worker.Start(ctx)
	defer stopWorker()

	server := api.NewServer(uowFactory)
	if err := server.Start(ctx); err != nil {
		return fmt.Errorf("http server error: %w", err)
	}

	log.Info("Shutdown completed")
	return nil
}

// buildEventPublisher connects to NATS when servers are configured; without
// them events are dropped and the engine runs standalone
func buildEventPublisher(ctx context.Context, cfg *config.Config) (interfaces.EventPublisher, func(), error) {
	if cfg.NATSServers == "" {
		log.Info("NATS not configured, events disabled")
		return infrastructure.NewNoopEventPublisher(), func() {}, nil
	}

	natsClient := infrastructure.NewNATSClient(cfg.NATSServers)
	if err := natsClient.Connect(ctx); err != nil {
		return nil, nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	publisher := infrastructure.NewNATSEventPublisher(natsClient, infrastructure.NewEventSubjectMapper())
	if err := publisher.EnsureDomainEventStream(); err != nil {
		natsClient.Close()
		return nil, nil, fmt.Errorf("failed to ensure event stream: %w", err)
	}

	listener := infrastructure.NewSettlementListener(natsClient)
	if err := listener.Start(); err != nil {
		natsClient.Close()
		return nil, nil, fmt.Errorf("failed to start settlement listener: %w", err)
	}

	return publisher, func() { natsClient.Close() }, nil
}
