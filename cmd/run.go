package cmd

import (
	"context"
	"fmt"
	"time"

	"linkkeeper/bot"
	"linkkeeper/config"
	"linkkeeper/database"
	"linkkeeper/events"
	"linkkeeper/infrastructure"
	"linkkeeper/infrastructure/observability"
	"linkkeeper/repository"
	"linkkeeper/service"

	log "github.com/sirupsen/logrus"
)

const shutdownTimeout = 10 * time.Second

// eventForwarder mirrors bus events to an external transport
type eventForwarder interface {
	Forward(bus *events.Bus)
}

// Run initializes and starts the application
func Run(ctx context.Context) error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logCloser, err := setupLogging(cfg)
	if err != nil {
		return err
	}
	defer logCloser.Close()

	log.Info("Starting linkkeeper bot...")

	if err := observability.InitializeGlobalMetrics(ctx, cfg); err != nil {
		return fmt.Errorf("failed to initialize metrics: %w", err)
	}

	// Settings storage
	persister, closePersister, err := openSettingsPersister(ctx, cfg)
	if err != nil {
		return err
	}
	defer closePersister()

	// Initialize event bus
	eventBus := events.NewBus()
	infrastructure.RegisterMetricsHandlers(eventBus)

	forwarder, closeForwarder := openEventForwarder(ctx, cfg)
	defer closeForwarder()
	forwarder.Forward(eventBus)

	// Initialize settings
	store := service.NewSettingsStore(persister, eventBus)
	store.Load(ctx)

	legacyChannelID, _ := cfg.LegacyArchiveChannelID()
	legacyGuildID, _ := cfg.LegacyGuildID()

	// Initialize Discord bot
	log.Info("Initializing Discord bot...")
	discordBot, err := bot.New(bot.Config{
		Token:                  cfg.DiscordToken,
		LegacyGuildID:          legacyGuildID,
		LegacyArchiveChannelID: legacyChannelID,
		MaxConcurrentMessages:  cfg.MaxConcurrentMessages,
		HealthPort:             cfg.HealthPort,
		DebugPort:              cfg.DebugPort,
	}, store, eventBus)
	if err != nil {
		return fmt.Errorf("failed to initialize Discord bot: %w", err)
	}

	// Wait for context cancellation
	log.Infof("Bot is running in %s mode...", cfg.Environment)
	<-ctx.Done()

	// Cleanup resources
	log.Info("Shutting down bot...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := discordBot.Close(shutdownCtx); err != nil {
		log.WithError(err).Error("Error closing Discord bot")
	}

	// Let async subscribers finish before the forwarder and metrics go away
	eventBus.Wait()

	if err := observability.ShutdownGlobalMetrics(shutdownCtx); err != nil {
		log.WithError(err).Warn("Failed to flush metrics")
	}

	log.Info("Shutdown completed")
	return nil
}

// openSettingsPersister returns the configured settings backend and a
// function that releases it
func openSettingsPersister(ctx context.Context, cfg *config.Config) (service.SettingsPersister, func(), error) {
	switch cfg.SettingsBackend {
	case config.SettingsBackendPostgres:
		databaseURL := cfg.GetDatabaseURL()

		log.Info("Running database migrations...")
		if err := database.RunMigrationsWithURL(databaseURL); err != nil {
			return nil, nil, fmt.Errorf("failed to run migrations: %w", err)
		}

		log.Info("Connecting to database...")
		db, err := database.NewConnection(ctx, databaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		return repository.NewGuildArchiveSettingsRepository(db), db.Close, nil

	default:
		file := repository.NewJSONSettingsFile(cfg.SettingsPath)
		log.WithField("path", file.Path()).Info("Using settings file")
		return file, func() {}, nil
	}
}

// openEventForwarder connects to NATS when configured. Forwarding is
// best-effort: a connection failure falls back to the no-op forwarder.
func openEventForwarder(ctx context.Context, cfg *config.Config) (eventForwarder, func()) {
	if cfg.NATSServers == "" {
		log.Info("NATS_SERVERS not set, archive events stay in-process")
		return infrastructure.NewNoopEventPublisher(), func() {}
	}

	client := infrastructure.NewNATSClient(cfg.NATSServers)
	if err := client.Connect(ctx); err != nil {
		log.WithError(err).Warn("Failed to connect to NATS, archive events stay in-process")
		return infrastructure.NewNoopEventPublisher(), func() {}
	}

	publisher := infrastructure.NewNATSEventPublisher(client, infrastructure.NewEventSubjectMapper())
	if err := publisher.EnsureArchiveEventStream(client); err != nil {
		log.WithError(err).Warn("Failed to ensure archive event stream")
	}

	return publisher, func() {
		if err := client.Close(); err != nil {
			log.WithError(err).Warn("Failed to close NATS connection")
		}
	}
}
