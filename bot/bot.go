package bot

import (
	"context"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"linkkeeper/bot/common"
	"linkkeeper/bot/features/settings"
	"linkkeeper/infrastructure/observability"
	"linkkeeper/service"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

// Config holds bot configuration
type Config struct {
	Token                  string
	LegacyGuildID          int64 // Optional guild of LegacyArchiveChannelID
	LegacyArchiveChannelID int64 // Default archive channel for single-guild deployments
	MaxConcurrentMessages  int64
	HealthPort             int
	DebugPort              int
}

// Bot connects the archive pipeline to Discord
type Bot struct {
	// Core components
	config  Config
	session *discordgo.Session
	gateway *Gateway
	store   *service.SettingsStore
	emitter service.EventEmitter

	// Feature modules
	settings *settings.Feature

	// Set once the gateway reports READY and the bot's own user is known
	workers atomic.Pointer[MessageWorkers]

	healthServer *http.Server
	debugServer  *http.Server
}

// New creates the bot, connects to Discord and registers its commands
func New(config Config, store *service.SettingsStore, emitter service.EventEmitter) (*Bot, error) {
	dg, err := discordgo.New("Bot " + config.Token)
	if err != nil {
		return nil, fmt.Errorf("error creating discord session: %w", err)
	}
	dg.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildMessages | discordgo.IntentMessageContent

	bot := &Bot{
		config:   config,
		session:  dg,
		gateway:  NewGateway(dg),
		store:    store,
		emitter:  emitter,
		settings: settings.NewFeature(store),
	}

	// Register handlers
	dg.AddHandler(bot.handleReady)
	dg.AddHandler(bot.handleCommands)
	dg.AddHandler(bot.handleMessageCreate)

	if err := dg.Open(); err != nil {
		return nil, fmt.Errorf("error opening connection: %w", err)
	}

	if err := bot.registerCommands(); err != nil {
		dg.Close()
		return nil, fmt.Errorf("error registering commands: %w", err)
	}

	if bot.healthServer, err = bot.StartHealthAPI(config.HealthPort); err != nil {
		log.Warnf("Failed to start health API on port %d: %v", config.HealthPort, err)
	}
	if bot.debugServer, err = bot.StartDebugAPI(config.DebugPort); err != nil {
		log.Warnf("Failed to start debug API on port %d: %v", config.DebugPort, err)
	}

	return bot, nil
}

// Close stops accepting messages, waits for in-flight archives and
// disconnects from Discord
func (b *Bot) Close(ctx context.Context) error {
	if workers := b.workers.Load(); workers != nil {
		if err := workers.Stop(ctx); err != nil {
			log.WithError(err).Warn("Message workers did not drain before shutdown")
		} else {
			log.Info("Message workers drained")
		}
	}

	for _, server := range []*http.Server{b.healthServer, b.debugServer} {
		if server == nil {
			continue
		}
		if err := server.Shutdown(ctx); err != nil {
			log.WithError(err).WithField("addr", server.Addr).Warn("Failed to shut down HTTP API")
		}
	}

	return b.session.Close()
}

// handleReady starts message processing once the bot knows its own user
func (b *Bot) handleReady(s *discordgo.Session, r *discordgo.Ready) {
	botUserID, err := common.ParseSnowflake(r.User.ID)
	if err != nil {
		log.WithError(err).Error("Failed to parse bot user ID, messages will not be archived")
		return
	}

	pipeline := service.NewPipeline(
		botUserID,
		b.store,
		service.NewPrivacyGate(b.gateway),
		service.NewDispatcher(b.gateway),
		b.emitter,
	)
	if b.workers.CompareAndSwap(nil, NewMessageWorkers(pipeline, b.config.MaxConcurrentMessages)) {
		log.WithFields(log.Fields{
			"bot":         r.User.Username,
			"guilds":      len(r.Guilds),
			"concurrency": b.config.MaxConcurrentMessages,
		}).Info("Monitoring messages for URLs and files")
	}

	b.seedLegacyArchiveChannel()

	if err := s.UpdateGameStatus(0, common.PresenceText); err != nil {
		log.WithError(err).Warn("Failed to set presence")
	}
}

// seedLegacyArchiveChannel installs the configured default archive channel
// for its guild unless the guild already has one
func (b *Bot) seedLegacyArchiveChannel() {
	channelID := b.config.LegacyArchiveChannelID
	if channelID == 0 {
		return
	}

	guildID := b.config.LegacyGuildID
	if guildID == 0 {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		ch, err := b.gateway.channel(ctx, common.FormatSnowflake(channelID))
		if err != nil {
			log.WithFields(log.Fields{
				"archive_channel_id": channelID,
				"error":              err,
			}).Error("Failed to resolve guild of default archive channel")
			return
		}
		if guildID, err = common.ParseSnowflake(ch.GuildID); err != nil {
			log.WithField("archive_channel_id", channelID).Error("Default archive channel is not in a guild")
			return
		}
	}

	if b.store.SeedLegacyDefault(guildID, channelID) {
		log.WithFields(log.Fields{
			"guild_id":           guildID,
			"archive_channel_id": channelID,
		}).Info("Loaded default archive channel")
	}
}

// handleMessageCreate converts a gateway message and hands it to the workers
func (b *Bot) handleMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil {
		return
	}

	// Skip if message is not from a guild
	if m.GuildID == "" {
		log.Debugf("Skipping message %s - not from a guild (possibly a DM)", m.ID)
		return
	}

	workers := b.workers.Load()
	if workers == nil {
		log.WithField("message_id", m.ID).Debug("Skipping message received before READY")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	channel, err := b.gateway.channel(ctx, m.ChannelID)
	cancel()
	if err != nil {
		log.WithFields(log.Fields{
			"guild_id":   m.GuildID,
			"channel_id": m.ChannelID,
			"error":      err,
		}).Debug("Channel not resolved, using ID as its name")
	}

	msg, err := toInboundMessage(m.Message, channel)
	if err != nil {
		log.WithFields(log.Fields{
			"guild_id":   m.GuildID,
			"channel_id": m.ChannelID,
			"message_id": m.ID,
			"error":      err,
		}).Warn("Dropping malformed message event")
		observability.GetMetrics().RecordMessageProcessed(string(service.StateExcluded), service.ReasonInvalid)
		return
	}

	if !workers.Submit(msg) {
		log.WithField("message_id", m.ID).Debug("Skipping message received during shutdown")
	}
}
