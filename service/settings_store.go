package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"linkkeeper/events"
	"linkkeeper/models"

	log "github.com/sirupsen/logrus"
)

// ErrPersistFailed is returned by mutators when the in-memory update
// succeeded but could not be written to the backing store.
var ErrPersistFailed = errors.New("failed to persist guild settings")

// SettingsStore owns the mapping from guild ID to archive configuration.
// Readers take a read lock; mutations hold the write lock through the
// persist so that the backing store sees writes in the same order as memory.
type SettingsStore struct {
	mu        sync.RWMutex
	configs   map[int64]models.GuildConfig
	seeded    map[int64]models.GuildConfig // Config each seeded guild had before the legacy default
	persister SettingsPersister
	emitter   EventEmitter
}

// NewSettingsStore creates a store backed by persister. emitter may be nil.
func NewSettingsStore(persister SettingsPersister, emitter EventEmitter) *SettingsStore {
	return &SettingsStore{
		configs:   make(map[int64]models.GuildConfig),
		seeded:    make(map[int64]models.GuildConfig),
		persister: persister,
		emitter:   emitter,
	}
}

// Load replaces the in-memory mapping with the persisted one and returns a
// copy of it. Load failures are never fatal: the store falls back to an
// empty mapping and logs a warning.
func (s *SettingsStore) Load(ctx context.Context) map[int64]models.GuildConfig {
	loaded, err := s.persister.Load(ctx)
	if err != nil {
		log.WithFields(log.Fields{
			"backend": s.persister.Name(),
			"error":   err,
		}).Warn("Failed to load guild settings, starting with empty settings")
		loaded = nil
	}

	configs := make(map[int64]models.GuildConfig, len(loaded))
	for guildID, config := range loaded {
		config.GuildID = guildID
		if config.IsDefault() {
			continue
		}
		configs[guildID] = config.Clone()
	}

	s.mu.Lock()
	s.configs = configs
	s.seeded = make(map[int64]models.GuildConfig)
	s.mu.Unlock()

	log.WithFields(log.Fields{
		"backend": s.persister.Name(),
		"guilds":  len(configs),
	}).Info("Loaded guild settings")

	return s.Snapshot()
}

// Get returns the config for a guild, or the defaults when it has no entry
func (s *SettingsStore) Get(guildID int64) models.GuildConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if config, ok := s.configs[guildID]; ok {
		return config.Clone()
	}
	return models.DefaultGuildConfig(guildID)
}

// Snapshot returns a copy of the whole mapping
func (s *SettingsStore) Snapshot() map[int64]models.GuildConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[int64]models.GuildConfig, len(s.configs))
	for guildID, config := range s.configs {
		out[guildID] = config.Clone()
	}
	return out
}

// SetArchiveChannel sets the archive channel for a guild. A nil channelID
// disables archiving for the guild.
func (s *SettingsStore) SetArchiveChannel(ctx context.Context, guildID int64, channelID *int64) (models.GuildConfig, error) {
	return s.update(ctx, guildID, func(config *models.GuildConfig) {
		config.SetArchiveChannel(channelID)
	})
}

// SetPrivacyPolicy sets whether content from restricted channels is archived
func (s *SettingsStore) SetPrivacyPolicy(ctx context.Context, guildID int64, archivePrivate bool) (models.GuildConfig, error) {
	return s.update(ctx, guildID, func(config *models.GuildConfig) {
		config.ArchivePrivateChannels = archivePrivate
	})
}

// SeedLegacyDefault installs channelID as the archive channel of guildID in
// memory only, and only if the guild has no archive channel of its own.
// It reports whether the seed was applied.
func (s *SettingsStore) SeedLegacyDefault(guildID, channelID int64) bool {
	if guildID <= 0 || channelID <= 0 {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	config, ok := s.configs[guildID]
	if !ok {
		config = models.DefaultGuildConfig(guildID)
	}
	if config.HasArchiveChannel() {
		return false
	}

	base := config.Clone()
	config.SetArchiveChannel(&channelID)
	s.configs[guildID] = config
	s.seeded[guildID] = base
	return true
}

// update applies mutate to the guild's config and persists the whole
// mapping. On persist failure the in-memory change is kept. Seeded guilds
// are persisted as they were before the seed until they are configured.
func (s *SettingsStore) update(ctx context.Context, guildID int64, mutate func(*models.GuildConfig)) (models.GuildConfig, error) {
	s.mu.Lock()

	config, ok := s.configs[guildID]
	if !ok {
		config = models.DefaultGuildConfig(guildID)
	}
	mutate(&config)
	config.GuildID = guildID
	delete(s.seeded, guildID)
	if config.IsDefault() {
		delete(s.configs, guildID)
	} else {
		s.configs[guildID] = config
	}

	snapshot := make(map[int64]models.GuildConfig, len(s.configs))
	for id, c := range s.configs {
		if base, ok := s.seeded[id]; ok {
			c = base
		}
		if c.IsDefault() {
			continue
		}
		snapshot[id] = c.Clone()
	}

	persistErr := s.persister.Save(ctx, snapshot)
	s.mu.Unlock()

	result := config.Clone()
	s.emit(ctx, result, persistErr == nil)

	if persistErr != nil {
		log.WithFields(log.Fields{
			"guild_id": guildID,
			"backend":  s.persister.Name(),
			"error":    persistErr,
		}).Error("Failed to persist guild settings, keeping in-memory change")
		return result, fmt.Errorf("%w for guild %d: %v", ErrPersistFailed, guildID, persistErr)
	}

	log.WithFields(log.Fields{
		"guild_id":           guildID,
		"archive_channel_id": result.ArchiveChannel(),
		"archive_private":    result.ArchivePrivateChannels,
	}).Info("Updated guild settings")

	return result, nil
}

func (s *SettingsStore) emit(ctx context.Context, config models.GuildConfig, persisted bool) {
	if s.emitter == nil {
		return
	}
	s.emitter.Emit(ctx, events.GuildSettingsChangedEvent{
		GuildID:                config.GuildID,
		ArchiveChannelID:       config.ArchiveChannelID,
		ArchivePrivateChannels: config.ArchivePrivateChannels,
		Persisted:              persisted,
	})
}
