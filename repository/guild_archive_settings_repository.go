package repository

import (
	"context"
	"fmt"

	"linkkeeper/database"
	"linkkeeper/models"

	"github.com/jackc/pgx/v5"
)

// GuildArchiveSettingsRepository persists guild settings in PostgreSQL
type GuildArchiveSettingsRepository struct {
	db *database.DB
}

// NewGuildArchiveSettingsRepository creates a new guild archive settings repository
func NewGuildArchiveSettingsRepository(db *database.DB) *GuildArchiveSettingsRepository {
	return &GuildArchiveSettingsRepository{db: db}
}

// Name identifies the persister in logs
func (r *GuildArchiveSettingsRepository) Name() string {
	return "postgres:guild_archive_settings"
}

// Load reads the settings of every guild
func (r *GuildArchiveSettingsRepository) Load(ctx context.Context) (map[int64]models.GuildConfig, error) {
	query := `
		SELECT guild_id, archive_channel_id, archive_private
		FROM guild_archive_settings
	`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query guild archive settings: %w", err)
	}
	defer rows.Close()

	configs := make(map[int64]models.GuildConfig)
	for rows.Next() {
		var config models.GuildConfig
		if err := rows.Scan(
			&config.GuildID,
			&config.ArchiveChannelID,
			&config.ArchivePrivateChannels,
		); err != nil {
			return nil, fmt.Errorf("failed to scan guild archive settings: %w", err)
		}
		configs[config.GuildID] = config
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating guild archive settings: %w", err)
	}

	return configs, nil
}

// Save replaces the stored settings with the given mapping in one transaction
func (r *GuildArchiveSettingsRepository) Save(ctx context.Context, configs map[int64]models.GuildConfig) error {
	upsertQuery := `
		INSERT INTO guild_archive_settings (guild_id, archive_channel_id, archive_private, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (guild_id) DO UPDATE
		SET archive_channel_id = EXCLUDED.archive_channel_id,
		    archive_private = EXCLUDED.archive_private,
		    updated_at = NOW()
	`
	deleteQuery := `
		DELETE FROM guild_archive_settings
		WHERE NOT (guild_id = ANY($1))
	`

	guildIDs := make([]int64, 0, len(configs))
	batch := &pgx.Batch{}
	for guildID, config := range configs {
		if config.IsDefault() {
			continue
		}
		guildIDs = append(guildIDs, guildID)
		batch.Queue(upsertQuery, guildID, config.ArchiveChannelID, config.ArchivePrivateChannels)
	}

	return r.db.WithTransaction(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, deleteQuery, guildIDs); err != nil {
			return fmt.Errorf("failed to prune guild archive settings: %w", err)
		}

		if batch.Len() == 0 {
			return nil
		}

		results := tx.SendBatch(ctx, batch)
		for i := 0; i < batch.Len(); i++ {
			if _, err := results.Exec(); err != nil {
				results.Close()
				return fmt.Errorf("failed to upsert guild archive settings: %w", err)
			}
		}
		if err := results.Close(); err != nil {
			return fmt.Errorf("failed to close settings batch: %w", err)
		}
		return nil
	})
}
