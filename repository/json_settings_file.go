package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"linkkeeper/models"

	log "github.com/sirupsen/logrus"
)

// ErrMalformedSettings is returned when the settings file cannot be parsed
var ErrMalformedSettings = errors.New("malformed guild settings file")

// settingsFileEntry is the on-disk shape of one guild's settings.
// Unknown fields are ignored on load.
type settingsFileEntry struct {
	ArchiveChannelID *int64 `json:"archive_channel_id,omitempty"`
	ArchivePrivate   bool   `json:"archive_private,omitempty"`
}

// JSONSettingsFile persists guild settings as a single JSON object keyed by
// decimal guild ID.
type JSONSettingsFile struct {
	path string
	now  func() time.Time
}

// NewJSONSettingsFile creates a settings persister backed by the file at path
func NewJSONSettingsFile(path string) *JSONSettingsFile {
	return &JSONSettingsFile{
		path: path,
		now:  time.Now,
	}
}

// Name identifies the persister in logs
func (f *JSONSettingsFile) Name() string {
	return "file:" + f.path
}

// Path returns the settings file location
func (f *JSONSettingsFile) Path() string {
	return f.path
}

// Load reads every guild's settings. A missing or empty file yields an empty
// mapping. A malformed file is moved aside so that the next save cannot
// overwrite it, and ErrMalformedSettings is returned.
func (f *JSONSettingsFile) Load(ctx context.Context) (map[int64]models.GuildConfig, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	configs := make(map[int64]models.GuildConfig)

	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return configs, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read settings file %s: %w", f.path, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return configs, nil
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil || raw == nil {
		if err == nil {
			err = errors.New("top-level value is not an object")
		}
		f.quarantine()
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformedSettings, f.path, err)
	}

	for key, value := range raw {
		guildID, err := strconv.ParseInt(key, 10, 64)
		if err != nil || guildID <= 0 {
			log.WithFields(log.Fields{
				"file": f.path,
				"key":  key,
			}).Warn("Skipping guild settings entry with non-numeric guild id")
			continue
		}

		var entry settingsFileEntry
		if err := json.Unmarshal(value, &entry); err != nil {
			log.WithFields(log.Fields{
				"file":     f.path,
				"guild_id": guildID,
				"error":    err,
			}).Warn("Skipping unreadable guild settings entry")
			continue
		}

		config := models.DefaultGuildConfig(guildID)
		config.SetArchiveChannel(entry.ArchiveChannelID)
		config.ArchivePrivateChannels = entry.ArchivePrivate
		configs[guildID] = config
	}

	return configs, nil
}

// Save replaces the file with the given mapping. The write goes to a
// temporary file in the same directory which is then renamed over the
// original, so readers never observe a partial file.
func (f *JSONSettingsFile) Save(ctx context.Context, configs map[int64]models.GuildConfig) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	out := make(map[string]settingsFileEntry, len(configs))
	for guildID, config := range configs {
		if config.IsDefault() {
			continue
		}
		out[strconv.FormatInt(guildID, 10)] = settingsFileEntry{
			ArchiveChannelID: config.ArchiveChannelID,
			ArchivePrivate:   config.ArchivePrivateChannels,
		}
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode guild settings: %w", err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create settings directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(f.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp settings file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write temp settings file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to sync temp settings file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close temp settings file: %w", err)
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to set settings file permissions: %w", err)
	}

	if err := os.Rename(tmpPath, f.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to replace settings file %s: %w", f.path, err)
	}

	return nil
}

// quarantine moves an unparseable settings file out of the way
func (f *JSONSettingsFile) quarantine() {
	target := fmt.Sprintf("%s.corrupt-%d", f.path, f.now().Unix())
	if err := os.Rename(f.path, target); err != nil {
		log.WithFields(log.Fields{
			"file":  f.path,
			"error": err,
		}).Error("Failed to move malformed settings file aside")
		return
	}
	log.WithFields(log.Fields{
		"file":   f.path,
		"backup": target,
	}).Warn("Moved malformed settings file aside")
}
