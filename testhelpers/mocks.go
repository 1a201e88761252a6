package testhelpers

import (
	"context"
	"sync"

	"linkkeeper/events"
	"linkkeeper/models"

	"github.com/stretchr/testify/mock"
)

// MockSettingsPersister is a mock implementation of SettingsPersister
type MockSettingsPersister struct {
	mock.Mock
}

func (m *MockSettingsPersister) Load(ctx context.Context) (map[int64]models.GuildConfig, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[int64]models.GuildConfig), args.Error(1)
}

func (m *MockSettingsPersister) Save(ctx context.Context, configs map[int64]models.GuildConfig) error {
	args := m.Called(ctx, configs)
	return args.Error(0)
}

func (m *MockSettingsPersister) Name() string {
	return "mock"
}

// MockPermissionResolver is a mock implementation of PermissionResolver
type MockPermissionResolver struct {
	mock.Mock
}

func (m *MockPermissionResolver) EveryonePermissions(ctx context.Context, channel models.ChannelInfo) (int64, error) {
	args := m.Called(ctx, channel)
	return args.Get(0).(int64), args.Error(1)
}

// MockArchiveSender is a mock implementation of ArchiveSender
type MockArchiveSender struct {
	mock.Mock
}

func (m *MockArchiveSender) SendSummary(ctx context.Context, channelID int64, summary models.ArchiveSummary) error {
	args := m.Called(ctx, channelID, summary)
	return args.Error(0)
}

func (m *MockArchiveSender) UploadAttachment(ctx context.Context, channelID int64, attachment models.AttachmentRef) error {
	args := m.Called(ctx, channelID, attachment)
	return args.Error(0)
}

// MockEventEmitter is a mock implementation of EventEmitter
type MockEventEmitter struct {
	mock.Mock
}

func (m *MockEventEmitter) Emit(ctx context.Context, event events.Event) {
	m.Called(ctx, event)
}

// MemorySettingsPersister keeps the persisted mapping in memory and counts saves
type MemorySettingsPersister struct {
	mu      sync.Mutex
	configs map[int64]models.GuildConfig
	saves   int
}

// NewMemorySettingsPersister creates a persister seeded with configs
func NewMemorySettingsPersister(configs map[int64]models.GuildConfig) *MemorySettingsPersister {
	p := &MemorySettingsPersister{}
	p.configs = copyConfigs(configs)
	return p
}

func (p *MemorySettingsPersister) Load(_ context.Context) (map[int64]models.GuildConfig, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return copyConfigs(p.configs), nil
}

func (p *MemorySettingsPersister) Save(_ context.Context, configs map[int64]models.GuildConfig) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.configs = copyConfigs(configs)
	p.saves++
	return nil
}

func (p *MemorySettingsPersister) Name() string {
	return "memory"
}

// Stored returns a copy of the last saved mapping
func (p *MemorySettingsPersister) Stored() map[int64]models.GuildConfig {
	p.mu.Lock()
	defer p.mu.Unlock()
	return copyConfigs(p.configs)
}

// Saves returns how many times Save was called
func (p *MemorySettingsPersister) Saves() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.saves
}

func copyConfigs(configs map[int64]models.GuildConfig) map[int64]models.GuildConfig {
	out := make(map[int64]models.GuildConfig, len(configs))
	for id, c := range configs {
		out[id] = c.Clone()
	}
	return out
}
