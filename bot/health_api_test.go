package bot

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"linkkeeper/models"
	"linkkeeper/service"
	"linkkeeper/testhelpers"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newHealthTestBot(t *testing.T) *Bot {
	t.Helper()

	session, err := discordgo.New("Bot test-token")
	require.NoError(t, err)
	require.NoError(t, session.State.GuildAdd(&discordgo.Guild{ID: "42", Name: "Configured"}))
	require.NoError(t, session.State.GuildAdd(&discordgo.Guild{ID: "43", Name: "Fresh"}))

	channel := int64(77)
	store := service.NewSettingsStore(testhelpers.NewMemorySettingsPersister(map[int64]models.GuildConfig{
		42: {GuildID: 42, ArchiveChannelID: &channel, ArchivePrivateChannels: true},
	}), nil)
	store.Load(context.Background())

	return &Bot{session: session, store: store}
}

func TestHealthAPI_Health(t *testing.T) {
	b := newHealthTestBot(t)

	rec := httptest.NewRecorder()
	b.healthMux().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
}

func TestHealthAPI_DebugRoutesNotPublic(t *testing.T) {
	b := newHealthTestBot(t)

	for _, path := range []string{"/debug/guilds", "/debug/command"} {
		rec := httptest.NewRecorder()
		b.healthMux().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, path, strings.NewReader(`{"action":"replay"}`)))
		assert.Equal(t, http.StatusNotFound, rec.Code, path)
	}
}

func TestHealthAPI_Addresses(t *testing.T) {
	assert.Equal(t, ":8080", healthAddr(8080))
	assert.Equal(t, "127.0.0.1:8081", debugAddr(8081))
}

func TestGetGuilds_ConcurrentWithStateUpdates(t *testing.T) {
	b := newHealthTestBot(t)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			_ = b.session.State.GuildAdd(&discordgo.Guild{ID: fmt.Sprintf("%d", 1000+i), Name: "joined"})
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			_ = b.GetGuilds()
		}
	}()
	wg.Wait()

	assert.Len(t, b.GetGuilds(), 102)
}

func TestHealthAPI_Guilds(t *testing.T) {
	b := newHealthTestBot(t)

	rec := httptest.NewRecorder()
	b.debugMux().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/debug/guilds", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Success bool        `json:"success"`
		Data    []GuildInfo `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)

	byID := make(map[string]GuildInfo)
	for _, g := range resp.Data {
		byID[g.ID] = g
	}
	require.Len(t, byID, 2)
	assert.Equal(t, GuildInfo{ID: "42", Name: "Configured", ArchiveChannelID: "77", ArchivePrivateChannels: true}, byID["42"])
	assert.Equal(t, GuildInfo{ID: "43", Name: "Fresh"}, byID["43"])
}

func TestHealthAPI_CommandErrors(t *testing.T) {
	tests := []struct {
		name     string
		method   string
		body     string
		wantCode int
		wantErr  string
	}{
		{name: "wrong method", method: http.MethodGet, wantCode: http.StatusMethodNotAllowed},
		{name: "malformed body", method: http.MethodPost, body: "{", wantCode: http.StatusBadRequest, wantErr: "Invalid request body"},
		{name: "unknown action", method: http.MethodPost, body: `{"action":"purge"}`, wantCode: http.StatusBadRequest, wantErr: "Unknown action: purge"},
		{
			name:     "replay without ids",
			method:   http.MethodPost,
			body:     `{"action":"replay","params":{"channel_id":"3"}}`,
			wantCode: http.StatusBadRequest,
			wantErr:  "Missing channel_id or message_id",
		},
	}

	b := newHealthTestBot(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(tt.method, "/debug/command", strings.NewReader(tt.body))
			b.debugMux().ServeHTTP(rec, req)

			assert.Equal(t, tt.wantCode, rec.Code)
			if tt.wantErr != "" {
				var resp DebugResponse
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
				assert.False(t, resp.Success)
				assert.Equal(t, tt.wantErr, resp.Error)
			}
		})
	}
}
