package bot

import (
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"time"

	"linkkeeper/bot/common"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

// DebugCommand represents a debug command sent via HTTP
type DebugCommand struct {
	Action string            `json:"action"`
	Params map[string]string `json:"params"`
}

// DebugResponse represents the response from a debug command
type DebugResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Error   string      `json:"error,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// GuildInfo describes a connected guild and its archive settings
type GuildInfo struct {
	ID                     string `json:"id"`
	Name                   string `json:"name"`
	ArchiveChannelID       string `json:"archive_channel_id,omitempty"`
	ArchivePrivateChannels bool   `json:"archive_private_channels"`
}

// StartHealthAPI serves the liveness endpoint on port on all interfaces.
// The returned server is shut down by Close.
func (b *Bot) StartHealthAPI(port int) (*http.Server, error) {
	if port <= 0 {
		return nil, nil
	}
	return serveAPI("Health API", healthAddr(port), b.healthMux())
}

// StartDebugAPI serves the operator debug endpoints on port, bound to
// loopback only since they are unauthenticated
func (b *Bot) StartDebugAPI(port int) (*http.Server, error) {
	if port <= 0 {
		return nil, nil
	}
	return serveAPI("Debug API", debugAddr(port), b.debugMux())
}

func healthAddr(port int) string {
	return fmt.Sprintf(":%d", port)
}

func debugAddr(port int) string {
	return fmt.Sprintf("127.0.0.1:%d", port)
}

func serveAPI(name, addr string, handler http.Handler) (*http.Server, error) {
	server := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	listener, err := net.Listen("tcp", server.Addr)
	if err != nil {
		return nil, err
	}

	go func() {
		log.Infof("%s listening on %s", name, server.Addr)
		if err := server.Serve(listener); err != nil && err != http.ErrServerClosed {
			log.Errorf("%s server error: %v", name, err)
		}
	}()

	return server, nil
}

func (b *Bot) healthMux() *http.ServeMux {
	mux := http.NewServeMux()

	// Health check endpoint
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	return mux
}

func (b *Bot) debugMux() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/debug/guilds", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		writeDebugResponse(w, http.StatusOK, DebugResponse{
			Success: true,
			Data:    b.GetGuilds(),
		})
	})

	mux.HandleFunc("/debug/command", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		var cmd DebugCommand
		if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
			respondWithError(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		switch cmd.Action {
		case "replay":
			channelID := cmd.Params["channel_id"]
			messageID := cmd.Params["message_id"]
			if channelID == "" || messageID == "" {
				respondWithError(w, "Missing channel_id or message_id", http.StatusBadRequest)
				return
			}

			if err := b.ReplayMessage(channelID, messageID); err != nil {
				respondWithError(w, fmt.Sprintf("Failed to replay message: %v", err), http.StatusInternalServerError)
				return
			}
			writeDebugResponse(w, http.StatusOK, DebugResponse{Success: true, Message: "Message queued for archiving"})

		default:
			respondWithError(w, fmt.Sprintf("Unknown action: %s", cmd.Action), http.StatusBadRequest)
		}
	})

	return mux
}

// ReplayMessage fetches a message and runs it through the archive pipeline
// again. Used to recover messages whose archive failed.
func (b *Bot) ReplayMessage(channelID, messageID string) error {
	msg, err := b.session.ChannelMessage(channelID, messageID)
	if err != nil {
		return fmt.Errorf("failed to fetch message %s from channel %s: %w", messageID, channelID, err)
	}

	channel, err := b.session.Channel(channelID)
	if err != nil {
		return fmt.Errorf("failed to fetch channel %s: %w", channelID, err)
	}

	// Not populated by ChannelMessage
	msg.GuildID = channel.GuildID

	log.WithFields(log.Fields{
		"channel_id": channelID,
		"message_id": messageID,
		"guild_id":   msg.GuildID,
		"source":     "debug_replay",
	}).Info("Replaying Discord message")

	b.handleMessageCreate(b.session, &discordgo.MessageCreate{Message: msg})
	return nil
}

// GetGuilds returns the guilds the bot is connected to with their archive settings
func (b *Bot) GetGuilds() []GuildInfo {
	state := b.session.State
	state.RLock()
	guilds := make([]GuildInfo, 0, len(state.Guilds))
	for _, guild := range state.Guilds {
		guilds = append(guilds, GuildInfo{ID: guild.ID, Name: guild.Name})
	}
	state.RUnlock()

	for i := range guilds {
		guildID, err := common.ParseSnowflake(guilds[i].ID)
		if err != nil {
			continue
		}
		config := b.store.Get(guildID)
		if config.HasArchiveChannel() {
			guilds[i].ArchiveChannelID = common.FormatSnowflake(config.ArchiveChannel())
		}
		guilds[i].ArchivePrivateChannels = config.ArchivePrivateChannels
	}

	return guilds
}

func respondWithError(w http.ResponseWriter, message string, statusCode int) {
	writeDebugResponse(w, statusCode, DebugResponse{Success: false, Error: message})
}

func writeDebugResponse(w http.ResponseWriter, statusCode int, resp DebugResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(resp)
}
