package common

// Discord color constants
const (
	ColorSuccess = 0x57F287 // Green
	ColorInfo    = 0x3498DB // Blue
)

// Presence shown under the bot's name
const PresenceText = "/help for commands"

// Message shown when a settings change could not be written to storage
const PersistFailedMessage = "saved for this session, but could not be written to disk"
