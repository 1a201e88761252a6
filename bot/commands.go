package bot

import (
	"fmt"

	"linkkeeper/bot/common"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

const (
	commandHelp   = "help"
	commandStatus = "status"
)

// commands returns every slash command the bot serves
func (b *Bot) commands() []*discordgo.ApplicationCommand {
	commands := []*discordgo.ApplicationCommand{
		{
			Name:        commandHelp,
			Description: "Show the list of available commands",
		},
		{
			Name:        commandStatus,
			Description: "Show the bot's current status",
		},
	}
	return append(commands, b.settings.Commands()...)
}

// registerCommands registers all slash commands with Discord, replacing any
// stale definitions from earlier versions
func (b *Bot) registerCommands() error {
	commands := b.commands()
	if _, err := b.session.ApplicationCommandBulkOverwrite(b.session.State.User.ID, "", commands); err != nil {
		return fmt.Errorf("cannot register commands: %w", err)
	}

	log.WithField("count", len(commands)).Info("Registered slash commands")
	return nil
}

// handleCommands routes slash commands to appropriate handlers
func (b *Bot) handleCommands(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}

	switch i.ApplicationCommandData().Name {
	case commandHelp:
		b.handleHelp(s, i)
	case commandStatus:
		b.handleStatus(s, i)
	default:
		b.settings.HandleCommand(s, i)
	}
}

// handleHelp handles the /help command
func (b *Bot) handleHelp(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if err := common.RespondWithEmbed(s, i, helpEmbed(b.commands()), false); err != nil {
		log.WithError(err).Error("Failed to respond to help command")
	}
}

// handleStatus handles the /status command
func (b *Bot) handleStatus(s *discordgo.Session, i *discordgo.InteractionCreate) {
	guildID, err := common.ParseSnowflake(i.GuildID)
	if err != nil {
		common.HandleError(s, i, common.NewUserError("This command can only be used in a server", "Status command outside a guild"))
		return
	}

	botName := "unknown"
	if s.State != nil && s.State.User != nil {
		botName = s.State.User.Username
	}

	if err := common.RespondWithEmbed(s, i, statusEmbed(botName, b.store.Get(guildID)), false); err != nil {
		log.WithError(err).Error("Failed to respond to status command")
	}
}
