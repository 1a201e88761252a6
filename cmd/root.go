package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "linkkeeper",
	Short: "Discord bot that archives shared links and files",
	Long: `linkkeeper watches guild messages for URLs and attachments and reposts
them, with a summary of who shared what and where, to each guild's
configured archive channel.

Run without a subcommand to start the bot.`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return Run(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(settingsCmd)
}

// Execute runs the root command until it returns or the process is signalled
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return rootCmd.ExecuteContext(ctx)
}
