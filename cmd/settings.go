package cmd

import (
	"fmt"
	"io"
	"sort"
	"text/tabwriter"

	"linkkeeper/config"
	"linkkeeper/models"
	"linkkeeper/repository"

	"github.com/spf13/cobra"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Inspect stored guild archive settings",
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "List every guild with stored settings",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		configs, err := loadStoredSettings(cmd)
		if err != nil {
			return err
		}
		return printSettings(cmd.OutOrStdout(), configs)
	},
}

var settingsExportCmd = &cobra.Command{
	Use:   "export <path>",
	Short: "Copy stored settings into a JSON settings file",
	Long: `Copy the settings held by the configured backend into a JSON settings
file at path. The file can be used with SETTINGS_BACKEND=file, which makes
this the way to move a deployment off postgres.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		configs, err := loadStoredSettings(cmd)
		if err != nil {
			return err
		}

		if err := repository.NewJSONSettingsFile(args[0]).Save(cmd.Context(), configs); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Exported %d guild(s) to %s\n", len(configs), args[0])
		return nil
	},
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd, settingsExportCmd)
}

func loadStoredSettings(cmd *cobra.Command) (map[int64]models.GuildConfig, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	persister, closePersister, err := openSettingsPersister(cmd.Context(), cfg)
	if err != nil {
		return nil, err
	}
	defer closePersister()

	configs, err := persister.Load(cmd.Context())
	if err != nil {
		return nil, fmt.Errorf("failed to load settings from %s: %w", persister.Name(), err)
	}
	return configs, nil
}

func printSettings(out io.Writer, configs map[int64]models.GuildConfig) error {
	if len(configs) == 0 {
		fmt.Fprintln(out, "No guild settings stored")
		return nil
	}

	guildIDs := make([]int64, 0, len(configs))
	for guildID := range configs {
		guildIDs = append(guildIDs, guildID)
	}
	sort.Slice(guildIDs, func(i, j int) bool { return guildIDs[i] < guildIDs[j] })

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "GUILD\tARCHIVE CHANNEL\tARCHIVE PRIVATE")
	for _, guildID := range guildIDs {
		config := configs[guildID]
		channel := "-"
		if config.HasArchiveChannel() {
			channel = fmt.Sprintf("%d", config.ArchiveChannel())
		}
		fmt.Fprintf(w, "%d\t%s\t%t\n", guildID, channel, config.ArchivePrivateChannels)
	}
	return w.Flush()
}
