package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd is the base command; subcommands register themselves in init().
var rootCmd = &cobra.Command{
	Use:   "mod-aggregator",
	Short: "Aggregate Minecraft mod listings across platforms",
	Long: `mod-aggregator builds a canonical local catalog of Minecraft mods by
aggregating listings from Modrinth and CurseForge, resolving the same mod
across platforms into a single record.`,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
