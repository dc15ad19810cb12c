package cmd

import (
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"mod-aggregator/logger"
	"mod-aggregator/platform"
)

// syncCmd represents the sync command
var syncCmd = &cobra.Command{
	Use:   "sync [platform]",
	Short: "Sync the catalog from the platforms' popular listings",
	Long: `Fetches the most popular mods from each platform (or only the named
one) and reconciles them into the local catalog. Runs synchronously; use
'serve' for scheduled background syncs.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		limit, _ := cmd.Flags().GetInt("limit")
		runSync(args, limit)
	},
}

func init() {
	rootCmd.AddCommand(syncCmd)

	syncCmd.Flags().IntP("limit", "l", 0, "Number of mods to sync per platform (default from config)")
}

func runSync(args []string, limit int) {
	a := bootstrap(".")
	if limit <= 0 {
		limit = a.cfg.SyncLimit
	}

	platforms := a.sources.Platforms()
	if len(args) == 1 {
		p, err := platform.Parse(args[0])
		if err != nil {
			logger.Log.Fatalw("Unknown platform", zap.String("platform", args[0]))
		}
		platforms = []platform.Platform{p}
	}

	ctx := context.Background()
	for _, p := range platforms {
		if err := a.runner.SyncPlatform(ctx, p, limit); err != nil {
			logger.Log.Errorw("Sync failed", zap.String("platform", p.String()), zap.Error(err))
		}
	}
}
