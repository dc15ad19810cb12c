package cmd

import (
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"mod-aggregator/db"
	"mod-aggregator/logger"
)

// refreshCmd represents the refresh command
var refreshCmd = &cobra.Command{
	Use:   "refresh <slug>",
	Short: "Re-fetch one catalogued mod from all of its platforms",
	Args:  cobra.ExactArgs(1),
	Run: func(_ *cobra.Command, args []string) {
		runRefresh(args[0])
	},
}

func init() {
	rootCmd.AddCommand(refreshCmd)
}

func runRefresh(slug string) {
	a := bootstrap(".")

	mod, err := db.FindModBySlug(db.DB, slug)
	if err != nil {
		logger.Log.Fatalw("Mod not found", zap.String("slug", slug), zap.Error(err))
	}

	if err := a.runner.RefreshMod(context.Background(), mod.ID); err != nil {
		logger.Log.Fatalw("Refresh failed", zap.String("slug", slug), zap.Error(err))
	}
	logger.Log.Infow("Mod refreshed", zap.String("slug", slug))
}
