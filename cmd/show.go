package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"mod-aggregator/db"
	"mod-aggregator/logger"
)

// showCmd represents the show command
var showCmd = &cobra.Command{
	Use:   "show <slug>",
	Short: "Print one catalogued mod as JSON",
	Args:  cobra.ExactArgs(1),
	Run: func(_ *cobra.Command, args []string) {
		runShow(args[0])
	},
}

func init() {
	rootCmd.AddCommand(showCmd)
}

func runShow(slug string) {
	bootstrap(".")

	mod, err := db.FindModBySlug(db.DB, slug)
	if err != nil {
		logger.Log.Fatalw("Mod not found", zap.String("slug", slug), zap.Error(err))
	}

	body, err := json.MarshalIndent(db.NewModView(mod), "", "  ")
	if err != nil {
		logger.Log.Fatalw("Failed to encode mod", zap.Error(err))
	}
	fmt.Println(string(body))
}
