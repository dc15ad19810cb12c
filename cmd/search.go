package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"mod-aggregator/logger"
	"mod-aggregator/search"
	"mod-aggregator/ui"
)

// searchCmd represents the search command
var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search both platforms live and merge the results",
	Long: `Queries Modrinth and CurseForge concurrently, merges hits that look
like the same mod, and prints one line per result. Catalog followup work
implied by the results (refreshes of stale mods, ingests of unknown ones)
runs afterwards unless --no-followups is given.`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		limit, _ := cmd.Flags().GetInt("limit")
		noFollowups, _ := cmd.Flags().GetBool("no-followups")
		runSearch(strings.Join(args, " "), limit, noFollowups)
	},
}

func init() {
	rootCmd.AddCommand(searchCmd)

	searchCmd.Flags().IntP("limit", "l", 20, "Maximum results per platform")
	searchCmd.Flags().Bool("no-followups", false, "Skip catalog followup work after printing results")
}

func runSearch(query string, limit int, noFollowups bool) {
	a := bootstrap(".")
	svc, c := a.searchService()
	defer func() { _ = c.Close() }()

	ctx := context.Background()
	results, followups, err := svc.Search(ctx, query, limit)
	if err != nil {
		logger.Log.Fatalw("Search failed", zap.String("query", query), zap.Error(err))
	}

	if len(results) == 0 {
		fmt.Println("No results.")
		return
	}
	for _, r := range results {
		fmt.Println(renderResult(r))
	}

	if noFollowups || len(followups) == 0 {
		return
	}
	dispatchFollowups(ctx, a, followups)
}

// renderResult formats one merged search hit as a single line.
func renderResult(r search.Result) string {
	platforms := make([]string, 0, len(r.Sources))
	for _, s := range r.Sources {
		platforms = append(platforms, s.Platform)
	}

	line := fmt.Sprintf("%s %s %s",
		ui.TitleStyle.Render(r.Name),
		ui.AccentStyle.Render(ui.FormatDownloads(r.TotalDownloads)),
		ui.Badges(platforms),
	)
	if r.Summary != "" {
		line += "\n  " + ui.SummaryStyle.Render(r.Summary)
	}
	return line
}

// dispatchFollowups runs deferred catalog work synchronously. The one-shot
// CLI has no queue consumer running, so enqueueing would lose the work.
func dispatchFollowups(ctx context.Context, a *app, followups []search.Followup) {
	for _, f := range followups {
		switch f.Action {
		case search.FollowupRefresh:
			if err := a.runner.RefreshMod(ctx, f.ModID); err != nil {
				logger.Log.Warnw("Followup refresh failed", zap.Uint("mod_id", f.ModID), zap.Error(err))
			}
		case search.FollowupIngest:
			if err := a.runner.IngestMod(ctx, f.Ingest); err != nil {
				logger.Log.Warnw("Followup ingest failed", zap.String("name", f.Ingest.Name), zap.Error(err))
			}
		}
	}
}
