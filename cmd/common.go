package cmd

import (
	"time"

	"go.uber.org/zap"

	"mod-aggregator/cache"
	"mod-aggregator/config"
	"mod-aggregator/curseforge"
	"mod-aggregator/db"
	"mod-aggregator/jobs"
	"mod-aggregator/logger"
	"mod-aggregator/matcher"
	"mod-aggregator/modrinth"
	"mod-aggregator/normalize"
	"mod-aggregator/platform"
	"mod-aggregator/search"
	"mod-aggregator/source"
)

// app bundles the wired components every command needs.
type app struct {
	cfg     config.Config
	sources *source.Registry
	runner  *jobs.Runner
}

// bootstrap handles shared initialization logic for commands.
func bootstrap(path string) *app {
	cfg, err := config.LoadConfig(path)
	if err != nil {
		logger.Log.Fatalw("Failed to load configuration", zap.Error(err))
	}

	db.InitDatabase(cfg.DatabasePath)
	logger.Log.Infow("Database initialized", zap.String("path", cfg.DatabasePath))

	reg := buildRegistry(cfg)
	if len(reg.Platforms()) == 0 {
		logger.Log.Fatal("No platforms available: check API key configuration.")
	}

	m := matcher.New(db.DB, logger.Log)
	runner := jobs.NewRunner(db.DB, reg, m, logger.Log, time.Duration(cfg.StaleAfterHours)*time.Hour)

	return &app{cfg: cfg, sources: reg, runner: runner}
}

// buildRegistry registers every platform whose client can be constructed.
// CurseForge needs an API key; without one the aggregator degrades to a
// single-platform catalog instead of refusing to start.
func buildRegistry(cfg config.Config) *source.Registry {
	var sources []source.Source

	mrClient, err := modrinth.NewClient(cfg)
	if err != nil {
		logger.Log.Fatalw("Failed to create Modrinth client", zap.Error(err))
	}
	sources = append(sources, source.Source{
		Platform:  platform.Modrinth,
		Client:    mrClient,
		Normalize: normalize.FromModrinth,
	})

	if cfg.CurseForgeAPIKey == "" {
		logger.Log.Warn("CURSEFORGE_API_KEY not set, CurseForge disabled.")
	} else {
		cfClient, err := curseforge.NewClient(cfg)
		if err != nil {
			logger.Log.Fatalw("Failed to create CurseForge client", zap.Error(err))
		}
		sources = append(sources, source.Source{
			Platform:  platform.CurseForge,
			Client:    cfClient,
			Normalize: normalize.FromCurseForge,
		})
	}

	return source.NewRegistry(sources...)
}

// searchService opens the on-disk search cache and builds the live search
// service. The caller owns closing the returned cache.
func (a *app) searchService() (*search.Service, *cache.Cache) {
	c, err := cache.Open(a.cfg.CachePath, logger.Log)
	if err != nil {
		logger.Log.Fatalw("Failed to open search cache", zap.Error(err))
	}
	svc := search.NewService(
		db.DB,
		a.sources,
		c,
		logger.Log,
		time.Duration(a.cfg.SearchCacheTTLMinutes)*time.Minute,
		time.Duration(a.cfg.StaleAfterHours)*time.Hour,
	)
	return svc, c
}
