package jobs

import (
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"mod-aggregator/matcher"
	"mod-aggregator/source"
)

// Runner executes the background jobs. It is shared between the queue
// handlers and the synchronous CLI path; every persistence operation it
// performs is an upsert keyed on a unique constraint, so concurrent workers
// are safe.
type Runner struct {
	DB         *gorm.DB
	Sources    *source.Registry
	Matcher    *matcher.Matcher
	Log        *zap.SugaredLogger
	StaleAfter time.Duration
}

func NewRunner(gdb *gorm.DB, reg *source.Registry, m *matcher.Matcher, log *zap.SugaredLogger, staleAfter time.Duration) *Runner {
	if staleAfter <= 0 {
		staleAfter = 24 * time.Hour
	}
	return &Runner{
		DB:         gdb,
		Sources:    reg,
		Matcher:    m,
		Log:        log,
		StaleAfter: staleAfter,
	}
}
