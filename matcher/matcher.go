package matcher

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"mod-aggregator/db"
	"mod-aggregator/normalize"
	"mod-aggregator/platform"
)

// createAttempts bounds how often a losing writer re-runs the match ladder
// after a unique-constraint race.
const createAttempts = 3

// Matcher decides whether an incoming platform record belongs to an existing
// canonical mod or needs a new one. The storage layer's unique constraints
// are the backstop for racing creations.
type Matcher struct {
	DB  *gorm.DB
	Log *zap.SugaredLogger
}

func New(gdb *gorm.DB, log *zap.SugaredLogger) *Matcher {
	return &Matcher{DB: gdb, Log: log}
}

// FindOrCreateMod resolves the canonical mod for a normalized record seen on
// the given platform, creating it if no existing mod matches. A unique
// violation on insert means another worker won the race, so the ladder is
// re-run from the top.
func (m *Matcher) FindOrCreateMod(rec normalize.Record, p platform.Platform) (*db.Mod, bool, error) {
	var lastErr error
	for attempt := 0; attempt < createAttempts; attempt++ {
		mod, created, err := m.resolve(rec, p)
		if err == nil {
			return mod, created, nil
		}
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, false, err
		}
		lastErr = err
		m.Log.Infow("Lost mod creation race, rematching",
			zap.String("platform", p.String()),
			zap.String("external_id", rec.ExternalID),
		)
	}
	return nil, false, fmt.Errorf("failed to resolve mod for %s/%s: %w", p, rec.ExternalID, lastErr)
}

// resolve runs the match ladder once. Rules run in strict priority order and
// the first hit wins. The bool reports whether a new mod was created.
func (m *Matcher) resolve(rec normalize.Record, p platform.Platform) (*db.Mod, bool, error) {
	// Idempotent re-sync path: the source is already catalogued.
	var src db.ModSource
	err := m.DB.Where("platform = ? AND external_id = ?", p.String(), rec.ExternalID).
		First(&src).Error
	if err == nil {
		var mod db.Mod
		if err := m.DB.Preload("Sources").First(&mod, src.ModID).Error; err != nil {
			return nil, false, fmt.Errorf("failed to load mod %d for existing source: %w", src.ModID, err)
		}
		return &mod, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, fmt.Errorf("failed to look up source %s/%s: %w", p, rec.ExternalID, err)
	}

	candidate := slug.Make(rec.ExternalSlug)

	if candidate != "" {
		// Exact slug equality.
		var mod db.Mod
		err = m.DB.Where("slug = ?", candidate).First(&mod).Error
		if err == nil {
			return &mod, false, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, fmt.Errorf("failed slug lookup for %q: %w", candidate, err)
		}

		// Slug containment, either direction. Intentionally loose to catch
		// slug variants like jei / jei-unofficial.
		err = m.DB.Where("instr(slug, ?) > 0 OR instr(?, slug) > 0", candidate, candidate).
			Order("id").First(&mod).Error
		if err == nil {
			return &mod, false, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, fmt.Errorf("failed slug containment lookup for %q: %w", candidate, err)
		}
	}

	if rec.Name != "" {
		// Exact, case-sensitive name equality.
		var mod db.Mod
		err = m.DB.Where("name = ?", rec.Name).First(&mod).Error
		if err == nil {
			return &mod, false, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, fmt.Errorf("failed name lookup for %q: %w", rec.Name, err)
		}
	}

	mod, err := m.create(rec, candidate)
	if err != nil {
		return nil, false, err
	}
	return mod, true, nil
}

// create inserts a new canonical mod. The returned gorm.ErrDuplicatedKey (if
// any) propagates so FindOrCreateMod can re-run the ladder.
func (m *Matcher) create(rec normalize.Record, candidate string) (*db.Mod, error) {
	newSlug, err := m.generateSlug(candidate)
	if err != nil {
		return nil, err
	}

	mod := db.Mod{
		Slug:              newSlug,
		Name:              rec.Name,
		Summary:           rec.Summary,
		Author:            rec.Author,
		IconURL:           rec.IconURL,
		LastContentUpdate: rec.LastUpdated,
	}
	if err := m.DB.Create(&mod).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create mod %q: %w", newSlug, err)
	}

	m.Log.Infow("Created new mod", zap.String("slug", newSlug), zap.String("name", rec.Name))
	return &mod, nil
}

// generateSlug returns base, or base-1, base-2, ... on collision. A random
// slug is used when the external slug slugifies to nothing.
func (m *Matcher) generateSlug(base string) (string, error) {
	if base == "" {
		return "mod-" + uuid.NewString()[:8], nil
	}

	candidate := base
	for i := 1; ; i++ {
		var count int64
		if err := m.DB.Model(&db.Mod{}).Where("slug = ?", candidate).Count(&count).Error; err != nil {
			return "", fmt.Errorf("failed to check slug %q: %w", candidate, err)
		}
		if count == 0 {
			return candidate, nil
		}
		if i > 50 {
			// Pathological collision run; fall back to a random suffix.
			return fmt.Sprintf("%s-%s", base, uuid.NewString()[:8]), nil
		}
		candidate = fmt.Sprintf("%s-%d", base, i)
	}
}
