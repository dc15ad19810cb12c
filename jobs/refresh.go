package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"mod-aggregator/db"
	"mod-aggregator/platform"
)

// RefreshMod re-fetches a single mod from every platform it is linked to.
// Platform failures are isolated: each source is refreshed independently, and
// the job only fails as a whole when every linked platform failed. Aggregate
// fields are recomputed and the sync timestamp stamped even on partial
// success, so a mod with one dead platform does not stay stale forever.
func (r *Runner) RefreshMod(ctx context.Context, modID uint) error {
	var mod db.Mod
	if err := r.DB.Preload("Sources").First(&mod, modID).Error; err != nil {
		return fmt.Errorf("failed to load mod %d for refresh: %w", modID, err)
	}
	if len(mod.Sources) == 0 {
		r.Log.Warnw("Refresh requested for mod with no sources", zap.Uint("mod_id", modID))
		return nil
	}

	r.Log.Infow("Refreshing mod", zap.Uint("mod_id", modID), zap.String("slug", mod.Slug))

	catCache := NewCategoryCache()

	var refreshed int
	var firstErr error
	sharedWritten := false
	for _, existing := range mod.Sources {
		if err := r.refreshSource(ctx, &mod, existing, catCache, &sharedWritten); err != nil {
			r.Log.Warnw("Platform refresh failed",
				zap.Uint("mod_id", modID),
				zap.String("platform", existing.Platform),
				zap.Error(err),
			)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		refreshed++
	}

	if refreshed == 0 {
		return fmt.Errorf("failed to refresh mod %d on every platform: %w", modID, firstErr)
	}

	if _, err := db.RecomputeTotalDownloads(r.DB, mod.ID); err != nil {
		return err
	}
	if err := db.TouchLastSynced(r.DB, mod.ID, time.Now()); err != nil {
		return err
	}

	r.Log.Infow("Mod refreshed",
		zap.Uint("mod_id", modID),
		zap.Int("sources_refreshed", refreshed),
		zap.Int("sources_total", len(mod.Sources)),
	)
	return nil
}

// refreshSource re-fetches one linked source and writes it back. The first
// platform to answer also refreshes the mod's shared fields; later platforms
// only overwrite them when they report more downloads, so the most popular
// listing wins the description.
func (r *Runner) refreshSource(ctx context.Context, mod *db.Mod, existing db.ModSource, catCache *CategoryCache, sharedWritten *bool) error {
	src, err := r.Sources.Get(platform.Platform(existing.Platform))
	if err != nil {
		return err
	}

	payload, err := src.Client.GetProject(ctx, existing.ExternalID)
	if err != nil {
		return err
	}
	rec := src.Normalize(payload)
	if !rec.Valid() {
		return fmt.Errorf("platform %s returned an unusable record for %s", existing.Platform, existing.ExternalID)
	}

	raw, merr := json.Marshal(payload)
	if merr != nil {
		raw = nil
	}
	if err := db.UpsertSource(r.DB, &db.ModSource{
		ModID:         mod.ID,
		Platform:      existing.Platform,
		ExternalID:    rec.ExternalID,
		ExternalSlug:  rec.ExternalSlug,
		ProjectURL:    rec.ProjectURL,
		Downloads:     rec.Downloads,
		Rating:        rec.Rating,
		LatestVersion: rec.LatestVersion,
		GameVersions:  rec.GameVersions,
		Loaders:       rec.Loaders,
		Raw:           raw,
	}); err != nil {
		return err
	}

	if !*sharedWritten || rec.Downloads > mod.TotalDownloads {
		updates := map[string]any{
			"name":     rec.Name,
			"summary":  rec.Summary,
			"author":   rec.Author,
			"icon_url": rec.IconURL,
		}
		if rec.LastUpdated != nil &&
			(mod.LastContentUpdate == nil || rec.LastUpdated.After(*mod.LastContentUpdate)) {
			updates["last_content_update"] = rec.LastUpdated
		}
		if err := r.DB.Model(mod).Updates(updates).Error; err != nil {
			return err
		}
		*sharedWritten = true
	}

	cats, err := catCache.Resolve(r.DB, rec.Categories)
	if err != nil {
		return err
	}
	return db.AttachCategories(r.DB, mod, cats)
}
