package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"mod-aggregator/db"
	"mod-aggregator/platform"
	"mod-aggregator/source"
)

// SyncPlatform reconciles the platform's popular listing into the catalog.
// A SyncLog row tracks the run; it is finalized exactly once, as completed
// or failed. The returned error propagates to the queue so its retry policy
// (3 attempts, 60s backoff) can re-run the whole job, fresh SyncLog included.
func (r *Runner) SyncPlatform(ctx context.Context, p platform.Platform, limit int) error {
	src, err := r.Sources.Get(p)
	if err != nil {
		return err
	}

	syncLog := db.SyncLog{
		Platform:  p.String(),
		Status:    db.SyncStatusRunning,
		StartedAt: time.Now(),
	}
	if err := r.DB.Create(&syncLog).Error; err != nil {
		return fmt.Errorf("failed to open sync log for %s: %w", p, err)
	}

	r.Log.Infow("Platform sync started", zap.String("platform", p.String()), zap.Int("limit", limit))

	synced, created, updated, err := r.syncPopular(ctx, src, limit)
	if err != nil {
		r.finalizeSyncLog(&syncLog, db.SyncStatusFailed, synced, created, updated, err.Error())
		r.Log.Errorw("Platform sync failed",
			zap.String("platform", p.String()),
			zap.Error(err),
		)
		return err
	}

	r.finalizeSyncLog(&syncLog, db.SyncStatusCompleted, synced, created, updated, "")
	r.Log.Infow("Platform sync completed",
		zap.String("platform", p.String()),
		zap.Int("synced", synced),
		zap.Int("created", created),
		zap.Int("updated", updated),
	)
	return nil
}

func (r *Runner) syncPopular(ctx context.Context, src source.Source, limit int) (synced, created, updated int, err error) {
	hits, err := src.Client.GetPopular(ctx, limit)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("failed to fetch popular mods from %s: %w", src.Platform, err)
	}

	// Category lookups repeat heavily across one listing; the cache is
	// scoped to this run and passed down explicitly.
	catCache := NewCategoryCache()

	for _, hit := range hits {
		rec := src.Normalize(hit)
		if !rec.Valid() {
			// One bad record must never abort a batch sync.
			r.Log.Debugw("Skipping record with missing name or external id",
				zap.String("platform", src.Platform.String()),
			)
			continue
		}

		mod, isNew, err := r.Matcher.FindOrCreateMod(rec, src.Platform)
		if err != nil {
			return synced, created, updated, err
		}

		raw, merr := json.Marshal(hit)
		if merr != nil {
			raw = nil
		}
		if err := db.UpsertSource(r.DB, &db.ModSource{
			ModID:         mod.ID,
			Platform:      src.Platform.String(),
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
			return synced, created, updated, err
		}

		// The content timestamp only moves forward; an out-of-date platform
		// must not roll it back.
		if rec.LastUpdated != nil &&
			(mod.LastContentUpdate == nil || rec.LastUpdated.After(*mod.LastContentUpdate)) {
			if err := r.DB.Model(mod).Update("last_content_update", rec.LastUpdated).Error; err != nil {
				return synced, created, updated, err
			}
		}

		// The whole-mod total is always the sum over sources, never one
		// platform's figure.
		if _, err := db.RecomputeTotalDownloads(r.DB, mod.ID); err != nil {
			return synced, created, updated, err
		}

		cats, err := catCache.Resolve(r.DB, rec.Categories)
		if err != nil {
			return synced, created, updated, err
		}
		if err := db.AttachCategories(r.DB, mod, cats); err != nil {
			return synced, created, updated, err
		}

		if err := db.TouchLastSynced(r.DB, mod.ID, time.Now()); err != nil {
			return synced, created, updated, err
		}

		synced++
		if isNew {
			created++
		} else {
			updated++
		}
	}

	return synced, created, updated, nil
}

// finalizeSyncLog moves the log to a terminal state. Called exactly once per
// run; terminal rows are never touched again.
func (r *Runner) finalizeSyncLog(syncLog *db.SyncLog, status string, synced, created, updated int, errMsg string) {
	now := time.Now()
	res := r.DB.Model(syncLog).
		Where("status = ?", db.SyncStatusRunning).
		Updates(map[string]any{
			"status":       status,
			"mods_synced":  synced,
			"mods_created": created,
			"mods_updated": updated,
			"error":        errMsg,
			"completed_at": now,
		})
	if res.Error != nil {
		r.Log.Errorw("Failed to finalize sync log", zap.Uint("sync_log_id", syncLog.ID), zap.Error(res.Error))
	}
}
