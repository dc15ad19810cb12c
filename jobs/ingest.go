package jobs

import (
	"context"

	"github.com/gosimple/slug"
	"go.uber.org/zap"

	"mod-aggregator/db"
	"mod-aggregator/platform"
)

// IngestMod opportunistically catalogues a mod surfaced by live search. The
// payload is best effort, so the job is deliberately forgiving: anything it
// cannot place is dropped with a log line rather than an error, because a
// retried ingest would fail the same way.
//
// LastSyncedAt is intentionally left unset. The search path only carries a
// summary-shaped record; leaving the mod stale makes the next search enqueue
// a full refresh for it.
func (r *Runner) IngestMod(ctx context.Context, payload IngestPayload) error {
	p := r.inferPlatform(payload)
	if !p.Valid() {
		r.Log.Debugw("Dropping ingest with no inferable platform", zap.String("name", payload.Name))
		return nil
	}
	if payload.ExternalID == "" || payload.Name == "" {
		r.Log.Debugw("Dropping ingest with missing identity",
			zap.String("platform", p.String()),
			zap.String("name", payload.Name),
		)
		return nil
	}

	// Already catalogued on this platform: the sync and refresh jobs own it.
	var count int64
	if err := r.DB.Model(&db.ModSource{}).
		Where("platform = ? AND external_id = ?", p.String(), payload.ExternalID).
		Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	modSlug := slug.Make(payload.Slug)
	if modSlug == "" {
		modSlug = slug.Make(payload.Name)
	}
	if modSlug == "" {
		r.Log.Debugw("Dropping ingest with no usable slug", zap.String("name", payload.Name))
		return nil
	}

	var mod db.Mod
	err := r.DB.Where(db.Mod{Slug: modSlug}).
		Attrs(db.Mod{
			Name:    payload.Name,
			Summary: payload.Summary,
			Author:  payload.Author,
			IconURL: payload.IconURL,
		}).
		FirstOrCreate(&mod).Error
	if err != nil {
		return err
	}

	if err := db.UpsertSource(r.DB, &db.ModSource{
		ModID:        mod.ID,
		Platform:     p.String(),
		ExternalID:   payload.ExternalID,
		ExternalSlug: payload.Slug,
		ProjectURL:   payload.ProjectURL,
		Downloads:    payload.Downloads,
	}); err != nil {
		return err
	}
	if _, err := db.RecomputeTotalDownloads(r.DB, mod.ID); err != nil {
		return err
	}

	r.Log.Infow("Ingested mod from live search",
		zap.String("platform", p.String()),
		zap.String("slug", modSlug),
	)
	return nil
}

// inferPlatform picks the platform from the payload's provenance list when it
// is unambiguous, falling back to the project URL.
func (r *Runner) inferPlatform(payload IngestPayload) platform.Platform {
	if len(payload.Platforms) == 1 {
		if p, err := platform.Parse(payload.Platforms[0]); err == nil {
			return p
		}
	}
	return platform.FromProjectURL(payload.ProjectURL)
}
