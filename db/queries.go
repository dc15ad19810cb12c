package db

import (
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UpsertSource inserts or updates the ModSource identified by
// (mod_id, platform). The unique constraint makes this safe under
// concurrent workers; no read-then-write.
func UpsertSource(tx *gorm.DB, src *ModSource) error {
	err := tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "mod_id"}, {Name: "platform"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"external_id", "external_slug", "project_url", "downloads",
			"rating", "latest_version", "game_versions", "loaders", "raw",
			"updated_at",
		}),
	}).Create(src).Error
	if err != nil {
		return fmt.Errorf("failed to upsert source (%d, %s): %w", src.ModID, src.Platform, err)
	}
	return nil
}

// SumSourceDownloads returns the sum of download counts over all of a mod's
// sources, computed in the database.
func SumSourceDownloads(tx *gorm.DB, modID uint) (int64, error) {
	var total int64
	err := tx.Model(&ModSource{}).
		Where("mod_id = ?", modID).
		Select("COALESCE(SUM(downloads), 0)").
		Scan(&total).Error
	if err != nil {
		return 0, fmt.Errorf("failed to sum downloads for mod %d: %w", modID, err)
	}
	return total, nil
}

// RecomputeTotalDownloads recalculates and persists a mod's aggregate
// download count from its current sources.
func RecomputeTotalDownloads(tx *gorm.DB, modID uint) (int64, error) {
	total, err := SumSourceDownloads(tx, modID)
	if err != nil {
		return 0, err
	}
	if err := tx.Model(&Mod{}).Where("id = ?", modID).
		Update("total_downloads", total).Error; err != nil {
		return 0, fmt.Errorf("failed to update total downloads for mod %d: %w", modID, err)
	}
	return total, nil
}

// AttachCategories associates categories with a mod without removing any
// existing associations.
func AttachCategories(tx *gorm.DB, mod *Mod, categories []Category) error {
	if len(categories) == 0 {
		return nil
	}
	if err := tx.Model(mod).Association("Categories").Append(categories); err != nil {
		return fmt.Errorf("failed to attach categories to mod %d: %w", mod.ID, err)
	}
	return nil
}

// FindModBySlug returns the mod with the given slug, sources preloaded, or
// gorm.ErrRecordNotFound.
func FindModBySlug(tx *gorm.DB, slug string) (*Mod, error) {
	var mod Mod
	if err := tx.Preload("Sources").Preload("Categories").
		Where("slug = ?", slug).First(&mod).Error; err != nil {
		return nil, err
	}
	return &mod, nil
}

// TouchLastSynced stamps the mod's last-synced-at timestamp.
func TouchLastSynced(tx *gorm.DB, modID uint, at time.Time) error {
	return tx.Model(&Mod{}).Where("id = ?", modID).
		Update("last_synced_at", at).Error
}
