package db

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Mod is the canonical record for one logical mod, possibly backed by
// several platform sources. Slug is the merge key of first resort.
type Mod struct {
	gorm.Model
	Slug              string `gorm:"uniqueIndex"`
	Name              string
	Summary           string
	Author            string
	IconURL           string
	TotalDownloads    int64 // Derived: sum over all sources, never a single platform's figure
	LastContentUpdate *time.Time
	LastSyncedAt      *time.Time
	Sources           []ModSource
	Categories        []Category `gorm:"many2many:mod_categories"`
}

// ModSource is one platform's view of a Mod. At most one row per
// (mod, platform) and per (platform, external id).
type ModSource struct {
	gorm.Model
	ModID         uint   `gorm:"uniqueIndex:idx_mod_platform"`
	Platform      string `gorm:"uniqueIndex:idx_mod_platform;uniqueIndex:idx_platform_external"`
	ExternalID    string `gorm:"uniqueIndex:idx_platform_external"`
	ExternalSlug  string
	ProjectURL    string
	Downloads     int64
	Rating        float64
	LatestVersion string
	GameVersions  []string       `gorm:"serializer:json"`
	Loaders       []string       `gorm:"serializer:json"`
	Raw           datatypes.JSON // Raw platform payload kept for forensic replay
}

// Category is a local taxonomy entry; platform-native tags are mapped onto it.
type Category struct {
	gorm.Model
	Slug string `gorm:"uniqueIndex"`
	Name string
}

// SyncLog statuses. A log is created running and finalized exactly once.
const (
	SyncStatusRunning   = "running"
	SyncStatusCompleted = "completed"
	SyncStatusFailed    = "failed"
)

// SyncLog records one platform sync execution. It is an audit trail, not a
// retry queue: rows are never mutated after reaching a terminal status.
type SyncLog struct {
	gorm.Model
	Platform    string
	Status      string
	ModsSynced  int
	ModsCreated int
	ModsUpdated int
	Error       string
	StartedAt   time.Time
	CompletedAt *time.Time
}

// IsStale reports whether the mod needs a refresh: never synced, or last
// synced longer than threshold ago.
func (m *Mod) IsStale(threshold time.Duration) bool {
	if m.LastSyncedAt == nil {
		return true
	}
	return time.Since(*m.LastSyncedAt) > threshold
}

// HasPlatform reports whether the mod has a source on the given platform.
func (m *Mod) HasPlatform(platform string) bool {
	for _, s := range m.Sources {
		if s.Platform == platform {
			return true
		}
	}
	return false
}

// CategoryNames returns the mod's category display names.
func (m *Mod) CategoryNames() []string {
	names := make([]string, 0, len(m.Categories))
	for _, c := range m.Categories {
		names = append(names, c.Name)
	}
	return names
}
