package jobs

import (
	"fmt"
	"strings"

	"gorm.io/gorm"

	"mod-aggregator/db"
)

// localCategory is one entry in the local taxonomy.
type localCategory struct {
	Slug string
	Name string
}

// categoryMappings maps platform-native category tags (lowercased) onto the
// local taxonomy. Unknown tags are dropped silently; an unmapped tag is not
// an error.
var categoryMappings = map[string]localCategory{
	// Modrinth tags
	"adventure":      {"adventure", "Adventure"},
	"cursed":         {"misc", "Miscellaneous"},
	"decoration":     {"decoration", "Decoration"},
	"economy":        {"economy", "Economy"},
	"equipment":      {"equipment", "Equipment"},
	"food":           {"food", "Food"},
	"game-mechanics": {"gameplay", "Gameplay"},
	"library":        {"library", "Library"},
	"magic":          {"magic", "Magic"},
	"management":     {"utility", "Utility"},
	"minigame":       {"minigame", "Minigames"},
	"mobs":           {"mobs", "Mobs"},
	"optimization":   {"performance", "Performance"},
	"social":         {"social", "Social"},
	"storage":        {"storage", "Storage"},
	"technology":     {"technology", "Technology"},
	"transportation": {"transportation", "Transportation"},
	"utility":        {"utility", "Utility"},
	"worldgen":       {"worldgen", "World Generation"},

	// CurseForge tags (display names differ from Modrinth's)
	"armor, tools, and weapons": {"equipment", "Equipment"},
	"adventure and rpg":         {"adventure", "Adventure"},
	"cosmetic":                  {"decoration", "Decoration"},
	"api and library":           {"library", "Library"},
	"map and information":       {"utility", "Utility"},
	"miscellaneous":             {"misc", "Miscellaneous"},
	"performance":               {"performance", "Performance"},
	"server utility":            {"utility", "Utility"},
	"world gen":                 {"worldgen", "World Generation"},
}

// mapCategory resolves a platform-native tag to a local category, if known.
func mapCategory(tag string) (localCategory, bool) {
	c, ok := categoryMappings[strings.ToLower(strings.TrimSpace(tag))]
	return c, ok
}

// CategoryCache is a read-through cache over the category table, scoped to a
// single job run and passed in explicitly so tests can inspect it and worker
// processes never share hidden state.
type CategoryCache struct {
	bySlug map[string]*db.Category
}

func NewCategoryCache() *CategoryCache {
	return &CategoryCache{bySlug: make(map[string]*db.Category)}
}

// Resolve maps platform-native tags to persisted local categories, creating
// taxonomy rows on first use. Unknown tags are dropped.
func (c *CategoryCache) Resolve(tx *gorm.DB, tags []string) ([]db.Category, error) {
	var out []db.Category
	seen := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		local, ok := mapCategory(tag)
		if !ok {
			continue
		}
		if _, dup := seen[local.Slug]; dup {
			continue
		}
		seen[local.Slug] = struct{}{}

		if cached, ok := c.bySlug[local.Slug]; ok {
			out = append(out, *cached)
			continue
		}

		var cat db.Category
		err := tx.Where(db.Category{Slug: local.Slug}).
			Attrs(db.Category{Name: local.Name}).
			FirstOrCreate(&cat).Error
		if err != nil {
			return nil, fmt.Errorf("failed to resolve category %q: %w", local.Slug, err)
		}
		c.bySlug[local.Slug] = &cat
		out = append(out, cat)
	}
	return out, nil
}
