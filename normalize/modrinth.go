package normalize

import "strings"

// knownLoaders is the fixed loader vocabulary. Modrinth reports loaders as
// category-style tags, so we intersect against this set.
var knownLoaders = map[string]struct{}{
	"forge":      {},
	"fabric":     {},
	"quilt":      {},
	"neoforge":   {},
	"rift":       {},
	"liteloader": {},
}

// FromModrinth maps a raw Modrinth project or search-hit payload into the
// canonical record. Pure; missing fields become zero values, malformed input
// never panics.
func FromModrinth(payload map[string]any) Record {
	if payload == nil {
		return Record{}
	}

	slug := getString(payload, "slug")

	// Search hits use project_id/date_modified, project details use id/updated.
	rec := Record{
		ExternalID:    getString(payload, "project_id", "id"),
		ExternalSlug:  slug,
		Name:          getString(payload, "title"),
		Summary:       getString(payload, "description"),
		Author:        getString(payload, "author"),
		IconURL:       getString(payload, "icon_url"),
		Downloads:     getInt64(payload, "downloads"),
		Rating:        getFloat(payload, "rating"),
		LatestVersion: getString(payload, "latest_version"),
		ProjectURL:    getString(payload, "project_url"),
		GameVersions:  getStringSlice(payload, "versions", "game_versions"),
		LastUpdated:   getTime(payload, "date_modified", "updated"),
	}

	if rec.ProjectURL == "" && slug != "" {
		rec.ProjectURL = "https://modrinth.com/mod/" + slug
	}

	// Modrinth mixes loader tags into the category lists. Split them apart:
	// anything in the known-loader vocabulary is a loader, the rest are
	// genuine categories.
	tags := append(getStringSlice(payload, "categories"), getStringSlice(payload, "display_categories")...)
	tags = append(tags, getStringSlice(payload, "loaders")...)
	var loaders, categories []string
	for _, tag := range dedupe(tags) {
		if _, ok := knownLoaders[strings.ToLower(tag)]; ok {
			loaders = append(loaders, strings.ToLower(tag))
		} else {
			categories = append(categories, tag)
		}
	}
	rec.Loaders = loaders
	rec.Categories = categories

	return rec
}
