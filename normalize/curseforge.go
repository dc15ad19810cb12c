package normalize

// curseforgeLoaderNames maps CurseForge's numeric ModLoaderType enumeration
// onto loader names. Unknown ids are dropped.
var curseforgeLoaderNames = map[int64]string{
	1: "forge",
	3: "liteloader",
	4: "fabric",
	5: "quilt",
	6: "neoforge",
}

// FromCurseForge maps a raw CurseForge mod payload into the canonical
// record. Pure; missing fields become zero values, malformed input never
// panics.
func FromCurseForge(payload map[string]any) Record {
	if payload == nil {
		return Record{}
	}

	slug := getString(payload, "slug")

	rec := Record{
		ExternalID:   getString(payload, "id"),
		ExternalSlug: slug,
		Name:         getString(payload, "name"),
		Summary:      getString(payload, "summary"),
		Downloads:    getInt64(payload, "downloadCount"),
		Rating:       getFloat(payload, "rating", "thumbsUpCount"),
		LastUpdated:  getTime(payload, "dateModified", "dateReleased"),
	}

	if files := getMapSlice(payload, "latestFiles"); len(files) > 0 {
		rec.LatestVersion = getString(files[0], "displayName", "fileName")
	}

	if authors := getMapSlice(payload, "authors"); len(authors) > 0 {
		rec.Author = getString(authors[0], "name")
	}
	if logo := getMap(payload, "logo"); logo != nil {
		rec.IconURL = getString(logo, "thumbnailUrl", "url")
	}
	if links := getMap(payload, "links"); links != nil {
		rec.ProjectURL = getString(links, "websiteUrl")
	}
	if rec.ProjectURL == "" && slug != "" {
		rec.ProjectURL = "https://www.curseforge.com/minecraft/mc-mods/" + slug
	}

	// Game versions and loaders both come from the latest-files index.
	var versions, loaders []string
	for _, idx := range getMapSlice(payload, "latestFilesIndexes") {
		if v := getString(idx, "gameVersion"); v != "" {
			versions = append(versions, v)
		}
		if name, ok := curseforgeLoaderNames[getInt64(idx, "modLoader")]; ok {
			loaders = append(loaders, name)
		}
	}
	rec.GameVersions = dedupe(versions)
	rec.Loaders = dedupe(loaders)

	for _, cat := range getMapSlice(payload, "categories") {
		if name := getString(cat, "name"); name != "" {
			rec.Categories = append(rec.Categories, name)
		}
	}
	rec.Categories = dedupe(rec.Categories)

	return rec
}
