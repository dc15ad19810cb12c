package db

import (
	"mod-aggregator/platform"
	"mod-aggregator/ui"
)

// SourceView is the per-platform detail exposed to the presentation layer.
type SourceView struct {
	Platform      string   `json:"platform"`
	ExternalID    string   `json:"external_id"`
	ExternalSlug  string   `json:"external_slug"`
	ProjectURL    string   `json:"project_url"`
	Downloads     int64    `json:"downloads"`
	Rating        float64  `json:"rating,omitempty"`
	LatestVersion string   `json:"latest_version,omitempty"`
	GameVersions  []string `json:"game_versions"`
	Loaders       []string `json:"loaders"`
}

// ModView is the stable canonical-record shape consumed by the presentation
// layer. Keep field changes backwards compatible.
type ModView struct {
	ID                 uint         `json:"id"`
	Name               string       `json:"name"`
	Slug               string       `json:"slug"`
	Summary            string       `json:"summary"`
	Author             string       `json:"author"`
	IconURL            string       `json:"icon_url"`
	TotalDownloads     int64        `json:"total_downloads"`
	DownloadsFormatted string       `json:"downloads_formatted"`
	Sources            []SourceView `json:"sources"`
	Categories         []string     `json:"categories"`
	HasModrinth        bool         `json:"has_modrinth"`
	HasCurseForge      bool         `json:"has_curseforge"`
}

// NewModView builds the presentation shape for a mod whose sources and
// categories are already loaded.
func NewModView(mod *Mod) ModView {
	sources := make([]SourceView, 0, len(mod.Sources))
	for _, s := range mod.Sources {
		sources = append(sources, SourceView{
			Platform:      s.Platform,
			ExternalID:    s.ExternalID,
			ExternalSlug:  s.ExternalSlug,
			ProjectURL:    s.ProjectURL,
			Downloads:     s.Downloads,
			Rating:        s.Rating,
			LatestVersion: s.LatestVersion,
			GameVersions:  s.GameVersions,
			Loaders:       s.Loaders,
		})
	}

	return ModView{
		ID:                 mod.ID,
		Name:               mod.Name,
		Slug:               mod.Slug,
		Summary:            mod.Summary,
		Author:             mod.Author,
		IconURL:            mod.IconURL,
		TotalDownloads:     mod.TotalDownloads,
		DownloadsFormatted: ui.FormatDownloads(mod.TotalDownloads),
		Sources:            sources,
		Categories:         mod.CategoryNames(),
		HasModrinth:        mod.HasPlatform(platform.Modrinth.String()),
		HasCurseForge:      mod.HasPlatform(platform.CurseForge.String()),
	}
}
