package search

import "mod-aggregator/jobs"

// ResultSource is one platform's contribution to a merged result.
type ResultSource struct {
	Platform   string `json:"platform"`
	ExternalID string `json:"external_id"`
	Slug       string `json:"slug"`
	ProjectURL string `json:"project_url"`
	Downloads  int64  `json:"downloads"`
}

// Result is one merged live-search entry. Downloads is the primary record's
// own count and is the ordering key; TotalDownloads sums every contributing
// platform. IsLiveResult marks hits the catalog does not know yet; it is
// recomputed against the catalog on every search, never served from cache.
type Result struct {
	Name           string         `json:"name"`
	Slug           string         `json:"slug"`
	Summary        string         `json:"summary"`
	Author         string         `json:"author"`
	IconURL        string         `json:"icon_url"`
	ProjectURL     string         `json:"project_url"`
	Downloads      int64          `json:"downloads"`
	TotalDownloads int64          `json:"total_downloads"`
	HasModrinth    bool           `json:"has_modrinth"`
	HasCurseForge  bool           `json:"has_curseforge"`
	Categories     []string       `json:"categories"`
	IsLiveResult   bool           `json:"is_live_result"`
	Sources        []ResultSource `json:"sources"`
}

// Followup actions the caller should enqueue after rendering results.
const (
	FollowupRefresh = "refresh"
	FollowupIngest  = "ingest"
)

// Followup is deferred catalog work derived from the top search results. The
// service only computes these; dispatching them is the caller's decision so
// a read-only search stays read-only.
type Followup struct {
	Action string
	ModID  uint               // set for refresh
	Ingest jobs.IngestPayload // set for ingest
}
