package jobs

// Queue message payloads. These are the JSON wire shapes between the
// dispatching side and the workers; keep them backwards compatible.

// SyncPayload triggers a platform sync run.
type SyncPayload struct {
	Platform string `json:"platform"`
	Limit    int    `json:"limit"`
}

// RefreshPayload triggers a single-mod refresh.
type RefreshPayload struct {
	ModID uint `json:"mod_id"`
}

// IngestPayload carries a best-effort record surfaced by live search for a
// mod that is not yet catalogued. Platform provenance may be missing; the
// ingest job infers it and silently drops payloads it cannot place.
type IngestPayload struct {
	Name       string   `json:"name"`
	Slug       string   `json:"slug"`
	Summary    string   `json:"summary"`
	Author     string   `json:"author"`
	IconURL    string   `json:"icon_url"`
	ProjectURL string   `json:"project_url"`
	ExternalID string   `json:"external_id"`
	Downloads  int64    `json:"downloads"`
	Platforms  []string `json:"platforms"`
}
