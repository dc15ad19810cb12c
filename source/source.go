package source

import (
	"context"
	"fmt"

	"mod-aggregator/normalize"
	"mod-aggregator/platform"
)

// Client is the thin HTTP wrapper each platform implements. All methods
// return raw platform-shaped payloads; normalization happens elsewhere.
type Client interface {
	Search(ctx context.Context, query string, limit int) ([]map[string]any, error)
	GetProject(ctx context.Context, externalID string) (map[string]any, error)
	GetProjects(ctx context.Context, externalIDs []string) ([]map[string]any, error)
	GetPopular(ctx context.Context, limit int) ([]map[string]any, error)
}

// Source binds a platform to its client and normalizer.
type Source struct {
	Platform  platform.Platform
	Client    Client
	Normalize func(map[string]any) normalize.Record
}

// Registry is the closed dispatch table over known platforms. Jobs and the
// search service iterate it instead of switching on platform values, so a
// future third platform is a registration change, not a call-site change.
type Registry struct {
	sources map[platform.Platform]Source
	order   []platform.Platform
}

// NewRegistry builds a registry from the given sources, preserving order.
func NewRegistry(sources ...Source) *Registry {
	r := &Registry{sources: make(map[platform.Platform]Source, len(sources))}
	for _, s := range sources {
		if _, dup := r.sources[s.Platform]; dup {
			continue
		}
		r.sources[s.Platform] = s
		r.order = append(r.order, s.Platform)
	}
	return r
}

// Get returns the source for a platform.
func (r *Registry) Get(p platform.Platform) (Source, error) {
	s, ok := r.sources[p]
	if !ok {
		return Source{}, fmt.Errorf("no source registered for platform %q", p)
	}
	return s, nil
}

// All returns the registered sources in registration order.
func (r *Registry) All() []Source {
	out := make([]Source, 0, len(r.order))
	for _, p := range r.order {
		out = append(out, r.sources[p])
	}
	return out
}

// Platforms returns the registered platform identifiers in order.
func (r *Registry) Platforms() []platform.Platform {
	return append([]platform.Platform(nil), r.order...)
}
