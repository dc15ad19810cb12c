package search

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gosimple/slug"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"mod-aggregator/cache"
	"mod-aggregator/db"
	"mod-aggregator/jobs"
	"mod-aggregator/matcher"
	"mod-aggregator/normalize"
	"mod-aggregator/platform"
	"mod-aggregator/source"
)

// followupWindow bounds how many top results are inspected for deferred
// catalog work per search.
const followupWindow = 10

// Service runs live cross-platform searches: fan out to every registered
// platform, merge duplicate hits, and report what catalog work the results
// imply. Results are cached briefly so repeated queries cost one upstream
// round trip.
type Service struct {
	DB         *gorm.DB
	Sources    *source.Registry
	Cache      *cache.Cache
	Log        *zap.SugaredLogger
	TTL        time.Duration
	StaleAfter time.Duration
}

func NewService(gdb *gorm.DB, reg *source.Registry, c *cache.Cache, log *zap.SugaredLogger, ttl, staleAfter time.Duration) *Service {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if staleAfter <= 0 {
		staleAfter = 24 * time.Hour
	}
	return &Service{DB: gdb, Sources: reg, Cache: c, Log: log, TTL: ttl, StaleAfter: staleAfter}
}

// Search queries every platform for query and returns merged results plus
// the followups the caller should enqueue. Queries shorter than two
// characters return nothing; they would match half of either catalog.
func (s *Service) Search(ctx context.Context, query string, limit int) ([]Result, []Followup, error) {
	query = strings.TrimSpace(query)
	if len([]rune(query)) < 2 {
		return nil, nil, nil
	}

	var results []Result
	key := fmt.Sprintf("search/%s/%d", strings.ToLower(query), limit)
	err := s.Cache.Remember(key, s.TTL, &results, func() (any, error) {
		return s.fetchMerged(ctx, query, limit)
	})
	if err != nil {
		return nil, nil, err
	}

	// Catalog-derived state is recomputed on every call, cached results
	// included: staleness and the live-result marker depend on the catalog,
	// not on the upstream responses.
	followups, err := s.annotate(results)
	if err != nil {
		return nil, nil, err
	}
	return results, followups, nil
}

// fetchMerged fans out to all platforms concurrently and merges the hits.
// One platform failing degrades to the other's results alone.
func (s *Service) fetchMerged(ctx context.Context, query string, limit int) ([]Result, error) {
	sources := s.Sources.All()
	hits := make([][]map[string]any, len(sources))

	var wg sync.WaitGroup
	for i, src := range sources {
		wg.Add(1)
		go func(i int, src source.Source) {
			defer wg.Done()
			found, err := src.Client.Search(ctx, query, limit)
			if err != nil {
				s.Log.Warnw("Platform search failed",
					zap.String("platform", src.Platform.String()),
					zap.String("query", query),
					zap.Error(err),
				)
				return
			}
			hits[i] = found
		}(i, src)
	}
	wg.Wait()

	// Merge in registration order: the first platform's hits seed the list,
	// later platforms either fold into an existing entry or append. Each
	// incoming hit can be consumed by at most one entry.
	type mergedHit struct {
		primary normalize.Record
		result  Result
	}
	var merged []mergedHit

	for i, src := range sources {
		for _, hit := range hits[i] {
			rec := src.Normalize(hit)
			if !rec.Valid() {
				continue
			}

			folded := false
			if i > 0 {
				for j := range merged {
					if merged[j].result.hasPlatform(src.Platform) {
						continue
					}
					if matcher.IsSameMod(merged[j].primary, rec) {
						addSource(&merged[j].result, rec, src.Platform)
						merged[j].result.Categories = appendCategories(merged[j].result.Categories, rec.Categories)
						folded = true
						break
					}
				}
			}
			if folded {
				continue
			}

			r := Result{
				Name:       rec.Name,
				Slug:       rec.ExternalSlug,
				Summary:    rec.Summary,
				Author:     rec.Author,
				IconURL:    rec.IconURL,
				ProjectURL: rec.ProjectURL,
				Downloads:  rec.Downloads,
			}
			r.Categories = appendCategories(r.Categories, rec.Categories)
			addSource(&r, rec, src.Platform)
			merged = append(merged, mergedHit{primary: rec, result: r})
		}
	}

	// Order by the primary record's own count, not the merged total.
	sort.SliceStable(merged, func(a, b int) bool {
		return merged[a].result.Downloads > merged[b].result.Downloads
	})
	if limit > 0 && len(merged) > limit {
		merged = merged[:limit]
	}

	out := make([]Result, 0, len(merged))
	for _, m := range merged {
		out = append(out, m.result)
	}
	return out, nil
}

// annotate marks each result as live or catalogued, and derives from the
// top entries the followup work they imply: known-but-stale mods get a
// refresh, unknown ones get an ingest.
func (s *Service) annotate(results []Result) ([]Followup, error) {
	var out []Followup
	seenMods := make(map[uint]struct{})

	for i := range results {
		mod, err := s.lookupCatalogued(results[i])
		if err != nil {
			return nil, err
		}
		results[i].IsLiveResult = mod == nil

		if i >= followupWindow {
			continue
		}
		if mod == nil {
			out = append(out, Followup{Action: FollowupIngest, Ingest: ingestPayload(results[i])})
			continue
		}
		if _, dup := seenMods[mod.ID]; dup {
			continue
		}
		seenMods[mod.ID] = struct{}{}
		if mod.IsStale(s.StaleAfter) {
			out = append(out, Followup{Action: FollowupRefresh, ModID: mod.ID})
		}
	}
	return out, nil
}

// lookupCatalogued finds the catalogued mod behind a result: first by any of
// the result's platform identities, then by slug and exact name, so a mod
// catalogued from one platform is still recognized in the other platform's
// hits.
func (s *Service) lookupCatalogued(r Result) (*db.Mod, error) {
	for _, rs := range r.Sources {
		var src db.ModSource
		err := s.DB.Where("platform = ? AND external_id = ?", rs.Platform, rs.ExternalID).
			First(&src).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to look up source %s/%s: %w", rs.Platform, rs.ExternalID, err)
		}

		var mod db.Mod
		if err := s.DB.First(&mod, src.ModID).Error; err != nil {
			return nil, fmt.Errorf("failed to load mod %d: %w", src.ModID, err)
		}
		return &mod, nil
	}

	if candidate := slug.Make(r.Slug); candidate != "" {
		var mod db.Mod
		err := s.DB.Where("slug = ?", candidate).First(&mod).Error
		if err == nil {
			return &mod, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("failed slug lookup for %q: %w", candidate, err)
		}
	}

	if r.Name != "" {
		var mod db.Mod
		err := s.DB.Where("name = ?", r.Name).First(&mod).Error
		if err == nil {
			return &mod, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("failed name lookup for %q: %w", r.Name, err)
		}
	}

	return nil, nil
}

func (r *Result) hasPlatform(p platform.Platform) bool {
	switch p {
	case platform.Modrinth:
		return r.HasModrinth
	case platform.CurseForge:
		return r.HasCurseForge
	}
	return false
}

func addSource(r *Result, rec normalize.Record, p platform.Platform) {
	r.Sources = append(r.Sources, ResultSource{
		Platform:   p.String(),
		ExternalID: rec.ExternalID,
		Slug:       rec.ExternalSlug,
		ProjectURL: rec.ProjectURL,
		Downloads:  rec.Downloads,
	})
	r.TotalDownloads += rec.Downloads
	switch p {
	case platform.Modrinth:
		r.HasModrinth = true
	case platform.CurseForge:
		r.HasCurseForge = true
	}
}

// appendCategories unions platform-native category tags, preserving order.
func appendCategories(existing, incoming []string) []string {
	seen := make(map[string]struct{}, len(existing)+len(incoming))
	for _, c := range existing {
		seen[strings.ToLower(c)] = struct{}{}
	}
	for _, c := range incoming {
		if _, dup := seen[strings.ToLower(c)]; dup {
			continue
		}
		seen[strings.ToLower(c)] = struct{}{}
		existing = append(existing, c)
	}
	return existing
}

func ingestPayload(r Result) jobs.IngestPayload {
	platforms := make([]string, 0, len(r.Sources))
	for _, rs := range r.Sources {
		platforms = append(platforms, rs.Platform)
	}
	primary := ResultSource{}
	if len(r.Sources) > 0 {
		primary = r.Sources[0]
	}
	modSlug := r.Slug
	if modSlug == "" {
		modSlug = r.Name
	}
	return jobs.IngestPayload{
		Name:       r.Name,
		Slug:       modSlug,
		Summary:    r.Summary,
		Author:     r.Author,
		IconURL:    r.IconURL,
		ProjectURL: r.ProjectURL,
		ExternalID: primary.ExternalID,
		Downloads:  primary.Downloads,
		Platforms:  platforms,
	}
}
