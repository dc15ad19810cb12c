package jobs

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"mod-aggregator/db"
	"mod-aggregator/matcher"
	"mod-aggregator/normalize"
	"mod-aggregator/platform"
	"mod-aggregator/source"
)

// fakeClient serves canned payloads in place of a platform API.
type fakeClient struct {
	popular    []map[string]any
	projects   map[string]map[string]any
	searchHits []map[string]any
	err        error
}

func (f *fakeClient) Search(ctx context.Context, query string, limit int) ([]map[string]any, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.searchHits, nil
}

func (f *fakeClient) GetProject(ctx context.Context, externalID string) (map[string]any, error) {
	if f.err != nil {
		return nil, f.err
	}
	p, ok := f.projects[externalID]
	if !ok {
		return nil, errors.New("project not found")
	}
	return p, nil
}

func (f *fakeClient) GetProjects(ctx context.Context, externalIDs []string) ([]map[string]any, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []map[string]any
	for _, id := range externalIDs {
		if p, ok := f.projects[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeClient) GetPopular(ctx context.Context, limit int) ([]map[string]any, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.popular, nil
}

func testRunner(t *testing.T, modrinth, curseforge *fakeClient) *Runner {
	t.Helper()
	gdb, err := db.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)

	log := zap.NewNop().Sugar()
	reg := source.NewRegistry(
		source.Source{Platform: platform.Modrinth, Client: modrinth, Normalize: normalize.FromModrinth},
		source.Source{Platform: platform.CurseForge, Client: curseforge, Normalize: normalize.FromCurseForge},
	)
	return NewRunner(gdb, reg, matcher.New(gdb, log), log, 24*time.Hour)
}

func modrinthHit(id, slug, title string, downloads int) map[string]any {
	return map[string]any{
		"project_id":  id,
		"slug":        slug,
		"title":       title,
		"description": "a mod",
		"author":      "someone",
		"downloads":   float64(downloads),
		"categories":  []any{"utility", "fabric"},
	}
}

func curseforgeHit(id int, slug, name string, downloads int) map[string]any {
	return map[string]any{
		"id":            float64(id),
		"slug":          slug,
		"name":          name,
		"summary":       "a mod",
		"downloadCount": float64(downloads),
		"authors":       []any{map[string]any{"name": "someone"}},
		"categories":    []any{map[string]any{"name": "Map and Information"}},
	}
}

func TestSyncPlatformCreatesThenUpdates(t *testing.T) {
	mr := &fakeClient{popular: []map[string]any{
		modrinthHit("abc", "jei", "Just Enough Items", 5_000_000),
		modrinthHit("def", "sodium", "Sodium", 9_000_000),
	}}
	r := testRunner(t, mr, &fakeClient{})
	ctx := context.Background()

	require.NoError(t, r.SyncPlatform(ctx, platform.Modrinth, 50))

	var mods []db.Mod
	require.NoError(t, r.DB.Preload("Sources").Preload("Categories").Find(&mods).Error)
	require.Len(t, mods, 2)

	jei, err := db.FindModBySlug(r.DB, "jei")
	require.NoError(t, err)
	assert.Equal(t, "Just Enough Items", jei.Name)
	assert.Equal(t, int64(5_000_000), jei.TotalDownloads)
	assert.True(t, jei.HasPlatform("modrinth"))
	assert.NotNil(t, jei.LastSyncedAt)
	assert.Equal(t, []string{"Utility"}, jei.CategoryNames())
	require.Len(t, jei.Sources, 1)
	assert.Equal(t, []string{"fabric"}, jei.Sources[0].Loaders)

	// Second run over the same listing must update in place, not duplicate.
	mr.popular[0]["downloads"] = float64(5_100_000)
	require.NoError(t, r.SyncPlatform(ctx, platform.Modrinth, 50))

	var modCount, srcCount int64
	require.NoError(t, r.DB.Model(&db.Mod{}).Count(&modCount).Error)
	require.NoError(t, r.DB.Model(&db.ModSource{}).Count(&srcCount).Error)
	assert.Equal(t, int64(2), modCount)
	assert.Equal(t, int64(2), srcCount)

	jei, err = db.FindModBySlug(r.DB, "jei")
	require.NoError(t, err)
	assert.Equal(t, int64(5_100_000), jei.TotalDownloads)

	var logs []db.SyncLog
	require.NoError(t, r.DB.Order("id").Find(&logs).Error)
	require.Len(t, logs, 2)
	assert.Equal(t, db.SyncStatusCompleted, logs[0].Status)
	assert.Equal(t, 2, logs[0].ModsSynced)
	assert.Equal(t, 2, logs[0].ModsCreated)
	assert.Equal(t, 0, logs[0].ModsUpdated)
	assert.Equal(t, 0, logs[1].ModsCreated)
	assert.Equal(t, 2, logs[1].ModsUpdated)
	assert.NotNil(t, logs[0].CompletedAt)
}

func TestSyncPlatformMergesAcrossPlatforms(t *testing.T) {
	mr := &fakeClient{popular: []map[string]any{
		modrinthHit("abc", "jei", "Just Enough Items", 5_000_000),
	}}
	cf := &fakeClient{popular: []map[string]any{
		curseforgeHit(238222, "jei", "Just Enough Items", 2_000_000),
	}}
	r := testRunner(t, mr, cf)
	ctx := context.Background()

	require.NoError(t, r.SyncPlatform(ctx, platform.Modrinth, 50))
	require.NoError(t, r.SyncPlatform(ctx, platform.CurseForge, 50))

	var modCount int64
	require.NoError(t, r.DB.Model(&db.Mod{}).Count(&modCount).Error)
	assert.Equal(t, int64(1), modCount)

	jei, err := db.FindModBySlug(r.DB, "jei")
	require.NoError(t, err)
	assert.Equal(t, int64(7_000_000), jei.TotalDownloads)
	assert.True(t, jei.HasPlatform("modrinth"))
	assert.True(t, jei.HasPlatform("curseforge"))
	require.Len(t, jei.Sources, 2)
}

func TestSyncPlatformSkipsInvalidRecords(t *testing.T) {
	mr := &fakeClient{popular: []map[string]any{
		{"slug": "nameless", "downloads": float64(10)}, // no id, no title
		modrinthHit("abc", "jei", "Just Enough Items", 5_000_000),
	}}
	r := testRunner(t, mr, &fakeClient{})

	require.NoError(t, r.SyncPlatform(context.Background(), platform.Modrinth, 50))

	var logs []db.SyncLog
	require.NoError(t, r.DB.Find(&logs).Error)
	require.Len(t, logs, 1)
	assert.Equal(t, 1, logs[0].ModsSynced)
	assert.Equal(t, 1, logs[0].ModsCreated)
}

func TestSyncPlatformFetchFailure(t *testing.T) {
	mr := &fakeClient{err: errors.New("upstream down")}
	r := testRunner(t, mr, &fakeClient{})

	err := r.SyncPlatform(context.Background(), platform.Modrinth, 50)
	require.Error(t, err)

	var logs []db.SyncLog
	require.NoError(t, r.DB.Find(&logs).Error)
	require.Len(t, logs, 1)
	assert.Equal(t, db.SyncStatusFailed, logs[0].Status)
	assert.Contains(t, logs[0].Error, "upstream down")
	assert.NotNil(t, logs[0].CompletedAt)
}

func TestRefreshModPartialFailure(t *testing.T) {
	mr := &fakeClient{
		popular: []map[string]any{modrinthHit("abc", "jei", "Just Enough Items", 5_000_000)},
		projects: map[string]map[string]any{
			"abc": modrinthHit("abc", "jei", "Just Enough Items", 5_500_000),
		},
	}
	cf := &fakeClient{
		popular: []map[string]any{curseforgeHit(238222, "jei", "Just Enough Items", 2_000_000)},
	}
	r := testRunner(t, mr, cf)
	ctx := context.Background()

	require.NoError(t, r.SyncPlatform(ctx, platform.Modrinth, 50))
	require.NoError(t, r.SyncPlatform(ctx, platform.CurseForge, 50))

	jei, err := db.FindModBySlug(r.DB, "jei")
	require.NoError(t, err)

	// CurseForge refuses to answer; the refresh must still succeed on the
	// modrinth side and keep the aggregates coherent.
	cf.err = errors.New("rate limited")
	require.NoError(t, r.RefreshMod(ctx, jei.ID))

	jei, err = db.FindModBySlug(r.DB, "jei")
	require.NoError(t, err)
	assert.Equal(t, int64(7_500_000), jei.TotalDownloads)
	assert.NotNil(t, jei.LastSyncedAt)
}

func TestRefreshModAllPlatformsFail(t *testing.T) {
	mr := &fakeClient{
		popular: []map[string]any{modrinthHit("abc", "jei", "Just Enough Items", 5_000_000)},
	}
	r := testRunner(t, mr, &fakeClient{})
	ctx := context.Background()

	require.NoError(t, r.SyncPlatform(ctx, platform.Modrinth, 50))
	jei, err := db.FindModBySlug(r.DB, "jei")
	require.NoError(t, err)

	mr.err = errors.New("upstream down")
	require.Error(t, r.RefreshMod(ctx, jei.ID))
}

func TestIngestMod(t *testing.T) {
	r := testRunner(t, &fakeClient{}, &fakeClient{})
	ctx := context.Background()

	payload := IngestPayload{
		Name:       "Sodium",
		Slug:       "sodium",
		Summary:    "rendering engine",
		Author:     "jellysquid",
		ProjectURL: "https://modrinth.com/mod/sodium",
		ExternalID: "AANobbMI",
		Downloads:  9_000_000,
	}
	require.NoError(t, r.IngestMod(ctx, payload))

	mod, err := db.FindModBySlug(r.DB, "sodium")
	require.NoError(t, err)
	assert.Equal(t, "Sodium", mod.Name)
	assert.Equal(t, int64(9_000_000), mod.TotalDownloads)
	assert.True(t, mod.HasPlatform("modrinth"))
	// Summary-shaped records leave the mod stale so the next search triggers
	// a full refresh.
	assert.Nil(t, mod.LastSyncedAt)
	assert.True(t, mod.IsStale(24*time.Hour))

	// Same record again is a no-op.
	require.NoError(t, r.IngestMod(ctx, payload))
	var srcCount int64
	require.NoError(t, r.DB.Model(&db.ModSource{}).Count(&srcCount).Error)
	assert.Equal(t, int64(1), srcCount)
}

func TestIngestModDropsUnplaceable(t *testing.T) {
	r := testRunner(t, &fakeClient{}, &fakeClient{})
	ctx := context.Background()

	// No provenance at all.
	require.NoError(t, r.IngestMod(ctx, IngestPayload{
		Name: "Mystery", ExternalID: "zzz", ProjectURL: "https://example.com/mod",
	}))
	// Platform known but identity missing.
	require.NoError(t, r.IngestMod(ctx, IngestPayload{
		Name: "Mystery", ProjectURL: "https://modrinth.com/mod/mystery",
	}))

	var modCount int64
	require.NoError(t, r.DB.Model(&db.Mod{}).Count(&modCount).Error)
	assert.Equal(t, int64(0), modCount)
}

func TestIngestModExplicitPlatform(t *testing.T) {
	r := testRunner(t, &fakeClient{}, &fakeClient{})

	require.NoError(t, r.IngestMod(context.Background(), IngestPayload{
		Name:       "Create",
		Slug:       "create",
		ExternalID: "328085",
		Downloads:  1_000_000,
		Platforms:  []string{"curseforge"},
	}))

	mod, err := db.FindModBySlug(r.DB, "create")
	require.NoError(t, err)
	assert.True(t, mod.HasPlatform("curseforge"))
}
