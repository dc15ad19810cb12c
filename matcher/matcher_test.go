package matcher

import (
	"path/filepath"
	"testing"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"mod-aggregator/db"
	"mod-aggregator/normalize"
	"mod-aggregator/platform"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	gdb, err := db.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	return gdb
}

func testMatcher(t *testing.T) *Matcher {
	t.Helper()
	return New(testDB(t), zap.NewNop().Sugar())
}

func TestFindOrCreateModCreatesThenReuses(t *testing.T) {
	m := testMatcher(t)

	rec := normalize.Record{
		ExternalID:   "abc",
		ExternalSlug: "jei",
		Name:         "Just Enough Items",
	}

	created, isNew, err := m.FindOrCreateMod(rec, platform.Modrinth)
	if err != nil {
		t.Fatalf("FindOrCreateMod failed: %v", err)
	}
	if !isNew {
		t.Error("first resolve should report a created mod")
	}
	if created.Slug != "jei" {
		t.Errorf("Slug = %q, want jei", created.Slug)
	}

	// Register the source the way a sync would, then resolve again: the
	// (platform, external_id) path must win and return the same mod.
	if err := db.UpsertSource(m.DB, &db.ModSource{
		ModID:      created.ID,
		Platform:   platform.Modrinth.String(),
		ExternalID: "abc",
	}); err != nil {
		t.Fatalf("UpsertSource failed: %v", err)
	}

	again, isNew, err := m.FindOrCreateMod(rec, platform.Modrinth)
	if err != nil {
		t.Fatalf("FindOrCreateMod (second run) failed: %v", err)
	}
	if isNew {
		t.Error("second resolve should not report a created mod")
	}
	if again.ID != created.ID {
		t.Errorf("second resolve created a new mod: %d != %d", again.ID, created.ID)
	}

	var count int64
	m.DB.Model(&db.Mod{}).Count(&count)
	if count != 1 {
		t.Errorf("mod count = %d, want 1", count)
	}
}

func TestSlugMatchHasPriorityOverNameMatch(t *testing.T) {
	m := testMatcher(t)

	slugMod := db.Mod{Slug: "jei", Name: "JEI Reborn"}
	nameMod := db.Mod{Slug: "something-else", Name: "Just Enough Items"}
	if err := m.DB.Create(&slugMod).Error; err != nil {
		t.Fatal(err)
	}
	if err := m.DB.Create(&nameMod).Error; err != nil {
		t.Fatal(err)
	}

	rec := normalize.Record{
		ExternalID:   "x1",
		ExternalSlug: "jei",
		Name:         "Just Enough Items", // exact name match on a different mod
	}
	got, _, err := m.FindOrCreateMod(rec, platform.CurseForge)
	if err != nil {
		t.Fatalf("FindOrCreateMod failed: %v", err)
	}
	if got.ID != slugMod.ID {
		t.Errorf("matched mod %d, want slug-matched mod %d", got.ID, slugMod.ID)
	}
}

func TestSlugContainmentMatch(t *testing.T) {
	m := testMatcher(t)

	existing := db.Mod{Slug: "jei-unofficial", Name: "JEI Unofficial"}
	if err := m.DB.Create(&existing).Error; err != nil {
		t.Fatal(err)
	}

	rec := normalize.Record{ExternalID: "x2", ExternalSlug: "jei", Name: "JEI"}
	got, _, err := m.FindOrCreateMod(rec, platform.CurseForge)
	if err != nil {
		t.Fatalf("FindOrCreateMod failed: %v", err)
	}
	if got.ID != existing.ID {
		t.Errorf("matched mod %d, want containment-matched mod %d", got.ID, existing.ID)
	}
}

func TestExactNameMatchIsCaseSensitive(t *testing.T) {
	m := testMatcher(t)

	existing := db.Mod{Slug: "sodium", Name: "Sodium"}
	if err := m.DB.Create(&existing).Error; err != nil {
		t.Fatal(err)
	}

	rec := normalize.Record{ExternalID: "x3", ExternalSlug: "totally-different", Name: "SODIUM"}
	got, _, err := m.FindOrCreateMod(rec, platform.CurseForge)
	if err != nil {
		t.Fatalf("FindOrCreateMod failed: %v", err)
	}
	if got.ID == existing.ID {
		t.Error("case-insensitive name should not match on the persistence path")
	}
}

func TestGenerateSlugDeduplicates(t *testing.T) {
	m := testMatcher(t)

	for _, s := range []string{"jei", "jei-1"} {
		if err := m.DB.Create(&db.Mod{Slug: s, Name: s}).Error; err != nil {
			t.Fatal(err)
		}
	}

	got, err := m.generateSlug("jei")
	if err != nil {
		t.Fatalf("generateSlug failed: %v", err)
	}
	if got != "jei-2" {
		t.Errorf("generateSlug = %q, want jei-2", got)
	}
}

func TestGenerateSlugEmptyFallsBackToRandom(t *testing.T) {
	m := testMatcher(t)

	got, err := m.generateSlug("")
	if err != nil {
		t.Fatalf("generateSlug failed: %v", err)
	}
	if got == "" {
		t.Error("expected a random slug, got empty string")
	}
}

func TestIsSameMod(t *testing.T) {
	tests := []struct {
		name string
		a, b normalize.Record
		want bool
	}{
		{
			"equal slugs",
			normalize.Record{ExternalSlug: "jei", Name: "JEI"},
			normalize.Record{ExternalSlug: "JEI", Name: "Just Enough Items"},
			true,
		},
		{
			"case-insensitive name equality",
			normalize.Record{ExternalSlug: "a", Name: "Just Enough Items"},
			normalize.Record{ExternalSlug: "b", Name: "just enough items"},
			true,
		},
		{
			"similar names with matching author",
			normalize.Record{ExternalSlug: "a", Name: "Just Enough Items", Author: "mezz"},
			normalize.Record{ExternalSlug: "b", Name: "Just Enough Items!", Author: "Mezz"},
			true,
		},
		{
			"similar names with different authors",
			normalize.Record{ExternalSlug: "a", Name: "Just Enough Items", Author: "mezz"},
			normalize.Record{ExternalSlug: "b", Name: "Just Enough Items!", Author: "someone"},
			false,
		},
		{
			"unrelated records",
			normalize.Record{ExternalSlug: "jei", Name: "Just Enough Items"},
			normalize.Record{ExternalSlug: "sodium", Name: "Sodium"},
			false,
		},
		{
			"empty names never fuzzy-match",
			normalize.Record{ExternalSlug: "a"},
			normalize.Record{ExternalSlug: "b"},
			false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsSameMod(tt.a, tt.b); got != tt.want {
				t.Errorf("IsSameMod = %v, want %v", got, tt.want)
			}
			// The heuristic must be symmetric.
			if got := IsSameMod(tt.b, tt.a); got != tt.want {
				t.Errorf("IsSameMod (reversed) = %v, want %v", got, tt.want)
			}
		})
	}
}
