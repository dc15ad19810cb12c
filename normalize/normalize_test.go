package normalize

import (
	"reflect"
	"testing"
	"time"
)

func TestFromModrinth(t *testing.T) {
	tests := []struct {
		name    string
		payload map[string]any
		check   func(t *testing.T, rec Record)
	}{
		{
			"search hit with no loader tag",
			map[string]any{
				"project_id": "abc",
				"slug":       "jei",
				"title":      "Just Enough Items",
				"downloads":  float64(5000000),
				"categories": []any{"utility"},
			},
			func(t *testing.T, rec Record) {
				if rec.ExternalID != "abc" {
					t.Errorf("ExternalID = %q, want abc", rec.ExternalID)
				}
				if rec.Name != "Just Enough Items" {
					t.Errorf("Name = %q, want Just Enough Items", rec.Name)
				}
				if rec.Downloads != 5000000 {
					t.Errorf("Downloads = %d, want 5000000", rec.Downloads)
				}
				if len(rec.Loaders) != 0 {
					t.Errorf("Loaders = %v, want empty", rec.Loaders)
				}
				if !reflect.DeepEqual(rec.Categories, []string{"utility"}) {
					t.Errorf("Categories = %v, want [utility]", rec.Categories)
				}
				if !rec.Valid() {
					t.Error("record should be valid")
				}
			},
		},
		{
			"loader tags split from categories",
			map[string]any{
				"project_id": "xyz",
				"slug":       "sodium",
				"title":      "Sodium",
				"categories": []any{"fabric", "optimization", "Quilt"},
			},
			func(t *testing.T, rec Record) {
				if !reflect.DeepEqual(rec.Loaders, []string{"fabric", "quilt"}) {
					t.Errorf("Loaders = %v, want [fabric quilt]", rec.Loaders)
				}
				if !reflect.DeepEqual(rec.Categories, []string{"optimization"}) {
					t.Errorf("Categories = %v, want [optimization]", rec.Categories)
				}
			},
		},
		{
			"project detail uses id and updated keys",
			map[string]any{
				"id":      "P7dR8mSH",
				"slug":    "fabric-api",
				"title":   "Fabric API",
				"updated": "2024-03-01T12:00:00Z",
				"loaders": []any{"fabric"},
			},
			func(t *testing.T, rec Record) {
				if rec.ExternalID != "P7dR8mSH" {
					t.Errorf("ExternalID = %q, want P7dR8mSH", rec.ExternalID)
				}
				want := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
				if rec.LastUpdated == nil || !rec.LastUpdated.Equal(want) {
					t.Errorf("LastUpdated = %v, want %v", rec.LastUpdated, want)
				}
				if !reflect.DeepEqual(rec.Loaders, []string{"fabric"}) {
					t.Errorf("Loaders = %v, want [fabric]", rec.Loaders)
				}
			},
		},
		{
			"project url derived from slug",
			map[string]any{
				"project_id": "abc",
				"slug":       "jei",
				"title":      "JEI",
			},
			func(t *testing.T, rec Record) {
				if rec.ProjectURL != "https://modrinth.com/mod/jei" {
					t.Errorf("ProjectURL = %q", rec.ProjectURL)
				}
			},
		},
		{
			"missing name makes record invalid but does not panic",
			map[string]any{"project_id": "abc"},
			func(t *testing.T, rec Record) {
				if rec.Valid() {
					t.Error("record without name should be invalid")
				}
			},
		},
		{
			"malformed field types are tolerated",
			map[string]any{
				"project_id": float64(12345),
				"title":      "Weird",
				"downloads":  "9001",
				"categories": "not-a-list",
			},
			func(t *testing.T, rec Record) {
				if rec.ExternalID != "12345" {
					t.Errorf("ExternalID = %q, want 12345", rec.ExternalID)
				}
				if rec.Downloads != 9001 {
					t.Errorf("Downloads = %d, want 9001", rec.Downloads)
				}
			},
		},
		{
			"nil payload",
			nil,
			func(t *testing.T, rec Record) {
				if rec.Valid() {
					t.Error("nil payload should normalize to invalid record")
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, FromModrinth(tt.payload))
		})
	}
}

func TestFromCurseForge(t *testing.T) {
	tests := []struct {
		name    string
		payload map[string]any
		check   func(t *testing.T, rec Record)
	}{
		{
			"full mod payload",
			map[string]any{
				"id":            float64(238222),
				"slug":          "jei",
				"name":          "Just Enough Items",
				"summary":       "View items and recipes",
				"downloadCount": float64(2000000),
				"authors":       []any{map[string]any{"name": "mezz"}},
				"logo":          map[string]any{"thumbnailUrl": "https://example.com/jei.png"},
				"links":         map[string]any{"websiteUrl": "https://www.curseforge.com/minecraft/mc-mods/jei"},
				"latestFilesIndexes": []any{
					map[string]any{"gameVersion": "1.20.1", "modLoader": float64(1)},
					map[string]any{"gameVersion": "1.20.1", "modLoader": float64(6)},
				},
				"categories":   []any{map[string]any{"name": "Utility"}},
				"dateModified": "2024-05-10T08:30:00Z",
			},
			func(t *testing.T, rec Record) {
				if rec.ExternalID != "238222" {
					t.Errorf("ExternalID = %q, want 238222", rec.ExternalID)
				}
				if rec.Author != "mezz" {
					t.Errorf("Author = %q, want mezz", rec.Author)
				}
				if rec.IconURL != "https://example.com/jei.png" {
					t.Errorf("IconURL = %q", rec.IconURL)
				}
				if !reflect.DeepEqual(rec.GameVersions, []string{"1.20.1"}) {
					t.Errorf("GameVersions = %v", rec.GameVersions)
				}
				if !reflect.DeepEqual(rec.Loaders, []string{"forge", "neoforge"}) {
					t.Errorf("Loaders = %v, want [forge neoforge]", rec.Loaders)
				}
				if !reflect.DeepEqual(rec.Categories, []string{"Utility"}) {
					t.Errorf("Categories = %v", rec.Categories)
				}
			},
		},
		{
			"unknown loader ids are dropped",
			map[string]any{
				"id":   float64(1),
				"name": "Thing",
				"latestFilesIndexes": []any{
					map[string]any{"gameVersion": "1.19", "modLoader": float64(99)},
				},
			},
			func(t *testing.T, rec Record) {
				if len(rec.Loaders) != 0 {
					t.Errorf("Loaders = %v, want empty", rec.Loaders)
				}
			},
		},
		{
			"project url derived from slug when links missing",
			map[string]any{
				"id":   float64(2),
				"slug": "sodium",
				"name": "Sodium",
			},
			func(t *testing.T, rec Record) {
				if rec.ProjectURL != "https://www.curseforge.com/minecraft/mc-mods/sodium" {
					t.Errorf("ProjectURL = %q", rec.ProjectURL)
				}
			},
		},
		{
			"missing id makes record invalid",
			map[string]any{"name": "No ID"},
			func(t *testing.T, rec Record) {
				if rec.Valid() {
					t.Error("record without id should be invalid")
				}
			},
		},
		{
			"nil payload",
			nil,
			func(t *testing.T, rec Record) {
				if rec.Valid() {
					t.Error("nil payload should normalize to invalid record")
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, FromCurseForge(tt.payload))
		})
	}
}
