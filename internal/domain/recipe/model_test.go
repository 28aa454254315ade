package recipe

import (
	"strings"
	"testing"
	"time"
)

// TestRecipe_Validate tests validation of Recipe.
func TestRecipe_Validate(t *testing.T) {
	valid := Recipe{Title: "Protein Pancakes", FileURL: "https://cdn.example.de/pancakes.pdf", FileName: "pancakes.pdf", FileSize: 1024}
	if err := valid.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tests := []struct {
		name    string
		mutate  func(r *Recipe)
		wantErr error
	}{
		{"empty title", func(r *Recipe) { r.Title = "" }, ErrEmptyTitle},
		{"empty url", func(r *Recipe) { r.FileURL = " " }, ErrEmptyFileURL},
		{"empty file name", func(r *Recipe) { r.FileName = "" }, ErrEmptyFileName},
		{"negative size", func(r *Recipe) { r.FileSize = -1 }, ErrNegativeFileSize},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := valid
			tt.mutate(&r)
			if err := r.Validate(); err != tt.wantErr {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

// TestDownload_Validate verifies required fields and the default source.
func TestDownload_Validate(t *testing.T) {
	d := Download{RecipeID: "r1", Name: "Lisa", Email: "lisa@example.de"}
	if err := d.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Source != SourceRecipePage {
		t.Errorf("Source = %q, want %q", d.Source, SourceRecipePage)
	}

	tests := []struct {
		name    string
		mutate  func(d *Download)
		wantErr error
	}{
		{"no recipe", func(d *Download) { d.RecipeID = "" }, ErrEmptyRecipeID},
		{"no name", func(d *Download) { d.Name = " " }, ErrEmptyName},
		{"no email", func(d *Download) { d.Email = "" }, ErrEmptyEmail},
		{"email without at", func(d *Download) { d.Email = "lisa" }, ErrInvalidEmail},
		{"long name", func(d *Download) { d.Name = strings.Repeat("a", MaxNameLength+1) }, ErrNameTooLong},
		{"long email", func(d *Download) { d.Email = strings.Repeat("a", MaxEmailLength) + "@x.de" }, ErrEmailTooLong},
		{"long referrer", func(d *Download) { d.Referrer = strings.Repeat("r", MaxURLLength+1) }, ErrURLTooLong},
		{"long source", func(d *Download) { d.Source = strings.Repeat("s", MaxSourceLength+1) }, ErrSourceTooLong},
		{"long utm campaign", func(d *Download) { d.UTMCampaign = strings.Repeat("c", MaxSourceLength+1) }, ErrSourceTooLong},
		{"long user agent", func(d *Download) { d.UserAgent = strings.Repeat("u", MaxUserAgentLength+1) }, ErrUserAgentTooLong},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bad := Download{RecipeID: "r1", Name: "Lisa", Email: "lisa@example.de", UserAgent: "Mozilla/5.0"}
			tt.mutate(&bad)
			if err := bad.Validate(); err != tt.wantErr {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}

	edge := Download{
		RecipeID: "r1", Name: strings.Repeat("a", MaxNameLength), Email: "lisa@example.de",
		Source: strings.Repeat("s", MaxSourceLength), UserAgent: strings.Repeat("u", MaxUserAgentLength),
	}
	if err := edge.Validate(); err != nil {
		t.Errorf("values at the limit rejected: %v", err)
	}
}

// TestComputeDownloadStats verifies the today/week/month windows and source tally.
func TestComputeDownloadStats(t *testing.T) {
	loc := time.FixedZone("CEST", 2*3600)
	now := time.Date(2025, 8, 10, 15, 0, 0, 0, loc)
	midnight := time.Date(2025, 8, 10, 0, 0, 0, 0, loc)

	stamps := []DownloadStamp{
		{DownloadedAt: now.Add(-time.Hour), Source: SourceRecipePage},
		{DownloadedAt: midnight, Source: SourceRecipePage},
		{DownloadedAt: midnight.Add(-time.Minute), Source: "instagram"},
		{DownloadedAt: midnight.AddDate(0, 0, -7), Source: "instagram"},
		{DownloadedAt: midnight.AddDate(0, 0, -8), Source: SourceRecipePage},
		{DownloadedAt: midnight.AddDate(0, 0, -30), Source: "newsletter"},
		{DownloadedAt: midnight.AddDate(0, 0, -31), Source: "newsletter"},
	}
	got := ComputeDownloadStats(stamps, now)

	if got.Total != 7 {
		t.Errorf("Total = %d, want 7", got.Total)
	}
	if got.Today != 2 {
		t.Errorf("Today = %d, want 2", got.Today)
	}
	if got.ThisWeek != 4 {
		t.Errorf("ThisWeek = %d, want 4", got.ThisWeek)
	}
	if got.ThisMonth != 6 {
		t.Errorf("ThisMonth = %d, want 6", got.ThisMonth)
	}
	if got.BySource[SourceRecipePage] != 3 || got.BySource["instagram"] != 2 || got.BySource["newsletter"] != 2 {
		t.Errorf("BySource = %v", got.BySource)
	}

	sorted := got.SortedSources()
	if len(sorted) != 3 || sorted[0].Source != SourceRecipePage || sorted[1].Source != "instagram" {
		t.Errorf("SortedSources() = %v", sorted)
	}
}

// TestComputeDownloadStats_Empty verifies an empty input yields zero counts.
func TestComputeDownloadStats_Empty(t *testing.T) {
	got := ComputeDownloadStats(nil, time.Now())
	if got.Total != 0 || got.Today != 0 || len(got.BySource) != 0 {
		t.Errorf("expected zero stats, got %+v", got)
	}
}
