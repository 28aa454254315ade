package projections

import (
	"context"
	"errors"
	"testing"
	"time"

	domainLead "innercircle/internal/domain/lead"
	domainRecipe "innercircle/internal/domain/recipe"
)

// TestQueryAdminOverview verifies all parts are loaded and stats are derived.
func TestQueryAdminOverview(t *testing.T) {
	leads := &mockLeadStore{leads: []domainLead.Lead{
		{ID: "l1", Status: domainLead.StatusNew},
		{ID: "l2", Status: domainLead.StatusApproved},
		{ID: "l3", Status: ""},
	}}
	recipes := &mockRecipeStore{
		recipes: []domainRecipe.Recipe{{ID: "r1", Title: "Protein Pancakes"}},
		downloads: []domainRecipe.Download{
			{ID: "d1", RecipeID: "r1", Source: "recipe_page", DownloadedAt: fixedTime.Add(-time.Hour)},
			{ID: "d2", RecipeID: "r1", Source: "instagram", DownloadedAt: fixedTime.AddDate(0, 0, -3)},
			{ID: "d3", RecipeID: "r1", Source: "recipe_page", DownloadedAt: fixedTime.AddDate(0, 0, -60)},
		},
	}

	got, err := QueryAdminOverview(context.Background(), AdminOverviewDeps{
		LeadStore: leads, RecipeStore: recipes, Now: fixedNow,
	})
	if err != nil {
		t.Fatalf("QueryAdminOverview: %v", err)
	}
	if len(got.Leads) != 3 || len(got.Recipes) != 1 || len(got.Downloads) != 3 {
		t.Errorf("unexpected sizes: %d leads, %d recipes, %d downloads", len(got.Leads), len(got.Recipes), len(got.Downloads))
	}
	if got.LeadStats.Total != 3 || got.LeadStats.New != 2 || got.LeadStats.Approved != 1 {
		t.Errorf("unexpected lead stats: %+v", got.LeadStats)
	}
	ds := got.DownloadStats
	if ds.Total != 3 || ds.Today != 1 || ds.ThisWeek != 2 || ds.ThisMonth != 2 {
		t.Errorf("unexpected download stats: %+v", ds)
	}
	if ds.BySource["recipe_page"] != 2 {
		t.Errorf("BySource = %v", ds.BySource)
	}
}

// TestQueryAdminOverview_Error verifies a failing part fails the whole overview.
func TestQueryAdminOverview_Error(t *testing.T) {
	_, err := QueryAdminOverview(context.Background(), AdminOverviewDeps{
		LeadStore:   &mockLeadStore{statusErr: errStoreDown},
		RecipeStore: &mockRecipeStore{},
		Now:         fixedNow,
	})
	if !errors.Is(err, errStoreDown) {
		t.Errorf("expected errStoreDown, got %v", err)
	}
}
