package projections

import (
	"testing"
	"time"

	"innercircle/internal/application/listutil"
	domainLead "innercircle/internal/domain/lead"
	domainRecipe "innercircle/internal/domain/recipe"
)

func testLeads() []domainLead.Lead {
	return []domainLead.Lead{
		{ID: "l3", Name: "Zoë Bauer", Email: "zoe@example.de", Phone: "0171", Status: domainLead.StatusApproved, CreatedAt: fixedTime},
		{ID: "l2", Name: "anna Schmidt", Email: "anna@example.de", Phone: "0172", Status: domainLead.StatusNew, CreatedAt: fixedTime.Add(-time.Hour)},
		{ID: "l1", Name: "Max Müller", Email: "max@example.de", Phone: "0173 999", Status: "", CreatedAt: fixedTime.Add(-2 * time.Hour)},
	}
}

func leadIDs(leads []domainLead.Lead) []string {
	out := make([]string, len(leads))
	for i, l := range leads {
		out[i] = l.ID
	}
	return out
}

// TestFilterLeads verifies search, status filter and sort.
func TestFilterLeads(t *testing.T) {
	tests := []struct {
		name   string
		params listutil.ListParams
		want   []string
	}{
		{
			name:   "default sort newest first",
			params: listutil.ListParams{SortParams: listutil.SortParams{Sort: "created_at", Dir: listutil.Desc}},
			want:   []string{"l3", "l2", "l1"},
		},
		{
			name:   "empty status counts as new",
			params: listutil.ListParams{FilterParams: listutil.FilterParams{Filters: map[string]string{"status": domainLead.StatusNew}}, SortParams: listutil.SortParams{Sort: "created_at", Dir: listutil.Desc}},
			want:   []string{"l2", "l1"},
		},
		{
			name:   "search is case-insensitive",
			params: listutil.ListParams{FilterParams: listutil.FilterParams{Search: "MÜLLER"}},
			want:   []string{"l1"},
		},
		{
			name:   "search matches phone",
			params: listutil.ListParams{FilterParams: listutil.FilterParams{Search: "999"}},
			want:   []string{"l1"},
		},
		{
			name:   "name ascending",
			params: listutil.ListParams{SortParams: listutil.SortParams{Sort: "name", Dir: listutil.Asc}},
			want:   []string{"l2", "l1", "l3"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := leadIDs(FilterLeads(testLeads(), tt.params))
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("got %v, want %v", got, tt.want)
				}
			}
		})
	}
}

// TestQueryLeadList_Paginates verifies page slicing and page info.
func TestQueryLeadList_Paginates(t *testing.T) {
	var leads []domainLead.Lead
	for i := 0; i < 60; i++ {
		leads = append(leads, domainLead.Lead{ID: string(rune('a' + i%26)), CreatedAt: fixedTime.Add(-time.Duration(i) * time.Minute)})
	}
	params := listutil.ListParams{
		PageParams: listutil.PageParams{Page: 2, PerPage: 50},
		SortParams: listutil.SortParams{Sort: "created_at", Dir: listutil.Desc},
	}
	got := QueryLeadList(leads, params)
	if got.Page.Total != 60 || got.Page.TotalPages != 2 {
		t.Errorf("unexpected page info: %+v", got.Page)
	}
	if len(got.Leads) != 10 {
		t.Errorf("page 2 has %d leads, want 10", len(got.Leads))
	}
}

// TestQueryDownloadList verifies recipe filter and title resolution.
func TestQueryDownloadList(t *testing.T) {
	downloads := []domainRecipe.Download{
		{ID: "d1", RecipeID: "r1", Name: "Lena", Email: "lena@example.de", DownloadedAt: fixedTime},
		{ID: "d2", RecipeID: "r2", Name: "Jonas", Email: "jonas@example.de", DownloadedAt: fixedTime.Add(-time.Hour)},
		{ID: "d3", RecipeID: "gone", Name: "Mia", Email: "mia@example.de", DownloadedAt: fixedTime.Add(-2 * time.Hour)},
	}
	titles := map[string]string{"r1": "Overnight Oats", "r2": "Power Bowl"}

	params := listutil.ListParams{
		PageParams:   listutil.PageParams{Page: 1, PerPage: 50},
		FilterParams: listutil.FilterParams{Filters: map[string]string{"recipe": "r2"}},
	}
	got := QueryDownloadList(downloads, titles, params)
	if len(got.Rows) != 1 || got.Rows[0].ID != "d2" || got.Rows[0].RecipeTitle != "Power Bowl" {
		t.Errorf("unexpected rows: %+v", got.Rows)
	}

	params.Filters = nil
	params.Search = "mia"
	got = QueryDownloadList(downloads, titles, params)
	if len(got.Rows) != 1 || got.Rows[0].RecipeTitle != "" {
		t.Errorf("unknown recipe should leave title empty: %+v", got.Rows)
	}
}
