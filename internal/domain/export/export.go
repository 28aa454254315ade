package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"time"

	"innercircle/internal/domain/lead"
	"innercircle/internal/domain/recipe"
)

// Filenames offered to the browser for each report.
const (
	LeadsFilename     = "pionier-leads-export.csv"
	DownloadsFilename = "recipe-leads-export.csv"
)

// ContentType is the MIME type of every report.
const ContentType = "text/csv; charset=utf-8"

// dateLayout renders dates the way de-DE shows them (d.m.yyyy).
const dateLayout = "2.1.2006"

// UnknownRecipe is shown when a download references a recipe that no longer exists.
const UnknownRecipe = "Unbekannt"

// LeadsHeader is the column order of the leads report.
var LeadsHeader = []string{
	"Name", "Email", "Telefon", "Status", "Quelle",
	"UTM Source", "UTM Medium", "UTM Campaign", "Angemeldet am",
}

// DownloadsHeader is the column order of the recipe downloads report.
var DownloadsHeader = []string{
	"Name", "Email", "Rezept", "Quelle",
	"UTM Source", "UTM Medium", "UTM Campaign", "Heruntergeladen am",
}

// Leads renders the leads report. One row per lead, in the given order.
// PRE: loc is the display time zone (nil means UTC)
// POST: Returns header + len(leads) records
func Leads(leads []lead.Lead, loc *time.Location) ([]byte, error) {
	rows := make([][]string, 0, len(leads)+1)
	rows = append(rows, LeadsHeader)
	for _, l := range leads {
		source := l.Source
		if source == "" {
			source = lead.SourceDirect
		}
		rows = append(rows, []string{
			l.Name,
			l.Email,
			l.Phone,
			l.EffectiveStatus(),
			source,
			l.UTMSource,
			l.UTMMedium,
			l.UTMCampaign,
			formatDate(l.CreatedAt, loc),
		})
	}
	return write(rows)
}

// Downloads renders the recipe downloads report. titles maps recipe ID to title.
// PRE: loc is the display time zone (nil means UTC)
// POST: Returns header + len(downloads) records
func Downloads(downloads []recipe.Download, titles map[string]string, loc *time.Location) ([]byte, error) {
	rows := make([][]string, 0, len(downloads)+1)
	rows = append(rows, DownloadsHeader)
	for _, d := range downloads {
		title, ok := titles[d.RecipeID]
		if !ok || title == "" {
			title = UnknownRecipe
		}
		source := d.Source
		if source == "" {
			source = recipe.SourceRecipePage
		}
		rows = append(rows, []string{
			d.Name,
			d.Email,
			title,
			source,
			d.UTMSource,
			d.UTMMedium,
			d.UTMCampaign,
			formatDate(d.DownloadedAt, loc),
		})
	}
	return write(rows)
}

// RecipeTitles indexes recipe titles by ID for Downloads.
func RecipeTitles(recipes []recipe.Recipe) map[string]string {
	titles := make(map[string]string, len(recipes))
	for _, r := range recipes {
		titles[r.ID] = r.Title
	}
	return titles
}

func formatDate(t time.Time, loc *time.Location) string {
	if t.IsZero() {
		return ""
	}
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format(dateLayout)
}

func write(rows [][]string) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.WriteAll(rows); err != nil {
		return nil, fmt.Errorf("write csv: %w", err)
	}
	return buf.Bytes(), nil
}
