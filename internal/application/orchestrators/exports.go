package orchestrators

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"innercircle/internal/domain/audit"
	"innercircle/internal/domain/export"
	"innercircle/internal/domain/lead"
	"innercircle/internal/domain/recipe"
)

// ExportDeps holds dependencies for the CSV export orchestrators.
type ExportDeps struct {
	Audit    AuditRecorder
	Location *time.Location
	Now      func() time.Time
}

// ExportResult is a finished CSV report.
type ExportResult struct {
	Filename string
	Data     []byte
	Rows     int
}

// ExecuteExportLeads renders the leads currently selected in the admin list.
// PRE: leads is the filtered list in display order
// POST: One CSV record per lead after the header; the export is audited
func ExecuteExportLeads(ctx context.Context, leads []lead.Lead, actor Actor, deps ExportDeps) (ExportResult, error) {
	data, err := export.Leads(leads, deps.Location)
	if err != nil {
		return ExportResult{}, err
	}
	return finishExport(ctx, export.LeadsFilename, data, len(leads), actor, deps), nil
}

// ExecuteExportDownloads renders the recipe downloads currently selected in the admin list.
// PRE: downloads is the filtered list in display order; recipes resolves titles
// POST: One CSV record per download after the header; the export is audited
func ExecuteExportDownloads(ctx context.Context, downloads []recipe.Download, recipes []recipe.Recipe, actor Actor, deps ExportDeps) (ExportResult, error) {
	data, err := export.Downloads(downloads, export.RecipeTitles(recipes), deps.Location)
	if err != nil {
		return ExportResult{}, err
	}
	return finishExport(ctx, export.DownloadsFilename, data, len(downloads), actor, deps), nil
}

func finishExport(ctx context.Context, filename string, data []byte, rows int, actor Actor, deps ExportDeps) ExportResult {
	recordAudit(ctx, deps.Audit, actor, auditEntry{
		Category:     audit.CategoryLead,
		Action:       audit.ActionExport,
		ResourceType: "report",
		ResourceID:   filename,
		Description:  fmt.Sprintf("%d rows", rows),
	}, deps.Now())
	slog.Info("export_event", "event", "csv_exported", "file", filename, "rows", rows)
	return ExportResult{Filename: filename, Data: data, Rows: rows}
}
