package recipe

import (
	"context"
	"time"

	domain "innercircle/internal/domain/recipe"
)

// Store persists recipes and the downloads recorded against them.
type Store interface {
	// GetByID retrieves a recipe by its ID.
	// PRE: id is non-empty
	// POST: Returns the recipe or an error wrapping sql.ErrNoRows
	GetByID(ctx context.Context, id string) (domain.Recipe, error)

	// Save persists a recipe (insert or update). DownloadCount is only written on insert.
	// PRE: recipe has been validated
	// POST: Recipe is persisted
	Save(ctx context.Context, r domain.Recipe) error

	// Delete removes a recipe and its downloads.
	// PRE: id is non-empty
	// POST: Returns an error wrapping sql.ErrNoRows when nothing was deleted
	Delete(ctx context.Context, id string) error

	// List returns recipes newest first, optionally only the active ones.
	List(ctx context.Context, activeOnly bool) ([]domain.Recipe, error)

	// IncrementDownloadCount atomically bumps the counter of one recipe.
	// PRE: id is non-empty
	// POST: Returns the new count, or an error wrapping sql.ErrNoRows
	IncrementDownloadCount(ctx context.Context, id string, now time.Time) (int, error)

	// SaveDownload records one download.
	// PRE: download has been validated and references an existing recipe
	// POST: Download is persisted
	SaveDownload(ctx context.Context, d domain.Download) error

	// ListDownloads returns downloads newest first.
	// PRE: filter has valid parameters
	// POST: Limit 0 means no limit
	ListDownloads(ctx context.Context, filter DownloadFilter) ([]domain.Download, error)

	// ListDownloadStamps returns time and source of every download, for stats.
	ListDownloadStamps(ctx context.Context) ([]domain.DownloadStamp, error)
}

// DownloadFilter carries filtering parameters for ListDownloads.
type DownloadFilter struct {
	RecipeID string
	Limit    int
	Offset   int
}

var (
	_ Store = (*SQLiteStore)(nil)
	_ Store = (*PostgresStore)(nil)
)
