package recipe

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"innercircle/internal/adapters/storage"
	domain "innercircle/internal/domain/recipe"
)

const (
	recipeColumns = `id, title, description, file_url, file_name, file_size, download_count,
	is_active, created_at, updated_at`
	downloadColumns = `id, recipe_id, name, email, source, utm_source, utm_medium, utm_campaign,
	landing_page_url, referrer, user_agent, ip_address, downloaded_at, created_at, updated_at`
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new recipe store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// GetByID retrieves a recipe by its ID.
// PRE: id is non-empty
// POST: Returns the recipe or an error wrapping sql.ErrNoRows
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Recipe, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+recipeColumns+" FROM recipe WHERE id = ?", id)
	r, err := scanRecipe(row.Scan)
	if err == sql.ErrNoRows {
		return domain.Recipe{}, fmt.Errorf("recipe not found: %w", err)
	}
	return r, err
}

// Save persists a recipe (insert or update). DownloadCount is only written on insert.
// PRE: recipe has been validated
// POST: Recipe is persisted
func (s *SQLiteStore) Save(ctx context.Context, r domain.Recipe) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO recipe (`+recipeColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   title=excluded.title, description=excluded.description, file_url=excluded.file_url,
		   file_name=excluded.file_name, file_size=excluded.file_size, is_active=excluded.is_active,
		   updated_at=excluded.updated_at`,
		r.ID, r.Title, r.Description, r.FileURL, r.FileName, r.FileSize, r.DownloadCount,
		boolToInt(r.IsActive), storage.FormatTime(r.CreatedAt), storage.FormatTime(r.UpdatedAt))
	return err
}

// Delete removes a recipe and its downloads.
// PRE: id is non-empty
// POST: Returns an error wrapping sql.ErrNoRows when nothing was deleted
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM recipe WHERE id = ?", id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("recipe not found: %w", sql.ErrNoRows)
	}
	return nil
}

// List returns recipes newest first, optionally only the active ones.
func (s *SQLiteStore) List(ctx context.Context, activeOnly bool) ([]domain.Recipe, error) {
	query := "SELECT " + recipeColumns + " FROM recipe"
	if activeOnly {
		query += " WHERE is_active = 1"
	}
	query += " ORDER BY created_at DESC, id"

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recipes []domain.Recipe
	for rows.Next() {
		r, err := scanRecipe(rows.Scan)
		if err != nil {
			return nil, err
		}
		recipes = append(recipes, r)
	}
	return recipes, rows.Err()
}

// IncrementDownloadCount atomically bumps the counter of one recipe.
// PRE: id is non-empty
// POST: Returns the new count, or an error wrapping sql.ErrNoRows
func (s *SQLiteStore) IncrementDownloadCount(ctx context.Context, id string, now time.Time) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`UPDATE recipe SET download_count = download_count + 1, updated_at = ?
		 WHERE id = ? RETURNING download_count`,
		storage.FormatTime(now), id).Scan(&count)
	if err == sql.ErrNoRows {
		return 0, fmt.Errorf("recipe not found: %w", err)
	}
	return count, err
}

// SaveDownload records one download.
// PRE: download has been validated and references an existing recipe
// POST: Download is persisted
func (s *SQLiteStore) SaveDownload(ctx context.Context, d domain.Download) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO recipe_download (`+downloadColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		d.ID, d.RecipeID, d.Name, d.Email, d.Source, d.UTMSource, d.UTMMedium, d.UTMCampaign,
		d.LandingPageURL, d.Referrer, d.UserAgent, d.IPAddress,
		storage.FormatTime(d.DownloadedAt), storage.FormatTime(d.CreatedAt), storage.FormatTime(d.UpdatedAt))
	return err
}

// ListDownloads returns downloads newest first.
// PRE: filter has valid parameters
// POST: Limit 0 means no limit
func (s *SQLiteStore) ListDownloads(ctx context.Context, filter DownloadFilter) ([]domain.Download, error) {
	var b strings.Builder
	var args []any
	b.WriteString("SELECT " + downloadColumns + " FROM recipe_download")
	if filter.RecipeID != "" {
		b.WriteString(" WHERE recipe_id = ?")
		args = append(args, filter.RecipeID)
	}
	b.WriteString(" ORDER BY downloaded_at DESC, id")
	if filter.Limit > 0 {
		b.WriteString(" LIMIT ? OFFSET ?")
		args = append(args, filter.Limit, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, b.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var downloads []domain.Download
	for rows.Next() {
		d, err := scanDownload(rows.Scan)
		if err != nil {
			return nil, err
		}
		downloads = append(downloads, d)
	}
	return downloads, rows.Err()
}

// ListDownloadStamps returns time and source of every download.
func (s *SQLiteStore) ListDownloadStamps(ctx context.Context) ([]domain.DownloadStamp, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT downloaded_at, source FROM recipe_download")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stamps []domain.DownloadStamp
	for rows.Next() {
		var at string
		var st domain.DownloadStamp
		if err := rows.Scan(&at, &st.Source); err != nil {
			return nil, err
		}
		st.DownloadedAt = storage.ParseTime(at)
		stamps = append(stamps, st)
	}
	return stamps, rows.Err()
}

// scanRecipe extracts a Recipe from a row scanner function.
func scanRecipe(scan func(dest ...interface{}) error) (domain.Recipe, error) {
	var r domain.Recipe
	var isActive int
	var createdAt, updatedAt string
	err := scan(&r.ID, &r.Title, &r.Description, &r.FileURL, &r.FileName, &r.FileSize,
		&r.DownloadCount, &isActive, &createdAt, &updatedAt)
	if err != nil {
		return domain.Recipe{}, err
	}
	r.IsActive = isActive != 0
	r.CreatedAt = storage.ParseTime(createdAt)
	r.UpdatedAt = storage.ParseTime(updatedAt)
	return r, nil
}

// scanDownload extracts a Download from a row scanner function.
func scanDownload(scan func(dest ...interface{}) error) (domain.Download, error) {
	var d domain.Download
	var downloadedAt, createdAt, updatedAt string
	err := scan(&d.ID, &d.RecipeID, &d.Name, &d.Email, &d.Source, &d.UTMSource, &d.UTMMedium,
		&d.UTMCampaign, &d.LandingPageURL, &d.Referrer, &d.UserAgent, &d.IPAddress,
		&downloadedAt, &createdAt, &updatedAt)
	if err != nil {
		return domain.Download{}, err
	}
	d.DownloadedAt = storage.ParseTime(downloadedAt)
	d.CreatedAt = storage.ParseTime(createdAt)
	d.UpdatedAt = storage.ParseTime(updatedAt)
	return d, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
