package recipe

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"innercircle/internal/adapters/storage"
	domain "innercircle/internal/domain/recipe"
)

type recipeRow struct {
	ID            string    `db:"id"`
	Title         string    `db:"title"`
	Description   string    `db:"description"`
	FileURL       string    `db:"file_url"`
	FileName      string    `db:"file_name"`
	FileSize      int64     `db:"file_size"`
	DownloadCount int       `db:"download_count"`
	IsActive      bool      `db:"is_active"`
	CreatedAt     time.Time `db:"created_at"`
	UpdatedAt     time.Time `db:"updated_at"`
}

func (r recipeRow) toDomain() domain.Recipe {
	return domain.Recipe(r)
}

type downloadRow struct {
	ID             string    `db:"id"`
	RecipeID       string    `db:"recipe_id"`
	Name           string    `db:"name"`
	Email          string    `db:"email"`
	Source         string    `db:"source"`
	UTMSource      string    `db:"utm_source"`
	UTMMedium      string    `db:"utm_medium"`
	UTMCampaign    string    `db:"utm_campaign"`
	LandingPageURL string    `db:"landing_page_url"`
	Referrer       string    `db:"referrer"`
	UserAgent      string    `db:"user_agent"`
	IPAddress      string    `db:"ip_address"`
	DownloadedAt   time.Time `db:"downloaded_at"`
	CreatedAt      time.Time `db:"created_at"`
	UpdatedAt      time.Time `db:"updated_at"`
}

// PostgresStore implements Store on Postgres via sqlx.
// The download counter goes through the increment_download_count procedure.
type PostgresStore struct {
	db *sqlx.DB
}

// NewPostgresStore creates a new recipe store.
func NewPostgresStore(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// GetByID retrieves a recipe by its ID.
func (s *PostgresStore) GetByID(ctx context.Context, id string) (domain.Recipe, error) {
	var r recipeRow
	err := s.db.GetContext(ctx, &r, "SELECT "+recipeColumns+" FROM recipe WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return domain.Recipe{}, fmt.Errorf("recipe not found: %w", err)
	}
	if err != nil {
		return domain.Recipe{}, err
	}
	return r.toDomain(), nil
}

// Save persists a recipe (insert or update). DownloadCount is only written on insert.
func (s *PostgresStore) Save(ctx context.Context, r domain.Recipe) error {
	_, err := s.db.NamedExecContext(ctx,
		`INSERT INTO recipe (`+recipeColumns+`)
		 VALUES (:id, :title, :description, :file_url, :file_name, :file_size, :download_count,
			:is_active, :created_at, :updated_at)
		 ON CONFLICT (id) DO UPDATE SET
		   title=EXCLUDED.title, description=EXCLUDED.description, file_url=EXCLUDED.file_url,
		   file_name=EXCLUDED.file_name, file_size=EXCLUDED.file_size, is_active=EXCLUDED.is_active,
		   updated_at=EXCLUDED.updated_at`,
		recipeRow(r))
	return err
}

// Delete removes a recipe and its downloads.
func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM recipe WHERE id = $1", id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		return fmt.Errorf("recipe not found: %w", sql.ErrNoRows)
	}
	return nil
}

// List returns recipes newest first, optionally only the active ones.
func (s *PostgresStore) List(ctx context.Context, activeOnly bool) ([]domain.Recipe, error) {
	query := "SELECT " + recipeColumns + " FROM recipe"
	if activeOnly {
		query += " WHERE is_active"
	}
	query += " ORDER BY created_at DESC, id"

	var rows []recipeRow
	if err := s.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, err
	}
	recipes := make([]domain.Recipe, 0, len(rows))
	for _, r := range rows {
		recipes = append(recipes, r.toDomain())
	}
	return recipes, nil
}

// IncrementDownloadCount calls increment_download_count.
func (s *PostgresStore) IncrementDownloadCount(ctx context.Context, id string, now time.Time) (int, error) {
	var count int
	err := s.db.GetContext(ctx, &count, "SELECT increment_download_count($1, $2)", id, now)
	if storage.PgCode(err) == storage.PgCodeNotFound {
		return 0, fmt.Errorf("recipe not found: %w", sql.ErrNoRows)
	}
	return count, err
}

// SaveDownload records one download.
func (s *PostgresStore) SaveDownload(ctx context.Context, d domain.Download) error {
	_, err := s.db.NamedExecContext(ctx,
		`INSERT INTO recipe_download (`+downloadColumns+`)
		 VALUES (:id, :recipe_id, :name, :email, :source, :utm_source, :utm_medium, :utm_campaign,
			:landing_page_url, :referrer, :user_agent, :ip_address, :downloaded_at, :created_at, :updated_at)`,
		downloadRow(d))
	return err
}

// ListDownloads returns downloads newest first.
func (s *PostgresStore) ListDownloads(ctx context.Context, filter DownloadFilter) ([]domain.Download, error) {
	query := "SELECT " + downloadColumns + " FROM recipe_download"
	var args []any
	if filter.RecipeID != "" {
		query += " WHERE recipe_id = ?"
		args = append(args, filter.RecipeID)
	}
	query += " ORDER BY downloaded_at DESC, id"
	if filter.Limit > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, filter.Limit, filter.Offset)
	}

	var rows []downloadRow
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(query), args...); err != nil {
		return nil, err
	}
	downloads := make([]domain.Download, 0, len(rows))
	for _, r := range rows {
		downloads = append(downloads, domain.Download(r))
	}
	return downloads, nil
}

// ListDownloadStamps returns time and source of every download.
func (s *PostgresStore) ListDownloadStamps(ctx context.Context) ([]domain.DownloadStamp, error) {
	var rows []struct {
		DownloadedAt time.Time `db:"downloaded_at"`
		Source       string    `db:"source"`
	}
	if err := s.db.SelectContext(ctx, &rows, "SELECT downloaded_at, source FROM recipe_download"); err != nil {
		return nil, err
	}
	stamps := make([]domain.DownloadStamp, len(rows))
	for i, r := range rows {
		stamps[i] = domain.DownloadStamp{DownloadedAt: r.DownloadedAt, Source: r.Source}
	}
	return stamps, nil
}
