package lead

import (
	"context"

	domain "innercircle/internal/domain/lead"
)

// Store persists Pionier entries.
type Store interface {
	// GetByID retrieves a lead by its ID.
	// PRE: id is non-empty
	// POST: Returns the lead or an error wrapping sql.ErrNoRows
	GetByID(ctx context.Context, id string) (domain.Lead, error)

	// Save persists a lead (insert or update).
	// PRE: lead has been validated
	// POST: Lead is persisted
	Save(ctx context.Context, l domain.Lead) error

	// Delete removes a lead. Its invitations go with it.
	// PRE: id is non-empty
	// POST: Returns an error wrapping sql.ErrNoRows when nothing was deleted
	Delete(ctx context.Context, id string) error

	// DeleteMany removes every lead in ids in one transaction.
	// PRE: ids is non-empty
	// POST: Returns the number of rows deleted
	DeleteMany(ctx context.Context, ids []string) (int, error)

	// List returns leads newest first.
	// PRE: filter has valid parameters
	// POST: Returns matching leads; Limit 0 means no limit
	List(ctx context.Context, filter ListFilter) ([]domain.Lead, error)

	// ListStatuses returns the raw status column of every lead, for stats.
	ListStatuses(ctx context.Context) ([]string, error)
}

// ListFilter carries filtering parameters for List operations.
type ListFilter struct {
	Status string
	Limit  int
	Offset int
}

var (
	_ Store = (*SQLiteStore)(nil)
	_ Store = (*PostgresStore)(nil)
)
