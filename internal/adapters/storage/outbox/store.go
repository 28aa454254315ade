package outbox

import (
	"context"
	"time"

	domain "innercircle/internal/domain/outbox"
)

// Store persists queued outgoing messages.
type Store interface {
	// GetByID returns an error wrapping sql.ErrNoRows when the entry does not exist.
	GetByID(ctx context.Context, id string) (domain.Entry, error)

	// Save inserts or updates the entry.
	Save(ctx context.Context, e domain.Entry) error

	// ListDue returns pending entries whose next attempt is at or before now, earliest first.
	// PRE: limit > 0
	ListDue(ctx context.Context, now time.Time, limit int) ([]domain.Entry, error)

	// List returns entries matching filter, newest first.
	List(ctx context.Context, filter ListFilter) ([]domain.Entry, error)

	// CountByStatus returns the number of entries per status; absent statuses are omitted.
	CountByStatus(ctx context.Context) (map[string]int, error)

	// PruneSent deletes sent entries created before cutoff and returns how many were removed.
	PruneSent(ctx context.Context, cutoff time.Time) (int64, error)
}

// ListFilter narrows List. Empty fields match everything; Limit <= 0 means DefaultListLimit.
type ListFilter struct {
	Status    string
	Kind      string
	Recipient string
	Limit     int
}

const DefaultListLimit = 50

func (f ListFilter) limit() int {
	if f.Limit <= 0 {
		return DefaultListLimit
	}
	return f.Limit
}

var (
	_ Store = (*SQLiteStore)(nil)
	_ Store = (*PostgresStore)(nil)
)
