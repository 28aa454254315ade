package audit

import (
	"context"
	"strings"
	"time"

	domain "innercircle/internal/domain/audit"
)

// DefaultLimit caps List when the filter names no limit.
const DefaultLimit = 100

// Store persists the append-only audit trail.
type Store interface {
	// Save appends one event.
	// PRE: event.Validate() == nil
	Save(ctx context.Context, event domain.Event) error

	// List returns matching events, newest first.
	List(ctx context.Context, filter Filter) ([]domain.Event, error)

	// GetByID returns one event; a missing id wraps sql.ErrNoRows.
	GetByID(ctx context.Context, id string) (domain.Event, error)

	// DeleteBefore removes events older than cutoff and reports how many went.
	DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// Filter narrows List. Zero values match everything.
type Filter struct {
	Category    domain.Category
	Action      domain.Action
	ActorEmail  string
	ResourceID  string
	MinSeverity domain.Severity
	// Search matches a substring of the description, actor email or resource id.
	Search string
	From   time.Time
	To     time.Time
	Limit  int
}

func (f Filter) limit() int {
	if f.Limit <= 0 {
		return DefaultLimit
	}
	return f.Limit
}

// atLeast lists the severities at or above min, in ascending order.
func atLeast(min domain.Severity) []domain.Severity {
	for i, s := range domain.Severities {
		if s == min {
			return domain.Severities[i:]
		}
	}
	return nil
}

// clause accumulates a WHERE clause. placeholder renders the n-th argument.
type clause struct {
	conds       []string
	args        []any
	placeholder func(n int) string
}

func (c *clause) add(format string, v any) {
	c.args = append(c.args, v)
	c.conds = append(c.conds, strings.ReplaceAll(format, "?", c.placeholder(len(c.args))))
}

func (c *clause) in(column string, values []string) {
	marks := make([]string, len(values))
	for i, v := range values {
		c.args = append(c.args, v)
		marks[i] = c.placeholder(len(c.args))
	}
	c.conds = append(c.conds, column+" IN ("+strings.Join(marks, ", ")+")")
}

func (c *clause) String() string {
	if len(c.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(c.conds, " AND ")
}

// build renders every non-time condition; time bounds are added by each store
// because the two drivers bind timestamps differently.
func (f Filter) build(placeholder func(int) string) *clause {
	c := &clause{placeholder: placeholder}
	if f.Category != "" {
		c.add("category = ?", string(f.Category))
	}
	if f.Action != "" {
		c.add("action = ?", string(f.Action))
	}
	if email := strings.ToLower(strings.TrimSpace(f.ActorEmail)); email != "" {
		c.add("actor_email = ?", email)
	}
	if f.ResourceID != "" {
		c.add("resource_id = ?", f.ResourceID)
	}
	if f.MinSeverity != "" {
		levels := atLeast(f.MinSeverity)
		values := make([]string, len(levels))
		for i, s := range levels {
			values[i] = string(s)
		}
		if len(values) == 0 {
			values = []string{string(f.MinSeverity)}
		}
		c.in("severity", values)
	}
	if q := strings.ToLower(strings.TrimSpace(f.Search)); q != "" {
		pattern := "%" + q + "%"
		c.args = append(c.args, pattern)
		n := c.placeholder(len(c.args))
		c.conds = append(c.conds, "(LOWER(description) LIKE "+n+" OR actor_email LIKE "+n+" OR resource_id LIKE "+n+")")
	}
	return c
}

var (
	_ Store = (*SQLiteStore)(nil)
	_ Store = (*PostgresStore)(nil)
)
