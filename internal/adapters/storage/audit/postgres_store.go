package audit

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jmoiron/sqlx"

	domain "innercircle/internal/domain/audit"
)

// eventRow mirrors audit_event for sqlx struct scanning.
type eventRow struct {
	ID           string    `db:"id"`
	Timestamp    time.Time `db:"timestamp"`
	Category     string    `db:"category"`
	Action       string    `db:"action"`
	Severity     string    `db:"severity"`
	ActorID      string    `db:"actor_id"`
	ActorEmail   string    `db:"actor_email"`
	ActorRole    string    `db:"actor_role"`
	ResourceID   string    `db:"resource_id"`
	ResourceType string    `db:"resource_type"`
	Description  string    `db:"description"`
	IPAddress    string    `db:"ip_address"`
	UserAgent    string    `db:"user_agent"`
	Metadata     string    `db:"metadata"`
}

func rowFromEvent(e domain.Event) eventRow {
	return eventRow{
		ID:           e.ID,
		Timestamp:    e.Timestamp.UTC(),
		Category:     string(e.Category),
		Action:       string(e.Action),
		Severity:     string(e.Severity),
		ActorID:      e.ActorID,
		ActorEmail:   e.ActorEmail,
		ActorRole:    e.ActorRole,
		ResourceID:   e.ResourceID,
		ResourceType: e.ResourceType,
		Description:  e.Description,
		IPAddress:    e.IPAddress,
		UserAgent:    e.UserAgent,
		Metadata:     e.Metadata,
	}
}

func (r eventRow) event() domain.Event {
	e := domain.New(r.ID, r.Timestamp, domain.Actor{
		ID:        r.ActorID,
		Email:     r.ActorEmail,
		Role:      r.ActorRole,
		IPAddress: r.IPAddress,
		UserAgent: r.UserAgent,
	}, domain.Category(r.Category), domain.Action(r.Action)).About(r.ResourceType, r.ResourceID)
	e.Severity = domain.Severity(r.Severity)
	e.Description = r.Description
	e.Metadata = r.Metadata
	return e
}

// PostgresStore keeps the audit trail in Postgres.
type PostgresStore struct {
	db *sqlx.DB
}

func NewPostgresStore(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func postgresPlaceholder(n int) string { return "$" + strconv.Itoa(n) }

func (s *PostgresStore) Save(ctx context.Context, e domain.Event) error {
	if err := e.Validate(); err != nil {
		return err
	}
	_, err := s.db.NamedExecContext(ctx, `INSERT INTO audit_event (`+columns+`) VALUES (
		:id, :timestamp, :category, :action, :severity, :actor_id, :actor_email, :actor_role,
		:resource_id, :resource_type, :description, :ip_address, :user_agent, :metadata)`, rowFromEvent(e))
	return err
}

func (s *PostgresStore) List(ctx context.Context, filter Filter) ([]domain.Event, error) {
	c := filter.build(postgresPlaceholder)
	if !filter.From.IsZero() {
		c.add(`"timestamp" >= ?`, filter.From.UTC())
	}
	if !filter.To.IsZero() {
		c.add(`"timestamp" < ?`, filter.To.UTC())
	}
	args := append(c.args, filter.limit())
	query := "SELECT " + columns + " FROM audit_event" + c.String() +
		` ORDER BY "timestamp" DESC, id LIMIT ` + postgresPlaceholder(len(args))

	var rows []eventRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("listing audit events: %w", err)
	}
	events := make([]domain.Event, len(rows))
	for i, r := range rows {
		events[i] = r.event()
	}
	return events, nil
}

func (s *PostgresStore) GetByID(ctx context.Context, id string) (domain.Event, error) {
	var r eventRow
	err := s.db.GetContext(ctx, &r, "SELECT "+columns+" FROM audit_event WHERE id = $1", id)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Event{}, fmt.Errorf("audit event %q: %w", id, err)
	}
	if err != nil {
		return domain.Event{}, err
	}
	return r.event(), nil
}

func (s *PostgresStore) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM audit_event WHERE "timestamp" < $1`, cutoff.UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
