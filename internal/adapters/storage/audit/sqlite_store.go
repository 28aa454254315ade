package audit

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"innercircle/internal/adapters/storage"
	domain "innercircle/internal/domain/audit"
)

const columns = `id, "timestamp", category, action, severity, actor_id, actor_email, actor_role,
	resource_id, resource_type, description, ip_address, user_agent, metadata`

// SQLiteStore keeps the audit trail in SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

func sqlitePlaceholder(n int) string { return "?" + strconv.Itoa(n) }

func (s *SQLiteStore) Save(ctx context.Context, e domain.Event) error {
	if err := e.Validate(); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO audit_event (`+columns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, storage.FormatTime(e.Timestamp), string(e.Category), string(e.Action), string(e.Severity),
		e.ActorID, e.ActorEmail, e.ActorRole, e.ResourceID, e.ResourceType,
		e.Description, e.IPAddress, e.UserAgent, e.Metadata)
	return err
}

// List applies the filter and returns at most filter.Limit events, newest first.
func (s *SQLiteStore) List(ctx context.Context, filter Filter) ([]domain.Event, error) {
	c := filter.build(sqlitePlaceholder)
	if !filter.From.IsZero() {
		c.add(`"timestamp" >= ?`, storage.FormatTime(filter.From))
	}
	if !filter.To.IsZero() {
		c.add(`"timestamp" < ?`, storage.FormatTime(filter.To))
	}
	args := append(c.args, filter.limit())
	query := "SELECT " + columns + " FROM audit_event" + c.String() +
		` ORDER BY "timestamp" DESC, id LIMIT ` + sqlitePlaceholder(len(args))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing audit events: %w", err)
	}
	defer rows.Close()

	var events []domain.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Event, error) {
	e, err := scanEvent(s.db.QueryRowContext(ctx, "SELECT "+columns+" FROM audit_event WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Event{}, fmt.Errorf("audit event %q: %w", id, err)
	}
	return e, err
}

// DeleteBefore drops events strictly older than cutoff.
func (s *SQLiteStore) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM audit_event WHERE "timestamp" < ?`, storage.FormatTime(cutoff))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEvent(row scanner) (domain.Event, error) {
	var e domain.Event
	var ts, category, action, sev string
	err := row.Scan(&e.ID, &ts, &category, &action, &sev, &e.ActorID, &e.ActorEmail, &e.ActorRole,
		&e.ResourceID, &e.ResourceType, &e.Description, &e.IPAddress, &e.UserAgent, &e.Metadata)
	if err != nil {
		return domain.Event{}, err
	}
	e.Timestamp = storage.ParseTime(ts)
	e.Category = domain.Category(category)
	e.Action = domain.Action(action)
	e.Severity = domain.Severity(sev)
	return e, nil
}
