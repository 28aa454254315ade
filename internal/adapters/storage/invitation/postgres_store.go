package invitation

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"innercircle/internal/adapters/storage"
	"innercircle/internal/domain/account"
	domain "innercircle/internal/domain/invitation"
	"innercircle/internal/domain/user"
)

type invitationRow struct {
	ID        string       `db:"id"`
	LeadID    string       `db:"lead_id"`
	Token     string       `db:"token"`
	Status    string       `db:"status"`
	ExpiresAt time.Time    `db:"expires_at"`
	UsedAt    sql.NullTime `db:"used_at"`
	CreatedAt time.Time    `db:"created_at"`
	UpdatedAt time.Time    `db:"updated_at"`
}

func (r invitationRow) toDomain() domain.Invitation {
	return domain.Invitation{
		ID: r.ID, LeadID: r.LeadID, Token: r.Token, Status: r.Status, ExpiresAt: r.ExpiresAt,
		UsedAt: storage.TimeFromNull(r.UsedAt), CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt,
	}
}

type userRow struct {
	ID           string       `db:"id"`
	LeadID       string       `db:"lead_id"`
	InvitationID string       `db:"invitation_id"`
	AccountID    string       `db:"account_id"`
	IsActive     bool         `db:"is_active"`
	LastLogin    sql.NullTime `db:"last_login"`
	CreatedAt    time.Time    `db:"created_at"`
	UpdatedAt    time.Time    `db:"updated_at"`
}

// PostgresStore implements Store on Postgres; procedures run as SQL functions.
type PostgresStore struct {
	db *sqlx.DB
}

// NewPostgresStore creates a new invitation store.
func NewPostgresStore(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Create calls create_user_invitation.
func (s *PostgresStore) Create(ctx context.Context, inv domain.Invitation) (domain.Invitation, error) {
	var r invitationRow
	err := s.db.GetContext(ctx, &r,
		"SELECT "+selectColumns+" FROM create_user_invitation($1, $2, $3, $4, $5)",
		inv.ID, inv.LeadID, inv.Token, inv.ExpiresAt, inv.CreatedAt)
	if storage.PgCode(err) == storage.PgCodeNotFound {
		return domain.Invitation{}, fmt.Errorf("lead not found: %w", sql.ErrNoRows)
	}
	if err != nil {
		return domain.Invitation{}, err
	}
	return r.toDomain(), nil
}

// GetByID retrieves an invitation by its ID.
func (s *PostgresStore) GetByID(ctx context.Context, id string) (domain.Invitation, error) {
	return s.getOne(ctx, "id = $1", id)
}

// GetByToken retrieves an invitation by its token.
func (s *PostgresStore) GetByToken(ctx context.Context, token string) (domain.Invitation, error) {
	return s.getOne(ctx, "token = $1", token)
}

// GetPendingByToken retrieves a pending, unexpired invitation.
func (s *PostgresStore) GetPendingByToken(ctx context.Context, token string, now time.Time) (domain.Invitation, error) {
	return s.getOne(ctx, "token = $1 AND status = $2 AND expires_at > $3", token, domain.StatusPending, now)
}

func (s *PostgresStore) getOne(ctx context.Context, where string, args ...any) (domain.Invitation, error) {
	var r invitationRow
	err := s.db.GetContext(ctx, &r, "SELECT "+selectColumns+" FROM invitation WHERE "+where, args...)
	if err == sql.ErrNoRows {
		return domain.Invitation{}, fmt.Errorf("invitation not found: %w", err)
	}
	if err != nil {
		return domain.Invitation{}, err
	}
	return r.toDomain(), nil
}

// Redeem calls use_invitation_token and maps its SQLSTATEs to domain errors.
func (s *PostgresStore) Redeem(ctx context.Context, p RedeemParams) (user.User, error) {
	var r userRow
	err := s.db.GetContext(ctx, &r,
		`SELECT id, lead_id, invitation_id, account_id, is_active, last_login, created_at, updated_at
		 FROM use_invitation_token($1, $2, $3, $4, $5, $6)`,
		p.Token, p.UserID, p.AccountID, p.Email, p.PasswordHash, p.Now)
	switch {
	case err == nil:
	case storage.PgCode(err) == storage.PgCodeNotFound:
		return user.User{}, fmt.Errorf("invitation not found: %w", sql.ErrNoRows)
	case storage.PgCode(err) == storage.PgCodeNotPending:
		return user.User{}, domain.ErrNotPending
	case storage.PgCode(err) == storage.PgCodeExpired:
		return user.User{}, domain.ErrExpired
	case storage.IsUniqueViolation(err):
		return user.User{}, account.ErrEmailTaken
	default:
		return user.User{}, err
	}
	return user.User{
		ID: r.ID, LeadID: r.LeadID, InvitationID: r.InvitationID, AccountID: r.AccountID,
		IsActive: r.IsActive, LastLogin: storage.TimeFromNull(r.LastLogin),
		CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt,
	}, nil
}

// ExpireOld calls expire_old_invitations.
func (s *PostgresStore) ExpireOld(ctx context.Context, now time.Time) (int, error) {
	var n int
	err := s.db.GetContext(ctx, &n, "SELECT expire_old_invitations($1)", now)
	return n, err
}

// List returns invitations newest first.
func (s *PostgresStore) List(ctx context.Context, filter ListFilter) ([]domain.Invitation, error) {
	query, args := listQuery(filter)
	var rows []invitationRow
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(query), args...); err != nil {
		return nil, err
	}
	out := make([]domain.Invitation, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out, nil
}
