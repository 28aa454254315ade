package invitation

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"innercircle/internal/adapters/storage"
	"innercircle/internal/domain/account"
	domain "innercircle/internal/domain/invitation"
	"innercircle/internal/domain/user"
)

const selectColumns = `id, lead_id, token, status, expires_at, used_at, created_at, updated_at`

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new invitation store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// Create issues a pending invitation for an existing lead.
// PRE: inv.LeadID, inv.Token and inv.ExpiresAt are set
// POST: Returns the stored invitation; an error wrapping sql.ErrNoRows if the lead is gone
func (s *SQLiteStore) Create(ctx context.Context, inv domain.Invitation) (domain.Invitation, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.Invitation{}, err
	}
	defer tx.Rollback()

	var exists int
	if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM lead WHERE id = ?", inv.LeadID).Scan(&exists); err != nil {
		return domain.Invitation{}, err
	}
	if exists == 0 {
		return domain.Invitation{}, fmt.Errorf("lead not found: %w", sql.ErrNoRows)
	}

	inv.Status = domain.StatusPending
	inv.UsedAt = time.Time{}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO invitation (id, lead_id, token, status, expires_at, used_at, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, NULL, ?, ?)`,
		inv.ID, inv.LeadID, inv.Token, inv.Status, storage.FormatTime(inv.ExpiresAt),
		storage.FormatTime(inv.CreatedAt), storage.FormatTime(inv.UpdatedAt))
	if err != nil {
		return domain.Invitation{}, err
	}
	return inv, tx.Commit()
}

// GetByID retrieves an invitation by its ID.
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Invitation, error) {
	return s.getOne(ctx, "id = ?", id)
}

// GetByToken retrieves an invitation by its token.
func (s *SQLiteStore) GetByToken(ctx context.Context, token string) (domain.Invitation, error) {
	return s.getOne(ctx, "token = ?", token)
}

// GetPendingByToken retrieves a pending, unexpired invitation.
func (s *SQLiteStore) GetPendingByToken(ctx context.Context, token string, now time.Time) (domain.Invitation, error) {
	return s.getOne(ctx, "token = ? AND status = ? AND expires_at > ?", token, domain.StatusPending, storage.FormatTime(now))
}

func (s *SQLiteStore) getOne(ctx context.Context, where string, args ...any) (domain.Invitation, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+selectColumns+" FROM invitation WHERE "+where, args...)
	inv, err := scanInvitation(row.Scan)
	if err == sql.ErrNoRows {
		return domain.Invitation{}, fmt.Errorf("invitation not found: %w", err)
	}
	return inv, err
}

// Redeem turns a pending token into a member account and a dashboard user.
// PRE: params.PasswordHash is a bcrypt hash; params.Email is normalised
// POST: Account, user and used invitation are committed together or not at all
func (s *SQLiteStore) Redeem(ctx context.Context, p RedeemParams) (user.User, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return user.User{}, err
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx, "SELECT "+selectColumns+" FROM invitation WHERE token = ?", p.Token)
	inv, err := scanInvitation(row.Scan)
	if err == sql.ErrNoRows {
		return user.User{}, fmt.Errorf("invitation not found: %w", err)
	}
	if err != nil {
		return user.User{}, err
	}
	if err := inv.Redeem(p.Now); err != nil {
		return user.User{}, err
	}

	now := storage.FormatTime(p.Now)
	_, err = tx.ExecContext(ctx,
		`INSERT INTO account (id, email, password_hash, role, status, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		p.AccountID, p.Email, p.PasswordHash, account.RoleMember, account.StatusActive, now)
	if storage.IsUniqueViolation(err) {
		return user.User{}, account.ErrEmailTaken
	}
	if err != nil {
		return user.User{}, err
	}

	res, err := tx.ExecContext(ctx,
		`UPDATE invitation SET status = ?, used_at = ?, updated_at = ? WHERE id = ? AND status = ?`,
		inv.Status, now, now, inv.ID, domain.StatusPending)
	if err != nil {
		return user.User{}, err
	}
	if n, _ := res.RowsAffected(); n != 1 {
		return user.User{}, domain.ErrNotPending
	}

	u := user.User{
		ID: p.UserID, LeadID: inv.LeadID, InvitationID: inv.ID, AccountID: p.AccountID,
		IsActive: true, CreatedAt: p.Now, UpdatedAt: p.Now,
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO app_user (id, lead_id, invitation_id, account_id, is_active, last_login, created_at, updated_at)
		 VALUES (?, ?, ?, ?, 1, NULL, ?, ?)`,
		u.ID, u.LeadID, u.InvitationID, u.AccountID, now, now)
	if err != nil {
		return user.User{}, err
	}
	return u, tx.Commit()
}

// ExpireOld marks overdue pending invitations as expired.
func (s *SQLiteStore) ExpireOld(ctx context.Context, now time.Time) (int, error) {
	ts := storage.FormatTime(now)
	res, err := s.db.ExecContext(ctx,
		`UPDATE invitation SET status = ?, updated_at = ? WHERE status = ? AND expires_at <= ?`,
		domain.StatusExpired, ts, domain.StatusPending, ts)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

// List returns invitations newest first.
func (s *SQLiteStore) List(ctx context.Context, filter ListFilter) ([]domain.Invitation, error) {
	query, args := listQuery(filter)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Invitation
	for rows.Next() {
		inv, err := scanInvitation(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, inv)
	}
	return out, rows.Err()
}

// listQuery builds the List statement with ? placeholders.
func listQuery(filter ListFilter) (string, []any) {
	var where []string
	var args []any
	if filter.Status != "" {
		where = append(where, "status = ?")
		args = append(args, filter.Status)
	}
	if filter.LeadID != "" {
		where = append(where, "lead_id = ?")
		args = append(args, filter.LeadID)
	}
	query := "SELECT " + selectColumns + " FROM invitation"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC, id"
	if filter.Limit > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, filter.Limit, filter.Offset)
	}
	return query, args
}

// scanInvitation extracts an Invitation from a row scanner function.
func scanInvitation(scan func(dest ...interface{}) error) (domain.Invitation, error) {
	var inv domain.Invitation
	var usedAt sql.NullString
	var expiresAt, createdAt, updatedAt string
	if err := scan(&inv.ID, &inv.LeadID, &inv.Token, &inv.Status, &expiresAt, &usedAt, &createdAt, &updatedAt); err != nil {
		return domain.Invitation{}, err
	}
	inv.ExpiresAt = storage.ParseTime(expiresAt)
	inv.UsedAt = storage.ParseNullTime(usedAt)
	inv.CreatedAt = storage.ParseTime(createdAt)
	inv.UpdatedAt = storage.ParseTime(updatedAt)
	return inv, nil
}
