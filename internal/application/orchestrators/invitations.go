package orchestrators

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	invitationStore "innercircle/internal/adapters/storage/invitation"
	"innercircle/internal/domain/account"
	"innercircle/internal/domain/audit"
	"innercircle/internal/domain/invitation"
	"innercircle/internal/domain/lead"
	"innercircle/internal/domain/outbox"
	"innercircle/internal/domain/user"
)

var (
	ErrLeadNotApproved      = errors.New("only approved leads can be invited")
	ErrInvitationNotFound   = errors.New("invitation not found or expired")
	ErrInvitationUnusable   = errors.New("invitation has already been used or expired")
	ErrInvitationEmailTaken = errors.New("an account with this email already exists")
)

// Values written to the lead when an invitation is issued.
const (
	InvitationReviewer = "Admin"
	InvitationNote     = "Einladung erstellt"
)

// InvitationStoreForCreate defines the store interface needed by CreateInvitation.
type InvitationStoreForCreate interface {
	Create(ctx context.Context, inv invitation.Invitation) (invitation.Invitation, error)
}

// OutboxWriter queues external actions.
type OutboxWriter interface {
	Save(ctx context.Context, e outbox.Entry) error
}

// CreateInvitationInput carries input for issuing an invitation.
type CreateInvitationInput struct {
	LeadID string
	Actor  Actor
}

// CreateInvitationDeps holds dependencies for CreateInvitation.
type CreateInvitationDeps struct {
	LeadStore       LeadStoreForAdmin
	InvitationStore InvitationStoreForCreate
	Outbox          OutboxWriter
	Audit           AuditRecorder
	GenerateID      func() string
	Now             func() time.Time
	TTL             time.Duration
	BaseURL         string
}

// CreateInvitationResult is the issued invitation and its redemption link.
type CreateInvitationResult struct {
	Invitation invitation.Invitation
	Link       string
}

// InvitationEmailPayload is the outbox payload for the invitation email.
type InvitationEmailPayload struct {
	To        string    `json:"to"`
	Name      string    `json:"name"`
	Link      string    `json:"link"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ExecuteCreateInvitation issues an invitation for an approved lead and queues the email.
// PRE: LeadID names an approved lead
// POST: Pending invitation stored; lead status invited with reviewer "Admin";
// an invitation email is queued in the outbox
func ExecuteCreateInvitation(ctx context.Context, input CreateInvitationInput, deps CreateInvitationDeps) (CreateInvitationResult, error) {
	l, err := getLead(ctx, deps.LeadStore, input.LeadID)
	if err != nil {
		return CreateInvitationResult{}, err
	}
	if l.EffectiveStatus() != lead.StatusApproved {
		return CreateInvitationResult{}, ErrLeadNotApproved
	}

	now := deps.Now()
	ttl := deps.TTL
	if ttl <= 0 {
		ttl = invitation.DefaultTTL
	}
	inv, err := invitation.New(deps.GenerateID(), l.ID, ttl, now)
	if err != nil {
		return CreateInvitationResult{}, err
	}
	inv, err = deps.InvitationStore.Create(ctx, inv)
	if errors.Is(err, sql.ErrNoRows) {
		return CreateInvitationResult{}, ErrLeadNotFound
	}
	if err != nil {
		return CreateInvitationResult{}, fmt.Errorf("create invitation: %w", err)
	}

	if err := l.ApplyStatus(lead.StatusInvited, InvitationReviewer, InvitationNote, now); err != nil {
		return CreateInvitationResult{}, err
	}
	if err := deps.LeadStore.Save(ctx, l); err != nil {
		return CreateInvitationResult{}, fmt.Errorf("mark lead invited: %w", err)
	}

	link := InvitationLink(deps.BaseURL, inv.Token)
	if deps.Outbox != nil {
		payload, err := json.Marshal(InvitationEmailPayload{To: l.Email, Name: firstName(l.Name), Link: link, ExpiresAt: inv.ExpiresAt})
		if err != nil {
			return CreateInvitationResult{}, err
		}
		entry := outbox.New(deps.GenerateID(), outbox.KindInvitationEmail, l.Email, string(payload), now)
		if err := entry.Validate(); err != nil {
			return CreateInvitationResult{}, err
		}
		// The invitation stands even if the mail cannot be queued; the admin can copy the link.
		if err := deps.Outbox.Save(ctx, entry); err != nil {
			slog.Error("invitation_event", "event", "email_enqueue_failed", "invitation_id", inv.ID, "error", err)
		}
	}

	recordAudit(ctx, deps.Audit, input.Actor, auditEntry{
		Category:     audit.CategoryInvitation,
		Action:       audit.ActionInvite,
		ResourceType: "lead",
		ResourceID:   l.ID,
		Description:  "invitation " + inv.ID + " issued",
	}, now)
	slog.Info("invitation_event", "event", "invitation_created", "invitation_id", inv.ID, "lead_id", l.ID, "expires_at", inv.ExpiresAt)
	return CreateInvitationResult{Invitation: inv, Link: link}, nil
}

// InvitationLink builds the public redemption URL for token.
func InvitationLink(baseURL, token string) string {
	return strings.TrimSuffix(baseURL, "/") + "/?invitation=" + url.QueryEscape(token)
}

// InvitationView is what the invitation page shows.
type InvitationView struct {
	Invitation invitation.Invitation
	Lead       lead.Lead
}

// LoadInvitationDeps holds dependencies for LoadInvitation.
type LoadInvitationDeps struct {
	InvitationStore interface {
		GetPendingByToken(ctx context.Context, token string, now time.Time) (invitation.Invitation, error)
	}
	LeadStore interface {
		GetByID(ctx context.Context, id string) (lead.Lead, error)
	}
	Now func() time.Time
}

// ExecuteLoadInvitation resolves a token for the invitation page.
// PRE: none
// POST: Returns ErrInvitationNotFound for unknown, used or expired tokens
func ExecuteLoadInvitation(ctx context.Context, token string, deps LoadInvitationDeps) (InvitationView, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return InvitationView{}, ErrInvitationNotFound
	}
	inv, err := deps.InvitationStore.GetPendingByToken(ctx, token, deps.Now())
	if errors.Is(err, sql.ErrNoRows) {
		return InvitationView{}, ErrInvitationNotFound
	}
	if err != nil {
		return InvitationView{}, err
	}
	l, err := deps.LeadStore.GetByID(ctx, inv.LeadID)
	if errors.Is(err, sql.ErrNoRows) {
		return InvitationView{}, ErrInvitationNotFound
	}
	if err != nil {
		return InvitationView{}, err
	}
	return InvitationView{Invitation: inv, Lead: l}, nil
}

// RedeemInvitationInput carries the registration form of the invitation page.
type RedeemInvitationInput struct {
	Token           string
	Email           string
	Password        string
	ConfirmPassword string
	IPAddress       string
	UserAgent       string
}

// RedeemInvitationDeps holds dependencies for RedeemInvitation.
type RedeemInvitationDeps struct {
	InvitationStore interface {
		Redeem(ctx context.Context, p invitationStore.RedeemParams) (user.User, error)
	}
	Audit      AuditRecorder
	GenerateID func() string
	Now        func() time.Time
}

// RedeemInvitationResult identifies the new member login.
type RedeemInvitationResult struct {
	User      user.User
	AccountID string
	Email     string
}

// ExecuteRedeemInvitation creates a member account from a pending invitation.
// PRE: none
// POST: Account, user and used invitation are committed atomically by the store
// INVARIANT: Password rules are checked before any store call
func ExecuteRedeemInvitation(ctx context.Context, input RedeemInvitationInput, deps RedeemInvitationDeps) (RedeemInvitationResult, error) {
	email := account.NormalizeEmail(input.Email)
	probe := account.New("", email, account.RoleMember, time.Time{})
	if err := probe.Validate(); err != nil {
		return RedeemInvitationResult{}, err
	}
	if err := account.CheckNewPassword(account.RoleMember, input.Password, input.ConfirmPassword); err != nil {
		return RedeemInvitationResult{}, err
	}
	if err := probe.SetPassword(input.Password); err != nil {
		return RedeemInvitationResult{}, err
	}

	now := deps.Now()
	accountID := deps.GenerateID()
	u, err := deps.InvitationStore.Redeem(ctx, invitationStore.RedeemParams{
		Token:        strings.TrimSpace(input.Token),
		UserID:       deps.GenerateID(),
		AccountID:    accountID,
		Email:        email,
		PasswordHash: probe.PasswordHash,
		Now:          now,
	})
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return RedeemInvitationResult{}, ErrInvitationNotFound
	case errors.Is(err, invitation.ErrNotPending), errors.Is(err, invitation.ErrExpired):
		slog.Info("invitation_event", "event", "redeem_rejected", "reason", err.Error())
		return RedeemInvitationResult{}, ErrInvitationUnusable
	case errors.Is(err, account.ErrEmailTaken):
		return RedeemInvitationResult{}, ErrInvitationEmailTaken
	case err != nil:
		return RedeemInvitationResult{}, fmt.Errorf("redeem invitation: %w", err)
	}

	recordAudit(ctx, deps.Audit, Actor{ID: accountID, Email: email, Role: account.RoleMember, IPAddress: input.IPAddress, UserAgent: input.UserAgent}, auditEntry{
		Category:     audit.CategoryInvitation,
		Action:       audit.ActionRedeem,
		ResourceType: "invitation",
		ResourceID:   u.InvitationID,
	}, now)
	slog.Info("invitation_event", "event", "invitation_redeemed", "invitation_id", u.InvitationID, "user_id", u.ID)
	return RedeemInvitationResult{User: u, AccountID: accountID, Email: email}, nil
}

// ExpireInvitationsDeps holds dependencies for ExpireInvitations.
type ExpireInvitationsDeps struct {
	InvitationStore interface {
		ExpireOld(ctx context.Context, now time.Time) (int, error)
	}
	Now func() time.Time
}

// ExecuteExpireInvitations marks every overdue pending invitation as expired.
// POST: Returns the number of invitations changed
func ExecuteExpireInvitations(ctx context.Context, deps ExpireInvitationsDeps) (int, error) {
	n, err := deps.InvitationStore.ExpireOld(ctx, deps.Now())
	if err != nil {
		return 0, fmt.Errorf("expire invitations: %w", err)
	}
	if n > 0 {
		slog.Info("invitation_event", "event", "invitations_expired", "count", n)
	}
	return n, nil
}

func firstName(name string) string {
	first, _, _ := strings.Cut(strings.TrimSpace(name), " ")
	return first
}
