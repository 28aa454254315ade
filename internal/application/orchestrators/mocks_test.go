package orchestrators

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	invitationStore "innercircle/internal/adapters/storage/invitation"
	outboxStore "innercircle/internal/adapters/storage/outbox"
	"innercircle/internal/domain/account"
	"innercircle/internal/domain/audit"
	"innercircle/internal/domain/invitation"
	"innercircle/internal/domain/lead"
	"innercircle/internal/domain/outbox"
	"innercircle/internal/domain/recipe"
	"innercircle/internal/domain/user"
)

var fixedTime = time.Date(2025, 7, 1, 12, 0, 0, 0, time.UTC)

func fixedNow() time.Time { return fixedTime }

// sequentialIDs returns a generator yielding id-1, id-2, ...
func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

var errStoreDown = fmt.Errorf("store unavailable")

// --- lead store ---

type mockLeadStore struct {
	leads   map[string]lead.Lead
	saveErr error
}

func newMockLeadStore(leads ...lead.Lead) *mockLeadStore {
	m := &mockLeadStore{leads: make(map[string]lead.Lead)}
	for _, l := range leads {
		m.leads[l.ID] = l
	}
	return m
}

func (m *mockLeadStore) GetByID(_ context.Context, id string) (lead.Lead, error) {
	l, ok := m.leads[id]
	if !ok {
		return lead.Lead{}, fmt.Errorf("lead not found: %w", sql.ErrNoRows)
	}
	return l, nil
}

func (m *mockLeadStore) Save(_ context.Context, l lead.Lead) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.leads[l.ID] = l
	return nil
}

func (m *mockLeadStore) Delete(_ context.Context, id string) error {
	if _, ok := m.leads[id]; !ok {
		return fmt.Errorf("lead not found: %w", sql.ErrNoRows)
	}
	delete(m.leads, id)
	return nil
}

func (m *mockLeadStore) DeleteMany(_ context.Context, ids []string) (int, error) {
	n := 0
	for _, id := range ids {
		if _, ok := m.leads[id]; ok {
			delete(m.leads, id)
			n++
		}
	}
	return n, nil
}

// --- member counter ---

type mockMembers map[string]int

func (m mockMembers) CountByLead(_ context.Context, leadID string) (int, error) {
	return m[leadID], nil
}

// --- audit ---

type mockAudit struct {
	events []audit.Event
}

func (m *mockAudit) Save(_ context.Context, e audit.Event) error {
	m.events = append(m.events, e)
	return nil
}

func (m *mockAudit) last() audit.Event {
	if len(m.events) == 0 {
		return audit.Event{}
	}
	return m.events[len(m.events)-1]
}

// --- invitation store ---

type mockInvitationStore struct {
	invitations map[string]invitation.Invitation // by token
	leads       *mockLeadStore
	redeemErr   error
	redeemed    []invitationStore.RedeemParams
	expired     int
}

func newMockInvitationStore(leads *mockLeadStore) *mockInvitationStore {
	return &mockInvitationStore{invitations: make(map[string]invitation.Invitation), leads: leads}
}

func (m *mockInvitationStore) Create(_ context.Context, inv invitation.Invitation) (invitation.Invitation, error) {
	if _, ok := m.leads.leads[inv.LeadID]; !ok {
		return invitation.Invitation{}, fmt.Errorf("lead not found: %w", sql.ErrNoRows)
	}
	m.invitations[inv.Token] = inv
	return inv, nil
}

func (m *mockInvitationStore) GetPendingByToken(_ context.Context, token string, now time.Time) (invitation.Invitation, error) {
	inv, ok := m.invitations[token]
	if !ok || inv.Status != invitation.StatusPending || !inv.ExpiresAt.After(now) {
		return invitation.Invitation{}, fmt.Errorf("invitation not found: %w", sql.ErrNoRows)
	}
	return inv, nil
}

func (m *mockInvitationStore) Redeem(_ context.Context, p invitationStore.RedeemParams) (user.User, error) {
	if m.redeemErr != nil {
		return user.User{}, m.redeemErr
	}
	inv, ok := m.invitations[p.Token]
	if !ok {
		return user.User{}, fmt.Errorf("invitation not found: %w", sql.ErrNoRows)
	}
	if err := inv.Redeem(p.Now); err != nil {
		return user.User{}, err
	}
	m.invitations[p.Token] = inv
	m.redeemed = append(m.redeemed, p)
	return user.User{ID: p.UserID, LeadID: inv.LeadID, InvitationID: inv.ID, AccountID: p.AccountID, IsActive: true, CreatedAt: p.Now, UpdatedAt: p.Now}, nil
}

func (m *mockInvitationStore) ExpireOld(_ context.Context, now time.Time) (int, error) {
	n := 0
	for token, inv := range m.invitations {
		if inv.Expire(now) {
			m.invitations[token] = inv
			n++
		}
	}
	m.expired += n
	return n, nil
}

// --- outbox store ---

type mockOutbox struct {
	entries map[string]outbox.Entry
	saveErr error
}

func newMockOutbox() *mockOutbox {
	return &mockOutbox{entries: make(map[string]outbox.Entry)}
}

func (m *mockOutbox) GetByID(_ context.Context, id string) (outbox.Entry, error) {
	e, ok := m.entries[id]
	if !ok {
		return outbox.Entry{}, fmt.Errorf("outbox entry not found: %w", sql.ErrNoRows)
	}
	return e, nil
}

func (m *mockOutbox) Save(_ context.Context, e outbox.Entry) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.entries[e.ID] = e
	return nil
}

func (m *mockOutbox) ListDue(_ context.Context, now time.Time, limit int) ([]outbox.Entry, error) {
	var out []outbox.Entry
	for _, e := range m.sorted() {
		if e.Due(now) && len(out) < limit {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *mockOutbox) List(_ context.Context, f outboxStore.ListFilter) ([]outbox.Entry, error) {
	var out []outbox.Entry
	for _, e := range m.sorted() {
		if (f.Status == "" || e.Status == f.Status) && (f.Kind == "" || e.Kind == f.Kind) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *mockOutbox) CountByStatus(_ context.Context) (map[string]int, error) {
	counts := map[string]int{}
	for _, e := range m.entries {
		counts[e.Status]++
	}
	return counts, nil
}

func (m *mockOutbox) PruneSent(_ context.Context, cutoff time.Time) (int64, error) {
	var n int64
	for id, e := range m.entries {
		if e.Status == outbox.StatusSent && e.CreatedAt.Before(cutoff) {
			delete(m.entries, id)
			n++
		}
	}
	return n, nil
}

func (m *mockOutbox) sorted() []outbox.Entry {
	out := make([]outbox.Entry, 0, len(m.entries))
	for _, e := range m.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// --- recipe store ---

type mockRecipeStore struct {
	recipes      map[string]recipe.Recipe
	downloads    []recipe.Download
	downloadErr  error
	incrementErr error
}

func newMockRecipeStore(recipes ...recipe.Recipe) *mockRecipeStore {
	m := &mockRecipeStore{recipes: make(map[string]recipe.Recipe)}
	for _, r := range recipes {
		m.recipes[r.ID] = r
	}
	return m
}

func (m *mockRecipeStore) GetByID(_ context.Context, id string) (recipe.Recipe, error) {
	r, ok := m.recipes[id]
	if !ok {
		return recipe.Recipe{}, fmt.Errorf("recipe not found: %w", sql.ErrNoRows)
	}
	return r, nil
}

func (m *mockRecipeStore) Save(_ context.Context, r recipe.Recipe) error {
	m.recipes[r.ID] = r
	return nil
}

func (m *mockRecipeStore) Delete(_ context.Context, id string) error {
	if _, ok := m.recipes[id]; !ok {
		return fmt.Errorf("recipe not found: %w", sql.ErrNoRows)
	}
	delete(m.recipes, id)
	return nil
}

func (m *mockRecipeStore) SaveDownload(_ context.Context, d recipe.Download) error {
	if m.downloadErr != nil {
		return m.downloadErr
	}
	m.downloads = append(m.downloads, d)
	return nil
}

func (m *mockRecipeStore) IncrementDownloadCount(_ context.Context, id string, _ time.Time) (int, error) {
	if m.incrementErr != nil {
		return 0, m.incrementErr
	}
	r := m.recipes[id]
	r.DownloadCount++
	m.recipes[id] = r
	return r.DownloadCount, nil
}

// --- account store ---

type mockAccountStore struct {
	accounts map[string]account.Account // by email
	saves    int
}

func newMockAccountStore(accts ...account.Account) *mockAccountStore {
	m := &mockAccountStore{accounts: make(map[string]account.Account)}
	for _, a := range accts {
		m.accounts[a.Email] = a
	}
	return m
}

func (m *mockAccountStore) GetByEmail(_ context.Context, email string) (account.Account, error) {
	a, ok := m.accounts[email]
	if !ok {
		return account.Account{}, fmt.Errorf("account not found: %w", sql.ErrNoRows)
	}
	return a, nil
}

func (m *mockAccountStore) GetByID(_ context.Context, id string) (account.Account, error) {
	for _, a := range m.accounts {
		if a.ID == id {
			return a, nil
		}
	}
	return account.Account{}, fmt.Errorf("account %q: %w", id, sql.ErrNoRows)
}

func (m *mockAccountStore) Save(_ context.Context, a account.Account) error {
	m.saves++
	m.accounts[a.Email] = a
	return nil
}

func (m *mockAccountStore) CountByRole(_ context.Context, role string) (int, error) {
	n := 0
	for _, a := range m.accounts {
		if role == "" || a.Role == role {
			n++
		}
	}
	return n, nil
}

// --- user store ---

type mockUserStore struct {
	users map[string]user.User // by account ID
}

func (m *mockUserStore) GetByAccountID(_ context.Context, accountID string) (user.User, error) {
	u, ok := m.users[accountID]
	if !ok {
		return user.User{}, fmt.Errorf("user not found: %w", sql.ErrNoRows)
	}
	return u, nil
}

func (m *mockUserStore) UpdateLastLogin(_ context.Context, id string, now time.Time) error {
	for k, u := range m.users {
		if u.ID == id {
			u.LastLogin = now
			m.users[k] = u
			return nil
		}
	}
	return fmt.Errorf("user not found: %w", sql.ErrNoRows)
}
