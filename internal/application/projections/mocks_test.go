package projections

import (
	"context"
	"errors"
	"time"

	"innercircle/internal/adapters/storage/account"
	"innercircle/internal/adapters/storage/invitation"
	"innercircle/internal/adapters/storage/lead"
	"innercircle/internal/adapters/storage/recipe"
	"innercircle/internal/adapters/storage/user"
	domainAccount "innercircle/internal/domain/account"
	domainInvitation "innercircle/internal/domain/invitation"
	domainLead "innercircle/internal/domain/lead"
	domainRecipe "innercircle/internal/domain/recipe"
	domainUser "innercircle/internal/domain/user"
)

var fixedTime = time.Date(2025, 7, 1, 12, 0, 0, 0, time.UTC)

func fixedNow() time.Time { return fixedTime }

var errStoreDown = errors.New("store down")

type mockLeadStore struct {
	leads     []domainLead.Lead
	listErr   error
	statusErr error
}

// List returns the seeded leads.
func (m *mockLeadStore) List(_ context.Context, _ lead.ListFilter) ([]domainLead.Lead, error) {
	return m.leads, m.listErr
}

// ListStatuses returns the status of every seeded lead.
func (m *mockLeadStore) ListStatuses(_ context.Context) ([]string, error) {
	if m.statusErr != nil {
		return nil, m.statusErr
	}
	out := make([]string, len(m.leads))
	for i, l := range m.leads {
		out[i] = l.Status
	}
	return out, nil
}

type mockRecipeStore struct {
	recipes   []domainRecipe.Recipe
	downloads []domainRecipe.Download
	err       error
}

func (m *mockRecipeStore) List(_ context.Context, _ bool) ([]domainRecipe.Recipe, error) {
	return m.recipes, nil
}

func (m *mockRecipeStore) ListDownloads(_ context.Context, _ recipe.DownloadFilter) ([]domainRecipe.Download, error) {
	return m.downloads, m.err
}

func (m *mockRecipeStore) ListDownloadStamps(_ context.Context) ([]domainRecipe.DownloadStamp, error) {
	out := make([]domainRecipe.DownloadStamp, len(m.downloads))
	for i, d := range m.downloads {
		out[i] = domainRecipe.DownloadStamp{DownloadedAt: d.DownloadedAt, Source: d.Source}
	}
	return out, nil
}

type mockInvitationStore struct {
	invitations []domainInvitation.Invitation
}

// List returns seeded invitations matching the status filter.
func (m *mockInvitationStore) List(_ context.Context, filter invitation.ListFilter) ([]domainInvitation.Invitation, error) {
	var out []domainInvitation.Invitation
	for _, inv := range m.invitations {
		if filter.Status == "" || inv.Status == filter.Status {
			out = append(out, inv)
		}
	}
	return out, nil
}

type mockUserStore struct {
	users []domainUser.User
}

func (m *mockUserStore) List(_ context.Context, _ user.ListFilter) ([]domainUser.User, error) {
	return m.users, nil
}

type mockAccountStore struct {
	accounts []domainAccount.Account
}

func (m *mockAccountStore) List(_ context.Context, f account.ListFilter) ([]domainAccount.Account, error) {
	var out []domainAccount.Account
	for _, a := range m.accounts {
		if f.Role == "" || a.Role == f.Role {
			out = append(out, a)
		}
	}
	return out, nil
}
