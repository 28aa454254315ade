package projections

import (
	"context"

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

// LeadStore interface for lead queries.
type LeadStore interface {
	List(ctx context.Context, filter lead.ListFilter) ([]domainLead.Lead, error)
	ListStatuses(ctx context.Context) ([]string, error)
}

// RecipeStore interface for recipe and download queries.
type RecipeStore interface {
	List(ctx context.Context, activeOnly bool) ([]domainRecipe.Recipe, error)
	ListDownloads(ctx context.Context, filter recipe.DownloadFilter) ([]domainRecipe.Download, error)
	ListDownloadStamps(ctx context.Context) ([]domainRecipe.DownloadStamp, error)
}

// InvitationStore interface for invitation queries.
type InvitationStore interface {
	List(ctx context.Context, filter invitation.ListFilter) ([]domainInvitation.Invitation, error)
}

// UserStore interface for member queries.
type UserStore interface {
	List(ctx context.Context, filter user.ListFilter) ([]domainUser.User, error)
}

// AccountStore lists login accounts.
type AccountStore interface {
	List(ctx context.Context, filter account.ListFilter) ([]domainAccount.Account, error)
}
