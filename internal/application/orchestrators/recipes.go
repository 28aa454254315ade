package orchestrators

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"innercircle/internal/domain/audit"
	"innercircle/internal/domain/lead"
	"innercircle/internal/domain/recipe"
)

var ErrRecipeNotFound = errors.New("recipe not found")

// RecipeStoreForDownload defines the store interface needed by RecordRecipeDownload.
type RecipeStoreForDownload interface {
	GetByID(ctx context.Context, id string) (recipe.Recipe, error)
	SaveDownload(ctx context.Context, d recipe.Download) error
	IncrementDownloadCount(ctx context.Context, id string, now time.Time) (int, error)
}

// RecordDownloadInput carries the recipe page form plus request context captured by the server.
type RecordDownloadInput struct {
	RecipeID       string
	Name           string
	Email          string
	Attribution    lead.Attribution
	LandingPageURL string
	Referrer       string
	UserAgent      string
	IPAddress      string
}

// RecordDownloadDeps holds dependencies for RecordRecipeDownload.
type RecordDownloadDeps struct {
	RecipeStore RecipeStoreForDownload
	GenerateID  func() string
	Now         func() time.Time
}

// RecordDownloadResult carries the recipe the visitor may now fetch.
type RecordDownloadResult struct {
	Recipe   recipe.Recipe
	Download recipe.Download
	Count    int
}

// ExecuteRecordRecipeDownload records a download and bumps the recipe counter.
// PRE: RecipeID names an active recipe
// POST: Download stored, then the counter incremented; the two are separate store calls
func ExecuteRecordRecipeDownload(ctx context.Context, input RecordDownloadInput, deps RecordDownloadDeps) (RecordDownloadResult, error) {
	r, err := deps.RecipeStore.GetByID(ctx, input.RecipeID)
	if errors.Is(err, sql.ErrNoRows) {
		return RecordDownloadResult{}, ErrRecipeNotFound
	}
	if err != nil {
		return RecordDownloadResult{}, err
	}
	if !r.IsActive {
		return RecordDownloadResult{}, recipe.ErrRecipeInactive
	}

	now := deps.Now()
	source := input.Attribution.Source
	if source == "" {
		source = recipe.SourceRecipePage
	}
	d := recipe.Download{
		ID:             deps.GenerateID(),
		RecipeID:       r.ID,
		Name:           strings.TrimSpace(input.Name),
		Email:          strings.TrimSpace(input.Email),
		Source:         source,
		UTMSource:      input.Attribution.UTMSource,
		UTMMedium:      input.Attribution.UTMMedium,
		UTMCampaign:    input.Attribution.UTMCampaign,
		LandingPageURL: input.LandingPageURL,
		Referrer:       input.Referrer,
		UserAgent:      input.UserAgent,
		IPAddress:      input.IPAddress,
		DownloadedAt:   now,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := d.Validate(); err != nil {
		return RecordDownloadResult{}, err
	}
	if err := deps.RecipeStore.SaveDownload(ctx, d); err != nil {
		return RecordDownloadResult{}, fmt.Errorf("save download: %w", err)
	}
	count, err := deps.RecipeStore.IncrementDownloadCount(ctx, r.ID, now)
	if err != nil {
		return RecordDownloadResult{}, fmt.Errorf("increment download count: %w", err)
	}
	r.DownloadCount = count

	slog.Info("recipe_event", "event", "recipe_downloaded", "recipe_id", r.ID, "download_id", d.ID, "source", d.Source, "count", count)
	return RecordDownloadResult{Recipe: r, Download: d, Count: count}, nil
}

// RecipeStoreForAdmin defines the store interface needed by the recipe CRUD orchestrators.
type RecipeStoreForAdmin interface {
	GetByID(ctx context.Context, id string) (recipe.Recipe, error)
	Save(ctx context.Context, r recipe.Recipe) error
	Delete(ctx context.Context, id string) error
}

// RecipeAdminDeps holds dependencies for the recipe CRUD orchestrators.
type RecipeAdminDeps struct {
	RecipeStore RecipeStoreForAdmin
	Audit       AuditRecorder
	GenerateID  func() string
	Now         func() time.Time
}

// RecipeInput carries the editable fields of a recipe.
type RecipeInput struct {
	ID          string // empty on create
	Title       string
	Description string
	FileURL     string
	FileName    string
	FileSize    int64
	IsActive    bool
	Actor       Actor
}

// ExecuteCreateRecipe adds a recipe to the catalogue.
// PRE: none
// POST: Recipe stored with a zero download count
func ExecuteCreateRecipe(ctx context.Context, input RecipeInput, deps RecipeAdminDeps) (recipe.Recipe, error) {
	now := deps.Now()
	r := recipe.Recipe{ID: deps.GenerateID(), CreatedAt: now}
	applyRecipeInput(&r, input, now)
	if err := r.Validate(); err != nil {
		return recipe.Recipe{}, err
	}
	if err := deps.RecipeStore.Save(ctx, r); err != nil {
		return recipe.Recipe{}, err
	}

	recordAudit(ctx, deps.Audit, input.Actor, auditEntry{
		Category: audit.CategoryRecipe, Action: audit.ActionCreate,
		ResourceType: "recipe", ResourceID: r.ID, Description: r.Title,
	}, now)
	slog.Info("recipe_event", "event", "recipe_created", "recipe_id", r.ID, "active", r.IsActive)
	return r, nil
}

// ExecuteUpdateRecipe edits an existing recipe.
// PRE: input.ID names an existing recipe
// POST: Editable fields replaced; DownloadCount and CreatedAt untouched
func ExecuteUpdateRecipe(ctx context.Context, input RecipeInput, deps RecipeAdminDeps) (recipe.Recipe, error) {
	r, err := deps.RecipeStore.GetByID(ctx, input.ID)
	if errors.Is(err, sql.ErrNoRows) {
		return recipe.Recipe{}, ErrRecipeNotFound
	}
	if err != nil {
		return recipe.Recipe{}, err
	}

	now := deps.Now()
	applyRecipeInput(&r, input, now)
	if err := r.Validate(); err != nil {
		return recipe.Recipe{}, err
	}
	if err := deps.RecipeStore.Save(ctx, r); err != nil {
		return recipe.Recipe{}, err
	}

	recordAudit(ctx, deps.Audit, input.Actor, auditEntry{
		Category: audit.CategoryRecipe, Action: audit.ActionUpdate,
		ResourceType: "recipe", ResourceID: r.ID, Description: r.Title,
	}, now)
	slog.Info("recipe_event", "event", "recipe_updated", "recipe_id", r.ID, "active", r.IsActive)
	return r, nil
}

// ExecuteDeleteRecipe removes a recipe together with its download records.
// PRE: id is non-empty
// POST: ErrRecipeNotFound if nothing was deleted
func ExecuteDeleteRecipe(ctx context.Context, id string, actor Actor, deps RecipeAdminDeps) error {
	if err := deps.RecipeStore.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrRecipeNotFound
		}
		return err
	}

	recordAudit(ctx, deps.Audit, actor, auditEntry{
		Category: audit.CategoryRecipe, Action: audit.ActionDelete, Severity: audit.SeverityWarning,
		ResourceType: "recipe", ResourceID: id,
	}, deps.Now())
	slog.Info("recipe_event", "event", "recipe_deleted", "recipe_id", id)
	return nil
}

func applyRecipeInput(r *recipe.Recipe, input RecipeInput, now time.Time) {
	r.Title = strings.TrimSpace(input.Title)
	r.Description = strings.TrimSpace(input.Description)
	r.FileURL = strings.TrimSpace(input.FileURL)
	r.FileName = strings.TrimSpace(input.FileName)
	r.FileSize = input.FileSize
	r.IsActive = input.IsActive
	r.UpdatedAt = now
}
