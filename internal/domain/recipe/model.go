package recipe

import (
	"errors"
	"strings"
	"time"
)

// Max length constants for user-editable fields.
const (
	MaxTitleLength       = 200
	MaxDescriptionLength = 5000
	MaxURLLength         = 2048
	MaxNameLength        = 200
	MaxEmailLength       = 254
	MaxSourceLength      = 100 // source and each UTM field
	MaxUserAgentLength   = 1024
)

// SourceRecipePage is the attribution source of downloads from the recipe landing page.
const SourceRecipePage = "recipe-page"

// MsgDownloadFailed is shown when a download could not be recorded.
const MsgDownloadFailed = "Fehler beim Download. Bitte versuchen Sie es erneut."

// Domain errors
var (
	ErrEmptyTitle         = errors.New("title cannot be empty")
	ErrTitleTooLong       = errors.New("title cannot exceed 200 characters")
	ErrDescriptionTooLong = errors.New("description cannot exceed 5000 characters")
	ErrEmptyFileURL       = errors.New("file URL cannot be empty")
	ErrURLTooLong         = errors.New("URL cannot exceed 2048 characters")
	ErrEmptyFileName      = errors.New("file name cannot be empty")
	ErrNegativeFileSize   = errors.New("file size cannot be negative")
	ErrEmptyRecipeID      = errors.New("recipe is required")
	ErrEmptyName          = errors.New("name cannot be empty")
	ErrEmptyEmail         = errors.New("email cannot be empty")
	ErrInvalidEmail       = errors.New("email must contain '@'")
	ErrNameTooLong        = errors.New("name cannot exceed 200 characters")
	ErrEmailTooLong       = errors.New("email cannot exceed 254 characters")
	ErrSourceTooLong      = errors.New("source and UTM fields cannot exceed 100 characters")
	ErrUserAgentTooLong   = errors.New("user agent cannot exceed 1024 characters")
	ErrRecipeInactive     = errors.New("recipe is not available")
)

// Recipe is a downloadable asset offered on the recipe landing page.
type Recipe struct {
	ID            string
	Title         string
	Description   string // markdown
	FileURL       string
	FileName      string
	FileSize      int64
	DownloadCount int
	IsActive      bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Validate checks if the Recipe has valid data.
// PRE: Recipe struct is populated
// POST: Returns nil if valid, error otherwise
func (r *Recipe) Validate() error {
	if strings.TrimSpace(r.Title) == "" {
		return ErrEmptyTitle
	}
	if len(r.Title) > MaxTitleLength {
		return ErrTitleTooLong
	}
	if len(r.Description) > MaxDescriptionLength {
		return ErrDescriptionTooLong
	}
	if strings.TrimSpace(r.FileURL) == "" {
		return ErrEmptyFileURL
	}
	if len(r.FileURL) > MaxURLLength {
		return ErrURLTooLong
	}
	if strings.TrimSpace(r.FileName) == "" {
		return ErrEmptyFileName
	}
	if r.FileSize < 0 {
		return ErrNegativeFileSize
	}
	return nil
}

// Download records one lead who requested a recipe.
type Download struct {
	ID             string
	RecipeID       string
	Name           string
	Email          string
	Source         string
	UTMSource      string
	UTMMedium      string
	UTMCampaign    string
	LandingPageURL string
	Referrer       string
	UserAgent      string
	IPAddress      string
	DownloadedAt   time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Validate checks if the Download has valid data.
// PRE: Download struct is populated
// POST: Returns nil if valid, error otherwise; an empty Source defaults to SourceRecipePage
func (d *Download) Validate() error {
	if strings.TrimSpace(d.RecipeID) == "" {
		return ErrEmptyRecipeID
	}
	if strings.TrimSpace(d.Name) == "" {
		return ErrEmptyName
	}
	if len(d.Name) > MaxNameLength {
		return ErrNameTooLong
	}
	if strings.TrimSpace(d.Email) == "" {
		return ErrEmptyEmail
	}
	if len(d.Email) > MaxEmailLength {
		return ErrEmailTooLong
	}
	if !strings.Contains(d.Email, "@") {
		return ErrInvalidEmail
	}
	if len(d.LandingPageURL) > MaxURLLength || len(d.Referrer) > MaxURLLength {
		return ErrURLTooLong
	}
	for _, f := range []string{d.Source, d.UTMSource, d.UTMMedium, d.UTMCampaign} {
		if len(f) > MaxSourceLength {
			return ErrSourceTooLong
		}
	}
	if len(d.UserAgent) > MaxUserAgentLength {
		return ErrUserAgentTooLong
	}
	if d.Source == "" {
		d.Source = SourceRecipePage
	}
	return nil
}
