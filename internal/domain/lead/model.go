package lead

import (
	"errors"
	"net/url"
	"strings"
	"time"
)

// Max length constants for user-editable fields.
const (
	MaxNameLength  = 200
	MaxEmailLength = 254
	MaxPhoneLength = 50
	MaxNotesLength = 2000
)

// Status constants
const (
	StatusNew      = "new"
	StatusReviewed = "reviewed"
	StatusApproved = "approved"
	StatusRejected = "rejected"
	StatusInvited  = "invited"
)

// ValidStatuses contains all valid status values, in the order the admin UI shows them.
var ValidStatuses = []string{StatusNew, StatusReviewed, StatusApproved, StatusRejected, StatusInvited}

// Source constants
const (
	SourceWebsite = "website"
	SourceDirect  = "direct"
)

// PhoneNotProvided is stored when the multi-step form is submitted without a phone number.
const PhoneNotProvided = "Nicht angegeben"

// User-facing messages shown by the signup forms.
const (
	MsgAllFieldsRequired = "Bitte füllen Sie alle Felder aus."
	MsgSubmitFailed      = "Fehler beim Senden. Bitte versuchen Sie es erneut."
)

// Domain errors
var (
	ErrEmptyName      = errors.New("name cannot be empty")
	ErrNameTooLong    = errors.New("name cannot exceed 200 characters")
	ErrEmptyEmail     = errors.New("email cannot be empty")
	ErrInvalidEmail   = errors.New("email must contain '@'")
	ErrEmailTooLong   = errors.New("email cannot exceed 254 characters")
	ErrPhoneTooLong   = errors.New("phone cannot exceed 50 characters")
	ErrNotesTooLong   = errors.New("notes cannot exceed 2000 characters")
	ErrInvalidStatus  = errors.New("status must be one of: new, reviewed, approved, rejected, invited")
	ErrMissingFields  = errors.New("name, email and phone are required")
	ErrWaitlistFields = errors.New("first name and email are required")
)

// Attribution records where a signup came from.
type Attribution struct {
	Source      string
	UTMSource   string
	UTMMedium   string
	UTMCampaign string
}

// AttributionFromQuery reads utm_source, utm_medium and utm_campaign from a landing URL query.
// PRE: none
// POST: Source is set to fallbackSource; UTM fields are empty when absent
func AttributionFromQuery(q url.Values, fallbackSource string) Attribution {
	return Attribution{
		Source:      fallbackSource,
		UTMSource:   strings.TrimSpace(q.Get("utm_source")),
		UTMMedium:   strings.TrimSpace(q.Get("utm_medium")),
		UTMCampaign: strings.TrimSpace(q.Get("utm_campaign")),
	}
}

// Lead is a "Pionier" entry captured by one of the signup forms.
type Lead struct {
	ID         string
	Name       string
	Email      string
	Phone      string
	Status     string
	ReviewedBy string
	ReviewedAt time.Time
	Notes      string
	Attribution
	Answers   string // JSON from the multi-step form, empty for other forms
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Validate checks if the Lead has valid data.
// PRE: Lead struct is populated
// POST: Returns nil if valid, error otherwise
// INVARIANT: Empty status is treated as new
func (l *Lead) Validate() error {
	if strings.TrimSpace(l.Name) == "" {
		return ErrEmptyName
	}
	if len(l.Name) > MaxNameLength {
		return ErrNameTooLong
	}
	if strings.TrimSpace(l.Email) == "" {
		return ErrEmptyEmail
	}
	if len(l.Email) > MaxEmailLength {
		return ErrEmailTooLong
	}
	if !strings.Contains(l.Email, "@") {
		return ErrInvalidEmail
	}
	if len(l.Phone) > MaxPhoneLength {
		return ErrPhoneTooLong
	}
	if len(l.Notes) > MaxNotesLength {
		return ErrNotesTooLong
	}
	if l.Status != "" && !IsValidStatus(l.Status) {
		return ErrInvalidStatus
	}
	return nil
}

// EffectiveStatus returns the status, reading an unset status as new.
func (l Lead) EffectiveStatus() string {
	if l.Status == "" {
		return StatusNew
	}
	return l.Status
}

// ApplyStatus records an admin review decision.
// PRE: status is valid
// POST: Status and ReviewedAt set; ReviewedBy and Notes only overwritten when non-empty
func (l *Lead) ApplyStatus(status, reviewedBy, notes string, now time.Time) error {
	if !IsValidStatus(status) {
		return ErrInvalidStatus
	}
	l.Status = status
	l.ReviewedAt = now
	l.UpdatedAt = now
	if reviewedBy != "" {
		l.ReviewedBy = reviewedBy
	}
	if notes != "" {
		l.Notes = notes
	}
	return nil
}

// IsValidStatus reports whether s is a known lead status.
func IsValidStatus(s string) bool {
	for _, v := range ValidStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// QuickSignup is the short modal form: every field is mandatory.
type QuickSignup struct {
	Name  string
	Email string
	Phone string
}

// Validate returns ErrMissingFields if any field is blank.
func (q QuickSignup) Validate() error {
	if strings.TrimSpace(q.Name) == "" || strings.TrimSpace(q.Email) == "" || strings.TrimSpace(q.Phone) == "" {
		return ErrMissingFields
	}
	return nil
}

// Waitlist is the hero form: a first name and an email.
type Waitlist struct {
	FirstName string
	Email     string
}

// Validate returns ErrWaitlistFields if first name or email is blank.
func (w Waitlist) Validate() error {
	if strings.TrimSpace(w.FirstName) == "" || strings.TrimSpace(w.Email) == "" {
		return ErrWaitlistFields
	}
	return nil
}

// Stats counts leads per status.
type Stats struct {
	Total    int `json:"total"`
	New      int `json:"new"`
	Reviewed int `json:"reviewed"`
	Approved int `json:"approved"`
	Rejected int `json:"rejected"`
	Invited  int `json:"invited"`
}

// ComputeStats tallies leads by effective status.
// PRE: none
// POST: Total == len(statuses); unknown statuses only count towards Total
func ComputeStats(statuses []string) Stats {
	s := Stats{Total: len(statuses)}
	for _, status := range statuses {
		switch status {
		case "", StatusNew:
			s.New++
		case StatusReviewed:
			s.Reviewed++
		case StatusApproved:
			s.Approved++
		case StatusRejected:
			s.Rejected++
		case StatusInvited:
			s.Invited++
		}
	}
	return s
}
