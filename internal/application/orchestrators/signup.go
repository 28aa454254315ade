package orchestrators

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"innercircle/internal/domain/lead"
	"innercircle/internal/domain/registration"
)

// LeadStoreForSignup defines the store interface needed by the signup orchestrators.
type LeadStoreForSignup interface {
	Save(ctx context.Context, l lead.Lead) error
}

// SignupDeps holds dependencies for the three public signup forms.
type SignupDeps struct {
	LeadStore  LeadStoreForSignup
	GenerateID func() string
	Now        func() time.Time
}

// QuickSignupInput carries input for the quick signup modal.
type QuickSignupInput struct {
	Name        string
	Email       string
	Phone       string
	Attribution lead.Attribution
}

// ExecuteQuickSignup stores a lead from the quick signup modal.
// PRE: none
// POST: Lead saved with status new; store errors are returned to the caller
func ExecuteQuickSignup(ctx context.Context, input QuickSignupInput, deps SignupDeps) (lead.Lead, error) {
	form := lead.QuickSignup{Name: input.Name, Email: input.Email, Phone: input.Phone}
	if err := form.Validate(); err != nil {
		return lead.Lead{}, err
	}

	now := deps.Now()
	l := lead.Lead{
		ID:          deps.GenerateID(),
		Name:        strings.TrimSpace(input.Name),
		Email:       strings.TrimSpace(input.Email),
		Phone:       strings.TrimSpace(input.Phone),
		Status:      lead.StatusNew,
		Attribution: withDefaultSource(input.Attribution),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := l.Validate(); err != nil {
		return lead.Lead{}, err
	}
	if err := deps.LeadStore.Save(ctx, l); err != nil {
		slog.Error("lead_event", "event", "quick_signup_failed", "error", err)
		return lead.Lead{}, err
	}

	slog.Info("lead_event", "event", "lead_created", "form", "quick_signup", "lead_id", l.ID, "utm_source", l.UTMSource)
	return l, nil
}

// WaitlistInput carries input for the hero waitlist form.
type WaitlistInput struct {
	FirstName   string
	Email       string
	Attribution lead.Attribution
}

// ExecuteWaitlist stores a lead from the hero waitlist form.
// PRE: none
// POST: Validation errors are returned; a failed save is logged and NOT returned
// INVARIANT: The visitor sees the success page even when the store is down
func ExecuteWaitlist(ctx context.Context, input WaitlistInput, deps SignupDeps) error {
	form := lead.Waitlist{FirstName: input.FirstName, Email: input.Email}
	if err := form.Validate(); err != nil {
		return err
	}

	now := deps.Now()
	l := lead.Lead{
		ID:          deps.GenerateID(),
		Name:        strings.TrimSpace(input.FirstName),
		Email:       strings.TrimSpace(input.Email),
		Status:      lead.StatusNew,
		Attribution: withDefaultSource(input.Attribution),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := l.Validate(); err != nil {
		return err
	}
	if err := deps.LeadStore.Save(ctx, l); err != nil {
		slog.Error("lead_event", "event", "waitlist_save_masked", "error", err)
		return nil
	}

	slog.Info("lead_event", "event", "lead_created", "form", "waitlist", "lead_id", l.ID, "utm_source", l.UTMSource)
	return nil
}

// ApplicationInput carries the finished multi-step form.
type ApplicationInput struct {
	Form        registration.Form
	Attribution lead.Attribution
}

// ExecuteApplication stores a lead from the multi-step registration form.
// PRE: Form is on its last step
// POST: Form errors are returned; a failed save is logged and NOT returned
// INVARIANT: The visitor sees the success page even when the store is down
func ExecuteApplication(ctx context.Context, input ApplicationInput, deps SignupDeps) error {
	form := input.Form
	l, err := form.ToLead(deps.GenerateID(), withDefaultSource(input.Attribution), deps.Now())
	if err != nil {
		return err
	}
	if err := deps.LeadStore.Save(ctx, l); err != nil {
		slog.Error("lead_event", "event", "application_save_masked", "error", err)
		return nil
	}

	slog.Info("lead_event", "event", "lead_created", "form", "application", "lead_id", l.ID, "utm_source", l.UTMSource)
	return nil
}

func withDefaultSource(attr lead.Attribution) lead.Attribution {
	if attr.Source == "" {
		attr.Source = lead.SourceWebsite
	}
	return attr
}
