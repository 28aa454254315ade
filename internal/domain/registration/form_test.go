package registration

import (
	"encoding/json"
	"testing"
	"time"

	"innercircle/internal/domain/lead"
)

func completeForm() Form {
	return Form{
		Step:                TotalSteps,
		FirstName:           "Sarah",
		LastName:            "Meyer",
		Email:               "sarah@example.de",
		PrimaryGoal:         "muscle-gain",
		CurrentFitnessLevel: "beginner",
		AvailableTime:       "3-4h",
		Motivation:          "Endlich dranbleiben",
		Challenges:          []string{"Zeitmangel"},
		HearAboutUs:         "instagram",
	}
}

// TestForm_StepComplete checks the required fields of every step.
func TestForm_StepComplete(t *testing.T) {
	tests := []struct {
		name string
		form Form
		step int
		want bool
	}{
		{"step 1 empty", Form{}, 1, false},
		{"step 1 missing last name", Form{FirstName: "Sarah", Email: "s@x.de"}, 1, false},
		{"step 1 phone optional", Form{FirstName: "Sarah", LastName: "M", Email: "s@x.de"}, 1, true},
		{"step 1 whitespace only", Form{FirstName: " ", LastName: "M", Email: "s@x.de"}, 1, false},
		{"step 2 missing level", Form{PrimaryGoal: "health"}, 2, false},
		{"step 2 experience optional", Form{PrimaryGoal: "health", CurrentFitnessLevel: "advanced"}, 2, true},
		{"step 3 missing motivation", Form{AvailableTime: "1-2h"}, 3, false},
		{"step 3 preferred optional", Form{AvailableTime: "1-2h", Motivation: "fit"}, 3, true},
		{"step 4 always", Form{}, 4, true},
		{"step 0 never", Form{}, 0, false},
		{"step 5 never", Form{}, 5, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.form.StepComplete(tt.step); got != tt.want {
				t.Errorf("StepComplete(%d) = %v, want %v", tt.step, got, tt.want)
			}
		})
	}
}

// TestForm_NextPrev verifies step gating in both directions.
func TestForm_NextPrev(t *testing.T) {
	f := NewForm()
	if f.Next() {
		t.Fatal("Next() advanced past an incomplete step 1")
	}
	if f.Prev() {
		t.Fatal("Prev() moved below step 1")
	}

	f.FirstName, f.LastName, f.Email = "Tom", "R", "tom@example.de"
	if !f.Next() || f.Step != 2 {
		t.Fatalf("expected step 2, got %d", f.Step)
	}
	if f.Progress() != 50 {
		t.Errorf("Progress() = %d, want 50", f.Progress())
	}

	f.PrimaryGoal, f.CurrentFitnessLevel = "strength", "intermediate"
	f.Next()
	f.AvailableTime, f.Motivation = "5-6h", "Stärker werden"
	f.Next()
	if f.Step != 4 {
		t.Fatalf("expected step 4, got %d", f.Step)
	}
	if f.Next() {
		t.Error("Next() advanced past the last step")
	}
	if f.Progress() != 100 {
		t.Errorf("Progress() = %d, want 100", f.Progress())
	}
	if !f.Prev() || f.Step != 3 {
		t.Errorf("expected Prev() to step back to 3, got %d", f.Step)
	}
}

// TestForm_ToggleChallenge verifies toggling adds then removes.
func TestForm_ToggleChallenge(t *testing.T) {
	f := NewForm()
	f.ToggleChallenge("Zeitmangel")
	f.ToggleChallenge("Selbstdisziplin")
	if !f.HasChallenge("Zeitmangel") || len(f.Challenges) != 2 {
		t.Fatalf("unexpected challenges: %v", f.Challenges)
	}
	f.ToggleChallenge("Zeitmangel")
	if f.HasChallenge("Zeitmangel") || len(f.Challenges) != 1 {
		t.Errorf("expected Zeitmangel removed, got %v", f.Challenges)
	}
}

// TestForm_Clamp verifies posted steps are pulled into range.
func TestForm_Clamp(t *testing.T) {
	f := Form{Step: 9}
	f.Clamp()
	if f.Step != TotalSteps {
		t.Errorf("Step = %d, want %d", f.Step, TotalSteps)
	}
	f.Step = -2
	f.Clamp()
	if f.Step != 1 {
		t.Errorf("Step = %d, want 1", f.Step)
	}
}

// TestForm_ToLead verifies the lead built from a finished form.
func TestForm_ToLead(t *testing.T) {
	now := time.Date(2025, 7, 20, 9, 0, 0, 0, time.UTC)
	f := completeForm()
	l, err := f.ToLead("lead-1", lead.Attribution{Source: lead.SourceWebsite, UTMSource: "tiktok"}, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if l.Name != "Sarah Meyer" {
		t.Errorf("Name = %q, want %q", l.Name, "Sarah Meyer")
	}
	if l.Phone != lead.PhoneNotProvided {
		t.Errorf("Phone = %q, want %q", l.Phone, lead.PhoneNotProvided)
	}
	if l.Status != lead.StatusNew || l.UTMSource != "tiktok" || !l.CreatedAt.Equal(now) {
		t.Errorf("unexpected lead: %+v", l)
	}
	var a Answers
	if err := json.Unmarshal([]byte(l.Answers), &a); err != nil {
		t.Fatalf("answers are not JSON: %v", err)
	}
	if a.PrimaryGoal != "muscle-gain" || len(a.Challenges) != 1 {
		t.Errorf("unexpected answers: %+v", a)
	}
}

// TestForm_ToLead_Rejects covers incomplete, early and unknown-option submissions.
func TestForm_ToLead_Rejects(t *testing.T) {
	now := time.Now()

	early := completeForm()
	early.Step = 3
	if _, err := early.ToLead("x", lead.Attribution{}, now); err != ErrNotLastStep {
		t.Errorf("expected ErrNotLastStep, got %v", err)
	}

	missing := completeForm()
	missing.Motivation = ""
	if _, err := missing.ToLead("x", lead.Attribution{}, now); err != ErrStepIncomplete {
		t.Errorf("expected ErrStepIncomplete, got %v", err)
	}

	bogus := completeForm()
	bogus.PrimaryGoal = "teleportation"
	if _, err := bogus.ToLead("x", lead.Attribution{}, now); err != ErrUnknownOption {
		t.Errorf("expected ErrUnknownOption, got %v", err)
	}

	badChallenge := completeForm()
	badChallenge.Challenges = []string{"Langeweile"}
	if _, err := badChallenge.ToLead("x", lead.Attribution{}, now); err != ErrUnknownOption {
		t.Errorf("expected ErrUnknownOption, got %v", err)
	}
}
