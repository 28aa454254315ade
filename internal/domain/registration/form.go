package registration

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	"innercircle/internal/domain/lead"
)

// TotalSteps is the number of pages in the registration form.
const TotalSteps = 4

// Domain errors
var (
	ErrStepIncomplete = errors.New("required fields of the current step are missing")
	ErrUnknownOption  = errors.New("unknown option selected")
	ErrNotLastStep    = errors.New("the form can only be submitted from the last step")
)

// Form is the state of the four-step "Pioniergruppe" registration.
// Step 1: personal data, step 2: goals, step 3: availability, step 4: optional extras.
type Form struct {
	Step int

	FirstName string
	LastName  string
	Email     string
	Phone     string

	PrimaryGoal         string
	CurrentFitnessLevel string
	PreviousExperience  string

	AvailableTime string
	PreferredTime string
	Motivation    string

	Challenges      []string
	HearAboutUs     string
	AdditionalNotes string
}

// NewForm returns an empty form positioned at step 1.
func NewForm() Form {
	return Form{Step: 1}
}

// StepComplete reports whether the required fields of step are filled in.
// PRE: none
// POST: Steps outside 1..TotalSteps are never complete; step 4 is always complete
func (f *Form) StepComplete(step int) bool {
	switch step {
	case 1:
		return filled(f.FirstName) && filled(f.LastName) && filled(f.Email)
	case 2:
		return filled(f.PrimaryGoal) && filled(f.CurrentFitnessLevel)
	case 3:
		return filled(f.AvailableTime) && filled(f.Motivation)
	case 4:
		return true
	default:
		return false
	}
}

// CanAdvance reports whether Next would move the form forward.
func (f *Form) CanAdvance() bool {
	return f.StepComplete(f.Step) && f.Step < TotalSteps
}

// Next moves to the following step.
// PRE: none
// POST: Step incremented iff the current step is complete and not the last one
func (f *Form) Next() bool {
	if !f.CanAdvance() {
		return false
	}
	f.Step++
	return true
}

// Prev moves to the previous step.
// POST: Step decremented iff Step > 1
func (f *Form) Prev() bool {
	if f.Step <= 1 {
		return false
	}
	f.Step--
	return true
}

// Progress returns the completion percentage shown in the progress bar.
func (f *Form) Progress() int {
	return f.Step * 100 / TotalSteps
}

// ToggleChallenge adds c to the selected challenges, or removes it if already selected.
func (f *Form) ToggleChallenge(c string) {
	for i, v := range f.Challenges {
		if v == c {
			f.Challenges = append(f.Challenges[:i:i], f.Challenges[i+1:]...)
			return
		}
	}
	f.Challenges = append(f.Challenges, c)
}

// HasChallenge reports whether c is selected.
func (f *Form) HasChallenge(c string) bool {
	for _, v := range f.Challenges {
		if v == c {
			return true
		}
	}
	return false
}

// Clamp pulls Step back into 1..TotalSteps. Steps posted by a browser are untrusted.
func (f *Form) Clamp() {
	if f.Step < 1 {
		f.Step = 1
	}
	if f.Step > TotalSteps {
		f.Step = TotalSteps
	}
}

// CheckOptions rejects answers that are not part of the option catalogues.
// Empty answers are accepted here; required-ness is handled by StepComplete.
func (f *Form) CheckOptions() error {
	checks := []struct {
		value string
		opts  []Option
	}{
		{f.PrimaryGoal, GoalOptions},
		{f.CurrentFitnessLevel, LevelOptions},
		{f.AvailableTime, TimeOptions},
		{f.PreferredTime, PreferredTimeOptions},
		{f.HearAboutUs, HearAboutUsOptions},
	}
	for _, c := range checks {
		if c.value != "" && !hasOption(c.opts, c.value) {
			return ErrUnknownOption
		}
	}
	for _, c := range f.Challenges {
		if !isChallenge(c) {
			return ErrUnknownOption
		}
	}
	return nil
}

// Answers is the JSON document stored alongside the lead.
type Answers struct {
	PrimaryGoal         string   `json:"primary_goal"`
	CurrentFitnessLevel string   `json:"current_fitness_level"`
	PreviousExperience  string   `json:"previous_experience,omitempty"`
	AvailableTime       string   `json:"available_time"`
	PreferredTime       string   `json:"preferred_time,omitempty"`
	Motivation          string   `json:"motivation"`
	Challenges          []string `json:"challenges,omitempty"`
	HearAboutUs         string   `json:"hear_about_us,omitempty"`
	AdditionalNotes     string   `json:"additional_notes,omitempty"`
}

// ToLead converts a finished form into a new lead.
// PRE: Step == TotalSteps and every step is complete
// POST: Name is "First Last"; an empty phone becomes lead.PhoneNotProvided
func (f *Form) ToLead(id string, attr lead.Attribution, now time.Time) (lead.Lead, error) {
	if f.Step != TotalSteps {
		return lead.Lead{}, ErrNotLastStep
	}
	for step := 1; step <= TotalSteps; step++ {
		if !f.StepComplete(step) {
			return lead.Lead{}, ErrStepIncomplete
		}
	}
	if err := f.CheckOptions(); err != nil {
		return lead.Lead{}, err
	}

	answers, err := json.Marshal(Answers{
		PrimaryGoal:         f.PrimaryGoal,
		CurrentFitnessLevel: f.CurrentFitnessLevel,
		PreviousExperience:  strings.TrimSpace(f.PreviousExperience),
		AvailableTime:       f.AvailableTime,
		PreferredTime:       f.PreferredTime,
		Motivation:          strings.TrimSpace(f.Motivation),
		Challenges:          f.Challenges,
		HearAboutUs:         f.HearAboutUs,
		AdditionalNotes:     strings.TrimSpace(f.AdditionalNotes),
	})
	if err != nil {
		return lead.Lead{}, err
	}

	phone := strings.TrimSpace(f.Phone)
	if phone == "" {
		phone = lead.PhoneNotProvided
	}

	l := lead.Lead{
		ID:          id,
		Name:        strings.TrimSpace(f.FirstName) + " " + strings.TrimSpace(f.LastName),
		Email:       strings.TrimSpace(f.Email),
		Phone:       phone,
		Status:      lead.StatusNew,
		Attribution: attr,
		Answers:     string(answers),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := l.Validate(); err != nil {
		return lead.Lead{}, err
	}
	return l, nil
}

func filled(s string) bool {
	return strings.TrimSpace(s) != ""
}
