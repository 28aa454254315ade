package web

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"innercircle/internal/adapters/http/middleware"
	"innercircle/internal/application/orchestrators"
	"innercircle/internal/domain/countdown"
	"innercircle/internal/domain/lead"
	"innercircle/internal/domain/registration"
)

const (
	msgInvalidEmail   = "Bitte geben Sie eine gültige E-Mail-Adresse ein."
	msgWaitlistFields = "Bitte gib deinen Vornamen und deine E-Mail-Adresse ein."
	msgStepIncomplete = "Bitte füllen Sie alle Pflichtfelder aus."
	msgUnknownOption  = "Bitte wählen Sie nur Antworten aus der Liste."
	msgFieldTooLong   = "Eine Eingabe ist zu lang. Bitte kürzen Sie sie."
)

func signupDeps() orchestrators.SignupDeps {
	return orchestrators.SignupDeps{LeadStore: stores.LeadStore, GenerateID: generateID, Now: timeNow}
}

// attribution reads source and UTM parameters from the query string or the hidden form fields.
func attribution(r *http.Request) lead.Attribution {
	q := r.URL.Query()
	if r.Form != nil {
		q = r.Form
	}
	return lead.AttributionFromQuery(q, lead.SourceWebsite)
}

// handleRoot dispatches the page modes of the single public URL:
// ?invitation=<token>, ?recipes=true, ?admin=true and the landing page.
func handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if r.Method != "GET" && r.Method != "HEAD" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	q := r.URL.Query()
	switch {
	case q.Get("invitation") != "":
		handleInvitationPage(w, r, q.Get("invitation"))
	case q.Get("recipes") == "true":
		handleRecipesPage(w, r)
	case q.Get("admin") == "true":
		if middleware.IsAdmin(r.Context()) {
			http.Redirect(w, r, "/admin", http.StatusSeeOther)
			return
		}
		renderLogin(w, r, http.StatusOK, "", true)
	default:
		renderLanding(w, r, http.StatusOK, landingState{})
	}
}

// landingState carries form feedback back into the landing page.
type landingState struct {
	SignupOpen    bool
	SignupError   string
	SignupValues  orchestrators.QuickSignupInput
	WaitlistError string
	WaitlistName  string
	WaitlistEmail string
}

func renderLanding(w http.ResponseWriter, r *http.Request, status int, state landingState) {
	q := r.URL.Query()
	idx, _ := strconv.Atoi(q.Get("t"))
	content := settings.Content
	now := timeNow()

	renderTemplateStatus(w, r, status, "landing.html", map[string]any{
		"Content":         content,
		"Countdown":       countdown.Remaining(settings.CountdownTarget, now),
		"CountdownTarget": settings.CountdownTarget,
		"Testimonial":     content.Testimonial(idx),
		"TestimonialIdx":  idx,
		"NextIdx":         content.NextTestimonial(idx),
		"PrevIdx":         content.PrevTestimonial(idx),
		"Attribution":     attribution(r),
		"SignupDone":      q.Get("signup") == "ok",
		"WaitlistDone":    q.Get("waitlist") == "ok",
		"State":           state,
	})
}

// handleSignup handles POST /signup from the quick signup modal.
// PRE: name, email and phone are submitted
// POST: Lead stored and visitor redirected; store failures are shown, not masked
func handleSignup(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form submission", http.StatusBadRequest)
		return
	}

	input := orchestrators.QuickSignupInput{
		Name:        r.FormValue("name"),
		Email:       r.FormValue("email"),
		Phone:       r.FormValue("phone"),
		Attribution: attribution(r),
	}
	_, err := orchestrators.ExecuteQuickSignup(r.Context(), input, signupDeps())
	if err != nil {
		state := landingState{SignupOpen: true, SignupValues: input}
		status := http.StatusBadRequest
		switch {
		case errors.Is(err, lead.ErrMissingFields):
			state.SignupError = lead.MsgAllFieldsRequired
		case errors.Is(err, lead.ErrInvalidEmail):
			state.SignupError = msgInvalidEmail
		case isValidationError(err):
			state.SignupError = lead.MsgAllFieldsRequired
		default:
			state.SignupError = lead.MsgSubmitFailed
			status = http.StatusInternalServerError
		}
		renderLanding(w, r, status, state)
		return
	}
	http.Redirect(w, r, "/?signup=ok", http.StatusSeeOther)
}

// waitlistRequest is the JSON body accepted by /waitlist from scripted clients.
// Source is accepted for older clients but ignored; the server sets it.
type waitlistRequest struct {
	FirstName   string `json:"first_name"`
	Email       string `json:"email"`
	Source      string `json:"source"`
	UTMSource   string `json:"utm_source"`
	UTMMedium   string `json:"utm_medium"`
	UTMCampaign string `json:"utm_campaign"`
}

// handleWaitlist handles POST /waitlist from the hero form.
// POST: Validation errors are shown; store failures are masked as success
func handleWaitlist(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if isJSONRequest(r) {
		handleWaitlistJSON(w, r)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form submission", http.StatusBadRequest)
		return
	}

	input := orchestrators.WaitlistInput{
		FirstName:   r.FormValue("first_name"),
		Email:       r.FormValue("email"),
		Attribution: attribution(r),
	}
	if err := orchestrators.ExecuteWaitlist(r.Context(), input, signupDeps()); err != nil {
		msg := msgWaitlistFields
		if errors.Is(err, lead.ErrInvalidEmail) {
			msg = msgInvalidEmail
		}
		renderLanding(w, r, http.StatusBadRequest, landingState{
			WaitlistError: msg, WaitlistName: input.FirstName, WaitlistEmail: input.Email,
		})
		return
	}
	http.Redirect(w, r, "/?waitlist=ok", http.StatusSeeOther)
}

func handleWaitlistJSON(w http.ResponseWriter, r *http.Request) {
	var req waitlistRequest
	if err := strictDecode(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	input := orchestrators.WaitlistInput{
		FirstName: req.FirstName,
		Email:     req.Email,
		Attribution: lead.Attribution{
			Source: lead.SourceWebsite, UTMSource: req.UTMSource, UTMMedium: req.UTMMedium, UTMCampaign: req.UTMCampaign,
		},
	}
	if err := orchestrators.ExecuteWaitlist(r.Context(), input, signupDeps()); err != nil {
		msg := msgWaitlistFields
		if errors.Is(err, lead.ErrInvalidEmail) {
			msg = msgInvalidEmail
		}
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": msg})
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"status": "ok"})
}

// handleApply handles the multi-step registration form at /apply.
// GET renders step 1. POST carries the whole form in hidden fields and an action:
// next, prev or submit.
func handleApply(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case "GET":
		renderApply(w, r, http.StatusOK, registration.NewForm(), "")
	case "POST":
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form submission", http.StatusBadRequest)
			return
		}
		form := parseApplicationForm(r)

		switch r.FormValue("action") {
		case "prev":
			form.Prev()
			renderApply(w, r, http.StatusOK, form, "")
		case "submit":
			err := orchestrators.ExecuteApplication(r.Context(), orchestrators.ApplicationInput{
				Form: form, Attribution: attribution(r),
			}, signupDeps())
			if err != nil {
				renderApply(w, r, http.StatusBadRequest, form, applicationErrorMessage(err))
				return
			}
			renderTemplate(w, r, "apply_success.html", map[string]any{"FirstName": strings.TrimSpace(form.FirstName)})
		default:
			if !form.Next() {
				renderApply(w, r, http.StatusBadRequest, form, msgStepIncomplete)
				return
			}
			renderApply(w, r, http.StatusOK, form, "")
		}
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func parseApplicationForm(r *http.Request) registration.Form {
	step, _ := strconv.Atoi(r.FormValue("step"))
	f := registration.Form{
		Step:                step,
		FirstName:           r.FormValue("first_name"),
		LastName:            r.FormValue("last_name"),
		Email:               r.FormValue("email"),
		Phone:               r.FormValue("phone"),
		PrimaryGoal:         r.FormValue("primary_goal"),
		CurrentFitnessLevel: r.FormValue("current_fitness_level"),
		PreviousExperience:  r.FormValue("previous_experience"),
		AvailableTime:       r.FormValue("available_time"),
		PreferredTime:       r.FormValue("preferred_time"),
		Motivation:          r.FormValue("motivation"),
		HearAboutUs:         r.FormValue("hear_about_us"),
		AdditionalNotes:     r.FormValue("additional_notes"),
	}
	for _, c := range r.Form["challenges"] {
		if !f.HasChallenge(c) {
			f.ToggleChallenge(c)
		}
	}
	f.Clamp()
	return f
}

func renderApply(w http.ResponseWriter, r *http.Request, status int, form registration.Form, errMsg string) {
	renderTemplateStatus(w, r, status, "apply.html", map[string]any{
		"Form":                 form,
		"Progress":             form.Progress(),
		"TotalSteps":           registration.TotalSteps,
		"Error":                errMsg,
		"Attribution":          attribution(r),
		"GoalOptions":          registration.GoalOptions,
		"LevelOptions":         registration.LevelOptions,
		"TimeOptions":          registration.TimeOptions,
		"PreferredTimeOptions": registration.PreferredTimeOptions,
		"Challenges":           registration.Challenges,
		"HearAboutUsOptions":   registration.HearAboutUsOptions,
	})
}

// handleCountdownAPI handles GET /api/countdown, polled once per second by the landing page.
func handleCountdownAPI(w http.ResponseWriter, r *http.Request) {
	if r.Method != "GET" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	parts := countdown.Remaining(settings.CountdownTarget, timeNow())
	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, http.StatusOK, map[string]any{
		"target":    settings.CountdownTarget.Format("2006-01-02T15:04:05Z07:00"),
		"remaining": parts,
		"done":      parts.IsZero(),
	})
}

// handleHealth handles GET /healthz.
func handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// applicationErrorMessage maps a rejected application to the message shown above the form.
func applicationErrorMessage(err error) string {
	switch {
	case errors.Is(err, lead.ErrInvalidEmail):
		return msgInvalidEmail
	case errors.Is(err, registration.ErrUnknownOption):
		return msgUnknownOption
	case errors.Is(err, lead.ErrNameTooLong), errors.Is(err, lead.ErrEmailTooLong), errors.Is(err, lead.ErrPhoneTooLong):
		return msgFieldTooLong
	default:
		return msgStepIncomplete
	}
}

// isValidationError reports whether err is a lead validation failure rather than a store failure.
func isValidationError(err error) bool {
	for _, target := range []error{
		lead.ErrEmptyName, lead.ErrNameTooLong, lead.ErrEmptyEmail, lead.ErrEmailTooLong,
		lead.ErrPhoneTooLong, lead.ErrNotesTooLong, lead.ErrInvalidStatus,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
