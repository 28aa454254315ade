package web

import (
	"errors"
	"net/http"

	"innercircle/internal/adapters/http/middleware"
	"innercircle/internal/application/orchestrators"
	"innercircle/internal/domain/account"
	"innercircle/internal/domain/invitation"
	"innercircle/internal/domain/lead"
	"innercircle/internal/domain/recipe"
)

const (
	msgRecipeUnavailable = "Dieses Rezept ist nicht mehr verfügbar."
	msgEmailTaken        = "Für diese E-Mail-Adresse existiert bereits ein Konto."
)

// recipeFormState carries download form feedback back into the recipe page.
type recipeFormState struct {
	RecipeID string
	Name     string
	Email    string
	Error    string
}

// handleRecipesPage renders the recipe landing page (GET /?recipes=true).
func handleRecipesPage(w http.ResponseWriter, r *http.Request) {
	renderRecipes(w, r, http.StatusOK, recipeFormState{})
}

func renderRecipes(w http.ResponseWriter, r *http.Request, status int, state recipeFormState) {
	recipes, err := stores.RecipeStore.List(r.Context(), true)
	if err != nil {
		internalError(w, err)
		return
	}
	renderTemplateStatus(w, r, status, "recipes.html", map[string]any{
		"Recipes":     recipes,
		"Attribution": attribution(r),
		"State":       state,
	})
}

// handleRecipeDownload handles POST /recipes/download.
// PRE: recipe_id, name and email are submitted
// POST: Download recorded, count incremented, visitor redirected to the file
func handleRecipeDownload(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form submission", http.StatusBadRequest)
		return
	}

	attr := attribution(r)
	attr.Source = recipe.SourceRecipePage
	input := orchestrators.RecordDownloadInput{
		RecipeID:       r.FormValue("recipe_id"),
		Name:           r.FormValue("name"),
		Email:          r.FormValue("email"),
		Attribution:    attr,
		LandingPageURL: r.FormValue("landing_page_url"),
		Referrer:       r.Referer(),
		UserAgent:      r.UserAgent(),
		IPAddress:      middleware.ClientIP(r),
	}
	res, err := orchestrators.ExecuteRecordRecipeDownload(r.Context(), input, orchestrators.RecordDownloadDeps{
		RecipeStore: stores.RecipeStore,
		GenerateID:  generateID,
		Now:         timeNow,
	})
	if err != nil {
		state := recipeFormState{RecipeID: input.RecipeID, Name: input.Name, Email: input.Email}
		status := http.StatusBadRequest
		switch {
		case errors.Is(err, orchestrators.ErrRecipeNotFound), errors.Is(err, recipe.ErrRecipeInactive):
			state.Error = msgRecipeUnavailable
			status = http.StatusNotFound
		case errors.Is(err, recipe.ErrEmptyName), errors.Is(err, recipe.ErrEmptyEmail), errors.Is(err, recipe.ErrEmptyRecipeID):
			state.Error = lead.MsgAllFieldsRequired
		case errors.Is(err, recipe.ErrInvalidEmail):
			state.Error = msgInvalidEmail
		case errors.Is(err, recipe.ErrNameTooLong), errors.Is(err, recipe.ErrEmailTooLong),
			errors.Is(err, recipe.ErrURLTooLong), errors.Is(err, recipe.ErrSourceTooLong),
			errors.Is(err, recipe.ErrUserAgentTooLong):
			state.Error = msgFieldTooLong
		default:
			state.Error = recipe.MsgDownloadFailed
			status = http.StatusInternalServerError
		}
		renderRecipes(w, r, status, state)
		return
	}
	http.Redirect(w, r, res.Recipe.FileURL, http.StatusSeeOther)
}

// handleInvitationPage renders the account activation form (GET /?invitation=<token>).
func handleInvitationPage(w http.ResponseWriter, r *http.Request, token string) {
	view, err := orchestrators.ExecuteLoadInvitation(r.Context(), token, orchestrators.LoadInvitationDeps{
		InvitationStore: stores.InvitationStore,
		LeadStore:       stores.LeadStore,
		Now:             timeNow,
	})
	switch {
	case errors.Is(err, orchestrators.ErrInvitationNotFound):
		renderTemplateStatus(w, r, http.StatusNotFound, "invitation.html", map[string]any{"Error": invitation.MsgNotFoundOrExpired})
		return
	case err != nil:
		logError("invitation_load_failed", err)
		renderTemplateStatus(w, r, http.StatusInternalServerError, "invitation.html", map[string]any{"Error": invitation.MsgLoadFailed})
		return
	}
	renderTemplate(w, r, "invitation.html", map[string]any{
		"Token":     token,
		"Name":      view.Lead.Name,
		"Email":     view.Lead.Email,
		"ExpiresAt": view.Invitation.ExpiresAt,
	})
}

// handleInvitationRedeem handles POST /invitation/redeem.
// POST: On success the new member is logged in and sent to /dashboard
func handleInvitationRedeem(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form submission", http.StatusBadRequest)
		return
	}

	input := orchestrators.RedeemInvitationInput{
		Token:           r.FormValue("token"),
		Email:           r.FormValue("email"),
		Password:        r.FormValue("password"),
		ConfirmPassword: r.FormValue("confirm_password"),
		IPAddress:       middleware.ClientIP(r),
		UserAgent:       r.UserAgent(),
	}
	res, err := orchestrators.ExecuteRedeemInvitation(r.Context(), input, orchestrators.RedeemInvitationDeps{
		InvitationStore: stores.InvitationStore,
		Audit:           stores.AuditStore,
		GenerateID:      generateID,
		Now:             timeNow,
	})
	if err != nil {
		msg, status := redeemErrorMessage(err)
		if status == http.StatusInternalServerError {
			logError("invitation_redeem_failed", err)
		}
		renderTemplateStatus(w, r, status, "invitation.html", map[string]any{
			"Token": input.Token,
			"Email": input.Email,
			"Error": msg,
			"Form":  status == http.StatusBadRequest || status == http.StatusConflict,
		})
		return
	}

	token, err := sessions.Create(res.AccountID, res.Email, account.RoleMember)
	if err != nil {
		internalError(w, err)
		return
	}
	middleware.SetSessionCookie(w, token)
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

func redeemErrorMessage(err error) (string, int) {
	switch {
	case errors.Is(err, account.ErrPasswordMismatch):
		return account.MsgPasswordMismatch, http.StatusBadRequest
	case errors.Is(err, account.ErrPasswordTooShort):
		return account.MsgPasswordTooShort, http.StatusBadRequest
	case errors.Is(err, account.ErrEmptyPassword):
		return lead.MsgAllFieldsRequired, http.StatusBadRequest
	case errors.Is(err, account.ErrInvalidEmail), errors.Is(err, account.ErrEmptyEmail), errors.Is(err, account.ErrEmailTooLong):
		return msgInvalidEmail, http.StatusBadRequest
	case errors.Is(err, orchestrators.ErrInvitationEmailTaken):
		return msgEmailTaken, http.StatusConflict
	case errors.Is(err, orchestrators.ErrInvitationNotFound), errors.Is(err, orchestrators.ErrInvitationUnusable):
		return invitation.MsgNotFoundOrExpired, http.StatusGone
	default:
		return invitation.MsgRegistrationFailed, http.StatusInternalServerError
	}
}
