package web

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"innercircle/internal/adapters/storage/recipe"
	"innercircle/internal/application/listutil"
	"innercircle/internal/application/orchestrators"
	"innercircle/internal/application/projections"
	"innercircle/internal/domain/export"
	domainRecipe "innercircle/internal/domain/recipe"
)

const msgRecipeInvalid = "Bitte Titel, Datei-URL und Dateiname angeben."

func recipeAdminDeps() orchestrators.RecipeAdminDeps {
	return orchestrators.RecipeAdminDeps{
		RecipeStore: stores.RecipeStore,
		Audit:       stores.AuditStore,
		GenerateID:  generateID,
		Now:         timeNow,
	}
}

func parseRecipeInput(r *http.Request) orchestrators.RecipeInput {
	size, _ := strconv.ParseInt(strings.TrimSpace(r.FormValue("file_size")), 10, 64)
	return orchestrators.RecipeInput{
		ID:          r.FormValue("id"),
		Title:       r.FormValue("title"),
		Description: r.FormValue("description"),
		FileURL:     strings.TrimSpace(r.FormValue("file_url")),
		FileName:    strings.TrimSpace(r.FormValue("file_name")),
		FileSize:    size,
		IsActive:    r.FormValue("is_active") != "",
		Actor:       actorFromRequest(r),
	}
}

func isRecipeValidationError(err error) bool {
	for _, target := range []error{
		domainRecipe.ErrEmptyTitle, domainRecipe.ErrTitleTooLong, domainRecipe.ErrDescriptionTooLong,
		domainRecipe.ErrEmptyFileURL, domainRecipe.ErrURLTooLong, domainRecipe.ErrEmptyFileName,
		domainRecipe.ErrNegativeFileSize,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// handleAdminRecipes lists recipes (GET) and creates one (POST) at /admin/recipes.
func handleAdminRecipes(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case "GET":
		renderAdminRecipes(w, r, http.StatusOK, orchestrators.RecipeInput{IsActive: true}, "")
	case "POST":
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form submission", http.StatusBadRequest)
			return
		}
		input := parseRecipeInput(r)
		input.ID = ""
		_, err := orchestrators.ExecuteCreateRecipe(r.Context(), input, recipeAdminDeps())
		switch {
		case isRecipeValidationError(err):
			renderAdminRecipes(w, r, http.StatusBadRequest, input, msgRecipeInvalid)
		case err != nil:
			internalError(w, err)
		default:
			http.Redirect(w, r, "/admin/recipes", http.StatusSeeOther)
		}
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func renderAdminRecipes(w http.ResponseWriter, r *http.Request, status int, form orchestrators.RecipeInput, errMsg string) {
	recipes, err := stores.RecipeStore.List(r.Context(), false)
	if err != nil {
		internalError(w, err)
		return
	}
	renderTemplateStatus(w, r, status, "admin_recipes.html", map[string]any{
		"Recipes": recipes,
		"Form":    form,
		"Error":   errMsg,
	})
}

// handleAdminRecipeEdit shows (GET ?id=) and saves (POST) one recipe.
func handleAdminRecipeEdit(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case "GET":
		rec, err := stores.RecipeStore.GetByID(r.Context(), r.URL.Query().Get("id"))
		if errors.Is(err, sql.ErrNoRows) {
			http.NotFound(w, r)
			return
		}
		if err != nil {
			internalError(w, err)
			return
		}
		renderTemplate(w, r, "admin_recipe_edit.html", map[string]any{
			"Form": orchestrators.RecipeInput{
				ID: rec.ID, Title: rec.Title, Description: rec.Description, FileURL: rec.FileURL,
				FileName: rec.FileName, FileSize: rec.FileSize, IsActive: rec.IsActive,
			},
			"DownloadCount": rec.DownloadCount,
		})
	case "POST":
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form submission", http.StatusBadRequest)
			return
		}
		input := parseRecipeInput(r)
		_, err := orchestrators.ExecuteUpdateRecipe(r.Context(), input, recipeAdminDeps())
		switch {
		case errors.Is(err, orchestrators.ErrRecipeNotFound):
			http.Error(w, orchestrators.MsgLeadStale, http.StatusNotFound)
		case isRecipeValidationError(err):
			renderTemplateStatus(w, r, http.StatusBadRequest, "admin_recipe_edit.html", map[string]any{
				"Form": input, "Error": msgRecipeInvalid,
			})
		case err != nil:
			internalError(w, err)
		default:
			http.Redirect(w, r, "/admin/recipes", http.StatusSeeOther)
		}
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// handleAdminRecipeDelete handles POST /admin/recipes/delete (id).
// POST: The recipe and its download records are removed
func handleAdminRecipeDelete(w http.ResponseWriter, r *http.Request) {
	if !parseAdminPost(w, r) {
		return
	}
	err := orchestrators.ExecuteDeleteRecipe(r.Context(), r.FormValue("id"), actorFromRequest(r), recipeAdminDeps())
	switch {
	case errors.Is(err, orchestrators.ErrRecipeNotFound):
		http.Error(w, orchestrators.MsgLeadStale, http.StatusNotFound)
	case err != nil:
		internalError(w, err)
	default:
		http.Redirect(w, r, "/admin/recipes", http.StatusSeeOther)
	}
}

func parseDownloadListParams(r *http.Request) listutil.ListParams {
	return listutil.ParseListParams(r.URL.Query(), projections.DownloadSortColumns, "downloaded_at", listutil.Desc, []string{"recipe"})
}

// handleAdminDownloads renders the searchable recipe download table (GET /admin/downloads).
func handleAdminDownloads(w http.ResponseWriter, r *http.Request) {
	if r.Method != "GET" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	ctx := r.Context()
	downloads, err := stores.RecipeStore.ListDownloads(ctx, recipe.DownloadFilter{})
	if err != nil {
		internalError(w, err)
		return
	}
	recipes, err := stores.RecipeStore.List(ctx, false)
	if err != nil {
		internalError(w, err)
		return
	}
	lp := parseDownloadListParams(r)
	list := projections.QueryDownloadList(downloads, export.RecipeTitles(recipes), lp)

	renderTemplate(w, r, "admin_downloads.html", map[string]any{
		"List":           list,
		"Recipes":        recipes,
		"PerPageOptions": listutil.PerPageOptions,
		"UnknownRecipe":  export.UnknownRecipe,
	})
}

// handleAdminDownloadExport streams the filtered download table as CSV (GET /admin/downloads/export).
func handleAdminDownloadExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != "GET" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	ctx := r.Context()
	downloads, err := stores.RecipeStore.ListDownloads(ctx, recipe.DownloadFilter{})
	if err != nil {
		internalError(w, err)
		return
	}
	recipes, err := stores.RecipeStore.List(ctx, false)
	if err != nil {
		internalError(w, err)
		return
	}
	filtered := projections.FilterDownloads(downloads, parseDownloadListParams(r))

	res, err := orchestrators.ExecuteExportDownloads(ctx, filtered, recipes, actorFromRequest(r), exportDeps())
	if err != nil {
		internalError(w, err)
		return
	}
	writeCSV(w, res)
}
