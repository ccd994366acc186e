// surodeals/handlers/filters.go

package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
)

// HandleGetFilters serves the facet definitions for a category's sidebar.
// Curated definitions win; otherwise facets are synthesized from the
// category's approved ads on the fly.
func HandleGetFilters(w http.ResponseWriter, r *http.Request, app App) {
	slug := strings.TrimSpace(chi.URLParam(r, "categorySlug"))
	if slug == "" {
		respondError(w, http.StatusBadRequest, "Category slug is required.", app)
		return
	}
	if _, err := app.DB().GetCategoryID(slug); err != nil {
		respondError(w, http.StatusNotFound, "Category not found.", app)
		return
	}

	defs, err := app.Filters().ForCategory(slug)
	if err != nil {
		app.Logger().Error("Failed to build filters", "category", slug, "error", err)
		respondError(w, http.StatusInternalServerError, "Database error.", app)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"categorySlug": slug,
		"filters":      defs,
	}, app)
}

// HandleListCategories returns all categories in sort order.
func HandleListCategories(w http.ResponseWriter, r *http.Request, app App) {
	cats, err := app.DB().ListCategories()
	if err != nil {
		app.Logger().Error("Failed to list categories", "error", err)
		respondError(w, http.StatusInternalServerError, "Database error.", app)
		return
	}
	respondJSON(w, http.StatusOK, cats, app)
}
