package handlers

import (
	"net/http"

	"github.com/RIDLEYsan/studio-classification-app/internal/fewshot"
	"github.com/RIDLEYsan/studio-classification-app/internal/taxonomy"
	"github.com/RIDLEYsan/studio-classification-app/internal/utils"
)

// CatalogHandler exposes the active category set and the loaded few-shot examples
type CatalogHandler struct {
	taxonomy *taxonomy.Taxonomy
	examples *fewshot.Set
}

func NewCatalogHandler(tax *taxonomy.Taxonomy, examples *fewshot.Set) *CatalogHandler {
	return &CatalogHandler{
		taxonomy: tax,
		examples: examples,
	}
}

func (h *CatalogHandler) ExamplesHandler(w http.ResponseWriter, r *http.Request) {
	if h.examples.Len() == 0 {
		utils.JSON(w, http.StatusOK, map[string]interface{}{
			"status": "No examples loaded",
		})
		return
	}
	utils.JSON(w, http.StatusOK, map[string]interface{}{
		"status":   "OK",
		"examples": h.examples.Status(),
	})
}

func (h *CatalogHandler) TaxonomyHandler(w http.ResponseWriter, r *http.Request) {
	if h.taxonomy == nil {
		utils.Error(w, http.StatusServiceUnavailable, "taxonomy_unavailable", "Category set not loaded")
		return
	}
	utils.JSON(w, http.StatusOK, taxonomyResponse{
		Taxonomy:      h.taxonomy,
		Subcategories: h.taxonomy.Subcategories(),
	})
}

type taxonomyResponse struct {
	*taxonomy.Taxonomy
	Subcategories []string `json:"subcategories"`
}
