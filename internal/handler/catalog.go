package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"halloween-rock-api/internal/cache"
	"halloween-rock-api/internal/catalog"
	"halloween-rock-api/internal/model"
	"halloween-rock-api/pkg/apierror"
	"halloween-rock-api/pkg/response"

	"github.com/go-chi/chi/v5"
)

// CatalogHandler serves the shop catalog.
type CatalogHandler struct {
	catalog  *catalog.Catalog
	cache    cache.Cache
	cacheTTL time.Duration
}

// NewCatalogHandler creates a new catalog handler. cache may be nil.
func NewCatalogHandler(cat *catalog.Catalog, c cache.Cache, ttl time.Duration) *CatalogHandler {
	return &CatalogHandler{
		catalog:  cat,
		cache:    c,
		cacheTTL: ttl,
	}
}

// List handles GET /api/v1/catalog and GET /api/v1/catalog?category=drum
func (h *CatalogHandler) List(w http.ResponseWriter, r *http.Request) {
	rawCategory := r.URL.Query().Get("category")

	if rawCategory != "" {
		category := model.Category(rawCategory)
		if !category.Valid() {
			response.Error(w, apierror.BadRequest("unknown category: "+rawCategory))
			return
		}
		response.OK(w, map[string]interface{}{
			"category": category,
			"items":    h.catalog.ItemsByCategory(category),
		})
		return
	}

	// The catalog is static; cache the full rendered payload.
	if h.cache != nil {
		payload, err := h.cache.GetOrSet(r.Context(), "catalog:all", h.cacheTTL, func() ([]byte, error) {
			return json.Marshal(h.catalog.Items())
		})
		if err == nil {
			response.OK(w, map[string]interface{}{
				"items": json.RawMessage(payload),
				"total": h.catalog.Len(),
			})
			return
		}
	}

	response.OK(w, map[string]interface{}{
		"items": h.catalog.Items(),
		"total": h.catalog.Len(),
	})
}

// Get handles GET /api/v1/catalog/{item_id}
func (h *CatalogHandler) Get(w http.ResponseWriter, r *http.Request) {
	itemID := chi.URLParam(r, "item_id")
	if itemID == "" {
		response.Error(w, apierror.BadRequest("item_id is required"))
		return
	}

	item, ok := h.catalog.FindByID(itemID)
	if !ok {
		response.Error(w, apierror.New(http.StatusNotFound, "ITEM_NOT_FOUND", "no catalog item "+itemID))
		return
	}

	response.OK(w, item)
}
