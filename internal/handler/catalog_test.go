package handler

import (
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"halloween-rock-api/internal/cache"
	"halloween-rock-api/internal/catalog"
)

func newCatalogTestRouter(t *testing.T, c cache.Cache) *chi.Mux {
	t.Helper()

	h := NewCatalogHandler(catalog.Default(), c, time.Minute)
	r := chi.NewRouter()
	r.Route("/api/v1/catalog", func(r chi.Router) {
		r.Get("/", h.List)
		r.Get("/{item_id}", h.Get)
	})
	return r
}

func TestCatalogList(t *testing.T) {
	r := newCatalogTestRouter(t, nil)

	rec, parsed := doJSON(t, r, http.MethodGet, "/api/v1/catalog/", "")
	require.Equal(t, http.StatusOK, rec.Code)

	data := parsed["data"].(map[string]interface{})
	items := data["items"].([]interface{})
	assert.Equal(t, catalog.Default().Len(), len(items))
	assert.Equal(t, float64(catalog.Default().Len()), data["total"])
}

func TestCatalogListCached(t *testing.T) {
	memCache := cache.NewMemoryCache()
	t.Cleanup(func() { memCache.Close() })
	r := newCatalogTestRouter(t, memCache)

	for i := 0; i < 2; i++ {
		rec, parsed := doJSON(t, r, http.MethodGet, "/api/v1/catalog/", "")
		require.Equal(t, http.StatusOK, rec.Code)

		data := parsed["data"].(map[string]interface{})
		items := data["items"].([]interface{})
		assert.Equal(t, catalog.Default().Len(), len(items))
	}
}

func TestCatalogListByCategory(t *testing.T) {
	r := newCatalogTestRouter(t, nil)

	rec, parsed := doJSON(t, r, http.MethodGet, "/api/v1/catalog/?category=drum", "")
	require.Equal(t, http.StatusOK, rec.Code)

	data := parsed["data"].(map[string]interface{})
	assert.Equal(t, "drum", data["category"])
	items := data["items"].([]interface{})
	require.Len(t, items, 4)
	first := items[0].(map[string]interface{})
	assert.Equal(t, "kick", first["id"])
}

func TestCatalogListUnknownCategory(t *testing.T) {
	r := newCatalogTestRouter(t, nil)

	rec, _ := doJSON(t, r, http.MethodGet, "/api/v1/catalog/?category=meme", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCatalogGet(t *testing.T) {
	r := newCatalogTestRouter(t, nil)

	rec, parsed := doJSON(t, r, http.MethodGet, "/api/v1/catalog/tom", "")
	require.Equal(t, http.StatusOK, rec.Code)

	data := parsed["data"].(map[string]interface{})
	assert.Equal(t, "tom", data["id"])
	assert.Equal(t, float64(5), data["price"])

	rec, parsed = doJSON(t, r, http.MethodGet, "/api/v1/catalog/kazoo", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "ITEM_NOT_FOUND", errorCode(t, parsed))
}
