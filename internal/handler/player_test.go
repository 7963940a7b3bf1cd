package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"halloween-rock-api/internal/catalog"
	"halloween-rock-api/internal/repository"
	"halloween-rock-api/internal/service"
)

func newPlayerTestRouter(t *testing.T) (*chi.Mux, *service.ProgressionService) {
	t.Helper()

	repo := repository.NewMemoryStateRepository()
	svc := service.NewProgressionService(catalog.Default(), repo, repo)
	require.NotNil(t, svc)

	h := NewPlayerHandler(svc)
	r := chi.NewRouter()
	r.Route("/api/v1/players/{player_id}", func(r chi.Router) {
		r.Get("/state", h.GetState)
		r.Post("/tap", h.Tap)
		r.Post("/purchase", h.Purchase)
		r.Post("/equip", h.Equip)
		r.Get("/passive-rate", h.PassiveRate)
		r.Get("/soundboard", h.Soundboard)
		r.Get("/purchases", h.ListPurchases)
	})
	return r, svc
}

func doJSON(t *testing.T, r http.Handler, method, path, body string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	var parsed map[string]interface{}
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &parsed))
	}
	return rec, parsed
}

func errorCode(t *testing.T, parsed map[string]interface{}) string {
	t.Helper()
	errObj, ok := parsed["error"].(map[string]interface{})
	require.True(t, ok, "expected an error envelope, got %v", parsed)
	code, _ := errObj["code"].(string)
	return code
}

func TestGetStateEndpoint(t *testing.T) {
	r, _ := newPlayerTestRouter(t)

	rec, parsed := doJSON(t, r, http.MethodGet, "/api/v1/players/p1/state", "")
	require.Equal(t, http.StatusOK, rec.Code)

	data := parsed["data"].(map[string]interface{})
	assert.Equal(t, float64(0), data["currency"])
	assert.Equal(t, false, data["shopRevealed"])

	owned := data["owned"].(map[string]interface{})
	drums := owned["drum"].([]interface{})
	assert.Contains(t, drums, catalog.StarterDrum)
}

func TestTapEndpoint(t *testing.T) {
	r, _ := newPlayerTestRouter(t)

	t.Run("empty body defaults to one", func(t *testing.T) {
		rec, parsed := doJSON(t, r, http.MethodPost, "/api/v1/players/p1/tap", "")
		require.Equal(t, http.StatusOK, rec.Code)

		data := parsed["data"].(map[string]interface{})
		assert.Equal(t, float64(1), data["credited"])
		assert.Equal(t, float64(1), data["currency"])
		assert.Equal(t, false, data["shop_revealed"])
	})

	t.Run("explicit amount", func(t *testing.T) {
		rec, parsed := doJSON(t, r, http.MethodPost, "/api/v1/players/p1/tap", `{"amount": 4}`)
		require.Equal(t, http.StatusOK, rec.Code)

		data := parsed["data"].(map[string]interface{})
		assert.Equal(t, float64(5), data["currency"])
		assert.Equal(t, true, data["shop_revealed"])
	})

	t.Run("negative amount rejected", func(t *testing.T) {
		rec, _ := doJSON(t, r, http.MethodPost, "/api/v1/players/p1/tap", `{"amount": -1}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("malformed body rejected", func(t *testing.T) {
		rec, _ := doJSON(t, r, http.MethodPost, "/api/v1/players/p1/tap", `{"amount": `)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestPurchaseEndpoint(t *testing.T) {
	r, _ := newPlayerTestRouter(t)

	_, _ = doJSON(t, r, http.MethodPost, "/api/v1/players/p1/tap", `{"amount": 50}`)

	t.Run("success", func(t *testing.T) {
		rec, parsed := doJSON(t, r, http.MethodPost, "/api/v1/players/p1/purchase", `{"item_id": "tom"}`)
		require.Equal(t, http.StatusOK, rec.Code)

		data := parsed["data"].(map[string]interface{})
		assert.Equal(t, "purchased", data["status"])
		assert.Equal(t, float64(45), data["currency"])
	})

	t.Run("unknown item is 404", func(t *testing.T) {
		rec, parsed := doJSON(t, r, http.MethodPost, "/api/v1/players/p1/purchase", `{"item_id": "kazoo"}`)
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "ITEM_NOT_FOUND", errorCode(t, parsed))
	})

	t.Run("repeat purchase is 409", func(t *testing.T) {
		rec, parsed := doJSON(t, r, http.MethodPost, "/api/v1/players/p1/purchase", `{"item_id": "tom"}`)
		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Equal(t, "ALREADY_OWNED", errorCode(t, parsed))
	})

	t.Run("missing prerequisite is 409", func(t *testing.T) {
		rec, parsed := doJSON(t, r, http.MethodPost, "/api/v1/players/p1/purchase", `{"item_id": "triple"}`)
		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Equal(t, "PREREQUISITE_MISSING", errorCode(t, parsed))
	})

	t.Run("insufficient funds is 409", func(t *testing.T) {
		rec, parsed := doJSON(t, r, http.MethodPost, "/api/v1/players/p1/purchase", `{"item_id": "decuple"}`)
		assert.Equal(t, http.StatusConflict, rec.Code)
		// Prerequisite check runs before the funds check
		assert.Equal(t, "PREREQUISITE_MISSING", errorCode(t, parsed))

		rec, parsed = doJSON(t, r, http.MethodPost, "/api/v1/players/p1/purchase", `{"item_id": "stage"}`)
		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Equal(t, "INSUFFICIENT_FUNDS", errorCode(t, parsed))
	})

	t.Run("missing item_id is 400", func(t *testing.T) {
		rec, _ := doJSON(t, r, http.MethodPost, "/api/v1/players/p1/purchase", `{}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("purchase with equip flag", func(t *testing.T) {
		rec, parsed := doJSON(t, r, http.MethodPost, "/api/v1/players/p1/purchase", `{"item_id": "witch", "equip": true}`)
		require.Equal(t, http.StatusOK, rec.Code)

		data := parsed["data"].(map[string]interface{})
		equipped := data["equipped"].(map[string]interface{})
		assert.Equal(t, "witch", equipped["costume"])
	})
}

func TestEquipEndpoint(t *testing.T) {
	r, svc := newPlayerTestRouter(t)
	ctx := context.Background()

	_, _, err := svc.Tap(ctx, "p1", 100)
	require.NoError(t, err)
	_, err = svc.Purchase(ctx, "p1", "witch", false)
	require.NoError(t, err)
	_, err = svc.Purchase(ctx, "p1", "cursed", false)
	require.NoError(t, err)

	t.Run("equip owned costume", func(t *testing.T) {
		rec, parsed := doJSON(t, r, http.MethodPost, "/api/v1/players/p1/equip",
			`{"category": "costume", "item_id": "witch"}`)
		require.Equal(t, http.StatusOK, rec.Code)

		data := parsed["data"].(map[string]interface{})
		equipped := data["equipped"].(map[string]interface{})
		assert.Equal(t, "witch", equipped["costume"])
	})

	t.Run("equip skin on its target", func(t *testing.T) {
		rec, parsed := doJSON(t, r, http.MethodPost, "/api/v1/players/p1/equip",
			`{"category": "skin", "item_id": "cursed", "target": "kick"}`)
		require.Equal(t, http.StatusOK, rec.Code)

		data := parsed["data"].(map[string]interface{})
		equipped := data["equipped"].(map[string]interface{})
		skins := equipped["skin"].(map[string]interface{})
		assert.Equal(t, "cursed", skins["kick"])
	})

	t.Run("null item_id unequips", func(t *testing.T) {
		rec, parsed := doJSON(t, r, http.MethodPost, "/api/v1/players/p1/equip",
			`{"category": "costume", "item_id": null}`)
		require.Equal(t, http.StatusOK, rec.Code)

		data := parsed["data"].(map[string]interface{})
		equipped := data["equipped"].(map[string]interface{})
		assert.Nil(t, equipped["costume"])
	})

	t.Run("unowned item is 409", func(t *testing.T) {
		rec, parsed := doJSON(t, r, http.MethodPost, "/api/v1/players/p1/equip",
			`{"category": "costume", "item_id": "vampire"}`)
		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Equal(t, "NOT_OWNED", errorCode(t, parsed))
	})

	t.Run("drum has no slot", func(t *testing.T) {
		rec, parsed := doJSON(t, r, http.MethodPost, "/api/v1/players/p1/equip",
			`{"category": "drum", "item_id": "kick"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "CATEGORY_NOT_EQUIPPABLE", errorCode(t, parsed))
	})

	t.Run("unknown category is 400", func(t *testing.T) {
		rec, _ := doJSON(t, r, http.MethodPost, "/api/v1/players/p1/equip",
			`{"category": "meme", "item_id": "doge"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestPassiveRateEndpoint(t *testing.T) {
	r, svc := newPlayerTestRouter(t)
	ctx := context.Background()

	rec, parsed := doJSON(t, r, http.MethodGet, "/api/v1/players/p1/passive-rate", "")
	require.Equal(t, http.StatusOK, rec.Code)
	data := parsed["data"].(map[string]interface{})
	assert.Equal(t, float64(0), data["rate_per_second"])

	_, _, err := svc.Tap(ctx, "p1", 100)
	require.NoError(t, err)
	_, err = svc.Purchase(ctx, "p1", "metronome", false)
	require.NoError(t, err)

	rec, parsed = doJSON(t, r, http.MethodGet, "/api/v1/players/p1/passive-rate", "")
	require.Equal(t, http.StatusOK, rec.Code)
	data = parsed["data"].(map[string]interface{})
	assert.Equal(t, float64(1), data["rate_per_second"])
}

func TestSoundboardEndpoint(t *testing.T) {
	r, _ := newPlayerTestRouter(t)

	rec, parsed := doJSON(t, r, http.MethodGet, "/api/v1/players/p1/soundboard", "")
	require.Equal(t, http.StatusOK, rec.Code)

	data := parsed["data"].(map[string]interface{})
	instruments := data["instruments"].([]interface{})
	require.Len(t, instruments, 1)
	first := instruments[0].(map[string]interface{})
	assert.Equal(t, catalog.StarterDrum, first["instrument_id"])
}

func TestListPurchasesEndpoint(t *testing.T) {
	r, svc := newPlayerTestRouter(t)
	ctx := context.Background()

	_, _, err := svc.Tap(ctx, "p1", 100)
	require.NoError(t, err)
	for _, itemID := range []string{"tom", "witch"} {
		_, err = svc.Purchase(ctx, "p1", itemID, false)
		require.NoError(t, err)
	}

	rec, parsed := doJSON(t, r, http.MethodGet, "/api/v1/players/p1/purchases", "")
	require.Equal(t, http.StatusOK, rec.Code)

	meta := parsed["meta"].(map[string]interface{})
	assert.Equal(t, float64(2), meta["total"])

	records := parsed["data"].([]interface{})
	require.Len(t, records, 2)
	first := records[0].(map[string]interface{})
	assert.Equal(t, "witch", first["item_id"], "newest first")
}
