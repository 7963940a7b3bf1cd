package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"halloween-rock-api/internal/model"
	"halloween-rock-api/internal/progression"
	"halloween-rock-api/internal/service"
	"halloween-rock-api/pkg/apierror"
	"halloween-rock-api/pkg/response"

	"github.com/go-chi/chi/v5"
)

// PlayerHandler handles player progression HTTP requests.
type PlayerHandler struct {
	progressionService *service.ProgressionService
}

// NewPlayerHandler creates a new player handler.
func NewPlayerHandler(progressionService *service.ProgressionService) *PlayerHandler {
	return &PlayerHandler{
		progressionService: progressionService,
	}
}

// domainError maps progression outcomes to API errors. Anything unmapped is
// an internal error.
func domainError(err error) error {
	switch {
	case errors.Is(err, progression.ErrItemNotFound):
		return apierror.New(http.StatusNotFound, "ITEM_NOT_FOUND", err.Error())
	case errors.Is(err, progression.ErrAlreadyOwned):
		return apierror.New(http.StatusConflict, "ALREADY_OWNED", err.Error())
	case errors.Is(err, progression.ErrPrerequisiteMissing):
		return apierror.New(http.StatusConflict, "PREREQUISITE_MISSING", err.Error())
	case errors.Is(err, progression.ErrInsufficientFunds):
		return apierror.New(http.StatusConflict, "INSUFFICIENT_FUNDS", err.Error())
	case errors.Is(err, progression.ErrNotOwned):
		return apierror.New(http.StatusConflict, "NOT_OWNED", err.Error())
	case errors.Is(err, progression.ErrCategoryNotEquippable):
		return apierror.New(http.StatusBadRequest, "CATEGORY_NOT_EQUIPPABLE", err.Error())
	case errors.Is(err, progression.ErrSkinTargetRequired):
		return apierror.BadRequest(err.Error())
	case errors.Is(err, progression.ErrInvalidAmount):
		return apierror.BadRequest(err.Error())
	default:
		return apierror.InternalError("")
	}
}

// playerID pulls the route parameter shared by every player endpoint.
func playerID(r *http.Request) string {
	return chi.URLParam(r, "player_id")
}

// GetState handles GET /api/v1/players/{player_id}/state
func (h *PlayerHandler) GetState(w http.ResponseWriter, r *http.Request) {
	id := playerID(r)
	if id == "" {
		response.Error(w, apierror.BadRequest("player_id is required"))
		return
	}

	state, err := h.progressionService.GetState(r.Context(), id)
	if err != nil {
		response.Error(w, domainError(err))
		return
	}

	response.OK(w, state)
}

// TapRequest represents the request body for a tap. Amount defaults to the
// base reward of 1 when omitted.
type TapRequest struct {
	Amount int64 `json:"amount"`
}

// Tap handles POST /api/v1/players/{player_id}/tap
func (h *PlayerHandler) Tap(w http.ResponseWriter, r *http.Request) {
	id := playerID(r)
	if id == "" {
		response.Error(w, apierror.BadRequest("player_id is required"))
		return
	}

	req := TapRequest{Amount: 1}
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, apierror.BadRequest("invalid request body"))
			return
		}
		defer r.Body.Close()
	}

	credited, state, err := h.progressionService.Tap(r.Context(), id, req.Amount)
	if err != nil {
		response.Error(w, domainError(err))
		return
	}

	response.OK(w, map[string]interface{}{
		"credited":      credited,
		"currency":      state.Currency,
		"shop_revealed": state.ShopRevealed,
	})
}

// PurchaseRequest represents the request body for a purchase. Equip opts
// into equipping the item immediately after a successful purchase.
type PurchaseRequest struct {
	ItemID string `json:"item_id"`
	Equip  bool   `json:"equip"`
}

// Purchase handles POST /api/v1/players/{player_id}/purchase
func (h *PlayerHandler) Purchase(w http.ResponseWriter, r *http.Request) {
	id := playerID(r)
	if id == "" {
		response.Error(w, apierror.BadRequest("player_id is required"))
		return
	}

	var req PurchaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, apierror.BadRequest("invalid request body"))
		return
	}
	defer r.Body.Close()

	if req.ItemID == "" {
		response.Error(w, apierror.BadRequest("item_id is required"))
		return
	}

	state, err := h.progressionService.Purchase(r.Context(), id, req.ItemID, req.Equip)
	if err != nil {
		response.Error(w, domainError(err))
		return
	}

	response.OK(w, map[string]interface{}{
		"status":   "purchased",
		"item_id":  req.ItemID,
		"currency": state.Currency,
		"owned":    state.Owned,
		"equipped": state.Equipped,
	})
}

// EquipRequest represents the request body for an equip. A null item_id
// unequips the slot. Target is required for skins.
type EquipRequest struct {
	Category model.Category `json:"category"`
	ItemID   *string        `json:"item_id"`
	Target   string         `json:"target,omitempty"`
}

// Equip handles POST /api/v1/players/{player_id}/equip
func (h *PlayerHandler) Equip(w http.ResponseWriter, r *http.Request) {
	id := playerID(r)
	if id == "" {
		response.Error(w, apierror.BadRequest("player_id is required"))
		return
	}

	var req EquipRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, apierror.BadRequest("invalid request body"))
		return
	}
	defer r.Body.Close()

	if !req.Category.Valid() {
		response.Error(w, apierror.BadRequest("unknown category: "+string(req.Category)))
		return
	}

	state, err := h.progressionService.Equip(r.Context(), id, req.Category, req.ItemID, req.Target)
	if err != nil {
		response.Error(w, domainError(err))
		return
	}

	response.OK(w, map[string]interface{}{
		"status":   "equipped",
		"equipped": state.Equipped,
	})
}

// PassiveRate handles GET /api/v1/players/{player_id}/passive-rate
func (h *PlayerHandler) PassiveRate(w http.ResponseWriter, r *http.Request) {
	id := playerID(r)
	if id == "" {
		response.Error(w, apierror.BadRequest("player_id is required"))
		return
	}

	rate, err := h.progressionService.PassiveRate(r.Context(), id)
	if err != nil {
		response.Error(w, domainError(err))
		return
	}

	response.OK(w, map[string]interface{}{
		"player_id":       id,
		"rate_per_second": rate,
	})
}

// Soundboard handles GET /api/v1/players/{player_id}/soundboard
func (h *PlayerHandler) Soundboard(w http.ResponseWriter, r *http.Request) {
	id := playerID(r)
	if id == "" {
		response.Error(w, apierror.BadRequest("player_id is required"))
		return
	}

	board, err := h.progressionService.Soundboard(r.Context(), id)
	if err != nil {
		response.Error(w, domainError(err))
		return
	}

	response.OK(w, map[string]interface{}{
		"player_id":   id,
		"instruments": board,
	})
}

// ListPurchases handles GET /api/v1/players/{player_id}/purchases
func (h *PlayerHandler) ListPurchases(w http.ResponseWriter, r *http.Request) {
	id := playerID(r)
	if id == "" {
		response.Error(w, apierror.BadRequest("player_id is required"))
		return
	}

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit < 1 || limit > 100 {
		limit = 20
	}
	offset := (page - 1) * limit

	records, total, err := h.progressionService.ListPurchases(r.Context(), id, limit, offset)
	if err != nil {
		response.Error(w, apierror.InternalError("failed to list purchases"))
		return
	}

	response.JSONWithMeta(w, http.StatusOK, records, page, limit, total)
}
