package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/choreward/backend/gift"
)

// ListGifts returns the gift catalog for the requested locale.
func (h *Handler) ListGifts(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Successfully got gifts",
		"success": true,
		"gifts":   gift.Catalog(locale(r)),
	})
}

type redeemRequest struct {
	GiftIDs []int `json:"giftIds" validate:"required,min=1"`
}

// RedeemGifts debits the summed price of the selected gifts from the user's
// balance. The purchase is all-or-nothing: an unknown id or an insufficient
// balance leaves the balance untouched.
func (h *Handler) RedeemGifts(w http.ResponseWriter, r *http.Request) {
	var req redeemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid 'giftIds'. Provide at least one gift id")
		return
	}

	gifts, err := gift.Find(req.GiftIDs)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Gift not found")
		return
	}
	total := gift.Total(gifts)

	ctx := r.Context()
	user, unlock, err := h.lockAndLoadUser(ctx, userFrom(ctx).ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	defer unlock()

	if user.Balance < total {
		writeError(w, http.StatusConflict, "Not enough rewards to redeem selected gifts")
		return
	}
	user.Balance -= total
	if err := h.store.SaveUser(ctx, user); err != nil {
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message":        "Successfully redeemed gifts",
		"success":        true,
		"newBalance":     user.Balance,
		"purchasedGifts": gifts,
	})
}
