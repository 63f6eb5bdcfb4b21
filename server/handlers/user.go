package handlers

import (
	"net/http"
)

// GetInfo returns the user snapshot together with the current week,
// auto-rolling a stale week the same way login does.
func (h *Handler) GetInfo(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user, unlock, err := h.lockAndLoadUser(ctx, userFrom(ctx).ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	defer unlock()

	week, tasks, err := h.ensureCurrentWeek(ctx, user, locale(r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Successfully got all info",
		"success": true,
		"user":    newUserPayload(user),
		"week":    newWeekPayload(week, tasks),
	})
}
