package handlers

import (
	"net/http"
)

// GetWeek returns the current week snapshot, creating a fresh default week
// when the stored one no longer matches the current calendar week.
func (h *Handler) GetWeek(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	// The rollover path writes the user document, so it runs under the
	// per-user lock with a fresh read like every other mutation.
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
		"message": "Week successfully loaded",
		"success": true,
		"week":    newWeekPayload(week, tasks),
	})
}
