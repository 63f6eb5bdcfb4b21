package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/choreward/backend/models"
	"github.com/choreward/backend/queue"
	"github.com/choreward/backend/server/auth"
	storage "github.com/choreward/backend/storage/persistent"
)

type credentialsRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// Register creates a user with a zero balance and a fresh current week
// seeded from the locale's default tasks, opens a session and returns the
// access token. Registration with a known email is a conflict.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, fieldMessage(err))
		return
	}

	ctx := r.Context()
	loc := locale(r)

	passwordHash, err := auth.HashPassword(req.Password)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	week, tasks, err := h.createWeek(ctx, loc)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	user := &models.User{
		Email:        req.Email,
		PasswordHash: passwordHash,
		CurrentWeek:  week.ID,
	}
	if _, err := h.store.AddUser(ctx, user); err != nil {
		if err == storage.ErrDuplicateEmail {
			writeError(w, http.StatusConflict, "User with this email already exists")
			return
		}
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	token, err := h.openSession(r, user)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	h.queueWelcome(user, loc)

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "Successfully registered",
		"success": true,
		"token":   token,
		"user":    newUserPayload(user),
		"week":    newWeekPayload(week, tasks),
	})
}

// Login verifies the credentials, opens a session, rolls the week over if it
// went stale since the last visit and returns the access token.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, fieldMessage(err))
		return
	}

	ctx := r.Context()
	user, err := h.store.FindUserByEmail(ctx, req.Email)
	if err != nil {
		writeError(w, http.StatusForbidden, "User with this email doesn't exist")
		return
	}
	if !auth.CheckPassword(user.PasswordHash, req.Password) {
		writeError(w, http.StatusForbidden, "Password is wrong")
		return
	}

	// Re-read under the per-user lock: the rollover may save the user, and
	// concurrent mutations must not be overwritten by the lookup above.
	user, unlock, err := h.lockAndLoadUser(ctx, user.ID)
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

	token, err := h.openSession(r, user)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Successfully authenticated",
		"success": true,
		"token":   token,
		"user":    newUserPayload(user),
		"week":    newWeekPayload(week, tasks),
	})
}

// Logout deletes the session behind the presented token.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	session := sessionFrom(ctx)
	if err := h.store.DeleteSession(ctx, session.ID); err != nil {
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if h.cache != nil {
		h.cache.Delete(ctx, sessionKeyPrefix+session.ID.Hex())
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) openSession(r *http.Request, user *models.User) (string, error) {
	ctx := r.Context()
	session := &models.Session{UID: user.ID}
	if _, err := h.store.AddSession(ctx, session); err != nil {
		return "", err
	}
	if h.cache != nil {
		h.cache.Set(ctx, sessionKeyPrefix+session.ID.Hex(), session)
	}
	return h.auth.CreateToken(user.ID.Hex(), session.ID.Hex())
}

func (h *Handler) queueWelcome(user *models.User, loc string) {
	if h.welcome == nil {
		return
	}
	msg := &queue.WelcomeMessage{
		ID:     primitive.NewObjectID().Hex(),
		To:     user.Email,
		Locale: loc,
	}
	if err := queue.PublishWelcome(msg, h.welcome); err != nil {
		log.Printf("failed to queue welcome email for %s: %v", user.Email, err)
	}
}
