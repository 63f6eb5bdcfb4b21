// Package handlers implements the REST endpoints: request decoding and
// validation, the auth middleware, and the orchestration of ledger
// operations over the document store.
package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/choreward/backend/ledger"
	"github.com/choreward/backend/models"
	"github.com/choreward/backend/queue"
	"github.com/choreward/backend/server/auth"
	"github.com/choreward/backend/server/contextkey"
	"github.com/choreward/backend/storage/cache"
	storage "github.com/choreward/backend/storage/persistent"
	"github.com/choreward/backend/uploads"
)

// Handler carries the collaborators every endpoint needs. The cache and the
// welcome queue are optional; a nil cache falls through to the database and
// a nil queue skips the welcome mail.
type Handler struct {
	store    storage.StorageInterface
	cache    cache.CacheInterface
	auth     *auth.Auth
	images   uploads.Store
	welcome  *queue.Queue
	validate *validator.Validate

	// locks serializes mutating requests per user, so two concurrent
	// toggles cannot both read the same pre-mutation counters. Entries are
	// reference-counted and removed once the last holder releases.
	locksMu sync.Mutex
	locks   map[string]*userLock
}

type userLock struct {
	mu   sync.Mutex
	refs int
}

// New wires a Handler. images must be non-nil; cache and welcome may be nil.
func New(store storage.StorageInterface, c cache.CacheInterface, a *auth.Auth, images uploads.Store, welcome *queue.Queue) *Handler {
	return &Handler{
		store:    store,
		cache:    c,
		auth:     a,
		images:   images,
		welcome:  welcome,
		validate: validator.New(),
		locks:    make(map[string]*userLock),
	}
}

// lockUser takes the per-user mutex and returns the unlock function. The
// map entry lives only while at least one request holds or waits for it.
func (h *Handler) lockUser(id primitive.ObjectID) func() {
	key := id.Hex()
	h.locksMu.Lock()
	l := h.locks[key]
	if l == nil {
		l = &userLock{}
		h.locks[key] = l
	}
	l.refs++
	h.locksMu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		h.locksMu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(h.locks, key)
		}
		h.locksMu.Unlock()
	}
}

// lockAndLoadUser takes the per-user mutex and re-reads the user document,
// so the operation starts from the latest persisted balance rather than the
// snapshot Authorize loaded before the lock was available.
func (h *Handler) lockAndLoadUser(ctx context.Context, id primitive.ObjectID) (*models.User, func(), error) {
	unlock := h.lockUser(id)
	user, err := h.store.FindUserByID(ctx, id)
	if err != nil {
		unlock()
		return nil, nil, err
	}
	return user, unlock, nil
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]interface{}{
		"message": message,
		"success": false,
	})
}

// locale picks the content language from the lang query parameter.
// Unsupported values fall back to English.
func locale(r *http.Request) string {
	switch lang := r.URL.Query().Get("lang"); lang {
	case "en", "ru", "pl":
		return lang
	default:
		return "en"
	}
}

func validDate(date string) bool {
	_, err := time.Parse(ledger.DateLayout, date)
	return err == nil
}

// fieldMessage turns the first validation failure into the response message.
func fieldMessage(err error) string {
	if errs, ok := err.(validator.ValidationErrors); ok && len(errs) > 0 {
		return fmt.Sprintf("Invalid '%s'", strings.ToLower(errs[0].Field()))
	}
	return "Invalid request body"
}

// userFrom returns the authenticated user injected by Authorize.
func userFrom(ctx context.Context) *models.User {
	user, _ := ctx.Value(contextkey.UserKey).(*models.User)
	return user
}

func sessionFrom(ctx context.Context) *models.Session {
	session, _ := ctx.Value(contextkey.SessionKey).(*models.Session)
	return session
}

const sessionKeyPrefix = "session_"

// Authorize validates the Bearer token, resolves the user and the session
// (cache first, database on miss) and injects both into the request context.
func (h *Handler) Authorize(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" {
			writeError(w, http.StatusBadRequest, "No token provided")
			return
		}
		tokenString := strings.TrimPrefix(header, "Bearer ")

		claims, err := h.auth.ParseToken(tokenString)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		uid, err := primitive.ObjectIDFromHex(claims.UID)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		sid, err := primitive.ObjectIDFromHex(claims.SID)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		ctx := r.Context()
		user, err := h.store.FindUserByID(ctx, uid)
		if err != nil {
			writeError(w, http.StatusNotFound, "Invalid user")
			return
		}

		session, err := h.findSession(ctx, sid)
		if err != nil {
			writeError(w, http.StatusNotFound, "Invalid session")
			return
		}

		ctx = context.WithValue(ctx, contextkey.UserKey, user)
		ctx = context.WithValue(ctx, contextkey.SessionKey, session)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (h *Handler) findSession(ctx context.Context, sid primitive.ObjectID) (*models.Session, error) {
	if h.cache != nil {
		session := &models.Session{}
		if err := h.cache.Get(ctx, sessionKeyPrefix+sid.Hex(), session); err == nil {
			return session, nil
		}
	}
	session, err := h.store.FindSessionByID(ctx, sid)
	if err != nil {
		return nil, err
	}
	if h.cache != nil {
		h.cache.Set(ctx, sessionKeyPrefix+sid.Hex(), session)
	}
	return session, nil
}

// weekPayload is the wire shape of a week with its tasks populated.
type weekPayload struct {
	models.Week
	Tasks []models.Task `json:"tasks"`
}

type userPayload struct {
	Email   string             `json:"email"`
	Balance int                `json:"balance"`
	ID      primitive.ObjectID `json:"id"`
}

func newWeekPayload(week *models.Week, tasks []models.Task) weekPayload {
	if tasks == nil {
		tasks = []models.Task{}
	}
	return weekPayload{Week: *week, Tasks: tasks}
}

func newUserPayload(user *models.User) userPayload {
	return userPayload{Email: user.Email, Balance: user.Balance, ID: user.ID}
}

// createWeek builds and persists a fresh week for the current calendar week,
// seeded with the locale's default task set.
func (h *Handler) createWeek(ctx context.Context, loc string) (*models.Week, []models.Task, error) {
	start := ledger.WeekStart(time.Now())
	week := &models.Week{
		StartDate: start.Format(ledger.DateLayout),
		EndDate:   start.AddDate(0, 0, 6).Format(ledger.DateLayout),
	}
	if _, err := h.store.AddWeek(ctx, week); err != nil {
		return nil, nil, err
	}

	templates := ledger.DefaultTasks(loc)
	tasks := make([]models.Task, 0, len(templates))
	for _, tpl := range templates {
		task := &models.Task{
			WeekID:   week.ID,
			Title:    tpl.Title,
			Reward:   tpl.Reward,
			ImageURL: tpl.ImageURL,
			Days:     ledger.BuildDays(start),
		}
		if _, err := h.store.AddTask(ctx, task); err != nil {
			return nil, nil, err
		}
		week.Tasks = append(week.Tasks, task.ID)
		tasks = append(tasks, *task)
	}
	if err := h.store.SaveWeek(ctx, week); err != nil {
		return nil, nil, err
	}
	return week, tasks, nil
}

// ensureCurrentWeek returns the user's week for the current calendar week,
// rolling the stale or missing one over to a fresh default week. The weekly
// reset is implicit: superseded weeks stay stored but are no longer
// referenced by the user.
func (h *Handler) ensureCurrentWeek(ctx context.Context, user *models.User, loc string) (*models.Week, []models.Task, error) {
	start := ledger.WeekStart(time.Now()).Format(ledger.DateLayout)
	if !user.CurrentWeek.IsZero() {
		week, err := h.store.FindWeekByID(ctx, user.CurrentWeek)
		if err == nil && week.StartDate == start {
			tasks, err := h.store.FindTasksByWeek(ctx, week.ID)
			if err != nil {
				return nil, nil, err
			}
			return week, tasks, nil
		}
		if err != nil && err != storage.ErrNotFound {
			return nil, nil, err
		}
	}

	week, tasks, err := h.createWeek(ctx, loc)
	if err != nil {
		return nil, nil, err
	}
	user.CurrentWeek = week.ID
	if err := h.store.SaveUser(ctx, user); err != nil {
		return nil, nil, err
	}
	return week, tasks, nil
}
