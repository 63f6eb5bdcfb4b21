package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/choreward/backend/ledger"
	"github.com/choreward/backend/models"
	"github.com/choreward/backend/uploads"
)

const maxUploadSize = 10 << 20

type createTaskRequest struct {
	Title  string `validate:"required"`
	Reward int    `validate:"required,min=1"`
}

// CreateTask creates a user task on the current week: seven day slots dated
// to the week, all flags cleared, and an image URL from the upload store or
// the placeholder when no file is attached.
func (h *Handler) CreateTask(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	reward, _ := strconv.Atoi(r.FormValue("reward"))
	req := createTaskRequest{Title: r.FormValue("title"), Reward: reward}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, fieldMessage(err))
		return
	}

	imageURL, status, err := h.storeImage(r)
	if err != nil {
		writeError(w, status, err.Error())
		return
	}

	ctx := r.Context()
	user, unlock, err := h.lockAndLoadUser(ctx, userFrom(ctx).ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	defer unlock()

	week, _, err := h.ensureCurrentWeek(ctx, user, locale(r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	start, _ := time.Parse(ledger.DateLayout, week.StartDate)
	task := &models.Task{
		WeekID:   week.ID,
		Title:    req.Title,
		Reward:   req.Reward,
		ImageURL: imageURL,
		Days:     ledger.BuildDays(start),
	}
	if _, err := h.store.AddTask(ctx, task); err != nil {
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	week.Tasks = append(week.Tasks, task.ID)
	if err := h.store.SaveWeek(ctx, week); err != nil {
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusCreated, task)
}

// storeImage reads the optional upload. Non-image payloads are rejected
// with 415; a missing file yields the placeholder URL.
func (h *Handler) storeImage(r *http.Request) (string, int, error) {
	file, header, err := r.FormFile("file")
	if err == http.ErrMissingFile {
		return uploads.PlaceholderURL, 0, nil
	}
	if err != nil {
		return "", http.StatusBadRequest, errors.New("Please, upload an image")
	}
	defer file.Close()

	head := make([]byte, 512)
	n, err := file.Read(head)
	if err != nil && err != io.EOF {
		return "", http.StatusUnsupportedMediaType, errors.New("Only image files are allowed")
	}
	head = head[:n]
	if !strings.HasPrefix(http.DetectContentType(head), "image/") {
		return "", http.StatusUnsupportedMediaType, errors.New("Only image files are allowed")
	}

	url, err := h.images.Save(header.Filename, io.MultiReader(bytes.NewReader(head), file))
	if err != nil {
		return "", http.StatusInternalServerError, errors.New("Internal server error")
	}
	return url, 0, nil
}

// taskID parses the path parameter into an ObjectID.
func taskID(r *http.Request) (primitive.ObjectID, error) {
	return primitive.ObjectIDFromHex(mux.Vars(r)["taskId"])
}

// loadOwnedTask fetches the task and checks it belongs to the caller's
// current week. Foreign and unknown tasks are indistinguishable on the wire.
func (h *Handler) loadOwnedTask(r *http.Request, user *models.User) (*models.Task, *models.Week, int, error) {
	ctx := r.Context()
	id, err := taskID(r)
	if err != nil {
		return nil, nil, http.StatusBadRequest, errors.New("Invalid 'taskId'. Must be a MongoDB ObjectId")
	}
	task, err := h.store.FindTaskByID(ctx, id)
	if err != nil || task.WeekID != user.CurrentWeek {
		return nil, nil, http.StatusNotFound, errors.New("Task not found")
	}
	week, err := h.store.FindWeekByID(ctx, user.CurrentWeek)
	if err != nil {
		return nil, nil, http.StatusInternalServerError, errors.New("Internal server error")
	}
	return task, week, 0, nil
}

type activeRequest struct {
	Dates []string `json:"dates"`
}

// SetActive replaces one task's schedule with the submitted set of dates and
// maintains the week's planned-reward counter per transition. Deactivating a
// completed day also reverses its completion and refunds the balance.
func (h *Handler) SetActive(w http.ResponseWriter, r *http.Request) {
	var req activeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	for _, date := range req.Dates {
		if !validDate(date) {
			writeError(w, http.StatusBadRequest, "Invalid 'date'. Please, use YYYY-MM-DD string format")
			return
		}
	}

	ctx := r.Context()
	user, unlock, err := h.lockAndLoadUser(ctx, userFrom(ctx).ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	defer unlock()

	task, week, status, err := h.loadOwnedTask(r, user)
	if err != nil {
		writeError(w, status, err.Error())
		return
	}

	delta, err := ledger.SetActiveDays(week, task, req.Dates)
	if err != nil {
		writeError(w, http.StatusNotFound, "Day not found")
		return
	}

	if err := h.persistMutation(ctx, user, week, delta, task); err != nil {
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"rewardsPlanned": week.RewardsPlanned,
		"newBalance":     user.Balance,
		"updatedTask":    task,
	})
}

type syncDay struct {
	Date     string `json:"date"`
	IsActive bool   `json:"isActive"`
}

type syncTask struct {
	TaskID string    `json:"taskId"`
	Days   []syncDay `json:"days"`
}

// SyncActive applies a whole week's schedule in one request: one entry per
// task of the current week, positional date equality required. Validation
// covers the entire batch before any counter moves.
func (h *Handler) SyncActive(w http.ResponseWriter, r *http.Request) {
	var req []syncTask
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	subs := make([]ledger.Submission, 0, len(req))
	for _, st := range req {
		id, err := primitive.ObjectIDFromHex(st.TaskID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid 'taskId'. Must be a MongoDB ObjectId")
			return
		}
		sub := ledger.Submission{TaskID: id}
		for _, day := range st.Days {
			if !validDate(day.Date) {
				writeError(w, http.StatusBadRequest, "Invalid 'date'. Please, use YYYY-MM-DD string format")
				return
			}
			sub.Days = append(sub.Days, models.Day{Date: day.Date, IsActive: day.IsActive})
		}
		subs = append(subs, sub)
	}

	ctx := r.Context()
	user, unlock, err := h.lockAndLoadUser(ctx, userFrom(ctx).ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	defer unlock()

	week, err := h.store.FindWeekByID(ctx, user.CurrentWeek)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	stored, err := h.store.FindTasksByWeek(ctx, week.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	tasks := make([]*models.Task, len(stored))
	for i := range stored {
		tasks[i] = &stored[i]
	}

	delta, err := ledger.SyncTasks(week, tasks, subs)
	if err != nil {
		var countErr *ledger.TaskCountError
		switch {
		case errors.As(err, &countErr):
			writeError(w, http.StatusBadRequest, fmt.Sprintf("Invalid task count. Expected %d tasks", countErr.Expected))
		case err == ledger.ErrTaskNotFound:
			writeError(w, http.StatusNotFound, "Task not found")
		case err == ledger.ErrDuplicateTask:
			writeError(w, http.StatusBadRequest, "Duplicate task in the list")
		default:
			writeError(w, http.StatusBadRequest, "Invalid day date")
		}
		return
	}

	if err := h.persistMutation(ctx, user, week, delta, tasks...); err != nil {
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"newBalance": user.Balance,
		"week":       newWeekPayload(week, stored),
	})
}

type completeRequest struct {
	Date string `json:"date"`
}

// Complete marks a day done and credits the reward: strict variant, a
// repeated completion is rejected.
func (h *Handler) Complete(w http.ResponseWriter, r *http.Request) {
	h.completeDay(w, r, ledger.CompleteDay)
}

// Switch is the toggle variant of Complete: completing an already-completed
// day toggles it back and refunds the reward.
func (h *Handler) Switch(w http.ResponseWriter, r *http.Request) {
	h.completeDay(w, r, ledger.SwitchDay)
}

func (h *Handler) completeDay(w http.ResponseWriter, r *http.Request, op func(*models.Week, *models.Task, string) (int, error)) {
	var req completeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if !validDate(req.Date) {
		writeError(w, http.StatusBadRequest, "Invalid 'date'. Please, use YYYY-MM-DD string format")
		return
	}

	ctx := r.Context()
	user, unlock, err := h.lockAndLoadUser(ctx, userFrom(ctx).ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	defer unlock()

	task, week, status, err := h.loadOwnedTask(r, user)
	if err != nil {
		writeError(w, status, err.Error())
		return
	}

	delta, err := op(week, task, req.Date)
	switch err {
	case nil:
	case ledger.ErrDayNotFound:
		writeError(w, http.StatusNotFound, "Day not found")
		return
	case ledger.ErrDayInactive:
		writeError(w, http.StatusBadRequest, "This task doesn't exist on provided day")
		return
	case ledger.ErrDayCompleted:
		writeError(w, http.StatusBadRequest, "This task is already completed on provided day")
		return
	default:
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	if err := h.persistMutation(ctx, user, week, delta, task); err != nil {
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"newBalance":    user.Balance,
		"rewardsGained": week.RewardsGained,
		"updatedTask":   task,
	})
}

// persistMutation writes the mutated documents back: tasks, week, and the
// user when the balance moved. Writes are sequential with no rollback; the
// per-user lock keeps concurrent requests from interleaving them.
func (h *Handler) persistMutation(ctx context.Context, user *models.User, week *models.Week, delta int, tasks ...*models.Task) error {
	for _, task := range tasks {
		if err := h.store.SaveTask(ctx, task); err != nil {
			return err
		}
	}
	if err := h.store.SaveWeek(ctx, week); err != nil {
		return err
	}
	if delta != 0 {
		user.Balance += delta
		if err := h.store.SaveUser(ctx, user); err != nil {
			return err
		}
	}
	return nil
}
