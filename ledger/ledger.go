// Package ledger implements the weekly task/reward bookkeeping: day-slot
// toggling and the delta maintenance of a week's rewardsPlanned/rewardsGained
// counters and the user balance. All functions mutate the passed documents in
// memory only; callers persist them.
package ledger

import (
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/choreward/backend/models"
)

// DateLayout is the wire and storage format for day dates.
const DateLayout = "2006-01-02"

// DaysPerWeek is fixed: every task owns exactly seven day slots.
const DaysPerWeek = 7

var (
	// ErrDayNotFound is returned when a requested date is not among the
	// task's seven day slots.
	ErrDayNotFound = errors.New("day not found")
	// ErrTaskNotFound is returned when a submitted task id does not belong
	// to the week being mutated.
	ErrTaskNotFound = errors.New("task not found")
	// ErrDayInactive is returned on completing a day the task is not
	// scheduled on.
	ErrDayInactive = errors.New("task is not active on provided day")
	// ErrDayCompleted is returned by the strict completion variant when the
	// day is already completed.
	ErrDayCompleted = errors.New("task is already completed on provided day")
	// ErrDayDateMismatch is returned by bulk sync when a submitted slot date
	// differs from the stored date at the same position.
	ErrDayDateMismatch = errors.New("invalid day date")
	// ErrDuplicateTask is returned by bulk sync when a task id appears more
	// than once, which would let another of the week's tasks go unsubmitted.
	ErrDuplicateTask = errors.New("duplicate task in the list")
)

// TaskCountError reports a bulk submission whose task list length does not
// match the week's task count.
type TaskCountError struct {
	Expected int
}

func (e *TaskCountError) Error() string {
	return fmt.Sprintf("expected %d tasks in the list", e.Expected)
}

// WeekStart returns midnight of the Monday of t's ISO week.
func WeekStart(t time.Time) time.Time {
	weekday := int(t.Weekday())
	if weekday == 0 {
		weekday = 7
	}
	day := t.AddDate(0, 0, -(weekday - 1))
	return time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, t.Location())
}

// BuildDays returns seven contiguous day slots starting at start, all flags
// cleared.
func BuildDays(start time.Time) []models.Day {
	days := make([]models.Day, DaysPerWeek)
	for i := range days {
		days[i] = models.Day{Date: start.AddDate(0, 0, i).Format(DateLayout)}
	}
	return days
}

func findDay(task *models.Task, date string) *models.Day {
	for i := range task.Days {
		if task.Days[i].Date == date {
			return &task.Days[i]
		}
	}
	return nil
}

// activate flips one slot's active flag to the requested value and applies
// the counter deltas. Deactivating a completed slot also clears its
// completion and refunds the gained reward, so isCompleted never outlives
// isActive. Returns the balance delta.
func activate(week *models.Week, task *models.Task, day *models.Day, active bool) int {
	if day.IsActive == active {
		return 0
	}
	day.IsActive = active
	if active {
		week.RewardsPlanned += task.Reward
		return 0
	}
	week.RewardsPlanned -= task.Reward
	if day.IsCompleted {
		day.IsCompleted = false
		week.RewardsGained -= task.Reward
		return -task.Reward
	}
	return 0
}

// SetActiveDays replaces the task's schedule: slots whose date is listed in
// dates become active, all others inactive. Each false->true transition adds
// the task's reward to the week's rewardsPlanned, each true->false subtracts
// it; untouched slots have no counter effect. A date not present among the
// task's slots fails with ErrDayNotFound before anything is mutated.
// The returned balance delta is non-zero only when deactivation reverses a
// completed slot.
func SetActiveDays(week *models.Week, task *models.Task, dates []string) (int, error) {
	requested := make(map[string]bool, len(dates))
	for _, date := range dates {
		if findDay(task, date) == nil {
			return 0, ErrDayNotFound
		}
		requested[date] = true
	}
	delta := 0
	for i := range task.Days {
		day := &task.Days[i]
		delta += activate(week, task, day, requested[day.Date])
	}
	return delta, nil
}

// CompleteDay marks one day slot completed, crediting the task's reward to
// the week's rewardsGained. The slot must exist, be active, and not already
// be completed; repeat completion is rejected with ErrDayCompleted.
// Returns the balance delta (the task's reward).
func CompleteDay(week *models.Week, task *models.Task, date string) (int, error) {
	day := findDay(task, date)
	if day == nil {
		return 0, ErrDayNotFound
	}
	if !day.IsActive {
		return 0, ErrDayInactive
	}
	if day.IsCompleted {
		return 0, ErrDayCompleted
	}
	day.IsCompleted = true
	week.RewardsGained += task.Reward
	return task.Reward, nil
}

// SwitchDay is the toggle variant of completion: an incomplete active slot
// becomes completed (credit), a completed one toggles back (debit). The
// existence and active preconditions match CompleteDay.
func SwitchDay(week *models.Week, task *models.Task, date string) (int, error) {
	day := findDay(task, date)
	if day == nil {
		return 0, ErrDayNotFound
	}
	if !day.IsActive {
		return 0, ErrDayInactive
	}
	if day.IsCompleted {
		day.IsCompleted = false
		week.RewardsGained -= task.Reward
		return -task.Reward, nil
	}
	day.IsCompleted = true
	week.RewardsGained += task.Reward
	return task.Reward, nil
}

// Submission is one task's schedule within a bulk sync: the task id and its
// seven submitted day slots in positional order.
type Submission struct {
	TaskID primitive.ObjectID
	Days   []models.Day
}

// SyncTasks applies a whole week's schedule in one operation. The submission
// list must contain exactly one entry per task of the week (TaskCountError
// reports the expected count, ErrDuplicateTask a repeated id), every
// submitted task must belong to the week, and each submitted slot's date
// must equal the stored date at the same position. Validation runs over the full batch before any slot is mutated,
// so a failing sync leaves the week untouched. Returns the cumulative
// balance delta from deactivated completed slots.
func SyncTasks(week *models.Week, tasks []*models.Task, subs []Submission) (int, error) {
	if len(subs) != len(week.Tasks) {
		return 0, &TaskCountError{Expected: len(week.Tasks)}
	}
	byID := make(map[primitive.ObjectID]*models.Task, len(tasks))
	for _, task := range tasks {
		byID[task.ID] = task
	}
	seen := make(map[primitive.ObjectID]bool, len(subs))
	for _, sub := range subs {
		if seen[sub.TaskID] {
			return 0, ErrDuplicateTask
		}
		seen[sub.TaskID] = true
		task, ok := byID[sub.TaskID]
		if !ok {
			return 0, ErrTaskNotFound
		}
		if len(sub.Days) != len(task.Days) {
			return 0, ErrDayDateMismatch
		}
		for i, day := range sub.Days {
			if day.Date != task.Days[i].Date {
				return 0, ErrDayDateMismatch
			}
		}
	}
	delta := 0
	for _, sub := range subs {
		task := byID[sub.TaskID]
		for i, day := range sub.Days {
			delta += activate(week, task, &task.Days[i], day.IsActive)
		}
	}
	return delta, nil
}

// PlannedSum recomputes the planned total from scratch. Used to check the
// denormalized counter against its definition.
func PlannedSum(tasks []*models.Task) int {
	sum := 0
	for _, task := range tasks {
		for _, day := range task.Days {
			if day.IsActive {
				sum += task.Reward
			}
		}
	}
	return sum
}

// GainedSum recomputes the gained total from scratch.
func GainedSum(tasks []*models.Task) int {
	sum := 0
	for _, task := range tasks {
		for _, day := range task.Days {
			if day.IsCompleted {
				sum += task.Reward
			}
		}
	}
	return sum
}
