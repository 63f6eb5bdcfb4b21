package ledger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/choreward/backend/models"
)

var testStart = time.Date(2023, 7, 3, 0, 0, 0, 0, time.UTC) // a Monday

func newTestTask(reward int) *models.Task {
	return &models.Task{
		ID:     primitive.NewObjectID(),
		Title:  "Make the bed",
		Reward: reward,
		Days:   BuildDays(testStart),
	}
}

func newTestWeek(tasks ...*models.Task) *models.Week {
	week := &models.Week{
		ID:        primitive.NewObjectID(),
		StartDate: testStart.Format(DateLayout),
		EndDate:   testStart.AddDate(0, 0, 6).Format(DateLayout),
	}
	for _, task := range tasks {
		task.WeekID = week.ID
		week.Tasks = append(week.Tasks, task.ID)
	}
	return week
}

func TestWeekStart(t *testing.T) {
	monday := time.Date(2023, 7, 3, 0, 0, 0, 0, time.UTC)

	for _, tc := range []struct {
		name string
		in   time.Time
	}{
		{"monday maps to itself", monday},
		{"midweek maps back", time.Date(2023, 7, 5, 15, 30, 0, 0, time.UTC)},
		{"sunday belongs to the preceding monday", time.Date(2023, 7, 9, 23, 59, 0, 0, time.UTC)},
	} {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, monday, WeekStart(tc.in))
		})
	}
}

func TestBuildDays(t *testing.T) {
	days := BuildDays(testStart)

	require.Len(t, days, DaysPerWeek)
	assert.Equal(t, "2023-07-03", days[0].Date)
	assert.Equal(t, "2023-07-09", days[6].Date)
	for _, day := range days {
		assert.False(t, day.IsActive)
		assert.False(t, day.IsCompleted)
	}
}

func TestSetActiveDays(t *testing.T) {
	task := newTestTask(1)
	week := newTestWeek(task)

	delta, err := SetActiveDays(week, task, []string{"2023-07-04", "2023-07-08"})
	require.NoError(t, err)
	assert.Zero(t, delta)
	assert.Equal(t, 2, week.RewardsPlanned)
	assert.True(t, task.Days[1].IsActive)
	assert.True(t, task.Days[5].IsActive)

	// Re-submitting the same set is a no-op.
	delta, err = SetActiveDays(week, task, []string{"2023-07-04", "2023-07-08"})
	require.NoError(t, err)
	assert.Zero(t, delta)
	assert.Equal(t, 2, week.RewardsPlanned)

	// Replacement semantics: dropping a day deactivates it.
	delta, err = SetActiveDays(week, task, []string{"2023-07-04"})
	require.NoError(t, err)
	assert.Zero(t, delta)
	assert.Equal(t, 1, week.RewardsPlanned)
	assert.False(t, task.Days[5].IsActive)

	assert.Equal(t, PlannedSum([]*models.Task{task}), week.RewardsPlanned)
}

func TestSetActiveDaysUnknownDate(t *testing.T) {
	task := newTestTask(3)
	week := newTestWeek(task)

	_, err := SetActiveDays(week, task, []string{"2023-07-04", "2023-07-10"})
	assert.ErrorIs(t, err, ErrDayNotFound)
	// A failed call leaves the schedule untouched.
	assert.Zero(t, week.RewardsPlanned)
	assert.False(t, task.Days[1].IsActive)
}

func TestCompleteDay(t *testing.T) {
	task := newTestTask(1)
	week := newTestWeek(task)
	_, err := SetActiveDays(week, task, []string{"2023-07-04", "2023-07-08"})
	require.NoError(t, err)

	delta, err := CompleteDay(week, task, "2023-07-04")
	require.NoError(t, err)
	assert.Equal(t, 1, delta)
	assert.Equal(t, 1, week.RewardsGained)
	assert.True(t, task.Days[1].IsCompleted)

	// Strict variant: a repeat completion is rejected and moves nothing.
	_, err = CompleteDay(week, task, "2023-07-04")
	assert.ErrorIs(t, err, ErrDayCompleted)
	assert.Equal(t, 1, week.RewardsGained)

	_, err = CompleteDay(week, task, "2023-07-05")
	assert.ErrorIs(t, err, ErrDayInactive)

	_, err = CompleteDay(week, task, "2023-07-10")
	assert.ErrorIs(t, err, ErrDayNotFound)

	assert.Equal(t, GainedSum([]*models.Task{task}), week.RewardsGained)
}

func TestSwitchDayToggles(t *testing.T) {
	task := newTestTask(5)
	week := newTestWeek(task)
	_, err := SetActiveDays(week, task, []string{"2023-07-03"})
	require.NoError(t, err)

	delta, err := SwitchDay(week, task, "2023-07-03")
	require.NoError(t, err)
	assert.Equal(t, 5, delta)
	assert.Equal(t, 5, week.RewardsGained)

	delta, err = SwitchDay(week, task, "2023-07-03")
	require.NoError(t, err)
	assert.Equal(t, -5, delta)
	assert.Zero(t, week.RewardsGained)
	assert.False(t, task.Days[0].IsCompleted)

	_, err = SwitchDay(week, task, "2023-07-05")
	assert.ErrorIs(t, err, ErrDayInactive)
}

func TestDeactivateCompletedDayRefunds(t *testing.T) {
	task := newTestTask(4)
	week := newTestWeek(task)
	_, err := SetActiveDays(week, task, []string{"2023-07-03", "2023-07-04"})
	require.NoError(t, err)
	_, err = CompleteDay(week, task, "2023-07-03")
	require.NoError(t, err)

	delta, err := SetActiveDays(week, task, []string{"2023-07-04"})
	require.NoError(t, err)
	assert.Equal(t, -4, delta)
	assert.Equal(t, 4, week.RewardsPlanned)
	assert.Zero(t, week.RewardsGained)
	assert.False(t, task.Days[0].IsActive)
	// Completion never outlives activity.
	assert.False(t, task.Days[0].IsCompleted)
}

func TestSyncTasks(t *testing.T) {
	first := newTestTask(2)
	second := newTestTask(3)
	week := newTestWeek(first, second)

	subs := []Submission{
		{TaskID: first.ID, Days: submittedDays("2023-07-03", "2023-07-05")},
		{TaskID: second.ID, Days: submittedDays("2023-07-09")},
	}
	delta, err := SyncTasks(week, []*models.Task{first, second}, subs)
	require.NoError(t, err)
	assert.Zero(t, delta)
	assert.Equal(t, 7, week.RewardsPlanned)
	assert.Equal(t, PlannedSum([]*models.Task{first, second}), week.RewardsPlanned)
}

func TestSyncTasksValidatesBeforeMutating(t *testing.T) {
	first := newTestTask(2)
	second := newTestTask(3)
	week := newTestWeek(first, second)

	t.Run("task count mismatch", func(t *testing.T) {
		_, err := SyncTasks(week, []*models.Task{first, second}, []Submission{
			{TaskID: first.ID, Days: submittedDays("2023-07-03")},
		})
		var countErr *TaskCountError
		require.ErrorAs(t, err, &countErr)
		assert.Equal(t, 2, countErr.Expected)
		assert.Zero(t, week.RewardsPlanned)
	})

	t.Run("foreign task id", func(t *testing.T) {
		_, err := SyncTasks(week, []*models.Task{first, second}, []Submission{
			{TaskID: first.ID, Days: submittedDays("2023-07-03")},
			{TaskID: primitive.NewObjectID(), Days: submittedDays()},
		})
		assert.ErrorIs(t, err, ErrTaskNotFound)
		assert.Zero(t, week.RewardsPlanned)
		assert.False(t, first.Days[0].IsActive)
	})

	t.Run("duplicate task id", func(t *testing.T) {
		_, err := SyncTasks(week, []*models.Task{first, second}, []Submission{
			{TaskID: first.ID, Days: submittedDays("2023-07-03")},
			{TaskID: first.ID, Days: submittedDays("2023-07-04")},
		})
		assert.ErrorIs(t, err, ErrDuplicateTask)
		assert.Zero(t, week.RewardsPlanned)
		assert.False(t, first.Days[0].IsActive)
	})

	t.Run("positional date mismatch", func(t *testing.T) {
		bad := submittedDays("2023-07-03")
		bad[0].Date = "2023-07-10"
		_, err := SyncTasks(week, []*models.Task{first, second}, []Submission{
			{TaskID: first.ID, Days: bad},
			{TaskID: second.ID, Days: submittedDays()},
		})
		assert.ErrorIs(t, err, ErrDayDateMismatch)
		assert.Zero(t, week.RewardsPlanned)
	})
}

func TestSyncTasksRefundsReversedCompletions(t *testing.T) {
	task := newTestTask(6)
	week := newTestWeek(task)
	_, err := SetActiveDays(week, task, []string{"2023-07-03"})
	require.NoError(t, err)
	_, err = CompleteDay(week, task, "2023-07-03")
	require.NoError(t, err)

	delta, err := SyncTasks(week, []*models.Task{task}, []Submission{
		{TaskID: task.ID, Days: submittedDays()},
	})
	require.NoError(t, err)
	assert.Equal(t, -6, delta)
	assert.Zero(t, week.RewardsPlanned)
	assert.Zero(t, week.RewardsGained)
}

// submittedDays builds a full positional slot list with the given dates
// marked active.
func submittedDays(activeDates ...string) []models.Day {
	days := BuildDays(testStart)
	for i := range days {
		for _, date := range activeDates {
			if days[i].Date == date {
				days[i].IsActive = true
			}
		}
	}
	return days
}

func TestDefaultTasks(t *testing.T) {
	en := DefaultTasks("en")
	require.Len(t, en, 8)
	assert.Equal(t, "Make the bed", en[0].Title)
	assert.Equal(t, 3, en[0].Reward)

	ru := DefaultTasks("ru")
	require.Len(t, ru, 8)
	assert.NotEqual(t, en[0].Title, ru[0].Title)

	// Unknown locales fall back to English.
	assert.Equal(t, en, DefaultTasks("de"))
}
