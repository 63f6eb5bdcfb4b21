package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/choreward/backend/models"
)

func TestMemoryStorageUsers(t *testing.T) {
	store := NewMemoryStorage()
	ctx := context.Background()

	user, err := store.AddUser(ctx, &models.User{Email: "kid@example.com", PasswordHash: "hash"})
	require.NoError(t, err)
	require.False(t, user.ID.IsZero())

	_, err = store.AddUser(ctx, &models.User{Email: "kid@example.com"})
	assert.ErrorIs(t, err, ErrDuplicateEmail)

	found, err := store.FindUserByEmail(ctx, "kid@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, found.ID)

	// The store hands out copies.
	found.Balance = 99
	again, err := store.FindUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Zero(t, again.Balance)

	found.Balance = 42
	require.NoError(t, store.SaveUser(ctx, found))
	again, err = store.FindUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 42, again.Balance)

	_, err = store.FindUserByID(ctx, primitive.NewObjectID())
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, store.SaveUser(ctx, &models.User{ID: primitive.NewObjectID()}), ErrNotFound)
}

func TestMemoryStorageTasksByWeek(t *testing.T) {
	store := NewMemoryStorage()
	ctx := context.Background()

	week, err := store.AddWeek(ctx, &models.Week{StartDate: "2023-07-03"})
	require.NoError(t, err)
	other, err := store.AddWeek(ctx, &models.Week{StartDate: "2023-07-10"})
	require.NoError(t, err)

	for _, title := range []string{"first", "second", "third"} {
		_, err := store.AddTask(ctx, &models.Task{WeekID: week.ID, Title: title})
		require.NoError(t, err)
	}
	_, err = store.AddTask(ctx, &models.Task{WeekID: other.ID, Title: "foreign"})
	require.NoError(t, err)

	tasks, err := store.FindTasksByWeek(ctx, week.ID)
	require.NoError(t, err)
	require.Len(t, tasks, 3)
	// Insertion order is preserved.
	assert.Equal(t, "first", tasks[0].Title)
	assert.Equal(t, "third", tasks[2].Title)
}

func TestMemoryStorageSessions(t *testing.T) {
	store := NewMemoryStorage()
	ctx := context.Background()

	session, err := store.AddSession(ctx, &models.Session{UID: primitive.NewObjectID()})
	require.NoError(t, err)

	found, err := store.FindSessionByID(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, session.UID, found.UID)

	require.NoError(t, store.DeleteSession(ctx, session.ID))
	_, err = store.FindSessionByID(ctx, session.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	// Deleting an absent session is not an error.
	assert.NoError(t, store.DeleteSession(ctx, session.ID))
}
