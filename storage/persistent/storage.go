package storage

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/choreward/backend/models"
)

// ErrNotFound is returned by all Find methods when no document matches.
var ErrNotFound = errors.New("document not found")

// ErrDuplicateEmail is returned by AddUser when the unique email index
// rejects the insert.
var ErrDuplicateEmail = errors.New("email already registered")

// StorageInterface is the persistence contract the handlers depend on: find
// by id, find by parent reference, and whole-document save. Nothing here
// assumes transactions; multi-document updates are sequential writes.
type StorageInterface interface {
	// Disconnect closes the connection to the storage backend.
	Disconnect() error

	AddUser(ctx context.Context, user *models.User) (*models.User, error)
	FindUserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	SaveUser(ctx context.Context, user *models.User) error

	AddWeek(ctx context.Context, week *models.Week) (*models.Week, error)
	FindWeekByID(ctx context.Context, id primitive.ObjectID) (*models.Week, error)
	SaveWeek(ctx context.Context, week *models.Week) error

	AddTask(ctx context.Context, task *models.Task) (*models.Task, error)
	FindTaskByID(ctx context.Context, id primitive.ObjectID) (*models.Task, error)
	// FindTasksByWeek returns the week's tasks by parent reference.
	FindTasksByWeek(ctx context.Context, weekID primitive.ObjectID) ([]models.Task, error)
	SaveTask(ctx context.Context, task *models.Task) error

	AddSession(ctx context.Context, session *models.Session) (*models.Session, error)
	FindSessionByID(ctx context.Context, id primitive.ObjectID) (*models.Session, error)
	DeleteSession(ctx context.Context, id primitive.ObjectID) error
}

// NewStorage creates a StorageInterface with a MongoDB backend connected to
// the given URI and database.
func NewStorage(dbName, uri string) (StorageInterface, error) {
	store := NewMongoStorage()
	if err := store.Connect(dbName, uri); err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	return store, nil
}
