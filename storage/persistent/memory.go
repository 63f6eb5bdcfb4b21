package storage

import (
	"context"
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/choreward/backend/models"
)

// MemoryStorage is an in-memory StorageInterface used by the test suites and
// for running the server without a database. Documents are deep-copied on
// the way in and out so callers never share memory with the store.
type MemoryStorage struct {
	mu       sync.RWMutex
	users    map[primitive.ObjectID]*models.User
	weeks    map[primitive.ObjectID]*models.Week
	tasks    map[primitive.ObjectID]*models.Task
	sessions map[primitive.ObjectID]*models.Session
	// taskOrder preserves insertion order for FindTasksByWeek.
	taskOrder []primitive.ObjectID
}

// NewMemoryStorage creates an empty in-memory store.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		users:    make(map[primitive.ObjectID]*models.User),
		weeks:    make(map[primitive.ObjectID]*models.Week),
		tasks:    make(map[primitive.ObjectID]*models.Task),
		sessions: make(map[primitive.ObjectID]*models.Session),
	}
}

// Disconnect is a no-op for the in-memory store.
func (m *MemoryStorage) Disconnect() error { return nil }

func copyUser(u *models.User) *models.User {
	c := *u
	return &c
}

func copyWeek(w *models.Week) *models.Week {
	c := *w
	c.Tasks = append([]primitive.ObjectID(nil), w.Tasks...)
	return &c
}

func copyTask(t *models.Task) *models.Task {
	c := *t
	c.Days = append([]models.Day(nil), t.Days...)
	return &c
}

func (m *MemoryStorage) AddUser(ctx context.Context, user *models.User) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if existing.Email == user.Email {
			return nil, ErrDuplicateEmail
		}
	}
	user.ID = primitive.NewObjectID()
	m.users[user.ID] = copyUser(user)
	return user, nil
}

func (m *MemoryStorage) FindUserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	user, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return copyUser(user), nil
}

func (m *MemoryStorage) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, user := range m.users {
		if user.Email == email {
			return copyUser(user), nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryStorage) SaveUser(ctx context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[user.ID]; !ok {
		return ErrNotFound
	}
	m.users[user.ID] = copyUser(user)
	return nil
}

func (m *MemoryStorage) AddWeek(ctx context.Context, week *models.Week) (*models.Week, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	week.ID = primitive.NewObjectID()
	m.weeks[week.ID] = copyWeek(week)
	return week, nil
}

func (m *MemoryStorage) FindWeekByID(ctx context.Context, id primitive.ObjectID) (*models.Week, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	week, ok := m.weeks[id]
	if !ok {
		return nil, ErrNotFound
	}
	return copyWeek(week), nil
}

func (m *MemoryStorage) SaveWeek(ctx context.Context, week *models.Week) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.weeks[week.ID]; !ok {
		return ErrNotFound
	}
	m.weeks[week.ID] = copyWeek(week)
	return nil
}

func (m *MemoryStorage) AddTask(ctx context.Context, task *models.Task) (*models.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	task.ID = primitive.NewObjectID()
	m.tasks[task.ID] = copyTask(task)
	m.taskOrder = append(m.taskOrder, task.ID)
	return task, nil
}

func (m *MemoryStorage) FindTaskByID(ctx context.Context, id primitive.ObjectID) (*models.Task, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	task, ok := m.tasks[id]
	if !ok {
		return nil, ErrNotFound
	}
	return copyTask(task), nil
}

func (m *MemoryStorage) FindTasksByWeek(ctx context.Context, weekID primitive.ObjectID) ([]models.Task, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var tasks []models.Task
	for _, id := range m.taskOrder {
		task := m.tasks[id]
		if task.WeekID == weekID {
			tasks = append(tasks, *copyTask(task))
		}
	}
	return tasks, nil
}

func (m *MemoryStorage) SaveTask(ctx context.Context, task *models.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tasks[task.ID]; !ok {
		return ErrNotFound
	}
	m.tasks[task.ID] = copyTask(task)
	return nil
}

func (m *MemoryStorage) AddSession(ctx context.Context, session *models.Session) (*models.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	session.ID = primitive.NewObjectID()
	copied := *session
	m.sessions[session.ID] = &copied
	return session, nil
}

func (m *MemoryStorage) FindSessionByID(ctx context.Context, id primitive.ObjectID) (*models.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	session, ok := m.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *session
	return &copied, nil
}

func (m *MemoryStorage) DeleteSession(ctx context.Context, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}
