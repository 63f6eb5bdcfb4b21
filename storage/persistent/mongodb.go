package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/choreward/backend/models"
)

// MongoStorage implements StorageInterface on top of the MongoDB driver.
// Collections: users, weeks, tasks, sessions.
type MongoStorage struct {
	client *mongo.Client
	dbName string
}

// NewMongoStorage creates an unconnected MongoStorage. Call Connect before
// use.
func NewMongoStorage() *MongoStorage {
	return &MongoStorage{}
}

// Connect establishes the connection and sets up indexes: a unique index on
// users.email, a parent-reference index on tasks.week_id and an index on
// sessions.uid.
func (m *MongoStorage) Connect(dbName, uri string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return fmt.Errorf("error connecting to MongoDB: %v", err)
	}
	m.client = client
	m.dbName = dbName

	db := m.client.Database(m.dbName)

	_, err = db.Collection("users").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.M{"email": 1},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("error creating email index: %v", err)
	}

	_, err = db.Collection("tasks").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.M{"week_id": 1},
	})
	if err != nil {
		return fmt.Errorf("error creating week_id index: %v", err)
	}

	_, err = db.Collection("sessions").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.M{"uid": 1},
	})
	if err != nil {
		return fmt.Errorf("error creating uid index: %v", err)
	}

	return nil
}

// Disconnect closes the connection to the MongoDB server.
func (m *MongoStorage) Disconnect() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := m.client.Disconnect(ctx); err != nil {
		return fmt.Errorf("error disconnecting from MongoDB: %v", err)
	}
	return nil
}

func (m *MongoStorage) collection(name string) *mongo.Collection {
	return m.client.Database(m.dbName).Collection(name)
}

func isDuplicateKey(err error) bool {
	var writeErr mongo.WriteException
	if errors.As(err, &writeErr) {
		for _, we := range writeErr.WriteErrors {
			if we.Code == 11000 {
				return true
			}
		}
	}
	return false
}

// AddUser inserts a new user document. A duplicate email surfaces as
// ErrDuplicateEmail.
func (m *MongoStorage) AddUser(ctx context.Context, user *models.User) (*models.User, error) {
	result, err := m.collection("users").InsertOne(ctx, user)
	if err != nil {
		if isDuplicateKey(err) {
			return nil, ErrDuplicateEmail
		}
		return nil, err
	}
	user.ID = result.InsertedID.(primitive.ObjectID)
	return user, nil
}

func (m *MongoStorage) findUser(ctx context.Context, filter interface{}) (*models.User, error) {
	user := &models.User{}
	err := m.collection("users").FindOne(ctx, filter).Decode(user)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

// FindUserByID finds one user by its object id.
func (m *MongoStorage) FindUserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	return m.findUser(ctx, bson.M{"_id": id})
}

// FindUserByEmail finds one user by email.
func (m *MongoStorage) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return m.findUser(ctx, bson.M{"email": email})
}

// SaveUser replaces the stored user document with the given one.
func (m *MongoStorage) SaveUser(ctx context.Context, user *models.User) error {
	result, err := m.collection("users").ReplaceOne(ctx, bson.M{"_id": user.ID}, user)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// AddWeek inserts a new week document.
func (m *MongoStorage) AddWeek(ctx context.Context, week *models.Week) (*models.Week, error) {
	result, err := m.collection("weeks").InsertOne(ctx, week)
	if err != nil {
		return nil, err
	}
	week.ID = result.InsertedID.(primitive.ObjectID)
	return week, nil
}

// FindWeekByID finds one week by its object id.
func (m *MongoStorage) FindWeekByID(ctx context.Context, id primitive.ObjectID) (*models.Week, error) {
	week := &models.Week{}
	err := m.collection("weeks").FindOne(ctx, bson.M{"_id": id}).Decode(week)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return week, nil
}

// SaveWeek replaces the stored week document with the given one.
func (m *MongoStorage) SaveWeek(ctx context.Context, week *models.Week) error {
	result, err := m.collection("weeks").ReplaceOne(ctx, bson.M{"_id": week.ID}, week)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// AddTask inserts a new task document.
func (m *MongoStorage) AddTask(ctx context.Context, task *models.Task) (*models.Task, error) {
	result, err := m.collection("tasks").InsertOne(ctx, task)
	if err != nil {
		return nil, err
	}
	task.ID = result.InsertedID.(primitive.ObjectID)
	return task, nil
}

// FindTaskByID finds one task by its object id.
func (m *MongoStorage) FindTaskByID(ctx context.Context, id primitive.ObjectID) (*models.Task, error) {
	task := &models.Task{}
	err := m.collection("tasks").FindOne(ctx, bson.M{"_id": id}).Decode(task)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return task, nil
}

// FindTasksByWeek returns all tasks whose week_id matches, in insertion
// order.
func (m *MongoStorage) FindTasksByWeek(ctx context.Context, weekID primitive.ObjectID) ([]models.Task, error) {
	cursor, err := m.collection("tasks").Find(ctx, bson.M{"week_id": weekID})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var tasks []models.Task
	for cursor.Next(ctx) {
		var task models.Task
		if err := cursor.Decode(&task); err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, cursor.Err()
}

// SaveTask replaces the stored task document with the given one.
func (m *MongoStorage) SaveTask(ctx context.Context, task *models.Task) error {
	result, err := m.collection("tasks").ReplaceOne(ctx, bson.M{"_id": task.ID}, task)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// AddSession inserts a new session document.
func (m *MongoStorage) AddSession(ctx context.Context, session *models.Session) (*models.Session, error) {
	result, err := m.collection("sessions").InsertOne(ctx, session)
	if err != nil {
		return nil, err
	}
	session.ID = result.InsertedID.(primitive.ObjectID)
	return session, nil
}

// FindSessionByID finds one session by its object id.
func (m *MongoStorage) FindSessionByID(ctx context.Context, id primitive.ObjectID) (*models.Session, error) {
	session := &models.Session{}
	err := m.collection("sessions").FindOne(ctx, bson.M{"_id": id}).Decode(session)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return session, nil
}

// DeleteSession removes a session document. Deleting an absent session is
// not an error.
func (m *MongoStorage) DeleteSession(ctx context.Context, id primitive.ObjectID) error {
	_, err := m.collection("sessions").DeleteOne(ctx, bson.M{"_id": id})
	return err
}
