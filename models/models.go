package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Day is one calendar day's state within a task: whether the task is
// scheduled (IsActive) and whether it was done (IsCompleted) on that date.
// Dates are stored as YYYY-MM-DD strings.
type Day struct {
	Date        string `bson:"date" json:"date"`
	IsActive    bool   `bson:"isActive" json:"isActive"`
	IsCompleted bool   `bson:"isCompleted" json:"isCompleted"`
}

// Task is a recurring chore with a point reward and exactly seven day slots,
// one per date of its owning week. A task belongs to exactly one week.
type Task struct {
	ID       primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	WeekID   primitive.ObjectID `bson:"week_id" json:"-"`
	Title    string             `bson:"title" json:"title"`
	Reward   int                `bson:"reward" json:"reward"`
	ImageURL string             `bson:"image_url" json:"imageUrl"`
	Days     []Day              `bson:"days" json:"days"`
}

// Week aggregates a user's task schedule for one calendar week.
// RewardsPlanned and RewardsGained are denormalized running totals: the sum
// of task rewards over active and completed day slots respectively. Every
// mutation keeps them in sync; they are never recomputed on read.
type Week struct {
	ID             primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	StartDate      string               `bson:"start_date" json:"startWeekDate"`
	EndDate        string               `bson:"end_date" json:"endWeekDate"`
	RewardsPlanned int                  `bson:"rewards_planned" json:"rewardsPlanned"`
	RewardsGained  int                  `bson:"rewards_gained" json:"rewardsGained"`
	Tasks          []primitive.ObjectID `bson:"tasks" json:"-"`
}

// User holds the account identity, the redeemable point balance and a
// reference to the current week. Superseded weeks stay in the database but
// are no longer reachable from the user.
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Email        string             `bson:"email" json:"email"`
	PasswordHash string             `bson:"password_hash" json:"-"`
	Balance      int                `bson:"balance" json:"balance"`
	CurrentWeek  primitive.ObjectID `bson:"current_week" json:"-"`
}

// Session represents one logged-in device. The access token carries the
// session id, so deleting the session invalidates the token.
type Session struct {
	ID  primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UID primitive.ObjectID `bson:"uid" json:"uid"`
}

// Gift is a static catalog entry; gifts are not stored in the database.
type Gift struct {
	ID         int    `json:"id"`
	Title      string `json:"title"`
	Price      int    `json:"price"`
	ImageURL   string `json:"imageUrl"`
	IsSelected bool   `json:"isSelected"`
}
