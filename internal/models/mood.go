package models

import "time"

// MoodEntry is a single self-reported mood. MoodLevel is meant to be 1-10
// but is stored as given.
type MoodEntry struct {
	ID              int64     `bson:"_id" json:"id"`
	UserID          int64     `bson:"user_id" json:"-"`
	MoodLevel       int       `bson:"mood_level" json:"mood_level"`
	MoodDescription string    `bson:"mood_description" json:"mood_description"`
	Notes           string    `bson:"notes" json:"notes"`
	Timestamp       time.Time `bson:"timestamp" json:"timestamp"`
}
