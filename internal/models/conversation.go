package models

import "time"

// Conversation is one chat exchange. Rows are append-only.
type Conversation struct {
	ID             int64     `bson:"_id" json:"id"`
	UserID         int64     `bson:"user_id" json:"-"`
	Message        string    `bson:"message" json:"message"`
	Response       string    `bson:"response" json:"response"`
	SentimentScore *float64  `bson:"sentiment_score,omitempty" json:"sentiment_score"`
	Timestamp      time.Time `bson:"timestamp" json:"timestamp"`
}
