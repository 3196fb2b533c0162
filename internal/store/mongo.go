package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/AnshRaj112/mindcare-backend/internal/models"
)

const (
	usersCollection         = "users"
	conversationsCollection = "conversations"
	moodEntriesCollection   = "mood_entries"
	countersCollection      = "counters"
)

// MongoStore implements Store on MongoDB. Integer ids come from a counters
// collection so records look the same as in the SQL backends.
type MongoStore struct {
	db  *mongo.Database
	now func() time.Time
}

func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{
		db:  db,
		now: func() time.Time { return time.Now().UTC() },
	}
}

// EnsureIndexes creates the history and uniqueness indexes. Safe to call on
// every start.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	history := mongo.IndexModel{
		Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "timestamp", Value: -1}},
	}
	for _, name := range []string{conversationsCollection, moodEntriesCollection} {
		if _, err := s.db.Collection(name).Indexes().CreateOne(ctx, history); err != nil {
			return fmt.Errorf("create %s index: %w", name, err)
		}
	}

	_, err := s.db.Collection(usersCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
	})
	if err != nil {
		return fmt.Errorf("create users indexes: %w", err)
	}
	return nil
}

func (s *MongoStore) nextID(ctx context.Context, name string) (int64, error) {
	var counter struct {
		Seq int64 `bson:"seq"`
	}
	err := s.db.Collection(countersCollection).FindOneAndUpdate(ctx,
		bson.M{"_id": name},
		bson.M{"$inc": bson.M{"seq": int64(1)}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&counter)
	if err != nil {
		return 0, fmt.Errorf("next %s id: %w", name, err)
	}
	return counter.Seq, nil
}

func (s *MongoStore) CreateUser(ctx context.Context, u *models.User) error {
	id, err := s.nextID(ctx, usersCollection)
	if err != nil {
		return err
	}
	u.ID = id
	u.CreatedAt = s.now()
	if _, err := s.db.Collection(usersCollection).InsertOne(ctx, u); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("create user %q: %w", u.Username, ErrDuplicate)
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (s *MongoStore) GetUser(ctx context.Context, id int64) (*models.User, error) {
	var u models.User
	err := s.db.Collection(usersCollection).FindOne(ctx, bson.M{"_id": id}).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("user %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	u.CreatedAt = u.CreatedAt.UTC()
	return &u, nil
}

func (s *MongoStore) AddConversation(ctx context.Context, c *models.Conversation) error {
	id, err := s.nextID(ctx, conversationsCollection)
	if err != nil {
		return err
	}
	c.ID = id
	c.Timestamp = s.now()
	if _, err := s.db.Collection(conversationsCollection).InsertOne(ctx, c); err != nil {
		return fmt.Errorf("insert conversation: %w", err)
	}
	return nil
}

func (s *MongoStore) ListConversations(ctx context.Context, userID int64, limit int) ([]models.Conversation, error) {
	out := make([]models.Conversation, 0)
	if err := s.findRecent(ctx, conversationsCollection, userID, limit, &out); err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	for i := range out {
		out[i].Timestamp = out[i].Timestamp.UTC()
	}
	return out, nil
}

func (s *MongoStore) AddMoodEntry(ctx context.Context, m *models.MoodEntry) error {
	id, err := s.nextID(ctx, moodEntriesCollection)
	if err != nil {
		return err
	}
	m.ID = id
	m.Timestamp = s.now()
	if _, err := s.db.Collection(moodEntriesCollection).InsertOne(ctx, m); err != nil {
		return fmt.Errorf("insert mood entry: %w", err)
	}
	return nil
}

func (s *MongoStore) ListMoodEntries(ctx context.Context, userID int64, limit int) ([]models.MoodEntry, error) {
	out := make([]models.MoodEntry, 0)
	if err := s.findRecent(ctx, moodEntriesCollection, userID, limit, &out); err != nil {
		return nil, fmt.Errorf("list mood entries: %w", err)
	}
	for i := range out {
		out[i].Timestamp = out[i].Timestamp.UTC()
	}
	return out, nil
}

func (s *MongoStore) findRecent(ctx context.Context, collection string, userID int64, limit int, results any) error {
	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(int64(limit))
	cursor, err := s.db.Collection(collection).Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return err
	}
	defer cursor.Close(ctx)
	return cursor.All(ctx, results)
}
