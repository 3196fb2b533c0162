package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/AnshRaj112/mindcare-backend/internal/config"
	"github.com/AnshRaj112/mindcare-backend/internal/models"
)

// SQLStore implements Store on SQLite or PostgreSQL. Queries are written with
// "?" placeholders and rebound to "$n" for PostgreSQL.
type SQLStore struct {
	db       *sql.DB
	postgres bool
	now      func() time.Time
}

func NewSQLStore(db *sql.DB, driver string) *SQLStore {
	return &SQLStore{
		db:       db,
		postgres: driver == config.DriverPostgres,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *SQLStore) CreateUser(ctx context.Context, u *models.User) error {
	u.CreatedAt = s.now()
	err := s.db.QueryRowContext(ctx,
		s.rebind(`INSERT INTO users (username, email, created_at) VALUES (?, ?, ?) RETURNING id`),
		u.Username, u.Email, u.CreatedAt,
	).Scan(&u.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("create user %q: %w", u.Username, ErrDuplicate)
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (s *SQLStore) GetUser(ctx context.Context, id int64) (*models.User, error) {
	var u models.User
	err := s.db.QueryRowContext(ctx,
		s.rebind(`SELECT id, username, email, created_at FROM users WHERE id = ?`), id,
	).Scan(&u.ID, &u.Username, &u.Email, timeScanner{&u.CreatedAt})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &u, nil
}

func (s *SQLStore) AddConversation(ctx context.Context, c *models.Conversation) error {
	c.Timestamp = s.now()
	var score sql.NullFloat64
	if c.SentimentScore != nil {
		score = sql.NullFloat64{Float64: *c.SentimentScore, Valid: true}
	}
	err := s.db.QueryRowContext(ctx,
		s.rebind(`INSERT INTO conversations (user_id, message, response, sentiment_score, timestamp)
			VALUES (?, ?, ?, ?, ?) RETURNING id`),
		c.UserID, c.Message, c.Response, score, c.Timestamp,
	).Scan(&c.ID)
	if err != nil {
		return fmt.Errorf("insert conversation: %w", err)
	}
	return nil
}

func (s *SQLStore) ListConversations(ctx context.Context, userID int64, limit int) ([]models.Conversation, error) {
	rows, err := s.db.QueryContext(ctx,
		s.rebind(`SELECT id, user_id, message, response, sentiment_score, timestamp
			FROM conversations WHERE user_id = ?
			ORDER BY timestamp DESC, id DESC LIMIT ?`),
		userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	defer rows.Close()

	out := make([]models.Conversation, 0)
	for rows.Next() {
		var (
			c     models.Conversation
			score sql.NullFloat64
		)
		if err := rows.Scan(&c.ID, &c.UserID, &c.Message, &c.Response, &score, timeScanner{&c.Timestamp}); err != nil {
			return nil, fmt.Errorf("scan conversation: %w", err)
		}
		if score.Valid {
			v := score.Float64
			c.SentimentScore = &v
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	return out, nil
}

func (s *SQLStore) AddMoodEntry(ctx context.Context, m *models.MoodEntry) error {
	m.Timestamp = s.now()
	err := s.db.QueryRowContext(ctx,
		s.rebind(`INSERT INTO mood_entries (user_id, mood_level, mood_description, notes, timestamp)
			VALUES (?, ?, ?, ?, ?) RETURNING id`),
		m.UserID, m.MoodLevel, m.MoodDescription, m.Notes, m.Timestamp,
	).Scan(&m.ID)
	if err != nil {
		return fmt.Errorf("insert mood entry: %w", err)
	}
	return nil
}

func (s *SQLStore) ListMoodEntries(ctx context.Context, userID int64, limit int) ([]models.MoodEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		s.rebind(`SELECT id, user_id, mood_level, mood_description, notes, timestamp
			FROM mood_entries WHERE user_id = ?
			ORDER BY timestamp DESC, id DESC LIMIT ?`),
		userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list mood entries: %w", err)
	}
	defer rows.Close()

	out := make([]models.MoodEntry, 0)
	for rows.Next() {
		var (
			m           models.MoodEntry
			description sql.NullString
			notes       sql.NullString
		)
		if err := rows.Scan(&m.ID, &m.UserID, &m.MoodLevel, &description, &notes, timeScanner{&m.Timestamp}); err != nil {
			return nil, fmt.Errorf("scan mood entry: %w", err)
		}
		m.MoodDescription = description.String
		m.Notes = notes.String
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list mood entries: %w", err)
	}
	return out, nil
}

func (s *SQLStore) rebind(query string) string {
	if !s.postgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// timeScanner accepts TIMESTAMP columns whether the driver hands back a
// time.Time (lib/pq, modernc with declared types) or text.
type timeScanner struct{ t *time.Time }

var timeLayouts = []string{
	"2006-01-02 15:04:05.999999999-07:00",
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
}

func (ts timeScanner) Scan(v any) error {
	switch x := v.(type) {
	case time.Time:
		*ts.t = x.UTC()
		return nil
	case string:
		return ts.parse(x)
	case []byte:
		return ts.parse(string(x))
	case nil:
		*ts.t = time.Time{}
		return nil
	default:
		return fmt.Errorf("unsupported timestamp type %T", v)
	}
}

func (ts timeScanner) parse(s string) error {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			*ts.t = t.UTC()
			return nil
		}
	}
	return fmt.Errorf("unparseable timestamp %q", s)
}
