package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/AnshRaj112/mindcare-backend/internal/metrics"
	"github.com/AnshRaj112/mindcare-backend/internal/models"
	"github.com/AnshRaj112/mindcare-backend/internal/store"
	"github.com/AnshRaj112/mindcare-backend/pkg/utils"
)

const (
	MoodHistoryLimit         = 30
	ConversationHistoryLimit = 20

	persistTimeout = 5 * time.Second
)

var (
	ErrEmptyMessage = errors.New("message is required")
	ErrUnknownUser  = errors.New("user not found")
)

type ChatInput struct {
	Message string
	UserID  int64 // 0 means anonymous; nothing is persisted
}

type ChatResult struct {
	Response  string
	Sentiment float64
	Timestamp time.Time
	IsCrisis  bool
	Source    ReplySource
}

type ChatServiceConfig struct {
	Store     store.Store
	Responder *Responder
	Scorer    Scorer
	Logger    *zap.Logger
	Metrics   *metrics.Metrics
	// EnforceUserExists rejects history writes for user ids that were never
	// created.
	EnforceUserExists bool
}

// ChatService runs the chat pipeline and owns history reads and writes.
type ChatService struct {
	store        store.Store
	responder    *Responder
	scorer       Scorer
	log          *zap.Logger
	metrics      *metrics.Metrics
	enforceUsers bool

	pending sync.WaitGroup
	now     func() time.Time
}

func NewChatService(cfg ChatServiceConfig) *ChatService {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	responder := cfg.Responder
	if responder == nil {
		responder = NewResponder(nil, 0, log, cfg.Metrics)
	}
	return &ChatService{
		store:        cfg.Store,
		responder:    responder,
		scorer:       cfg.Scorer,
		log:          log,
		metrics:      cfg.Metrics,
		enforceUsers: cfg.EnforceUserExists,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// Chat answers a message. The conversation is written in the background
// when UserID is set; a failed write is logged and never reaches the caller.
func (s *ChatService) Chat(ctx context.Context, in ChatInput) (ChatResult, error) {
	message := strings.TrimSpace(in.Message)
	if message == "" {
		return ChatResult{}, ErrEmptyMessage
	}

	sentiment := s.scorer.Score(message)
	crisis := DetectCrisis(message)
	if crisis {
		s.log.Warn("crisis phrases detected",
			zap.Int64("user_id", in.UserID),
			zap.Strings("phrases", MatchedCrisisPhrases(message)),
		)
	}

	reply := s.responder.Respond(ctx, message, crisis)

	if in.UserID > 0 {
		score := sentiment
		s.persistAsync(&models.Conversation{
			UserID:         in.UserID,
			Message:        message,
			Response:       reply.Text,
			SentimentScore: &score,
		})
	}

	return ChatResult{
		Response:  reply.Text,
		Sentiment: sentiment,
		Timestamp: s.now(),
		IsCrisis:  crisis,
		Source:    reply.Source,
	}, nil
}

func (s *ChatService) persistAsync(c *models.Conversation) {
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()

		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		defer cancel()

		if s.enforceUsers {
			if err := s.requireUser(ctx, c.UserID); err != nil {
				s.metrics.PersistFailed("conversation")
				s.log.Warn("conversation not saved", zap.Int64("user_id", c.UserID), zap.Error(err))
				return
			}
		}
		if err := s.store.AddConversation(ctx, c); err != nil {
			s.metrics.PersistFailed("conversation")
			s.log.Error("failed to save conversation", zap.Int64("user_id", c.UserID), zap.Error(err))
		}
	}()
}

// Wait blocks until background conversation writes have finished.
func (s *ChatService) Wait() {
	s.pending.Wait()
}

// LogMood stores entry and fills in its ID and Timestamp. A description
// longer than the stored column returns a *utils.ValidationError.
func (s *ChatService) LogMood(ctx context.Context, entry *models.MoodEntry) error {
	if err := utils.ValidateMoodDescription(entry.MoodDescription); err != nil {
		return err
	}
	if s.enforceUsers {
		if err := s.requireUser(ctx, entry.UserID); err != nil {
			return err
		}
	}
	if err := s.store.AddMoodEntry(ctx, entry); err != nil {
		return fmt.Errorf("log mood: %w", err)
	}
	return nil
}

func (s *ChatService) MoodHistory(ctx context.Context, userID int64) ([]models.MoodEntry, error) {
	return s.store.ListMoodEntries(ctx, userID, MoodHistoryLimit)
}

func (s *ChatService) ConversationHistory(ctx context.Context, userID int64) ([]models.Conversation, error) {
	return s.store.ListConversations(ctx, userID, ConversationHistoryLimit)
}

// CreateUser validates and stores a new user. Username and email are
// lowercased, so uniqueness is case-insensitive.
func (s *ChatService) CreateUser(ctx context.Context, username, email string) (*models.User, error) {
	if err := utils.ValidateUsername(username); err != nil {
		return nil, err
	}
	if err := utils.ValidateEmail(email); err != nil {
		return nil, err
	}
	u := &models.User{
		Username: utils.NormalizeUsername(username),
		Email:    utils.NormalizeEmail(email),
	}
	if err := s.store.CreateUser(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *ChatService) GetUser(ctx context.Context, id int64) (*models.User, error) {
	return s.store.GetUser(ctx, id)
}

func (s *ChatService) requireUser(ctx context.Context, id int64) error {
	_, err := s.store.GetUser(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("user %d: %w", id, ErrUnknownUser)
	}
	return err
}
