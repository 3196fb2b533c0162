package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AnshRaj112/mindcare-backend/internal/config"
	"github.com/AnshRaj112/mindcare-backend/internal/database"
	"github.com/AnshRaj112/mindcare-backend/internal/handlers"
	"github.com/AnshRaj112/mindcare-backend/internal/metrics"
	"github.com/AnshRaj112/mindcare-backend/internal/routes"
	"github.com/AnshRaj112/mindcare-backend/internal/services"
	"github.com/AnshRaj112/mindcare-backend/internal/store"
)

type stubGenerator struct {
	reply string
	calls atomic.Int32
}

func (g *stubGenerator) Name() string { return "stub" }

func (g *stubGenerator) Generate(ctx context.Context, system, message string) (string, error) {
	g.calls.Add(1)
	return g.reply, nil
}

type testEnv struct {
	router *chi.Mux
	chat   *services.ChatService
}

func setupRouter(t *testing.T, gen services.Generator) testEnv {
	t.Helper()
	return setupRouterWith(t, gen, nil)
}

// setupRouterWith lets a test adjust the handler before routes are mounted.
func setupRouterWith(t *testing.T, gen services.Generator, configure func(*handlers.Handler)) testEnv {
	t.Helper()
	ctx := context.Background()
	db, err := database.OpenSQL(ctx, config.DriverSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.InitTables(ctx, db, config.DriverSQLite))

	m := metrics.New()
	chat := services.NewChatService(services.ChatServiceConfig{
		Store:     store.NewSQLStore(db, config.DriverSQLite),
		Responder: services.NewResponder(gen, time.Second, nil, m),
		Metrics:   m,
	})
	t.Cleanup(chat.Wait)

	h := handlers.New(chat, nil)
	if configure != nil {
		configure(h)
	}
	r := chi.NewRouter()
	routes.SetupRoutes(r, routes.Deps{Handler: h, Metrics: m})
	return testEnv{router: r, chat: chat}
}

func (e testEnv) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestHealth(t *testing.T) {
	env := setupRouter(t, nil)
	rec := env.do(t, http.MethodGet, "/api/health", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"healthy","message":"MindCare AI Backend is running"}`, rec.Body.String())
}

func TestChatValidation(t *testing.T) {
	env := setupRouter(t, nil)

	for _, body := range []string{`{"message":""}`, `{"message":"   ","user_id":1}`, `{"user_id":1}`, ``} {
		rec := env.do(t, http.MethodPost, "/api/chat", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
		assert.JSONEq(t, `{"error":"Message is required"}`, rec.Body.String(), body)
	}

	rec := env.do(t, http.MethodPost, "/api/chat", `{"message":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "error")
}

func TestChatFallbackTemplatesVerbatim(t *testing.T) {
	env := setupRouter(t, nil)

	rec := env.do(t, http.MethodPost, "/api/chat", `{"message":"I'm so anxious about tomorrow"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[handlers.ChatResponse](t, rec)
	assert.Equal(t, services.Template(services.TopicAnxiety), resp.Response)
	assert.False(t, resp.IsCrisis)
	assert.InDelta(t, 0.3, resp.Sentiment, 1e-9)
	_, err := time.Parse(time.RFC3339Nano, resp.Timestamp)
	assert.NoError(t, err)

	rec = env.do(t, http.MethodPost, "/api/chat", `{"message":"I feel sad"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, services.Template(services.TopicDepression), decode[handlers.ChatResponse](t, rec).Response)
}

func TestChatUsesGenerator(t *testing.T) {
	gen := &stubGenerator{reply: "That sounds hard. I'm listening."}
	env := setupRouter(t, gen)

	rec := env.do(t, http.MethodPost, "/api/chat", `{"message":"rough day","user_id":3}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "That sounds hard. I'm listening.", decode[handlers.ChatResponse](t, rec).Response)

	env.chat.Wait()
	rec = env.do(t, http.MethodGet, "/api/conversation-history/3", "")
	require.Equal(t, http.StatusOK, rec.Code)
	history := decode[[]map[string]any](t, rec)
	require.Len(t, history, 1)
	assert.Equal(t, "rough day", history[0]["message"])
	assert.Equal(t, "That sounds hard. I'm listening.", history[0]["response"])
	assert.Contains(t, history[0], "sentiment_score")
	assert.NotContains(t, history[0], "user_id")
}

func TestChatCrisisShortCircuitsGenerator(t *testing.T) {
	gen := &stubGenerator{reply: "generated"}
	env := setupRouter(t, gen)

	rec := env.do(t, http.MethodPost, "/api/chat", `{"message":"I want to KILL MYSELF","user_id":1}`)
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[handlers.ChatResponse](t, rec)

	assert.True(t, resp.IsCrisis)
	assert.Equal(t, services.Template(services.TopicCrisis), resp.Response)
	assert.Zero(t, gen.calls.Load())
}

func TestLogMood(t *testing.T) {
	env := setupRouter(t, nil)

	for _, body := range []string{`{}`, `{"mood_level":5}`, `{"user_id":1}`, `{"user_id":0,"mood_level":5}`} {
		rec := env.do(t, http.MethodPost, "/api/mood", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
		assert.JSONEq(t, `{"error":"user_id and mood_level are required"}`, rec.Body.String(), body)
	}

	rec := env.do(t, http.MethodPost, "/api/mood", `{"user_id":1,"mood_level":0,"notes":"tired"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[handlers.MoodResponse](t, rec)
	assert.Equal(t, "Mood logged successfully", resp.Message)
	assert.NotZero(t, resp.ID)
}

func TestLogMoodRejectsLongDescription(t *testing.T) {
	env := setupRouter(t, nil)

	long := strings.Repeat("x", 101)
	rec := env.do(t, http.MethodPost, "/api/mood", `{"user_id":4,"mood_level":6,"mood_description":"`+long+`"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"Mood description must be at most 100 characters"}`, rec.Body.String())

	rec = env.do(t, http.MethodGet, "/api/mood-history/4", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	rec = env.do(t, http.MethodPost, "/api/mood", `{"user_id":4,"mood_level":6,"mood_description":"`+long[:100]+`"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMoodHistoryNewestFirstCapped(t *testing.T) {
	env := setupRouter(t, nil)

	for level := 1; level <= 31; level++ {
		rec := env.do(t, http.MethodPost, "/api/mood",
			`{"user_id":6,"mood_level":`+strconv.Itoa(level)+`,"mood_description":"d"}`)
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec := env.do(t, http.MethodGet, "/api/mood-history/6", "")
	require.Equal(t, http.StatusOK, rec.Code)
	entries := decode[[]map[string]any](t, rec)
	require.Len(t, entries, 30)
	assert.EqualValues(t, 31, entries[0]["mood_level"])
	assert.EqualValues(t, 2, entries[29]["mood_level"])
	for _, key := range []string{"id", "mood_level", "mood_description", "notes", "timestamp"} {
		assert.Contains(t, entries[0], key)
	}

	var prev time.Time
	for i, e := range entries {
		ts, err := time.Parse(time.RFC3339Nano, e["timestamp"].(string))
		require.NoError(t, err)
		if i > 0 {
			assert.False(t, ts.After(prev), "entry %d is newer than its predecessor", i)
		}
		prev = ts
	}
}

func TestConversationHistoryCapped(t *testing.T) {
	env := setupRouter(t, nil)

	for i := 0; i < 22; i++ {
		rec := env.do(t, http.MethodPost, "/api/chat", `{"message":"hello `+strconv.Itoa(i)+`","user_id":8}`)
		require.Equal(t, http.StatusOK, rec.Code)
		env.chat.Wait()
	}

	rec := env.do(t, http.MethodGet, "/api/conversation-history/8", "")
	require.Equal(t, http.StatusOK, rec.Code)
	history := decode[[]map[string]any](t, rec)
	require.Len(t, history, 20)
	assert.Equal(t, "hello 21", history[0]["message"])
}

func TestHistoryUnknownUserIsEmptyArray(t *testing.T) {
	env := setupRouter(t, nil)

	for _, path := range []string{"/api/mood-history/404", "/api/conversation-history/404"} {
		rec := env.do(t, http.MethodGet, path, "")
		require.Equal(t, http.StatusOK, rec.Code, path)
		assert.Equal(t, "[]", strings.TrimSpace(rec.Body.String()), path)
	}
}

func TestHistoryNonNumericUserIsNotFound(t *testing.T) {
	env := setupRouter(t, nil)

	rec := env.do(t, http.MethodGet, "/api/mood-history/abc", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"Not found"}`, rec.Body.String())
}

func TestResources(t *testing.T) {
	env := setupRouter(t, nil)

	rec := env.do(t, http.MethodGet, "/api/resources", "")
	require.Equal(t, http.StatusOK, rec.Code)
	catalog := decode[services.ResourceCatalog](t, rec)

	require.Len(t, catalog.CrisisHotlines, 3)
	assert.Equal(t, "988", catalog.CrisisHotlines[0].Number)
	assert.Equal(t, "Text HOME to 741741", catalog.CrisisHotlines[1].Contact)
	require.Len(t, catalog.CopingTechniques, 3)
	assert.Len(t, catalog.CopingTechniques[1].Steps, 5)
	assert.Len(t, catalog.SelfCareTips, 8)
}

func TestUsers(t *testing.T) {
	env := setupRouter(t, nil)

	rec := env.do(t, http.MethodPost, "/api/users", `{"username":"river","email":"river@example.com"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decode[map[string]any](t, rec)
	id := int64(created["id"].(float64))
	assert.Equal(t, "river", created["username"])

	rec = env.do(t, http.MethodGet, "/api/users/"+strconv.FormatInt(id, 10), "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "river@example.com", decode[map[string]any](t, rec)["email"])

	rec = env.do(t, http.MethodPost, "/api/users", `{"username":"river","email":"other@example.com"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/users", `{"username":"ok_name","email":"nope"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"Email is not valid"}`, rec.Body.String())

	rec = env.do(t, http.MethodGet, "/api/users/999", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	env := setupRouter(t, nil)
	env.do(t, http.MethodPost, "/api/chat", `{"message":"hi"}`)

	rec := env.do(t, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `mindcare_chat_replies_total{source="fallback"} 1`)
}
