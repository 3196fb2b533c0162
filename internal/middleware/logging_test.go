package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/AnshRaj112/mindcare-backend/internal/metrics"
	"github.com/AnshRaj112/mindcare-backend/pkg/clientip"
)

func TestRequestLoggerRecordsRoutePattern(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	m := metrics.New()

	r := chi.NewRouter()
	r.Use(RequestLogger(zap.New(core), m, clientip.RealClientIP))
	var seenID string
	r.Get("/api/users/{user_id}", func(w http.ResponseWriter, r *http.Request) {
		seenID = RequestID(r.Context())
		w.WriteHeader(http.StatusNotFound)
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/users/12", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.NotEmpty(t, seenID)
	assert.Equal(t, seenID, rec.Header().Get(RequestIDHeader))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "/api/users/{user_id}", "404")))

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "/api/users/12", fields["path"])
	assert.EqualValues(t, 404, fields["status"])
}

func TestRequestLoggerKeepsIncomingRequestID(t *testing.T) {
	h := RequestLogger(zap.NewNop(), nil, clientip.RealClientIP)(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "abc-123", rec.Header().Get(RequestIDHeader))
}
