package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveHTTP("GET", "/api/health", 200, time.Millisecond)
		m.ObserveReply("fallback")
		m.ProviderFailed("openai")
		m.PersistFailed("conversation")
	})
}

func TestCountersAndExposition(t *testing.T) {
	m := New()
	m.ObserveReply("crisis")
	m.ObserveReply("crisis")
	m.ProviderFailed("openai")
	m.ObserveHTTP("POST", "/api/chat", 200, 20*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.ChatReplies.WithLabelValues("crisis")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ProviderFailures.WithLabelValues("openai")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("POST", "/api/chat", "200")))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body, _ := io.ReadAll(rec.Body)
	assert.Contains(t, string(body), `mindcare_chat_replies_total{source="crisis"} 2`)
}
