package engine

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/learnloop/learnloop-core/internal/domain/shared"
)

func testClient(serverURL string) *Client {
	cfg := DefaultClientConfig(serverURL, "test-key")
	cfg.Timeout = 2 * time.Second
	// Keep tests fast: no retries, no pacing.
	cfg.RetryConfig.MaxRetries = 0
	cfg.RateLimiterConfig.MinInterval = 0
	cfg.RateLimiterConfig.RequestsPerSecond = 1000
	cfg.RateLimiterConfig.BurstSize = 1000
	return NewClient(cfg)
}

func TestClient_GenerateQuestions(t *testing.T) {
	var gotKey string
	var gotBody QuizGenerationRequestDTO

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get(APIKeyHeader)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"questions":[{"id":1,"text":"What is a goroutine?"}]}`))
	}))
	defer server.Close()

	client := testClient(server.URL)
	questions, err := client.GenerateQuestions(context.Background(), "goroutines are lightweight threads")

	require.NoError(t, err)
	assert.Equal(t, "test-key", gotKey)
	assert.Equal(t, "goroutines are lightweight threads", gotBody.SourceText)
	assert.JSONEq(t, `[{"id":1,"text":"What is a goroutine?"}]`, string(questions))
}

func TestClient_GenerateQuestions_EmptySet(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"questions":null}`))
	}))
	defer server.Close()

	client := testClient(server.URL)
	_, err := client.GenerateQuestions(context.Background(), "some text")

	assert.ErrorIs(t, err, shared.ErrInvalidFormat)
}

func TestClient_Evaluate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req EvaluationRequestDTO
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.JSONEq(t, `[{"id":1}]`, string(req.Questions))
		assert.JSONEq(t, `{"1":"a channel"}`, string(req.Answers))

		_, _ = w.Write([]byte(`{"score":0.85,"feedback":{"1":"correct"}}`))
	}))
	defer server.Close()

	client := testClient(server.URL)
	eval, err := client.Evaluate(context.Background(),
		json.RawMessage(`[{"id":1}]`),
		json.RawMessage(`{"1":"a channel"}`),
	)

	require.NoError(t, err)
	assert.InDelta(t, 0.85, eval.Score.Float64(), 1e-9)
	assert.JSONEq(t, `{"1":"correct"}`, string(eval.Feedback))
}

func TestClient_Evaluate_ScoreOutOfRange(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"score":1.5}`))
	}))
	defer server.Close()

	client := testClient(server.URL)
	_, err := client.Evaluate(context.Background(),
		json.RawMessage(`[]`), json.RawMessage(`{}`))

	assert.ErrorIs(t, err, shared.ErrInvalidFormat)
}

func TestClient_Recommend(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/recommend", r.URL.Path)
		_, _ = w.Write([]byte(`{"content_node_id":"3f1c9f4e-1111-2222-3333-444455556666","reason":"weak on channels"}`))
	}))
	defer server.Close()

	client := testClient(server.URL)
	rec, err := client.Recommend(context.Background(), "learner-1")

	require.NoError(t, err)
	assert.Equal(t, "3f1c9f4e-1111-2222-3333-444455556666", rec.ContentNodeID)
	assert.Equal(t, "weak on channels", rec.Reason)
}

func TestClient_GenerateReport(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{
			"summary": "Steady progress this week.",
			"details": "Full narrative.",
			"strengths": ["goroutines"],
			"weaknesses": ["channels"],
			"engagement_score": 0.72,
			"competence_map": {"concurrency": 0.6}
		}`))
	}))
	defer server.Close()

	client := testClient(server.URL)
	rep, err := client.GenerateReport(context.Background(), "learner-1")

	require.NoError(t, err)
	assert.Equal(t, "Steady progress this week.", rep.Summary)
	require.NotNil(t, rep.Details)
	assert.Equal(t, "Full narrative.", *rep.Details)
	assert.Equal(t, []string{"goroutines"}, rep.Strengths)
	require.NotNil(t, rep.EngagementScore)
	assert.InDelta(t, 0.72, *rep.EngagementScore, 1e-9)
	assert.InDelta(t, 0.6, rep.CompetenceMap["concurrency"], 1e-9)
}

func TestClient_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"code":"BAD_REQUEST","message":"source text too short"}`))
	}))
	defer server.Close()

	client := testClient(server.URL)
	_, err := client.GenerateQuestions(context.Background(), "x")

	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrExternalService)

	var apiErr *APIErrorDTO
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "BAD_REQUEST", apiErr.Code)
}

func TestClient_CircuitBreakerOpensAfterFailures(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"code":"BAD_REQUEST","message":"nope"}`))
	}))
	defer server.Close()

	cfg := DefaultClientConfig(server.URL, "test-key")
	cfg.RetryConfig.MaxRetries = 0
	cfg.RateLimiterConfig.MinInterval = 0
	cfg.RateLimiterConfig.RequestsPerSecond = 1000
	cfg.RateLimiterConfig.BurstSize = 1000
	cfg.CircuitBreakerConfig.FailureThreshold = 2
	client := NewClient(cfg)

	ctx := context.Background()
	_, _ = client.GenerateQuestions(ctx, "a")
	_, _ = client.GenerateQuestions(ctx, "b")

	// Breaker is open now: the next call fails fast without hitting the server.
	_, err := client.GenerateQuestions(ctx, "c")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCircuitOpen) || errors.Is(err, shared.ErrServiceUnavailable))

	status := client.circuitBreaker.Status()
	assert.Equal(t, "open", status.State)
}

func TestRetryConfig_CalculateBackoff(t *testing.T) {
	cfg := DefaultRetryConfig()

	first := cfg.CalculateBackoff(1)
	second := cfg.CalculateBackoff(2)

	assert.Greater(t, second, first)
	assert.LessOrEqual(t, cfg.CalculateBackoff(10), cfg.MaxBackoff+time.Duration(float64(cfg.MaxBackoff)*cfg.Jitter))
}
