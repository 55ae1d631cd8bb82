package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/learnloop/learnloop-core/internal/domain/quiz"
	"github.com/learnloop/learnloop-core/internal/domain/shared"
)

// APIKeyHeader is the header the engine authenticates internal callers with.
const APIKeyHeader = "X-Internal-API-Key"

// ══════════════════════════════════════════════════════════════════════════════
// CONFIGURATION
// ══════════════════════════════════════════════════════════════════════════════

// ClientConfig contains configuration for the engine API client.
type ClientConfig struct {
	// BaseURL is the engine API base URL
	BaseURL string

	// APIKey is the shared internal API key
	APIKey string

	// Timeout is the HTTP request timeout
	Timeout time.Duration

	// RateLimiterConfig for API rate limiting
	RateLimiterConfig RateLimiterConfig

	// CircuitBreakerConfig for fault tolerance
	CircuitBreakerConfig CircuitBreakerConfig

	// RetryConfig for retry behavior
	RetryConfig RetryConfig

	// Logger for structured logging
	Logger *slog.Logger

	// Debug enables debug logging
	Debug bool
}

// DefaultClientConfig returns sensible defaults.
func DefaultClientConfig(baseURL, apiKey string) ClientConfig {
	return ClientConfig{
		BaseURL:              baseURL,
		APIKey:               apiKey,
		Timeout:              30 * time.Second,
		RateLimiterConfig:    DefaultRateLimiterConfig(),
		CircuitBreakerConfig: DefaultCircuitBreakerConfig(),
		RetryConfig:          DefaultRetryConfig(),
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// CLIENT
// ══════════════════════════════════════════════════════════════════════════════

// Client is the personalization engine API client. It implements
// quiz.Oracle and backs recommendation and report generation.
type Client struct {
	config         ClientConfig
	httpClient     *http.Client
	logger         *slog.Logger
	rateLimiter    *RateLimiter
	circuitBreaker *CircuitBreaker
}

// Compile-time interface check.
var _ quiz.Oracle = (*Client)(nil)

// NewClient creates a new engine API client.
func NewClient(config ClientConfig) *Client {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		logger:         config.Logger,
		rateLimiter:    NewRateLimiter(config.RateLimiterConfig),
		circuitBreaker: NewCircuitBreaker(config.CircuitBreakerConfig),
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// RECOMMENDATION OPERATIONS
// ══════════════════════════════════════════════════════════════════════════════

// Recommend asks the engine which content node the learner should see next.
func (c *Client) Recommend(ctx context.Context, learnerID string) (*RecommendResponseDTO, error) {
	req := RecommendRequestDTO{LearnerID: learnerID}

	var response RecommendResponseDTO
	if err := c.doRequest(ctx, http.MethodPost, "/v1/recommend", req, &response); err != nil {
		return nil, c.wrapError("Recommend", err)
	}

	if response.ContentNodeID == "" {
		return nil, shared.ErrEngineInvalidResponse
	}

	return &response, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// QUIZ ORACLE OPERATIONS
// ══════════════════════════════════════════════════════════════════════════════

// GenerateQuestions builds a question set from gradable source text.
func (c *Client) GenerateQuestions(ctx context.Context, sourceText string) (json.RawMessage, error) {
	req := QuizGenerationRequestDTO{SourceText: sourceText}

	var response QuizGenerationResponseDTO
	if err := c.doRequest(ctx, http.MethodPost, "/v1/quiz/generate", req, &response); err != nil {
		return nil, c.wrapError("GenerateQuestions", err)
	}

	if len(response.Questions) == 0 || string(response.Questions) == "null" {
		return nil, shared.ErrEngineInvalidResponse
	}

	return response.Questions, nil
}

// Evaluate scores a submission against its question set.
func (c *Client) Evaluate(ctx context.Context, questions, answers json.RawMessage) (*quiz.Evaluation, error) {
	req := EvaluationRequestDTO{Questions: questions, Answers: answers}

	var response EvaluationResponseDTO
	if err := c.doRequest(ctx, http.MethodPost, "/v1/quiz/evaluate", req, &response); err != nil {
		return nil, c.wrapError("Evaluate", err)
	}

	score, err := shared.NewScore(response.Score)
	if err != nil {
		return nil, shared.WrapError("engine", "Evaluate", shared.ErrInvalidFormat, "score out of range", err)
	}

	return &quiz.Evaluation{
		Score:    score,
		Feedback: response.Feedback,
	}, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// REPORT OPERATIONS
// ══════════════════════════════════════════════════════════════════════════════

// GenerateReport asks the engine for a full analytical report on a learner.
func (c *Client) GenerateReport(ctx context.Context, learnerID string) (*ReportGenerationResponseDTO, error) {
	req := ReportGenerationRequestDTO{LearnerID: learnerID}

	var response ReportGenerationResponseDTO
	if err := c.doRequest(ctx, http.MethodPost, "/v1/reports/generate", req, &response); err != nil {
		return nil, c.wrapError("GenerateReport", err)
	}

	if response.Summary == "" {
		return nil, shared.ErrEngineInvalidResponse
	}

	return &response, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// HTTP REQUEST HELPERS
// ══════════════════════════════════════════════════════════════════════════════

// doRequest performs an HTTP request with rate limiting, circuit breaking,
// and retries.
func (c *Client) doRequest(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	if err := c.circuitBreaker.Allow(); err != nil {
		return fmt.Errorf("circuit breaker: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= c.config.RetryConfig.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := c.config.RetryConfig.CalculateBackoff(attempt)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
		}

		if err := c.rateLimiter.Allow(ctx); err != nil {
			return fmt.Errorf("rate limiter: %w", err)
		}

		err := c.doSingleRequest(ctx, method, path, body, result)
		if err == nil {
			c.circuitBreaker.RecordSuccess()
			return nil
		}

		lastErr = err

		if !c.isRetryable(err) {
			c.circuitBreaker.RecordFailure()
			return err
		}

		var rateLimitErr *RateLimitError
		if errors.As(err, &rateLimitErr) {
			c.rateLimiter.RecordRateLimitHit(rateLimitErr.RetryAfter)
		}
	}

	c.circuitBreaker.RecordFailure()
	return fmt.Errorf("request failed after %d retries: %w", c.config.RetryConfig.MaxRetries, lastErr)
}

// doSingleRequest performs a single HTTP request.
func (c *Client) doSingleRequest(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	fullURL := c.config.BaseURL + path

	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, bodyReader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set(APIKeyHeader, c.config.APIKey)

	if c.config.Debug {
		c.logger.Debug("engine api request", "method", method, "path", path)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		retryAfter := 60 * time.Second
		if ra := resp.Header.Get("Retry-After"); ra != "" {
			if seconds, err := strconv.Atoi(ra); err == nil {
				retryAfter = time.Duration(seconds) * time.Second
			}
		}
		return &RateLimitError{
			RetryAfter: retryAfter,
			Message:    "rate limit exceeded",
		}
	}

	if resp.StatusCode >= 400 {
		var apiErr APIErrorDTO
		if err := json.Unmarshal(respBody, &apiErr); err == nil && apiErr.Message != "" {
			return &apiErr
		}
		return fmt.Errorf("api error: status %d", resp.StatusCode)
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("unmarshal response: %w", err)
		}
	}

	return nil
}

// isRetryable checks if an error is retryable.
func (c *Client) isRetryable(err error) bool {
	if err == nil {
		return false
	}

	var rateLimitErr *RateLimitError
	if errors.As(err, &rateLimitErr) {
		return true
	}

	var apiErr *APIErrorDTO
	if errors.As(err, &apiErr) {
		return apiErr.Code == "SERVER_ERROR" || apiErr.Code == "TEMPORARILY_UNAVAILABLE"
	}

	errStr := err.Error()
	return containsAny(errStr, []string{"timeout", "connection refused", "temporary", "reset", "EOF"})
}

// wrapError translates transport-level failures into domain errors the
// application layer can classify.
func (c *Client) wrapError(op string, err error) error {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return shared.WrapError("engine", op, shared.ErrTimeout, "engine request timed out", err)
	case errors.Is(err, ErrCircuitOpen):
		return shared.WrapError("engine", op, shared.ErrServiceUnavailable, "engine circuit breaker open", err)
	default:
		var rateLimitErr *RateLimitError
		if errors.As(err, &rateLimitErr) {
			return shared.WrapError("engine", op, shared.ErrRateLimited, "engine rate limit exceeded", err)
		}
		return shared.WrapError("engine", op, shared.ErrExternalService, "engine request failed", err)
	}
}

// containsAny checks if s contains any of the substrings.
func containsAny(s string, substrings []string) bool {
	for _, sub := range substrings {
		if len(s) >= len(sub) && findStr(s, sub) >= 0 {
			return true
		}
	}
	return false
}

// findStr finds substr in s.
func findStr(s, substr string) int {
	for i := 0; i <= len(s)-len(substr); i++ {
		if s[i:i+len(substr)] == substr {
			return i
		}
	}
	return -1
}

// ══════════════════════════════════════════════════════════════════════════════
// HEALTH AND STATUS
// ══════════════════════════════════════════════════════════════════════════════

// IsHealthy checks if the engine API is reachable.
func (c *Client) IsHealthy(ctx context.Context) bool {
	err := c.doSingleRequest(ctx, http.MethodGet, "/health", nil, nil)
	return err == nil
}

// ClientStatus is the current status of the client.
type ClientStatus struct {
	RateLimiter    RateLimiterStatus
	CircuitBreaker CircuitBreakerStatus
	IsHealthy      bool
}

// Status returns the current status of the client.
func (c *Client) Status(ctx context.Context) ClientStatus {
	return ClientStatus{
		RateLimiter:    c.rateLimiter.Status(),
		CircuitBreaker: c.circuitBreaker.Status(),
		IsHealthy:      c.IsHealthy(ctx),
	}
}

// Reset resets the rate limiter and circuit breaker.
func (c *Client) Reset() {
	c.rateLimiter.Reset()
	c.circuitBreaker.Reset()
}
