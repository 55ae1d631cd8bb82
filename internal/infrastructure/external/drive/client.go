// Package drive resolves external storage file references into view and
// download links for video content nodes.
package drive

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/learnloop/learnloop-core/internal/domain/content"
	"github.com/learnloop/learnloop-core/internal/domain/shared"
	"github.com/learnloop/learnloop-core/pkg/circuitbreaker"
	"github.com/learnloop/learnloop-core/pkg/retry"
)

// ══════════════════════════════════════════════════════════════════════════════
// CONFIGURATION
// ══════════════════════════════════════════════════════════════════════════════

// Config contains configuration for the storage provider client.
type Config struct {
	// BaseURL is the provider API base URL
	BaseURL string

	// APIKey authenticates metadata lookups. When empty the client falls
	// back to constructing conventional share links without an API call.
	APIKey string

	// Timeout is the HTTP request timeout
	Timeout time.Duration

	// Logger for structured logging
	Logger *slog.Logger
}

// DefaultConfig returns sensible defaults.
func DefaultConfig(baseURL, apiKey string) Config {
	return Config{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Timeout: 10 * time.Second,
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// CLIENT
// ══════════════════════════════════════════════════════════════════════════════

// Client resolves file references against the storage provider API.
// It implements content.LinkResolver.
//
// Link resolution is decoration, not a dependency: callers treat a
// failed resolution as "no links", so the breaker and retrier here are
// tuned for quick recovery rather than persistence.
type Client struct {
	config     Config
	httpClient *http.Client
	logger     *slog.Logger
	retrier    *retry.Retrier
	breaker    *circuitbreaker.CircuitBreaker
}

// Compile-time interface check.
var _ content.LinkResolver = (*Client)(nil)

// NewClient creates a new storage provider client.
func NewClient(config Config) *Client {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	logger := config.Logger

	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		logger:  logger,
		retrier: retry.DriveRetrier(),
		breaker: circuitbreaker.DriveBreaker(func(name string, from, to circuitbreaker.State) {
			logger.Warn("circuit breaker state change",
				"breaker", name,
				"from", from.String(),
				"to", to.String(),
			)
		}),
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// LINK RESOLUTION
// ══════════════════════════════════════════════════════════════════════════════

// fileMetadata is the provider's file metadata envelope.
type fileMetadata struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	WebViewLink    string `json:"webViewLink"`
	WebContentLink string `json:"webContentLink"`
}

// Resolve turns a file reference into view and download links.
// Returns shared.ErrLinkResolverFailed on any provider failure; the
// caller decides whether to degrade or propagate.
func (c *Client) Resolve(ctx context.Context, fileRef string) (*content.VideoLinks, error) {
	if fileRef == "" {
		return nil, shared.NewDomainError("drive", "Resolve", shared.ErrInvalidInput, "file reference is empty")
	}

	if c.config.APIKey == "" {
		return c.staticLinks(fileRef), nil
	}

	var links *content.VideoLinks
	err := c.breaker.Execute(ctx, func(ctx context.Context) error {
		return c.retrier.Do(ctx, func(ctx context.Context) error {
			meta, err := c.fetchMetadata(ctx, fileRef)
			if err != nil {
				return err
			}
			links = &content.VideoLinks{
				View:     meta.WebViewLink,
				Download: meta.WebContentLink,
			}
			return nil
		})
	})
	if err != nil {
		c.logger.Warn("link resolution failed",
			"file_ref", fileRef,
			"error", err,
		)
		return nil, shared.WrapError("drive", "Resolve", shared.ErrExternalService, "failed to resolve storage link", err)
	}

	return links, nil
}

// fetchMetadata requests file metadata from the provider.
func (c *Client) fetchMetadata(ctx context.Context, fileRef string) (*fileMetadata, error) {
	params := url.Values{}
	params.Set("fields", "id,name,webViewLink,webContentLink")
	params.Set("key", c.config.APIKey)

	fullURL := fmt.Sprintf("%s/files/%s?%s", c.config.BaseURL, url.PathEscape(fileRef), params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, retry.Permanent(fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, retry.Retryable(fmt.Errorf("http request: %w", err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, retry.Retryable(fmt.Errorf("read response: %w", err))
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, retry.Permanent(errors.New("file not found"))
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return nil, retry.Retryable(fmt.Errorf("provider error: status %d", resp.StatusCode))
	case resp.StatusCode >= 400:
		return nil, retry.Permanent(fmt.Errorf("provider error: status %d", resp.StatusCode))
	}

	var meta fileMetadata
	if err := json.Unmarshal(body, &meta); err != nil {
		return nil, retry.Permanent(fmt.Errorf("unmarshal response: %w", err))
	}

	if meta.WebViewLink == "" && meta.WebContentLink == "" {
		// Metadata without links (permissions) - fall back to share links.
		fallback := c.staticLinks(fileRef)
		meta.WebViewLink = fallback.View
		meta.WebContentLink = fallback.Download
	}

	return &meta, nil
}

// staticLinks constructs conventional share links from the reference
// alone. Valid for any file shared link-visible, which the content
// pipeline guarantees for published videos.
func (c *Client) staticLinks(fileRef string) *content.VideoLinks {
	ref := url.PathEscape(fileRef)
	return &content.VideoLinks{
		View:     "https://drive.google.com/file/d/" + ref + "/view",
		Download: "https://drive.google.com/uc?export=download&id=" + url.QueryEscape(fileRef),
	}
}

// IsHealthy reports whether the provider responds at all.
func (c *Client) IsHealthy(ctx context.Context) bool {
	if c.config.APIKey == "" {
		return true
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.BaseURL+"/about?fields=kind&key="+url.QueryEscape(c.config.APIKey), nil)
	if err != nil {
		return false
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode < 500
}
