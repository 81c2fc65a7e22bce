// Package mediaid provides a client for the external media-identification
// service that resolves a raw (title, year) pair to a canonical movie
// identity.
package mediaid

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/cinelog/cinelog-engine/pkg/apperrors"
	"github.com/cinelog/cinelog-engine/pkg/config"
	"github.com/cinelog/cinelog-engine/pkg/models"
	"github.com/cinelog/cinelog-engine/pkg/retry"
)

// MediaTypeMovie is the media_type sent for feature-film lookups.
const MediaTypeMovie = "movie"

// minYear is the earliest release year the identifier service accepts.
const minYear = 1900

// Identifier resolves a raw (title, year) pair to a canonical identity.
type Identifier interface {
	// Identify returns the canonical identity for the given title and
	// year. Returns apperrors.ErrInvalidArgument if a precondition is
	// violated (no network call is made), or apperrors.ErrNotFound if
	// the service could not resolve the movie. A transport failure that
	// survives retries also surfaces as apperrors.ErrNotFound: the
	// pipeline's policy for both is identical (mark failed, let the
	// caller resubmit later).
	Identify(ctx context.Context, title string, year int, mediaType string) (*models.ResolvedIdentity, error)
}

// Client provides access to the media-identification service.
type Client struct {
	httpClient *http.Client
	endpoint   string
	retryCfg   *retry.Config
	logger     *zap.Logger
}

// NewClient creates a new media-identification client.
func NewClient(cfg *config.MediaIdentifierConfig, logger *zap.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout(),
		},
		endpoint: cfg.Endpoint,
		retryCfg: &retry.Config{
			MaxRetries:   cfg.MaxRetries,
			InitialDelay: retry.DefaultConfig().InitialDelay,
			MaxDelay:     retry.DefaultConfig().MaxDelay,
			Multiplier:   retry.DefaultConfig().Multiplier,
			JitterFactor: retry.DefaultConfig().JitterFactor,
		},
		logger: logger.Named("mediaid"),
	}
}

// Identify resolves a (title, year) pair against the identifier service.
func (c *Client) Identify(ctx context.Context, title string, year int, mediaType string) (*models.ResolvedIdentity, error) {
	if strings.TrimSpace(title) == "" {
		return nil, fmt.Errorf("%w: title must not be empty", apperrors.ErrInvalidArgument)
	}
	if year < minYear {
		return nil, fmt.Errorf("%w: year %d is before %d", apperrors.ErrInvalidArgument, year, minYear)
	}
	if strings.TrimSpace(mediaType) == "" {
		return nil, fmt.Errorf("%w: media_type must not be empty", apperrors.ErrInvalidArgument)
	}

	endpoint, err := buildURL(c.endpoint, title, year, mediaType)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err)
	}

	var identity *models.ResolvedIdentity
	err = retry.DoIfRetryable(ctx, c.retryCfg, func() error {
		result, attemptErr := c.fetch(ctx, endpoint)
		if attemptErr != nil {
			return attemptErr
		}
		identity = result
		return nil
	})
	if err != nil {
		c.logger.Warn("Could not identify movie",
			zap.String("title", title),
			zap.Int("year", year),
			zap.Error(err))
		return nil, apperrors.ErrNotFound
	}

	if identity == nil {
		c.logger.Warn("Media not found",
			zap.String("title", title),
			zap.Int("year", year))
		return nil, apperrors.ErrNotFound
	}

	return identity, nil
}

// fetch performs a single lookup request. A nil, nil return means the
// service answered definitively that the media is unknown (204), or
// that the response was unusable; both are terminal for the retry loop.
func (c *Client) fetch(ctx context.Context, endpoint string) (*models.ResolvedIdentity, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call media identifier: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNoContent {
		return nil, nil
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("media identifier returned status %d: %s", resp.StatusCode, string(body))
	}

	var identity models.ResolvedIdentity
	if err := json.NewDecoder(resp.Body).Decode(&identity); err != nil {
		// An unparsable body is treated the same as an unknown movie so
		// the caller can retry on a later run rather than crash.
		c.logger.Error("Failed to parse media identifier response", zap.Error(err))
		return nil, nil
	}

	return &identity, nil
}

// buildURL attaches the lookup query parameters to the configured endpoint.
func buildURL(endpoint, title string, year int, mediaType string) (string, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return "", fmt.Errorf("invalid endpoint %q: %w", endpoint, err)
	}

	q := u.Query()
	q.Set("title", title)
	q.Set("year", strconv.Itoa(year))
	q.Set("media_type", mediaType)
	u.RawQuery = q.Encode()

	return u.String(), nil
}

// Ensure Client implements Identifier at compile time.
var _ Identifier = (*Client)(nil)
