package contributors

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/histpatch/backend/internal/cache/redis"
	"github.com/histpatch/backend/internal/metrics"
	"github.com/histpatch/backend/internal/storage/models"
	"github.com/histpatch/backend/pkg/logger"
)

// Client fetches the project contributor listing. Rendering-only data;
// every failure degrades to the offline placeholder at the handler.
type Client struct {
	apiBaseURL string
	owner      string
	repo       string
	httpClient *http.Client
	cache      *redis.Client
	cacheTTL   time.Duration
}

func NewClient(apiBaseURL, owner, repo string, timeoutSec, cacheTTLSec int, cache *redis.Client) *Client {
	return &Client{
		apiBaseURL: apiBaseURL,
		owner:      owner,
		repo:       repo,
		httpClient: &http.Client{Timeout: time.Duration(timeoutSec) * time.Second},
		cache:      cache,
		cacheTTL:   time.Duration(cacheTTLSec) * time.Second,
	}
}

func (c *Client) List(ctx context.Context) ([]models.Contributor, error) {
	if c.cache != nil {
		if cached, ok, err := c.cache.GetContributors(ctx); err == nil && ok {
			metrics.CacheHits.WithLabelValues("contributors").Inc()
			return cached, nil
		}
		metrics.CacheMisses.WithLabelValues("contributors").Inc()
	}

	url := fmt.Sprintf("%s/repos/%s/%s/contributors", c.apiBaseURL, c.owner, c.repo)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.ContributorFetches.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("failed to fetch contributors: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		metrics.ContributorFetches.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("contributors fetch returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var contributors []models.Contributor
	if err := json.Unmarshal(body, &contributors); err != nil {
		return nil, fmt.Errorf("failed to parse contributors: %w", err)
	}

	metrics.ContributorFetches.WithLabelValues("ok").Inc()

	if c.cache != nil {
		if err := c.cache.SetContributors(ctx, contributors, c.cacheTTL); err != nil {
			logger.Warn("Failed to cache contributors", zap.Error(err))
		}
	}

	return contributors, nil
}
