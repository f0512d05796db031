// Copyright (c) 2026 Cinara. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/taibuivan/cinara/internal/platform/apperr"
	"github.com/taibuivan/cinara/internal/platform/constants"
)

// requestTimeout bounds a single upstream lookup.
const requestTimeout = 10 * time.Second

// Options configures a catalog [Client].
type Options struct {
	// BaseURL is the upstream API root, e.g. "https://api.themoviedb.org/3".
	BaseURL string

	// APIKey is sent as the api_key query parameter on every request.
	APIKey string

	// Language is the default locale for metadata lookups, e.g. "en".
	Language string

	// ImageBaseURL prefixes poster paths returned by the upstream.
	ImageBaseURL string

	// CacheTTL bounds how long successful lookups stay in Redis.
	CacheTTL time.Duration
}

// Client is the upstream catalog client with a Redis-backed success cache.
type Client struct {
	httpClient   *http.Client
	cache        *redis.Client
	baseURL      string
	apiKey       string
	language     string
	imageBaseURL string
	cacheTTL     time.Duration
	logger       *slog.Logger
}

// NewClient constructs a catalog [Client]. The cache client may be nil, in
// which case every lookup goes to the upstream.
func NewClient(options Options, cache *redis.Client, logger *slog.Logger) *Client {
	return &Client{
		httpClient:   &http.Client{Timeout: requestTimeout},
		cache:        cache,
		baseURL:      options.BaseURL,
		apiKey:       options.APIKey,
		language:     options.Language,
		imageBaseURL: options.ImageBaseURL,
		cacheTTL:     options.CacheTTL,
		logger:       logger,
	}
}

/*
GetMovie retrieves movie metadata by its upstream catalog ID.

Parameters:
  - context: context.Context
  - id: int64 (Upstream catalog ID)

Returns:
  - *Movie: Hydrated metadata
  - error: apperr.NotFound for unknown IDs, apperr.Unavailable for upstream failures
*/
func (client *Client) GetMovie(context context.Context, id int64) (*Movie, error) {
	movie := &Movie{}
	if err := client.get(context, fmt.Sprintf("/movie/%d", id), movie); err != nil {
		return nil, err
	}
	return movie, nil
}

/*
GetTVShow retrieves series metadata by its upstream catalog ID.

Parameters:
  - context: context.Context
  - id: int64 (Upstream catalog ID)

Returns:
  - *TVShow: Hydrated metadata
  - error: apperr.NotFound for unknown IDs, apperr.Unavailable for upstream failures
*/
func (client *Client) GetTVShow(context context.Context, id int64) (*TVShow, error) {
	show := &TVShow{}
	if err := client.get(context, fmt.Sprintf("/tv/%d", id), show); err != nil {
		return nil, err
	}
	return show, nil
}

// PosterURL resolves an upstream poster path against the image CDN base.
// Returns "" for an empty path.
func (client *Client) PosterURL(posterPath string) string {
	if posterPath == "" {
		return ""
	}
	return client.imageBaseURL + posterPath
}

// get performs one cached upstream lookup and decodes the payload into target.
func (client *Client) get(context context.Context, path string, target any) error {
	cacheKey := constants.RedisPrefixCatalog + client.language + path

	// Fast path: serve from the success cache
	if client.cache != nil {
		cached, err := client.cache.Get(context, cacheKey).Bytes()
		if err == nil {
			if err := json.Unmarshal(cached, target); err == nil {
				return nil
			}
			// A corrupt entry falls through to the upstream
			_ = client.cache.Del(context, cacheKey).Err()
		}
	}

	endpoint := fmt.Sprintf("%s%s?api_key=%s&language=%s",
		client.baseURL, path, url.QueryEscape(client.apiKey), url.QueryEscape(client.language))

	request, err := http.NewRequestWithContext(context, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("catalog_client_build_request_failed: %w", err)
	}
	request.Header.Set("Accept", "application/json")

	response, err := client.httpClient.Do(request)
	if err != nil {
		return apperr.Unavailable("catalog", err)
	}
	defer response.Body.Close()

	switch {
	case response.StatusCode == http.StatusNotFound:
		return apperr.NotFound("Catalog title not found")
	case response.StatusCode != http.StatusOK:
		return apperr.Unavailable("catalog", fmt.Errorf("unexpected status %d", response.StatusCode))
	}

	body, err := io.ReadAll(response.Body)
	if err != nil {
		return apperr.Unavailable("catalog", err)
	}

	if err := json.Unmarshal(body, target); err != nil {
		return apperr.Unavailable("catalog", fmt.Errorf("malformed payload: %w", err))
	}

	// Only successful, well-formed payloads are cached
	if client.cache != nil {
		if err := client.cache.Set(context, cacheKey, body, client.cacheTTL).Err(); err != nil {
			client.logger.Warn("catalog_cache_write_failed",
				slog.String("key", cacheKey),
				slog.String("error", err.Error()),
			)
		}
	}

	return nil
}
