// Package items fetches the item catalog dump, optionally through an archive cache.
package items

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/newthinker/albionflip/internal/core"
	"github.com/newthinker/albionflip/internal/storage/archive"
	"go.uber.org/zap"
)

const (
	// DefaultURL is the formatted item dump published by the market data project
	DefaultURL = "https://raw.githubusercontent.com/ao-data/ao-bin-dumps/master/formatted/items.json"

	// DefaultCacheKey is where the raw dump is archived
	DefaultCacheKey = "catalog/items.json"

	defaultTimeout = 60 * time.Second
)

// Client downloads the item catalog
type Client struct {
	client   *http.Client
	url      string
	cache    archive.Storage
	cacheKey string
	refresh  bool
	logger   *zap.Logger
}

// Option customizes a Client
type Option func(*Client)

// WithTimeout sets the HTTP timeout
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.client.Timeout = d
		}
	}
}

// WithCache stores and reuses the raw dump under key
func WithCache(storage archive.Storage, key string) Option {
	return func(c *Client) {
		c.cache = storage
		if key != "" {
			c.cacheKey = key
		}
	}
}

// WithRefresh skips the cached copy and downloads again
func WithRefresh(refresh bool) Option {
	return func(c *Client) {
		c.refresh = refresh
	}
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New creates a catalog client. An empty url uses DefaultURL.
func New(url string, opts ...Option) *Client {
	if url == "" {
		url = DefaultURL
	}
	c := &Client{
		client:   &http.Client{Timeout: defaultTimeout},
		url:      url,
		cacheKey: DefaultCacheKey,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Name() string {
	return "items"
}

// FetchCatalog returns the catalog entries, preferring the archived copy
func (c *Client) FetchCatalog(ctx context.Context) ([]core.CatalogEntry, error) {
	if c.cache != nil && !c.refresh {
		entries, err := c.fromCache(ctx)
		if err == nil {
			c.logger.Debug("catalog loaded from cache",
				zap.String("key", c.cacheKey),
				zap.Int("entries", len(entries)),
			)
			return entries, nil
		}
		if !errors.Is(err, core.ErrArchiveMiss) {
			c.logger.Warn("catalog cache unusable, downloading", zap.Error(err))
		}
	}

	data, err := c.download(ctx)
	if err != nil {
		return nil, core.WrapError(core.ErrCatalogUnavailable, err)
	}

	entries, err := decode(data)
	if err != nil {
		return nil, core.WrapError(core.ErrCatalogUnavailable, err)
	}

	if c.cache != nil {
		if err := c.cache.Write(ctx, c.cacheKey, data); err != nil {
			c.logger.Warn("failed to cache catalog", zap.String("key", c.cacheKey), zap.Error(err))
		}
	}

	return entries, nil
}

func (c *Client) fromCache(ctx context.Context) ([]core.CatalogEntry, error) {
	data, err := c.cache.Read(ctx, c.cacheKey)
	if err != nil {
		return nil, err
	}
	return decode(data)
}

func (c *Client) download(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching catalog: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading catalog: %w", err)
	}
	return data, nil
}

func decode(data []byte) ([]core.CatalogEntry, error) {
	var entries []core.CatalogEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("decoding catalog: %w", err)
	}
	return entries, nil
}
