// Package aodp fetches city price snapshots from the Albion Online Data Project API.
package aodp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/newthinker/albionflip/internal/collector"
	"github.com/newthinker/albionflip/internal/core"
)

const (
	pricesPath     = "/api/v2/stats/Prices/"
	defaultTimeout = 30 * time.Second
)

var endpoints = map[core.Region]string{
	core.RegionEurope:   "https://europe.albion-online-data.com",
	core.RegionAsia:     "https://east.albion-online-data.com",
	core.RegionAmericas: "https://west.albion-online-data.com",
}

// Endpoint returns the server for a region, defaulting to Europe
func Endpoint(region core.Region) string {
	if u, ok := endpoints[region]; ok {
		return u
	}
	return endpoints[core.RegionEurope]
}

// Register adds one client per region to the registry
func Register(r *collector.Registry, opts ...Option) {
	for region := range endpoints {
		r.Register(region, New(region, opts...))
	}
}

// Client fetches price observations from one regional server
type Client struct {
	client  *http.Client
	baseURL string
	region  core.Region
	limiter *rate.Limiter
}

// Option customizes a Client
type Option func(*Client)

// WithTimeout sets the per-request timeout
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.client.Timeout = d
		}
	}
}

// WithRateLimit paces requests. A non-positive rps disables pacing.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithBaseURL points the client at a different server
func WithBaseURL(u string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimSuffix(u, "/")
	}
}

// New creates a client for region
func New(region core.Region, opts ...Option) *Client {
	c := &Client{
		client:  &http.Client{Timeout: defaultTimeout},
		baseURL: Endpoint(region),
		region:  region,
		limiter: rate.NewLimiter(rate.Limit(1), 1),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Name() string {
	return "aodp-" + string(c.region)
}

// PricesURL builds the request URL for a query
func (c *Client) PricesURL(q collector.PriceQuery) string {
	params := url.Values{}
	if len(q.Cities) > 0 {
		cities := make([]string, len(q.Cities))
		for i, city := range q.Cities {
			cities[i] = string(city)
		}
		params.Set("locations", strings.Join(cities, ","))
	}

	qualities := q.Qualities
	if len(qualities) == 0 {
		qualities = core.DefaultQualities
	}
	levels := make([]string, len(qualities))
	for i, quality := range qualities {
		levels[i] = strconv.Itoa(int(quality))
	}
	params.Set("qualities", strings.Join(levels, ","))

	ids := make([]string, len(q.ItemIDs))
	for i, id := range q.ItemIDs {
		ids[i] = url.PathEscape(id)
	}

	return c.baseURL + pricesPath + strings.Join(ids, ",") + ".json?" + params.Encode()
}

// FetchPrices requests the observations for one batch of items
func (c *Client) FetchPrices(ctx context.Context, q collector.PriceQuery) ([]core.PriceObservation, error) {
	if len(q.ItemIDs) == 0 {
		return nil, nil
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("waiting for rate limiter: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.PricesURL(q), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		if isTimeout(err) {
			return nil, core.WrapError(core.ErrCollectorTimeout, err)
		}
		return nil, core.WrapError(core.ErrCollectorFailed, fmt.Errorf("fetching prices: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, core.WrapError(core.ErrCollectorFailed, fmt.Errorf("unexpected status: %d", resp.StatusCode))
	}

	var observations []core.PriceObservation
	if err := json.NewDecoder(resp.Body).Decode(&observations); err != nil {
		return nil, core.WrapError(core.ErrCollectorFailed, fmt.Errorf("decoding response: %w", err))
	}

	return observations, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
