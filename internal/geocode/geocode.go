// Package geocode proxies the third-party geocoding API the map view relies
// on, with a fixed short timeout and a TTL cache so repeated lookups for the
// same location never leave the process.
package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

// Result is one geocoder hit, reduced to what the map needs.
type Result struct {
	Name string `json:"name"`
	Lat  string `json:"lat"`
	Lon  string `json:"lon"`
}

type Client struct {
	baseURL string
	http    *http.Client
	cache   *gocache.Cache
	log     *zap.Logger
}

func NewClient(baseURL string, timeout time.Duration, cacheTTL time.Duration, log *zap.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
		cache:   gocache.New(cacheTTL, 2*cacheTTL),
		log:     log,
	}
}

// Lookup resolves a free-text location to geocoder results, serving repeat
// queries from cache.
func (c *Client) Lookup(ctx context.Context, query string) ([]Result, error) {
	key := strings.ToLower(strings.TrimSpace(query))
	if cached, ok := c.cache.Get(key); ok {
		return cached.([]Result), nil
	}

	c.log.Debug("geocode cache miss", zap.String("query", key))
	u := fmt.Sprintf("%s?q=%s&format=json&limit=5", c.baseURL, url.QueryEscape(query))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "healthwatch/1.0")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("geocoder returned status %d", resp.StatusCode)
	}

	var raw []struct {
		DisplayName string `json:"display_name"`
		Lat         string `json:"lat"`
		Lon         string `json:"lon"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, err
	}

	results := make([]Result, 0, len(raw))
	for _, r := range raw {
		results = append(results, Result{Name: r.DisplayName, Lat: r.Lat, Lon: r.Lon})
	}
	c.cache.Set(key, results, gocache.DefaultExpiration)
	return results, nil
}
