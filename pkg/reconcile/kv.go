package reconcile

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/komohaven/availsync/internal/models"
)

// KVClient reads the independently maintained availability copy from the
// site's KV-backed API. It is treated as an opaque oracle: whatever range
// list it returns is compared as-is.
type KVClient struct {
	baseURL string
	client  *http.Client
	logger  *slog.Logger
}

// NewKVClient creates a client for the availability API at baseURL
// (e.g. "https://komohaven.pages.dev").
func NewKVClient(baseURL string, timeout time.Duration, logger *slog.Logger) *KVClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &KVClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// Booked fetches the booked ranges the KV store holds for one property.
func (c *KVClient) Booked(ctx context.Context, slug string) ([]models.Range, error) {
	endpoint := fmt.Sprintf("%s/api/availability?slug=%s&kv_avail=1", c.baseURL, url.QueryEscape(slug))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch KV data for %s: %w", slug, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status fetching KV data for %s: %s", slug, resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read KV response for %s: %w", slug, err)
	}

	var payload models.PropertyAvailability
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("failed to parse KV response for %s: %w", slug, err)
	}

	c.logger.Debug("Fetched KV availability", "property", slug, "range_count", len(payload.Booked))

	return payload.Booked, nil
}

// BookedAll fetches KV ranges for every property. A property the API
// cannot serve contributes an empty set and is named in the returned list
// so the report can flag it; the comparison run itself continues.
func (c *KVClient) BookedAll(ctx context.Context, properties []string) (map[string][]models.Range, []string) {
	out := make(map[string][]models.Range, len(properties))
	var unavailable []string

	for _, slug := range properties {
		ranges, err := c.Booked(ctx, slug)
		if err != nil {
			c.logger.Warn("Could not fetch KV data, using empty state", "property", slug, "error", err)
			out[slug] = nil
			unavailable = append(unavailable, slug)
			continue
		}
		out[slug] = ranges
	}

	return out, unavailable
}
