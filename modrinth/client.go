package modrinth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"mod-aggregator/config"
)

const (
	modrinthAPIURL = "https://api.modrinth.com/v2"
	defaultTimeout = 5 * time.Second

	// The API rejects search page sizes above 100.
	maxPageSize = 100
)

// Client handles communication with the Modrinth API.
type Client struct {
	BaseURL    string
	APIKey     string
	UserAgent  string
	HTTPClient *http.Client
}

// NewClient creates a new Modrinth API client using the provided configuration.
func NewClient(cfg config.Config) (*Client, error) {
	if cfg.UserAgent == "" {
		// Should be handled by LoadConfig default, but double-check
		return nil, fmt.Errorf("USERAGENT is not configured")
	}

	return &Client{
		BaseURL:   modrinthAPIURL,
		APIKey:    cfg.ModrinthAPIKey,
		UserAgent: cfg.UserAgent,
		HTTPClient: &http.Client{
			Timeout: defaultTimeout,
		},
	}, nil
}

func (c *Client) makeRequest(ctx context.Context, path string, queryParams url.Values, target any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	if queryParams != nil {
		req.URL.RawQuery = queryParams.Encode()
	}

	req.Header.Set("User-Agent", c.UserAgent)
	req.Header.Set("Accept", "application/json")
	if c.APIKey != "" {
		req.Header.Set("Authorization", c.APIKey)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// Try to read body for more error info, but don't fail if it's unreadable
		bodyBytes, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("api request failed: status %d, body: %s", resp.StatusCode, string(bodyBytes))
	}

	if target != nil {
		if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
			return fmt.Errorf("failed to decode json response: %w", err)
		}
	}

	return nil
}

func clampLimit(limit int) int {
	if limit <= 0 || limit > maxPageSize {
		return maxPageSize
	}
	return limit
}

// search wraps the /search endpoint, which backs both text search and the
// popular listing.
func (c *Client) search(ctx context.Context, query, index string, limit int) ([]map[string]any, error) {
	params := url.Values{}
	params.Set("query", query)
	params.Set("index", index)
	params.Set("limit", fmt.Sprintf("%d", clampLimit(limit)))
	params.Set("facets", `[["project_type:mod"]]`)

	var result struct {
		Hits []map[string]any `json:"hits"`
	}
	if err := c.makeRequest(ctx, "/search", params, &result); err != nil {
		return nil, fmt.Errorf("failed to search projects for %q: %w", query, err)
	}
	return result.Hits, nil
}

// Search returns raw search hits for a query, most relevant first.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]map[string]any, error) {
	return c.search(ctx, query, "relevance", limit)
}

// GetPopular returns the most-downloaded mods.
func (c *Client) GetPopular(ctx context.Context, limit int) ([]map[string]any, error) {
	return c.search(ctx, "", "downloads", limit)
}

// GetProject retrieves details for a specific project by id or slug.
func (c *Client) GetProject(ctx context.Context, externalID string) (map[string]any, error) {
	var project map[string]any
	if err := c.makeRequest(ctx, fmt.Sprintf("/project/%s", externalID), nil, &project); err != nil {
		return nil, fmt.Errorf("failed to get project '%s': %w", externalID, err)
	}
	return project, nil
}

// GetProjects retrieves details for multiple projects in one call.
func (c *Client) GetProjects(ctx context.Context, externalIDs []string) ([]map[string]any, error) {
	if len(externalIDs) == 0 {
		return nil, nil
	}
	ids, err := json.Marshal(externalIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to encode project ids: %w", err)
	}

	params := url.Values{}
	params.Set("ids", string(ids))

	var projects []map[string]any
	if err := c.makeRequest(ctx, "/projects", params, &projects); err != nil {
		return nil, fmt.Errorf("failed to get projects: %w", err)
	}
	return projects, nil
}
