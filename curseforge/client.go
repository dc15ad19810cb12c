package curseforge

import (
	"bytes"
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
	curseforgeAPIURL = "https://api.curseforge.com/v1"
	defaultTimeout   = 5 * time.Second

	// Minecraft game id and the mods class id in the CurseForge taxonomy.
	minecraftGameID = "432"
	modsClassID     = "6"

	// The API caps mod search pages at 50.
	maxPageSize = 50

	// sortField values for /mods/search.
	sortByPopularity     = "2"
	sortByTotalDownloads = "6"
)

// Client handles communication with the CurseForge API.
type Client struct {
	BaseURL    string
	APIKey     string
	UserAgent  string
	HTTPClient *http.Client
}

// NewClient creates a new CurseForge API client using the provided configuration.
func NewClient(cfg config.Config) (*Client, error) {
	if cfg.CurseForgeAPIKey == "" {
		return nil, fmt.Errorf("CURSEFORGE_API_KEY is not configured")
	}
	if cfg.UserAgent == "" {
		return nil, fmt.Errorf("USERAGENT is not configured")
	}

	return &Client{
		BaseURL:   curseforgeAPIURL,
		APIKey:    cfg.CurseForgeAPIKey,
		UserAgent: cfg.UserAgent,
		HTTPClient: &http.Client{
			Timeout: defaultTimeout,
		},
	}, nil
}

func (c *Client) makeRequest(ctx context.Context, method, path string, queryParams url.Values, body, target any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	if queryParams != nil {
		req.URL.RawQuery = queryParams.Encode()
	}

	req.Header.Set("User-Agent", c.UserAgent)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("x-api-key", c.APIKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
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

// listEnvelope is the {"data": [...]} wrapper CurseForge puts around list
// responses.
type listEnvelope struct {
	Data []map[string]any `json:"data"`
}

func (c *Client) searchMods(ctx context.Context, query, sortField string, limit int) ([]map[string]any, error) {
	params := url.Values{}
	params.Set("gameId", minecraftGameID)
	params.Set("classId", modsClassID)
	params.Set("searchFilter", query)
	params.Set("sortField", sortField)
	params.Set("sortOrder", "desc")
	params.Set("pageSize", fmt.Sprintf("%d", clampLimit(limit)))

	var result listEnvelope
	if err := c.makeRequest(ctx, http.MethodGet, "/mods/search", params, nil, &result); err != nil {
		return nil, fmt.Errorf("failed to search mods for %q: %w", query, err)
	}
	return result.Data, nil
}

// Search returns raw search hits for a query.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]map[string]any, error) {
	return c.searchMods(ctx, query, sortByPopularity, limit)
}

// GetPopular returns the most-downloaded mods.
func (c *Client) GetPopular(ctx context.Context, limit int) ([]map[string]any, error) {
	return c.searchMods(ctx, "", sortByTotalDownloads, limit)
}

// GetProject retrieves details for a single mod by its numeric id.
func (c *Client) GetProject(ctx context.Context, externalID string) (map[string]any, error) {
	var result struct {
		Data map[string]any `json:"data"`
	}
	if err := c.makeRequest(ctx, http.MethodGet, fmt.Sprintf("/mods/%s", externalID), nil, nil, &result); err != nil {
		return nil, fmt.Errorf("failed to get mod '%s': %w", externalID, err)
	}
	return result.Data, nil
}

// GetProjects retrieves details for multiple mods in one call.
func (c *Client) GetProjects(ctx context.Context, externalIDs []string) ([]map[string]any, error) {
	if len(externalIDs) == 0 {
		return nil, nil
	}

	ids := make([]int64, 0, len(externalIDs))
	for _, id := range externalIDs {
		var n int64
		if _, err := fmt.Sscanf(id, "%d", &n); err != nil {
			return nil, fmt.Errorf("invalid curseforge mod id %q: %w", id, err)
		}
		ids = append(ids, n)
	}

	var result listEnvelope
	if err := c.makeRequest(ctx, http.MethodPost, "/mods", nil, map[string]any{"modIds": ids}, &result); err != nil {
		return nil, fmt.Errorf("failed to get mods: %w", err)
	}
	return result.Data, nil
}
