package sse

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/montycloud/moya"
)

// promptsResponse is the wire format of the starter-prompt catalog.
type promptsResponse struct {
	Prompts []struct {
		Category    string   `json:"category"`
		Description string   `json:"description"`
		Prompts     []string `json:"prompts"`
	} `json:"prompts"`
}

// StarterPrompts fetches the read-only starter-prompt catalog.
func (c *Client) StarterPrompts(ctx context.Context) ([]moya.PromptCategory, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+promptsPath, nil)
	if err != nil {
		return nil, fmt.Errorf("sse: %w", err)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("sse: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, parseHTTPError(resp)
	}

	var pr promptsResponse
	if err := json.NewDecoder(resp.Body).Decode(&pr); err != nil {
		return nil, fmt.Errorf("sse: decode starter prompts: %w", err)
	}

	categories := make([]moya.PromptCategory, 0, len(pr.Prompts))
	for _, p := range pr.Prompts {
		categories = append(categories, moya.PromptCategory{
			Title:       p.Category,
			Description: p.Description,
			Prompts:     p.Prompts,
		})
	}
	return categories, nil
}
