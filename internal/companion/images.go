package companion

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// FetchImageByID resolves a generated image's URL when the streamed event
// carried an id but an empty url (spec.md §4.5 step 4).
func (c *Client) FetchImageByID(ctx context.Context, id string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/images/"+id, nil)
	if err != nil {
		return "", err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("companion: fetch image %s: %w", id, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("companion: fetch image %s: status %d", id, resp.StatusCode)
	}
	var out struct {
		ImageURL string `json:"imageUrl"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	return out.ImageURL, nil
}
