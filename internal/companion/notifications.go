package companion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// Notification is one queued, user-initiated message the companion
// service wants delivered to the owner over Signal (e.g. an LLM tool
// call that asks to notify the owner asynchronously).
type Notification struct {
	ID           string `json:"id"`
	ChoomID      string `json:"choomId"`
	Message      string `json:"message"`
	IncludeAudio bool   `json:"includeAudio"`
}

// FetchNotifications polls the queued-notification list. An empty slice
// with a nil error means nothing is queued.
func (c *Client) FetchNotifications(ctx context.Context) ([]Notification, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/notifications", nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("companion: fetch notifications: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("companion: fetch notifications: status %d", resp.StatusCode)
	}
	var out []Notification
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteNotifications marks the given ids delivered.
func (c *Client) DeleteNotifications(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	body, err := json.Marshal(map[string]any{"ids": ids})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.baseURL+"/api/notifications", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("companion: delete notifications: %w", err)
	}
	defer resp.Body.Close()
	return nil
}
