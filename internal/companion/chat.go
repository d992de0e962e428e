package companion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// GetOrCreateChat reuses the cached chat id for companionID, or creates a
// new one tagged "Signal Conversation".
func (c *Client) GetOrCreateChat(ctx context.Context, companionID string) (string, error) {
	c.chatsMu.Lock()
	if id, ok := c.chats[companionID]; ok {
		c.chatsMu.Unlock()
		return id, nil
	}
	c.chatsMu.Unlock()

	id, err := c.createChat(ctx, companionID, "Signal Conversation")
	if err != nil {
		return "", err
	}
	c.chatsMu.Lock()
	c.chats[companionID] = id
	c.chatsMu.Unlock()
	return id, nil
}

// newChat always opens a fresh chat, used for the scheduler's briefing
// jobs (spec.md §4.6 fresh_chat=true).
func (c *Client) newChat(ctx context.Context, companionID, title string) (string, error) {
	return c.createChat(ctx, companionID, title)
}

func (c *Client) createChat(ctx context.Context, companionID, title string) (string, error) {
	body, err := json.Marshal(map[string]any{
		"choomId": companionID,
		"title":   title,
	})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/chats", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("companion: create chat: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("companion: create chat: status %d", resp.StatusCode)
	}

	var out struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	return out.ID, nil
}

// briefingChatTitle formats the fresh-chat title for scheduled briefings.
func briefingChatTitle(at time.Time) string {
	return "Briefing " + at.Format("2006-01-02")
}
