package companion

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

type rawCompanion struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	VoiceID     string         `json:"voiceId"`
	Model       string         `json:"llmModel"`
	Endpoint    string         `json:"llmEndpoint"`
	ImageGen    map[string]any `json:"imageSettings"`
}

// FetchCompanions replaces the in-memory directory from GET /api/chooms.
func (c *Client) FetchCompanions(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/chooms", nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("companion: fetch directory: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("companion: fetch directory: status %d", resp.StatusCode)
	}

	var raw []rawCompanion
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return fmt.Errorf("companion: decode directory: %w", err)
	}

	byName := make(map[string]*Companion, len(raw))
	byID := make(map[string]*Companion, len(raw))
	for _, r := range raw {
		comp := &Companion{
			ID:          r.ID,
			Name:        r.Name,
			Description: r.Description,
			VoiceID:     r.VoiceID,
			Model:       r.Model,
			Endpoint:    r.Endpoint,
			ImageGen:    r.ImageGen,
		}
		byName[strings.ToLower(r.Name)] = comp
		byID[r.ID] = comp
	}

	c.directoryMu.Lock()
	c.directory = byName
	c.directoryByID = byID
	c.directoryFetched = time.Now()
	c.directoryMu.Unlock()
	return nil
}

// ensureFresh re-fetches the directory if stale, retaining the last-known
// view when the refresh fails.
func (c *Client) ensureFresh(ctx context.Context) {
	c.directoryMu.RLock()
	age := time.Since(c.directoryFetched)
	empty := len(c.directory) == 0
	c.directoryMu.RUnlock()

	if !empty && age < c.directoryTTL {
		return
	}
	if err := c.FetchCompanions(ctx); err != nil {
		c.log.Warn().Err(err).Msg("companion directory refresh failed, retaining stale view")
	}
}

// GetByName resolves a companion by case-insensitive name after ensuring
// the directory is fresh.
func (c *Client) GetByName(ctx context.Context, name string) (*Companion, bool) {
	c.ensureFresh(ctx)
	c.directoryMu.RLock()
	defer c.directoryMu.RUnlock()
	comp, ok := c.directory[strings.ToLower(name)]
	return comp, ok
}

// GetByID resolves a companion by id after ensuring the directory is fresh.
func (c *Client) GetByID(ctx context.Context, id string) (*Companion, bool) {
	c.ensureFresh(ctx)
	c.directoryMu.RLock()
	defer c.directoryMu.RUnlock()
	comp, ok := c.directoryByID[id]
	return comp, ok
}
