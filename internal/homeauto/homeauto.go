// Package homeauto is the narrow Home Assistant collaborator the
// condition evaluator's "home_assistant" condition depends on
// (SPEC_FULL.md §4.11, spec.md §4.8).
package homeauto

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// State is an entity's current reported state, as returned by
// GET /api/states/<entity_id>.
type State struct {
	EntityID string
	Value    string // raw state string, e.g. "21.5" or "unavailable"
}

// Unavailable reports whether the state should be treated as missing
// data rather than a comparable value.
func (s State) Unavailable() bool {
	v := strings.ToLower(strings.TrimSpace(s.Value))
	return v == "" || v == "unavailable" || v == "unknown"
}

// Client fetches entity state from a Home Assistant instance.
type Client interface {
	GetState(ctx context.Context, entityID string) (State, error)
}

// HTTPClient is the production Client, authenticating with a bearer
// token against a configured base URL.
type HTTPClient struct {
	BaseURL    string
	Token      string
	HTTPClient *http.Client
}

// NewHTTPClient creates a client with a sane request timeout.
func NewHTTPClient(baseURL, token string) *HTTPClient {
	return &HTTPClient{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		Token:      token,
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *HTTPClient) GetState(ctx context.Context, entityID string) (State, error) {
	url := fmt.Sprintf("%s/api/states/%s", c.BaseURL, entityID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return State{}, err
	}
	req.Header.Set("Authorization", "Bearer "+c.Token)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return State{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return State{}, fmt.Errorf("homeauto: unexpected status %d for %s", resp.StatusCode, entityID)
	}

	var body struct {
		EntityID string `json:"entity_id"`
		State    string `json:"state"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return State{}, err
	}
	return State{EntityID: body.EntityID, Value: body.State}, nil
}

var _ Client = (*HTTPClient)(nil)
