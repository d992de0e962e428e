package companion

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rotoslider/choom-bridge/internal/bridgeerr"
	"github.com/rotoslider/choom-bridge/internal/config"
)

// Image is a companion-generated image reference.
type Image struct {
	URL    string `json:"url"`
	ID     string `json:"id"`
	Prompt string `json:"prompt"`
}

// TurnResponse is the accumulated result of a streamed turn.
type TurnResponse struct {
	ChatID string
	Text   string
	Images []Image
}

// SendOptions controls a single send_message call.
type SendOptions struct {
	FreshChat bool // always open a new "Briefing <date>" chat
}

// defaultSettings are the hard-coded floor merged under the configuration
// store's provider settings and any companion-specific overrides.
func defaultSettings() map[string]any {
	return map[string]any{
		"weather":        map[string]any{},
		"search":         map[string]any{},
		"image_gen":      map[string]any{},
		"vision":         map[string]any{},
		"home_automation": map[string]any{},
	}
}

func (c *Client) buildSettings(comp *Companion) map[string]any {
	settings := defaultSettings()

	doc, err := c.store.Load()
	if err == nil {
		providersJSON, _ := json.Marshal(doc.Providers)
		var providersMap map[string]any
		if json.Unmarshal(providersJSON, &providersMap) == nil {
			settings = config.MergeJSON(settings, providersMap)
		}
	}

	if comp.Model != "" {
		settings = config.MergeJSON(settings, map[string]any{"model": comp.Model})
	}
	if comp.Endpoint != "" {
		settings = config.MergeJSON(settings, map[string]any{"endpoint": comp.Endpoint})
	}
	if len(comp.ImageGen) > 0 {
		settings = config.MergeJSON(settings, map[string]any{"image_gen": comp.ImageGen})
	}
	return settings
}

type rawStreamEvent struct {
	Type    string `json:"type"`
	Content string `json:"content"`
	URL     string `json:"url"`
	ID      string `json:"id"`
	Prompt  string `json:"prompt"`
	Message string `json:"message"`
}

// SendMessage resolves name to a companion, builds the settings block,
// opens or reuses a chat, streams the turn, and returns the accumulated
// text and images (spec.md §4.6).
func (c *Client) SendMessage(ctx context.Context, name, text string, opts SendOptions) (*TurnResponse, error) {
	comp, ok := c.GetByName(ctx, name)
	if !ok {
		return nil, bridgeerr.New(bridgeerr.NotFound, "companion not found: "+name)
	}

	var chatID string
	var err error
	if opts.FreshChat {
		chatID, err = c.newChat(ctx, comp.ID, briefingChatTitle(time.Now()))
	} else {
		chatID, err = c.GetOrCreateChat(ctx, comp.ID)
	}
	if err != nil {
		return nil, bridgeerr.Wrap(bridgeerr.UpstreamUnavailable, fmt.Errorf("open chat: %w", err))
	}

	settings := c.buildSettings(comp)
	reqBody, err := json.Marshal(map[string]any{
		"choomId":  comp.ID,
		"chatId":   chatID,
		"message":  text,
		"settings": settings,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/chat", bytes.NewReader(reqBody))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, bridgeerr.Wrap(bridgeerr.UpstreamUnavailable, fmt.Errorf("send message: %w", err))
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, bridgeerr.New(bridgeerr.UpstreamUnavailable, fmt.Sprintf("companion: send message status %d", resp.StatusCode))
	}

	return c.consumeStream(resp, chatID)
}

// consumeStream reads a Server-Sent-Events body line by line, accumulating
// content and images until a done/error event or EOF. The scanner buffer
// is enlarged because image_generated payloads can carry megabyte-scale
// base64 data URIs.
func (c *Client) consumeStream(resp *http.Response, chatID string) (*TurnResponse, error) {
	out := &TurnResponse{ChatID: chatID}

	scanner := bufio.NewScanner(resp.Body)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 16*1024*1024)

	var dataLines []string
	flush := func() (bool, error) {
		if len(dataLines) == 0 {
			return false, nil
		}
		payload := strings.Join(dataLines, "\n")
		dataLines = dataLines[:0]

		var ev rawStreamEvent
		if err := json.Unmarshal([]byte(payload), &ev); err != nil {
			c.log.Warn().Err(err).Str("payload", payload).Msg("companion stream: malformed event")
			return false, nil
		}
		switch ev.Type {
		case "content":
			out.Text += ev.Content
		case "tool_call", "tool_result":
			c.log.Debug().Str("type", ev.Type).Msg("companion stream: tool event")
		case "image_generated":
			out.Images = append(out.Images, Image{URL: ev.URL, ID: ev.ID, Prompt: ev.Prompt})
		case "done":
			return true, nil
		case "error":
			return true, bridgeerr.New(bridgeerr.UpstreamUnavailable, "companion stream error: "+ev.Message)
		}
		return false, nil
	}

	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case line == "":
			done, err := flush()
			if err != nil {
				return nil, err
			}
			if done {
				return out, nil
			}
		case strings.HasPrefix(line, "data:"):
			dataLines = append(dataLines, strings.TrimPrefix(strings.TrimPrefix(line, "data:"), " "))
		default:
			// ignore event:/id:/comment lines
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, bridgeerr.Wrap(bridgeerr.UpstreamUnavailable, fmt.Errorf("read companion stream: %w", err))
	}
	// Stream closed without an explicit done event; treat accumulated
	// content as the final result.
	if _, err := flush(); err != nil {
		return nil, err
	}
	return out, nil
}
