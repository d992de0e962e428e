package companion

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
)

// ServiceStatus is one subsystem's reported connectivity.
type ServiceStatus struct {
	Status string `json:"status"`
}

// HealthReport is the companion service's /api/health response: one
// ServiceStatus per configured endpoint name (llm, memory, tts, stt,
// imageGen).
type HealthReport struct {
	Services map[string]ServiceStatus `json:"services"`
}

// Connected reports whether every checked subsystem is "connected".
func (h HealthReport) Connected() bool {
	for _, s := range h.Services {
		if s.Status != "connected" {
			return false
		}
	}
	return true
}

// Unhealthy returns "<name>: <status>" for each subsystem not reporting
// "connected" (scheduler.py:1535 "f'- {service_name}: {status}'").
func (h HealthReport) Unhealthy() []string {
	var out []string
	for name, s := range h.Services {
		if s.Status != "connected" {
			out = append(out, name+": "+s.Status)
		}
	}
	return out
}

// CheckHealth asks the companion service to probe its configured
// endpoints (LLM, memory, TTS, STT, image generation).
func (c *Client) CheckHealth(ctx context.Context, endpoints map[string]string) (HealthReport, error) {
	body, err := json.Marshal(map[string]any{"endpoints": endpoints})
	if err != nil {
		return HealthReport{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/health", bytes.NewReader(body))
	if err != nil {
		return HealthReport{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return HealthReport{}, err
	}
	defer resp.Body.Close()

	var report HealthReport
	if err := json.NewDecoder(resp.Body).Decode(&report); err != nil {
		return HealthReport{}, err
	}
	return report, nil
}
