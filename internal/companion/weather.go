package companion

import (
	"context"
	"encoding/json"
	"net/http"
)

// WeatherReading is the subset of GET /api/weather's "weather" block the
// condition evaluator and scheduled weather jobs consume.
type WeatherReading struct {
	Description string  `json:"description"`
	Temperature float64 `json:"temperature"`
	FeelsLike   float64 `json:"feelsLike"`
	WindSpeed   float64 `json:"windSpeed"`
	Humidity    float64 `json:"humidity"`
}

// GetWeather fetches current conditions from the companion service's own
// weather endpoint (it proxies whichever provider is configured under
// providers.weather), optionally overriding the configured location.
func (c *Client) GetWeather(ctx context.Context, location string) (WeatherReading, error) {
	url := c.baseURL + "/api/weather"
	if location != "" {
		url += "?location=" + location
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return WeatherReading{}, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return WeatherReading{}, err
	}
	defer resp.Body.Close()

	var body struct {
		Weather struct {
			Location string `json:"location"`
			WeatherReading
		} `json:"weather"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return WeatherReading{}, err
	}
	return body.Weather.WeatherReading, nil
}
