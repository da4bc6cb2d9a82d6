package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/url"
	"strings"

	"github.com/sony/gobreaker"
)

const defaultGeocodingURL = "https://geocoding-api.open-meteo.com/v1/search"

type geocodingResult struct {
	Name      string  `json:"name"`
	State     string  `json:"admin1"`
	Country   string  `json:"country"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Timezone  string  `json:"timezone"`
}

type geocodingResponse struct {
	Results []geocodingResult `json:"results"`
}

// OpenMeteoGeocoder resolves place names with the Open-Meteo geocoding API.
type OpenMeteoGeocoder struct {
	baseURL string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

var _ Geocoder = (*OpenMeteoGeocoder)(nil)

// NewOpenMeteoGeocoder creates a geocoder. An empty baseURL selects the
// public endpoint.
func NewOpenMeteoGeocoder(baseURL string, cfg HTTPClientConfig) *OpenMeteoGeocoder {
	if baseURL == "" {
		baseURL = defaultGeocodingURL
	}
	return &OpenMeteoGeocoder{
		baseURL: baseURL,
		httpCfg: cfg,
		circuit: newBreaker("openmeteo-geocoding"),
	}
}

// Resolve returns the best match for name. "City, Region" inputs are matched
// against the region or country of each candidate, since the API only
// searches by place name.
func (g *OpenMeteoGeocoder) Resolve(ctx context.Context, name string) (*Coordinates, error) {
	query := strings.TrimSpace(name)
	if query == "" {
		return nil, fmt.Errorf("%w: empty location name", ErrLocationNotFound)
	}

	city, qualifier := query, ""
	if i := strings.Index(query, ","); i > 0 {
		city = strings.TrimSpace(query[:i])
		qualifier = strings.TrimSpace(query[i+1:])
	}

	count := 1
	if qualifier != "" {
		count = 10
	}
	values := url.Values{}
	values.Set("name", city)
	values.Set("count", fmt.Sprintf("%d", count))
	values.Set("language", "en")
	values.Set("format", "json")

	body, err := getJSON(ctx, g.httpCfg, g.circuit, g.baseURL+"?"+values.Encode())
	if err != nil {
		return nil, err
	}

	var data geocodingResponse
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, fmt.Errorf("%w: geocoding response: %v", ErrDataShape, err)
	}
	if len(data.Results) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrLocationNotFound, name)
	}

	best := data.Results[0]
	if qualifier != "" {
		found := false
		for _, r := range data.Results {
			if matchesQualifier(r, qualifier) {
				best, found = r, true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("%w: %s", ErrLocationNotFound, name)
		}
	}

	coords := &Coordinates{
		Name:      best.Name,
		Latitude:  best.Latitude,
		Longitude: best.Longitude,
		Timezone:  best.Timezone,
	}
	if !coords.Valid() {
		return nil, fmt.Errorf("%w: coordinates out of range for %s", ErrDataShape, name)
	}
	log.Printf("📍 Coordinates found for %s: (%.4f, %.4f)", name, coords.Latitude, coords.Longitude)
	return coords, nil
}

func matchesQualifier(r geocodingResult, qualifier string) bool {
	q := strings.ToLower(qualifier)
	for _, field := range []string{r.State, r.Country} {
		f := strings.ToLower(field)
		if f == "" {
			continue
		}
		if f == q || strings.HasPrefix(f, q) {
			return true
		}
	}
	return false
}
