package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/sony/gobreaker"
)

const (
	defaultForecastURL   = "https://api.open-meteo.com/v1/forecast"
	defaultAirQualityURL = "https://air-quality-api.open-meteo.com/v1/air-quality"
)

// MetricWeatherCode is the WMO condition code key as Open-Meteo returns it.
const MetricWeatherCode = "weathercode"

var (
	currentMetrics = []string{
		"temperature_2m", "relative_humidity_2m",
		"apparent_temperature", "precipitation",
		"rain", MetricWeatherCode, "cloudcover",
		"windspeed_10m", "winddirection_10m",
		"pressure_msl", "visibility", "uv_index",
	}
	hourlyMetrics = []string{
		"temperature_2m", "precipitation_probability",
		"cloudcover", MetricWeatherCode, "windspeed_10m",
	}
	dailyMetrics = []string{
		"temperature_2m_max", "temperature_2m_min",
		"precipitation_sum", MetricWeatherCode, "windspeed_10m_max",
	}
	airQualityMetrics = []string{
		"pm10", "pm2_5", "european_aqi", "carbon_monoxide",
		"nitrogen_dioxide", "sulphur_dioxide", "ozone",
	}
)

// Endpoints overrides the Open-Meteo URLs, mainly for tests.
type Endpoints struct {
	Forecast   string `yaml:"forecast_url"`
	AirQuality string `yaml:"air_quality_url"`
}

// OpenMeteoClient is the Gateway implementation backed by Open-Meteo.
type OpenMeteoClient struct {
	endpoints Endpoints
	httpCfg   HTTPClientConfig
	forecast  *gobreaker.CircuitBreaker
	air       *gobreaker.CircuitBreaker
}

var _ Gateway = (*OpenMeteoClient)(nil)

// NewOpenMeteoClient creates a gateway. Empty endpoints select the public API.
func NewOpenMeteoClient(endpoints Endpoints, cfg HTTPClientConfig) *OpenMeteoClient {
	if endpoints.Forecast == "" {
		endpoints.Forecast = defaultForecastURL
	}
	if endpoints.AirQuality == "" {
		endpoints.AirQuality = defaultAirQualityURL
	}
	return &OpenMeteoClient{
		endpoints: endpoints,
		httpCfg:   cfg,
		forecast:  newBreaker("openmeteo-forecast"),
		air:       newBreaker("openmeteo-air-quality"),
	}
}

type currentResponse struct {
	Latitude  float64                    `json:"latitude"`
	Longitude float64                    `json:"longitude"`
	Timezone  string                     `json:"timezone"`
	Units     map[string]string          `json:"current_units"`
	Current   map[string]json.RawMessage `json:"current"`
}

type seriesResponse struct {
	Latitude    float64           `json:"latitude"`
	Longitude   float64           `json:"longitude"`
	Timezone    string            `json:"timezone"`
	HourlyUnits map[string]string `json:"hourly_units"`
	Hourly      map[string][]any  `json:"hourly"`
	DailyUnits  map[string]string `json:"daily_units"`
	Daily       map[string][]any  `json:"daily"`
}

func baseParams(c Coordinates) url.Values {
	values := url.Values{}
	values.Set("latitude", strconv.FormatFloat(c.Latitude, 'f', -1, 64))
	values.Set("longitude", strconv.FormatFloat(c.Longitude, 'f', -1, 64))
	values.Set("timezone", "auto")
	return values
}

// Current fetches current conditions.
func (o *OpenMeteoClient) Current(ctx context.Context, c Coordinates) (*Snapshot, error) {
	values := baseParams(c)
	values.Set("current", strings.Join(currentMetrics, ","))

	body, err := getJSON(ctx, o.httpCfg, o.forecast, o.endpoints.Forecast+"?"+values.Encode())
	if err != nil {
		return nil, err
	}

	var data currentResponse
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, fmt.Errorf("%w: current response: %v", ErrDataShape, err)
	}
	if len(data.Current) == 0 {
		return nil, fmt.Errorf("%w: missing 'current' block", ErrDataShape)
	}

	snap := &Snapshot{
		Latitude:  data.Latitude,
		Longitude: data.Longitude,
		Timezone:  data.Timezone,
		Metrics:   make(map[string]Metric, len(data.Current)),
	}
	for name, raw := range data.Current {
		switch name {
		case "time":
			if err := json.Unmarshal(raw, &snap.Timestamp); err != nil {
				return nil, fmt.Errorf("%w: current time: %v", ErrDataShape, err)
			}
			continue
		case "interval":
			continue
		}
		var v *float64
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, fmt.Errorf("%w: metric %s: %v", ErrDataShape, name, err)
		}
		if v == nil {
			continue
		}
		snap.Metrics[name] = Metric{Value: *v, Unit: data.Units[name]}
	}
	if _, ok := snap.Metrics["temperature_2m"]; !ok {
		return nil, fmt.Errorf("%w: missing metric temperature_2m", ErrDataShape)
	}
	return snap, nil
}

// Hourly fetches the fixed 7-hour forecast.
func (o *OpenMeteoClient) Hourly(ctx context.Context, c Coordinates) (*Forecast, error) {
	values := baseParams(c)
	values.Set("hourly", strings.Join(hourlyMetrics, ","))
	values.Set("forecast_hours", strconv.Itoa(HourlyHorizon))

	data, err := o.fetchSeries(ctx, values)
	if err != nil {
		return nil, err
	}
	series, err := withUnits(data.Hourly, data.HourlyUnits)
	if err != nil {
		return nil, fmt.Errorf("hourly: %w", err)
	}
	return &Forecast{
		Location: ForecastLocation{Latitude: data.Latitude, Longitude: data.Longitude, Timezone: data.Timezone},
		Kind:     KindHourly,
		Horizon:  HourlyHorizon,
		Series:   series,
	}, nil
}

// Daily fetches the fixed 7-day forecast.
func (o *OpenMeteoClient) Daily(ctx context.Context, c Coordinates) (*Forecast, error) {
	values := baseParams(c)
	values.Set("daily", strings.Join(dailyMetrics, ","))
	values.Set("forecast_days", strconv.Itoa(DailyHorizon))

	data, err := o.fetchSeries(ctx, values)
	if err != nil {
		return nil, err
	}
	series, err := withUnits(data.Daily, data.DailyUnits)
	if err != nil {
		return nil, fmt.Errorf("daily: %w", err)
	}
	return &Forecast{
		Location: ForecastLocation{Latitude: data.Latitude, Longitude: data.Longitude, Timezone: data.Timezone},
		Kind:     KindDaily,
		Horizon:  DailyHorizon,
		Series:   series,
	}, nil
}

// AirQuality fetches hourly pollutant levels.
func (o *OpenMeteoClient) AirQuality(ctx context.Context, c Coordinates) (*AirQuality, error) {
	values := baseParams(c)
	values.Set("hourly", strings.Join(airQualityMetrics, ","))

	body, err := getJSON(ctx, o.httpCfg, o.air, o.endpoints.AirQuality+"?"+values.Encode())
	if err != nil {
		return nil, err
	}
	var data seriesResponse
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, fmt.Errorf("%w: air quality response: %v", ErrDataShape, err)
	}
	series, err := withUnits(data.Hourly, data.HourlyUnits)
	if err != nil {
		return nil, fmt.Errorf("air quality: %w", err)
	}
	return &AirQuality{
		Location: ForecastLocation{Latitude: data.Latitude, Longitude: data.Longitude, Timezone: data.Timezone},
		Series:   series,
	}, nil
}

func (o *OpenMeteoClient) fetchSeries(ctx context.Context, values url.Values) (*seriesResponse, error) {
	body, err := getJSON(ctx, o.httpCfg, o.forecast, o.endpoints.Forecast+"?"+values.Encode())
	if err != nil {
		return nil, err
	}
	var data seriesResponse
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, fmt.Errorf("%w: forecast response: %v", ErrDataShape, err)
	}
	return &data, nil
}

// withUnits renames every series except "time" to "<metric> <unit>". A
// response without a time axis or without any metric is a shape error.
func withUnits(raw map[string][]any, units map[string]string) (map[string][]any, error) {
	if len(raw["time"]) == 0 {
		return nil, fmt.Errorf("%w: empty time axis", ErrDataShape)
	}
	out := make(map[string][]any, len(raw))
	for key, values := range raw {
		if key == "time" {
			out[key] = values
			continue
		}
		out[strings.TrimSpace(key+" "+units[key])] = values
	}
	if len(out) < 2 {
		return nil, fmt.Errorf("%w: no metric series", ErrDataShape)
	}
	return out, nil
}
