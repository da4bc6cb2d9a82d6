// Package weather contains the location resolver and the Open-Meteo data
// gateway used by the dashboard and by the assistant's tools.
//
// Everything in this package is plain I/O: a name goes in, coordinates or
// weather series come out. Callers classify failures with errors.Is against
// the sentinel errors below.
package weather

import (
	"context"
	"errors"
)

var (
	// ErrLocationNotFound is returned when a place name cannot be geocoded.
	ErrLocationNotFound = errors.New("location not found")
	// ErrFetch covers transport failures, timeouts and non-2xx responses.
	ErrFetch = errors.New("weather fetch failed")
	// ErrDataShape is returned when a successful response lacks expected fields.
	ErrDataShape = errors.New("unexpected weather data shape")
)

// Forecast kinds. They double as the data-kind half of the assistant's
// (location, kind) redundancy key.
const (
	KindCurrent = "current"
	KindHourly  = "hourly"
	KindDaily   = "daily"
)

// Fixed forecast horizons.
const (
	HourlyHorizon = 7 // hours
	DailyHorizon  = 7 // days
)

// Coordinates is the result of resolving a place name.
type Coordinates struct {
	Name      string  `json:"name,omitempty"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Timezone  string  `json:"timezone,omitempty"`
}

// Valid reports whether the coordinates lie within the WGS84 ranges.
func (c Coordinates) Valid() bool {
	return c.Latitude >= -90 && c.Latitude <= 90 && c.Longitude >= -180 && c.Longitude <= 180
}

// Metric is a single current-conditions value with its unit.
type Metric struct {
	Value float64 `json:"value"`
	Unit  string  `json:"unit"`
}

// Snapshot is a point-in-time fetch of current conditions. It is never
// mutated after the gateway returns it.
type Snapshot struct {
	Location  string            `json:"location"`
	Latitude  float64           `json:"latitude"`
	Longitude float64           `json:"longitude"`
	Timezone  string            `json:"timezone"`
	Timestamp string            `json:"timestamp"`
	Metrics   map[string]Metric `json:"metrics"`
}

// Value returns the metric value and whether it was present.
func (s *Snapshot) Value(name string) (float64, bool) {
	if s == nil {
		return 0, false
	}
	m, ok := s.Metrics[name]
	return m.Value, ok
}

// ForecastLocation is the location block Open-Meteo echoes back.
type ForecastLocation struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Timezone  string  `json:"timezone"`
}

// Forecast is an hourly or daily series keyed by "<metric> <unit>". The
// time axis is kept under the plain "time" key.
type Forecast struct {
	Location     ForecastLocation `json:"location"`
	LocationName string           `json:"location_name,omitempty"`
	Kind         string           `json:"kind"`
	Horizon      int              `json:"horizon"`
	Series       map[string][]any `json:"series"`
}

// Times returns the time axis of the forecast.
func (f *Forecast) Times() []any {
	if f == nil {
		return nil
	}
	return f.Series["time"]
}

// AirQuality holds the hourly pollutant series for a location.
type AirQuality struct {
	Location ForecastLocation `json:"location"`
	Series   map[string][]any `json:"series"`
}

// Dashboard is everything the presentation layer renders after a location search.
type Dashboard struct {
	Location   string      `json:"location"`
	Latitude   float64     `json:"latitude"`
	Longitude  float64     `json:"longitude"`
	Current    *Snapshot   `json:"current"`
	Hourly     *Forecast   `json:"hourly,omitempty"`
	Daily      *Forecast   `json:"daily,omitempty"`
	AirQuality *AirQuality `json:"air_quality,omitempty"`
}

// Geocoder resolves place names to coordinates.
type Geocoder interface {
	Resolve(ctx context.Context, name string) (*Coordinates, error)
}

// Gateway fetches weather data for resolved coordinates.
type Gateway interface {
	Current(ctx context.Context, c Coordinates) (*Snapshot, error)
	Hourly(ctx context.Context, c Coordinates) (*Forecast, error)
	Daily(ctx context.Context, c Coordinates) (*Forecast, error)
	AirQuality(ctx context.Context, c Coordinates) (*AirQuality, error)
}
