package weather

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const currentBody = `{
  "latitude": 48.86, "longitude": 2.34, "timezone": "Europe/Paris",
  "current_units": {"time": "iso8601", "interval": "seconds", "temperature_2m": "°C", "relative_humidity_2m": "%", "weathercode": "wmo code", "uv_index": ""},
  "current": {"time": "2026-10-15T12:00", "interval": 900, "temperature_2m": 18.4, "relative_humidity_2m": 61, "weathercode": 3, "uv_index": null}
}`

const hourlyBody = `{
  "latitude": 51.5, "longitude": -0.12, "timezone": "Europe/London",
  "hourly_units": {"time": "iso8601", "temperature_2m": "°C", "precipitation_probability": "%"},
  "hourly": {
    "time": ["2026-10-15T12:00", "2026-10-15T13:00"],
    "temperature_2m": [14.1, 14.8],
    "precipitation_probability": [20, 35]
  }
}`

func testConfig() HTTPClientConfig {
	return HTTPClientConfig{
		Client:  &http.Client{Timeout: 2 * time.Second},
		Backoff: BackoffConfig{MaxRetries: 0, InitialInterval: time.Millisecond},
	}
}

func TestCurrentParsesMetricsWithUnits(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "auto", r.URL.Query().Get("timezone"))
		assert.Contains(t, r.URL.Query().Get("current"), "temperature_2m")
		_, _ = w.Write([]byte(currentBody))
	}))
	defer srv.Close()

	client := NewOpenMeteoClient(Endpoints{Forecast: srv.URL}, testConfig())
	snap, err := client.Current(context.Background(), Coordinates{Latitude: 48.86, Longitude: 2.34})
	require.NoError(t, err)

	assert.Equal(t, "2026-10-15T12:00", snap.Timestamp)
	assert.Equal(t, "Europe/Paris", snap.Timezone)
	assert.Equal(t, Metric{Value: 18.4, Unit: "°C"}, snap.Metrics["temperature_2m"])
	assert.Equal(t, Metric{Value: 61, Unit: "%"}, snap.Metrics["relative_humidity_2m"])
	assert.NotContains(t, snap.Metrics, "interval")
	assert.NotContains(t, snap.Metrics, "uv_index")
}

func TestCurrentMissingBlockIsShapeError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"latitude": 1, "longitude": 2}`))
	}))
	defer srv.Close()

	client := NewOpenMeteoClient(Endpoints{Forecast: srv.URL}, testConfig())
	_, err := client.Current(context.Background(), Coordinates{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDataShape)
	assert.NotErrorIs(t, err, ErrFetch)
}

func TestHourlyAppendsUnitsExceptTime(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "7", r.URL.Query().Get("forecast_hours"))
		_, _ = w.Write([]byte(hourlyBody))
	}))
	defer srv.Close()

	client := NewOpenMeteoClient(Endpoints{Forecast: srv.URL}, testConfig())
	f, err := client.Hourly(context.Background(), Coordinates{Latitude: 51.5, Longitude: -0.12})
	require.NoError(t, err)

	assert.Equal(t, KindHourly, f.Kind)
	assert.Equal(t, HourlyHorizon, f.Horizon)
	assert.Equal(t, "Europe/London", f.Location.Timezone)
	assert.Len(t, f.Times(), 2)
	assert.Contains(t, f.Series, "temperature_2m °C")
	assert.Contains(t, f.Series, "precipitation_probability %")
	assert.NotContains(t, f.Series, "temperature_2m")
}

func TestDailyEmptySeriesIsShapeError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "7", r.URL.Query().Get("forecast_days"))
		_, _ = w.Write([]byte(`{"latitude": 1, "longitude": 2, "timezone": "UTC", "daily": {"time": []}}`))
	}))
	defer srv.Close()

	client := NewOpenMeteoClient(Endpoints{Forecast: srv.URL}, testConfig())
	_, err := client.Daily(context.Background(), Coordinates{})
	assert.ErrorIs(t, err, ErrDataShape)
}

func TestServerErrorIsRetriedThenFetchError(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	cfg := testConfig()
	cfg.Backoff.MaxRetries = 2
	client := NewOpenMeteoClient(Endpoints{Forecast: srv.URL}, cfg)

	_, err := client.Current(context.Background(), Coordinates{})
	assert.ErrorIs(t, err, ErrFetch)
	assert.Equal(t, int32(3), calls.Load())
}

func TestTimeoutCapsRetrySequence(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(80 * time.Millisecond)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	cfg := HTTPClientConfig{
		Client:  &http.Client{Timeout: 200 * time.Millisecond},
		Backoff: BackoffConfig{MaxRetries: 10, InitialInterval: 50 * time.Millisecond, MaxInterval: 50 * time.Millisecond},
	}
	client := NewOpenMeteoClient(Endpoints{Forecast: srv.URL}, cfg)

	start := time.Now()
	_, err := client.Current(context.Background(), Coordinates{})
	assert.ErrorIs(t, err, ErrFetch)
	assert.Less(t, time.Since(start), time.Second)
}

func TestClientErrorIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	cfg := testConfig()
	cfg.Backoff.MaxRetries = 3
	client := NewOpenMeteoClient(Endpoints{Forecast: srv.URL}, cfg)

	_, err := client.Hourly(context.Background(), Coordinates{})
	assert.ErrorIs(t, err, ErrFetch)
	assert.Equal(t, int32(1), calls.Load())
}

func TestAirQualitySeries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"latitude": 1, "longitude": 2, "timezone": "UTC",
			"hourly_units": {"pm10": "μg/m³"},
			"hourly": {"time": ["2026-10-15T00:00"], "pm10": [12.5]}}`))
	}))
	defer srv.Close()

	client := NewOpenMeteoClient(Endpoints{AirQuality: srv.URL}, testConfig())
	aq, err := client.AirQuality(context.Background(), Coordinates{})
	require.NoError(t, err)
	assert.Equal(t, []any{12.5}, aq.Series["pm10 μg/m³"])
}

func TestDescribe(t *testing.T) {
	assert.Equal(t, "Thunderstorm", Describe(95).Description)
	assert.True(t, Describe(95).Severe)
	assert.Equal(t, "Unknown", Describe(1234).Description)
}
