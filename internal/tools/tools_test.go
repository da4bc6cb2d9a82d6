package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/dileep-u-k/weather-companion/internal/weather"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGeocoder struct {
	known map[string]weather.Coordinates
	err   error
}

func (f *fakeGeocoder) Resolve(_ context.Context, name string) (*weather.Coordinates, error) {
	if f.err != nil {
		return nil, f.err
	}
	c, ok := f.known[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", weather.ErrLocationNotFound, name)
	}
	return &c, nil
}

type fakeGateway struct {
	calls   int
	err     error
	hourly  *weather.Forecast
	current *weather.Snapshot
}

func (f *fakeGateway) Current(_ context.Context, c weather.Coordinates) (*weather.Snapshot, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	snap := *f.current
	snap.Latitude, snap.Longitude = c.Latitude, c.Longitude
	return &snap, nil
}

func (f *fakeGateway) Hourly(_ context.Context, _ weather.Coordinates) (*weather.Forecast, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	fc := *f.hourly
	return &fc, nil
}

func (f *fakeGateway) Daily(_ context.Context, _ weather.Coordinates) (*weather.Forecast, error) {
	f.calls++
	return nil, fmt.Errorf("%w: empty time axis", weather.ErrDataShape)
}

func (f *fakeGateway) AirQuality(_ context.Context, _ weather.Coordinates) (*weather.AirQuality, error) {
	f.calls++
	return nil, weather.ErrFetch
}

func newFakes() (*fakeGeocoder, *fakeGateway) {
	geo := &fakeGeocoder{known: map[string]weather.Coordinates{
		"Tokyo":  {Latitude: 35.69, Longitude: 139.69},
		"London": {Latitude: 51.5, Longitude: -0.12},
	}}
	gw := &fakeGateway{
		current: &weather.Snapshot{
			Timestamp: "2026-10-15T12:00",
			Metrics:   map[string]weather.Metric{"temperature_2m": {Value: 21.5, Unit: "°C"}},
		},
		hourly: &weather.Forecast{
			Kind:    weather.KindHourly,
			Horizon: weather.HourlyHorizon,
			Series: map[string][]any{
				"time":              {"12:00", "13:00"},
				"temperature_2m °C": {14.1, 14.8},
			},
		},
	}
	return geo, gw
}

func TestWeatherToolReturnsTaggedSnapshot(t *testing.T) {
	geo, gw := newFakes()
	tool := NewWeatherTool(NewService(geo, gw))

	res, err := tool.Execute(context.Background(), `{"location": "Tokyo"}`)
	require.NoError(t, err)
	assert.False(t, res.Failed)
	assert.Equal(t, "Tokyo", res.Location)

	var snap weather.Snapshot
	require.NoError(t, json.Unmarshal([]byte(res.Content), &snap))
	assert.Equal(t, "Tokyo", snap.Location)
	assert.InDelta(t, 35.69, snap.Latitude, 1e-9)
	assert.Equal(t, 21.5, snap.Metrics["temperature_2m"].Value)
}

func TestUnknownLocationSkipsGateway(t *testing.T) {
	geo, gw := newFakes()
	tool := NewWeatherTool(NewService(geo, gw))

	res, err := tool.Execute(context.Background(), `{"location": "Atlantis"}`)
	require.NoError(t, err)
	assert.True(t, res.Failed)
	assert.JSONEq(t, `{"error": "could not find coordinates for Atlantis"}`, res.Content)
	assert.Equal(t, 0, gw.calls)
}

func TestGeocoderTransportErrorReportedAsResolution(t *testing.T) {
	geo, gw := newFakes()
	geo.err = weather.ErrFetch
	tool := NewHourlyForecastTool(NewService(geo, gw))

	res, err := tool.Execute(context.Background(), `{"location": "Tokyo"}`)
	require.NoError(t, err)
	assert.JSONEq(t, `{"error": "could not find coordinates for Tokyo"}`, res.Content)
}

func TestGatewayFailureMessages(t *testing.T) {
	geo, gw := newFakes()
	gw.err = fmt.Errorf("%w: timeout", weather.ErrFetch)
	svc := NewService(geo, gw)

	res, err := NewWeatherTool(svc).Execute(context.Background(), `{"location": "London"}`)
	require.NoError(t, err)
	assert.JSONEq(t, `{"error": "weather data unavailable"}`, res.Content)

	res, err = NewHourlyForecastTool(svc).Execute(context.Background(), `{"location": "London"}`)
	require.NoError(t, err)
	assert.JSONEq(t, `{"error": "hourly forecast data unavailable"}`, res.Content)
}

func TestDataShapeIsDistinctFromFetch(t *testing.T) {
	geo, gw := newFakes()
	res, err := NewDailyForecastTool(NewService(geo, gw)).Execute(context.Background(), `{"location": "London"}`)
	require.NoError(t, err)
	assert.True(t, res.Failed)
	assert.JSONEq(t, `{"error": "weather data format error for London"}`, res.Content)
}

func TestHourlyForecastTool(t *testing.T) {
	geo, gw := newFakes()
	res, err := NewHourlyForecastTool(NewService(geo, gw)).Execute(context.Background(), `{"location": "London"}`)
	require.NoError(t, err)

	var f weather.Forecast
	require.NoError(t, json.Unmarshal([]byte(res.Content), &f))
	assert.Equal(t, 7, f.Horizon)
	assert.Equal(t, "London", f.LocationName)
	assert.Contains(t, f.Series, "time")
	assert.Contains(t, f.Series, "temperature_2m °C")
}

func TestInvalidArguments(t *testing.T) {
	geo, gw := newFakes()
	tool := NewWeatherTool(NewService(geo, gw))

	_, err := tool.Execute(context.Background(), `{"location": ""}`)
	assert.Error(t, err)
	_, err = tool.Execute(context.Background(), `not json`)
	assert.Error(t, err)
}

func TestWeatherToolManager(t *testing.T) {
	geo, gw := newFakes()
	manager := NewWeatherToolManager(NewService(geo, gw))

	assert.Equal(t, 3, manager.ToolCount())
	defs := manager.GetDefinitions()
	require.Len(t, defs, 3)
	assert.Equal(t, NameDailyForecast, defs[0].Function.Name)
	assert.Equal(t, NameHourlyForecast, defs[1].Function.Name)
	assert.Equal(t, NameCurrentWeather, defs[2].Function.Name)
	assert.Equal(t, []string{"location"}, defs[2].Function.Parameters.Required)

	_, err := manager.Execute(context.Background(), "calculate", `{}`)
	assert.Error(t, err)

	res, err := manager.Execute(context.Background(), NameCurrentWeather, EncodeLocationArgs("Tokyo"))
	require.NoError(t, err)
	assert.False(t, res.Failed)
}

func TestKindOf(t *testing.T) {
	kind, ok := KindOf(NameHourlyForecast)
	assert.True(t, ok)
	assert.Equal(t, weather.KindHourly, kind)
	_, ok = KindOf("getNewsHeadlines")
	assert.False(t, ok)
}
