package tools

import (
	"context"
	"fmt"
	"log"

	"github.com/dileep-u-k/weather-companion/internal/weather"
)

// WeatherTool implements get_weather_for_location.
type WeatherTool struct {
	svc *Service
}

var _ ToolExecutor = (*WeatherTool)(nil)

func NewWeatherTool(svc *Service) *WeatherTool {
	return &WeatherTool{svc: svc}
}

func (wt *WeatherTool) Definition() Tool {
	return NewFunctionTool(
		NameCurrentWeather,
		"Get current weather for a location by name. Resolves the name to coordinates and fetches "+
			"current conditions. Never use it for the dashboard's own location, whose data is already provided.",
		locationSchema("current weather"),
	)
}

// Execute resolves the location first; the gateway is only called once the
// coordinates are known.
func (wt *WeatherTool) Execute(ctx context.Context, arguments string) (*Result, error) {
	location, err := ParseLocationArgs(arguments)
	if err != nil {
		return nil, fmt.Errorf("invalid arguments for %s: %w", NameCurrentWeather, err)
	}
	log.Printf("🌤️ Getting weather for location: %s", location)

	snap, err := wt.svc.CurrentWeather(ctx, location)
	if err != nil {
		return errorResult(location, ErrorMessage(weather.KindCurrent, location, err)), nil
	}
	return jsonResult(location, snap)
}
