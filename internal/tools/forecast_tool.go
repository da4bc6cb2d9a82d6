package tools

import (
	"context"
	"fmt"
	"log"

	"github.com/dileep-u-k/weather-companion/internal/weather"
)

// ForecastTool implements the hourly and daily forecast tools. The two only
// differ in name, description and gateway call.
type ForecastTool struct {
	name        string
	kind        string
	description string
	fetch       func(ctx context.Context, location string) (*weather.Forecast, error)
}

var _ ToolExecutor = (*ForecastTool)(nil)

// NewHourlyForecastTool creates get_hourly_forecast.
func NewHourlyForecastTool(svc *Service) *ForecastTool {
	return &ForecastTool{
		name: NameHourlyForecast,
		kind: weather.KindHourly,
		description: "Get the 7-hour weather forecast for a location by name. Use for short-term questions: " +
			"the next few hours, changes during today, or immediate plans. Call at most once per location.",
		fetch: svc.HourlyForecast,
	}
}

// NewDailyForecastTool creates get_daily_forecast.
func NewDailyForecastTool(svc *Service) *ForecastTool {
	return &ForecastTool{
		name: NameDailyForecast,
		kind: weather.KindDaily,
		description: "Get the 7-day weather forecast for a location by name, with daily highs, lows, " +
			"precipitation and conditions. Use for questions about the coming days or week. Call at most once per location.",
		fetch: svc.DailyForecast,
	}
}

func (ft *ForecastTool) Definition() Tool {
	return NewFunctionTool(ft.name, ft.description, locationSchema(ft.kind+" forecast"))
}

func (ft *ForecastTool) Execute(ctx context.Context, arguments string) (*Result, error) {
	location, err := ParseLocationArgs(arguments)
	if err != nil {
		return nil, fmt.Errorf("invalid arguments for %s: %w", ft.name, err)
	}
	log.Printf("📈 Getting %s forecast for location: %s", ft.kind, location)

	forecast, err := ft.fetch(ctx, location)
	if err != nil {
		return errorResult(location, ErrorMessage(ft.kind, location, err)), nil
	}
	return jsonResult(location, forecast)
}
