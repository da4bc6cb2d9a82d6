package tools

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/dileep-u-k/weather-companion/internal/weather"
)

// Service composes the location resolver and the data gateway into the three
// location-name-in, structured-data-out operations behind the tools.
type Service struct {
	geocoder weather.Geocoder
	gateway  weather.Gateway
}

func NewService(geocoder weather.Geocoder, gateway weather.Gateway) *Service {
	return &Service{geocoder: geocoder, gateway: gateway}
}

// CurrentWeather returns a snapshot tagged with the requested location name.
func (s *Service) CurrentWeather(ctx context.Context, location string) (*weather.Snapshot, error) {
	coords, err := s.resolve(ctx, location)
	if err != nil {
		return nil, err
	}
	snap, err := s.gateway.Current(ctx, *coords)
	if err != nil {
		return nil, err
	}
	snap.Location = location
	return snap, nil
}

// HourlyForecast returns the 7-hour forecast for location.
func (s *Service) HourlyForecast(ctx context.Context, location string) (*weather.Forecast, error) {
	coords, err := s.resolve(ctx, location)
	if err != nil {
		return nil, err
	}
	f, err := s.gateway.Hourly(ctx, *coords)
	if err != nil {
		return nil, err
	}
	f.LocationName = location
	return f, nil
}

// DailyForecast returns the 7-day forecast for location.
func (s *Service) DailyForecast(ctx context.Context, location string) (*weather.Forecast, error) {
	coords, err := s.resolve(ctx, location)
	if err != nil {
		return nil, err
	}
	f, err := s.gateway.Daily(ctx, *coords)
	if err != nil {
		return nil, err
	}
	f.LocationName = location
	return f, nil
}

// resolve maps every geocoding failure, including transport errors, to
// ErrLocationNotFound so the tools report them uniformly.
func (s *Service) resolve(ctx context.Context, location string) (*weather.Coordinates, error) {
	coords, err := s.geocoder.Resolve(ctx, location)
	if err != nil {
		log.Printf("Geocoding failed for '%s': %v", location, err)
		if errors.Is(err, weather.ErrLocationNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %s: %v", weather.ErrLocationNotFound, location, err)
	}
	return coords, nil
}

// ErrorMessage is the text reported back to the model for a failed fetch.
func ErrorMessage(kind, location string, err error) string {
	switch {
	case errors.Is(err, weather.ErrLocationNotFound):
		return fmt.Sprintf("could not find coordinates for %s", location)
	case errors.Is(err, weather.ErrDataShape):
		return fmt.Sprintf("weather data format error for %s", location)
	}
	switch kind {
	case weather.KindHourly:
		return "hourly forecast data unavailable"
	case weather.KindDaily:
		return "daily forecast data unavailable"
	default:
		return "weather data unavailable"
	}
}
