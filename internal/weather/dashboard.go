package weather

import (
	"context"
	"fmt"
	"log"
)

// FetchDashboard resolves name and gathers the data shown after a location
// search. Current conditions are required; the forecasts and air quality are
// best effort and left nil when their fetch fails.
func FetchDashboard(ctx context.Context, geocoder Geocoder, gateway Gateway, name string) (*Dashboard, error) {
	coords, err := geocoder.Resolve(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("resolve %q: %w", name, err)
	}

	current, err := gateway.Current(ctx, *coords)
	if err != nil {
		return nil, fmt.Errorf("current weather for %q: %w", name, err)
	}
	current.Location = name

	d := &Dashboard{
		Location:  name,
		Latitude:  coords.Latitude,
		Longitude: coords.Longitude,
		Current:   current,
	}

	if d.Hourly, err = gateway.Hourly(ctx, *coords); err != nil {
		log.Printf("WARNING: hourly forecast for %s unavailable: %v", name, err)
	} else {
		d.Hourly.LocationName = name
	}
	if d.Daily, err = gateway.Daily(ctx, *coords); err != nil {
		log.Printf("WARNING: daily forecast for %s unavailable: %v", name, err)
	} else {
		d.Daily.LocationName = name
	}
	if d.AirQuality, err = gateway.AirQuality(ctx, *coords); err != nil {
		log.Printf("WARNING: air quality for %s unavailable: %v", name, err)
	}
	return d, nil
}
