package agent

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/dileep-u-k/weather-companion/internal/conversation"
	"github.com/dileep-u-k/weather-companion/internal/llm"
	"github.com/dileep-u-k/weather-companion/internal/tools"
	"github.com/dileep-u-k/weather-companion/internal/weather"
	"github.com/stretchr/testify/require"
)

// fakeWeather is both the geocoder and the gateway.
type fakeWeather struct {
	mu       sync.Mutex
	temps    map[string]float64
	failing  map[string]bool
	resolves map[string]int
	fetches  map[string]int // "kind|name"
}

func newFakeWeather() *fakeWeather {
	return &fakeWeather{
		temps:    map[string]float64{"paris": 18, "tokyo": 24, "london": 12, "oslo": 3, "berlin": 15},
		failing:  map[string]bool{"oslo": true},
		resolves: make(map[string]int),
		fetches:  make(map[string]int),
	}
}

func (f *fakeWeather) Resolve(_ context.Context, name string) (*weather.Coordinates, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := weather.NormalizeName(name)
	f.resolves[key]++
	if _, ok := f.temps[key]; !ok {
		return nil, fmt.Errorf("%w: %s", weather.ErrLocationNotFound, name)
	}
	return &weather.Coordinates{Name: key, Latitude: 10, Longitude: 20, Timezone: "UTC"}, nil
}

func (f *fakeWeather) fetch(kind string, c weather.Coordinates) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetches[kind+"|"+c.Name]++
	if f.failing[c.Name] {
		return fmt.Errorf("%w: status 503", weather.ErrFetch)
	}
	return nil
}

func (f *fakeWeather) Current(_ context.Context, c weather.Coordinates) (*weather.Snapshot, error) {
	if err := f.fetch(weather.KindCurrent, c); err != nil {
		return nil, err
	}
	return &weather.Snapshot{
		Latitude:  c.Latitude,
		Longitude: c.Longitude,
		Timezone:  c.Timezone,
		Timestamp: "2026-10-16T12:00",
		Metrics: map[string]weather.Metric{
			"temperature_2m":          {Value: f.temps[c.Name], Unit: "°C"},
			weather.MetricWeatherCode: {Value: 2, Unit: "wmo code"},
		},
	}, nil
}

func (f *fakeWeather) series(kind string, horizon int, c weather.Coordinates) (*weather.Forecast, error) {
	if err := f.fetch(kind, c); err != nil {
		return nil, err
	}
	return &weather.Forecast{
		Location: weather.ForecastLocation{Latitude: c.Latitude, Longitude: c.Longitude, Timezone: c.Timezone},
		Kind:     kind,
		Horizon:  horizon,
		Series: map[string][]any{
			"time":              {"t0", "t1"},
			"temperature_2m °C": {f.temps[c.Name], f.temps[c.Name] + 1},
		},
	}, nil
}

func (f *fakeWeather) Hourly(_ context.Context, c weather.Coordinates) (*weather.Forecast, error) {
	return f.series(weather.KindHourly, weather.HourlyHorizon, c)
}

func (f *fakeWeather) Daily(_ context.Context, c weather.Coordinates) (*weather.Forecast, error) {
	return f.series(weather.KindDaily, weather.DailyHorizon, c)
}

func (f *fakeWeather) AirQuality(_ context.Context, c weather.Coordinates) (*weather.AirQuality, error) {
	return &weather.AirQuality{Series: map[string][]any{"time": {"t0"}}}, nil
}

func (f *fakeWeather) fetchCount(kind, name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fetches[kind+"|"+weather.NormalizeName(name)]
}

// backendCall is one recorded Generate request.
type backendCall struct {
	Messages []llm.Message
	Tools    []tools.Tool
}

func (c backendCall) system() string {
	return c.Messages[0].Content
}

// lastToolResult returns the content of the last tool message sent.
func (c backendCall) lastToolResult() string {
	for i := len(c.Messages) - 1; i >= 0; i-- {
		if c.Messages[i].Role == llm.RoleTool {
			return c.Messages[i].Content
		}
	}
	return ""
}

type step func(call backendCall) (*llm.GenerationResult, error)

// scriptedBackend replays a fixed sequence of backend responses.
type scriptedBackend struct {
	t     *testing.T
	steps []step
	calls []backendCall
	ids   int
}

func (b *scriptedBackend) Generate(_ context.Context, messages []llm.Message, _ *llm.GenerationConfig, defs []tools.Tool) (*llm.GenerationResult, error) {
	call := backendCall{Messages: append([]llm.Message(nil), messages...), Tools: defs}
	b.calls = append(b.calls, call)
	if len(b.steps) == 0 {
		b.t.Errorf("unexpected backend call #%d", len(b.calls))
		return nil, errors.New("no scripted response")
	}
	next := b.steps[0]
	b.steps = b.steps[1:]
	return next(call)
}

func (b *scriptedBackend) script(steps ...step) {
	b.steps = append(b.steps, steps...)
}

func answer(text string) step {
	return func(backendCall) (*llm.GenerationResult, error) {
		return &llm.GenerationResult{Content: text}, nil
	}
}

func (b *scriptedBackend) callTool(name, location string) step {
	return func(backendCall) (*llm.GenerationResult, error) {
		b.ids++
		return &llm.GenerationResult{ToolCalls: []*tools.ToolCall{{
			ID:   fmt.Sprintf("call_%d", b.ids),
			Type: tools.ToolTypeFunction,
			Function: tools.ToolCallFunction{
				Name:      name,
				Arguments: tools.EncodeLocationArgs(location),
			},
		}}}, nil
	}
}

func failWith(err error) step {
	return func(backendCall) (*llm.GenerationResult, error) {
		return nil, err
	}
}

type harness struct {
	agent   *Agent
	backend *scriptedBackend
	weather *fakeWeather
	store   conversation.Store
	session string
}

// newHarness starts a session pinned to Paris.
func newHarness(t *testing.T) *harness {
	backend := &scriptedBackend{t: t}
	fw := newFakeWeather()
	store := conversation.NewMemoryStore()
	a := New(backend, store, fw, fw, Config{})

	st, dash, err := a.Start(context.Background(), "paris", "")
	require.NoError(t, err)
	require.NotNil(t, dash.Current)

	return &harness{agent: a, backend: backend, weather: fw, store: store, session: st.ID}
}

func (h *harness) say(t *testing.T, utterance string) *TurnResult {
	res, err := h.agent.Respond(context.Background(), h.session, utterance)
	require.NoError(t, err)
	return res
}

func (h *harness) state(t *testing.T) *conversation.State {
	st, err := h.store.Get(context.Background(), h.session)
	require.NoError(t, err)
	return st
}

// warmUp completes a first turn about the pinned location.
func (h *harness) warmUp(t *testing.T) {
	h.backend.script(answer("It's 18°C in Paris."))
	h.say(t, "How warm is it?")
}
