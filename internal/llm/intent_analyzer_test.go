package llm

import (
	"testing"

	"github.com/dileep-u-k/weather-companion/internal/weather"
	"github.com/stretchr/testify/assert"
)

func TestDomainGate(t *testing.T) {
	ia := NewIntentAnalyzer()
	ctx := IntentContext{KnownLocations: []string{"Paris"}}

	onTopic := []string{
		"What's the weather like?",
		"Is it going to rain in Tokyo tomorrow?",
		"Show me the hourly forecast for Paris",
		"What's the weekly forecast for Paris?",
		"Are there any weather warnings or hazards I should know about in Paris?",
		"What should I wear today in Paris?",
		"Do I need an umbrella?",
		"how windy is it",
	}
	for _, u := range onTopic {
		assert.True(t, ia.Analyze(u, ctx).Weather, u)
	}

	offTopic := []string{
		"What's the capital of France?",
		"Write me a poem about love",
		"What is 2 + 2?",
		"yes",
	}
	for _, u := range offTopic {
		assert.False(t, ia.Analyze(u, ctx).Weather, u)
	}
}

func TestGateAllowsConfirmationReplies(t *testing.T) {
	ia := NewIntentAnalyzer()

	intent := ia.Analyze("Yes please", IntentContext{AwaitingConfirmation: true})
	assert.True(t, intent.Weather)
	assert.True(t, intent.Affirmative)
	assert.False(t, intent.Negative)

	intent = ia.Analyze("No, stay on Paris", IntentContext{AwaitingConfirmation: true})
	assert.True(t, intent.Weather)
	assert.True(t, intent.Negative)
}

func TestGateAllowsFollowUps(t *testing.T) {
	ia := NewIntentAnalyzer()
	known := []string{"Paris"}

	assert.True(t, ia.Analyze("What about London?", IntentContext{KnownLocations: known, HasHistory: true}).Weather)
	assert.False(t, ia.Analyze("What about London?", IntentContext{KnownLocations: known}).Weather)
	assert.False(t, ia.Analyze("What about it?", IntentContext{KnownLocations: known, HasHistory: true}).Weather)

	history := IntentContext{KnownLocations: []string{"Paris", "London"}, HasHistory: true}
	for _, u := range []string{"and Tokyo?", "What about London tomorrow", "How about Londn then?", "and what’s it like in Tokyo?"} {
		assert.True(t, ia.Analyze(u, history).Weather, u)
	}
	for _, u := range []string{
		"And what's the population of Tokyo?",
		"What about the best restaurants in London?",
		"and how do I get to Tokyo?",
	} {
		assert.False(t, ia.Analyze(u, history).Weather, u)
	}
}

func TestKindRouting(t *testing.T) {
	ia := NewIntentAnalyzer()
	cases := map[string]string{
		"Show me the hourly forecast for Paris":      weather.KindHourly,
		"Will it rain this afternoon?":               weather.KindHourly,
		"What should I wear today in Paris?":         weather.KindHourly,
		"What's the weekly forecast for Paris?":      weather.KindDaily,
		"Will it snow tomorrow?":                     weather.KindDaily,
		"What's the weather for the next 7-day span": weather.KindDaily,
		"How hot is it in Cairo?":                    weather.KindCurrent,
	}
	for u, want := range cases {
		assert.Equal(t, want, ia.Analyze(u, IntentContext{}).Kind, u)
	}
}

func TestExtractLocations(t *testing.T) {
	ia := NewIntentAnalyzer()
	known := []string{"Paris", "London"}

	assert.Equal(t, []string{"Tokyo"}, ia.ExtractLocations("weather in Tokyo", known))
	assert.Equal(t, []string{"New York City"}, ia.ExtractLocations("Is it cold in New York City today?", known))
	assert.Equal(t, []string{"Portland, Oregon"}, ia.ExtractLocations("forecast for Portland, Oregon", known))
	assert.Equal(t, []string{"London"}, ia.ExtractLocations("is it raining in london tomorrow?", known))
	assert.Equal(t, []string{"London"}, ia.ExtractLocations("is it raining in londn tomorrow?", known))
	assert.Equal(t, []string{"Paris", "London"}, ia.ExtractLocations("Is Paris warmer than London?", known))
	assert.Empty(t, ia.ExtractLocations("Will it rain in the morning?", known))
	assert.Empty(t, ia.ExtractLocations("Is it hot for a walk at least?", known))
}

func TestLowercaseNounsAreNotPlaces(t *testing.T) {
	ia := NewIntentAnalyzer()
	known := []string{"Paris"}

	for _, u := range []string{
		"Do I need an umbrella for my commute?",
		"Is it good weather for running?",
		"Is it warm enough for swimming this afternoon?",
		"Any rain expected at practice later?",
		"Should I pack a jacket for the trip?",
		"is it raining in tokyo tomorrow?",
	} {
		intent := ia.Analyze(u, IntentContext{KnownLocations: known})
		assert.True(t, intent.Weather, u)
		assert.Empty(t, intent.Locations, u)
	}
}

func TestTypoCorrection(t *testing.T) {
	ia := NewIntentAnalyzer()
	known := []string{"Paris", "London", "Tokyo"}

	assert.Equal(t, []string{"London"}, ia.ExtractLocations("What about Londn?", known))
	assert.Equal(t, "Tokyo", CorrectLocation("Tokio", known))
	assert.Equal(t, "Paris", CorrectLocation("paris", known))
	assert.Equal(t, "Berlin", CorrectLocation("Berlin", known))
	// Short names need an exact match.
	assert.Equal(t, "Rio", CorrectLocation("Rio", []string{"Rit"}))
}

func TestTypoThresholdCountsCharacters(t *testing.T) {
	assert.Equal(t, "Zürich", CorrectLocation("Zürch", []string{"Zürich"}))
	// Three letters but four bytes: still an exact-match-only name.
	assert.Equal(t, "Kön", CorrectLocation("Kön", []string{"Köln"}))
	// Six letters but seven bytes: one edit allowed, not two.
	assert.Equal(t, "Züroah", CorrectLocation("Züroah", []string{"Zürich"}))
}

func TestComparison(t *testing.T) {
	ia := NewIntentAnalyzer()
	ictx := IntentContext{KnownLocations: []string{"Paris", "Tokyo"}, HasHistory: true}

	intent := ia.Analyze("Compare the temperature in Paris and Tokyo", ictx)
	assert.True(t, intent.Comparison)
	assert.Equal(t, []string{"Paris", "Tokyo"}, intent.Locations)

	intent = ia.Analyze("Is it warmer in Tokyo than here?", ictx)
	assert.False(t, intent.Comparison)
}
