package agent

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dileep-u-k/weather-companion/internal/conversation"
	"github.com/dileep-u-k/weather-companion/internal/weather"
)

// Fixed replies. These never come from the backend.
const (
	RefusalReply = "I'm your weather assistant and can only provide weather-related information. " +
		"Is there anything about the weather I can help you with today?"
	BackendFailureReply = "I'm sorry, I encountered an error processing your request. Please try again later."
	EmptyReply          = "I'm sorry, I couldn't process your request."
)

// ConfirmationReply asks before switching away from the pinned location.
func ConfirmationReply(requested, pinned string) string {
	return fmt.Sprintf("I notice you're asking about %s, but this dashboard is currently showing weather for %s. "+
		"Would you like me to fetch information for %s instead?", requested, pinned, requested)
}

// DeclinedReply answers a "no" to a confirmation question.
func DeclinedReply(pinned string) string {
	return fmt.Sprintf("No problem, I'll stay with %s. What would you like to know about the weather there?", pinned)
}

// ToolFailureReply is used when every fetch of a turn failed.
func ToolFailureReply(location string) string {
	return fmt.Sprintf("It looks like I couldn't retrieve the forecast data for %s at the moment. "+
		"This might be due to temporary data unavailability. "+
		"Please try again later or ask about a different location.", location)
}

// QuickActions are the fixed prompts the dashboard offers for its location.
func QuickActions(location string) []string {
	return []string{
		fmt.Sprintf("Show me the hourly forecast for %s", location),
		fmt.Sprintf("What's the weekly forecast for %s?", location),
		fmt.Sprintf("Are there any weather warnings or hazards I should know about in %s?", location),
		fmt.Sprintf("What should I wear today in %s?", location),
	}
}

// refusalMarker identifies a backend reply that declined an off-topic request.
const refusalMarker = "can only provide weather-related information"

func isRefusal(reply string) bool {
	return strings.Contains(strings.ToLower(reply), refusalMarker)
}

// systemPrompt states the assistant's policy for the backend. The same rules
// are enforced in code by the agent; the prompt keeps well-behaved backends
// from triggering the guards in the first place.
func systemPrompt(st *conversation.State, directives []string) string {
	var b strings.Builder
	pinned := st.PinnedLocation

	fmt.Fprintf(&b, "You are the weather assistant of a dashboard that is showing the weather for %s.\n\n", pinned)

	fmt.Fprintf(&b, "DASHBOARD DATA FOR %s (already fetched", strings.ToUpper(pinned))
	if st.PinnedSnapshot != nil && st.PinnedSnapshot.Timestamp != "" {
		fmt.Fprintf(&b, " at %s", st.PinnedSnapshot.Timestamp)
	}
	b.WriteString("):\n")
	writeSnapshot(&b, st.PinnedSnapshot)

	b.WriteString("\nRULES\n")
	fmt.Fprintf(&b, "1. Only answer questions about weather, forecasts, air quality, and clothing or plans that depend on the weather. "+
		"For anything else reply exactly: %q\n", RefusalReply)
	fmt.Fprintf(&b, "2. Answer questions about current conditions in %s from the dashboard data. "+
		"Never call get_weather_for_location for %s.\n", pinned, pinned)
	b.WriteString("3. Use get_hourly_forecast for the next hours or today, get_daily_forecast for the coming days or the week, " +
		"and get_weather_for_location for current conditions elsewhere.\n")
	b.WriteString("4. Never fetch a location and data kind that already appears in this conversation. Reuse the earlier result. " +
		"Call each tool at most once per location.\n")
	b.WriteString("5. If a tool returns an error, do not call it again for that location in this turn. " +
		"Apologise and suggest trying again later or asking about a different location.\n")
	b.WriteString("6. When comparing locations, state the compared values explicitly with their units.\n")
	b.WriteString("7. If a location name looks misspelled, use the closest location already mentioned.\n")

	b.WriteString("\nREPLY FORMAT\n")
	b.WriteString("Start with a one or two sentence summary. Then add one line per relevant metric in the form " +
		"\"metric: value → real-world impact, recommendation\". Prefix hazardous values with ⚠️. " +
		"End with one actionable closing sentence.\n")

	if fetched := fetchedSummary(st); fetched != "" {
		fmt.Fprintf(&b, "\nALREADY FETCHED: %s\n", fetched)
	}

	if len(directives) > 0 {
		b.WriteString("\nFOR THIS TURN\n")
		for _, d := range directives {
			fmt.Fprintf(&b, "- %s\n", d)
		}
	}
	return b.String()
}

func writeSnapshot(b *strings.Builder, snap *weather.Snapshot) {
	if snap == nil {
		b.WriteString("- unavailable\n")
		return
	}
	if code, ok := snap.Value(weather.MetricWeatherCode); ok {
		cond := weather.Describe(int(code))
		fmt.Fprintf(b, "- conditions: %s %s\n", cond.Icon, cond.Description)
	}
	names := make([]string, 0, len(snap.Metrics))
	for name := range snap.Metrics {
		if name != weather.MetricWeatherCode {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	for _, name := range names {
		m := snap.Metrics[name]
		fmt.Fprintf(b, "- %s: %g %s\n", name, m.Value, m.Unit)
	}
}

// fetchedSummary lists the ledger as "London (hourly), Tokyo (current)".
func fetchedSummary(st *conversation.State) string {
	var parts []string
	for _, loc := range st.KnownLocations() {
		var kinds []string
		for _, kind := range []string{weather.KindCurrent, weather.KindHourly, weather.KindDaily} {
			if _, ok := st.Lookup(kind, loc); ok {
				kinds = append(kinds, kind)
			}
		}
		if st.IsPinned(loc) && st.PinnedSnapshot != nil {
			kinds = append([]string{"current, pinned"}, kinds...)
		}
		if len(kinds) > 0 {
			parts = append(parts, fmt.Sprintf("%s (%s)", loc, strings.Join(kinds, ", ")))
		}
	}
	return strings.Join(parts, "; ")
}

func kindDirective(kind string) string {
	switch kind {
	case weather.KindHourly:
		return "The question is about the next few hours or today: use get_hourly_forecast for locations without hourly data."
	case weather.KindDaily:
		return "The question is about the coming days or the week: use get_daily_forecast for locations without daily data."
	}
	return "The question is about current conditions."
}

func confirmedDirective(location, kind string) string {
	tool := toolForKind(kind)
	return fmt.Sprintf("The user confirmed switching to %s. Call %s for %s now and answer their earlier question.", location, tool, location)
}

func comparisonDirective(st *conversation.State, locations []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Tools are unavailable this turn. Compare %s using only the data below, and state every compared value explicitly.",
		strings.Join(locations, " and "))
	for _, loc := range locations {
		if st.IsPinned(loc) && st.PinnedSnapshot != nil {
			fmt.Fprintf(&b, "\n  %s current: %s", loc, mustJSON(st.PinnedSnapshot))
		}
		ledger := st.LedgerFor(loc)
		for _, kind := range []string{weather.KindCurrent, weather.KindHourly, weather.KindDaily} {
			if content, ok := ledger[kind]; ok {
				fmt.Fprintf(&b, "\n  %s %s: %s", loc, kind, content)
			}
		}
	}
	return b.String()
}
