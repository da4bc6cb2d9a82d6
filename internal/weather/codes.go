package weather

// Condition describes a WMO weather interpretation code.
type Condition struct {
	Description string `json:"description"`
	Icon        string `json:"icon"`
	Severe      bool   `json:"severe,omitempty"`
}

var conditions = map[int]Condition{
	0:  {"Clear sky", "☀️", false},
	1:  {"Mainly clear", "🌤️", false},
	2:  {"Partly cloudy", "⛅", false},
	3:  {"Overcast", "☁️", false},
	45: {"Fog", "🌫️", false},
	48: {"Depositing rime fog", "🌫️", false},
	51: {"Light drizzle", "🌦️", false},
	53: {"Moderate drizzle", "🌧️", false},
	55: {"Dense drizzle", "🌧️", false},
	56: {"Light freezing drizzle", "🌨️", true},
	57: {"Dense freezing drizzle", "🌨️", true},
	61: {"Slight rain", "🌦️", false},
	63: {"Moderate rain", "🌧️", false},
	65: {"Heavy rain", "🌧️", true},
	66: {"Light freezing rain", "🌨️", true},
	67: {"Heavy freezing rain", "🌨️", true},
	71: {"Slight snow fall", "🌨️", false},
	73: {"Moderate snow fall", "🌨️", false},
	75: {"Heavy snow fall", "❄️", true},
	77: {"Snow grains", "❄️", false},
	80: {"Slight rain showers", "🌦️", false},
	81: {"Moderate rain showers", "🌧️", false},
	82: {"Violent rain showers", "⛈️", true},
	85: {"Slight snow showers", "🌨️", false},
	86: {"Heavy snow showers", "❄️", true},
	95: {"Thunderstorm", "⛈️", true},
	96: {"Thunderstorm with slight hail", "⛈️", true},
	99: {"Thunderstorm with heavy hail", "⛈️", true},
}

// Describe maps a WMO weather code to a description. Unknown codes map to
// "Unknown".
func Describe(code int) Condition {
	if c, ok := conditions[code]; ok {
		return c
	}
	return Condition{Description: "Unknown", Icon: "❓"}
}
