package llm

import (
	"log"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"

	"github.com/dileep-u-k/weather-companion/internal/weather"
)

// Intent is the result of analyzing one user utterance.
type Intent struct {
	// Weather is false when the utterance fails the domain gate.
	Weather bool
	// Kind is the data kind the question is about: current, hourly or daily.
	Kind        string
	Comparison  bool
	Affirmative bool
	Negative    bool
	// Locations are the places named in the utterance, in order of
	// appearance, already corrected against the known locations.
	Locations []string
}

// IntentContext is what the analyzer needs to know about the session.
type IntentContext struct {
	KnownLocations []string
	// HasHistory allows short follow-ups such as "and Tokyo?" to pass the gate.
	HasHistory bool
	// AwaitingConfirmation lets bare yes/no replies pass the gate.
	AwaitingConfirmation bool
}

var (
	weatherRegex = regexp.MustCompile(`(?i)\b(weather|forecasts?|temperatures?|temps?|degrees?|celsius|fahrenheit|` +
		`rain\w*|snow\w*|sleet|hail|drizzle|showers?|storm\w*|thunder\w*|lightning|wind\w*|gusts?|breez\w*|` +
		`humid\w*|dew|sun|sunny|sunshine|sunrise|sunset|cloud\w*|overcast|fog\w*|mist\w*|hazy|haze|` +
		`hot|cold|warm\w*|cool\w*|chilly|freez\w*|frost\w*|heat\w*|ice|icy|uv|precipitation|pressure|visibility|` +
		`umbrella|jacket|coat|sunscreen|wear|dress|outfit|air quality|aqi|pollution|pollen|smog|` +
		`hazards?|warnings?|alerts?|hourly|weekly|conditions?|climate|feels like)\b`)

	followUpRegex = regexp.MustCompile(`(?i)^\s*(and|what about|how about|same for|compare|versus|vs)\b|\b(compare|versus|vs|than)\b`)

	hourlyRegex = regexp.MustCompile(`(?i)\b(hourly|hours?|today|tonight|this (morning|afternoon|evening)|later|right now|soon|` +
		`short[- ]term|next few hours|wear)\b`)
	dailyRegex = regexp.MustCompile(`(?i)\b(week|weekly|7[- ]day|seven[- ]day|daily|tomorrow|weekend|days|` +
		`next few days|coming days|monday|tuesday|wednesday|thursday|friday|saturday|sunday)\b`)

	comparisonRegex = regexp.MustCompile(`(?i)\b(compare\w*|versus|vs|than|difference|both|which (one|city|place)|between)\b`)

	affirmativeRegex = regexp.MustCompile(`(?i)^\s*(yes|yeah|yep|yup|sure|ok|okay|please( do)?|go ahead|do it|confirm\w*|` +
		`of course|absolutely|sounds good|fetch it|switch)\b`)
	negativeRegex = regexp.MustCompile(`(?i)^\s*(no|nope|nah|don'?t|do not|cancel|never ?mind|stay|keep)\b`)

	// A capitalized place name after a preposition, optionally qualified by
	// a region or country: "in New York", "for Paris, France".
	properLocationRegex = regexp.MustCompile(`\b(?:[Ii]n|[Aa]t|[Ff]or|[Oo]f|[Aa]bout|[Nn]ear|[Ff]rom|[Tt]o|[Aa]nd|[Vv]s\.?|[Vv]ersus|[Tt]han|[Ww]ith)\s+` +
		`([\p{Lu}][\p{L}'.-]*(?:[ -][\p{Lu}][\p{L}'.-]*)*(?:,\s*[\p{Lu}][\p{L}.-]*(?:\s[\p{Lu}][\p{L}.-]*)*)?)`)

	// Lowercase fallback: "weather in londn tomorrow". Only kept when it
	// matches or corrects to a known location.
	lowerLocationRegex = regexp.MustCompile(`\b(?:in|at|for)\s+([\p{Ll}][\p{Ll}'-]+(?:\s+[\p{Ll}][\p{Ll}'-]+)?)`)

	wordRegex = regexp.MustCompile(`[\p{L}']+`)
)

// Words that follow a preposition but never name a place.
var nonLocationWords = map[string]bool{
	"the": true, "a": true, "an": true, "my": true, "our": true, "your": true, "this": true, "that": true,
	"today": true, "tonight": true, "tomorrow": true, "now": true, "week": true, "weekend": true,
	"next": true, "coming": true, "hours": true, "hour": true, "days": true, "day": true, "morning": true,
	"afternoon": true, "evening": true, "night": true, "general": true, "detail": true, "details": true,
	"celsius": true, "fahrenheit": true, "it": true, "there": true, "here": true, "me": true, "us": true,
	"you": true, "i": true, "uv": true, "aqi": true, "weather": true, "forecast": true, "forecasts": true,
	"rain": true, "snow": true, "sun": true, "instance": true, "example": true, "sure": true, "case": true,
	"monday": true, "tuesday": true, "wednesday": true, "thursday": true, "friday": true, "saturday": true,
	"sunday": true, "january": true, "february": true, "march": true, "april": true, "may": true,
	"june": true, "july": true, "august": true, "september": true, "october": true, "november": true,
	"december": true, "both": true, "all": true, "any": true, "more": true, "now?": true, "hazards": true,
	"warnings": true, "temperature": true, "temperatures": true, "wear": true, "what": true, "how": true,
	"while": true, "bit": true, "walk": true, "run": true, "hike": true, "picnic": true, "outside": true,
	"outdoors": true, "least": true, "most": true, "once": true, "home": true, "work": true, "school": true,
	"moment": true, "later": true, "advance": true, "time": true, "long": true, "degrees": true,
	"commute": true, "commuting": true, "running": true, "jogging": true, "swimming": true, "swim": true,
	"cycling": true, "biking": true, "bike": true, "ride": true, "hiking": true, "walking": true,
	"trip": true, "travel": true, "travelling": true, "traveling": true, "drive": true, "driving": true,
	"flight": true, "errands": true, "vacation": true, "holiday": true, "holidays": true, "game": true,
	"match": true, "outing": true, "exercise": true, "workout": true, "jog": true, "dog": true,
	"kids": true, "garden": true, "gardening": true, "barbecue": true, "bbq": true, "beach": true,
	"wedding": true, "party": true, "event": true, "plans": true, "lunch": true, "dinner": true,
}

// Words a bare follow-up such as "and what about Tokyo?" may contain besides
// places and weather vocabulary.
var followUpWords = map[string]bool{
	"and": true, "what": true, "what's": true, "whats": true, "how": true, "how's": true, "hows": true,
	"about": true, "same": true, "for": true, "compare": true, "compared": true, "versus": true, "vs": true,
	"with": true, "than": true, "the": true, "there": true, "it": true, "it's": true, "its": true, "is": true,
	"in": true, "at": true, "of": true, "then": true, "too": true, "also": true, "like": true, "please": true,
	"to": true, "here": true, "now": true, "does": true, "do": true, "look": true, "looks": true,
	"looking": true, "will": true, "be": true, "going": true, "over": true, "one": true, "that": true,
	"instead": true, "there's": true, "a": true, "an": true,
}

// IntentAnalyzer classifies utterances with keyword and pattern checks. It is
// the deterministic half of the assistant's policy; the reasoning backend
// never sees an utterance that fails the domain gate.
type IntentAnalyzer struct{}

func NewIntentAnalyzer() *IntentAnalyzer {
	return &IntentAnalyzer{}
}

// Analyze classifies utterance within the session context.
func (ia *IntentAnalyzer) Analyze(utterance string, ictx IntentContext) Intent {
	intent := Intent{
		Kind:        ia.kindOf(utterance),
		Affirmative: affirmativeRegex.MatchString(utterance),
		Negative:    negativeRegex.MatchString(utterance),
		Locations:   ia.ExtractLocations(utterance, ictx.KnownLocations),
	}
	intent.Comparison = comparisonRegex.MatchString(utterance) && len(intent.Locations) >= 2

	switch {
	case weatherRegex.MatchString(utterance):
		intent.Weather = true
	case ictx.AwaitingConfirmation && (intent.Affirmative || intent.Negative):
		intent.Weather = true
	case ictx.HasHistory && len(intent.Locations) > 0 && followUpRegex.MatchString(utterance) &&
		isBareFollowUp(utterance, intent.Locations):
		intent.Weather = true
	}

	log.Printf("🔍 Intent: weather=%v kind=%s comparison=%v locations=%v", intent.Weather, intent.Kind, intent.Comparison, intent.Locations)
	return intent
}

func (ia *IntentAnalyzer) kindOf(utterance string) string {
	hourly := hourlyRegex.FindStringIndex(utterance)
	daily := dailyRegex.FindStringIndex(utterance)
	switch {
	case daily != nil && (hourly == nil || strings.Contains(strings.ToLower(utterance), "week")):
		return weather.KindDaily
	case hourly != nil:
		return weather.KindHourly
	}
	return weather.KindCurrent
}

type locationMatch struct {
	name string
	pos  int
}

// ExtractLocations returns the places named in utterance. Known locations are
// found anywhere, including near-miss spellings; other places are only
// recognised after a preposition.
func (ia *IntentAnalyzer) ExtractLocations(utterance string, known []string) []string {
	var matches []locationMatch

	lower := strings.ToLower(utterance)
	for _, k := range known {
		primary := weather.PrimaryName(k)
		if primary == "" {
			continue
		}
		re := regexp.MustCompile(`\b` + regexp.QuoteMeta(primary) + `\b`)
		if loc := re.FindStringIndex(lower); loc != nil {
			matches = append(matches, locationMatch{name: k, pos: loc[0]})
		}
	}

	for _, m := range properLocationRegex.FindAllStringSubmatchIndex(utterance, -1) {
		candidate := trimCandidate(utterance[m[2]:m[3]])
		if candidate == "" {
			continue
		}
		matches = append(matches, locationMatch{name: CorrectLocation(candidate, known), pos: m[2]})
	}

	for _, m := range lowerLocationRegex.FindAllStringSubmatchIndex(utterance, -1) {
		candidate := trimCandidate(utterance[m[2]:m[3]])
		if candidate == "" {
			continue
		}
		name := CorrectLocation(weather.DisplayName(candidate), known)
		if !isKnown(name, known) {
			continue
		}
		matches = append(matches, locationMatch{name: name, pos: m[2]})
	}

	sort.SliceStable(matches, func(i, j int) bool { return matches[i].pos < matches[j].pos })

	var out []string
	for _, m := range matches {
		dup := false
		for _, o := range out {
			if weather.SameName(o, m.name) {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, m.name)
		}
	}
	return out
}

func isKnown(name string, known []string) bool {
	for _, k := range known {
		if weather.SameName(k, name) {
			return true
		}
	}
	return false
}

// isBareFollowUp reports whether utterance says nothing beyond a connective,
// the named places and weather or time words. "And Tokyo?" qualifies; "and
// what's the population of Tokyo?" does not.
func isBareFollowUp(utterance string, locations []string) bool {
	rest := strings.ReplaceAll(strings.ToLower(utterance), "’", "'")
	for _, re := range []*regexp.Regexp{weatherRegex, hourlyRegex, dailyRegex, comparisonRegex} {
		rest = re.ReplaceAllString(rest, " ")
	}

	var placeWords []string
	for _, loc := range locations {
		placeWords = append(placeWords, wordRegex.FindAllString(strings.ToLower(loc), -1)...)
	}

	for _, word := range wordRegex.FindAllString(rest, -1) {
		word = strings.Trim(word, "'")
		if word == "" || followUpWords[word] {
			continue
		}
		if !nearAny(word, placeWords) {
			return false
		}
	}
	return true
}

func nearAny(word string, candidates []string) bool {
	for _, c := range candidates {
		if levenshtein.ComputeDistance(word, c) <= typoThreshold(utf8.RuneCountInString(c)) {
			return true
		}
	}
	return false
}

// trimCandidate drops non-place words from both ends of a captured phrase.
func trimCandidate(candidate string) string {
	words := strings.Fields(strings.TrimRight(candidate, "?.!,;:"))
	for len(words) > 0 && nonLocationWords[strings.ToLower(strings.Trim(words[0], "?.!,;:'"))] {
		words = words[1:]
	}
	for len(words) > 0 && nonLocationWords[strings.ToLower(strings.Trim(words[len(words)-1], "?.!,;:'"))] {
		words = words[:len(words)-1]
	}
	return strings.TrimRight(strings.Join(words, " "), "?.!,;:'")
}

// CorrectLocation maps a near-miss spelling of a known location to that
// location. Names that are not close to any known location are returned as-is.
func CorrectLocation(name string, known []string) string {
	target := weather.PrimaryName(name)
	if target == "" {
		return name
	}

	best, bestDist := "", -1
	for _, k := range known {
		if weather.SameName(k, name) {
			return k
		}
		dist := levenshtein.ComputeDistance(target, weather.PrimaryName(k))
		if dist <= typoThreshold(utf8.RuneCountInString(target)) && (bestDist < 0 || dist < bestDist) {
			best, bestDist = k, dist
		}
	}
	if best != "" {
		log.Printf("✏️ Corrected location '%s' to '%s'", name, best)
		return best
	}
	return name
}

func typoThreshold(n int) int {
	switch {
	case n <= 3:
		return 0
	case n <= 6:
		return 1
	default:
		return 2
	}
}
