package weather

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var titleCaser = cases.Title(language.English)

// NormalizeName folds a location name for comparisons and ledger keys.
func NormalizeName(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}

// PrimaryName is the part of a name before the first comma, normalized.
func PrimaryName(name string) string {
	if i := strings.Index(name, ","); i >= 0 {
		name = name[:i]
	}
	return NormalizeName(name)
}

// SameName reports whether a and b refer to the same place. "Paris" and
// "Paris, France" match; "Portland, Oregon" and "Portland, Maine" do not.
func SameName(a, b string) bool {
	na, nb := NormalizeName(a), NormalizeName(b)
	if na == "" || nb == "" {
		return false
	}
	if na == nb {
		return true
	}
	if strings.Contains(na, ",") && strings.Contains(nb, ",") {
		return false
	}
	return PrimaryName(a) == PrimaryName(b)
}

// DisplayName title-cases user input such as "new york" for display.
func DisplayName(name string) string {
	return titleCaser.String(strings.Join(strings.Fields(name), " "))
}
