package domain

import (
	"fmt"
	"strings"
	"unicode"
)

// CountryCode is the canonical key for a destination country. Free-text
// country names arrive from clients in many spellings ("UK", "U.K.", "United
// Kingdom"); ParseCountry folds them into one code so catalog lookups,
// document rules, and display all agree on identity.
type CountryCode string

// Canonical codes for the destinations with country-specific configuration.
// Unknown countries still parse; they just fall back to the default catalog.
const (
	CountryUSA         CountryCode = "USA"
	CountryUK          CountryCode = "UK"
	CountryCanada      CountryCode = "CANADA"
	CountryAustralia   CountryCode = "AUSTRALIA"
	CountryGermany     CountryCode = "GERMANY"
	CountryIreland     CountryCode = "IRELAND"
	CountryNewZealand  CountryCode = "NEW_ZEALAND"
	CountryMalaysia    CountryCode = "MALAYSIA"
	CountryNetherlands CountryCode = "NETHERLANDS"
)

// synonyms maps folded spellings to their canonical code. Folding lowercases
// and strips punctuation first, so "U.S.A." and "usa" share one entry.
var synonyms = map[string]CountryCode{
	"usa":           CountryUSA,
	"us":            CountryUSA,
	"united states": CountryUSA,
	"united states of america": CountryUSA,
	"america":        CountryUSA,
	"uk":             CountryUK,
	"united kingdom": CountryUK,
	"great britain":  CountryUK,
	"britain":        CountryUK,
	"england":        CountryUK,
	"canada":         CountryCanada,
	"australia":      CountryAustralia,
	"germany":        CountryGermany,
	"deutschland":    CountryGermany,
	"ireland":        CountryIreland,
	"new zealand":    CountryNewZealand,
	"nz":             CountryNewZealand,
	"malaysia":       CountryMalaysia,
	"netherlands":    CountryNetherlands,
	"holland":        CountryNetherlands,
}

// ParseCountry canonicalizes a free-text country name. Unknown names are not
// an error: they become an uppercased, underscore-joined code so a student can
// pursue a country we have no specific configuration for.
func ParseCountry(raw string) (CountryCode, error) {
	folded := fold(raw)
	if folded == "" {
		return "", fmt.Errorf("country name must not be empty")
	}
	if code, ok := synonyms[folded]; ok {
		return code, nil
	}
	return CountryCode(strings.ReplaceAll(strings.ToUpper(folded), " ", "_")), nil
}

// fold lowercases, drops punctuation, and collapses whitespace. Underscores
// and hyphens separate words so canonical codes re-parse to themselves.
func fold(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(unicode.ToLower(r))
		case unicode.IsSpace(r) || r == '_' || r == '-':
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

func (c CountryCode) String() string {
	return string(c)
}

func (c CountryCode) IsNil() bool {
	return c == ""
}
