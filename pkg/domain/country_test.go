package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCountry(t *testing.T) {
	t.Run("canonicalizes known synonyms", func(t *testing.T) {
		cases := map[string]CountryCode{
			"usa":                      CountryUSA,
			"U.S.A.":                   CountryUSA,
			"United States":            CountryUSA,
			"united states of america": CountryUSA,
			"UK":             CountryUK,
			"u.k.":           CountryUK,
			"United Kingdom": CountryUK,
			"england":        CountryUK,
			"Deutschland":    CountryGermany,
			"NZ":             CountryNewZealand,
			"Holland":        CountryNetherlands,
			"  australia  ":  CountryAustralia,
		}
		for raw, want := range cases {
			got, err := ParseCountry(raw)
			require.NoError(t, err, "parsing %q", raw)
			assert.Equal(t, want, got, "parsing %q", raw)
		}
	})

	t.Run("unknown countries parse to derived codes", func(t *testing.T) {
		got, err := ParseCountry("South Korea")
		require.NoError(t, err)
		assert.Equal(t, CountryCode("SOUTH_KOREA"), got)
	})

	t.Run("punctuation and case do not split identity", func(t *testing.T) {
		a, err := ParseCountry("Costa Rica")
		require.NoError(t, err)
		b, err := ParseCountry("costa   rica.")
		require.NoError(t, err)
		assert.Equal(t, a, b)
	})

	t.Run("empty and whitespace-only names are rejected", func(t *testing.T) {
		_, err := ParseCountry("")
		require.Error(t, err)
		_, err = ParseCountry("   ")
		require.Error(t, err)
		_, err = ParseCountry("...")
		require.Error(t, err)
	})
}
