// Package catalog resolves the ordered phase sequence for a destination
// country. Country-specific sequences come from a Source; countries without
// configuration fall back to the universal default sequence. Resolution never
// fails for an unknown country.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"unicode"

	"stepway/internal/pipeline/models"
	"stepway/pkg/domain"
)

// Phase keys referenced by the engine. The remaining default keys are derived
// from their labels and only travel through catalogs.
const (
	KeyDocumentCollection = "DOCUMENT_COLLECTION"
	KeyEnrollment         = "ENROLLMENT"
)

// defaultSteps is the universal ten-phase sequence used when a country has no
// configuration of its own.
var defaultSteps = []RawStep{
	{Key: KeyDocumentCollection, Label: "Document Collection"},
	{Key: "UNIVERSITY_SHORTLISTING", Label: "University Shortlisting"},
	{Key: "APPLICATION_SUBMISSION", Label: "Application Submission"},
	{Key: "OFFER_RECEIVED", Label: "Offer Received"},
	{Key: "INITIAL_PAYMENT", Label: "Initial Payment"},
	{Key: "INTERVIEW", Label: "Interview"},
	{Key: "FINANCIAL_DOCUMENT_VERIFICATION", Label: "Financial & Document Verification"},
	{Key: "VISA_DECISION_STEP_A", Label: "Visa Decision Step A"},
	{Key: "VISA_APPLICATION", Label: "Visa Application"},
	{Key: KeyEnrollment, Label: "Enrollment"},
}

// RawStep is one catalog entry as supplied by the configuration collaborator.
// Entries arrive either as bare label strings or as {key,label} records;
// UnmarshalJSON accepts both.
type RawStep struct {
	Key   string `json:"key"`
	Label string `json:"label"`
}

func (s *RawStep) UnmarshalJSON(data []byte) error {
	var label string
	if err := json.Unmarshal(data, &label); err == nil {
		s.Key = ""
		s.Label = label
		return nil
	}
	type alias RawStep
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return fmt.Errorf("catalog step must be a string or a {key,label} record: %w", err)
	}
	*s = RawStep(a)
	return nil
}

// Source supplies raw country-specific catalogs. A nil/empty result means the
// country has no configuration of its own.
type Source interface {
	FetchCountryCatalog(ctx context.Context, country domain.CountryCode) ([]RawStep, error)
}

// Provider normalizes raw catalogs into ordered Phase sequences.
type Provider struct {
	source Source
	logger *slog.Logger
}

func NewProvider(source Source, logger *slog.Logger) *Provider {
	return &Provider{source: source, logger: logger}
}

// Catalog returns the ordered phase list for a country. Source failures and
// unknown countries both degrade to the default sequence; callers always get
// at least that.
func (p *Provider) Catalog(ctx context.Context, country domain.CountryCode) []models.Phase {
	if p.source != nil {
		steps, err := p.source.FetchCountryCatalog(ctx, country)
		if err != nil {
			p.logger.WarnContext(ctx, "country catalog fetch failed, using default sequence",
				"country", country.String(),
				"error", err.Error(),
			)
		} else if len(steps) > 0 {
			return normalize(steps)
		}
	}
	return normalize(defaultSteps)
}

// DefaultCatalog returns the universal sequence without consulting a source.
func DefaultCatalog() []models.Phase {
	return normalize(defaultSteps)
}

func normalize(steps []RawStep) []models.Phase {
	phases := make([]models.Phase, 0, len(steps))
	seen := make(map[string]bool, len(steps))
	for _, step := range steps {
		key := step.Key
		label := step.Label
		if key == "" {
			key = KeyFromLabel(label)
		}
		if label == "" {
			label = LabelFromKey(key)
		}
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		phases = append(phases, models.Phase{Key: key, Label: label, Order: len(phases)})
	}
	return phases
}

// KeyFromLabel derives a stable phase key from a human label:
// "Financial & Document Verification" -> "FINANCIAL_DOCUMENT_VERIFICATION".
func KeyFromLabel(label string) string {
	var b strings.Builder
	for _, r := range label {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(unicode.ToUpper(r))
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), "_")
}

// LabelFromKey derives a display label for phases that only travel as keys,
// such as country-specific steps not present in any catalog.
func LabelFromKey(key string) string {
	words := strings.Split(strings.ToLower(key), "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// Find returns the phase with the given key and its index, or -1 when the key
// is absent from the catalog.
func Find(phases []models.Phase, key string) (models.Phase, int) {
	for i, ph := range phases {
		if ph.Key == key {
			return ph, i
		}
	}
	return models.Phase{}, -1
}
