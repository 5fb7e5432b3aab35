package catalog

import (
	"context"

	"stepway/pkg/domain"
)

// StaticSource serves catalogs from an in-process table. It backs deployments
// that have no external catalog service and doubles as the test source.
type StaticSource struct {
	catalogs map[domain.CountryCode][]RawStep
}

// NewStaticSource builds a source over the given table. A nil table yields a
// source that knows no countries.
func NewStaticSource(catalogs map[domain.CountryCode][]RawStep) *StaticSource {
	if catalogs == nil {
		catalogs = map[domain.CountryCode][]RawStep{}
	}
	return &StaticSource{catalogs: catalogs}
}

// NewDefaultSource returns the built-in country-specific sequences. These
// extend the universal sequence with country-specific visa steps (CAS for the
// UK, I-20 for the USA, CoE for Australia, blocked account for Germany).
func NewDefaultSource() *StaticSource {
	return NewStaticSource(map[domain.CountryCode][]RawStep{
		domain.CountryUSA: {
			{Key: KeyDocumentCollection, Label: "Document Collection"},
			{Key: "UNIVERSITY_SHORTLISTING", Label: "University Shortlisting"},
			{Key: "APPLICATION_SUBMISSION", Label: "Application Submission"},
			{Key: "OFFER_RECEIVED", Label: "Offer Received"},
			{Key: "INITIAL_PAYMENT", Label: "Initial Payment"},
			{Key: "I20_CONFIRMATION", Label: "I-20 Confirmation"},
			{Key: "INTERVIEW", Label: "Visa Interview"},
			{Key: "VISA_APPLICATION", Label: "Visa Application"},
			{Key: KeyEnrollment, Label: "Enrollment"},
		},
		domain.CountryUK: {
			{Key: KeyDocumentCollection, Label: "Document Collection"},
			{Key: "UNIVERSITY_SHORTLISTING", Label: "University Shortlisting"},
			{Key: "APPLICATION_SUBMISSION", Label: "Application Submission"},
			{Key: "OFFER_RECEIVED", Label: "Offer Received"},
			{Key: "INITIAL_PAYMENT", Label: "Initial Payment"},
			{Key: "CAS_ISSUANCE", Label: "CAS Issuance"},
			{Key: "VISA_APPLICATION", Label: "Visa Application"},
			{Key: KeyEnrollment, Label: "Enrollment"},
		},
		domain.CountryAustralia: {
			{Key: KeyDocumentCollection, Label: "Document Collection"},
			{Key: "UNIVERSITY_SHORTLISTING", Label: "University Shortlisting"},
			{Key: "APPLICATION_SUBMISSION", Label: "Application Submission"},
			{Key: "OFFER_RECEIVED", Label: "Offer Received"},
			{Key: "INITIAL_PAYMENT", Label: "Initial Payment"},
			{Key: "COE_ISSUANCE", Label: "CoE Issuance"},
			{Key: "VISA_APPLICATION", Label: "Visa Application"},
			{Key: KeyEnrollment, Label: "Enrollment"},
		},
		domain.CountryGermany: {
			{Key: KeyDocumentCollection, Label: "Document Collection"},
			{Key: "UNIVERSITY_SHORTLISTING", Label: "University Shortlisting"},
			{Key: "APPLICATION_SUBMISSION", Label: "Application Submission"},
			{Key: "OFFER_RECEIVED", Label: "Offer Received"},
			{Key: "BLOCKED_ACCOUNT", Label: "Blocked Account"},
			{Key: "VISA_APPLICATION", Label: "Visa Application"},
			{Key: KeyEnrollment, Label: "Enrollment"},
		},
	})
}

func (s *StaticSource) FetchCountryCatalog(_ context.Context, country domain.CountryCode) ([]RawStep, error) {
	steps, ok := s.catalogs[country]
	if !ok {
		return nil, nil
	}
	out := make([]RawStep, len(steps))
	copy(out, steps)
	return out, nil
}
