// Package requirements resolves which document types a phase demands before a
// student may enter it. Two universal phases are hard-coded regardless of
// country; everything else comes from a per-country table keyed by phase
// label. A phase absent from the table has no enforced gating.
package requirements

import (
	"strings"

	docmodels "stepway/internal/document/models"
	"stepway/internal/pipeline/catalog"
	"stepway/pkg/domain"
)

// BaseCollectionSet is the universal exit requirement of Document Collection.
var BaseCollectionSet = []docmodels.Type{
	docmodels.TypePassport,
	docmodels.TypeAcademicTranscript,
	docmodels.TypeRecommendationLetter,
	docmodels.TypeStatementOfPurpose,
	docmodels.TypeCVResume,
}

// EnrollmentSet is the universal entry requirement of Enrollment.
var EnrollmentSet = []docmodels.Type{
	docmodels.TypeIDCard,
	docmodels.TypeEnrollmentLetter,
}

// sharedTypes are satisfied by any single upload of the type, regardless of
// which country context it was filed under. Everything else is
// country-exclusive proof.
var sharedTypes = map[docmodels.Type]bool{
	docmodels.TypeFinancialProof:       true,
	docmodels.TypeBankStatements:       true,
	docmodels.TypePassport:             true,
	docmodels.TypeAcademicTranscript:   true,
	docmodels.TypeEnglishTestScore:     true,
	docmodels.TypeMedicalCertificate:   true,
	docmodels.TypeCVResume:             true,
	docmodels.TypeRecommendationLetter: true,
	docmodels.TypeStatementOfPurpose:   true,
}

// countryRules maps (country, folded phase label) to the document types that
// gate entry into that phase. Absent entries mean transitions into the phase
// are not blocked on documents.
var countryRules = map[domain.CountryCode]map[string][]docmodels.Type{
	domain.CountryUSA: {
		"application submission": {docmodels.TypeEnglishTestScore},
		"i-20 confirmation":      {docmodels.TypeFinancialProof, docmodels.TypeBankStatements},
		"visa application":       {docmodels.TypeVisaForm, docmodels.TypeFinancialProof, docmodels.TypePaymentReceipt},
	},
	domain.CountryUK: {
		"application submission": {docmodels.TypeEnglishTestScore},
		"cas issuance":           {docmodels.TypeFinancialProof, docmodels.TypeOfferLetter},
		"visa application":       {docmodels.TypeVisaForm, docmodels.TypeBankStatements, docmodels.TypeTuberculosisTest},
	},
	domain.CountryCanada: {
		"application submission": {docmodels.TypeEnglishTestScore},
		"visa application":       {docmodels.TypeVisaForm, docmodels.TypeFinancialProof, docmodels.TypeMedicalCertificate},
	},
	domain.CountryAustralia: {
		"application submission": {docmodels.TypeEnglishTestScore},
		"coe issuance":           {docmodels.TypeOfferLetter, docmodels.TypePaymentReceipt},
		"visa application":       {docmodels.TypeVisaForm, docmodels.TypeFinancialProof, docmodels.TypeMedicalCertificate},
	},
	domain.CountryGermany: {
		"blocked account":  {docmodels.TypeBlockedAccountProof},
		"visa application": {docmodels.TypeVisaForm, docmodels.TypeBlockedAccountProof},
	},
}

// Resolver answers phase document requirements. It is stateless; the tables
// above are the configuration.
type Resolver struct{}

func NewResolver() *Resolver {
	return &Resolver{}
}

// Required returns the document types gating entry into the given phase for
// the given country. The universal Document Collection and Enrollment sets
// win over any country table.
func (r *Resolver) Required(phaseKey, phaseLabel string, country domain.CountryCode) []docmodels.Type {
	switch phaseKey {
	case catalog.KeyDocumentCollection:
		return append([]docmodels.Type(nil), BaseCollectionSet...)
	case catalog.KeyEnrollment:
		return append([]docmodels.Type(nil), EnrollmentSet...)
	}
	rules, ok := countryRules[country]
	if !ok {
		return nil
	}
	types, ok := rules[foldLabel(phaseLabel)]
	if !ok {
		return nil
	}
	return append([]docmodels.Type(nil), types...)
}

// IsShared reports whether one upload of the type counts in every country.
func (r *Resolver) IsShared(t docmodels.Type) bool {
	return sharedTypes[t]
}

func foldLabel(label string) string {
	return strings.Join(strings.Fields(strings.ToLower(label)), " ")
}
