package models

import (
	"fmt"
	"time"

	"stepway/pkg/domain"
)

// Type identifies what a document proves. Values mirror the document_type
// enum in PostgreSQL.
type Type string

const (
	TypePassport             Type = "PASSPORT"
	TypeAcademicTranscript   Type = "ACADEMIC_TRANSCRIPT"
	TypeRecommendationLetter Type = "RECOMMENDATION_LETTER"
	TypeStatementOfPurpose   Type = "STATEMENT_OF_PURPOSE"
	TypeCVResume             Type = "CV_RESUME"
	TypeIDCard               Type = "ID_CARD"
	TypeEnrollmentLetter     Type = "ENROLLMENT_LETTER"
	TypeFinancialProof       Type = "FINANCIAL_PROOF"
	TypeBankStatements       Type = "BANK_STATEMENTS"
	TypeEnglishTestScore     Type = "ENGLISH_TEST_SCORE"
	TypeMedicalCertificate   Type = "MEDICAL_CERTIFICATE"
	TypeOfferLetter          Type = "OFFER_LETTER"
	TypePaymentReceipt       Type = "PAYMENT_RECEIPT"
	TypeVisaForm             Type = "VISA_FORM"
	TypeTuberculosisTest     Type = "TUBERCULOSIS_TEST"
	TypeBlockedAccountProof  Type = "BLOCKED_ACCOUNT_PROOF"
)

var knownTypes = map[Type]bool{
	TypePassport: true, TypeAcademicTranscript: true, TypeRecommendationLetter: true,
	TypeStatementOfPurpose: true, TypeCVResume: true, TypeIDCard: true,
	TypeEnrollmentLetter: true, TypeFinancialProof: true, TypeBankStatements: true,
	TypeEnglishTestScore: true, TypeMedicalCertificate: true, TypeOfferLetter: true,
	TypePaymentReceipt: true, TypeVisaForm: true, TypeTuberculosisTest: true,
	TypeBlockedAccountProof: true,
}

// ParseType converts a raw string to a Type, rejecting unknown values.
func ParseType(s string) (Type, error) {
	t := Type(s)
	if !knownTypes[t] {
		return "", fmt.Errorf("unknown document type %q", s)
	}
	return t, nil
}

// Status tracks a document through counselor review.
type Status string

const (
	StatusPending  Status = "PENDING"
	StatusApproved Status = "APPROVED"
	StatusRejected Status = "REJECTED"
)

func ParseStatus(s string) (Status, error) {
	st := Status(s)
	switch st {
	case StatusPending, StatusApproved, StatusRejected:
		return st, nil
	}
	return "", fmt.Errorf("unknown document status %q", s)
}

// Document is upload metadata only. File bytes live with the upload service;
// the pipeline reads type, status, and filing country to evaluate gating.
type Document struct {
	ID         domain.DocumentID
	StudentID  domain.StudentID
	Country    domain.CountryCode
	Type       Type
	Status     Status
	FileName   string
	UploadedAt time.Time
	ReviewedAt *time.Time
}

// CountsTowardGating reports whether this document can satisfy a phase
// requirement. Rejected uploads never count.
func (d Document) CountsTowardGating() bool {
	return d.Status == StatusPending || d.Status == StatusApproved
}
