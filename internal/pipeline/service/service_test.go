package service

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	docmodels "stepway/internal/document/models"
	docstore "stepway/internal/document/store"
	"stepway/internal/notification"
	"stepway/internal/pipeline/catalog"
	"stepway/internal/pipeline/gating"
	"stepway/internal/pipeline/metadata"
	"stepway/internal/pipeline/models"
	"stepway/internal/pipeline/reopen"
	"stepway/internal/pipeline/requirements"
	"stepway/internal/pipeline/store/phasemeta"
	"stepway/internal/pipeline/store/profile"
	"stepway/pkg/domain"
	dErrors "stepway/pkg/domain-errors"
)

type ServiceSuite struct {
	suite.Suite
	svc       *Service
	profiles  *profile.InMemory
	phaseMeta *phasemeta.InMemory
	documents *docstore.InMemory
	sink      *notification.MemorySink

	studentID domain.StudentID
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.profiles = profile.NewInMemory()
	s.phaseMeta = phasemeta.NewInMemory()
	s.documents = docstore.NewInMemory()
	s.sink = notification.NewMemorySink()
	s.studentID = domain.NewStudentID()

	tracker := metadata.NewTracker(s.phaseMeta, logger)
	s.svc = New(Deps{
		Catalog:   catalog.NewProvider(catalog.NewDefaultSource(), logger),
		Gate:      gating.NewEngine(requirements.NewResolver()),
		Reopen:    reopen.NewPolicy(tracker, logger),
		Tracker:   tracker,
		Profiles:  s.profiles,
		Documents: s.documents,
		Sink:      s.sink,
		Logger:    logger,
	})
}

func (s *ServiceSuite) upload(t docmodels.Type, country domain.CountryCode) {
	err := s.documents.Save(context.Background(), docmodels.Document{
		ID:         domain.NewDocumentID(),
		StudentID:  s.studentID,
		Country:    country,
		Type:       t,
		Status:     docmodels.StatusApproved,
		FileName:   string(t) + ".pdf",
		UploadedAt: time.Now(),
	})
	s.Require().NoError(err)
}

func (s *ServiceSuite) uploadBaseSet(country domain.CountryCode) {
	for _, t := range requirements.BaseCollectionSet {
		s.upload(t, country)
	}
}

func (s *ServiceSuite) metaFor(country domain.CountryCode, phaseKey string) models.PhaseMetadata {
	meta, err := s.phaseMeta.GetOrCreate(context.Background(), s.studentID, country, phaseKey, models.PhasePending)
	s.Require().NoError(err)
	return meta
}

func (s *ServiceSuite) TestSelectCountryIdempotent() {
	ctx := context.Background()

	first, err := s.svc.SelectCountry(ctx, s.studentID, domain.CountryUSA)
	s.Require().NoError(err)
	s.Equal(catalog.KeyDocumentCollection, first.CurrentPhase)
	s.Equal(models.PhaseCurrent, s.metaFor(domain.CountryUSA, catalog.KeyDocumentCollection).Status)

	second, err := s.svc.SelectCountry(ctx, s.studentID, domain.CountryUSA)
	s.Require().NoError(err)
	s.Equal(first.ID, second.ID)

	profiles, err := s.svc.Profiles(ctx, s.studentID)
	s.Require().NoError(err)
	s.Len(profiles, 1)
}

func (s *ServiceSuite) TestParallelCountriesAreIndependent() {
	ctx := context.Background()

	_, err := s.svc.SelectCountry(ctx, s.studentID, domain.CountryUSA)
	s.Require().NoError(err)
	_, err = s.svc.SelectCountry(ctx, s.studentID, domain.CountryUK)
	s.Require().NoError(err)

	s.uploadBaseSet(domain.CountryUSA)
	outcome, err := s.svc.RequestPhaseTransition(ctx, s.studentID, domain.CountryUSA, "UNIVERSITY_SHORTLISTING", nil)
	s.Require().NoError(err)
	s.Equal(models.OutcomeApplied, outcome.Kind)

	usa, err := s.profiles.Find(ctx, s.studentID, domain.CountryUSA)
	s.Require().NoError(err)
	uk, err := s.profiles.Find(ctx, s.studentID, domain.CountryUK)
	s.Require().NoError(err)
	s.Equal("UNIVERSITY_SHORTLISTING", usa.CurrentPhase)
	s.Equal(catalog.KeyDocumentCollection, uk.CurrentPhase)
}

// TestSequentialWalk advances one phase at a time through the whole USA
// sequence, checking statuses as it goes.
func (s *ServiceSuite) TestSequentialWalk() {
	ctx := context.Background()
	country := domain.CountryUSA

	_, err := s.svc.SelectCountry(ctx, s.studentID, country)
	s.Require().NoError(err)

	s.uploadBaseSet(country)
	s.upload(docmodels.TypeEnglishTestScore, country)
	s.upload(docmodels.TypeFinancialProof, country)
	s.upload(docmodels.TypeBankStatements, country)
	s.upload(docmodels.TypeVisaForm, country)
	s.upload(docmodels.TypePaymentReceipt, country)
	s.upload(docmodels.TypeIDCard, country)
	s.upload(docmodels.TypeEnrollmentLetter, country)

	phases := s.svc.CountryCatalog(ctx, country)
	for _, target := range phases[1:] {
		outcome, err := s.svc.RequestPhaseTransition(ctx, s.studentID, country, target.Key, nil)
		s.Require().NoError(err)
		s.Require().Equal(models.OutcomeApplied, outcome.Kind, "advancing to %s", target.Key)
		s.Equal(target.Key, outcome.NewPhase)
	}

	p, err := s.profiles.Find(ctx, s.studentID, country)
	s.Require().NoError(err)
	s.Equal(catalog.KeyEnrollment, p.CurrentPhase)

	for _, ph := range phases[:len(phases)-1] {
		s.Equal(models.PhaseCompleted, s.metaFor(country, ph.Key).Status, "phase %s", ph.Key)
	}
	s.Equal(models.PhaseCurrent, s.metaFor(country, catalog.KeyEnrollment).Status)
}

// TestSkipAheadClosesIntermediates verifies a multi-step jump completes every
// passed-over phase rather than skipping them silently.
func (s *ServiceSuite) TestSkipAheadClosesIntermediates() {
	ctx := context.Background()
	country := domain.CountryCode("MONGOLIA") // default catalog

	_, err := s.svc.SelectCountry(ctx, s.studentID, country)
	s.Require().NoError(err)
	s.uploadBaseSet(country)

	outcome, err := s.svc.RequestPhaseTransition(ctx, s.studentID, country, "INITIAL_PAYMENT", nil)
	s.Require().NoError(err)
	s.Require().Equal(models.OutcomeApplied, outcome.Kind)

	for _, key := range []string{"DOCUMENT_COLLECTION", "UNIVERSITY_SHORTLISTING", "APPLICATION_SUBMISSION", "OFFER_RECEIVED"} {
		s.Equal(models.PhaseCompleted, s.metaFor(country, key).Status, "phase %s", key)
	}
	s.Equal(models.PhaseCurrent, s.metaFor(country, "INITIAL_PAYMENT").Status)
}

func (s *ServiceSuite) TestRequestingCurrentPhaseIsNoOp() {
	ctx := context.Background()
	_, err := s.svc.SelectCountry(ctx, s.studentID, domain.CountryUSA)
	s.Require().NoError(err)

	outcome, err := s.svc.RequestPhaseTransition(ctx, s.studentID, domain.CountryUSA, catalog.KeyDocumentCollection, nil)
	s.Require().NoError(err)
	s.Equal(models.OutcomeNoOp, outcome.Kind)
	s.Equal(catalog.KeyDocumentCollection, outcome.NewPhase)
	s.Empty(s.sink.Requests(), "no-op must not notify")
}

func (s *ServiceSuite) TestMissingDocumentsDeny() {
	ctx := context.Background()
	country := domain.CountryUSA
	_, err := s.svc.SelectCountry(ctx, s.studentID, country)
	s.Require().NoError(err)

	s.upload(docmodels.TypePassport, country)

	outcome, err := s.svc.RequestPhaseTransition(ctx, s.studentID, country, "UNIVERSITY_SHORTLISTING", nil)
	s.Require().NoError(err)
	s.Equal(models.OutcomeDeniedMissingDocuments, outcome.Kind)
	s.Equal("Document Collection", outcome.PhaseLabel)
	s.Equal(country, outcome.Country)
	s.ElementsMatch([]docmodels.Type{
		docmodels.TypeAcademicTranscript,
		docmodels.TypeRecommendationLetter,
		docmodels.TypeStatementOfPurpose,
		docmodels.TypeCVResume,
	}, outcome.MissingTypes)

	p, err := s.profiles.Find(ctx, s.studentID, country)
	s.Require().NoError(err)
	s.Equal(catalog.KeyDocumentCollection, p.CurrentPhase, "denied transition must not move the profile")
	s.Empty(s.sink.Requests())
}

// TestUSAJourney walks the I-20 sequence: entry into I-20 Confirmation is
// blocked until financial evidence exists, and shared financial proof filed
// under another country still satisfies it.
func (s *ServiceSuite) TestUSAJourney() {
	ctx := context.Background()
	country := domain.CountryUSA

	_, err := s.svc.SelectCountry(ctx, s.studentID, country)
	s.Require().NoError(err)
	s.uploadBaseSet(country)
	s.upload(docmodels.TypeEnglishTestScore, country)

	for _, key := range []string{"UNIVERSITY_SHORTLISTING", "APPLICATION_SUBMISSION", "OFFER_RECEIVED", "INITIAL_PAYMENT"} {
		outcome, err := s.svc.RequestPhaseTransition(ctx, s.studentID, country, key, nil)
		s.Require().NoError(err)
		s.Require().Equal(models.OutcomeApplied, outcome.Kind, "advancing to %s", key)
	}

	outcome, err := s.svc.RequestPhaseTransition(ctx, s.studentID, country, "I20_CONFIRMATION", nil)
	s.Require().NoError(err)
	s.Equal(models.OutcomeDeniedMissingDocuments, outcome.Kind)
	s.ElementsMatch([]docmodels.Type{docmodels.TypeFinancialProof, docmodels.TypeBankStatements}, outcome.MissingTypes)

	// Financial documents are shared: filing them under the UK context counts.
	s.upload(docmodels.TypeFinancialProof, domain.CountryUK)
	s.upload(docmodels.TypeBankStatements, domain.CountryUK)

	outcome, err = s.svc.RequestPhaseTransition(ctx, s.studentID, country, "I20_CONFIRMATION", nil)
	s.Require().NoError(err)
	s.Equal(models.OutcomeApplied, outcome.Kind)
}

func (s *ServiceSuite) TestBackwardTransitionIsReopen() {
	ctx := context.Background()
	country := domain.CountryCode("MONGOLIA")

	_, err := s.svc.SelectCountry(ctx, s.studentID, country)
	s.Require().NoError(err)
	s.uploadBaseSet(country)

	_, err = s.svc.RequestPhaseTransition(ctx, s.studentID, country, "INTERVIEW", nil)
	s.Require().NoError(err)

	outcome, err := s.svc.RequestPhaseTransition(ctx, s.studentID, country, "OFFER_RECEIVED", nil)
	s.Require().NoError(err)
	s.Require().Equal(models.OutcomeApplied, outcome.Kind)
	s.Equal("OFFER_RECEIVED", outcome.NewPhase)

	p, err := s.profiles.Find(ctx, s.studentID, country)
	s.Require().NoError(err)
	s.Equal("OFFER_RECEIVED", p.CurrentPhase)

	s.Equal(models.PhaseCurrent, s.metaFor(country, "OFFER_RECEIVED").Status)
	s.Equal(1, s.metaFor(country, "OFFER_RECEIVED").ReopenCount)
	s.Equal(models.PhasePending, s.metaFor(country, "INTERVIEW").Status)
	s.Equal(models.PhaseCompleted, s.metaFor(country, "APPLICATION_SUBMISSION").Status)
}

// TestReopenBudget cycles a phase past its budget: two reopens apply, the
// third locks the phase and is denied.
func (s *ServiceSuite) TestReopenBudget() {
	ctx := context.Background()
	country := domain.CountryCode("MONGOLIA")

	_, err := s.svc.SelectCountry(ctx, s.studentID, country)
	s.Require().NoError(err)
	s.uploadBaseSet(country)

	advance := func(key string) {
		outcome, err := s.svc.RequestPhaseTransition(ctx, s.studentID, country, key, nil)
		s.Require().NoError(err)
		s.Require().Equal(models.OutcomeApplied, outcome.Kind, "advancing to %s", key)
	}

	advance("INTERVIEW")
	for i := 1; i <= models.DefaultMaxReopen; i++ {
		outcome, err := s.svc.RequestPhaseReopen(ctx, s.studentID, country, "OFFER_RECEIVED")
		s.Require().NoError(err)
		s.Require().Equal(models.OutcomeApplied, outcome.Kind, "reopen %d", i)
		advance("INTERVIEW")
	}

	outcome, err := s.svc.RequestPhaseReopen(ctx, s.studentID, country, "OFFER_RECEIVED")
	s.Require().NoError(err)
	s.Equal(models.OutcomeDeniedLocked, outcome.Kind)
	s.Equal(models.PhaseLocked, s.metaFor(country, "OFFER_RECEIVED").Status)

	p, err := s.profiles.Find(ctx, s.studentID, country)
	s.Require().NoError(err)
	s.Equal("INTERVIEW", p.CurrentPhase, "denied reopen must not move the profile")

	// Once locked, repeated reopen attempts stay denied.
	outcome, err = s.svc.RequestPhaseReopen(ctx, s.studentID, country, "OFFER_RECEIVED")
	s.Require().NoError(err)
	s.Equal(models.OutcomeDeniedLocked, outcome.Kind)
}

func (s *ServiceSuite) TestReopenRequiresBackwardTarget() {
	ctx := context.Background()
	country := domain.CountryUSA
	_, err := s.svc.SelectCountry(ctx, s.studentID, country)
	s.Require().NoError(err)

	outcome, err := s.svc.RequestPhaseReopen(ctx, s.studentID, country, "INTERVIEW")
	s.Require().NoError(err)
	s.Equal(models.OutcomeDeniedInvalidOrder, outcome.Kind)
}

func (s *ServiceSuite) TestUnknownPhaseDenied() {
	ctx := context.Background()
	country := domain.CountryUSA
	_, err := s.svc.SelectCountry(ctx, s.studentID, country)
	s.Require().NoError(err)
	s.uploadBaseSet(country)

	outcome, err := s.svc.RequestPhaseTransition(ctx, s.studentID, country, "SCHOLARSHIP_REVIEW", nil)
	s.Require().NoError(err)
	s.Equal(models.OutcomeDeniedNotStarted, outcome.Kind)
	s.NotEmpty(outcome.Reason)
}

func (s *ServiceSuite) TestForwardIntoLockedPhaseDenied() {
	ctx := context.Background()
	country := domain.CountryCode("MONGOLIA")
	_, err := s.svc.SelectCountry(ctx, s.studentID, country)
	s.Require().NoError(err)
	s.uploadBaseSet(country)

	locked := models.NewPhaseMetadata(s.studentID, country, "OFFER_RECEIVED", models.PhaseLocked)
	locked.FinalEditAllowed = false
	s.Require().NoError(s.phaseMeta.Update(ctx, locked))

	outcome, err := s.svc.RequestPhaseTransition(ctx, s.studentID, country, "OFFER_RECEIVED", nil)
	s.Require().NoError(err)
	s.Equal(models.OutcomeDeniedLocked, outcome.Kind)

	p, err := s.profiles.Find(ctx, s.studentID, country)
	s.Require().NoError(err)
	s.Equal(catalog.KeyDocumentCollection, p.CurrentPhase)
}

func (s *ServiceSuite) TestPayloadPersistedNamespaced() {
	ctx := context.Background()
	country := domain.CountryCode("MONGOLIA")
	_, err := s.svc.SelectCountry(ctx, s.studentID, country)
	s.Require().NoError(err)
	s.uploadBaseSet(country)

	payload := &models.PhasePayload{
		Kind:         models.PayloadUniversitySelection,
		Universities: []string{"MIT", "Stanford"},
	}
	outcome, err := s.svc.RequestPhaseTransition(ctx, s.studentID, country, "UNIVERSITY_SHORTLISTING", payload)
	s.Require().NoError(err)
	s.Require().Equal(models.OutcomeApplied, outcome.Kind)

	second := &models.PhasePayload{
		Kind:     models.PayloadPayment,
		Amount:   250000,
		Currency: "USD",
	}
	_, err = s.svc.RequestPhaseTransition(ctx, s.studentID, country, "INITIAL_PAYMENT", second)
	s.Require().NoError(err)

	p, err := s.profiles.Find(ctx, s.studentID, country)
	s.Require().NoError(err)
	s.Contains(p.Notes, "UNIVERSITY_SHORTLISTING")
	s.Contains(p.Notes, "INITIAL_PAYMENT")
	s.NotContains(string(p.Notes["INITIAL_PAYMENT"]), "MIT", "payloads stay namespaced per phase")
}

func (s *ServiceSuite) TestInvalidPayloadRejected() {
	ctx := context.Background()
	country := domain.CountryUSA
	_, err := s.svc.SelectCountry(ctx, s.studentID, country)
	s.Require().NoError(err)

	bad := &models.PhasePayload{Kind: models.PayloadPayment} // no amount
	_, err = s.svc.RequestPhaseTransition(ctx, s.studentID, country, "UNIVERSITY_SHORTLISTING", bad)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
}

func (s *ServiceSuite) TestTransitionWithoutProfile() {
	ctx := context.Background()
	_, err := s.svc.RequestPhaseTransition(ctx, s.studentID, domain.CountryUSA, "INTERVIEW", nil)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *ServiceSuite) TestNotificationsOnAppliedTransitions() {
	ctx := context.Background()
	country := domain.CountryCode("MONGOLIA")
	_, err := s.svc.SelectCountry(ctx, s.studentID, country)
	s.Require().NoError(err)
	s.uploadBaseSet(country)

	_, err = s.svc.RequestPhaseTransition(ctx, s.studentID, country, "INTERVIEW", nil)
	s.Require().NoError(err)
	_, err = s.svc.RequestPhaseReopen(ctx, s.studentID, country, "OFFER_RECEIVED")
	s.Require().NoError(err)

	reqs := s.sink.Requests()
	s.Require().Len(reqs, 2)
	s.Equal("phase_advanced", reqs[0].Event)
	s.Equal("INTERVIEW", reqs[0].PhaseKey)
	s.Equal("phase_reopened", reqs[1].Event)
	s.Equal("OFFER_RECEIVED", reqs[1].PhaseKey)
}

// TestCountrySpecificPhaseOutsideCatalog exercises the lenient path: moving
// into a recognized country-specific key that the resolved catalog does not
// list, then reopening it.
func (s *ServiceSuite) TestCountrySpecificPhaseOutsideCatalog() {
	ctx := context.Background()
	country := domain.CountryCode("MALAYSIA") // default catalog; EMGS is unlisted
	_, err := s.svc.SelectCountry(ctx, s.studentID, country)
	s.Require().NoError(err)
	s.uploadBaseSet(country)

	outcome, err := s.svc.RequestPhaseTransition(ctx, s.studentID, country, "EMGS_APPROVAL", nil)
	s.Require().NoError(err)
	s.Require().Equal(models.OutcomeApplied, outcome.Kind)

	p, err := s.profiles.Find(ctx, s.studentID, country)
	s.Require().NoError(err)
	s.Equal("EMGS_APPROVAL", p.CurrentPhase)

	// Listed phases can be reopened from an unlisted current phase.
	outcome, err = s.svc.RequestPhaseTransition(ctx, s.studentID, country, catalog.KeyDocumentCollection, nil)
	s.Require().NoError(err)
	s.Equal(models.OutcomeApplied, outcome.Kind)
}
