package transition

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stepway/internal/pipeline/catalog"
	"stepway/internal/pipeline/models"
)

func lookupWith(rows map[string]models.PhaseStatus) MetadataLookup {
	return func(phaseKey string) (models.PhaseMetadata, bool) {
		status, ok := rows[phaseKey]
		if !ok {
			return models.PhaseMetadata{}, false
		}
		return models.PhaseMetadata{PhaseKey: phaseKey, Status: status}, true
	}
}

func TestClassifyListedPhases(t *testing.T) {
	phases := catalog.DefaultCatalog()

	t.Run("same key is a no-op", func(t *testing.T) {
		c, err := Classify(phases, "INTERVIEW", "INTERVIEW", nil)
		require.NoError(t, err)
		assert.Equal(t, models.DirectionNoOp, c.Direction)
	})

	t.Run("later index moves forward", func(t *testing.T) {
		c, err := Classify(phases, catalog.KeyDocumentCollection, "APPLICATION_SUBMISSION", nil)
		require.NoError(t, err)
		assert.Equal(t, models.DirectionForward, c.Direction)
		assert.Equal(t, 0, c.FromIndex)
		assert.Equal(t, 2, c.ToIndex)
	})

	t.Run("earlier index moves backward", func(t *testing.T) {
		c, err := Classify(phases, "VISA_APPLICATION", "OFFER_RECEIVED", nil)
		require.NoError(t, err)
		assert.Equal(t, models.DirectionBackward, c.Direction)
	})

	t.Run("multi-step jumps keep both indexes", func(t *testing.T) {
		c, err := Classify(phases, catalog.KeyDocumentCollection, catalog.KeyEnrollment, nil)
		require.NoError(t, err)
		assert.Equal(t, models.DirectionForward, c.Direction)
		assert.Equal(t, 0, c.FromIndex)
		assert.Equal(t, 9, c.ToIndex)
	})
}

func TestClassifyUnlistedTarget(t *testing.T) {
	phases := catalog.DefaultCatalog()

	t.Run("visited unlisted target is a backward reopen", func(t *testing.T) {
		lookup := lookupWith(map[string]models.PhaseStatus{"CAS_ISSUANCE": models.PhaseCompleted})
		c, err := Classify(phases, "VISA_APPLICATION", "CAS_ISSUANCE", lookup)
		require.NoError(t, err)
		assert.Equal(t, models.DirectionBackward, c.Direction)
		assert.Equal(t, -1, c.ToIndex)
	})

	t.Run("current unlisted target also counts as visited", func(t *testing.T) {
		lookup := lookupWith(map[string]models.PhaseStatus{"I20_CONFIRMATION": models.PhaseCurrent})
		c, err := Classify(phases, "VISA_APPLICATION", "I20_CONFIRMATION", lookup)
		require.NoError(t, err)
		assert.Equal(t, models.DirectionBackward, c.Direction)
	})

	t.Run("unvisited country-specific key moves forward", func(t *testing.T) {
		for _, key := range []string{"CAS_ISSUANCE", "I20_CONFIRMATION", "COE_ISSUANCE", "EMGS_APPROVAL", "ATAS_CLEARANCE", "BLOCKED_ACCOUNT", "VISA_DECISION_STEP_B"} {
			c, err := Classify(phases, "INITIAL_PAYMENT", key, lookupWith(nil))
			require.NoError(t, err, "key %s", key)
			assert.Equal(t, models.DirectionForward, c.Direction, "key %s", key)
		}
	})

	t.Run("unvisited unrecognized key is rejected", func(t *testing.T) {
		_, err := Classify(phases, "INITIAL_PAYMENT", "SCHOLARSHIP_REVIEW", lookupWith(nil))
		require.ErrorIs(t, err, ErrPhaseNotStarted)
	})

	t.Run("pending metadata does not make a target visited", func(t *testing.T) {
		lookup := lookupWith(map[string]models.PhaseStatus{"SCHOLARSHIP_REVIEW": models.PhasePending})
		_, err := Classify(phases, "INITIAL_PAYMENT", "SCHOLARSHIP_REVIEW", lookup)
		require.ErrorIs(t, err, ErrPhaseNotStarted)
	})

	t.Run("both sides unlisted trusts the caller", func(t *testing.T) {
		c, err := Classify(phases, "EMGS_APPROVAL", "SCHOLARSHIP_REVIEW", lookupWith(nil))
		require.NoError(t, err)
		assert.Equal(t, models.DirectionForward, c.Direction)
	})
}

func TestClassifyUnlistedCurrent(t *testing.T) {
	phases := catalog.DefaultCatalog()

	t.Run("listed visited target is a reopen", func(t *testing.T) {
		lookup := lookupWith(map[string]models.PhaseStatus{"OFFER_RECEIVED": models.PhaseCompleted})
		c, err := Classify(phases, "CAS_ISSUANCE", "OFFER_RECEIVED", lookup)
		require.NoError(t, err)
		assert.Equal(t, models.DirectionBackward, c.Direction)
	})

	t.Run("listed unvisited target moves forward", func(t *testing.T) {
		c, err := Classify(phases, "CAS_ISSUANCE", "VISA_APPLICATION", lookupWith(nil))
		require.NoError(t, err)
		assert.Equal(t, models.DirectionForward, c.Direction)
	})
}
