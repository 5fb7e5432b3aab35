// Package transition classifies a requested phase change against the catalog
// order. Catalog-index comparison is the source of truth when both phases are
// listed; phase metadata is the source of truth when the target is a
// country-specific phase absent from the catalog.
package transition

import (
	"errors"
	"fmt"
	"strings"

	"stepway/internal/pipeline/catalog"
	"stepway/internal/pipeline/models"
)

var (
	// ErrPhaseNotStarted rejects a backward move into a phase that was never
	// reached. Caller error, not a data problem.
	ErrPhaseNotStarted = errors.New("phase was never started")
	// ErrInvalidOrder rejects targets unreachable under catalog ordering.
	ErrInvalidOrder = errors.New("invalid phase order")
)

// countrySpecificPrefixes is the heuristic allow-list for phase keys that are
// legitimate even though the generic catalog does not enumerate them. They
// name country-specific visa artifacts.
var countrySpecificPrefixes = []string{
	"CAS_",
	"I20_",
	"COE_",
	"EMGS_",
	"ATAS_",
	"VISA_DECISION_STEP",
	"BLOCKED_ACCOUNT",
}

// MetadataLookup reports existing metadata for a phase key, if any. The
// validator uses it only for phases absent from the catalog.
type MetadataLookup func(phaseKey string) (models.PhaseMetadata, bool)

// Classification is the validator's verdict. Indexes are -1 for phases absent
// from the catalog.
type Classification struct {
	Direction models.Direction
	FromIndex int
	ToIndex   int
}

// Classify determines whether moving from fromKey to toKey is a forward move,
// a backward reopen, or a no-op, enforcing ordering legality.
func Classify(phases []models.Phase, fromKey, toKey string, lookup MetadataLookup) (Classification, error) {
	if fromKey == toKey {
		_, idx := catalog.Find(phases, fromKey)
		return Classification{Direction: models.DirectionNoOp, FromIndex: idx, ToIndex: idx}, nil
	}

	_, fromIdx := catalog.Find(phases, fromKey)
	_, toIdx := catalog.Find(phases, toKey)

	if fromIdx >= 0 && toIdx >= 0 {
		c := Classification{FromIndex: fromIdx, ToIndex: toIdx}
		switch {
		case toIdx > fromIdx:
			c.Direction = models.DirectionForward
		case toIdx < fromIdx:
			c.Direction = models.DirectionBackward
		default:
			// Distinct keys can only share an index if the catalog is
			// malformed; refuse rather than guess.
			return Classification{}, fmt.Errorf("%w: %q and %q share catalog position %d", ErrInvalidOrder, fromKey, toKey, toIdx)
		}
		return c, nil
	}

	if toIdx < 0 {
		return classifyUnlistedTarget(fromIdx, toKey, lookup)
	}

	// Current phase is unlisted but the target is listed. The catalog cannot
	// order the pair, so metadata decides: a previously visited target is a
	// reopen, anything else moves forward.
	if lookup != nil {
		if meta, ok := lookup(toKey); ok && (meta.Status == models.PhaseCompleted || meta.Status == models.PhaseCurrent) {
			return Classification{Direction: models.DirectionBackward, FromIndex: fromIdx, ToIndex: toIdx}, nil
		}
	}
	return Classification{Direction: models.DirectionForward, FromIndex: fromIdx, ToIndex: toIdx}, nil
}

func classifyUnlistedTarget(fromIdx int, toKey string, lookup MetadataLookup) (Classification, error) {
	// A target with visited metadata is a valid backward target even though
	// the catalog does not list it (lenient mode).
	if lookup != nil {
		if meta, ok := lookup(toKey); ok && (meta.Status == models.PhaseCompleted || meta.Status == models.PhaseCurrent) {
			return Classification{Direction: models.DirectionBackward, FromIndex: fromIdx, ToIndex: -1}, nil
		}
	}

	// No metadata: allow recognized country-specific keys, and trust the
	// caller when both sides are unlisted.
	if isCountrySpecificKey(toKey) || fromIdx < 0 {
		return Classification{Direction: models.DirectionForward, FromIndex: fromIdx, ToIndex: -1}, nil
	}

	return Classification{}, fmt.Errorf("%w: %q", ErrPhaseNotStarted, toKey)
}

func isCountrySpecificKey(key string) bool {
	for _, prefix := range countrySpecificPrefixes {
		if strings.HasPrefix(key, prefix) {
			return true
		}
	}
	return false
}
