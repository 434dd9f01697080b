package conversation

import (
	"strings"

	"travel-companion/internal/extractor"
	"travel-companion/internal/models"
)

// Route is the control-flow branch chosen after merging a turn's decision.
type Route string

const (
	RouteCollecting         Route = "collecting"
	RouteInvalidDestination Route = "invalid_destination"
	RouteReady              Route = "ready"
)

// Merge combines a preference record with an extractor decision. It is pure:
// the input record is never mutated, the returned record is a fresh copy.
//
// Slot overwrite happens before the destination-rejection override, so a turn
// that both proposes a new destination and flags it invalid ends with the
// destination cleared, not the proposed value retained.
func Merge(record *models.PreferenceRecord, decision *extractor.Decision) (*models.PreferenceRecord, Route) {
	merged := record.Clone()

	// Last-non-empty-write-wins per slot. The extractor is the sole source
	// of slot updates.
	for _, name := range models.SlotNames {
		if v, ok := decision.ProposedSlots[name]; ok && strings.TrimSpace(v) != "" {
			merged.Slots[name] = strings.TrimSpace(v)
		}
	}

	// A hard rejection overrides any extraction for this turn.
	if !decision.DestinationValid {
		merged.Slots[models.SlotDestination] = ""
	}

	merged.Touch()

	switch {
	case !decision.DestinationValid:
		return merged, RouteInvalidDestination
	case decision.Ready:
		return merged, RouteReady
	default:
		return merged, RouteCollecting
	}
}
