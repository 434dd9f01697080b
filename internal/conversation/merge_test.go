// internal/conversation/merge_test.go
package conversation

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"travel-companion/internal/extractor"
	"travel-companion/internal/models"
)

// ==========================
// Test Helper Functions
// ==========================

func recordWithSlots(slots map[string]string) *models.PreferenceRecord {
	record := models.NewPreferenceRecord("test-session", "user-1")
	for k, v := range slots {
		record.Slots[k] = v
	}
	return record
}

func validDecision(proposed map[string]string) *extractor.Decision {
	return &extractor.Decision{
		ReplyText:        "Got it!",
		ProposedSlots:    proposed,
		DestinationValid: true,
	}
}

// ==========================
// Merge Policy Tests
// ==========================

func TestMerge_OverwritesOnlyProposedSlots(t *testing.T) {
	record := recordWithSlots(map[string]string{
		models.SlotDestination: "Paris",
		models.SlotDuration:    "3",
	})

	merged, route := Merge(record, validDecision(map[string]string{
		models.SlotInterests: "art and food",
	}))

	assert.Equal(t, RouteCollecting, route)
	assert.Equal(t, "Paris", merged.Slots[models.SlotDestination])
	assert.Equal(t, "3", merged.Slots[models.SlotDuration])
	assert.Equal(t, "art and food", merged.Slots[models.SlotInterests])
	assert.Equal(t, "", merged.Slots[models.SlotBudget])
}

func TestMerge_EmptyProposalNeverClearsSlot(t *testing.T) {
	record := recordWithSlots(map[string]string{
		models.SlotDestination: "Paris",
	})

	merged, _ := Merge(record, validDecision(map[string]string{
		models.SlotDestination: "   ",
	}))

	assert.Equal(t, "Paris", merged.Slots[models.SlotDestination])
}

func TestMerge_ProposedValuesAreTrimmed(t *testing.T) {
	record := recordWithSlots(nil)

	merged, _ := Merge(record, validDecision(map[string]string{
		models.SlotDestination: "  Tokyo  ",
	}))

	assert.Equal(t, "Tokyo", merged.Slots[models.SlotDestination])
}

func TestMerge_DoesNotMutateInput(t *testing.T) {
	record := recordWithSlots(map[string]string{
		models.SlotDestination: "Paris",
	})

	merged, _ := Merge(record, validDecision(map[string]string{
		models.SlotDestination: "Rome",
	}))

	assert.Equal(t, "Paris", record.Slots[models.SlotDestination])
	assert.Equal(t, "Rome", merged.Slots[models.SlotDestination])
}

func TestMerge_AlwaysKeepsExactlyFourSlots(t *testing.T) {
	record := recordWithSlots(nil)

	merged, _ := Merge(record, validDecision(map[string]string{
		"unknown_slot":         "ignored",
		models.SlotDestination: "Lisbon",
	}))

	assert.Len(t, merged.Slots, 4)
	for _, name := range models.SlotNames {
		_, ok := merged.Slots[name]
		assert.True(t, ok, "slot %q must always be present", name)
	}
	_, hasUnknown := merged.Slots["unknown_slot"]
	assert.False(t, hasUnknown)
}

// ==========================
// Destination Rejection Tests
// ==========================

func TestMerge_InvalidDestinationClearsSlot(t *testing.T) {
	record := recordWithSlots(map[string]string{
		models.SlotDestination: "Narnia",
		models.SlotDuration:    "5",
	})

	merged, route := Merge(record, &extractor.Decision{
		ReplyText:        "I couldn't find that place. Where would you like to go?",
		ProposedSlots:    map[string]string{},
		DestinationValid: false,
	})

	assert.Equal(t, RouteInvalidDestination, route)
	assert.Equal(t, "", merged.Slots[models.SlotDestination])
	// Other slots survive the rejection.
	assert.Equal(t, "5", merged.Slots[models.SlotDuration])
}

func TestMerge_RejectionOverridesSameTurnProposal(t *testing.T) {
	record := recordWithSlots(nil)

	// The extractor both proposed a destination and flagged it invalid in
	// the same turn. Rejection wins.
	merged, route := Merge(record, &extractor.Decision{
		ProposedSlots: map[string]string{
			models.SlotDestination: "Atlantis",
		},
		DestinationValid: false,
	})

	assert.Equal(t, RouteInvalidDestination, route)
	assert.Equal(t, "", merged.Slots[models.SlotDestination])
}

// ==========================
// Routing Tests
// ==========================

func TestMerge_Routing(t *testing.T) {
	tests := []struct {
		name     string
		decision *extractor.Decision
		expected Route
	}{
		{
			name:     "collecting when not ready",
			decision: &extractor.Decision{DestinationValid: true, Ready: false},
			expected: RouteCollecting,
		},
		{
			name:     "ready when extractor asserts ready",
			decision: &extractor.Decision{DestinationValid: true, Ready: true},
			expected: RouteReady,
		},
		{
			name:     "invalid destination beats ready",
			decision: &extractor.Decision{DestinationValid: false, Ready: true},
			expected: RouteInvalidDestination,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, route := Merge(recordWithSlots(nil), tt.decision)
			assert.Equal(t, tt.expected, route)
		})
	}
}

func TestMerge_Idempotent(t *testing.T) {
	record := recordWithSlots(nil)
	decision := validDecision(map[string]string{
		models.SlotDestination: "Kyoto",
		models.SlotDuration:    "4",
	})

	once, _ := Merge(record, decision)
	twice, _ := Merge(once, decision)

	assert.Equal(t, once.Slots, twice.Slots)
}
