package models

import (
	"strings"
	"time"
)

// Slot names for the four required trip parameters.
const (
	SlotDestination = "destination"
	SlotDuration    = "duration"
	SlotInterests   = "interests"
	SlotBudget      = "budget"
)

// SlotNames lists the four slots in canonical order.
var SlotNames = []string{SlotDestination, SlotDuration, SlotInterests, SlotBudget}

// PreferenceRecord is the persisted per-session state: the four trip slots
// plus the generated itinerary once planning has run.
type PreferenceRecord struct {
	SessionID string            `json:"sessionId" db:"session_id"`
	UserID    string            `json:"userId,omitempty" db:"user_id"`
	Slots     map[string]string `json:"slots" db:"slots"`
	Itinerary *Itinerary        `json:"itinerary,omitempty" db:"itinerary"`
	CreatedAt time.Time         `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time         `json:"updatedAt" db:"updated_at"`
}

// NewPreferenceRecord creates a record with all four slots unset.
func NewPreferenceRecord(sessionID, userID string) *PreferenceRecord {
	now := time.Now().UTC()
	return &PreferenceRecord{
		SessionID: sessionID,
		UserID:    userID,
		Slots:     emptySlots(),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func emptySlots() map[string]string {
	slots := make(map[string]string, len(SlotNames))
	for _, name := range SlotNames {
		slots[name] = ""
	}
	return slots
}

// NormalizeSlots guarantees the slot map holds exactly the four defined keys.
// Unknown keys are dropped, missing keys become unset.
func (r *PreferenceRecord) NormalizeSlots() {
	normalized := emptySlots()
	for _, name := range SlotNames {
		if v, ok := r.Slots[name]; ok {
			normalized[name] = strings.TrimSpace(v)
		}
	}
	r.Slots = normalized
}

// SlotsComplete reports whether all four slots carry a non-empty value.
func (r *PreferenceRecord) SlotsComplete() bool {
	for _, name := range SlotNames {
		if strings.TrimSpace(r.Slots[name]) == "" {
			return false
		}
	}
	return true
}

// IsCompleted reports whether an itinerary has been generated. Completed
// sessions are terminal: no further slot writes are allowed.
func (r *PreferenceRecord) IsCompleted() bool {
	return r.Itinerary != nil
}

// Clone returns a deep copy so merges never mutate the stored record in place.
func (r *PreferenceRecord) Clone() *PreferenceRecord {
	out := *r
	out.Slots = make(map[string]string, len(r.Slots))
	for k, v := range r.Slots {
		out.Slots[k] = v
	}
	return &out
}

// Touch advances the update timestamp.
func (r *PreferenceRecord) Touch() {
	r.UpdatedAt = time.Now().UTC()
}
