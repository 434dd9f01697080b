package extractor

import "travel-companion/internal/models"

// Decision is the structured result of one extractor call. It is ephemeral:
// the merge policy consumes it, nothing persists it.
type Decision struct {
	ReplyText        string
	ProposedSlots    map[string]string
	Missing          []string
	Ready            bool
	DestinationValid bool
	OffTopic         bool
}

// decisionPayload is the wire shape returned by the extraction API. Slot
// fields are pointers so "no new information" and "empty" both decode as nil.
type decisionPayload struct {
	ResponseToUser     string `json:"responseToUser"`
	UpdatedPreferences struct {
		Destination *string `json:"destination"`
		Duration    *string `json:"duration"`
		Interests   *string `json:"interests"`
		Budget      *string `json:"budget"`
	} `json:"updatedPreferences"`
	MissingInfo        []string `json:"missingInfo"`
	IsReady            bool     `json:"isReady"`
	IsValidDestination bool     `json:"isValidDestination"`
	IsOffTopic         bool     `json:"isOffTopic"`
}

func (p *decisionPayload) toDecision() *Decision {
	proposed := make(map[string]string, 4)
	setIf := func(name string, v *string) {
		if v != nil && *v != "" {
			proposed[name] = *v
		}
	}
	setIf(models.SlotDestination, p.UpdatedPreferences.Destination)
	setIf(models.SlotDuration, p.UpdatedPreferences.Duration)
	setIf(models.SlotInterests, p.UpdatedPreferences.Interests)
	setIf(models.SlotBudget, p.UpdatedPreferences.Budget)

	return &Decision{
		ReplyText:        p.ResponseToUser,
		ProposedSlots:    proposed,
		Missing:          p.MissingInfo,
		Ready:            p.IsReady,
		DestinationValid: p.IsValidDestination,
		OffTopic:         p.IsOffTopic,
	}
}

// FallbackDecision is substituted when the extractor response is malformed or
// unparseable. It keeps the turn alive without touching any slot.
func FallbackDecision() *Decision {
	return &Decision{
		ReplyText:        "I'm having a little trouble understanding. Could we start over with where you want to go?",
		ProposedSlots:    map[string]string{},
		Missing:          []string{models.SlotDestination},
		Ready:            false,
		DestinationValid: true,
	}
}
