package models

// Activity is a single planned stop in a day schedule.
type Activity struct {
	Name         string `json:"name"`
	Description  string `json:"description"`
	TimeSlot     string `json:"timeSlot"`
	Duration     string `json:"duration"`
	CostEstimate string `json:"costEstimate"`
}

// DayPlan is one full day of the trip.
type DayPlan struct {
	DayNumber  int        `json:"dayNumber"`
	Theme      string     `json:"theme"`
	Activities []Activity `json:"activities"`
}

// Itinerary is the complete generated travel plan.
type Itinerary struct {
	TripTitle string    `json:"tripTitle"`
	Summary   string    `json:"summary"`
	Days      []DayPlan `json:"days"`
}

// Fact is a single verified data point from destination research.
type Fact struct {
	Title            string `json:"title"`
	Description      string `json:"description"`
	SourceURL        string `json:"sourceUrl"`
	VerificationDate string `json:"verificationDate"`
}

// ResearchOutput holds verified facts about a destination, fed into planning.
type ResearchOutput struct {
	Destination string `json:"destination"`
	Facts       []Fact `json:"facts"`
}
