package models

// IngestLeadRequest is the request body for lead ingestion.
type IngestLeadRequest struct {
	Lead        Lead   `json:"lead"`
	Destination string `json:"destination"`
}

// IngestLeadResponse reports the full outcome of one ingest run: the score,
// the auction verdict (nil when no buyer was eligible) and, when a winner
// exists, the delivery attempt result.
type IngestLeadResponse struct {
	LeadID   string          `json:"lead_id"`
	Score    int             `json:"score"`
	Auction  *AuctionResult  `json:"auction,omitempty"`
	Delivery *DeliveryResult `json:"delivery,omitempty"`
}

// OutcomeRequest reports a buyer-attributed outcome for a delivered lead.
type OutcomeRequest struct {
	BuyerID string  `json:"buyer_id"`
	Outcome Outcome `json:"outcome"`
}

// CreateResourceRequest is the request body for creating a bookable resource.
type CreateResourceRequest struct {
	TenantID      string `json:"tenant_id"`
	Name          string `json:"name"`
	Timezone      string `json:"timezone,omitempty"`
	BufferMinutes int    `json:"buffer_minutes,omitempty"`
}

// GenerateSlotsRequest is the request body for slot generation.
type GenerateSlotsRequest struct {
	DaysAhead    int    `json:"days_ahead,omitempty"`
	SlotDuration int    `json:"slot_duration,omitempty"` // minutes
	StartDate    string `json:"start_date,omitempty"`    // RFC3339, defaults to now
	EndDate      string `json:"end_date,omitempty"`      // RFC3339, overrides days_ahead
}

// GenerateSlotsResponse returns the slots created by a generation run.
type GenerateSlotsResponse struct {
	SlotsGenerated int    `json:"slots_generated"`
	Slots          []Slot `json:"slots"`
}

// BookAppointmentRequest is the request body for booking an appointment.
type BookAppointmentRequest struct {
	ResourceID string `json:"resource_id"`
	SlotID     string `json:"slot_id"`
	LeadID     string `json:"lead_id,omitempty"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	Notes      string `json:"notes,omitempty"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error"`
}
