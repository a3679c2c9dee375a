package models

import "time"

// Contact holds the contact fields carried by leads and appointments.
type Contact struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
	State string `json:"state,omitempty"`
}

// Lead represents an inbound lead record. The quality score is computed once
// at ingest and never changes afterwards.
type Lead struct {
	ID            string                 `json:"lead_id"` // uuid
	Vertical      string                 `json:"vertical"`
	Contact       Contact                `json:"contact"`
	Attributes    map[string]interface{} `json:"attributes,omitempty"` // urgency, credit_score, etc.
	ValidationOK  bool                   `json:"validation_ok"`
	TrafficSource string                 `json:"traffic_source,omitempty"` // e.g. "google", "bing", "ads"
	Score         int                    `json:"score"`                    // 0-100
	CreatedAt     time.Time              `json:"created_at"`
}

// Buyer is a configured lead buyer. Reputation lives in its own table and is
// the only mutable piece of buyer state after configuration load.
type Buyer struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Categories []string `json:"categories"`
	MinPrice   float64  `json:"min_price"`
	Quality    float64  `json:"quality"` // declared quality rating, 0 means unset
	Webhook    string   `json:"webhook"`
}

// HasCategory reports whether the buyer is declared eligible for a category.
func (b Buyer) HasCategory(category string) bool {
	for _, c := range b.Categories {
		if c == category {
			return true
		}
	}
	return false
}

// Destination assignment modes.
const (
	ModeAuction = "auction"
	ModeDirect  = "direct"
)

// Destination is a configured lead destination with its assignment mode and
// auction weights. Zero weights fall back to the documented 0.5/0.3/0.2 split.
type Destination struct {
	Name             string  `json:"name"`
	Mode             string  `json:"mode"`
	PriceFloor       float64 `json:"price_floor"`
	PriceWeight      float64 `json:"price_weight"`
	QualityWeight    float64 `json:"quality_weight"`
	ReputationWeight float64 `json:"reputation_weight"`
}

// AuctionResult is the append-only audit record of a single auction run. The
// reputation value is a point-in-time snapshot; later reputation changes never
// alter a past result.
type AuctionResult struct {
	ID              string    `json:"id"`
	LeadID          string    `json:"lead_id"`
	BuyerID         string    `json:"buyer_id"`
	BuyerName       string    `json:"buyer_name"`
	Webhook         string    `json:"-"`
	WinningBid      float64   `json:"winning_bid"`
	CompositeScore  float64   `json:"composite_score"`
	TotalBidders    int       `json:"total_bidders"`
	PriceFloor      float64   `json:"price_floor"`
	BuyerReputation int       `json:"buyer_reputation"`
	CreatedAt       time.Time `json:"created_at"`
}

// Outcome of a delivered lead, reported back by the buyer.
type Outcome string

const (
	OutcomeDelivered Outcome = "delivered"
	OutcomeReturned  Outcome = "returned"
)

// BuyerReputation tracks a buyer's outcome history and derived score.
// The score is clamped to [20, 100].
type BuyerReputation struct {
	BuyerID    string    `json:"buyer_id"`
	Score      int       `json:"score"`
	TotalLeads int       `json:"total_leads"`
	Returns    int       `json:"returns"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// DeliveryStatus is the terminal state of one delivery attempt.
type DeliveryStatus string

const (
	DeliveryDelivered DeliveryStatus = "delivered"
	DeliveryFailed    DeliveryStatus = "failed"
)

// DeliveryResult reports the outcome of pushing a lead to the winning buyer.
// Transport problems surface here as status "failed", never as errors.
type DeliveryResult struct {
	Status       DeliveryStatus `json:"status"`
	BuyerID      string         `json:"buyer_id,omitempty"`
	WinningBid   float64        `json:"winning_bid,omitempty"`
	ResponseCode int            `json:"response_code,omitempty"`
	Detail       string         `json:"detail,omitempty"`
}

// Resource is a bookable entity (staff member, room, etc.).
type Resource struct {
	ID            string    `json:"id"`
	TenantID      string    `json:"tenant_id"`
	Name          string    `json:"name"`
	Timezone      string    `json:"timezone"`
	BufferMinutes int       `json:"buffer_minutes"`
	Active        bool      `json:"active"`
	CreatedAt     time.Time `json:"created_at"`
}

// SlotStatus is the occupancy state of a slot.
type SlotStatus string

const (
	SlotAvailable SlotStatus = "available"
	SlotBooked    SlotStatus = "booked"
)

// Slot is a fixed time interval on a resource's calendar. Intervals are
// half-open: [StartTS, EndTS).
type Slot struct {
	ID         string     `json:"id"`
	ResourceID string     `json:"resource_id"`
	StartTS    time.Time  `json:"start_ts"`
	EndTS      time.Time  `json:"end_ts"`
	Status     SlotStatus `json:"status"`
}

// AppointmentStatus is the lifecycle state of an appointment.
type AppointmentStatus string

const (
	AppointmentConfirmed AppointmentStatus = "confirmed"
	AppointmentCancelled AppointmentStatus = "cancelled"
)

// Appointment occupies a slot interval on a resource. At most one
// non-cancelled appointment may exist per overlapping resource interval.
type Appointment struct {
	ID         string            `json:"id"`
	ResourceID string            `json:"resource_id"`
	LeadID     string            `json:"lead_id,omitempty"`
	Contact    Contact           `json:"contact"`
	StartTS    time.Time         `json:"start_ts"`
	EndTS      time.Time         `json:"end_ts"`
	Notes      string            `json:"notes,omitempty"`
	Status     AppointmentStatus `json:"status"`
	CreatedAt  time.Time         `json:"created_at"`
}

// Overlaps reports whether two half-open intervals [s1,e1) and [s2,e2)
// intersect. Back-to-back intervals do not overlap.
func Overlaps(s1, e1, s2, e2 time.Time) bool {
	return s1.Before(e2) && s2.Before(e1)
}
