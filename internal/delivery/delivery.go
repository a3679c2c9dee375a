// Package delivery pushes winning leads to buyer webhooks.
package delivery

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"lead-market-api/internal/models"
)

const defaultTimeout = 15 * time.Second

// Dispatcher delivers lead payloads to the winning buyer's registered
// endpoint. Transport failures, timeouts and non-2xx responses all surface as
// a failed DeliveryResult; nothing is raised past this boundary, and retry
// policy belongs to the caller.
type Dispatcher struct {
	client *http.Client
	source string
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithTimeout overrides the default delivery timeout.
func WithTimeout(d time.Duration) Option {
	return func(dp *Dispatcher) {
		if d > 0 {
			dp.client.Timeout = d
		}
	}
}

// WithClient replaces the HTTP client (useful for tests).
func WithClient(c *http.Client) Option {
	return func(dp *Dispatcher) {
		dp.client = c
	}
}

// NewDispatcher creates a dispatcher identified to buyers by source.
func NewDispatcher(source string, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		client: &http.Client{Timeout: defaultTimeout},
		source: source,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// payload is the wire format delivered to buyer webhooks. Only the minimal
// necessary contact fields are transmitted.
type payload struct {
	LeadID     string                 `json:"lead_id"`
	Vertical   string                 `json:"vertical"`
	Contact    payloadContact         `json:"contact"`
	Attributes map[string]interface{} `json:"attributes"`
	Score      int                    `json:"score"`
	Auction    payloadAuction         `json:"auction"`
}

type payloadContact struct {
	Email string `json:"email"`
	Phone string `json:"phone"`
	State string `json:"state"`
}

type payloadAuction struct {
	WinningBid float64 `json:"winning_bid"`
	BuyerID    string  `json:"buyer_id"`
}

// Deliver posts the lead to the auction winner's webhook. A 2xx response
// counts as delivered; everything else is reported as failed.
func (d *Dispatcher) Deliver(ctx context.Context, lead models.Lead, result models.AuctionResult) models.DeliveryResult {
	if result.Webhook == "" {
		return models.DeliveryResult{
			Status:  models.DeliveryFailed,
			BuyerID: result.BuyerID,
			Detail:  "no webhook target configured",
		}
	}

	body, err := json.Marshal(payload{
		LeadID:   lead.ID,
		Vertical: lead.Vertical,
		Contact: payloadContact{
			Email: lead.Contact.Email,
			Phone: lead.Contact.Phone,
			State: lead.Contact.State,
		},
		Attributes: lead.Attributes,
		Score:      lead.Score,
		Auction: payloadAuction{
			WinningBid: result.WinningBid,
			BuyerID:    result.BuyerID,
		},
	})
	if err != nil {
		return models.DeliveryResult{
			Status:  models.DeliveryFailed,
			BuyerID: result.BuyerID,
			Detail:  fmt.Sprintf("failed to encode payload: %v", err),
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, result.Webhook, bytes.NewReader(body))
	if err != nil {
		return models.DeliveryResult{
			Status:  models.DeliveryFailed,
			BuyerID: result.BuyerID,
			Detail:  fmt.Sprintf("failed to build request: %v", err),
		}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Source", d.source)
	req.Header.Set("X-Buyer-ID", result.BuyerID)

	resp, err := d.client.Do(req)
	if err != nil {
		return models.DeliveryResult{
			Status:     models.DeliveryFailed,
			BuyerID:    result.BuyerID,
			WinningBid: result.WinningBid,
			Detail:     fmt.Sprintf("webhook unreachable: %v", err),
		}
	}
	defer resp.Body.Close()

	status := models.DeliveryFailed
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		status = models.DeliveryDelivered
	}

	return models.DeliveryResult{
		Status:       status,
		BuyerID:      result.BuyerID,
		WinningBid:   result.WinningBid,
		ResponseCode: resp.StatusCode,
	}
}
