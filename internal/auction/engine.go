// Package auction selects the winning buyer for a lead.
package auction

import (
	"context"

	"github.com/google/uuid"

	"lead-market-api/internal/clock"
	"lead-market-api/internal/models"
)

// Engine runs lead auctions against a buyer/destination configuration
// snapshot loaded at startup. Auctions for different leads are independent;
// a single run is pure, synchronous scoring over the snapshot buyer list.
type Engine struct {
	buyers       []models.Buyer
	destinations map[string]models.Destination
	auctionMode  AssignmentStrategy
	directMode   AssignmentStrategy
	clock        clock.Clock
}

// NewEngine creates an auction engine over the configured buyers and
// destinations.
func NewEngine(buyers []models.Buyer, destinations map[string]models.Destination, reputations ReputationSource, requireHistory func() bool, clk clock.Clock) *Engine {
	return &Engine{
		buyers:       buyers,
		destinations: destinations,
		auctionMode:  NewWeightedAuction(reputations, requireHistory),
		directMode:   NewFirstEligible(reputations),
		clock:        clk,
	}
}

// RunAuction selects the winning buyer for a lead headed to a destination.
// A nil result means no buyer is eligible; callers treat it as "no sale".
func (e *Engine) RunAuction(ctx context.Context, lead models.Lead, destination string) (*models.AuctionResult, error) {
	dest, ok := e.destinations[destination]
	if !ok {
		return nil, nil
	}
	dest.Name = destination

	strategy := e.directMode
	if dest.Mode == models.ModeAuction {
		strategy = e.auctionMode
	}

	result, err := strategy.Assign(ctx, lead, dest, e.buyers)
	if err != nil || result == nil {
		return nil, err
	}

	result.ID = uuid.New().String()
	result.LeadID = lead.ID
	result.CreatedAt = e.clock.Now()
	return result, nil
}

// Destination returns the configuration for a destination name.
func (e *Engine) Destination(name string) (models.Destination, bool) {
	d, ok := e.destinations[name]
	return d, ok
}

// Buyer returns the configured buyer with the given id.
func (e *Engine) Buyer(id string) (models.Buyer, bool) {
	for _, b := range e.buyers {
		if b.ID == id {
			return b, true
		}
	}
	return models.Buyer{}, false
}
