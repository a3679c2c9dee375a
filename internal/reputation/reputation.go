// Package reputation tracks per-buyer delivery/return history and the
// derived trust score used by auctions.
package reputation

import (
	"context"
	"fmt"

	"lead-market-api/internal/clock"
	"lead-market-api/internal/database"
	"lead-market-api/internal/models"
)

// DefaultScore is the reputation assumed for buyers with no recorded history.
const DefaultScore = 80

// Store provides reputation reads and outcome feedback. Score updates are
// single atomic upserts, so concurrent outcome reports for the same buyer
// never lose increments, and the score stays clamped to [20, 100].
type Store struct {
	db    *database.DB
	clock clock.Clock
}

// NewStore creates a reputation store.
func NewStore(db *database.DB, clk clock.Clock) *Store {
	return &Store{db: db, clock: clk}
}

// Get returns the buyer's current reputation score and whether the buyer has
// any recorded history. Buyers without history report the default score.
func (s *Store) Get(ctx context.Context, buyerID string) (int, bool, error) {
	rep, found, err := s.db.GetBuyerReputation(ctx, buyerID)
	if err != nil {
		return 0, false, err
	}
	if !found {
		return DefaultScore, false, nil
	}
	return rep.Score, true, nil
}

// History returns the full reputation row for a buyer.
func (s *Store) History(ctx context.Context, buyerID string) (models.BuyerReputation, error) {
	rep, found, err := s.db.GetBuyerReputation(ctx, buyerID)
	if err != nil {
		return models.BuyerReputation{}, err
	}
	if !found {
		return models.BuyerReputation{}, models.ErrBuyerNotFound
	}
	return rep, nil
}

// Record applies one outcome to the buyer's reputation. Delivered moves the
// score up by 1 (capped at 100), returned moves it down by 2 (floored at 20).
// Past auction results are never touched.
func (s *Store) Record(ctx context.Context, buyerID string, outcome models.Outcome) error {
	now := s.clock.Now()
	switch outcome {
	case models.OutcomeDelivered:
		return s.db.RecordDelivered(ctx, buyerID, now)
	case models.OutcomeReturned:
		return s.db.RecordReturned(ctx, buyerID, now)
	default:
		return fmt.Errorf("%w: %q", models.ErrInvalidOutcome, outcome)
	}
}
