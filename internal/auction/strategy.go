package auction

import (
	"context"
	"sort"

	"lead-market-api/internal/models"
	"lead-market-api/internal/reputation"
)

// ReputationSource provides the reputation snapshot used at decision time.
type ReputationSource interface {
	Get(ctx context.Context, buyerID string) (score int, hasHistory bool, err error)
}

// AssignmentStrategy selects the winning buyer for a lead. A nil result with
// a nil error means no buyer is eligible ("no sale", not an error). Both
// variants share the same exclusivity and audit contract; destination
// configuration picks between them.
type AssignmentStrategy interface {
	Assign(ctx context.Context, lead models.Lead, dest models.Destination, buyers []models.Buyer) (*models.AuctionResult, error)
}

// FirstEligible is the direct-assignment fallback for non-auction
// destinations: the first buyer eligible for the category wins, in
// configuration order.
type FirstEligible struct {
	reputations ReputationSource
}

// NewFirstEligible creates the direct-assignment strategy.
func NewFirstEligible(reputations ReputationSource) *FirstEligible {
	return &FirstEligible{reputations: reputations}
}

func (s *FirstEligible) Assign(ctx context.Context, lead models.Lead, dest models.Destination, buyers []models.Buyer) (*models.AuctionResult, error) {
	for _, buyer := range buyers {
		if !buyer.HasCategory(dest.Name) {
			continue
		}
		rep, _, err := s.reputations.Get(ctx, buyer.ID)
		if err != nil {
			return nil, err
		}
		return &models.AuctionResult{
			BuyerID:         buyer.ID,
			BuyerName:       buyer.Name,
			Webhook:         buyer.Webhook,
			WinningBid:      buyer.MinPrice,
			TotalBidders:    1,
			PriceFloor:      dest.PriceFloor,
			BuyerReputation: rep,
		}, nil
	}
	return nil, nil
}

// Default composite weights, documented per destination.
const (
	defaultPriceWeight      = 0.5
	defaultQualityWeight    = 0.3
	defaultReputationWeight = 0.2

	defaultQuality = 80
)

// WeightedAuction ranks eligible buyers by the weighted composite of price,
// declared quality and reputation.
type WeightedAuction struct {
	reputations ReputationSource

	// requireHistory excludes buyers that have never had a delivery outcome
	// recorded. Policy, not a hard-coded default.
	requireHistory func() bool
}

// NewWeightedAuction creates the auction strategy. requireHistory may be nil,
// in which case buyers without history compete at the default reputation.
func NewWeightedAuction(reputations ReputationSource, requireHistory func() bool) *WeightedAuction {
	if requireHistory == nil {
		requireHistory = func() bool { return false }
	}
	return &WeightedAuction{reputations: reputations, requireHistory: requireHistory}
}

type bid struct {
	buyer      models.Buyer
	reputation int
	composite  float64
}

func (s *WeightedAuction) Assign(ctx context.Context, lead models.Lead, dest models.Destination, buyers []models.Buyer) (*models.AuctionResult, error) {
	var bids []bid
	for _, buyer := range buyers {
		if !buyer.HasCategory(dest.Name) {
			continue
		}
		if buyer.MinPrice < dest.PriceFloor {
			continue
		}
		rep, hasHistory, err := s.reputations.Get(ctx, buyer.ID)
		if err != nil {
			return nil, err
		}
		if !hasHistory && s.requireHistory() {
			continue
		}
		bids = append(bids, bid{
			buyer:      buyer,
			reputation: rep,
			composite:  CompositeScore(buyer, rep, dest),
		})
	}

	if len(bids) == 0 {
		return nil, nil
	}

	// Stable sort keeps ties in buyer declaration order, so results are
	// deterministic.
	sort.SliceStable(bids, func(i, j int) bool {
		return bids[i].composite > bids[j].composite
	})

	winner := bids[0]
	return &models.AuctionResult{
		BuyerID:         winner.buyer.ID,
		BuyerName:       winner.buyer.Name,
		Webhook:         winner.buyer.Webhook,
		WinningBid:      winner.buyer.MinPrice,
		CompositeScore:  winner.composite,
		TotalBidders:    len(bids),
		PriceFloor:      dest.PriceFloor,
		BuyerReputation: winner.reputation,
	}, nil
}

// CompositeScore computes the weighted ranking score for one buyer. All
// inputs are on a 0-100 scale; the buyer's minimum price is capped at 100.
// Zero-valued weights and quality fall back to the documented defaults.
func CompositeScore(buyer models.Buyer, rep int, dest models.Destination) float64 {
	priceWeight := dest.PriceWeight
	if priceWeight == 0 {
		priceWeight = defaultPriceWeight
	}
	qualityWeight := dest.QualityWeight
	if qualityWeight == 0 {
		qualityWeight = defaultQualityWeight
	}
	reputationWeight := dest.ReputationWeight
	if reputationWeight == 0 {
		reputationWeight = defaultReputationWeight
	}

	priceScore := buyer.MinPrice
	if priceScore > 100 {
		priceScore = 100
	}
	qualityScore := buyer.Quality
	if qualityScore == 0 {
		qualityScore = defaultQuality
	}

	return priceScore*priceWeight + qualityScore*qualityWeight + float64(rep)*reputationWeight
}

var _ ReputationSource = (*reputation.Store)(nil)
