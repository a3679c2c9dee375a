package auction

import (
	"context"
	"testing"
	"time"

	"lead-market-api/internal/clock"
	"lead-market-api/internal/models"
)

// fakeReputations serves scores from a map; buyers not in the map have no
// history and get the default.
type fakeReputations struct {
	scores map[string]int
}

func (f *fakeReputations) Get(ctx context.Context, buyerID string) (int, bool, error) {
	if score, ok := f.scores[buyerID]; ok {
		return score, true, nil
	}
	return 80, false, nil
}

func testBuyers() []models.Buyer {
	return []models.Buyer{
		{
			ID:         "buyer_a",
			Name:       "Buyer A",
			Categories: []string{"hvac"},
			MinPrice:   40,
			Quality:    90,
			Webhook:    "https://a.example.com/leads",
		},
		{
			ID:         "buyer_b",
			Name:       "Buyer B",
			Categories: []string{"hvac"},
			MinPrice:   60,
			Quality:    70,
			Webhook:    "https://b.example.com/leads",
		},
	}
}

func testDestinations() map[string]models.Destination {
	return map[string]models.Destination{
		"hvac": {
			Mode:       models.ModeAuction,
			PriceFloor: 30,
		},
	}
}

func newTestEngine(reps ReputationSource) *Engine {
	return NewEngine(testBuyers(), testDestinations(), reps,
		nil, clock.NewFixed(time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)))
}

func TestRunAuction_HigherCompositeWins(t *testing.T) {
	engine := newTestEngine(&fakeReputations{})

	lead := models.Lead{ID: "lead-1", Vertical: "hvac"}
	result, err := engine.RunAuction(context.Background(), lead, "hvac")
	if err != nil {
		t.Fatalf("RunAuction failed: %v", err)
	}
	if result == nil {
		t.Fatal("Expected a winner, got no sale")
	}

	// A: 40*0.5 + 90*0.3 + 80*0.2 = 63. B: 60*0.5 + 70*0.3 + 80*0.2 = 67.
	if result.BuyerID != "buyer_b" {
		t.Errorf("Expected buyer_b to win, got %s", result.BuyerID)
	}
	if result.CompositeScore != 67 {
		t.Errorf("Expected composite 67, got %v", result.CompositeScore)
	}
	if result.TotalBidders != 2 {
		t.Errorf("Expected 2 bidders, got %d", result.TotalBidders)
	}
	if result.WinningBid != 60 {
		t.Errorf("Expected winning bid 60, got %v", result.WinningBid)
	}
	if result.BuyerReputation != 80 {
		t.Errorf("Expected reputation snapshot 80, got %d", result.BuyerReputation)
	}
	if result.LeadID != "lead-1" {
		t.Errorf("Expected lead id on result, got %q", result.LeadID)
	}
	if result.ID == "" {
		t.Error("Expected a result id")
	}
}

func TestRunAuction_ReputationFlipsWinner(t *testing.T) {
	// B's reputation drops to 50: B = 60*0.5 + 70*0.3 + 50*0.2 = 61 < A's 63.
	engine := newTestEngine(&fakeReputations{scores: map[string]int{"buyer_b": 50}})

	result, err := engine.RunAuction(context.Background(), models.Lead{ID: "lead-2"}, "hvac")
	if err != nil {
		t.Fatalf("RunAuction failed: %v", err)
	}
	if result == nil || result.BuyerID != "buyer_a" {
		t.Fatalf("Expected buyer_a to win after B reputation drop, got %+v", result)
	}
}

func TestRunAuction_PriceFloorExcludes(t *testing.T) {
	destinations := map[string]models.Destination{
		"hvac": {Mode: models.ModeAuction, PriceFloor: 50},
	}
	engine := NewEngine(testBuyers(), destinations, &fakeReputations{}, nil, clock.NewSystem())

	result, err := engine.RunAuction(context.Background(), models.Lead{ID: "lead-3"}, "hvac")
	if err != nil {
		t.Fatalf("RunAuction failed: %v", err)
	}
	if result == nil {
		t.Fatal("Expected buyer_b to still qualify")
	}
	if result.BuyerID != "buyer_b" {
		t.Errorf("Expected buyer_b, got %s", result.BuyerID)
	}
	if result.TotalBidders != 1 {
		t.Errorf("Expected buyer_a excluded by floor, got %d bidders", result.TotalBidders)
	}
}

func TestRunAuction_NoEligibleBuyers(t *testing.T) {
	engine := newTestEngine(&fakeReputations{})

	result, err := engine.RunAuction(context.Background(), models.Lead{ID: "lead-4"}, "solar")
	if err != nil {
		t.Fatalf("RunAuction failed: %v", err)
	}
	if result != nil {
		t.Errorf("Expected no sale for unconfigured destination, got %+v", result)
	}
}

func TestRunAuction_CategoryMismatch(t *testing.T) {
	destinations := map[string]models.Destination{
		"roofing": {Mode: models.ModeAuction, PriceFloor: 10},
	}
	engine := NewEngine(testBuyers(), destinations, &fakeReputations{}, nil, clock.NewSystem())

	result, err := engine.RunAuction(context.Background(), models.Lead{ID: "lead-5"}, "roofing")
	if err != nil {
		t.Fatalf("RunAuction failed: %v", err)
	}
	if result != nil {
		t.Errorf("Expected no sale when no buyer covers the category, got %+v", result)
	}
}

func TestRunAuction_RequireHistoryExcludesNewBuyers(t *testing.T) {
	// Only buyer_a has history; with the policy on, buyer_b cannot win
	// despite the higher composite.
	reps := &fakeReputations{scores: map[string]int{"buyer_a": 80}}
	engine := NewEngine(testBuyers(), testDestinations(), reps,
		func() bool { return true }, clock.NewSystem())

	result, err := engine.RunAuction(context.Background(), models.Lead{ID: "lead-6"}, "hvac")
	if err != nil {
		t.Fatalf("RunAuction failed: %v", err)
	}
	if result == nil || result.BuyerID != "buyer_a" {
		t.Fatalf("Expected buyer_a (only buyer with history), got %+v", result)
	}
	if result.TotalBidders != 1 {
		t.Errorf("Expected 1 bidder, got %d", result.TotalBidders)
	}
}

func TestRunAuction_StableTieBreak(t *testing.T) {
	buyers := []models.Buyer{
		{ID: "first", Categories: []string{"hvac"}, MinPrice: 50, Quality: 80},
		{ID: "second", Categories: []string{"hvac"}, MinPrice: 50, Quality: 80},
	}
	engine := NewEngine(buyers, testDestinations(), &fakeReputations{}, nil, clock.NewSystem())

	for i := 0; i < 5; i++ {
		result, err := engine.RunAuction(context.Background(), models.Lead{ID: "lead-7"}, "hvac")
		if err != nil {
			t.Fatalf("RunAuction failed: %v", err)
		}
		if result == nil || result.BuyerID != "first" {
			t.Fatalf("Expected declaration-order tie break to pick %q, got %+v", "first", result)
		}
	}
}

func TestRunAuction_DirectModeFirstEligible(t *testing.T) {
	destinations := map[string]models.Destination{
		"hvac": {Mode: models.ModeDirect, PriceFloor: 30},
	}
	engine := NewEngine(testBuyers(), destinations, &fakeReputations{}, nil, clock.NewSystem())

	result, err := engine.RunAuction(context.Background(), models.Lead{ID: "lead-8"}, "hvac")
	if err != nil {
		t.Fatalf("RunAuction failed: %v", err)
	}
	// Direct mode skips scoring: buyer_a comes first in configuration order.
	if result == nil || result.BuyerID != "buyer_a" {
		t.Fatalf("Expected first eligible buyer_a in direct mode, got %+v", result)
	}
}

func TestCompositeScore_PriceCappedAt100(t *testing.T) {
	buyer := models.Buyer{MinPrice: 250, Quality: 80}
	dest := models.Destination{}
	// 100*0.5 + 80*0.3 + 80*0.2 = 90
	if got := CompositeScore(buyer, 80, dest); got != 90 {
		t.Errorf("Expected price capped composite 90, got %v", got)
	}
}

func TestCompositeScore_CustomWeights(t *testing.T) {
	buyer := models.Buyer{MinPrice: 50, Quality: 60}
	dest := models.Destination{PriceWeight: 0.8, QualityWeight: 0.1, ReputationWeight: 0.1}
	// 50*0.8 + 60*0.1 + 90*0.1 = 55
	if got := CompositeScore(buyer, 90, dest); got != 55 {
		t.Errorf("Expected composite 55, got %v", got)
	}
}

func TestCompositeScore_DefaultQuality(t *testing.T) {
	buyer := models.Buyer{MinPrice: 40}
	dest := models.Destination{}
	// 40*0.5 + 80*0.3 + 80*0.2 = 60
	if got := CompositeScore(buyer, 80, dest); got != 60 {
		t.Errorf("Expected default-quality composite 60, got %v", got)
	}
}
