package service

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"lead-market-api/internal/auction"
	"lead-market-api/internal/booking"
	"lead-market-api/internal/clock"
	"lead-market-api/internal/database"
	"lead-market-api/internal/delivery"
	"lead-market-api/internal/events"
	"lead-market-api/internal/features"
	"lead-market-api/internal/metrics"
	"lead-market-api/internal/models"
	"lead-market-api/internal/reputation"
)

func setupTestDB(t *testing.T) (*database.DB, func()) {
	dbPath := "./test_" + time.Now().Format("20060102150405.000000000") + ".db"
	db, err := database.NewDB(dbPath)
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}

	cleanup := func() {
		db.Close()
		os.Remove(dbPath)
	}

	return db, cleanup
}

func marketBuyers(webhook string) []models.Buyer {
	return []models.Buyer{
		{ID: "buyer_a", Name: "Buyer A", Categories: []string{"hvac"}, MinPrice: 40, Quality: 90, Webhook: webhook},
		{ID: "buyer_b", Name: "Buyer B", Categories: []string{"hvac"}, MinPrice: 60, Quality: 70, Webhook: webhook},
	}
}

func marketDestinations() map[string]models.Destination {
	return map[string]models.Destination{
		"hvac": {Mode: models.ModeAuction, PriceFloor: 30},
	}
}

func newTestService(t *testing.T, db *database.DB, webhook string) *Service {
	clk := clock.NewFixed(time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC))
	reputations := reputation.NewStore(db, clk)

	flags := features.NewManager()
	flags.Register(features.FeatureCacheEnabled, true, "")
	flags.Register(features.FeatureRequireDeliveryHistory, false, "")

	eventBus := events.NewManager(false)
	t.Cleanup(eventBus.Shutdown)

	return NewService(Deps{
		DB:          db,
		Auctions:    auction.NewEngine(marketBuyers(webhook), marketDestinations(), reputations, nil, clk),
		Dispatcher:  delivery.NewDispatcher("test", delivery.WithTimeout(2*time.Second)),
		Reputations: reputations,
		Slots:       booking.NewSlotManager(db, clk),
		Calendar:    booking.NewCalendarManager(db, clk),
		Events:      eventBus,
		Flags:       flags,
		Metrics:     metrics.New(prometheus.NewRegistry()),
		Clock:       clk,
	})
}

func TestIngestLead_FullPipeline(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	var deliveries int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		deliveries++
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	svc := newTestService(t, db, server.URL)
	ctx := context.Background()

	resp, err := svc.IngestLead(ctx, models.IngestLeadRequest{
		Lead: models.Lead{
			Vertical:     "hvac",
			Contact:      models.Contact{Email: "owner@example.com", Phone: "555-0100"},
			ValidationOK: true,
		},
		Destination: "hvac",
	})
	if err != nil {
		t.Fatalf("IngestLead failed: %v", err)
	}

	if resp.LeadID == "" {
		t.Error("Expected a generated lead id")
	}
	// 50 + 5 + 5 + 10.
	if resp.Score != 70 {
		t.Errorf("Expected score 70, got %d", resp.Score)
	}
	if resp.Auction == nil {
		t.Fatal("Expected an auction result")
	}
	if resp.Auction.BuyerID != "buyer_b" {
		t.Errorf("Expected buyer_b to win, got %s", resp.Auction.BuyerID)
	}
	if resp.Delivery == nil || resp.Delivery.Status != models.DeliveryDelivered {
		t.Fatalf("Expected delivered, got %+v", resp.Delivery)
	}
	if deliveries != 1 {
		t.Errorf("Expected 1 webhook call, got %d", deliveries)
	}

	// Lead and auction result are persisted.
	lead, err := db.GetLead(ctx, resp.LeadID)
	if err != nil {
		t.Fatalf("Lead not persisted: %v", err)
	}
	if lead.Score != 70 {
		t.Errorf("Expected persisted score 70, got %d", lead.Score)
	}
	stored, err := db.GetAuctionResultByLead(ctx, resp.LeadID)
	if err != nil {
		t.Fatalf("GetAuctionResultByLead failed: %v", err)
	}
	if stored == nil || stored.BuyerID != "buyer_b" {
		t.Errorf("Expected persisted auction result for buyer_b, got %+v", stored)
	}

	// Successful delivery fed the winner's reputation: 80 -> 81.
	rep, err := svc.GetBuyerReputation(ctx, "buyer_b")
	if err != nil {
		t.Fatalf("GetBuyerReputation failed: %v", err)
	}
	if rep.Score != 81 || rep.TotalLeads != 1 {
		t.Errorf("Expected reputation 81 with 1 lead, got %+v", rep)
	}
}

func TestIngestLead_NoSale(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	svc := newTestService(t, db, "")

	resp, err := svc.IngestLead(context.Background(), models.IngestLeadRequest{
		Lead:        models.Lead{Vertical: "solar"},
		Destination: "solar",
	})
	if err != nil {
		t.Fatalf("IngestLead failed: %v", err)
	}
	if resp.Auction != nil {
		t.Errorf("Expected no auction result, got %+v", resp.Auction)
	}
	if resp.Delivery != nil {
		t.Errorf("Expected no delivery for a no-sale lead, got %+v", resp.Delivery)
	}
	if resp.Score == 0 || resp.LeadID == "" {
		t.Error("Expected the lead to still be scored and persisted")
	}
}

func TestIngestLead_DeliveryFailureIsReputationNeutral(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	svc := newTestService(t, db, server.URL)
	ctx := context.Background()

	resp, err := svc.IngestLead(ctx, models.IngestLeadRequest{
		Lead:        models.Lead{Vertical: "hvac"},
		Destination: "hvac",
	})
	if err != nil {
		t.Fatalf("IngestLead failed: %v", err)
	}
	if resp.Delivery == nil || resp.Delivery.Status != models.DeliveryFailed {
		t.Fatalf("Expected failed delivery, got %+v", resp.Delivery)
	}

	rep, err := svc.GetBuyerReputation(ctx, resp.Auction.BuyerID)
	if err != nil {
		t.Fatalf("GetBuyerReputation failed: %v", err)
	}
	if rep.Score != reputation.DefaultScore || rep.TotalLeads != 0 {
		t.Errorf("Expected untouched reputation, got %+v", rep)
	}
}

func TestIngestLead_ValidationRejected(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	svc := newTestService(t, db, "")

	_, err := svc.IngestLead(context.Background(), models.IngestLeadRequest{
		Lead:        models.Lead{Vertical: ""},
		Destination: "hvac",
	})
	if err == nil {
		t.Error("Expected validation error for missing vertical")
	}

	_, err = svc.IngestLead(context.Background(), models.IngestLeadRequest{
		Lead: models.Lead{Vertical: "hvac"},
	})
	if err == nil {
		t.Error("Expected validation error for missing destination")
	}
}

func TestRecordOutcome_Returned(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	svc := newTestService(t, db, server.URL)
	ctx := context.Background()

	resp, err := svc.IngestLead(ctx, models.IngestLeadRequest{
		Lead:        models.Lead{Vertical: "hvac"},
		Destination: "hvac",
	})
	if err != nil {
		t.Fatalf("IngestLead failed: %v", err)
	}

	err = svc.RecordOutcome(ctx, resp.LeadID, models.OutcomeRequest{
		BuyerID: resp.Auction.BuyerID,
		Outcome: models.OutcomeReturned,
	})
	if err != nil {
		t.Fatalf("RecordOutcome failed: %v", err)
	}

	// 80 -> 81 on delivery, then -2 on the return.
	rep, err := svc.GetBuyerReputation(ctx, resp.Auction.BuyerID)
	if err != nil {
		t.Fatalf("GetBuyerReputation failed: %v", err)
	}
	if rep.Score != 79 || rep.Returns != 1 {
		t.Errorf("Expected score 79 with 1 return, got %+v", rep)
	}
}

func TestRecordOutcome_UnknownLeadAndBuyer(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	svc := newTestService(t, db, "")
	ctx := context.Background()

	err := svc.RecordOutcome(ctx, uuid.New().String(), models.OutcomeRequest{
		BuyerID: "buyer_a",
		Outcome: models.OutcomeReturned,
	})
	if !errors.Is(err, models.ErrLeadNotFound) {
		t.Errorf("Expected ErrLeadNotFound, got %v", err)
	}

	resp, err := svc.IngestLead(ctx, models.IngestLeadRequest{
		Lead:        models.Lead{Vertical: "hvac"},
		Destination: "hvac",
	})
	if err != nil {
		t.Fatalf("IngestLead failed: %v", err)
	}

	err = svc.RecordOutcome(ctx, resp.LeadID, models.OutcomeRequest{
		BuyerID: "stranger",
		Outcome: models.OutcomeReturned,
	})
	if !errors.Is(err, models.ErrBuyerNotFound) {
		t.Errorf("Expected ErrBuyerNotFound for unconfigured buyer, got %v", err)
	}
}

func TestGetBuyerReputation_DefaultWithoutHistory(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	svc := newTestService(t, db, "")

	rep, err := svc.GetBuyerReputation(context.Background(), "buyer_a")
	if err != nil {
		t.Fatalf("GetBuyerReputation failed: %v", err)
	}
	if rep.Score != reputation.DefaultScore {
		t.Errorf("Expected default score %d, got %d", reputation.DefaultScore, rep.Score)
	}

	if _, err := svc.GetBuyerReputation(context.Background(), "stranger"); !errors.Is(err, models.ErrBuyerNotFound) {
		t.Errorf("Expected ErrBuyerNotFound, got %v", err)
	}
}

func TestBookingThroughService(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	svc := newTestService(t, db, "")
	ctx := context.Background()

	resource, err := svc.CreateResource(ctx, models.CreateResourceRequest{
		TenantID: "tenant-1",
		Name:     "Tech One",
		Timezone: "UTC",
	})
	if err != nil {
		t.Fatalf("CreateResource failed: %v", err)
	}

	// Fixed clock: Monday 2026-03-02.
	slots, err := svc.GenerateSlots(ctx, resource.ID, models.GenerateSlotsRequest{
		DaysAhead:    1,
		SlotDuration: 60,
	})
	if err != nil {
		t.Fatalf("GenerateSlots failed: %v", err)
	}
	if len(slots) == 0 {
		t.Fatal("Expected generated slots")
	}

	appointment, err := svc.BookAppointment(ctx, models.BookAppointmentRequest{
		ResourceID: resource.ID,
		SlotID:     slots[0].ID,
		Name:       "Jamie",
		Email:      "jamie@example.com",
	})
	if err != nil {
		t.Fatalf("BookAppointment failed: %v", err)
	}

	listed, err := svc.ListAppointments(ctx, resource.ID,
		slots[0].StartTS.AddDate(0, 0, -1), slots[0].StartTS.AddDate(0, 0, 2))
	if err != nil {
		t.Fatalf("ListAppointments failed: %v", err)
	}
	if len(listed) != 1 || listed[0].ID != appointment.ID {
		t.Errorf("Expected the booked appointment listed, got %+v", listed)
	}

	if _, err := svc.CancelAppointment(ctx, appointment.ID); err != nil {
		t.Fatalf("CancelAppointment failed: %v", err)
	}
}

func TestListResources_FiltersByTenant(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	svc := newTestService(t, db, "")
	ctx := context.Background()

	if _, err := svc.CreateResource(ctx, models.CreateResourceRequest{TenantID: "t1", Name: "A"}); err != nil {
		t.Fatalf("CreateResource failed: %v", err)
	}
	if _, err := svc.CreateResource(ctx, models.CreateResourceRequest{TenantID: "t2", Name: "B"}); err != nil {
		t.Fatalf("CreateResource failed: %v", err)
	}

	all, err := svc.ListResources(ctx, "")
	if err != nil {
		t.Fatalf("ListResources failed: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("Expected 2 resources, got %d", len(all))
	}

	t1, err := svc.ListResources(ctx, "t1")
	if err != nil {
		t.Fatalf("ListResources failed: %v", err)
	}
	if len(t1) != 1 || t1[0].Name != "A" {
		t.Errorf("Expected only tenant t1's resource, got %+v", t1)
	}
}
