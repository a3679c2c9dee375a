package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"lead-market-api/internal/auction"
	"lead-market-api/internal/booking"
	"lead-market-api/internal/cache"
	"lead-market-api/internal/clock"
	"lead-market-api/internal/database"
	"lead-market-api/internal/delivery"
	"lead-market-api/internal/events"
	"lead-market-api/internal/features"
	"lead-market-api/internal/metrics"
	"lead-market-api/internal/models"
	"lead-market-api/internal/reputation"
	"lead-market-api/internal/scoring"
	"lead-market-api/internal/validation"
)

// Service provides the business operations behind the API: lead ingest with
// auction and delivery, reputation feedback, and the booking surface.
type Service struct {
	db          *database.DB
	auctions    *auction.Engine
	dispatcher  *delivery.Dispatcher
	reputations *reputation.Store
	slots       *booking.SlotManager
	calendar    *booking.CalendarManager
	cache       cache.Cache
	cacheTTL    time.Duration
	events      *events.Manager
	flags       *features.Manager
	metrics     *metrics.Metrics
	clock       clock.Clock
}

// Deps collects the collaborators a Service needs. All fields are required
// except Cache and CacheTTL.
type Deps struct {
	DB          *database.DB
	Auctions    *auction.Engine
	Dispatcher  *delivery.Dispatcher
	Reputations *reputation.Store
	Slots       *booking.SlotManager
	Calendar    *booking.CalendarManager
	Cache       cache.Cache
	CacheTTL    time.Duration
	Events      *events.Manager
	Flags       *features.Manager
	Metrics     *metrics.Metrics
	Clock       clock.Clock
}

// NewService creates a new service instance.
func NewService(d Deps) *Service {
	if d.Cache == nil {
		d.Cache = cache.NewInMemoryCache()
	}
	if d.CacheTTL <= 0 {
		d.CacheTTL = time.Minute
	}
	return &Service{
		db:          d.DB,
		auctions:    d.Auctions,
		dispatcher:  d.Dispatcher,
		reputations: d.Reputations,
		slots:       d.Slots,
		calendar:    d.Calendar,
		cache:       d.Cache,
		cacheTTL:    d.CacheTTL,
		events:      d.Events,
		flags:       d.Flags,
		metrics:     d.Metrics,
		clock:       d.Clock,
	}
}

// IngestLead scores an inbound lead, runs the auction for its destination,
// and delivers it to the winning buyer. A lead with no eligible buyer comes
// back with a nil auction: "no sale", not an error.
func (s *Service) IngestLead(ctx context.Context, req models.IngestLeadRequest) (models.IngestLeadResponse, error) {
	if err := validation.ValidateLead(req.Lead); err != nil {
		return models.IngestLeadResponse{}, err
	}
	if err := validation.ValidateDestination(req.Destination); err != nil {
		return models.IngestLeadResponse{}, err
	}

	lead := req.Lead
	if lead.ID == "" {
		lead.ID = uuid.New().String()
	}
	lead.Score = scoring.Score(lead)
	lead.CreatedAt = s.clock.Now()

	if err := s.db.InsertLead(ctx, lead); err != nil {
		return models.IngestLeadResponse{}, fmt.Errorf("failed to persist lead: %w", err)
	}
	s.metrics.LeadsScored.Inc()
	s.events.PublishLeadScored(ctx, lead, req.Destination)

	result, err := s.auctions.RunAuction(ctx, lead, req.Destination)
	if err != nil {
		return models.IngestLeadResponse{}, fmt.Errorf("auction failed: %w", err)
	}

	resp := models.IngestLeadResponse{
		LeadID: lead.ID,
		Score:  lead.Score,
	}

	if result == nil {
		s.metrics.AuctionsNoSale.Inc()
		return resp, nil
	}

	if err := s.db.InsertAuctionResult(ctx, *result); err != nil {
		return models.IngestLeadResponse{}, fmt.Errorf("failed to persist auction result: %w", err)
	}
	s.metrics.AuctionsWon.Inc()
	resp.Auction = result

	deliveryResult := s.dispatcher.Deliver(ctx, lead, *result)
	s.metrics.Deliveries.WithLabelValues(string(deliveryResult.Status)).Inc()
	s.events.PublishLeadDelivered(ctx, lead.ID, deliveryResult)
	resp.Delivery = &deliveryResult

	// Successful delivery feeds reputation; a transport failure is
	// reputation-neutral.
	if deliveryResult.Status == models.DeliveryDelivered {
		if err := s.reputations.Record(ctx, result.BuyerID, models.OutcomeDelivered); err != nil {
			return models.IngestLeadResponse{}, fmt.Errorf("failed to record delivery outcome: %w", err)
		}
		s.metrics.Outcomes.WithLabelValues(string(models.OutcomeDelivered)).Inc()
	}

	return resp, nil
}

// RecordOutcome applies a buyer-attributed outcome report for a delivered
// lead to the buyer's reputation.
func (s *Service) RecordOutcome(ctx context.Context, leadID string, req models.OutcomeRequest) error {
	if err := validation.ValidateUUID(leadID, "lead_id"); err != nil {
		return err
	}
	if err := validation.ValidateOutcome(req); err != nil {
		return err
	}

	if _, err := s.db.GetLead(ctx, leadID); err != nil {
		return err
	}
	if _, ok := s.auctions.Buyer(req.BuyerID); !ok {
		return models.ErrBuyerNotFound
	}

	if err := s.reputations.Record(ctx, req.BuyerID, req.Outcome); err != nil {
		return err
	}
	s.metrics.Outcomes.WithLabelValues(string(req.Outcome)).Inc()
	s.events.PublishOutcomeRecorded(ctx, req.BuyerID, leadID, req.Outcome)

	return nil
}

// GetBuyerReputation returns the reputation row for a configured buyer.
// Buyers with no recorded history report the default score.
func (s *Service) GetBuyerReputation(ctx context.Context, buyerID string) (models.BuyerReputation, error) {
	if _, ok := s.auctions.Buyer(buyerID); !ok {
		return models.BuyerReputation{}, models.ErrBuyerNotFound
	}

	rep, err := s.reputations.History(ctx, buyerID)
	if err == models.ErrBuyerNotFound {
		return models.BuyerReputation{BuyerID: buyerID, Score: reputation.DefaultScore}, nil
	}
	if err != nil {
		return models.BuyerReputation{}, err
	}
	return rep, nil
}
