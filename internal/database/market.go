package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"lead-market-api/internal/models"
)

// InsertLead persists a scored lead.
func (db *DB) InsertLead(ctx context.Context, lead models.Lead) error {
	attrs, err := json.Marshal(lead.Attributes)
	if err != nil {
		return fmt.Errorf("failed to serialize lead attributes: %w", err)
	}

	query := `INSERT INTO leads (
		id, vertical, contact_name, contact_email, contact_phone, contact_state,
		attributes, validation_ok, traffic_source, score, created_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = db.querier(ctx).ExecContext(ctx, query,
		lead.ID,
		lead.Vertical,
		lead.Contact.Name,
		lead.Contact.Email,
		lead.Contact.Phone,
		lead.Contact.State,
		string(attrs),
		lead.ValidationOK,
		lead.TrafficSource,
		lead.Score,
		lead.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to insert lead: %w", err)
	}

	return nil
}

// GetLead returns a lead by id.
func (db *DB) GetLead(ctx context.Context, id string) (models.Lead, error) {
	query := `SELECT id, vertical, contact_name, contact_email, contact_phone, contact_state,
		attributes, validation_ok, traffic_source, score, created_at
		FROM leads WHERE id = ?`

	var lead models.Lead
	var attrs, createdAt string
	err := db.querier(ctx).QueryRowContext(ctx, query, id).Scan(
		&lead.ID,
		&lead.Vertical,
		&lead.Contact.Name,
		&lead.Contact.Email,
		&lead.Contact.Phone,
		&lead.Contact.State,
		&attrs,
		&lead.ValidationOK,
		&lead.TrafficSource,
		&lead.Score,
		&createdAt,
	)
	if err == sql.ErrNoRows {
		return models.Lead{}, models.ErrLeadNotFound
	}
	if err != nil {
		return models.Lead{}, fmt.Errorf("failed to get lead: %w", err)
	}

	if err := json.Unmarshal([]byte(attrs), &lead.Attributes); err != nil {
		return models.Lead{}, fmt.Errorf("failed to parse lead attributes: %w", err)
	}
	lead.CreatedAt, err = time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return models.Lead{}, fmt.Errorf("failed to parse created_at: %w", err)
	}

	return lead, nil
}

// InsertAuctionResult appends one auction audit record. Results are
// append-only and never updated afterwards.
func (db *DB) InsertAuctionResult(ctx context.Context, res models.AuctionResult) error {
	query := `INSERT INTO auction_results (
		id, lead_id, buyer_id, buyer_name, winning_bid, composite_score,
		total_bidders, price_floor, buyer_reputation, created_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := db.querier(ctx).ExecContext(ctx, query,
		res.ID,
		res.LeadID,
		res.BuyerID,
		res.BuyerName,
		res.WinningBid,
		res.CompositeScore,
		res.TotalBidders,
		res.PriceFloor,
		res.BuyerReputation,
		res.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to insert auction result: %w", err)
	}

	return nil
}

// GetAuctionResultByLead returns the auction result recorded for a lead, or
// nil when the lead never sold.
func (db *DB) GetAuctionResultByLead(ctx context.Context, leadID string) (*models.AuctionResult, error) {
	query := `SELECT id, lead_id, buyer_id, buyer_name, winning_bid, composite_score,
		total_bidders, price_floor, buyer_reputation, created_at
		FROM auction_results WHERE lead_id = ? ORDER BY created_at LIMIT 1`

	var res models.AuctionResult
	var createdAt string
	err := db.querier(ctx).QueryRowContext(ctx, query, leadID).Scan(
		&res.ID,
		&res.LeadID,
		&res.BuyerID,
		&res.BuyerName,
		&res.WinningBid,
		&res.CompositeScore,
		&res.TotalBidders,
		&res.PriceFloor,
		&res.BuyerReputation,
		&createdAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get auction result: %w", err)
	}

	res.CreatedAt, err = time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse created_at: %w", err)
	}

	return &res, nil
}

// GetBuyerReputation returns the reputation row for a buyer. The second
// return value is false when the buyer has no recorded history.
func (db *DB) GetBuyerReputation(ctx context.Context, buyerID string) (models.BuyerReputation, bool, error) {
	query := `SELECT buyer_id, score, total_leads, returns, updated_at
		FROM buyer_reputation WHERE buyer_id = ?`

	var rep models.BuyerReputation
	var updatedAt string
	err := db.querier(ctx).QueryRowContext(ctx, query, buyerID).Scan(
		&rep.BuyerID,
		&rep.Score,
		&rep.TotalLeads,
		&rep.Returns,
		&updatedAt,
	)
	if err == sql.ErrNoRows {
		return models.BuyerReputation{}, false, nil
	}
	if err != nil {
		return models.BuyerReputation{}, false, fmt.Errorf("failed to get buyer reputation: %w", err)
	}

	rep.UpdatedAt, err = time.Parse(time.RFC3339, updatedAt)
	if err != nil {
		return models.BuyerReputation{}, false, fmt.Errorf("failed to parse updated_at: %w", err)
	}

	return rep, true, nil
}

// RecordDelivered applies one "delivered" outcome: score moves up by 1,
// capped at 100. A single upsert keeps concurrent reports from losing updates.
func (db *DB) RecordDelivered(ctx context.Context, buyerID string, now time.Time) error {
	query := `INSERT INTO buyer_reputation (buyer_id, score, total_leads, returns, updated_at)
		VALUES (?, 81, 1, 0, ?)
		ON CONFLICT(buyer_id) DO UPDATE SET
			total_leads = buyer_reputation.total_leads + 1,
			score = MIN(100, buyer_reputation.score + 1),
			updated_at = excluded.updated_at`

	_, err := db.querier(ctx).ExecContext(ctx, query, buyerID, now.Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to record delivered outcome: %w", err)
	}

	return nil
}

// RecordReturned applies one "returned" outcome: score moves down by 2,
// floored at 20.
func (db *DB) RecordReturned(ctx context.Context, buyerID string, now time.Time) error {
	query := `INSERT INTO buyer_reputation (buyer_id, score, total_leads, returns, updated_at)
		VALUES (?, 78, 1, 1, ?)
		ON CONFLICT(buyer_id) DO UPDATE SET
			total_leads = buyer_reputation.total_leads + 1,
			returns = buyer_reputation.returns + 1,
			score = MAX(20, buyer_reputation.score - 2),
			updated_at = excluded.updated_at`

	_, err := db.querier(ctx).ExecContext(ctx, query, buyerID, now.Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to record returned outcome: %w", err)
	}

	return nil
}
