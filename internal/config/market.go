package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"

	"lead-market-api/internal/models"
)

// MarketConfig is the buyer/destination document driving lead assignment.
// It is loaded once at startup; a malformed or missing document is fatal,
// never a per-request error.
type MarketConfig struct {
	Buyers       []models.Buyer                `json:"buyers"`
	Destinations map[string]models.Destination `json:"destinations"`
}

// LoadMarket reads and validates the market configuration file.
func LoadMarket(path string) (*MarketConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read market config: %w", err)
	}

	var cfg MarketConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse market config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid market config: %w", err)
	}

	return &cfg, nil
}

// Validate checks the structural invariants of the market document.
func (c *MarketConfig) Validate() error {
	if len(c.Buyers) == 0 {
		return fmt.Errorf("at least one buyer is required")
	}
	if len(c.Destinations) == 0 {
		return fmt.Errorf("at least one destination is required")
	}

	seen := make(map[string]bool)
	for i, b := range c.Buyers {
		if b.ID == "" {
			return fmt.Errorf("buyer at index %d has no id", i)
		}
		if seen[b.ID] {
			return fmt.Errorf("duplicate buyer id %q", b.ID)
		}
		seen[b.ID] = true

		if len(b.Categories) == 0 {
			return fmt.Errorf("buyer %q has no categories", b.ID)
		}
		if b.MinPrice < 0 {
			return fmt.Errorf("buyer %q has negative min_price", b.ID)
		}
		if b.Quality < 0 || b.Quality > 100 {
			return fmt.Errorf("buyer %q quality must be in [0,100]", b.ID)
		}
		if b.Webhook != "" {
			if _, err := url.ParseRequestURI(b.Webhook); err != nil {
				return fmt.Errorf("buyer %q has invalid webhook: %w", b.ID, err)
			}
		}
	}

	for name, d := range c.Destinations {
		if d.Mode != models.ModeAuction && d.Mode != models.ModeDirect {
			return fmt.Errorf("destination %q has unknown mode %q", name, d.Mode)
		}
		if d.PriceFloor < 0 {
			return fmt.Errorf("destination %q has negative price_floor", name)
		}
		for _, w := range []float64{d.PriceWeight, d.QualityWeight, d.ReputationWeight} {
			if w < 0 {
				return fmt.Errorf("destination %q has negative weight", name)
			}
		}
	}

	return nil
}
