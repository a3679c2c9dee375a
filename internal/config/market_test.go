package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"lead-market-api/internal/models"
)

func validMarket() MarketConfig {
	return MarketConfig{
		Buyers: []models.Buyer{
			{
				ID:         "buyer_a",
				Name:       "Buyer A",
				Categories: []string{"hvac"},
				MinPrice:   40,
				Quality:    90,
				Webhook:    "https://a.example.com/leads",
			},
		},
		Destinations: map[string]models.Destination{
			"hvac": {Mode: models.ModeAuction, PriceFloor: 30},
		},
	}
}

func TestMarketValidate_Valid(t *testing.T) {
	cfg := validMarket()
	if err := cfg.Validate(); err != nil {
		t.Errorf("Expected valid market config, got %v", err)
	}
}

func TestMarketValidate_Errors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*MarketConfig)
		wantErr string
	}{
		{
			name:    "no buyers",
			mutate:  func(c *MarketConfig) { c.Buyers = nil },
			wantErr: "at least one buyer",
		},
		{
			name:    "no destinations",
			mutate:  func(c *MarketConfig) { c.Destinations = nil },
			wantErr: "at least one destination",
		},
		{
			name:    "missing buyer id",
			mutate:  func(c *MarketConfig) { c.Buyers[0].ID = "" },
			wantErr: "has no id",
		},
		{
			name: "duplicate buyer id",
			mutate: func(c *MarketConfig) {
				c.Buyers = append(c.Buyers, c.Buyers[0])
			},
			wantErr: "duplicate buyer id",
		},
		{
			name:    "no categories",
			mutate:  func(c *MarketConfig) { c.Buyers[0].Categories = nil },
			wantErr: "has no categories",
		},
		{
			name:    "negative min price",
			mutate:  func(c *MarketConfig) { c.Buyers[0].MinPrice = -1 },
			wantErr: "negative min_price",
		},
		{
			name:    "quality out of range",
			mutate:  func(c *MarketConfig) { c.Buyers[0].Quality = 150 },
			wantErr: "quality must be",
		},
		{
			name:    "bad webhook",
			mutate:  func(c *MarketConfig) { c.Buyers[0].Webhook = "not a url" },
			wantErr: "invalid webhook",
		},
		{
			name: "unknown mode",
			mutate: func(c *MarketConfig) {
				c.Destinations["hvac"] = models.Destination{Mode: "lottery"}
			},
			wantErr: "unknown mode",
		},
		{
			name: "negative price floor",
			mutate: func(c *MarketConfig) {
				c.Destinations["hvac"] = models.Destination{Mode: models.ModeAuction, PriceFloor: -5}
			},
			wantErr: "negative price_floor",
		},
		{
			name: "negative weight",
			mutate: func(c *MarketConfig) {
				c.Destinations["hvac"] = models.Destination{Mode: models.ModeAuction, PriceWeight: -0.5}
			},
			wantErr: "negative weight",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validMarket()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("Expected validation error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestLoadMarket_FromFile(t *testing.T) {
	doc := `{
		"buyers": [
			{"id": "buyer_a", "name": "Buyer A", "categories": ["hvac"], "min_price": 40, "quality": 90, "webhook": "https://a.example.com/leads"},
			{"id": "buyer_b", "name": "Buyer B", "categories": ["hvac"], "min_price": 60, "quality": 70, "webhook": "https://b.example.com/leads"}
		],
		"destinations": {
			"hvac": {"mode": "auction", "price_floor": 30}
		}
	}`
	path := filepath.Join(t.TempDir(), "market.json")
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatalf("Failed to write market file: %v", err)
	}

	cfg, err := LoadMarket(path)
	if err != nil {
		t.Fatalf("LoadMarket failed: %v", err)
	}
	if len(cfg.Buyers) != 2 {
		t.Errorf("Expected 2 buyers, got %d", len(cfg.Buyers))
	}
	dest, ok := cfg.Destinations["hvac"]
	if !ok {
		t.Fatal("Expected hvac destination")
	}
	if dest.Mode != models.ModeAuction || dest.PriceFloor != 30 {
		t.Errorf("Unexpected destination: %+v", dest)
	}
}

func TestLoadMarket_MissingFile(t *testing.T) {
	if _, err := LoadMarket("/nonexistent/market.json"); err == nil {
		t.Error("Expected error for missing market file")
	}
}

func TestLoadMarket_MalformedJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "market.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("Failed to write market file: %v", err)
	}
	if _, err := LoadMarket(path); err == nil {
		t.Error("Expected error for malformed market file")
	}
}
