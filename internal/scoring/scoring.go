// Package scoring computes lead quality scores from lead attributes.
package scoring

import "lead-market-api/internal/models"

// Fixed heuristic increments. The function is intentionally simple and
// swappable; downstream consumers only assume the [0,100] output range.
const (
	baseline         = 50
	emailBonus       = 5
	phoneBonus       = 5
	validationBonus  = 10
	creditBonus      = 10
	paidTrafficBonus = 5

	creditScoreThreshold = 640
)

// paidTrafficSources are the traffic sources that count as paid acquisition.
var paidTrafficSources = map[string]bool{
	"google": true,
	"bing":   true,
	"ads":    true,
}

// Score computes a 0-100 quality score for a lead. Deterministic and
// side-effect-free; missing fields are treated as absent, not invalid.
func Score(lead models.Lead) int {
	s := baseline

	if lead.Contact.Email != "" {
		s += emailBonus
	}
	if lead.Contact.Phone != "" {
		s += phoneBonus
	}
	if lead.ValidationOK {
		s += validationBonus
	}
	if creditScore(lead.Attributes) >= creditScoreThreshold {
		s += creditBonus
	}
	if paidTrafficSources[lead.TrafficSource] {
		s += paidTrafficBonus
	}

	if s < 0 {
		return 0
	}
	if s > 100 {
		return 100
	}
	return s
}

// creditScore extracts a numeric credit_score attribute. JSON decoding
// produces float64; typed ints appear when leads are built in code.
func creditScore(attrs map[string]interface{}) float64 {
	v, ok := attrs["credit_score"]
	if !ok {
		return 0
	}
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	case int64:
		return float64(n)
	default:
		return 0
	}
}
