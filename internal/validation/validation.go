package validation

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode"

	"lead-market-api/internal/models"
)

var (
	uuidRegex     = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-4[0-9a-f]{3}-[89ab][0-9a-f]{3}-[0-9a-f]{12}$`)
	emailRegex    = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	verticalRegex = regexp.MustCompile(`^[a-z0-9_\-]{1,64}$`)
)

type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on field '%s': %s", e.Field, e.Message)
}

// ValidateLead checks an inbound lead before scoring. The lead id may be
// empty (one is generated at ingest); everything else follows the data model.
func ValidateLead(lead models.Lead) error {
	if lead.ID != "" {
		if err := ValidateUUID(lead.ID, "lead_id"); err != nil {
			return err
		}
	}

	if err := validateVertical(lead.Vertical); err != nil {
		return err
	}

	if lead.Contact.Email != "" && !emailRegex.MatchString(lead.Contact.Email) {
		return &ValidationError{
			Field:   "contact.email",
			Message: "must be a valid email address",
		}
	}

	if len(lead.Attributes) > 100 {
		return &ValidationError{
			Field:   "attributes",
			Message: "cannot contain more than 100 entries",
		}
	}

	return nil
}

// ValidateDestination checks the destination name on an ingest request.
func ValidateDestination(destination string) error {
	if destination == "" {
		return &ValidationError{
			Field:   "destination",
			Message: "is required",
		}
	}
	if !verticalRegex.MatchString(destination) {
		return &ValidationError{
			Field:   "destination",
			Message: "must be lowercase alphanumeric with - or _",
		}
	}
	return nil
}

// ValidateOutcome checks a buyer outcome report.
func ValidateOutcome(req models.OutcomeRequest) error {
	if req.BuyerID == "" {
		return &ValidationError{
			Field:   "buyer_id",
			Message: "is required",
		}
	}
	if req.Outcome != models.OutcomeDelivered && req.Outcome != models.OutcomeReturned {
		return &ValidationError{
			Field:   "outcome",
			Message: "must be 'delivered' or 'returned'",
		}
	}
	return nil
}

// ValidateResource checks a create-resource request.
func ValidateResource(req models.CreateResourceRequest) error {
	if req.TenantID == "" {
		return &ValidationError{
			Field:   "tenant_id",
			Message: "is required",
		}
	}
	if req.Name == "" {
		return &ValidationError{
			Field:   "name",
			Message: "is required",
		}
	}
	if req.Timezone != "" {
		if _, err := time.LoadLocation(req.Timezone); err != nil {
			return &ValidationError{
				Field:   "timezone",
				Message: "must be a valid IANA timezone",
			}
		}
	}
	if req.BufferMinutes < 0 {
		return &ValidationError{
			Field:   "buffer_minutes",
			Message: "must be non-negative",
		}
	}
	return nil
}

// ValidateBooking checks a book-appointment request.
func ValidateBooking(req models.BookAppointmentRequest) error {
	if err := ValidateUUID(req.ResourceID, "resource_id"); err != nil {
		return err
	}
	if err := ValidateUUID(req.SlotID, "slot_id"); err != nil {
		return err
	}
	if req.LeadID != "" {
		if err := ValidateUUID(req.LeadID, "lead_id"); err != nil {
			return err
		}
	}
	if req.Name == "" {
		return &ValidationError{
			Field:   "name",
			Message: "is required",
		}
	}
	if req.Email == "" && req.Phone == "" {
		return &ValidationError{
			Field:   "email",
			Message: "email or phone is required",
		}
	}
	if req.Email != "" && !emailRegex.MatchString(req.Email) {
		return &ValidationError{
			Field:   "email",
			Message: "must be a valid email address",
		}
	}
	return nil
}

func validateVertical(vertical string) error {
	if vertical == "" {
		return &ValidationError{
			Field:   "vertical",
			Message: "is required",
		}
	}
	if !verticalRegex.MatchString(vertical) {
		return &ValidationError{
			Field:   "vertical",
			Message: "must be lowercase alphanumeric with - or _",
		}
	}
	return nil
}

func SanitizeString(s string) string {
	s = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) && r != '\n' && r != '\r' && r != '\t' {
			return -1
		}
		return r
	}, s)

	return strings.TrimSpace(s)
}

func ValidateUUID(id, fieldName string) error {
	if id == "" {
		return &ValidationError{
			Field:   fieldName,
			Message: "is required",
		}
	}

	id = SanitizeString(id)

	if !uuidRegex.MatchString(strings.ToLower(id)) {
		return &ValidationError{
			Field:   fieldName,
			Message: "must be a valid UUID v4",
		}
	}

	return nil
}

func ValidateTimeString(timeStr string) (time.Time, error) {
	if timeStr == "" {
		return time.Time{}, &ValidationError{
			Field:   "time",
			Message: "is required",
		}
	}

	t, err := time.Parse(time.RFC3339, timeStr)
	if err != nil {
		return time.Time{}, &ValidationError{
			Field:   "time",
			Message: "must be a valid RFC3339 timestamp",
		}
	}

	return t, nil
}
