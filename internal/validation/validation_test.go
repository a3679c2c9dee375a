package validation

import (
	"testing"

	"lead-market-api/internal/models"
)

func TestValidateLead(t *testing.T) {
	tests := []struct {
		name    string
		lead    models.Lead
		wantErr bool
	}{
		{
			name: "valid lead",
			lead: models.Lead{Vertical: "hvac", Contact: models.Contact{Email: "a@b.com"}},
		},
		{
			name: "valid lead with id",
			lead: models.Lead{ID: "00000000-0000-4000-8000-000000000000", Vertical: "hvac"},
		},
		{
			name:    "missing vertical",
			lead:    models.Lead{},
			wantErr: true,
		},
		{
			name:    "uppercase vertical",
			lead:    models.Lead{Vertical: "HVAC"},
			wantErr: true,
		},
		{
			name:    "bad lead id",
			lead:    models.Lead{ID: "nope", Vertical: "hvac"},
			wantErr: true,
		},
		{
			name:    "bad email",
			lead:    models.Lead{Vertical: "hvac", Contact: models.Contact{Email: "not-an-email"}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateLead(tt.lead)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateLead() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateBooking(t *testing.T) {
	valid := models.BookAppointmentRequest{
		ResourceID: "00000000-0000-4000-8000-000000000000",
		SlotID:     "00000000-0000-4000-8000-000000000001",
		Name:       "Jamie",
		Phone:      "555-0100",
	}
	if err := ValidateBooking(valid); err != nil {
		t.Errorf("Expected valid booking, got %v", err)
	}

	noContact := valid
	noContact.Phone = ""
	if err := ValidateBooking(noContact); err == nil {
		t.Error("Expected error when both email and phone are empty")
	}

	badSlot := valid
	badSlot.SlotID = "xyz"
	if err := ValidateBooking(badSlot); err == nil {
		t.Error("Expected error for malformed slot id")
	}
}

func TestValidateResource(t *testing.T) {
	valid := models.CreateResourceRequest{TenantID: "t1", Name: "Tech", Timezone: "America/Chicago"}
	if err := ValidateResource(valid); err != nil {
		t.Errorf("Expected valid resource, got %v", err)
	}

	badTZ := valid
	badTZ.Timezone = "Mars/Olympus"
	if err := ValidateResource(badTZ); err == nil {
		t.Error("Expected error for unknown timezone")
	}

	negative := valid
	negative.BufferMinutes = -5
	if err := ValidateResource(negative); err == nil {
		t.Error("Expected error for negative buffer")
	}
}

func TestSanitizeString(t *testing.T) {
	if got := SanitizeString("  hvac\x00lead  "); got != "hvaclead" {
		t.Errorf("Expected control characters and padding stripped, got %q", got)
	}
}

func TestValidateUUID_Case(t *testing.T) {
	if err := ValidateUUID("00000000-0000-4000-8000-000000000000", "id"); err != nil {
		t.Errorf("Expected valid UUID, got %v", err)
	}
	// Uppercase forms are normalized before matching.
	if err := ValidateUUID("00000000-0000-4000-8000-00000000000A", "id"); err != nil {
		t.Errorf("Expected uppercase UUID accepted, got %v", err)
	}
	if err := ValidateUUID("", "id"); err == nil {
		t.Error("Expected error for empty id")
	}
}
