package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"lead-market-api/internal/booking"
	"lead-market-api/internal/cache"
	"lead-market-api/internal/features"
	"lead-market-api/internal/models"
	"lead-market-api/internal/validation"
)

const (
	defaultTimezone      = "America/Chicago"
	defaultBufferMinutes = 15
	defaultDaysAhead     = 14
)

// CreateResource creates a bookable resource.
func (s *Service) CreateResource(ctx context.Context, req models.CreateResourceRequest) (models.Resource, error) {
	if err := validation.ValidateResource(req); err != nil {
		return models.Resource{}, err
	}

	resource := models.Resource{
		ID:            uuid.New().String(),
		TenantID:      req.TenantID,
		Name:          req.Name,
		Timezone:      req.Timezone,
		BufferMinutes: req.BufferMinutes,
		Active:        true,
		CreatedAt:     s.clock.Now(),
	}
	if resource.Timezone == "" {
		resource.Timezone = defaultTimezone
	}
	if resource.BufferMinutes == 0 {
		resource.BufferMinutes = defaultBufferMinutes
	}

	if err := s.db.InsertResource(ctx, resource); err != nil {
		return models.Resource{}, err
	}

	// The listing cache is stale now.
	_ = s.cache.Delete(ctx, cache.ResourcesKey(""))
	_ = s.cache.Delete(ctx, cache.ResourcesKey(resource.TenantID))

	return resource, nil
}

// ListResources returns active resources, optionally filtered by tenant.
// Listings are read-mostly and served from cache when the flag allows it.
func (s *Service) ListResources(ctx context.Context, tenantID string) ([]models.Resource, error) {
	useCache := s.flags.IsEnabled(features.FeatureCacheEnabled)
	key := cache.ResourcesKey(tenantID)

	if useCache {
		var cached []models.Resource
		if err := cache.GetJSON(ctx, s.cache, key, &cached); err == nil {
			return cached, nil
		}
	}

	resources, err := s.db.ListResources(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	if useCache {
		_ = cache.SetJSON(ctx, s.cache, key, resources, s.cacheTTL)
	}

	return resources, nil
}

// GenerateSlots generates bookable slots for a resource. The window defaults
// to the next 14 days starting now.
func (s *Service) GenerateSlots(ctx context.Context, resourceID string, req models.GenerateSlotsRequest) ([]models.Slot, error) {
	if err := validation.ValidateUUID(resourceID, "resource_id"); err != nil {
		return nil, err
	}

	start := s.clock.Now()
	if req.StartDate != "" {
		t, err := validation.ValidateTimeString(req.StartDate)
		if err != nil {
			return nil, err
		}
		start = t
	}

	daysAhead := req.DaysAhead
	if daysAhead <= 0 {
		daysAhead = defaultDaysAhead
	}
	end := start.AddDate(0, 0, daysAhead)
	if req.EndDate != "" {
		t, err := validation.ValidateTimeString(req.EndDate)
		if err != nil {
			return nil, err
		}
		end = t
	}

	slots, err := s.slots.GenerateSlots(ctx, resourceID, start, end, req.SlotDuration)
	if err != nil {
		return nil, err
	}

	s.metrics.SlotsGenerated.Add(float64(len(slots)))
	return slots, nil
}

// GetAvailableSlots returns bookable slots for a resource in [from, to].
func (s *Service) GetAvailableSlots(ctx context.Context, resourceID string, from, to time.Time) ([]models.Slot, error) {
	if err := validation.ValidateUUID(resourceID, "resource_id"); err != nil {
		return nil, err
	}
	return s.slots.GetAvailableSlots(ctx, resourceID, from, to)
}

// BookAppointment books a slot atomically.
func (s *Service) BookAppointment(ctx context.Context, req models.BookAppointmentRequest) (models.Appointment, error) {
	if err := validation.ValidateBooking(req); err != nil {
		return models.Appointment{}, err
	}

	appointment, err := s.calendar.BookAppointment(ctx, req.ResourceID, req.SlotID, booking.BookingInput{
		LeadID: req.LeadID,
		Contact: models.Contact{
			Name:  req.Name,
			Email: req.Email,
			Phone: req.Phone,
		},
		Notes: req.Notes,
	})
	if err != nil {
		switch err {
		case models.ErrSlotNotFound:
			s.metrics.BookingErrors.WithLabelValues("not_found").Inc()
		case models.ErrSlotUnavailable:
			s.metrics.BookingErrors.WithLabelValues("conflict").Inc()
		default:
			s.metrics.BookingErrors.WithLabelValues("internal").Inc()
		}
		return models.Appointment{}, err
	}

	s.metrics.Bookings.Inc()
	s.events.PublishAppointmentBooked(ctx, appointment)

	return appointment, nil
}

// CancelAppointment cancels an appointment and reopens its slot.
func (s *Service) CancelAppointment(ctx context.Context, appointmentID string) (models.Appointment, error) {
	if err := validation.ValidateUUID(appointmentID, "appointment_id"); err != nil {
		return models.Appointment{}, err
	}

	appointment, err := s.calendar.CancelAppointment(ctx, appointmentID)
	if err != nil {
		return models.Appointment{}, err
	}

	s.metrics.Cancellations.Inc()
	s.events.PublishAppointmentCancelled(ctx, appointment)

	return appointment, nil
}

// ListAppointments returns non-cancelled appointments in [from, to].
func (s *Service) ListAppointments(ctx context.Context, resourceID string, from, to time.Time) ([]models.Appointment, error) {
	if err := validation.ValidateUUID(resourceID, "resource_id"); err != nil {
		return nil, err
	}
	return s.calendar.ListAppointments(ctx, resourceID, from, to)
}
