package booking

import (
	"context"
	"time"

	"github.com/google/uuid"

	"lead-market-api/internal/clock"
	"lead-market-api/internal/database"
	"lead-market-api/internal/models"
)

// CalendarManager books and cancels appointments against slots. The database
// transaction is the serialization point: the slot status is re-read and
// flipped inside one unit of work, so two concurrent bookers of the same slot
// can never both succeed.
type CalendarManager struct {
	db    *database.DB
	clock clock.Clock
}

// NewCalendarManager creates a calendar manager.
func NewCalendarManager(db *database.DB, clk clock.Clock) *CalendarManager {
	return &CalendarManager{db: db, clock: clk}
}

// BookingInput carries the contact details for a new appointment.
type BookingInput struct {
	LeadID  string
	Contact models.Contact
	Notes   string
}

// BookAppointment books the given slot. The slot status is checked inside
// the transaction, never trusted from an earlier read. Missing slot reports
// models.ErrSlotNotFound; a slot that is not available reports
// models.ErrSlotUnavailable. The appointment insert and the slot status flip
// commit together or not at all.
func (m *CalendarManager) BookAppointment(ctx context.Context, resourceID, slotID string, in BookingInput) (models.Appointment, error) {
	var appointment models.Appointment

	err := m.db.WithTx(ctx, func(txCtx context.Context) error {
		slot, err := m.db.GetSlot(txCtx, resourceID, slotID)
		if err != nil {
			return err
		}
		if slot.Status != models.SlotAvailable {
			return models.ErrSlotUnavailable
		}

		appointment = models.Appointment{
			ID:         uuid.New().String(),
			ResourceID: resourceID,
			LeadID:     in.LeadID,
			Contact:    in.Contact,
			StartTS:    slot.StartTS,
			EndTS:      slot.EndTS,
			Notes:      in.Notes,
			Status:     models.AppointmentConfirmed,
			CreatedAt:  m.clock.Now(),
		}
		if err := m.db.InsertAppointment(txCtx, appointment); err != nil {
			return err
		}

		flipped, err := m.db.MarkSlotBooked(txCtx, slotID)
		if err != nil {
			return err
		}
		if !flipped {
			// Lost the race between the read above and the update.
			return models.ErrSlotUnavailable
		}
		return nil
	})
	if err != nil {
		return models.Appointment{}, err
	}

	return appointment, nil
}

// CancelAppointment cancels an appointment and atomically reopens the slot
// matching its exact interval. Missing or already-cancelled appointments
// report models.ErrAppointmentNotFound.
func (m *CalendarManager) CancelAppointment(ctx context.Context, appointmentID string) (models.Appointment, error) {
	var appointment models.Appointment

	err := m.db.WithTx(ctx, func(txCtx context.Context) error {
		a, err := m.db.GetAppointment(txCtx, appointmentID)
		if err != nil {
			return err
		}
		if a.Status == models.AppointmentCancelled {
			return models.ErrAppointmentNotFound
		}

		cancelled, err := m.db.MarkAppointmentCancelled(txCtx, appointmentID)
		if err != nil {
			return err
		}
		if !cancelled {
			return models.ErrAppointmentNotFound
		}

		if err := m.db.ReleaseSlots(txCtx, a.ResourceID, a.StartTS, a.EndTS); err != nil {
			return err
		}

		a.Status = models.AppointmentCancelled
		appointment = a
		return nil
	})
	if err != nil {
		return models.Appointment{}, err
	}

	return appointment, nil
}

// ListAppointments returns non-cancelled appointments for a resource in
// [from, to] ordered by start time.
func (m *CalendarManager) ListAppointments(ctx context.Context, resourceID string, from, to time.Time) ([]models.Appointment, error) {
	if _, err := m.db.GetResource(ctx, resourceID); err != nil {
		return nil, err
	}
	return m.db.ListAppointments(ctx, resourceID, from, to)
}
