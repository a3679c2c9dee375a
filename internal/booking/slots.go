// Package booking manages bookable time slots and the appointments that
// occupy them.
package booking

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"lead-market-api/internal/clock"
	"lead-market-api/internal/database"
	"lead-market-api/internal/models"
)

// Business hours in the resource's local timezone. Slots outside this window
// are never generated, and weekends are skipped entirely.
const (
	businessOpenHour  = 9
	businessCloseHour = 18

	defaultSlotDuration = 60 // minutes
)

// SlotManager generates candidate time slots for a resource and tracks their
// occupancy state.
type SlotManager struct {
	db    *database.DB
	clock clock.Clock
}

// NewSlotManager creates a slot manager.
func NewSlotManager(db *database.DB, clk clock.Clock) *SlotManager {
	return &SlotManager{db: db, clock: clk}
}

// GenerateSlots creates slots for every business-hours interval between
// startDate and endDate (inclusive, by calendar day in the resource's
// timezone). Generation is idempotent: an existing slot for the same
// (resource, start) pair is skipped, so re-running over the same window
// yields the same slot set. A new slot's initial status reconciles against
// non-cancelled appointments that already cover its interval.
func (m *SlotManager) GenerateSlots(ctx context.Context, resourceID string, startDate, endDate time.Time, slotDurationMinutes int) ([]models.Slot, error) {
	resource, err := m.db.GetResource(ctx, resourceID)
	if err != nil {
		return nil, err
	}

	loc, err := time.LoadLocation(resource.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid resource timezone %q: %w", resource.Timezone, err)
	}

	if slotDurationMinutes <= 0 {
		slotDurationMinutes = defaultSlotDuration
	}
	duration := time.Duration(slotDurationMinutes) * time.Minute

	startLocal := startDate.In(loc)
	endLocal := endDate.In(loc)

	var generated []models.Slot
	err = m.db.WithTx(ctx, func(txCtx context.Context) error {
		day := time.Date(startLocal.Year(), startLocal.Month(), startLocal.Day(), 0, 0, 0, 0, loc)
		lastDay := time.Date(endLocal.Year(), endLocal.Month(), endLocal.Day(), 0, 0, 0, 0, loc)

		for ; !day.After(lastDay); day = day.AddDate(0, 0, 1) {
			if wd := day.Weekday(); wd == time.Saturday || wd == time.Sunday {
				continue
			}

			open := time.Date(day.Year(), day.Month(), day.Day(), businessOpenHour, 0, 0, 0, loc)
			close := time.Date(day.Year(), day.Month(), day.Day(), businessCloseHour, 0, 0, 0, loc)

			for cur := open; !cur.Add(duration).After(close); cur = cur.Add(duration) {
				slot, created, err := m.generateSlot(txCtx, resourceID, cur, cur.Add(duration))
				if err != nil {
					return err
				}
				if created {
					generated = append(generated, slot)
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return generated, nil
}

func (m *SlotManager) generateSlot(ctx context.Context, resourceID string, start, end time.Time) (models.Slot, bool, error) {
	exists, err := m.db.SlotExists(ctx, resourceID, start)
	if err != nil {
		return models.Slot{}, false, err
	}
	if exists {
		return models.Slot{}, false, nil
	}

	// An appointment may predate the slots for its period; the new slot's
	// status must reflect it.
	occupied, err := m.db.HasOverlappingAppointment(ctx, resourceID, start, end)
	if err != nil {
		return models.Slot{}, false, err
	}

	status := models.SlotAvailable
	if occupied {
		status = models.SlotBooked
	}

	slot := models.Slot{
		ID:         uuid.New().String(),
		ResourceID: resourceID,
		StartTS:    start.UTC(),
		EndTS:      end.UTC(),
		Status:     status,
	}
	if err := m.db.InsertSlot(ctx, slot); err != nil {
		return models.Slot{}, false, err
	}

	return slot, true, nil
}

// GetAvailableSlots returns available slots in [from, to] ordered by start
// time, reading the latest committed state.
func (m *SlotManager) GetAvailableSlots(ctx context.Context, resourceID string, from, to time.Time) ([]models.Slot, error) {
	if _, err := m.db.GetResource(ctx, resourceID); err != nil {
		return nil, err
	}
	return m.db.ListAvailableSlots(ctx, resourceID, from, to)
}
