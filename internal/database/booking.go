package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"lead-market-api/internal/models"
)

// Timestamps are stored as UTC RFC3339 strings so range comparisons work
// lexicographically.
func ts(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func parseTS(s string) (time.Time, error) {
	return time.Parse(time.RFC3339, s)
}

// InsertResource persists a bookable resource.
func (db *DB) InsertResource(ctx context.Context, r models.Resource) error {
	query := `INSERT INTO resources (id, tenant_id, name, timezone, buffer_minutes, active, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`

	_, err := db.querier(ctx).ExecContext(ctx, query,
		r.ID, r.TenantID, r.Name, r.Timezone, r.BufferMinutes, r.Active, ts(r.CreatedAt))
	if err != nil {
		return fmt.Errorf("failed to insert resource: %w", err)
	}

	return nil
}

// GetResource returns a resource by id.
func (db *DB) GetResource(ctx context.Context, id string) (models.Resource, error) {
	query := `SELECT id, tenant_id, name, timezone, buffer_minutes, active, created_at
		FROM resources WHERE id = ?`

	var r models.Resource
	var createdAt string
	err := db.querier(ctx).QueryRowContext(ctx, query, id).Scan(
		&r.ID, &r.TenantID, &r.Name, &r.Timezone, &r.BufferMinutes, &r.Active, &createdAt)
	if err == sql.ErrNoRows {
		return models.Resource{}, models.ErrResourceNotFound
	}
	if err != nil {
		return models.Resource{}, fmt.Errorf("failed to get resource: %w", err)
	}

	r.CreatedAt, err = parseTS(createdAt)
	if err != nil {
		return models.Resource{}, fmt.Errorf("failed to parse created_at: %w", err)
	}

	return r, nil
}

// ListResources returns active resources, optionally filtered by tenant.
func (db *DB) ListResources(ctx context.Context, tenantID string) ([]models.Resource, error) {
	query := `SELECT id, tenant_id, name, timezone, buffer_minutes, active, created_at
		FROM resources WHERE active = 1`
	args := []interface{}{}
	if tenantID != "" {
		query += ` AND tenant_id = ?`
		args = append(args, tenantID)
	}
	query += ` ORDER BY created_at`

	rows, err := db.querier(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query resources: %w", err)
	}
	defer rows.Close()

	var resources []models.Resource
	for rows.Next() {
		var r models.Resource
		var createdAt string
		if err := rows.Scan(&r.ID, &r.TenantID, &r.Name, &r.Timezone, &r.BufferMinutes, &r.Active, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan resource: %w", err)
		}
		if r.CreatedAt, err = parseTS(createdAt); err != nil {
			return nil, fmt.Errorf("failed to parse created_at: %w", err)
		}
		resources = append(resources, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating resources: %w", err)
	}

	return resources, nil
}

// SlotExists reports whether a slot already exists for the exact
// (resource, start) pair. Slot generation uses this for idempotency.
func (db *DB) SlotExists(ctx context.Context, resourceID string, start time.Time) (bool, error) {
	var one int
	err := db.querier(ctx).QueryRowContext(ctx,
		`SELECT 1 FROM slots WHERE resource_id = ? AND start_ts = ?`,
		resourceID, ts(start)).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check slot existence: %w", err)
	}
	return true, nil
}

// InsertSlot persists a generated slot.
func (db *DB) InsertSlot(ctx context.Context, s models.Slot) error {
	query := `INSERT INTO slots (id, resource_id, start_ts, end_ts, status) VALUES (?, ?, ?, ?, ?)`

	_, err := db.querier(ctx).ExecContext(ctx, query,
		s.ID, s.ResourceID, ts(s.StartTS), ts(s.EndTS), string(s.Status))
	if err != nil {
		return fmt.Errorf("failed to insert slot: %w", err)
	}

	return nil
}

// GetSlot returns a slot by id scoped to a resource.
func (db *DB) GetSlot(ctx context.Context, resourceID, slotID string) (models.Slot, error) {
	query := `SELECT id, resource_id, start_ts, end_ts, status FROM slots WHERE id = ? AND resource_id = ?`

	var s models.Slot
	var start, end, status string
	err := db.querier(ctx).QueryRowContext(ctx, query, slotID, resourceID).Scan(
		&s.ID, &s.ResourceID, &start, &end, &status)
	if err == sql.ErrNoRows {
		return models.Slot{}, models.ErrSlotNotFound
	}
	if err != nil {
		return models.Slot{}, fmt.Errorf("failed to get slot: %w", err)
	}

	if s.StartTS, err = parseTS(start); err != nil {
		return models.Slot{}, fmt.Errorf("failed to parse start_ts: %w", err)
	}
	if s.EndTS, err = parseTS(end); err != nil {
		return models.Slot{}, fmt.Errorf("failed to parse end_ts: %w", err)
	}
	s.Status = models.SlotStatus(status)

	return s, nil
}

// MarkSlotBooked flips one slot from available to booked. It returns false
// when the slot was not in the available state, which callers treat as a
// booking conflict.
func (db *DB) MarkSlotBooked(ctx context.Context, slotID string) (bool, error) {
	res, err := db.querier(ctx).ExecContext(ctx,
		`UPDATE slots SET status = ? WHERE id = ? AND status = ?`,
		string(models.SlotBooked), slotID, string(models.SlotAvailable))
	if err != nil {
		return false, fmt.Errorf("failed to mark slot booked: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return n == 1, nil
}

// ReleaseSlots sets every slot matching the exact (resource, start, end)
// interval back to available.
func (db *DB) ReleaseSlots(ctx context.Context, resourceID string, start, end time.Time) error {
	_, err := db.querier(ctx).ExecContext(ctx,
		`UPDATE slots SET status = ? WHERE resource_id = ? AND start_ts = ? AND end_ts = ?`,
		string(models.SlotAvailable), resourceID, ts(start), ts(end))
	if err != nil {
		return fmt.Errorf("failed to release slots: %w", err)
	}
	return nil
}

// ListAvailableSlots returns available slots in [from, to] ordered by start.
func (db *DB) ListAvailableSlots(ctx context.Context, resourceID string, from, to time.Time) ([]models.Slot, error) {
	query := `SELECT id, resource_id, start_ts, end_ts, status
		FROM slots
		WHERE resource_id = ? AND start_ts >= ? AND end_ts <= ? AND status = ?
		ORDER BY start_ts`

	rows, err := db.querier(ctx).QueryContext(ctx, query,
		resourceID, ts(from), ts(to), string(models.SlotAvailable))
	if err != nil {
		return nil, fmt.Errorf("failed to query available slots: %w", err)
	}
	defer rows.Close()

	return scanSlots(rows)
}

func scanSlots(rows *sql.Rows) ([]models.Slot, error) {
	var slots []models.Slot
	for rows.Next() {
		var s models.Slot
		var start, end, status string
		if err := rows.Scan(&s.ID, &s.ResourceID, &start, &end, &status); err != nil {
			return nil, fmt.Errorf("failed to scan slot: %w", err)
		}
		var err error
		if s.StartTS, err = parseTS(start); err != nil {
			return nil, fmt.Errorf("failed to parse start_ts: %w", err)
		}
		if s.EndTS, err = parseTS(end); err != nil {
			return nil, fmt.Errorf("failed to parse end_ts: %w", err)
		}
		s.Status = models.SlotStatus(status)
		slots = append(slots, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating slots: %w", err)
	}
	return slots, nil
}

// HasOverlappingAppointment reports whether any non-cancelled appointment on
// the resource overlaps the half-open interval [start, end).
func (db *DB) HasOverlappingAppointment(ctx context.Context, resourceID string, start, end time.Time) (bool, error) {
	query := `SELECT 1 FROM appointments
		WHERE resource_id = ? AND status != ? AND start_ts < ? AND end_ts > ?
		LIMIT 1`

	var one int
	err := db.querier(ctx).QueryRowContext(ctx, query,
		resourceID, string(models.AppointmentCancelled), ts(end), ts(start)).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check appointment overlap: %w", err)
	}
	return true, nil
}

// InsertAppointment persists an appointment.
func (db *DB) InsertAppointment(ctx context.Context, a models.Appointment) error {
	query := `INSERT INTO appointments (
		id, resource_id, lead_id, contact_name, contact_email, contact_phone,
		start_ts, end_ts, notes, status, created_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := db.querier(ctx).ExecContext(ctx, query,
		a.ID,
		a.ResourceID,
		a.LeadID,
		a.Contact.Name,
		a.Contact.Email,
		a.Contact.Phone,
		ts(a.StartTS),
		ts(a.EndTS),
		a.Notes,
		string(a.Status),
		ts(a.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert appointment: %w", err)
	}

	return nil
}

// GetAppointment returns an appointment by id.
func (db *DB) GetAppointment(ctx context.Context, id string) (models.Appointment, error) {
	query := `SELECT id, resource_id, lead_id, contact_name, contact_email, contact_phone,
		start_ts, end_ts, notes, status, created_at
		FROM appointments WHERE id = ?`

	var a models.Appointment
	var start, end, status, createdAt string
	err := db.querier(ctx).QueryRowContext(ctx, query, id).Scan(
		&a.ID, &a.ResourceID, &a.LeadID,
		&a.Contact.Name, &a.Contact.Email, &a.Contact.Phone,
		&start, &end, &a.Notes, &status, &createdAt)
	if err == sql.ErrNoRows {
		return models.Appointment{}, models.ErrAppointmentNotFound
	}
	if err != nil {
		return models.Appointment{}, fmt.Errorf("failed to get appointment: %w", err)
	}

	if a.StartTS, err = parseTS(start); err != nil {
		return models.Appointment{}, fmt.Errorf("failed to parse start_ts: %w", err)
	}
	if a.EndTS, err = parseTS(end); err != nil {
		return models.Appointment{}, fmt.Errorf("failed to parse end_ts: %w", err)
	}
	if a.CreatedAt, err = parseTS(createdAt); err != nil {
		return models.Appointment{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	a.Status = models.AppointmentStatus(status)

	return a, nil
}

// MarkAppointmentCancelled flips a confirmed appointment to cancelled. It
// returns false when the appointment was already cancelled.
func (db *DB) MarkAppointmentCancelled(ctx context.Context, id string) (bool, error) {
	res, err := db.querier(ctx).ExecContext(ctx,
		`UPDATE appointments SET status = ? WHERE id = ? AND status != ?`,
		string(models.AppointmentCancelled), id, string(models.AppointmentCancelled))
	if err != nil {
		return false, fmt.Errorf("failed to mark appointment cancelled: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return n == 1, nil
}

// ListAppointments returns non-cancelled appointments for a resource in
// [from, to] ordered by start.
func (db *DB) ListAppointments(ctx context.Context, resourceID string, from, to time.Time) ([]models.Appointment, error) {
	query := `SELECT id, resource_id, lead_id, contact_name, contact_email, contact_phone,
		start_ts, end_ts, notes, status, created_at
		FROM appointments
		WHERE resource_id = ? AND start_ts >= ? AND end_ts <= ? AND status != ?
		ORDER BY start_ts`

	rows, err := db.querier(ctx).QueryContext(ctx, query,
		resourceID, ts(from), ts(to), string(models.AppointmentCancelled))
	if err != nil {
		return nil, fmt.Errorf("failed to query appointments: %w", err)
	}
	defer rows.Close()

	var appointments []models.Appointment
	for rows.Next() {
		var a models.Appointment
		var start, end, status, createdAt string
		if err := rows.Scan(&a.ID, &a.ResourceID, &a.LeadID,
			&a.Contact.Name, &a.Contact.Email, &a.Contact.Phone,
			&start, &end, &a.Notes, &status, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan appointment: %w", err)
		}
		if a.StartTS, err = parseTS(start); err != nil {
			return nil, fmt.Errorf("failed to parse start_ts: %w", err)
		}
		if a.EndTS, err = parseTS(end); err != nil {
			return nil, fmt.Errorf("failed to parse end_ts: %w", err)
		}
		if a.CreatedAt, err = parseTS(createdAt); err != nil {
			return nil, fmt.Errorf("failed to parse created_at: %w", err)
		}
		a.Status = models.AppointmentStatus(status)
		appointments = append(appointments, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating appointments: %w", err)
	}

	return appointments, nil
}
