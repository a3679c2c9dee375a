package models

import "errors"

// Sentinel errors surfaced by the core operations. Handlers map these to
// HTTP 404/409; everything else is treated as an internal failure.
var (
	ErrResourceNotFound    = errors.New("resource not found")
	ErrSlotNotFound        = errors.New("slot not found")
	ErrSlotUnavailable     = errors.New("slot already booked")
	ErrAppointmentNotFound = errors.New("appointment not found")
	ErrLeadNotFound        = errors.New("lead not found")
	ErrBuyerNotFound       = errors.New("buyer not found")
	ErrInvalidOutcome      = errors.New("invalid outcome")
)
