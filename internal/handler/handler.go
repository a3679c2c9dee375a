package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"lead-market-api/internal/models"
	"lead-market-api/internal/service"
	"lead-market-api/internal/validation"
)

// Handler provides HTTP handlers for the API.
type Handler struct {
	service     *service.Service
	maxBodySize int64
}

// NewHandlerOptions holds options for creating a handler.
type NewHandlerOptions struct {
	MaxBodySize int64
}

// DefaultHandlerOptions returns default handler options.
func DefaultHandlerOptions() NewHandlerOptions {
	return NewHandlerOptions{
		MaxBodySize: 10 << 20, // 10MB default
	}
}

// NewHandler creates a new handler instance.
func NewHandler(svc *service.Service) *Handler {
	return NewHandlerWithOptions(svc, DefaultHandlerOptions())
}

// NewHandlerWithOptions creates a new handler instance with custom options.
func NewHandlerWithOptions(svc *service.Service, opts NewHandlerOptions) *Handler {
	return &Handler{
		service:     svc,
		maxBodySize: opts.MaxBodySize,
	}
}

// Routes mounts every API route on the router.
func (h *Handler) Routes(r chi.Router) {
	r.Route("/leads", func(r chi.Router) {
		r.Post("/", h.IngestLead)
		r.Post("/{lead_id}/outcome", h.RecordOutcome)
	})

	r.Route("/buyers", func(r chi.Router) {
		r.Get("/{buyer_id}/reputation", h.GetBuyerReputation)
	})

	r.Route("/resources", func(r chi.Router) {
		r.Post("/", h.CreateResource)
		r.Get("/", h.ListResources)
		r.Post("/{resource_id}/slots", h.GenerateSlots)
		r.Get("/{resource_id}/slots", h.GetAvailableSlots)
	})

	r.Route("/appointments", func(r chi.Router) {
		r.Post("/", h.BookAppointment)
		r.Get("/", h.ListAppointments)
		r.Post("/{appointment_id}/cancel", h.CancelAppointment)
	})
}

// IngestLead handles POST /leads
func (h *Handler) IngestLead(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodySize)

	var req models.IngestLeadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if err == io.EOF {
			h.respondError(w, http.StatusBadRequest, "request body is required")
			return
		}
		h.respondError(w, http.StatusBadRequest, "invalid JSON in request body")
		return
	}

	req.Lead.ID = validation.SanitizeString(req.Lead.ID)
	req.Lead.Vertical = validation.SanitizeString(req.Lead.Vertical)
	req.Destination = validation.SanitizeString(req.Destination)

	resp, err := h.service.IngestLead(r.Context(), req)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}

	h.respondJSON(w, http.StatusCreated, resp)
}

// RecordOutcome handles POST /leads/{lead_id}/outcome
func (h *Handler) RecordOutcome(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodySize)

	leadID := validation.SanitizeString(chi.URLParam(r, "lead_id"))

	var req models.OutcomeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if err == io.EOF {
			h.respondError(w, http.StatusBadRequest, "request body is required")
			return
		}
		h.respondError(w, http.StatusBadRequest, "invalid JSON in request body")
		return
	}
	req.BuyerID = validation.SanitizeString(req.BuyerID)

	if err := h.service.RecordOutcome(r.Context(), leadID, req); err != nil {
		h.respondServiceError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]string{"status": "recorded"})
}

// GetBuyerReputation handles GET /buyers/{buyer_id}/reputation
func (h *Handler) GetBuyerReputation(w http.ResponseWriter, r *http.Request) {
	buyerID := validation.SanitizeString(chi.URLParam(r, "buyer_id"))
	if buyerID == "" {
		h.respondError(w, http.StatusBadRequest, "buyer_id is required")
		return
	}

	rep, err := h.service.GetBuyerReputation(r.Context(), buyerID)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, rep)
}

// CreateResource handles POST /resources
func (h *Handler) CreateResource(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodySize)

	var req models.CreateResourceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if err == io.EOF {
			h.respondError(w, http.StatusBadRequest, "request body is required")
			return
		}
		h.respondError(w, http.StatusBadRequest, "invalid JSON in request body")
		return
	}

	req.TenantID = validation.SanitizeString(req.TenantID)
	req.Name = validation.SanitizeString(req.Name)
	req.Timezone = validation.SanitizeString(req.Timezone)

	resource, err := h.service.CreateResource(r.Context(), req)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}

	h.respondJSON(w, http.StatusCreated, resource)
}

// ListResources handles GET /resources
func (h *Handler) ListResources(w http.ResponseWriter, r *http.Request) {
	tenantID := validation.SanitizeString(r.URL.Query().Get("tenant_id"))

	resources, err := h.service.ListResources(r.Context(), tenantID)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	if resources == nil {
		resources = []models.Resource{}
	}

	h.respondJSON(w, http.StatusOK, resources)
}

// GenerateSlots handles POST /resources/{resource_id}/slots
func (h *Handler) GenerateSlots(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodySize)

	resourceID := validation.SanitizeString(chi.URLParam(r, "resource_id"))

	var req models.GenerateSlotsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
		h.respondError(w, http.StatusBadRequest, "invalid JSON in request body")
		return
	}

	slots, err := h.service.GenerateSlots(r.Context(), resourceID, req)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	if slots == nil {
		slots = []models.Slot{}
	}

	h.respondJSON(w, http.StatusCreated, models.GenerateSlotsResponse{
		SlotsGenerated: len(slots),
		Slots:          slots,
	})
}

// GetAvailableSlots handles GET /resources/{resource_id}/slots
func (h *Handler) GetAvailableSlots(w http.ResponseWriter, r *http.Request) {
	resourceID := validation.SanitizeString(chi.URLParam(r, "resource_id"))

	from, to, ok := h.parseWindow(w, r)
	if !ok {
		return
	}

	slots, err := h.service.GetAvailableSlots(r.Context(), resourceID, from, to)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	if slots == nil {
		slots = []models.Slot{}
	}

	h.respondJSON(w, http.StatusOK, map[string][]models.Slot{"available_slots": slots})
}

// BookAppointment handles POST /appointments
func (h *Handler) BookAppointment(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodySize)

	var req models.BookAppointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if err == io.EOF {
			h.respondError(w, http.StatusBadRequest, "request body is required")
			return
		}
		h.respondError(w, http.StatusBadRequest, "invalid JSON in request body")
		return
	}

	req.ResourceID = validation.SanitizeString(req.ResourceID)
	req.SlotID = validation.SanitizeString(req.SlotID)
	req.LeadID = validation.SanitizeString(req.LeadID)
	req.Name = validation.SanitizeString(req.Name)
	req.Email = validation.SanitizeString(req.Email)
	req.Phone = validation.SanitizeString(req.Phone)

	appointment, err := h.service.BookAppointment(r.Context(), req)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}

	h.respondJSON(w, http.StatusCreated, appointment)
}

// CancelAppointment handles POST /appointments/{appointment_id}/cancel
func (h *Handler) CancelAppointment(w http.ResponseWriter, r *http.Request) {
	appointmentID := validation.SanitizeString(chi.URLParam(r, "appointment_id"))

	appointment, err := h.service.CancelAppointment(r.Context(), appointmentID)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, appointment)
}

// ListAppointments handles GET /appointments
func (h *Handler) ListAppointments(w http.ResponseWriter, r *http.Request) {
	resourceID := validation.SanitizeString(r.URL.Query().Get("resource_id"))
	if resourceID == "" {
		h.respondError(w, http.StatusBadRequest, "resource_id is required")
		return
	}

	from, to, ok := h.parseWindow(w, r)
	if !ok {
		return
	}

	appointments, err := h.service.ListAppointments(r.Context(), resourceID, from, to)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	if appointments == nil {
		appointments = []models.Appointment{}
	}

	h.respondJSON(w, http.StatusOK, map[string][]models.Appointment{"appointments": appointments})
}

// parseWindow reads the from/to query parameters. Missing values default to
// a two-week window starting now.
func (h *Handler) parseWindow(w http.ResponseWriter, r *http.Request) (time.Time, time.Time, bool) {
	now := time.Now().UTC()
	from := now
	to := now.AddDate(0, 0, 14)

	if v := validation.SanitizeString(r.URL.Query().Get("from")); v != "" {
		t, err := validation.ValidateTimeString(v)
		if err != nil {
			h.respondError(w, http.StatusBadRequest, "invalid 'from' parameter, must be RFC3339 format")
			return time.Time{}, time.Time{}, false
		}
		from = t
	}
	if v := validation.SanitizeString(r.URL.Query().Get("to")); v != "" {
		t, err := validation.ValidateTimeString(v)
		if err != nil {
			h.respondError(w, http.StatusBadRequest, "invalid 'to' parameter, must be RFC3339 format")
			return time.Time{}, time.Time{}, false
		}
		to = t
	}

	return from, to, true
}

// respondServiceError maps domain errors onto HTTP status codes.
func (h *Handler) respondServiceError(w http.ResponseWriter, err error) {
	var validationErr *validation.ValidationError
	switch {
	case errors.As(err, &validationErr):
		h.respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, models.ErrResourceNotFound),
		errors.Is(err, models.ErrSlotNotFound),
		errors.Is(err, models.ErrAppointmentNotFound),
		errors.Is(err, models.ErrLeadNotFound),
		errors.Is(err, models.ErrBuyerNotFound):
		h.respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, models.ErrSlotUnavailable):
		h.respondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, models.ErrInvalidOutcome):
		h.respondError(w, http.StatusBadRequest, err.Error())
	default:
		h.respondError(w, http.StatusInternalServerError, "internal error")
	}
}

// respondJSON sends a JSON response with the given status code.
func (h *Handler) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError sends an error response with the given status code and message.
func (h *Handler) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, models.ErrorResponse{Error: message})
}
